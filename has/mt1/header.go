// The mt1 package parses HAS Message Type 1, the mask / orbit / clock
// / bias correction message, from the information block recovered by
// the page assembler.  The body is a dense bit stream whose layout
// depends on the header flags and on the satellite, signal and cell
// masks, so parsing is strictly sequential.
package mt1

import (
	"errors"
	"fmt"

	"github.com/goblimey/go-has/has/bits"
)

// Field lengths in bits.
const lenTOH = 12
const lenMaskID = 5
const lenIODSetID = 5
const lenFlag = 1
const lenHeaderReserved = 3

// lenHeader is the fixed length of the MT1 header.
const lenHeader = lenTOH + lenMaskID + lenIODSetID + 7*lenFlag + lenHeaderReserved

// maxTOH is the largest legal time-of-hour value in seconds.
const maxTOH = 3600

// Header holds the fixed 32-bit MT1 header.  The seven flags announce
// which body sections follow and in what order.
type Header struct {

	// TOH - uint12 - time of hour in seconds, the validity anchor of
	// the corrections.  Values above 3600 mark the whole message as
	// unusable.
	TOH uint16

	// MaskID - uint5 - selects which cached mask the body refers to
	// when the mask flag is clear, and which cache slot a fresh mask
	// is stored in when it is set.
	MaskID uint8

	// IODSetID - uint5 - issue of data for the correction set.
	IODSetID uint8

	// MaskFlag is true when the body carries a mask section.
	MaskFlag bool

	// OrbitCorrectionFlag is true when the body carries orbit
	// corrections.
	OrbitCorrectionFlag bool

	// ClockFullSetFlag is true when the body carries clock corrections
	// for every satellite in the mask.
	ClockFullSetFlag bool

	// ClockSubsetFlag is true when the body carries clock corrections
	// for a subset of the satellites in the mask.
	ClockSubsetFlag bool

	// CodeBiasFlag is true when the body carries code biases.
	CodeBiasFlag bool

	// PhaseBiasFlag is true when the body carries phase biases.
	PhaseBiasFlag bool

	// URAFlag is true when the body carries user range accuracy
	// values.
	URAFlag bool
}

// GetHeader reads the 32-bit MT1 header from the reader and checks the
// time of hour.  The reader is left positioned at the start of the
// body.
func GetHeader(r *bits.Reader) (*Header, error) {
	if r.Remaining() < lenHeader {
		em := fmt.Sprintf("mt1: bit stream %d bits long, too short for the %d-bit header",
			r.Remaining(), lenHeader)
		return nil, errors.New(em)
	}

	var header Header

	toh, _ := r.Uint64(lenTOH)
	header.TOH = uint16(toh)
	maskID, _ := r.Uint64(lenMaskID)
	header.MaskID = uint8(maskID)
	iodSetID, _ := r.Uint64(lenIODSetID)
	header.IODSetID = uint8(iodSetID)
	header.MaskFlag, _ = r.Bool()
	header.OrbitCorrectionFlag, _ = r.Bool()
	header.ClockFullSetFlag, _ = r.Bool()
	header.ClockSubsetFlag, _ = r.Bool()
	header.CodeBiasFlag, _ = r.Bool()
	header.PhaseBiasFlag, _ = r.Bool()
	header.URAFlag, _ = r.Bool()
	r.Skip(lenHeaderReserved)

	if header.TOH > maxTOH {
		em := fmt.Sprintf("mt1: time of hour %d out of range 0-%d", header.TOH, maxTOH)
		return nil, errors.New(em)
	}

	return &header, nil
}

// String returns the header in a readable form for the event log.
func (header *Header) String() string {
	return fmt.Sprintf(
		"MT1 header: TOH %d mask ID %d IOD set ID %d flags: mask %v orbit %v clock full set %v clock subset %v code bias %v phase bias %v URA %v",
		header.TOH, header.MaskID, header.IODSetID,
		header.MaskFlag, header.OrbitCorrectionFlag,
		header.ClockFullSetFlag, header.ClockSubsetFlag,
		header.CodeBiasFlag, header.PhaseBiasFlag, header.URAFlag)
}

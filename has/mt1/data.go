package mt1

import (
	"fmt"
	"strings"

	"github.com/goblimey/go-has/has/mask"
)

// validityIntervalSeconds maps the 4-bit validity interval index to
// seconds.  Indexes 15 and above are reserved.
var validityIntervalSeconds = [16]int{
	5, 10, 15, 20, 30, 60, 90, 120, 180, 240, 300, 600, 900, 1800, 3600, 0,
}

// ValidityIntervalSeconds returns the validity interval in seconds for
// the given 4-bit index, or 0 for reserved indexes.
func ValidityIntervalSeconds(index uint8) int {
	if index >= uint8(len(validityIntervalSeconds)) {
		return 0
	}
	return validityIntervalSeconds[index]
}

// OrbitCorrectionSet holds the orbit correction section: one entry per
// satellite, in mask order across all systems.
type OrbitCorrectionSet struct {

	// ValidityIntervalIndex - uint4 - see ValidityIntervalSeconds.
	ValidityIntervalIndex uint8

	// GNSSIOD - uint10 per satellite - the issue of data of the
	// ephemeris the correction applies to.
	GNSSIOD []uint16

	// DeltaRadial - int13 per satellite - radial orbit correction,
	// 0.0025 m units.
	DeltaRadial []int16

	// DeltaAlongTrack - int12 per satellite - along-track orbit
	// correction, 0.0080 m units.
	DeltaAlongTrack []int16

	// DeltaCrossTrack - int12 per satellite - cross-track orbit
	// correction, 0.0080 m units.
	DeltaCrossTrack []int16
}

// ClockFullSet holds the full-set clock correction section: one
// multiplier per system and one correction per satellite.
type ClockFullSet struct {

	// ValidityIntervalIndex - uint4.
	ValidityIntervalIndex uint8

	// DeltaClockC0Multiplier holds one multiplier per system in mask
	// order.  The wire value is 0..3; the stored value is wire + 1.
	DeltaClockC0Multiplier []uint8

	// IODChangeFlag - bit(1) per satellite.
	IODChangeFlag []bool

	// DeltaClockC0 - int13 per satellite - clock correction in units
	// of 0.0025 m times the system's multiplier.
	DeltaClockC0 []int16
}

// ClockSubsetSystem holds the subset clock corrections for one system:
// a submask over the system's satellite mask and one correction per
// selected satellite.
type ClockSubsetSystem struct {

	// GNSSID - uint4 - must match a system in the mask.
	GNSSID uint8

	// DeltaClockC0Multiplier - wire value + 1, as in ClockFullSet.
	DeltaClockC0Multiplier uint8

	// Submask selects satellites from the system's satellite mask,
	// one bit per masked satellite, MSB first.
	Submask uint64

	// SubmaskLength is the submask width in bits, which is the
	// system's satellite count.
	SubmaskLength int

	// IODChangeFlag - bit(1) per selected satellite.
	IODChangeFlag []bool

	// DeltaClockC0 - int13 per selected satellite.
	DeltaClockC0 []int16
}

// SelectedSatellites returns the PRNs the submask selects, in mask
// order.
func (s *ClockSubsetSystem) SelectedSatellites(system *mask.SystemMask) []int {
	satellites := system.Satellites()
	selected := make([]int, 0, len(s.DeltaClockC0))
	for i := 0; i < s.SubmaskLength && i < len(satellites); i++ {
		bitPosition := s.SubmaskLength - 1 - i
		if (s.Submask>>bitPosition)&1 == 1 {
			selected = append(selected, satellites[i])
		}
	}
	return selected
}

// ClockSubset holds the subset clock correction section.
type ClockSubset struct {

	// ValidityIntervalIndex - uint4.
	ValidityIntervalIndex uint8

	// Systems - one entry per subset system, in message order.
	Systems []ClockSubsetSystem
}

// BiasSet holds a code or phase bias section.  Rows are indexed by
// satellite in mask order across all systems; each row has one entry
// per signal in the satellite's system, in signal mask order.  Cells
// switched off by the cell mask hold zero.
type BiasSet struct {

	// ValidityIntervalIndex - uint4.
	ValidityIntervalIndex uint8

	// Bias - int11 per active cell - code biases in 0.02 m units or
	// phase biases in 0.01 cycle units.
	Bias [][]int16

	// DiscontinuityIndicator - uint2 per active cell, phase biases
	// only.  Nil for code biases.
	DiscontinuityIndicator [][]uint8
}

// URASet holds the user range accuracy section, one 4-bit value per
// satellite in mask order.
type URASet struct {

	// ValidityIntervalIndex - uint4.
	ValidityIntervalIndex uint8

	// URA - uint4 per satellite.
	URA []uint8
}

// Data is a broken-out version of a complete MT1 message: the header,
// the mask in force (freshly parsed or fetched from the cache) and
// whichever correction sections the header flags announced.  Sections
// whose flag was clear are nil.
type Data struct {

	// Header is the fixed 32-bit MT1 header.
	Header *Header

	// Mask is the mask the correction sections are laid out against.
	Mask *mask.Mask

	// MaskFromCache is true when the mask was fetched from the cache
	// rather than carried in this message.
	MaskFromCache bool

	// Orbit corrections, nil if the section was absent.
	Orbit *OrbitCorrectionSet

	// Full-set clock corrections, nil if the section was absent.
	ClockFullSet *ClockFullSet

	// Subset clock corrections, nil if the section was absent.
	ClockSubset *ClockSubset

	// Code biases, nil if the section was absent.
	CodeBias *BiasSet

	// Phase biases, nil if the section was absent.
	PhaseBias *BiasSet

	// User range accuracy values, nil if the section was absent.
	URA *URASet
}

// String returns the record in a readable form, one section per
// block, for the event log.
func (data *Data) String() string {
	var sb strings.Builder
	sb.WriteString(data.Header.String())
	sb.WriteByte('\n')
	if data.Mask != nil {
		if data.MaskFromCache {
			fmt.Fprintf(&sb, "mask (cached, ID %d):\n", data.Header.MaskID)
		}
		sb.WriteString(data.Mask.String())
	}
	if data.Orbit != nil {
		fmt.Fprintf(&sb, "orbit corrections (validity %d s):\n",
			ValidityIntervalSeconds(data.Orbit.ValidityIntervalIndex))
		for i := range data.Orbit.GNSSIOD {
			fmt.Fprintf(&sb, "  sat %d: IOD %d radial %.4f m along track %.4f m cross track %.4f m\n",
				i, data.Orbit.GNSSIOD[i],
				OrbitRadialMetres(data.Orbit.DeltaRadial[i]),
				OrbitInTrackMetres(data.Orbit.DeltaAlongTrack[i]),
				OrbitInTrackMetres(data.Orbit.DeltaCrossTrack[i]))
		}
	}
	if data.ClockFullSet != nil {
		fmt.Fprintf(&sb, "clock full set (validity %d s) multipliers %v\n",
			ValidityIntervalSeconds(data.ClockFullSet.ValidityIntervalIndex),
			data.ClockFullSet.DeltaClockC0Multiplier)
	}
	if data.ClockSubset != nil {
		fmt.Fprintf(&sb, "clock subset (validity %d s): %d systems\n",
			ValidityIntervalSeconds(data.ClockSubset.ValidityIntervalIndex),
			len(data.ClockSubset.Systems))
	}
	if data.CodeBias != nil {
		fmt.Fprintf(&sb, "code biases (validity %d s): %d satellites\n",
			ValidityIntervalSeconds(data.CodeBias.ValidityIntervalIndex),
			len(data.CodeBias.Bias))
	}
	if data.PhaseBias != nil {
		fmt.Fprintf(&sb, "phase biases (validity %d s): %d satellites\n",
			ValidityIntervalSeconds(data.PhaseBias.ValidityIntervalIndex),
			len(data.PhaseBias.Bias))
	}
	if data.URA != nil {
		fmt.Fprintf(&sb, "URA (validity %d s): %v\n",
			ValidityIntervalSeconds(data.URA.ValidityIntervalIndex), data.URA.URA)
	}
	return sb.String()
}

// The mask package holds the mask section of a HAS Message Type 1.  A
// mask announces, for each GNSS system it covers, which satellites and
// signals the later correction sections refer to.  The correction
// sections carry no satellite numbers of their own: their fields are
// laid out in mask order, so a message whose mask flag is clear can
// only be interpreted against a mask cached from an earlier message
// with the same mask ID.
package mask

import (
	"fmt"
	mathbits "math/bits"
	"strings"
)

// SatelliteMaskLength is the width of the satellite mask in bits, one
// bit per PRN.  The mask is MSB first: the top bit is PRN 1.
const SatelliteMaskLength = 40

// SignalMaskLength is the width of the signal mask in bits, one bit
// per signal slot, MSB first.
const SignalMaskLength = 16

// MaxMaskID is the upper bound (exclusive) of the mask ID space and
// the number of slots in the Cache.
const MaxMaskID = 32

// GNSS system identifiers used in the gnss_id field.
const (
	GNSSIDGPS     = 0
	GNSSIDGalileo = 2
)

// SystemMask holds the mask fields for one GNSS system.
type SystemMask struct {

	// GNSSID - uint4 - the system: 0 GPS, 2 Galileo, others reserved.
	GNSSID uint8

	// SatelliteMask is 40 bits, one per PRN.  Bit 39 is set if the
	// corrections cover PRN 1, bit 38 for PRN 2 and so on.
	SatelliteMask uint64

	// SignalMask is 16 bits, one per signal slot.  Bit 15 is the first
	// signal slot, bit 0 the sixteenth.
	SignalMask uint16

	// CellMaskAvailable is true when the message carries a cell mask
	// for this system.
	CellMaskAvailable bool

	// CellMask selects the (satellite, signal) pairs that receive code
	// and phase biases.  It is indexed [satellite][signal] in mask
	// order and is only meaningful when CellMaskAvailable is true;
	// when it is false every pair receives a bias.
	CellMask [][]bool

	// NavMessage - uint3 - the navigation message the corrections
	// apply to.
	NavMessage uint8
}

// SatelliteCount returns the number of satellites in the system's mask.
func (s *SystemMask) SatelliteCount() int {
	return mathbits.OnesCount64(s.SatelliteMask)
}

// SignalCount returns the number of signal slots in the system's mask.
func (s *SystemMask) SignalCount() int {
	return mathbits.OnesCount16(s.SignalMask)
}

// Satellites returns the PRNs selected by the satellite mask, in mask
// order.  The mask is MSB first, so the list is in ascending PRN order.
func (s *SystemMask) Satellites() []int {
	satellites := make([]int, 0, s.SatelliteCount())
	for prn := 1; prn <= SatelliteMaskLength; prn++ {
		bitPosition := SatelliteMaskLength - prn
		if (s.SatelliteMask>>bitPosition)&1 == 1 {
			satellites = append(satellites, prn)
		}
	}
	return satellites
}

// Signals returns the signal slots selected by the signal mask, in
// mask order.
func (s *SystemMask) Signals() []int {
	signals := make([]int, 0, s.SignalCount())
	for sig := 1; sig <= SignalMaskLength; sig++ {
		bitPosition := SignalMaskLength - sig
		if (s.SignalMask>>bitPosition)&1 == 1 {
			signals = append(signals, sig)
		}
	}
	return signals
}

// CellActive reports whether the (satellite, signal) pair at the given
// mask-order indices receives code and phase biases.  When no cell
// mask was sent, every pair is active.
func (s *SystemMask) CellActive(satIndex, sigIndex int) bool {
	if !s.CellMaskAvailable {
		return true
	}
	return s.CellMask[satIndex][sigIndex]
}

// Mask holds the complete mask section of an MT1: one SystemMask per
// GNSS system, in the order they appeared in the message.
type Mask struct {
	Systems []SystemMask
}

// Nsat returns the total number of satellites across all systems, the
// count that sizes the orbit, clock and URA sections.
func (m *Mask) Nsat() int {
	total := 0
	for i := range m.Systems {
		total += m.Systems[i].SatelliteCount()
	}
	return total
}

// String returns the mask in a readable form for the event log.
func (m *Mask) String() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "mask: %d systems, %d satellites\n", len(m.Systems), m.Nsat())
	for i := range m.Systems {
		s := &m.Systems[i]
		fmt.Fprintf(&sb, "  system %d: gnss_id %d satellites %v signals %v cell mask available %v nav message %d\n",
			i, s.GNSSID, s.Satellites(), s.Signals(), s.CellMaskAvailable, s.NavMessage)
	}
	return sb.String()
}

// Cache stores the most recent mask received for each mask ID.  Masks
// persist for the life of the process.  A Cache is only ever touched
// by the single goroutine running the receiver, so it needs no lock.
type Cache struct {
	masks [MaxMaskID]*Mask
}

// NewCache creates an empty Cache.
func NewCache() *Cache {
	return &Cache{}
}

// Store records the mask for the given mask ID, replacing any earlier
// one.  A mask ID outside 0..31 is silently ignored.
func (c *Cache) Store(maskID uint8, m *Mask) {
	if maskID >= MaxMaskID {
		return
	}
	c.masks[maskID] = m
}

// Load returns the most recently stored mask for the given mask ID, or
// nil if none has been stored.
func (c *Cache) Load(maskID uint8) *Mask {
	if maskID >= MaxMaskID {
		return nil
	}
	return c.masks[maskID]
}

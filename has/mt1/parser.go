package mt1

import (
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/goblimey/go-has/has/bits"
	"github.com/goblimey/go-has/has/mask"
)

// Body field lengths in bits.
const lenNsys = 4
const lenGNSSID = 4
const lenSatelliteMask = 40
const lenSignalMask = 16
const lenCellMaskAvailability = 1
const lenNavMessage = 3
const lenMaskReserved = 6
const lenValidityIntervalIndex = 4
const lenGNSSIOD = 10
const lenDeltaRadial = 13
const lenDeltaInTrack = 12
const lenDeltaClockC0Multiplier = 2
const lenIODChangeFlag = 1
const lenDeltaClockC0 = 13
const lenNsysSub = 4
const lenBias = 11
const lenDiscontinuityIndicator = 2
const lenURA = 4

// ErrMissingMask is returned when the header's mask flag is clear and
// no usable mask is cached for the mask ID.  The correction sections
// cannot be interpreted, so the whole message is dropped.
var ErrMissingMask = errors.New("mt1: no cached mask for this mask ID")

// GetMessage parses a complete MT1 message from the recovered
// information block.  numBits is the block length in bits (message
// size times 424).  The cache supplies the mask when the message does
// not carry one and receives the mask when it does; it is only
// written once the mask section has parsed completely.
//
// On any failure no record is returned and, apart from a possible
// mask cache update, no state is changed.
func GetMessage(bitStream []byte, numBits uint, cache *mask.Cache, logger *slog.Logger) (*Data, error) {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	r := bits.NewReaderBits(bitStream, numBits)

	header, err := GetHeader(r)
	if err != nil {
		return nil, err
	}

	logger.Debug("MT1 header", "toh", header.TOH, "mask_id", header.MaskID,
		"iod_set_id", header.IODSetID, "mask", header.MaskFlag,
		"orbit", header.OrbitCorrectionFlag, "clock_full_set", header.ClockFullSetFlag,
		"clock_subset", header.ClockSubsetFlag, "code_bias", header.CodeBiasFlag,
		"phase_bias", header.PhaseBiasFlag, "ura", header.URAFlag)

	data := Data{Header: header}

	if header.MaskFlag {
		m, err := getMask(r)
		if err != nil {
			return nil, err
		}
		cache.Store(header.MaskID, m)
		data.Mask = m
		logger.Debug("mask stored", "mask_id", header.MaskID, "nsat", m.Nsat())
	} else {
		m := cache.Load(header.MaskID)
		if m == nil || m.Nsat() == 0 {
			return nil, ErrMissingMask
		}
		data.Mask = m
		data.MaskFromCache = true
		logger.Debug("mask loaded from cache", "mask_id", header.MaskID, "nsat", m.Nsat())
	}

	if header.OrbitCorrectionFlag {
		data.Orbit, err = getOrbitCorrections(r, data.Mask)
		if err != nil {
			return nil, err
		}
	}

	if header.ClockFullSetFlag {
		data.ClockFullSet, err = getClockFullSet(r, data.Mask)
		if err != nil {
			return nil, err
		}
	}

	if header.ClockSubsetFlag {
		data.ClockSubset, err = getClockSubset(r, data.Mask)
		if err != nil {
			return nil, err
		}
	}

	if header.CodeBiasFlag {
		data.CodeBias, err = getBiases(r, data.Mask, false)
		if err != nil {
			return nil, err
		}
	}

	if header.PhaseBiasFlag {
		data.PhaseBias, err = getBiases(r, data.Mask, true)
		if err != nil {
			return nil, err
		}
	}

	if header.URAFlag {
		data.URA, err = getURA(r, data.Mask)
		if err != nil {
			return nil, err
		}
	}

	logger.Debug("MT1 body parsed", "bits_consumed", r.Position(), "bits_total", numBits)

	return &data, nil
}

// getMask reads the mask section: the system count followed by one
// mask block per system and six reserved bits.
func getMask(r *bits.Reader) (*mask.Mask, error) {
	nsys, err := r.Uint64(lenNsys)
	if err != nil {
		return nil, fmt.Errorf("mt1: mask section: %w", err)
	}
	if nsys == 0 {
		return nil, errors.New("mt1: mask section announces no systems")
	}

	m := mask.Mask{Systems: make([]mask.SystemMask, 0, nsys)}

	for s := uint64(0); s < nsys; s++ {
		var system mask.SystemMask

		gnssID, err := r.Uint64(lenGNSSID)
		if err != nil {
			return nil, fmt.Errorf("mt1: mask section system %d: %w", s, err)
		}
		system.GNSSID = uint8(gnssID)

		system.SatelliteMask, err = r.Uint64(lenSatelliteMask)
		if err != nil {
			return nil, fmt.Errorf("mt1: mask section system %d: %w", s, err)
		}

		signalMask, err := r.Uint64(lenSignalMask)
		if err != nil {
			return nil, fmt.Errorf("mt1: mask section system %d: %w", s, err)
		}
		system.SignalMask = uint16(signalMask)

		system.CellMaskAvailable, err = r.Bool()
		if err != nil {
			return nil, fmt.Errorf("mt1: mask section system %d: %w", s, err)
		}

		if system.CellMaskAvailable {
			nsat := system.SatelliteCount()
			nsig := system.SignalCount()
			system.CellMask = make([][]bool, nsat)
			for i := 0; i < nsat; i++ {
				row := make([]bool, nsig)
				for j := 0; j < nsig; j++ {
					row[j], err = r.Bool()
					if err != nil {
						return nil, fmt.Errorf("mt1: mask section system %d cell mask: %w", s, err)
					}
				}
				system.CellMask[i] = row
			}
		}

		navMessage, err := r.Uint64(lenNavMessage)
		if err != nil {
			return nil, fmt.Errorf("mt1: mask section system %d: %w", s, err)
		}
		system.NavMessage = uint8(navMessage)

		m.Systems = append(m.Systems, system)
	}

	if err := r.Skip(lenMaskReserved); err != nil {
		return nil, fmt.Errorf("mt1: mask section reserved bits: %w", err)
	}

	return &m, nil
}

// getOrbitCorrections reads the orbit correction section: the validity
// interval followed by an IOD and three deltas per satellite, walking
// the mask system by system.
func getOrbitCorrections(r *bits.Reader, m *mask.Mask) (*OrbitCorrectionSet, error) {
	validity, err := r.Uint64(lenValidityIntervalIndex)
	if err != nil {
		return nil, fmt.Errorf("mt1: orbit section: %w", err)
	}

	nsat := m.Nsat()
	set := OrbitCorrectionSet{
		ValidityIntervalIndex: uint8(validity),
		GNSSIOD:               make([]uint16, 0, nsat),
		DeltaRadial:           make([]int16, 0, nsat),
		DeltaAlongTrack:       make([]int16, 0, nsat),
		DeltaCrossTrack:       make([]int16, 0, nsat),
	}

	for s := range m.Systems {
		system := &m.Systems[s]

		// The IOD width is defined per system.  GPS and Galileo both
		// use ten bits; no other system is defined yet.
		if system.GNSSID != mask.GNSSIDGPS && system.GNSSID != mask.GNSSIDGalileo {
			em := fmt.Sprintf("mt1: orbit section: unknown GNSS ID %d", system.GNSSID)
			return nil, errors.New(em)
		}

		for i := 0; i < system.SatelliteCount(); i++ {
			iod, err := r.Uint64(lenGNSSIOD)
			if err != nil {
				return nil, fmt.Errorf("mt1: orbit section: %w", err)
			}
			radial, err := r.Int64(lenDeltaRadial)
			if err != nil {
				return nil, fmt.Errorf("mt1: orbit section: %w", err)
			}
			alongTrack, err := r.Int64(lenDeltaInTrack)
			if err != nil {
				return nil, fmt.Errorf("mt1: orbit section: %w", err)
			}
			crossTrack, err := r.Int64(lenDeltaInTrack)
			if err != nil {
				return nil, fmt.Errorf("mt1: orbit section: %w", err)
			}
			set.GNSSIOD = append(set.GNSSIOD, uint16(iod))
			set.DeltaRadial = append(set.DeltaRadial, int16(radial))
			set.DeltaAlongTrack = append(set.DeltaAlongTrack, int16(alongTrack))
			set.DeltaCrossTrack = append(set.DeltaCrossTrack, int16(crossTrack))
		}
	}

	return &set, nil
}

// getClockFullSet reads the full-set clock correction section: the
// validity interval, one multiplier per system, then a change flag and
// a correction per satellite.
func getClockFullSet(r *bits.Reader, m *mask.Mask) (*ClockFullSet, error) {
	validity, err := r.Uint64(lenValidityIntervalIndex)
	if err != nil {
		return nil, fmt.Errorf("mt1: clock full set section: %w", err)
	}

	nsat := m.Nsat()
	set := ClockFullSet{
		ValidityIntervalIndex:  uint8(validity),
		DeltaClockC0Multiplier: make([]uint8, 0, len(m.Systems)),
		IODChangeFlag:          make([]bool, 0, nsat),
		DeltaClockC0:           make([]int16, 0, nsat),
	}

	for range m.Systems {
		multiplier, err := r.Uint64(lenDeltaClockC0Multiplier)
		if err != nil {
			return nil, fmt.Errorf("mt1: clock full set section: %w", err)
		}
		set.DeltaClockC0Multiplier = append(set.DeltaClockC0Multiplier, uint8(multiplier)+1)
	}

	for s := range m.Systems {
		for i := 0; i < m.Systems[s].SatelliteCount(); i++ {
			iodChange, err := r.Bool()
			if err != nil {
				return nil, fmt.Errorf("mt1: clock full set section: %w", err)
			}
			deltaC0, err := r.Int64(lenDeltaClockC0)
			if err != nil {
				return nil, fmt.Errorf("mt1: clock full set section: %w", err)
			}
			set.IODChangeFlag = append(set.IODChangeFlag, iodChange)
			set.DeltaClockC0 = append(set.DeltaClockC0, int16(deltaC0))
		}
	}

	return &set, nil
}

// getClockSubset reads the subset clock correction section.  Each
// subset system names a system from the mask by GNSS ID and carries a
// submask over that system's satellites; one correction follows per
// selected satellite.
func getClockSubset(r *bits.Reader, m *mask.Mask) (*ClockSubset, error) {
	validity, err := r.Uint64(lenValidityIntervalIndex)
	if err != nil {
		return nil, fmt.Errorf("mt1: clock subset section: %w", err)
	}

	nsysSub, err := r.Uint64(lenNsysSub)
	if err != nil {
		return nil, fmt.Errorf("mt1: clock subset section: %w", err)
	}
	if nsysSub == 0 {
		return nil, errors.New("mt1: clock subset section announces no systems")
	}

	set := ClockSubset{
		ValidityIntervalIndex: uint8(validity),
		Systems:               make([]ClockSubsetSystem, 0, nsysSub),
	}

	for s := uint64(0); s < nsysSub; s++ {
		var subset ClockSubsetSystem

		gnssID, err := r.Uint64(lenGNSSID)
		if err != nil {
			return nil, fmt.Errorf("mt1: clock subset section system %d: %w", s, err)
		}
		subset.GNSSID = uint8(gnssID)

		system := findSystem(m, subset.GNSSID)
		if system == nil {
			em := fmt.Sprintf("mt1: clock subset section: GNSS ID %d is not in the mask", subset.GNSSID)
			return nil, errors.New(em)
		}

		multiplier, err := r.Uint64(lenDeltaClockC0Multiplier)
		if err != nil {
			return nil, fmt.Errorf("mt1: clock subset section system %d: %w", s, err)
		}
		subset.DeltaClockC0Multiplier = uint8(multiplier) + 1

		subset.SubmaskLength = system.SatelliteCount()
		subset.Submask, err = r.Uint64(uint(subset.SubmaskLength))
		if err != nil {
			return nil, fmt.Errorf("mt1: clock subset section system %d: %w", s, err)
		}

		// One correction per selected satellite, in submask order.
		for i := 0; i < subset.SubmaskLength; i++ {
			bitPosition := subset.SubmaskLength - 1 - i
			if (subset.Submask>>bitPosition)&1 == 0 {
				continue
			}
			iodChange, err := r.Bool()
			if err != nil {
				return nil, fmt.Errorf("mt1: clock subset section system %d: %w", s, err)
			}
			deltaC0, err := r.Int64(lenDeltaClockC0)
			if err != nil {
				return nil, fmt.Errorf("mt1: clock subset section system %d: %w", s, err)
			}
			subset.IODChangeFlag = append(subset.IODChangeFlag, iodChange)
			subset.DeltaClockC0 = append(subset.DeltaClockC0, int16(deltaC0))
		}

		set.Systems = append(set.Systems, subset)
	}

	return &set, nil
}

// getBiases reads a code bias or phase bias section.  Both walk the
// (satellite, signal) cells of the mask in satellite-major order,
// honouring the cell mask when one was sent; a phase bias entry also
// carries a discontinuity indicator.
func getBiases(r *bits.Reader, m *mask.Mask, phase bool) (*BiasSet, error) {
	sectionName := "code bias"
	if phase {
		sectionName = "phase bias"
	}

	validity, err := r.Uint64(lenValidityIntervalIndex)
	if err != nil {
		return nil, fmt.Errorf("mt1: %s section: %w", sectionName, err)
	}

	set := BiasSet{
		ValidityIntervalIndex: uint8(validity),
		Bias:                  make([][]int16, 0, m.Nsat()),
	}
	if phase {
		set.DiscontinuityIndicator = make([][]uint8, 0, m.Nsat())
	}

	for s := range m.Systems {
		system := &m.Systems[s]
		nsig := system.SignalCount()

		for i := 0; i < system.SatelliteCount(); i++ {
			biasRow := make([]int16, nsig)
			var discRow []uint8
			if phase {
				discRow = make([]uint8, nsig)
			}

			for j := 0; j < nsig; j++ {
				if !system.CellActive(i, j) {
					continue
				}
				bias, err := r.Int64(lenBias)
				if err != nil {
					return nil, fmt.Errorf("mt1: %s section: %w", sectionName, err)
				}
				biasRow[j] = int16(bias)
				if phase {
					disc, err := r.Uint64(lenDiscontinuityIndicator)
					if err != nil {
						return nil, fmt.Errorf("mt1: %s section: %w", sectionName, err)
					}
					discRow[j] = uint8(disc)
				}
			}

			set.Bias = append(set.Bias, biasRow)
			if phase {
				set.DiscontinuityIndicator = append(set.DiscontinuityIndicator, discRow)
			}
		}
	}

	return &set, nil
}

// getURA reads the user range accuracy section, one value per
// satellite.
func getURA(r *bits.Reader, m *mask.Mask) (*URASet, error) {
	validity, err := r.Uint64(lenValidityIntervalIndex)
	if err != nil {
		return nil, fmt.Errorf("mt1: URA section: %w", err)
	}

	nsat := m.Nsat()
	set := URASet{
		ValidityIntervalIndex: uint8(validity),
		URA:                   make([]uint8, 0, nsat),
	}

	for i := 0; i < nsat; i++ {
		ura, err := r.Uint64(lenURA)
		if err != nil {
			return nil, fmt.Errorf("mt1: URA section: %w", err)
		}
		set.URA = append(set.URA, uint8(ura))
	}

	return &set, nil
}

// findSystem returns the first system in the mask with the given GNSS
// ID, or nil.
func findSystem(m *mask.Mask, gnssID uint8) *mask.SystemMask {
	for i := range m.Systems {
		if m.Systems[i].GNSSID == gnssID {
			return &m.Systems[i]
		}
	}
	return nil
}

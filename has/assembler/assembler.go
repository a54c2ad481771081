// The assembler package collects HAS pages into per-message code
// matrices and recovers the information block once enough unique pages
// have arrived.  Pages arrive out of order and with gaps, across up to
// 32 interleaved message IDs.  Each message is protected by a vertical
// Reed-Solomon code: page p is row p-1 of a 255x53 octet matrix, and
// each of the 53 columns is one code block.  Missing rows are erasures
// except in the window between the message size and row 32, which the
// transmitter leaves all-zero.
package assembler

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/goblimey/go-has/has/page"
	"github.com/goblimey/go-has/has/reedsolomon"
)

// paddingStart is the first page ID after the known-zero padding
// window, the first parity page.  Pages with IDs from the message size (exclusive) up to here
// (exclusive) are never transmitted and never erased.
const paddingStart = 33

// Outcome reports what Accept did with a page.
type Outcome int

const (
	// Ignored: the page was filtered out (status, type, reserved page
	// ID or message ID out of range).
	Ignored Outcome = iota

	// Duplicate: a page with the same page ID was already recorded
	// for this message.
	Duplicate

	// Stored: the page was recorded but the message is still
	// incomplete.
	Stored

	// Complete: the page completed the message and decoding
	// succeeded.
	Complete

	// Failed: the page completed the message but decoding failed and
	// the message was dropped.
	Failed
)

// String names the outcome for logging.
func (o Outcome) String() string {
	switch o {
	case Ignored:
		return "ignored"
	case Duplicate:
		return "duplicate"
	case Stored:
		return "stored"
	case Complete:
		return "complete"
	case Failed:
		return "failed"
	default:
		return fmt.Sprintf("outcome(%d)", int(o))
	}
}

// midState is the assembly state for one message ID: the code matrix,
// the set of recorded rows and the size announced by the first page.
// Message IDs are reused over time, so the state is reset whenever a
// message is decoded or abandoned.
type midState struct {
	matrix  [reedsolomon.BlockLength][page.PayloadLengthOctets]byte
	present [reedsolomon.BlockLength]bool
	count   int
	size    uint8
}

// Assembler collects pages and decodes completed messages.  It is not
// safe for concurrent use; the receiver drives it from one goroutine.
type Assembler struct {
	codec  *reedsolomon.Codec
	logger *slog.Logger
	state  [page.MaxMessageID]midState
}

// New creates an Assembler.  A nil logger suppresses logging.
func New(logger *slog.Logger) *Assembler {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Assembler{codec: reedsolomon.New(), logger: logger}
}

// Accept processes one page.  If the page completes its message and
// decoding succeeds, Accept returns Complete along with the recovered
// information block: message size times 53 octets, rows in page order.
// On a decode failure it returns Failed with the error; the state for
// the message ID has been reset and later pages start a new message.
func (a *Assembler) Accept(p *page.Page) (Outcome, []byte, error) {
	if p.Status > 1 {
		return Ignored, nil, nil
	}
	if p.MessageType != 1 {
		return Ignored, nil, nil
	}
	if p.MessagePageID == 0 {
		return Ignored, nil, nil
	}
	if p.MessageID >= page.MaxMessageID {
		return Ignored, nil, nil
	}

	state := &a.state[p.MessageID]
	row := int(p.MessagePageID) - 1

	if state.present[row] {
		return Duplicate, nil, nil
	}

	if state.count == 0 {
		state.size = p.MessageSize
	}
	state.matrix[row] = p.Payload
	state.present[row] = true
	state.count++

	if state.count != int(state.size) {
		return Stored, nil, nil
	}

	block, err := a.decode(p.MessageID)
	if err != nil {
		return Failed, nil, err
	}
	return Complete, block, nil
}

// decode recovers the information block for a completed message and
// resets the message ID's state.  Rows absent from the matrix are
// erasures, except that rows for page IDs between the message size and
// 33 are known to be zero.
func (a *Assembler) decode(mid uint8) ([]byte, error) {
	state := &a.state[mid]
	size := int(state.size)
	defer func() {
		*state = midState{}
	}()

	erasures := make([]int, 0, reedsolomon.ParityLength)
	for i := 0; i < reedsolomon.BlockLength; i++ {
		pid := i + 1
		if state.present[i] {
			continue
		}
		if pid <= size || pid >= paddingStart {
			erasures = append(erasures, i)
		}
	}

	if len(erasures) > reedsolomon.ParityLength {
		em := fmt.Sprintf("assembler: message %d needs %d erasures, more than the %d the code can repair; received page IDs %s",
			mid, len(erasures), reedsolomon.ParityLength, a.receivedPIDs(mid))
		return nil, errors.New(em)
	}

	a.logger.Debug("decoding message", "mid", mid, "size", size,
		"pages", state.count, "erasures", len(erasures))
	if a.logger.Enabled(context.Background(), slog.LevelDebug) {
		a.logger.Debug("received page IDs " + a.receivedPIDs(mid))
		a.logger.Debug("erasure positions " + fmt.Sprint(erasures))
	}

	var info [reedsolomon.InfoLength][page.PayloadLengthOctets]byte
	column := make([]byte, reedsolomon.BlockLength)
	for c := 0; c < page.PayloadLengthOctets; c++ {
		for r := 0; r < reedsolomon.BlockLength; r++ {
			column[r] = state.matrix[r][c]
		}
		if _, err := a.codec.Decode(column, erasures); err != nil {
			em := fmt.Sprintf("assembler: message %d column %d: %v", mid, c, err)
			return nil, errors.New(em)
		}
		for r := 0; r < reedsolomon.InfoLength; r++ {
			info[r][c] = column[r]
		}
	}

	block := make([]byte, 0, size*page.PayloadLengthOctets)
	for r := 0; r < size; r++ {
		block = append(block, info[r][:]...)
	}

	return block, nil
}

// receivedPIDs renders the recorded page IDs for a message as a list,
// for the decode failure log.
func (a *Assembler) receivedPIDs(mid uint8) string {
	var sb strings.Builder
	sb.WriteByte('[')
	first := true
	for i := 0; i < reedsolomon.BlockLength; i++ {
		if !a.state[mid].present[i] {
			continue
		}
		if !first {
			sb.WriteByte(' ')
		}
		fmt.Fprintf(&sb, "%d", i+1)
		first = false
	}
	sb.WriteByte(']')
	return sb.String()
}

// The receiver package ties the HAS pipeline together: it takes
// whatever objects the ingress channel delivers, feeds the HAS pages
// among them to the page assembler, parses each recovered message and
// publishes the resulting correction records.  All of a page's
// processing happens inline in the handler, so the whole pipeline is
// single-threaded and needs no locks.
package receiver

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/goblimey/go-has/has/assembler"
	"github.com/goblimey/go-has/has/mask"
	"github.com/goblimey/go-has/has/metrics"
	"github.com/goblimey/go-has/has/mt1"
	"github.com/goblimey/go-has/has/page"
)

// NavMessagePacket is the optional secondary output: the raw decoded
// message rendered for an external navigation-message monitor.  The
// PRN and time fields are zero because a HAS message is assembled from
// pages spread over many satellites and epochs.
type NavMessagePacket struct {
	System               string
	Signal               string
	PRN                  int
	TOWAtCurrentSymbolMS int
	NavMessage           string
}

// Receiver consumes pages and publishes correction records.  Create
// one with New and drive it either with Run or by calling Handle
// directly from a single goroutine.
type Receiver struct {
	assembler *assembler.Assembler
	cache     *mask.Cache
	logger    *slog.Logger
	metrics   *metrics.Metrics

	// records receives one *mt1.Data per successfully parsed message.
	records chan<- *mt1.Data

	// monitor, when not nil, receives one NavMessagePacket per
	// successfully decoded message.
	monitor chan<- *NavMessagePacket
}

// New creates a Receiver publishing to the given channels.  The
// monitor channel may be nil, in which case no packets are produced.
// A nil logger suppresses logging and nil metrics count nothing.
func New(logger *slog.Logger, m *metrics.Metrics, records chan<- *mt1.Data, monitor chan<- *NavMessagePacket) *Receiver {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Receiver{
		assembler: assembler.New(logger),
		cache:     mask.NewCache(),
		logger:    logger,
		metrics:   m,
		records:   records,
		monitor:   monitor,
	}
}

// Run consumes objects from the ingress channel until it closes or the
// context is cancelled.
func (rx *Receiver) Run(ctx context.Context, in <-chan any) {
	for {
		select {
		case <-ctx.Done():
			return
		case message, ok := <-in:
			if !ok {
				return
			}
			rx.Handle(message)
		}
	}
}

// Handle processes one object from the ingress port.  Only HAS pages
// are interpreted; anything else is logged and dropped.
func (rx *Receiver) Handle(message any) {
	switch m := message.(type) {
	case *page.Page:
		rx.handlePage(m)
	case page.Page:
		rx.handlePage(&m)
	default:
		rx.metrics.UnknownMessage()
		rx.logger.Warn("ignoring a message of unknown type", "type", fmt.Sprintf("%T", message))
	}
}

func (rx *Receiver) handlePage(p *page.Page) {
	rx.metrics.PageReceived()

	outcome, block, err := rx.assembler.Accept(p)
	switch outcome {
	case assembler.Ignored:
		rx.metrics.PageIgnored()
		return
	case assembler.Duplicate:
		rx.metrics.PageDuplicate()
		return
	case assembler.Stored:
		return
	case assembler.Failed:
		rx.metrics.DecodeFailure()
		rx.logger.Error("dropping an unrecoverable HAS message",
			"mid", p.MessageID, "error", err.Error())
		return
	}

	// outcome is Complete.
	rx.metrics.MessageDecoded()
	rx.logger.Info("new HAS message decoded", "mid", p.MessageID, "size", p.MessageSize)

	if rx.monitor != nil {
		rx.monitor <- &NavMessagePacket{
			System:     "E",
			Signal:     "E6",
			NavMessage: bitString(block),
		}
	}

	data, err := mt1.GetMessage(block, uint(len(block))*8, rx.cache, rx.logger)
	if err != nil {
		if errors.Is(err, mt1.ErrMissingMask) {
			rx.metrics.MissingMask()
			rx.logger.Warn("dropping a HAS message that arrived before its mask",
				"mid", p.MessageID, "error", err.Error())
		} else {
			rx.metrics.ParseFailure()
			rx.logger.Error("dropping a malformed HAS message",
				"mid", p.MessageID, "error", err.Error())
		}
		return
	}

	if rx.records != nil {
		rx.records <- data
		rx.metrics.RecordPublished()
	}
}

// bitString renders the decoded message as a string of '0' and '1'
// characters, the form the navigation-message monitor expects.
func bitString(block []byte) string {
	var sb strings.Builder
	sb.Grow(len(block) * 8)
	for _, b := range block {
		for i := 7; i >= 0; i-- {
			if (b>>i)&1 == 1 {
				sb.WriteByte('1')
			} else {
				sb.WriteByte('0')
			}
		}
	}
	return sb.String()
}


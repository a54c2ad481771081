package receiver

import (
	"context"
	"testing"

	"github.com/goblimey/go-has/has/mask"
	"github.com/goblimey/go-has/has/mt1"
	"github.com/goblimey/go-has/has/page"
	"github.com/goblimey/go-has/has/testdata"
)

// messageFlags selects the body sections of a built MT1 message.
type messageFlags struct {
	mask, orbit bool
}

// buildMessage renders a single-page MT1 message: header, optionally a
// one-system Galileo mask (PRN 11, one signal) and optionally an orbit
// section with the given radial delta.  The result is a 53-octet
// information block.
func buildMessage(toh uint16, maskID uint8, flags messageFlags, radial int64) []byte {
	var w testdata.BitWriter

	w.Uint(uint64(toh), 12)
	w.Uint(uint64(maskID), 5)
	w.Uint(3, 5) // IOD set ID
	w.Bool(flags.mask)
	w.Bool(flags.orbit)
	w.Bool(false) // clock full set
	w.Bool(false) // clock subset
	w.Bool(false) // code bias
	w.Bool(false) // phase bias
	w.Bool(false) // URA
	w.Uint(0, 3) // reserved

	if flags.mask {
		w.Uint(1, 4)                      // Nsys
		w.Uint(uint64(mask.GNSSIDGalileo), 4) // gnss_id
		w.Uint(1<<29, 40)                 // satellite mask, PRN 11
		w.Uint(1<<15, 16)                 // signal mask, signal 1
		w.Bool(false)                     // no cell mask
		w.Uint(1, 3)                      // nav message
		w.Uint(0, 6)                      // reserved
	}

	if flags.orbit {
		w.Uint(2, 4)    // validity interval index
		w.Uint(87, 10)  // gnssIOD
		w.Int(radial, 13)
		w.Int(0, 12)
		w.Int(0, 12)
	}

	return w.PaddedTo(page.PayloadLengthOctets)
}

// deliver feeds the single page of a one-page message to the receiver.
func deliver(rx *Receiver, mid uint8, block []byte) {
	rx.Handle(testdata.Pages(mid, 1, block)[0])
}

// TestEndToEnd pushes the page of a complete message through Handle and
// checks the published record and the monitor packet.
func TestEndToEnd(t *testing.T) {
	records := make(chan *mt1.Data, 1)
	monitor := make(chan *NavMessagePacket, 1)
	rx := New(nil, nil, records, monitor)

	deliver(rx, 3, buildMessage(100, 7, messageFlags{mask: true, orbit: true}, -42))

	if len(records) != 1 {
		t.Fatalf("want 1 record, got %d", len(records))
	}
	data := <-records

	if data.Header.TOH != 100 || data.Header.MaskID != 7 {
		t.Errorf("header fields not carried through: %s", data.Header.String())
	}
	if data.MaskFromCache {
		t.Errorf("a message with a mask section is marked as using the cache")
	}
	if len(data.Mask.Systems) != 1 || data.Mask.Systems[0].GNSSID != mask.GNSSIDGalileo {
		t.Fatalf("mask not carried through: %s", data.Mask.String())
	}
	sats := data.Mask.Systems[0].Satellites()
	if len(sats) != 1 || sats[0] != 11 {
		t.Errorf("want satellite 11, got %v", sats)
	}
	if data.Orbit == nil {
		t.Fatal("want an orbit correction set")
	}
	if len(data.Orbit.DeltaRadial) != 1 || data.Orbit.DeltaRadial[0] != -42 {
		t.Errorf("want radial delta -42, got %v", data.Orbit.DeltaRadial)
	}

	if len(monitor) != 1 {
		t.Fatalf("want 1 monitor packet, got %d", len(monitor))
	}
	packet := <-monitor
	if packet.System != "E" || packet.Signal != "E6" {
		t.Errorf("want system E signal E6, got %s %s", packet.System, packet.Signal)
	}
	if len(packet.NavMessage) != page.PayloadLengthBits {
		t.Errorf("want %d navigation bits, got %d",
			page.PayloadLengthBits, len(packet.NavMessage))
	}
	for _, c := range packet.NavMessage {
		if c != '0' && c != '1' {
			t.Fatalf("navigation message contains %q", c)
		}
	}
}

// TestNilMonitor checks that the monitor channel is optional.
func TestNilMonitor(t *testing.T) {
	records := make(chan *mt1.Data, 1)
	rx := New(nil, nil, records, nil)

	deliver(rx, 0, buildMessage(0, 0, messageFlags{mask: true}, 0))

	if len(records) != 1 {
		t.Errorf("want 1 record, got %d", len(records))
	}
}

// TestMissingMask delivers a message that refers to a mask that was
// never sent.  It must not be published and the receiver must keep
// working.
func TestMissingMask(t *testing.T) {
	records := make(chan *mt1.Data, 2)
	rx := New(nil, nil, records, nil)

	deliver(rx, 1, buildMessage(50, 9, messageFlags{orbit: true}, 5))
	if len(records) != 0 {
		t.Fatalf("want no record for a message without a mask, got %d", len(records))
	}

	// A later message with its own mask still goes through.
	deliver(rx, 2, buildMessage(60, 9, messageFlags{mask: true}, 0))
	if len(records) != 1 {
		t.Errorf("want 1 record after recovery, got %d", len(records))
	}
}

// TestMaskReuse sends a mask once and then a second message that picks
// it up from the cache.
func TestMaskReuse(t *testing.T) {
	records := make(chan *mt1.Data, 2)
	rx := New(nil, nil, records, nil)

	deliver(rx, 4, buildMessage(10, 12, messageFlags{mask: true, orbit: true}, -1))
	deliver(rx, 5, buildMessage(20, 12, messageFlags{orbit: true}, 5))

	if len(records) != 2 {
		t.Fatalf("want 2 records, got %d", len(records))
	}
	first := <-records
	second := <-records

	if !second.MaskFromCache {
		t.Errorf("second record is not marked as using the cached mask")
	}
	if first.Mask != second.Mask {
		t.Errorf("second record does not reuse the stored mask")
	}
	if len(second.Orbit.DeltaRadial) != 1 || second.Orbit.DeltaRadial[0] != 5 {
		t.Errorf("want radial delta 5, got %v", second.Orbit.DeltaRadial)
	}
}

// TestBadTimeOfHour delivers a message with an illegal time of hour.
// It is dropped and the receiver stays responsive.
func TestBadTimeOfHour(t *testing.T) {
	records := make(chan *mt1.Data, 2)
	rx := New(nil, nil, records, nil)

	deliver(rx, 6, buildMessage(3601, 1, messageFlags{mask: true}, 0))
	if len(records) != 0 {
		t.Fatalf("want no record for an out of range time of hour, got %d", len(records))
	}

	deliver(rx, 6, buildMessage(3600, 1, messageFlags{mask: true}, 0))
	if len(records) != 1 {
		t.Errorf("want 1 record for the largest legal time of hour, got %d", len(records))
	}
}

// TestDecodeFailureKeepsRunning completes a message with more missing
// rows than the code can repair, then checks that the next message for
// the same ID assembles normally.
func TestDecodeFailureKeepsRunning(t *testing.T) {
	records := make(chan *mt1.Data, 1)
	rx := New(nil, nil, records, nil)

	body := buildMessage(0, 0, messageFlags{mask: true}, 0)
	big := make([]byte, 10*page.PayloadLengthOctets)
	copy(big, body)
	pages := testdata.Pages(8, 10, big)

	// Ten unique pages, but page 7 is missing and page 11 is extra, so
	// completion fires with one erasure too many.
	for _, pid := range []int{1, 2, 3, 4, 5, 6, 8, 9, 10, 11} {
		rx.Handle(pages[pid-1])
	}
	if len(records) != 0 {
		t.Fatalf("want no record from a failed decode, got %d", len(records))
	}

	deliver(rx, 8, body)
	if len(records) != 1 {
		t.Errorf("want 1 record after the failure, got %d", len(records))
	}
}

// TestHandleByValue checks that a page passed by value is processed.
func TestHandleByValue(t *testing.T) {
	records := make(chan *mt1.Data, 1)
	rx := New(nil, nil, records, nil)

	p := testdata.Pages(9, 1, buildMessage(0, 2, messageFlags{mask: true}, 0))[0]
	rx.Handle(*p)

	if len(records) != 1 {
		t.Errorf("want 1 record, got %d", len(records))
	}
}

// TestUnknownMessageType checks that non-page objects are dropped
// without disturbing the pipeline.
func TestUnknownMessageType(t *testing.T) {
	records := make(chan *mt1.Data, 1)
	rx := New(nil, nil, records, nil)

	rx.Handle("junk")
	rx.Handle(42)
	rx.Handle(nil)

	deliver(rx, 10, buildMessage(0, 3, messageFlags{mask: true}, 0))
	if len(records) != 1 {
		t.Errorf("want 1 record, got %d", len(records))
	}
}

// TestRun drives the receiver through its channel loop and checks that
// it stops when the ingress channel closes.
func TestRun(t *testing.T) {
	records := make(chan *mt1.Data, 1)
	rx := New(nil, nil, records, nil)

	in := make(chan any)
	done := make(chan struct{})
	go func() {
		rx.Run(context.Background(), in)
		close(done)
	}()

	in <- testdata.Pages(11, 1, buildMessage(0, 4, messageFlags{mask: true}, 0))[0]
	close(in)
	<-done

	if len(records) != 1 {
		t.Errorf("want 1 record, got %d", len(records))
	}
}

// TestRunCancel checks that cancelling the context stops Run.
func TestRunCancel(t *testing.T) {
	rx := New(nil, nil, make(chan *mt1.Data, 1), nil)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		rx.Run(ctx, make(chan any))
		close(done)
	}()

	cancel()
	<-done
}

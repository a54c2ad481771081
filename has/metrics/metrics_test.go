package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

// TestCounters checks that each method increments its counter.
func TestCounters(t *testing.T) {
	m := New(prometheus.NewRegistry())

	var testData = []struct {
		description string
		increment   func()
		counter     prometheus.Counter
	}{
		{"pages received", m.PageReceived, m.pagesReceived},
		{"pages ignored", m.PageIgnored, m.pagesIgnored},
		{"pages duplicate", m.PageDuplicate, m.pagesDuplicate},
		{"messages decoded", m.MessageDecoded, m.messagesDecoded},
		{"decode failures", m.DecodeFailure, m.decodeFailures},
		{"parse failures", m.ParseFailure, m.parseFailures},
		{"missing masks", m.MissingMask, m.missingMasks},
		{"records published", m.RecordPublished, m.recordsPublished},
		{"unknown messages", m.UnknownMessage, m.unknownMessages},
	}

	for _, td := range testData {
		if got := testutil.ToFloat64(td.counter); got != 0 {
			t.Errorf("%s: want 0 before the increment, got %v", td.description, got)
		}
		td.increment()
		td.increment()
		if got := testutil.ToFloat64(td.counter); got != 2 {
			t.Errorf("%s: want 2 after two increments, got %v", td.description, got)
		}
	}
}

// TestNilMetrics checks that every method is safe on a nil receiver.
func TestNilMetrics(t *testing.T) {
	var m *Metrics

	m.PageReceived()
	m.PageIgnored()
	m.PageDuplicate()
	m.MessageDecoded()
	m.DecodeFailure()
	m.ParseFailure()
	m.MissingMask()
	m.RecordPublished()
	m.UnknownMessage()
}

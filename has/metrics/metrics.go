// The metrics package holds the Prometheus counters for the HAS
// receiver pipeline.  A nil *Metrics is legal everywhere and counts
// nothing, so the library can be used without Prometheus wiring.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the pipeline counters.
type Metrics struct {
	pagesReceived    prometheus.Counter
	pagesIgnored     prometheus.Counter
	pagesDuplicate   prometheus.Counter
	messagesDecoded  prometheus.Counter
	decodeFailures   prometheus.Counter
	parseFailures    prometheus.Counter
	missingMasks     prometheus.Counter
	recordsPublished prometheus.Counter
	unknownMessages  prometheus.Counter
}

// New creates the counters and registers them with the given
// registerer, typically prometheus.DefaultRegisterer.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		pagesReceived: factory.NewCounter(prometheus.CounterOpts{
			Name: "has_pages_received_total",
			Help: "HAS pages delivered to the receiver",
		}),
		pagesIgnored: factory.NewCounter(prometheus.CounterOpts{
			Name: "has_pages_ignored_total",
			Help: "HAS pages dropped by the status/type/ID filters",
		}),
		pagesDuplicate: factory.NewCounter(prometheus.CounterOpts{
			Name: "has_pages_duplicate_total",
			Help: "HAS pages dropped as duplicates of a recorded page",
		}),
		messagesDecoded: factory.NewCounter(prometheus.CounterOpts{
			Name: "has_messages_decoded_total",
			Help: "complete HAS messages recovered by the Reed-Solomon decoder",
		}),
		decodeFailures: factory.NewCounter(prometheus.CounterOpts{
			Name: "has_decode_failures_total",
			Help: "completed HAS messages the Reed-Solomon decoder could not recover",
		}),
		parseFailures: factory.NewCounter(prometheus.CounterOpts{
			Name: "has_parse_failures_total",
			Help: "recovered HAS messages with a malformed MT1 body",
		}),
		missingMasks: factory.NewCounter(prometheus.CounterOpts{
			Name: "has_missing_masks_total",
			Help: "recovered HAS messages dropped because no mask was cached for their mask ID",
		}),
		recordsPublished: factory.NewCounter(prometheus.CounterOpts{
			Name: "has_records_published_total",
			Help: "HAS correction records published to the output channel",
		}),
		unknownMessages: factory.NewCounter(prometheus.CounterOpts{
			Name: "has_unknown_messages_total",
			Help: "objects on the input channel that were not HAS pages",
		}),
	}
}

// PageReceived counts a page delivered to the receiver.
func (m *Metrics) PageReceived() {
	if m != nil {
		m.pagesReceived.Inc()
	}
}

// PageIgnored counts a page dropped by the filters.
func (m *Metrics) PageIgnored() {
	if m != nil {
		m.pagesIgnored.Inc()
	}
}

// PageDuplicate counts a page dropped as a duplicate.
func (m *Metrics) PageDuplicate() {
	if m != nil {
		m.pagesDuplicate.Inc()
	}
}

// MessageDecoded counts a successful Reed-Solomon recovery.
func (m *Metrics) MessageDecoded() {
	if m != nil {
		m.messagesDecoded.Inc()
	}
}

// DecodeFailure counts a failed Reed-Solomon recovery.
func (m *Metrics) DecodeFailure() {
	if m != nil {
		m.decodeFailures.Inc()
	}
}

// ParseFailure counts a malformed MT1 body.
func (m *Metrics) ParseFailure() {
	if m != nil {
		m.parseFailures.Inc()
	}
}

// MissingMask counts a message dropped for want of a cached mask.
func (m *Metrics) MissingMask() {
	if m != nil {
		m.missingMasks.Inc()
	}
}

// RecordPublished counts a published correction record.
func (m *Metrics) RecordPublished() {
	if m != nil {
		m.recordsPublished.Inc()
	}
}

// UnknownMessage counts a non-page object on the input channel.
func (m *Metrics) UnknownMessage() {
	if m != nil {
		m.unknownMessages.Inc()
	}
}

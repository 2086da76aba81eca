// Package producer builds eventry.Event values with a consistent source,
// id, and timestamp, so call sites don't hand-assemble CloudEvent
// attributes inline. Grounded on venty's event_producer.py.
package producer

import (
	"time"

	"github.com/google/uuid"

	"github.com/kpaxton/eventry"
)

// IDSelector returns the id attribute for the next produced event.
type IDSelector func() string

// TimeSelector returns the time attribute for the next produced event.
type TimeSelector func() time.Time

// DefaultIDSelector mints a random UUIDv4 string per call.
func DefaultIDSelector() string {
	return uuid.NewString()
}

// DefaultTimeSelector returns the current wall-clock time in UTC.
func DefaultTimeSelector() time.Time {
	return time.Now().UTC()
}

// Producer creates CloudEvents-shaped eventry.Event values for a single
// logical event source.
type Producer interface {
	Produce(typ string, data any, attributes map[string]any) eventry.Event
}

// Simple is the default Producer: fixed source, pluggable id/time
// selection, and a set of default attributes merged under whatever is
// passed to Produce.
type Simple struct {
	Source            string
	DefaultAttributes map[string]any
	IDSelection       IDSelector
	TimeSelection     TimeSelector
}

// NewSimple builds a Simple producer. A zero-value source mints a random
// UUIDv4 string, matching venty's SimpleEventProducer default.
func NewSimple(source string, defaultAttributes map[string]any) *Simple {
	if source == "" {
		source = uuid.NewString()
	}
	return &Simple{
		Source:            source,
		DefaultAttributes: ignoreReservedAttributes(defaultAttributes),
		IDSelection:       DefaultIDSelector,
		TimeSelection:     DefaultTimeSelector,
	}
}

func (p *Simple) idSelection() IDSelector {
	if p.IDSelection != nil {
		return p.IDSelection
	}
	return DefaultIDSelector
}

func (p *Simple) timeSelection() TimeSelector {
	if p.TimeSelection != nil {
		return p.TimeSelection
	}
	return DefaultTimeSelector
}

// Produce builds a new event. attributes may override Subject by setting
// the "subject" key; id, source, time and data are always produced by the
// producer itself and cannot be overridden from attributes, mirroring
// venty's _ignore_invalid_attributes.
func (p *Simple) Produce(typ string, data any, attributes map[string]any) eventry.Event {
	merged := make(map[string]any, len(p.DefaultAttributes)+len(attributes))
	for k, v := range p.DefaultAttributes {
		merged[k] = v
	}
	for k, v := range ignoreReservedAttributes(attributes) {
		merged[k] = v
	}

	event := eventry.NewEvent(p.idSelection()(), p.Source, typ, data)
	event = event.WithTime(p.timeSelection()())
	if subject, ok := merged["subject"].(string); ok && subject != "" {
		event = event.WithSubject(subject)
	}
	return event
}

func ignoreReservedAttributes(attributes map[string]any) map[string]any {
	if attributes == nil {
		return nil
	}
	out := make(map[string]any, len(attributes))
	for k, v := range attributes {
		switch k {
		case "data", "id", "source", "time":
			continue
		default:
			out[k] = v
		}
	}
	return out
}

// DeterministicIDSelector returns an IDSelector producing stable,
// reproducible UUIDv5 ids derived from seed and a monotonically
// increasing counter. Intended for tests that assert on event ids.
// Grounded on venty's deterministic_id_factory.
func DeterministicIDSelector(seed uuid.UUID) IDSelector {
	n := 0
	return func() string {
		id := uuid.NewSHA1(seed, []byte{byte(n), byte(n >> 8), byte(n >> 16), byte(n >> 24)})
		n++
		return id.String()
	}
}

// DeterministicTimeSelector returns a TimeSelector that advances one
// second per call from the Unix epoch. Grounded on venty's
// deterministic_time_factory.
func DeterministicTimeSelector() TimeSelector {
	n := int64(0)
	return func() time.Time {
		t := time.Unix(n, 0).UTC()
		n++
		return t
	}
}

// NewTesting builds a Simple producer with deterministic id/time
// selection, for use in tests that assert against fixed event values.
func NewTesting(source string, seed uuid.UUID, defaultAttributes map[string]any) *Simple {
	p := NewSimple(source, defaultAttributes)
	p.IDSelection = DeterministicIDSelector(seed)
	p.TimeSelection = DeterministicTimeSelector()
	return p
}

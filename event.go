package eventry

import (
	"encoding/json"
	"time"
)

// SpecVersion is the CloudEvents specification version this module emits.
const SpecVersion = "1.0"

// Event is the module's CloudEvents-shaped value object. The store treats
// it as an opaque, serializable blob plus Type for classification; no field
// is inspected by store internals except Type (for codec lookup) and
// Subject (by the aggregate helpers, to recover the owning stream).
//
// There is no dependency on the CNCF cloudevents-go SDK: none of the
// retrieved reference repositories import it, so this type is defined
// locally instead of wrapping an unavailable third-party record.
type Event struct {
	ID          string
	Source      string
	Type        string
	SpecVersion string
	Subject     string
	Time        time.Time
	Data        any
}

// NewEvent constructs an Event with SpecVersion defaulted to SpecVersion
// when empty.
func NewEvent(id, source, typ string, data any) Event {
	return Event{
		ID:          id,
		Source:      source,
		Type:        typ,
		SpecVersion: SpecVersion,
		Data:        data,
	}
}

// WithSubject returns a copy of e with Subject set.
func (e Event) WithSubject(subject string) Event {
	e.Subject = subject
	return e
}

// WithTime returns a copy of e with Time set.
func (e Event) WithTime(t time.Time) Event {
	e.Time = t
	return e
}

// jsonEvent is the structured JSON form of an Event, per the CloudEvents
// structured-mode encoding: mandatory attributes alongside data, which is
// inlined as a JSON object (or array, string, number...) rather than as a
// string-encoded blob when it is itself structured.
type jsonEvent struct {
	ID          string          `json:"id"`
	Source      string          `json:"source"`
	Type        string          `json:"type"`
	SpecVersion string          `json:"specversion"`
	Subject     string          `json:"subject,omitempty"`
	Time        *time.Time      `json:"time,omitempty"`
	Data        json.RawMessage `json:"data,omitempty"`
}

// MarshalStructuredJSON serializes e into the CloudEvents structured JSON
// form, inlining Data as a JSON value (not a string-encoded blob).
func (e Event) MarshalStructuredJSON() ([]byte, error) {
	var data json.RawMessage
	if e.Data != nil {
		raw, err := json.Marshal(e.Data)
		if err != nil {
			return nil, err
		}
		data = raw
	}

	specVersion := e.SpecVersion
	if specVersion == "" {
		specVersion = SpecVersion
	}

	var t *time.Time
	if !e.Time.IsZero() {
		t = &e.Time
	}

	return json.Marshal(jsonEvent{
		ID:          e.ID,
		Source:      e.Source,
		Type:        e.Type,
		SpecVersion: specVersion,
		Subject:     e.Subject,
		Time:        t,
		Data:        data,
	})
}

// UnmarshalStructuredJSON parses the CloudEvents structured JSON form into
// an Event, decoding Data with decodeData (which may be nil, leaving Data
// as a json.RawMessage for the caller to decode against a concrete type
// once Type is known).
func UnmarshalStructuredJSON(raw []byte, decodeData func(typ string, data json.RawMessage) (any, error)) (Event, error) {
	var je jsonEvent
	if err := json.Unmarshal(raw, &je); err != nil {
		return Event{}, err
	}

	e := Event{
		ID:          je.ID,
		Source:      je.Source,
		Type:        je.Type,
		SpecVersion: je.SpecVersion,
		Subject:     je.Subject,
	}
	if je.Time != nil {
		e.Time = *je.Time
	}

	if decodeData == nil {
		e.Data = je.Data
		return e, nil
	}

	data, err := decodeData(je.Type, je.Data)
	if err != nil {
		return Event{}, err
	}
	e.Data = data
	return e, nil
}

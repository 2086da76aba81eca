package eventry

import (
	"encoding/json"
	"fmt"
)

// DataCodec defines how an Event's Data payload is encoded/decoded for
// persistence. Each event Type should register its codec in a Registry.
type DataCodec interface {
	Encode(v any) ([]byte, error)
	Decode(b []byte) (any, error)
}

// JSONCodec is a generic DataCodec for JSON-based encoding of a concrete
// Go type T.
func JSONCodec[T any]() DataCodec {
	return jsonCodec[T]{}
}

type jsonCodec[T any] struct{}

func (jsonCodec[T]) Encode(v any) ([]byte, error) {
	return json.Marshal(v)
}

func (jsonCodec[T]) Decode(b []byte) (any, error) {
	var v T
	if err := json.Unmarshal(b, &v); err != nil {
		return nil, fmt.Errorf("eventry: failed to decode json data: %w", err)
	}
	return v, nil
}

// Registry maps an Event's Type discriminator to the codec that knows how
// to decode its Data payload. This is the module's answer to the "avoid
// class-hierarchy reflection" redesign note: dispatch by a registered
// handler map keyed on the Type string, not by inspecting a type hierarchy.
type Registry map[string]DataCodec

// Decode looks up the codec for typ and decodes data, or returns an error
// naming the unknown type.
func (r Registry) Decode(typ string, data json.RawMessage) (any, error) {
	codec, ok := r[typ]
	if !ok {
		return nil, fmt.Errorf("eventry: no codec registered for event type %q", typ)
	}
	if len(data) == 0 {
		return nil, nil
	}
	return codec.Decode(data)
}

// Encode looks up the codec for typ and encodes v.
func (r Registry) Encode(typ string, v any) ([]byte, error) {
	codec, ok := r[typ]
	if !ok {
		return nil, fmt.Errorf("eventry: no codec registered for event type %q", typ)
	}
	return codec.Encode(v)
}

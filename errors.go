package eventry

import (
	"errors"
	"fmt"
)

var (
	// ErrVersionConflict indicates that the expected version did not match
	// the stream's actual version, typically due to concurrent writers.
	// AttemptAppend never returns this; it is what Append wraps the "no
	// commit" outcome into.
	ErrVersionConflict = errors.New("eventry: version conflict")

	// ErrTimeout indicates a deadline set on an append was exceeded while
	// consuming the input events. No writes occurred.
	ErrTimeout = errors.New("eventry: timeout")

	// ErrMissingSubject is returned when an aggregate helper needs to
	// recover a stream identity from an event's Subject attribute and the
	// attribute is empty.
	ErrMissingSubject = errors.New("eventry: event has no subject")
)

// VersionConflictError carries the structured detail behind
// ErrVersionConflict: which stream, what the caller expected, and what the
// store actually holds.
type VersionConflictError struct {
	Stream   StreamName
	Expected ExpectedVersion
	Actual   StreamActual
}

func (e *VersionConflictError) Error() string {
	actual := "NO_STREAM"
	if e.Actual.Exists {
		actual = fmt.Sprintf("%d", e.Actual.Version)
	}
	return fmt.Sprintf("eventry: version conflict on stream %q: expected=%s actual=%s", e.Stream, e.Expected, actual)
}

// Is allows errors.Is(err, ErrVersionConflict) to match this type.
func (e *VersionConflictError) Is(target error) bool {
	return target == ErrVersionConflict
}

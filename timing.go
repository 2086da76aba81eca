package eventry

import (
	"iter"
	"time"
)

// Events adapts a slice of Event into the lazy iter.Seq[Event] form that
// AttemptAppend and Append consume.
func Events(events ...Event) iter.Seq[Event] {
	return func(yield func(Event) bool) {
		for _, e := range events {
			if !yield(e) {
				return
			}
		}
	}
}

// IterateWithDeadline yields items from seq unchanged when timeout is nil.
// When timeout is set, the monotonic clock is checked each time seq
// produces an element, before that element is yielded: once the deadline
// has passed, that element is dropped, iteration stops and reached reports
// true, so the caller can distinguish a clean end from a timeout.
func IterateWithDeadline(seq iter.Seq[Event], timeout *time.Duration) (out iter.Seq[Event], reached func() bool) {
	if timeout == nil {
		return seq, func() bool { return false }
	}

	start := time.Now()
	var timedOut bool

	return func(yield func(Event) bool) {
		for e := range seq {
			if time.Since(start) > *timeout {
				timedOut = true
				return
			}
			if !yield(e) {
				return
			}
		}
	}, func() bool { return timedOut }
}

// CollectWithDeadline materializes seq into a slice, honoring timeout the
// same way IterateWithDeadline does. It returns ErrTimeout if the deadline
// is reached before the sequence is exhausted.
func CollectWithDeadline(seq iter.Seq[Event], timeout *time.Duration) ([]Event, error) {
	bounded, reached := IterateWithDeadline(seq, timeout)
	var out []Event
	for e := range bounded {
		out = append(out, e)
	}
	if reached() {
		return nil, ErrTimeout
	}
	return out, nil
}

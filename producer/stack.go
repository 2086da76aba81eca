package producer

import "github.com/kpaxton/eventry"

// Stack holds a default Producer plus a scoped override stack, so a call
// site can temporarily swap in a different producer (a different source,
// or deterministic ids for a test) and have it released automatically
// once the scope ends, even on panic. Grounded on venty's
// event_producer_stack.py.
type Stack struct {
	stack []Producer
}

// NewStack builds a Stack with the given default producer active.
func NewStack(defaultProducer Producer) *Stack {
	return &Stack{stack: []Producer{defaultProducer}}
}

func (s *Stack) current() Producer {
	return s.stack[len(s.stack)-1]
}

// Produce delegates to whichever producer is currently on top of the
// stack.
func (s *Stack) Produce(typ string, data any, attributes map[string]any) eventry.Event {
	return s.current().Produce(typ, data, attributes)
}

// Push installs p as the active producer and returns a release func that
// pops it back off. Callers should defer the release immediately:
//
//	release := stack.Push(scoped)
//	defer release()
func (s *Stack) Push(p Producer) (release func()) {
	s.stack = append(s.stack, p)
	depth := len(s.stack)
	released := false
	return func() {
		if released || len(s.stack) != depth {
			return
		}
		released = true
		s.stack = s.stack[:depth-1]
	}
}

// Scoped runs fn with p installed as the active producer, guaranteeing
// the override is released even if fn panics.
func (s *Stack) Scoped(p Producer, fn func()) {
	release := s.Push(p)
	defer release()
	fn()
}

var _ Producer = (*Stack)(nil)

package producer_test

import (
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/kpaxton/eventry/producer"
)

func TestSimple_ProduceUsesSelectorsAndDefaultAttributes(t *testing.T) {
	p := &producer.Simple{
		Source:            "my-source",
		DefaultAttributes: map[string]any{"subject": "hello"},
		IDSelection:       func() string { return "1" },
		TimeSelection:     func() time.Time { return time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC) },
	}

	e := p.Produce("my-type", nil, nil)

	if e.ID != "1" {
		t.Fatalf("expected id %q, got %q", "1", e.ID)
	}
	if e.Source != "my-source" {
		t.Fatalf("expected source %q, got %q", "my-source", e.Source)
	}
	if e.Type != "my-type" {
		t.Fatalf("expected type %q, got %q", "my-type", e.Type)
	}
	if e.Subject != "hello" {
		t.Fatalf("expected subject %q from default attributes, got %q", "hello", e.Subject)
	}
	if !e.Time.Equal(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("expected the fixed selected time, got %v", e.Time)
	}
}

func TestSimple_ReservedAttributesCannotOverrideProducerOwnedFields(t *testing.T) {
	p := producer.NewSimple("my-source", nil)

	e := p.Produce("my-type", "original-data", map[string]any{
		"id":      "attacker-id",
		"source":  "attacker-source",
		"time":    "attacker-time",
		"data":    "attacker-data",
		"subject": "allowed-subject",
	})

	if e.ID == "attacker-id" {
		t.Fatalf("expected id to be producer-owned, got attacker value %q", e.ID)
	}
	if e.Source != "my-source" {
		t.Fatalf("expected source to stay producer-owned, got %q", e.Source)
	}
	if e.Data != "original-data" {
		t.Fatalf("expected data to stay the value passed to Produce, got %v", e.Data)
	}
	if e.Subject != "allowed-subject" {
		t.Fatalf("expected subject to be settable via attributes, got %q", e.Subject)
	}
}

func TestNewSimple_EmptySourceMintsARandomUUID(t *testing.T) {
	p := producer.NewSimple("", nil)
	if _, err := uuid.Parse(p.Source); err != nil {
		t.Fatalf("expected a random UUID source when none is given, got %q: %v", p.Source, err)
	}
}

func TestDeterministicIDSelector_IsStableAndIncrementing(t *testing.T) {
	seed := uuid.New()
	sel := producer.DeterministicIDSelector(seed)

	first := sel()
	second := sel()
	if first == second {
		t.Fatalf("expected successive ids to differ, got %q twice", first)
	}

	again := producer.DeterministicIDSelector(seed)
	if again() != first {
		t.Fatalf("expected the same seed to reproduce the same first id")
	}
}

func TestDeterministicTimeSelector_AdvancesOneSecondPerCall(t *testing.T) {
	sel := producer.DeterministicTimeSelector()
	first := sel()
	second := sel()

	if !first.Equal(time.Unix(0, 0).UTC()) {
		t.Fatalf("expected the first call to be the Unix epoch, got %v", first)
	}
	if second.Sub(first) != time.Second {
		t.Fatalf("expected calls to advance by one second, got a delta of %v", second.Sub(first))
	}
}

func TestStack_ScopedSwapsAndRestoresTheActiveProducer(t *testing.T) {
	mine := producer.NewSimple("my-source", nil)
	yours := producer.NewSimple("your-source", nil)
	stack := producer.NewStack(mine)

	if got := stack.Produce("my-type", nil, nil).Source; got != "my-source" {
		t.Fatalf("expected default producer, got source %q", got)
	}

	stack.Scoped(yours, func() {
		if got := stack.Produce("your-type", nil, nil).Source; got != "your-source" {
			t.Fatalf("expected scoped producer inside Scoped, got source %q", got)
		}
	})

	if got := stack.Produce("my-type", nil, nil).Source; got != "my-source" {
		t.Fatalf("expected default producer restored after Scoped, got source %q", got)
	}
}

func TestStack_ScopedRestoresOnPanic(t *testing.T) {
	mine := producer.NewSimple("my-source", nil)
	yours := producer.NewSimple("your-source", nil)
	stack := producer.NewStack(mine)

	func() {
		defer func() { _ = recover() }()
		stack.Scoped(yours, func() {
			panic("boom")
		})
	}()

	if got := stack.Produce("my-type", nil, nil).Source; got != "my-source" {
		t.Fatalf("expected default producer restored after a panic inside Scoped, got source %q", got)
	}
}

func TestNewTesting_ProducesDeterministicEvents(t *testing.T) {
	seed := uuid.New()
	a := producer.NewTesting("test-source", seed, nil)
	b := producer.NewTesting("test-source", seed, nil)

	eventA := a.Produce("T", nil, nil)
	eventB := b.Produce("T", nil, nil)

	if eventA.ID != eventB.ID {
		t.Fatalf("expected two testing producers with the same seed to agree on ids, got %q vs %q", eventA.ID, eventB.ID)
	}
	if !eventA.Time.Equal(eventB.Time) {
		t.Fatalf("expected two testing producers with the same seed to agree on times")
	}
}

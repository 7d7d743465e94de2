package clock

import (
	"errors"
	"testing"
)

func TestNew(t *testing.T) {
	c, err := New("alarm", 4)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if c.Filled != 0 || c.State() != StateActive || c.Remaining() != 4 {
		t.Fatalf("new clock = %+v", c)
	}
	for _, segments := range []int{0, -3} {
		if _, err := New("bad", segments); !errors.Is(err, ErrInvalidSegments) {
			t.Fatalf("New(%d) error = %v, want %v", segments, err, ErrInvalidSegments)
		}
	}
}

func TestAdvanceCompletesOnce(t *testing.T) {
	c := Clock{Name: "escape", Segments: 4, Filled: 3}

	update, err := c.Advance(2)
	if err != nil {
		t.Fatalf("Advance: %v", err)
	}
	if update.After != 4 || update.Clock.Filled != 4 {
		t.Fatalf("after = %d, want 4", update.After)
	}
	if !update.Completed || update.Clock.State() != StateComplete {
		t.Fatalf("expected completion, got %+v", update)
	}
	if update.Delta() != 1 {
		t.Fatalf("delta = %d, want 1", update.Delta())
	}
	if c.Filled != 3 {
		t.Fatal("receiver mutated")
	}

	done := update.Clock
	completions := 0
	for i := 0; i < 3; i++ {
		again, err := done.Advance(1)
		if !errors.Is(err, ErrAlreadyComplete) {
			t.Fatalf("advance %d error = %v, want %v", i, err, ErrAlreadyComplete)
		}
		if again.Completed {
			completions++
		}
		if again.Clock != done || again.After != 4 {
			t.Fatalf("complete clock changed: %+v", again)
		}
		done = again.Clock
	}
	if completions != 0 {
		t.Fatalf("completion re-emitted %d times", completions)
	}
}

func TestAdvance(t *testing.T) {
	tests := []struct {
		name      string
		clock     Clock
		by        int
		after     int
		completed bool
		err       error
	}{
		{name: "partial", clock: Clock{Segments: 6, Filled: 1}, by: 2, after: 3},
		{name: "exact fill", clock: Clock{Segments: 6, Filled: 4}, by: 2, after: 6, completed: true},
		{name: "saturates", clock: Clock{Segments: 4}, by: 10, after: 4, completed: true},
		{name: "zero advance", clock: Clock{Segments: 4, Filled: 1}, by: 0, after: 1, err: ErrInvalidAdvance},
		{name: "negative advance", clock: Clock{Segments: 4, Filled: 1}, by: -1, after: 1, err: ErrInvalidAdvance},
		{name: "corrupt record", clock: Clock{Segments: 4, Filled: 5}, by: 1, after: 5, err: ErrInvalidState},
		{name: "no segments", clock: Clock{}, by: 1, err: ErrInvalidSegments},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			update, err := tt.clock.Advance(tt.by)
			if tt.err != nil {
				if !errors.Is(err, tt.err) {
					t.Fatalf("error = %v, want %v", err, tt.err)
				}
				if update.Clock != tt.clock {
					t.Fatalf("clock changed on error: %+v", update.Clock)
				}
				return
			}
			if err != nil {
				t.Fatalf("Advance: %v", err)
			}
			if update.After != tt.after {
				t.Fatalf("after = %d, want %d", update.After, tt.after)
			}
			if update.Completed != tt.completed {
				t.Fatalf("completed = %v, want %v", update.Completed, tt.completed)
			}
		})
	}
}

func TestFillNeverLeavesBounds(t *testing.T) {
	for segments := 1; segments <= 8; segments++ {
		for filled := 0; filled < segments; filled++ {
			for by := 1; by <= 10; by++ {
				update, err := Clock{Segments: segments, Filled: filled}.Advance(by)
				if err != nil {
					t.Fatalf("Advance(%d) from %d/%d: %v", by, filled, segments, err)
				}
				if update.After < 0 || update.After > segments {
					t.Fatalf("fill %d outside 0..%d", update.After, segments)
				}
				if update.Completed != (update.After == segments) {
					t.Fatalf("completed = %v at %d/%d", update.Completed, update.After, segments)
				}
			}
		}
	}
}

func TestReset(t *testing.T) {
	full := Clock{Name: "heat", Segments: 4, Filled: 4}
	reset := full.Reset()
	if reset.Filled != 0 || reset.State() != StateActive || reset.Name != "heat" {
		t.Fatalf("reset = %+v", reset)
	}
	if full.Filled != 4 {
		t.Fatal("receiver mutated")
	}
	if _, err := reset.Advance(1); err != nil {
		t.Fatalf("advance after reset: %v", err)
	}
}

func TestStateString(t *testing.T) {
	if StateActive.String() != "active" || StateComplete.String() != "complete" {
		t.Fatal("unexpected state names")
	}
	if got := (Clock{Name: "x", Segments: 8, Filled: 2}).String(); got != "x 2/8" {
		t.Fatalf("String() = %q", got)
	}
}

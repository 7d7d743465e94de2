// Package clock implements segmented progress clocks.
//
// A Clock is a plain value. Every transition returns a new Clock and leaves
// the receiver untouched, so callers decide when a change is committed.
package clock

import (
	"fmt"
	"strconv"

	apperrors "github.com/louisbranch/darkforge/internal/platform/errors"
)

var (
	// ErrInvalidAdvance indicates a non-positive advance.
	ErrInvalidAdvance = apperrors.New(apperrors.CodeClockInvalidAdvance, "advance must be positive")
	// ErrAlreadyComplete indicates an advance on a complete clock.
	ErrAlreadyComplete = apperrors.New(apperrors.CodeClockAlreadyComplete, "clock already complete")
	// ErrInvalidSegments indicates a clock with fewer than one segment.
	ErrInvalidSegments = apperrors.New(apperrors.CodeClockInvalidSegments, "segments must be positive")
	// ErrInvalidState indicates a fill outside 0..segments.
	ErrInvalidState = apperrors.New(apperrors.CodeClockInvalidState, "clock fill out of range")
)

// State is the lifecycle state of a clock.
type State int

const (
	StateActive State = iota
	StateComplete
)

func (s State) String() string {
	switch s {
	case StateActive:
		return "active"
	case StateComplete:
		return "complete"
	default:
		return "unknown"
	}
}

// Clock is a bounded segment counter.
type Clock struct {
	Name     string `json:"name,omitempty" yaml:"name,omitempty"`
	Segments int    `json:"segments" yaml:"segments"`
	Filled   int    `json:"filled" yaml:"filled"`
}

// New returns an empty clock.
func New(name string, segments int) (Clock, error) {
	if segments <= 0 {
		return Clock{}, fmt.Errorf("%w: got %d", ErrInvalidSegments, segments)
	}
	return Clock{Name: name, Segments: segments}, nil
}

// Update describes one advance.
type Update struct {
	Clock  Clock
	Before int
	After  int
	// Completed is set only on the advance that filled the clock.
	Completed bool
}

// Delta is how many segments the advance actually filled.
func (u Update) Delta() int {
	return u.After - u.Before
}

// Advance fills by segments, saturating at Segments.
func (c Clock) Advance(by int) (Update, error) {
	unchanged := Update{Clock: c, Before: c.Filled, After: c.Filled}
	if err := c.Validate(); err != nil {
		return unchanged, err
	}
	if by <= 0 {
		return unchanged, apperrors.WithMetadata(
			apperrors.CodeClockInvalidAdvance,
			fmt.Sprintf("advance by %d must be positive", by),
			map[string]string{"By": strconv.Itoa(by)},
		)
	}
	if c.Complete() {
		return unchanged, apperrors.WithMetadata(
			apperrors.CodeClockAlreadyComplete,
			fmt.Sprintf("clock %q already complete at %d", c.Name, c.Segments),
			map[string]string{"Clock": c.Name},
		)
	}

	next := c
	next.Filled = min(c.Filled+by, c.Segments)
	return Update{
		Clock:     next,
		Before:    c.Filled,
		After:     next.Filled,
		Completed: next.Complete(),
	}, nil
}

// Reset empties the clock from any state.
func (c Clock) Reset() Clock {
	c.Filled = 0
	return c
}

// State reports whether the clock is active or complete.
func (c Clock) State() State {
	if c.Complete() {
		return StateComplete
	}
	return StateActive
}

// Complete reports whether every segment is filled.
func (c Clock) Complete() bool {
	return c.Segments > 0 && c.Filled >= c.Segments
}

// Remaining is the number of unfilled segments.
func (c Clock) Remaining() int {
	if c.Filled >= c.Segments {
		return 0
	}
	return c.Segments - c.Filled
}

// Validate checks a record loaded from outside the core.
func (c Clock) Validate() error {
	if c.Segments <= 0 {
		return fmt.Errorf("%w: got %d", ErrInvalidSegments, c.Segments)
	}
	if c.Filled < 0 || c.Filled > c.Segments {
		return apperrors.WithMetadata(
			apperrors.CodeClockInvalidState,
			fmt.Sprintf("clock fill %d outside 0..%d", c.Filled, c.Segments),
			map[string]string{"Filled": strconv.Itoa(c.Filled), "Segments": strconv.Itoa(c.Segments)},
		)
	}
	return nil
}

func (c Clock) String() string {
	return fmt.Sprintf("%s %d/%d", c.Name, c.Filled, c.Segments)
}

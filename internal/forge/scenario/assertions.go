package scenario

import (
	"fmt"
	"log"
)

// AssertionMode controls what happens when an expectation does not hold.
type AssertionMode int

const (
	// AssertionStrict fails the scenario on the first mismatch.
	AssertionStrict AssertionMode = iota
	// AssertionLogOnly logs mismatches and keeps running.
	AssertionLogOnly
)

func (m AssertionMode) String() string {
	switch m {
	case AssertionStrict:
		return "strict"
	case AssertionLogOnly:
		return "log_only"
	default:
		return "unknown"
	}
}

// Assertions reports expectation mismatches according to Mode.
type Assertions struct {
	Mode   AssertionMode
	Logger *log.Logger
	// Failures counts mismatches seen in log-only mode.
	Failures int
}

// Assertf reports a mismatch. It returns an error in strict mode and logs
// otherwise.
func (a *Assertions) Assertf(format string, args ...any) error {
	if a.Mode == AssertionStrict {
		return fmt.Errorf(format, args...)
	}
	a.Failures++
	if a.Logger != nil {
		a.Logger.Printf("expectation failed: "+format, args...)
	}
	return nil
}

// Failf reports an error that stops the run in every mode. expect_error
// never absorbs it.
func (a *Assertions) Failf(format string, args ...any) error {
	return &scriptError{err: fmt.Errorf(format, args...)}
}

// scriptError is a mistake in the scenario itself rather than a rules
// failure.
type scriptError struct {
	err error
}

func (e *scriptError) Error() string { return e.err.Error() }

func (e *scriptError) Unwrap() error { return e.err }

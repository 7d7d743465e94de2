package scenario

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/louisbranch/darkforge/internal/forge/action"
	"github.com/louisbranch/darkforge/internal/forge/clock"
	"github.com/louisbranch/darkforge/internal/forge/ledger"
	"github.com/louisbranch/darkforge/internal/forge/rules"
)

// Config controls scenario execution.
type Config struct {
	Assertions AssertionMode
	Verbose    bool
	Logger     *log.Logger
}

// DefaultConfig returns default runner configuration.
func DefaultConfig() Config {
	return Config{Assertions: AssertionStrict}
}

// Runner executes scenarios in-process against the rules core.
type Runner struct {
	assertions *Assertions
	logger     *log.Logger
	verbose    bool
}

// NewRunner prepares a runner. A nil logger writes to stderr.
func NewRunner(cfg Config) *Runner {
	logger := cfg.Logger
	if logger == nil {
		logger = log.New(os.Stderr, "", 0)
	}
	return &Runner{
		assertions: &Assertions{Mode: cfg.Assertions, Logger: logger},
		logger:     logger,
		verbose:    cfg.Verbose,
	}
}

// Failures returns the number of mismatches logged in log-only mode.
func (r *Runner) Failures() int {
	return r.assertions.Failures
}

// RunFile loads and executes a scenario file.
func RunFile(ctx context.Context, cfg Config, path string) error {
	scenario, err := LoadFile(path)
	if err != nil {
		return err
	}
	return NewRunner(cfg).Run(ctx, scenario)
}

// pending is a resolved action waiting to be committed.
type pending struct {
	resolution action.Resolution
	committed  bool
}

type scenarioState struct {
	dir        string
	ruleset    *rules.Ruleset
	ledgers    map[string]ledger.Ledger
	clocks     map[string]clock.Clock
	faces      []int
	lastActor  string
	lastAction map[string]*pending
	lastEvents []ledger.Event
	lastClock  *clock.Update
}

func newScenarioState(dir string) *scenarioState {
	return &scenarioState{
		dir:        dir,
		ruleset:    rules.Default(),
		ledgers:    map[string]ledger.Ledger{},
		clocks:     map[string]clock.Clock{},
		lastAction: map[string]*pending{},
	}
}

// Run executes the scenario steps in order. A step carrying expect_error
// passes only when it fails with that error code.
func (r *Runner) Run(ctx context.Context, scenario *Scenario) error {
	if scenario == nil {
		return errors.New("scenario is required")
	}
	r.logf("scenario start: %s (%d steps)", scenario.Name, len(scenario.Steps))
	state := newScenarioState(scenario.Dir)

	for index, step := range scenario.Steps {
		if err := ctx.Err(); err != nil {
			return err
		}
		stepNumber := index + 1
		r.logf("step %d/%d start: %s", stepNumber, len(scenario.Steps), step.Kind)
		stepStart := time.Now()
		err := r.checkStepError(step, r.runStep(state, step))
		if err != nil {
			return fmt.Errorf("step %d (%s): %w", stepNumber, step.Kind, err)
		}
		r.logf("step %d/%d done: %s (%s)", stepNumber, len(scenario.Steps), step.Kind, time.Since(stepStart))
	}
	r.logf("scenario done: %s", scenario.Name)
	return nil
}

func (r *Runner) logf(format string, args ...any) {
	if !r.verbose || r.logger == nil {
		return
	}
	r.logger.Printf(format, args...)
}

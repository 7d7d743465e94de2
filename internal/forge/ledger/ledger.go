// Package ledger tracks a character's stress, trauma, and harm.
//
// Stress is a clock whose overflow is productive: pushing it past its
// maximum assigns a trauma and empties the track. Mutations arrive as Delta
// commands and are applied all-or-nothing by Apply.
package ledger

import (
	"fmt"
	"slices"

	"github.com/louisbranch/darkforge/internal/forge/clock"
	apperrors "github.com/louisbranch/darkforge/internal/platform/errors"
)

var (
	ErrCharacterRetired      = apperrors.New(apperrors.CodeLedgerCharacterRetired, "character retired")
	ErrInvalidHarmTransition = apperrors.New(apperrors.CodeLedgerInvalidHarmTransition, "invalid harm transition")
	ErrDuplicateTrauma       = apperrors.New(apperrors.CodeLedgerDuplicateTrauma, "trauma already held")
	ErrUnknownTrauma         = apperrors.New(apperrors.CodeLedgerUnknownTrauma, "unknown trauma")
	ErrTraumaRequired        = apperrors.New(apperrors.CodeLedgerTraumaRequired, "trauma choice required")
	ErrNoTraumaAvailable     = apperrors.New(apperrors.CodeLedgerNoTraumaAvailable, "no trauma available")
	ErrInvalidDelta          = apperrors.New(apperrors.CodeLedgerInvalidDelta, "invalid ledger delta")
	ErrInvalidConfig         = apperrors.New(apperrors.CodeLedgerInvalidConfig, "invalid ledger config")
)

// stressClockName names the stress track clock.
const stressClockName = "stress"

// Ledger is the persisted resource record of one character.
type Ledger struct {
	Stress  clock.Clock `json:"stress" yaml:"stress"`
	Trauma  []string    `json:"trauma" yaml:"trauma"`
	Harm    HarmLevel   `json:"harm" yaml:"harm"`
	Retired bool        `json:"retired" yaml:"retired"`
}

// New returns an empty ledger sized by cfg.
func New(cfg Config) Ledger {
	return Ledger{Stress: clock.Clock{Name: stressClockName, Segments: cfg.StressMax}}
}

// HasTrauma reports whether the ledger holds the named trauma.
func (l Ledger) HasTrauma(name string) bool {
	return slices.Contains(l.Trauma, name)
}

// IsRetired reports whether the ledger is past its trauma maximum under cfg.
// Records loaded from outside the core may hold a full trauma list without
// the flag set, so the count is checked as well.
func (l Ledger) IsRetired(cfg Config) bool {
	return l.Retired || len(l.Trauma) >= cfg.TraumaMax
}

// Validate checks a record loaded from outside the core against cfg.
func (l Ledger) Validate(cfg Config) error {
	if err := l.stressTrack(cfg).Validate(); err != nil {
		return fmt.Errorf("stress: %w", err)
	}
	if !l.Harm.Valid() {
		return fmt.Errorf("%w: harm level %d", ErrInvalidDelta, int(l.Harm))
	}
	seen := make(map[string]struct{}, len(l.Trauma))
	for _, trauma := range l.Trauma {
		if _, ok := seen[trauma]; ok {
			return fmt.Errorf("%w: %q held twice", ErrDuplicateTrauma, trauma)
		}
		if !cfg.hasOption(trauma) {
			return apperrors.WithMetadata(apperrors.CodeLedgerUnknownTrauma,
				fmt.Sprintf("held trauma %q is not a ruleset option", trauma),
				map[string]string{"Trauma": trauma})
		}
		seen[trauma] = struct{}{}
	}
	return nil
}

func (l Ledger) clone() Ledger {
	l.Trauma = slices.Clone(l.Trauma)
	return l
}

// stressTrack returns the stress clock sized by the ruleset.
func (l Ledger) stressTrack(cfg Config) clock.Clock {
	track := l.Stress
	if track.Name == "" {
		track.Name = stressClockName
	}
	track.Segments = cfg.StressMax
	return track
}

// Apply applies deltas in order to a copy of l.
//
// Either every delta succeeds and the new ledger plus its events are
// returned, or the first failure is returned together with l unchanged and
// no events.
func Apply(l Ledger, cfg Config, deltas []Delta) (Ledger, []Event, error) {
	if err := cfg.Validate(); err != nil {
		return l, nil, err
	}
	if err := l.Validate(cfg); err != nil {
		return l, nil, err
	}

	next := l.clone()
	next.Stress = l.stressTrack(cfg)
	var events []Event
	for i, delta := range deltas {
		applied, err := next.apply(cfg, delta)
		if err != nil {
			return l, nil, fmt.Errorf("delta %d (%s): %w", i, delta.Kind, err)
		}
		events = append(events, applied...)
	}
	return next, events, nil
}

func (l *Ledger) apply(cfg Config, delta Delta) ([]Event, error) {
	if l.IsRetired(cfg) {
		return nil, ErrCharacterRetired
	}
	switch delta.Kind {
	case DeltaStress:
		return l.addStress(cfg, delta)
	case DeltaClearStress:
		return l.clearStress(delta)
	case DeltaTrauma:
		return l.addTrauma(cfg, delta.Trauma)
	case DeltaHarm:
		return l.changeHarm(delta)
	default:
		return nil, fmt.Errorf("%w: unknown kind %d", ErrInvalidDelta, int(delta.Kind))
	}
}

func (l *Ledger) addStress(cfg Config, delta Delta) ([]Event, error) {
	if delta.Amount <= 0 {
		return nil, fmt.Errorf("%w: stress amount %d must be positive", ErrInvalidDelta, delta.Amount)
	}

	before := l.Stress.Filled
	if before+delta.Amount <= l.Stress.Segments {
		update, err := l.Stress.Advance(delta.Amount)
		if err != nil {
			return nil, err
		}
		l.Stress = update.Clock
		return []Event{{Kind: EventStressAdded, Before: before, After: update.After}}, nil
	}

	// Overflow: one trauma regardless of how far past the maximum, and
	// the excess is discarded.
	events := []Event{{Kind: EventStressOverflow, Before: before, After: 0}}
	traumaEvents, err := l.addTrauma(cfg, delta.Trauma)
	if err != nil {
		return nil, err
	}
	l.Stress = l.Stress.Reset()
	return append(events, traumaEvents...), nil
}

func (l *Ledger) clearStress(delta Delta) ([]Event, error) {
	if delta.Amount < 0 {
		return nil, fmt.Errorf("%w: clear amount %d must not be negative", ErrInvalidDelta, delta.Amount)
	}
	before := l.Stress.Filled
	after := 0
	if delta.Amount > 0 {
		after = max(before-delta.Amount, 0)
	}
	l.Stress.Filled = after
	return []Event{{Kind: EventStressCleared, Before: before, After: after}}, nil
}

func (l *Ledger) addTrauma(cfg Config, choice string) ([]Event, error) {
	trauma, err := l.pickTrauma(cfg, choice)
	if err != nil {
		return nil, err
	}

	l.Trauma = append(l.Trauma, trauma)
	events := []Event{{Kind: EventTraumaAdded, Trauma: trauma, Before: len(l.Trauma) - 1, After: len(l.Trauma)}}
	if len(l.Trauma) >= cfg.TraumaMax {
		l.Retired = true
		events = append(events, Event{Kind: EventRetired, Before: len(l.Trauma), After: len(l.Trauma)})
	}
	return events, nil
}

func (l *Ledger) pickTrauma(cfg Config, choice string) (string, error) {
	if choice != "" {
		if !cfg.hasOption(choice) {
			return "", apperrors.WithMetadata(apperrors.CodeLedgerUnknownTrauma,
				fmt.Sprintf("trauma %q is not a ruleset option", choice),
				map[string]string{"Trauma": choice})
		}
		if l.HasTrauma(choice) {
			return "", apperrors.WithMetadata(apperrors.CodeLedgerDuplicateTrauma,
				fmt.Sprintf("trauma %q already held", choice),
				map[string]string{"Trauma": choice})
		}
		return choice, nil
	}

	if cfg.Policy == PolicyCallerChosen {
		return "", ErrTraumaRequired
	}
	for _, option := range cfg.TraumaOptions {
		if !l.HasTrauma(option) {
			return option, nil
		}
	}
	return "", fmt.Errorf("%w: all %d options held", ErrNoTraumaAvailable, len(cfg.TraumaOptions))
}

func (l *Ledger) changeHarm(delta Delta) ([]Event, error) {
	if !delta.Harm.Valid() {
		return nil, fmt.Errorf("%w: harm level %d", ErrInvalidDelta, int(delta.Harm))
	}

	from, to := l.Harm, delta.Harm
	step := int(to) - int(from)
	if step == 0 || (!delta.Justified && (step > 1 || step < -1)) {
		return nil, apperrors.WithMetadata(apperrors.CodeLedgerInvalidHarmTransition,
			fmt.Sprintf("harm %s to %s (step %d)", from, to, step),
			map[string]string{"From": from.String(), "To": to.String()})
	}

	l.Harm = to
	return []Event{{Kind: EventHarmChanged, HarmBefore: from, HarmAfter: to}}, nil
}

// Package action resolves a single action roll against a ruleset.
//
// Resolve never mutates the ledger it is given. It returns the deltas the
// roll implies so the caller decides when, and whether, to apply them.
package action

import (
	"fmt"

	"github.com/louisbranch/darkforge/internal/forge/dice"
	"github.com/louisbranch/darkforge/internal/forge/entropy"
	"github.com/louisbranch/darkforge/internal/forge/ledger"
	"github.com/louisbranch/darkforge/internal/forge/rules"
)

// Request describes the action being rolled.
type Request struct {
	Pool     int
	Position rules.Position
	Effect   rules.Effect
}

// Resolution is the immutable result of one action roll.
type Resolution struct {
	Outcome     dice.Outcome
	Position    rules.Position
	Effect      rules.Effect
	Consequence rules.Consequence
	// Deltas are suggested ledger mutations, in application order.
	Deltas []ledger.Delta
	// Progress is the number of clock segments the action earns.
	Progress     int
	RulesVersion string
}

// Resolve rolls req against rs using src. A nil ruleset uses rules.Default.
//
// Exactly one dice resolution happens per call. Failures before the roll
// (bad position or effect, retired character, pool over the limit) draw
// nothing from src.
func Resolve(req Request, src entropy.Source, snapshot ledger.Ledger, rs *rules.Ruleset) (Resolution, error) {
	if rs == nil {
		rs = rules.Default()
	}
	if !req.Position.Valid() {
		return Resolution{}, fmt.Errorf("%w: %d", rules.ErrInvalidPosition, int(req.Position))
	}
	if !req.Effect.Valid() {
		return Resolution{}, fmt.Errorf("%w: %d", rules.ErrInvalidEffect, int(req.Effect))
	}
	if snapshot.IsRetired(rs.Ledger) {
		return Resolution{}, fmt.Errorf("resolve action: %w", ledger.ErrCharacterRetired)
	}

	outcome, err := rs.Resolver().Resolve(req.Pool, src)
	if err != nil {
		return Resolution{}, err
	}

	consequence, err := rs.Lookup(outcome.Tier, req.Position, req.Effect)
	if err != nil {
		return Resolution{}, err
	}

	return Resolution{
		Outcome:      outcome,
		Position:     req.Position,
		Effect:       req.Effect,
		Consequence:  consequence,
		Deltas:       deltasFor(consequence, snapshot),
		Progress:     consequence.Progress,
		RulesVersion: rs.Ident(),
	}, nil
}

func deltasFor(consequence rules.Consequence, snapshot ledger.Ledger) []ledger.Delta {
	var deltas []ledger.Delta
	if consequence.Stress > 0 {
		deltas = append(deltas, ledger.StressDelta(consequence.Stress))
	}
	if target, ok := suggestedHarm(consequence.Harm, snapshot.Harm); ok {
		deltas = append(deltas, ledger.HarmDelta(target, true))
	}
	return deltas
}

// suggestedHarm escalates to the suggested level, or one step past the
// current level when the character is already there. Nothing is suggested
// once harm is fatal.
func suggestedHarm(suggested, current ledger.HarmLevel) (ledger.HarmLevel, bool) {
	if suggested == ledger.HarmNone {
		return 0, false
	}
	target := suggested
	if current >= suggested {
		target = current.Next()
	}
	if target == current {
		return 0, false
	}
	return target, true
}

// Apply commits a resolution's deltas to snapshot under rs. The trauma
// argument names the trauma to take if the stress delta overflows; it may
// be empty when the ruleset assigns trauma itself.
func Apply(res Resolution, snapshot ledger.Ledger, rs *rules.Ruleset, trauma string) (ledger.Ledger, []ledger.Event, error) {
	if rs == nil {
		rs = rules.Default()
	}
	deltas := make([]ledger.Delta, len(res.Deltas))
	copy(deltas, res.Deltas)
	for i := range deltas {
		if deltas[i].Kind == ledger.DeltaStress && deltas[i].Trauma == "" {
			deltas[i].Trauma = trauma
		}
	}
	return ledger.Apply(snapshot, rs.Ledger, deltas)
}

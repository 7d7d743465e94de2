package rules

import (
	"github.com/louisbranch/darkforge/internal/forge/dice"
	"github.com/louisbranch/darkforge/internal/forge/ledger"
)

// progressByEffect is the number of clock segments a success earns.
var progressByEffect = map[Effect]int{
	EffectLimited:  1,
	EffectStandard: 2,
	EffectGreat:    3,
	EffectExtreme:  5,
}

// baseConsequences holds the position-dependent part of each tier.
var baseConsequences = map[Position]map[dice.Tier]Consequence{
	PositionControlled: {
		dice.TierFailure:        {Severity: SeverityStandard, Harm: ledger.HarmLesser, Stress: 1},
		dice.TierPartialSuccess: {Severity: SeverityReduced, Stress: 1},
		dice.TierSuccess:        {Severity: SeverityNone},
		dice.TierCritical:       {Severity: SeverityNone},
	},
	PositionRisky: {
		dice.TierFailure:        {Severity: SeveritySevere, Harm: ledger.HarmModerate, Stress: 2},
		dice.TierPartialSuccess: {Severity: SeverityStandard, Harm: ledger.HarmLesser, Stress: 2},
		dice.TierSuccess:        {Severity: SeverityNone},
		dice.TierCritical:       {Severity: SeverityNone},
	},
	PositionDesperate: {
		dice.TierFailure:        {Severity: SeveritySevere, Harm: ledger.HarmSevere, Stress: 3},
		dice.TierPartialSuccess: {Severity: SeveritySevere, Harm: ledger.HarmModerate, Stress: 2},
		dice.TierSuccess:        {Severity: SeverityNone},
		dice.TierCritical:       {Severity: SeverityNone},
	},
}

func progressFor(tier dice.Tier, effect Effect) int {
	switch tier {
	case dice.TierCritical:
		return progressByEffect[effect] + 1
	case dice.TierSuccess, dice.TierPartialSuccess:
		return progressByEffect[effect]
	default:
		return 0
	}
}

// Default returns the built-in ruleset. Every call returns a fresh copy.
func Default() *Ruleset {
	table := make([]Entry, 0, TableSize)
	for _, tier := range dice.Tiers {
		for _, position := range Positions {
			for _, effect := range Effects {
				consequence := baseConsequences[position][tier]
				consequence.Progress = progressFor(tier, effect)
				table = append(table, Entry{
					Tier:        tier,
					Position:    position,
					Effect:      effect,
					Consequence: consequence,
				})
			}
		}
	}

	return &Ruleset{
		Name:    DefaultName,
		Version: DefaultVersion,
		MaxPool: DefaultMaxPool,
		Ledger:  ledger.DefaultConfig(),
		Table:   table,
	}
}

package dice

import "github.com/louisbranch/darkforge/internal/forge/entropy"

// ExplainStep is one deterministic step in the evaluation of a roll.
type ExplainStep struct {
	Code    string
	Message string
	Data    map[string]any
}

// ExplainResult pairs an outcome with the steps that produced it.
type ExplainResult struct {
	Outcome      Outcome
	RulesVersion string
	Steps        []ExplainStep
}

// Explain resolves a pool and describes how the tier was reached.
func Explain(pool int, src entropy.Source) (ExplainResult, error) {
	outcome, err := Resolve(pool, src)
	if err != nil {
		return ExplainResult{}, err
	}
	return ExplainOutcome(outcome), nil
}

// ExplainOutcome describes an already resolved outcome.
func ExplainOutcome(outcome Outcome) ExplainResult {
	keepRule := "highest"
	if outcome.ZeroDice {
		keepRule = "lowest"
	}

	steps := []ExplainStep{
		{
			Code:    "ROLL_POOL",
			Message: "Roll the dice pool",
			Data: map[string]any{
				"pool":      outcome.Pool,
				"dice":      len(outcome.Faces),
				"faces":     append([]int(nil), outcome.Faces...),
				"zero_dice": outcome.ZeroDice,
			},
		},
		{
			Code:    "SELECT_KEPT_DIE",
			Message: "Keep the " + keepRule + " die",
			Data: map[string]any{
				"keep": keepRule,
				"kept": outcome.Kept,
			},
		},
		{
			Code:    "COUNT_CRITICALS",
			Message: "Count sixes for a critical",
			Data: map[string]any{
				"critical_count": outcome.CriticalCount,
				"can_critical":   !outcome.ZeroDice,
			},
		},
		{
			Code:    "CLASSIFY_TIER",
			Message: "Classify the kept die",
			Data: map[string]any{
				"tier_code":  int(outcome.Tier),
				"tier_label": outcome.Tier.String(),
			},
		},
	}

	return ExplainResult{
		Outcome:      outcome,
		RulesVersion: RulesVersion().RulesVersion,
		Steps:        steps,
	}
}

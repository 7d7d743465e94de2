package dice

import (
	"fmt"
	"strconv"

	apperrors "github.com/louisbranch/darkforge/internal/platform/errors"
)

// MaxProbabilityPool is the largest pool Probability will count. 6^20 still
// fits comfortably in an int64.
const MaxProbabilityPool = 20

// TierCount is the number of face combinations landing on a tier.
type TierCount struct {
	Tier  Tier
	Count int64
}

// ProbabilityResult holds exact outcome counts for a pool.
type ProbabilityResult struct {
	Pool          int
	Dice          int
	TotalOutcomes int64
	TierCounts    []TierCount
}

// Count returns the combinations for tier.
func (r ProbabilityResult) Count(tier Tier) int64 {
	for _, tc := range r.TierCounts {
		if tc.Tier == tier {
			return tc.Count
		}
	}
	return 0
}

// Chance returns the probability of tier in [0, 1].
func (r ProbabilityResult) Chance(tier Tier) float64 {
	if r.TotalOutcomes == 0 {
		return 0
	}
	return float64(r.Count(tier)) / float64(r.TotalOutcomes)
}

// Probability computes exact tier counts across every ordered combination
// of faces the pool can roll.
func Probability(pool int) (ProbabilityResult, error) {
	if pool > MaxProbabilityPool {
		return ProbabilityResult{}, apperrors.WithMetadata(
			apperrors.CodeDiceInvalidPoolSize,
			fmt.Sprintf("probability pool %d exceeds maximum %d", pool, MaxProbabilityPool),
			map[string]string{"Pool": strconv.Itoa(pool), "Max": strconv.Itoa(MaxProbabilityPool)},
		)
	}

	if pool <= 0 {
		// Lowest of two dice: failure unless both are 4+, success only on
		// double six.
		return ProbabilityResult{
			Pool:          pool,
			Dice:          zeroDicePool,
			TotalOutcomes: 36,
			TierCounts: []TierCount{
				{Tier: TierFailure, Count: 27},
				{Tier: TierPartialSuccess, Count: 8},
				{Tier: TierSuccess, Count: 1},
				{Tier: TierCritical, Count: 0},
			},
		}, nil
	}

	n := int64(pool)
	total := pow(6, pool)
	failure := pow(3, pool)
	noSix := pow(5, pool)
	partial := noSix - failure
	success := n * pow(5, pool-1)
	critical := total - noSix - success

	return ProbabilityResult{
		Pool:          pool,
		Dice:          pool,
		TotalOutcomes: total,
		TierCounts: []TierCount{
			{Tier: TierFailure, Count: failure},
			{Tier: TierPartialSuccess, Count: partial},
			{Tier: TierSuccess, Count: success},
			{Tier: TierCritical, Count: critical},
		},
	}, nil
}

func pow(base int64, exp int) int64 {
	result := int64(1)
	for i := 0; i < exp; i++ {
		result *= base
	}
	return result
}

// Package simulate runs batches of action rolls and compares the observed
// tier frequencies against the exact odds.
package simulate

import (
	"context"
	"errors"
	"fmt"
	"math"

	"github.com/louisbranch/darkforge/internal/forge/dice"
	"github.com/louisbranch/darkforge/internal/forge/entropy"
)

// ErrInvalidTrials indicates a non-positive trial count.
var ErrInvalidTrials = errors.New("trials must be positive")

// cancelCheckEvery is how many trials run between context checks.
const cancelCheckEvery = 4096

// Config describes one simulation batch.
type Config struct {
	Pool   int
	Trials int
	Seed   int64
	// MaxPool caps the pool like a ruleset would. Zero means no cap.
	MaxPool int
}

// TierStat compares one tier's observed and exact frequency.
type TierStat struct {
	Tier         dice.Tier
	Observed     int
	ObservedRate float64
	ExpectedRate float64
}

// Deviation is the absolute gap between observed and expected rates.
func (s TierStat) Deviation() float64 {
	return math.Abs(s.ObservedRate - s.ExpectedRate)
}

// Report is the outcome of a batch.
type Report struct {
	Pool   int
	Trials int
	Seed   int64
	Stats  []TierStat
}

// MaxDeviation is the largest per-tier deviation in the report.
func (r Report) MaxDeviation() float64 {
	worst := 0.0
	for _, s := range r.Stats {
		worst = max(worst, s.Deviation())
	}
	return worst
}

// Run resolves cfg.Trials pools from a Uniform source seeded with cfg.Seed.
// The same config always produces the same report.
func Run(ctx context.Context, cfg Config) (Report, error) {
	if cfg.Trials <= 0 {
		return Report{}, fmt.Errorf("%w: got %d", ErrInvalidTrials, cfg.Trials)
	}
	exact, err := dice.Probability(cfg.Pool)
	if err != nil {
		return Report{}, err
	}

	resolver := dice.Resolver{MaxPool: cfg.MaxPool}
	src := entropy.NewUniform(cfg.Seed)
	counts := make([]int, len(dice.Tiers))
	for i := 0; i < cfg.Trials; i++ {
		if i%cancelCheckEvery == 0 {
			if err := ctx.Err(); err != nil {
				return Report{}, err
			}
		}
		outcome, err := resolver.Resolve(cfg.Pool, src)
		if err != nil {
			return Report{}, fmt.Errorf("trial %d: %w", i, err)
		}
		counts[outcome.Tier]++
	}

	stats := make([]TierStat, 0, len(dice.Tiers))
	for _, tier := range dice.Tiers {
		stats = append(stats, TierStat{
			Tier:         tier,
			Observed:     counts[tier],
			ObservedRate: float64(counts[tier]) / float64(cfg.Trials),
			ExpectedRate: exact.Chance(tier),
		})
	}
	return Report{Pool: cfg.Pool, Trials: cfg.Trials, Seed: cfg.Seed, Stats: stats}, nil
}

// Odds returns the exact tier odds for every pool in [from, to].
func Odds(from, to int) ([]dice.ProbabilityResult, error) {
	if to < from {
		return nil, fmt.Errorf("pool range %d..%d is empty", from, to)
	}
	results := make([]dice.ProbabilityResult, 0, to-from+1)
	for pool := from; pool <= to; pool++ {
		result, err := dice.Probability(pool)
		if err != nil {
			return nil, err
		}
		results = append(results, result)
	}
	return results, nil
}

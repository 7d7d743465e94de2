// Package simulate parses simulate command flags and prints dice odds.
package simulate

import (
	"context"
	"flag"
	"fmt"
	"io"

	"github.com/louisbranch/darkforge/internal/forge/rules"
	"github.com/louisbranch/darkforge/internal/forge/simulate"
	entrypoint "github.com/louisbranch/darkforge/internal/platform/cmd"
	"github.com/louisbranch/darkforge/internal/random"
)

// Config holds simulate command configuration.
type Config struct {
	Pool    int    `env:"SIMULATE_POOL"    envDefault:"2"`
	Trials  int    `env:"SIMULATE_TRIALS"  envDefault:"100000"`
	Seed    int64  `env:"SIMULATE_SEED"`
	Format  string `env:"SIMULATE_FORMAT"  envDefault:"table"`
	Ruleset string `env:"RULESET_FILE"`
	Locale  string `env:"LOCALE"`
	Odds    bool
	From    int
	To      int
}

// ParseConfig parses environment and flags into a Config.
func ParseConfig(fs *flag.FlagSet, args []string) (Config, error) {
	var cfg Config
	if err := entrypoint.ParseConfig(&cfg); err != nil {
		return Config{}, err
	}
	fs.IntVar(&cfg.Pool, "pool", cfg.Pool, "dice pool to simulate")
	fs.IntVar(&cfg.Trials, "trials", cfg.Trials, "number of rolls to simulate")
	fs.Int64Var(&cfg.Seed, "seed", cfg.Seed, "random seed for reproducibility (0 = random)")
	fs.StringVar(&cfg.Format, "format", cfg.Format, "output format (table, markdown, csv, json)")
	fs.StringVar(&cfg.Ruleset, "ruleset", cfg.Ruleset, "ruleset yaml file (default: built-in)")
	fs.StringVar(&cfg.Locale, "locale", cfg.Locale, "locale for error messages (default: en-US)")
	fs.BoolVar(&cfg.Odds, "odds", false, "print exact odds for a range of pools instead of simulating")
	fs.IntVar(&cfg.From, "from", 0, "first pool for -odds")
	fs.IntVar(&cfg.To, "to", 6, "last pool for -odds")
	if err := entrypoint.ParseArgs(fs, args); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Run executes the simulate command.
func Run(ctx context.Context, cfg Config, out io.Writer) error {
	if out == nil {
		out = io.Discard
	}
	format, err := simulate.ParseFormat(cfg.Format)
	if err != nil {
		return err
	}

	if cfg.Odds {
		results, err := simulate.Odds(cfg.From, cfg.To)
		if err != nil {
			return err
		}
		return simulate.RenderOdds(out, results, format)
	}

	if cfg.Trials <= 0 {
		return fmt.Errorf("%w: got %d", simulate.ErrInvalidTrials, cfg.Trials)
	}
	rs, err := rules.LoadFile(cfg.Ruleset)
	if err != nil {
		return err
	}
	seed := cfg.Seed
	if seed == 0 {
		seed, err = random.NewSeed()
		if err != nil {
			return err
		}
	}

	return entrypoint.RunWithTelemetry(ctx, entrypoint.ServiceSimulate, func(ctx context.Context) error {
		report, err := simulate.Run(ctx, simulate.Config{
			Pool:    cfg.Pool,
			Trials:  cfg.Trials,
			Seed:    seed,
			MaxPool: rs.MaxPool,
		})
		if err != nil {
			return fmt.Errorf("simulate pool %d: %w", cfg.Pool, err)
		}
		return simulate.Render(out, report, format)
	})
}

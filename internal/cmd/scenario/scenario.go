// Package scenario parses scenario command flags and runs Lua scenario files.
package scenario

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"

	"github.com/louisbranch/darkforge/internal/forge/scenario"
	entrypoint "github.com/louisbranch/darkforge/internal/platform/cmd"
)

// Config holds scenario command configuration.
type Config struct {
	Assertions bool `env:"SCENARIO_ASSERT" envDefault:"true"`
	Verbose    bool `env:"SCENARIO_VERBOSE"`
	// Locale selects the catalog used for error messages.
	Locale string `env:"LOCALE"`

	// Scenarios are the Lua files to run, in order.
	Scenarios []string
}

// ParseConfig parses environment and flags into a Config. Positional
// arguments name the scenario files to run.
func ParseConfig(fs *flag.FlagSet, args []string) (Config, error) {
	var cfg Config
	if err := entrypoint.ParseConfig(&cfg); err != nil {
		return Config{}, err
	}
	var single string
	fs.StringVar(&single, "scenario", "", "path to scenario lua file")
	fs.BoolVar(&cfg.Assertions, "assert", cfg.Assertions, "enable assertions (disable to log expectations)")
	fs.BoolVar(&cfg.Verbose, "verbose", cfg.Verbose, "enable verbose logging")
	fs.StringVar(&cfg.Locale, "locale", cfg.Locale, "locale for error messages (default: en-US)")
	if err := entrypoint.ParseArgs(fs, args); err != nil {
		return Config{}, err
	}
	if single != "" {
		cfg.Scenarios = append(cfg.Scenarios, single)
	}
	cfg.Scenarios = append(cfg.Scenarios, fs.Args()...)
	return cfg, nil
}

// Run executes every configured scenario and reports each result on out.
func Run(ctx context.Context, cfg Config, out io.Writer, errOut io.Writer) error {
	if out == nil {
		out = io.Discard
	}
	if errOut == nil {
		errOut = io.Discard
	}
	if len(cfg.Scenarios) == 0 {
		return errors.New("scenario path is required")
	}

	mode := scenario.AssertionStrict
	if !cfg.Assertions {
		mode = scenario.AssertionLogOnly
	}
	runner := scenario.NewRunner(scenario.Config{
		Assertions: mode,
		Verbose:    cfg.Verbose,
		Logger:     log.New(errOut, "", 0),
	})

	return entrypoint.RunWithTelemetry(ctx, entrypoint.ServiceScenario, func(ctx context.Context) error {
		var failed int
		for _, path := range cfg.Scenarios {
			loaded, err := scenario.LoadFile(path)
			if err != nil {
				return fmt.Errorf("%s: %w", path, err)
			}
			if err := runner.Run(ctx, loaded); err != nil {
				failed++
				fmt.Fprintf(out, "FAIL %s: %v\n", loaded.Name, err)
				continue
			}
			fmt.Fprintf(out, "ok   %s\n", loaded.Name)
		}
		if failures := runner.Failures(); failures > 0 {
			fmt.Fprintf(out, "%d expectations logged\n", failures)
		}
		if failed > 0 {
			return fmt.Errorf("%d of %d scenarios failed", failed, len(cfg.Scenarios))
		}
		return nil
	})
}

package simulate

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"flag"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/louisbranch/darkforge/internal/forge/dice"
)

func TestParseConfigDefaults(t *testing.T) {
	fs := flag.NewFlagSet("simulate", flag.ContinueOnError)
	cfg, err := ParseConfig(fs, nil)
	if err != nil {
		t.Fatalf("parse config: %v", err)
	}
	if cfg.Pool != 2 || cfg.Trials != 100000 || cfg.Format != "table" {
		t.Fatalf("defaults = %+v", cfg)
	}
	if cfg.Odds || cfg.From != 0 || cfg.To != 6 {
		t.Fatalf("odds defaults = %+v", cfg)
	}
}

func TestParseConfigOverrides(t *testing.T) {
	t.Setenv("DARKFORGE_SIMULATE_TRIALS", "500")
	fs := flag.NewFlagSet("simulate", flag.ContinueOnError)
	cfg, err := ParseConfig(fs, []string{"-pool", "4", "-seed", "9", "-format", "csv"})
	if err != nil {
		t.Fatalf("parse config: %v", err)
	}
	if cfg.Pool != 4 || cfg.Seed != 9 || cfg.Format != "csv" || cfg.Trials != 500 {
		t.Fatalf("config = %+v", cfg)
	}
}

func TestParseConfigLocale(t *testing.T) {
	t.Setenv("DARKFORGE_LOCALE", "en-US")
	fs := flag.NewFlagSet("simulate", flag.ContinueOnError)
	cfg, err := ParseConfig(fs, []string{"-locale", "fr-FR"})
	if err != nil {
		t.Fatalf("parse config: %v", err)
	}
	if cfg.Locale != "fr-FR" {
		t.Fatalf("locale = %q, want flag to override env", cfg.Locale)
	}
}

func TestRunSimulationJSON(t *testing.T) {
	var out bytes.Buffer
	cfg := Config{Pool: 3, Trials: 2000, Seed: 5, Format: "json"}
	if err := Run(context.Background(), cfg, &out); err != nil {
		t.Fatalf("Run: %v", err)
	}
	var report struct {
		Pool   int
		Trials int
		Seed   int64
	}
	if err := json.Unmarshal(out.Bytes(), &report); err != nil {
		t.Fatalf("decode report: %v", err)
	}
	if report.Pool != 3 || report.Trials != 2000 || report.Seed != 5 {
		t.Fatalf("report = %+v", report)
	}
}

func TestRunOddsTable(t *testing.T) {
	var out bytes.Buffer
	if err := Run(context.Background(), Config{Odds: true, From: 0, To: 2, Format: "markdown"}, &out); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if !strings.Contains(strings.ToUpper(out.String()), "CRITICAL") {
		t.Fatalf("output = %q", out.String())
	}
	if got := strings.Count(out.String(), "\n"); got < 4 {
		t.Fatalf("expected header, separator and three rows, got %q", out.String())
	}
}

func TestRunHonorsRulesetMaxPool(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tight.yaml")
	if err := os.WriteFile(path, []byte("name: tight\nversion: 1.0.0\nmax_pool: 3\n"), 0o600); err != nil {
		t.Fatalf("write ruleset: %v", err)
	}
	err := Run(context.Background(), Config{Pool: 4, Trials: 10, Seed: 1, Ruleset: path}, nil)
	if !errors.Is(err, dice.ErrInvalidPoolSize) {
		t.Fatalf("error = %v, want %v", err, dice.ErrInvalidPoolSize)
	}
}

func TestRunRejectsBadInput(t *testing.T) {
	tests := []struct {
		name string
		cfg  Config
	}{
		{name: "format", cfg: Config{Pool: 1, Trials: 10, Format: "xml"}},
		{name: "trials", cfg: Config{Pool: 1, Trials: 0}},
		{name: "odds range", cfg: Config{Odds: true, From: 4, To: 2}},
		{name: "odds overflow", cfg: Config{Odds: true, From: 0, To: dice.MaxProbabilityPool + 1}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := Run(context.Background(), tt.cfg, nil); err == nil {
				t.Fatal("expected error")
			}
		})
	}
}

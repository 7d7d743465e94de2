package cmd

import (
	"context"
	"errors"
	"flag"
	"testing"
	"time"
)

type testConfig struct {
	Ruleset string `env:"CMD_TEST_RULESET" envDefault:"standard.yaml"`
	Format  string `env:"CMD_TEST_FORMAT" envDefault:"table"`
}

func TestParseConfigReadsEnvAndFlags(t *testing.T) {
	t.Setenv("DARKFORGE_CMD_TEST_RULESET", "env.yaml")
	t.Setenv("DARKFORGE_CMD_TEST_FORMAT", "csv")

	fs := flag.NewFlagSet("test", flag.ContinueOnError)
	cfg := testConfig{}
	if err := ParseConfig(&cfg); err != nil {
		t.Fatalf("load config defaults: %v", err)
	}
	fs.StringVar(&cfg.Ruleset, "ruleset", cfg.Ruleset, "ruleset")
	fs.StringVar(&cfg.Format, "format", cfg.Format, "format")

	if err := ParseArgs(fs, []string{"-ruleset", "flag.yaml"}); err != nil {
		t.Fatalf("parse flags: %v", err)
	}
	if cfg.Ruleset != "flag.yaml" {
		t.Fatalf("expected flag value for ruleset, got %q", cfg.Ruleset)
	}
	if cfg.Format != "csv" {
		t.Fatalf("expected env format, got %q", cfg.Format)
	}
}

func TestParseConfigDefaults(t *testing.T) {
	cfg := testConfig{}
	if err := ParseConfig(&cfg); err != nil {
		t.Fatalf("load config defaults: %v", err)
	}
	if cfg.Ruleset != "standard.yaml" || cfg.Format != "table" {
		t.Fatalf("defaults = %+v", cfg)
	}
	if err := ParseConfig[testConfig](nil); err == nil {
		t.Fatal("expected nil target error")
	}
}

func TestParseConfigFromArgsReadsEnvAndFlags(t *testing.T) {
	t.Setenv("DARKFORGE_CMD_TEST_RULESET", "configarg.yaml")
	t.Setenv("DARKFORGE_CMD_TEST_FORMAT", "markdown")

	cfg := testConfig{}
	fs := flag.NewFlagSet("configargs", flag.ContinueOnError)
	fs.StringVar(&cfg.Ruleset, "ruleset", "", "ruleset")
	fs.StringVar(&cfg.Format, "format", "", "format")
	if err := ParseConfigFromArgs(&cfg, fs, []string{"-ruleset", "flag.yaml"}); err != nil {
		t.Fatalf("parse config and args: %v", err)
	}
	if cfg.Ruleset != "flag.yaml" {
		t.Fatalf("expected parsed flag ruleset, got %q", cfg.Ruleset)
	}
	if cfg.Format != "markdown" {
		t.Fatalf("expected env format, got %q", cfg.Format)
	}
}

func TestParseArgsRejectsNilParser(t *testing.T) {
	if err := ParseArgs(nil, []string{}); err == nil {
		t.Fatal("expected parse args to reject nil parser")
	}
}

func TestRunWithTelemetryRejectsMissingInputs(t *testing.T) {
	if err := RunWithTelemetry(context.Background(), "", func(context.Context) error { return nil }); err == nil {
		t.Fatal("expected missing service error")
	}
	if err := RunWithTelemetry(context.Background(), ServiceTable, nil); err == nil {
		t.Fatal("expected missing run function error")
	}
}

func TestRunWithTelemetryRunsWithoutExporter(t *testing.T) {
	t.Setenv("DARKFORGE_OTEL_ENDPOINT", "")

	boom := errors.New("boom")
	err := RunWithTelemetryAndOptions(context.Background(), ServiceSimulate, RunOptions{ShutdownTimeout: time.Second}, func(context.Context) error {
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("error = %v, want %v", err, boom)
	}
}

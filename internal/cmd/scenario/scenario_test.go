package scenario

import (
	"bytes"
	"context"
	"flag"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"
)

func TestParseConfigDefaults(t *testing.T) {
	fs := flag.NewFlagSet("scenario", flag.ContinueOnError)

	cfg, err := ParseConfig(fs, nil)
	if err != nil {
		t.Fatalf("parse config: %v", err)
	}
	if !cfg.Assertions {
		t.Fatal("expected assertions to default to true")
	}
	if cfg.Verbose {
		t.Fatal("expected verbose to default to false")
	}
	if len(cfg.Scenarios) != 0 {
		t.Fatalf("scenarios = %v, want none", cfg.Scenarios)
	}
}

func TestParseConfigCollectsScenarios(t *testing.T) {
	t.Setenv("DARKFORGE_SCENARIO_ASSERT", "false")
	fs := flag.NewFlagSet("scenario", flag.ContinueOnError)

	cfg, err := ParseConfig(fs, []string{"-scenario", "a.lua", "-verbose", "b.lua", "c.lua"})
	if err != nil {
		t.Fatalf("parse config: %v", err)
	}
	if cfg.Assertions {
		t.Fatal("expected env to disable assertions")
	}
	if !cfg.Verbose {
		t.Fatal("expected verbose flag")
	}
	if !slices.Equal(cfg.Scenarios, []string{"a.lua", "b.lua", "c.lua"}) {
		t.Fatalf("scenarios = %v", cfg.Scenarios)
	}
}

func TestParseConfigLocale(t *testing.T) {
	t.Setenv("DARKFORGE_LOCALE", "en-GB")
	fs := flag.NewFlagSet("scenario", flag.ContinueOnError)

	cfg, err := ParseConfig(fs, []string{"a.lua"})
	if err != nil {
		t.Fatalf("parse config: %v", err)
	}
	if cfg.Locale != "en-GB" {
		t.Fatalf("locale = %q, want env value", cfg.Locale)
	}
}

func TestRunRequiresScenario(t *testing.T) {
	if err := Run(context.Background(), Config{}, nil, nil); err == nil {
		t.Fatal("expected error without scenarios")
	}
}

func TestRunReportsEachScenario(t *testing.T) {
	dir := t.TempDir()
	pass := writeFile(t, dir, "pass.lua", `
local scene = Scenario.new("pass")
scene:character({name = "Ada"})
scene:action({pool = 1, faces = {6}})
scene:expect({tier = "success"})
return scene
`)
	fail := writeFile(t, dir, "fail.lua", `
local scene = Scenario.new("fail")
scene:character({name = "Ada"})
scene:action({pool = 1, faces = {1}})
scene:expect({tier = "success"})
return scene
`)

	var out bytes.Buffer
	err := Run(context.Background(), Config{Scenarios: []string{pass, fail}, Assertions: true}, &out, nil)
	if err == nil || !strings.Contains(err.Error(), "1 of 2 scenarios failed") {
		t.Fatalf("error = %v", err)
	}
	if !strings.Contains(out.String(), "ok   pass") || !strings.Contains(out.String(), "FAIL fail") {
		t.Fatalf("output = %q", out.String())
	}

	out.Reset()
	if err := Run(context.Background(), Config{Scenarios: []string{fail}}, &out, nil); err != nil {
		t.Fatalf("log-only run: %v", err)
	}
	if !strings.Contains(out.String(), "1 expectations logged") {
		t.Fatalf("output = %q", out.String())
	}
}

func TestRunRejectsUnloadableScenario(t *testing.T) {
	path := writeFile(t, t.TempDir(), "broken.lua", `return 42`)
	if err := Run(context.Background(), Config{Scenarios: []string{path}}, nil, nil); err == nil {
		t.Fatal("expected load error")
	}
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return path
}

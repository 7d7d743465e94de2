// Package table parses table command flags and runs one table operation
// against a sqlite store.
package table

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"

	"github.com/louisbranch/darkforge/internal/forge/action"
	"github.com/louisbranch/darkforge/internal/forge/dice"
	"github.com/louisbranch/darkforge/internal/forge/ledger"
	"github.com/louisbranch/darkforge/internal/forge/rules"
	entrypoint "github.com/louisbranch/darkforge/internal/platform/cmd"
	"github.com/louisbranch/darkforge/internal/platform/timeouts"
	tableservice "github.com/louisbranch/darkforge/internal/services/table"
	"github.com/louisbranch/darkforge/internal/storage"
	"github.com/louisbranch/darkforge/internal/storage/sqlite"
)

// Commands accepted as the first positional argument.
const (
	CommandCreateCharacter = "create-character"
	CommandCreateClock     = "create-clock"
	CommandRoll            = "roll"
	CommandAdvance         = "advance"
	CommandReset           = "reset"
	CommandClearStress     = "clear-stress"
	CommandHistory         = "history"
	CommandList            = "list"
)

// Config holds table command configuration.
type Config struct {
	DBPath  string `env:"TABLE_DB_PATH"`
	Ruleset string `env:"RULESET_FILE"`
	Verbose bool   `env:"TABLE_VERBOSE"`
	Locale  string `env:"LOCALE"`
	// Timeout caps the whole command.
	Timeout time.Duration `env:"TABLE_TIMEOUT"`

	Command    string
	Name       string
	Segments   int
	Character  string
	Clock      string
	Pool       int
	Position   string
	Effect     string
	Seed       string
	Commit     bool
	Explain    bool
	Trauma     string
	By         int
	Limit      int
	JSONOutput bool
}

// ParseConfig parses environment and flags into a Config. The command is
// either the first argument, with flags after it, or the first positional
// argument after the flags.
func ParseConfig(fs *flag.FlagSet, args []string) (Config, error) {
	var cfg Config
	if err := entrypoint.ParseConfig(&cfg); err != nil {
		return Config{}, err
	}
	if cfg.DBPath == "" {
		cfg.DBPath = filepath.Join("data", "darkforge.db")
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = timeouts.TableCommand
	}

	fs.StringVar(&cfg.DBPath, "db-path", cfg.DBPath, "path to sqlite database (default: DARKFORGE_TABLE_DB_PATH or data/darkforge.db)")
	fs.StringVar(&cfg.Ruleset, "ruleset", cfg.Ruleset, "ruleset yaml file (default: built-in)")
	fs.BoolVar(&cfg.Verbose, "verbose", cfg.Verbose, "log each write")
	fs.DurationVar(&cfg.Timeout, "timeout", cfg.Timeout, "overall timeout")
	fs.StringVar(&cfg.Locale, "locale", cfg.Locale, "locale for error messages (default: en-US)")
	fs.StringVar(&cfg.Name, "name", "", "name for create-character or create-clock")
	fs.IntVar(&cfg.Segments, "segments", 4, "clock segments for create-clock")
	fs.StringVar(&cfg.Character, "character", "", "character id")
	fs.StringVar(&cfg.Clock, "clock", "", "clock id")
	fs.IntVar(&cfg.Pool, "pool", 1, "dice pool for roll")
	fs.StringVar(&cfg.Position, "position", "risky", "position for roll (controlled, risky, desperate)")
	fs.StringVar(&cfg.Effect, "effect", "standard", "effect for roll (limited, standard, great)")
	fs.StringVar(&cfg.Seed, "seed", "", "seed to replay a roll (default: random)")
	fs.BoolVar(&cfg.Commit, "commit", false, "apply the roll to the character and clock")
	fs.BoolVar(&cfg.Explain, "explain", false, "print how the roll tier was reached")
	fs.StringVar(&cfg.Trauma, "trauma", "", "trauma to take if stress overflows")
	fs.IntVar(&cfg.By, "by", 1, "segments for advance, or stress for clear-stress")
	fs.IntVar(&cfg.Limit, "limit", 0, "max rolls for history (0 = default)")
	fs.BoolVar(&cfg.JSONOutput, "json", false, "output JSON")
	if len(args) > 0 && !strings.HasPrefix(args[0], "-") {
		cfg.Command = args[0]
		args = args[1:]
	}
	if err := entrypoint.ParseArgs(fs, args); err != nil {
		return Config{}, err
	}
	if cfg.Command == "" {
		cfg.Command = fs.Arg(0)
	}
	cfg.Command = strings.TrimSpace(cfg.Command)
	if cfg.Command == "" {
		return Config{}, errors.New("command is required")
	}
	return cfg, nil
}

// Run executes the configured command.
func Run(ctx context.Context, cfg Config, out io.Writer, errOut io.Writer) error {
	if out == nil {
		out = io.Discard
	}
	if errOut == nil {
		errOut = io.Discard
	}
	rs, err := rules.LoadFile(cfg.Ruleset)
	if err != nil {
		return err
	}

	if cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, cfg.Timeout)
		defer cancel()
	}

	return entrypoint.RunWithTelemetry(ctx, entrypoint.ServiceTable, func(ctx context.Context) error {
		store, err := sqlite.Open(cfg.DBPath)
		if err != nil {
			return fmt.Errorf("open store: %w", err)
		}
		defer func() {
			if closeErr := store.Close(); closeErr != nil {
				fmt.Fprintf(errOut, "Warning: close store: %v\n", closeErr)
			}
		}()

		svcCfg := tableservice.Config{Ruleset: rs}
		if cfg.Verbose {
			svcCfg.Logger = log.New(errOut, "", 0)
		}
		svc := tableservice.NewService(store, svcCfg)
		if err := dispatch(ctx, svc, cfg, out); err != nil {
			if cfg.JSONOutput {
				if writeErr := writeJSON(errOut, entrypoint.ReportError(err, cfg.Locale)); writeErr != nil {
					fmt.Fprintf(errOut, "Warning: write error report: %v\n", writeErr)
				}
			}
			return err
		}
		return nil
	})
}

func dispatch(ctx context.Context, svc *tableservice.Service, cfg Config, out io.Writer) error {
	switch cfg.Command {
	case CommandCreateCharacter:
		character, err := svc.CreateCharacter(ctx, cfg.Name)
		if err != nil {
			return err
		}
		return writeCharacters(out, cfg.JSONOutput, []storage.Character{character})
	case CommandCreateClock:
		created, err := svc.CreateClock(ctx, cfg.Name, cfg.Segments)
		if err != nil {
			return err
		}
		return writeClocks(out, cfg.JSONOutput, []storage.Clock{created})
	case CommandRoll:
		return runRoll(ctx, svc, cfg, out)
	case CommandAdvance:
		updated, _, err := svc.AdvanceClock(ctx, cfg.Clock, cfg.By)
		if err != nil {
			return err
		}
		return writeClocks(out, cfg.JSONOutput, []storage.Clock{updated})
	case CommandReset:
		updated, err := svc.ResetClock(ctx, cfg.Clock)
		if err != nil {
			return err
		}
		return writeClocks(out, cfg.JSONOutput, []storage.Clock{updated})
	case CommandClearStress:
		character, events, err := svc.ApplyDeltas(ctx, cfg.Character, []ledger.Delta{ledger.ClearStressDelta(cfg.By)})
		if err != nil {
			return err
		}
		if err := writeCharacters(out, cfg.JSONOutput, []storage.Character{character}); err != nil {
			return err
		}
		return writeEvents(out, cfg.JSONOutput, events)
	case CommandHistory:
		rolls, err := svc.History(ctx, cfg.Character, cfg.Limit)
		if err != nil {
			return err
		}
		return writeRolls(out, cfg.JSONOutput, rolls)
	case CommandList:
		characters, err := svc.ListCharacters(ctx)
		if err != nil {
			return err
		}
		clocks, err := svc.ListClocks(ctx)
		if err != nil {
			return err
		}
		if err := writeCharacters(out, cfg.JSONOutput, characters); err != nil {
			return err
		}
		return writeClocks(out, cfg.JSONOutput, clocks)
	default:
		return fmt.Errorf("unknown command %q", cfg.Command)
	}
}

func runRoll(ctx context.Context, svc *tableservice.Service, cfg Config, out io.Writer) error {
	req, err := parseRequest(cfg)
	if err != nil {
		return err
	}
	seed, err := parseSeed(cfg.Seed)
	if err != nil {
		return err
	}
	rolled, err := svc.Roll(ctx, cfg.Character, req, seed)
	if err != nil {
		return err
	}
	if err := writeResolution(out, cfg.JSONOutput, rolled); err != nil {
		return err
	}
	if cfg.Explain {
		if err := writeExplanation(out, cfg.JSONOutput, dice.ExplainOutcome(rolled.Resolution.Outcome)); err != nil {
			return err
		}
	}
	if !cfg.Commit {
		return nil
	}

	committed, err := svc.Commit(ctx, tableservice.CommitRequest{Roll: rolled, ClockID: cfg.Clock, Trauma: cfg.Trauma})
	if err != nil {
		return err
	}
	if err := writeCharacters(out, cfg.JSONOutput, []storage.Character{committed.Character}); err != nil {
		return err
	}
	if err := writeEvents(out, cfg.JSONOutput, committed.Events); err != nil {
		return err
	}
	if committed.Clock != nil {
		return writeClocks(out, cfg.JSONOutput, []storage.Clock{*committed.Clock})
	}
	return nil
}

func parseRequest(cfg Config) (action.Request, error) {
	position, err := rules.ParsePosition(cfg.Position)
	if err != nil {
		return action.Request{}, err
	}
	effect, err := rules.ParseEffect(cfg.Effect)
	if err != nil {
		return action.Request{}, err
	}
	return action.Request{Pool: cfg.Pool, Position: position, Effect: effect}, nil
}

func parseSeed(value string) (*int64, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil, nil
	}
	seed, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("parse seed %q: %w", value, err)
	}
	return &seed, nil
}

func writeJSON(out io.Writer, v any) error {
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func newTable(out io.Writer, title string) table.Writer {
	t := table.NewWriter()
	t.SetOutputMirror(out)
	t.SetStyle(table.StyleLight)
	t.SetTitle(title)
	return t
}

func writeCharacters(out io.Writer, asJSON bool, characters []storage.Character) error {
	if asJSON {
		return writeJSON(out, characters)
	}
	t := newTable(out, "characters")
	t.AppendHeader(table.Row{"ID", "Name", "Stress", "Trauma", "Harm", "Retired", "Revision"})
	for _, c := range characters {
		t.AppendRow(table.Row{
			c.ID, c.Name, fmt.Sprintf("%d/%d", c.Ledger.Stress.Filled, c.Ledger.Stress.Segments), strings.Join(c.Ledger.Trauma, ", "),
			c.Ledger.Harm.String(), c.Ledger.Retired, c.Revision,
		})
	}
	t.Render()
	return nil
}

func writeClocks(out io.Writer, asJSON bool, clocks []storage.Clock) error {
	if asJSON {
		return writeJSON(out, clocks)
	}
	t := newTable(out, "clocks")
	t.AppendHeader(table.Row{"ID", "Name", "Filled", "Segments", "State"})
	for _, c := range clocks {
		t.AppendRow(table.Row{c.ID, c.Clock.Name, c.Clock.Filled, c.Clock.Segments, c.Clock.State().String()})
	}
	t.Render()
	return nil
}

func writeResolution(out io.Writer, asJSON bool, rolled tableservice.RollResult) error {
	if asJSON {
		return writeJSON(out, rolled)
	}
	res := rolled.Resolution
	t := newTable(out, fmt.Sprintf("roll seed %d (%s)", rolled.Seed, rolled.SeedSource))
	t.AppendHeader(table.Row{"Pool", "Faces", "Tier", "Position", "Effect", "Severity", "Progress"})
	t.AppendRow(table.Row{
		res.Outcome.Pool, formatFaces(res.Outcome.Faces), res.Outcome.Tier.String(),
		res.Position.String(), res.Effect.String(), res.Consequence.Severity.String(), res.Progress,
	})
	t.Render()
	return nil
}

func writeExplanation(out io.Writer, asJSON bool, explained dice.ExplainResult) error {
	if asJSON {
		return writeJSON(out, explained)
	}
	t := newTable(out, "dice rules "+explained.RulesVersion)
	t.AppendHeader(table.Row{"Step", "Message"})
	for _, step := range explained.Steps {
		t.AppendRow(table.Row{step.Code, step.Message})
	}
	t.Render()
	return nil
}

func writeEvents(out io.Writer, asJSON bool, events []ledger.Event) error {
	if len(events) == 0 {
		return nil
	}
	if asJSON {
		return writeJSON(out, events)
	}
	t := newTable(out, "events")
	t.AppendHeader(table.Row{"Kind", "Before", "After", "Trauma", "Harm"})
	for _, e := range events {
		harm := ""
		if e.Kind == ledger.EventHarmChanged {
			harm = e.HarmBefore.String() + " -> " + e.HarmAfter.String()
		}
		t.AppendRow(table.Row{string(e.Kind), e.Before, e.After, e.Trauma, harm})
	}
	t.Render()
	return nil
}

func writeRolls(out io.Writer, asJSON bool, rolls []storage.Roll) error {
	if asJSON {
		return writeJSON(out, rolls)
	}
	t := newTable(out, "history")
	t.AppendHeader(table.Row{"ID", "Seed", "Pool", "Faces", "Tier", "Position", "Effect", "Progress", "Rules"})
	for _, r := range rolls {
		t.AppendRow(table.Row{r.ID, r.Seed, r.Pool, formatFaces(r.Faces), r.Tier, r.Position, r.Effect, r.Progress, r.RulesVersion})
	}
	t.Render()
	return nil
}

func formatFaces(faces []int) string {
	parts := make([]string, len(faces))
	for i, f := range faces {
		parts[i] = strconv.Itoa(f)
	}
	return strings.Join(parts, " ")
}

package simulate

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/jedib0t/go-pretty/v6/table"

	"github.com/louisbranch/darkforge/internal/forge/dice"
)

// Format selects how reports are written.
type Format string

const (
	FormatTable    Format = "table"
	FormatMarkdown Format = "markdown"
	FormatCSV      Format = "csv"
	FormatJSON     Format = "json"
)

// ParseFormat accepts the names of Format plus "md".
func ParseFormat(value string) (Format, error) {
	switch value {
	case "", "table":
		return FormatTable, nil
	case "md", "markdown":
		return FormatMarkdown, nil
	case "csv":
		return FormatCSV, nil
	case "json":
		return FormatJSON, nil
	default:
		return "", fmt.Errorf("unknown format %q", value)
	}
}

func percent(rate float64) string {
	return fmt.Sprintf("%.2f%%", rate*100)
}

// Render writes a simulation report.
func Render(w io.Writer, report Report, format Format) error {
	if format == FormatJSON {
		return writeJSON(w, report)
	}

	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)
	t.SetTitle(fmt.Sprintf("pool %d, %d trials, seed %d", report.Pool, report.Trials, report.Seed))
	t.AppendHeader(table.Row{"Tier", "Observed", "Observed %", "Exact %", "Deviation"})
	for _, s := range report.Stats {
		t.AppendRow(table.Row{s.Tier.String(), s.Observed, percent(s.ObservedRate), percent(s.ExpectedRate), percent(s.Deviation())})
	}
	t.AppendFooter(table.Row{"", report.Trials, "", "max", percent(report.MaxDeviation())})
	write(t, format)
	return nil
}

// RenderOdds writes exact odds for a range of pools.
func RenderOdds(w io.Writer, results []dice.ProbabilityResult, format Format) error {
	if format == FormatJSON {
		return writeJSON(w, results)
	}

	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)
	header := table.Row{"Pool", "Dice", "Outcomes"}
	for _, tier := range dice.Tiers {
		header = append(header, tier.String())
	}
	t.AppendHeader(header)
	for _, result := range results {
		row := table.Row{result.Pool, result.Dice, result.TotalOutcomes}
		for _, tier := range dice.Tiers {
			row = append(row, percent(result.Chance(tier)))
		}
		t.AppendRow(row)
	}
	write(t, format)
	return nil
}

func write(t table.Writer, format Format) {
	switch format {
	case FormatMarkdown:
		t.RenderMarkdown()
	case FormatCSV:
		t.RenderCSV()
	default:
		t.Render()
	}
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

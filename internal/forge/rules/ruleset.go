// Package rules holds the data-driven ruleset: pool limits, ledger limits,
// and the consequence table keyed by tier, position, and effect.
package rules

import (
	"cmp"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"slices"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/louisbranch/darkforge/internal/forge/dice"
	"github.com/louisbranch/darkforge/internal/forge/ledger"
	apperrors "github.com/louisbranch/darkforge/internal/platform/errors"
)

var (
	ErrInvalidPosition = apperrors.New(apperrors.CodeRulesInvalidPosition, "invalid position")
	ErrInvalidEffect   = apperrors.New(apperrors.CodeRulesInvalidEffect, "invalid effect")
	ErrInvalidTable    = apperrors.New(apperrors.CodeRulesInvalidTable, "invalid consequence table")
	ErrMissingEntry    = apperrors.New(apperrors.CodeRulesMissingEntry, "missing consequence entry")
)

const (
	DefaultName    = "standard"
	DefaultVersion = "1.0.0"
	DefaultMaxPool = 10
)

// TableSize is the number of entries a complete table has.
var TableSize = len(dice.Tiers) * len(Positions) * len(Effects)

// Consequence is what the table suggests for one roll. Harm and Stress are
// suggestions turned into ledger deltas; Progress is clock segments earned.
type Consequence struct {
	Severity Severity         `json:"severity" yaml:"severity"`
	Harm     ledger.HarmLevel `json:"harm" yaml:"harm"`
	Stress   int              `json:"stress" yaml:"stress"`
	Progress int              `json:"progress" yaml:"progress"`
}

// Entry is one row of the consequence table.
type Entry struct {
	Tier        dice.Tier `yaml:"tier"`
	Position    Position  `yaml:"position"`
	Effect      Effect    `yaml:"effect"`
	Consequence `yaml:",inline"`
}

type key struct {
	tier     dice.Tier
	position Position
	effect   Effect
}

func (e Entry) key() key {
	return key{tier: e.Tier, position: e.Position, effect: e.Effect}
}

// Ruleset is a versioned, swappable set of rules.
type Ruleset struct {
	Name    string        `yaml:"name"`
	Version string        `yaml:"version"`
	MaxPool int           `yaml:"max_pool"`
	Ledger  ledger.Config `yaml:"ledger"`
	Table   []Entry       `yaml:"table"`
}

// Lookup returns the consequence for a roll.
func (r *Ruleset) Lookup(tier dice.Tier, position Position, effect Effect) (Consequence, error) {
	if !position.Valid() {
		return Consequence{}, fmt.Errorf("%w: %d", ErrInvalidPosition, int(position))
	}
	if !effect.Valid() {
		return Consequence{}, fmt.Errorf("%w: %d", ErrInvalidEffect, int(effect))
	}
	want := key{tier: tier, position: position, effect: effect}
	for _, entry := range r.Table {
		if entry.key() == want {
			return entry.Consequence, nil
		}
	}
	return Consequence{}, apperrors.WithMetadata(apperrors.CodeRulesMissingEntry,
		fmt.Sprintf("no consequence for %s/%s/%s in %s", tier, position, effect, r.Ident()),
		map[string]string{"Tier": tier.String(), "Position": position.String(), "Effect": effect.String()})
}

// Resolver returns a dice resolver bound to the pool limit.
func (r *Ruleset) Resolver() dice.Resolver {
	return dice.Resolver{MaxPool: r.MaxPool}
}

// Ident names the ruleset and its version.
func (r *Ruleset) Ident() string {
	return r.Name + "@" + r.Version
}

// Validate checks the ruleset is complete and consistent.
func (r *Ruleset) Validate() error {
	if strings.TrimSpace(r.Version) == "" {
		return fmt.Errorf("%w: version is required", ErrInvalidTable)
	}
	if r.MaxPool < 0 {
		return fmt.Errorf("%w: max pool %d must not be negative", ErrInvalidTable, r.MaxPool)
	}
	if err := r.Ledger.Validate(); err != nil {
		return err
	}

	seen := make(map[key]struct{}, len(r.Table))
	for i, entry := range r.Table {
		switch {
		case entry.Tier < dice.TierFailure || entry.Tier > dice.TierCritical:
			return fmt.Errorf("%w: entry %d has unknown tier %d", ErrInvalidTable, i, int(entry.Tier))
		case !entry.Position.Valid():
			return fmt.Errorf("%w: entry %d: %w", ErrInvalidTable, i, ErrInvalidPosition)
		case !entry.Effect.Valid():
			return fmt.Errorf("%w: entry %d: %w", ErrInvalidTable, i, ErrInvalidEffect)
		case !entry.Severity.Valid():
			return fmt.Errorf("%w: entry %d has unknown severity %d", ErrInvalidTable, i, int(entry.Severity))
		case !entry.Harm.Valid():
			return fmt.Errorf("%w: entry %d has unknown harm %d", ErrInvalidTable, i, int(entry.Harm))
		case entry.Stress < 0 || entry.Progress < 0:
			return fmt.Errorf("%w: entry %d has negative stress or progress", ErrInvalidTable, i)
		}
		k := entry.key()
		if _, ok := seen[k]; ok {
			return fmt.Errorf("%w: duplicate entry for %s/%s/%s", ErrInvalidTable, entry.Tier, entry.Position, entry.Effect)
		}
		seen[k] = struct{}{}
	}

	for _, tier := range dice.Tiers {
		for _, position := range Positions {
			for _, effect := range Effects {
				if _, ok := seen[key{tier: tier, position: position, effect: effect}]; !ok {
					return fmt.Errorf("%w: %w for %s/%s/%s", ErrInvalidTable, ErrMissingEntry, tier, position, effect)
				}
			}
		}
	}
	return nil
}

// Hash returns a sha256 digest of the canonical YAML form.
func (r *Ruleset) Hash() (string, error) {
	canonical := *r
	canonical.Table = slices.Clone(r.Table)
	slices.SortFunc(canonical.Table, compareEntries)

	data, err := yaml.Marshal(&canonical)
	if err != nil {
		return "", fmt.Errorf("marshal ruleset: %w", err)
	}
	sum := sha256.Sum256(data)
	return "sha256:" + hex.EncodeToString(sum[:]), nil
}

// Marshal encodes the ruleset as YAML.
func (r *Ruleset) Marshal() ([]byte, error) {
	return yaml.Marshal(r)
}

func compareEntries(a, b Entry) int {
	return cmp.Or(
		cmp.Compare(a.Tier, b.Tier),
		cmp.Compare(a.Position, b.Position),
		cmp.Compare(a.Effect, b.Effect),
	)
}

type rulesetFile struct {
	Ruleset `yaml:",inline"`
	// ReplaceTable discards the default table instead of overlaying it.
	ReplaceTable bool `yaml:"replace_table"`
}

// Parse overlays a YAML ruleset onto Default and validates the result.
// Table entries replace the default entry with the same key unless
// replace_table is set, in which case the file must supply every entry.
func Parse(data []byte) (*Ruleset, error) {
	base := Default()

	file := rulesetFile{Ruleset: *base}
	file.Table = nil
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, apperrors.Wrap(apperrors.CodeRulesInvalidTable, "parse ruleset", err)
	}

	rs := file.Ruleset
	if !file.ReplaceTable {
		rs.Table = overlayTable(base.Table, file.Table)
	}
	if err := rs.Validate(); err != nil {
		return nil, err
	}
	return &rs, nil
}

// LoadFile reads and parses a ruleset file. An empty path returns Default.
func LoadFile(path string) (*Ruleset, error) {
	if strings.TrimSpace(path) == "" {
		return Default(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read ruleset: %w", err)
	}
	rs, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("ruleset %s: %w", path, err)
	}
	return rs, nil
}

func overlayTable(base, overrides []Entry) []Entry {
	table := slices.Clone(base)
	for _, override := range overrides {
		i := slices.IndexFunc(table, func(e Entry) bool { return e.key() == override.key() })
		if i < 0 {
			table = append(table, override)
			continue
		}
		table[i] = override
	}
	return table
}

package rules

import (
	"fmt"
	"strings"

	apperrors "github.com/louisbranch/darkforge/internal/platform/errors"
)

// Position frames the risk of an action. It changes consequences, never
// the dice.
type Position int

const (
	PositionControlled Position = iota
	PositionRisky
	PositionDesperate
)

// Positions lists every position from safest to most dangerous.
var Positions = []Position{PositionControlled, PositionRisky, PositionDesperate}

func (p Position) String() string {
	switch p {
	case PositionControlled:
		return "controlled"
	case PositionRisky:
		return "risky"
	case PositionDesperate:
		return "desperate"
	default:
		return fmt.Sprintf("position(%d)", int(p))
	}
}

// Valid reports whether p is a known position.
func (p Position) Valid() bool {
	return p >= PositionControlled && p <= PositionDesperate
}

// ParsePosition parses a position name.
func ParsePosition(value string) (Position, error) {
	normalized := strings.ToLower(strings.TrimSpace(value))
	for _, p := range Positions {
		if p.String() == normalized {
			return p, nil
		}
	}
	return 0, apperrors.WithMetadata(apperrors.CodeRulesInvalidPosition,
		fmt.Sprintf("unknown position %q", value),
		map[string]string{"Position": value})
}

// MarshalText encodes the position by name.
func (p Position) MarshalText() ([]byte, error) {
	if !p.Valid() {
		return nil, fmt.Errorf("%w: %d", ErrInvalidPosition, int(p))
	}
	return []byte(p.String()), nil
}

// UnmarshalText decodes a position name.
func (p *Position) UnmarshalText(text []byte) error {
	parsed, err := ParsePosition(string(text))
	if err != nil {
		return err
	}
	*p = parsed
	return nil
}

// Effect is the magnitude of an action's impact.
type Effect int

const (
	EffectLimited Effect = iota
	EffectStandard
	EffectGreat
	EffectExtreme
)

// Effects lists every effect from weakest to strongest.
var Effects = []Effect{EffectLimited, EffectStandard, EffectGreat, EffectExtreme}

func (e Effect) String() string {
	switch e {
	case EffectLimited:
		return "limited"
	case EffectStandard:
		return "standard"
	case EffectGreat:
		return "great"
	case EffectExtreme:
		return "extreme"
	default:
		return fmt.Sprintf("effect(%d)", int(e))
	}
}

// Valid reports whether e is a known effect.
func (e Effect) Valid() bool {
	return e >= EffectLimited && e <= EffectExtreme
}

// ParseEffect parses an effect name.
func ParseEffect(value string) (Effect, error) {
	normalized := strings.ToLower(strings.TrimSpace(value))
	for _, e := range Effects {
		if e.String() == normalized {
			return e, nil
		}
	}
	return 0, apperrors.WithMetadata(apperrors.CodeRulesInvalidEffect,
		fmt.Sprintf("unknown effect %q", value),
		map[string]string{"Effect": value})
}

// MarshalText encodes the effect by name.
func (e Effect) MarshalText() ([]byte, error) {
	if !e.Valid() {
		return nil, fmt.Errorf("%w: %d", ErrInvalidEffect, int(e))
	}
	return []byte(e.String()), nil
}

// UnmarshalText decodes an effect name.
func (e *Effect) UnmarshalText(text []byte) error {
	parsed, err := ParseEffect(string(text))
	if err != nil {
		return err
	}
	*e = parsed
	return nil
}

// Severity is how hard a consequence lands.
type Severity int

const (
	SeverityNone Severity = iota
	SeverityReduced
	SeverityStandard
	SeveritySevere
)

var severities = []Severity{SeverityNone, SeverityReduced, SeverityStandard, SeveritySevere}

func (s Severity) String() string {
	switch s {
	case SeverityNone:
		return "none"
	case SeverityReduced:
		return "reduced"
	case SeverityStandard:
		return "standard"
	case SeveritySevere:
		return "severe"
	default:
		return fmt.Sprintf("severity(%d)", int(s))
	}
}

// Valid reports whether s is a known severity.
func (s Severity) Valid() bool {
	return s >= SeverityNone && s <= SeveritySevere
}

// ParseSeverity parses a severity name.
func ParseSeverity(value string) (Severity, error) {
	normalized := strings.ToLower(strings.TrimSpace(value))
	for _, s := range severities {
		if s.String() == normalized {
			return s, nil
		}
	}
	return 0, fmt.Errorf("%w: unknown severity %q", ErrInvalidTable, value)
}

// MarshalText encodes the severity by name.
func (s Severity) MarshalText() ([]byte, error) {
	if !s.Valid() {
		return nil, fmt.Errorf("%w: severity %d", ErrInvalidTable, int(s))
	}
	return []byte(s.String()), nil
}

// UnmarshalText decodes a severity name.
func (s *Severity) UnmarshalText(text []byte) error {
	parsed, err := ParseSeverity(string(text))
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}

package ledger

import (
	"fmt"
	"strings"
)

// HarmLevel is a character's current harm, ordered from none to fatal.
type HarmLevel int

const (
	HarmNone HarmLevel = iota
	HarmLesser
	HarmModerate
	HarmSevere
	HarmFatal
)

// HarmLevels lists every level in order.
var HarmLevels = []HarmLevel{HarmNone, HarmLesser, HarmModerate, HarmSevere, HarmFatal}

func (h HarmLevel) String() string {
	switch h {
	case HarmNone:
		return "none"
	case HarmLesser:
		return "lesser"
	case HarmModerate:
		return "moderate"
	case HarmSevere:
		return "severe"
	case HarmFatal:
		return "fatal"
	default:
		return fmt.Sprintf("harm(%d)", int(h))
	}
}

// Valid reports whether h is a known level.
func (h HarmLevel) Valid() bool {
	return h >= HarmNone && h <= HarmFatal
}

// Next returns the level one step worse, capped at fatal.
func (h HarmLevel) Next() HarmLevel {
	if h >= HarmFatal {
		return HarmFatal
	}
	return h + 1
}

// ParseHarmLevel parses a level name.
func ParseHarmLevel(value string) (HarmLevel, error) {
	normalized := strings.ToLower(strings.TrimSpace(value))
	for _, level := range HarmLevels {
		if level.String() == normalized {
			return level, nil
		}
	}
	return 0, fmt.Errorf("%w: unknown harm level %q", ErrInvalidDelta, value)
}

// MarshalText encodes the level by name.
func (h HarmLevel) MarshalText() ([]byte, error) {
	if !h.Valid() {
		return nil, fmt.Errorf("%w: harm level %d", ErrInvalidDelta, int(h))
	}
	return []byte(h.String()), nil
}

// UnmarshalText decodes a level name.
func (h *HarmLevel) UnmarshalText(text []byte) error {
	level, err := ParseHarmLevel(string(text))
	if err != nil {
		return err
	}
	*h = level
	return nil
}

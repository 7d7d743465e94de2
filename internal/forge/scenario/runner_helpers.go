package scenario

import (
	"fmt"
	"strings"

	"github.com/louisbranch/darkforge/internal/forge/clock"
)

func (r *Runner) failf(format string, args ...any) error {
	return r.assertions.Failf(format, args...)
}

func (r *Runner) assertf(format string, args ...any) error {
	return r.assertions.Assertf(format, args...)
}

// actorName resolves the actor argument, defaulting to the last character
// a step touched.
func (r *Runner) actorName(state *scenarioState, args map[string]any) (string, error) {
	name := optionalString(args, "actor", state.lastActor)
	if name == "" {
		return "", r.failf("actor is required")
	}
	if _, ok := state.ledgers[name]; !ok {
		return "", r.failf("unknown character %q", name)
	}
	return name, nil
}

func (r *Runner) clockNamed(state *scenarioState, args map[string]any) (clock.Clock, error) {
	name := requiredString(args, "name")
	if name == "" {
		return clock.Clock{}, r.failf("clock name is required")
	}
	c, ok := state.clocks[name]
	if !ok {
		return clock.Clock{}, r.failf("unknown clock %q", name)
	}
	return c, nil
}

func hasAny(args map[string]any, keys ...string) bool {
	for _, key := range keys {
		if _, ok := args[key]; ok {
			return true
		}
	}
	return false
}

func requiredString(args map[string]any, key string) string {
	value, ok := args[key]
	if !ok {
		return ""
	}
	text, ok := value.(string)
	if ok && text != "" {
		return text
	}
	return ""
}

func readInt(args map[string]any, key string) (int, bool) {
	value, ok := args[key]
	if !ok {
		return 0, false
	}
	switch typed := value.(type) {
	case int:
		return typed, true
	case float64:
		return int(typed), true
	default:
		return 0, false
	}
}

func optionalString(args map[string]any, key, fallback string) string {
	value, ok := args[key]
	if !ok {
		return fallback
	}
	text, ok := value.(string)
	if ok && text != "" {
		return text
	}
	return fallback
}

func optionalInt(args map[string]any, key string, fallback int) int {
	if value, ok := readInt(args, key); ok {
		return value
	}
	return fallback
}

func optionalBool(args map[string]any, key string, fallback bool) bool {
	if value, ok := readBool(args, key); ok {
		return value
	}
	return fallback
}

func readBool(args map[string]any, key string) (bool, bool) {
	value, ok := args[key]
	if !ok {
		return false, false
	}
	switch typed := value.(type) {
	case bool:
		return typed, true
	case string:
		switch strings.ToLower(strings.TrimSpace(typed)) {
		case "true", "yes", "1":
			return true, true
		case "false", "no", "0":
			return false, true
		}
	}
	return false, false
}

func readIntList(args map[string]any, key string) ([]int, error) {
	list, ok := args[key].([]any)
	if !ok {
		return nil, fmt.Errorf("%s must be a list", key)
	}
	values := make([]int, 0, len(list))
	for i, item := range list {
		switch typed := item.(type) {
		case int:
			values = append(values, typed)
		default:
			return nil, fmt.Errorf("%s[%d] must be an integer, got %v", key, i+1, item)
		}
	}
	return values, nil
}

// readStringList accepts a list of strings or a single string.
func readStringList(args map[string]any, key string) []string {
	switch typed := args[key].(type) {
	case string:
		return []string{typed}
	case []any:
		values := make([]string, 0, len(typed))
		for _, item := range typed {
			if text, ok := item.(string); ok {
				values = append(values, text)
			}
		}
		return values
	default:
		return nil
	}
}

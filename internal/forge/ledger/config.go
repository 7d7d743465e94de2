package ledger

import (
	"fmt"
	"strings"
)

// TraumaPolicy decides which trauma a stress overflow assigns when the
// caller did not name one.
type TraumaPolicy int

const (
	// PolicyCallerChosen requires the caller to name the trauma.
	PolicyCallerChosen TraumaPolicy = iota
	// PolicyFirstAvailable assigns the first option not already held.
	PolicyFirstAvailable
)

func (p TraumaPolicy) String() string {
	switch p {
	case PolicyCallerChosen:
		return "caller_chosen"
	case PolicyFirstAvailable:
		return "first_available"
	default:
		return "unknown"
	}
}

// ParseTraumaPolicy parses a policy name.
func ParseTraumaPolicy(value string) (TraumaPolicy, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "caller_chosen", "":
		return PolicyCallerChosen, nil
	case "first_available":
		return PolicyFirstAvailable, nil
	default:
		return 0, fmt.Errorf("%w: unknown trauma policy %q", ErrInvalidConfig, value)
	}
}

// MarshalText encodes the policy by name.
func (p TraumaPolicy) MarshalText() ([]byte, error) {
	return []byte(p.String()), nil
}

// UnmarshalText decodes a policy name.
func (p *TraumaPolicy) UnmarshalText(text []byte) error {
	policy, err := ParseTraumaPolicy(string(text))
	if err != nil {
		return err
	}
	*p = policy
	return nil
}

// DefaultTraumaOptions are the trauma conditions of the Blades in the Dark
// SRD, in book order.
var DefaultTraumaOptions = []string{
	"cold", "haunted", "obsessed", "paranoid",
	"reckless", "soft", "unstable", "vicious",
}

const (
	DefaultStressMax = 9
	DefaultTraumaMax = 4
)

// Config holds the ruleset knobs the ledger enforces.
type Config struct {
	StressMax     int          `json:"stress_max" yaml:"stress_max"`
	TraumaMax     int          `json:"trauma_max" yaml:"trauma_max"`
	TraumaOptions []string     `json:"trauma_options" yaml:"trauma_options"`
	Policy        TraumaPolicy `json:"trauma_policy" yaml:"trauma_policy"`
}

// DefaultConfig returns the standard ledger limits.
func DefaultConfig() Config {
	return Config{
		StressMax:     DefaultStressMax,
		TraumaMax:     DefaultTraumaMax,
		TraumaOptions: append([]string(nil), DefaultTraumaOptions...),
		Policy:        PolicyCallerChosen,
	}
}

// Validate checks the config is usable.
func (c Config) Validate() error {
	if c.StressMax <= 0 {
		return fmt.Errorf("%w: stress max %d must be positive", ErrInvalidConfig, c.StressMax)
	}
	if c.TraumaMax <= 0 {
		return fmt.Errorf("%w: trauma max %d must be positive", ErrInvalidConfig, c.TraumaMax)
	}
	if len(c.TraumaOptions) < c.TraumaMax {
		return fmt.Errorf("%w: %d trauma options cannot reach trauma max %d", ErrInvalidConfig, len(c.TraumaOptions), c.TraumaMax)
	}
	seen := make(map[string]struct{}, len(c.TraumaOptions))
	for _, option := range c.TraumaOptions {
		if strings.TrimSpace(option) == "" {
			return fmt.Errorf("%w: empty trauma option", ErrInvalidConfig)
		}
		if _, ok := seen[option]; ok {
			return fmt.Errorf("%w: duplicate trauma option %q", ErrInvalidConfig, option)
		}
		seen[option] = struct{}{}
	}
	if c.Policy != PolicyCallerChosen && c.Policy != PolicyFirstAvailable {
		return fmt.Errorf("%w: unknown trauma policy %d", ErrInvalidConfig, int(c.Policy))
	}
	return nil
}

func (c Config) hasOption(name string) bool {
	for _, option := range c.TraumaOptions {
		if option == name {
			return true
		}
	}
	return false
}

package ledger

import "fmt"

// DeltaKind names a ledger mutation.
type DeltaKind int

const (
	// DeltaStress adds Amount stress. Overflow assigns a trauma, either
	// Trauma or one picked by the policy.
	DeltaStress DeltaKind = iota
	// DeltaClearStress removes Amount stress, or all of it when Amount is 0.
	DeltaClearStress
	// DeltaTrauma assigns a trauma directly.
	DeltaTrauma
	// DeltaHarm moves harm to Harm. Moves of more than one level need
	// Justified.
	DeltaHarm
)

func (k DeltaKind) String() string {
	switch k {
	case DeltaStress:
		return "stress"
	case DeltaClearStress:
		return "clear_stress"
	case DeltaTrauma:
		return "trauma"
	case DeltaHarm:
		return "harm"
	default:
		return "unknown"
	}
}

// ParseDeltaKind parses a kind name.
func ParseDeltaKind(value string) (DeltaKind, error) {
	for _, kind := range []DeltaKind{DeltaStress, DeltaClearStress, DeltaTrauma, DeltaHarm} {
		if kind.String() == value {
			return kind, nil
		}
	}
	return 0, fmt.Errorf("%w: unknown delta kind %q", ErrInvalidDelta, value)
}

// MarshalText encodes the kind by name.
func (k DeltaKind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// UnmarshalText decodes a kind name.
func (k *DeltaKind) UnmarshalText(text []byte) error {
	kind, err := ParseDeltaKind(string(text))
	if err != nil {
		return err
	}
	*k = kind
	return nil
}

// Delta is one requested ledger mutation.
type Delta struct {
	Kind      DeltaKind `json:"kind"`
	Amount    int       `json:"amount,omitempty"`
	Trauma    string    `json:"trauma,omitempty"`
	Harm      HarmLevel `json:"harm,omitempty"`
	Justified bool      `json:"justified,omitempty"`
}

// StressDelta adds stress.
func StressDelta(amount int) Delta {
	return Delta{Kind: DeltaStress, Amount: amount}
}

// ClearStressDelta removes stress; 0 clears the track.
func ClearStressDelta(amount int) Delta {
	return Delta{Kind: DeltaClearStress, Amount: amount}
}

// TraumaDelta assigns a named trauma.
func TraumaDelta(trauma string) Delta {
	return Delta{Kind: DeltaTrauma, Trauma: trauma}
}

// HarmDelta moves harm to level.
func HarmDelta(level HarmLevel, justified bool) Delta {
	return Delta{Kind: DeltaHarm, Harm: level, Justified: justified}
}

// EventKind names something Apply did.
type EventKind string

const (
	EventStressAdded    EventKind = "stress_added"
	EventStressOverflow EventKind = "stress_overflow"
	EventStressCleared  EventKind = "stress_cleared"
	EventTraumaAdded    EventKind = "trauma_added"
	EventRetired        EventKind = "retired"
	EventHarmChanged    EventKind = "harm_changed"
)

// Event records one applied transition. Before and After carry the stress
// fill for stress events and the trauma count for trauma events.
type Event struct {
	Kind       EventKind `json:"kind"`
	Before     int       `json:"before,omitempty"`
	After      int       `json:"after,omitempty"`
	Trauma     string    `json:"trauma,omitempty"`
	HarmBefore HarmLevel `json:"harm_before,omitempty"`
	HarmAfter  HarmLevel `json:"harm_after,omitempty"`
}

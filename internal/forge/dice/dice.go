// Package dice resolves Forged in the Dark action rolls.
package dice

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/louisbranch/darkforge/internal/forge/entropy"
	apperrors "github.com/louisbranch/darkforge/internal/platform/errors"
)

// Tier ranks the result of a roll. Higher is better.
type Tier int

const (
	TierFailure Tier = iota
	TierPartialSuccess
	TierSuccess
	TierCritical
)

// Tiers lists every tier from worst to best.
var Tiers = []Tier{TierFailure, TierPartialSuccess, TierSuccess, TierCritical}

func (t Tier) String() string {
	switch t {
	case TierFailure:
		return "failure"
	case TierPartialSuccess:
		return "partial_success"
	case TierSuccess:
		return "success"
	case TierCritical:
		return "critical"
	default:
		return "unknown"
	}
}

// ParseTier parses the String form of a tier, case-insensitively.
func ParseTier(value string) (Tier, error) {
	normalized := strings.ToLower(strings.TrimSpace(value))
	for _, tier := range Tiers {
		if tier.String() == normalized {
			return tier, nil
		}
	}
	return 0, fmt.Errorf("unknown tier %q", value)
}

// MarshalText encodes the tier by name.
func (t Tier) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}

// UnmarshalText decodes a tier name.
func (t *Tier) UnmarshalText(text []byte) error {
	parsed, err := ParseTier(string(text))
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}

var (
	// ErrInvalidPoolSize indicates a pool above the ruleset maximum, or a
	// classification request with no faces.
	ErrInvalidPoolSize = apperrors.New(apperrors.CodeDiceInvalidPoolSize, "invalid dice pool size")
	// ErrInvalidFace indicates a face outside 1..6 was classified.
	ErrInvalidFace = apperrors.New(apperrors.CodeDiceInvalidFace, "face must be between 1 and 6")
)

// zeroDicePool is how many dice a zero or negative pool rolls.
const zeroDicePool = 2

// Outcome is the immutable result of one resolution.
type Outcome struct {
	// Pool is the requested pool size, possibly zero or negative.
	Pool int
	// Faces records every die rolled, in draw order.
	Faces []int
	// Kept is the face the tier is read from: the highest for a positive
	// pool, the lowest for a zero pool.
	Kept int
	// CriticalCount counts sixes among the rolled dice. Always zero for a
	// zero pool.
	CriticalCount int
	// ZeroDice is set when the pool resolved under the zero-dice rule.
	ZeroDice bool
	Tier     Tier
}

// Resolver rolls dice pools under ruleset limits.
type Resolver struct {
	// MaxPool caps the pool size when positive.
	MaxPool int
}

// Resolve rolls a pool of the given size using src.
//
// A pool of one or more dice keeps the highest face; two or more sixes is a
// critical. Zero and negative pools roll two dice and keep the lowest, and
// can never critical. Exactly max(pool, 2 when pool<=0) faces are drawn.
func Resolve(pool int, src entropy.Source) (Outcome, error) {
	return Resolver{}.Resolve(pool, src)
}

// Resolve rolls a pool of the given size using src.
func (r Resolver) Resolve(pool int, src entropy.Source) (Outcome, error) {
	if r.MaxPool > 0 && pool > r.MaxPool {
		return Outcome{}, apperrors.WithMetadata(
			apperrors.CodeDiceInvalidPoolSize,
			fmt.Sprintf("dice pool %d exceeds maximum %d", pool, r.MaxPool),
			map[string]string{"Pool": strconv.Itoa(pool), "Max": strconv.Itoa(r.MaxPool)},
		)
	}

	zeroDice := pool <= 0
	count := pool
	if zeroDice {
		count = zeroDicePool
	}

	faces, err := entropy.Draw(src, count)
	if err != nil {
		return Outcome{}, fmt.Errorf("roll pool of %d: %w", pool, err)
	}

	outcome, err := Classify(faces, zeroDice)
	if err != nil {
		return Outcome{}, err
	}
	outcome.Pool = pool
	return outcome, nil
}

// Classify derives an Outcome from already rolled faces. It only depends on
// face values, so which of several equal dice is kept does not matter.
func Classify(faces []int, zeroDice bool) (Outcome, error) {
	if len(faces) == 0 {
		return Outcome{}, fmt.Errorf("%w: no faces to classify", ErrInvalidPoolSize)
	}

	kept := faces[0]
	sixes := 0
	for _, face := range faces {
		if face < 1 || face > entropy.Sides {
			return Outcome{}, apperrors.WithMetadata(
				apperrors.CodeDiceInvalidFace,
				fmt.Sprintf("face %d must be between 1 and 6", face),
				map[string]string{"Face": strconv.Itoa(face)},
			)
		}
		if face == entropy.Sides {
			sixes++
		}
		if zeroDice && face < kept || !zeroDice && face > kept {
			kept = face
		}
	}

	criticalCount := sixes
	if zeroDice {
		criticalCount = 0
	}

	pool := len(faces)
	if zeroDice {
		pool = 0
	}

	return Outcome{
		Pool:          pool,
		Faces:         append([]int(nil), faces...),
		Kept:          kept,
		CriticalCount: criticalCount,
		ZeroDice:      zeroDice,
		Tier:          classifyKept(kept, criticalCount),
	}, nil
}

func classifyKept(kept, criticalCount int) Tier {
	switch {
	case kept == 6 && criticalCount >= 2:
		return TierCritical
	case kept == 6:
		return TierSuccess
	case kept >= 4:
		return TierPartialSuccess
	default:
		return TierFailure
	}
}

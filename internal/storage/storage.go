package storage

import (
	"context"
	"errors"
	"time"

	"github.com/louisbranch/darkforge/internal/forge/clock"
	"github.com/louisbranch/darkforge/internal/forge/ledger"
	apperrors "github.com/louisbranch/darkforge/internal/platform/errors"
)

var (
	// ErrNotFound indicates a requested record is missing.
	ErrNotFound = apperrors.New(apperrors.CodeNotFound, "record not found")
	// ErrAlreadyExists indicates a record with the same id exists.
	ErrAlreadyExists = errors.New("record already exists")
	// ErrConflict indicates a write based on a stale revision.
	ErrConflict = errors.New("record revision conflict")
)

// Character is a named ledger.
type Character struct {
	ID        string
	Name      string
	Ledger    ledger.Ledger
	Revision  int64
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Clock is a stored progress clock.
type Clock struct {
	ID        string
	Clock     clock.Clock
	Revision  int64
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Roll is one committed action roll.
type Roll struct {
	ID           string
	CharacterID  string
	ClockID      string
	Seed         int64
	Pool         int
	Position     string
	Effect       string
	Faces        []int
	Tier         string
	Progress     int
	Deltas       []ledger.Delta
	Events       []ledger.Event
	RulesVersion string
	CreatedAt    time.Time
}

// Commit is a set of writes applied in one transaction. Character and Clock
// carry the revision they were read at; Roll is appended when set.
type Commit struct {
	Character *Character
	Clock     *Clock
	Roll      *Roll
}

// CommitResult holds the records as stored.
type CommitResult struct {
	Character *Character
	Clock     *Clock
}

// CharacterStore persists characters.
type CharacterStore interface {
	CreateCharacter(ctx context.Context, character Character) error
	GetCharacter(ctx context.Context, id string) (Character, error)
	ListCharacters(ctx context.Context) ([]Character, error)
}

// ClockStore persists clocks.
type ClockStore interface {
	CreateClock(ctx context.Context, clock Clock) error
	GetClock(ctx context.Context, id string) (Clock, error)
	ListClocks(ctx context.Context) ([]Clock, error)
}

// RollStore reads the roll history.
type RollStore interface {
	// ListRolls returns the most recent rolls of a character, newest first.
	ListRolls(ctx context.Context, characterID string, limit int) ([]Roll, error)
}

// Committer applies a Commit atomically.
type Committer interface {
	Commit(ctx context.Context, commit Commit) (CommitResult, error)
}

// Store is every contract a host needs.
type Store interface {
	CharacterStore
	ClockStore
	RollStore
	Committer
	Close() error
}

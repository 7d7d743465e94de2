package sqlite

import (
	"context"
	"errors"
	"path/filepath"
	"reflect"
	"testing"
	"time"

	"github.com/louisbranch/darkforge/internal/forge/clock"
	"github.com/louisbranch/darkforge/internal/forge/ledger"
	"github.com/louisbranch/darkforge/internal/storage"
)

func TestOpenRequiresPath(t *testing.T) {
	t.Parallel()

	if _, err := Open(""); err == nil {
		t.Fatal("expected empty path error")
	}
}

func TestOpenIsIdempotent(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "forge.db")
	first, err := Open(path)
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	if err := first.Close(); err != nil {
		t.Fatalf("close store: %v", err)
	}
	second, err := Open(path)
	if err != nil {
		t.Fatalf("reopen store: %v", err)
	}
	_ = second.Close()
}

func TestCharacterRoundTrip(t *testing.T) {
	t.Parallel()

	store := openTempStore(t)
	now := time.Date(2026, time.March, 3, 20, 0, 0, 0, time.UTC)
	store.now = func() time.Time { return now }

	l := ledger.New(ledger.DefaultConfig())
	l.Stress.Filled = 4
	l.Trauma = []string{"cold"}
	l.Harm = ledger.HarmModerate
	input := storage.Character{ID: "char-1", Name: " Silver ", Ledger: l}
	if err := store.CreateCharacter(context.Background(), input); err != nil {
		t.Fatalf("create character: %v", err)
	}

	got, err := store.GetCharacter(context.Background(), "char-1")
	if err != nil {
		t.Fatalf("get character: %v", err)
	}
	if got.Name != "Silver" {
		t.Fatalf("name = %q, want Silver", got.Name)
	}
	if !reflect.DeepEqual(got.Ledger, l) {
		t.Fatalf("ledger = %+v, want %+v", got.Ledger, l)
	}
	if got.Revision != 1 {
		t.Fatalf("revision = %d, want 1", got.Revision)
	}
	if !got.CreatedAt.Equal(now) || !got.UpdatedAt.Equal(now) {
		t.Fatalf("timestamps = %v %v", got.CreatedAt, got.UpdatedAt)
	}

	if err := store.CreateCharacter(context.Background(), input); !errors.Is(err, storage.ErrAlreadyExists) {
		t.Fatalf("duplicate create error = %v, want %v", err, storage.ErrAlreadyExists)
	}
}

func TestGetMissingRecords(t *testing.T) {
	t.Parallel()

	store := openTempStore(t)
	if _, err := store.GetCharacter(context.Background(), "nope"); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("get character error = %v, want %v", err, storage.ErrNotFound)
	}
	if _, err := store.GetClock(context.Background(), "nope"); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("get clock error = %v, want %v", err, storage.ErrNotFound)
	}
}

func TestClockRoundTripAndList(t *testing.T) {
	t.Parallel()

	store := openTempStore(t)
	for _, c := range []storage.Clock{
		{ID: "clk-b", Clock: clock.Clock{Name: "Lockdown", Segments: 6, Filled: 2}},
		{ID: "clk-a", Clock: clock.Clock{Name: "Escape", Segments: 4}},
	} {
		if err := store.CreateClock(context.Background(), c); err != nil {
			t.Fatalf("create clock %s: %v", c.ID, err)
		}
	}

	got, err := store.GetClock(context.Background(), "clk-b")
	if err != nil {
		t.Fatalf("get clock: %v", err)
	}
	if got.Clock != (clock.Clock{Name: "Lockdown", Segments: 6, Filled: 2}) || got.Revision != 1 {
		t.Fatalf("clock = %+v", got)
	}

	clocks, err := store.ListClocks(context.Background())
	if err != nil {
		t.Fatalf("list clocks: %v", err)
	}
	if len(clocks) != 2 || clocks[0].ID != "clk-a" {
		t.Fatalf("clocks = %+v", clocks)
	}

	bad := storage.Clock{ID: "clk-bad", Clock: clock.Clock{Name: "Bad", Segments: 2, Filled: 3}}
	if err := store.CreateClock(context.Background(), bad); !errors.Is(err, clock.ErrInvalidState) {
		t.Fatalf("invalid clock error = %v, want %v", err, clock.ErrInvalidState)
	}
}

func TestCommitWritesAtomically(t *testing.T) {
	t.Parallel()

	store := openTempStore(t)
	ctx := context.Background()
	seedCharacter(t, store, "char-1")
	if err := store.CreateClock(ctx, storage.Clock{ID: "clk-1", Clock: clock.Clock{Name: "Heist", Segments: 4}}); err != nil {
		t.Fatalf("create clock: %v", err)
	}

	character, _ := store.GetCharacter(ctx, "char-1")
	clk, _ := store.GetClock(ctx, "clk-1")
	character.Ledger.Stress.Filled = 2
	clk.Clock.Filled = 3

	result, err := store.Commit(ctx, storage.Commit{
		Character: &character,
		Clock:     &clk,
		Roll: &storage.Roll{
			ID:           "roll-1",
			CharacterID:  "char-1",
			ClockID:      "clk-1",
			Seed:         99,
			Pool:         2,
			Position:     "risky",
			Effect:       "standard",
			Faces:        []int{5, 3},
			Tier:         "partial_success",
			Progress:     2,
			Deltas:       []ledger.Delta{ledger.StressDelta(2)},
			Events:       []ledger.Event{{Kind: ledger.EventStressAdded, Before: 0, After: 2}},
			RulesVersion: "standard@1.0.0",
		},
	})
	if err != nil {
		t.Fatalf("commit: %v", err)
	}
	if result.Character.Revision != 2 || result.Clock.Revision != 2 {
		t.Fatalf("revisions = %d %d, want 2 2", result.Character.Revision, result.Clock.Revision)
	}

	stored, _ := store.GetCharacter(ctx, "char-1")
	if stored.Ledger.Stress.Filled != 2 || stored.Revision != 2 {
		t.Fatalf("stored character = %+v", stored)
	}

	rolls, err := store.ListRolls(ctx, "char-1", 10)
	if err != nil {
		t.Fatalf("list rolls: %v", err)
	}
	if len(rolls) != 1 {
		t.Fatalf("rolls = %d, want 1", len(rolls))
	}
	roll := rolls[0]
	if !reflect.DeepEqual(roll.Faces, []int{5, 3}) || roll.Deltas[0] != ledger.StressDelta(2) || roll.Events[0].After != 2 {
		t.Fatalf("roll = %+v", roll)
	}

	// The stale clock revision rolls back the character update too.
	stale := clk
	stored.Ledger.Stress.Filled = 5
	_, err = store.Commit(ctx, storage.Commit{Character: &stored, Clock: &stale})
	if !errors.Is(err, storage.ErrConflict) {
		t.Fatalf("stale commit error = %v, want %v", err, storage.ErrConflict)
	}
	after, _ := store.GetCharacter(ctx, "char-1")
	if after.Ledger.Stress.Filled != 2 || after.Revision != 2 {
		t.Fatalf("character changed by failed commit: %+v", after)
	}
}

func TestCommitMissingCharacter(t *testing.T) {
	t.Parallel()

	store := openTempStore(t)
	ghost := storage.Character{ID: "ghost", Revision: 1}
	if _, err := store.Commit(context.Background(), storage.Commit{Character: &ghost}); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("error = %v, want %v", err, storage.ErrNotFound)
	}
}

func TestListRollsNewestFirst(t *testing.T) {
	t.Parallel()

	store := openTempStore(t)
	ctx := context.Background()
	seedCharacter(t, store, "char-1")

	base := time.Date(2026, time.March, 3, 20, 0, 0, 0, time.UTC)
	for i, id := range []string{"roll-a", "roll-b", "roll-c"} {
		roll := storage.Roll{ID: id, CharacterID: "char-1", Tier: "failure", CreatedAt: base.Add(time.Duration(i) * time.Minute)}
		if _, err := store.Commit(ctx, storage.Commit{Roll: &roll}); err != nil {
			t.Fatalf("commit %s: %v", id, err)
		}
	}

	rolls, err := store.ListRolls(ctx, "char-1", 2)
	if err != nil {
		t.Fatalf("list rolls: %v", err)
	}
	if len(rolls) != 2 || rolls[0].ID != "roll-c" || rolls[1].ID != "roll-b" {
		t.Fatalf("rolls = %+v", rolls)
	}
	if rolls[0].Faces == nil || len(rolls[0].Deltas) != 0 {
		t.Fatalf("empty slices not round-tripped: %+v", rolls[0])
	}
}

func TestListCharacters(t *testing.T) {
	t.Parallel()

	store := openTempStore(t)
	for _, id := range []string{"b", "a"} {
		if err := store.CreateCharacter(context.Background(), storage.Character{ID: id, Name: "N" + id}); err != nil {
			t.Fatalf("create %s: %v", id, err)
		}
	}
	characters, err := store.ListCharacters(context.Background())
	if err != nil {
		t.Fatalf("list characters: %v", err)
	}
	if len(characters) != 2 || characters[0].ID != "a" {
		t.Fatalf("characters = %+v", characters)
	}
}

func TestCanceledContext(t *testing.T) {
	t.Parallel()

	store := openTempStore(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := store.GetCharacter(ctx, "x"); !errors.Is(err, context.Canceled) {
		t.Fatalf("error = %v, want %v", err, context.Canceled)
	}
}

func seedCharacter(t *testing.T, store *Store, id string) {
	t.Helper()
	if err := store.CreateCharacter(context.Background(), storage.Character{ID: id, Name: id, Ledger: ledger.New(ledger.DefaultConfig())}); err != nil {
		t.Fatalf("create character: %v", err)
	}
}

func openTempStore(t *testing.T) *Store {
	t.Helper()

	store, err := Open(filepath.Join(t.TempDir(), "forge.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() {
		if err := store.Close(); err != nil {
			t.Fatalf("close store: %v", err)
		}
	})
	return store
}

// Package table is the host side of the rules core: it loads records from
// storage, runs the pure core operations on them, and persists the results
// in one transaction.
package table

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	otelcodes "go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/louisbranch/darkforge/internal/forge/action"
	"github.com/louisbranch/darkforge/internal/forge/clock"
	"github.com/louisbranch/darkforge/internal/forge/entropy"
	"github.com/louisbranch/darkforge/internal/forge/ledger"
	"github.com/louisbranch/darkforge/internal/forge/rules"
	"github.com/louisbranch/darkforge/internal/platform/id"
	"github.com/louisbranch/darkforge/internal/random"
	"github.com/louisbranch/darkforge/internal/storage"
)

const tracerName = "github.com/louisbranch/darkforge/internal/services/table"

const defaultHistoryLimit = 20

var (
	// ErrStaleRoll indicates the character changed after the roll was made.
	ErrStaleRoll = fmt.Errorf("%w: character changed since the roll", storage.ErrConflict)
	// ErrRulesMismatch indicates a roll made under a different ruleset.
	ErrRulesMismatch = errors.New("roll was resolved under a different ruleset")
)

// Config holds optional collaborators. Zero values fall back to defaults.
type Config struct {
	Ruleset *rules.Ruleset
	Logger  *log.Logger
}

// Service runs table operations against a store.
type Service struct {
	store   storage.Store
	ruleset *rules.Ruleset
	logger  *log.Logger
	tracer  trace.Tracer
	clock   func() time.Time
	newID   func() (string, error)
	newSeed func() (int64, error)
}

// NewService creates a table service backed by store.
func NewService(store storage.Store, cfg Config) *Service {
	rs := cfg.Ruleset
	if rs == nil {
		rs = rules.Default()
	}
	return &Service{
		store:   store,
		ruleset: rs,
		logger:  cfg.Logger,
		tracer:  otel.Tracer(tracerName),
		clock:   time.Now,
		newID:   id.NewID,
		newSeed: random.NewSeed,
	}
}

// Ruleset returns the ruleset the service resolves rolls with.
func (s *Service) Ruleset() *rules.Ruleset {
	return s.ruleset
}

// CreateCharacter stores a character with an empty ledger.
func (s *Service) CreateCharacter(ctx context.Context, name string) (storage.Character, error) {
	ctx, span := s.tracer.Start(ctx, "table.CreateCharacter")
	defer span.End()

	name = strings.TrimSpace(name)
	if name == "" {
		return storage.Character{}, fail(span, errors.New("character name is required"))
	}
	characterID, err := s.newID()
	if err != nil {
		return storage.Character{}, fail(span, fmt.Errorf("generate character id: %w", err))
	}
	span.SetAttributes(attribute.String("character.id", characterID))

	record := storage.Character{ID: characterID, Name: name, Ledger: ledger.New(s.ruleset.Ledger)}
	if err := s.store.CreateCharacter(ctx, record); err != nil {
		return storage.Character{}, fail(span, fmt.Errorf("create character: %w", err))
	}
	created, err := s.store.GetCharacter(ctx, characterID)
	if err != nil {
		return storage.Character{}, fail(span, err)
	}
	s.logf("character %s created: %s", created.ID, created.Name)
	return created, nil
}

// GetCharacter returns one character.
func (s *Service) GetCharacter(ctx context.Context, characterID string) (storage.Character, error) {
	ctx, span := s.tracer.Start(ctx, "table.GetCharacter",
		trace.WithAttributes(attribute.String("character.id", characterID)))
	defer span.End()

	character, err := s.store.GetCharacter(ctx, strings.TrimSpace(characterID))
	if err != nil {
		return storage.Character{}, fail(span, err)
	}
	return character, nil
}

// ListCharacters returns every character.
func (s *Service) ListCharacters(ctx context.Context) ([]storage.Character, error) {
	ctx, span := s.tracer.Start(ctx, "table.ListCharacters")
	defer span.End()

	characters, err := s.store.ListCharacters(ctx)
	if err != nil {
		return nil, fail(span, err)
	}
	return characters, nil
}

// RollResult is a resolved but uncommitted action roll.
type RollResult struct {
	CharacterID string
	// Revision is the character revision the roll was resolved against.
	Revision   int64
	Seed       int64
	SeedSource random.SeedSource
	Resolution action.Resolution
}

// Roll resolves an action for a character without changing anything. A nil
// seed draws a fresh one; passing a previous roll's seed replays it.
func (s *Service) Roll(ctx context.Context, characterID string, req action.Request, seed *int64) (RollResult, error) {
	ctx, span := s.tracer.Start(ctx, "table.Roll",
		trace.WithAttributes(
			attribute.String("character.id", characterID),
			attribute.Int("roll.pool", req.Pool),
			attribute.String("roll.position", req.Position.String()),
			attribute.String("roll.effect", req.Effect.String()),
		))
	defer span.End()

	character, err := s.store.GetCharacter(ctx, strings.TrimSpace(characterID))
	if err != nil {
		return RollResult{}, fail(span, err)
	}

	resolved, source, err := random.ResolveSeed(seed, s.newSeed)
	if err != nil {
		return RollResult{}, fail(span, err)
	}
	span.SetAttributes(attribute.Int64("roll.seed", resolved), attribute.String("roll.seed_source", string(source)))

	res, err := action.Resolve(req, entropy.NewUniform(resolved), character.Ledger, s.ruleset)
	if err != nil {
		return RollResult{}, fail(span, err)
	}
	span.SetAttributes(attribute.String("roll.tier", res.Outcome.Tier.String()))

	return RollResult{
		CharacterID: character.ID,
		Revision:    character.Revision,
		Seed:        resolved,
		SeedSource:  source,
		Resolution:  res,
	}, nil
}

// CommitRequest applies a roll.
type CommitRequest struct {
	Roll RollResult
	// ClockID names a clock to advance by the roll's progress. Optional.
	ClockID string
	// Trauma is taken if the roll's stress overflows.
	Trauma string
}

// CommitResult is the state after a commit.
type CommitResult struct {
	RollID      string
	Character   storage.Character
	Events      []ledger.Event
	Clock       *storage.Clock
	ClockUpdate *clock.Update
}

// Commit applies a roll's deltas to its character and advances the named
// clock, writing both and the roll history entry in one transaction. The
// character must not have changed since the roll.
func (s *Service) Commit(ctx context.Context, req CommitRequest) (CommitResult, error) {
	ctx, span := s.tracer.Start(ctx, "table.Commit",
		trace.WithAttributes(
			attribute.String("character.id", req.Roll.CharacterID),
			attribute.String("clock.id", req.ClockID),
		))
	defer span.End()

	res := req.Roll.Resolution
	if res.RulesVersion != s.ruleset.Ident() {
		return CommitResult{}, fail(span, fmt.Errorf("%w: rolled under %s, service runs %s", ErrRulesMismatch, res.RulesVersion, s.ruleset.Ident()))
	}

	character, err := s.store.GetCharacter(ctx, req.Roll.CharacterID)
	if err != nil {
		return CommitResult{}, fail(span, err)
	}
	if character.Revision != req.Roll.Revision {
		return CommitResult{}, fail(span, fmt.Errorf("%w: revision %d, rolled at %d", ErrStaleRoll, character.Revision, req.Roll.Revision))
	}

	var (
		stored *storage.Clock
		update *clock.Update
	)
	if clockID := strings.TrimSpace(req.ClockID); clockID != "" && res.Progress > 0 {
		record, err := s.store.GetClock(ctx, clockID)
		if err != nil {
			return CommitResult{}, fail(span, err)
		}
		upd, err := record.Clock.Advance(res.Progress)
		if err != nil {
			return CommitResult{}, fail(span, err)
		}
		record.Clock = upd.Clock
		stored = &record
		update = &upd
	}

	next, events, err := action.Apply(res, character.Ledger, s.ruleset, req.Trauma)
	if err != nil {
		return CommitResult{}, fail(span, err)
	}
	character.Ledger = next

	rollID, err := s.newID()
	if err != nil {
		return CommitResult{}, fail(span, fmt.Errorf("generate roll id: %w", err))
	}
	roll := storage.Roll{
		ID:           rollID,
		CharacterID:  character.ID,
		ClockID:      strings.TrimSpace(req.ClockID),
		Seed:         req.Roll.Seed,
		Pool:         res.Outcome.Pool,
		Position:     res.Position.String(),
		Effect:       res.Effect.String(),
		Faces:        res.Outcome.Faces,
		Tier:         res.Outcome.Tier.String(),
		Progress:     res.Progress,
		Deltas:       res.Deltas,
		Events:       events,
		RulesVersion: res.RulesVersion,
		CreatedAt:    s.clock().UTC(),
	}

	written, err := s.store.Commit(ctx, storage.Commit{Character: &character, Clock: stored, Roll: &roll})
	if err != nil {
		return CommitResult{}, fail(span, fmt.Errorf("commit roll: %w", err))
	}
	span.SetAttributes(attribute.String("roll.id", rollID), attribute.Int("ledger.events", len(events)))
	s.logf("character %s committed roll %s: %s, %d events", character.ID, rollID, res.Outcome.Tier, len(events))

	result := CommitResult{RollID: rollID, Character: *written.Character, Events: events, Clock: written.Clock, ClockUpdate: update}
	if update != nil && update.Completed {
		s.logf("clock %s complete", written.Clock.ID)
	}
	return result, nil
}

// ApplyDeltas applies ledger deltas outside a roll, such as clearing stress
// during downtime.
func (s *Service) ApplyDeltas(ctx context.Context, characterID string, deltas []ledger.Delta) (storage.Character, []ledger.Event, error) {
	ctx, span := s.tracer.Start(ctx, "table.ApplyDeltas",
		trace.WithAttributes(attribute.String("character.id", characterID), attribute.Int("ledger.deltas", len(deltas))))
	defer span.End()

	character, err := s.store.GetCharacter(ctx, strings.TrimSpace(characterID))
	if err != nil {
		return storage.Character{}, nil, fail(span, err)
	}
	next, events, err := ledger.Apply(character.Ledger, s.ruleset.Ledger, deltas)
	if err != nil {
		return storage.Character{}, nil, fail(span, err)
	}
	character.Ledger = next

	written, err := s.store.Commit(ctx, storage.Commit{Character: &character})
	if err != nil {
		return storage.Character{}, nil, fail(span, fmt.Errorf("commit deltas: %w", err))
	}
	return *written.Character, events, nil
}

// History returns a character's most recent rolls, newest first. A limit
// of zero or less uses the default.
func (s *Service) History(ctx context.Context, characterID string, limit int) ([]storage.Roll, error) {
	ctx, span := s.tracer.Start(ctx, "table.History",
		trace.WithAttributes(attribute.String("character.id", characterID)))
	defer span.End()

	if limit <= 0 {
		limit = defaultHistoryLimit
	}
	if _, err := s.store.GetCharacter(ctx, strings.TrimSpace(characterID)); err != nil {
		return nil, fail(span, err)
	}
	rolls, err := s.store.ListRolls(ctx, strings.TrimSpace(characterID), limit)
	if err != nil {
		return nil, fail(span, err)
	}
	return rolls, nil
}

func (s *Service) logf(format string, args ...any) {
	if s.logger == nil {
		return
	}
	s.logger.Printf(format, args...)
}

// fail records err on span and returns it.
func fail(span trace.Span, err error) error {
	span.RecordError(err)
	span.SetStatus(otelcodes.Error, err.Error())
	return err
}

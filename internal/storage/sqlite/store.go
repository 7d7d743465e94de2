// Package sqlite provides a SQLite-backed forge store.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	sqlitemigrate "github.com/louisbranch/darkforge/internal/platform/storage/sqlitemigrate"
	"github.com/louisbranch/darkforge/internal/platform/timeouts"
	"github.com/louisbranch/darkforge/internal/storage"
	"github.com/louisbranch/darkforge/internal/storage/sqlite/migrations"
	msqlite "modernc.org/sqlite"
	sqlite3lib "modernc.org/sqlite/lib"
)

// Store persists characters, clocks, and rolls in SQLite.
type Store struct {
	sqlDB *sql.DB
	now   func() time.Time
}

func toMillis(value time.Time) int64 {
	return value.UTC().UnixMilli()
}

func fromMillis(value int64) time.Time {
	return time.UnixMilli(value).UTC()
}

// Open opens a SQLite store and applies embedded migrations.
func Open(path string) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("storage path is required")
	}
	cleanPath := filepath.Clean(path)
	dsn := fmt.Sprintf("%s?_pragma=journal_mode(WAL)&_pragma=foreign_keys(ON)&_pragma=busy_timeout(%d)&_pragma=synchronous(NORMAL)",
		cleanPath, timeouts.SQLiteBusy.Milliseconds())
	sqlDB, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	if err := sqlDB.Ping(); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}
	if _, err := sqlitemigrate.Apply(context.Background(), sqlDB, migrations.FS, ""); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	return &Store{sqlDB: sqlDB, now: time.Now}, nil
}

// Close closes the SQLite handle.
func (s *Store) Close() error {
	if s == nil || s.sqlDB == nil {
		return nil
	}
	return s.sqlDB.Close()
}

func (s *Store) ready(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s == nil || s.sqlDB == nil {
		return fmt.Errorf("storage is not configured")
	}
	return nil
}

// CreateCharacter inserts a character at revision 1.
func (s *Store) CreateCharacter(ctx context.Context, character storage.Character) error {
	if err := s.ready(ctx); err != nil {
		return err
	}
	id := strings.TrimSpace(character.ID)
	if id == "" {
		return fmt.Errorf("character id is required")
	}
	ledgerJSON, err := json.Marshal(character.Ledger)
	if err != nil {
		return fmt.Errorf("encode ledger: %w", err)
	}
	now := toMillis(s.now())

	_, err = s.sqlDB.ExecContext(ctx,
		`INSERT INTO characters (id, name, ledger_json, revision, created_at, updated_at)
		 VALUES (?, ?, ?, 1, ?, ?)`,
		id, strings.TrimSpace(character.Name), string(ledgerJSON), now, now,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return storage.ErrAlreadyExists
		}
		return fmt.Errorf("create character: %w", err)
	}
	return nil
}

// GetCharacter returns one character by id.
func (s *Store) GetCharacter(ctx context.Context, id string) (storage.Character, error) {
	if err := s.ready(ctx); err != nil {
		return storage.Character{}, err
	}
	row := s.sqlDB.QueryRowContext(ctx,
		`SELECT id, name, ledger_json, revision, created_at, updated_at
		   FROM characters
		  WHERE id = ?`,
		strings.TrimSpace(id),
	)
	character, err := scanCharacter(row)
	if errors.Is(err, sql.ErrNoRows) {
		return storage.Character{}, fmt.Errorf("character %q: %w", id, storage.ErrNotFound)
	}
	if err != nil {
		return storage.Character{}, fmt.Errorf("get character: %w", err)
	}
	return character, nil
}

// ListCharacters returns every character ordered by name.
func (s *Store) ListCharacters(ctx context.Context) ([]storage.Character, error) {
	if err := s.ready(ctx); err != nil {
		return nil, err
	}
	rows, err := s.sqlDB.QueryContext(ctx,
		`SELECT id, name, ledger_json, revision, created_at, updated_at
		   FROM characters
		  ORDER BY name, id`,
	)
	if err != nil {
		return nil, fmt.Errorf("list characters: %w", err)
	}
	defer rows.Close()

	var characters []storage.Character
	for rows.Next() {
		character, err := scanCharacter(rows)
		if err != nil {
			return nil, fmt.Errorf("scan character: %w", err)
		}
		characters = append(characters, character)
	}
	return characters, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanCharacter(row scanner) (storage.Character, error) {
	var (
		character  storage.Character
		ledgerJSON string
		createdAt  int64
		updatedAt  int64
	)
	if err := row.Scan(&character.ID, &character.Name, &ledgerJSON, &character.Revision, &createdAt, &updatedAt); err != nil {
		return storage.Character{}, err
	}
	if err := json.Unmarshal([]byte(ledgerJSON), &character.Ledger); err != nil {
		return storage.Character{}, fmt.Errorf("decode ledger of %s: %w", character.ID, err)
	}
	character.CreatedAt = fromMillis(createdAt)
	character.UpdatedAt = fromMillis(updatedAt)
	return character, nil
}

// CreateClock inserts a clock at revision 1.
func (s *Store) CreateClock(ctx context.Context, c storage.Clock) error {
	if err := s.ready(ctx); err != nil {
		return err
	}
	id := strings.TrimSpace(c.ID)
	if id == "" {
		return fmt.Errorf("clock id is required")
	}
	if err := c.Clock.Validate(); err != nil {
		return err
	}
	now := toMillis(s.now())

	_, err := s.sqlDB.ExecContext(ctx,
		`INSERT INTO clocks (id, name, segments, filled, revision, created_at, updated_at)
		 VALUES (?, ?, ?, ?, 1, ?, ?)`,
		id, c.Clock.Name, c.Clock.Segments, c.Clock.Filled, now, now,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return storage.ErrAlreadyExists
		}
		return fmt.Errorf("create clock: %w", err)
	}
	return nil
}

// GetClock returns one clock by id.
func (s *Store) GetClock(ctx context.Context, id string) (storage.Clock, error) {
	if err := s.ready(ctx); err != nil {
		return storage.Clock{}, err
	}
	row := s.sqlDB.QueryRowContext(ctx,
		`SELECT id, name, segments, filled, revision, created_at, updated_at
		   FROM clocks
		  WHERE id = ?`,
		strings.TrimSpace(id),
	)
	c, err := scanClock(row)
	if errors.Is(err, sql.ErrNoRows) {
		return storage.Clock{}, fmt.Errorf("clock %q: %w", id, storage.ErrNotFound)
	}
	if err != nil {
		return storage.Clock{}, fmt.Errorf("get clock: %w", err)
	}
	return c, nil
}

// ListClocks returns every clock ordered by name.
func (s *Store) ListClocks(ctx context.Context) ([]storage.Clock, error) {
	if err := s.ready(ctx); err != nil {
		return nil, err
	}
	rows, err := s.sqlDB.QueryContext(ctx,
		`SELECT id, name, segments, filled, revision, created_at, updated_at
		   FROM clocks
		  ORDER BY name, id`,
	)
	if err != nil {
		return nil, fmt.Errorf("list clocks: %w", err)
	}
	defer rows.Close()

	var clocks []storage.Clock
	for rows.Next() {
		c, err := scanClock(rows)
		if err != nil {
			return nil, fmt.Errorf("scan clock: %w", err)
		}
		clocks = append(clocks, c)
	}
	return clocks, rows.Err()
}

func scanClock(row scanner) (storage.Clock, error) {
	var (
		c         storage.Clock
		createdAt int64
		updatedAt int64
	)
	if err := row.Scan(&c.ID, &c.Clock.Name, &c.Clock.Segments, &c.Clock.Filled, &c.Revision, &createdAt, &updatedAt); err != nil {
		return storage.Clock{}, err
	}
	c.CreatedAt = fromMillis(createdAt)
	c.UpdatedAt = fromMillis(updatedAt)
	return c, nil
}

// ListRolls returns the newest rolls of a character first.
func (s *Store) ListRolls(ctx context.Context, characterID string, limit int) ([]storage.Roll, error) {
	if err := s.ready(ctx); err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.sqlDB.QueryContext(ctx,
		`SELECT id, character_id, clock_id, seed, pool, position, effect, faces_json,
		        tier, progress, deltas_json, events_json, rules_version, created_at
		   FROM rolls
		  WHERE character_id = ?
		  ORDER BY created_at DESC, rowid DESC
		  LIMIT ?`,
		strings.TrimSpace(characterID), limit,
	)
	if err != nil {
		return nil, fmt.Errorf("list rolls: %w", err)
	}
	defer rows.Close()

	var rolls []storage.Roll
	for rows.Next() {
		var (
			roll       storage.Roll
			facesJSON  string
			deltasJSON string
			eventsJSON string
			createdAt  int64
		)
		if err := rows.Scan(&roll.ID, &roll.CharacterID, &roll.ClockID, &roll.Seed, &roll.Pool,
			&roll.Position, &roll.Effect, &facesJSON, &roll.Tier, &roll.Progress,
			&deltasJSON, &eventsJSON, &roll.RulesVersion, &createdAt); err != nil {
			return nil, fmt.Errorf("scan roll: %w", err)
		}
		if err := decodeJSON(facesJSON, &roll.Faces); err != nil {
			return nil, fmt.Errorf("decode faces of roll %s: %w", roll.ID, err)
		}
		if err := decodeJSON(deltasJSON, &roll.Deltas); err != nil {
			return nil, fmt.Errorf("decode deltas of roll %s: %w", roll.ID, err)
		}
		if err := decodeJSON(eventsJSON, &roll.Events); err != nil {
			return nil, fmt.Errorf("decode events of roll %s: %w", roll.ID, err)
		}
		roll.CreatedAt = fromMillis(createdAt)
		rolls = append(rolls, roll)
	}
	return rolls, rows.Err()
}

// Commit writes every part of commit in one transaction.
func (s *Store) Commit(ctx context.Context, commit storage.Commit) (storage.CommitResult, error) {
	if err := s.ready(ctx); err != nil {
		return storage.CommitResult{}, err
	}

	tx, err := s.sqlDB.BeginTx(ctx, nil)
	if err != nil {
		return storage.CommitResult{}, fmt.Errorf("begin commit: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	now := s.now()
	var result storage.CommitResult
	if commit.Character != nil {
		updated, err := updateCharacter(ctx, tx, *commit.Character, now)
		if err != nil {
			return storage.CommitResult{}, err
		}
		result.Character = &updated
	}
	if commit.Clock != nil {
		updated, err := updateClock(ctx, tx, *commit.Clock, now)
		if err != nil {
			return storage.CommitResult{}, err
		}
		result.Clock = &updated
	}
	if commit.Roll != nil {
		if err := insertRoll(ctx, tx, *commit.Roll, now); err != nil {
			return storage.CommitResult{}, err
		}
	}

	if err := tx.Commit(); err != nil {
		return storage.CommitResult{}, fmt.Errorf("commit: %w", err)
	}
	return result, nil
}

func updateCharacter(ctx context.Context, tx *sql.Tx, character storage.Character, now time.Time) (storage.Character, error) {
	ledgerJSON, err := json.Marshal(character.Ledger)
	if err != nil {
		return storage.Character{}, fmt.Errorf("encode ledger: %w", err)
	}
	res, err := tx.ExecContext(ctx,
		`UPDATE characters
		    SET name = ?, ledger_json = ?, revision = revision + 1, updated_at = ?
		  WHERE id = ? AND revision = ?`,
		strings.TrimSpace(character.Name), string(ledgerJSON), toMillis(now), character.ID, character.Revision,
	)
	if err != nil {
		return storage.Character{}, fmt.Errorf("update character: %w", err)
	}
	if err := checkRevision(ctx, tx, res, "characters", character.ID); err != nil {
		return storage.Character{}, fmt.Errorf("character %q: %w", character.ID, err)
	}
	character.Revision++
	character.UpdatedAt = now.UTC()
	return character, nil
}

func updateClock(ctx context.Context, tx *sql.Tx, c storage.Clock, now time.Time) (storage.Clock, error) {
	if err := c.Clock.Validate(); err != nil {
		return storage.Clock{}, err
	}
	res, err := tx.ExecContext(ctx,
		`UPDATE clocks
		    SET name = ?, segments = ?, filled = ?, revision = revision + 1, updated_at = ?
		  WHERE id = ? AND revision = ?`,
		c.Clock.Name, c.Clock.Segments, c.Clock.Filled, toMillis(now), c.ID, c.Revision,
	)
	if err != nil {
		return storage.Clock{}, fmt.Errorf("update clock: %w", err)
	}
	if err := checkRevision(ctx, tx, res, "clocks", c.ID); err != nil {
		return storage.Clock{}, fmt.Errorf("clock %q: %w", c.ID, err)
	}
	c.Revision++
	c.UpdatedAt = now.UTC()
	return c, nil
}

// checkRevision tells a missing row apart from a stale revision when an
// update matched nothing.
func checkRevision(ctx context.Context, tx *sql.Tx, res sql.Result, table, id string) error {
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 1 {
		return nil
	}
	var found int
	err = tx.QueryRowContext(ctx, `SELECT 1 FROM `+table+` WHERE id = ?`, id).Scan(&found)
	if errors.Is(err, sql.ErrNoRows) {
		return storage.ErrNotFound
	}
	if err != nil {
		return err
	}
	return storage.ErrConflict
}

func insertRoll(ctx context.Context, tx *sql.Tx, roll storage.Roll, now time.Time) error {
	if strings.TrimSpace(roll.ID) == "" {
		return fmt.Errorf("roll id is required")
	}
	facesJSON, err := encodeJSON(roll.Faces)
	if err != nil {
		return fmt.Errorf("encode faces: %w", err)
	}
	deltasJSON, err := encodeJSON(roll.Deltas)
	if err != nil {
		return fmt.Errorf("encode deltas: %w", err)
	}
	eventsJSON, err := encodeJSON(roll.Events)
	if err != nil {
		return fmt.Errorf("encode events: %w", err)
	}
	createdAt := roll.CreatedAt
	if createdAt.IsZero() {
		createdAt = now
	}

	_, err = tx.ExecContext(ctx,
		`INSERT INTO rolls (id, character_id, clock_id, seed, pool, position, effect, faces_json,
		                    tier, progress, deltas_json, events_json, rules_version, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		roll.ID, roll.CharacterID, roll.ClockID, roll.Seed, roll.Pool, roll.Position, roll.Effect, facesJSON,
		roll.Tier, roll.Progress, deltasJSON, eventsJSON, roll.RulesVersion, toMillis(createdAt),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return storage.ErrAlreadyExists
		}
		return fmt.Errorf("insert roll: %w", err)
	}
	return nil
}

// encodeJSON stores nil slices as empty arrays.
func encodeJSON[T any](values []T) (string, error) {
	if values == nil {
		values = []T{}
	}
	data, err := json.Marshal(values)
	return string(data), err
}

func decodeJSON[T any](data string, out *[]T) error {
	return json.Unmarshal([]byte(data), out)
}

func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	var sqliteErr *msqlite.Error
	if errors.As(err, &sqliteErr) {
		switch sqliteErr.Code() {
		case sqlite3lib.SQLITE_CONSTRAINT_PRIMARYKEY, sqlite3lib.SQLITE_CONSTRAINT_UNIQUE:
			return true
		}
	}
	return strings.Contains(strings.ToLower(err.Error()), "unique constraint failed")
}

var _ storage.Store = (*Store)(nil)

package table

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/louisbranch/darkforge/internal/forge/clock"
	"github.com/louisbranch/darkforge/internal/storage"
)

// CreateClock stores an empty clock.
func (s *Service) CreateClock(ctx context.Context, name string, segments int) (storage.Clock, error) {
	ctx, span := s.tracer.Start(ctx, "table.CreateClock",
		trace.WithAttributes(attribute.Int("clock.segments", segments)))
	defer span.End()

	name = strings.TrimSpace(name)
	if name == "" {
		return storage.Clock{}, fail(span, errors.New("clock name is required"))
	}
	c, err := clock.New(name, segments)
	if err != nil {
		return storage.Clock{}, fail(span, err)
	}
	clockID, err := s.newID()
	if err != nil {
		return storage.Clock{}, fail(span, fmt.Errorf("generate clock id: %w", err))
	}
	span.SetAttributes(attribute.String("clock.id", clockID))

	if err := s.store.CreateClock(ctx, storage.Clock{ID: clockID, Clock: c}); err != nil {
		return storage.Clock{}, fail(span, fmt.Errorf("create clock: %w", err))
	}
	created, err := s.store.GetClock(ctx, clockID)
	if err != nil {
		return storage.Clock{}, fail(span, err)
	}
	s.logf("clock %s created: %s", created.ID, created.Clock)
	return created, nil
}

// ListClocks returns every clock.
func (s *Service) ListClocks(ctx context.Context) ([]storage.Clock, error) {
	ctx, span := s.tracer.Start(ctx, "table.ListClocks")
	defer span.End()

	clocks, err := s.store.ListClocks(ctx)
	if err != nil {
		return nil, fail(span, err)
	}
	return clocks, nil
}

// AdvanceClock fills a clock by segments outside a roll.
func (s *Service) AdvanceClock(ctx context.Context, clockID string, by int) (storage.Clock, clock.Update, error) {
	ctx, span := s.tracer.Start(ctx, "table.AdvanceClock",
		trace.WithAttributes(attribute.String("clock.id", clockID), attribute.Int("clock.by", by)))
	defer span.End()

	record, err := s.store.GetClock(ctx, strings.TrimSpace(clockID))
	if err != nil {
		return storage.Clock{}, clock.Update{}, fail(span, err)
	}
	update, err := record.Clock.Advance(by)
	if err != nil {
		return storage.Clock{}, clock.Update{}, fail(span, err)
	}
	record.Clock = update.Clock

	written, err := s.store.Commit(ctx, storage.Commit{Clock: &record})
	if err != nil {
		return storage.Clock{}, clock.Update{}, fail(span, fmt.Errorf("commit clock: %w", err))
	}
	if update.Completed {
		s.logf("clock %s complete", written.Clock.ID)
	}
	return *written.Clock, update, nil
}

// ResetClock empties a clock.
func (s *Service) ResetClock(ctx context.Context, clockID string) (storage.Clock, error) {
	ctx, span := s.tracer.Start(ctx, "table.ResetClock",
		trace.WithAttributes(attribute.String("clock.id", clockID)))
	defer span.End()

	record, err := s.store.GetClock(ctx, strings.TrimSpace(clockID))
	if err != nil {
		return storage.Clock{}, fail(span, err)
	}
	record.Clock = record.Clock.Reset()

	written, err := s.store.Commit(ctx, storage.Commit{Clock: &record})
	if err != nil {
		return storage.Clock{}, fail(span, fmt.Errorf("commit clock: %w", err))
	}
	return *written.Clock, nil
}

package store

import (
	"context"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/existflow/irontime/internal/model"
	"github.com/google/uuid"
)

var sleepColumns = []string{"id", "user_id", "bed_time", "wake_time", "quality", "notes", "created_at"}

// ListSleep returns sleep entries waking after since (if set), newest first
func (s *Store) ListSleep(ctx context.Context, userID string, since *time.Time, limit int) ([]model.SleepEntry, error) {
	b := s.qb.Select(sleepColumns...).
		From("sleep_entries").
		Where(sq.Eq{"user_id": userID})
	if since != nil {
		b = b.Where(sq.GtOrEq{"wake_time": *since})
	}
	b = b.OrderBy("wake_time DESC")
	if limit > 0 {
		b = b.Limit(uint64(limit))
	}

	query, args, err := b.ToSql()
	if err != nil {
		return nil, err
	}
	entries := []model.SleepEntry{}
	if err := s.db.SelectContext(ctx, &entries, query, args...); err != nil {
		return nil, fmt.Errorf("failed to list sleep: %w", err)
	}
	return entries, nil
}

// CreateSleep stores one night of sleep
func (s *Store) CreateSleep(ctx context.Context, e model.SleepEntry) (model.SleepEntry, error) {
	if err := e.Validate(); err != nil {
		return model.SleepEntry{}, err
	}
	e.ID = uuid.New().String()
	e.CreatedAt = s.now()

	query, args, err := s.qb.Insert("sleep_entries").
		Columns(sleepColumns...).
		Values(e.ID, e.UserID, e.BedTime, e.WakeTime, e.Quality, e.Notes, e.CreatedAt).
		ToSql()
	if err != nil {
		return model.SleepEntry{}, err
	}
	if _, err := s.db.ExecContext(ctx, query, args...); err != nil {
		return model.SleepEntry{}, fmt.Errorf("failed to create sleep entry: %w", err)
	}
	return e, nil
}

// DeleteSleep removes one sleep entry of a user
func (s *Store) DeleteSleep(ctx context.Context, userID, id string) error {
	return s.deleteOwned(ctx, "sleep_entries", userID, id)
}

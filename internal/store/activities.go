package store

import (
	"context"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/existflow/irontime/internal/model"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

var activityColumns = []string{
	"id", "user_id", "category_id", "started_at", "duration_minutes", "notes", "created_at",
}

// ActivityFilter narrows ListActivities. Zero values mean no restriction.
type ActivityFilter struct {
	From        *time.Time
	To          *time.Time
	CategoryIDs []string
	Limit       int
}

// Params renders the filter for cache keys
func (f ActivityFilter) Params() map[string]string {
	p := map[string]string{}
	if f.From != nil {
		p["from"] = f.From.UTC().Format(time.RFC3339)
	}
	if f.To != nil {
		p["to"] = f.To.UTC().Format(time.RFC3339)
	}
	if len(f.CategoryIDs) > 0 {
		p["categories"] = fmt.Sprint(f.CategoryIDs)
	}
	if f.Limit > 0 {
		p["limit"] = fmt.Sprint(f.Limit)
	}
	return p
}

// ListActivities returns a user's activities, newest first
func (s *Store) ListActivities(ctx context.Context, userID string, f ActivityFilter) ([]model.Activity, error) {
	b := s.qb.Select(activityColumns...).
		From("activities").
		Where(sq.Eq{"user_id": userID})
	if f.From != nil {
		b = b.Where(sq.GtOrEq{"started_at": *f.From})
	}
	if f.To != nil {
		b = b.Where(sq.LtOrEq{"started_at": *f.To})
	}
	if len(f.CategoryIDs) > 0 {
		b = b.Where(sq.Eq{"category_id": f.CategoryIDs})
	}
	b = b.OrderBy("started_at DESC")
	if f.Limit > 0 {
		b = b.Limit(uint64(f.Limit))
	}

	query, args, err := b.ToSql()
	if err != nil {
		return nil, err
	}
	acts := []model.Activity{}
	if err := s.db.SelectContext(ctx, &acts, query, args...); err != nil {
		return nil, fmt.Errorf("failed to list activities: %w", err)
	}
	return acts, nil
}

// CreateActivities inserts a batch in one transaction. Either every activity
// is stored or none is.
func (s *Store) CreateActivities(ctx context.Context, userID string, acts []model.Activity) ([]model.Activity, error) {
	if len(acts) == 0 {
		return []model.Activity{}, nil
	}

	now := s.now()
	wanted := map[string]bool{}
	var ids []string
	out := make([]model.Activity, len(acts))
	for i, a := range acts {
		if err := a.Validate(); err != nil {
			if len(acts) > 1 {
				return nil, fmt.Errorf("activity %d: %w", i, err)
			}
			return nil, err
		}
		if _, err := uuid.Parse(a.CategoryID); err != nil {
			return nil, ErrForeignCategory
		}
		a.ID = uuid.New().String()
		a.UserID = userID
		a.CreatedAt = now
		out[i] = a
		if !wanted[a.CategoryID] {
			wanted[a.CategoryID] = true
			ids = append(ids, a.CategoryID)
		}
	}

	err := s.withTx(ctx, func(tx *sqlx.Tx) error {
		query, args, err := s.qb.Select("COUNT(*)").
			From("categories").
			Where(sq.Eq{"user_id": userID}).
			Where(sq.Eq{"active": true}).
			Where(sq.Eq{"id": ids}).
			ToSql()
		if err != nil {
			return err
		}
		var found int
		if err := tx.GetContext(ctx, &found, query, args...); err != nil {
			return fmt.Errorf("failed to check categories: %w", err)
		}
		if found != len(ids) {
			return ErrForeignCategory
		}

		ins := s.qb.Insert("activities").Columns(activityColumns...)
		for _, a := range out {
			ins = ins.Values(a.ID, a.UserID, a.CategoryID, a.StartedAt, a.DurationMinutes, a.Notes, a.CreatedAt)
		}
		query, args, err = ins.ToSql()
		if err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			return fmt.Errorf("failed to insert activities: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// DeleteActivity removes one activity of a user
func (s *Store) DeleteActivity(ctx context.Context, userID, id string) error {
	return s.deleteOwned(ctx, "activities", userID, id)
}

func (s *Store) deleteOwned(ctx context.Context, table, userID, id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return ErrNotFound
	}
	query, args, err := s.qb.Delete(table).
		Where(sq.Eq{"id": id}).
		Where(sq.Eq{"user_id": userID}).
		ToSql()
	if err != nil {
		return err
	}
	res, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to delete from %s: %w", table, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

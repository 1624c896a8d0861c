package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/existflow/irontime/internal/model"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

var categoryColumns = []string{
	"id", "user_id", "name", "color", "parent_id", "level", "sort_order",
	"daily_goal", "weekly_goal", "active", "created_at", "updated_at",
}

// ListCategories returns the active categories of a user ordered by level
// then sort order
func (s *Store) ListCategories(ctx context.Context, userID string) ([]model.Category, error) {
	query, args, err := s.qb.Select(categoryColumns...).
		From("categories").
		Where(sq.Eq{"user_id": userID}).
		Where(sq.Eq{"active": true}).
		OrderBy("level", "sort_order", "created_at").
		ToSql()
	if err != nil {
		return nil, err
	}

	cats := []model.Category{}
	if err := s.db.SelectContext(ctx, &cats, query, args...); err != nil {
		return nil, fmt.Errorf("failed to list categories: %w", err)
	}
	return cats, nil
}

// GetCategory returns one active category of a user
func (s *Store) GetCategory(ctx context.Context, userID, id string) (model.Category, error) {
	return s.getCategory(ctx, s.db, userID, id)
}

func (s *Store) getCategory(ctx context.Context, q sqlx.QueryerContext, userID, id string) (model.Category, error) {
	if _, err := uuid.Parse(id); err != nil {
		return model.Category{}, ErrNotFound
	}
	query, args, err := s.qb.Select(categoryColumns...).
		From("categories").
		Where(sq.Eq{"id": id}).
		Where(sq.Eq{"user_id": userID}).
		Where(sq.Eq{"active": true}).
		ToSql()
	if err != nil {
		return model.Category{}, err
	}

	var c model.Category
	if err := sqlx.GetContext(ctx, q, &c, query, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.Category{}, ErrNotFound
		}
		return model.Category{}, fmt.Errorf("failed to get category: %w", err)
	}
	return c, nil
}

// CreateCategory validates and inserts c. A subcategory's parent must be an
// active root of the same user.
func (s *Store) CreateCategory(ctx context.Context, c model.Category) (model.Category, error) {
	if c.Color == "" {
		c.Color = "#4ECDC4"
	}
	if err := c.Validate(); err != nil {
		return model.Category{}, err
	}

	if c.Level == model.LevelLeaf {
		parent, err := s.GetCategory(ctx, c.UserID, c.Parent())
		if errors.Is(err, ErrNotFound) {
			return model.Category{}, ErrInvalidParent
		}
		if err != nil {
			return model.Category{}, err
		}
		if !parent.IsRoot() {
			return model.Category{}, ErrInvalidParent
		}
	}

	now := s.now()
	c.ID = uuid.New().String()
	c.Active = true
	c.CreatedAt = now
	c.UpdatedAt = now

	query, args, err := s.insertCategories(c).ToSql()
	if err != nil {
		return model.Category{}, err
	}
	if _, err := s.db.ExecContext(ctx, query, args...); err != nil {
		return model.Category{}, fmt.Errorf("failed to create category: %w", err)
	}
	return c, nil
}

func (s *Store) insertCategories(cats ...model.Category) sq.InsertBuilder {
	b := s.qb.Insert("categories").Columns(categoryColumns...)
	for _, c := range cats {
		b = b.Values(c.ID, c.UserID, c.Name, c.Color, c.ParentID, c.Level, c.SortOrder,
			c.DailyGoal, c.WeeklyGoal, c.Active, c.CreatedAt, c.UpdatedAt)
	}
	return b
}

// UpdateCategory applies a rename, recolor, reorder or goal change
func (s *Store) UpdateCategory(ctx context.Context, userID, id string, patch model.CategoryPatch) (model.Category, error) {
	current, err := s.GetCategory(ctx, userID, id)
	if err != nil {
		return model.Category{}, err
	}
	if patch.IsEmpty() {
		return current, nil
	}

	updated := patch.Apply(current)
	if err := updated.Validate(); err != nil {
		return model.Category{}, err
	}
	updated.UpdatedAt = s.now()

	query, args, err := s.qb.Update("categories").
		Set("name", updated.Name).
		Set("color", updated.Color).
		Set("sort_order", updated.SortOrder).
		Set("daily_goal", updated.DailyGoal).
		Set("weekly_goal", updated.WeeklyGoal).
		Set("updated_at", updated.UpdatedAt).
		Where(sq.Eq{"id": id}).
		Where(sq.Eq{"user_id": userID}).
		ToSql()
	if err != nil {
		return model.Category{}, err
	}
	if _, err := s.db.ExecContext(ctx, query, args...); err != nil {
		return model.Category{}, fmt.Errorf("failed to update category: %w", err)
	}
	return updated, nil
}

// DeleteCategory deactivates a category and its subcategories and removes
// their activities. It returns the ids that were deactivated.
func (s *Store) DeleteCategory(ctx context.Context, userID, id string) ([]string, error) {
	var removed []string
	err := s.withTx(ctx, func(tx *sqlx.Tx) error {
		if _, err := s.getCategory(ctx, tx, userID, id); err != nil {
			return err
		}

		query, args, err := s.qb.Select("id").
			From("categories").
			Where(sq.Eq{"user_id": userID}).
			Where(sq.Eq{"parent_id": id}).
			Where(sq.Eq{"active": true}).
			ToSql()
		if err != nil {
			return err
		}
		var children []string
		if err := tx.SelectContext(ctx, &children, query, args...); err != nil {
			return fmt.Errorf("failed to list subcategories: %w", err)
		}
		removed = append([]string{id}, children...)

		query, args, err = s.qb.Update("categories").
			Set("active", false).
			Set("updated_at", s.now()).
			Where(sq.Eq{"user_id": userID}).
			Where(sq.Eq{"id": removed}).
			ToSql()
		if err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			return fmt.Errorf("failed to deactivate categories: %w", err)
		}

		query, args, err = s.qb.Delete("activities").
			Where(sq.Eq{"user_id": userID}).
			Where(sq.Eq{"category_id": removed}).
			ToSql()
		if err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			return fmt.Errorf("failed to delete activities: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return removed, nil
}

// SeedDefaults inserts the starter categories for a user with no active
// category. It returns nil when the user already has one.
func (s *Store) SeedDefaults(ctx context.Context, userID string) ([]model.Category, error) {
	var created []model.Category
	err := s.withTx(ctx, func(tx *sqlx.Tx) error {
		var count int
		if err := tx.GetContext(ctx, &count, `SELECT COUNT(*) FROM categories WHERE user_id = $1 AND active = TRUE`, userID); err != nil {
			return fmt.Errorf("failed to count categories: %w", err)
		}
		if count > 0 {
			return nil
		}

		now := s.now()
		for i, d := range model.DefaultCategories() {
			root := model.Category{
				ID: uuid.New().String(), UserID: userID, Name: d.Name, Color: d.Color,
				Level: model.LevelRoot, SortOrder: i, Active: true, CreatedAt: now, UpdatedAt: now,
			}
			created = append(created, root)
			for j, name := range d.Children {
				parent := root.ID
				created = append(created, model.Category{
					ID: uuid.New().String(), UserID: userID, Name: name, Color: d.Color,
					ParentID: &parent, Level: model.LevelLeaf, SortOrder: j, Active: true,
					CreatedAt: now, UpdatedAt: now,
				})
			}
		}

		query, args, err := s.insertCategories(created...).ToSql()
		if err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			return fmt.Errorf("failed to seed categories: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}

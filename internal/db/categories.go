package db

import (
	"context"
	"time"

	"github.com/existflow/irontime/internal/model"
	"gorm.io/gorm"
)

// categoryRow is a locally cached category
type categoryRow struct {
	ID         string `gorm:"primaryKey"`
	UserID     string `gorm:"index"`
	Name       string
	Color      string
	ParentID   *string
	Level      int
	SortOrder  int
	DailyGoal  *int
	WeeklyGoal *int
	SyncedAt   time.Time
}

func (categoryRow) TableName() string { return "categories" }

// SaveCategories replaces the cached categories of a user
func (d *DB) SaveCategories(ctx context.Context, userID string, cats []model.Category) error {
	now := time.Now()
	return d.gorm.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("user_id = ?", userID).Delete(&categoryRow{}).Error; err != nil {
			return err
		}
		if len(cats) == 0 {
			return nil
		}
		rows := make([]categoryRow, len(cats))
		for i, c := range cats {
			rows[i] = categoryRow{
				ID:         c.ID,
				UserID:     userID,
				Name:       c.Name,
				Color:      c.Color,
				ParentID:   c.ParentID,
				Level:      c.Level,
				SortOrder:  c.SortOrder,
				DailyGoal:  c.DailyGoal,
				WeeklyGoal: c.WeeklyGoal,
				SyncedAt:   now,
			}
		}
		return tx.Create(&rows).Error
	})
}

// Categories returns the cached categories of a user
func (d *DB) Categories(ctx context.Context, userID string) ([]model.Category, error) {
	var rows []categoryRow
	err := d.gorm.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("level, sort_order, name").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}

	out := make([]model.Category, 0, len(rows))
	for _, r := range rows {
		out = append(out, model.Category{
			ID:         r.ID,
			UserID:     r.UserID,
			Name:       r.Name,
			Color:      r.Color,
			ParentID:   r.ParentID,
			Level:      r.Level,
			SortOrder:  r.SortOrder,
			DailyGoal:  r.DailyGoal,
			WeeklyGoal: r.WeeklyGoal,
			Active:     true,
		})
	}
	return out, nil
}

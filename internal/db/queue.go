package db

import (
	"context"
	"time"

	"github.com/existflow/irontime/internal/model"
	"gorm.io/gorm"
)

// PendingActivity is an activity logged offline and not yet uploaded
type PendingActivity struct {
	ID              uint `gorm:"primaryKey"`
	CategoryID      string
	StartedAt       time.Time
	DurationMinutes int
	Notes           string
	Attempts        int
	LastError       string
	CreatedAt       time.Time
}

// Activity converts the queued entry for upload
func (p PendingActivity) Activity() model.Activity {
	return model.Activity{
		CategoryID:      p.CategoryID,
		StartedAt:       p.StartedAt,
		DurationMinutes: p.DurationMinutes,
		Notes:           p.Notes,
	}
}

// Enqueue stores an activity for a later upload
func (d *DB) Enqueue(ctx context.Context, a model.Activity) (PendingActivity, error) {
	p := PendingActivity{
		CategoryID:      a.CategoryID,
		StartedAt:       a.StartedAt,
		DurationMinutes: a.DurationMinutes,
		Notes:           a.Notes,
	}
	if err := d.gorm.WithContext(ctx).Create(&p).Error; err != nil {
		return PendingActivity{}, err
	}
	return p, nil
}

// Pending returns queued activities still eligible for upload, oldest
// first. Entries the server rejected are left out. limit <= 0 means all.
func (d *DB) Pending(ctx context.Context, limit int) ([]PendingActivity, error) {
	q := d.gorm.WithContext(ctx).Where("last_error = ''").Order("id")
	if limit > 0 {
		q = q.Limit(limit)
	}
	var out []PendingActivity
	if err := q.Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

// PendingCount returns how many entries are waiting for upload
func (d *DB) PendingCount(ctx context.Context) (int64, error) {
	var n int64
	err := d.gorm.WithContext(ctx).Model(&PendingActivity{}).
		Where("last_error = ''").Count(&n).Error
	return n, err
}

// Rejected returns entries the server refused, oldest first
func (d *DB) Rejected(ctx context.Context) ([]PendingActivity, error) {
	var out []PendingActivity
	err := d.gorm.WithContext(ctx).Where("last_error <> ''").Order("id").Find(&out).Error
	return out, err
}

// RemovePending drops uploaded entries
func (d *DB) RemovePending(ctx context.Context, ids []uint) error {
	if len(ids) == 0 {
		return nil
	}
	return d.gorm.WithContext(ctx).Delete(&PendingActivity{}, ids).Error
}

// MarkFailed records a rejected upload. The entries stay in the queue
// for inspection but are no longer returned by Pending.
func (d *DB) MarkFailed(ctx context.Context, ids []uint, cause error) error {
	if len(ids) == 0 {
		return nil
	}
	msg := "rejected"
	if cause != nil && cause.Error() != "" {
		msg = cause.Error()
	}
	return d.gorm.WithContext(ctx).Model(&PendingActivity{}).
		Where("id IN ?", ids).
		Updates(map[string]any{
			"attempts":   gorm.Expr("attempts + 1"),
			"last_error": msg,
		}).Error
}

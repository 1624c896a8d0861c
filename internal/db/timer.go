package db

import (
	"context"
	"errors"
	"time"

	"github.com/existflow/irontime/internal/timer"
	"gorm.io/gorm"
)

// timerRow is the single persisted timer; its id is always 1
type timerRow struct {
	ID            uint `gorm:"primaryKey"`
	CategoryID    string
	CategoryPath  string
	Notes         string
	TargetSeconds int64
	StartedAt     time.Time
	ResumedAt     *time.Time
	AccumulatedMs int64
	UpdatedAt     time.Time
}

func (timerRow) TableName() string { return "timer" }

// LoadTimer returns the active timer, or timer.ErrNoTimer
func (d *DB) LoadTimer(ctx context.Context) (*timer.Timer, error) {
	var row timerRow
	err := d.gorm.WithContext(ctx).First(&row, 1).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, timer.ErrNoTimer
	}
	if err != nil {
		return nil, err
	}
	return &timer.Timer{
		CategoryID:   row.CategoryID,
		CategoryPath: row.CategoryPath,
		Notes:        row.Notes,
		Target:       time.Duration(row.TargetSeconds) * time.Second,
		StartedAt:    row.StartedAt,
		ResumedAt:    row.ResumedAt,
		Accumulated:  time.Duration(row.AccumulatedMs) * time.Millisecond,
	}, nil
}

// SaveTimer replaces the active timer
func (d *DB) SaveTimer(ctx context.Context, t *timer.Timer) error {
	row := timerRow{
		ID:            1,
		CategoryID:    t.CategoryID,
		CategoryPath:  t.CategoryPath,
		Notes:         t.Notes,
		TargetSeconds: int64(t.Target / time.Second),
		StartedAt:     t.StartedAt,
		ResumedAt:     t.ResumedAt,
		AccumulatedMs: t.Accumulated.Milliseconds(),
	}
	return d.gorm.WithContext(ctx).Save(&row).Error
}

// ClearTimer removes the active timer
func (d *DB) ClearTimer(ctx context.Context) error {
	return d.gorm.WithContext(ctx).Delete(&timerRow{}, 1).Error
}

// Package timer is the stopwatch and countdown used to log activities as
// they happen.
package timer

import (
	"context"
	"errors"
	"time"

	"github.com/existflow/irontime/internal/model"
)

var (
	ErrRunning    = errors.New("timer is already running")
	ErrPaused     = errors.New("timer is paused")
	ErrNoTimer    = errors.New("no timer is running")
	ErrTooShort   = errors.New("timer ran for less than a minute")
	ErrNoCategory = errors.New("timer needs a category")
)

// Timer measures time spent on one category. A zero Target makes it a
// stopwatch, otherwise it counts down from Target.
type Timer struct {
	CategoryID   string
	CategoryPath string
	Notes        string
	Target       time.Duration

	StartedAt time.Time
	// ResumedAt is when the current running stretch began; nil while paused
	ResumedAt *time.Time
	// Accumulated is the run time before ResumedAt
	Accumulated time.Duration
}

// Store persists the single active timer
type Store interface {
	LoadTimer(ctx context.Context) (*Timer, error)
	SaveTimer(ctx context.Context, t *Timer) error
	ClearTimer(ctx context.Context) error
}

// Start begins a running timer
func Start(categoryID, path string, target time.Duration, now time.Time) (*Timer, error) {
	if categoryID == "" {
		return nil, ErrNoCategory
	}
	if target < 0 {
		target = 0
	}
	resumed := now
	return &Timer{
		CategoryID:   categoryID,
		CategoryPath: path,
		Target:       target,
		StartedAt:    now,
		ResumedAt:    &resumed,
	}, nil
}

// Running reports whether the timer is counting
func (t *Timer) Running() bool {
	return t.ResumedAt != nil
}

// IsCountdown reports whether the timer has a target
func (t *Timer) IsCountdown() bool {
	return t.Target > 0
}

// Pause stops counting until Resume
func (t *Timer) Pause(now time.Time) error {
	if !t.Running() {
		return ErrPaused
	}
	t.Accumulated = t.Elapsed(now)
	t.ResumedAt = nil
	return nil
}

// Resume continues a paused timer
func (t *Timer) Resume(now time.Time) error {
	if t.Running() {
		return ErrRunning
	}
	resumed := now
	t.ResumedAt = &resumed
	return nil
}

// Elapsed returns the run time, excluding pauses
func (t *Timer) Elapsed(now time.Time) time.Duration {
	d := t.Accumulated
	if t.ResumedAt != nil && now.After(*t.ResumedAt) {
		d += now.Sub(*t.ResumedAt)
	}
	return d
}

// Remaining returns the countdown left, never negative. Stopwatches have
// no remaining time.
func (t *Timer) Remaining(now time.Time) time.Duration {
	if !t.IsCountdown() {
		return 0
	}
	left := t.Target - t.Elapsed(now)
	if left < 0 {
		return 0
	}
	return left
}

// Expired reports whether a countdown reached its target
func (t *Timer) Expired(now time.Time) bool {
	return t.IsCountdown() && t.Elapsed(now) >= t.Target
}

// Stop ends the timer and returns the activity it measured, in whole
// minutes capped at one day.
func (t *Timer) Stop(now time.Time) (model.Activity, error) {
	minutes := int(t.Elapsed(now) / time.Minute)
	if minutes < 1 {
		return model.Activity{}, ErrTooShort
	}
	if minutes > model.MaxMinutesPerDay {
		minutes = model.MaxMinutesPerDay
	}
	t.Accumulated = time.Duration(minutes) * time.Minute
	t.ResumedAt = nil

	return model.Activity{
		CategoryID:      t.CategoryID,
		StartedAt:       t.StartedAt,
		DurationMinutes: minutes,
		Notes:           t.Notes,
	}, nil
}

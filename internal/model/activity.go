package model

import (
	"strings"
	"time"
)

// Activity is a block of time logged against a category
type Activity struct {
	ID              string    `json:"id" db:"id"`
	UserID          string    `json:"user_id" db:"user_id"`
	CategoryID      string    `json:"category_id" db:"category_id"`
	StartedAt       time.Time `json:"started_at" db:"started_at"`
	DurationMinutes int       `json:"duration_minutes" db:"duration_minutes"`
	Notes           string    `json:"notes,omitempty" db:"notes"`
	CreatedAt       time.Time `json:"created_at" db:"created_at"`
}

// EndsAt returns the end of the activity
func (a *Activity) EndsAt() time.Time {
	return a.StartedAt.Add(time.Duration(a.DurationMinutes) * time.Minute)
}

// Validate checks an activity before it is stored
func (a *Activity) Validate() error {
	if strings.TrimSpace(a.CategoryID) == "" {
		return Invalid("category_id", "is required")
	}
	if a.DurationMinutes < 0 {
		return Invalid("duration_minutes", "cannot be negative")
	}
	if a.DurationMinutes > MaxMinutesPerDay {
		return Invalid("duration_minutes", "cannot exceed 1440")
	}
	if a.StartedAt.IsZero() {
		return Invalid("started_at", "is required")
	}
	if len(a.Notes) > 2000 {
		return Invalid("notes", "must be at most 2000 characters")
	}
	return nil
}

package model

import "time"

// SleepEntry records one night of sleep
type SleepEntry struct {
	ID        string    `json:"id" db:"id"`
	UserID    string    `json:"user_id" db:"user_id"`
	BedTime   time.Time `json:"bed_time" db:"bed_time"`
	WakeTime  time.Time `json:"wake_time" db:"wake_time"`
	Quality   *int      `json:"quality,omitempty" db:"quality"` // 1 (poor) to 5 (great)
	Notes     string    `json:"notes,omitempty" db:"notes"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// Minutes returns the slept duration in whole minutes
func (s *SleepEntry) Minutes() int {
	if !s.WakeTime.After(s.BedTime) {
		return 0
	}
	return int(s.WakeTime.Sub(s.BedTime) / time.Minute)
}

// Validate checks a sleep entry before it is stored
func (s *SleepEntry) Validate() error {
	if s.BedTime.IsZero() || s.WakeTime.IsZero() {
		return Invalid("bed_time", "bed and wake times are required")
	}
	if !s.WakeTime.After(s.BedTime) {
		return Invalid("wake_time", "must be after bed time")
	}
	if s.WakeTime.Sub(s.BedTime) > 24*time.Hour {
		return Invalid("wake_time", "sleep cannot exceed 24 hours")
	}
	if s.Quality != nil && (*s.Quality < 1 || *s.Quality > 5) {
		return Invalid("quality", "must be between 1 and 5")
	}
	return nil
}

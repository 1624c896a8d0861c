package aggregate

import (
	"time"

	"github.com/existflow/irontime/internal/model"
)

// SleepSummary condenses the sleep log around now
type SleepSummary struct {
	LastNight     int     `json:"last_night"`
	WeeklyTotal   int     `json:"weekly_total"`
	WeeklyAverage float64 `json:"weekly_average"`
	Nights        int     `json:"nights"`
	AvgQuality    float64 `json:"avg_quality,omitempty"`
}

// Sleep attributes each entry to the day its wake time falls on
func Sleep(entries []model.SleepEntry, now time.Time, opts Options) SleepSummary {
	dayStart, dayEnd := StartOfDay(now), EndOfDay(now)
	weekStart, weekEnd := StartOfWeek(now, opts.WeekStart), EndOfWeek(now, opts.WeekStart)

	var out SleepSummary
	var qualitySum, rated int
	for _, e := range entries {
		wake := e.WakeTime.In(now.Location())
		if Within(wake, dayStart, dayEnd) {
			out.LastNight += e.Minutes()
		}
		if !Within(wake, weekStart, weekEnd) {
			continue
		}
		out.WeeklyTotal += e.Minutes()
		out.Nights++
		if e.Quality != nil {
			qualitySum += *e.Quality
			rated++
		}
	}

	if out.Nights > 0 {
		out.WeeklyAverage = float64(out.WeeklyTotal) / float64(out.Nights)
	}
	if rated > 0 {
		out.AvgQuality = float64(qualitySum) / float64(rated)
	}
	return out
}

// Package aggregate buckets logged minutes per category and computes goal
// progress for the current day and week.
package aggregate

import (
	"time"

	"github.com/existflow/irontime/internal/category"
	"github.com/existflow/irontime/internal/model"
)

// Options tunes the time windows
type Options struct {
	WeekStart time.Weekday // Sunday by default
}

// Summary is the derived activity total of one root category
type Summary struct {
	CategoryID       string         `json:"category_id"`
	TotalTime        int            `json:"total_time"`
	SubcategoryTimes map[string]int `json:"subcategory_times"`
	DailyTime        int            `json:"daily_time"`
	WeeklyTime       int            `json:"weekly_time"`
	DailyGoal        *int           `json:"daily_goal,omitempty"`
	WeeklyGoal       *int           `json:"weekly_goal,omitempty"`

	// Progress values are percentages in [0, 100], unrounded; nil without a goal
	DailyGoalProgress  *float64 `json:"daily_goal_progress,omitempty"`
	WeeklyGoalProgress *float64 `json:"weekly_goal_progress,omitempty"`
	TodayRemaining     *int     `json:"today_remaining,omitempty"`
}

// Aggregate sums activities into one Summary per root of the forest.
// Activities whose category is not in the forest are skipped.
func Aggregate(forest []category.Node, activities []model.Activity, now time.Time, opts Options) map[string]Summary {
	dayStart, dayEnd := StartOfDay(now), EndOfDay(now)
	weekStart, weekEnd := StartOfWeek(now, opts.WeekStart), EndOfWeek(now, opts.WeekStart)

	summaries := make(map[string]*Summary, len(forest))
	for _, n := range forest {
		summaries[n.ID] = &Summary{
			CategoryID:       n.ID,
			SubcategoryTimes: map[string]int{},
			DailyGoal:        n.DailyGoal,
			WeeklyGoal:       n.WeeklyGoal,
		}
	}

	idx := category.Index(forest)
	for _, a := range activities {
		ref, ok := idx[a.CategoryID]
		if !ok {
			continue
		}
		s := summaries[ref.RootID]
		s.TotalTime += a.DurationMinutes
		s.SubcategoryTimes[a.CategoryID] += a.DurationMinutes

		if Within(a.StartedAt, dayStart, dayEnd) {
			s.DailyTime += a.DurationMinutes
		}
		if Within(a.StartedAt, weekStart, weekEnd) {
			s.WeeklyTime += a.DurationMinutes
		}
	}

	out := make(map[string]Summary, len(summaries))
	for id, s := range summaries {
		if goal, ok := positive(s.DailyGoal); ok {
			p := progress(s.DailyTime, goal)
			remaining := goal - s.DailyTime
			if remaining < 0 {
				remaining = 0
			}
			s.DailyGoalProgress = &p
			s.TodayRemaining = &remaining
		}
		if goal, ok := positive(s.WeeklyGoal); ok {
			p := progress(s.WeeklyTime, goal)
			s.WeeklyGoalProgress = &p
		}
		out[id] = *s
	}
	return out
}

func positive(goal *int) (int, bool) {
	if goal == nil || *goal <= 0 {
		return 0, false
	}
	return *goal, true
}

func progress(minutes, goal int) float64 {
	p := 100 * float64(minutes) / float64(goal)
	if p > 100 {
		return 100
	}
	if p < 0 {
		return 0
	}
	return p
}

// DayTotal is the minutes logged on one calendar day
type DayTotal struct {
	Date    time.Time `json:"date"`
	Minutes int       `json:"minutes"`
}

// Daily returns one total per calendar day in [from, to], oldest first,
// including days with nothing logged.
func Daily(activities []model.Activity, from, to time.Time, loc *time.Location) []DayTotal {
	if loc == nil {
		loc = time.Local
	}
	first := StartOfDay(from.In(loc))
	last := StartOfDay(to.In(loc))
	if last.Before(first) {
		return []DayTotal{}
	}

	var days []DayTotal
	pos := make(map[string]int)
	for d := first; !d.After(last); d = d.AddDate(0, 0, 1) {
		pos[d.Format("2006-01-02")] = len(days)
		days = append(days, DayTotal{Date: d})
	}

	for _, a := range activities {
		key := a.StartedAt.In(loc).Format("2006-01-02")
		if i, ok := pos[key]; ok {
			days[i].Minutes += a.DurationMinutes
		}
	}
	return days
}

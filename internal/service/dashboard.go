package service

import (
	"context"
	"time"

	"github.com/existflow/irontime/internal/aggregate"
	"github.com/existflow/irontime/internal/category"
	"github.com/existflow/irontime/internal/logger"
	"github.com/existflow/irontime/internal/model"
	"github.com/existflow/irontime/internal/store"
)

// Cache domains
const (
	DomainCategories = "categories"
	DomainTree       = "tree"
	DomainActivities = "activities"
	DomainDashboard  = "dashboard"
	DomainSleep      = "sleep"
)

// View is everything a dashboard renders
type View struct {
	Tree        []category.Node              `json:"tree"`
	Summaries   map[string]aggregate.Summary `json:"summaries"`
	Orphans     []model.Category             `json:"orphans,omitempty"`
	Sleep       aggregate.SleepSummary       `json:"sleep"`
	Days        []aggregate.DayTotal         `json:"days"`
	WeekStart   string                       `json:"week_start"`
	GeneratedAt time.Time                    `json:"generated_at"`
}

// Categories returns a user's active categories, read through the cache
func (s *Service) Categories(ctx context.Context, userID string) ([]model.Category, bool, error) {
	return readThrough(ctx, s, categoriesKey(userID), func() ([]model.Category, error) {
		return s.store.ListCategories(ctx, userID)
	})
}

// Tree returns the category forest of a user. Orphaned subcategories are
// logged and left out.
func (s *Service) Tree(ctx context.Context, userID string) ([]category.Node, bool, error) {
	cats, cached, err := s.Categories(ctx, userID)
	if err != nil {
		return nil, false, err
	}
	forest, orphans := category.BuildWithOrphans(cats)
	if len(orphans) > 0 {
		logger.Component("tree").Warn("Orphaned categories skipped",
			logger.F("user_id", userID), logger.F("count", len(orphans)))
	}
	return forest, cached, nil
}

// Activities returns a user's activities matching f, read through the cache
func (s *Service) Activities(ctx context.Context, userID string, f store.ActivityFilter) ([]model.Activity, bool, error) {
	return readThrough(ctx, s, activitiesKey(userID, f), func() ([]model.Activity, error) {
		return s.store.ListActivities(ctx, userID, f)
	})
}

// SleepLog returns sleep entries that woke within the last days days
func (s *Service) SleepLog(ctx context.Context, userID string, days int) ([]model.SleepEntry, bool, error) {
	days = sleepDays(days)
	since := aggregate.StartOfDay(s.now()).AddDate(0, 0, -days)
	return readThrough(ctx, s, sleepKey(userID, days), func() ([]model.SleepEntry, error) {
		return s.store.ListSleep(ctx, userID, &since, 0)
	})
}

// Dashboard builds the tree and per-root summaries. days limits the
// activity history considered (0 means everything); the current week is
// always included.
func (s *Service) Dashboard(ctx context.Context, userID string, days int) (View, error) {
	now := s.now()

	cats, _, err := s.Categories(ctx, userID)
	if err != nil {
		return View{}, err
	}

	var f store.ActivityFilter
	if days > 0 {
		from := aggregate.StartOfDay(now).AddDate(0, 0, -(days - 1))
		if ws := aggregate.StartOfWeek(now, s.opts.WeekStart); ws.Before(from) {
			from = ws
		}
		f.From = &from
	}
	acts, _, err := s.Activities(ctx, userID, f)
	if err != nil {
		return View{}, err
	}

	sleep, _, err := s.SleepLog(ctx, userID, 14)
	if err != nil {
		return View{}, err
	}

	forest, orphans := category.BuildWithOrphans(cats)
	if len(orphans) > 0 {
		logger.Component("tree").Warn("Orphaned categories skipped",
			logger.F("user_id", userID), logger.F("count", len(orphans)))
	}
	opts := aggregate.Options{WeekStart: s.opts.WeekStart}

	return View{
		Tree:        forest,
		Summaries:   aggregate.Aggregate(forest, acts, now, opts),
		Orphans:     orphans,
		Sleep:       aggregate.Sleep(sleep, now, opts),
		Days:        aggregate.Daily(acts, aggregate.StartOfWeek(now, s.opts.WeekStart), now, now.Location()),
		WeekStart:   s.opts.WeekStart.String(),
		GeneratedAt: now,
	}, nil
}

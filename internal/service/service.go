// Package service is the application layer between the HTTP handlers and
// the store: cached reads feeding the tree builder and aggregator, and
// writes that invalidate the cache and publish change events.
package service

import (
	"context"
	"encoding/json"
	"time"

	"github.com/existflow/irontime/internal/cache"
	"github.com/existflow/irontime/internal/events"
	"github.com/existflow/irontime/internal/logger"
	"github.com/existflow/irontime/internal/model"
	"github.com/existflow/irontime/internal/store"
)

// Store is the persistence the service needs; *store.Store implements it
type Store interface {
	ListCategories(ctx context.Context, userID string) ([]model.Category, error)
	CreateCategory(ctx context.Context, c model.Category) (model.Category, error)
	UpdateCategory(ctx context.Context, userID, id string, patch model.CategoryPatch) (model.Category, error)
	DeleteCategory(ctx context.Context, userID, id string) ([]string, error)
	SeedDefaults(ctx context.Context, userID string) ([]model.Category, error)

	ListActivities(ctx context.Context, userID string, f store.ActivityFilter) ([]model.Activity, error)
	CreateActivities(ctx context.Context, userID string, acts []model.Activity) ([]model.Activity, error)
	DeleteActivity(ctx context.Context, userID, id string) error

	ListSleep(ctx context.Context, userID string, since *time.Time, limit int) ([]model.SleepEntry, error)
	CreateSleep(ctx context.Context, e model.SleepEntry) (model.SleepEntry, error)
	DeleteSleep(ctx context.Context, userID, id string) error
}

// Options configures a Service
type Options struct {
	CacheTTL  time.Duration
	WeekStart time.Weekday
}

// Service serves dashboards and performs writes for all users
type Service struct {
	store Store
	cache cache.Cache
	bus   *events.Bus
	opts  Options
	now   func() time.Time
}

// New creates a service. A nil bus disables event publishing.
func New(st Store, c cache.Cache, bus *events.Bus, opts Options) *Service {
	if c == nil {
		c = cache.NewMemory()
	}
	return &Service{
		store: st,
		cache: c,
		bus:   bus,
		opts:  opts,
		now:   time.Now,
	}
}

// WeekStart returns the configured first day of the week
func (s *Service) WeekStart() time.Weekday {
	return s.opts.WeekStart
}

// readThrough returns the cached value for key or loads, caches and returns
// it. Cache failures are logged and never fail the read.
func readThrough[T any](ctx context.Context, s *Service, key string, load func() (T, error)) (T, bool, error) {
	log := logger.Component("cache")

	data, ok, err := s.cache.Get(ctx, key)
	if err != nil {
		log.Warn("Cache read failed", logger.F("key", key), logger.F("error", err))
	}
	if ok {
		var v T
		if err := json.Unmarshal(data, &v); err == nil {
			return v, true, nil
		}
		log.Warn("Dropping undecodable cache entry", logger.F("key", key))
		_, _ = s.cache.Delete(ctx, key)
	}

	v, err := load()
	if err != nil {
		var zero T
		return zero, false, err
	}

	if encoded, err := json.Marshal(v); err == nil {
		if err := s.cache.Set(ctx, key, encoded, s.opts.CacheTTL); err != nil {
			log.Warn("Cache write failed", logger.F("key", key), logger.F("error", err))
		}
	}
	return v, false, nil
}

// invalidate drops every cached entry of a user
func (s *Service) invalidate(ctx context.Context, userID string) {
	n, err := s.cache.DeletePrefix(ctx, cache.UserPrefix(userID))
	if err != nil {
		logger.Component("cache").Warn("Cache invalidation failed",
			logger.F("user_id", userID), logger.F("error", err))
		return
	}
	logger.Component("cache").Debug("Cache invalidated", logger.F("user_id", userID), logger.F("entries", n))
}

func (s *Service) publish(e events.Event) {
	if s.bus == nil {
		return
	}
	if e.At.IsZero() {
		e.At = s.now()
	}
	s.bus.Publish(e)
}

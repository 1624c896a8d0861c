package server

import (
	"context"
	"time"

	"github.com/existflow/irontime/internal/logger"
	"github.com/robfig/cron/v3"
)

// startJobs schedules the periodic cleanup
func (s *Server) startJobs() error {
	s.cron = cron.New()
	if _, err := s.cron.AddFunc(s.cfg.CleanupSchedule, func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
		defer cancel()
		s.cleanup(ctx)
	}); err != nil {
		return err
	}
	s.cron.Start()
	logger.Component("jobs").Info("Cleanup scheduled", logger.F("schedule", s.cfg.CleanupSchedule))
	return nil
}

// cleanup drops expired cache entries, expired sessions and ended
// rate-limit windows
func (s *Server) cleanup(ctx context.Context) {
	log := logger.Component("jobs")

	entries, err := s.cache.Purge(ctx)
	if err != nil {
		log.Error("Cache purge failed", logger.F("error", err))
	}

	sessions, err := s.users.PurgeSessions(ctx, s.now())
	if err != nil {
		log.Error("Session purge failed", logger.F("error", err))
	}

	windows := s.limiter.Sweep()

	log.Info("Cleanup finished",
		logger.F("cache_entries", entries),
		logger.F("sessions", sessions),
		logger.F("rate_windows", windows),
		logger.F("dropped_events", s.bus.Dropped()),
	)
}

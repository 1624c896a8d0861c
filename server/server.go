// Package server is the irontime HTTP API: accounts, categories,
// activities, sleep, dashboards, the cache endpoint and the change feed.
package server

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/existflow/irontime/internal/cache"
	"github.com/existflow/irontime/internal/config"
	"github.com/existflow/irontime/internal/events"
	"github.com/existflow/irontime/internal/logger"
	"github.com/existflow/irontime/internal/model"
	"github.com/existflow/irontime/internal/ratelimit"
	"github.com/existflow/irontime/internal/service"
	"github.com/existflow/irontime/internal/store"
	"github.com/jmoiron/sqlx"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/robfig/cron/v3"
)

// Users is the account and session storage the server needs
type Users interface {
	CreateUser(ctx context.Context, username, email, passwordHash string) (string, error)
	GetUserByUsername(ctx context.Context, username string) (model.User, error)
	GetUser(ctx context.Context, id string) (model.User, error)
	CreateSession(ctx context.Context, userID, token string, expiresAt time.Time) error
	GetSession(ctx context.Context, token string) (model.Session, error)
	DeleteSession(ctx context.Context, token string) error
	PurgeSessions(ctx context.Context, now time.Time) (int, error)
}

// Server is the irontime API server
type Server struct {
	cfg     *config.ServerConfig
	db      *sqlx.DB
	users   Users
	svc     *service.Service
	cache   cache.Cache
	limiter *ratelimit.FixedWindow
	bus     *events.Bus
	echo    *echo.Echo
	cron    *cron.Cron
	now     func() time.Time

	// done is closed on Shutdown to end open event streams
	done     chan struct{}
	stopOnce sync.Once
}

// New connects to Postgres, runs migrations and builds the server
func New(ctx context.Context, cfg *config.ServerConfig) (*Server, error) {
	db, err := store.Open(ctx, cfg.DatabaseURL)
	if err != nil {
		return nil, err
	}

	if err := migrate(ctx, db); err != nil {
		db.Close()
		return nil, err
	}

	var c cache.Cache = cache.NewMemory()
	if cfg.CacheBackend == config.CachePostgres {
		c = cache.NewSQL(db)
	}

	st := store.New(db)
	s := newServer(cfg, st, st, c)
	s.db = db
	return s, nil
}

func newServer(cfg *config.ServerConfig, users Users, data service.Store, c cache.Cache) *Server {
	bus := events.NewBus()
	s := &Server{
		cfg:     cfg,
		users:   users,
		cache:   c,
		limiter: ratelimit.NewFixedWindow(cfg.RateLimit, cfg.RateWindow),
		bus:     bus,
		now:     time.Now,
		done:    make(chan struct{}),
	}
	s.svc = service.New(data, c, bus, service.Options{
		CacheTTL:  cfg.CacheTTL,
		WeekStart: cfg.Weekday(),
	})
	s.setupEcho()
	return s
}

func (s *Server) setupEcho() {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.Use(requestLogger)
	e.Use(middleware.Recover())
	e.Use(middleware.RequestID())
	e.Use(middleware.CORS())

	e.GET("/health", s.handleHealth)

	api := e.Group("/api/v1")

	// Public
	api.POST("/register", s.handleRegister)
	api.POST("/login", s.handleLogin)

	protected := api.Group("")
	protected.Use(s.authMiddleware)
	protected.GET("/me", s.handleMe)
	protected.POST("/logout", s.handleLogout)

	protected.GET("/categories", s.handleListCategories)
	protected.POST("/categories", s.handleCreateCategory)
	protected.GET("/categories/tree", s.handleCategoryTree)
	protected.POST("/categories/seed", s.handleSeedCategories)
	protected.PATCH("/categories/:id", s.handleUpdateCategory)
	protected.DELETE("/categories/:id", s.handleDeleteCategory)

	protected.GET("/activities", s.handleListActivities)
	protected.POST("/activities", s.handleCreateActivity)
	protected.POST("/activities/bulk", s.handleBulkActivities)
	protected.POST("/activities/parse", s.handleParseActivities)
	protected.DELETE("/activities/:id", s.handleDeleteActivity)

	protected.GET("/sleep", s.handleListSleep)
	protected.POST("/sleep", s.handleCreateSleep)
	protected.DELETE("/sleep/:id", s.handleDeleteSleep)

	protected.GET("/dashboard", s.handleDashboard)
	protected.POST("/cache", s.handleCache, s.rateLimit())
	protected.GET("/events", s.handleEvents)

	s.echo = e
}

// requestLogger logs every request through the application logger
func requestLogger(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		start := time.Now()
		err := next(c)
		if err != nil {
			c.Error(err)
		}

		req := c.Request()
		res := c.Response()
		fields := []logger.Field{
			logger.F("method", req.Method),
			logger.F("uri", req.RequestURI),
			logger.F("status", res.Status),
			logger.F("size", res.Size),
			logger.F("duration", time.Since(start).String()),
			logger.F("request_id", res.Header().Get(echo.HeaderXRequestID)),
		}
		if res.Status >= http.StatusInternalServerError {
			logger.Component("http").Error("HTTP request", fields...)
		} else {
			logger.Component("http").Info("HTTP request", fields...)
		}
		return nil
	}
}

// Router returns the HTTP handler
func (s *Server) Router() http.Handler {
	return s.echo
}

// Start runs the background jobs and serves HTTP until shutdown
func (s *Server) Start(addr string) error {
	if err := s.startJobs(); err != nil {
		return err
	}
	logger.Info("Server listening", logger.F("addr", addr))
	return s.echo.Start(addr)
}

// Shutdown stops accepting requests and waits for running jobs
func (s *Server) Shutdown(ctx context.Context) error {
	s.stopOnce.Do(func() { close(s.done) })
	if s.cron != nil {
		<-s.cron.Stop().Done()
	}
	return s.echo.Shutdown(ctx)
}

// Close closes the database connection
func (s *Server) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *Server) handleHealth(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]any{
		"status":      "ok",
		"subscribers": s.bus.Subscribers(),
	})
}

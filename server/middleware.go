package server

import (
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/existflow/irontime/internal/store"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
)

// authMiddleware checks for a valid session token
func (s *Server) authMiddleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		auth := c.Request().Header.Get("Authorization")
		if auth == "" {
			return jsonError(c, http.StatusUnauthorized, "authorization required")
		}

		token := strings.TrimPrefix(auth, "Bearer ")
		if token == auth || token == "" {
			return jsonError(c, http.StatusUnauthorized, "invalid authorization format")
		}

		session, err := s.users.GetSession(c.Request().Context(), token)
		if errors.Is(err, store.ErrNotFound) {
			return jsonError(c, http.StatusUnauthorized, "invalid token")
		}
		if err != nil {
			return fail(c, err)
		}
		if session.IsExpired(s.now()) {
			return jsonError(c, http.StatusUnauthorized, "token expired")
		}

		c.Set("user_id", session.UserID)
		c.Set("token", token)
		return next(c)
	}
}

// rateLimit limits each user to the configured number of requests per window
func (s *Server) rateLimit() echo.MiddlewareFunc {
	return middleware.RateLimiterWithConfig(middleware.RateLimiterConfig{
		Store: s.limiter,
		IdentifierExtractor: func(c echo.Context) (string, error) {
			if id := userID(c); id != "" {
				return id, nil
			}
			return c.RealIP(), nil
		},
		ErrorHandler: func(c echo.Context, err error) error {
			return jsonError(c, http.StatusForbidden, "unable to identify caller")
		},
		DenyHandler: func(c echo.Context, identifier string, err error) error {
			reset := s.limiter.ResetAt(identifier)
			c.Response().Header().Set("Retry-After", retryAfter(reset.Sub(s.now())))
			return jsonError(c, http.StatusTooManyRequests, "rate limit exceeded")
		},
	})
}

// retryAfter renders d as whole seconds, at least one
func retryAfter(d time.Duration) string {
	secs := int((d + time.Second - 1) / time.Second)
	if secs < 1 {
		secs = 1
	}
	return strconv.Itoa(secs)
}

package server

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"net/http"
	"net/mail"
	"strings"
	"time"

	"github.com/existflow/irontime/internal/logger"
	"github.com/existflow/irontime/internal/store"
	"github.com/labstack/echo/v4"
	"golang.org/x/crypto/bcrypt"
)

type registerRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type authResponse struct {
	Token     string `json:"token"`
	ExpiresAt string `json:"expires_at"`
	UserID    string `json:"user_id"`
}

// handleRegister creates an account, seeds its default categories and logs it in
func (s *Server) handleRegister(c echo.Context) error {
	var req registerRequest
	if err := c.Bind(&req); err != nil {
		return jsonError(c, http.StatusBadRequest, "invalid request")
	}

	req.Username = strings.TrimSpace(req.Username)
	req.Email = strings.TrimSpace(req.Email)
	if req.Username == "" || req.Email == "" || req.Password == "" {
		return jsonError(c, http.StatusBadRequest, "username, email, and password required")
	}
	if _, err := mail.ParseAddress(req.Email); err != nil {
		return jsonError(c, http.StatusBadRequest, "invalid email address")
	}
	if len(req.Password) < 8 {
		return jsonError(c, http.StatusBadRequest, "password must be at least 8 characters")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return fail(c, err)
	}

	ctx := c.Request().Context()
	id, err := s.users.CreateUser(ctx, req.Username, req.Email, string(hash))
	if errors.Is(err, store.ErrConflict) {
		return jsonError(c, http.StatusConflict, "username or email already exists")
	}
	if err != nil {
		return fail(c, err)
	}

	if _, err := s.svc.SeedDefaults(ctx, id); err != nil {
		logger.Component("auth").Warn("Failed to seed default categories",
			logger.F("user_id", id), logger.F("error", err))
	}

	resp, err := s.createSession(c, id)
	if err != nil {
		return fail(c, err)
	}

	logger.Component("auth").Info("User registered", logger.F("username", req.Username))
	return c.JSON(http.StatusCreated, resp)
}

// handleLogin exchanges credentials for a session token
func (s *Server) handleLogin(c echo.Context) error {
	var req loginRequest
	if err := c.Bind(&req); err != nil {
		return jsonError(c, http.StatusBadRequest, "invalid request")
	}

	user, err := s.users.GetUserByUsername(c.Request().Context(), strings.TrimSpace(req.Username))
	if errors.Is(err, store.ErrNotFound) {
		return jsonError(c, http.StatusUnauthorized, "invalid credentials")
	}
	if err != nil {
		return fail(c, err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		return jsonError(c, http.StatusUnauthorized, "invalid credentials")
	}

	resp, err := s.createSession(c, user.ID)
	if err != nil {
		return fail(c, err)
	}

	logger.Component("auth").Info("User logged in", logger.F("username", user.Username))
	return c.JSON(http.StatusOK, resp)
}

// handleMe returns current user info
func (s *Server) handleMe(c echo.Context) error {
	user, err := s.users.GetUser(c.Request().Context(), userID(c))
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, user)
}

// handleLogout ends the session of the presented token
func (s *Server) handleLogout(c echo.Context) error {
	token, _ := c.Get("token").(string)
	if err := s.users.DeleteSession(c.Request().Context(), token); err != nil && !errors.Is(err, store.ErrNotFound) {
		return fail(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

// createSession issues a random bearer token valid for the session TTL
func (s *Server) createSession(c echo.Context, userID string) (authResponse, error) {
	tokenBytes := make([]byte, 32)
	if _, err := rand.Read(tokenBytes); err != nil {
		return authResponse{}, err
	}
	token := hex.EncodeToString(tokenBytes)
	expiresAt := s.now().Add(s.cfg.SessionTTL)

	if err := s.users.CreateSession(c.Request().Context(), userID, token, expiresAt); err != nil {
		return authResponse{}, err
	}
	return authResponse{
		Token:     token,
		ExpiresAt: expiresAt.UTC().Format(time.RFC3339),
		UserID:    userID,
	}, nil
}

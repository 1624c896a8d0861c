package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/existflow/irontime/internal/model"
)

// CreateUser inserts an account and returns its id
func (s *Store) CreateUser(ctx context.Context, username, email, passwordHash string) (string, error) {
	var userID string
	err := s.db.QueryRowContext(ctx, `
		INSERT INTO users (username, email, password_hash)
		VALUES ($1, $2, $3)
		RETURNING id`,
		username, email, passwordHash,
	).Scan(&userID)
	if err != nil {
		if isUniqueViolation(err) {
			return "", ErrConflict
		}
		return "", fmt.Errorf("failed to create user: %w", err)
	}
	return userID, nil
}

// GetUserByUsername looks up an account for login
func (s *Store) GetUserByUsername(ctx context.Context, username string) (model.User, error) {
	return s.getUser(ctx, `
		SELECT id, username, email, password_hash, created_at
		FROM users WHERE username = $1`, username)
}

// GetUser looks up an account by id
func (s *Store) GetUser(ctx context.Context, id string) (model.User, error) {
	return s.getUser(ctx, `
		SELECT id, username, email, password_hash, created_at
		FROM users WHERE id = $1`, id)
}

func (s *Store) getUser(ctx context.Context, query string, arg string) (model.User, error) {
	var u model.User
	if err := s.db.GetContext(ctx, &u, query, arg); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.User{}, ErrNotFound
		}
		return model.User{}, fmt.Errorf("failed to get user: %w", err)
	}
	return u, nil
}

// CreateSession stores a bearer token for a user
func (s *Store) CreateSession(ctx context.Context, userID, token string, expiresAt time.Time) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO sessions (user_id, token, expires_at)
		VALUES ($1, $2, $3)`,
		userID, token, expiresAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create session: %w", err)
	}
	return nil
}

// GetSession returns the session for a bearer token
func (s *Store) GetSession(ctx context.Context, token string) (model.Session, error) {
	var sess model.Session
	err := s.db.GetContext(ctx, &sess, `
		SELECT id, user_id, token, expires_at, created_at
		FROM sessions WHERE token = $1`, token)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.Session{}, ErrNotFound
		}
		return model.Session{}, fmt.Errorf("failed to get session: %w", err)
	}
	return sess, nil
}

// DeleteSession revokes a bearer token
func (s *Store) DeleteSession(ctx context.Context, token string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM sessions WHERE token = $1`, token)
	return err
}

// PurgeSessions deletes sessions that expired before now
func (s *Store) PurgeSessions(ctx context.Context, now time.Time) (int, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM sessions WHERE expires_at < $1`, now)
	if err != nil {
		return 0, fmt.Errorf("failed to purge sessions: %w", err)
	}
	n, err := res.RowsAffected()
	return int(n), err
}

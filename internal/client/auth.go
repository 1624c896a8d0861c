package client

import (
	"context"
	"net/http"

	"github.com/existflow/irontime/internal/model"
)

type authResult struct {
	Token     string `json:"token"`
	ExpiresAt string `json:"expires_at"`
	UserID    string `json:"user_id"`
}

func (c *Client) remember(username string, res authResult) error {
	c.session.Token = res.Token
	c.session.UserID = res.UserID
	c.session.ExpiresAt = res.ExpiresAt
	c.session.Username = username
	return c.saveSession()
}

// Register creates an account and stores its session
func (c *Client) Register(ctx context.Context, username, email, password string) error {
	var res authResult
	err := c.do(ctx, http.MethodPost, "/register", nil, map[string]string{
		"username": username,
		"email":    email,
		"password": password,
	}, &res)
	if err != nil {
		return err
	}
	return c.remember(username, res)
}

// Login authenticates and stores the session
func (c *Client) Login(ctx context.Context, username, password string) error {
	var res authResult
	err := c.do(ctx, http.MethodPost, "/login", nil, map[string]string{
		"username": username,
		"password": password,
	}, &res)
	if err != nil {
		return err
	}
	return c.remember(username, res)
}

// Logout ends the session on the server and forgets it locally. The local
// session is cleared even when the server cannot be reached.
func (c *Client) Logout(ctx context.Context) error {
	var err error
	if c.IsLoggedIn() {
		err = c.do(ctx, http.MethodPost, "/logout", nil, nil, nil)
		if IsStatus(err, http.StatusUnauthorized) {
			err = nil
		}
	}
	salt := c.session.Salt
	*c.session = Session{ServerURL: c.session.ServerURL, Salt: salt}
	if saveErr := c.saveSession(); saveErr != nil {
		return saveErr
	}
	return err
}

// Me returns the logged-in account
func (c *Client) Me(ctx context.Context) (model.User, error) {
	var u model.User
	if err := c.authed(); err != nil {
		return u, err
	}
	err := c.do(ctx, http.MethodGet, "/me", nil, nil, &u)
	return u, err
}

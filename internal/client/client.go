// Package client talks to the irontime server on behalf of the CLI and
// TUI.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/existflow/irontime/internal/config"
	"github.com/existflow/irontime/internal/logger"
)

// ErrNotLoggedIn is returned by calls that need a session
var ErrNotLoggedIn = errors.New("not logged in, run 'irontime auth login' first")

// APIError is a non-2xx response from the server
type APIError struct {
	Status  int
	Message string
	Field   string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("server returned %d: %s", e.Status, e.Message)
}

// IsStatus reports whether err is an APIError with the given status
func IsStatus(err error, status int) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Status == status
}

// Session is what the client remembers between runs
type Session struct {
	ServerURL string `json:"server_url"`
	Token     string `json:"token"`
	UserID    string `json:"user_id"`
	Username  string `json:"username,omitempty"`
	ExpiresAt string `json:"expires_at,omitempty"`
	Salt      string `json:"salt,omitempty"` // base64 salt for notes encryption
}

// Client is the irontime API client
type Client struct {
	session     *Session
	sessionPath string
	httpClient  *http.Client
}

// DefaultSessionPath returns ~/.irontime/client.json
func DefaultSessionPath() (string, error) {
	dir, err := config.Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "client.json"), nil
}

// New creates a client persisting its session at sessionPath. serverURL
// overrides the stored server when not empty.
func New(serverURL, sessionPath string) *Client {
	c := &Client{
		sessionPath: sessionPath,
		httpClient:  &http.Client{Timeout: 30 * time.Second},
	}
	c.loadSession()
	if serverURL != "" {
		c.session.ServerURL = strings.TrimRight(serverURL, "/")
	}
	return c
}

// NewFromConfig creates a client for the configured server
func NewFromConfig(cfg *config.Config) (*Client, error) {
	path, err := DefaultSessionPath()
	if err != nil {
		return nil, err
	}
	return New(cfg.ServerURL, path), nil
}

func (c *Client) loadSession() {
	c.session = &Session{ServerURL: "http://localhost:8080"}

	data, err := os.ReadFile(c.sessionPath)
	if err != nil {
		return
	}
	if err := json.Unmarshal(data, c.session); err != nil {
		logger.Component("client").Warn("Ignoring unreadable session file",
			logger.F("path", c.sessionPath), logger.F("error", err))
		c.session = &Session{ServerURL: "http://localhost:8080"}
	}
}

func (c *Client) saveSession() error {
	if err := os.MkdirAll(filepath.Dir(c.sessionPath), 0755); err != nil {
		return err
	}
	data, err := json.MarshalIndent(c.session, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(c.sessionPath, data, 0600)
}

// ServerURL returns the server the client talks to
func (c *Client) ServerURL() string {
	return c.session.ServerURL
}

// Session returns a copy of the stored session
func (c *Client) Session() Session {
	return *c.session
}

// IsLoggedIn returns true if a token is stored
func (c *Client) IsLoggedIn() bool {
	return c.session.Token != ""
}

// do sends a JSON request and decodes a JSON response into out
func (c *Client) do(ctx context.Context, method, path string, query url.Values, body, out any) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(data)
	}

	u := c.session.ServerURL + "/api/v1" + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, method, u, reader)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.session.Token != "" {
		req.Header.Set("Authorization", "Bearer "+c.session.Token)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to connect: %w", err)
	}
	defer resp.Body.Close()

	logger.Component("client").Debug("API call",
		logger.F("method", method),
		logger.F("path", path),
		logger.F("status", resp.StatusCode),
		logger.F("duration", time.Since(start).String()))

	if resp.StatusCode >= 300 {
		return decodeError(resp)
	}
	if out == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

func decodeError(resp *http.Response) error {
	data, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	apiErr := &APIError{Status: resp.StatusCode}

	var body struct {
		Error string `json:"error"`
		Field string `json:"field"`
	}
	if json.Unmarshal(data, &body) == nil && body.Error != "" {
		apiErr.Message = body.Error
		apiErr.Field = body.Field
	} else {
		apiErr.Message = strings.TrimSpace(string(data))
	}
	if apiErr.Message == "" {
		apiErr.Message = http.StatusText(resp.StatusCode)
	}
	return apiErr
}

func (c *Client) authed() error {
	if !c.IsLoggedIn() {
		return ErrNotLoggedIn
	}
	return nil
}

func itoa(n int) string {
	return strconv.Itoa(n)
}

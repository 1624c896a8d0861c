package client

import (
	"context"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/existflow/irontime/internal/category"
	"github.com/existflow/irontime/internal/model"
	"github.com/existflow/irontime/internal/service"
)

// NewCategory is the body of a create-category call
type NewCategory struct {
	Name       string  `json:"name"`
	Color      string  `json:"color,omitempty"`
	ParentID   *string `json:"parent_id,omitempty"`
	SortOrder  int     `json:"sort_order,omitempty"`
	DailyGoal  *int    `json:"daily_goal,omitempty"`
	WeeklyGoal *int    `json:"weekly_goal,omitempty"`
}

// NewActivity is one activity to log
type NewActivity struct {
	CategoryID      string     `json:"category_id"`
	StartedAt       *time.Time `json:"started_at,omitempty"`
	DurationMinutes int        `json:"duration_minutes"`
	Notes           string     `json:"notes,omitempty"`
}

// FromActivity converts a model activity to a request body
func FromActivity(a model.Activity) NewActivity {
	n := NewActivity{CategoryID: a.CategoryID, DurationMinutes: a.DurationMinutes, Notes: a.Notes}
	if !a.StartedAt.IsZero() {
		started := a.StartedAt
		n.StartedAt = &started
	}
	return n
}

// ActivityQuery narrows ListActivities
type ActivityQuery struct {
	From        *time.Time
	To          *time.Time
	CategoryIDs []string
	Limit       int
}

func (q ActivityQuery) values() url.Values {
	v := url.Values{}
	if q.From != nil {
		v.Set("from", q.From.Format(time.RFC3339))
	}
	if q.To != nil {
		v.Set("to", q.To.Format(time.RFC3339))
	}
	if len(q.CategoryIDs) > 0 {
		v.Set("categories", strings.Join(q.CategoryIDs, ","))
	}
	if q.Limit > 0 {
		v.Set("limit", itoa(q.Limit))
	}
	return v
}

// Categories lists the user's categories
func (c *Client) Categories(ctx context.Context) ([]model.Category, error) {
	var out []model.Category
	if err := c.authed(); err != nil {
		return nil, err
	}
	err := c.do(ctx, http.MethodGet, "/categories", nil, nil, &out)
	return out, err
}

// Tree returns the category forest
func (c *Client) Tree(ctx context.Context) ([]category.Node, error) {
	var out []category.Node
	if err := c.authed(); err != nil {
		return nil, err
	}
	err := c.do(ctx, http.MethodGet, "/categories/tree", nil, nil, &out)
	return out, err
}

// CreateCategory adds a root or subcategory
func (c *Client) CreateCategory(ctx context.Context, req NewCategory) (model.Category, error) {
	var out model.Category
	if err := c.authed(); err != nil {
		return out, err
	}
	err := c.do(ctx, http.MethodPost, "/categories", nil, req, &out)
	return out, err
}

// UpdateCategory patches a category
func (c *Client) UpdateCategory(ctx context.Context, id string, patch model.CategoryPatch) (model.Category, error) {
	var out model.Category
	if err := c.authed(); err != nil {
		return out, err
	}
	err := c.do(ctx, http.MethodPatch, "/categories/"+url.PathEscape(id), nil, patch, &out)
	return out, err
}

// DeleteCategory removes a category with its subcategories and activities
func (c *Client) DeleteCategory(ctx context.Context, id string) ([]string, error) {
	var out struct {
		Removed []string `json:"removed"`
	}
	if err := c.authed(); err != nil {
		return nil, err
	}
	err := c.do(ctx, http.MethodDelete, "/categories/"+url.PathEscape(id), nil, nil, &out)
	return out.Removed, err
}

// SeedCategories creates the starter categories when the account has none
func (c *Client) SeedCategories(ctx context.Context) (int, error) {
	var out struct {
		Seeded int `json:"seeded"`
	}
	if err := c.authed(); err != nil {
		return 0, err
	}
	err := c.do(ctx, http.MethodPost, "/categories/seed", nil, nil, &out)
	return out.Seeded, err
}

// Activities lists activities, newest first
func (c *Client) Activities(ctx context.Context, q ActivityQuery) ([]model.Activity, error) {
	var out []model.Activity
	if err := c.authed(); err != nil {
		return nil, err
	}
	err := c.do(ctx, http.MethodGet, "/activities", q.values(), nil, &out)
	return out, err
}

// LogActivity stores one activity
func (c *Client) LogActivity(ctx context.Context, a NewActivity) (model.Activity, error) {
	var out model.Activity
	if err := c.authed(); err != nil {
		return out, err
	}
	err := c.do(ctx, http.MethodPost, "/activities", nil, a, &out)
	return out, err
}

// LogActivities stores a batch; either all are stored or none
func (c *Client) LogActivities(ctx context.Context, acts []NewActivity) ([]model.Activity, error) {
	var out struct {
		Created []model.Activity `json:"created"`
	}
	if err := c.authed(); err != nil {
		return nil, err
	}
	err := c.do(ctx, http.MethodPost, "/activities/bulk", nil, map[string]any{"activities": acts}, &out)
	return out.Created, err
}

// DeleteActivity removes one activity
func (c *Client) DeleteActivity(ctx context.Context, id string) error {
	if err := c.authed(); err != nil {
		return err
	}
	return c.do(ctx, http.MethodDelete, "/activities/"+url.PathEscape(id), nil, nil, nil)
}

// ParseText sends a free-text log; with commit the entries are stored
func (c *Client) ParseText(ctx context.Context, text string, commit bool) (service.Import, error) {
	var out service.Import
	if err := c.authed(); err != nil {
		return out, err
	}
	q := url.Values{}
	if commit {
		q.Set("commit", "true")
	}
	err := c.do(ctx, http.MethodPost, "/activities/parse", q, map[string]string{"text": text}, &out)
	return out, err
}

// Sleep lists sleep entries of the last days days
func (c *Client) Sleep(ctx context.Context, days int) ([]model.SleepEntry, error) {
	var out []model.SleepEntry
	if err := c.authed(); err != nil {
		return nil, err
	}
	q := url.Values{}
	if days > 0 {
		q.Set("days", itoa(days))
	}
	err := c.do(ctx, http.MethodGet, "/sleep", q, nil, &out)
	return out, err
}

// LogSleep stores one night
func (c *Client) LogSleep(ctx context.Context, bed, wake time.Time, quality *int, notes string) (model.SleepEntry, error) {
	var out model.SleepEntry
	if err := c.authed(); err != nil {
		return out, err
	}
	err := c.do(ctx, http.MethodPost, "/sleep", nil, map[string]any{
		"bed_time":  bed,
		"wake_time": wake,
		"quality":   quality,
		"notes":     notes,
	}, &out)
	return out, err
}

// Dashboard returns the tree with goal summaries. days 0 covers all
// history; a negative value uses the server default.
func (c *Client) Dashboard(ctx context.Context, days int) (service.View, error) {
	var out service.View
	if err := c.authed(); err != nil {
		return out, err
	}
	q := url.Values{}
	if days >= 0 {
		q.Set("days", itoa(days))
	}
	err := c.do(ctx, http.MethodGet, "/dashboard", q, nil, &out)
	return out, err
}

// Lookup reads one data type through the server cache
func (c *Client) Lookup(ctx context.Context, kind string, params map[string]string) (service.LookupResult, error) {
	var out service.LookupResult
	if err := c.authed(); err != nil {
		return out, err
	}
	err := c.do(ctx, http.MethodPost, "/cache", nil, map[string]any{"type": kind, "params": params}, &out)
	return out, err
}

// Invalidate drops cached data on the server
func (c *Client) Invalidate(ctx context.Context, kind string) error {
	if err := c.authed(); err != nil {
		return err
	}
	return c.do(ctx, http.MethodPost, "/cache", nil, map[string]any{"type": kind, "invalidate": true}, nil)
}

package server

import (
	"net/http"
	"strconv"
	"time"

	"github.com/existflow/irontime/internal/model"
	"github.com/existflow/irontime/internal/service"
	"github.com/labstack/echo/v4"
)

// maxBulkActivities bounds one bulk insert
const maxBulkActivities = 500

type activityRequest struct {
	CategoryID      string     `json:"category_id"`
	StartedAt       *time.Time `json:"started_at"`
	DurationMinutes int        `json:"duration_minutes"`
	Notes           string     `json:"notes"`
}

func (r activityRequest) activity(userID string, now time.Time) model.Activity {
	a := model.Activity{
		UserID:          userID,
		CategoryID:      r.CategoryID,
		DurationMinutes: r.DurationMinutes,
		Notes:           r.Notes,
	}
	if r.StartedAt != nil {
		a.StartedAt = *r.StartedAt
	} else {
		a.StartedAt = now.Add(-time.Duration(r.DurationMinutes) * time.Minute)
	}
	return a
}

type bulkRequest struct {
	Activities []activityRequest `json:"activities"`
}

type parseRequest struct {
	Text      string     `json:"text"`
	Reference *time.Time `json:"reference"`
}

// queryParams flattens single-valued query parameters
func queryParams(c echo.Context) map[string]string {
	out := map[string]string{}
	for k, v := range c.QueryParams() {
		if len(v) > 0 {
			out[k] = v[0]
		}
	}
	return out
}

func (s *Server) handleListActivities(c echo.Context) error {
	f, err := service.ActivityFilterFromParams(queryParams(c))
	if err != nil {
		return fail(c, err)
	}

	acts, _, err := s.svc.Activities(c.Request().Context(), userID(c), f)
	if err != nil {
		return fail(c, err)
	}
	if acts == nil {
		acts = []model.Activity{}
	}
	return c.JSON(http.StatusOK, acts)
}

func (s *Server) handleCreateActivity(c echo.Context) error {
	var req activityRequest
	if err := c.Bind(&req); err != nil {
		return jsonError(c, http.StatusBadRequest, "invalid request")
	}

	created, err := s.svc.CreateActivity(c.Request().Context(), req.activity(userID(c), s.now()))
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusCreated, created)
}

// handleBulkActivities stores a batch of activities; all or nothing
func (s *Server) handleBulkActivities(c echo.Context) error {
	var req bulkRequest
	if err := c.Bind(&req); err != nil {
		return jsonError(c, http.StatusBadRequest, "invalid request")
	}
	if len(req.Activities) > maxBulkActivities {
		return jsonError(c, http.StatusRequestEntityTooLarge,
			"at most "+strconv.Itoa(maxBulkActivities)+" activities per request")
	}

	uid, now := userID(c), s.now()
	acts := make([]model.Activity, len(req.Activities))
	for i, r := range req.Activities {
		acts[i] = r.activity(uid, now)
	}

	created, err := s.svc.CreateActivities(c.Request().Context(), uid, acts)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusCreated, map[string]any{"created": created})
}

// handleParseActivities parses a text log; with ?commit=true the entries are stored
func (s *Server) handleParseActivities(c echo.Context) error {
	var req parseRequest
	if err := c.Bind(&req); err != nil {
		return jsonError(c, http.StatusBadRequest, "invalid request")
	}

	commit, _ := strconv.ParseBool(c.QueryParam("commit"))
	ref := s.now()
	if req.Reference != nil {
		ref = *req.Reference
	}

	res, err := s.svc.ImportText(c.Request().Context(), userID(c), req.Text, ref, commit)
	if err != nil {
		return fail(c, err)
	}
	status := http.StatusOK
	if commit && len(res.Created) > 0 {
		status = http.StatusCreated
	}
	return c.JSON(status, res)
}

func (s *Server) handleDeleteActivity(c echo.Context) error {
	if err := s.svc.DeleteActivity(c.Request().Context(), userID(c), c.Param("id")); err != nil {
		return fail(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

package server

import (
	"net/http"
	"strconv"
	"time"

	"github.com/existflow/irontime/internal/model"
	"github.com/labstack/echo/v4"
)

type sleepRequest struct {
	BedTime  time.Time `json:"bed_time"`
	WakeTime time.Time `json:"wake_time"`
	Quality  *int      `json:"quality"`
	Notes    string    `json:"notes"`
}

func (s *Server) handleListSleep(c echo.Context) error {
	days := 14
	if v := c.QueryParam("days"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			return fail(c, model.Invalid("days", "must be a positive integer"))
		}
		days = n
	}

	entries, _, err := s.svc.SleepLog(c.Request().Context(), userID(c), days)
	if err != nil {
		return fail(c, err)
	}
	if entries == nil {
		entries = []model.SleepEntry{}
	}
	return c.JSON(http.StatusOK, entries)
}

func (s *Server) handleCreateSleep(c echo.Context) error {
	var req sleepRequest
	if err := c.Bind(&req); err != nil {
		return jsonError(c, http.StatusBadRequest, "invalid request")
	}

	created, err := s.svc.CreateSleep(c.Request().Context(), model.SleepEntry{
		UserID:   userID(c),
		BedTime:  req.BedTime,
		WakeTime: req.WakeTime,
		Quality:  req.Quality,
		Notes:    req.Notes,
	})
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusCreated, created)
}

func (s *Server) handleDeleteSleep(c echo.Context) error {
	if err := s.svc.DeleteSleep(c.Request().Context(), userID(c), c.Param("id")); err != nil {
		return fail(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

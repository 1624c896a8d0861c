package server

import (
	"net/http"
	"strconv"

	"github.com/existflow/irontime/internal/model"
	"github.com/labstack/echo/v4"
)

// defaultDashboardDays is the activity history a dashboard covers
const defaultDashboardDays = 30

func (s *Server) handleDashboard(c echo.Context) error {
	days := defaultDashboardDays
	if v := c.QueryParam("days"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			return fail(c, model.Invalid("days", "must be a non-negative integer"))
		}
		days = n
	}

	view, err := s.svc.Dashboard(c.Request().Context(), userID(c), days)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, view)
}

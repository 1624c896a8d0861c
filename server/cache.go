package server

import (
	"fmt"
	"net/http"

	"github.com/existflow/irontime/internal/logger"
	"github.com/labstack/echo/v4"
)

type cacheRequest struct {
	Type       string         `json:"type"`
	Params     map[string]any `json:"params"`
	Invalidate bool           `json:"invalidate"`
}

func (r cacheRequest) params() map[string]string {
	if len(r.Params) == 0 {
		return nil
	}
	out := make(map[string]string, len(r.Params))
	for k, v := range r.Params {
		if v == nil {
			continue
		}
		out[k] = fmt.Sprint(v)
	}
	return out
}

// handleCache reads a data type through the cache or invalidates it
func (s *Server) handleCache(c echo.Context) error {
	var req cacheRequest
	if err := c.Bind(&req); err != nil {
		return jsonError(c, http.StatusBadRequest, "invalid request")
	}

	ctx := c.Request().Context()
	uid := userID(c)

	if req.Invalidate {
		n, err := s.svc.Invalidate(ctx, uid, req.Type, req.params())
		if err != nil {
			return fail(c, err)
		}
		logger.Component("cache").Debug("Cache invalidated by request",
			logger.F("user_id", uid), logger.F("type", req.Type), logger.F("entries", n))
		return c.JSON(http.StatusOK, map[string]any{"success": true, "removed": n})
	}

	if req.Type == "" {
		return jsonError(c, http.StatusBadRequest, "type is required")
	}

	res, err := s.svc.Lookup(ctx, uid, req.Type, req.params())
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, res)
}

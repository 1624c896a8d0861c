package server

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/existflow/irontime/internal/logger"
	"github.com/labstack/echo/v4"
)

const (
	eventBuffer       = 16
	heartbeatInterval = 15 * time.Second
)

// handleEvents streams the caller's change events as server-sent events
func (s *Server) handleEvents(c echo.Context) error {
	uid := userID(c)
	ch, cancel := s.bus.Subscribe(uid, eventBuffer)
	defer cancel()

	res := c.Response()
	res.Header().Set(echo.HeaderContentType, "text/event-stream")
	res.Header().Set("Cache-Control", "no-cache")
	res.Header().Set("Connection", "keep-alive")
	res.WriteHeader(http.StatusOK)

	if _, err := fmt.Fprint(res, ": connected\n\n"); err != nil {
		return nil
	}
	res.Flush()

	log := logger.Component("events").WithFields(logger.F("user_id", uid))
	log.Debug("Subscriber connected")
	defer log.Debug("Subscriber disconnected")

	heartbeat := time.NewTicker(heartbeatInterval)
	defer heartbeat.Stop()

	ctx := c.Request().Context()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-s.done:
			return nil
		case <-heartbeat.C:
			if _, err := fmt.Fprint(res, ": ping\n\n"); err != nil {
				return nil
			}
			res.Flush()
		case e, ok := <-ch:
			if !ok {
				return nil
			}
			data, err := json.Marshal(e)
			if err != nil {
				log.Warn("Dropping unencodable event", logger.F("error", err))
				continue
			}
			if _, err := fmt.Fprintf(res, "event: %s\ndata: %s\n\n", e.Type, data); err != nil {
				return nil
			}
			res.Flush()
		}
	}
}

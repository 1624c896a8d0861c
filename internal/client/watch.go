package client

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/existflow/irontime/internal/events"
	"github.com/existflow/irontime/internal/logger"
)

// Watch streams the user's change events until ctx ends or the server
// closes the stream. fn is called for every event.
func (c *Client) Watch(ctx context.Context, fn func(events.Event)) error {
	if err := c.authed(); err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.session.ServerURL+"/api/v1/events", nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "text/event-stream")
	req.Header.Set("Authorization", "Bearer "+c.session.Token)

	// The stream outlives the regular request timeout
	stream := &http.Client{Transport: c.httpClient.Transport}
	resp, err := stream.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil
		}
		return fmt.Errorf("failed to connect: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return decodeError(resp)
	}

	err = readEvents(resp, fn)
	if ctx.Err() != nil {
		return nil
	}
	return err
}

// readEvents parses a server-sent event stream
func readEvents(resp *http.Response, fn func(events.Event)) error {
	scanner := bufio.NewScanner(resp.Body)
	var data strings.Builder

	for scanner.Scan() {
		line := scanner.Text()
		switch {
		case line == "":
			if data.Len() == 0 {
				continue
			}
			var e events.Event
			if err := json.Unmarshal([]byte(data.String()), &e); err != nil {
				logger.Component("client").Warn("Skipping malformed event", logger.F("error", err))
			} else {
				fn(e)
			}
			data.Reset()
		case strings.HasPrefix(line, ":"):
			// comment or heartbeat
		case strings.HasPrefix(line, "data:"):
			if data.Len() > 0 {
				data.WriteByte('\n')
			}
			data.WriteString(strings.TrimSpace(strings.TrimPrefix(line, "data:")))
		}
	}
	return scanner.Err()
}

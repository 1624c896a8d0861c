package tui

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/existflow/irontime/internal/client"
	"github.com/existflow/irontime/internal/events"
	"github.com/existflow/irontime/internal/logger"
	"github.com/existflow/irontime/internal/model"
	"github.com/existflow/irontime/internal/service"
	"github.com/existflow/irontime/internal/textlog"
	"github.com/existflow/irontime/internal/timer"
)

// dashboardDays is the history window the TUI asks for
const dashboardDays = 30

// tickMsg is sent every second for the clock and timer
type tickMsg time.Time

// refreshMsg is sent when the upload loop stored queued activities
type refreshMsg struct{}

// eventMsg carries a change made by another client
type eventMsg events.Event

type dashboardMsg struct {
	view service.View
	err  error
}

type loggedMsg struct {
	path    string
	minutes int
	queued  bool
	err     error
}

// Init loads the dashboard and starts the background listeners
func (m Model) Init() tea.Cmd {
	return tea.Batch(tickCmd(), m.loadDashboard(), m.waitForRefresh(), m.waitForEvent())
}

func tickCmd() tea.Cmd {
	return tea.Every(time.Second, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func (m Model) waitForRefresh() tea.Cmd {
	if m.refreshChan == nil {
		return nil
	}
	return func() tea.Msg {
		<-m.refreshChan
		return refreshMsg{}
	}
}

func (m Model) waitForEvent() tea.Cmd {
	if m.eventChan == nil {
		return nil
	}
	return func() tea.Msg {
		return eventMsg(<-m.eventChan)
	}
}

func (m Model) loadDashboard() tea.Cmd {
	c := m.client
	if c == nil {
		return nil
	}
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		v, err := c.Dashboard(ctx, dashboardDays)
		return dashboardMsg{view: v, err: err}
	}
}

// Update handles messages
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tickMsg:
		if m.timer != nil && m.timer.Expired(time.Time(msg)) && !strings.HasPrefix(m.message, "⏰") {
			m.message = fmt.Sprintf("⏰ %s countdown finished, press t to log it", m.timer.CategoryPath)
		}
		return m, tickCmd()

	case dashboardMsg:
		if msg.err != nil {
			m.err = msg.err
			logger.Component("tui").Warn("Failed to load dashboard", logger.F("error", msg.err))
			return m, nil
		}
		m.err = nil
		m.setView(msg.view)
		return m, nil

	case refreshMsg:
		m.loadTimer()
		m.message = "Queued activities uploaded"
		return m, tea.Batch(m.loadDashboard(), m.waitForRefresh())

	case eventMsg:
		m.live = true
		logger.Component("tui").Debug("Change received", logger.F("type", msg.Type))
		return m, tea.Batch(m.loadDashboard(), m.waitForEvent())

	case loggedMsg:
		if msg.err != nil {
			m.message = "Error: " + msg.err.Error()
			return m, nil
		}
		m.loadTimer()
		if msg.queued {
			m.message = fmt.Sprintf("Queued %s on %s (offline)", formatMinutes(msg.minutes), msg.path)
			return m, nil
		}
		m.message = fmt.Sprintf("Logged %s on %s", formatMinutes(msg.minutes), msg.path)
		return m, m.loadDashboard()

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case tea.KeyMsg:
		switch m.mode {
		case ModeLog:
			return m.updateInput(msg)
		case ModeHelp:
			m.mode = ModeNormal
			return m, nil
		}
		return m.handleNormalKeys(msg)
	}

	return m, nil
}

// handleNormalKeys handles key presses in normal mode
func (m Model) handleNormalKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, keys.Quit):
		m.stop()
		return m, tea.Quit

	case key.Matches(msg, keys.Up):
		if m.cursor > 0 {
			m.cursor--
		}

	case key.Matches(msg, keys.Down):
		if m.cursor < len(m.rows)-1 {
			m.cursor++
		}

	case key.Matches(msg, keys.Log):
		m.mode = ModeLog
		m.input.Reset()
		if r := m.current(); r != nil {
			m.input.SetValue(r.path + " ")
		}
		m.input.Focus()
		return m, nil

	case key.Matches(msg, keys.Timer):
		return m.toggleTimer()

	case key.Matches(msg, keys.Pause):
		m.pauseTimer()

	case key.Matches(msg, keys.Refresh):
		m.message = "Refreshing..."
		m.loadTimer()
		return m, m.loadDashboard()

	case key.Matches(msg, keys.Help):
		m.mode = ModeHelp
	}

	return m, nil
}

// updateInput handles the quick-log line
func (m Model) updateInput(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, keys.Escape):
		m.mode = ModeNormal
		m.input.Blur()
		return m, nil

	case key.Matches(msg, keys.Enter):
		line := strings.TrimSpace(m.input.Value())
		m.mode = ModeNormal
		m.input.Blur()
		if line == "" {
			return m, nil
		}

		res := textlog.Parse(line, m.view.Tree, m.now())
		if len(res.Errors) > 0 {
			m.message = "Error: " + res.Errors[0].Reason
			return m, nil
		}
		if len(res.Entries) == 0 {
			return m, nil
		}
		e := res.Entries[0]
		return m, m.submit(e.Activity(), e.CategoryPath)
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m Model) toggleTimer() (tea.Model, tea.Cmd) {
	if m.local == nil {
		return m, nil
	}
	ctx := context.Background()
	now := m.now()

	if m.timer != nil {
		t := m.timer
		activity, err := t.Stop(now)
		if errors.Is(err, timer.ErrTooShort) {
			_ = m.local.ClearTimer(ctx)
			m.timer = nil
			m.message = "Timer discarded, it ran for less than a minute"
			return m, nil
		}
		if err != nil {
			m.message = "Error: " + err.Error()
			return m, nil
		}
		if err := m.local.ClearTimer(ctx); err != nil {
			m.message = "Error: " + err.Error()
			return m, nil
		}
		m.timer = nil
		return m, m.submit(activity, t.CategoryPath)
	}

	r := m.current()
	if r == nil {
		m.message = "No category selected"
		return m, nil
	}
	t, err := timer.Start(r.cat.ID, r.path, 0, now)
	if err != nil {
		m.message = "Error: " + err.Error()
		return m, nil
	}
	if err := m.local.SaveTimer(ctx, t); err != nil {
		m.message = "Error: " + err.Error()
		return m, nil
	}
	m.timer = t
	m.message = "Timing " + r.path
	return m, nil
}

func (m *Model) pauseTimer() {
	if m.timer == nil || m.local == nil {
		return
	}
	now := m.now()
	var err error
	if m.timer.Running() {
		err = m.timer.Pause(now)
	} else {
		err = m.timer.Resume(now)
	}
	if err == nil {
		err = m.local.SaveTimer(context.Background(), m.timer)
	}
	if err != nil {
		m.message = "Error: " + err.Error()
	}
}

// submit logs an activity, queueing it locally when the server is
// unreachable
func (m Model) submit(a model.Activity, path string) tea.Cmd {
	c, local, crypto := m.client, m.local, m.crypto
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()

		req := client.FromActivity(a)
		if crypto != nil {
			notes, err := crypto.EncryptNotes(req.Notes)
			if err != nil {
				return loggedMsg{err: err}
			}
			req.Notes = notes
		}

		_, err := c.LogActivity(ctx, req)
		if err == nil {
			return loggedMsg{path: path, minutes: a.DurationMinutes}
		}
		var apiErr *client.APIError
		if errors.As(err, &apiErr) || errors.Is(err, client.ErrNotLoggedIn) || local == nil {
			return loggedMsg{err: err}
		}
		if _, qerr := local.Enqueue(ctx, a); qerr != nil {
			return loggedMsg{err: qerr}
		}
		return loggedMsg{path: path, minutes: a.DurationMinutes, queued: true}
	}
}

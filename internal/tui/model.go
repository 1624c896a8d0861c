package tui

import (
	"context"
	"errors"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/existflow/irontime/internal/category"
	"github.com/existflow/irontime/internal/client"
	"github.com/existflow/irontime/internal/db"
	"github.com/existflow/irontime/internal/events"
	"github.com/existflow/irontime/internal/logger"
	"github.com/existflow/irontime/internal/model"
	"github.com/existflow/irontime/internal/service"
	"github.com/existflow/irontime/internal/timer"
)

// Mode represents the current UI mode
type Mode int

const (
	ModeNormal Mode = iota
	ModeLog
	ModeHelp
)

// row is one selectable line of the category sidebar
type row struct {
	cat    model.Category
	rootID string
	path   string
}

// Model is the main TUI model
type Model struct {
	client    *client.Client
	local     *db.DB
	crypto    *client.Crypto
	weekStart time.Weekday

	view    service.View
	rows    []row
	timer   *timer.Timer
	pending int64
	loaded  bool

	// Background feeds
	cancel      context.CancelFunc
	refreshChan chan struct{}
	eventChan   chan events.Event
	live        bool

	// UI state
	width  int
	height int
	mode   Mode
	cursor int

	// Input
	input textinput.Model

	message string
	err     error
	now     func() time.Time
}

// NewModel creates a new TUI model. crypto may be nil when notes are
// stored in plain text.
func NewModel(c *client.Client, local *db.DB, weekStart time.Weekday, crypto *client.Crypto) Model {
	logger.Info("Initializing TUI model")

	ti := textinput.New()
	ti.Placeholder = "45m Health/Exercise - notes"
	ti.CharLimit = 256
	ti.Width = 50

	m := Model{
		client:      c,
		local:       local,
		crypto:      crypto,
		weekStart:   weekStart,
		mode:        ModeNormal,
		input:       ti,
		refreshChan: make(chan struct{}, 1), // Buffered to avoid blocking
		eventChan:   make(chan events.Event, 16),
		now:         time.Now,
	}
	m.loadTimer()
	m.start()
	return m
}

// start launches the event stream and the upload loop when a client is set
func (m *Model) start() {
	if m.client == nil || m.cancel != nil {
		return
	}
	ctx, cancel := context.WithCancel(context.Background())
	m.cancel = cancel

	if m.local != nil {
		up := client.NewUploader(m.client, m.local).WithCrypto(m.crypto)
		up.SetOnFlush(func(sent int) {
			logger.Debug("Queued activities uploaded", logger.F("count", sent))
			m.signalRefresh()
		})
		go up.Run(ctx)
	}

	go func() {
		for ctx.Err() == nil {
			err := m.client.Watch(ctx, func(e events.Event) {
				select {
				case m.eventChan <- e:
				default:
				}
			})
			if ctx.Err() != nil {
				return
			}
			logger.Component("tui").Debug("Event stream closed, retrying", logger.F("error", err))
			select {
			case <-ctx.Done():
				return
			case <-time.After(5 * time.Second):
			}
		}
	}()
}

func (m *Model) stop() {
	if m.cancel != nil {
		m.cancel()
	}
}

func (m *Model) signalRefresh() {
	select {
	case m.refreshChan <- struct{}{}:
	default:
	}
}

func (m *Model) loadTimer() {
	if m.local == nil {
		return
	}
	ctx := context.Background()
	t, err := m.local.LoadTimer(ctx)
	switch {
	case err == nil:
		m.timer = t
	case errors.Is(err, timer.ErrNoTimer):
		m.timer = nil
	default:
		logger.Warn("Failed to load timer", logger.F("error", err))
	}
	if n, err := m.local.PendingCount(ctx); err == nil {
		m.pending = n
	}
}

// setView replaces the dashboard and rebuilds the sidebar rows
func (m *Model) setView(v service.View) {
	m.view = v
	m.loaded = true
	m.rows = rowsFor(v.Tree)
	if m.cursor >= len(m.rows) {
		m.cursor = len(m.rows) - 1
	}
	if m.cursor < 0 {
		m.cursor = 0
	}
}

func rowsFor(forest []category.Node) []row {
	idx := category.Index(forest)
	var rows []row
	for _, c := range category.Flatten(forest) {
		ref := idx[c.ID]
		path := c.Name
		if ref.RootID != c.ID {
			path = idx[ref.RootID].Category.Name + "/" + c.Name
		}
		rows = append(rows, row{cat: c, rootID: ref.RootID, path: path})
	}
	return rows
}

func (m *Model) current() *row {
	if m.cursor < len(m.rows) {
		return &m.rows[m.cursor]
	}
	return nil
}

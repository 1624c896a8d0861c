package tui

import "github.com/charmbracelet/bubbles/key"

// keyMap defines all key bindings
type keyMap struct {
	Up      key.Binding
	Down    key.Binding
	Log     key.Binding
	Timer   key.Binding
	Pause   key.Binding
	Enter   key.Binding
	Help    key.Binding
	Quit    key.Binding
	Escape  key.Binding
	Refresh key.Binding
}

var keys = keyMap{
	Up:      key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑/k", "up")),
	Down:    key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("↓/j", "down")),
	Log:     key.NewBinding(key.WithKeys("a", "l"), key.WithHelp("a", "log time")),
	Timer:   key.NewBinding(key.WithKeys("t", " "), key.WithHelp("t", "start/stop timer")),
	Pause:   key.NewBinding(key.WithKeys("p"), key.WithHelp("p", "pause/resume timer")),
	Enter:   key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "submit")),
	Help:    key.NewBinding(key.WithKeys("?"), key.WithHelp("?", "help")),
	Quit:    key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
	Escape:  key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "cancel")),
	Refresh: key.NewBinding(key.WithKeys("R", "r"), key.WithHelp("r", "refresh")),
}

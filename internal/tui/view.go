package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/existflow/irontime/internal/aggregate"
)

const sidebarWidth = 30

// View renders the UI
func (m Model) View() string {
	if m.width == 0 {
		return "Loading..."
	}

	var mainContent string
	switch {
	case m.mode == ModeHelp:
		mainContent = m.renderHelp()
	case m.mode == ModeLog:
		mainContent = lipgloss.Place(
			m.width, m.height-2,
			lipgloss.Center, lipgloss.Center,
			m.renderModal(),
			lipgloss.WithWhitespaceChars(" "),
		)
	default:
		mainContent = lipgloss.JoinHorizontal(lipgloss.Top, m.renderSidebar(), m.renderDetail())
	}

	return lipgloss.JoinVertical(lipgloss.Left, mainContent, m.renderStatusBar())
}

func (m Model) renderSidebar() string {
	var b strings.Builder
	b.WriteString(lipgloss.NewStyle().Bold(true).Foreground(Primary).Render("IronTime") + "\n")
	b.WriteString(HelpStyle.Render(m.now().Format("Mon Jan 2 15:04")) + "\n")
	b.WriteString(lipgloss.NewStyle().Foreground(Border).Render(strings.Repeat("─", sidebarWidth-4)) + "\n\n")

	if !m.loaded {
		b.WriteString(HelpStyle.Render("loading..."))
	} else if len(m.rows) == 0 {
		b.WriteString(HelpStyle.Render("No categories.\nRun: irontime category seed"))
	}

	for i, r := range m.rows {
		cursor := "  "
		style := ItemStyle
		if i == m.cursor {
			cursor = "❯ "
			style = ItemSelectedStyle
		}
		name := r.cat.Name
		indent := ""
		if !r.cat.IsRoot() {
			indent = "  "
		}
		s := m.view.Summaries[r.rootID]
		minutes := s.DailyTime
		if !r.cat.IsRoot() {
			minutes = s.SubcategoryTimes[r.cat.ID]
		}
		line := fmt.Sprintf("%s%s%s %-*s %6s", cursor, indent, Swatch(r.cat.Color),
			14-len(indent), truncate(name, 14-len(indent)), formatMinutes(minutes))
		b.WriteString(style.Render(line) + "\n")
	}

	return SidebarStyle.Width(sidebarWidth).Height(m.height - 4).Render(b.String())
}

func (m Model) renderDetail() string {
	width := m.width - sidebarWidth - 2
	var b strings.Builder

	if t := m.timer; t != nil {
		now := m.now()
		var line string
		switch {
		case t.IsCountdown() && t.Expired(now):
			line = fmt.Sprintf("⏰ %s  done (%s)", t.CategoryPath, clock(t.Elapsed(now)))
		case t.IsCountdown():
			line = fmt.Sprintf("⏳ %s  %s left", t.CategoryPath, clock(t.Remaining(now)))
		default:
			line = fmt.Sprintf("⏱  %s  %s", t.CategoryPath, clock(t.Elapsed(now)))
		}
		if !t.Running() {
			line += "  (paused)"
		}
		b.WriteString(HeaderStyle.Render(line) + "\n\n")
	}

	r := m.current()
	if r == nil {
		if m.err != nil {
			b.WriteString(lipgloss.NewStyle().Foreground(GoalBehind).Render("Error: "+m.err.Error()) + "\n")
		}
		return DetailStyle.Width(width).Height(m.height - 4).Render(b.String())
	}

	s := m.view.Summaries[r.rootID]
	root := r.path
	if i := strings.Index(root, "/"); i >= 0 {
		root = root[:i]
	}
	b.WriteString(lipgloss.NewStyle().Bold(true).Foreground(Primary).Render(root) + "\n\n")
	b.WriteString(goalLine("Today", s.DailyTime, s.DailyGoal, s.DailyGoalProgress) + "\n")
	b.WriteString(goalLine("Week", s.WeeklyTime, s.WeeklyGoal, s.WeeklyGoalProgress) + "\n")
	if s.TodayRemaining != nil && *s.TodayRemaining > 0 {
		b.WriteString(HelpStyle.Render(fmt.Sprintf("        %s to go today", formatMinutes(*s.TodayRemaining))) + "\n")
	}
	b.WriteString(HelpStyle.Render(fmt.Sprintf("        %s in the last %d days", formatMinutes(s.TotalTime), dashboardDays)) + "\n")

	for _, n := range m.view.Tree {
		if n.ID != r.rootID || len(n.Children) == 0 {
			continue
		}
		b.WriteString("\n")
		for _, c := range n.Children {
			marker := "  "
			if c.ID == r.cat.ID {
				marker = "▸ "
			}
			b.WriteString(fmt.Sprintf("%s%-18s %s\n", marker, truncate(c.Name, 18), formatMinutes(s.SubcategoryTimes[c.ID])))
		}
	}

	if len(m.view.Days) > 0 {
		b.WriteString("\n" + HelpStyle.Render("This week") + "\n")
		b.WriteString(weekChart(m.view.Days) + "\n")
	}
	if sl := m.view.Sleep; sl.Nights > 0 {
		b.WriteString(fmt.Sprintf("\n😴 last night %s, week avg %s over %d nights\n",
			formatMinutes(sl.LastNight), formatMinutes(int(sl.WeeklyAverage)), sl.Nights))
	}

	return DetailStyle.Width(width).Height(m.height - 4).Render(b.String())
}

func goalLine(label string, minutes int, goal *int, pct *float64) string {
	if goal == nil || pct == nil {
		return fmt.Sprintf("%-6s  %s", label, formatMinutes(minutes))
	}
	style := GoalStyle(*pct)
	return fmt.Sprintf("%-6s  %s %s  %s / %s", label,
		style.Render(progressBar(*pct, 20)),
		style.Render(fmt.Sprintf("%3.0f%%", *pct)),
		formatMinutes(minutes), formatMinutes(*goal))
}

// weekChart renders one bar per day scaled to the busiest day
func weekChart(days []aggregate.DayTotal) string {
	most := 0
	for _, d := range days {
		if d.Minutes > most {
			most = d.Minutes
		}
	}
	var b strings.Builder
	for _, d := range days {
		pct := 0.0
		if most > 0 {
			pct = float64(d.Minutes) / float64(most) * 100
		}
		b.WriteString(fmt.Sprintf("%s %s %s\n", d.Date.Format("Mon"), progressBar(pct, 16), formatMinutes(d.Minutes)))
	}
	return strings.TrimRight(b.String(), "\n")
}

func (m Model) renderStatusBar() string {
	var status string
	switch {
	case m.err != nil:
		status = lipgloss.NewStyle().Foreground(Offline).Render("○ offline")
	case m.live:
		status = lipgloss.NewStyle().Foreground(LiveEnabled).Render("● live")
	default:
		status = lipgloss.NewStyle().Foreground(LiveEnabled).Render("● online")
	}
	if m.pending > 0 {
		status += HelpStyle.Render(fmt.Sprintf("  %d queued", m.pending))
	}

	help := "a log  t timer  p pause  r refresh  ? help  q quit"
	msg := m.message
	if msg != "" {
		msg = "  " + msg
	}
	return StatusBarStyle.Width(m.width).Render(status + msg + "  " + HelpStyle.Render(help))
}

func (m Model) renderModal() string {
	title := lipgloss.NewStyle().Bold(true).Foreground(Primary).Render("Log time")
	hint := HelpStyle.Render("duration and category, e.g. 45m Health/Exercise - notes\nenter to save, esc to cancel")
	return ModalStyle.Render(title + "\n\n" + m.input.View() + "\n\n" + hint)
}

func (m Model) renderHelp() string {
	bindings := []struct{ key, desc string }{
		{keys.Up.Help().Key, keys.Up.Help().Desc},
		{keys.Down.Help().Key, keys.Down.Help().Desc},
		{keys.Log.Help().Key, keys.Log.Help().Desc},
		{keys.Timer.Help().Key, keys.Timer.Help().Desc},
		{keys.Pause.Help().Key, keys.Pause.Help().Desc},
		{keys.Refresh.Help().Key, keys.Refresh.Help().Desc},
		{keys.Help.Help().Key, keys.Help.Help().Desc},
		{keys.Quit.Help().Key, keys.Quit.Help().Desc},
	}
	var b strings.Builder
	b.WriteString(lipgloss.NewStyle().Bold(true).Foreground(Primary).Render("Keyboard shortcuts") + "\n\n")
	for _, kb := range bindings {
		b.WriteString(fmt.Sprintf("  %-8s %s\n", kb.key, kb.desc))
	}
	b.WriteString("\n" + HelpStyle.Render("press any key to close"))
	return ModalStyle.Render(b.String())
}

package tui

import "github.com/charmbracelet/lipgloss"

// Color palette
var (
	// Goal colors
	GoalMet     = lipgloss.Color("#95E1A3") // Green
	GoalClose   = lipgloss.Color("#FFE66D") // Yellow
	GoalBehind  = lipgloss.Color("#FF6B6B") // Red
	Offline     = lipgloss.Color("#6C757D") // Gray
	LiveEnabled = lipgloss.Color("#95E1A3")

	// UI colors
	Primary   = lipgloss.Color("#4ECDC4")
	Surface   = lipgloss.Color("#16213e")
	TextMuted = lipgloss.Color("#888888")
	Border    = lipgloss.Color("#333333")
)

// Styles
var (
	HeaderStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(Primary).
			Padding(0, 1)

	SidebarStyle = lipgloss.NewStyle().
			BorderStyle(lipgloss.NormalBorder()).
			BorderRight(true).
			BorderForeground(Border).
			Padding(1, 1)

	DetailStyle = lipgloss.NewStyle().
			Padding(1, 2)

	ItemStyle = lipgloss.NewStyle().
			Padding(0, 1)

	ItemSelectedStyle = lipgloss.NewStyle().
				Padding(0, 1).
				Background(Surface).
				Bold(true)

	StatusBarStyle = lipgloss.NewStyle().
			Foreground(TextMuted).
			Padding(0, 1).
			BorderStyle(lipgloss.NormalBorder()).
			BorderTop(true).
			BorderForeground(Border)

	ModalStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(Primary).
			Padding(1, 2)

	HelpStyle = lipgloss.NewStyle().
			Foreground(TextMuted)
)

// GoalStyle colors a progress percentage
func GoalStyle(pct float64) lipgloss.Style {
	switch {
	case pct >= 100:
		return lipgloss.NewStyle().Foreground(GoalMet).Bold(true)
	case pct >= 50:
		return lipgloss.NewStyle().Foreground(GoalClose)
	default:
		return lipgloss.NewStyle().Foreground(GoalBehind)
	}
}

// Swatch renders a category color dot, falling back to the primary color
func Swatch(hex string) string {
	color := Primary
	if hex != "" {
		color = lipgloss.Color(hex)
	}
	return lipgloss.NewStyle().Foreground(color).Render("●")
}

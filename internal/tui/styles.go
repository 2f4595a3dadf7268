package tui

import "github.com/charmbracelet/lipgloss"

var (
	// Colors
	primaryColor   = lipgloss.Color("#7D56F4") // Purple accent
	secondaryColor = lipgloss.Color("#6C6C6C") // Gray for secondary text
	successColor   = lipgloss.Color("#73F59F") // Green for success
	warnColor      = lipgloss.Color("#F5D273") // Yellow for partial state
	errorColor     = lipgloss.Color("#FF6B6B") // Red for errors

	// TitleStyle for headers
	TitleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(primaryColor).
			MarginBottom(1)

	// SubtleStyle for hints/help text
	SubtleStyle = lipgloss.NewStyle().
			Foreground(secondaryColor)

	// SelectedStyle for the cursor row and active tab
	SelectedStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(primaryColor)

	// StatusBarStyle for the bottom status bar
	StatusBarStyle = lipgloss.NewStyle().
			Background(lipgloss.Color("#333333")).
			Foreground(lipgloss.Color("#FFFFFF")).
			Padding(0, 1)

	// BoxStyle for panel borders
	BoxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(secondaryColor).
			Padding(1, 2)

	// SuccessStyle for installed markers and success messages
	SuccessStyle = lipgloss.NewStyle().
			Foreground(successColor)

	// WarnStyle for partially installed markers
	WarnStyle = lipgloss.NewStyle().
			Foreground(warnColor)

	// ErrorStyle for error messages
	ErrorStyle = lipgloss.NewStyle().
			Foreground(errorColor)
)

// ApplyTheme switches the accent color. Unknown themes keep the
// default.
func ApplyTheme(theme string) {
	switch theme {
	case "green":
		primaryColor = lipgloss.Color("#2ECC71")
	case "blue":
		primaryColor = lipgloss.Color("#3498DB")
	case "amber":
		primaryColor = lipgloss.Color("#F39C12")
	default:
		return
	}
	TitleStyle = TitleStyle.Foreground(primaryColor)
	SelectedStyle = SelectedStyle.Foreground(primaryColor)
}

package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// View implements tea.Model.
func (m Model) View() string {
	if m.width == 0 || m.height == 0 {
		return ""
	}
	if m.width < MinTerminalWidth || m.height < MinTerminalHeight {
		return m.renderTerminalTooSmall()
	}

	switch m.screen {
	case ScreenRunning:
		return m.renderRunning()
	case ScreenReport:
		return m.renderReport()
	default:
		return m.renderBrowse()
	}
}

func (m Model) renderTerminalTooSmall() string {
	msg := fmt.Sprintf("Terminal too small\nMinimum: %dx%d\nCurrent: %dx%d",
		MinTerminalWidth, MinTerminalHeight, m.width, m.height)
	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, ErrorStyle.Render(msg))
}

func (m Model) renderBrowse() string {
	var b strings.Builder

	b.WriteString(m.renderTabs())
	b.WriteString("\n")

	list := m.renderList()
	if m.showDetail {
		detailBox := BoxStyle.
			Width(m.detail.Width + 2).
			Padding(0, 1).
			Render(m.detail.View())
		b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top, list, detailBox))
	} else {
		b.WriteString(list)
	}
	b.WriteString("\n")

	selected := m.selections[m.tab].Count()
	status := []string{
		fmt.Sprintf("%d selected", selected),
		"space select", "enter details", "tab switch",
		"i install", "u uninstall", "r reset", "m remediate", "q quit",
	}
	b.WriteString(m.renderStatusBar(status))

	return b.String()
}

func (m Model) renderTabs() string {
	tasks := fmt.Sprintf("Tasks (%d)", len(m.tasks))
	stacks := fmt.Sprintf("Stacks (%d)", len(m.stacks))
	if m.tab == TabTasks {
		tasks = SelectedStyle.Render(tasks)
		stacks = SubtleStyle.Render(stacks)
	} else {
		tasks = SubtleStyle.Render(tasks)
		stacks = SelectedStyle.Render(stacks)
	}
	return TitleStyle.Render("provisor") + "  " + tasks + "  " + stacks
}

func (m Model) renderList() string {
	units := m.currentUnits()
	if len(units) == 0 {
		return SubtleStyle.Render("\n  No definitions found. Add .conf files or configure sources.\n")
	}

	// Leave room for tabs and the status bar.
	visible := m.height - 5
	if visible < 1 {
		visible = 1
	}

	cursor := m.cursors[m.tab]
	start := 0
	if cursor >= visible {
		start = cursor - visible + 1
	}
	end := start + visible
	if end > len(units) {
		end = len(units)
	}

	width := m.width
	if m.showDetail {
		width = m.width - m.detail.Width - 4
	}

	var b strings.Builder
	for i := start; i < end; i++ {
		u := units[i]

		pointer := "  "
		if i == cursor {
			pointer = SelectedStyle.Render("› ")
		}
		check := "  "
		if m.selections[m.tab].IsSelected(i) {
			check = SelectedStyle.Render("* ")
		}

		// Truncate the plain text, not the styled line: byte-slicing
		// styled output can cut an escape sequence or rune in half.
		marker := u.StatusMarker()
		text := u.ListLine()[len(marker):]
		prefix := pointer + check + m.colorMarker(marker)
		if avail := width - lipgloss.Width(prefix); avail > 3 && lipgloss.Width(text) > avail {
			text = truncateText(text, avail-3) + "..."
		}
		b.WriteString(prefix + text)
		b.WriteString("\n")
	}
	return b.String()
}

// truncateText trims plain text to at most max terminal cells,
// dropping whole runes from the end.
func truncateText(s string, max int) string {
	if lipgloss.Width(s) <= max {
		return s
	}
	runes := []rune(s)
	for len(runes) > 0 && lipgloss.Width(string(runes)) > max {
		runes = runes[:len(runes)-1]
	}
	return string(runes)
}

// colorMarker styles the textual status marker without changing it.
func (m Model) colorMarker(marker string) string {
	switch marker {
	case "[✓]":
		return SuccessStyle.Render(marker)
	case "[!]":
		return WarnStyle.Render(marker)
	default:
		return marker
	}
}

func (m Model) renderRunning() string {
	label := fmt.Sprintf("%s Running %s...", m.spinner.View(), m.runningOp)
	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, label)
}

func (m Model) renderReport() string {
	var b strings.Builder

	if m.result.Failed() {
		b.WriteString(ErrorStyle.Render("Batch finished with failures"))
	} else {
		b.WriteString(SuccessStyle.Render("Batch finished"))
	}
	b.WriteString("\n\n")
	b.WriteString(m.result.Summary())
	b.WriteString("\n")

	if len(m.result.Errors) > 0 {
		b.WriteString("\n")
		for _, ue := range m.result.Errors {
			b.WriteString(ErrorStyle.Render("✗ "+ue.Unit) + ": " + ue.Message + "\n")
		}
	}

	b.WriteString("\n")
	b.WriteString(SubtleStyle.Render("enter to continue, q to quit"))

	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, b.String())
}

func (m Model) renderStatusBar(items []string) string {
	content := strings.Join(items, " · ")
	bar := StatusBarStyle.Width(m.width).Render(content)
	return bar
}

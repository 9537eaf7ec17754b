package views

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/tgienger/deck/internal/errors"
	"github.com/tgienger/deck/internal/ui/styles"
)

// StatusMsg asks the app to show a line in the status bar
type StatusMsg struct {
	Text string
	Err  bool
}

// Status reports a one-line message
func Status(format string, args ...interface{}) tea.Cmd {
	text := fmt.Sprintf(format, args...)
	return func() tea.Msg { return StatusMsg{Text: text} }
}

// Failed turns err into a status bar error
func Failed(err error) tea.Cmd {
	return func() tea.Msg { return StatusMsg{Text: errors.Message(err), Err: true} }
}

// Screen is implemented by every top-level view
type Screen interface {
	tea.Model
	// Capturing reports whether keystrokes go to a text input or modal
	Capturing() bool
}

type binding struct {
	key  string
	desc string
}

func renderHelpLine(s *styles.Styles, width int, bindings []binding) string {
	contentWidth := styles.ContentWidth(width)
	// At narrow widths, show hint to press ? for help
	if contentWidth > 0 && contentWidth < 50 {
		return s.Help.Render(s.HelpKey.Render("?") + " help")
	}
	parts := make([]string, len(bindings))
	for i, b := range bindings {
		parts[i] = s.HelpKey.Render(b.key) + " " + b.desc
	}
	return s.Help.Render(strings.Join(parts, " • "))
}

func renderHelpPopup(s *styles.Styles, width, height int, bindings []binding) string {
	items := []string{s.Title.Render("Keyboard Shortcuts"), ""}
	for _, b := range bindings {
		items = append(items, s.HelpKey.Render(fmt.Sprintf("%-7s", b.key))+b.desc)
	}
	items = append(items, "", s.TitleMuted.Render("Press any key to close"))

	centered := lipgloss.Place(styles.ContentWidth(width), height,
		lipgloss.Center, lipgloss.Center,
		s.FilterBar.Render(lipgloss.JoinVertical(lipgloss.Left, items...)),
	)
	return styles.CenterView(centered, width, height)
}

func renderConfirm(s *styles.Styles, width, height int, title, detail string) string {
	content := lipgloss.JoinVertical(lipgloss.Center,
		s.Title.Foreground(styles.Current.Error).Render(title),
		"",
		s.TitleMuted.Render(detail),
		"",
		lipgloss.JoinHorizontal(lipgloss.Center,
			s.ButtonPrimary.Render(" Y - Yes "),
			"  ",
			s.Button.Render(" N - No "),
		),
	)

	centered := lipgloss.Place(styles.ContentWidth(width), height,
		lipgloss.Center, lipgloss.Center,
		content,
	)
	return styles.CenterView(centered, width, height)
}

func truncate(s string, width int) string {
	if width <= 1 || lipgloss.Width(s) <= width {
		return s
	}
	r := []rune(s)
	if len(r) > width-1 {
		r = r[:width-1]
	}
	return string(r) + "…"
}

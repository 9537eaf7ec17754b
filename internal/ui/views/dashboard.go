package views

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/tgienger/deck/internal/store"
	"github.com/tgienger/deck/internal/ui/keys"
	"github.com/tgienger/deck/internal/ui/styles"
)

// Dashboard panes
const (
	paneMeetings = iota
	paneTeams
)

type dashboardLoadedMsg struct {
	errs []error
}

// DashboardView shows metrics, meetings and team rosters
type DashboardView struct {
	ctx       context.Context
	dashboard *store.DashboardStore
	teams     *store.TeamStore
	tasks     *store.TaskStore
	styles    *styles.Styles
	keys      keys.KeyMap

	width  int
	height int

	pane       int
	meetingIdx int
	teamIdx    int

	renaming   bool
	renameTeam string
	renameBox  textinput.Model

	confirmingDelete bool
	deleteTargetID   string
	deleteTargetName string
}

// NewDashboardView creates the dashboard screen
func NewDashboardView(ctx context.Context, dashboard *store.DashboardStore, teams *store.TeamStore, tasks *store.TaskStore) *DashboardView {
	rename := textinput.New()
	rename.Placeholder = "Team name"
	rename.CharLimit = 100

	return &DashboardView{
		ctx:       ctx,
		dashboard: dashboard,
		teams:     teams,
		tasks:     tasks,
		styles:    styles.NewStyles(),
		keys:      keys.DefaultKeyMap(),
		renameBox: rename,
	}
}

func (v *DashboardView) Init() tea.Cmd {
	return v.load
}

// Capturing reports whether the rename box or a confirmation owns the keyboard
func (v *DashboardView) Capturing() bool {
	return v.renaming || v.confirmingDelete
}

func (v *DashboardView) load() tea.Msg {
	var errs []error
	for _, fetch := range []func(context.Context) error{
		v.dashboard.FetchMetrics, v.dashboard.FetchMeetings, v.teams.Fetch,
	} {
		if err := fetch(v.ctx); err != nil {
			errs = append(errs, err)
		}
	}
	return dashboardLoadedMsg{errs: errs}
}

func (v *DashboardView) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		v.width = msg.Width
		v.height = msg.Height
		return v, nil

	case dashboardLoadedMsg:
		v.meetingIdx = styles.Clamp(v.meetingIdx, 0, max(0, len(v.dashboard.Meetings())-1))
		v.teamIdx = styles.Clamp(v.teamIdx, 0, max(0, len(v.teams.Teams())-1))
		if len(msg.errs) > 0 {
			return v, Failed(msg.errs[0])
		}
		return v, nil

	case tea.KeyMsg:
		if v.confirmingDelete {
			return v.updateConfirmDelete(msg)
		}
		if v.renaming {
			return v.updateRenaming(msg)
		}
		return v, v.handleKey(msg)
	}
	return v, nil
}

func (v *DashboardView) handleKey(msg tea.KeyMsg) tea.Cmd {
	meetings := v.dashboard.Meetings()
	teams := v.teams.Teams()

	switch {
	case key.Matches(msg, v.keys.Tab), key.Matches(msg, v.keys.Left), key.Matches(msg, v.keys.Right):
		v.pane = 1 - v.pane
	case key.Matches(msg, v.keys.Up):
		if v.pane == paneMeetings && v.meetingIdx > 0 {
			v.meetingIdx--
		} else if v.pane == paneTeams && v.teamIdx > 0 {
			v.teamIdx--
		}
	case key.Matches(msg, v.keys.Down):
		if v.pane == paneMeetings && v.meetingIdx < len(meetings)-1 {
			v.meetingIdx++
		} else if v.pane == paneTeams && v.teamIdx < len(teams)-1 {
			v.teamIdx++
		}
	case key.Matches(msg, v.keys.Refresh):
		return v.load
	case key.Matches(msg, v.keys.Delete):
		if v.pane == paneMeetings && v.meetingIdx < len(meetings) {
			v.confirmingDelete = true
			v.deleteTargetID = meetings[v.meetingIdx].ID
			v.deleteTargetName = meetings[v.meetingIdx].Title
		}
	case key.Matches(msg, v.keys.Edit):
		if v.pane == paneTeams && v.teamIdx < len(teams) {
			v.renaming = true
			v.renameTeam = teams[v.teamIdx].ID
			v.renameBox.SetValue(teams[v.teamIdx].Name)
			v.renameBox.Focus()
			return textinput.Blink
		}
	}
	return nil
}

func (v *DashboardView) updateConfirmDelete(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "y", "Y":
		v.confirmingDelete = false
		id, name := v.deleteTargetID, v.deleteTargetName
		return v, func() tea.Msg {
			if err := v.dashboard.DeleteMeeting(v.ctx, id); err != nil {
				return dashboardLoadedMsg{errs: []error{err}}
			}
			return StatusMsg{Text: fmt.Sprintf("Cancelled %q", name)}
		}
	case "n", "N", "esc":
		v.confirmingDelete = false
	}
	return v, nil
}

func (v *DashboardView) updateRenaming(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, v.keys.Back):
		v.renaming = false
		v.renameBox.Blur()
		return v, nil
	case key.Matches(msg, v.keys.Enter):
		v.renaming = false
		v.renameBox.Blur()
		id, name := v.renameTeam, v.renameBox.Value()
		return v, func() tea.Msg {
			if err := v.teams.Rename(v.ctx, id, name); err != nil {
				return dashboardLoadedMsg{errs: []error{err}}
			}
			return StatusMsg{Text: "Team renamed"}
		}
	}
	var cmd tea.Cmd
	v.renameBox, cmd = v.renameBox.Update(msg)
	return v, cmd
}

var dashboardBindings = []binding{
	{"tab", "pane"}, {"d", "cancel meeting"}, {"e", "rename team"}, {"r", "refresh"}, {"q", "quit"},
}

// View renders the view
func (v *DashboardView) View() string {
	if v.confirmingDelete {
		return renderConfirm(v.styles, v.width, v.height, "Cancel Meeting?", fmt.Sprintf("%q will be removed.", v.deleteTargetName))
	}
	s := v.styles
	width := styles.ContentWidth(v.width)

	content := lipgloss.JoinVertical(lipgloss.Left,
		s.Title.Render("Dashboard"),
		"",
		v.renderMetrics(width),
		"",
		lipgloss.JoinHorizontal(lipgloss.Top, v.renderMeetings(width/2-2), "  ", v.renderTeams(width/2-2)),
		renderHelpLine(s, v.width, dashboardBindings),
	)
	if msg := v.dashboard.Error(); msg != "" {
		content = lipgloss.JoinVertical(lipgloss.Left, content, s.StatusError.Render(msg))
	}
	return styles.CenterView(content, v.width, v.height)
}

func (v *DashboardView) renderMetrics(width int) string {
	s := v.styles
	m := v.dashboard.Metrics()
	cards := []struct {
		label string
		value int
	}{
		{"Completed", m.CompletedTasks},
		{"In Progress", m.InProgressTasks},
		{"Team Members", m.TeamMembers},
		{"Workspaces", m.TotalWorkspaces},
		{"Due Today", len(v.tasks.DueToday())},
		{"Upcoming", len(v.tasks.Upcoming())},
	}
	cardWidth := max(width/len(cards)-4, 10)
	rendered := make([]string, len(cards))
	for i, c := range cards {
		rendered[i] = s.Column.Width(cardWidth).Render(
			lipgloss.JoinVertical(lipgloss.Left, s.Title.Render(fmt.Sprint(c.value)), s.TitleMuted.Render(c.label)),
		)
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, rendered...)
}

func (v *DashboardView) paneStyle(pane int) lipgloss.Style {
	if v.pane == pane {
		return v.styles.ColumnFocused
	}
	return v.styles.Column
}

func (v *DashboardView) renderMeetings(width int) string {
	s := v.styles
	lines := []string{s.Title.Render("Meetings")}
	meetings := v.dashboard.Meetings()
	if len(meetings) == 0 {
		lines = append(lines, s.TitleMuted.Render("No meetings scheduled"))
	}
	for i, m := range meetings {
		style := s.ListItem
		if v.pane == paneMeetings && i == v.meetingIdx {
			style = s.ListSelected
		}
		when := m.DateTime.Local().Format("Mon Jan 2 15:04")
		if m.IsRecurring {
			when += " ↻"
		}
		lines = append(lines, style.Render(truncate(m.Title, width-6)), s.TitleMuted.Render("  "+when))
	}
	return v.paneStyle(paneMeetings).Width(width).Render(lipgloss.JoinVertical(lipgloss.Left, lines...))
}

func (v *DashboardView) renderTeams(width int) string {
	s := v.styles
	lines := []string{s.Title.Render("Teams")}
	teams := v.teams.Teams()
	if len(teams) == 0 {
		lines = append(lines, s.TitleMuted.Render("No teams"))
	}
	for i, t := range teams {
		style := s.ListItem
		if v.pane == paneTeams && i == v.teamIdx {
			style = s.ListSelected
		}
		name := t.Name
		if v.renaming && t.ID == v.renameTeam {
			name = s.InputFocused.Width(width - 6).Render(v.renameBox.View())
		} else {
			name = style.Render(truncate(name, width-6))
		}
		var members []string
		for _, m := range t.Members {
			members = append(members, m.Name+" ("+m.Role+")")
		}
		lines = append(lines, name, s.TitleMuted.Render(truncate("  "+strings.Join(members, ", "), width-4)))
	}
	return v.paneStyle(paneTeams).Width(width).Render(lipgloss.JoinVertical(lipgloss.Left, lines...))
}

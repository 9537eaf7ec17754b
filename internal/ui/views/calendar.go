package views

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/tgienger/deck/internal/calendar"
	"github.com/tgienger/deck/internal/models"
	"github.com/tgienger/deck/internal/store"
	"github.com/tgienger/deck/internal/ui/keys"
	"github.com/tgienger/deck/internal/ui/styles"
)

var weekdays = []string{"Sun", "Mon", "Tue", "Wed", "Thu", "Fri", "Sat"}

// CalendarView shows tasks on a month, week or day grid. A task can be picked
// up with space and dropped on another day.
type CalendarView struct {
	tasks      *store.TaskStore
	workspaces *store.WorkspaceStore
	styles     *styles.Styles
	keys       keys.KeyMap
	now        func() time.Time

	width  int
	height int

	// Task id being carried to another day, empty when idle
	carrying      string
	carryingTitle string

	showHelpPopup bool
}

// NewCalendarView creates the calendar screen
func NewCalendarView(tasks *store.TaskStore, workspaces *store.WorkspaceStore) *CalendarView {
	return &CalendarView{
		tasks:      tasks,
		workspaces: workspaces,
		styles:     styles.NewStyles(),
		keys:       keys.DefaultKeyMap(),
		now:        time.Now,
	}
}

func (v *CalendarView) Init() tea.Cmd { return nil }

// Capturing reports whether the help popup owns the keyboard
func (v *CalendarView) Capturing() bool { return v.showHelpPopup }

func (v *CalendarView) visibleTasks() []models.Task {
	ws := v.workspaces.Selected()
	var out []models.Task
	for _, t := range v.tasks.Filtered() {
		if ws == nil || t.WorkspaceID == ws.ID {
			out = append(out, t)
		}
	}
	return out
}

func (v *CalendarView) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		v.width = msg.Width
		v.height = msg.Height
		return v, nil

	case tea.KeyMsg:
		if v.showHelpPopup {
			v.showHelpPopup = false
			return v, nil
		}
		return v, v.handleKey(msg)
	}
	return v, nil
}

func (v *CalendarView) handleKey(msg tea.KeyMsg) tea.Cmd {
	cursor := v.tasks.CurrentDate()
	var err error

	switch {
	case key.Matches(msg, v.keys.Left):
		err = v.tasks.SetCurrentDate(cursor.AddDate(0, 0, -1))
	case key.Matches(msg, v.keys.Right):
		err = v.tasks.SetCurrentDate(cursor.AddDate(0, 0, 1))
	case key.Matches(msg, v.keys.Up):
		err = v.tasks.SetCurrentDate(cursor.AddDate(0, 0, -7))
	case key.Matches(msg, v.keys.Down):
		err = v.tasks.SetCurrentDate(cursor.AddDate(0, 0, 7))
	case msg.String() == "[":
		err = v.tasks.ShiftDate(-1)
	case msg.String() == "]":
		err = v.tasks.ShiftDate(1)
	case msg.String() == "t":
		err = v.tasks.Today()
	case msg.String() == "m":
		err = v.tasks.SetView(calendar.ViewMonth)
	case msg.String() == "w":
		err = v.tasks.SetView(calendar.ViewWeek)
	case msg.String() == "D":
		err = v.tasks.SetView(calendar.ViewDay)
	case msg.String() == " ":
		return v.pickOrDrop(cursor)
	case key.Matches(msg, v.keys.Back):
		v.carrying = ""
	case key.Matches(msg, v.keys.Help):
		v.showHelpPopup = true
	}
	if err != nil {
		return Failed(err)
	}
	return nil
}

// pickOrDrop picks up the first task on the cursor day, or drops the carried one there
func (v *CalendarView) pickOrDrop(cursor time.Time) tea.Cmd {
	if v.carrying != "" {
		id, title := v.carrying, v.carryingTitle
		v.carrying = ""
		day := calendar.FormatDay(cursor)
		if err := v.tasks.Drop(id, day); err != nil {
			return Failed(err)
		}
		return Status("Moved %q to %s", title, day)
	}
	day := calendar.DayTasks(cursor, v.visibleTasks())
	if len(day) == 0 {
		return nil
	}
	v.carrying = fmt.Sprint(day[0].ID)
	v.carryingTitle = day[0].Title
	return Status("Carrying %q, move to a day and press space", day[0].Title)
}

var calendarBindings = []binding{
	{"←→↑↓", "move"}, {"[ ]", "prev/next"}, {"t", "today"}, {"m w D", "view"}, {"space", "pick/drop"}, {"q", "quit"},
}

// View renders the view
func (v *CalendarView) View() string {
	if v.showHelpPopup {
		return renderHelpPopup(v.styles, v.width, v.height, calendarBindings)
	}

	cursor := v.tasks.CurrentDate()
	tasks := v.visibleTasks()

	var body, title string
	switch v.tasks.View() {
	case calendar.ViewWeek:
		title = "Week of " + calendar.WeekGrid(cursor, nil)[0].Date.Format("Jan 2, 2006")
		body = v.renderWeek(cursor, tasks)
	case calendar.ViewDay:
		title = cursor.Format("Monday, January 2, 2006")
		body = v.renderDay(cursor, tasks)
	default:
		title = cursor.Format("January 2006")
		body = v.renderMonth(cursor, tasks)
	}

	header := v.styles.Title.Render(title)
	if v.carrying != "" {
		header += "  " + v.styles.Unread.Render("carrying: "+v.carryingTitle)
	}
	return lipgloss.JoinVertical(lipgloss.Left, header, body, renderHelpLine(v.styles, v.width, calendarBindings))
}

func (v *CalendarView) cellWidth() int {
	return max(v.width/7-2, 8)
}

func (v *CalendarView) dayStyle(d calendar.Day, cursor time.Time) lipgloss.Style {
	switch {
	case calendar.SameDay(d.Date, cursor):
		return v.styles.DayToday
	case !d.InMonth:
		return v.styles.DayMuted
	}
	return v.styles.Day
}

func (v *CalendarView) renderCell(d calendar.Day, cursor time.Time, lines int) string {
	width := v.cellWidth()
	label := fmt.Sprint(d.Date.Day())
	if calendar.SameDay(d.Date, v.now()) {
		label += " •"
	}
	out := []string{label}
	for i, t := range d.Tasks {
		if i == lines-1 && len(d.Tasks) > lines {
			out = append(out, v.styles.TitleMuted.Render(fmt.Sprintf("+%d more", len(d.Tasks)-i)))
			break
		}
		dot := lipgloss.NewStyle().Foreground(styles.PriorityColor(t.Priority)).Render("▪")
		out = append(out, dot+truncate(t.Title, width-1))
	}
	for len(out) < lines+1 {
		out = append(out, "")
	}
	return v.dayStyle(d, cursor).Width(width).Render(strings.Join(out, "\n"))
}

func (v *CalendarView) weekdayHeader() string {
	cells := make([]string, len(weekdays))
	for i, name := range weekdays {
		cells[i] = v.styles.TitleMuted.Width(v.cellWidth() + 2).Align(lipgloss.Center).Render(name)
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, cells...)
}

func (v *CalendarView) renderMonth(cursor time.Time, tasks []models.Task) string {
	lines := max((v.height-14)/6-2, 1)
	rows := []string{v.weekdayHeader()}
	for _, week := range calendar.MonthGrid(cursor, tasks) {
		cells := make([]string, len(week))
		for i, d := range week {
			cells[i] = v.renderCell(d, cursor, lines)
		}
		rows = append(rows, lipgloss.JoinHorizontal(lipgloss.Top, cells...))
	}
	return lipgloss.JoinVertical(lipgloss.Left, rows...)
}

func (v *CalendarView) renderWeek(cursor time.Time, tasks []models.Task) string {
	lines := max(v.height-12, 3)
	week := calendar.WeekGrid(cursor, tasks)
	cells := make([]string, len(week))
	for i, d := range week {
		cells[i] = v.renderCell(d, cursor, lines)
	}
	return lipgloss.JoinVertical(lipgloss.Left, v.weekdayHeader(), lipgloss.JoinHorizontal(lipgloss.Top, cells...))
}

func (v *CalendarView) renderDay(cursor time.Time, tasks []models.Task) string {
	s := v.styles
	day := calendar.DayTasks(cursor, tasks)
	if len(day) == 0 {
		return s.TitleMuted.Render("Nothing due")
	}
	items := make([]string, len(day))
	for i, t := range day {
		prio := lipgloss.NewStyle().Foreground(styles.PriorityColor(t.Priority)).Render(fmt.Sprintf("%-6s", t.Priority))
		items[i] = s.ListItem.Render(fmt.Sprintf("%s %s  %s", prio, t.Title, s.TitleMuted.Render(t.Status+" "+t.Assignee)))
	}
	return lipgloss.JoinVertical(lipgloss.Left, items...)
}

package views

import (
	"context"
	"fmt"
	"math"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/tgienger/deck/internal/calendar"
	"github.com/tgienger/deck/internal/errors"
	"github.com/tgienger/deck/internal/models"
	"github.com/tgienger/deck/internal/store"
	"github.com/tgienger/deck/internal/ui/keys"
	"github.com/tgienger/deck/internal/ui/styles"
)

// DueLayout is how commitment due times are typed and shown
const DueLayout = "2006-01-02 15:04"

var commitmentPriorities = []models.CommitmentPriority{
	models.CommitmentLow, models.CommitmentMedium, models.CommitmentHigh,
}

// CommitmentsChanged is sent when the commitment store changed outside this view
type CommitmentsChanged struct{}

type commitmentsFetchedMsg struct {
	err error
}

// CommitmentListView is the commitment dashboard: one tab active, live push updates
type CommitmentListView struct {
	ctx         context.Context
	commitments *store.CommitmentStore
	styles      *styles.Styles
	keys        keys.KeyMap
	now         func() time.Time

	width  int
	height int

	items   []models.Commitment
	cursor  int
	loading bool

	creating     bool
	newTitle     textinput.Model
	newDue       textinput.Model
	newPriority  int
	formFocusIdx int // 0=title, 1=due, 2=priority, 3=save

	confirmingDelete bool
	deleteTargetID   string
	deleteTargetName string

	showHelpPopup bool
}

// NewCommitmentListView creates the commitment screen. ctx bounds every server call.
func NewCommitmentListView(ctx context.Context, commitments *store.CommitmentStore) *CommitmentListView {
	title := textinput.New()
	title.Placeholder = "Commitment title"
	title.CharLimit = 200

	due := textinput.New()
	due.Placeholder = "YYYY-MM-DD HH:MM"
	due.CharLimit = 16

	return &CommitmentListView{
		ctx:         ctx,
		commitments: commitments,
		styles:      styles.NewStyles(),
		keys:        keys.DefaultKeyMap(),
		now:         time.Now,
		newTitle:    title,
		newDue:      due,
		newPriority: 1,
	}
}

func (v *CommitmentListView) Init() tea.Cmd {
	return v.fetch(v.commitments.Tab())
}

// Capturing reports whether a form or popup owns the keyboard
func (v *CommitmentListView) Capturing() bool {
	return v.creating || v.confirmingDelete || v.showHelpPopup
}

func (v *CommitmentListView) fetch(tab store.Tab) tea.Cmd {
	v.loading = true
	return func() tea.Msg {
		return commitmentsFetchedMsg{err: v.commitments.Fetch(v.ctx, tab)}
	}
}

// run performs a server mutation and reports the outcome
func (v *CommitmentListView) run(done string, fn func() error) tea.Cmd {
	return func() tea.Msg {
		if err := fn(); err != nil {
			return StatusMsg{Text: errors.Message(err), Err: true}
		}
		return StatusMsg{Text: done}
	}
}

func (v *CommitmentListView) selected() (models.Commitment, bool) {
	if v.cursor < len(v.items) {
		return v.items[v.cursor], true
	}
	return models.Commitment{}, false
}

func (v *CommitmentListView) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		v.width = msg.Width
		v.height = msg.Height
		return v, nil

	case commitmentsFetchedMsg:
		v.loading = false
		v.items = v.commitments.Items()
		v.cursor = styles.Clamp(v.cursor, 0, max(0, len(v.items)-1))
		if msg.err != nil {
			return v, Failed(msg.err)
		}
		return v, nil

	case CommitmentsChanged:
		v.items = v.commitments.Items()
		v.cursor = styles.Clamp(v.cursor, 0, max(0, len(v.items)-1))
		return v, nil

	case tea.KeyMsg:
		if v.showHelpPopup {
			v.showHelpPopup = false
			return v, nil
		}
		if v.confirmingDelete {
			return v.updateConfirmDelete(msg)
		}
		if v.creating {
			return v.updateCreating(msg)
		}
		return v, v.handleKey(msg)
	}
	return v, nil
}

func (v *CommitmentListView) handleKey(msg tea.KeyMsg) tea.Cmd {
	switch {
	case key.Matches(msg, v.keys.Up):
		if v.cursor > 0 {
			v.cursor--
		}
	case key.Matches(msg, v.keys.Down):
		if v.cursor < len(v.items)-1 {
			v.cursor++
		}
	case key.Matches(msg, v.keys.Tab), key.Matches(msg, v.keys.Right):
		return v.fetch(v.nextTab(1))
	case msg.String() == "shift+tab", key.Matches(msg, v.keys.Left):
		return v.fetch(v.nextTab(-1))
	case key.Matches(msg, v.keys.Refresh):
		return v.fetch(v.commitments.Tab())

	case key.Matches(msg, v.keys.New):
		v.creating = true
		v.formFocusIdx = 0
		v.newTitle.Reset()
		v.newDue.Reset()
		v.newDue.SetValue(v.now().Add(24 * time.Hour).Format(DueLayout))
		v.newPriority = 1
		v.updateFormFocus()
		return textinput.Blink

	case msg.String() == "c":
		if c, ok := v.selected(); ok {
			return v.run(fmt.Sprintf("Completed %q", c.Title), func() error {
				_, err := v.commitments.Complete(v.ctx, c.ID)
				return err
			})
		}
	case msg.String() == "a":
		if c, ok := v.selected(); ok {
			archived := !c.Archived
			label := "Archived"
			if !archived {
				label = "Unarchived"
			}
			return v.run(fmt.Sprintf("%s %q", label, c.Title), func() error {
				_, err := v.commitments.Archive(v.ctx, c.ID, archived)
				return err
			})
		}
	case key.Matches(msg, v.keys.Delete):
		if c, ok := v.selected(); ok {
			v.confirmingDelete = true
			v.deleteTargetID = c.ID
			v.deleteTargetName = c.Title
		}
	case msg.String() == "x":
		return v.exportReport()
	case key.Matches(msg, v.keys.Help):
		v.showHelpPopup = true
	}
	return nil
}

func (v *CommitmentListView) nextTab(dir int) store.Tab {
	tabs := store.Tabs()
	current := v.commitments.Tab()
	for i, t := range tabs {
		if t == current {
			return tabs[(i+dir+len(tabs))%len(tabs)]
		}
	}
	return store.TabAll
}

// exportReport saves the server's workbook for the active tab into the working directory
func (v *CommitmentListView) exportReport() tea.Cmd {
	name := fmt.Sprintf("commitments-%s.xlsx", v.now().Format("20060102-150405"))
	return v.run("Saved "+name, func() error {
		data, err := v.commitments.Report(v.ctx, nil)
		if err != nil {
			return err
		}
		if err := os.WriteFile(name, data, 0o644); err != nil {
			return errors.Wrap(err, errors.ErrCodeStorage, "failed to save report")
		}
		return nil
	})
}

func (v *CommitmentListView) updateConfirmDelete(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "y", "Y":
		v.confirmingDelete = false
		id, name := v.deleteTargetID, v.deleteTargetName
		return v, v.run(fmt.Sprintf("Deleted %q", name), func() error {
			return v.commitments.Delete(v.ctx, id)
		})
	case "n", "N", "esc":
		v.confirmingDelete = false
	}
	return v, nil
}

func (v *CommitmentListView) updateCreating(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, v.keys.Back):
		v.creating = false
		return v, nil
	case msg.String() == "ctrl+s":
		return v, v.create()
	case msg.String() == "shift+tab":
		v.formFocusIdx = (v.formFocusIdx + 3) % 4
		v.updateFormFocus()
		return v, nil
	case key.Matches(msg, v.keys.Tab):
		v.formFocusIdx = (v.formFocusIdx + 1) % 4
		v.updateFormFocus()
		return v, nil
	}

	switch v.formFocusIdx {
	case 2:
		switch msg.String() {
		case "left", "h":
			v.newPriority = (v.newPriority + len(commitmentPriorities) - 1) % len(commitmentPriorities)
		case "right", "l", " ":
			v.newPriority = (v.newPriority + 1) % len(commitmentPriorities)
		case "enter":
			v.formFocusIdx++
			v.updateFormFocus()
		}
		return v, nil
	case 3:
		if key.Matches(msg, v.keys.Enter) {
			return v, v.create()
		}
		return v, nil
	}

	if key.Matches(msg, v.keys.Enter) {
		v.formFocusIdx++
		v.updateFormFocus()
		return v, nil
	}

	var cmd tea.Cmd
	if v.formFocusIdx == 0 {
		v.newTitle, cmd = v.newTitle.Update(msg)
	} else {
		v.newDue, cmd = v.newDue.Update(msg)
	}
	return v, cmd
}

func (v *CommitmentListView) create() tea.Cmd {
	title := strings.TrimSpace(v.newTitle.Value())
	if title == "" {
		return Failed(errors.InvalidInput("title is required"))
	}
	due, err := time.ParseInLocation(DueLayout, strings.TrimSpace(v.newDue.Value()), time.Local)
	if err != nil {
		return Failed(errors.InvalidInput("due must be YYYY-MM-DD HH:MM"))
	}
	priority := commitmentPriorities[v.newPriority]
	v.creating = false

	return v.run(fmt.Sprintf("Created %q", title), func() error {
		_, err := v.commitments.Create(v.ctx, models.CommitmentInput{
			Title:    &title,
			DueDate:  &due,
			Priority: &priority,
		})
		return err
	})
}

func (v *CommitmentListView) updateFormFocus() {
	v.newTitle.Blur()
	v.newDue.Blur()
	switch v.formFocusIdx {
	case 0:
		v.newTitle.Focus()
	case 1:
		v.newDue.Focus()
	}
}

// TimeRemaining renders the distance from now to due, e.g. "3d 4h left" or "5h overdue"
func TimeRemaining(due, now time.Time) string {
	hours := calendar.HoursUntil(due, now)
	suffix := "left"
	if calendar.IsOverdue(due, now) {
		suffix = "overdue"
		hours = -hours
	}
	h := int(math.Floor(hours))
	switch {
	case h >= 24:
		return fmt.Sprintf("%dd %dh %s", h/24, h%24, suffix)
	case h >= 1:
		return fmt.Sprintf("%dh %s", h, suffix)
	}
	return fmt.Sprintf("%dm %s", int(hours*60), suffix)
}

var commitmentBindings = []binding{
	{"tab", "next tab"}, {"n", "new"}, {"c", "complete"}, {"a", "archive"}, {"d", "del"},
	{"x", "export"}, {"r", "refresh"}, {"q", "quit"},
}

// View renders the view
func (v *CommitmentListView) View() string {
	if v.showHelpPopup {
		return renderHelpPopup(v.styles, v.width, v.height, commitmentBindings)
	}
	if v.confirmingDelete {
		return renderConfirm(v.styles, v.width, v.height, "Delete Commitment?",
			fmt.Sprintf("%q will be deleted on the server.", v.deleteTargetName))
	}
	if v.creating {
		return v.renderForm()
	}

	s := v.styles
	var tabs []string
	for _, t := range store.Tabs() {
		style := s.Tab
		if t == v.commitments.Tab() {
			style = s.TabActive
		}
		tabs = append(tabs, style.Render(string(t)))
	}

	var body string
	switch {
	case v.loading && len(v.items) == 0:
		body = s.TitleMuted.Render("Loading...")
	case len(v.items) == 0:
		body = s.TitleMuted.Render("No commitments. Press 'n' to create one.")
	default:
		body = v.renderList()
	}

	content := lipgloss.JoinVertical(lipgloss.Left,
		s.Title.Render("Commitments"),
		lipgloss.JoinHorizontal(lipgloss.Top, tabs...),
		"",
		body,
		renderHelpLine(s, v.width, commitmentBindings),
	)
	return styles.CenterView(content, v.width, v.height)
}

func (v *CommitmentListView) renderList() string {
	s := v.styles
	width := max(styles.ContentWidth(v.width)-4, 30)
	now := v.now()

	visible := max((v.height-12)/2, 1)
	start := 0
	if v.cursor >= visible {
		start = v.cursor - visible + 1
	}
	end := min(start+visible, len(v.items))

	var rows []string
	for i := start; i < end; i++ {
		c := v.items[i]
		style := s.ListItem.Width(width)
		if i == v.cursor {
			style = s.ListSelected.Width(width)
		}
		prio := lipgloss.NewStyle().Foreground(styles.CommitmentColor(c.Priority)).Render("●")

		remaining := TimeRemaining(c.DueDate, now)
		if c.Status != models.CommitmentCompleted && calendar.IsOverdue(c.DueDate, now) {
			remaining = s.Overdue.Render(remaining)
		}
		meta := []string{string(c.Status), c.DueDate.Local().Format(DueLayout), remaining}
		if c.Assignee != nil {
			meta = append(meta, c.Assignee.Name)
		}
		if c.Archived {
			meta = append(meta, "archived")
		}

		rows = append(rows,
			style.Render(prio+" "+truncate(c.Title, width-6)),
			s.TitleMuted.Render("    "+strings.Join(meta, " • ")),
		)
	}
	return lipgloss.JoinVertical(lipgloss.Left, rows...)
}

func (v *CommitmentListView) renderForm() string {
	s := v.styles
	contentWidth := styles.ContentWidth(v.width)

	fields := []lipgloss.Style{s.Input, s.Input, s.Input}
	btnStyle := s.Button
	if v.formFocusIdx < len(fields) {
		fields[v.formFocusIdx] = s.InputFocused
	} else {
		btnStyle = s.ButtonFocused
	}

	var prio []string
	for i, p := range commitmentPriorities {
		label := string(p)
		if i == v.newPriority {
			label = lipgloss.NewStyle().Foreground(styles.CommitmentColor(p)).Bold(true).Render("[" + label + "]")
		}
		prio = append(prio, label)
	}

	inputWidth := styles.Clamp(contentWidth-6, 20, 50)
	form := lipgloss.JoinVertical(lipgloss.Left,
		s.Title.Render("New Commitment"),
		"",
		"Title:",
		fields[0].Width(inputWidth).Render(v.newTitle.View()),
		"",
		"Due:",
		fields[1].Width(inputWidth).Render(v.newDue.View()),
		"",
		"Priority:",
		fields[2].Width(inputWidth).Render(strings.Join(prio, "  ")),
		"",
		btnStyle.Render(" Create "),
		"",
		s.TitleMuted.Render("Tab: next • ←→: priority • Ctrl+S: save • Esc: cancel"),
	)

	centered := lipgloss.Place(contentWidth, v.height,
		lipgloss.Center, lipgloss.Center,
		form,
	)
	return styles.CenterView(centered, v.width, v.height)
}

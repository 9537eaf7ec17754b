package views

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/tgienger/deck/internal/errors"
	"github.com/tgienger/deck/internal/models"
	"github.com/tgienger/deck/internal/store"
	"github.com/tgienger/deck/internal/ui/keys"
	"github.com/tgienger/deck/internal/ui/styles"
)

// Task form fields, in tab order
const (
	fieldTitle = iota
	fieldDesc
	fieldDue
	fieldPriority
	fieldAssignee
	fieldTags
	fieldSave
	fieldCount
)

var priorities = []models.Priority{models.PriorityLow, models.PriorityMedium, models.PriorityHigh}

// boardColumn is one rendered bucket
type boardColumn struct {
	id    string
	title string
	color string
	tasks []models.Task
}

type boardLoadedMsg struct {
	columns []boardColumn
}

type commentsLoadedMsg struct {
	taskID   int64
	comments []models.Comment
}

// Inline inputs of the task detail
const (
	detailBrowse = iota
	detailNewSubtask
	detailNewComment
)

// BoardView shows the selected workspace's tasks as Kanban columns
type BoardView struct {
	tasks      *store.TaskStore
	board      *store.Board
	workspaces *store.WorkspaceStore
	comments   *store.CommentStore
	styles     *styles.Styles
	keys       keys.KeyMap

	width  int
	height int

	columns []boardColumn
	col     int
	row     int

	searching   bool
	searchInput textinput.Model

	// Task creation/editing
	editing      bool
	editingID    int64
	editTitle    textinput.Model
	editDesc     textarea.Model
	editDue      textinput.Model
	editPriority int
	editAssignee textinput.Model
	editTags     textinput.Model
	editFocusIdx int

	// Task detail with subtask checklist and comments
	viewingTask  bool
	subCursor    int
	detailMode   int
	detailInput  textinput.Model
	taskComments []models.Comment

	confirmingDelete bool
	deleteTargetID   int64
	deleteTargetName string

	showHelpPopup bool
}

// NewBoardView creates the board screen. comments may be nil to hide task threads.
func NewBoardView(tasks *store.TaskStore, board *store.Board, workspaces *store.WorkspaceStore, comments *store.CommentStore) *BoardView {
	search := textinput.New()
	search.Placeholder = "Search tasks..."
	search.CharLimit = 100

	editTitle := textinput.New()
	editTitle.Placeholder = "Task title"
	editTitle.CharLimit = 200

	editDesc := textarea.New()
	editDesc.Placeholder = "Description"
	editDesc.CharLimit = 1000
	editDesc.SetWidth(50)
	editDesc.SetHeight(3)
	editDesc.ShowLineNumbers = false

	editDue := textinput.New()
	editDue.Placeholder = "YYYY-MM-DD"
	editDue.CharLimit = 10

	editAssignee := textinput.New()
	editAssignee.Placeholder = "Assignee"
	editAssignee.CharLimit = 100

	editTags := textinput.New()
	editTags.Placeholder = "Tags, comma separated"
	editTags.CharLimit = 200

	detailInput := textinput.New()
	detailInput.CharLimit = 500

	return &BoardView{
		tasks:        tasks,
		board:        board,
		workspaces:   workspaces,
		comments:     comments,
		styles:       styles.NewStyles(),
		keys:         keys.DefaultKeyMap(),
		searchInput:  search,
		editTitle:    editTitle,
		editDesc:     editDesc,
		editDue:      editDue,
		editAssignee: editAssignee,
		editTags:     editTags,
		detailInput:  detailInput,
		editPriority: 1,
	}
}

func (v *BoardView) Init() tea.Cmd {
	return v.loadBoard
}

// Refresh rebuilds the columns from the stores
func (v *BoardView) Refresh() tea.Cmd {
	return v.loadBoard
}

// Capturing reports whether a form, popup or search box owns the keyboard
func (v *BoardView) Capturing() bool {
	return v.editing || v.searching || v.confirmingDelete || v.showHelpPopup || v.viewingTask
}

func (v *BoardView) loadBoard() tea.Msg {
	ws := v.workspaces.Selected()
	if ws == nil {
		return boardLoadedMsg{}
	}
	var visible []models.Task
	for _, t := range v.tasks.Filtered() {
		if t.WorkspaceID == ws.ID {
			visible = append(visible, t)
		}
	}

	buckets, unassigned := v.board.Buckets(visible)
	var cols []boardColumn
	for _, c := range v.board.Columns() {
		cols = append(cols, boardColumn{id: c.ID, title: c.Title, color: c.Color, tasks: buckets[c.ID]})
	}
	if len(unassigned) > 0 {
		cols = append(cols, boardColumn{
			id:    store.UnassignedColumn,
			title: "Unassigned",
			color: string(styles.Current.ForegroundDim),
			tasks: unassigned,
		})
	}
	return boardLoadedMsg{columns: cols}
}

func (v *BoardView) loadComments(taskID int64) tea.Cmd {
	if v.comments == nil {
		return nil
	}
	return func() tea.Msg {
		comments, err := v.comments.Comments(taskID)
		if err != nil {
			return StatusMsg{Text: errors.Message(err), Err: true}
		}
		return commentsLoadedMsg{taskID: taskID, comments: comments}
	}
}

func (v *BoardView) selectedTask() (models.Task, bool) {
	if v.col >= len(v.columns) {
		return models.Task{}, false
	}
	col := v.columns[v.col]
	if v.row >= len(col.tasks) {
		return models.Task{}, false
	}
	return col.tasks[v.row], true
}

func (v *BoardView) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		v.width = msg.Width
		v.height = msg.Height
		inputWidth := styles.Clamp(styles.ContentWidth(v.width)-10, 20, 50)
		v.editDesc.SetWidth(inputWidth)
		return v, nil

	case boardLoadedMsg:
		v.columns = msg.columns
		v.col = styles.Clamp(v.col, 0, max(0, len(v.columns)-1))
		v.clampRow()
		if v.viewingTask {
			if _, ok := v.selectedTask(); !ok {
				v.viewingTask = false
			}
		}
		return v, nil

	case commentsLoadedMsg:
		if t, ok := v.selectedTask(); ok && t.ID == msg.taskID {
			v.taskComments = msg.comments
		}
		return v, nil

	case tea.KeyMsg:
		if v.showHelpPopup {
			v.showHelpPopup = false
			return v, nil
		}
		if v.confirmingDelete {
			return v.updateConfirmDelete(msg)
		}
		if v.editing {
			return v.updateEditing(msg)
		}
		if v.viewingTask {
			return v.updateViewingTask(msg)
		}
		if v.searching {
			return v.updateSearch(msg)
		}
		return v.updateNormal(msg)
	}

	return v, nil
}

func (v *BoardView) clampRow() {
	if v.col >= len(v.columns) {
		v.row = 0
		return
	}
	v.row = styles.Clamp(v.row, 0, max(0, len(v.columns[v.col].tasks)-1))
}

func (v *BoardView) updateSearch(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, v.keys.Back), key.Matches(msg, v.keys.Enter):
		v.searchInput.Blur()
		v.searching = false
		return v, nil
	}
	var cmd tea.Cmd
	v.searchInput, cmd = v.searchInput.Update(msg)
	if err := v.tasks.SetFilter(store.FilterSearch, strings.TrimSpace(v.searchInput.Value())); err != nil {
		return v, Failed(err)
	}
	return v, tea.Batch(cmd, v.loadBoard)
}

func (v *BoardView) updateNormal(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if v.workspaces.Selected() == nil {
		return v, nil
	}

	switch {
	case key.Matches(msg, v.keys.Left):
		if v.col > 0 {
			v.col--
			v.clampRow()
		}
	case key.Matches(msg, v.keys.Right):
		if v.col < len(v.columns)-1 {
			v.col++
			v.clampRow()
		}
	case key.Matches(msg, v.keys.Up):
		if v.row > 0 {
			v.row--
		}
	case key.Matches(msg, v.keys.Down):
		if v.col < len(v.columns) && v.row < len(v.columns[v.col].tasks)-1 {
			v.row++
		}

	case msg.String() == "<", msg.String() == "H":
		return v, v.shiftTask(-1)
	case msg.String() == ">", msg.String() == "L":
		return v, v.shiftTask(1)

	case key.Matches(msg, v.keys.Search):
		v.searching = true
		v.searchInput.Focus()
		return v, textinput.Blink

	case msg.String() == "a":
		return v, v.cycleAssignee()

	case msg.String() == "c":
		v.searchInput.Reset()
		v.tasks.ClearFilters()
		return v, v.loadBoard

	case key.Matches(msg, v.keys.New):
		v.openForm(nil)
		return v, textinput.Blink

	case key.Matches(msg, v.keys.Edit):
		if t, ok := v.selectedTask(); ok {
			v.openForm(&t)
			return v, textinput.Blink
		}

	case key.Matches(msg, v.keys.Enter):
		if t, ok := v.selectedTask(); ok {
			v.viewingTask = true
			v.subCursor = 0
			v.detailMode = detailBrowse
			v.taskComments = nil
			return v, v.loadComments(t.ID)
		}

	case key.Matches(msg, v.keys.Delete):
		if t, ok := v.selectedTask(); ok {
			v.confirmingDelete = true
			v.deleteTargetID = t.ID
			v.deleteTargetName = t.Title
		}

	case key.Matches(msg, v.keys.Help):
		v.showHelpPopup = true
	}
	return v, nil
}

// shiftTask moves the selected task to the neighbouring column
func (v *BoardView) shiftTask(dir int) tea.Cmd {
	t, ok := v.selectedTask()
	if !ok {
		return nil
	}
	cols := v.board.Columns()
	idx := -1
	for i, c := range cols {
		if c.ID == t.Status {
			idx = i
			break
		}
	}
	// Unassigned tasks enter the board at the first column
	next := 0
	if idx >= 0 {
		next = idx + dir
	}
	if next < 0 || next >= len(cols) {
		return nil
	}
	if err := v.tasks.SetStatus(t.ID, cols[next].ID); err != nil {
		return Failed(err)
	}
	v.col = next
	v.row = 0
	return v.loadBoard
}

// cycleAssignee steps the assignee filter through all known assignees
func (v *BoardView) cycleAssignee() tea.Cmd {
	options := append([]string{store.FilterAll}, v.tasks.Assignees()...)
	current := v.tasks.Filter().Assignee
	next := options[0]
	for i, o := range options {
		if o == current {
			next = options[(i+1)%len(options)]
			break
		}
	}
	if err := v.tasks.SetFilter(store.FilterAssignee, next); err != nil {
		return Failed(err)
	}
	return v.loadBoard
}

func (v *BoardView) updateConfirmDelete(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "y", "Y":
		v.confirmingDelete = false
		v.viewingTask = false
		if err := v.tasks.Delete(v.deleteTargetID); err != nil {
			return v, Failed(err)
		}
		return v, v.loadBoard
	case "n", "N", "esc":
		v.confirmingDelete = false
	}
	return v, nil
}

func (v *BoardView) updateViewingTask(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	t, ok := v.selectedTask()
	if !ok {
		v.viewingTask = false
		return v, nil
	}

	if v.detailMode != detailBrowse {
		return v.updateDetailInput(t, msg)
	}

	switch {
	case key.Matches(msg, v.keys.Back):
		v.viewingTask = false
	case key.Matches(msg, v.keys.Up):
		if v.subCursor > 0 {
			v.subCursor--
		}
	case key.Matches(msg, v.keys.Down):
		if v.subCursor < len(t.Subtasks)-1 {
			v.subCursor++
		}
	case msg.String() == " ", msg.String() == "x":
		if v.subCursor < len(t.Subtasks) {
			subs := append([]models.Subtask{}, t.Subtasks...)
			subs[v.subCursor].Completed = !subs[v.subCursor].Completed
			if err := v.tasks.Update(t.ID, store.TaskPatch{Subtasks: subs}); err != nil {
				return v, Failed(err)
			}
			return v, v.loadBoard
		}
	case key.Matches(msg, v.keys.New):
		return v, v.openDetailInput(detailNewSubtask, "Subtask title")
	case msg.String() == "X":
		return v, v.removeSubtask(t)
	case msg.String() == "c":
		if v.comments != nil {
			return v, v.openDetailInput(detailNewComment, "Write a comment")
		}
	case key.Matches(msg, v.keys.Edit):
		v.viewingTask = false
		v.openForm(&t)
		return v, textinput.Blink
	case key.Matches(msg, v.keys.Delete):
		v.confirmingDelete = true
		v.deleteTargetID = t.ID
		v.deleteTargetName = t.Title
	}
	return v, nil
}

func (v *BoardView) openDetailInput(mode int, placeholder string) tea.Cmd {
	v.detailMode = mode
	v.detailInput.Reset()
	v.detailInput.Placeholder = placeholder
	v.detailInput.Focus()
	return textinput.Blink
}

func (v *BoardView) updateDetailInput(t models.Task, msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, v.keys.Back):
		v.detailMode = detailBrowse
		v.detailInput.Blur()
		return v, nil
	case key.Matches(msg, v.keys.Enter):
		text := strings.TrimSpace(v.detailInput.Value())
		mode := v.detailMode
		v.detailMode = detailBrowse
		v.detailInput.Blur()
		if text == "" {
			return v, nil
		}
		if mode == detailNewSubtask {
			return v, v.addSubtask(t, text)
		}
		if _, err := v.comments.Add(t.ID, text, store.DefaultCommentAuthor); err != nil {
			return v, Failed(err)
		}
		return v, v.loadComments(t.ID)
	}
	var cmd tea.Cmd
	v.detailInput, cmd = v.detailInput.Update(msg)
	return v, cmd
}

// addSubtask appends an open subtask; the store assigns its id
func (v *BoardView) addSubtask(t models.Task, title string) tea.Cmd {
	subs := append(append([]models.Subtask{}, t.Subtasks...), models.Subtask{
		Title:    title,
		Status:   models.StatusTodo,
		Priority: models.PriorityMedium,
		Tags:     []string{},
	})
	if err := v.tasks.Update(t.ID, store.TaskPatch{Subtasks: subs}); err != nil {
		return Failed(err)
	}
	v.subCursor = len(subs) - 1
	return v.loadBoard
}

func (v *BoardView) removeSubtask(t models.Task) tea.Cmd {
	if v.subCursor >= len(t.Subtasks) {
		return nil
	}
	subs := append([]models.Subtask{}, t.Subtasks[:v.subCursor]...)
	subs = append(subs, t.Subtasks[v.subCursor+1:]...)
	if err := v.tasks.Update(t.ID, store.TaskPatch{Subtasks: subs}); err != nil {
		return Failed(err)
	}
	v.subCursor = styles.Clamp(v.subCursor, 0, max(0, len(subs)-1))
	return v.loadBoard
}

func (v *BoardView) openForm(t *models.Task) {
	v.editing = true
	v.editFocusIdx = fieldTitle
	v.editingID = 0
	v.editTitle.Reset()
	v.editDesc.Reset()
	v.editDue.Reset()
	v.editAssignee.Reset()
	v.editTags.Reset()
	v.editPriority = 1
	if t != nil {
		v.editingID = t.ID
		v.editTitle.SetValue(t.Title)
		v.editDesc.SetValue(t.Description)
		v.editDue.SetValue(t.DueDate)
		v.editAssignee.SetValue(t.Assignee)
		v.editTags.SetValue(strings.Join(t.Tags, ", "))
		for i, p := range priorities {
			if p == t.Priority {
				v.editPriority = i
			}
		}
	}
	v.updateEditFocus()
}

func (v *BoardView) updateEditing(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, v.keys.Back):
		v.editing = false
		return v, nil

	case msg.String() == "ctrl+s":
		return v, v.saveTask()

	case msg.String() == "shift+tab":
		v.editFocusIdx = (v.editFocusIdx + fieldCount - 1) % fieldCount
		v.updateEditFocus()
		return v, nil

	case key.Matches(msg, v.keys.Tab):
		v.editFocusIdx = (v.editFocusIdx + 1) % fieldCount
		v.updateEditFocus()
		return v, nil
	}

	switch v.editFocusIdx {
	case fieldPriority:
		switch msg.String() {
		case "left", "h":
			v.editPriority = (v.editPriority + len(priorities) - 1) % len(priorities)
		case "right", "l", " ":
			v.editPriority = (v.editPriority + 1) % len(priorities)
		case "enter":
			v.editFocusIdx++
			v.updateEditFocus()
		}
		return v, nil
	case fieldSave:
		if key.Matches(msg, v.keys.Enter) {
			return v, v.saveTask()
		}
		return v, nil
	case fieldDesc:
	default:
		if key.Matches(msg, v.keys.Enter) {
			v.editFocusIdx++
			v.updateEditFocus()
			return v, nil
		}
	}

	var cmd tea.Cmd
	switch v.editFocusIdx {
	case fieldTitle:
		v.editTitle, cmd = v.editTitle.Update(msg)
	case fieldDesc:
		v.editDesc, cmd = v.editDesc.Update(msg)
	case fieldDue:
		v.editDue, cmd = v.editDue.Update(msg)
	case fieldAssignee:
		v.editAssignee, cmd = v.editAssignee.Update(msg)
	case fieldTags:
		v.editTags, cmd = v.editTags.Update(msg)
	}
	return v, cmd
}

func (v *BoardView) saveTask() tea.Cmd {
	title := strings.TrimSpace(v.editTitle.Value())
	desc := strings.TrimSpace(v.editDesc.Value())
	due := strings.TrimSpace(v.editDue.Value())
	assignee := strings.TrimSpace(v.editAssignee.Value())
	tags := splitList(v.editTags.Value())
	priority := priorities[v.editPriority]

	if v.editingID != 0 {
		err := v.tasks.Update(v.editingID, store.TaskPatch{
			Title:       &title,
			Description: &desc,
			DueDate:     &due,
			Priority:    &priority,
			Assignee:    &assignee,
			Tags:        append([]string{}, tags...),
		})
		if err != nil {
			return Failed(err)
		}
		v.editing = false
		return v.loadBoard
	}

	ws := v.workspaces.Selected()
	if ws == nil {
		return Failed(errors.InvalidInput("select a workspace first"))
	}
	status := models.StatusTodo
	if v.col < len(v.columns) && v.columns[v.col].id != store.UnassignedColumn {
		status = v.columns[v.col].id
	}
	_, err := v.tasks.Add(models.Task{
		Title:       title,
		Description: desc,
		DueDate:     due,
		Priority:    priority,
		Status:      status,
		Assignee:    assignee,
		Tags:        tags,
		WorkspaceID: ws.ID,
		CreatedBy:   ws.Owner,
	})
	if err != nil {
		return Failed(err)
	}
	v.editing = false
	return v.loadBoard
}

func (v *BoardView) updateEditFocus() {
	v.editTitle.Blur()
	v.editDesc.Blur()
	v.editDue.Blur()
	v.editAssignee.Blur()
	v.editTags.Blur()
	switch v.editFocusIdx {
	case fieldTitle:
		v.editTitle.Focus()
	case fieldDesc:
		v.editDesc.Focus()
	case fieldDue:
		v.editDue.Focus()
	case fieldAssignee:
		v.editAssignee.Focus()
	case fieldTags:
		v.editTags.Focus()
	}
}

var boardBindings = []binding{
	{"←→↑↓", "move"}, {"< >", "shift column"}, {"↵", "view"}, {"n", "new"}, {"e", "edit"},
	{"d", "del"}, {"/", "search"}, {"a", "assignee"}, {"c", "clear"}, {"q", "quit"},
}

// View renders the view
func (v *BoardView) View() string {
	if v.showHelpPopup {
		return renderHelpPopup(v.styles, v.width, v.height, boardBindings)
	}
	if v.confirmingDelete {
		return renderConfirm(v.styles, v.width, v.height, "Delete Task?", fmt.Sprintf("%q will be removed.", v.deleteTargetName))
	}
	if v.editing {
		return v.renderEditForm()
	}
	if v.viewingTask {
		return v.renderTaskView()
	}

	s := v.styles
	ws := v.workspaces.Selected()
	if ws == nil {
		return lipgloss.Place(v.width, v.height, lipgloss.Center, lipgloss.Center,
			s.TitleMuted.Render("No workspace selected. Press 1 to pick one."))
	}

	return lipgloss.JoinVertical(lipgloss.Left,
		v.renderHeader(*ws),
		v.renderColumns(),
		renderHelpLine(s, v.width, boardBindings),
	)
}

func (v *BoardView) renderHeader(ws models.Workspace) string {
	s := v.styles
	f := v.tasks.Filter()

	searchStyle := s.Input
	if v.searching {
		searchStyle = s.InputFocused
	}
	search := searchStyle.Width(styles.Clamp(v.width/3, 20, 40)).Render(v.searchInput.View())

	assignee := "Assignee: " + f.Assignee
	return lipgloss.JoinVertical(lipgloss.Left,
		s.Title.Render(ws.Name),
		lipgloss.JoinHorizontal(lipgloss.Center, search, "  ", s.TitleMuted.Render(assignee)),
	)
}

func (v *BoardView) renderColumns() string {
	s := v.styles
	if len(v.columns) == 0 {
		return s.TitleMuted.Render("No columns configured")
	}

	colWidth := max(v.width/len(v.columns)-4, 14)
	visibleRows := max((v.height-12)/2, 1)

	rendered := make([]string, len(v.columns))
	for ci, col := range v.columns {
		header := lipgloss.NewStyle().Foreground(lipgloss.Color(col.color)).Bold(true).
			Render(fmt.Sprintf("%s (%d)", truncate(col.title, colWidth-5), len(col.tasks)))

		lines := []string{header, ""}
		start := 0
		if ci == v.col && v.row >= visibleRows {
			start = v.row - visibleRows + 1
		}
		end := min(start+visibleRows, len(col.tasks))
		for ri := start; ri < end; ri++ {
			lines = append(lines, v.renderCard(col.tasks[ri], colWidth, ci == v.col && ri == v.row))
		}
		if len(col.tasks) == 0 {
			lines = append(lines, s.TitleMuted.Render("empty"))
		}

		colStyle := s.Column
		if ci == v.col {
			colStyle = s.ColumnFocused
		}
		rendered[ci] = colStyle.Width(colWidth).Render(lipgloss.JoinVertical(lipgloss.Left, lines...))
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, rendered...)
}

func (v *BoardView) renderCard(t models.Task, width int, selected bool) string {
	style := v.styles.Card
	if selected {
		style = v.styles.CardSelected
	}
	dot := lipgloss.NewStyle().Foreground(styles.PriorityColor(t.Priority)).Render("●")
	title := style.Width(width - 2).Render(truncate(t.Title, width-4))

	meta := t.DueDate
	if t.Assignee != "" {
		meta = strings.TrimSpace(meta + " " + t.Assignee)
	}
	if done, total := subtaskProgress(t); total > 0 {
		meta = strings.TrimSpace(fmt.Sprintf("%s %d/%d", meta, done, total))
	}
	return dot + " " + title + "\n  " + v.styles.TitleMuted.Render(truncate(meta, width-2))
}

func subtaskProgress(t models.Task) (done, total int) {
	for _, st := range t.Subtasks {
		if st.Completed {
			done++
		}
	}
	return done, len(t.Subtasks)
}

func (v *BoardView) renderEditForm() string {
	s := v.styles
	contentWidth := styles.ContentWidth(v.width)

	fieldStyles := make([]lipgloss.Style, fieldCount)
	for i := range fieldStyles {
		fieldStyles[i] = s.Input
	}
	fieldStyles[v.editFocusIdx] = s.InputFocused
	btnStyle := s.Button
	if v.editFocusIdx == fieldSave {
		btnStyle = s.ButtonFocused
	}

	formTitle := "New Task"
	if v.editingID != 0 {
		formTitle = "Edit Task"
	}

	var prio []string
	for i, p := range priorities {
		label := string(p)
		if i == v.editPriority {
			label = lipgloss.NewStyle().Foreground(styles.PriorityColor(p)).Bold(true).Render("[" + label + "]")
		}
		prio = append(prio, label)
	}

	inputWidth := styles.Clamp(contentWidth-6, 20, 50)
	form := lipgloss.JoinVertical(lipgloss.Left,
		s.Title.Render(formTitle),
		"",
		"Title:",
		fieldStyles[fieldTitle].Width(inputWidth).Render(v.editTitle.View()),
		"Description:",
		fieldStyles[fieldDesc].Render(v.editDesc.View()),
		"Due date:",
		fieldStyles[fieldDue].Width(inputWidth).Render(v.editDue.View()),
		"Priority:",
		fieldStyles[fieldPriority].Width(inputWidth).Render(strings.Join(prio, "  ")),
		"Assignee:",
		fieldStyles[fieldAssignee].Width(inputWidth).Render(v.editAssignee.View()),
		"Tags:",
		fieldStyles[fieldTags].Width(inputWidth).Render(v.editTags.View()),
		"",
		btnStyle.Render(" Save "),
		"",
		s.TitleMuted.Render("Tab: next • ←→: priority • Ctrl+S: save • Esc: cancel"),
	)

	centered := lipgloss.Place(contentWidth, v.height,
		lipgloss.Center, lipgloss.Center,
		form,
	)
	return styles.CenterView(centered, v.width, v.height)
}

func (v *BoardView) renderTaskView() string {
	t, ok := v.selectedTask()
	if !ok {
		return ""
	}
	s := v.styles
	textWidth := styles.Clamp(styles.ContentWidth(v.width)-10, 20, 70)
	label := s.TitleMuted

	desc := t.Description
	if desc == "" {
		desc = s.TitleMuted.Render("No description")
	}
	tags := "None"
	if len(t.Tags) > 0 {
		tags = strings.Join(t.Tags, ", ")
	}

	var subs []string
	for i, st := range t.Subtasks {
		box := "[ ]"
		if st.Completed {
			box = "[x]"
		}
		style := s.ListItem
		if i == v.subCursor {
			style = s.ListSelected
		}
		subs = append(subs, style.Render(box+" "+st.Title))
	}
	if len(subs) == 0 {
		subs = []string{s.TitleMuted.Render("No subtasks")}
	}
	if v.detailMode == detailNewSubtask {
		subs = append(subs, s.InputFocused.Width(textWidth).Render(v.detailInput.View()))
	}

	var thread []string
	for _, c := range v.taskComments {
		thread = append(thread,
			s.TitleMuted.Render(c.Author+" · "+c.CreatedAt.Local().Format("Jan 2 15:04")),
			lipgloss.NewStyle().Width(textWidth).Render(c.Content),
		)
	}
	if len(thread) == 0 {
		thread = []string{s.TitleMuted.Render("No comments")}
	}
	if v.detailMode == detailNewComment {
		thread = append(thread, s.InputFocused.Width(textWidth).Render(v.detailInput.View()))
	}

	help := []binding{{"space", "toggle"}, {"n", "new subtask"}, {"X", "remove subtask"}}
	if v.comments != nil {
		help = append(help, binding{"c", "comment"})
	}
	help = append(help, binding{"e", "edit"}, binding{"d", "delete"}, binding{"esc", "back"})
	if v.detailMode != detailBrowse {
		help = []binding{{"enter", "save"}, {"esc", "cancel"}}
	}

	content := lipgloss.JoinVertical(lipgloss.Left,
		s.Title.MarginBottom(1).Render(t.Title),
		label.Render("Status"), t.Status,
		"",
		label.Render("Priority"),
		lipgloss.NewStyle().Foreground(styles.PriorityColor(t.Priority)).Render(string(t.Priority)),
		"",
		label.Render("Due"), orDash(t.DueDate),
		"",
		label.Render("Assignee"), orDash(t.Assignee),
		"",
		label.Render("Tags"), tags,
		"",
		label.Render("Description"),
		lipgloss.NewStyle().Width(textWidth).Render(desc),
		"",
		label.Render("Subtasks"),
		lipgloss.JoinVertical(lipgloss.Left, subs...),
		"",
		label.Render("Comments"),
		lipgloss.JoinVertical(lipgloss.Left, thread...),
		"",
		renderHelpLine(s, v.width, help),
	)

	padded := lipgloss.NewStyle().Padding(1, 2).Render(content)
	return styles.CenterView(padded, v.width, v.height)
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

package views

import (
	"testing"
	"time"

	"github.com/charmbracelet/bubbles/cursor"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tgienger/deck/internal/models"
	"github.com/tgienger/deck/internal/store"
)

var boardDay = time.Date(2024, 1, 10, 9, 0, 0, 0, time.UTC)

// deliver runs cmd and hands its message back to the model, as the runtime would
func deliver(t *testing.T, m tea.Model, cmd tea.Cmd) {
	t.Helper()
	if cmd == nil {
		return
	}
	if msg := cmd(); msg != nil {
		if status, ok := msg.(StatusMsg); ok {
			require.False(t, status.Err, status.Text)
			return
		}
		m.Update(msg)
	}
}

func press(t *testing.T, m tea.Model, keys ...string) {
	t.Helper()
	for _, k := range keys {
		var msg tea.KeyMsg
		switch k {
		case "enter":
			msg = tea.KeyMsg{Type: tea.KeyEnter}
		case "esc":
			msg = tea.KeyMsg{Type: tea.KeyEsc}
		case "right":
			msg = tea.KeyMsg{Type: tea.KeyRight}
		case " ":
			msg = tea.KeyMsg{Type: tea.KeySpace, Runes: []rune{' '}}
		default:
			msg = tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(k)}
		}
		_, cmd := m.Update(msg)
		deliver(t, m, cmd)
	}
}

func newWorkspace(t *testing.T) (*store.WorkspaceStore, models.Workspace) {
	t.Helper()
	workspaces := store.NewWorkspaceStore(nil, "")
	ws, err := workspaces.Add(store.WorkspaceInput{Name: "Launch"})
	require.NoError(t, err)
	require.NoError(t, workspaces.Select(&ws))
	return workspaces, ws
}

func TestBoardBucketsUnknownStatusAsUnassigned(t *testing.T) {
	workspaces, ws := newWorkspace(t)
	tasks := store.NewTaskStore(nil, store.WithClock(func() time.Time { return boardDay }))
	require.NoError(t, tasks.SetTasks([]models.Task{
		{ID: 1, Title: "plan", Status: models.StatusTodo, WorkspaceID: ws.ID},
		{ID: 2, Title: "legacy", Status: "archived", WorkspaceID: ws.ID},
		{ID: 3, Title: "ship", Status: models.StatusDone, WorkspaceID: ws.ID},
		{ID: 4, Title: "elsewhere", Status: "archived", WorkspaceID: "other"},
	}))

	v := NewBoardView(tasks, store.NewBoard(nil), workspaces, nil)
	deliver(t, v, v.Init())

	cols := models.DefaultColumns()
	require.Len(t, v.columns, len(cols)+1)
	for i, c := range cols {
		assert.Equal(t, c.ID, v.columns[i].id)
	}
	assert.Equal(t, "plan", v.columns[0].tasks[0].Title)
	assert.Equal(t, "ship", v.columns[len(cols)-1].tasks[0].Title)

	last := v.columns[len(cols)]
	assert.Equal(t, store.UnassignedColumn, last.id)
	assert.Equal(t, "Unassigned", last.title)
	require.Len(t, last.tasks, 1)
	assert.Equal(t, int64(2), last.tasks[0].ID)
}

func TestBoardWithoutStrayTasksHasNoUnassignedColumn(t *testing.T) {
	workspaces, ws := newWorkspace(t)
	tasks := store.NewTaskStore(nil)
	require.NoError(t, tasks.SetTasks([]models.Task{{ID: 1, Title: "plan", Status: models.StatusTodo, WorkspaceID: ws.ID}}))

	v := NewBoardView(tasks, store.NewBoard(nil), workspaces, nil)
	deliver(t, v, v.Init())
	assert.Len(t, v.columns, len(models.DefaultColumns()))
}

func TestBoardDetailEditsSubtasksAndComments(t *testing.T) {
	workspaces, ws := newWorkspace(t)
	tasks := store.NewTaskStore(nil, store.WithClock(func() time.Time { return boardDay }))
	comments := store.NewCommentStore(nil)
	task, err := tasks.Add(models.Task{Title: "ship", Status: models.StatusTodo, WorkspaceID: ws.ID})
	require.NoError(t, err)

	v := NewBoardView(tasks, store.NewBoard(nil), workspaces, comments)
	// A blinking cursor would hand back timer commands on every keystroke
	v.detailInput.Cursor.SetMode(cursor.CursorStatic)
	v.Update(tea.WindowSizeMsg{Width: 100, Height: 40})
	deliver(t, v, v.Init())

	press(t, v, "enter")
	require.True(t, v.viewingTask)

	press(t, v, "n", "docs", "enter", "n", "tag", "enter")
	got, _ := tasks.Get(task.ID)
	require.Len(t, got.Subtasks, 2)
	assert.Equal(t, "docs", got.Subtasks[0].Title)
	assert.Equal(t, "tag", got.Subtasks[1].Title)
	assert.Equal(t, 1, v.subCursor)

	// Remove the highlighted subtask, then toggle the remaining one
	press(t, v, "X", " ")
	got, _ = tasks.Get(task.ID)
	require.Len(t, got.Subtasks, 1)
	assert.Equal(t, "docs", got.Subtasks[0].Title)
	assert.True(t, got.Subtasks[0].Completed)

	press(t, v, "c", "looks good", "enter")
	thread, err := comments.Comments(task.ID)
	require.NoError(t, err)
	require.Len(t, thread, 1)
	assert.Equal(t, store.DefaultCommentAuthor, thread[0].Author)
	require.Len(t, v.taskComments, 1)
	assert.Contains(t, v.View(), "looks good")

	// Esc leaves an open input without saving it
	press(t, v, "n", "draft", "esc")
	got, _ = tasks.Get(task.ID)
	assert.Len(t, got.Subtasks, 1)
	assert.True(t, v.viewingTask)
}

func TestCalendarPickAndDrop(t *testing.T) {
	workspaces, ws := newWorkspace(t)
	tasks := store.NewTaskStore(nil, store.WithClock(func() time.Time { return boardDay }))
	task, err := tasks.Add(models.Task{Title: "ship", DueDate: "2024-01-10", WorkspaceID: ws.ID})
	require.NoError(t, err)

	v := NewCalendarView(tasks, workspaces)
	v.now = func() time.Time { return boardDay }

	press(t, v, " ")
	assert.Equal(t, "ship", v.carryingTitle)

	press(t, v, "right", " ")
	assert.Empty(t, v.carrying)
	got, _ := tasks.Get(task.ID)
	assert.Equal(t, "2024-01-11", got.DueDate)

	// Space on an empty day picks nothing up
	press(t, v, "right", " ")
	assert.Empty(t, v.carrying)
}

func TestCalendarDropFailureReported(t *testing.T) {
	workspaces, ws := newWorkspace(t)
	tasks := store.NewTaskStore(nil, store.WithClock(func() time.Time { return boardDay }))
	task, err := tasks.Add(models.Task{Title: "ship", DueDate: "2024-01-10", WorkspaceID: ws.ID})
	require.NoError(t, err)

	v := NewCalendarView(tasks, workspaces)
	press(t, v, " ")
	require.NoError(t, tasks.Delete(task.ID))

	_, cmd := v.Update(tea.KeyMsg{Type: tea.KeySpace, Runes: []rune{' '}})
	require.NotNil(t, cmd)
	status, ok := cmd().(StatusMsg)
	require.True(t, ok)
	assert.True(t, status.Err)
	assert.Empty(t, v.carrying)
}

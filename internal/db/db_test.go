package db

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tgienger/deck/internal/models"
)

func openTestDB(t *testing.T) *DB {
	t.Helper()
	database, err := Open(filepath.Join(t.TempDir(), "deck.db"))
	require.NoError(t, err)
	t.Cleanup(func() { database.Close() })
	return database
}

func TestSettings(t *testing.T) {
	database := openTestDB(t)

	v, err := database.GetSetting("missing")
	require.NoError(t, err)
	assert.Equal(t, "", v)

	require.NoError(t, database.SetSetting("token", "abc"))
	require.NoError(t, database.SetSetting("token", "def"))
	v, err = database.GetSetting("token")
	require.NoError(t, err)
	assert.Equal(t, "def", v)

	require.NoError(t, database.SetSetting("token", ""))
	v, err = database.GetSetting("token")
	require.NoError(t, err)
	assert.Equal(t, "", v)
}

func TestWorkspacesRoundTrip(t *testing.T) {
	database := openTestDB(t)
	created := time.Date(2024, 1, 10, 9, 0, 0, 0, time.UTC)

	in := []models.Workspace{
		{ID: "b", Name: "Eng", Description: "core", Members: []string{"1", "7"}, Owner: "Current User", CreatedAt: created},
		{ID: "a", Name: "Ops", Members: []string{}},
	}
	require.NoError(t, database.SaveWorkspaces(in))

	out, err := database.ListWorkspaces()
	require.NoError(t, err)
	require.Len(t, out, 2)
	assert.Equal(t, "b", out[0].ID)
	assert.Equal(t, []string{"1", "7"}, out[0].Members)
	assert.True(t, created.Equal(out[0].CreatedAt))
	assert.Equal(t, "Ops", out[1].Name)

	require.NoError(t, database.SaveWorkspaces(in[1:]))
	out, err = database.ListWorkspaces()
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Equal(t, "a", out[0].ID)
}

func TestTasksRoundTrip(t *testing.T) {
	database := openTestDB(t)

	in := []models.Task{
		{
			ID: 2, Title: "Fix bug", Description: "crash on save", DueDate: "2024-01-15",
			Priority: models.PriorityHigh, Status: models.StatusTodo, Assignee: "John",
			Tags: []string{"backend", "urgent"}, Color: "#f00", CreatedBy: "Ann", WorkspaceID: "w1",
			Subtasks: []models.Subtask{
				{ID: 21, Title: "repro", Priority: models.PriorityLow, Tags: []string{"qa"}, Completed: true},
				{ID: 22, Title: "patch"},
			},
		},
		{ID: 1, Title: "Write docs", Status: models.StatusDone, WorkspaceID: "w2"},
	}
	require.NoError(t, database.SaveTasks(in))

	out, err := database.ListTasks()
	require.NoError(t, err)
	require.Len(t, out, 2)

	first := out[0]
	assert.Equal(t, int64(2), first.ID)
	assert.Equal(t, []string{"backend", "urgent"}, first.Tags)
	require.Len(t, first.Subtasks, 2)
	assert.True(t, first.Subtasks[0].Completed)
	assert.Equal(t, []string{"qa"}, first.Subtasks[0].Tags)
	assert.Equal(t, []string{}, first.Subtasks[1].Tags)
	assert.Equal(t, models.PriorityHigh, first.Priority)

	assert.Equal(t, int64(1), out[1].ID)
	assert.Empty(t, out[1].Tags)

	require.NoError(t, database.SaveTasks(nil))
	out, err = database.ListTasks()
	require.NoError(t, err)
	assert.Empty(t, out)
}

func TestTeamsRoundTrip(t *testing.T) {
	database := openTestDB(t)

	in := []models.Team{
		{ID: "dev", Name: "Development", Members: []models.Member{{ID: "m1", Name: "John Doe", Role: "Frontend Developer"}}},
		{ID: "mkt", Name: "Marketing"},
	}
	require.NoError(t, database.SaveTeams(in))

	out, err := database.ListTeams()
	require.NoError(t, err)
	require.Len(t, out, 2)
	assert.Equal(t, "Frontend Developer", out[0].Members[0].Role)
	assert.Empty(t, out[1].Members)
}

func TestComments(t *testing.T) {
	database := openTestDB(t)
	at := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)

	first, err := database.CreateComment(7, "You", "first", at)
	require.NoError(t, err)
	_, err = database.CreateComment(7, "Ana", "second", at.Add(time.Minute))
	require.NoError(t, err)
	_, err = database.CreateComment(8, "You", "elsewhere", at)
	require.NoError(t, err)

	assert.Equal(t, int64(7), first.TaskID)
	assert.True(t, at.Equal(first.CreatedAt))

	// Task snapshot saves leave comments alone
	require.NoError(t, database.SaveTasks([]models.Task{{ID: 7, Title: "x", WorkspaceID: "w"}}))

	comments, err := database.GetTaskComments(7)
	require.NoError(t, err)
	require.Len(t, comments, 2)
	assert.Equal(t, "first", comments[0].Content)
	assert.Equal(t, "Ana", comments[1].Author)

	removed, err := database.DeleteComment(first.ID)
	require.NoError(t, err)
	assert.True(t, removed)
	removed, err = database.DeleteComment(first.ID)
	require.NoError(t, err)
	assert.False(t, removed)

	require.NoError(t, database.DeleteTaskComments(7))
	comments, err = database.GetTaskComments(7)
	require.NoError(t, err)
	assert.Empty(t, comments)

	comments, err = database.GetTaskComments(8)
	require.NoError(t, err)
	assert.Len(t, comments, 1)
}

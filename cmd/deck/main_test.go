package main

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http/httptest"
	"path/filepath"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tgienger/deck/internal/config"
	"github.com/tgienger/deck/internal/db"
	"github.com/tgienger/deck/internal/errors"
	"github.com/tgienger/deck/internal/fakeapi"
	"github.com/tgienger/deck/internal/models"
	"github.com/tgienger/deck/internal/store"
)

// setup points the client at a seeded in-memory server and a throwaway data dir
func setup(t *testing.T) *fakeapi.Server {
	t.Helper()
	fake := fakeapi.New()
	fake.Seed()
	ts := httptest.NewServer(fake.Handler())
	t.Cleanup(func() {
		fake.Close()
		ts.Close()
	})

	t.Setenv(config.EnvAPIURL, ts.URL)
	t.Setenv(config.EnvDataDir, t.TempDir())
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(t.TempDir(), "config"))
	t.Setenv(config.EnvLogLevel, "error")
	return fake
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	root := newRootCmd()
	root.SetOut(&out)
	root.SetErr(&bytes.Buffer{})
	root.SetArgs(args)
	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

func mustRun(t *testing.T, args ...string) string {
	t.Helper()
	out, err := run(t, args...)
	require.NoError(t, err, "deck %v", args)
	return out
}

func login(t *testing.T) {
	t.Helper()
	out := mustRun(t, "login", "--email", fakeapi.DemoEmail, "--password", fakeapi.DemoPassword)
	assert.Contains(t, out, "Signed in as Demo User")
}

func TestWorkspaceAndTaskLifecycle(t *testing.T) {
	setup(t)

	var ws models.Workspace
	require.NoError(t, json.Unmarshal([]byte(mustRun(t, "workspace", "add", "Launch", "-m", "Ann", "-m", "Bo", "--json")), &ws))
	assert.Equal(t, "Launch", ws.Name)
	assert.Equal(t, []string{"Ann", "Bo"}, ws.Members)

	// A new workspace is selected, so task commands need no --workspace
	var task models.Task
	out := mustRun(t, "task", "add", "Write notes", "--due", "2030-05-01", "-a", "Ann", "-t", "docs", "--json")
	require.NoError(t, json.Unmarshal([]byte(out), &task))
	assert.Equal(t, ws.ID, task.WorkspaceID)
	assert.Equal(t, models.StatusTodo, task.Status)
	assert.Equal(t, models.PriorityMedium, task.Priority)

	mustRun(t, "task", "add", "Review", "-a", "Bo")

	var tasks []models.Task
	require.NoError(t, json.Unmarshal([]byte(mustRun(t, "task", "list", "--assignee", "Ann", "--json")), &tasks))
	require.Len(t, tasks, 1)
	assert.Equal(t, "Write notes", tasks[0].Title)

	id := strconv.FormatInt(task.ID, 10)
	mustRun(t, "task", "move", id, "2030-05-03", "--status", models.StatusDone)
	require.NoError(t, json.Unmarshal([]byte(mustRun(t, "task", "list", "--status", models.StatusDone, "--json")), &tasks))
	require.Len(t, tasks, 1)
	assert.Equal(t, "2030-05-03", tasks[0].DueDate)

	_, err := run(t, "task", "move", id, "--status", "nowhere")
	assert.True(t, errors.Is(err, errors.ErrCodeInvalidInput))

	mustRun(t, "workspace", "delete", "launch")
	_, err = run(t, "task", "list")
	assert.True(t, errors.Is(err, errors.ErrCodeInvalidInput), "no workspace selected after delete")
}

func TestTableOutput(t *testing.T) {
	setup(t)
	mustRun(t, "workspace", "add", "Ops")

	out := mustRun(t, "workspace", "list")
	assert.Contains(t, out, "Ops")
	assert.Contains(t, out, "Members")

	out = mustRun(t, "task", "list")
	assert.Contains(t, out, "Nothing to show")

	out = mustRun(t, "column", "list")
	assert.Contains(t, out, "In Progress")
}

func TestColumnRename(t *testing.T) {
	setup(t)
	mustRun(t, "column", "rename", models.StatusQA, "Review")

	var cols []models.Column
	require.NoError(t, json.Unmarshal([]byte(mustRun(t, "column", "list", "--json")), &cols))
	require.Len(t, cols, len(models.DefaultColumns()))
	assert.Equal(t, "Review", cols[2].Title)
}

func TestServerCommandsRequireSession(t *testing.T) {
	setup(t)
	_, err := run(t, "commitment", "list")
	assert.True(t, errors.Is(err, errors.ErrCodeUnauthorized))

	_, err = run(t, "login", "--email", fakeapi.DemoEmail, "--password", "wrong")
	assert.Error(t, err)

	login(t)
	mustRun(t, "logout")
	_, err = run(t, "whoami")
	assert.True(t, errors.Is(err, errors.ErrCodeUnauthorized))
}

func TestCommitmentCommands(t *testing.T) {
	setup(t)
	login(t)

	var created models.Commitment
	out := mustRun(t, "commitment", "create", "Write tests", "--due", "2030-01-02 15:04", "-p", "high", "--json")
	require.NoError(t, json.Unmarshal([]byte(out), &created))
	assert.Equal(t, models.CommitmentHigh, created.Priority)

	var items []models.Commitment
	require.NoError(t, json.Unmarshal([]byte(mustRun(t, "commitment", "list", "--json")), &items))
	assert.Contains(t, commitmentIDs(items), created.ID)

	mustRun(t, "commitment", "complete", created.ID)
	require.NoError(t, json.Unmarshal([]byte(mustRun(t, "commitment", "list", "--tab", "completed", "--json")), &items))
	assert.Contains(t, commitmentIDs(items), created.ID)

	mustRun(t, "commitment", "delete", created.ID)
	require.NoError(t, json.Unmarshal([]byte(mustRun(t, "commitment", "list", "--json")), &items))
	assert.NotContains(t, commitmentIDs(items), created.ID)

	_, err := run(t, "commitment", "create", "No due")
	assert.True(t, errors.Is(err, errors.ErrCodeInvalidInput))
}

func TestCommitmentExport(t *testing.T) {
	setup(t)
	login(t)

	path := filepath.Join(t.TempDir(), "out.xlsx")
	out := mustRun(t, "commitment", "export", "--output", path)
	assert.Contains(t, out, path)
	assert.FileExists(t, path)

	path = filepath.Join(t.TempDir(), "server.xlsx")
	mustRun(t, "commitment", "report", "--tab", "archived", "--output", path)
	assert.FileExists(t, path)
}

func TestNotificationCommands(t *testing.T) {
	setup(t)
	login(t)

	var items []models.Notification
	require.NoError(t, json.Unmarshal([]byte(mustRun(t, "notification", "list", "--unread", "--json")), &items))
	require.NotEmpty(t, items)

	mustRun(t, "notification", "read", items[0].ID)
	mustRun(t, "notification", "read-all")
	require.NoError(t, json.Unmarshal([]byte(mustRun(t, "notification", "list", "--unread", "--json")), &items))
	assert.Empty(t, items)
}

func TestDashboardAndTeams(t *testing.T) {
	setup(t)
	login(t)

	var m models.Metrics
	require.NoError(t, json.Unmarshal([]byte(mustRun(t, "dashboard", "metrics", "--json")), &m))
	assert.Positive(t, m.TeamMembers)

	out := mustRun(t, "dashboard", "meetings")
	assert.Contains(t, out, "Standup")

	var teams []models.Team
	require.NoError(t, json.Unmarshal([]byte(mustRun(t, "team", "list", "--json")), &teams))
	require.NotEmpty(t, teams)

	mustRun(t, "team", "rename", teams[0].ID, "Core")
	require.NoError(t, json.Unmarshal([]byte(mustRun(t, "team", "list", "--offline", "--json")), &teams))
	assert.Equal(t, "Core", teams[0].Name)
}

func TestParseTab(t *testing.T) {
	for in, want := range map[string]store.Tab{
		"all":       store.TabAll,
		"due-today": store.TabDueToday,
		"Due Today": store.TabDueToday,
		"ARCHIVED":  store.TabArchived,
	} {
		got, err := parseTab(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got)
	}
	_, err := parseTab("later")
	assert.True(t, errors.Is(err, errors.ErrCodeInvalidInput))
}

func commitmentIDs(items []models.Commitment) []string {
	ids := make([]string, len(items))
	for i, c := range items {
		ids[i] = c.ID
	}
	return ids
}

func TestSubtaskCommands(t *testing.T) {
	setup(t)
	mustRun(t, "workspace", "add", "Launch")

	var task models.Task
	require.NoError(t, json.Unmarshal([]byte(mustRun(t, "task", "add", "Ship", "--json")), &task))
	id := strconv.FormatInt(task.ID, 10)

	var first, second models.Subtask
	require.NoError(t, json.Unmarshal([]byte(mustRun(t, "task", "subtask", "add", id, "Write", "docs", "--json")), &first))
	require.NoError(t, json.Unmarshal([]byte(mustRun(t, "task", "subtask", "add", id, "Tag release", "--json")), &second))
	assert.Equal(t, "Write docs", first.Title)
	assert.NotZero(t, first.ID)
	assert.NotEqual(t, first.ID, second.ID)

	mustRun(t, "task", "subtask", "toggle", id, strconv.FormatInt(second.ID, 10))
	mustRun(t, "task", "subtask", "rm", id, strconv.FormatInt(first.ID, 10))

	var subs []models.Subtask
	require.NoError(t, json.Unmarshal([]byte(mustRun(t, "task", "subtask", "list", id, "--json")), &subs))
	require.Len(t, subs, 1)
	assert.Equal(t, second.ID, subs[0].ID)
	assert.True(t, subs[0].Completed)

	_, err := run(t, "task", "subtask", "rm", id, strconv.FormatInt(first.ID, 10))
	assert.True(t, errors.Is(err, errors.ErrCodeNotFound))
	_, err = run(t, "task", "subtask", "add", "999", "Nope")
	assert.True(t, errors.Is(err, errors.ErrCodeNotFound))
}

func TestCommentCommands(t *testing.T) {
	setup(t)
	mustRun(t, "workspace", "add", "Launch")

	var task models.Task
	require.NoError(t, json.Unmarshal([]byte(mustRun(t, "task", "add", "Ship", "--json")), &task))
	id := strconv.FormatInt(task.ID, 10)

	var anon models.Comment
	require.NoError(t, json.Unmarshal([]byte(mustRun(t, "task", "comment", "add", id, "first", "pass", "--json")), &anon))
	assert.Equal(t, store.DefaultCommentAuthor, anon.Author)
	assert.Equal(t, "first pass", anon.Content)

	login(t)
	mustRun(t, "task", "comment", "add", id, "looks good")

	var comments []models.Comment
	require.NoError(t, json.Unmarshal([]byte(mustRun(t, "task", "comment", "list", id, "--json")), &comments))
	require.Len(t, comments, 2)
	assert.Equal(t, "Demo User", comments[1].Author)

	mustRun(t, "task", "comment", "rm", strconv.FormatInt(anon.ID, 10))
	_, err := run(t, "task", "comment", "rm", strconv.FormatInt(anon.ID, 10))
	assert.True(t, errors.Is(err, errors.ErrCodeNotFound))

	_, err = run(t, "task", "comment", "add", id, "   ")
	assert.True(t, errors.Is(err, errors.ErrCodeInvalidInput))

	// Deleting the task drops its thread
	mustRun(t, "task", "delete", id)
	database, err := db.Open(filepath.Join(config.DataDir(), "deck.db"))
	require.NoError(t, err)
	defer database.Close()
	left, err := database.GetTaskComments(task.ID)
	require.NoError(t, err)
	assert.Empty(t, left)
}

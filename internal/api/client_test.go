package api

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tgienger/deck/internal/errors"
	"github.com/tgienger/deck/internal/fakeapi"
	"github.com/tgienger/deck/internal/models"
)

func newClient(t *testing.T, now time.Time) (*fakeapi.Server, *Client) {
	t.Helper()
	srv := fakeapi.New(fakeapi.WithClock(func() time.Time { return now }))
	srv.AddUser("Ann", "ann@example.com", "password123", true)
	token, err := srv.IssueToken("ann@example.com")
	require.NoError(t, err)

	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(func() {
		srv.Close()
		ts.Close()
	})
	return srv, New(ts.URL+"/api", WithTokenSource(StaticToken(token)))
}

func ptr[T any](v T) *T { return &v }

func TestCommitmentFilterValues(t *testing.T) {
	tests := []struct {
		name   string
		filter CommitmentFilter
		want   string
	}{
		{"all", CommitmentFilter{}, ""},
		{"upcoming", CommitmentFilter{Upcoming: true}, "upcoming=true"},
		{"due today", CommitmentFilter{DueToday: true}, "dueToday=true"},
		{"completed", CommitmentFilter{Status: models.CommitmentCompleted}, "status=Completed"},
		{"archived", CommitmentFilter{Archived: true}, "archived=true"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.filter.Values().Encode())
		})
	}
}

func TestCommitmentLifecycle(t *testing.T) {
	now := time.Date(2024, 1, 10, 9, 0, 0, 0, time.UTC)
	_, c := newClient(t, now)
	ctx := context.Background()

	created, err := c.CreateCommitment(ctx, models.CommitmentInput{
		Title:   ptr("Draft roadmap"),
		DueDate: ptr(now.Add(4 * time.Hour)),
	})
	require.NoError(t, err)
	assert.NotEmpty(t, created.ID)
	assert.Equal(t, models.CommitmentNotStarted, created.Status)

	updated, err := c.UpdateCommitment(ctx, created.ID, models.CommitmentInput{Priority: ptr(models.CommitmentHigh)})
	require.NoError(t, err)
	assert.Equal(t, models.CommitmentHigh, updated.Priority)
	assert.True(t, updated.UpdatedAt.After(created.UpdatedAt))

	today, err := c.ListCommitments(ctx, CommitmentFilter{DueToday: true})
	require.NoError(t, err)
	require.Len(t, today, 1)

	done, err := c.CompleteCommitment(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, models.CommitmentCompleted, done.Status)

	report, err := c.CommitmentReport(ctx, CommitmentFilter{Status: models.CommitmentCompleted}.Values())
	require.NoError(t, err)
	assert.Equal(t, "PK", string(report[:2]), "xlsx is a zip container")

	require.NoError(t, c.DeleteCommitment(ctx, created.ID))
	err = c.DeleteCommitment(ctx, created.ID)
	assert.True(t, errors.Is(err, errors.ErrCodeNotFound))
	assert.Equal(t, http.StatusNotFound, StatusCode(err))
}

func TestValidationMessages(t *testing.T) {
	_, c := newClient(t, time.Now())

	_, err := c.CreateCommitment(context.Background(), models.CommitmentInput{})
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrCodeValidation))
	msg, ok := ServerMessage(err)
	assert.True(t, ok)
	assert.Equal(t, "title should not be empty", msg)

	_, err = c.Register(context.Background(), "", "nope", "short")
	require.Error(t, err)
	msg, ok = ServerMessage(err)
	require.True(t, ok)
	assert.Contains(t, msg, "email must be an email")
	assert.Contains(t, msg, "; ")
}

func TestMissingTokenIsUnauthorized(t *testing.T) {
	_, c := newClient(t, time.Now())
	c.SetTokenSource(StaticToken(""))

	_, err := c.Metrics(context.Background())
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrCodeUnauthorized))
}

func TestUnreachableServerIsNetworkError(t *testing.T) {
	c := New("http://127.0.0.1:1/api", WithTimeout(time.Second))
	_, err := c.ListCommitments(context.Background(), CommitmentFilter{})
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrCodeNetwork))
	assert.Equal(t, MsgCannotConnect, errors.Message(err))
	assert.Equal(t, 0, StatusCode(err))
	_, ok := ServerMessage(err)
	assert.False(t, ok)
}

func TestUnknownEndpoint(t *testing.T) {
	srv := fakeapi.New()
	ts := httptest.NewServer(srv.Handler())
	defer ts.Close()

	c := New(ts.URL + "/nowhere")
	_, err := c.Meetings(context.Background())
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrCodeNotFound))
}

func TestNotifications(t *testing.T) {
	srv, c := newClient(t, time.Now())
	ctx := context.Background()
	first := srv.AddNotification(models.Notification{Type: models.NotificationMention, Message: "one"})
	srv.AddNotification(models.Notification{Type: models.NotificationDueSoon, Message: "two"})

	list, err := c.ListNotifications(ctx, 1)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "two", list[0].Message, "newest first")

	require.NoError(t, c.MarkNotificationRead(ctx, first.ID))
	require.NoError(t, c.DeleteNotification(ctx, first.ID))
	list, err = c.ListNotifications(ctx, 50)
	require.NoError(t, err)
	assert.Len(t, list, 1)

	require.NoError(t, c.RestoreNotification(ctx, first.ID))
	require.NoError(t, c.MarkAllNotificationsRead(ctx))
	list, err = c.ListNotifications(ctx, 50)
	require.NoError(t, err)
	require.Len(t, list, 2)
	for _, n := range list {
		assert.True(t, n.IsRead)
	}
}

func TestAuthFlow(t *testing.T) {
	srv, c := newClient(t, time.Now())
	ctx := context.Background()

	resp, err := c.Login(ctx, "ann@example.com", "password123")
	require.NoError(t, err)
	assert.NotEmpty(t, resp.AccessToken)
	require.NotNil(t, resp.User)
	assert.Equal(t, "Ann", resp.User.Name)

	_, err = c.Login(ctx, "ann@example.com", "wrong")
	assert.True(t, errors.Is(err, errors.ErrCodeUnauthorized))

	_, err = c.Register(ctx, "Bo", "bo@example.com", "password123")
	require.NoError(t, err)
	_, err = c.Register(ctx, "Bo", "bo@example.com", "password123")
	assert.True(t, errors.Is(err, errors.ErrCodeConflict))

	require.NoError(t, c.ResendVerification(ctx, "bo@example.com"))
	token := srv.VerificationToken("bo@example.com")
	srv.ExpireVerification(token)
	_, err = c.Verify(ctx, token, "bo@example.com")
	require.Error(t, err)
	assert.Contains(t, errors.Message(err), "expired")
}

func TestDashboardAndTeams(t *testing.T) {
	srv, c := newClient(t, time.Now())
	ctx := context.Background()
	team := srv.AddTeam(models.Team{Name: "Core", Members: []models.Member{{Name: "Ann", Role: "Lead"}}})

	m, err := c.CreateMeeting(ctx, models.Meeting{Title: "Sync", DateTime: time.Now().Add(time.Hour)})
	require.NoError(t, err)
	meetings, err := c.Meetings(ctx)
	require.NoError(t, err)
	assert.Len(t, meetings, 1)
	require.NoError(t, c.DeleteMeeting(ctx, m.ID))

	metrics, err := c.Metrics(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, metrics.TeamMembers)

	require.NoError(t, c.UpdateTeam(ctx, team.ID, "Platform"))
	require.NoError(t, c.UpdateMember(ctx, team.Members[0].ID, "Ann Lee", "Manager"))
	teams, err := c.ListTeams(ctx)
	require.NoError(t, err)
	require.Len(t, teams, 1)
	assert.Equal(t, "Platform", teams[0].Name)
	assert.Equal(t, "Manager", teams[0].Members[0].Role)

	ws, err := c.CreateWorkspace(ctx, "Eng")
	require.NoError(t, err)
	assert.Equal(t, "Ann", ws.Owner)
	all, err := c.ListWorkspaces(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

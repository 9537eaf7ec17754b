package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tgienger/deck/internal/api"
	"github.com/tgienger/deck/internal/models"
)

func TestDashboardStore(t *testing.T) {
	now := time.Now()
	srv, client := newAPI(t, now)
	srv.AddCommitment(models.Commitment{Title: "x", DueDate: now, Status: models.CommitmentCompleted})
	srv.AddMeeting(models.Meeting{Title: "Later", DateTime: now.Add(48 * time.Hour)})
	ctx := context.Background()

	s := NewDashboardStore(client)
	require.NoError(t, s.FetchMetrics(ctx))
	assert.Equal(t, 1, s.Metrics().CompletedTasks)

	require.NoError(t, s.FetchMeetings(ctx))
	created, err := s.CreateMeeting(ctx, models.Meeting{Title: "Sooner", DateTime: now.Add(time.Hour)})
	require.NoError(t, err)

	meetings := s.Meetings()
	require.Len(t, meetings, 2)
	assert.Equal(t, "Sooner", meetings[0].Title)

	require.NoError(t, s.DeleteMeeting(ctx, created.ID))
	assert.Len(t, s.Meetings(), 1)
	assert.Error(t, s.DeleteMeeting(ctx, created.ID))
	assert.Len(t, s.Meetings(), 1)
}

func TestDashboardErrorMessage(t *testing.T) {
	s := NewDashboardStore(api.New("http://127.0.0.1:1/api", api.WithTimeout(time.Second)))
	require.Error(t, s.FetchMetrics(context.Background()))
	assert.Equal(t, api.MsgCannotConnect, s.Error())
	s.ClearError()
	assert.Empty(t, s.Error())
}

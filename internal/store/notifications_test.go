package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tgienger/deck/internal/models"
)

func TestNotificationPriority(t *testing.T) {
	tests := []struct {
		typ  models.NotificationType
		want models.Priority
	}{
		{models.NotificationDueSoon, models.PriorityHigh},
		{models.NotificationMention, models.PriorityMedium},
		{models.NotificationAssignment, models.PriorityMedium},
		{models.NotificationStatusChange, models.PriorityLow},
		{"other", models.PriorityLow},
	}
	for _, tt := range tests {
		t.Run(string(tt.typ), func(t *testing.T) {
			assert.Equal(t, tt.want, NotificationPriority(tt.typ))
		})
	}
}

func TestNotificationStore(t *testing.T) {
	srv, client := newAPI(t, time.Now())
	a := srv.AddNotification(models.Notification{Type: models.NotificationMention, Message: "a"})
	b := srv.AddNotification(models.Notification{Type: models.NotificationDueSoon, Message: "b"})
	ctx := context.Background()

	s := NewNotificationStore(client)
	require.NoError(t, s.Fetch(ctx))
	require.Len(t, s.Items(), 2)
	assert.Equal(t, 2, s.UnreadCount())

	require.NoError(t, s.MarkRead(ctx, a.ID))
	assert.Equal(t, 1, s.UnreadCount())
	require.NoError(t, s.MarkUnread(ctx, a.ID))
	assert.Equal(t, 2, s.UnreadCount())

	require.NoError(t, s.Delete(ctx, b.ID))
	require.Len(t, s.Items(), 1)
	require.Len(t, s.Deleted(), 1)

	require.NoError(t, s.Restore(ctx, b.ID))
	assert.Len(t, s.Items(), 2)
	assert.Empty(t, s.Deleted())

	require.NoError(t, s.MarkAllRead(ctx))
	assert.Equal(t, 0, s.UnreadCount())
}

func TestNotificationFailureRefetches(t *testing.T) {
	srv, client := newAPI(t, time.Now())
	srv.AddNotification(models.Notification{Type: models.NotificationMention, Message: "a"})
	ctx := context.Background()

	s := NewNotificationStore(client)
	require.NoError(t, s.Fetch(ctx))

	err := s.MarkRead(ctx, "missing")
	require.Error(t, err)
	require.Len(t, s.Items(), 1)
	assert.False(t, s.Items()[0].IsRead)
}

package store

import (
	"context"
	"sync"

	"github.com/sirupsen/logrus"
	"github.com/tgienger/deck/internal/logging"
	"github.com/tgienger/deck/internal/models"
)

// NotificationLimit is how many notifications Fetch asks for
const NotificationLimit = 50

// NotificationAPI is the server side of the notification store
type NotificationAPI interface {
	ListNotifications(ctx context.Context, limit int) ([]models.Notification, error)
	MarkNotificationRead(ctx context.Context, id string) error
	MarkNotificationUnread(ctx context.Context, id string) error
	MarkAllNotificationsRead(ctx context.Context) error
	DeleteNotification(ctx context.Context, id string) error
	RestoreNotification(ctx context.Context, id string) error
}

// NotificationPriority ranks a notification type for display
func NotificationPriority(t models.NotificationType) models.Priority {
	switch t {
	case models.NotificationDueSoon:
		return models.PriorityHigh
	case models.NotificationMention, models.NotificationAssignment:
		return models.PriorityMedium
	}
	return models.PriorityLow
}

// NotificationStore caches the newest notifications. Mutations round-trip first and patch
// the cache on success; on failure the cache is re-fetched.
type NotificationStore struct {
	notifier

	mu      sync.RWMutex
	items   []models.Notification
	deleted []models.Notification

	api NotificationAPI
	log *logrus.Entry
}

// NewNotificationStore creates an empty store
func NewNotificationStore(a NotificationAPI) *NotificationStore {
	return &NotificationStore{api: a, log: logging.NewLogger("store.notifications")}
}

// Items returns the cached notifications, newest first
func (s *NotificationStore) Items() []models.Notification {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]models.Notification(nil), s.items...)
}

// Deleted returns notifications deleted in this session, most recent first, for undo
func (s *NotificationStore) Deleted() []models.Notification {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]models.Notification(nil), s.deleted...)
}

// UnreadCount counts cached unread notifications
func (s *NotificationStore) UnreadCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	n := 0
	for _, item := range s.items {
		if !item.IsRead {
			n++
		}
	}
	return n
}

// Fetch reloads the newest NotificationLimit notifications
func (s *NotificationStore) Fetch(ctx context.Context) error {
	list, err := s.api.ListNotifications(ctx, NotificationLimit)
	if err != nil {
		s.log.WithError(err).Warn("Failed to fetch notifications")
		return err
	}
	s.mu.Lock()
	s.items = list
	s.mu.Unlock()
	s.notify()
	return nil
}

// MarkRead marks one notification read
func (s *NotificationStore) MarkRead(ctx context.Context, id string) error {
	return s.mutate(ctx, id, "mark read", s.api.MarkNotificationRead, func() {
		s.setRead(id, true)
	})
}

// MarkUnread marks one notification unread
func (s *NotificationStore) MarkUnread(ctx context.Context, id string) error {
	return s.mutate(ctx, id, "mark unread", s.api.MarkNotificationUnread, func() {
		s.setRead(id, false)
	})
}

// MarkAllRead marks every notification read
func (s *NotificationStore) MarkAllRead(ctx context.Context) error {
	call := func(ctx context.Context, _ string) error { return s.api.MarkAllNotificationsRead(ctx) }
	return s.mutate(ctx, "", "mark all read", call, func() {
		for i := range s.items {
			s.items[i].IsRead = true
		}
	})
}

// Delete soft-deletes a notification and remembers it for Restore
func (s *NotificationStore) Delete(ctx context.Context, id string) error {
	return s.mutate(ctx, id, "delete", s.api.DeleteNotification, func() {
		for i, n := range s.items {
			if n.ID == id {
				s.deleted = append([]models.Notification{n}, s.deleted...)
				s.items = append(s.items[:i], s.items[i+1:]...)
				return
			}
		}
	})
}

// Restore undoes a delete and re-fetches so the notification lands in server order
func (s *NotificationStore) Restore(ctx context.Context, id string) error {
	err := s.mutate(ctx, id, "restore", s.api.RestoreNotification, func() {
		for i, n := range s.deleted {
			if n.ID == id {
				s.deleted = append(s.deleted[:i], s.deleted[i+1:]...)
				return
			}
		}
	})
	if err != nil {
		return err
	}
	return s.Fetch(ctx)
}

// mutate runs the server call, then patch under the lock. A failed call re-fetches the list.
func (s *NotificationStore) mutate(ctx context.Context, id, action string,
	call func(context.Context, string) error, patch func()) error {
	if err := call(ctx, id); err != nil {
		s.log.WithError(err).WithFields(logrus.Fields{"id": id, "action": action}).Warn("Notification update failed")
		if ferr := s.Fetch(ctx); ferr != nil {
			s.log.WithError(ferr).Debug("Refetch after failure also failed")
		}
		return err
	}
	s.mu.Lock()
	patch()
	s.mu.Unlock()
	s.notify()
	return nil
}

// setRead is called with s.mu held
func (s *NotificationStore) setRead(id string, read bool) {
	for i := range s.items {
		if s.items[i].ID == id {
			s.items[i].IsRead = read
			return
		}
	}
}

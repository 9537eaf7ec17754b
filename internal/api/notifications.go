package api

import (
	"context"
	"net/http"
	"net/url"
	"strconv"

	"github.com/tgienger/deck/internal/models"
)

// ListNotifications returns the newest notifications, at most limit
func (c *Client) ListNotifications(ctx context.Context, limit int) ([]models.Notification, error) {
	q := url.Values{}
	if limit > 0 {
		q.Set("limit", strconv.Itoa(limit))
	}
	var out []models.Notification
	if err := c.doJSON(ctx, http.MethodGet, "/notifications", q, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// MarkNotificationRead marks one notification read
func (c *Client) MarkNotificationRead(ctx context.Context, id string) error {
	return c.doJSON(ctx, http.MethodPatch, pathID("/notifications", id, "read"), nil, nil, nil)
}

// MarkNotificationUnread marks one notification unread
func (c *Client) MarkNotificationUnread(ctx context.Context, id string) error {
	return c.doJSON(ctx, http.MethodPatch, pathID("/notifications", id, "unread"), nil, nil, nil)
}

// MarkAllNotificationsRead marks every notification read
func (c *Client) MarkAllNotificationsRead(ctx context.Context) error {
	return c.doJSON(ctx, http.MethodPatch, "/notifications/mark-all-read", nil, nil, nil)
}

// DeleteNotification soft-deletes a notification
func (c *Client) DeleteNotification(ctx context.Context, id string) error {
	return c.doJSON(ctx, http.MethodDelete, pathID("/notifications", id), nil, nil, nil)
}

// RestoreNotification undoes a soft delete
func (c *Client) RestoreNotification(ctx context.Context, id string) error {
	return c.doJSON(ctx, http.MethodPut, pathID("/notifications", id, "restore"), nil, nil, nil)
}

package api

import (
	"context"
	"net/http"

	"github.com/tgienger/deck/internal/models"
)

// Metrics returns the dashboard counters
func (c *Client) Metrics(ctx context.Context) (models.Metrics, error) {
	var out models.Metrics
	err := c.doJSON(ctx, http.MethodGet, "/dashboard/metrics", nil, nil, &out)
	return out, err
}

// Meetings returns the scheduled meetings
func (c *Client) Meetings(ctx context.Context) ([]models.Meeting, error) {
	var out []models.Meeting
	if err := c.doJSON(ctx, http.MethodGet, "/dashboard/meetings", nil, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// CreateMeeting schedules a meeting
func (c *Client) CreateMeeting(ctx context.Context, m models.Meeting) (models.Meeting, error) {
	var out models.Meeting
	err := c.doJSON(ctx, http.MethodPost, "/dashboard/meetings", nil, m, &out)
	return out, err
}

// DeleteMeeting cancels a meeting
func (c *Client) DeleteMeeting(ctx context.Context, id string) error {
	return c.doJSON(ctx, http.MethodDelete, pathID("/dashboard/meetings", id), nil, nil, nil)
}

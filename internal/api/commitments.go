package api

import (
	"context"
	"net/http"
	"net/url"

	"github.com/tgienger/deck/internal/models"
)

// CommitmentFilter maps to the list query parameters. Zero value lists everything.
type CommitmentFilter struct {
	Upcoming bool
	DueToday bool
	Status   models.CommitmentStatus
	Archived bool
}

// Values encodes the filter as query parameters, omitting empty ones
func (f CommitmentFilter) Values() url.Values {
	v := url.Values{}
	if f.Upcoming {
		v.Set("upcoming", "true")
	}
	if f.DueToday {
		v.Set("dueToday", "true")
	}
	if f.Status != "" {
		v.Set("status", string(f.Status))
	}
	if f.Archived {
		v.Set("archived", "true")
	}
	return v
}

// ListCommitments returns commitments matching the filter
func (c *Client) ListCommitments(ctx context.Context, f CommitmentFilter) ([]models.Commitment, error) {
	var out []models.Commitment
	if err := c.doJSON(ctx, http.MethodGet, "/commitments", f.Values(), nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// CreateCommitment creates a commitment
func (c *Client) CreateCommitment(ctx context.Context, in models.CommitmentInput) (models.Commitment, error) {
	var out models.Commitment
	err := c.doJSON(ctx, http.MethodPost, "/commitments", nil, in, &out)
	return out, err
}

// UpdateCommitment patches a commitment
func (c *Client) UpdateCommitment(ctx context.Context, id string, in models.CommitmentInput) (models.Commitment, error) {
	var out models.Commitment
	err := c.doJSON(ctx, http.MethodPatch, pathID("/commitments", id), nil, in, &out)
	return out, err
}

// CompleteCommitment marks a commitment completed
func (c *Client) CompleteCommitment(ctx context.Context, id string) (models.Commitment, error) {
	var out models.Commitment
	err := c.doJSON(ctx, http.MethodPatch, pathID("/commitments", id, "complete"), nil, nil, &out)
	return out, err
}

// DeleteCommitment deletes a commitment
func (c *Client) DeleteCommitment(ctx context.Context, id string) error {
	return c.doJSON(ctx, http.MethodDelete, pathID("/commitments", id), nil, nil, nil)
}

// CommitmentReport downloads the server-generated report. params are passed through as query.
func (c *Client) CommitmentReport(ctx context.Context, params url.Values) ([]byte, error) {
	return c.do(ctx, http.MethodGet, "/commitments/report", params, nil)
}

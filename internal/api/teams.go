package api

import (
	"context"
	"net/http"

	"github.com/tgienger/deck/internal/models"
)

// ListWorkspaces returns the workspaces known to the server
func (c *Client) ListWorkspaces(ctx context.Context) ([]models.Workspace, error) {
	var out []models.Workspace
	if err := c.doJSON(ctx, http.MethodGet, "/workspaces", nil, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// CreateWorkspace registers a workspace on the server
func (c *Client) CreateWorkspace(ctx context.Context, name string) (models.Workspace, error) {
	var out models.Workspace
	err := c.doJSON(ctx, http.MethodPost, "/workspaces", nil, map[string]string{"name": name}, &out)
	return out, err
}

// ListTeams returns all team rosters
func (c *Client) ListTeams(ctx context.Context) ([]models.Team, error) {
	var out []models.Team
	if err := c.doJSON(ctx, http.MethodGet, "/teams", nil, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// UpdateTeam renames a team
func (c *Client) UpdateTeam(ctx context.Context, id, name string) error {
	return c.doJSON(ctx, http.MethodPatch, pathID("/teams", id), nil, map[string]string{"name": name}, nil)
}

// UpdateMember changes a member's name and role
func (c *Client) UpdateMember(ctx context.Context, id, name, role string) error {
	body := map[string]string{"name": name, "role": role}
	return c.doJSON(ctx, http.MethodPatch, pathID("/teams/members", id), nil, body, nil)
}

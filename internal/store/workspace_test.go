package store

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tgienger/deck/internal/errors"
	"github.com/tgienger/deck/internal/models"
)

func TestAddWorkspaceSelectsIt(t *testing.T) {
	s := NewWorkspaceStore(nil, "Ann")

	ws, err := s.Add(WorkspaceInput{Name: "Eng"})
	require.NoError(t, err)
	require.NoError(t, s.Select(&ws))

	sel := s.Selected()
	require.NotNil(t, sel)
	assert.Equal(t, "Eng", sel.Name)
	_, err = uuid.Parse(sel.ID)
	assert.NoError(t, err)
	_, ok := s.Get(sel.ID)
	assert.True(t, ok)
	assert.Equal(t, []string{"Ann"}, sel.Members)
	assert.Equal(t, DefaultOwner, sel.Owner)
}

func TestWorkspaceValidation(t *testing.T) {
	s := NewWorkspaceStore(nil, "Ann")
	_, err := s.Add(WorkspaceInput{Name: "  "})
	assert.True(t, errors.Is(err, errors.ErrCodeInvalidInput))
	assert.Empty(t, s.List())

	err = s.SelectID("missing")
	assert.True(t, errors.Is(err, errors.ErrCodeNotFound))
}

func TestUpdateRefreshesSelection(t *testing.T) {
	s := NewWorkspaceStore(nil, "Ann")
	ws, err := s.Add(WorkspaceInput{Name: "Eng"})
	require.NoError(t, err)

	require.NoError(t, s.Update(ws.ID, WorkspacePatch{Name: strPtr("Engineering"), Members: []string{"Ann", "Bo"}}))
	assert.Equal(t, "Engineering", s.Selected().Name)
	assert.Equal(t, []string{"Ann", "Bo"}, s.Selected().Members)

	other, err := s.Add(WorkspaceInput{Name: "Ops"})
	require.NoError(t, err)
	require.NoError(t, s.Update(ws.ID, WorkspacePatch{Description: strPtr("core")}))
	assert.Equal(t, other.ID, s.Selected().ID, "updating an unselected workspace keeps the selection")
}

func TestDeleteClearsSelection(t *testing.T) {
	s := NewWorkspaceStore(nil, "Ann")
	a, _ := s.Add(WorkspaceInput{Name: "A"})
	b, _ := s.Add(WorkspaceInput{Name: "B"})

	require.NoError(t, s.Delete(a.ID))
	assert.Equal(t, b.ID, s.Selected().ID)

	require.NoError(t, s.Delete(b.ID))
	assert.Nil(t, s.Selected())
	assert.Empty(t, s.List())
	assert.True(t, errors.Is(s.Delete(b.ID), errors.ErrCodeNotFound))
}

func TestSelectNilClears(t *testing.T) {
	s := NewWorkspaceStore(nil, "Ann")
	_, _ = s.Add(WorkspaceInput{Name: "A"})
	require.NoError(t, s.Select(nil))
	assert.Nil(t, s.Selected())
}

func TestWorkspacesPersist(t *testing.T) {
	d := openDB(t)
	s := NewWorkspaceStore(d, "Ann")
	a, err := s.Add(WorkspaceInput{Name: "A", Description: "first"})
	require.NoError(t, err)
	_, err = s.Add(WorkspaceInput{Name: "B"})
	require.NoError(t, err)
	require.NoError(t, s.SelectID(a.ID))

	reloaded := NewWorkspaceStore(d, "Ann")
	require.NoError(t, reloaded.Load())
	list := reloaded.List()
	require.Len(t, list, 2)
	assert.Equal(t, "A", list[0].Name)
	assert.Equal(t, "first", list[0].Description)
	require.NotNil(t, reloaded.Selected())
	assert.Equal(t, a.ID, reloaded.Selected().ID)
}

func TestWorkspaceSubscribe(t *testing.T) {
	s := NewWorkspaceStore(nil, "Ann")
	ch := s.Subscribe()
	defer s.Unsubscribe(ch)

	_, err := s.Add(WorkspaceInput{Name: "A"})
	require.NoError(t, err)
	assert.True(t, received(ch))
}

type workspaceSource []models.Workspace

func (w workspaceSource) ListWorkspaces(context.Context) ([]models.Workspace, error) {
	return w, nil
}

func TestPullKeepsSelectionWhenPresent(t *testing.T) {
	s := NewWorkspaceStore(nil, "Ann")
	local, _ := s.Add(WorkspaceInput{Name: "Local"})

	remote := workspaceSource{{ID: local.ID, Name: "Renamed"}, {ID: "r2", Name: "Other"}}
	require.NoError(t, s.Pull(context.Background(), remote))
	assert.Len(t, s.List(), 2)
	assert.Equal(t, "Renamed", s.Selected().Name)

	require.NoError(t, s.Pull(context.Background(), workspaceSource{{ID: "r2", Name: "Other"}}))
	assert.Nil(t, s.Selected())
}

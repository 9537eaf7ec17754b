package store

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/tgienger/deck/internal/errors"
	"github.com/tgienger/deck/internal/logging"
	"github.com/tgienger/deck/internal/models"
)

// DefaultOwner labels workspaces created without an explicit owner
const DefaultOwner = "Current User"

// WorkspaceInput is the payload for Add
type WorkspaceInput struct {
	Name        string
	Description string
	Members     []string
	Owner       string
}

// WorkspacePatch holds the fields to merge in Update. Nil fields are left alone.
type WorkspacePatch struct {
	Name        *string
	Description *string
	Members     []string
	Owner       *string
}

// WorkspaceSource lists the workspaces known to the server
type WorkspaceSource interface {
	ListWorkspaces(ctx context.Context) ([]models.Workspace, error)
}

// WorkspaceStore holds the workspace collection and the active selection
type WorkspaceStore struct {
	notifier

	mu          sync.RWMutex
	workspaces  []models.Workspace
	selected    *models.Workspace
	currentUser string
	persist     WorkspacePersister
	now         Clock
	log         *logrus.Entry
}

// NewWorkspaceStore creates an empty store. A nil persister keeps state in memory only.
func NewWorkspaceStore(p WorkspacePersister, currentUser string) *WorkspaceStore {
	return &WorkspaceStore{
		persist:     p,
		currentUser: currentUser,
		now:         time.Now,
		log:         logging.NewLogger("store.workspace"),
	}
}

// SetCurrentUser sets the member added to new workspaces
func (s *WorkspaceStore) SetCurrentUser(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.currentUser = name
}

// Load restores the collection and the selection from the persister
func (s *WorkspaceStore) Load() error {
	if s.persist == nil {
		return nil
	}
	list, err := s.persist.ListWorkspaces()
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeStorage, "failed to load workspaces")
	}
	selectedID, err := s.persist.GetSetting(keySelectedWorkspace)
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeStorage, "failed to load workspace selection")
	}

	s.mu.Lock()
	s.workspaces = list
	s.selected = nil
	if i := indexWorkspace(list, selectedID); i >= 0 {
		ws := cloneWorkspace(list[i])
		s.selected = &ws
	}
	s.mu.Unlock()
	s.notify()
	return nil
}

// List returns a copy of the collection in insertion order
func (s *WorkspaceStore) List() []models.Workspace {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.Workspace, len(s.workspaces))
	for i, ws := range s.workspaces {
		out[i] = cloneWorkspace(ws)
	}
	return out
}

// Get returns the workspace with the given id
func (s *WorkspaceStore) Get(id string) (models.Workspace, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	i := indexWorkspace(s.workspaces, id)
	if i < 0 {
		return models.Workspace{}, false
	}
	return cloneWorkspace(s.workspaces[i]), true
}

// Selected returns the active workspace, or nil when none is selected
func (s *WorkspaceStore) Selected() *models.Workspace {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.selected == nil {
		return nil
	}
	ws := cloneWorkspace(*s.selected)
	return &ws
}

// Select makes ws the active workspace. Nil clears the selection.
func (s *WorkspaceStore) Select(ws *models.Workspace) error {
	if ws == nil {
		return s.SelectID("")
	}
	return s.SelectID(ws.ID)
}

// SelectID selects by id. An empty id clears the selection.
func (s *WorkspaceStore) SelectID(id string) error {
	s.mu.Lock()
	if id == "" {
		s.selected = nil
	} else {
		i := indexWorkspace(s.workspaces, id)
		if i < 0 {
			s.mu.Unlock()
			return errors.New(errors.ErrCodeNotFound, "workspace not found").WithDetail("id", id)
		}
		ws := cloneWorkspace(s.workspaces[i])
		s.selected = &ws
	}
	err := s.saveLocked()
	s.mu.Unlock()
	s.notify()
	return err
}

// Add appends a new workspace and selects it
func (s *WorkspaceStore) Add(in WorkspaceInput) (models.Workspace, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return models.Workspace{}, errors.InvalidInput("workspace name is required")
	}

	s.mu.Lock()
	ws := models.Workspace{
		ID:          uuid.NewString(),
		Name:        name,
		Description: in.Description,
		Members:     append([]string{}, in.Members...),
		Owner:       in.Owner,
		CreatedAt:   s.now(),
	}
	if len(ws.Members) == 0 && s.currentUser != "" {
		ws.Members = []string{s.currentUser}
	}
	if ws.Owner == "" {
		ws.Owner = DefaultOwner
	}
	s.workspaces = append(s.workspaces, ws)
	selected := cloneWorkspace(ws)
	s.selected = &selected
	err := s.saveLocked()
	s.mu.Unlock()

	s.log.WithField("id", ws.ID).Debug("Workspace added")
	s.notify()
	return cloneWorkspace(ws), err
}

// Update merges patch into the workspace. A selected workspace is refreshed from the same merge.
func (s *WorkspaceStore) Update(id string, patch WorkspacePatch) error {
	s.mu.Lock()
	i := indexWorkspace(s.workspaces, id)
	if i < 0 {
		s.mu.Unlock()
		return errors.New(errors.ErrCodeNotFound, "workspace not found").WithDetail("id", id)
	}
	ws := &s.workspaces[i]
	if patch.Name != nil {
		name := strings.TrimSpace(*patch.Name)
		if name == "" {
			s.mu.Unlock()
			return errors.InvalidInput("workspace name is required")
		}
		ws.Name = name
	}
	if patch.Description != nil {
		ws.Description = *patch.Description
	}
	if patch.Members != nil {
		ws.Members = append([]string{}, patch.Members...)
	}
	if patch.Owner != nil {
		ws.Owner = *patch.Owner
	}
	if s.selected != nil && s.selected.ID == id {
		merged := cloneWorkspace(*ws)
		s.selected = &merged
	}
	err := s.saveLocked()
	s.mu.Unlock()
	s.notify()
	return err
}

// Delete removes the workspace and clears the selection when it was selected
func (s *WorkspaceStore) Delete(id string) error {
	s.mu.Lock()
	i := indexWorkspace(s.workspaces, id)
	if i < 0 {
		s.mu.Unlock()
		return errors.New(errors.ErrCodeNotFound, "workspace not found").WithDetail("id", id)
	}
	s.workspaces = append(s.workspaces[:i], s.workspaces[i+1:]...)
	if s.selected != nil && s.selected.ID == id {
		s.selected = nil
	}
	err := s.saveLocked()
	s.mu.Unlock()
	s.notify()
	return err
}

// Pull replaces the collection with the server's list, keeping the selection when it still exists
func (s *WorkspaceStore) Pull(ctx context.Context, src WorkspaceSource) error {
	list, err := src.ListWorkspaces(ctx)
	if err != nil {
		s.log.WithError(err).Warn("Failed to pull workspaces")
		return err
	}

	s.mu.Lock()
	s.workspaces = list
	if s.selected != nil {
		if i := indexWorkspace(list, s.selected.ID); i >= 0 {
			ws := cloneWorkspace(list[i])
			s.selected = &ws
		} else {
			s.selected = nil
		}
	}
	err = s.saveLocked()
	s.mu.Unlock()
	s.notify()
	return err
}

func (s *WorkspaceStore) saveLocked() error {
	if s.persist == nil {
		return nil
	}
	if err := s.persist.SaveWorkspaces(s.workspaces); err != nil {
		s.log.WithError(err).Warn("Failed to persist workspaces")
		return errors.Wrap(err, errors.ErrCodeStorage, "failed to save workspaces")
	}
	selected := ""
	if s.selected != nil {
		selected = s.selected.ID
	}
	if err := s.persist.SetSetting(keySelectedWorkspace, selected); err != nil {
		return errors.Wrap(err, errors.ErrCodeStorage, "failed to save workspace selection")
	}
	return nil
}

func indexWorkspace(list []models.Workspace, id string) int {
	if id == "" {
		return -1
	}
	for i, ws := range list {
		if ws.ID == id {
			return i
		}
	}
	return -1
}

func cloneWorkspace(ws models.Workspace) models.Workspace {
	ws.Members = append([]string(nil), ws.Members...)
	return ws
}

// Package store holds the client-side state containers. Each store is an explicit instance
// guarded by its own lock; subscribers get a signal after every change.
package store

import (
	"sync"
	"time"

	"github.com/tgienger/deck/internal/models"
)

// Settings keys
const (
	keySelectedWorkspace = "workspace.selected"
	keyCalendarView      = "calendar.view"
	keyCalendarDate      = "calendar.date"
	keyBoardColumns      = "board.columns"
	keyAuthToken         = "auth.token"
	keyAuthUser          = "auth.user"
)

// Clock returns the current time
type Clock func() time.Time

// SettingsStore is a string key/value store. Setting an empty value removes the key.
type SettingsStore interface {
	GetSetting(key string) (string, error)
	SetSetting(key, value string) error
}

// WorkspacePersister saves the workspace collection and the selection
type WorkspacePersister interface {
	SettingsStore
	SaveWorkspaces(workspaces []models.Workspace) error
	ListWorkspaces() ([]models.Workspace, error)
}

// TaskPersister saves tasks and the calendar cursor
type TaskPersister interface {
	SettingsStore
	SaveTasks(tasks []models.Task) error
	ListTasks() ([]models.Task, error)
}

// CommentPersister keeps task comments
type CommentPersister interface {
	CreateComment(taskID int64, author, content string, at time.Time) (*models.Comment, error)
	GetTaskComments(taskID int64) ([]models.Comment, error)
	DeleteComment(id int64) (bool, error)
	DeleteTaskComments(taskID int64) error
}

// TeamPersister saves team rosters
type TeamPersister interface {
	SaveTeams(teams []models.Team) error
	ListTeams() ([]models.Team, error)
}

// notifier fans change signals out to subscribers without blocking the writer
type notifier struct {
	subMu sync.Mutex
	subs  map[chan struct{}]struct{}
}

// Subscribe returns a channel that receives a signal after each change.
// Signals coalesce: a slow reader sees at most one pending signal.
func (n *notifier) Subscribe() chan struct{} {
	n.subMu.Lock()
	defer n.subMu.Unlock()
	if n.subs == nil {
		n.subs = make(map[chan struct{}]struct{})
	}
	ch := make(chan struct{}, 1)
	n.subs[ch] = struct{}{}
	return ch
}

// Unsubscribe removes a subscription and closes its channel
func (n *notifier) Unsubscribe(ch chan struct{}) {
	n.subMu.Lock()
	defer n.subMu.Unlock()
	if _, ok := n.subs[ch]; ok {
		delete(n.subs, ch)
		close(ch)
	}
}

func (n *notifier) notify() {
	n.subMu.Lock()
	defer n.subMu.Unlock()
	for ch := range n.subs {
		select {
		case ch <- struct{}{}:
		default:
		}
	}
}

// idGen hands out strictly increasing millisecond-based ids
type idGen struct {
	mu   sync.Mutex
	last int64
}

func (g *idGen) next(now time.Time) int64 {
	g.mu.Lock()
	defer g.mu.Unlock()
	id := now.UnixMilli()
	if id <= g.last {
		id = g.last + 1
	}
	g.last = id
	return id
}

// observe makes sure later ids stay above id
func (g *idGen) observe(id int64) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if id > g.last {
		g.last = id
	}
}

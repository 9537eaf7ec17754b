package store

import (
	"context"
	"net/url"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/tgienger/deck/internal/api"
	"github.com/tgienger/deck/internal/errors"
	"github.com/tgienger/deck/internal/logging"
	"github.com/tgienger/deck/internal/models"
)

// Tab selects which commitments the dashboard lists
type Tab string

const (
	TabAll       Tab = "All"
	TabUpcoming  Tab = "Upcoming"
	TabDueToday  Tab = "Due Today"
	TabCompleted Tab = "Completed"
	TabArchived  Tab = "Archived"
)

// Tabs lists the dashboard tabs in display order
func Tabs() []Tab {
	return []Tab{TabAll, TabUpcoming, TabDueToday, TabCompleted, TabArchived}
}

// Valid reports whether t is a known tab
func (t Tab) Valid() bool {
	for _, known := range Tabs() {
		if t == known {
			return true
		}
	}
	return false
}

// Filter maps the tab to list query parameters
func (t Tab) Filter() api.CommitmentFilter {
	switch t {
	case TabUpcoming:
		return api.CommitmentFilter{Upcoming: true}
	case TabDueToday:
		return api.CommitmentFilter{DueToday: true}
	case TabCompleted:
		return api.CommitmentFilter{Status: models.CommitmentCompleted}
	case TabArchived:
		return api.CommitmentFilter{Archived: true}
	}
	return api.CommitmentFilter{}
}

// CommitmentAPI is the server side of the commitment store
type CommitmentAPI interface {
	ListCommitments(ctx context.Context, f api.CommitmentFilter) ([]models.Commitment, error)
	CreateCommitment(ctx context.Context, in models.CommitmentInput) (models.Commitment, error)
	UpdateCommitment(ctx context.Context, id string, in models.CommitmentInput) (models.Commitment, error)
	CompleteCommitment(ctx context.Context, id string) (models.Commitment, error)
	DeleteCommitment(ctx context.Context, id string) error
	CommitmentReport(ctx context.Context, params url.Values) ([]byte, error)
}

// version is the newest state observed for one commitment id. seq is the fetch counter
// at the time of the observation.
type version struct {
	at      time.Time
	deleted bool
	seq     uint64
}

// CommitmentStore caches the server's commitment list for the active tab and merges push events.
//
// Every observation (reload row or push event) is versioned by UpdatedAt. An observation older
// than the newest one seen for its id is ignored, so a slow reload cannot undo a newer push and
// a late push cannot undo a newer reload. Deletes leave a tombstone that blocks resurrection by
// older observations. Entries created by push while a reload is in flight survive that reload.
//
// Versions are forgotten once an applied reload shows they no longer matter: after each applied
// reload the store only remembers ids in the server's answer, ids in the resulting list and ids
// observed while that reload was in flight. A push older than a forgotten tombstone can therefore
// bring the id back, but only until the next reload.
type CommitmentStore struct {
	notifier

	mu       sync.RWMutex
	items    []models.Commitment
	tab      Tab
	seen     map[string]version
	fetchSeq uint64
	inflight map[uint64]map[string]bool

	api CommitmentAPI
	log *logrus.Entry
}

// NewCommitmentStore creates an empty store on the All tab
func NewCommitmentStore(a CommitmentAPI) *CommitmentStore {
	return &CommitmentStore{
		tab:      TabAll,
		seen:     make(map[string]version),
		inflight: make(map[uint64]map[string]bool),
		api:      a,
		log:      logging.NewLogger("store.commitments"),
	}
}

// Items returns a copy of the current list
func (s *CommitmentStore) Items() []models.Commitment {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]models.Commitment(nil), s.items...)
}

// Get returns a cached commitment by id
func (s *CommitmentStore) Get(id string) (models.Commitment, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if i := indexCommitment(s.items, id); i >= 0 {
		return s.items[i], true
	}
	return models.Commitment{}, false
}

// Tab returns the active tab
func (s *CommitmentStore) Tab() Tab {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.tab
}

// Fetch activates tab and reloads the list from the server. When several fetches overlap,
// only the most recently started one is applied.
func (s *CommitmentStore) Fetch(ctx context.Context, tab Tab) error {
	if !tab.Valid() {
		return errors.InvalidInput("unknown commitment tab").WithDetail("tab", tab)
	}

	s.mu.Lock()
	s.tab = tab
	s.fetchSeq++
	seq := s.fetchSeq
	s.inflight[seq] = make(map[string]bool)
	s.mu.Unlock()

	list, err := s.api.ListCommitments(ctx, tab.Filter())

	s.mu.Lock()
	created := s.inflight[seq]
	delete(s.inflight, seq)
	if err != nil {
		s.mu.Unlock()
		s.log.WithError(err).WithField("tab", tab).Warn("Failed to fetch commitments")
		return err
	}
	if seq != s.fetchSeq {
		s.mu.Unlock()
		s.log.WithField("tab", tab).Debug("Discarding superseded fetch")
		return nil
	}
	s.items = s.mergeLocked(list, created)
	s.pruneLocked(seq, list)
	s.mu.Unlock()
	s.notify()
	return nil
}

// Reload fetches the active tab again
func (s *CommitmentStore) Reload(ctx context.Context) error {
	return s.Fetch(ctx, s.Tab())
}

// mergeLocked builds the new list from a reload result. created holds ids pushed as
// created while the reload was in flight.
func (s *CommitmentStore) mergeLocked(list []models.Commitment, created map[string]bool) []models.Commitment {
	current := make(map[string]models.Commitment, len(s.items))
	for _, c := range s.items {
		current[c.ID] = c
	}

	out := make([]models.Commitment, 0, len(list)+len(created))
	inResult := make(map[string]bool, len(list))
	for _, c := range s.items {
		if created[c.ID] && !containsCommitment(list, c.ID) {
			out = append(out, c)
			inResult[c.ID] = true
		}
	}
	for _, c := range list {
		if inResult[c.ID] {
			continue
		}
		v, known := s.seen[c.ID]
		switch {
		case known && v.deleted && (v.at.IsZero() || !c.UpdatedAt.After(v.at)):
			continue
		case known && c.UpdatedAt.Before(v.at):
			if local, ok := current[c.ID]; ok {
				c = local
			}
		default:
			s.seen[c.ID] = version{at: c.UpdatedAt, seq: s.fetchSeq}
		}
		inResult[c.ID] = true
		out = append(out, c)
	}
	return out
}

// pruneLocked drops versions observed before fetch seq started for ids that neither the
// server's answer nor the merged list mention
func (s *CommitmentStore) pruneLocked(seq uint64, list []models.Commitment) {
	keep := make(map[string]bool, len(list)+len(s.items))
	for _, c := range list {
		keep[c.ID] = true
	}
	for _, c := range s.items {
		keep[c.ID] = true
	}
	for id, v := range s.seen {
		if !keep[id] && v.seq < seq {
			delete(s.seen, id)
		}
	}
}

// Apply merges one push event and reports whether the list changed
func (s *CommitmentStore) Apply(event models.CommitmentEvent, c models.Commitment) bool {
	s.mu.Lock()
	applied := s.applyLocked(event, c)
	s.mu.Unlock()

	fields := logrus.Fields{"event": event, "id": c.ID}
	if !applied {
		s.log.WithFields(fields).Debug("Push event ignored")
		return false
	}
	s.log.WithFields(fields).Debug("Push event applied")
	s.notify()
	return true
}

func (s *CommitmentStore) applyLocked(event models.CommitmentEvent, c models.Commitment) bool {
	if c.ID == "" || !event.Valid() {
		return false
	}
	if s.stale(c) {
		return false
	}

	i := indexCommitment(s.items, c.ID)
	switch event {
	case models.EventCreated:
		if i >= 0 {
			s.items[i] = c
		} else {
			s.items = append([]models.Commitment{c}, s.items...)
		}
		for _, created := range s.inflight {
			created[c.ID] = true
		}
		s.seen[c.ID] = version{at: c.UpdatedAt, seq: s.fetchSeq}
	case models.EventUpdated, models.EventCompleted, models.EventArchived:
		if i < 0 {
			return false
		}
		s.items[i] = c
		s.seen[c.ID] = version{at: c.UpdatedAt, seq: s.fetchSeq}
	case models.EventDeleted:
		at := c.UpdatedAt
		if prev, ok := s.seen[c.ID]; ok && at.IsZero() {
			at = prev.at
		}
		s.seen[c.ID] = version{at: at, deleted: true, seq: s.fetchSeq}
		for _, created := range s.inflight {
			delete(created, c.ID)
		}
		if i < 0 {
			return false
		}
		s.items = append(s.items[:i], s.items[i+1:]...)
	}
	return true
}

// stale reports whether c is older than what the store has already observed.
// Events without a timestamp carry no ordering information and are never stale,
// except against a tombstone.
func (s *CommitmentStore) stale(c models.Commitment) bool {
	v, ok := s.seen[c.ID]
	if !ok {
		return false
	}
	if v.deleted {
		return v.at.IsZero() || !c.UpdatedAt.After(v.at)
	}
	return !c.UpdatedAt.IsZero() && c.UpdatedAt.Before(v.at)
}

// Create creates a commitment on the server and reloads the active tab
func (s *CommitmentStore) Create(ctx context.Context, in models.CommitmentInput) (models.Commitment, error) {
	c, err := s.api.CreateCommitment(ctx, in)
	if err != nil {
		s.log.WithError(err).Warn("Failed to create commitment")
		return models.Commitment{}, err
	}
	return c, s.Reload(ctx)
}

// Update patches a commitment on the server and reloads the active tab
func (s *CommitmentStore) Update(ctx context.Context, id string, in models.CommitmentInput) (models.Commitment, error) {
	c, err := s.api.UpdateCommitment(ctx, id, in)
	if err != nil {
		s.log.WithError(err).WithField("id", id).Warn("Failed to update commitment")
		return models.Commitment{}, err
	}
	return c, s.Reload(ctx)
}

// Complete marks a commitment completed on the server and reloads the active tab
func (s *CommitmentStore) Complete(ctx context.Context, id string) (models.Commitment, error) {
	c, err := s.api.CompleteCommitment(ctx, id)
	if err != nil {
		s.log.WithError(err).WithField("id", id).Warn("Failed to complete commitment")
		return models.Commitment{}, err
	}
	return c, s.Reload(ctx)
}

// Archive sets the archived flag through an update
func (s *CommitmentStore) Archive(ctx context.Context, id string, archived bool) (models.Commitment, error) {
	return s.Update(ctx, id, models.CommitmentInput{Archived: &archived})
}

// Delete deletes on the server first; the row is removed only once the server confirmed
func (s *CommitmentStore) Delete(ctx context.Context, id string) error {
	if err := s.api.DeleteCommitment(ctx, id); err != nil {
		s.log.WithError(err).WithField("id", id).Warn("Failed to delete commitment")
		return err
	}
	s.mu.Lock()
	s.applyLocked(models.EventDeleted, models.Commitment{ID: id})
	s.mu.Unlock()
	s.notify()
	return s.Reload(ctx)
}

// Report downloads the workbook for params, or for the active tab when params is nil
func (s *CommitmentStore) Report(ctx context.Context, params url.Values) ([]byte, error) {
	if params == nil {
		params = s.Tab().Filter().Values()
	}
	data, err := s.api.CommitmentReport(ctx, params)
	if err != nil {
		s.log.WithError(err).Warn("Failed to download commitment report")
		return nil, err
	}
	return data, nil
}

func indexCommitment(list []models.Commitment, id string) int {
	for i, c := range list {
		if c.ID == id {
			return i
		}
	}
	return -1
}

func containsCommitment(list []models.Commitment, id string) bool {
	return indexCommitment(list, id) >= 0
}

package store

import (
	"context"
	"sort"
	"sync"

	"github.com/sirupsen/logrus"
	"github.com/tgienger/deck/internal/errors"
	"github.com/tgienger/deck/internal/logging"
	"github.com/tgienger/deck/internal/models"
)

// DashboardAPI is the server side of the dashboard widgets
type DashboardAPI interface {
	Metrics(ctx context.Context) (models.Metrics, error)
	Meetings(ctx context.Context) ([]models.Meeting, error)
	CreateMeeting(ctx context.Context, m models.Meeting) (models.Meeting, error)
	DeleteMeeting(ctx context.Context, id string) error
}

// DashboardStore holds the summary counters and meetings
type DashboardStore struct {
	notifier

	mu       sync.RWMutex
	metrics  models.Metrics
	meetings []models.Meeting
	errMsg   string

	api DashboardAPI
	log *logrus.Entry
}

// NewDashboardStore creates a store with zeroed metrics
func NewDashboardStore(a DashboardAPI) *DashboardStore {
	return &DashboardStore{api: a, log: logging.NewLogger("store.dashboard")}
}

// Metrics returns the last fetched counters
func (s *DashboardStore) Metrics() models.Metrics {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.metrics
}

// Meetings returns the cached meetings ordered by start time
func (s *DashboardStore) Meetings() []models.Meeting {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := append([]models.Meeting(nil), s.meetings...)
	sort.SliceStable(out, func(i, j int) bool { return out[i].DateTime.Before(out[j].DateTime) })
	return out
}

// Error returns the last fetch failure message
func (s *DashboardStore) Error() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.errMsg
}

// ClearError forgets the last failure message
func (s *DashboardStore) ClearError() {
	s.mu.Lock()
	s.errMsg = ""
	s.mu.Unlock()
	s.notify()
}

// FetchMetrics reloads the counters
func (s *DashboardStore) FetchMetrics(ctx context.Context) error {
	m, err := s.api.Metrics(ctx)
	s.mu.Lock()
	if err != nil {
		s.errMsg = fetchMessage(err, "Failed to load metrics")
	} else {
		s.metrics = m
		s.errMsg = ""
	}
	s.mu.Unlock()
	s.notify()
	if err != nil {
		s.log.WithError(err).Warn("Failed to fetch metrics")
	}
	return err
}

// FetchMeetings reloads the meetings
func (s *DashboardStore) FetchMeetings(ctx context.Context) error {
	list, err := s.api.Meetings(ctx)
	s.mu.Lock()
	if err != nil {
		s.errMsg = fetchMessage(err, "Failed to load meetings")
	} else {
		s.meetings = list
		s.errMsg = ""
	}
	s.mu.Unlock()
	s.notify()
	if err != nil {
		s.log.WithError(err).Warn("Failed to fetch meetings")
	}
	return err
}

// CreateMeeting schedules a meeting and appends the server's copy
func (s *DashboardStore) CreateMeeting(ctx context.Context, m models.Meeting) (models.Meeting, error) {
	created, err := s.api.CreateMeeting(ctx, m)
	if err != nil {
		s.log.WithError(err).Warn("Failed to create meeting")
		return models.Meeting{}, err
	}
	s.mu.Lock()
	s.meetings = append(s.meetings, created)
	s.mu.Unlock()
	s.notify()
	return created, nil
}

// DeleteMeeting cancels a meeting and drops it once the server confirmed
func (s *DashboardStore) DeleteMeeting(ctx context.Context, id string) error {
	if err := s.api.DeleteMeeting(ctx, id); err != nil {
		s.log.WithError(err).WithField("id", id).Warn("Failed to delete meeting")
		return err
	}
	s.mu.Lock()
	for i, m := range s.meetings {
		if m.ID == id {
			s.meetings = append(s.meetings[:i], s.meetings[i+1:]...)
			break
		}
	}
	s.mu.Unlock()
	s.notify()
	return nil
}

func fetchMessage(err error, fallback string) string {
	if msg := errors.Message(err); msg != "" {
		return msg
	}
	return fallback
}

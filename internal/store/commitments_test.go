package store

import (
	"context"
	"net/url"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tgienger/deck/internal/api"
	"github.com/tgienger/deck/internal/errors"
	"github.com/tgienger/deck/internal/models"
)

var t0 = time.Date(2024, 1, 10, 9, 0, 0, 0, time.UTC)

func at(min int) time.Time { return t0.Add(time.Duration(min) * time.Minute) }

func commitment(id string, version int) models.Commitment {
	return models.Commitment{ID: id, Title: id, UpdatedAt: at(version)}
}

// stubCommitments serves canned lists. When gate is set, ListCommitments blocks until it is closed.
type stubCommitments struct {
	mu       sync.Mutex
	list     []models.Commitment
	filters  []api.CommitmentFilter
	deleted  []string
	gate     chan struct{}
	started  chan struct{}
	failNext error
}

func (s *stubCommitments) ListCommitments(ctx context.Context, f api.CommitmentFilter) ([]models.Commitment, error) {
	s.mu.Lock()
	s.filters = append(s.filters, f)
	list := append([]models.Commitment(nil), s.list...)
	gate, started := s.gate, s.started
	err := s.failNext
	s.failNext = nil
	s.mu.Unlock()
	if started != nil {
		close(started)
	}
	if gate != nil {
		<-gate
	}
	return list, err
}

func (s *stubCommitments) CreateCommitment(context.Context, models.CommitmentInput) (models.Commitment, error) {
	return models.Commitment{}, nil
}

func (s *stubCommitments) UpdateCommitment(context.Context, string, models.CommitmentInput) (models.Commitment, error) {
	return models.Commitment{}, nil
}

func (s *stubCommitments) CompleteCommitment(context.Context, string) (models.Commitment, error) {
	return models.Commitment{}, nil
}

func (s *stubCommitments) DeleteCommitment(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failNext != nil {
		err := s.failNext
		s.failNext = nil
		return err
	}
	s.deleted = append(s.deleted, id)
	return nil
}

func (s *stubCommitments) CommitmentReport(context.Context, url.Values) ([]byte, error) {
	return []byte("PK"), nil
}

func itemIDs(list []models.Commitment) []string {
	out := make([]string, len(list))
	for i, c := range list {
		out[i] = c.ID
	}
	return out
}

func TestTabFilters(t *testing.T) {
	tests := []struct {
		tab  Tab
		want string
	}{
		{TabAll, ""},
		{TabUpcoming, "upcoming=true"},
		{TabDueToday, "dueToday=true"},
		{TabCompleted, "status=Completed"},
		{TabArchived, "archived=true"},
	}
	for _, tt := range tests {
		t.Run(string(tt.tab), func(t *testing.T) {
			assert.Equal(t, tt.want, tt.tab.Filter().Values().Encode())
		})
	}
	assert.False(t, Tab("Someday").Valid())
}

func TestReducerLengths(t *testing.T) {
	stub := &stubCommitments{list: []models.Commitment{commitment("a", 0), commitment("b", 0)}}
	s := NewCommitmentStore(stub)
	require.NoError(t, s.Fetch(context.Background(), TabAll))
	require.Len(t, s.Items(), 2)

	assert.True(t, s.Apply(models.EventCreated, commitment("c", 1)))
	assert.Equal(t, []string{"c", "a", "b"}, itemIDs(s.Items()), "created is prepended")

	updated := commitment("a", 2)
	updated.Title = "renamed"
	assert.True(t, s.Apply(models.EventUpdated, updated))
	assert.Len(t, s.Items(), 3)
	got, _ := s.Get("a")
	assert.Equal(t, "renamed", got.Title)

	assert.False(t, s.Apply(models.EventCompleted, commitment("zzz", 3)), "unknown id is dropped")
	assert.Len(t, s.Items(), 3)

	assert.True(t, s.Apply(models.EventDeleted, models.Commitment{ID: "b"}))
	assert.Len(t, s.Items(), 2)
	assert.False(t, s.Apply(models.EventDeleted, models.Commitment{ID: "nope"}))
	assert.Len(t, s.Items(), 2)
}

func TestCreatedWithKnownIDReplaces(t *testing.T) {
	stub := &stubCommitments{list: []models.Commitment{commitment("a", 0)}}
	s := NewCommitmentStore(stub)
	require.NoError(t, s.Fetch(context.Background(), TabAll))

	again := commitment("a", 1)
	again.Title = "v2"
	assert.True(t, s.Apply(models.EventCreated, again))
	require.Len(t, s.Items(), 1)
	assert.Equal(t, "v2", s.Items()[0].Title)
}

func TestStaleEventsAreDropped(t *testing.T) {
	stub := &stubCommitments{list: []models.Commitment{commitment("a", 5)}}
	s := NewCommitmentStore(stub)
	require.NoError(t, s.Fetch(context.Background(), TabAll))

	old := commitment("a", 3)
	old.Title = "old"
	assert.False(t, s.Apply(models.EventUpdated, old))
	got, _ := s.Get("a")
	assert.Equal(t, "a", got.Title)

	assert.True(t, s.Apply(models.EventDeleted, commitment("a", 6)))
	assert.False(t, s.Apply(models.EventCreated, commitment("a", 6)), "tombstone blocks equal version")
	assert.False(t, s.Apply(models.EventUpdated, commitment("a", 7)))
	assert.Empty(t, s.Items())
}

func TestReloadNeverRegressesOrResurrects(t *testing.T) {
	stub := &stubCommitments{list: []models.Commitment{commitment("a", 0), commitment("b", 0)}}
	s := NewCommitmentStore(stub)
	ctx := context.Background()
	require.NoError(t, s.Fetch(ctx, TabAll))

	newer := commitment("a", 5)
	newer.Title = "pushed"
	require.True(t, s.Apply(models.EventUpdated, newer))
	require.True(t, s.Apply(models.EventDeleted, commitment("b", 5)))

	// The server answers with a snapshot taken before both pushes.
	require.NoError(t, s.Reload(ctx))
	assert.Equal(t, []string{"a"}, itemIDs(s.Items()))
	got, _ := s.Get("a")
	assert.Equal(t, "pushed", got.Title)

	// A genuinely newer row from the server wins.
	fresh := commitment("a", 9)
	fresh.Title = "server"
	stub.list = []models.Commitment{fresh}
	require.NoError(t, s.Reload(ctx))
	got, _ = s.Get("a")
	assert.Equal(t, "server", got.Title)
}

func TestPushCreatedDuringFetchSurvives(t *testing.T) {
	stub := &stubCommitments{
		list:    []models.Commitment{commitment("a", 0)},
		gate:    make(chan struct{}),
		started: make(chan struct{}),
	}
	s := NewCommitmentStore(stub)

	done := make(chan error)
	go func() { done <- s.Fetch(context.Background(), TabAll) }()
	<-stub.started

	require.True(t, s.Apply(models.EventCreated, commitment("n", 1)))
	close(stub.gate)
	require.NoError(t, <-done)

	assert.Equal(t, []string{"n", "a"}, itemIDs(s.Items()))
}

func TestSupersededFetchIsDiscarded(t *testing.T) {
	gate := make(chan struct{})
	stub := &stubCommitments{
		list:    []models.Commitment{commitment("stale", 0)},
		gate:    gate,
		started: make(chan struct{}),
	}
	s := NewCommitmentStore(stub)

	done := make(chan error)
	go func() { done <- s.Fetch(context.Background(), TabAll) }()
	<-stub.started

	stub.mu.Lock()
	stub.gate, stub.started = nil, nil
	stub.list = []models.Commitment{commitment("fresh", 0)}
	stub.mu.Unlock()
	require.NoError(t, s.Fetch(context.Background(), TabCompleted))

	close(gate)
	require.NoError(t, <-done)
	assert.Equal(t, []string{"fresh"}, itemIDs(s.Items()))
	assert.Equal(t, TabCompleted, s.Tab())
}

func TestDeleteRoundTripsFirst(t *testing.T) {
	stub := &stubCommitments{list: []models.Commitment{commitment("a", 0), commitment("b", 0)}}
	s := NewCommitmentStore(stub)
	ctx := context.Background()
	require.NoError(t, s.Fetch(ctx, TabAll))

	stub.failNext = errors.New(errors.ErrCodeNetwork, api.MsgCannotConnect)
	err := s.Delete(ctx, "a")
	require.Error(t, err)
	assert.Len(t, s.Items(), 2, "row stays when the server did not confirm")

	require.NoError(t, s.Delete(ctx, "a"))
	assert.Equal(t, []string{"a"}, stub.deleted)
	assert.Equal(t, []string{"b"}, itemIDs(s.Items()), "reload cannot bring the deleted row back")
}

func TestFetchFailureKeepsList(t *testing.T) {
	stub := &stubCommitments{list: []models.Commitment{commitment("a", 0)}}
	s := NewCommitmentStore(stub)
	ctx := context.Background()
	require.NoError(t, s.Fetch(ctx, TabAll))

	stub.failNext = errors.New(errors.ErrCodeInternal, "boom")
	require.Error(t, s.Fetch(ctx, TabUpcoming))
	assert.Equal(t, []string{"a"}, itemIDs(s.Items()))
	assert.True(t, errors.Is(s.Fetch(ctx, "Later"), errors.ErrCodeInvalidInput))
}

func TestCommitmentStoreAgainstServer(t *testing.T) {
	now := time.Date(2024, 1, 10, 9, 0, 0, 0, time.UTC)
	srv, client := newAPI(t, now)
	srv.AddCommitment(models.Commitment{ID: "done", Title: "done", DueDate: now, Status: models.CommitmentCompleted})
	s := NewCommitmentStore(client)
	ctx := context.Background()

	title := "Write plan"
	due := now.Add(2 * time.Hour)
	created, err := s.Create(ctx, models.CommitmentInput{Title: &title, DueDate: &due})
	require.NoError(t, err)
	assert.Len(t, s.Items(), 2)

	require.NoError(t, s.Fetch(ctx, TabCompleted))
	assert.Equal(t, []string{"done"}, itemIDs(s.Items()))

	_, err = s.Complete(ctx, created.ID)
	require.NoError(t, err)
	assert.Len(t, s.Items(), 2)

	_, err = s.Archive(ctx, "done", true)
	require.NoError(t, err)
	assert.Equal(t, []string{created.ID}, itemIDs(s.Items()))

	require.NoError(t, s.Fetch(ctx, TabArchived))
	assert.Equal(t, []string{"done"}, itemIDs(s.Items()))

	report, err := s.Report(ctx, nil)
	require.NoError(t, err)
	assert.NotEmpty(t, report)

	require.NoError(t, s.Delete(ctx, "done"))
	assert.Empty(t, s.Items())
	_, ok := srv.Commitment("done")
	assert.False(t, ok)
}

func TestVersionsForgottenAfterReload(t *testing.T) {
	stub := &stubCommitments{list: []models.Commitment{commitment("keep", 0)}}
	s := NewCommitmentStore(stub)
	ctx := context.Background()
	require.NoError(t, s.Fetch(ctx, TabAll))

	for i := 0; i < 50; i++ {
		id := string(rune('a'+i%26)) + string(rune('0'+i/26))
		require.True(t, s.Apply(models.EventCreated, commitment(id, i+1)))
		require.True(t, s.Apply(models.EventDeleted, commitment(id, i+2)))
	}
	s.mu.RLock()
	assert.Len(t, s.seen, 51)
	s.mu.RUnlock()

	// The server no longer lists any of the churned ids
	require.NoError(t, s.Reload(ctx))
	s.mu.RLock()
	assert.Len(t, s.seen, 1)
	_, ok := s.seen["keep"]
	assert.True(t, ok)
	s.mu.RUnlock()
	assert.Equal(t, []string{"keep"}, itemIDs(s.Items()))
}

func TestTombstoneKeptWhileServerStillListsID(t *testing.T) {
	stub := &stubCommitments{list: []models.Commitment{commitment("a", 0), commitment("b", 0)}}
	s := NewCommitmentStore(stub)
	ctx := context.Background()
	require.NoError(t, s.Fetch(ctx, TabAll))
	require.True(t, s.Apply(models.EventDeleted, commitment("b", 5)))

	// Two stale snapshots in a row still cannot resurrect b
	require.NoError(t, s.Reload(ctx))
	require.NoError(t, s.Reload(ctx))
	assert.Equal(t, []string{"a"}, itemIDs(s.Items()))
}

func TestVersionsObservedDuringFetchSurvivePrune(t *testing.T) {
	stub := &stubCommitments{
		list:    []models.Commitment{commitment("a", 0)},
		gate:    make(chan struct{}),
		started: make(chan struct{}),
	}
	s := NewCommitmentStore(stub)

	done := make(chan error)
	go func() { done <- s.Fetch(context.Background(), TabAll) }()
	<-stub.started

	// Deleted while the reload is in flight; the answer never mentions it
	require.False(t, s.Apply(models.EventDeleted, commitment("gone", 4)))
	close(stub.gate)
	require.NoError(t, <-done)

	assert.False(t, s.Apply(models.EventCreated, commitment("gone", 3)), "tombstone still blocks older pushes")
}

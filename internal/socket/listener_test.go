package socket

import (
	"context"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tgienger/deck/internal/api"
	"github.com/tgienger/deck/internal/fakeapi"
	"github.com/tgienger/deck/internal/models"
)

type recorder struct {
	mu     sync.Mutex
	events []models.CommitmentEvent
	ids    []string
}

func (r *recorder) handle(e models.CommitmentEvent, c models.Commitment) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
	r.ids = append(r.ids, c.ID)
}

func (r *recorder) snapshot() ([]models.CommitmentEvent, []string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]models.CommitmentEvent{}, r.events...), append([]string{}, r.ids...)
}

func TestURL(t *testing.T) {
	tests := []struct {
		origin, namespace, want string
		wantErr                 bool
	}{
		{"http://localhost:3000", "/commitments", "ws://localhost:3000/commitments", false},
		{"https://api.example.com/", "commitments", "wss://api.example.com/commitments", false},
		{"https://api.example.com/base", "/commitments", "wss://api.example.com/base/commitments", false},
		{"ftp://x", "/commitments", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.origin, func(t *testing.T) {
			got, err := URL(tt.origin, tt.namespace)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestDecode(t *testing.T) {
	tests := []struct {
		name  string
		frame string
		event models.CommitmentEvent
		ok    bool
	}{
		{"created", `{"event":"commitment.created","data":{"id":"a","title":"x"}}`, models.EventCreated, true},
		{"deleted", `{"event":"commitment.deleted","data":{"id":"a"}}`, models.EventDeleted, true},
		{"unknown event", `{"event":"commitment.renamed","data":{"id":"a"}}`, "", false},
		{"other namespace", `{"event":"task.created","data":{"id":"a"}}`, "", false},
		{"missing id", `{"event":"commitment.updated","data":{}}`, "", false},
		{"garbage", `not json`, "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			event, c, ok := Decode([]byte(tt.frame))
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.event, event)
			if ok {
				assert.Equal(t, "a", c.ID)
			}
		})
	}
}

func TestListenerForwardsEvents(t *testing.T) {
	srv := fakeapi.New()
	ts := httptest.NewServer(srv.Handler())
	defer ts.Close()
	defer srv.Close()

	wsURL, err := URL(ts.URL, "/commitments")
	require.NoError(t, err)

	rec := &recorder{}
	l := New(wsURL, rec.handle, WithTokenSource(api.StaticToken("t")))
	require.NoError(t, l.Open(context.Background()))
	require.NoError(t, l.Open(context.Background()), "second open is a no-op")
	assert.True(t, l.Connected())
	require.Eventually(t, func() bool { return srv.Subscribers() == 1 }, time.Second, 10*time.Millisecond)

	srv.Broadcast(fakeapi.EventCreated, models.Commitment{ID: "c1"})
	srv.Broadcast("commitment.renamed", models.Commitment{ID: "ignored"})
	srv.Broadcast(fakeapi.EventDeleted, map[string]string{"id": "c1"})

	require.Eventually(t, func() bool {
		events, _ := rec.snapshot()
		return len(events) == 2
	}, 2*time.Second, 10*time.Millisecond)
	events, ids := rec.snapshot()
	assert.Equal(t, []models.CommitmentEvent{models.EventCreated, models.EventDeleted}, events)
	assert.Equal(t, []string{"c1", "c1"}, ids)

	require.NoError(t, l.Close())
	assert.False(t, l.Connected())
	assert.NoError(t, l.Close())
	require.Eventually(t, func() bool { return srv.Subscribers() == 0 }, time.Second, 10*time.Millisecond)
}

func TestListenerClosesOnContextCancel(t *testing.T) {
	srv := fakeapi.New()
	ts := httptest.NewServer(srv.Handler())
	defer ts.Close()
	defer srv.Close()

	wsURL, _ := URL(ts.URL, "/commitments")
	l := New(wsURL, nil)
	ctx, cancel := context.WithCancel(context.Background())
	require.NoError(t, l.Open(ctx))
	cancel()
	require.Eventually(t, func() bool { return !l.Connected() }, time.Second, 10*time.Millisecond)
}

func TestCancelledOpenLeavesNewerConnection(t *testing.T) {
	srv := fakeapi.New()
	ts := httptest.NewServer(srv.Handler())
	defer ts.Close()
	defer srv.Close()

	wsURL, _ := URL(ts.URL, "/commitments")
	l := New(wsURL, nil)
	defer l.Close()

	first, cancel := context.WithCancel(context.Background())
	require.NoError(t, l.Open(first))
	l.mu.Lock()
	stale := l.done
	l.mu.Unlock()
	require.NoError(t, l.Close())

	require.NoError(t, l.Open(context.Background()))
	require.NoError(t, l.closeIf(stale))
	assert.True(t, l.Connected(), "closing a finished connection must not touch the current one")

	cancel()
	require.Never(t, func() bool { return !l.Connected() }, 100*time.Millisecond, 10*time.Millisecond)
}

func TestCancelRacingReopen(t *testing.T) {
	srv := fakeapi.New()
	ts := httptest.NewServer(srv.Handler())
	defer ts.Close()
	defer srv.Close()

	wsURL, _ := URL(ts.URL, "/commitments")
	l := New(wsURL, nil)
	defer l.Close()

	for i := 0; i < 20; i++ {
		ctx, cancel := context.WithCancel(context.Background())
		require.NoError(t, l.Open(ctx))
		go cancel()
		require.NoError(t, l.Close())
		require.NoError(t, l.Open(context.Background()))
		require.Never(t, func() bool { return !l.Connected() }, 30*time.Millisecond, 5*time.Millisecond, "iteration %d", i)
		require.NoError(t, l.Close())
	}
}

func TestOpenUnreachable(t *testing.T) {
	l := New("ws://127.0.0.1:1/commitments", nil)
	err := l.Open(context.Background())
	require.Error(t, err)
	assert.False(t, l.Connected())
}

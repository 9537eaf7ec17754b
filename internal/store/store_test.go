package store

import (
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/tgienger/deck/internal/api"
	"github.com/tgienger/deck/internal/db"
	"github.com/tgienger/deck/internal/fakeapi"
)

func openDB(t *testing.T) *db.DB {
	t.Helper()
	d, err := db.Open(filepath.Join(t.TempDir(), "deck.db"))
	require.NoError(t, err)
	t.Cleanup(func() { d.Close() })
	return d
}

// newAPI starts a fake server with one signed-in user and returns a client for it
func newAPI(t *testing.T, now time.Time) (*fakeapi.Server, *api.Client) {
	t.Helper()
	srv := fakeapi.New(fakeapi.WithClock(func() time.Time { return now }))
	srv.AddUser("Ann", "ann@example.com", "password123", true)
	token, err := srv.IssueToken("ann@example.com")
	require.NoError(t, err)
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(func() {
		srv.Close()
		ts.Close()
	})
	return srv, api.New(ts.URL+"/api", api.WithTokenSource(api.StaticToken(token)))
}

func fixedClock(t time.Time) Clock {
	return func() time.Time { return t }
}

func strPtr(s string) *string { return &s }

func received(ch chan struct{}) bool {
	select {
	case <-ch:
		return true
	case <-time.After(time.Second):
		return false
	}
}

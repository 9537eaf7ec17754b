package store

import (
	"context"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tgienger/deck/internal/api"
	"github.com/tgienger/deck/internal/errors"
)

func TestLoginStoresSession(t *testing.T) {
	_, client := newAPI(t, time.Now())
	d := openDB(t)
	s := NewAuthStore(client, d)
	ctx := context.Background()

	_, err := s.Login(ctx, "ann@example.com", "wrong")
	require.Error(t, err)
	assert.Equal(t, "Invalid email or password", s.Error())
	assert.Empty(t, s.Token())

	user, err := s.Login(ctx, "ann@example.com", "password123")
	require.NoError(t, err)
	assert.Equal(t, "Ann", user.Name)
	assert.Empty(t, s.Error())
	assert.False(t, s.Expired())

	restored := NewAuthStore(client, d)
	require.NoError(t, restored.Load())
	assert.Equal(t, s.Token(), restored.Token())
	require.NotNil(t, restored.User())
	assert.Equal(t, "ann@example.com", restored.User().Email)

	require.NoError(t, restored.Logout())
	assert.Nil(t, restored.User())
	assert.True(t, restored.Expired())

	again := NewAuthStore(client, d)
	require.NoError(t, again.Load())
	assert.Empty(t, again.Token())
}

func TestRegisterMessages(t *testing.T) {
	_, client := newAPI(t, time.Now())
	s := NewAuthStore(client, nil)
	ctx := context.Background()

	_, err := s.Register(ctx, "Ann", "ann@example.com", "password123")
	require.Error(t, err)
	assert.Equal(t, MsgEmailExists, s.Error())
	assert.True(t, errors.Is(err, errors.ErrCodeConflict))

	s.ClearError()
	assert.Empty(t, s.Error())

	_, err = s.Register(ctx, "Bo", "bo@example.com", "password123")
	require.NoError(t, err)
	assert.Empty(t, s.Token(), "registration does not sign in")
}

func TestVerifyFlow(t *testing.T) {
	srv, client := newAPI(t, time.Now())
	s := NewAuthStore(client, nil)
	ctx := context.Background()

	_, err := s.Register(ctx, "Bo", "bo@example.com", "password123")
	require.NoError(t, err)

	_, err = s.Verify(ctx, "", "bo@example.com")
	require.Error(t, err)
	assert.Equal(t, MsgVerifyInvalidLink, s.Error())

	token := srv.VerificationToken("bo@example.com")
	srv.ExpireVerification(token)
	_, err = s.Verify(ctx, token, "bo@example.com")
	require.Error(t, err)
	assert.Equal(t, MsgVerifyExpired, s.Error())
	assert.Equal(t, MsgVerifyExpired, errors.Message(err))

	require.NoError(t, s.ResendVerification(ctx, "bo@example.com"))
	token = srv.VerificationToken("bo@example.com")
	resp, err := s.Verify(ctx, token, "bo@example.com")
	require.NoError(t, err)
	assert.NotEmpty(t, resp.Message)
	require.NotNil(t, s.User())
	assert.Equal(t, "Bo", s.User().Name)
	assert.NotEmpty(t, s.Token())
}

func TestLoginNetworkFailure(t *testing.T) {
	client := api.New("http://127.0.0.1:1/api", api.WithTimeout(time.Second))
	s := NewAuthStore(client, nil)

	_, err := s.Login(context.Background(), "a@b.c", "password123")
	require.Error(t, err)
	assert.Equal(t, api.MsgCannotConnect, s.Error())
}

func signed(t *testing.T, exp *jwt.NumericDate) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{ExpiresAt: exp}).SignedString([]byte("k"))
	require.NoError(t, err)
	return token
}

func TestExpired(t *testing.T) {
	now := time.Date(2024, 1, 10, 0, 0, 0, 0, time.UTC)
	tests := []struct {
		name  string
		token string
		want  bool
	}{
		{"empty", "", true},
		{"garbage", "not.a.token", true},
		{"no exp", signed(t, nil), false},
		{"future", signed(t, jwt.NewNumericDate(now.Add(time.Hour))), false},
		{"past", signed(t, jwt.NewNumericDate(now.Add(-time.Hour))), true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := NewAuthStore(nil, nil)
			s.SetClock(fixedClock(now))
			s.token = tt.token
			assert.Equal(t, tt.want, s.Expired())
		})
	}
}

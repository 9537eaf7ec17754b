package store

import (
	"context"
	"encoding/json"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/sirupsen/logrus"
	"github.com/tgienger/deck/internal/api"
	"github.com/tgienger/deck/internal/errors"
	"github.com/tgienger/deck/internal/logging"
	"github.com/tgienger/deck/internal/models"
)

// Messages shown when the server gives no better explanation
const (
	MsgLoginFailed        = "Login failed. Check your credentials"
	MsgEmailExists        = "Email already exists"
	MsgRegisterFailed     = "Registration failed. Please try again."
	MsgVerifyExpired      = "Verification link expired. Please request a new one."
	MsgVerifyFailed       = "Verification failed"
	MsgVerifyInvalidLink  = "Invalid verification link"
	MsgVerifySucceeded    = "Email verified successfully!"
	MsgResendVerification = "Could not resend the verification email"
)

// AuthAPI is the server side of the auth store
type AuthAPI interface {
	Login(ctx context.Context, email, password string) (models.AuthResponse, error)
	Register(ctx context.Context, name, email, password string) (models.AuthResponse, error)
	Verify(ctx context.Context, token, email string) (models.AuthResponse, error)
	ResendVerification(ctx context.Context, email string) error
}

// AuthStore holds the signed-in user and the bearer token. It is the client's TokenSource.
type AuthStore struct {
	notifier

	mu       sync.RWMutex
	user     *models.User
	token    string
	errMsg   string
	api      AuthAPI
	settings SettingsStore
	now      Clock
	log      *logrus.Entry
}

// NewAuthStore creates a signed-out store. A nil settings store keeps the session in memory.
func NewAuthStore(a AuthAPI, settings SettingsStore) *AuthStore {
	return &AuthStore{
		api:      a,
		settings: settings,
		now:      time.Now,
		log:      logging.NewLogger("store.auth"),
	}
}

// SetClock replaces the clock used by Expired
func (s *AuthStore) SetClock(c Clock) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.now = c
}

// Load restores the persisted session
func (s *AuthStore) Load() error {
	if s.settings == nil {
		return nil
	}
	token, err := s.settings.GetSetting(keyAuthToken)
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeStorage, "failed to load session")
	}
	rawUser, err := s.settings.GetSetting(keyAuthUser)
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeStorage, "failed to load session")
	}

	var user *models.User
	if rawUser != "" && rawUser != "null" {
		user = &models.User{}
		if err := json.Unmarshal([]byte(rawUser), user); err != nil {
			s.log.WithError(err).Warn("Ignoring unreadable saved user")
			user = nil
		}
	}
	s.mu.Lock()
	s.token = token
	s.user = user
	s.mu.Unlock()
	s.notify()
	return nil
}

// Token implements api.TokenSource
func (s *AuthStore) Token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token
}

// User returns the signed-in user, or nil
func (s *AuthStore) User() *models.User {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.user == nil {
		return nil
	}
	u := *s.user
	return &u
}

// Error returns the last failure message
func (s *AuthStore) Error() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.errMsg
}

// ClearError forgets the last failure message
func (s *AuthStore) ClearError() {
	s.mu.Lock()
	s.errMsg = ""
	s.mu.Unlock()
	s.notify()
}

// Expired reports whether the token is missing, unreadable or past its exp claim.
// The signature is not checked; only the server can do that.
func (s *AuthStore) Expired() bool {
	s.mu.RLock()
	token, now := s.token, s.now
	s.mu.RUnlock()
	if token == "" {
		return true
	}
	claims := jwt.RegisteredClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, &claims); err != nil {
		return true
	}
	if claims.ExpiresAt == nil {
		return false
	}
	return !now().Before(claims.ExpiresAt.Time)
}

// Login exchanges credentials for a token and stores the session
func (s *AuthStore) Login(ctx context.Context, email, password string) (*models.User, error) {
	s.setError("")
	resp, err := s.api.Login(ctx, email, password)
	if err != nil {
		return nil, s.fail(err, MsgLoginFailed)
	}
	if err := s.setSession(resp.User, resp.AccessToken); err != nil {
		return nil, err
	}
	s.log.WithField("email", email).Info("Logged in")
	return s.User(), nil
}

// Register creates an account. The session is not changed; the user must verify first.
func (s *AuthStore) Register(ctx context.Context, name, email, password string) (models.AuthResponse, error) {
	s.setError("")
	resp, err := s.api.Register(ctx, name, email, password)
	if err != nil {
		fallback := MsgRegisterFailed
		if errors.Is(err, errors.ErrCodeConflict) {
			fallback = MsgEmailExists
		}
		return models.AuthResponse{}, s.fail(err, fallback)
	}
	return resp, nil
}

// Verify confirms an email address. With an email and a returned user the session is stored.
func (s *AuthStore) Verify(ctx context.Context, token, email string) (models.AuthResponse, error) {
	s.setError("")
	if token == "" {
		s.setError(MsgVerifyInvalidLink)
		return models.AuthResponse{}, errors.InvalidInput(MsgVerifyInvalidLink)
	}
	resp, err := s.api.Verify(ctx, token, email)
	if err != nil {
		msg := errors.Message(err)
		if strings.Contains(msg, "expired") {
			s.setError(MsgVerifyExpired)
			return models.AuthResponse{}, wrapMessage(err, MsgVerifyExpired)
		}
		return models.AuthResponse{}, s.fail(err, MsgVerifyFailed)
	}
	if email != "" && resp.User != nil {
		if err := s.setSession(resp.User, resp.AccessToken); err != nil {
			return resp, err
		}
	}
	if resp.Message == "" {
		resp.Message = MsgVerifySucceeded
	}
	return resp, nil
}

// ResendVerification asks for a new verification email
func (s *AuthStore) ResendVerification(ctx context.Context, email string) error {
	s.setError("")
	if err := s.api.ResendVerification(ctx, email); err != nil {
		return s.fail(err, MsgResendVerification)
	}
	return nil
}

// Logout clears the session
func (s *AuthStore) Logout() error {
	return s.setSession(nil, "")
}

func (s *AuthStore) setSession(user *models.User, token string) error {
	s.mu.Lock()
	s.user = user
	s.token = token
	err := s.saveLocked()
	s.mu.Unlock()
	s.notify()
	return err
}

func (s *AuthStore) saveLocked() error {
	if s.settings == nil {
		return nil
	}
	rawUser := ""
	if s.user != nil {
		data, err := json.Marshal(s.user)
		if err != nil {
			return errors.Wrap(err, errors.ErrCodeInternal, "failed to encode user")
		}
		rawUser = string(data)
	}
	if err := s.settings.SetSetting(keyAuthToken, s.token); err != nil {
		return errors.Wrap(err, errors.ErrCodeStorage, "failed to save session")
	}
	if err := s.settings.SetSetting(keyAuthUser, rawUser); err != nil {
		return errors.Wrap(err, errors.ErrCodeStorage, "failed to save session")
	}
	return nil
}

// fail records the user-facing message for err and returns err carrying that message
func (s *AuthStore) fail(err error, fallback string) error {
	msg := fallback
	switch {
	case errors.Is(err, errors.ErrCodeNetwork):
		msg = api.MsgCannotConnect
	default:
		if server, ok := api.ServerMessage(err); ok {
			msg = server
		}
	}
	s.setError(msg)
	s.log.WithError(err).Warn(msg)
	return wrapMessage(err, msg)
}

// wrapMessage keeps err's code and replaces the user-facing message
func wrapMessage(err error, msg string) error {
	code := errors.GetCode(err)
	if code == "" {
		code = errors.ErrCodeInternal
	}
	return errors.Wrap(err, code, msg)
}

func (s *AuthStore) setError(msg string) {
	s.mu.Lock()
	changed := s.errMsg != msg
	s.errMsg = msg
	s.mu.Unlock()
	if changed {
		s.notify()
	}
}

package fakeapi

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/tgienger/deck/internal/models"
)

// TokenTTL is the lifetime of issued access tokens
const TokenTTL = 24 * time.Hour

const verificationTTL = time.Hour

type account struct {
	user     models.User
	password string
	verified bool
}

type verification struct {
	email   string
	expires time.Time
}

type claims struct {
	Name  string `json:"name"`
	Email string `json:"email"`
	jwt.RegisteredClaims
}

type ctxKey string

const userKey ctxKey = "user"

// UserFrom returns the authenticated user stored by the auth middleware
func UserFrom(ctx context.Context) (models.User, bool) {
	u, ok := ctx.Value(userKey).(models.User)
	return u, ok
}

// AddUser registers an account directly, bypassing email verification when verified is set
func (s *Server) AddUser(name, email, password string, verified bool) models.User {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.addUserLocked(name, email, password, verified)
}

func (s *Server) addUserLocked(name, email, password string, verified bool) models.User {
	u := models.User{ID: uuid.NewString(), Name: name, Email: strings.ToLower(email)}
	s.users[u.Email] = &account{user: u, password: password, verified: verified}
	return u
}

// IssueToken signs an access token for a known account
func (s *Server) IssueToken(email string) (string, error) {
	s.mu.Lock()
	acc, ok := s.users[strings.ToLower(email)]
	s.mu.Unlock()
	if !ok {
		return "", fmt.Errorf("unknown user %q", email)
	}
	return s.sign(acc.user, time.Now().Add(TokenTTL))
}

// VerificationToken returns the pending verification token for email, or "" when none
func (s *Server) VerificationToken(email string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	for token, v := range s.verifications {
		if v.email == strings.ToLower(email) {
			return token
		}
	}
	return ""
}

// ExpireVerification makes a pending verification token unusable
func (s *Server) ExpireVerification(token string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if v, ok := s.verifications[token]; ok {
		v.expires = time.Time{}
		s.verifications[token] = v
	}
}

func (s *Server) sign(u models.User, exp time.Time) (string, error) {
	c := claims{
		Name:  u.Name,
		Email: u.Email,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   u.ID,
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			ExpiresAt: jwt.NewNumericDate(exp),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, c).SignedString(s.secret)
}

func (s *Server) authMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		raw := strings.TrimPrefix(header, "Bearer ")
		if header == "" || raw == header {
			writeError(w, http.StatusUnauthorized, "Unauthorized")
			return
		}

		c := &claims{}
		token, err := jwt.ParseWithClaims(raw, c, func(t *jwt.Token) (interface{}, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
			}
			return s.secret, nil
		})
		if err != nil || !token.Valid {
			writeError(w, http.StatusUnauthorized, "Invalid token")
			return
		}

		u := models.User{ID: c.Subject, Name: c.Name, Email: c.Email}
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), userKey, u)))
	})
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := decode(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	s.mu.Lock()
	acc, ok := s.users[strings.ToLower(req.Email)]
	s.mu.Unlock()
	if !ok || acc.password != req.Password {
		writeError(w, http.StatusUnauthorized, "Invalid email or password")
		return
	}
	if !acc.verified {
		writeError(w, http.StatusUnauthorized, "Please verify your email before logging in")
		return
	}

	token, err := s.sign(acc.user, time.Now().Add(TokenTTL))
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to sign token")
		return
	}
	user := acc.user
	writeJSON(w, http.StatusOK, models.AuthResponse{AccessToken: token, User: &user})
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name     string `json:"name"`
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := decode(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	var problems []string
	if strings.TrimSpace(req.Name) == "" {
		problems = append(problems, "name should not be empty")
	}
	if !strings.Contains(req.Email, "@") {
		problems = append(problems, "email must be an email")
	}
	if len(req.Password) < 8 {
		problems = append(problems, "password must be longer than or equal to 8 characters")
	}
	if len(problems) > 0 {
		writeJSON(w, http.StatusBadRequest, map[string]interface{}{
			"statusCode": http.StatusBadRequest,
			"message":    problems,
		})
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	email := strings.ToLower(req.Email)
	if _, exists := s.users[email]; exists {
		writeError(w, http.StatusConflict, "Email already exists")
		return
	}
	u := s.addUserLocked(req.Name, email, req.Password, false)
	s.verifications[uuid.NewString()] = verification{email: email, expires: time.Now().Add(verificationTTL)}

	writeJSON(w, http.StatusCreated, models.AuthResponse{
		User:    &u,
		Message: "Registration successful. Please check your email to verify your account.",
	})
}

func (s *Server) handleVerify(w http.ResponseWriter, r *http.Request) {
	token := r.URL.Query().Get("token")
	if token == "" {
		writeError(w, http.StatusBadRequest, "Invalid verification link")
		return
	}

	s.mu.Lock()
	v, ok := s.verifications[token]
	var acc *account
	if ok && time.Now().Before(v.expires) {
		delete(s.verifications, token)
		acc = s.users[v.email]
		acc.verified = true
	}
	s.mu.Unlock()

	switch {
	case !ok:
		writeError(w, http.StatusBadRequest, "Invalid verification token")
		return
	case acc == nil:
		writeError(w, http.StatusBadRequest, "Verification token has expired")
		return
	}

	signed, err := s.sign(acc.user, time.Now().Add(TokenTTL))
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to sign token")
		return
	}
	user := acc.user
	writeJSON(w, http.StatusOK, models.AuthResponse{
		AccessToken: signed,
		User:        &user,
		Message:     "Email verified successfully!",
	})
}

func (s *Server) handleResend(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email string `json:"email"`
	}
	if err := decode(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	email := strings.ToLower(req.Email)
	acc, ok := s.users[email]
	if !ok {
		writeError(w, http.StatusNotFound, "User not found")
		return
	}
	if acc.verified {
		writeError(w, http.StatusBadRequest, "Email is already verified")
		return
	}
	for token, v := range s.verifications {
		if v.email == email {
			delete(s.verifications, token)
		}
	}
	s.verifications[uuid.NewString()] = verification{email: email, expires: time.Now().Add(verificationTTL)}
	writeJSON(w, http.StatusOK, map[string]string{"message": "Verification email sent"})
}

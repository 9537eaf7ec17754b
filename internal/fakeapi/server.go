// Package fakeapi is an in-memory implementation of the project-management REST API and its
// commitment push channel. It backs the client tests and the dev-server command.
package fakeapi

import (
	"encoding/json"
	"net/http"
	"sort"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/sirupsen/logrus"
	"github.com/tgienger/deck/internal/logging"
	"github.com/tgienger/deck/internal/models"
)

// Server holds all API state behind one mutex
type Server struct {
	mu     sync.Mutex
	secret []byte
	now    func() time.Time
	last   time.Time
	log    *logrus.Entry

	users         map[string]*account
	verifications map[string]verification
	commitments   map[string]*models.Commitment
	notifications []*notification
	meetings      []models.Meeting
	workspaces    []models.Workspace
	teams         []models.Team

	hub *hub
}

// Option configures a Server
type Option func(*Server)

// WithClock pins the server clock, used for due-date filters and timestamps
func WithClock(now func() time.Time) Option {
	return func(s *Server) { s.now = now }
}

// WithSecret sets the HMAC key used to sign access tokens
func WithSecret(secret string) Option {
	return func(s *Server) { s.secret = []byte(secret) }
}

// New creates an empty server
func New(opts ...Option) *Server {
	s := &Server{
		secret:        []byte("deck-dev-secret"),
		now:           time.Now,
		log:           logging.NewLogger("fakeapi"),
		users:         make(map[string]*account),
		verifications: make(map[string]verification),
		commitments:   make(map[string]*models.Commitment),
		hub:           newHub(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Handler returns the router: the REST API under /api and the push channel on /commitments
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(s.requestLogger)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{
			http.MethodGet,
			http.MethodPost,
			http.MethodPut,
			http.MethodPatch,
			http.MethodDelete,
			http.MethodOptions,
		},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type"},
		MaxAge:         300,
	}))

	r.Get("/commitments", s.hub.serve)

	r.Route("/api", func(r chi.Router) {
		r.Route("/auth", func(r chi.Router) {
			r.Post("/login", s.handleLogin)
			r.Post("/register", s.handleRegister)
			r.Get("/verify", s.handleVerify)
			r.Post("/resend-verification", s.handleResend)
		})

		r.Group(func(r chi.Router) {
			r.Use(s.authMiddleware)

			r.Route("/commitments", func(r chi.Router) {
				r.Get("/", s.handleListCommitments)
				r.Post("/", s.handleCreateCommitment)
				r.Get("/report", s.handleCommitmentReport)
				r.Patch("/{id}", s.handleUpdateCommitment)
				r.Patch("/{id}/complete", s.handleCompleteCommitment)
				r.Delete("/{id}", s.handleDeleteCommitment)
			})

			r.Route("/notifications", func(r chi.Router) {
				r.Get("/", s.handleListNotifications)
				r.Patch("/mark-all-read", s.handleMarkAllRead)
				r.Patch("/{id}/read", s.handleMarkRead(true))
				r.Patch("/{id}/unread", s.handleMarkRead(false))
				r.Delete("/{id}", s.handleDeleteNotification)
				r.Put("/{id}/restore", s.handleRestoreNotification)
			})

			r.Route("/dashboard", func(r chi.Router) {
				r.Get("/metrics", s.handleMetrics)
				r.Get("/meetings", s.handleListMeetings)
				r.Post("/meetings", s.handleCreateMeeting)
				r.Delete("/meetings/{id}", s.handleDeleteMeeting)
			})

			r.Get("/workspaces", s.handleListWorkspaces)
			r.Post("/workspaces", s.handleCreateWorkspace)

			r.Get("/teams", s.handleListTeams)
			r.Patch("/teams/{id}", s.handleUpdateTeam)
			r.Patch("/teams/members/{id}", s.handleUpdateMember)
		})
	})

	return r
}

// Close disconnects every push subscriber
func (s *Server) Close() {
	s.hub.close()
}

func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		s.log.WithFields(logrus.Fields{
			"method":   r.Method,
			"path":     r.URL.Path,
			"status":   ww.Status(),
			"duration": time.Since(start),
		}).Debug("Request")
	})
}

// stamp returns a strictly increasing timestamp. Callers hold s.mu.
func (s *Server) stamp() time.Time {
	t := s.now().UTC()
	if !t.After(s.last) {
		t = s.last.Add(time.Millisecond)
	}
	s.last = t
	return t
}

func (s *Server) sortedCommitments() []models.Commitment {
	out := make([]models.Commitment, 0, len(s.commitments))
	for _, c := range s.commitments {
		out = append(out, *c)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].DueDate.Equal(out[j].DueDate) {
			return out[i].ID < out[j].ID
		}
		return out[i].DueDate.Before(out[j].DueDate)
	})
	return out
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v == nil {
		return
	}
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]interface{}{
		"statusCode": status,
		"message":    message,
	})
}

func decode(r *http.Request, v interface{}) error {
	defer r.Body.Close()
	return json.NewDecoder(r.Body).Decode(v)
}

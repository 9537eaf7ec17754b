package fakeapi

import (
	"net/http"
	"sort"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/tgienger/deck/internal/models"
)

type notification struct {
	models.Notification
	deleted bool
}

// AddNotification stores a notification. Missing id and creation time are filled in.
func (s *Server) AddNotification(n models.Notification) models.Notification {
	s.mu.Lock()
	defer s.mu.Unlock()
	if n.ID == "" {
		n.ID = uuid.NewString()
	}
	if n.CreatedAt.IsZero() {
		n.CreatedAt = s.stamp()
	}
	s.notifications = append(s.notifications, &notification{Notification: n})
	return n
}

// AddMeeting stores a meeting
func (s *Server) AddMeeting(m models.Meeting) models.Meeting {
	s.mu.Lock()
	defer s.mu.Unlock()
	if m.ID == "" {
		m.ID = uuid.NewString()
	}
	if m.CreatedAt.IsZero() {
		m.CreatedAt = s.stamp()
	}
	s.meetings = append(s.meetings, m)
	return m
}

// AddTeam stores a team roster. Members without an id get one.
func (s *Server) AddTeam(t models.Team) models.Team {
	s.mu.Lock()
	defer s.mu.Unlock()
	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	for i := range t.Members {
		if t.Members[i].ID == "" {
			t.Members[i].ID = uuid.NewString()
		}
	}
	s.teams = append(s.teams, t)
	return t
}

// Teams returns a copy of the stored rosters
func (s *Server) Teams() []models.Team {
	s.mu.Lock()
	defer s.mu.Unlock()
	return copyTeams(s.teams)
}

func (s *Server) findNotification(id string) *notification {
	for _, n := range s.notifications {
		if n.ID == id {
			return n
		}
	}
	return nil
}

func (s *Server) handleListNotifications(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

	s.mu.Lock()
	out := []models.Notification{}
	for _, n := range s.notifications {
		if !n.deleted {
			out = append(out, n.Notification)
		}
	}
	s.mu.Unlock()

	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleMarkRead(read bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		defer s.mu.Unlock()
		n := s.findNotification(chi.URLParam(r, "id"))
		if n == nil || n.deleted {
			writeError(w, http.StatusNotFound, "Notification not found")
			return
		}
		n.IsRead = read
		writeJSON(w, http.StatusOK, n.Notification)
	}
}

func (s *Server) handleMarkAllRead(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, n := range s.notifications {
		if !n.deleted {
			n.IsRead = true
		}
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "All notifications marked as read"})
}

func (s *Server) handleDeleteNotification(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := s.findNotification(chi.URLParam(r, "id"))
	if n == nil || n.deleted {
		writeError(w, http.StatusNotFound, "Notification not found")
		return
	}
	n.deleted = true
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleRestoreNotification(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := s.findNotification(chi.URLParam(r, "id"))
	if n == nil {
		writeError(w, http.StatusNotFound, "Notification not found")
		return
	}
	n.deleted = false
	writeJSON(w, http.StatusOK, n.Notification)
}

func (s *Server) handleMetrics(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var m models.Metrics
	for _, c := range s.commitments {
		switch c.Status {
		case models.CommitmentCompleted:
			m.CompletedTasks++
		case models.CommitmentInProgress:
			m.InProgressTasks++
		}
	}
	members := make(map[string]struct{})
	for _, t := range s.teams {
		for _, mem := range t.Members {
			members[mem.ID] = struct{}{}
		}
	}
	m.TeamMembers = len(members)
	m.TotalWorkspaces = len(s.workspaces)
	m.ActiveWorkspaces = len(s.workspaces)
	writeJSON(w, http.StatusOK, m)
}

func (s *Server) handleListMeetings(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	out := append([]models.Meeting{}, s.meetings...)
	s.mu.Unlock()
	sort.SliceStable(out, func(i, j int) bool { return out[i].DateTime.Before(out[j].DateTime) })
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleCreateMeeting(w http.ResponseWriter, r *http.Request) {
	var m models.Meeting
	if err := decode(r, &m); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if strings.TrimSpace(m.Title) == "" || m.DateTime.IsZero() {
		writeError(w, http.StatusBadRequest, "title and dateTime are required")
		return
	}

	s.mu.Lock()
	m.ID = uuid.NewString()
	m.CreatedAt = s.stamp()
	s.meetings = append(s.meetings, m)
	s.mu.Unlock()
	writeJSON(w, http.StatusCreated, m)
}

func (s *Server) handleDeleteMeeting(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, m := range s.meetings {
		if m.ID == id {
			s.meetings = append(s.meetings[:i], s.meetings[i+1:]...)
			w.WriteHeader(http.StatusNoContent)
			return
		}
	}
	writeError(w, http.StatusNotFound, "Meeting not found")
}

func (s *Server) handleListWorkspaces(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	out := append([]models.Workspace{}, s.workspaces...)
	s.mu.Unlock()
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleCreateWorkspace(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name string `json:"name"`
	}
	if err := decode(r, &req); err != nil || strings.TrimSpace(req.Name) == "" {
		writeError(w, http.StatusBadRequest, "name should not be empty")
		return
	}
	u, _ := UserFrom(r.Context())

	s.mu.Lock()
	ws := models.Workspace{
		ID:        uuid.NewString(),
		Name:      strings.TrimSpace(req.Name),
		Members:   []string{u.Name},
		Owner:     u.Name,
		CreatedAt: s.stamp(),
	}
	s.workspaces = append(s.workspaces, ws)
	s.mu.Unlock()
	writeJSON(w, http.StatusCreated, ws)
}

func (s *Server) handleListTeams(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.Teams())
}

func (s *Server) handleUpdateTeam(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name string `json:"name"`
	}
	if err := decode(r, &req); err != nil || strings.TrimSpace(req.Name) == "" {
		writeError(w, http.StatusBadRequest, "name should not be empty")
		return
	}
	id := chi.URLParam(r, "id")

	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.teams {
		if s.teams[i].ID == id {
			s.teams[i].Name = req.Name
			writeJSON(w, http.StatusOK, s.teams[i])
			return
		}
	}
	writeError(w, http.StatusNotFound, "Team not found")
}

func (s *Server) handleUpdateMember(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name string `json:"name"`
		Role string `json:"role"`
	}
	if err := decode(r, &req); err != nil || strings.TrimSpace(req.Name) == "" {
		writeError(w, http.StatusBadRequest, "name should not be empty")
		return
	}
	id := chi.URLParam(r, "id")

	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.teams {
		for j := range s.teams[i].Members {
			if s.teams[i].Members[j].ID == id {
				s.teams[i].Members[j].Name = req.Name
				s.teams[i].Members[j].Role = req.Role
				writeJSON(w, http.StatusOK, s.teams[i].Members[j])
				return
			}
		}
	}
	writeError(w, http.StatusNotFound, "Member not found")
}

func copyTeams(in []models.Team) []models.Team {
	out := make([]models.Team, len(in))
	for i, t := range in {
		out[i] = t
		out[i].Members = append([]models.Member{}, t.Members...)
	}
	return out
}

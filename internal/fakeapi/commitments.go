package fakeapi

import (
	"bytes"
	"net/http"
	"net/url"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/tgienger/deck/internal/calendar"
	"github.com/tgienger/deck/internal/models"
	"github.com/tgienger/deck/internal/report"
)

// XLSXContentType is served with the commitment report
const XLSXContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// AddCommitment stores a commitment without broadcasting. Missing id and timestamps are filled in.
func (s *Server) AddCommitment(c models.Commitment) models.Commitment {
	s.mu.Lock()
	defer s.mu.Unlock()
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	now := s.stamp()
	if c.CreatedAt.IsZero() {
		c.CreatedAt = now
	}
	if c.UpdatedAt.IsZero() {
		c.UpdatedAt = now
	}
	if c.Priority == "" {
		c.Priority = models.CommitmentMedium
	}
	if c.Status == "" {
		c.Status = models.CommitmentNotStarted
	}
	stored := c
	s.commitments[c.ID] = &stored
	return c
}

// Commitment returns the stored commitment by id
func (s *Server) Commitment(id string) (models.Commitment, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.commitments[id]
	if !ok {
		return models.Commitment{}, false
	}
	return *c, true
}

// filterCommitments applies the list query. Archived commitments only appear with archived=true.
func (s *Server) filterCommitments(q url.Values) []models.Commitment {
	now := s.now()
	archived := q.Get("archived") == "true"
	status := q.Get("status")

	var out []models.Commitment
	for _, c := range s.sortedCommitments() {
		if c.Archived != archived {
			continue
		}
		if status != "" && string(c.Status) != status {
			continue
		}
		days := calendar.DaysBetween(now, c.DueDate.In(now.Location()))
		if q.Get("upcoming") == "true" && days < 1 {
			continue
		}
		if q.Get("dueToday") == "true" && days != 0 {
			continue
		}
		out = append(out, c)
	}
	if out == nil {
		out = []models.Commitment{}
	}
	return out
}

func (s *Server) handleListCommitments(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	out := s.filterCommitments(r.URL.Query())
	s.mu.Unlock()
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleCommitmentReport(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	items := s.filterCommitments(r.URL.Query())
	now := s.now()
	s.mu.Unlock()

	var buf bytes.Buffer
	if err := report.WriteCommitments(&buf, items, now); err != nil {
		writeError(w, http.StatusInternalServerError, "failed to build report")
		return
	}
	w.Header().Set("Content-Type", XLSXContentType)
	w.Header().Set("Content-Disposition", `attachment; filename="commitments.xlsx"`)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(buf.Bytes())
}

func (s *Server) handleCreateCommitment(w http.ResponseWriter, r *http.Request) {
	var in models.CommitmentInput
	if err := decode(r, &in); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if in.Title == nil || strings.TrimSpace(*in.Title) == "" {
		writeError(w, http.StatusBadRequest, "title should not be empty")
		return
	}
	if in.DueDate == nil {
		writeError(w, http.StatusBadRequest, "dueDate must be a valid ISO 8601 date string")
		return
	}

	s.mu.Lock()
	now := s.stamp()
	c := &models.Commitment{
		ID:        uuid.NewString(),
		Priority:  models.CommitmentMedium,
		Status:    models.CommitmentNotStarted,
		CreatedAt: now,
		UpdatedAt: now,
	}
	s.applyInput(c, in)
	s.commitments[c.ID] = c
	out := *c
	s.mu.Unlock()

	s.hub.broadcast(EventCreated, out)
	writeJSON(w, http.StatusCreated, out)
}

func (s *Server) handleUpdateCommitment(w http.ResponseWriter, r *http.Request) {
	var in models.CommitmentInput
	if err := decode(r, &in); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	id := chi.URLParam(r, "id")

	s.mu.Lock()
	c, ok := s.commitments[id]
	if !ok {
		s.mu.Unlock()
		writeError(w, http.StatusNotFound, "Commitment not found")
		return
	}
	wasArchived := c.Archived
	s.applyInput(c, in)
	c.UpdatedAt = s.stamp()
	out := *c
	s.mu.Unlock()

	event := EventUpdated
	if out.Archived != wasArchived {
		event = EventArchived
	}
	s.hub.broadcast(event, out)
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleCompleteCommitment(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	s.mu.Lock()
	c, ok := s.commitments[id]
	if !ok {
		s.mu.Unlock()
		writeError(w, http.StatusNotFound, "Commitment not found")
		return
	}
	c.Status = models.CommitmentCompleted
	c.UpdatedAt = s.stamp()
	out := *c
	s.mu.Unlock()

	s.hub.broadcast(EventCompleted, out)
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleDeleteCommitment(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	s.mu.Lock()
	if _, ok := s.commitments[id]; !ok {
		s.mu.Unlock()
		writeError(w, http.StatusNotFound, "Commitment not found")
		return
	}
	delete(s.commitments, id)
	gone := models.Commitment{ID: id, UpdatedAt: s.stamp()}
	s.mu.Unlock()

	s.hub.broadcast(EventDeleted, gone)
	w.WriteHeader(http.StatusNoContent)
}

// applyInput copies the non-nil input fields. Callers hold s.mu.
func (s *Server) applyInput(c *models.Commitment, in models.CommitmentInput) {
	if in.Title != nil {
		c.Title = *in.Title
	}
	if in.Description != nil {
		c.Description = *in.Description
	}
	if in.DueDate != nil {
		c.DueDate = in.DueDate.UTC()
	}
	if in.Priority != nil {
		c.Priority = *in.Priority
	}
	if in.Status != nil {
		c.Status = *in.Status
	}
	if in.Archived != nil {
		c.Archived = *in.Archived
	}
	if in.LinkedTaskID != nil {
		if *in.LinkedTaskID == "" {
			c.LinkedTaskID = nil
		} else {
			linked := *in.LinkedTaskID
			c.LinkedTaskID = &linked
		}
	}
	if in.AssigneeID != nil {
		if *in.AssigneeID == "" {
			c.AssigneeID, c.Assignee = nil, nil
		} else {
			assignee := *in.AssigneeID
			c.AssigneeID = &assignee
			c.Assignee = &models.Person{ID: assignee, Name: s.userName(assignee)}
		}
	}
}

func (s *Server) userName(id string) string {
	for _, acc := range s.users {
		if acc.user.ID == id {
			return acc.user.Name
		}
	}
	return id
}

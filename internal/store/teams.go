package store

import (
	"context"
	"strings"
	"sync"

	"github.com/sirupsen/logrus"
	"github.com/tgienger/deck/internal/errors"
	"github.com/tgienger/deck/internal/logging"
	"github.com/tgienger/deck/internal/models"
)

// TeamAPI is the server side of the roster page
type TeamAPI interface {
	ListTeams(ctx context.Context) ([]models.Team, error)
	UpdateTeam(ctx context.Context, id, name string) error
	UpdateMember(ctx context.Context, id, name, role string) error
}

// TeamStore holds team rosters. Edits apply locally first and are rolled back by a
// re-fetch when the server rejects them.
type TeamStore struct {
	notifier

	mu      sync.RWMutex
	teams   []models.Team
	api     TeamAPI
	persist TeamPersister
	log     *logrus.Entry
}

// NewTeamStore creates an empty store. A nil persister keeps rosters in memory only.
func NewTeamStore(a TeamAPI, p TeamPersister) *TeamStore {
	return &TeamStore{api: a, persist: p, log: logging.NewLogger("store.teams")}
}

// Load restores the rosters saved by the last fetch
func (s *TeamStore) Load() error {
	if s.persist == nil {
		return nil
	}
	teams, err := s.persist.ListTeams()
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeStorage, "failed to load teams")
	}
	s.mu.Lock()
	s.teams = teams
	s.mu.Unlock()
	s.notify()
	return nil
}

// Teams returns a copy of the rosters
func (s *TeamStore) Teams() []models.Team {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return copyTeams(s.teams)
}

// Fetch reloads rosters from the server and saves them locally
func (s *TeamStore) Fetch(ctx context.Context) error {
	teams, err := s.api.ListTeams(ctx)
	if err != nil {
		s.log.WithError(err).Warn("Failed to fetch teams")
		return err
	}
	s.mu.Lock()
	s.teams = teams
	err = s.saveLocked()
	s.mu.Unlock()
	s.notify()
	return err
}

// Rename changes a team's name
func (s *TeamStore) Rename(ctx context.Context, teamID, name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return errors.InvalidInput("team name is required")
	}
	before := s.Teams()
	found := s.edit(func(teams []models.Team) bool {
		for i := range teams {
			if teams[i].ID == teamID {
				teams[i].Name = name
				return true
			}
		}
		return false
	})
	if !found {
		return errors.New(errors.ErrCodeNotFound, "team not found").WithDetail("id", teamID)
	}
	return s.confirm(ctx, teamID, before, s.api.UpdateTeam(ctx, teamID, name))
}

// UpdateMember changes a member's name and role
func (s *TeamStore) UpdateMember(ctx context.Context, memberID, name, role string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return errors.InvalidInput("member name is required")
	}
	before := s.Teams()
	found := s.edit(func(teams []models.Team) bool {
		for i := range teams {
			for j := range teams[i].Members {
				if teams[i].Members[j].ID == memberID {
					teams[i].Members[j].Name = name
					teams[i].Members[j].Role = role
					return true
				}
			}
		}
		return false
	})
	if !found {
		return errors.New(errors.ErrCodeNotFound, "member not found").WithDetail("id", memberID)
	}
	return s.confirm(ctx, memberID, before, s.api.UpdateMember(ctx, memberID, name, role))
}

// edit applies fn to the rosters under the lock and notifies when it changed something
func (s *TeamStore) edit(fn func([]models.Team) bool) bool {
	s.mu.Lock()
	changed := fn(s.teams)
	s.mu.Unlock()
	if changed {
		s.notify()
	}
	return changed
}

// confirm persists an accepted edit. A rejected one is rolled back to before and then
// re-fetched so the cache matches the server.
func (s *TeamStore) confirm(ctx context.Context, id string, before []models.Team, err error) error {
	if err == nil {
		s.mu.Lock()
		defer s.mu.Unlock()
		return s.saveLocked()
	}
	s.log.WithError(err).WithField("id", id).Warn("Roster update rejected, rolling back")
	s.mu.Lock()
	s.teams = before
	s.mu.Unlock()
	s.notify()
	if ferr := s.Fetch(ctx); ferr != nil {
		s.log.WithError(ferr).Debug("Rollback fetch failed")
	}
	return err
}

func (s *TeamStore) saveLocked() error {
	if s.persist == nil {
		return nil
	}
	if err := s.persist.SaveTeams(s.teams); err != nil {
		return errors.Wrap(err, errors.ErrCodeStorage, "failed to save teams")
	}
	return nil
}

func copyTeams(in []models.Team) []models.Team {
	out := make([]models.Team, len(in))
	for i, t := range in {
		out[i] = t
		out[i].Members = append([]models.Member(nil), t.Members...)
	}
	return out
}

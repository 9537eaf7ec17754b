package db

import (
	"database/sql"

	"github.com/tgienger/deck/internal/models"
)

// SaveTeams replaces the locally cached team rosters
func (db *DB) SaveTeams(teams []models.Team) error {
	return db.inTx(func(tx *sql.Tx) error {
		if _, err := tx.Exec("DELETE FROM teams"); err != nil {
			return err
		}
		for i, t := range teams {
			if _, err := tx.Exec("INSERT INTO teams (id, position, name) VALUES (?, ?, ?)", t.ID, i, t.Name); err != nil {
				return err
			}
			for j, m := range t.Members {
				if _, err := tx.Exec(`
					INSERT INTO team_members (team_id, position, id, name, role) VALUES (?, ?, ?, ?, ?)
				`, t.ID, j, m.ID, m.Name, m.Role); err != nil {
					return err
				}
			}
		}
		return nil
	})
}

// ListTeams returns the cached rosters in saved order
func (db *DB) ListTeams() ([]models.Team, error) {
	rows, err := db.Query("SELECT id, name FROM teams ORDER BY position")
	if err != nil {
		return nil, err
	}

	var teams []models.Team
	for rows.Next() {
		var t models.Team
		if err := rows.Scan(&t.ID, &t.Name); err != nil {
			rows.Close()
			return nil, err
		}
		teams = append(teams, t)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range teams {
		members, err := db.teamMembers(teams[i].ID)
		if err != nil {
			return nil, err
		}
		teams[i].Members = members
	}
	return teams, nil
}

func (db *DB) teamMembers(teamID string) ([]models.Member, error) {
	rows, err := db.Query(`
		SELECT id, name, role FROM team_members WHERE team_id = ? ORDER BY position
	`, teamID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	members := []models.Member{}
	for rows.Next() {
		var m models.Member
		if err := rows.Scan(&m.ID, &m.Name, &m.Role); err != nil {
			return nil, err
		}
		members = append(members, m)
	}
	return members, rows.Err()
}

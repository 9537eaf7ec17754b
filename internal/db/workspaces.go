package db

import (
	"database/sql"

	"github.com/tgienger/deck/internal/models"
)

// SaveWorkspaces replaces the stored workspace collection, keeping order
func (db *DB) SaveWorkspaces(workspaces []models.Workspace) error {
	return db.inTx(func(tx *sql.Tx) error {
		if _, err := tx.Exec("DELETE FROM workspaces"); err != nil {
			return err
		}
		for i, w := range workspaces {
			if _, err := tx.Exec(`
				INSERT INTO workspaces (id, position, name, description, owner, created_at)
				VALUES (?, ?, ?, ?, ?, ?)
			`, w.ID, i, w.Name, w.Description, w.Owner, w.CreatedAt); err != nil {
				return err
			}
			for j, m := range w.Members {
				if _, err := tx.Exec(`
					INSERT INTO workspace_members (workspace_id, position, member) VALUES (?, ?, ?)
				`, w.ID, j, m); err != nil {
					return err
				}
			}
		}
		return nil
	})
}

// ListWorkspaces returns all workspaces in their saved order
func (db *DB) ListWorkspaces() ([]models.Workspace, error) {
	rows, err := db.Query(`
		SELECT id, name, description, owner, created_at
		FROM workspaces ORDER BY position
	`)
	if err != nil {
		return nil, err
	}

	var workspaces []models.Workspace
	for rows.Next() {
		var w models.Workspace
		if err := rows.Scan(&w.ID, &w.Name, &w.Description, &w.Owner, &w.CreatedAt); err != nil {
			rows.Close()
			return nil, err
		}
		workspaces = append(workspaces, w)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range workspaces {
		members, err := db.workspaceMembers(workspaces[i].ID)
		if err != nil {
			return nil, err
		}
		workspaces[i].Members = members
	}
	return workspaces, nil
}

func (db *DB) workspaceMembers(workspaceID string) ([]string, error) {
	rows, err := db.Query(`
		SELECT member FROM workspace_members WHERE workspace_id = ? ORDER BY position
	`, workspaceID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	members := []string{}
	for rows.Next() {
		var m string
		if err := rows.Scan(&m); err != nil {
			return nil, err
		}
		members = append(members, m)
	}
	return members, rows.Err()
}

package db

import (
	"time"

	"github.com/tgienger/deck/internal/models"
)

// CreateComment adds a comment to a task
func (db *DB) CreateComment(taskID int64, author, content string, at time.Time) (*models.Comment, error) {
	result, err := db.Exec(`
		INSERT INTO comments (task_id, author, content, created_at) VALUES (?, ?, ?, ?)
	`, taskID, author, content, at.UTC())
	if err != nil {
		return nil, err
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, err
	}

	return db.GetComment(id)
}

// GetComment retrieves a comment by ID
func (db *DB) GetComment(id int64) (*models.Comment, error) {
	c := &models.Comment{}
	err := db.QueryRow(`
		SELECT id, task_id, author, content, created_at
		FROM comments WHERE id = ?
	`, id).Scan(&c.ID, &c.TaskID, &c.Author, &c.Content, &c.CreatedAt)
	if err != nil {
		return nil, err
	}
	return c, nil
}

// GetTaskComments retrieves all comments for a task, oldest first
func (db *DB) GetTaskComments(taskID int64) ([]models.Comment, error) {
	rows, err := db.Query(`
		SELECT id, task_id, author, content, created_at
		FROM comments
		WHERE task_id = ?
		ORDER BY created_at ASC, id ASC
	`, taskID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var comments []models.Comment
	for rows.Next() {
		var c models.Comment
		if err := rows.Scan(&c.ID, &c.TaskID, &c.Author, &c.Content, &c.CreatedAt); err != nil {
			return nil, err
		}
		comments = append(comments, c)
	}
	return comments, rows.Err()
}

// DeleteComment deletes a comment. It reports whether a row was removed.
func (db *DB) DeleteComment(id int64) (bool, error) {
	result, err := db.Exec("DELETE FROM comments WHERE id = ?", id)
	if err != nil {
		return false, err
	}
	n, err := result.RowsAffected()
	return n > 0, err
}

// DeleteTaskComments removes every comment on a task
func (db *DB) DeleteTaskComments(taskID int64) error {
	_, err := db.Exec("DELETE FROM comments WHERE task_id = ?", taskID)
	return err
}

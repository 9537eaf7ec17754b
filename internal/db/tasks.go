package db

import (
	"database/sql"
	"encoding/json"

	"github.com/tgienger/deck/internal/models"
)

// SaveTasks replaces the stored task list, keeping order
func (db *DB) SaveTasks(tasks []models.Task) error {
	return db.inTx(func(tx *sql.Tx) error {
		if _, err := tx.Exec("DELETE FROM tasks"); err != nil {
			return err
		}
		for i, t := range tasks {
			if err := insertTask(tx, i, t); err != nil {
				return err
			}
		}
		return nil
	})
}

func insertTask(tx *sql.Tx, position int, t models.Task) error {
	_, err := tx.Exec(`
		INSERT INTO tasks (id, position, workspace_id, title, description, due_date, priority, status, assignee, color, created_by)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, t.ID, position, t.WorkspaceID, t.Title, t.Description, t.DueDate, string(t.Priority), t.Status, t.Assignee, t.Color, t.CreatedBy)
	if err != nil {
		return err
	}

	for j, tag := range t.Tags {
		if _, err := tx.Exec("INSERT INTO task_tags (task_id, position, tag) VALUES (?, ?, ?)", t.ID, j, tag); err != nil {
			return err
		}
	}

	for j, s := range t.Subtasks {
		tags, err := json.Marshal(nonNil(s.Tags))
		if err != nil {
			return err
		}
		_, err = tx.Exec(`
			INSERT INTO subtasks (id, task_id, position, title, description, status, assignee, due_date, priority, tags, completed)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		`, s.ID, t.ID, j, s.Title, s.Description, s.Status, s.Assignee, s.DueDate, string(s.Priority), string(tags), s.Completed)
		if err != nil {
			return err
		}
	}
	return nil
}

// ListTasks returns every stored task with its tags and subtasks, in saved order
func (db *DB) ListTasks() ([]models.Task, error) {
	rows, err := db.Query(`
		SELECT id, workspace_id, title, description, due_date, priority, status, assignee, color, created_by
		FROM tasks ORDER BY position
	`)
	if err != nil {
		return nil, err
	}

	var tasks []models.Task
	for rows.Next() {
		var t models.Task
		var priority string
		if err := rows.Scan(&t.ID, &t.WorkspaceID, &t.Title, &t.Description, &t.DueDate, &priority, &t.Status, &t.Assignee, &t.Color, &t.CreatedBy); err != nil {
			rows.Close()
			return nil, err
		}
		t.Priority = models.Priority(priority)
		tasks = append(tasks, t)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range tasks {
		tags, err := db.taskTags(tasks[i].ID)
		if err != nil {
			return nil, err
		}
		tasks[i].Tags = tags

		subtasks, err := db.subtasks(tasks[i].ID)
		if err != nil {
			return nil, err
		}
		tasks[i].Subtasks = subtasks
	}

	return tasks, nil
}

func (db *DB) taskTags(taskID int64) ([]string, error) {
	rows, err := db.Query("SELECT tag FROM task_tags WHERE task_id = ? ORDER BY position", taskID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	tags := []string{}
	for rows.Next() {
		var tag string
		if err := rows.Scan(&tag); err != nil {
			return nil, err
		}
		tags = append(tags, tag)
	}
	return tags, rows.Err()
}

func (db *DB) subtasks(taskID int64) ([]models.Subtask, error) {
	rows, err := db.Query(`
		SELECT id, title, description, status, assignee, due_date, priority, tags, completed
		FROM subtasks WHERE task_id = ? ORDER BY position
	`, taskID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	subtasks := []models.Subtask{}
	for rows.Next() {
		var s models.Subtask
		var priority, tags string
		if err := rows.Scan(&s.ID, &s.Title, &s.Description, &s.Status, &s.Assignee, &s.DueDate, &priority, &tags, &s.Completed); err != nil {
			return nil, err
		}
		s.Priority = models.Priority(priority)
		if err := json.Unmarshal([]byte(tags), &s.Tags); err != nil {
			return nil, err
		}
		subtasks = append(subtasks, s)
	}
	return subtasks, rows.Err()
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

package store

import (
	"encoding/json"
	"strings"
	"sync"

	"github.com/tgienger/deck/internal/errors"
	"github.com/tgienger/deck/internal/models"
)

// UnassignedColumn is the bucket for tasks whose status matches no configured column
const UnassignedColumn = "unassigned"

// Board holds the configured Kanban columns
type Board struct {
	notifier

	mu       sync.RWMutex
	columns  []models.Column
	settings SettingsStore
}

// NewBoard creates a board with the default columns. A nil settings store keeps edits in memory.
func NewBoard(settings SettingsStore) *Board {
	return &Board{columns: models.DefaultColumns(), settings: settings}
}

// Load restores saved columns. Nothing saved keeps the defaults.
func (b *Board) Load() error {
	if b.settings == nil {
		return nil
	}
	raw, err := b.settings.GetSetting(keyBoardColumns)
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeStorage, "failed to load board columns")
	}
	if raw == "" {
		return nil
	}
	var cols []models.Column
	if err := json.Unmarshal([]byte(raw), &cols); err != nil {
		return errors.Wrap(err, errors.ErrCodeStorage, "saved board columns are corrupt")
	}
	if err := validateColumns(cols); err != nil {
		return err
	}
	b.mu.Lock()
	b.columns = cols
	b.mu.Unlock()
	b.notify()
	return nil
}

// Columns returns the configured columns in display order
func (b *Board) Columns() []models.Column {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return append([]models.Column(nil), b.columns...)
}

// SetColumns replaces the column list. Ids must be non-empty and unique.
func (b *Board) SetColumns(cols []models.Column) error {
	if err := validateColumns(cols); err != nil {
		return err
	}
	b.mu.Lock()
	b.columns = append([]models.Column(nil), cols...)
	err := b.saveLocked()
	b.mu.Unlock()
	b.notify()
	return err
}

// RenameColumn changes a column title
func (b *Board) RenameColumn(id, title string) error {
	title = strings.TrimSpace(title)
	if title == "" {
		return errors.InvalidInput("column title is required")
	}
	b.mu.Lock()
	for i := range b.columns {
		if b.columns[i].ID == id {
			b.columns[i].Title = title
			err := b.saveLocked()
			b.mu.Unlock()
			b.notify()
			return err
		}
	}
	b.mu.Unlock()
	return errors.New(errors.ErrCodeNotFound, "column not found").WithDetail("id", id)
}

// Valid reports whether status names a configured column
func (b *Board) Valid(status string) bool {
	b.mu.RLock()
	defer b.mu.RUnlock()
	for _, c := range b.columns {
		if c.ID == status {
			return true
		}
	}
	return false
}

// Buckets groups tasks by column. Tasks with an unknown status go to unassigned
// and keep their stored status.
func (b *Board) Buckets(tasks []models.Task) (map[string][]models.Task, []models.Task) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	buckets := make(map[string][]models.Task, len(b.columns))
	for _, c := range b.columns {
		buckets[c.ID] = nil
	}
	var unassigned []models.Task
	for _, t := range tasks {
		if _, ok := buckets[t.Status]; ok {
			buckets[t.Status] = append(buckets[t.Status], t)
		} else {
			unassigned = append(unassigned, t)
		}
	}
	return buckets, unassigned
}

func (b *Board) saveLocked() error {
	if b.settings == nil {
		return nil
	}
	data, err := json.Marshal(b.columns)
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeInternal, "failed to encode board columns")
	}
	if err := b.settings.SetSetting(keyBoardColumns, string(data)); err != nil {
		return errors.Wrap(err, errors.ErrCodeStorage, "failed to save board columns")
	}
	return nil
}

func validateColumns(cols []models.Column) error {
	if len(cols) == 0 {
		return errors.InvalidInput("at least one column is required")
	}
	seen := make(map[string]bool, len(cols))
	for _, c := range cols {
		if strings.TrimSpace(c.ID) == "" {
			return errors.InvalidInput("column id is required")
		}
		if c.ID == UnassignedColumn {
			return errors.InvalidInput("column id is reserved").WithDetail("id", c.ID)
		}
		if seen[c.ID] {
			return errors.InvalidInput("duplicate column id").WithDetail("id", c.ID)
		}
		seen[c.ID] = true
	}
	return nil
}

package store

import (
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/tgienger/deck/internal/calendar"
	"github.com/tgienger/deck/internal/errors"
	"github.com/tgienger/deck/internal/logging"
	"github.com/tgienger/deck/internal/models"
)

// FilterAll disables the status or assignee filter
const FilterAll = "all"

// UpcomingDays is how far ahead Upcoming looks
const UpcomingDays = 5

// Filter keys accepted by SetFilter
const (
	FilterStatus   = "status"
	FilterAssignee = "assignee"
	FilterSearch   = "search"
)

// TaskFilter is ANDed over the task list
type TaskFilter struct {
	Status   string
	Assignee string
	Search   string
}

// DefaultTaskFilter matches every task
func DefaultTaskFilter() TaskFilter {
	return TaskFilter{Status: FilterAll, Assignee: FilterAll}
}

// Match reports whether t satisfies all three predicates
func (f TaskFilter) Match(t models.Task) bool {
	if f.Search != "" {
		q := strings.ToLower(f.Search)
		if !strings.Contains(strings.ToLower(t.Title), q) && !strings.Contains(strings.ToLower(t.Description), q) {
			return false
		}
	}
	if f.Status != FilterAll && f.Status != "" && f.Status != t.Status {
		return false
	}
	if f.Assignee != FilterAll && f.Assignee != "" && f.Assignee != t.Assignee {
		return false
	}
	return true
}

// TaskPatch holds the fields to merge in Update. Nil fields are left alone.
type TaskPatch struct {
	Title       *string
	Description *string
	DueDate     *string
	Priority    *models.Priority
	Status      *string
	Assignee    *string
	Tags        []string
	Color       *string
	Subtasks    []models.Subtask
}

// TaskStore holds the task list, its filters and the calendar cursor
type TaskStore struct {
	notifier

	mu      sync.RWMutex
	tasks   []models.Task
	filter  TaskFilter
	view    calendar.View
	current time.Time

	ids      idGen
	board    *Board
	comments *CommentStore
	persist  TaskPersister
	now      Clock
	log      *logrus.Entry
}

// TaskOption configures a TaskStore
type TaskOption func(*TaskStore)

// WithClock pins "now" for date-relative views
func WithClock(c Clock) TaskOption {
	return func(s *TaskStore) { s.now = c }
}

// WithBoard validates task statuses against the board columns
func WithBoard(b *Board) TaskOption {
	return func(s *TaskStore) { s.board = b }
}

// WithComments drops a task's comment thread when the task is deleted
func WithComments(c *CommentStore) TaskOption {
	return func(s *TaskStore) { s.comments = c }
}

// NewTaskStore creates an empty store. A nil persister keeps state in memory only.
func NewTaskStore(p TaskPersister, opts ...TaskOption) *TaskStore {
	s := &TaskStore{
		filter:  DefaultTaskFilter(),
		view:    calendar.ViewMonth,
		persist: p,
		now:     time.Now,
		log:     logging.NewLogger("store.tasks"),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.current = s.now()
	return s
}

// Load restores tasks, the view and the date cursor
func (s *TaskStore) Load() error {
	if s.persist == nil {
		return nil
	}
	tasks, err := s.persist.ListTasks()
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeStorage, "failed to load tasks")
	}
	view, err := s.persist.GetSetting(keyCalendarView)
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeStorage, "failed to load calendar view")
	}
	rawDate, err := s.persist.GetSetting(keyCalendarDate)
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeStorage, "failed to load calendar date")
	}

	s.mu.Lock()
	s.tasks = tasks
	for _, t := range tasks {
		s.ids.observe(t.ID)
	}
	if v := calendar.View(view); v.Valid() {
		s.view = v
	}
	if rawDate != "" {
		if d, err := time.Parse(time.RFC3339, rawDate); err == nil {
			s.current = d.In(s.now().Location())
		} else {
			s.log.WithError(err).WithField("value", rawDate).Warn("Ignoring unreadable calendar date")
		}
	}
	s.mu.Unlock()
	s.notify()
	return nil
}

// Tasks returns a copy of every task in order
func (s *TaskStore) Tasks() []models.Task {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return cloneTasks(s.tasks, nil)
}

// Get returns the task with the given id
func (s *TaskStore) Get(id int64) (models.Task, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	i := indexTask(s.tasks, id)
	if i < 0 {
		return models.Task{}, false
	}
	return cloneTask(s.tasks[i]), true
}

// SetTasks replaces the whole list
func (s *TaskStore) SetTasks(tasks []models.Task) error {
	seen := make(map[int64]bool, len(tasks))
	for _, t := range tasks {
		if seen[t.ID] {
			return errors.InvalidInput("task ids must be unique").WithDetail("id", t.ID)
		}
		seen[t.ID] = true
		if err := checkSubtaskIDs(t.Subtasks); err != nil {
			return err
		}
	}
	s.mu.Lock()
	prev := s.snapshotLocked()
	s.tasks = cloneTasks(tasks, nil)
	for _, t := range tasks {
		s.ids.observe(t.ID)
	}
	err := s.commitLocked(prev)
	s.mu.Unlock()
	s.notify()
	return err
}

// Add appends a task. A zero id is replaced with a fresh one; defaults fill priority and status.
func (s *TaskStore) Add(t models.Task) (models.Task, error) {
	if strings.TrimSpace(t.Title) == "" {
		return models.Task{}, errors.InvalidInput("task title is required")
	}
	if t.WorkspaceID == "" {
		return models.Task{}, errors.InvalidInput("task must belong to a workspace")
	}
	if t.Priority == "" {
		t.Priority = models.PriorityMedium
	}
	if !t.Priority.Valid() {
		return models.Task{}, errors.InvalidInput("priority must be low, medium or high").WithDetail("priority", t.Priority)
	}
	if t.Status == "" {
		t.Status = models.StatusTodo
	}
	if err := s.checkStatus(t.Status); err != nil {
		return models.Task{}, err
	}
	if err := s.checkDate(t.DueDate); err != nil {
		return models.Task{}, err
	}
	if err := checkSubtaskIDs(t.Subtasks); err != nil {
		return models.Task{}, err
	}

	s.mu.Lock()
	prev := s.snapshotLocked()
	if t.ID == 0 {
		t.ID = s.ids.next(s.now())
	} else if indexTask(s.tasks, t.ID) >= 0 {
		s.mu.Unlock()
		return models.Task{}, errors.New(errors.ErrCodeConflict, "task id already exists").WithDetail("id", t.ID)
	} else {
		s.ids.observe(t.ID)
	}
	for _, st := range t.Subtasks {
		s.ids.observe(st.ID)
	}
	for i := range t.Subtasks {
		if t.Subtasks[i].ID == 0 {
			t.Subtasks[i].ID = s.ids.next(s.now())
		}
	}
	t = cloneTask(t)
	s.tasks = append(s.tasks, t)
	err := s.commitLocked(prev)
	s.mu.Unlock()
	if err != nil {
		return models.Task{}, err
	}

	s.log.WithField("id", t.ID).Debug("Task added")
	s.notify()
	return cloneTask(t), nil
}

// Update merges patch into the task
func (s *TaskStore) Update(id int64, patch TaskPatch) error {
	if patch.Title != nil && strings.TrimSpace(*patch.Title) == "" {
		return errors.InvalidInput("task title is required")
	}
	if patch.Priority != nil && !patch.Priority.Valid() {
		return errors.InvalidInput("priority must be low, medium or high").WithDetail("priority", *patch.Priority)
	}
	if patch.Status != nil {
		if err := s.checkStatus(*patch.Status); err != nil {
			return err
		}
	}
	if patch.DueDate != nil {
		if err := s.checkDate(*patch.DueDate); err != nil {
			return err
		}
	}
	if err := checkSubtaskIDs(patch.Subtasks); err != nil {
		return err
	}

	s.mu.Lock()
	prev := s.snapshotLocked()
	i := indexTask(s.tasks, id)
	if i < 0 {
		s.mu.Unlock()
		return taskNotFound(id)
	}
	t := &s.tasks[i]
	if patch.Title != nil {
		t.Title = *patch.Title
	}
	if patch.Description != nil {
		t.Description = *patch.Description
	}
	if patch.DueDate != nil {
		t.DueDate = *patch.DueDate
	}
	if patch.Priority != nil {
		t.Priority = *patch.Priority
	}
	if patch.Status != nil {
		t.Status = *patch.Status
	}
	if patch.Assignee != nil {
		t.Assignee = *patch.Assignee
	}
	if patch.Tags != nil {
		t.Tags = append([]string{}, patch.Tags...)
	}
	if patch.Color != nil {
		t.Color = *patch.Color
	}
	if patch.Subtasks != nil {
		subs := append([]models.Subtask{}, patch.Subtasks...)
		for _, st := range subs {
			s.ids.observe(st.ID)
		}
		for j := range subs {
			if subs[j].ID == 0 {
				subs[j].ID = s.ids.next(s.now())
			}
		}
		t.Subtasks = subs
	}
	err := s.commitLocked(prev)
	s.mu.Unlock()
	s.notify()
	return err
}

// Delete removes the task. An unknown id leaves the list unchanged.
func (s *TaskStore) Delete(id int64) error {
	s.mu.Lock()
	prev := s.snapshotLocked()
	i := indexTask(s.tasks, id)
	if i < 0 {
		s.mu.Unlock()
		return taskNotFound(id)
	}
	s.tasks = append(s.tasks[:i], s.tasks[i+1:]...)
	err := s.commitLocked(prev)
	s.mu.Unlock()
	s.notify()
	if err != nil {
		return err
	}
	return s.clearComments([]int64{id})
}

// Move changes only the due date. An unknown id leaves the list unchanged.
func (s *TaskStore) Move(id int64, dueDate string) error {
	if err := s.checkDate(dueDate); err != nil {
		return err
	}
	s.mu.Lock()
	prev := s.snapshotLocked()
	i := indexTask(s.tasks, id)
	if i < 0 {
		s.mu.Unlock()
		return taskNotFound(id)
	}
	s.tasks[i].DueDate = dueDate
	err := s.commitLocked(prev)
	s.mu.Unlock()
	s.notify()
	return err
}

// Drop completes a drag: transfer carries the dragged task id as text
func (s *TaskStore) Drop(transfer, dueDate string) error {
	id, err := strconv.ParseInt(strings.TrimSpace(transfer), 10, 64)
	if err != nil {
		return errors.InvalidInput("drag payload is not a task id").WithDetail("payload", transfer)
	}
	return s.Move(id, dueDate)
}

// SetStatus moves a task to another board column
func (s *TaskStore) SetStatus(id int64, status string) error {
	return s.Update(id, TaskPatch{Status: &status})
}

// SetFilter sets one filter key. An empty status or assignee value means all.
func (s *TaskStore) SetFilter(key, value string) error {
	s.mu.Lock()
	switch key {
	case FilterStatus:
		s.filter.Status = orAll(value)
	case FilterAssignee:
		s.filter.Assignee = orAll(value)
	case FilterSearch:
		s.filter.Search = value
	default:
		s.mu.Unlock()
		return errors.InvalidInput("unknown filter key").WithDetail("key", key)
	}
	s.mu.Unlock()
	s.notify()
	return nil
}

// ClearFilters resets every filter
func (s *TaskStore) ClearFilters() {
	s.mu.Lock()
	s.filter = DefaultTaskFilter()
	s.mu.Unlock()
	s.notify()
}

// Filter returns the active filter
func (s *TaskStore) Filter() TaskFilter {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.filter
}

// Filtered returns the tasks matching every active filter
func (s *TaskStore) Filtered() []models.Task {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return cloneTasks(s.tasks, s.filter.Match)
}

// Upcoming returns filtered tasks due after today and at most UpcomingDays ahead
func (s *TaskStore) Upcoming() []models.Task {
	now := s.now()
	return s.byDueDay(now, func(days int) bool { return days >= 1 && days <= UpcomingDays })
}

// DueToday returns filtered tasks due on today's calendar day
func (s *TaskStore) DueToday() []models.Task {
	now := s.now()
	return s.byDueDay(now, func(days int) bool { return days == 0 })
}

func (s *TaskStore) byDueDay(now time.Time, keep func(days int) bool) []models.Task {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return cloneTasks(s.tasks, func(t models.Task) bool {
		if !s.filter.Match(t) || t.DueDate == "" {
			return false
		}
		due, err := calendar.ParseDay(t.DueDate, now.Location())
		if err != nil {
			return false
		}
		return keep(calendar.DaysBetween(now, due))
	})
}

// ForWorkspace returns the tasks owned by one workspace
func (s *TaskStore) ForWorkspace(id string) []models.Task {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return cloneTasks(s.tasks, func(t models.Task) bool { return t.WorkspaceID == id })
}

// DeleteWorkspace drops every task owned by the workspace
func (s *TaskStore) DeleteWorkspace(id string) error {
	s.mu.Lock()
	prev := s.snapshotLocked()
	var removed []int64
	kept := s.tasks[:0]
	for _, t := range s.tasks {
		if t.WorkspaceID != id {
			kept = append(kept, t)
		} else {
			removed = append(removed, t.ID)
		}
	}
	s.tasks = kept
	err := s.commitLocked(prev)
	s.mu.Unlock()
	s.notify()
	if err != nil {
		return err
	}
	return s.clearComments(removed)
}

func (s *TaskStore) clearComments(ids []int64) error {
	if s.comments == nil {
		return nil
	}
	for _, id := range ids {
		if err := s.comments.Clear(id); err != nil {
			return err
		}
	}
	return nil
}

// Assignees returns the distinct non-empty assignees in first-seen order
func (s *TaskStore) Assignees() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	seen := make(map[string]bool)
	var out []string
	for _, t := range s.tasks {
		if t.Assignee != "" && !seen[t.Assignee] {
			seen[t.Assignee] = true
			out = append(out, t.Assignee)
		}
	}
	return out
}

// View returns the calendar granularity
func (s *TaskStore) View() calendar.View {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.view
}

// SetView switches the calendar granularity
func (s *TaskStore) SetView(v calendar.View) error {
	if !v.Valid() {
		return errors.InvalidInput("view must be month, week or day").WithDetail("view", v)
	}
	s.mu.Lock()
	prev := s.snapshotLocked()
	s.view = v
	err := s.commitLocked(prev)
	s.mu.Unlock()
	s.notify()
	return err
}

// CurrentDate returns the calendar cursor
func (s *TaskStore) CurrentDate() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current
}

// SetCurrentDate replaces the calendar cursor
func (s *TaskStore) SetCurrentDate(d time.Time) error {
	s.mu.Lock()
	prev := s.snapshotLocked()
	s.current = d
	err := s.commitLocked(prev)
	s.mu.Unlock()
	s.notify()
	return err
}

// ShiftDate moves the cursor by n periods of the current view
func (s *TaskStore) ShiftDate(n int) error {
	s.mu.RLock()
	next := calendar.Shift(s.view, s.current, n)
	s.mu.RUnlock()
	return s.SetCurrentDate(next)
}

// Today moves the cursor back to the current day
func (s *TaskStore) Today() error {
	return s.SetCurrentDate(s.now())
}

func (s *TaskStore) checkStatus(status string) error {
	if s.board != nil && !s.board.Valid(status) {
		return errors.InvalidInput("status does not match a board column").WithDetail("status", status)
	}
	return nil
}

func (s *TaskStore) checkDate(day string) error {
	if day == "" {
		return nil
	}
	if _, err := calendar.ParseDay(day, time.UTC); err != nil {
		return errors.InvalidInput("due date must be YYYY-MM-DD").WithDetail("dueDate", day)
	}
	return nil
}

// checkSubtaskIDs rejects two subtasks sharing an explicit id. Zero ids are assigned later.
func checkSubtaskIDs(subs []models.Subtask) error {
	seen := make(map[int64]bool, len(subs))
	for _, st := range subs {
		if st.ID == 0 {
			continue
		}
		if seen[st.ID] {
			return errors.InvalidInput("subtask ids must be unique within a task").WithDetail("subtaskId", st.ID)
		}
		seen[st.ID] = true
	}
	return nil
}

// taskSnapshot is the persisted part of the store, kept to undo a mutation whose save failed
type taskSnapshot struct {
	tasks   []models.Task
	view    calendar.View
	current time.Time
}

func (s *TaskStore) snapshotLocked() taskSnapshot {
	return taskSnapshot{tasks: cloneTasks(s.tasks, nil), view: s.view, current: s.current}
}

// commitLocked saves the current state. When the save fails, memory goes back to prev so the
// rejected change cannot poison later saves.
func (s *TaskStore) commitLocked(prev taskSnapshot) error {
	err := s.saveLocked()
	if err != nil {
		s.tasks, s.view, s.current = prev.tasks, prev.view, prev.current
	}
	return err
}

func (s *TaskStore) saveLocked() error {
	if s.persist == nil {
		return nil
	}
	if err := s.persist.SaveTasks(s.tasks); err != nil {
		s.log.WithError(err).Warn("Failed to persist tasks")
		return errors.Wrap(err, errors.ErrCodeStorage, "failed to save tasks")
	}
	if err := s.persist.SetSetting(keyCalendarView, string(s.view)); err != nil {
		return errors.Wrap(err, errors.ErrCodeStorage, "failed to save calendar view")
	}
	if err := s.persist.SetSetting(keyCalendarDate, s.current.Format(time.RFC3339)); err != nil {
		return errors.Wrap(err, errors.ErrCodeStorage, "failed to save calendar date")
	}
	return nil
}

func taskNotFound(id int64) error {
	return errors.New(errors.ErrCodeNotFound, "task not found").WithDetail("id", id)
}

func orAll(v string) string {
	if v == "" {
		return FilterAll
	}
	return v
}

func indexTask(list []models.Task, id int64) int {
	for i, t := range list {
		if t.ID == id {
			return i
		}
	}
	return -1
}

func cloneTask(t models.Task) models.Task {
	t.Tags = append([]string(nil), t.Tags...)
	subs := make([]models.Subtask, len(t.Subtasks))
	for i, st := range t.Subtasks {
		st.Tags = append([]string(nil), st.Tags...)
		subs[i] = st
	}
	if t.Subtasks == nil {
		subs = nil
	}
	t.Subtasks = subs
	return t
}

func cloneTasks(list []models.Task, keep func(models.Task) bool) []models.Task {
	out := make([]models.Task, 0, len(list))
	for _, t := range list {
		if keep == nil || keep(t) {
			out = append(out, cloneTask(t))
		}
	}
	return out
}

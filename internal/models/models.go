package models

import "time"

// Workspace is a named container scoping tasks, members and boards
type Workspace struct {
	ID          string    `json:"id" yaml:"id"`
	Name        string    `json:"name" yaml:"name"`
	Description string    `json:"description" yaml:"description"`
	Members     []string  `json:"members" yaml:"members"`
	Owner       string    `json:"owner,omitempty" yaml:"owner,omitempty"`
	CreatedAt   time.Time `json:"createdAt" yaml:"createdAt"`
}

// Priority of a task or subtask
type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
)

// Valid reports whether p is one of the known task priorities
func (p Priority) Valid() bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh:
		return true
	}
	return false
}

// Built-in task statuses. The board may configure more.
const (
	StatusTodo       = "todo"
	StatusInProgress = "inprogress"
	StatusQA         = "qa"
	StatusBlocked    = "blocked"
	StatusDone       = "done"
)

// Subtask is always owned by one parent Task
type Subtask struct {
	ID          int64    `json:"id" yaml:"id"`
	Title       string   `json:"title" yaml:"title"`
	Description string   `json:"description" yaml:"description"`
	Status      string   `json:"status" yaml:"status"`
	Assignee    string   `json:"assignee" yaml:"assignee"`
	DueDate     string   `json:"dueDate" yaml:"dueDate"`
	Priority    Priority `json:"priority" yaml:"priority"`
	Tags        []string `json:"tags" yaml:"tags"`
	Completed   bool     `json:"completed" yaml:"completed"`
}

// Comment is a note left on a task, oldest first
type Comment struct {
	ID        int64     `json:"id" yaml:"id"`
	TaskID    int64     `json:"taskId" yaml:"taskId"`
	Author    string    `json:"author" yaml:"author"`
	Content   string    `json:"content" yaml:"content"`
	CreatedAt time.Time `json:"createdAt" yaml:"createdAt"`
}

// Task represents a single unit of work on a workspace board.
// DueDate is a calendar date in YYYY-MM-DD form.
type Task struct {
	ID          int64     `json:"id" yaml:"id"`
	Title       string    `json:"title" yaml:"title"`
	Description string    `json:"description" yaml:"description"`
	DueDate     string    `json:"dueDate" yaml:"dueDate"`
	Priority    Priority  `json:"priority" yaml:"priority"`
	Status      string    `json:"status" yaml:"status"`
	Assignee    string    `json:"assignee" yaml:"assignee"`
	Tags        []string  `json:"tags" yaml:"tags"`
	Color       string    `json:"color" yaml:"color"`
	Subtasks    []Subtask `json:"subtasks" yaml:"subtasks"`
	CreatedBy   string    `json:"createdBy" yaml:"createdBy"`
	WorkspaceID string    `json:"workspaceId" yaml:"workspaceId"`
}

// Column is a user-configurable Kanban bucket matching a task status
type Column struct {
	ID    string `json:"id" yaml:"id" toml:"id"`
	Title string `json:"title" yaml:"title" toml:"title"`
	Color string `json:"color" yaml:"color" toml:"color"`
}

// DefaultColumns is the board layout used until the user edits it
func DefaultColumns() []Column {
	return []Column{
		{ID: StatusTodo, Title: "To Do", Color: "#565f89"},
		{ID: StatusInProgress, Title: "In Progress", Color: "#7aa2f7"},
		{ID: StatusQA, Title: "QA", Color: "#e0af68"},
		{ID: StatusBlocked, Title: "Blocked", Color: "#f7768e"},
		{ID: StatusDone, Title: "Done", Color: "#9ece6a"},
	}
}

// CommitmentPriority uses the server's capitalised labels
type CommitmentPriority string

const (
	CommitmentHigh   CommitmentPriority = "High"
	CommitmentMedium CommitmentPriority = "Medium"
	CommitmentLow    CommitmentPriority = "Low"
)

// CommitmentStatus is the server-side progress state of a commitment
type CommitmentStatus string

const (
	CommitmentNotStarted CommitmentStatus = "Not Started"
	CommitmentInProgress CommitmentStatus = "In Progress"
	CommitmentCompleted  CommitmentStatus = "Completed"
)

// Person is the embedded assignee reference on a commitment
type Person struct {
	ID   string `json:"id" yaml:"id"`
	Name string `json:"name" yaml:"name"`
}

// Commitment is a deadline-bound obligation owned by the server.
// A nil LinkedTaskID after having been set means the task was deleted upstream.
type Commitment struct {
	ID           string             `json:"id" yaml:"id"`
	Title        string             `json:"title" yaml:"title"`
	Description  string             `json:"description,omitempty" yaml:"description,omitempty"`
	DueDate      time.Time          `json:"dueDate" yaml:"dueDate"`
	AssigneeID   *string            `json:"assigneeId,omitempty" yaml:"assigneeId,omitempty"`
	Assignee     *Person            `json:"assignee,omitempty" yaml:"assignee,omitempty"`
	LinkedTaskID *string            `json:"linkedTaskId,omitempty" yaml:"linkedTaskId,omitempty"`
	Priority     CommitmentPriority `json:"priority" yaml:"priority"`
	Status       CommitmentStatus   `json:"status" yaml:"status"`
	Archived     bool               `json:"archived,omitempty" yaml:"archived,omitempty"`
	CreatedAt    time.Time          `json:"createdAt" yaml:"createdAt"`
	UpdatedAt    time.Time          `json:"updatedAt" yaml:"updatedAt"`
}

// CommitmentEvent is the short name of a pushed commitment lifecycle event
type CommitmentEvent string

const (
	EventCreated   CommitmentEvent = "created"
	EventUpdated   CommitmentEvent = "updated"
	EventCompleted CommitmentEvent = "completed"
	EventArchived  CommitmentEvent = "archived"
	EventDeleted   CommitmentEvent = "deleted"
)

// Valid reports whether e is one of the five lifecycle events
func (e CommitmentEvent) Valid() bool {
	switch e {
	case EventCreated, EventUpdated, EventCompleted, EventArchived, EventDeleted:
		return true
	}
	return false
}

// CommitmentInput is the create/update payload. Nil fields are left untouched by the server.
type CommitmentInput struct {
	Title        *string             `json:"title,omitempty"`
	Description  *string             `json:"description,omitempty"`
	DueDate      *time.Time          `json:"dueDate,omitempty"`
	AssigneeID   *string             `json:"assigneeId,omitempty"`
	LinkedTaskID *string             `json:"linkedTaskId,omitempty"`
	Priority     *CommitmentPriority `json:"priority,omitempty"`
	Status       *CommitmentStatus   `json:"status,omitempty"`
	Archived     *bool               `json:"archived,omitempty"`
}

// NotificationType classifies a notification
type NotificationType string

const (
	NotificationMention      NotificationType = "mention"
	NotificationAssignment   NotificationType = "assignment"
	NotificationDueSoon      NotificationType = "due-soon"
	NotificationStatusChange NotificationType = "status-change"
)

// Notification is a server-side alert for the current user.
// IsValid is nil when the server does not track link validity.
type Notification struct {
	ID        string           `json:"id" yaml:"id"`
	Type      NotificationType `json:"type" yaml:"type"`
	Message   string           `json:"message" yaml:"message"`
	Link      string           `json:"link,omitempty" yaml:"link,omitempty"`
	IsRead    bool             `json:"isRead" yaml:"isRead"`
	CreatedAt time.Time        `json:"createdAt" yaml:"createdAt"`
	IsValid   *bool            `json:"isValid,omitempty" yaml:"isValid,omitempty"`
}

// LinkUsable reports whether the deep link can still be followed
func (n Notification) LinkUsable() bool {
	return n.Link != "" && (n.IsValid == nil || *n.IsValid)
}

// User is the authenticated account
type User struct {
	ID    string `json:"id" yaml:"id"`
	Name  string `json:"name" yaml:"name"`
	Email string `json:"email" yaml:"email"`
}

// AuthResponse is returned by login, register and verify
type AuthResponse struct {
	AccessToken string `json:"access_token"`
	User        *User  `json:"user,omitempty"`
	Message     string `json:"message,omitempty"`
}

// Metrics are the dashboard summary counters
type Metrics struct {
	CompletedTasks   int `json:"completedTasks" yaml:"completedTasks"`
	InProgressTasks  int `json:"inProgressTasks" yaml:"inProgressTasks"`
	TeamMembers      int `json:"teamMembers" yaml:"teamMembers"`
	ActiveWorkspaces int `json:"activeWorkspaces,omitempty" yaml:"activeWorkspaces,omitempty"`
	TotalWorkspaces  int `json:"totalWorkspaces,omitempty" yaml:"totalWorkspaces,omitempty"`
}

// Meeting is a dashboard calendar entry
type Meeting struct {
	ID             string    `json:"id" yaml:"id"`
	Title          string    `json:"title" yaml:"title"`
	Description    string    `json:"description" yaml:"description"`
	DateTime       time.Time `json:"dateTime" yaml:"dateTime"`
	Link           string    `json:"link" yaml:"link"`
	CreatedAt      time.Time `json:"createdAt" yaml:"createdAt"`
	IsRecurring    bool      `json:"isRecurring,omitempty" yaml:"isRecurring,omitempty"`
	RecurrenceRule string    `json:"recurrenceRule,omitempty" yaml:"recurrenceRule,omitempty"`
}

// Team is a named roster
type Team struct {
	ID      string   `json:"id" yaml:"id"`
	Name    string   `json:"name" yaml:"name"`
	Members []Member `json:"members" yaml:"members"`
}

// Member belongs to a team
type Member struct {
	ID   string `json:"id" yaml:"id"`
	Name string `json:"name" yaml:"name"`
	Role string `json:"role" yaml:"role"`
}

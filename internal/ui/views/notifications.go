package views

import (
	"context"
	"fmt"
	"time"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/tgienger/deck/internal/errors"
	"github.com/tgienger/deck/internal/models"
	"github.com/tgienger/deck/internal/store"
	"github.com/tgienger/deck/internal/ui/keys"
	"github.com/tgienger/deck/internal/ui/styles"
)

type notificationsLoadedMsg struct {
	err error
}

// NotificationListView lists the newest notifications with read/unread and delete/undo
type NotificationListView struct {
	ctx           context.Context
	notifications *store.NotificationStore
	styles        *styles.Styles
	keys          keys.KeyMap

	width  int
	height int

	items  []models.Notification
	cursor int
	loaded bool

	showHelpPopup bool
}

// NewNotificationListView creates the notification screen
func NewNotificationListView(ctx context.Context, notifications *store.NotificationStore) *NotificationListView {
	return &NotificationListView{
		ctx:           ctx,
		notifications: notifications,
		styles:        styles.NewStyles(),
		keys:          keys.DefaultKeyMap(),
	}
}

func (v *NotificationListView) Init() tea.Cmd {
	return v.load
}

// Capturing reports whether the help popup owns the keyboard
func (v *NotificationListView) Capturing() bool { return v.showHelpPopup }

func (v *NotificationListView) load() tea.Msg {
	return notificationsLoadedMsg{err: v.notifications.Fetch(v.ctx)}
}

// mutate runs a store call, then refreshes the list whatever the outcome
func (v *NotificationListView) mutate(fn func() error) tea.Cmd {
	return func() tea.Msg {
		return notificationsLoadedMsg{err: fn()}
	}
}

func (v *NotificationListView) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		v.width = msg.Width
		v.height = msg.Height
		return v, nil

	case notificationsLoadedMsg:
		v.loaded = true
		v.items = v.notifications.Items()
		v.cursor = styles.Clamp(v.cursor, 0, max(0, len(v.items)-1))
		if msg.err != nil {
			return v, Failed(msg.err)
		}
		return v, nil

	case tea.KeyMsg:
		if v.showHelpPopup {
			v.showHelpPopup = false
			return v, nil
		}
		return v, v.handleKey(msg)
	}
	return v, nil
}

func (v *NotificationListView) handleKey(msg tea.KeyMsg) tea.Cmd {
	var current *models.Notification
	if v.cursor < len(v.items) {
		current = &v.items[v.cursor]
	}

	switch {
	case key.Matches(msg, v.keys.Up):
		if v.cursor > 0 {
			v.cursor--
		}
	case key.Matches(msg, v.keys.Down):
		if v.cursor < len(v.items)-1 {
			v.cursor++
		}
	case key.Matches(msg, v.keys.Refresh):
		return v.load
	case key.Matches(msg, v.keys.Enter), msg.String() == " ":
		if current == nil {
			return nil
		}
		id, read := current.ID, current.IsRead
		return v.mutate(func() error {
			if read {
				return v.notifications.MarkUnread(v.ctx, id)
			}
			return v.notifications.MarkRead(v.ctx, id)
		})
	case msg.String() == "A":
		return v.mutate(func() error { return v.notifications.MarkAllRead(v.ctx) })
	case key.Matches(msg, v.keys.Delete):
		if current == nil {
			return nil
		}
		id := current.ID
		return v.mutate(func() error { return v.notifications.Delete(v.ctx, id) })
	case msg.String() == "u":
		deleted := v.notifications.Deleted()
		if len(deleted) == 0 {
			return Status("Nothing to restore")
		}
		id := deleted[0].ID
		return v.mutate(func() error { return v.notifications.Restore(v.ctx, id) })
	case msg.String() == "o":
		if current == nil {
			return nil
		}
		if !current.LinkUsable() {
			return Failed(errors.New(errors.ErrCodeNotFound, "This item no longer exists"))
		}
		return Status("Link: %s", current.Link)
	case key.Matches(msg, v.keys.Help):
		v.showHelpPopup = true
	}
	return nil
}

var notificationBindings = []binding{
	{"↵", "read/unread"}, {"A", "all read"}, {"d", "del"}, {"u", "undo"}, {"o", "link"}, {"r", "refresh"}, {"q", "quit"},
}

// View renders the view
func (v *NotificationListView) View() string {
	if v.showHelpPopup {
		return renderHelpPopup(v.styles, v.width, v.height, notificationBindings)
	}
	s := v.styles
	title := s.Title.Render(fmt.Sprintf("Notifications (%d unread)", v.notifications.UnreadCount()))

	var body string
	switch {
	case !v.loaded:
		body = s.TitleMuted.Render("Loading...")
	case len(v.items) == 0:
		body = s.TitleMuted.Render("You're all caught up")
	default:
		body = v.renderList()
	}
	content := lipgloss.JoinVertical(lipgloss.Left, title, "", body, renderHelpLine(s, v.width, notificationBindings))
	return styles.CenterView(content, v.width, v.height)
}

func (v *NotificationListView) renderList() string {
	s := v.styles
	width := max(styles.ContentWidth(v.width)-4, 30)

	visible := max((v.height-10)/2, 1)
	start := 0
	if v.cursor >= visible {
		start = v.cursor - visible + 1
	}
	end := min(start+visible, len(v.items))

	var rows []string
	for i := start; i < end; i++ {
		n := v.items[i]
		style := s.ListItem.Width(width)
		if i == v.cursor {
			style = s.ListSelected.Width(width)
		}
		marker := " "
		if !n.IsRead {
			marker = s.Unread.Render("●")
		}
		prio := lipgloss.NewStyle().Foreground(styles.PriorityColor(store.NotificationPriority(n.Type))).
			Render(fmt.Sprintf("%-13s", n.Type))
		meta := n.CreatedAt.Local().Format(time.DateTime)
		if n.Link != "" && !n.LinkUsable() {
			meta += " • link expired"
		}
		rows = append(rows,
			style.Render(marker+" "+truncate(n.Message, width-6)),
			"    "+prio+" "+s.TitleMuted.Render(meta),
		)
	}
	return lipgloss.JoinVertical(lipgloss.Left, rows...)
}

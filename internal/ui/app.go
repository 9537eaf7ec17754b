package ui

import (
	"context"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/tgienger/deck/internal/socket"
	"github.com/tgienger/deck/internal/store"
	"github.com/tgienger/deck/internal/ui/keys"
	"github.com/tgienger/deck/internal/ui/styles"
	"github.com/tgienger/deck/internal/ui/views"
)

// Currently active screen
type View int

const (
	ViewWorkspaces View = iota
	ViewBoard
	ViewCalendar
	ViewCommitments
	ViewNotifications
	ViewDashboard
	viewCount
)

var viewNames = []string{"Workspaces", "Board", "Calendar", "Commitments", "Notifications", "Dashboard"}

const (
	settingLastView = "ui.view"
	statusTimeout   = 4 * time.Second
	// header and status line
	chromeHeight = 3
)

// Stores bundles the state containers the screens render
type Stores struct {
	Settings      store.SettingsStore
	Workspaces    *store.WorkspaceStore
	Tasks         *store.TaskStore
	Comments      *store.CommentStore
	Board         *store.Board
	Commitments   *store.CommitmentStore
	Notifications *store.NotificationStore
	Dashboard     *store.DashboardStore
	Teams         *store.TeamStore
	Auth          *store.AuthStore
}

type clearStatusMsg struct{ seq int }

type liveMsg struct{ err error }

type App struct {
	ctx      context.Context
	stores   Stores
	listener *socket.Listener
	changes  chan struct{}

	currentView View
	screens     [viewCount]views.Screen
	started     [viewCount]bool
	keys        keys.KeyMap
	styles      *styles.Styles

	status    string
	statusErr bool
	statusSeq int
	live      bool

	width  int
	height int
}

// NewApp creates the application. listener may be nil to run without live updates.
func NewApp(ctx context.Context, stores Stores, listener *socket.Listener) *App {
	a := &App{
		ctx:      ctx,
		stores:   stores,
		listener: listener,
		keys:     keys.DefaultKeyMap(),
		styles:   styles.NewStyles(),
	}
	a.screens[ViewWorkspaces] = views.NewWorkspaceListView(stores.Workspaces, stores.Tasks)
	a.screens[ViewBoard] = views.NewBoardView(stores.Tasks, stores.Board, stores.Workspaces, stores.Comments)
	a.screens[ViewCalendar] = views.NewCalendarView(stores.Tasks, stores.Workspaces)
	a.screens[ViewCommitments] = views.NewCommitmentListView(ctx, stores.Commitments)
	a.screens[ViewNotifications] = views.NewNotificationListView(ctx, stores.Notifications)
	a.screens[ViewDashboard] = views.NewDashboardView(ctx, stores.Dashboard, stores.Teams, stores.Tasks)
	return a
}

func (a *App) Init() tea.Cmd {
	a.changes = a.stores.Commitments.Subscribe()
	cmds := []tea.Cmd{a.waitForChange(), a.openLive()}

	// Reopen the screen used last, falling back to the workspace list
	start := ViewWorkspaces
	if last, err := a.stores.Settings.GetSetting(settingLastView); err == nil && last != "" {
		if n, err := strconv.Atoi(last); err == nil && n >= 0 && n < int(viewCount) {
			start = View(n)
		}
	}
	if start != ViewWorkspaces && a.stores.Workspaces.Selected() == nil && start <= ViewCalendar {
		start = ViewWorkspaces
	}
	cmds = append(cmds, a.switchTo(start))
	return tea.Batch(cmds...)
}

// Close stops the push listener and the change subscription
func (a *App) Close() error {
	if a.changes != nil {
		a.stores.Commitments.Unsubscribe(a.changes)
	}
	if a.listener != nil {
		return a.listener.Close()
	}
	return nil
}

func (a *App) openLive() tea.Cmd {
	if a.listener == nil {
		return nil
	}
	return func() tea.Msg {
		return liveMsg{err: a.listener.Open(a.ctx)}
	}
}

// waitForChange turns one store signal into a message; it is re-armed after every delivery
func (a *App) waitForChange() tea.Cmd {
	ch := a.changes
	return func() tea.Msg {
		if _, ok := <-ch; !ok {
			return nil
		}
		return views.CommitmentsChanged{}
	}
}

func (a *App) switchTo(v View) tea.Cmd {
	a.currentView = v
	_ = a.stores.Settings.SetSetting(settingLastView, strconv.Itoa(int(v)))

	var cmds []tea.Cmd
	if !a.started[v] {
		a.started[v] = true
		cmds = append(cmds, a.screens[v].Init())
	} else if r, ok := a.screens[v].(interface{ Refresh() tea.Cmd }); ok {
		cmds = append(cmds, r.Refresh())
	}
	return tea.Batch(cmds...)
}

func (a *App) contentSize() tea.WindowSizeMsg {
	return tea.WindowSizeMsg{Width: a.width, Height: max(a.height-chromeHeight, 1)}
}

func (a *App) setStatus(text string, isErr bool) tea.Cmd {
	a.status = text
	a.statusErr = isErr
	a.statusSeq++
	seq := a.statusSeq
	return tea.Tick(statusTimeout, func(time.Time) tea.Msg { return clearStatusMsg{seq: seq} })
}

func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		size := a.contentSize()
		for _, s := range a.screens {
			s.Update(size)
		}
		return a, nil

	case views.StatusMsg:
		return a, a.setStatus(msg.Text, msg.Err)

	case clearStatusMsg:
		if msg.seq == a.statusSeq {
			a.status = ""
		}
		return a, nil

	case liveMsg:
		if msg.err != nil {
			return a, a.setStatus("Live updates unavailable: "+msg.err.Error(), true)
		}
		a.live = true
		return a, nil

	case views.CommitmentsChanged:
		if a.listener != nil && a.live && !a.listener.Connected() {
			a.live = false
		}
		_, cmd := a.screens[ViewCommitments].Update(msg)
		return a, tea.Batch(cmd, a.waitForChange())

	case views.WorkspaceSelected:
		return a, tea.Batch(
			a.setStatus("Workspace: "+msg.Workspace.Name, false),
			a.switchTo(ViewBoard),
		)

	case tea.KeyMsg:
		if !a.screens[a.currentView].Capturing() {
			if key.Matches(msg, a.keys.Quit) {
				return a, tea.Quit
			}
			for v, b := range []key.Binding{
				a.keys.Workspaces, a.keys.Board, a.keys.Calendar,
				a.keys.Commitments, a.keys.Notifications, a.keys.Dashboard,
			} {
				if key.Matches(msg, b) {
					return a, a.switchTo(View(v))
				}
			}
		}
	}

	// Delegate to current screen
	_, cmd := a.screens[a.currentView].Update(msg)
	return a, cmd
}

func (a *App) View() string {
	return lipgloss.JoinVertical(lipgloss.Left,
		a.renderHeader(),
		a.screens[a.currentView].View(),
		a.renderStatus(),
	)
}

func (a *App) renderHeader() string {
	s := a.styles
	tabs := make([]string, len(viewNames))
	for i, name := range viewNames {
		label := strconv.Itoa(i+1) + " " + name
		if View(i) == ViewNotifications {
			if n := a.stores.Notifications.UnreadCount(); n > 0 {
				label += " (" + strconv.Itoa(n) + ")"
			}
		}
		style := s.Tab
		if View(i) == a.currentView {
			style = s.TabActive
		}
		tabs[i] = style.Render(label)
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, tabs...)
}

func (a *App) renderStatus() string {
	s := a.styles
	var parts []string
	if u := a.stores.Auth.User(); u != nil {
		parts = append(parts, u.Name)
	} else {
		parts = append(parts, "signed out")
	}
	if ws := a.stores.Workspaces.Selected(); ws != nil {
		parts = append(parts, ws.Name)
	}
	if a.live {
		parts = append(parts, "live")
	}
	left := s.StatusBar.Render(strings.Join(parts, " • "))

	if a.status == "" {
		return left
	}
	style := s.StatusBar
	if a.statusErr {
		style = s.StatusError
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, left, style.Render(a.status))
}

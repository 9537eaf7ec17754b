package views

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/tgienger/deck/internal/models"
	"github.com/tgienger/deck/internal/store"
	"github.com/tgienger/deck/internal/ui/keys"
	"github.com/tgienger/deck/internal/ui/styles"
)

type workspaceItem struct {
	workspace models.Workspace
	selected  bool
	tasks     int
}

func (i workspaceItem) Title() string       { return i.workspace.Name }
func (i workspaceItem) Description() string { return i.workspace.Description }
func (i workspaceItem) FilterValue() string { return i.workspace.Name }

type workspaceDelegate struct {
	styles *styles.Styles
	width  int
}

func (d workspaceDelegate) Height() int                               { return 2 }
func (d workspaceDelegate) Spacing() int                              { return 1 }
func (d workspaceDelegate) Update(msg tea.Msg, m *list.Model) tea.Cmd { return nil }

func (d workspaceDelegate) Render(w io.Writer, m list.Model, index int, item list.Item) {
	ws, ok := item.(workspaceItem)
	if !ok {
		return
	}

	width := max(d.width-4, 20)
	titleStyle := d.styles.ListItem.Width(width)
	descStyle := d.styles.ListItem.Foreground(styles.Current.ForegroundDim).Width(width)
	if index == m.Index() {
		titleStyle = d.styles.ListSelected.Width(width)
		descStyle = d.styles.ListSelected.Foreground(styles.Current.ForegroundDim).Width(width)
	}

	title := ws.Title()
	if ws.selected {
		title = "● " + title
	}
	desc := fmt.Sprintf("%d tasks • %d members", ws.tasks, len(ws.workspace.Members))
	if ws.Description() != "" {
		desc = ws.Description() + " • " + desc
	}

	fmt.Fprintf(w, "%s\n%s", titleStyle.Render(title), descStyle.Render(truncate(desc, width-4)))
}

// WorkspaceSelected is sent after the active workspace changes
type WorkspaceSelected struct {
	Workspace models.Workspace
}

type workspacesLoadedMsg struct {
	workspaces []models.Workspace
}

// WorkspaceListView lists workspaces and edits them
type WorkspaceListView struct {
	workspaces *store.WorkspaceStore
	tasks      *store.TaskStore
	list       list.Model
	delegate   *workspaceDelegate
	styles     *styles.Styles
	keys       keys.KeyMap
	width      int
	height     int
	loaded     bool

	// Create / edit form
	editing   bool
	editingID string
	newName   textinput.Model
	newDesc   textinput.Model
	members   textinput.Model
	focusIdx  int // 0=name, 1=desc, 2=members, 3=confirm

	confirmingDelete bool
	deleteTargetID   string
	deleteTargetName string

	showHelpPopup bool
}

// NewWorkspaceListView creates the workspace screen
func NewWorkspaceListView(workspaces *store.WorkspaceStore, tasks *store.TaskStore) *WorkspaceListView {
	s := styles.NewStyles()

	newName := textinput.New()
	newName.Placeholder = "Workspace name"
	newName.CharLimit = 100

	newDesc := textinput.New()
	newDesc.Placeholder = "Description (optional)"
	newDesc.CharLimit = 200

	members := textinput.New()
	members.Placeholder = "Members, comma separated"
	members.CharLimit = 500

	delegate := &workspaceDelegate{styles: s, width: 80}

	l := list.New([]list.Item{}, delegate, 0, 0)
	l.Title = "Workspaces"
	l.SetShowStatusBar(false)
	l.SetFilteringEnabled(true)
	l.Styles.Title = s.Title
	l.SetShowHelp(false)

	return &WorkspaceListView{
		workspaces: workspaces,
		tasks:      tasks,
		list:       l,
		delegate:   delegate,
		styles:     s,
		keys:       keys.DefaultKeyMap(),
		newName:    newName,
		newDesc:    newDesc,
		members:    members,
	}
}

func (v *WorkspaceListView) Init() tea.Cmd {
	return v.loadWorkspaces
}

func (v *WorkspaceListView) loadWorkspaces() tea.Msg {
	return workspacesLoadedMsg{workspaces: v.workspaces.List()}
}

// Capturing reports whether a form, popup or list filter owns the keyboard
func (v *WorkspaceListView) Capturing() bool {
	return v.editing || v.confirmingDelete || v.showHelpPopup || v.list.SettingFilter()
}

// Refresh reloads the list from the store
func (v *WorkspaceListView) Refresh() tea.Cmd {
	return v.loadWorkspaces
}

func (v *WorkspaceListView) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		v.width = msg.Width
		v.height = msg.Height
		contentWidth := styles.ContentWidth(msg.Width)
		v.delegate.width = contentWidth
		v.list.SetSize(contentWidth-4, msg.Height-8)
		return v, nil

	case workspacesLoadedMsg:
		selectedID := ""
		if sel := v.workspaces.Selected(); sel != nil {
			selectedID = sel.ID
		}
		items := make([]list.Item, len(msg.workspaces))
		for i, ws := range msg.workspaces {
			items[i] = workspaceItem{
				workspace: ws,
				selected:  ws.ID == selectedID,
				tasks:     len(v.tasks.ForWorkspace(ws.ID)),
			}
		}
		v.list.SetItems(items)
		v.loaded = true
		return v, nil

	case tea.KeyMsg:
		if v.showHelpPopup {
			v.showHelpPopup = false
			return v, nil
		}
		if v.confirmingDelete {
			return v.updateConfirmDelete(msg)
		}
		if v.editing {
			return v.updateEditing(msg)
		}
		if v.list.SettingFilter() {
			break
		}

		switch {
		case key.Matches(msg, v.keys.New):
			v.openForm(nil)
			return v, textinput.Blink
		case key.Matches(msg, v.keys.Edit):
			if item, ok := v.list.SelectedItem().(workspaceItem); ok {
				v.openForm(&item.workspace)
				return v, textinput.Blink
			}
		case key.Matches(msg, v.keys.Help):
			v.showHelpPopup = true
			return v, nil
		case key.Matches(msg, v.keys.Enter):
			if item, ok := v.list.SelectedItem().(workspaceItem); ok {
				return v, v.selectWorkspace(item.workspace)
			}
		case key.Matches(msg, v.keys.Delete):
			if item, ok := v.list.SelectedItem().(workspaceItem); ok {
				v.confirmingDelete = true
				v.deleteTargetID = item.workspace.ID
				v.deleteTargetName = item.workspace.Name
				return v, nil
			}
		}
	}

	var cmd tea.Cmd
	v.list, cmd = v.list.Update(msg)
	return v, cmd
}

func (v *WorkspaceListView) selectWorkspace(ws models.Workspace) tea.Cmd {
	if err := v.workspaces.Select(&ws); err != nil {
		return Failed(err)
	}
	return tea.Batch(v.loadWorkspaces, func() tea.Msg { return WorkspaceSelected{Workspace: ws} })
}

func (v *WorkspaceListView) updateConfirmDelete(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "y", "Y":
		v.confirmingDelete = false
		if err := v.workspaces.Delete(v.deleteTargetID); err != nil {
			return v, Failed(err)
		}
		if err := v.tasks.DeleteWorkspace(v.deleteTargetID); err != nil {
			return v, tea.Batch(v.loadWorkspaces, Failed(err))
		}
		return v, tea.Batch(v.loadWorkspaces, Status("Deleted %q", v.deleteTargetName))
	case "n", "N", "esc":
		v.confirmingDelete = false
	}
	return v, nil
}

func (v *WorkspaceListView) openForm(ws *models.Workspace) {
	v.editing = true
	v.focusIdx = 0
	v.newName.Reset()
	v.newDesc.Reset()
	v.members.Reset()
	v.editingID = ""
	if ws != nil {
		v.editingID = ws.ID
		v.newName.SetValue(ws.Name)
		v.newDesc.SetValue(ws.Description)
		v.members.SetValue(strings.Join(ws.Members, ", "))
	}
	v.updateFocus()
}

func (v *WorkspaceListView) updateEditing(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, v.keys.Back):
		v.editing = false
		return v, nil

	case msg.String() == "ctrl+s":
		return v, v.save()

	case msg.String() == "shift+tab":
		v.focusIdx = (v.focusIdx + 3) % 4
		v.updateFocus()
		return v, nil

	case key.Matches(msg, v.keys.Tab):
		v.focusIdx = (v.focusIdx + 1) % 4
		v.updateFocus()
		return v, nil

	case key.Matches(msg, v.keys.Enter):
		if v.focusIdx < 3 {
			v.focusIdx++
			v.updateFocus()
			return v, nil
		}
		return v, v.save()
	}

	var cmd tea.Cmd
	switch v.focusIdx {
	case 0:
		v.newName, cmd = v.newName.Update(msg)
	case 1:
		v.newDesc, cmd = v.newDesc.Update(msg)
	case 2:
		v.members, cmd = v.members.Update(msg)
	}
	return v, cmd
}

func (v *WorkspaceListView) save() tea.Cmd {
	name := strings.TrimSpace(v.newName.Value())
	desc := strings.TrimSpace(v.newDesc.Value())
	members := splitList(v.members.Value())

	if v.editingID != "" {
		err := v.workspaces.Update(v.editingID, store.WorkspacePatch{
			Name:        &name,
			Description: &desc,
			Members:     members,
		})
		if err != nil {
			return Failed(err)
		}
		v.editing = false
		return v.loadWorkspaces
	}

	ws, err := v.workspaces.Add(store.WorkspaceInput{Name: name, Description: desc, Members: members})
	if err != nil {
		return Failed(err)
	}
	v.editing = false
	return tea.Batch(v.loadWorkspaces, func() tea.Msg { return WorkspaceSelected{Workspace: ws} })
}

func (v *WorkspaceListView) updateFocus() {
	v.newName.Blur()
	v.newDesc.Blur()
	v.members.Blur()
	switch v.focusIdx {
	case 0:
		v.newName.Focus()
	case 1:
		v.newDesc.Focus()
	case 2:
		v.members.Focus()
	}
}

var workspaceBindings = []binding{
	{"↵", "select"}, {"n", "new"}, {"e", "edit"}, {"d", "del"}, {"/", "filter"}, {"1-6", "screens"}, {"q", "quit"},
}

// View renders the view
func (v *WorkspaceListView) View() string {
	if v.showHelpPopup {
		return renderHelpPopup(v.styles, v.width, v.height, workspaceBindings)
	}
	if v.confirmingDelete {
		return renderConfirm(v.styles, v.width, v.height, "Delete Workspace?",
			fmt.Sprintf("%q and its tasks will be removed.", v.deleteTargetName))
	}
	if v.editing {
		return v.renderForm()
	}
	if !v.loaded {
		return v.styles.TitleMuted.Render("Loading...")
	}
	if len(v.list.Items()) == 0 {
		return v.renderEmpty()
	}

	content := v.list.View() + "\n" + renderHelpLine(v.styles, v.width, workspaceBindings)
	return styles.CenterView(content, v.width, v.height)
}

func (v *WorkspaceListView) renderEmpty() string {
	s := v.styles
	contentWidth := styles.ContentWidth(v.width)

	content := lipgloss.JoinVertical(lipgloss.Center,
		s.Title.Render("No Workspaces"),
		"",
		s.TitleMuted.Render("Press 'n' to create your first workspace"),
		"",
		s.ButtonPrimary.Render(" New Workspace "),
	)

	centered := lipgloss.Place(contentWidth, v.height,
		lipgloss.Center, lipgloss.Center,
		content,
	)
	return styles.CenterView(centered, v.width, v.height)
}

func (v *WorkspaceListView) renderForm() string {
	s := v.styles
	contentWidth := styles.ContentWidth(v.width)

	fields := []lipgloss.Style{s.Input, s.Input, s.Input}
	btnStyle := s.Button
	if v.focusIdx < len(fields) {
		fields[v.focusIdx] = s.InputFocused
	} else {
		btnStyle = s.ButtonFocused
	}

	title, button := "New Workspace", " Create "
	if v.editingID != "" {
		title, button = "Edit Workspace", " Save "
	}

	inputWidth := styles.Clamp(contentWidth-6, 20, 50)
	form := lipgloss.JoinVertical(lipgloss.Left,
		s.Title.Render(title),
		"",
		"Name:",
		fields[0].Width(inputWidth).Render(v.newName.View()),
		"",
		"Description:",
		fields[1].Width(inputWidth).Render(v.newDesc.View()),
		"",
		"Members:",
		fields[2].Width(inputWidth).Render(v.members.View()),
		"",
		btnStyle.Render(button),
		"",
		s.TitleMuted.Render("Tab: next • Ctrl+S: save • Esc: cancel"),
	)

	centered := lipgloss.Place(contentWidth, v.height,
		lipgloss.Center, lipgloss.Center,
		form,
	)
	return styles.CenterView(centered, v.width, v.height)
}

// splitList splits a comma separated field, dropping blanks
func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

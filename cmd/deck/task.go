package main

import (
	"context"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"github.com/tgienger/deck/internal/errors"
	"github.com/tgienger/deck/internal/models"
	"github.com/tgienger/deck/internal/store"
)

func newTaskCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "task",
		Short: "Manage board tasks",
	}
	cmd.AddCommand(
		newTaskListCmd(),
		newTaskAddCmd(),
		newTaskUpdateCmd(),
		newTaskMoveCmd(),
		newTaskDeleteCmd(),
		newTaskSubtaskCmd(),
		newTaskCommentCmd(),
		newTaskDueCmd("upcoming", "Tasks due in the next few days", (*store.TaskStore).Upcoming),
		newTaskDueCmd("today", "Tasks due today", (*store.TaskStore).DueToday),
	)
	return cmd
}

func parseTaskID(s string) (int64, error) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, errors.InvalidInput("task id must be a number").WithDetail("id", s)
	}
	return id, nil
}

// taskRows renders tasks for the table output, naming each status by its column title
func taskRows(e *env, tasks []models.Task) [][]string {
	titles := make(map[string]string)
	for _, c := range e.stores.Board.Columns() {
		titles[c.ID] = c.Title
	}
	rows := make([][]string, 0, len(tasks))
	for _, t := range tasks {
		status := titles[t.Status]
		if status == "" {
			status = t.Status
		}
		rows = append(rows, []string{
			strconv.FormatInt(t.ID, 10), t.Title, status, string(t.Priority),
			orDash(t.Assignee), orDash(t.DueDate), strings.Join(t.Tags, ","),
		})
	}
	return rows
}

var taskHeaders = []string{"ID", "Title", "Status", "Priority", "Assignee", "Due", "Tags"}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

func inWorkspace(tasks []models.Task, id string) []models.Task {
	out := tasks[:0]
	for _, t := range tasks {
		if t.WorkspaceID == id {
			out = append(out, t)
		}
	}
	return out
}

func newTaskListCmd() *cobra.Command {
	var workspace, status, assignee, search string
	cmd := &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List tasks in a workspace",
		RunE: withEnv(func(ctx context.Context, cmd *cobra.Command, e *env, args []string) error {
			ws, err := workspaceOrSelected(e, workspace)
			if err != nil {
				return err
			}
			for k, v := range map[string]string{
				store.FilterStatus:   status,
				store.FilterAssignee: assignee,
				store.FilterSearch:   search,
			} {
				if err := e.stores.Tasks.SetFilter(k, v); err != nil {
					return err
				}
			}
			tasks := inWorkspace(e.stores.Tasks.Filtered(), ws.ID)
			return e.printer.Print(tasks, taskHeaders, taskRows(e, tasks))
		}),
	}
	cmd.Flags().StringVarP(&workspace, "workspace", "w", "", "Workspace id or name (default: selected)")
	cmd.Flags().StringVarP(&status, "status", "s", "", "Only tasks in this column")
	cmd.Flags().StringVarP(&assignee, "assignee", "a", "", "Only tasks assigned to this person")
	cmd.Flags().StringVarP(&search, "search", "q", "", "Match title or description")
	return cmd
}

// taskFlags are the fields shared by add and update
type taskFlags struct {
	desc, due, priority, status, assignee, color string
	tags                                         []string
}

func (f *taskFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&f.desc, "description", "d", "", "Description")
	cmd.Flags().StringVar(&f.due, "due", "", "Due date (YYYY-MM-DD)")
	cmd.Flags().StringVarP(&f.priority, "priority", "p", "", "low, medium or high")
	cmd.Flags().StringVarP(&f.status, "status", "s", "", "Board column id")
	cmd.Flags().StringVarP(&f.assignee, "assignee", "a", "", "Assignee name")
	cmd.Flags().StringVar(&f.color, "color", "", "Card color")
	cmd.Flags().StringSliceVarP(&f.tags, "tag", "t", nil, "Tag (repeatable)")
}

func newTaskAddCmd() *cobra.Command {
	var workspace string
	var f taskFlags
	cmd := &cobra.Command{
		Use:   "add <title>",
		Short: "Add a task to a workspace",
		Args:  cobra.ExactArgs(1),
		RunE: withEnv(func(ctx context.Context, cmd *cobra.Command, e *env, args []string) error {
			ws, err := workspaceOrSelected(e, workspace)
			if err != nil {
				return err
			}
			createdBy := ""
			if u := e.stores.Auth.User(); u != nil {
				createdBy = u.Name
			}
			t, err := e.stores.Tasks.Add(models.Task{
				Title:       args[0],
				Description: f.desc,
				DueDate:     f.due,
				Priority:    models.Priority(f.priority),
				Status:      f.status,
				Assignee:    f.assignee,
				Tags:        f.tags,
				Color:       f.color,
				CreatedBy:   createdBy,
				WorkspaceID: ws.ID,
			})
			if err != nil {
				return err
			}
			return e.printer.Message(t, "Added task %d to %s", t.ID, ws.Name)
		}),
	}
	cmd.Flags().StringVarP(&workspace, "workspace", "w", "", "Workspace id or name (default: selected)")
	f.register(cmd)
	return cmd
}

func newTaskUpdateCmd() *cobra.Command {
	var title string
	var f taskFlags
	cmd := &cobra.Command{
		Use:   "update <id>",
		Short: "Change a task's fields",
		Args:  cobra.ExactArgs(1),
		RunE: withEnv(func(ctx context.Context, cmd *cobra.Command, e *env, args []string) error {
			id, err := parseTaskID(args[0])
			if err != nil {
				return err
			}
			var patch store.TaskPatch
			flags := cmd.Flags()
			if flags.Changed("title") {
				patch.Title = &title
			}
			if flags.Changed("description") {
				patch.Description = &f.desc
			}
			if flags.Changed("due") {
				patch.DueDate = &f.due
			}
			if flags.Changed("priority") {
				p := models.Priority(f.priority)
				patch.Priority = &p
			}
			if flags.Changed("status") {
				patch.Status = &f.status
			}
			if flags.Changed("assignee") {
				patch.Assignee = &f.assignee
			}
			if flags.Changed("color") {
				patch.Color = &f.color
			}
			if flags.Changed("tag") {
				patch.Tags = f.tags
			}
			if err := e.stores.Tasks.Update(id, patch); err != nil {
				return err
			}
			t, _ := e.stores.Tasks.Get(id)
			return e.printer.Message(t, "Updated task %d", id)
		}),
	}
	cmd.Flags().StringVar(&title, "title", "", "New title")
	f.register(cmd)
	return cmd
}

func newTaskMoveCmd() *cobra.Command {
	var status string
	cmd := &cobra.Command{
		Use:   "move <id> [YYYY-MM-DD]",
		Short: "Reschedule a task or move it to another column",
		Args:  cobra.RangeArgs(1, 2),
		RunE: withEnv(func(ctx context.Context, cmd *cobra.Command, e *env, args []string) error {
			id, err := parseTaskID(args[0])
			if err != nil {
				return err
			}
			if len(args) == 1 && status == "" {
				return errors.InvalidInput("give a due date or --status")
			}
			if len(args) == 2 {
				if err := e.stores.Tasks.Move(id, args[1]); err != nil {
					return err
				}
			}
			if status != "" {
				if err := e.stores.Tasks.SetStatus(id, status); err != nil {
					return err
				}
			}
			t, _ := e.stores.Tasks.Get(id)
			return e.printer.Message(t, "Task %d: %s, due %s", t.ID, t.Status, orDash(t.DueDate))
		}),
	}
	cmd.Flags().StringVarP(&status, "status", "s", "", "Target board column id")
	return cmd
}

func newTaskDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "delete <id>",
		Aliases: []string{"rm"},
		Short:   "Delete a task",
		Args:    cobra.ExactArgs(1),
		RunE: withEnv(func(ctx context.Context, cmd *cobra.Command, e *env, args []string) error {
			id, err := parseTaskID(args[0])
			if err != nil {
				return err
			}
			t, ok := e.stores.Tasks.Get(id)
			if !ok {
				return errors.New(errors.ErrCodeNotFound, "task not found").WithDetail("id", id)
			}
			if err := e.stores.Tasks.Delete(id); err != nil {
				return err
			}
			return e.printer.Message(t, "Deleted task %d %q", t.ID, t.Title)
		}),
	}
}

// newTaskDueCmd lists tasks across every workspace selected by a due-date window
func newTaskDueCmd(use, short string, pick func(*store.TaskStore) []models.Task) *cobra.Command {
	return &cobra.Command{
		Use:   use,
		Short: short,
		RunE: withEnv(func(ctx context.Context, cmd *cobra.Command, e *env, args []string) error {
			tasks := pick(e.stores.Tasks)
			return e.printer.Print(tasks, taskHeaders, taskRows(e, tasks))
		}),
	}
}

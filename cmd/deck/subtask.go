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

func lookupTask(e *env, arg string) (models.Task, error) {
	id, err := parseTaskID(arg)
	if err != nil {
		return models.Task{}, err
	}
	t, ok := e.stores.Tasks.Get(id)
	if !ok {
		return models.Task{}, errors.New(errors.ErrCodeNotFound, "task not found").WithDetail("id", id)
	}
	return t, nil
}

func newTaskSubtaskCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "subtask",
		Aliases: []string{"sub"},
		Short:   "Manage a task's subtask checklist",
	}
	cmd.AddCommand(newSubtaskListCmd(), newSubtaskAddCmd(), newSubtaskRemoveCmd(), newSubtaskToggleCmd())
	return cmd
}

var subtaskHeaders = []string{"ID", "DONE", "TITLE", "ASSIGNEE", "DUE"}

func subtaskRows(subs []models.Subtask) [][]string {
	var rows [][]string
	for _, st := range subs {
		done := ""
		if st.Completed {
			done = "x"
		}
		rows = append(rows, []string{strconv.FormatInt(st.ID, 10), done, st.Title, orDash(st.Assignee), orDash(st.DueDate)})
	}
	return rows
}

func newSubtaskListCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "list <task-id>",
		Aliases: []string{"ls"},
		Short:   "List a task's subtasks",
		Args:    cobra.ExactArgs(1),
		RunE: withEnv(func(ctx context.Context, cmd *cobra.Command, e *env, args []string) error {
			t, err := lookupTask(e, args[0])
			if err != nil {
				return err
			}
			return e.printer.Print(t.Subtasks, subtaskHeaders, subtaskRows(t.Subtasks))
		}),
	}
}

func newSubtaskAddCmd() *cobra.Command {
	var assignee string
	cmd := &cobra.Command{
		Use:   "add <task-id> <title>",
		Short: "Append a subtask",
		Args:  cobra.MinimumNArgs(2),
		RunE: withEnv(func(ctx context.Context, cmd *cobra.Command, e *env, args []string) error {
			t, err := lookupTask(e, args[0])
			if err != nil {
				return err
			}
			title := strings.TrimSpace(strings.Join(args[1:], " "))
			if title == "" {
				return errors.InvalidInput("subtask title is required")
			}
			subs := append(t.Subtasks, models.Subtask{
				Title:    title,
				Status:   models.StatusTodo,
				Assignee: assignee,
				Priority: models.PriorityMedium,
				Tags:     []string{},
			})
			if err := e.stores.Tasks.Update(t.ID, store.TaskPatch{Subtasks: subs}); err != nil {
				return err
			}
			t, _ = e.stores.Tasks.Get(t.ID)
			added := t.Subtasks[len(t.Subtasks)-1]
			return e.printer.Message(added, "Added subtask %d %q to task %d", added.ID, added.Title, t.ID)
		}),
	}
	cmd.Flags().StringVarP(&assignee, "assignee", "a", "", "Who owns the subtask")
	return cmd
}

func findSubtask(t models.Task, arg string) (int, error) {
	id, err := strconv.ParseInt(arg, 10, 64)
	if err != nil {
		return 0, errors.InvalidInput("subtask id must be a number").WithDetail("id", arg)
	}
	for i, st := range t.Subtasks {
		if st.ID == id {
			return i, nil
		}
	}
	return 0, errors.New(errors.ErrCodeNotFound, "subtask not found").WithDetail("id", id)
}

func newSubtaskRemoveCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "rm <task-id> <subtask-id>",
		Aliases: []string{"delete"},
		Short:   "Remove a subtask",
		Args:    cobra.ExactArgs(2),
		RunE: withEnv(func(ctx context.Context, cmd *cobra.Command, e *env, args []string) error {
			t, err := lookupTask(e, args[0])
			if err != nil {
				return err
			}
			i, err := findSubtask(t, args[1])
			if err != nil {
				return err
			}
			removed := t.Subtasks[i]
			subs := append(append([]models.Subtask{}, t.Subtasks[:i]...), t.Subtasks[i+1:]...)
			if err := e.stores.Tasks.Update(t.ID, store.TaskPatch{Subtasks: subs}); err != nil {
				return err
			}
			return e.printer.Message(removed, "Removed subtask %d %q", removed.ID, removed.Title)
		}),
	}
}

func newSubtaskToggleCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "toggle <task-id> <subtask-id>",
		Short: "Flip a subtask between open and done",
		Args:  cobra.ExactArgs(2),
		RunE: withEnv(func(ctx context.Context, cmd *cobra.Command, e *env, args []string) error {
			t, err := lookupTask(e, args[0])
			if err != nil {
				return err
			}
			i, err := findSubtask(t, args[1])
			if err != nil {
				return err
			}
			subs := append([]models.Subtask{}, t.Subtasks...)
			subs[i].Completed = !subs[i].Completed
			if err := e.stores.Tasks.Update(t.ID, store.TaskPatch{Subtasks: subs}); err != nil {
				return err
			}
			state := "open"
			if subs[i].Completed {
				state = "done"
			}
			return e.printer.Message(subs[i], "Subtask %d is %s", subs[i].ID, state)
		}),
	}
}

func newTaskCommentCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "comment",
		Short: "Read and write a task's comments",
	}
	cmd.AddCommand(newCommentListCmd(), newCommentAddCmd(), newCommentRemoveCmd())
	return cmd
}

func newCommentListCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "list <task-id>",
		Aliases: []string{"ls"},
		Short:   "Show a task's comments, oldest first",
		Args:    cobra.ExactArgs(1),
		RunE: withEnv(func(ctx context.Context, cmd *cobra.Command, e *env, args []string) error {
			t, err := lookupTask(e, args[0])
			if err != nil {
				return err
			}
			comments, err := e.stores.Comments.Comments(t.ID)
			if err != nil {
				return err
			}
			var rows [][]string
			for _, c := range comments {
				rows = append(rows, []string{
					strconv.FormatInt(c.ID, 10), c.Author, c.CreatedAt.Local().Format("2006-01-02 15:04"), c.Content,
				})
			}
			return e.printer.Print(comments, []string{"ID", "AUTHOR", "AT", "COMMENT"}, rows)
		}),
	}
}

func newCommentAddCmd() *cobra.Command {
	var author string
	cmd := &cobra.Command{
		Use:   "add <task-id> <text>",
		Short: "Comment on a task",
		Args:  cobra.MinimumNArgs(2),
		RunE: withEnv(func(ctx context.Context, cmd *cobra.Command, e *env, args []string) error {
			t, err := lookupTask(e, args[0])
			if err != nil {
				return err
			}
			if author == "" {
				if u := e.stores.Auth.User(); u != nil {
					author = u.Name
				}
			}
			c, err := e.stores.Comments.Add(t.ID, strings.Join(args[1:], " "), author)
			if err != nil {
				return err
			}
			return e.printer.Message(c, "Comment %d added to task %d", c.ID, t.ID)
		}),
	}
	cmd.Flags().StringVar(&author, "author", "", "Sign the comment (default: signed-in user, else \""+store.DefaultCommentAuthor+"\")")
	return cmd
}

func newCommentRemoveCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "rm <comment-id>",
		Aliases: []string{"delete"},
		Short:   "Delete a comment",
		Args:    cobra.ExactArgs(1),
		RunE: withEnv(func(ctx context.Context, cmd *cobra.Command, e *env, args []string) error {
			id, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return errors.InvalidInput("comment id must be a number").WithDetail("id", args[0])
			}
			if err := e.stores.Comments.Delete(id); err != nil {
				return err
			}
			return e.printer.Message(map[string]int64{"id": id}, "Deleted comment %d", id)
		}),
	}
}

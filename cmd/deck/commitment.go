package main

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/tgienger/deck/internal/errors"
	"github.com/tgienger/deck/internal/models"
	"github.com/tgienger/deck/internal/report"
	"github.com/tgienger/deck/internal/store"
	"github.com/tgienger/deck/internal/ui/views"
)

func newCommitmentCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "commitment",
		Aliases: []string{"cm"},
		Short:   "Manage commitments on the server",
	}
	cmd.AddCommand(
		newCommitmentListCmd(),
		newCommitmentCreateCmd(),
		newCommitmentUpdateCmd(),
		newCommitmentCompleteCmd(),
		newCommitmentArchiveCmd(),
		newCommitmentDeleteCmd(),
		newCommitmentReportCmd(),
		newCommitmentExportCmd(),
		newCommitmentWatchCmd(),
	)
	return cmd
}

// parseTab accepts a tab name in any case, with dashes or spaces, e.g. "due-today"
func parseTab(s string) (store.Tab, error) {
	norm := func(v string) string {
		return strings.NewReplacer(" ", "", "-", "", "_", "").Replace(strings.ToLower(v))
	}
	for _, t := range store.Tabs() {
		if norm(string(t)) == norm(s) {
			return t, nil
		}
	}
	names := make([]string, 0, len(store.Tabs()))
	for _, t := range store.Tabs() {
		names = append(names, string(t))
	}
	return "", errors.InvalidInput("unknown tab; use one of: "+strings.Join(names, ", ")).WithDetail("tab", s)
}

func parseDue(s string) (time.Time, error) {
	due, err := time.ParseInLocation(views.DueLayout, strings.TrimSpace(s), time.Local)
	if err != nil {
		return time.Time{}, errors.InvalidInput("due must be YYYY-MM-DD HH:MM").WithDetail("due", s)
	}
	return due, nil
}

func parseCommitmentPriority(s string) (models.CommitmentPriority, error) {
	for _, p := range []models.CommitmentPriority{models.CommitmentLow, models.CommitmentMedium, models.CommitmentHigh} {
		if strings.EqualFold(string(p), s) {
			return p, nil
		}
	}
	return "", errors.InvalidInput("priority must be Low, Medium or High").WithDetail("priority", s)
}

func commitmentRows(items []models.Commitment, now time.Time) [][]string {
	rows := make([][]string, 0, len(items))
	for _, c := range items {
		assignee := "-"
		if c.Assignee != nil {
			assignee = c.Assignee.Name
		}
		remaining := views.TimeRemaining(c.DueDate, now)
		if c.Status == models.CommitmentCompleted {
			remaining = "done"
		}
		rows = append(rows, []string{
			c.ID, c.Title, string(c.Priority), string(c.Status),
			c.DueDate.Local().Format(views.DueLayout), remaining, assignee,
		})
	}
	return rows
}

var commitmentHeaders = []string{"ID", "Title", "Priority", "Status", "Due", "Remaining", "Assignee"}

func newCommitmentListCmd() *cobra.Command {
	var tab string
	cmd := &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List commitments on a dashboard tab",
		RunE: withSession(func(ctx context.Context, cmd *cobra.Command, e *env, args []string) error {
			t, err := parseTab(tab)
			if err != nil {
				return err
			}
			if err := e.stores.Commitments.Fetch(ctx, t); err != nil {
				return err
			}
			items := e.stores.Commitments.Items()
			return e.printer.Print(items, commitmentHeaders, commitmentRows(items, time.Now()))
		}),
	}
	cmd.Flags().StringVarP(&tab, "tab", "t", string(store.TabAll), "All, Upcoming, Due Today, Completed or Archived")
	return cmd
}

// commitmentFlags are the fields shared by create and update
type commitmentFlags struct {
	desc, due, priority, status, assignee, linkedTask string
}

func (f *commitmentFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&f.desc, "description", "d", "", "Description")
	cmd.Flags().StringVar(&f.due, "due", "", "Due time (YYYY-MM-DD HH:MM, local)")
	cmd.Flags().StringVarP(&f.priority, "priority", "p", "", "Low, Medium or High")
	cmd.Flags().StringVarP(&f.assignee, "assignee", "a", "", "Assignee user id")
	cmd.Flags().StringVar(&f.linkedTask, "task", "", "Linked task id")
}

// input builds the payload from the flags the user set
func (f *commitmentFlags) input(cmd *cobra.Command) (models.CommitmentInput, error) {
	var in models.CommitmentInput
	flags := cmd.Flags()
	if flags.Changed("description") {
		in.Description = &f.desc
	}
	if flags.Changed("due") {
		due, err := parseDue(f.due)
		if err != nil {
			return in, err
		}
		in.DueDate = &due
	}
	if flags.Changed("priority") {
		p, err := parseCommitmentPriority(f.priority)
		if err != nil {
			return in, err
		}
		in.Priority = &p
	}
	if flags.Changed("assignee") {
		in.AssigneeID = &f.assignee
	}
	if flags.Changed("task") {
		in.LinkedTaskID = &f.linkedTask
	}
	if flags.Lookup("status") != nil && flags.Changed("status") {
		st := models.CommitmentStatus(f.status)
		switch st {
		case models.CommitmentNotStarted, models.CommitmentInProgress, models.CommitmentCompleted:
		default:
			return in, errors.InvalidInput("status must be Not Started, In Progress or Completed").WithDetail("status", f.status)
		}
		in.Status = &st
	}
	return in, nil
}

func newCommitmentCreateCmd() *cobra.Command {
	var f commitmentFlags
	cmd := &cobra.Command{
		Use:   "create <title>",
		Short: "Create a commitment",
		Args:  cobra.ExactArgs(1),
		RunE: withSession(func(ctx context.Context, cmd *cobra.Command, e *env, args []string) error {
			in, err := f.input(cmd)
			if err != nil {
				return err
			}
			title := strings.TrimSpace(args[0])
			if title == "" {
				return errors.InvalidInput("title is required")
			}
			if in.DueDate == nil {
				return errors.InvalidInput("--due is required")
			}
			in.Title = &title
			c, err := e.stores.Commitments.Create(ctx, in)
			if err != nil {
				return err
			}
			return e.printer.Message(c, "Created commitment %s %q", c.ID, c.Title)
		}),
	}
	f.register(cmd)
	return cmd
}

func newCommitmentUpdateCmd() *cobra.Command {
	var title string
	var f commitmentFlags
	cmd := &cobra.Command{
		Use:   "update <id>",
		Short: "Change a commitment's fields",
		Args:  cobra.ExactArgs(1),
		RunE: withSession(func(ctx context.Context, cmd *cobra.Command, e *env, args []string) error {
			in, err := f.input(cmd)
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("title") {
				in.Title = &title
			}
			c, err := e.stores.Commitments.Update(ctx, args[0], in)
			if err != nil {
				return err
			}
			return e.printer.Message(c, "Updated commitment %s", c.ID)
		}),
	}
	cmd.Flags().StringVar(&title, "title", "", "New title")
	cmd.Flags().StringVarP(&f.status, "status", "s", "", "Not Started, In Progress or Completed")
	f.register(cmd)
	return cmd
}

func newCommitmentCompleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "complete <id>",
		Short: "Mark a commitment completed",
		Args:  cobra.ExactArgs(1),
		RunE: withSession(func(ctx context.Context, cmd *cobra.Command, e *env, args []string) error {
			c, err := e.stores.Commitments.Complete(ctx, args[0])
			if err != nil {
				return err
			}
			return e.printer.Message(c, "Completed %q", c.Title)
		}),
	}
}

func newCommitmentArchiveCmd() *cobra.Command {
	var undo bool
	cmd := &cobra.Command{
		Use:   "archive <id>",
		Short: "Archive a commitment, or bring it back with --undo",
		Args:  cobra.ExactArgs(1),
		RunE: withSession(func(ctx context.Context, cmd *cobra.Command, e *env, args []string) error {
			c, err := e.stores.Commitments.Archive(ctx, args[0], !undo)
			if err != nil {
				return err
			}
			verb := "Archived"
			if undo {
				verb = "Unarchived"
			}
			return e.printer.Message(c, "%s %q", verb, c.Title)
		}),
	}
	cmd.Flags().BoolVar(&undo, "undo", false, "Unarchive instead")
	return cmd
}

func newCommitmentDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "delete <id>",
		Aliases: []string{"rm"},
		Short:   "Delete a commitment",
		Args:    cobra.ExactArgs(1),
		RunE: withSession(func(ctx context.Context, cmd *cobra.Command, e *env, args []string) error {
			if err := e.stores.Commitments.Delete(ctx, args[0]); err != nil {
				return err
			}
			return e.printer.Message(map[string]string{"deleted": args[0]}, "Deleted commitment %s", args[0])
		}),
	}
}

func defaultReportName(now time.Time) string {
	return fmt.Sprintf("commitments-%s.xlsx", now.Format("20060102-150405"))
}

func writeReport(path string, data []byte) error {
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return errors.Wrap(err, errors.ErrCodeStorage, "failed to write report").WithDetail("path", path)
	}
	return nil
}

func newCommitmentReportCmd() *cobra.Command {
	var tab, output string
	cmd := &cobra.Command{
		Use:   "report",
		Short: "Download the server's xlsx report for a tab",
		RunE: withSession(func(ctx context.Context, cmd *cobra.Command, e *env, args []string) error {
			t, err := parseTab(tab)
			if err != nil {
				return err
			}
			data, err := e.stores.Commitments.Report(ctx, t.Filter().Values())
			if err != nil {
				return err
			}
			if output == "" {
				output = defaultReportName(time.Now())
			}
			if err := writeReport(output, data); err != nil {
				return err
			}
			return e.printer.Message(map[string]string{"path": output}, "Saved report to %s", output)
		}),
	}
	cmd.Flags().StringVarP(&tab, "tab", "t", string(store.TabAll), "Tab to report on")
	cmd.Flags().StringVarP(&output, "output", "o", "", "Output file (default commitments-<time>.xlsx)")
	return cmd
}

func newCommitmentExportCmd() *cobra.Command {
	var tab, output string
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Build an xlsx workbook locally from a tab's commitments",
		RunE: withSession(func(ctx context.Context, cmd *cobra.Command, e *env, args []string) error {
			t, err := parseTab(tab)
			if err != nil {
				return err
			}
			if err := e.stores.Commitments.Fetch(ctx, t); err != nil {
				return err
			}
			now := time.Now()
			if output == "" {
				output = defaultReportName(now)
			}
			f, err := os.Create(output)
			if err != nil {
				return errors.Wrap(err, errors.ErrCodeStorage, "failed to create report").WithDetail("path", output)
			}
			defer f.Close()
			items := e.stores.Commitments.Items()
			if err := report.WriteCommitments(f, items, now); err != nil {
				return errors.Wrap(err, errors.ErrCodeStorage, "failed to write report").WithDetail("path", output)
			}
			return e.printer.Message(map[string]interface{}{"path": output, "rows": len(items)},
				"Wrote %d commitments to %s", len(items), output)
		}),
	}
	cmd.Flags().StringVarP(&tab, "tab", "t", string(store.TabAll), "Tab to export")
	cmd.Flags().StringVarP(&output, "output", "o", "", "Output file (default commitments-<time>.xlsx)")
	return cmd
}

func newCommitmentWatchCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "watch",
		Short: "Print commitment changes as they are pushed",
		RunE: withSession(func(ctx context.Context, cmd *cobra.Command, e *env, args []string) error {
			out := cmd.OutOrStdout()
			l, err := e.listener(func(event models.CommitmentEvent, c models.Commitment) {
				if e.printer.Structured() {
					_ = e.printer.Print(map[string]interface{}{"event": event, "commitment": c}, nil, nil)
					return
				}
				fmt.Fprintf(out, "%s  %-9s %s %q\n", time.Now().Format(time.TimeOnly), event, c.ID, c.Title)
			})
			if err != nil {
				return err
			}

			if err := l.Open(ctx); err != nil {
				return err
			}
			defer l.Close()
			if !e.printer.Structured() {
				fmt.Fprintln(cmd.ErrOrStderr(), "Watching for commitment changes (ctrl+c to stop)")
			}

			select {
			case <-ctx.Done():
				return nil
			case <-l.Done():
				return errors.New(errors.ErrCodeNetwork, "push channel closed by server")
			}
		}),
	}
}

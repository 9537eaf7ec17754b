package main

import (
	"context"
	"strconv"

	"github.com/spf13/cobra"
	"github.com/tgienger/deck/internal/models"
	"github.com/tgienger/deck/internal/ui/views"
)

func newDashboardCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "dashboard",
		Short: "Show dashboard metrics and meetings",
	}
	cmd.AddCommand(newDashboardMetricsCmd(), newDashboardMeetingsCmd(), newDashboardScheduleCmd())
	return cmd
}

func newDashboardMetricsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "metrics",
		Short: "Show task and team counts",
		RunE: withSession(func(ctx context.Context, cmd *cobra.Command, e *env, args []string) error {
			if err := e.stores.Dashboard.FetchMetrics(ctx); err != nil {
				return err
			}
			m := e.stores.Dashboard.Metrics()
			rows := [][]string{
				{"Completed tasks", strconv.Itoa(m.CompletedTasks)},
				{"In progress", strconv.Itoa(m.InProgressTasks)},
				{"Team members", strconv.Itoa(m.TeamMembers)},
				{"Active workspaces", strconv.Itoa(m.ActiveWorkspaces)},
				{"Total workspaces", strconv.Itoa(m.TotalWorkspaces)},
				{"Due today (local)", strconv.Itoa(len(e.stores.Tasks.DueToday()))},
				{"Upcoming (local)", strconv.Itoa(len(e.stores.Tasks.Upcoming()))},
			}
			return e.printer.Print(m, []string{"Metric", "Value"}, rows)
		}),
	}
}

func newDashboardMeetingsCmd() *cobra.Command {
	var cancel string
	cmd := &cobra.Command{
		Use:   "meetings",
		Short: "List upcoming meetings",
		RunE: withSession(func(ctx context.Context, cmd *cobra.Command, e *env, args []string) error {
			d := e.stores.Dashboard
			if cancel != "" {
				if err := d.DeleteMeeting(ctx, cancel); err != nil {
					return err
				}
			}
			if err := d.FetchMeetings(ctx); err != nil {
				return err
			}
			meetings := d.Meetings()
			rows := make([][]string, 0, len(meetings))
			for _, m := range meetings {
				recurring := ""
				if m.IsRecurring {
					recurring = m.RecurrenceRule
				}
				rows = append(rows, []string{m.ID, m.Title, m.DateTime.Local().Format(views.DueLayout), recurring, m.Link})
			}
			return e.printer.Print(meetings, []string{"ID", "Title", "When", "Repeats", "Link"}, rows)
		}),
	}
	cmd.Flags().StringVar(&cancel, "cancel", "", "Cancel the meeting with this id first")
	return cmd
}

func newDashboardScheduleCmd() *cobra.Command {
	var at, desc, link, rule string
	cmd := &cobra.Command{
		Use:   "schedule <title>",
		Short: "Schedule a meeting",
		Args:  cobra.ExactArgs(1),
		RunE: withSession(func(ctx context.Context, cmd *cobra.Command, e *env, args []string) error {
			when, err := parseDue(at)
			if err != nil {
				return err
			}
			m, err := e.stores.Dashboard.CreateMeeting(ctx, models.Meeting{
				Title:          args[0],
				Description:    desc,
				DateTime:       when,
				Link:           link,
				IsRecurring:    rule != "",
				RecurrenceRule: rule,
			})
			if err != nil {
				return err
			}
			return e.printer.Message(m, "Scheduled %q for %s", m.Title, m.DateTime.Local().Format(views.DueLayout))
		}),
	}
	cmd.Flags().StringVar(&at, "at", "", "Start time (YYYY-MM-DD HH:MM, local)")
	cmd.Flags().StringVarP(&desc, "description", "d", "", "Description")
	cmd.Flags().StringVar(&link, "link", "", "Meeting link")
	cmd.Flags().StringVar(&rule, "repeat", "", "Recurrence rule, e.g. FREQ=WEEKLY")
	_ = cmd.MarkFlagRequired("at")
	return cmd
}

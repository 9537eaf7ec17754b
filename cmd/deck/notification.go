package main

import (
	"context"
	"time"

	"github.com/spf13/cobra"
	"github.com/tgienger/deck/internal/models"
	"github.com/tgienger/deck/internal/store"
)

func newNotificationCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "notification",
		Aliases: []string{"notif", "n"},
		Short:   "Read and manage notifications",
	}
	cmd.AddCommand(
		newNotificationListCmd(),
		newNotificationMarkCmd("read", "Mark a notification read", (*store.NotificationStore).MarkRead),
		newNotificationMarkCmd("unread", "Mark a notification unread", (*store.NotificationStore).MarkUnread),
		newNotificationReadAllCmd(),
		newNotificationMarkCmd("delete", "Delete a notification", (*store.NotificationStore).Delete),
		newNotificationMarkCmd("restore", "Restore a deleted notification", (*store.NotificationStore).Restore),
	)
	return cmd
}

func notificationRows(items []models.Notification) [][]string {
	rows := make([][]string, 0, len(items))
	for _, n := range items {
		read := "●"
		if n.IsRead {
			read = ""
		}
		link := n.Link
		if n.Link != "" && !n.LinkUsable() {
			link = "(expired)"
		}
		rows = append(rows, []string{
			read, n.ID, string(n.Type), string(store.NotificationPriority(n.Type)),
			n.Message, n.CreatedAt.Local().Format(time.DateTime), link,
		})
	}
	return rows
}

func newNotificationListCmd() *cobra.Command {
	var unreadOnly bool
	cmd := &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List the newest notifications",
		RunE: withSession(func(ctx context.Context, cmd *cobra.Command, e *env, args []string) error {
			if err := e.stores.Notifications.Fetch(ctx); err != nil {
				return err
			}
			items := e.stores.Notifications.Items()
			if unreadOnly {
				unread := items[:0]
				for _, n := range items {
					if !n.IsRead {
						unread = append(unread, n)
					}
				}
				items = unread
			}
			return e.printer.Print(items,
				[]string{"", "ID", "Type", "Priority", "Message", "Created", "Link"}, notificationRows(items))
		}),
	}
	cmd.Flags().BoolVarP(&unreadOnly, "unread", "u", false, "Only unread notifications")
	return cmd
}

// newNotificationMarkCmd wraps a single-notification store call. The list is fetched first so
// the store knows the row it changes.
func newNotificationMarkCmd(use, short string, op func(*store.NotificationStore, context.Context, string) error) *cobra.Command {
	return &cobra.Command{
		Use:   use + " <id>",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: withSession(func(ctx context.Context, cmd *cobra.Command, e *env, args []string) error {
			ns := e.stores.Notifications
			if err := ns.Fetch(ctx); err != nil {
				return err
			}
			if err := op(ns, ctx, args[0]); err != nil {
				return err
			}
			return e.printer.Message(map[string]interface{}{"id": args[0], "action": use, "unread": ns.UnreadCount()},
				"Done (%d unread)", ns.UnreadCount())
		}),
	}
}

func newNotificationReadAllCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "read-all",
		Short: "Mark every notification read",
		RunE: withSession(func(ctx context.Context, cmd *cobra.Command, e *env, args []string) error {
			if err := e.stores.Notifications.MarkAllRead(ctx); err != nil {
				return err
			}
			return e.printer.Message(map[string]int{"unread": 0}, "All notifications marked read")
		}),
	}
}

package main

import (
	"context"
	"strconv"

	"github.com/spf13/cobra"
)

func newColumnCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "column",
		Short: "Inspect and rename board columns",
	}
	cmd.AddCommand(newColumnListCmd(), newColumnRenameCmd())
	return cmd
}

func newColumnListCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List board columns with their task counts",
		RunE: withEnv(func(ctx context.Context, cmd *cobra.Command, e *env, args []string) error {
			cols := e.stores.Board.Columns()
			tasks := e.stores.Tasks.Tasks()
			if ws := e.stores.Workspaces.Selected(); ws != nil {
				tasks = inWorkspace(tasks, ws.ID)
			}
			buckets, _ := e.stores.Board.Buckets(tasks)
			rows := make([][]string, 0, len(cols))
			for _, c := range cols {
				rows = append(rows, []string{c.ID, c.Title, c.Color, strconv.Itoa(len(buckets[c.ID]))})
			}
			return e.printer.Print(cols, []string{"ID", "Title", "Color", "Tasks"}, rows)
		}),
	}
}

func newColumnRenameCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "rename <id> <title>",
		Short: "Change a column's title",
		Args:  cobra.ExactArgs(2),
		RunE: withEnv(func(ctx context.Context, cmd *cobra.Command, e *env, args []string) error {
			if err := e.stores.Board.RenameColumn(args[0], args[1]); err != nil {
				return err
			}
			return e.printer.Message(e.stores.Board.Columns(), "Renamed column %s to %q", args[0], args[1])
		}),
	}
}

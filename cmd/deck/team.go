package main

import (
	"context"
	"strings"

	"github.com/spf13/cobra"
)

func newTeamCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "team",
		Short: "Show and edit teams",
	}
	cmd.AddCommand(newTeamListCmd(), newTeamRenameCmd(), newTeamMemberCmd())
	return cmd
}

func newTeamListCmd() *cobra.Command {
	var offline bool
	cmd := &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List teams and their members",
		RunE: withEnv(func(ctx context.Context, cmd *cobra.Command, e *env, args []string) error {
			if !offline {
				if err := e.requireAuth(); err != nil {
					return err
				}
				if err := e.stores.Teams.Fetch(ctx); err != nil {
					return err
				}
			}
			teams := e.stores.Teams.Teams()
			var rows [][]string
			for _, t := range teams {
				if len(t.Members) == 0 {
					rows = append(rows, []string{t.ID, t.Name, "", "", ""})
				}
				for i, m := range t.Members {
					id, name := t.ID, t.Name
					if i > 0 {
						id, name = "", ""
					}
					rows = append(rows, []string{id, name, m.ID, m.Name, m.Role})
				}
			}
			return e.printer.Print(teams, []string{"Team", "Name", "Member", "Member Name", "Role"}, rows)
		}),
	}
	cmd.Flags().BoolVar(&offline, "offline", false, "Show the last fetched teams without contacting the server")
	return cmd
}

func newTeamRenameCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "rename <team-id> <name>",
		Short: "Rename a team",
		Args:  cobra.ExactArgs(2),
		RunE: withSession(func(ctx context.Context, cmd *cobra.Command, e *env, args []string) error {
			if err := e.stores.Teams.Fetch(ctx); err != nil {
				return err
			}
			if err := e.stores.Teams.Rename(ctx, args[0], args[1]); err != nil {
				return err
			}
			return e.printer.Message(e.stores.Teams.Teams(), "Renamed team %s to %q", args[0], args[1])
		}),
	}
}

func newTeamMemberCmd() *cobra.Command {
	var name, role string
	cmd := &cobra.Command{
		Use:   "member <member-id>",
		Short: "Change a member's name or role",
		Args:  cobra.ExactArgs(1),
		RunE: withSession(func(ctx context.Context, cmd *cobra.Command, e *env, args []string) error {
			if err := e.stores.Teams.Fetch(ctx); err != nil {
				return err
			}
			// Unset flags keep the member's current value
			for _, t := range e.stores.Teams.Teams() {
				for _, m := range t.Members {
					if m.ID != args[0] {
						continue
					}
					if !cmd.Flags().Changed("name") {
						name = m.Name
					}
					if !cmd.Flags().Changed("role") {
						role = m.Role
					}
				}
			}
			if err := e.stores.Teams.UpdateMember(ctx, args[0], strings.TrimSpace(name), strings.TrimSpace(role)); err != nil {
				return err
			}
			return e.printer.Message(e.stores.Teams.Teams(), "Updated member %s", args[0])
		}),
	}
	cmd.Flags().StringVarP(&name, "name", "n", "", "Member name")
	cmd.Flags().StringVarP(&role, "role", "r", "", "Member role")
	return cmd
}

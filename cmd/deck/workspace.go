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

func newWorkspaceCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "workspace",
		Aliases: []string{"ws"},
		Short:   "Manage workspaces",
	}
	cmd.AddCommand(
		newWorkspaceListCmd(),
		newWorkspaceAddCmd(),
		newWorkspaceSelectCmd(),
		newWorkspaceUpdateCmd(),
		newWorkspaceDeleteCmd(),
		newWorkspacePullCmd(),
	)
	return cmd
}

// resolveWorkspace finds a workspace by id or, failing that, by case-insensitive name
func resolveWorkspace(e *env, ref string) (models.Workspace, error) {
	if ws, ok := e.stores.Workspaces.Get(ref); ok {
		return ws, nil
	}
	for _, ws := range e.stores.Workspaces.List() {
		if strings.EqualFold(ws.Name, ref) {
			return ws, nil
		}
	}
	return models.Workspace{}, errors.New(errors.ErrCodeNotFound, "workspace not found").WithDetail("workspace", ref)
}

// workspaceOrSelected resolves ref, falling back to the selected workspace
func workspaceOrSelected(e *env, ref string) (models.Workspace, error) {
	if ref != "" {
		return resolveWorkspace(e, ref)
	}
	if ws := e.stores.Workspaces.Selected(); ws != nil {
		return *ws, nil
	}
	return models.Workspace{}, errors.InvalidInput("no workspace selected; pass --workspace or run 'deck workspace select'")
}

func newWorkspaceListCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List workspaces",
		RunE: withEnv(func(ctx context.Context, cmd *cobra.Command, e *env, args []string) error {
			list := e.stores.Workspaces.List()
			selected := ""
			if ws := e.stores.Workspaces.Selected(); ws != nil {
				selected = ws.ID
			}
			rows := make([][]string, 0, len(list))
			for _, ws := range list {
				marker := ""
				if ws.ID == selected {
					marker = "*"
				}
				rows = append(rows, []string{
					marker, ws.ID, ws.Name,
					strconv.Itoa(len(e.stores.Tasks.ForWorkspace(ws.ID))),
					strings.Join(ws.Members, ", "), ws.Owner,
				})
			}
			return e.printer.Print(list, []string{"", "ID", "Name", "Tasks", "Members", "Owner"}, rows)
		}),
	}
}

func newWorkspaceAddCmd() *cobra.Command {
	var desc, owner string
	var members []string
	cmd := &cobra.Command{
		Use:   "add <name>",
		Short: "Create a workspace and select it",
		Args:  cobra.ExactArgs(1),
		RunE: withEnv(func(ctx context.Context, cmd *cobra.Command, e *env, args []string) error {
			ws, err := e.stores.Workspaces.Add(store.WorkspaceInput{
				Name:        args[0],
				Description: desc,
				Members:     members,
				Owner:       owner,
			})
			if err != nil {
				return err
			}
			return e.printer.Message(ws, "Created workspace %s (%s)", ws.Name, ws.ID)
		}),
	}
	cmd.Flags().StringVarP(&desc, "description", "d", "", "Description")
	cmd.Flags().StringSliceVarP(&members, "member", "m", nil, "Member name (repeatable)")
	cmd.Flags().StringVar(&owner, "owner", "", "Owner label")
	return cmd
}

func newWorkspaceSelectCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "select <id|name>",
		Short: "Make a workspace the active one",
		Args:  cobra.ExactArgs(1),
		RunE: withEnv(func(ctx context.Context, cmd *cobra.Command, e *env, args []string) error {
			ws, err := resolveWorkspace(e, args[0])
			if err != nil {
				return err
			}
			if err := e.stores.Workspaces.SelectID(ws.ID); err != nil {
				return err
			}
			return e.printer.Message(ws, "Selected workspace %s", ws.Name)
		}),
	}
}

func newWorkspaceUpdateCmd() *cobra.Command {
	var name, desc, owner string
	var members []string
	cmd := &cobra.Command{
		Use:   "update <id|name>",
		Short: "Change a workspace's fields",
		Args:  cobra.ExactArgs(1),
		RunE: withEnv(func(ctx context.Context, cmd *cobra.Command, e *env, args []string) error {
			ws, err := resolveWorkspace(e, args[0])
			if err != nil {
				return err
			}
			var patch store.WorkspacePatch
			flags := cmd.Flags()
			if flags.Changed("name") {
				patch.Name = &name
			}
			if flags.Changed("description") {
				patch.Description = &desc
			}
			if flags.Changed("owner") {
				patch.Owner = &owner
			}
			if flags.Changed("member") {
				patch.Members = members
			}
			if err := e.stores.Workspaces.Update(ws.ID, patch); err != nil {
				return err
			}
			updated, _ := e.stores.Workspaces.Get(ws.ID)
			return e.printer.Message(updated, "Updated workspace %s", updated.Name)
		}),
	}
	cmd.Flags().StringVarP(&name, "name", "n", "", "New name")
	cmd.Flags().StringVarP(&desc, "description", "d", "", "New description")
	cmd.Flags().StringSliceVarP(&members, "member", "m", nil, "Replace members (repeatable)")
	cmd.Flags().StringVar(&owner, "owner", "", "New owner label")
	return cmd
}

func newWorkspaceDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "delete <id|name>",
		Aliases: []string{"rm"},
		Short:   "Delete a workspace and its tasks",
		Args:    cobra.ExactArgs(1),
		RunE: withEnv(func(ctx context.Context, cmd *cobra.Command, e *env, args []string) error {
			ws, err := resolveWorkspace(e, args[0])
			if err != nil {
				return err
			}
			if err := e.stores.Workspaces.Delete(ws.ID); err != nil {
				return err
			}
			if err := e.stores.Tasks.DeleteWorkspace(ws.ID); err != nil {
				return err
			}
			return e.printer.Message(ws, "Deleted workspace %s", ws.Name)
		}),
	}
}

func newWorkspacePullCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "pull",
		Short: "Replace local workspaces with the server's list",
		RunE: withSession(func(ctx context.Context, cmd *cobra.Command, e *env, args []string) error {
			if err := e.stores.Workspaces.Pull(ctx, e.client); err != nil {
				return err
			}
			list := e.stores.Workspaces.List()
			return e.printer.Message(list, "Pulled %d workspaces", len(list))
		}),
	}
}

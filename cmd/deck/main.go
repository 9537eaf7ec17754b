package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
	"github.com/tgienger/deck/internal/cli"
	"github.com/tgienger/deck/internal/ui"
)

// Version information set via ldflags
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func newRootCmd() *cobra.Command {
	root := cli.NewStandardCommand("deck", "Workspaces, boards, commitments and notifications in the terminal")
	root.Long = `deck is a terminal client for the project dashboard service.

Run without a subcommand to open the interactive dashboard. Subcommands
expose the same stores for scripting; add --json or --yaml for
machine-readable output.`
	root.Version = version
	root.RunE = withEnv(runTUI)

	root.AddCommand(
		cli.NewVersionCommand("deck", cli.VersionInfo{Version: version, Commit: commit, BuildDate: date}),
		newLoginCmd(),
		newRegisterCmd(),
		newVerifyCmd(),
		newResendVerificationCmd(),
		newLogoutCmd(),
		newWhoamiCmd(),
		newWorkspaceCmd(),
		newTaskCmd(),
		newColumnCmd(),
		newCommitmentCmd(),
		newNotificationCmd(),
		newDashboardCmd(),
		newTeamCmd(),
		newDevServerCmd(),
	)
	return root
}

func runTUI(ctx context.Context, cmd *cobra.Command, e *env, args []string) error {
	listener, err := e.listener(nil)
	if err != nil {
		return err
	}
	// Live updates need a session; without one the dashboard still works offline
	if e.requireAuth() != nil {
		listener = nil
	}

	app := ui.NewApp(ctx, e.stores, listener)
	defer app.Close()

	p := tea.NewProgram(app, tea.WithAltScreen(), tea.WithContext(ctx))
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("error running application: %w", err)
	}
	return nil
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	root := newRootCmd()
	if err := root.ExecuteContext(ctx); err != nil {
		verbose, _ := root.PersistentFlags().GetBool("verbose")
		cli.NewErrorHandler(os.Stderr, verbose).Handle(err)
		stop()
		os.Exit(1)
	}
}

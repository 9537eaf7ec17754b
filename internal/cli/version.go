package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

// VersionInfo holds build information set via ldflags
type VersionInfo struct {
	Version   string
	Commit    string
	BuildDate string
}

// NewVersionCommand creates a standard version command
func NewVersionCommand(name string, info VersionInfo) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: fmt.Sprintf("Print the version number of %s", name),
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "%s %s (commit: %s, built: %s)\n", name, info.Version, info.Commit, info.BuildDate)
		},
	}
}

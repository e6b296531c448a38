package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"wpcompare/mcpserver"
)

var (
	// Version is the application version
	Version = mcpserver.Version
	// Commit is the git commit hash
	Commit = "unknown"
	// BuildDate is the build date
	BuildDate = "unknown"
)

// NewVersionCommand creates the version command
func NewVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "wpcompare version %s\n", Version)
			fmt.Fprintf(out, "  commit: %s\n", Commit)
			fmt.Fprintf(out, "  built:  %s\n", BuildDate)
		},
	}
}

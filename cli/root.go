package cli

import (
	"fmt"
	"os"

	"github.com/rohanthewiz/serr"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"wpcompare/config"
)

// GlobalFlags holds global flag values
type GlobalFlags struct {
	ConfigFile string
	Debug      bool
}

var globalFlags GlobalFlags

// NewRootCommand builds the wpcompare command tree.
// Without a subcommand it serves MCP over stdio.
func NewRootCommand() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "wpcompare",
		Short: "Compare local WordPress plugins with wordpress.org releases",
		Long: `wpcompare finds what changed between a WordPress plugin installed on disk
and the version published on wordpress.org.

It runs as an MCP server (stdio or streamable HTTP), as a small web app with
HTML reports, or directly from the command line.`,
		Version:           Version,
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: setup,
		RunE:              runServeStdio,
	}

	rootCmd.PersistentFlags().StringVar(&globalFlags.ConfigFile, "config", "",
		"config file (default is $WPCOMPARE_CONFIG or the user config dir)")
	rootCmd.PersistentFlags().BoolVar(&globalFlags.Debug, "debug", false, "debug logging")

	rootCmd.AddCommand(NewServeCommand())
	rootCmd.AddCommand(NewServeHTTPCommand())
	rootCmd.AddCommand(NewSearchCommand())
	rootCmd.AddCommand(NewInfoCommand())
	rootCmd.AddCommand(NewDownloadCommand())
	rootCmd.AddCommand(NewCompareCommand())
	rootCmd.AddCommand(NewCheckCommand())
	rootCmd.AddCommand(NewCacheCommand())
	rootCmd.AddCommand(NewVersionCommand())
	return rootCmd
}

// Execute runs the CLI and exits non-zero on error
func Execute() {
	if err := NewRootCommand().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// setup loads configuration and points logging at stderr, which keeps
// stdout clean for the stdio transport and for machine-readable output.
func setup(cmd *cobra.Command, args []string) error {
	var cfg *config.Config
	if globalFlags.ConfigFile != "" {
		if _, err := os.Stat(globalFlags.ConfigFile); err != nil {
			return serr.F("config file not readable: %v", err)
		}
		loaded, err := config.Load(globalFlags.ConfigFile)
		if err != nil {
			return err
		}
		config.Set(loaded)
		cfg = loaded
	} else {
		if err := config.Initialize(); err != nil {
			return err
		}
		cfg = config.Get()
	}
	if globalFlags.Debug {
		cfg.Debug = true
	}

	logrus.SetOutput(os.Stderr)
	if cfg.Debug {
		logrus.SetLevel(logrus.DebugLevel)
	} else {
		logrus.SetLevel(logrus.InfoLevel)
	}
	return nil
}

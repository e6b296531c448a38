package cli

import (
	"context"
	"encoding/json"

	"github.com/rohanthewiz/serr"
	"github.com/spf13/cobra"

	"wpcompare/compare"
	"wpcompare/config"
	"wpcompare/tools"
)

// CompareFlags holds the compare command flags
type CompareFlags struct {
	Slug    string
	Version string
	Remote  string
	Output  string
	NoDiffs bool
}

// NewCompareCommand creates the compare command
func NewCompareCommand() *cobra.Command {
	var flags CompareFlags

	cmd := &cobra.Command{
		Use:   "compare <plugin-dir>",
		Short: "Compare a local plugin with its wordpress.org release",
		Long: `Compare a local plugin directory with the version published on wordpress.org,
or with another directory given by --remote.

The published version defaults to the Version in the local plugin header,
falling back to the latest release when that version was never published.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := validateFormat(flags.Output); err != nil {
				return err
			}
			a := newApp(config.Get())
			pc, err := runCompare(cmd.Context(), a.registry(), args[0], flags)
			if err != nil {
				return err
			}
			return writeComparison(cmd.OutOrStdout(), flags.Output, pc, !flags.NoDiffs)
		},
	}

	cmd.Flags().StringVar(&flags.Slug, "slug", "", "wordpress.org slug (default guessed from the plugin)")
	cmd.Flags().StringVar(&flags.Version, "version", "", "published version to compare against")
	cmd.Flags().StringVar(&flags.Remote, "remote", "", "compare against this directory instead of downloading")
	cmd.Flags().StringVarP(&flags.Output, "output", "o", FormatText, "output format (text, json, yaml)")
	cmd.Flags().BoolVar(&flags.NoDiffs, "no-diffs", false, "omit unified diffs")
	return cmd
}

// runCompare runs wp_plugin_compare and decodes its JSON result
func runCompare(ctx context.Context, registry *tools.EnhancedRegistry, localPath string, flags CompareFlags) (*compare.PluginComparison, error) {
	input := map[string]interface{}{
		"local_path": localPath,
		"format":     "json",
	}
	for key, val := range map[string]string{
		"slug":        flags.Slug,
		"version":     flags.Version,
		"remote_path": flags.Remote,
	} {
		if val != "" {
			input[key] = val
		}
	}

	result, err := registry.Execute(ctx, tools.ToolUse{Type: "tool_use", Name: "wp_plugin_compare", Input: input})
	if err != nil {
		return nil, err
	}

	var pc compare.PluginComparison
	if err := json.Unmarshal([]byte(result.Content), &pc); err != nil {
		return nil, serr.Wrap(err, "failed to decode comparison")
	}
	return &pc, nil
}

package cli

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/cheggaaa/pb/v3"
	"github.com/spf13/cobra"

	"wpcompare/cache"
	"wpcompare/config"
	"wpcompare/tools"
)

// runTool executes a registered tool and prints its text output
func runTool(ctx context.Context, w io.Writer, registry *tools.EnhancedRegistry, name string, input map[string]interface{}) error {
	result, err := registry.Execute(ctx, tools.ToolUse{Type: "tool_use", Name: name, Input: input})
	if err != nil {
		return err
	}
	content := result.Content
	if !strings.HasSuffix(content, "\n") {
		content += "\n"
	}
	_, err = io.WriteString(w, content)
	return err
}

// NewSearchCommand creates the search command
func NewSearchCommand() *cobra.Command {
	var page, perPage int
	var output string

	cmd := &cobra.Command{
		Use:   "search <query>",
		Short: "Search the wordpress.org plugin directory",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := validateFormat(output); err != nil {
				return err
			}
			a := newApp(config.Get())
			res, err := a.client.Search(cmd.Context(), strings.Join(args, " "), page, perPage)
			if err != nil {
				return err
			}
			if output != FormatText {
				return writeStructured(cmd.OutOrStdout(), output, res)
			}
			writeSearchTable(cmd.OutOrStdout(), res)
			return nil
		},
	}

	cmd.Flags().IntVar(&page, "page", 1, "result page")
	cmd.Flags().IntVar(&perPage, "per-page", 10, "results per page")
	cmd.Flags().StringVarP(&output, "output", "o", FormatText, "output format (text, json, yaml)")
	return cmd
}

// NewInfoCommand creates the info command
func NewInfoCommand() *cobra.Command {
	var full bool
	var output string

	cmd := &cobra.Command{
		Use:   "info <slug>",
		Short: "Show wordpress.org details for a plugin",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := validateFormat(output); err != nil {
				return err
			}
			a := newApp(config.Get())
			if output != FormatText {
				info, err := a.client.Info(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				return writeStructured(cmd.OutOrStdout(), output, info)
			}
			return runTool(cmd.Context(), cmd.OutOrStdout(), a.registry(), "wp_plugin_info",
				map[string]interface{}{"slug": args[0], "full": full})
		},
	}

	cmd.Flags().BoolVar(&full, "full", false, "include description, installation and changelog")
	cmd.Flags().StringVarP(&output, "output", "o", FormatText, "output format (text, json, yaml)")
	return cmd
}

// NewDownloadCommand creates the download command
func NewDownloadCommand() *cobra.Command {
	var version string
	var noExtract, quiet bool

	cmd := &cobra.Command{
		Use:   "download <slug>",
		Short: "Download a published plugin version into the cache",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a := newApp(config.Get())
			slug := args[0]

			var bar *pb.ProgressBar
			var progress func(done, total int64)
			if !quiet {
				bar = pb.New64(0).
					SetTemplate(pb.Full).
					SetWriter(cmd.ErrOrStderr()).
					Set(pb.Bytes, true).
					Start()
				progress = func(done, total int64) {
					if total > 0 {
						bar.SetTotal(total)
					}
					bar.SetCurrent(done)
				}
			}

			var entry *cache.Entry
			var err error
			if noExtract {
				entry, err = a.store.FetchZip(cmd.Context(), slug, version, progress)
			} else {
				entry, err = a.store.Fetch(cmd.Context(), slug, version, progress)
			}
			if bar != nil {
				bar.Finish()
			}
			if err != nil {
				return err
			}

			writeEntry(cmd.OutOrStdout(), entry)
			return nil
		},
	}

	cmd.Flags().StringVar(&version, "version", "", "version to download (default latest)")
	cmd.Flags().BoolVar(&noExtract, "no-extract", false, "keep only the zip archive")
	cmd.Flags().BoolVarP(&quiet, "quiet", "q", false, "no progress bar")
	return cmd
}

func writeEntry(w io.Writer, e *cache.Entry) {
	state := "cached"
	if e.Fresh {
		state = "downloaded"
	}
	fmt.Fprintf(w, "%s %s %s (%d bytes)\n", e.Slug, e.Version, state, e.ZipBytes)
	fmt.Fprintf(w, "Archive:   %s\n", e.ZipPath)
	if e.PluginRoot != "" {
		fmt.Fprintf(w, "Extracted: %s\n", e.PluginRoot)
	}
}

// NewCheckCommand creates the update check command
func NewCheckCommand() *cobra.Command {
	var slug string

	cmd := &cobra.Command{
		Use:   "check <plugin-dir>",
		Short: "Check whether a local plugin is behind its wordpress.org release",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a := newApp(config.Get())
			input := map[string]interface{}{"local_path": args[0]}
			if slug != "" {
				input["slug"] = slug
			}
			return runTool(cmd.Context(), cmd.OutOrStdout(), a.registry(), "wp_plugin_check_update", input)
		},
	}

	cmd.Flags().StringVar(&slug, "slug", "", "wordpress.org slug (default guessed from the plugin)")
	return cmd
}

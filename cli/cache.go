package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"wpcompare/config"
)

// NewCacheCommand creates the cache command group
func NewCacheCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Inspect or clear downloaded plugin versions",
	}
	cmd.AddCommand(newCacheListCommand())
	cmd.AddCommand(newCacheClearCommand())
	return cmd
}

func newCacheListCommand() *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List cached plugin versions",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := validateFormat(output); err != nil {
				return err
			}
			a := newApp(config.Get())
			entries, err := a.store.List()
			if err != nil {
				return err
			}
			if output != FormatText {
				return writeStructured(cmd.OutOrStdout(), output, entries)
			}
			writeCacheTable(cmd.OutOrStdout(), a.store.Root(), entries)
			return nil
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", FormatText, "output format (text, json, yaml)")
	return cmd
}

func newCacheClearCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "clear [slug]",
		Short: "Remove one plugin, or everything, from the cache",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a := newApp(config.Get())
			slug := ""
			if len(args) == 1 {
				slug = args[0]
			}
			if err := a.store.Clear(slug); err != nil {
				return err
			}
			if slug == "" {
				fmt.Fprintf(cmd.OutOrStdout(), "Cleared %s\n", a.store.Root())
			} else {
				fmt.Fprintf(cmd.OutOrStdout(), "Cleared %s from %s\n", slug, a.store.Root())
			}
			return nil
		},
	}
}

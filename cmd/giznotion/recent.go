package main

import (
	"fmt"

	"github.com/ajramos/giznotion/internal/accounts"
	"github.com/spf13/cobra"
)

var recentCmd = &cobra.Command{
	Use:   "recent",
	Short: "List recently opened pages",
	Long: `List the pages recently opened through giznotion, newest first, with their
current titles.

Examples:
  giznotion recent
  giznotion recent remove <page id>`,
	Args: cobra.NoArgs,
	RunE: runRecent,
}

var recentRemoveAccount string

var recentRemoveCmd = &cobra.Command{
	Use:   "remove <page id>",
	Short: "Remove a page from the recent list",
	Long: `Remove a page from the recent list. Without --slot every entry with that
id is removed, whichever account it was visited from.`,
	Aliases: []string{"rm"},
	Args:    cobra.ExactArgs(1),
	RunE:    runRecentRemove,
}

func init() {
	rootCmd.AddCommand(recentCmd)
	recentCmd.AddCommand(recentRemoveCmd)

	recentRemoveCmd.Flags().StringVar(&recentRemoveAccount, "slot", "", "Only remove the entry of this account (1 or 2)")
}

func runRecent(cmd *cobra.Command, _ []string) error {
	app, err := newApplication(cmd.Context(), modeCommand)
	if err != nil {
		return err
	}
	defer app.Close()

	ctx := cmd.Context()
	entries, err := app.recent.List(ctx)
	if err != nil {
		return err
	}
	pages := app.recent.Hydrate(ctx, entries)

	out := cmd.OutOrStdout()
	if jsonOutput {
		return printJSON(out, nonNilPages(pages))
	}
	if len(pages) == 0 {
		_, _ = fmt.Fprintln(out, "No recent pages")
		return nil
	}
	return printPages(out, app.registry, pages)
}

func runRecentRemove(cmd *cobra.Command, args []string) error {
	var id accounts.ID
	if recentRemoveAccount != "" {
		parsed, ok := accounts.ParseID(recentRemoveAccount)
		if !ok {
			return fmt.Errorf("invalid slot %q (want 1 or 2)", recentRemoveAccount)
		}
		id = parsed
	}

	app, err := newApplication(cmd.Context(), modeCommand)
	if err != nil {
		return err
	}
	defer app.Close()

	if err := app.recent.Remove(cmd.Context(), args[0], id); err != nil {
		return err
	}
	if !jsonOutput {
		_, _ = fmt.Fprintf(cmd.OutOrStdout(), "✓ Removed %s from recent pages\n", args[0])
	}
	return nil
}

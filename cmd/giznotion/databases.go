package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/ajramos/giznotion/internal/notion"
	"github.com/ajramos/giznotion/internal/services"
	"github.com/spf13/cobra"
)

var databasesCmd = &cobra.Command{
	Use:   "databases",
	Short: "List databases",
	Long: `List the databases shared with an account.

Examples:
  giznotion databases
  giznotion databases --account Work
  giznotion databases query <database id> "launch"
  giznotion databases view <database id> --properties title,status`,
	Aliases: []string{"db"},
	Args:    cobra.NoArgs,
	RunE:    runDatabasesList,
}

var databasesQueryCmd = &cobra.Command{
	Use:   "query <database id> [query]",
	Short: "Search the pages of a database",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runDatabasesQuery,
}

var (
	viewProperties []string
	viewType       string
)

var databasesViewCmd = &cobra.Command{
	Use:   "view <database id>",
	Short: "Show or change the saved view of a database",
	Long: `Show the saved view of a database. With --properties or --type the view is
updated first. --properties lists the property ids shown when creating a page.`,
	Args: cobra.ExactArgs(1),
	RunE: runDatabasesView,
}

func init() {
	rootCmd.AddCommand(databasesCmd)
	databasesCmd.AddCommand(databasesQueryCmd, databasesViewCmd)

	databasesViewCmd.Flags().StringSliceVar(&viewProperties, "properties", nil, "Property ids shown when creating a page")
	databasesViewCmd.Flags().StringVar(&viewType, "type", "", "View type, for example list")
}

func runDatabasesList(cmd *cobra.Command, _ []string) error {
	app, err := newApplication(cmd.Context(), modeCommand)
	if err != nil {
		return err
	}
	defer app.Close()

	ctx := cmd.Context()
	label, err := app.accountLabel(ctx)
	if err != nil {
		return err
	}
	databases, err := app.workspace.GetDatabases(ctx, label)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if jsonOutput {
		if databases == nil {
			databases = []notion.Database{}
		}
		return printJSON(out, databases)
	}
	if len(databases) == 0 {
		_, _ = fmt.Fprintln(out, "No databases found")
		return nil
	}

	w := newTable(out)
	_, _ = fmt.Fprintln(w, "TITLE\tPROPERTIES\tEDITED\tID")
	_, _ = fmt.Fprintln(w, "-----\t----------\t------\t--")
	for _, d := range databases {
		_, _ = fmt.Fprintf(w, "%s\t%d\t%s\t%s\n", displayTitle(d.Title), len(d.Properties), formatTime(d.LastEditedTime), d.ID)
	}
	if err := w.Flush(); err != nil {
		return fmt.Errorf("failed to flush output: %w", err)
	}
	return nil
}

func runDatabasesQuery(cmd *cobra.Command, args []string) error {
	app, err := newApplication(cmd.Context(), modeCommand)
	if err != nil {
		return err
	}
	defer app.Close()

	ctx := cmd.Context()
	label, err := app.accountLabel(ctx)
	if err != nil {
		return err
	}
	pages, err := app.workspace.SearchDatabase(ctx, args[0], strings.Join(args[1:], " "), label)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if jsonOutput {
		return printJSON(out, nonNilPages(pages))
	}
	if len(pages) == 0 {
		_, _ = fmt.Fprintln(out, "No pages found")
		return nil
	}
	return printPages(out, app.registry, pages)
}

func runDatabasesView(cmd *cobra.Command, args []string) error {
	app, err := newApplication(cmd.Context(), modeCommand)
	if err != nil {
		return err
	}
	defer app.Close()

	ctx := cmd.Context()
	databaseID := args[0]
	view, err := app.views.Get(ctx, databaseID)
	if err != nil {
		return err
	}

	changed := false
	if cmd.Flags().Changed("properties") {
		view.CreateProperties = viewProperties
		changed = true
	}
	if cmd.Flags().Changed("type") {
		view.Type = viewType
		changed = true
	}
	if changed {
		if err := app.views.Set(ctx, databaseID, view); err != nil {
			return err
		}
	}

	out := cmd.OutOrStdout()
	if jsonOutput {
		return printJSON(out, view)
	}
	printView(out, databaseID, view)
	return nil
}

func printView(out io.Writer, databaseID string, view services.DatabaseView) {
	kind := view.Type
	if kind == "" {
		kind = "list"
	}
	properties := "(all)"
	if len(view.CreateProperties) > 0 {
		properties = strings.Join(view.CreateProperties, ", ")
	}
	_, _ = fmt.Fprintf(out, "Database:   %s\n", databaseID)
	_, _ = fmt.Fprintf(out, "Type:       %s\n", kind)
	_, _ = fmt.Fprintf(out, "Properties: %s\n", properties)
}

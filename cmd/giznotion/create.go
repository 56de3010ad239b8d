package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var createYes bool

var createCmd = &cobra.Command{
	Use:   "create <database id> <title> [content]",
	Short: "Create a page in a database",
	Long: `Create a page in a database of the active account. Content is added as
paragraphs; pass - to read it from stdin.

Examples:
  giznotion create <database id> "Weekly notes"
  echo "Agenda" | giznotion create <database id> "Weekly notes" - --yes`,
	Args: cobra.RangeArgs(2, 3),
	RunE: runCreate,
}

func init() {
	rootCmd.AddCommand(createCmd)

	createCmd.Flags().BoolVarP(&createYes, "yes", "y", false, "Skip the confirmation prompt")
}

func runCreate(cmd *cobra.Command, args []string) error {
	databaseID, title := args[0], args[1]
	content := ""
	if len(args) == 3 {
		if args[2] == "-" && !createYes {
			return errStdinNeedsYes
		}
		var err error
		if content, err = readContent(cmd.InOrStdin(), args[2]); err != nil {
			return err
		}
	}

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

	if !createYes {
		name, err := app.workspace.DatabaseName(ctx, databaseID, label)
		if err != nil {
			return err
		}
		ok, err := confirm(cmd.InOrStdin(), cmd.ErrOrStderr(), "Are you sure you want to create the page?",
			field{"Title", title},
			field{"Content", truncate(content, 200)},
			field{"In database", name},
		)
		if err != nil {
			return err
		}
		if !ok {
			_, _ = fmt.Fprintln(cmd.ErrOrStderr(), "Cancelled")
			return nil
		}
	}

	page, err := app.workspace.CreatePage(ctx, databaseID, title, content, label)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if jsonOutput {
		return printJSON(out, page)
	}
	_, _ = fmt.Fprintf(out, "✓ Created %s\n%s\n", displayTitle(page.Title), page.URL)
	return nil
}

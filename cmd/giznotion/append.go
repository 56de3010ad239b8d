package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var appendYes bool

var appendCmd = &cobra.Command{
	Use:   "append <page id> <content>",
	Short: "Add content to the end of a page",
	Long: `Append content to a page as paragraphs. Pass - to read the content from
stdin. HTML content is converted to plain text.

Examples:
  giznotion append <page id> "Follow up with design"
  pbpaste | giznotion append <page id> - --yes`,
	Args: cobra.ExactArgs(2),
	RunE: runAppend,
}

func init() {
	rootCmd.AddCommand(appendCmd)

	appendCmd.Flags().BoolVarP(&appendYes, "yes", "y", false, "Skip the confirmation prompt")
}

func runAppend(cmd *cobra.Command, args []string) error {
	pageID := args[0]
	if args[1] == "-" && !appendYes {
		return errStdinNeedsYes
	}
	content, err := readContent(cmd.InOrStdin(), args[1])
	if err != nil {
		return err
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

	if !appendYes {
		ok, err := confirm(cmd.InOrStdin(), cmd.ErrOrStderr(), "Are you sure you want to add the content to the page?",
			field{"Page", pageID},
			field{"Content", truncate(content, 200)},
		)
		if err != nil {
			return err
		}
		if !ok {
			_, _ = fmt.Fprintln(cmd.ErrOrStderr(), "Cancelled")
			return nil
		}
	}

	if err := app.workspace.AddToPage(ctx, pageID, content, label); err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if jsonOutput {
		return printJSON(out, map[string]string{"pageId": pageID, "status": "success"})
	}
	_, _ = fmt.Fprintln(out, "✓ Content added")
	return nil
}

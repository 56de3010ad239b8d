package main

import (
	"fmt"
	"io"

	"github.com/ajramos/giznotion/internal/notion"
	"github.com/ajramos/giznotion/internal/services"
	"github.com/spf13/cobra"
)

var pageCmd = &cobra.Command{
	Use:   "page <page id>",
	Short: "Print the content of a page",
	Long: `Print the top-level blocks of a page. --json prints the raw blocks as
returned by Notion.

Examples:
  giznotion page <page id>
  giznotion page <page id> --account Personal --json`,
	Args: cobra.ExactArgs(1),
	RunE: runPage,
}

func init() {
	rootCmd.AddCommand(pageCmd)
}

func runPage(cmd *cobra.Command, args []string) error {
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
	content, err := app.workspace.GetPage(ctx, args[0], label)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if jsonOutput {
		return printJSON(out, content)
	}
	if content.Status != services.PageStatusSuccess {
		_, _ = fmt.Fprintln(out, content.Content)
		return nil
	}

	blocks, err := notion.ParseBlocks([]byte(content.Content))
	if err != nil {
		return fmt.Errorf("decode page content: %w", err)
	}
	printBlocks(out, blocks)
	return nil
}

var blockPrefixes = map[string]string{
	"heading_1":          "# ",
	"heading_2":          "## ",
	"heading_3":          "### ",
	"bulleted_list_item": "• ",
	"numbered_list_item": "- ",
	"to_do":              "☐ ",
	"quote":              "> ",
	"toggle":             "▸ ",
	"callout":            "! ",
}

func printBlocks(w io.Writer, blocks []notion.Block) {
	for _, b := range blocks {
		switch {
		case b.Type == "divider":
			_, _ = fmt.Fprintln(w, "---")
		case b.Text != "":
			_, _ = fmt.Fprintln(w, blockPrefixes[b.Type]+b.Text)
		case b.Type == "paragraph":
			_, _ = fmt.Fprintln(w)
		default:
			_, _ = fmt.Fprintf(w, "[%s]\n", b.Type)
		}
	}
}

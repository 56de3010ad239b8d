package main

import (
	"fmt"
	"strings"

	"github.com/ajramos/giznotion/internal/notion"
	"github.com/spf13/cobra"
)

var searchCursor string

var searchCmd = &cobra.Command{
	Use:   "search [query]",
	Short: "Search pages across all accounts",
	Long: `Search pages and databases in every connected workspace. Results from
all accounts are merged and sorted by last edit time.

Examples:
  giznotion search roadmap
  giznotion search roadmap --cursor <next cursor>
  giznotion search --json`,
	RunE: runSearch,
}

func init() {
	rootCmd.AddCommand(searchCmd)

	searchCmd.Flags().StringVar(&searchCursor, "cursor", "", "Continue from a previous result page")
}

// searchOutput is the JSON shape of one result page
type searchOutput struct {
	Pages      []notion.Page `json:"pages"`
	NextCursor string        `json:"next_cursor,omitempty"`
}

func runSearch(cmd *cobra.Command, args []string) error {
	app, err := newApplication(cmd.Context(), modeCommand)
	if err != nil {
		return err
	}
	defer app.Close()

	query := strings.Join(args, " ")
	page, err := app.pager.Page(cmd.Context(), query, searchCursor)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if jsonOutput {
		return printJSON(out, searchOutput{Pages: nonNilPages(page.Items), NextCursor: page.NextCursor})
	}

	if len(page.Items) == 0 {
		_, _ = fmt.Fprintln(out, "No pages found")
		return nil
	}
	if err := printPages(out, app.registry, page.Items); err != nil {
		return err
	}
	if page.HasMore() {
		_, _ = fmt.Fprintf(out, "\nMore results: --cursor %s\n", page.NextCursor)
	}
	return nil
}

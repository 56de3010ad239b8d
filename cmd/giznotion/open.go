package main

import (
	"errors"
	"fmt"
	"net/url"
	"path"
	"strings"

	"github.com/ajramos/giznotion/internal/notion"
	"github.com/spf13/cobra"
)

var openNoBrowser bool

var openCmd = &cobra.Command{
	Use:   "open <page id or url>",
	Short: "Open a page in the browser",
	Long: `Open a page or database in the browser and add it to the recent list.
The page is looked up in the active account unless --account is given.

Examples:
  giznotion open 0f7c3e1d2b5a4c6d8e9f0a1b2c3d4e5f
  giznotion open https://www.notion.so/Roadmap-0f7c3e1d2b5a4c6d8e9f0a1b2c3d4e5f
  giznotion open <id> --account Personal --no-browser`,
	Args: cobra.ExactArgs(1),
	RunE: runOpen,
}

func init() {
	rootCmd.AddCommand(openCmd)

	openCmd.Flags().BoolVar(&openNoBrowser, "no-browser", false, "Print the URL instead of opening it")
}

func runOpen(cmd *cobra.Command, args []string) error {
	pageID, err := pageIDFromArg(args[0])
	if err != nil {
		return err
	}

	app, err := newApplication(cmd.Context(), modeCommand)
	if err != nil {
		return err
	}
	defer app.Close()

	ctx := cmd.Context()
	accountID, err := app.accountID(ctx)
	if err != nil {
		return err
	}
	client, err := app.clients.GetClient(ctx, accountID)
	if err != nil {
		return err
	}

	page, err := client.RetrievePage(ctx, pageID)
	if errors.Is(err, notion.ErrNotFound) {
		page, err = client.RetrieveDatabaseAsPage(ctx, pageID)
	}
	if err != nil {
		return fmt.Errorf("could not find %s: %w", pageID, err)
	}
	page.AccountID = accountID

	out := cmd.OutOrStdout()
	if openNoBrowser {
		_, _ = fmt.Fprintln(out, page.URL)
	} else if err := app.links.OpenLink(ctx, page.URL); err != nil {
		return err
	}

	if err := app.recent.RecordVisit(ctx, *page); err != nil && app.logger != nil {
		app.logger.Printf("open: record visit %s: %v", page.ID, err)
	}
	return nil
}

// pageIDFromArg accepts a bare id or a page URL, whose last path segment ends with the id
func pageIDFromArg(arg string) (string, error) {
	arg = strings.TrimSpace(arg)
	if arg == "" {
		return "", fmt.Errorf("page id cannot be empty")
	}
	if !strings.Contains(arg, "://") {
		return arg, nil
	}

	u, err := url.Parse(arg)
	if err != nil {
		return "", fmt.Errorf("invalid page url: %w", err)
	}
	segment := path.Base(u.Path)
	segment = strings.ReplaceAll(segment, "-", "")
	if len(segment) < 32 || !isHex(segment[len(segment)-32:]) {
		return "", fmt.Errorf("no page id in %q", arg)
	}
	return segment[len(segment)-32:], nil
}

func isHex(s string) bool {
	for _, r := range s {
		if !strings.ContainsRune("0123456789abcdefABCDEF", r) {
			return false
		}
	}
	return true
}

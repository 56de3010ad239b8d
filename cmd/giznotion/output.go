package main

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/ajramos/giznotion/internal/accounts"
	"github.com/ajramos/giznotion/internal/notion"
	"github.com/mattn/go-runewidth"
)

var errStdinNeedsYes = errors.New("--yes is required when content is read from stdin")

const (
	titleWidth = 50
	timeLayout = "2006-01-02 15:04"
)

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func newTable(w io.Writer) *tabwriter.Writer {
	return tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
}

// truncate shortens s to width display columns
func truncate(s string, width int) string {
	if runewidth.StringWidth(s) <= width {
		return s
	}
	return runewidth.Truncate(s, width, "…")
}

func displayTitle(title string) string {
	if strings.TrimSpace(title) == "" {
		return "Untitled"
	}
	return truncate(title, titleWidth)
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.Local().Format(timeLayout)
}

// printPages writes a page table; the account column only appears with two accounts
func printPages(w io.Writer, registry *accounts.Registry, pages []notion.Page) error {
	multi := registry.IsMultiAccount()
	tw := newTable(w)

	if multi {
		_, _ = fmt.Fprintln(tw, "TITLE\tTYPE\tACCOUNT\tEDITED\tID")
		_, _ = fmt.Fprintln(tw, "-----\t----\t-------\t------\t--")
	} else {
		_, _ = fmt.Fprintln(tw, "TITLE\tTYPE\tEDITED\tID")
		_, _ = fmt.Fprintln(tw, "-----\t----\t------\t--")
	}

	for _, p := range pages {
		kind := p.Object
		if kind == "" {
			kind = "page"
		}
		if multi {
			_, _ = fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n",
				displayTitle(p.Title), kind, registry.ByID(p.AccountID).Label, formatTime(p.LastEditedTime), p.ID)
			continue
		}
		_, _ = fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", displayTitle(p.Title), kind, formatTime(p.LastEditedTime), p.ID)
	}

	if err := tw.Flush(); err != nil {
		return fmt.Errorf("failed to flush output: %w", err)
	}
	return nil
}

type field struct {
	name  string
	value string
}

// confirm prints fields and asks question; only y or yes confirms
func confirm(in io.Reader, out io.Writer, question string, fields ...field) (bool, error) {
	for _, f := range fields {
		_, _ = fmt.Fprintf(out, "%s: %s\n", f.name, f.value)
	}
	_, _ = fmt.Fprintf(out, "%s [y/N]: ", question)

	line, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return false, err
	}
	answer := strings.ToLower(strings.TrimSpace(line))
	return answer == "y" || answer == "yes", nil
}

// readContent returns arg, or all of in when arg is "-"
func readContent(in io.Reader, arg string) (string, error) {
	if arg != "-" {
		return arg, nil
	}
	data, err := io.ReadAll(in)
	if err != nil {
		return "", fmt.Errorf("read content: %w", err)
	}
	return strings.TrimRight(string(data), "\n"), nil
}

func nonNilPages(pages []notion.Page) []notion.Page {
	if pages == nil {
		return []notion.Page{}
	}
	return pages
}

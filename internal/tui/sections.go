package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/derailed/tview"
	"github.com/mattn/go-runewidth"
	"golang.org/x/text/cases"

	"github.com/ajramos/giznotion/internal/accounts"
	"github.com/ajramos/giznotion/internal/notion"
)

const (
	sectionRecent = "Recent"
	sectionSearch = "Search"
)

type rowKind int

const (
	rowHeader rowKind = iota
	rowPage
	rowLoadMore
	rowEmpty
)

// row is one line of the result list
type row struct {
	kind    rowKind
	section string
	page    notion.Page
}

func (r row) selectable() bool {
	return r.kind == rowPage || r.kind == rowLoadMore
}

// buildRows lays out the Recent and Search sections. Recent pages are filtered
// locally by query; search hits already listed under Recent are left out.
func buildRows(recent, results []notion.Page, query string, hasMore bool, fallback accounts.ID) []row {
	fold := cases.Fold()
	needle := fold.String(strings.TrimSpace(query))

	seen := make(map[string]bool, len(recent))
	var recentRows []row
	for _, p := range recent {
		p.AccountID = accountOf(p, fallback)
		seen[pageKey(p)] = true
		if needle != "" && !strings.Contains(fold.String(p.Title), needle) {
			continue
		}
		recentRows = append(recentRows, row{kind: rowPage, section: sectionRecent, page: p})
	}

	var searchRows []row
	for _, p := range results {
		p.AccountID = accountOf(p, fallback)
		if seen[pageKey(p)] {
			continue
		}
		searchRows = append(searchRows, row{kind: rowPage, section: sectionSearch, page: p})
	}

	var rows []row
	if len(recentRows) > 0 {
		rows = append(rows, row{kind: rowHeader, section: sectionRecent})
		rows = append(rows, recentRows...)
	}
	if len(searchRows) > 0 {
		rows = append(rows, row{kind: rowHeader, section: sectionSearch})
		rows = append(rows, searchRows...)
	}
	if hasMore {
		rows = append(rows, row{kind: rowLoadMore, section: sectionSearch})
	}
	if len(rows) == 0 {
		rows = append(rows, row{kind: rowEmpty})
	}
	return rows
}

func accountOf(p notion.Page, fallback accounts.ID) accounts.ID {
	if p.AccountID != "" {
		return p.AccountID
	}
	return fallback
}

func pageKey(p notion.Page) string {
	return string(p.AccountID) + "/" + p.ID
}

// formatRow renders a row for a list of the given width
func formatRow(r row, registry *accounts.Registry, width int, now time.Time) string {
	switch r.kind {
	case rowHeader:
		return fmt.Sprintf("[::b]%s", r.section)
	case rowLoadMore:
		return "  Load more…"
	case rowEmpty:
		return "  No pages found"
	}

	icon := r.page.Icon
	if icon == "" || strings.Contains(icon, "://") {
		icon = "📄"
		if r.page.Object == "database" {
			icon = "🗂"
		}
	}

	var accessory []string
	if r.page.Object == "database" {
		accessory = append(accessory, "Database")
	}
	if registry != nil && registry.IsMultiAccount() {
		accessory = append(accessory, registry.ByID(r.page.AccountID).Label)
	}
	if !r.page.LastEditedTime.IsZero() {
		accessory = append(accessory, formatRelativeTime(r.page.LastEditedTime, now))
	}
	right := strings.Join(accessory, " · ")

	left := "  " + icon + " "
	titleWidth := width - runewidth.StringWidth(left) - runewidth.StringWidth(right) - 2
	title := r.page.Title
	if titleWidth > 0 {
		title = runewidth.Truncate(title, titleWidth, "…")
	}
	pad := width - runewidth.StringWidth(left) - runewidth.StringWidth(title) - runewidth.StringWidth(right)
	if pad < 1 {
		pad = 1
	}
	return left + tview.Escape(title) + strings.Repeat(" ", pad) + right
}

// formatRelativeTime formats a date as "2h", "3d" or "Jan 15"
func formatRelativeTime(date, now time.Time) string {
	diff := now.Sub(date)

	switch {
	case diff < time.Hour:
		minutes := int(diff.Minutes())
		if minutes < 1 {
			return "now"
		}
		return fmt.Sprintf("%dm", minutes)
	case diff < 24*time.Hour:
		return fmt.Sprintf("%dh", int(diff.Hours()))
	case diff < 7*24*time.Hour:
		return fmt.Sprintf("%dd", int(diff.Hours()/24))
	default:
		return date.Format("Jan 2")
	}
}

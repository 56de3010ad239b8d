package tui

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/derailed/tcell/v2"
	"github.com/derailed/tview"

	"github.com/ajramos/giznotion/internal/accounts"
	"github.com/ajramos/giznotion/internal/config"
	"github.com/ajramos/giznotion/internal/notion"
	"github.com/ajramos/giznotion/internal/services"
)

// searchDebounce delays remote search while the user is typing
const searchDebounce = 300 * time.Millisecond

// Options are the collaborators of the search view
type Options struct {
	Config   *config.Config
	Registry *accounts.Registry
	Active   services.ActiveAccountState
	Pager    services.PageSearcher
	Recent   services.RecentPages
	Links    services.LinkService
	Logger   *log.Logger
}

// App is the interactive page search
type App struct {
	*tview.Application

	registry *accounts.Registry
	active   services.ActiveAccountState
	pager    services.PageSearcher
	recent   services.RecentPages
	links    services.LinkService
	keys     config.KeyBindings
	colors   config.ColorsConfig
	logger   *log.Logger

	ctx    context.Context
	cancel context.CancelFunc

	input        *tview.InputField
	list         *tview.List
	status       *tview.TextView
	errorHandler *ErrorHandler

	// state below is only touched on the UI goroutine
	query       string
	recentPages []notion.Page
	results     []notion.Page
	cursor      string
	loadingMore bool
	searchSeq   int
	rows        []row

	debounceMu sync.Mutex
	debounce   *time.Timer
}

// NewApp creates the search view
func NewApp(opts Options) *App {
	cfg := opts.Config
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	ctx, cancel := context.WithCancel(context.Background())
	a := &App{
		Application: tview.NewApplication(),
		registry:    opts.Registry,
		active:      opts.Active,
		pager:       opts.Pager,
		recent:      opts.Recent,
		links:       opts.Links,
		keys:        cfg.Keys,
		colors:      cfg.Colors,
		logger:      opts.Logger,
		ctx:         ctx,
		cancel:      cancel,
	}
	a.initViews()
	a.bindKeys()
	return a
}

func (a *App) initViews() {
	a.input = tview.NewInputField().
		SetLabel(" 🔍 ").
		SetPlaceholder("Search pages")
	a.input.SetChangedFunc(a.onQueryChanged)
	a.input.SetDoneFunc(func(key tcell.Key) {
		switch key {
		case tcell.KeyEnter, tcell.KeyTab, tcell.KeyDown:
			a.SetFocus(a.list)
		case tcell.KeyEscape:
			a.input.SetText("")
		}
	})

	a.list = tview.NewList().ShowSecondaryText(false)
	a.list.SetBorder(true).SetTitle(" Notion ")
	a.list.SetSelectedFunc(func(index int, _, _ string, _ rune) {
		a.activateRow(index)
	})

	a.status = tview.NewTextView().SetDynamicColors(true)
	a.errorHandler = NewErrorHandler(a.Application, a.status, a.logger)

	layout := tview.NewFlex().SetDirection(tview.FlexRow).
		AddItem(a.input, 1, 0, true).
		AddItem(a.list, 0, 1, false).
		AddItem(a.status, 1, 0, false)
	a.SetRoot(layout, true)
	a.applyColors()
}

func (a *App) applyColors() {
	a.input.SetFieldBackgroundColor(a.colors.BgColor.Color())
	a.list.SetMainTextColor(a.colors.List.FgColor.Color())
	a.list.SetSelectedTextColor(a.colors.List.SelectedFg.Color())
	a.list.SetSelectedBackgroundColor(a.colors.List.SelectedBg.Color())
	a.list.SetBorderColor(a.colors.Frame.BorderColor.Color())
	a.list.SetTitleColor(a.colors.Frame.TitleColor.Color())
}

// ApplyConfig installs the key bindings and colors of a reloaded configuration
func (a *App) ApplyConfig(cfg *config.Config) {
	if cfg == nil {
		return
	}
	a.QueueUpdateDraw(func() {
		a.keys = cfg.Keys
		a.colors = cfg.Colors
		a.applyColors()
		a.render()
		a.updateBaseline()
	})
}

// Run loads the recent pages and the initial search, then blocks until quit
func (a *App) Run() error {
	defer a.cancel()
	a.render()
	go a.reloadRecent()
	a.startSearch("")
	a.updateBaseline()
	return a.Application.Run()
}

func (a *App) onQueryChanged(text string) {
	a.debounceMu.Lock()
	defer a.debounceMu.Unlock()
	if a.debounce != nil {
		a.debounce.Stop()
	}
	a.debounce = time.AfterFunc(searchDebounce, func() {
		a.QueueUpdateDraw(func() { a.startSearch(text) })
	})
}

// startSearch runs the first page of a new query. Results of superseded
// queries are dropped.
func (a *App) startSearch(query string) {
	a.query = query
	a.searchSeq++
	seq := a.searchSeq
	a.results = nil
	a.cursor = ""
	a.loadingMore = false
	a.render()

	go func() {
		page, err := a.pager.Page(a.ctx, query, "")
		a.QueueUpdateDraw(func() {
			if seq != a.searchSeq {
				return
			}
			if err != nil {
				a.errorHandler.HandleError(a.ctx, err, "Search failed")
				return
			}
			a.results = page.Items
			a.cursor = page.NextCursor
			a.render()
		})
	}()
}

func (a *App) loadMore() {
	if a.cursor == "" || a.loadingMore {
		return
	}
	a.loadingMore = true
	seq, query, cursor := a.searchSeq, a.query, a.cursor

	go func() {
		page, err := a.pager.Page(a.ctx, query, cursor)
		a.QueueUpdateDraw(func() {
			if seq != a.searchSeq {
				return
			}
			a.loadingMore = false
			if err != nil {
				a.errorHandler.HandleError(a.ctx, err, "Could not load more pages")
				return
			}
			a.results = append(a.results, page.Items...)
			a.cursor = page.NextCursor
			a.render()
		})
	}()
}

// reloadRecent must not be called on the UI goroutine
func (a *App) reloadRecent() {
	entries, err := a.recent.List(a.ctx)
	if err != nil {
		a.errorHandler.HandleError(a.ctx, err, "Could not read recent pages")
		return
	}
	pages := a.recent.Hydrate(a.ctx, entries)
	a.QueueUpdateDraw(func() {
		a.recentPages = pages
		a.render()
	})
}

func (a *App) render() {
	current := a.list.GetCurrentItem()
	_, _, width, _ := a.list.GetInnerRect()
	if width <= 0 {
		width = 80
	}

	a.rows = buildRows(a.recentPages, a.results, a.query, a.cursor != "", a.registry.DefaultID())
	now := time.Now()
	a.list.Clear()
	for _, r := range a.rows {
		text := formatRow(r, a.registry, width, now)
		switch r.kind {
		case rowHeader:
			text = fmt.Sprintf("[%s]%s", a.colors.List.SectionColor, text)
		case rowLoadMore:
			text = fmt.Sprintf("[%s]%s", a.colors.List.LoadMoreColor, text)
		}
		a.list.AddItem(text, "", 0, nil)
	}
	if current >= len(a.rows) {
		current = len(a.rows) - 1
	}
	if current >= 0 {
		a.list.SetCurrentItem(current)
	}
}

func (a *App) currentRow() (row, bool) {
	i := a.list.GetCurrentItem()
	if i < 0 || i >= len(a.rows) {
		return row{}, false
	}
	return a.rows[i], true
}

func (a *App) activateRow(index int) {
	if index < 0 || index >= len(a.rows) {
		return
	}
	r := a.rows[index]
	switch r.kind {
	case rowLoadMore:
		a.loadMore()
	case rowPage:
		a.openPage(r.page)
	}
}

func (a *App) openPage(page notion.Page) {
	go func() {
		if err := a.links.OpenLink(a.ctx, page.URL); err != nil {
			a.errorHandler.HandleError(a.ctx, err, "Could not open page")
			return
		}
		if err := a.recent.RecordVisit(a.ctx, page); err != nil && a.logger != nil {
			a.logger.Printf("record visit %s: %v", page.ID, err)
		}
		a.reloadRecent()
	}()
}

func (a *App) removeRecent() {
	r, ok := a.currentRow()
	if !ok || r.kind != rowPage || r.section != sectionRecent {
		return
	}
	go func() {
		if err := a.recent.Remove(a.ctx, r.page.ID, r.page.AccountID); err != nil {
			a.errorHandler.HandleError(a.ctx, err, "Could not remove recent page")
			return
		}
		a.errorHandler.ShowSuccess(a.ctx, "Removed from recent")
		a.reloadRecent()
	}()
}

func (a *App) copyURL() {
	r, ok := a.currentRow()
	if !ok || r.kind != rowPage {
		return
	}
	go func() {
		if err := a.links.CopyToClipboard(a.ctx, r.page.URL); err != nil {
			a.errorHandler.HandleError(a.ctx, err, "Could not copy URL")
			return
		}
		a.errorHandler.ShowSuccess(a.ctx, "URL copied to clipboard")
	}()
}

// switchAccount makes the next registered account the active one
func (a *App) switchAccount() {
	if a.active == nil || !a.registry.IsMultiAccount() {
		return
	}
	go func() {
		current, err := a.active.Get(a.ctx)
		if err != nil {
			a.errorHandler.HandleError(a.ctx, err, "Could not read active account")
			return
		}
		next := nextAccount(a.registry.List(), current)
		if err := a.active.Set(a.ctx, next); err != nil {
			a.errorHandler.HandleError(a.ctx, err, "Could not switch account")
			return
		}
		a.errorHandler.ShowSuccess(a.ctx, "Active account: "+a.registry.ByID(next).Label)
		a.updateBaseline()
	}()
}

func nextAccount(list []accounts.Account, current accounts.ID) accounts.ID {
	for i, acc := range list {
		if acc.ID == current {
			return list[(i+1)%len(list)].ID
		}
	}
	return list[0].ID
}

// updateBaseline shows the active account and the key hints
func (a *App) updateBaseline() {
	hints := fmt.Sprintf("%s search · enter open · %s remove · %s more · %s copy · %s quit",
		a.keys.Search, a.keys.Remove, a.keys.LoadMore, a.keys.CopyURL, a.keys.Quit)
	if a.registry.IsMultiAccount() && a.active != nil {
		go func() {
			id, err := a.active.Get(a.ctx)
			if err != nil {
				id = a.registry.DefaultID()
			}
			label := a.registry.ByID(id).Label
			a.errorHandler.SetPersistentMessage(fmt.Sprintf(" %s · %s %s switch", tview.Escape(label), hints, a.keys.SwitchAccount))
		}()
		return
	}
	a.errorHandler.SetPersistentMessage(" " + hints)
}

package tui

import (
	"github.com/derailed/tcell/v2"
)

func (a *App) bindKeys() {
	a.SetInputCapture(func(event *tcell.EventKey) *tcell.EventKey {
		if event.Key() == tcell.KeyCtrlC {
			a.Stop()
			return nil
		}
		// the search field handles its own typing
		if a.GetFocus() == a.input {
			return event
		}
		if event.Key() == tcell.KeyEscape {
			a.SetFocus(a.input)
			return nil
		}
		if event.Key() != tcell.KeyRune {
			return event
		}
		if a.handleConfigurableKey(event) {
			return nil
		}
		return event
	})
}

// handleConfigurableKey runs the action bound to a single-character shortcut
func (a *App) handleConfigurableKey(event *tcell.EventKey) bool {
	key := string(event.Rune())
	action := ""
	switch key {
	case a.keys.Search:
		action = "search"
		a.SetFocus(a.input)
	case a.keys.Remove:
		action = "remove"
		a.removeRecent()
	case a.keys.LoadMore:
		action = "load_more"
		a.loadMore()
	case a.keys.SwitchAccount:
		action = "switch_account"
		a.switchAccount()
	case a.keys.CopyURL:
		action = "copy_url"
		a.copyURL()
	case a.keys.Refresh:
		action = "refresh"
		go a.reloadRecent()
		a.startSearch(a.query)
	case a.keys.Quit:
		action = "quit"
		a.Stop()
	default:
		return false
	}
	if a.logger != nil {
		a.logger.Printf("Configurable shortcut: '%s' -> %s", key, action)
	}
	return true
}

package tui

import (
	"context"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/derailed/tview"

	"github.com/ajramos/giznotion/internal/services"
)

// LogLevel represents the severity of a message
type LogLevel int

const (
	LogLevelInfo LogLevel = iota
	LogLevelWarning
	LogLevelError
	LogLevelSuccess
)

// statusClearDelay is how long a transient message stays in the status bar
const statusClearDelay = 5 * time.Second

// ErrorHandler provides consistent error handling and user feedback
type ErrorHandler struct {
	mu         sync.Mutex
	app        *tview.Application
	statusView *tview.TextView
	logger     *log.Logger

	currentStatus    string
	persistentStatus string
	statusTimer      *time.Timer
}

// NewErrorHandler creates a new error handler
func NewErrorHandler(app *tview.Application, statusView *tview.TextView, logger *log.Logger) *ErrorHandler {
	return &ErrorHandler{app: app, statusView: statusView, logger: logger}
}

// HandleError logs err and shows userMsg in the status bar
func (eh *ErrorHandler) HandleError(ctx context.Context, err error, userMsg string) {
	if err == nil {
		return
	}
	if eh.logger != nil {
		eh.logger.Printf("ERROR: %v", err)
	}
	if userMsg == "" {
		userMsg = "An error occurred"
	}
	switch {
	case services.IsRetryableError(err):
		eh.ShowMessage(ctx, userMsg+" (temporary, try again)", LogLevelWarning)
	case services.IsPermanentError(err):
		eh.ShowMessage(ctx, userMsg+": "+err.Error(), LogLevelError)
	default:
		eh.ShowMessage(ctx, userMsg, LogLevelError)
	}
}

func (eh *ErrorHandler) ShowError(ctx context.Context, msg string) {
	eh.ShowMessage(ctx, msg, LogLevelError)
}

func (eh *ErrorHandler) ShowWarning(ctx context.Context, msg string) {
	eh.ShowMessage(ctx, msg, LogLevelWarning)
}

func (eh *ErrorHandler) ShowSuccess(ctx context.Context, msg string) {
	eh.ShowMessage(ctx, msg, LogLevelSuccess)
}

func (eh *ErrorHandler) ShowInfo(ctx context.Context, msg string) {
	eh.ShowMessage(ctx, msg, LogLevelInfo)
}

// ShowMessage displays a transient message to the user
func (eh *ErrorHandler) ShowMessage(_ context.Context, msg string, level LogLevel) {
	if strings.TrimSpace(msg) == "" {
		return
	}
	if eh.logger != nil {
		eh.logger.Printf("%s: %s", eh.levelToString(level), msg)
	}
	formatted := eh.formatMessage(msg, level)
	eh.queue(func() { eh.setStatus(formatted) })
}

// SetPersistentMessage sets the baseline shown when no transient message is active
func (eh *ErrorHandler) SetPersistentMessage(msg string) {
	eh.mu.Lock()
	eh.persistentStatus = msg
	eh.mu.Unlock()
	eh.queue(eh.refresh)
}

func (eh *ErrorHandler) queue(fn func()) {
	if eh.app == nil {
		fn()
		return
	}
	eh.app.QueueUpdateDraw(fn)
}

func (eh *ErrorHandler) setStatus(msg string) {
	eh.mu.Lock()
	if eh.statusTimer != nil {
		eh.statusTimer.Stop()
	}
	eh.currentStatus = msg
	eh.statusTimer = time.AfterFunc(statusClearDelay, func() {
		eh.queue(func() { eh.clearStatus(msg) })
	})
	eh.mu.Unlock()
	eh.refresh()
}

// clearStatus only clears msg; a newer message set meanwhile stays
func (eh *ErrorHandler) clearStatus(msg string) {
	eh.mu.Lock()
	if eh.currentStatus == msg {
		eh.currentStatus = ""
	}
	eh.mu.Unlock()
	eh.refresh()
}

func (eh *ErrorHandler) refresh() {
	if eh.statusView == nil {
		return
	}
	eh.statusView.SetText(eh.statusText())
}

func (eh *ErrorHandler) statusText() string {
	eh.mu.Lock()
	defer eh.mu.Unlock()
	if eh.currentStatus != "" {
		return eh.currentStatus
	}
	return eh.persistentStatus
}

func (eh *ErrorHandler) formatMessage(msg string, level LogLevel) string {
	var icon string
	switch level {
	case LogLevelInfo:
		icon = "ℹ️"
	case LogLevelWarning:
		icon = "⚠️"
	case LogLevelError:
		icon = "❌"
	case LogLevelSuccess:
		icon = "✅"
	default:
		icon = "•"
	}
	return fmt.Sprintf("%s %s", icon, tview.Escape(msg))
}

func (eh *ErrorHandler) levelToString(level LogLevel) string {
	switch level {
	case LogLevelInfo:
		return "INFO"
	case LogLevelWarning:
		return "WARN"
	case LogLevelError:
		return "ERROR"
	case LogLevelSuccess:
		return "SUCCESS"
	default:
		return "UNKNOWN"
	}
}

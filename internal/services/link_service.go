package services

import (
	"context"
	"fmt"
	"net/url"
	"os/exec"
	"runtime"
	"strings"
)

// LinkServiceImpl opens page URLs in the browser and copies them to the clipboard
type LinkServiceImpl struct {
	goos     string
	lookPath func(string) (string, error)
	command  func(ctx context.Context, name string, args ...string) *exec.Cmd
}

// NewLinkService creates a new link service for the current platform
func NewLinkService() *LinkServiceImpl {
	return &LinkServiceImpl{
		goos:     runtime.GOOS,
		lookPath: exec.LookPath,
		command:  exec.CommandContext,
	}
}

// OpenLink opens a URL using the system default browser
func (s *LinkServiceImpl) OpenLink(ctx context.Context, link string) error {
	if err := s.ValidateURL(link); err != nil {
		return fmt.Errorf("invalid URL: %w", err)
	}

	var cmd *exec.Cmd
	switch s.goos {
	case "darwin":
		cmd = s.command(ctx, "open", link)
	case "linux":
		cmd = s.command(ctx, "xdg-open", link)
	case "windows":
		cmd = s.command(ctx, "rundll32", "url.dll,FileProtocolHandler", link)
	default:
		return fmt.Errorf("unsupported platform: %s", s.goos)
	}

	// Start the command (non-blocking)
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("failed to open URL: %w", err)
	}
	return nil
}

// CopyToClipboard copies text with the platform clipboard utility
func (s *LinkServiceImpl) CopyToClipboard(ctx context.Context, text string) error {
	var cmd *exec.Cmd
	switch s.goos {
	case "darwin":
		cmd = s.command(ctx, "pbcopy")
	case "linux":
		// Try xclip first, then xsel as fallback
		if _, err := s.lookPath("xclip"); err == nil {
			cmd = s.command(ctx, "xclip", "-selection", "clipboard")
		} else if _, err := s.lookPath("xsel"); err == nil {
			cmd = s.command(ctx, "xsel", "--clipboard", "--input")
		} else {
			return fmt.Errorf("no clipboard utility found (xclip or xsel required)")
		}
	case "windows":
		cmd = s.command(ctx, "clip")
	default:
		return fmt.Errorf("clipboard not supported on platform: %s", s.goos)
	}

	cmd.Stdin = strings.NewReader(text)
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("copy to clipboard: %w", err)
	}
	return nil
}

// ValidateURL accepts absolute http(s) URLs and the notion:// desktop scheme
func (s *LinkServiceImpl) ValidateURL(link string) error {
	if strings.TrimSpace(link) == "" {
		return fmt.Errorf("URL cannot be empty")
	}
	parsed, err := url.Parse(link)
	if err != nil {
		return fmt.Errorf("invalid URL format: %w", err)
	}
	switch strings.ToLower(parsed.Scheme) {
	case "http", "https", "notion":
	case "":
		return fmt.Errorf("URL missing scheme")
	default:
		return fmt.Errorf("unsupported URL scheme: %s", parsed.Scheme)
	}
	if parsed.Host == "" {
		return fmt.Errorf("URL missing host")
	}
	return nil
}

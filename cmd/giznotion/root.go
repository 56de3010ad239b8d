package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/ajramos/giznotion/internal/accounts"
	"github.com/ajramos/giznotion/internal/config"
	"github.com/ajramos/giznotion/internal/services"
	"github.com/ajramos/giznotion/internal/tui"
	"github.com/ajramos/giznotion/internal/version"
	"github.com/ajramos/giznotion/pkg/auth"
	"github.com/spf13/cobra"
)

const configEnv = "GIZNOTION_CONFIG"

var (
	configPathFlag string
	jsonOutput     bool
	accountFlag    string
)

var rootCmd = &cobra.Command{
	Use:   "giznotion",
	Short: "Search and open Notion pages across one or two workspaces",
	Long: `giznotion searches Notion pages across up to two connected workspaces,
keeps a list of recently visited pages and opens them in the browser.

Run without a subcommand to start the interactive search.`,
	Version:       version.Version,
	SilenceUsage:  true,
	SilenceErrors: true,
	Args:          cobra.NoArgs,
	RunE:          runInteractive,
}

func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "Error: %s\n", describeError(err))
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPathFlag, "config", "", "Path to configuration file (default: ~/.config/giznotion/config.json)")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "Output as JSON")
	rootCmd.PersistentFlags().StringVarP(&accountFlag, "account", "a", "", "Account label to use instead of the active account")
	rootCmd.SetVersionTemplate("{{.Name}} {{.Version}}\n")
}

func runInteractive(cmd *cobra.Command, _ []string) error {
	app, err := newApplication(cmd.Context(), modeInteractive)
	if err != nil {
		return err
	}
	defer app.Close()

	ui := tui.NewApp(tui.Options{
		Config:   app.cfg,
		Registry: app.registry,
		Active:   app.active,
		Pager:    app.pager,
		Recent:   app.recent,
		Links:    app.links,
		Logger:   app.logger,
	})

	// key bindings and colors follow edits to the config file
	manager := config.NewManager()
	if err := manager.LoadFromFile(getConfigPath(configPathFlag)); err == nil {
		manager.AddWatcher(ui.ApplyConfig)
		if err := manager.Watch(cmd.Context()); err == nil {
			defer manager.StopWatching()
		}
	} else if app.logger != nil {
		app.logger.Printf("config watch disabled: %v", err)
	}

	return ui.Run()
}

// getConfigPath returns the configuration file path using the following priority:
// 1. CLI flag
// 2. Environment variable GIZNOTION_CONFIG
// 3. Default path ~/.config/giznotion/config.json
func getConfigPath(flagValue string) string {
	if flagValue != "" {
		return flagValue
	}

	if envPath := os.Getenv(configEnv); envPath != "" {
		return config.ExpandPath(envPath)
	}

	return config.DefaultConfigPath()
}

// describeError adds a hint for failures the user can fix
func describeError(err error) string {
	switch {
	case errors.Is(err, accounts.ErrAmbiguousAccount):
		return err.Error() + " (pass --account)"
	case errors.Is(err, auth.ErrAuthenticationRequired):
		return err.Error() + " (run giznotion accounts login)"
	case services.IsRetryableError(err):
		return err.Error() + " (temporary failure, try again)"
	default:
		return err.Error()
	}
}

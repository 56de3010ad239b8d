package main

import (
	"github.com/ajramos/giznotion/internal/mcp"
	"github.com/ajramos/giznotion/internal/version"
	"github.com/spf13/cobra"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Serve the workspace tools over MCP stdio",
	Long: `Start a Model Context Protocol server on stdin/stdout exposing search-pages,
search-database, get-databases, get-page, create-page and add-to-page.

Each tool takes an optional accountLabel. With two accounts configured the
label is required.`,
	Args: cobra.NoArgs,
	RunE: runMCP,
}

func init() {
	rootCmd.AddCommand(mcpCmd)
}

func runMCP(cmd *cobra.Command, _ []string) error {
	app, err := newApplication(cmd.Context(), modeServer)
	if err != nil {
		return err
	}
	defer app.Close()

	if app.logger != nil {
		app.logger.Printf("mcp: serving %d account(s)", app.registry.Len())
	}
	return mcp.NewServer(app.workspace, version.Version, app.logger).Run(cmd.Context())
}

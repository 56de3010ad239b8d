package main

import (
	"fmt"

	"github.com/ajramos/giznotion/internal/accounts"
	"github.com/ajramos/giznotion/internal/notion"
	"github.com/spf13/cobra"
)

var accountsUsers bool

var accountsCmd = &cobra.Command{
	Use:   "accounts",
	Short: "List connected accounts",
	Long: `List the connected Notion accounts. The active account, used by open,
create and append when --account is not given, is marked with an asterisk (*).

Examples:
  giznotion accounts
  giznotion accounts --users
  giznotion accounts use Personal`,
	Aliases: []string{"account"},
	Args:    cobra.NoArgs,
	RunE:    runAccountsList,
}

var accountsUseCmd = &cobra.Command{
	Use:   "use <label>",
	Short: "Set the active account",
	Args:  cobra.ExactArgs(1),
	RunE:  runAccountsUse,
}

var accountsLoginCmd = &cobra.Command{
	Use:   "login [label]",
	Short: "Authorize an account with Notion",
	Long: `Run the browser consent flow for an account and store its token.
Without a label every account that has no token yet is authorized.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runAccountsLogin,
}

var accountsLogoutCmd = &cobra.Command{
	Use:   "logout <label>",
	Short: "Remove the stored token of an account",
	Args:  cobra.ExactArgs(1),
	RunE:  runAccountsLogout,
}

func init() {
	rootCmd.AddCommand(accountsCmd)
	accountsCmd.AddCommand(accountsUseCmd, accountsLoginCmd, accountsLogoutCmd)

	accountsCmd.Flags().BoolVar(&accountsUsers, "users", false, "Include the workspace members of each account")
}

// accountItem is an account in JSON output
type accountItem struct {
	ID     accounts.ID   `json:"id"`
	Label  string        `json:"label"`
	Active bool          `json:"active"`
	Users  []notion.User `json:"users,omitempty"`
}

func runAccountsList(cmd *cobra.Command, _ []string) error {
	app, err := newApplication(cmd.Context(), modeCommand)
	if err != nil {
		return err
	}
	defer app.Close()

	ctx := cmd.Context()
	active, err := app.active.Get(ctx)
	if err != nil {
		return err
	}

	items := make([]accountItem, 0, app.registry.Len())
	for _, a := range app.registry.List() {
		item := accountItem{ID: a.ID, Label: a.Label, Active: a.ID == active}
		if accountsUsers {
			users, err := app.workspace.ListUsers(ctx, a.Label)
			if err != nil {
				return fmt.Errorf("list users of %s: %w", a.Label, err)
			}
			item.Users = users
		}
		items = append(items, item)
	}

	out := cmd.OutOrStdout()
	if jsonOutput {
		return printJSON(out, items)
	}

	w := newTable(out)
	_, _ = fmt.Fprintln(w, "SLOT\tLABEL\tACTIVE")
	_, _ = fmt.Fprintln(w, "----\t-----\t------")
	for _, item := range items {
		marker := ""
		if item.Active {
			marker = "*"
		}
		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\n", item.ID, item.Label, marker)
	}
	if err := w.Flush(); err != nil {
		return fmt.Errorf("failed to flush output: %w", err)
	}

	if accountsUsers {
		for _, item := range items {
			_, _ = fmt.Fprintf(out, "\n%s members:\n", item.Label)
			if len(item.Users) == 0 {
				_, _ = fmt.Fprintln(out, "  (none)")
			}
			for _, u := range item.Users {
				_, _ = fmt.Fprintf(out, "  %s\n", u.Name)
			}
		}
	}
	return nil
}

func runAccountsUse(cmd *cobra.Command, args []string) error {
	app, err := newApplication(cmd.Context(), modeCommand)
	if err != nil {
		return err
	}
	defer app.Close()

	id, err := app.resolver.Resolve(args[0])
	if err != nil {
		return err
	}
	if err := app.active.Set(cmd.Context(), id); err != nil {
		return err
	}
	_, _ = fmt.Fprintf(cmd.OutOrStdout(), "✓ Active account: %s\n", app.registry.ByID(id).Label)
	return nil
}

func runAccountsLogin(cmd *cobra.Command, args []string) error {
	app, err := newApplication(cmd.Context(), modeCommand)
	if err != nil {
		return err
	}
	defer app.Close()

	out := cmd.OutOrStdout()
	if accounts.AuthType(app.cfg.AuthType) != accounts.AuthOAuth {
		_, _ = fmt.Fprintln(out, "Internal integrations use the token from the configuration; nothing to authorize.")
		return nil
	}

	targets := app.registry.List()
	if len(args) == 1 {
		id, err := app.resolver.Resolve(args[0])
		if err != nil {
			return err
		}
		targets = []accounts.Account{app.registry.ByID(id)}
	}

	app.tokens.Out = cmd.ErrOrStderr()
	for _, a := range targets {
		if _, err := app.tokens.Token(cmd.Context(), string(a.ID), a.Label); err != nil {
			return fmt.Errorf("authorize %s: %w", a.Label, err)
		}
		_, _ = fmt.Fprintf(out, "✓ %s is connected\n", a.Label)
	}
	return nil
}

func runAccountsLogout(cmd *cobra.Command, args []string) error {
	app, err := newApplication(cmd.Context(), modeCommand)
	if err != nil {
		return err
	}
	defer app.Close()

	id, err := app.resolver.Resolve(args[0])
	if err != nil {
		return err
	}
	if err := app.tokens.Logout(string(id)); err != nil {
		return err
	}
	app.clients.Invalidate(id)
	_, _ = fmt.Fprintf(cmd.OutOrStdout(), "✓ Removed the token of %s\n", app.registry.ByID(id).Label)
	return nil
}

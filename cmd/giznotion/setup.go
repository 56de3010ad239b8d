package main

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/ajramos/giznotion/internal/accounts"
	"github.com/ajramos/giznotion/internal/config"
	"github.com/spf13/cobra"
)

var setupForce bool

var setupCmd = &cobra.Command{
	Use:   "setup",
	Short: "Run the interactive setup wizard",
	Long: `Create the configuration file: choose between a public OAuth integration
(one or two accounts) and an internal integration secret.`,
	Args: cobra.NoArgs,
	RunE: runSetup,
}

func init() {
	rootCmd.AddCommand(setupCmd)

	setupCmd.Flags().BoolVar(&setupForce, "force", false, "Overwrite an existing configuration file")
}

func runSetup(cmd *cobra.Command, _ []string) error {
	out := cmd.OutOrStdout()
	path := getConfigPath(configPathFlag)

	_, _ = fmt.Fprintln(out, "📝 giznotion Setup Wizard")
	_, _ = fmt.Fprintln(out, "========================")
	_, _ = fmt.Fprintln(out)

	if _, err := os.Stat(path); err == nil && !setupForce {
		_, _ = fmt.Fprintf(out, "✅ Configuration file already exists: %s\n", path)
		_, _ = fmt.Fprintln(out, "Run with --force to replace it.")
		return nil
	}
	_, _ = fmt.Fprintf(out, "📝 Will create configuration file: %s\n\n", path)

	cfg, err := runSetupWizard(cmd.InOrStdin(), out)
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	if err := cfg.SaveConfig(path); err != nil {
		return fmt.Errorf("failed to create config file: %w", err)
	}

	_, _ = fmt.Fprintf(out, "\n✅ Created configuration file: %s\n", path)
	_, _ = fmt.Fprintln(out)
	_, _ = fmt.Fprintln(out, "🚀 Setup complete! Next steps:")
	if cfg.AuthType == string(accounts.AuthOAuth) {
		_, _ = fmt.Fprintln(out, "   giznotion accounts login")
	}
	_, _ = fmt.Fprintln(out, "   giznotion")
	return nil
}

// runSetupWizard asks for the settings and returns the resulting configuration
func runSetupWizard(in io.Reader, out io.Writer) (*config.Config, error) {
	reader := bufio.NewReader(in)
	ask := func(prompt, def string) (string, error) {
		_, _ = fmt.Fprint(out, prompt)
		line, err := reader.ReadString('\n')
		if err != nil && err != io.EOF {
			return "", err
		}
		if answer := strings.TrimSpace(line); answer != "" {
			return answer, nil
		}
		return def, nil
	}

	cfg := config.DefaultConfig()

	authType, err := ask("🔐 Authentication type, oauth or internal [oauth]: ", string(accounts.AuthOAuth))
	if err != nil {
		return nil, err
	}
	cfg.AuthType = strings.ToLower(authType)

	switch accounts.AuthType(cfg.AuthType) {
	case accounts.AuthInternal:
		_, _ = fmt.Fprintln(out, "Create an internal integration at https://www.notion.so/my-integrations")
		if cfg.Token, err = ask("Integration secret: ", ""); err != nil {
			return nil, err
		}
		if cfg.Token == "" {
			return nil, fmt.Errorf("an integration secret is required")
		}
	case accounts.AuthOAuth:
		if cfg.OAuth.ClientID, err = ask("OAuth client ID: ", ""); err != nil {
			return nil, err
		}
		if cfg.OAuth.ClientSecret, err = ask("OAuth client secret: ", ""); err != nil {
			return nil, err
		}
		_, _ = fmt.Fprintln(out, "💡 Label both accounts to connect two workspaces")
		if cfg.Account1Label, err = ask("First account label (optional): ", ""); err != nil {
			return nil, err
		}
		if cfg.Account1Label != "" {
			if cfg.Account2Label, err = ask("Second account label (optional): ", ""); err != nil {
				return nil, err
			}
		}
	default:
		return nil, fmt.Errorf("invalid auth type %q (want oauth or internal)", cfg.AuthType)
	}
	return cfg, nil
}

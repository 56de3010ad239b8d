package main

import (
	"fmt"

	"github.com/ajramos/giznotion/internal/version"
	"github.com/spf13/cobra"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show version information",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		if jsonOutput {
			return printJSON(cmd.OutOrStdout(), version.GetInfo())
		}
		_, err := fmt.Fprintln(cmd.OutOrStdout(), version.GetDetailedVersionString())
		return err
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}

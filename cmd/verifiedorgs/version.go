package main

import (
	"encoding/json"

	"verifiedorgs/internal/core/version"

	"github.com/spf13/cobra"
)

var versionCommand = &cobra.Command{
	Use:   "version",
	Short: "Print build information",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(version.Info())
	},
}

func init() {
	rootCmd.AddCommand(versionCommand)
}

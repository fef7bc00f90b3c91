// Package main provides the verifiedorgs harvester CLI
package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "verifiedorgs",
	Short: "Harvest GitHub organizations that carry the verified badge",
	Long: `Walks a seed list of GitHub accounts in id order, keeps the ones that exist as
organizations with is_verified=true, and appends them to a CSV dataset that doubles
as the resume checkpoint.`,
	SilenceUsage: true,
}

func main() {
	// load .env if present; HARVEST_* and LOG_* may live there
	_ = godotenv.Load()

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func mustSetEnv(key, val string) {
	if val != "" {
		_ = os.Setenv(key, val)
	}
}

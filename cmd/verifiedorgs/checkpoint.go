package main

import (
	"fmt"

	"verifiedorgs/internal/modkit"
	"verifiedorgs/internal/modkit/module"
	"verifiedorgs/internal/platform/config"
	"verifiedorgs/internal/platform/logger"
	"verifiedorgs/internal/services/harvest/domain"
	harvestmod "verifiedorgs/internal/services/harvest/module"
	"verifiedorgs/internal/services/harvest/service"

	"github.com/spf13/cobra"
)

var checkpointCommand = &cobra.Command{
	Use:   "checkpoint",
	Short: "Print the id a new run would resume after",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		mustSetEnv("HARVEST_OUTPUT_PATH", checkpointOutput)

		root := config.New()
		opts := harvestmod.FromConfig(root)
		m, err := harvestmod.New(modkit.Deps{Cfg: root, Log: *logger.Get()})
		if err != nil {
			return err
		}
		cp, err := module.MustPortsOf[domain.CheckpointPort](m).Checkpoint(cmd.Context())
		if err != nil {
			return err
		}
		_, err = fmt.Fprintf(cmd.OutOrStdout(), "%d\t%.5f%%\n", cp, service.Percent(cp, opts.ProgressTotal))
		return err
	},
}

var checkpointOutput string

func init() {
	checkpointCommand.Flags().StringVarP(&checkpointOutput, "output", "o", "", "result dataset (HARVEST_OUTPUT_PATH)")
	rootCmd.AddCommand(checkpointCommand)
}

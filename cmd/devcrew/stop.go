package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ShayCichocki/devcrew/internal/config"
	"github.com/ShayCichocki/devcrew/internal/signals"
	"github.com/ShayCichocki/devcrew/pkg/models"
)

func newStopCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stop",
		Short: "Interrupt the session running in this project",
		Long: `Stop drops a kill file into .devcrew/signals. A running devcrew
process in the same project notices it, interrupts its session and exits
with code 130.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return models.WrapFailure(models.FailureConfiguration, err, "load config")
			}
			root, err := cfg.ProjectRoot()
			if err != nil {
				return models.WrapFailure(models.FailureConfiguration, err, "")
			}
			if err := signals.SendKill(root); err != nil {
				return models.WrapFailure(models.FailureInternal, err, "send stop signal")
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Stop signal sent.")
			return nil
		},
	}
}

package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ShayCichocki/devcrew/internal/report"
)

func newReplayCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "replay <task-id>",
		Short: "Re-run a recorded assignment",
		Long: `Replay resumes from a recorded assignment under a new session.

A top-level assignment id re-runs its request from scratch. A delegated
assignment id re-runs that specialist, then the Project Manager writes a new
report using the recorded results of the other specialists.

Run 'devcrew sessions' to list assignment ids.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp()
			if err != nil {
				return err
			}
			defer a.Close()

			if err := a.engage(); err != nil {
				return err
			}
			a.showProgress(cmd.ErrOrStderr())

			ctx, stop := a.interruptible(cmd.Context())
			defer stop()

			sess, err := a.manager.Replay(ctx, args[0])
			fmt.Fprint(cmd.OutOrStdout(), report.Render(sess))
			a.killNotice(cmd.ErrOrStderr())
			return reported(err)
		},
	}
}

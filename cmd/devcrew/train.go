package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/ShayCichocki/devcrew/internal/lifecycle"
	"github.com/ShayCichocki/devcrew/internal/report"
	"github.com/ShayCichocki/devcrew/pkg/models"
)

func newTrainCmd() *cobra.Command {
	var opts lifecycle.TrainOptions

	cmd := &cobra.Command{
		Use:   "train [iterations] [checkpoint-file]",
		Short: "Repeat the training request and checkpoint what the crew learns",
		Long: fmt.Sprintf(`Train runs %q the given number of
times. After each successful iteration the learned state is written to the
checkpoint file, if one is given. The first failed iteration aborts training;
earlier checkpoint data is kept.`, lifecycle.TrainRequest),
		Args: cobra.MaximumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) > 0 {
				n, err := parseIterations(args[0])
				if err != nil {
					return err
				}
				opts.Iterations = n
			}
			if err := checkIterations(opts.Iterations); err != nil {
				return err
			}
			if len(args) > 1 {
				opts.CheckpointFile = args[1]
			}
			return runTrain(cmd, opts)
		},
	}

	cmd.Flags().IntVarP(&opts.Iterations, "iterations", "n", 1, "Number of training iterations")
	cmd.Flags().StringVarP(&opts.CheckpointFile, "checkpoint", "c", "", "File to write learned state to")
	return cmd
}

func runTrain(cmd *cobra.Command, opts lifecycle.TrainOptions) error {
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

	cp, err := a.manager.Train(ctx, opts)
	fmt.Fprint(cmd.OutOrStdout(), report.RenderTraining(cp, opts.Iterations, err))
	a.killNotice(cmd.ErrOrStderr())
	return reported(err)
}

// parseIterations reads a positional iteration count.
func parseIterations(s string) (int, error) {
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, models.NewFailure(models.FailureConfiguration, "iterations must be a whole number, got %q", s)
	}
	return n, checkIterations(n)
}

// checkIterations rejects counts below one.
func checkIterations(n int) error {
	if n < 1 {
		return models.NewFailure(models.FailureConfiguration, "iterations must be at least 1, got %d", n)
	}
	return nil
}

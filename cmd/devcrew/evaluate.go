package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ShayCichocki/devcrew/internal/lifecycle"
	"github.com/ShayCichocki/devcrew/internal/report"
)

func newTestCmd() *cobra.Command {
	var opts lifecycle.TestOptions

	cmd := &cobra.Command{
		Use:   "test [iterations] [evaluation-model]",
		Short: "Score the crew on the evaluation request",
		Long: fmt.Sprintf(`Test runs %q the given number of
times and has the evaluation model score each final report from 1 to 10.
Failed iterations are recorded and scored as failures; an interruption stops
the evaluation.`, lifecycle.TestRequest),
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
				opts.EvaluationModel = args[1]
			}
			return runTest(cmd, opts)
		},
	}

	cmd.Flags().IntVarP(&opts.Iterations, "iterations", "n", 1, "Number of evaluation runs")
	cmd.Flags().StringVarP(&opts.EvaluationModel, "model", "m", "", "Evaluation model (default from config)")
	return cmd
}

func runTest(cmd *cobra.Command, opts lifecycle.TestOptions) error {
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

	r, err := a.manager.Test(ctx, opts)
	fmt.Fprint(cmd.OutOrStdout(), report.RenderEvaluation(r, err))
	a.killNotice(cmd.ErrOrStderr())
	return reported(err)
}

package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/ShayCichocki/devcrew/internal/report"
	"github.com/ShayCichocki/devcrew/pkg/models"
)

var verbose bool

// Exit codes.
const (
	exitOK          = 0
	exitFailure     = 1
	exitInterrupted = 130
)

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "devcrew [request...]",
		Short: "A manager-led crew of specialists for your codebase",
		Long: `devcrew hands a request to a Project Manager, who delegates focused
sub-tasks to specialists (Code Analyzer, Code Implementer, Security Specialist,
Database Architect, QA Tester, UI Designer) and writes the final report.

With no arguments on a terminal, devcrew shows the crew and prompts for a
request. Be specific about WHAT and WHERE.

Exit codes: 0 success or no request, 1 failure, 130 interrupted.`,
		Args:          cobra.ArbitraryArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          runRequest,
	}

	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Write debug logs to stderr")

	root.AddCommand(newRunCmd())
	root.AddCommand(newTrainCmd())
	root.AddCommand(newReplayCmd())
	root.AddCommand(newTestCmd())
	root.AddCommand(newSessionsCmd())
	root.AddCommand(newStopCmd())
	root.AddCommand(newVersionCmd())
	return root
}

// Execute runs the root command and returns the process exit code.
func Execute() int {
	return execute(newRootCmd(), os.Args[1:])
}

func execute(root *cobra.Command, args []string) int {
	root.SetArgs(args)
	err := root.Execute()

	var done *reportedError
	if err != nil && !errors.As(err, &done) {
		// Errors that were not rendered by a command: flags, config, setup.
		fmt.Fprint(root.ErrOrStderr(), report.RenderError(err))
	}
	return exitCode(err)
}

// reportedError marks an error whose report has already been printed.
type reportedError struct {
	err error
}

func (e *reportedError) Error() string { return e.err.Error() }
func (e *reportedError) Unwrap() error { return e.err }

func reported(err error) error {
	if err == nil {
		return nil
	}
	return &reportedError{err: err}
}

func exitCode(err error) int {
	switch models.KindOf(err) {
	case "", models.FailureEmptyRequest:
		return exitOK
	case models.FailureInterrupted:
		return exitInterrupted
	default:
		return exitFailure
	}
}

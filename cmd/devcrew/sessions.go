package main

import (
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/ShayCichocki/devcrew/internal/report"
	"github.com/ShayCichocki/devcrew/internal/state"
	"github.com/ShayCichocki/devcrew/pkg/models"
)

func newSessionsCmd() *cobra.Command {
	var (
		limit     int
		purge     time.Duration
		show      string
		operation string
	)

	cmd := &cobra.Command{
		Use:   "sessions",
		Short: "List recorded sessions and their assignment ids",
		Long: `Sessions lists recorded sessions with the assignment ids replay accepts.

--show prints the report of one session. --operation lists the iterations of
a train or test run by the operation id its report printed.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp()
			if err != nil {
				return err
			}
			defer a.Close()

			out := cmd.OutOrStdout()
			switch {
			case show != "":
				return showSession(out, a.db, show)
			case operation != "":
				return showOperation(out, a.db, operation)
			}

			if purge > 0 {
				n, err := a.db.PurgeOldSessions(purge)
				if err != nil {
					return models.WrapFailure(models.FailureInternal, err, "")
				}
				fmt.Fprintf(out, "Purged %d session(s) older than %s.\n\n", n, purge)
			}

			sessions, err := a.db.ListSessions(limit)
			if err != nil {
				return models.WrapFailure(models.FailureInternal, err, "")
			}
			assignments := make(map[string][]*models.Assignment, len(sessions))
			for _, s := range sessions {
				list, err := a.db.ListAssignments(s.ID)
				if err != nil {
					return models.WrapFailure(models.FailureInternal, err, "")
				}
				assignments[s.ID] = list
			}

			fmt.Fprint(out, report.RenderSessions(sessions, assignments))
			return nil
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 20, "Maximum number of sessions to list")
	cmd.Flags().DurationVar(&purge, "purge", 0, "Delete sessions older than this first (e.g. 720h)")
	cmd.Flags().StringVar(&show, "show", "", "Print the report of one session")
	cmd.Flags().StringVar(&operation, "operation", "", "List the iterations of a train or test operation")
	cmd.MarkFlagsMutuallyExclusive("show", "operation")
	return cmd
}

// showSession prints a stored session's report with its assignment tree.
func showSession(w io.Writer, db *state.DB, id string) error {
	sess, err := db.GetSession(id)
	if errors.Is(err, state.ErrNotFound) {
		return models.NewFailure(models.FailureConfiguration, "no session %q", id)
	}
	if err != nil {
		return models.WrapFailure(models.FailureInternal, err, "")
	}
	if sess.Root != nil {
		root, err := db.LoadTree(sess.Root.ID)
		if err != nil {
			return models.WrapFailure(models.FailureInternal, err, "load assignment tree")
		}
		sess.Root = root
	}
	fmt.Fprint(w, report.Render(sess))
	return nil
}

func showOperation(w io.Writer, db *state.DB, id string) error {
	records, err := db.ListIterations(id)
	if err != nil {
		return models.WrapFailure(models.FailureInternal, err, "")
	}
	var mode models.Mode
	outcomes := make([]models.IterationOutcome, len(records))
	for i, r := range records {
		mode = r.Mode
		outcomes[i] = r.Outcome
	}
	fmt.Fprint(w, report.RenderIterations(id, mode, outcomes))
	return nil
}

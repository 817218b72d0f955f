package report

import (
	"fmt"
	"strings"

	"github.com/ShayCichocki/devcrew/pkg/models"
)

// RenderTraining formats a training checkpoint. err is the failure that
// aborted training, if any.
func RenderTraining(cp *models.Checkpoint, planned int, err error) string {
	var b strings.Builder
	done := 0
	if cp != nil {
		done = len(cp.Iterations)
	}

	if err == nil {
		heading(&b, "✓", green, "TRAINING COMPLETED")
	} else {
		heading(&b, "✗", red, "TRAINING ABORTED")
	}
	fmt.Fprintf(&b, "\nIterations: %d/%d\n", done, planned)
	if cp != nil && cp.OperationID != "" {
		fmt.Fprintf(&b, "%s %s\n", faint.Sprint("Operation:"), cp.OperationID)
	}

	if cp != nil {
		for _, o := range cp.Iterations {
			fmt.Fprintf(&b, "  %s #%d  %s  %s\n",
				green.Sprint("✓"), o.Iteration, formatDuration(o.Duration), roleTitles(o.RolesUsed))
		}
		if len(cp.RoleUsage) > 0 {
			b.WriteString("\nRole usage:\n")
			for _, r := range models.AllRoles() {
				if n := cp.RoleUsage[r]; n > 0 {
					fmt.Fprintf(&b, "  %-20s %d\n", r.Title(), n)
				}
			}
		}
	}

	if err != nil {
		fmt.Fprintf(&b, "\nAborted at iteration %d.\n", done+1)
		b.WriteString(RenderError(err))
	}
	return b.String()
}

// RenderEvaluation formats a test report. err is the failure that stopped
// the operation early, if any.
func RenderEvaluation(r *models.EvaluationReport, err error) string {
	var b strings.Builder
	if r == nil {
		r = &models.EvaluationReport{}
	}

	heading(&b, "◆", cyan, "EVALUATION REPORT")
	if r.Model != "" {
		fmt.Fprintf(&b, "\nModel: %s\n", r.Model)
	}
	b.WriteString("\n")
	for _, o := range r.Iterations {
		if o.Success {
			fmt.Fprintf(&b, "  %s #%d  score %2d/10  %s\n",
				green.Sprint("✓"), o.Iteration, o.Score, formatDuration(o.Duration))
			if o.Rationale != "" {
				fmt.Fprintf(&b, "      %s\n", faint.Sprint(o.Rationale))
			}
			continue
		}
		fmt.Fprintf(&b, "  %s #%d  %s  %s\n",
			red.Sprint("✗"), o.Iteration, Classify(o.Kind).Label, formatDuration(o.Duration))
		if o.Message != "" {
			fmt.Fprintf(&b, "      %s\n", faint.Sprint(o.Message))
		}
	}

	fmt.Fprintf(&b, "\nPassed: %d  Failed: %d  Mean score: %.1f\n", r.Passed(), r.FailedCount(), r.MeanScore())
	if r.OperationID != "" {
		fmt.Fprintf(&b, "%s %s\n", faint.Sprint("Operation:"), r.OperationID)
	}
	if err != nil {
		b.WriteString("\n")
		b.WriteString(RenderError(err))
	}
	return b.String()
}

// RenderSessions lists recorded sessions with the assignment ids replay
// accepts. assignments maps a session id to its assignments, parents first.
func RenderSessions(sessions []models.Session, assignments map[string][]*models.Assignment) string {
	if len(sessions) == 0 {
		return "No recorded sessions.\n"
	}

	var b strings.Builder
	for _, s := range sessions {
		fmt.Fprintf(&b, "%s  %-6s %-11s %s\n",
			s.StartedAt.Local().Format("2006-01-02 15:04"), s.Mode, statusText(s.Status), truncate(s.Request, 60))
		for _, a := range assignments[s.ID] {
			indent := "  "
			if !a.IsTopLevel() {
				indent = "    "
			}
			fmt.Fprintf(&b, "%s%s  %-20s %s\n", indent, a.ID, a.Assignee.Title(), a.Status)
		}
	}
	return b.String()
}

// RenderIterations lists the stored iterations of one train or test
// operation with the session each ran in.
func RenderIterations(operationID string, mode models.Mode, outcomes []models.IterationOutcome) string {
	if len(outcomes) == 0 {
		return fmt.Sprintf("No iterations recorded for operation %s.\n", operationID)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%s %s (%s)\n\n", faint.Sprint("Operation:"), operationID, mode)
	for _, o := range outcomes {
		mark := green.Sprint("✓")
		if !o.Success {
			mark = red.Sprint("✗")
		}
		fmt.Fprintf(&b, "  %s #%d  %s  %s", mark, o.Iteration, o.SessionID, formatDuration(o.Duration))
		switch {
		case !o.Success:
			fmt.Fprintf(&b, "  %s", Classify(o.Kind).Label)
		case mode == models.ModeTest:
			fmt.Fprintf(&b, "  score %d/10", o.Score)
		}
		b.WriteString("\n")
	}
	return b.String()
}

func statusText(s models.SessionStatus) string {
	switch s {
	case models.SessionCompleted:
		return green.Sprint(s)
	case models.SessionFailed:
		return red.Sprint(s)
	case models.SessionInterrupted:
		return yellow.Sprint(s)
	default:
		return string(s)
	}
}

func roleTitles(roles []models.Role) string {
	titles := make([]string, len(roles))
	for i, r := range roles {
		titles[i] = r.Title()
	}
	return strings.Join(titles, ", ")
}

func truncate(s string, n int) string {
	s = strings.Join(strings.Fields(s), " ")
	if len(s) <= n {
		return s
	}
	return s[:n-3] + "..."
}

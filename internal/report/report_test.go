package report

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"

	"github.com/ShayCichocki/devcrew/pkg/models"
)

func TestMain(m *testing.M) {
	color.NoColor = true
	os.Exit(m.Run())
}

func completedSession() *models.Session {
	sess := models.NewSession(models.ModeRun, "Find bugs", models.SessionParams{})
	root := models.NewAssignment(sess.ID, sess.Request)
	root.Iterations = 2
	child := root.NewChild("analyze", models.RoleAnalyzer)
	child.Iterations = 1
	sess.Root = root
	sess.Complete(models.Succeeded(models.RoleManager, "  2 bugs found in balance.ts \n"))
	return sess
}

func TestRender_Success(t *testing.T) {
	out := Render(completedSession())

	assert.Contains(t, out, "WORK COMPLETED")
	assert.Contains(t, out, "Final Report:")
	assert.Contains(t, out, "2 bugs found in balance.ts\n")
	assert.Contains(t, out, "Project Manager, Code Analyzer")
}

func TestRender_FailureUsesRenderError(t *testing.T) {
	sess := models.NewSession(models.ModeRun, "x", models.SessionParams{})
	f := models.NewFailure(models.FailureBoundedEffort, "budget of 15 spent").WithRole(models.RoleManager)
	sess.Fail(f)

	assert.Equal(t, RenderError(f), Render(sess))
}

func TestClassify_EveryKind(t *testing.T) {
	kinds := []models.FailureKind{
		models.FailureConfiguration, models.FailureEmptyRequest, models.FailureCapabilityViolation,
		models.FailureBoundedEffort, models.FailureEngine, models.FailureInterrupted,
		models.FailureUnknownTask, models.FailureInternal,
	}
	labels := make(map[string]bool)
	for _, k := range kinds {
		c := Classify(k)
		assert.NotEmpty(t, c.Label, k)
		assert.NotEmpty(t, c.Hint, k)
		assert.False(t, labels[c.Label], "duplicate label %q", c.Label)
		labels[c.Label] = true
	}

	assert.Equal(t, Classify(models.FailureInternal), Classify("something_new"))
}

func TestRenderError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want []string
	}{
		{
			name: "interrupted",
			err:  models.AsFailure(context.Canceled),
			want: []string{"Process interrupted by user", "Use more specific requests to reduce execution time"},
		},
		{
			name: "engine error",
			err:  models.WrapFailure(models.FailureEngine, errors.New("401 unauthorized"), "step 1").WithRole(models.RoleManager),
			want: []string{"Engine error", "Project Manager: step 1: 401 unauthorized", "check your API key"},
		},
		{
			name: "empty request",
			err:  models.NewFailure(models.FailureEmptyRequest, "no request provided"),
			want: []string{"No request provided.", "WHAT and WHERE"},
		},
		{
			name: "unknown task",
			err:  models.NewFailure(models.FailureUnknownTask, `no recorded assignment with id "unknown-123"`),
			want: []string{"Unknown task", "unknown-123", "devcrew sessions"},
		},
		{
			name: "plain error",
			err:  fmt.Errorf("open db: %w", errors.New("disk full")),
			want: []string{"Internal error", "disk full", "check your API key"},
		},
		{
			name: "assignment id",
			err:  models.NewFailure(models.FailureCapabilityViolation, "may not delegate").WithAssignment("a-1"),
			want: []string{"Capability violation", "assignment: a-1"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := RenderError(tt.err)
			for _, w := range tt.want {
				assert.Contains(t, out, w)
			}
		})
	}
}

func TestRenderError_Nil(t *testing.T) {
	assert.Contains(t, RenderError(nil), "Internal error")
}

func TestRenderTraining(t *testing.T) {
	cp := &models.Checkpoint{}
	cp.Record(models.IterationOutcome{Iteration: 1, Success: true, Duration: 2 * time.Second,
		RolesUsed: []models.Role{models.RoleManager, models.RoleAnalyzer}})

	out := RenderTraining(cp, 3, models.NewFailure(models.FailureEngine, "overloaded"))

	assert.Contains(t, out, "TRAINING ABORTED")
	assert.Contains(t, out, "Iterations: 1/3")
	assert.Contains(t, out, "Aborted at iteration 2.")
	assert.Contains(t, out, "Code Analyzer")
	assert.Contains(t, out, "Engine error")

	ok := RenderTraining(cp, 1, nil)
	assert.Contains(t, ok, "TRAINING COMPLETED")
	assert.NotContains(t, ok, "Aborted")
}

func TestRenderEvaluation(t *testing.T) {
	r := &models.EvaluationReport{
		Model: "judge",
		Iterations: []models.IterationOutcome{
			{Iteration: 1, Success: true, Score: 8, Rationale: "covers token expiry"},
			{Iteration: 2, Kind: models.FailureBoundedEffort, Message: "analyzer exhausted"},
		},
	}

	out := RenderEvaluation(r, nil)

	assert.Contains(t, out, "Model: judge")
	assert.Contains(t, out, "score  8/10")
	assert.Contains(t, out, "covers token expiry")
	assert.Contains(t, out, "Effort budget exceeded")
	assert.Contains(t, out, "Passed: 1  Failed: 1  Mean score: 8.0")
	assert.NotContains(t, out, "Operation:")

	r.OperationID = "op-42"
	assert.Contains(t, RenderEvaluation(r, nil), "Operation: op-42")
}

func TestRenderIterations(t *testing.T) {
	assert.Equal(t, "No iterations recorded for operation op-1.\n",
		RenderIterations("op-1", models.ModeTrain, nil))

	out := RenderIterations("op-1", models.ModeTest, []models.IterationOutcome{
		{Iteration: 1, SessionID: "sess-a", Success: true, Score: 9, Duration: time.Second},
		{Iteration: 2, SessionID: "sess-b", Kind: models.FailureInterrupted},
	})

	assert.Contains(t, out, "Operation: op-1 (test)")
	assert.Contains(t, out, "#1  sess-a")
	assert.Contains(t, out, "score 9/10")
	assert.Contains(t, out, "#2  sess-b")
	assert.Contains(t, out, Classify(models.FailureInterrupted).Label)
}

func TestRenderSessions(t *testing.T) {
	assert.Equal(t, "No recorded sessions.\n", RenderSessions(nil, nil))

	sess := completedSession()
	var all []*models.Assignment
	sess.Root.Walk(func(a *models.Assignment) bool {
		all = append(all, a)
		return true
	})

	out := RenderSessions([]models.Session{*sess}, map[string][]*models.Assignment{sess.ID: all})

	assert.Contains(t, out, "Find bugs")
	assert.Contains(t, out, "completed")
	assert.Contains(t, out, "  "+sess.Root.ID)
	assert.Contains(t, out, "    "+sess.Root.Children[0].ID)
	assert.Equal(t, 3, strings.Count(out, "\n"))
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "a b", truncate(" a \n b ", 10))
	assert.Equal(t, "abcdefg...", truncate("abcdefghijklmnop", 10))
}

// Package lifecycle runs devcrew sessions in one of four modes: a fresh run
// of an operator request, repeated training iterations over a canned request,
// replay from a recorded assignment, and scored test runs.
//
// The Manager owns persistence of sessions; the orchestrator it drives only
// executes them.
package lifecycle

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/ShayCichocki/devcrew/internal/state"
	"github.com/ShayCichocki/devcrew/pkg/models"
)

const (
	// TrainRequest is the canned request every training iteration runs.
	TrainRequest = "Analyze the wallet balance fetching code for bugs"
	// TestRequest is the canned request every test iteration runs.
	TestRequest = "Analyze the authentication system for security issues"
)

// Runner executes sessions. *orchestrator.Orchestrator satisfies it.
type Runner interface {
	Execute(ctx context.Context, sess *models.Session) (*models.Result, error)
	Resume(ctx context.Context, sess *models.Session, recorded *models.Assignment, childID string) (*models.Result, error)
}

// Manager starts sessions and records their outcome.
type Manager struct {
	store           state.Store
	runner          Runner
	evaluators      EvaluatorFactory
	evaluationModel string
	logger          *zap.Logger
}

// New creates a lifecycle manager.
func New(store state.Store, runner Runner, opts ...Option) *Manager {
	m := &Manager{
		store:  store,
		runner: runner,
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Run executes request once. The returned session is never nil; its error
// is the session's *models.Failure. An empty request is not persisted.
func (m *Manager) Run(ctx context.Context, request string) (*models.Session, error) {
	sess := models.NewSession(models.ModeRun, strings.TrimSpace(request), models.SessionParams{})
	if sess.Request == "" {
		f := models.NewFailure(models.FailureEmptyRequest, "no request provided")
		sess.Fail(f)
		return sess, f
	}
	return sess, m.execute(ctx, sess, func(ctx context.Context) error {
		_, err := m.runner.Execute(ctx, sess)
		return err
	})
}

// Replay resumes from the recorded assignment taskID under a new replay
// session. A top-level assignment re-runs its request from scratch; a
// delegated assignment is re-executed alone and the manager synthesizes
// again over the recorded results of its siblings.
//
// An unknown taskID fails with FailureUnknownTask and writes nothing.
func (m *Manager) Replay(ctx context.Context, taskID string) (*models.Session, error) {
	params := models.SessionParams{TaskID: taskID}

	target, err := m.store.LoadTree(taskID)
	if err != nil {
		sess := models.NewSession(models.ModeReplay, "", params)
		var f *models.Failure
		if errors.Is(err, state.ErrNotFound) {
			f = models.NewFailure(models.FailureUnknownTask, "no recorded assignment with id %q", taskID)
		} else {
			f = models.WrapFailure(models.FailureInternal, err, "load recorded assignment")
		}
		sess.Fail(f)
		return sess, f
	}

	if target.IsTopLevel() {
		sess := models.NewSession(models.ModeReplay, target.Goal, params)
		m.logger.Info("replaying request", zap.String("task_id", taskID), zap.String("session_id", sess.ID))
		return sess, m.execute(ctx, sess, func(ctx context.Context) error {
			_, err := m.runner.Execute(ctx, sess)
			return err
		})
	}

	parent, err := m.store.LoadTree(target.ParentID)
	if err != nil {
		sess := models.NewSession(models.ModeReplay, "", params)
		f := models.WrapFailure(models.FailureInternal, err, "load parent of recorded assignment")
		sess.Fail(f)
		return sess, f
	}

	sess := models.NewSession(models.ModeReplay, parent.Goal, params)
	m.logger.Info("replaying delegated assignment",
		zap.String("task_id", taskID),
		zap.String("role", string(target.Assignee)),
		zap.String("session_id", sess.ID))
	return sess, m.execute(ctx, sess, func(ctx context.Context) error {
		_, err := m.runner.Resume(ctx, sess, parent, taskID)
		return err
	})
}

// execute persists sess, runs fn and persists the outcome. The final
// SaveTree is authoritative for the assignment tree.
func (m *Manager) execute(ctx context.Context, sess *models.Session, fn func(context.Context) error) error {
	log := m.logger.With(zap.String("session_id", sess.ID), zap.String("mode", string(sess.Mode)))

	if err := m.store.SaveSession(sess); err != nil {
		f := models.WrapFailure(models.FailureInternal, err, "persist session")
		sess.Fail(f)
		return f
	}

	log.Info("session started", zap.Int("iteration", sess.Params.Iteration))
	runErr := fn(ctx)

	if sess.Root != nil {
		if err := m.store.SaveTree(sess.Root); err != nil {
			log.Error("failed to persist assignment tree", zap.Error(err))
		}
	}
	if err := m.store.SaveSession(sess); err != nil {
		log.Error("failed to persist session outcome", zap.Error(err))
	}

	if runErr != nil {
		log.Info("session failed",
			zap.String("kind", string(models.KindOf(runErr))),
			zap.Duration("duration", sess.Duration()))
		return runErr
	}
	log.Info("session completed", zap.Duration("duration", sess.Duration()))
	return nil
}

// outcomeOf summarizes a finished session as iteration i.
func outcomeOf(i int, sess *models.Session) models.IterationOutcome {
	o := models.IterationOutcome{
		Iteration: i,
		SessionID: sess.ID,
		Success:   sess.Succeeded(),
		Duration:  sess.Duration(),
	}
	if sess.Root != nil {
		o.RolesUsed = sess.Root.RolesUsed()
	}
	if sess.Result != nil {
		o.Payload = sess.Result.Payload
	}
	if sess.Failure != nil {
		o.Kind = sess.Failure.Kind
		o.Message = sess.Failure.Detail()
	}
	return o
}

func iterations(n int) (int, error) {
	switch {
	case n == 0:
		return 1, nil
	case n < 0:
		return 0, models.NewFailure(models.FailureConfiguration, "iterations must be at least 1, got %d", n)
	default:
		return n, nil
	}
}

func newOperationID() string {
	return uuid.NewString()
}

func (m *Manager) recordIteration(r state.IterationRecord) {
	if err := m.store.RecordIteration(r); err != nil {
		m.logger.Warn("failed to record iteration",
			zap.String("operation_id", r.OperationID),
			zap.Int("iteration", r.Outcome.Iteration),
			zap.Error(err))
	}
}

// interruptedBy reports a cancelled ctx as an interruption failure.
func interruptedBy(ctx context.Context) *models.Failure {
	if err := ctx.Err(); err != nil {
		return models.WrapFailure(models.FailureInterrupted, err, "interrupted")
	}
	return nil
}

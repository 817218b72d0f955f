package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync/atomic"

	"go.uber.org/zap"

	"github.com/ShayCichocki/devcrew/internal/engine"
	"github.com/ShayCichocki/devcrew/internal/tools"
	"github.com/ShayCichocki/devcrew/pkg/models"
)

// Workers supplies the pre-built worker for each role.
type Workers interface {
	WorkerFor(role models.Role) (*models.Worker, error)
	Workers() []*models.Worker
}

// Orchestrator executes sessions against one crew, engine and tool box.
// It holds no per-session state and may run sessions back to back.
type Orchestrator struct {
	workers     Workers
	engine      engine.Engine
	box         tools.Box
	maxParallel int
	logger      *zap.Logger
	recorder    Recorder
	emitter     *EventEmitter
	team        []engine.Teammate
	dispatches  atomic.Int64
}

// New creates an orchestrator.
func New(workers Workers, eng engine.Engine, box tools.Box, opts ...Option) *Orchestrator {
	o := defaultOptions()
	for _, opt := range opts {
		opt(o)
	}
	if o.logger == nil {
		o.logger = zap.NewNop()
	}

	var team []engine.Teammate
	for _, w := range workers.Workers() {
		if w.Role.IsManager() {
			continue
		}
		team = append(team, engine.Teammate{Role: w.Role, Title: w.Role.Title(), Description: w.Description})
	}

	return &Orchestrator{
		workers:     workers,
		engine:      eng,
		box:         box,
		maxParallel: o.maxParallel,
		logger:      o.logger,
		recorder:    o.recorder,
		emitter:     o.emitter,
		team:        team,
	}
}

// Dispatches returns the number of engine steps taken across all sessions.
func (o *Orchestrator) Dispatches() int64 {
	return o.dispatches.Load()
}

// Execute runs sess.Request to completion. The session is updated in place
// with its assignment tree and outcome. The returned error is the session's
// *models.Failure, if any.
func (o *Orchestrator) Execute(ctx context.Context, sess *models.Session) (*models.Result, error) {
	request := strings.TrimSpace(sess.Request)
	if request == "" {
		f := models.NewFailure(models.FailureEmptyRequest, "no request provided")
		sess.Fail(f)
		return nil, f
	}

	root := models.NewAssignment(sess.ID, request)
	sess.Root = root
	return o.conclude(sess, o.run(ctx, root, nil))
}

// Resume re-executes one child of a recorded assignment tree under sess and
// then lets the manager synthesize again. The other children keep their
// recorded results and are handed to the manager without being re-delegated.
func (o *Orchestrator) Resume(ctx context.Context, sess *models.Session, recorded *models.Assignment, childID string) (*models.Result, error) {
	root := models.NewAssignment(sess.ID, recorded.Goal)
	sess.Request = recorded.Goal
	sess.Root = root

	var (
		target  *models.Assignment
		prelude engine.Turn
	)
	prelude.Decision = &engine.Decision{}
	for _, rc := range recorded.Children {
		child := root.NewChild(rc.Goal, rc.Assignee)
		prelude.Decision.Delegations = append(prelude.Decision.Delegations, engine.Delegation{
			ID: child.ID, Role: child.Assignee, Goal: child.Goal,
		})
		if rc.ID == childID {
			target = child
			continue
		}
		restore(child, rc)
		o.record(child)
	}
	if target == nil {
		f := models.NewFailure(models.FailureUnknownTask, "assignment %s is not a child of %s", childID, recorded.ID)
		sess.Fail(f)
		return nil, f
	}

	o.setPhase(root, PhaseDispatched)
	o.record(root)
	if f := o.refuseDelegation(target.Assignee); f != nil {
		o.finish(target, models.Failed(target.Assignee, f))
	} else {
		o.run(ctx, target, nil)
	}

	for _, child := range root.Children {
		prelude.Delegations = append(prelude.Delegations, engine.DelegationOutcome{
			DelegationID: child.ID,
			AssignmentID: child.ID,
			Role:         child.Assignee,
			Result:       child.Result,
		})
	}

	if err := ctx.Err(); err != nil {
		return o.conclude(sess, o.finish(root, models.Failed(models.RoleManager, interrupted(err))))
	}
	o.setPhase(root, PhaseSynthesizing)
	return o.conclude(sess, o.run(ctx, root, []engine.Turn{prelude}))
}

func (o *Orchestrator) conclude(sess *models.Session, res *models.Result) (*models.Result, error) {
	if res.Success {
		o.setPhase(sess.Root, PhaseCompleted)
		sess.Complete(res)
		return res, nil
	}
	o.setPhase(sess.Root, PhaseFailed)
	sess.Fail(res.Failure)
	return res, res.Failure
}

// run drives one assignment through its worker's reasoning loop until a
// final answer, a failure, or budget exhaustion.
func (o *Orchestrator) run(ctx context.Context, a *models.Assignment, transcript []engine.Turn) *models.Result {
	worker, err := o.workers.WorkerFor(a.Assignee)
	if err != nil {
		return o.finish(a, models.Failed(a.Assignee, models.AsFailure(err)))
	}

	log := o.logger.With(
		zap.String("session_id", a.SessionID),
		zap.String("assignment_id", a.ID),
		zap.String("role", string(a.Assignee)),
	)

	a.Start()
	o.record(a)
	if a.IsTopLevel() && len(transcript) == 0 {
		o.setPhase(a, PhaseDispatched)
	}
	o.emit(Event{Type: EventAssignmentStarted, SessionID: a.SessionID, AssignmentID: a.ID, ParentID: a.ParentID, Role: a.Assignee, Message: a.Goal})
	log.Debug("assignment started", zap.Int("budget", worker.Budget))

	box := tools.Scope(o.box, worker.Bundle)

	for i := 1; i <= worker.Budget; i++ {
		if err := ctx.Err(); err != nil {
			return o.finish(a, models.Failed(a.Assignee, interrupted(err)))
		}
		a.Iterations = i

		o.dispatches.Add(1)
		dec, err := o.engine.Step(ctx, engine.Request{
			SessionID:    a.SessionID,
			AssignmentID: a.ID,
			Role:         worker.Role,
			Instructions: worker.Instructions,
			Goal:         a.Goal,
			Bundle:       worker.Bundle,
			CanDelegate:  worker.CanDelegate,
			Team:         o.teamFor(worker),
			Budget:       worker.Budget,
			Iteration:    i,
			Transcript:   transcript,
		})
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, context.Canceled) {
				return o.finish(a, models.Failed(a.Assignee, interrupted(err)))
			}
			log.Warn("engine step failed", zap.Int("iteration", i), zap.Error(err))
			return o.finish(a, models.Failed(a.Assignee,
				models.WrapFailure(models.FailureEngine, err, fmt.Sprintf("step %d", i))))
		}
		if dec == nil {
			return o.finish(a, models.Failed(a.Assignee,
				models.NewFailure(models.FailureEngine, "step %d returned no decision", i)))
		}
		if dec.IsFinal() {
			return o.finish(a, models.Succeeded(a.Assignee, dec.Text))
		}
		if f := permitted(worker, dec); f != nil {
			log.Warn("decision refused", zap.Int("iteration", i), zap.String("reason", f.Message))
			return o.finish(a, models.Failed(a.Assignee, f))
		}
		if i == worker.Budget {
			break
		}

		turn := engine.Turn{Decision: dec}
		for _, call := range dec.ToolCalls {
			res, err := tools.Invoke(ctx, box, call.Name, call.Input)
			if err != nil {
				if tools.IsRefused(err) {
					log.Warn("tool refused", zap.String("tool", string(call.Name)), zap.Int("iteration", i))
					return o.finish(a, models.Failed(a.Assignee, models.AsFailure(err)))
				}
				return o.finish(a, models.Failed(a.Assignee, interrupted(err)))
			}
			o.emit(Event{Type: EventToolCalled, SessionID: a.SessionID, AssignmentID: a.ID, Role: a.Assignee, Iteration: i, Message: string(call.Name)})
			turn.Tools = append(turn.Tools, engine.ToolOutcome{
				CallID:  call.ID,
				Name:    call.Name,
				Content: res.Content,
				IsError: res.IsError,
			})
		}

		if len(dec.Delegations) > 0 {
			o.setPhase(a, PhaseDelegating)
			turn.Delegations = o.delegate(ctx, a, dec.Delegations)
			if err := ctx.Err(); err != nil {
				return o.finish(a, models.Failed(a.Assignee, interrupted(err)))
			}
			o.setPhase(a, PhaseSynthesizing)
		}

		transcript = append(transcript, turn)
	}

	log.Warn("budget exhausted", zap.Int("budget", worker.Budget))
	return o.finish(a, models.Failed(a.Assignee, models.NewFailure(models.FailureBoundedEffort,
		"%s exhausted its budget of %d iterations", a.Assignee, worker.Budget)))
}

// permitted checks a non-final decision against the worker's grants. It runs
// before the budget check so the last iteration is refused the same way as
// any other.
func permitted(worker *models.Worker, dec *engine.Decision) *models.Failure {
	if len(dec.Delegations) > 0 && !worker.CanDelegate {
		return models.NewFailure(models.FailureCapabilityViolation,
			"%s may not delegate (requested %d delegations)", worker.Role, len(dec.Delegations))
	}
	for _, call := range dec.ToolCalls {
		if !call.Name.Valid() {
			return models.NewFailure(models.FailureCapabilityViolation, "unknown tool %q", call.Name)
		}
		if !worker.Can(call.Name) {
			return models.NewFailure(models.FailureCapabilityViolation,
				"tool %s is not in the granted bundle [%s]", call.Name, worker.Bundle)
		}
	}
	return nil
}

// finish records r as a's result and returns the stored result.
func (o *Orchestrator) finish(a *models.Assignment, r *models.Result) *models.Result {
	if r.Failure != nil && r.Failure.AssignmentID == "" {
		r.Failure.AssignmentID = a.ID
	}
	a.Finish(r)
	o.record(a)

	ev := Event{SessionID: a.SessionID, AssignmentID: a.ID, ParentID: a.ParentID, Role: a.Assignee, Iteration: a.Iterations}
	if a.Result.Success {
		ev.Type = EventAssignmentCompleted
	} else {
		ev.Type = EventAssignmentFailed
		ev.Kind = a.Result.Failure.Kind
		ev.Message = a.Result.Failure.Error()
		o.logger.Info("assignment failed",
			zap.String("session_id", a.SessionID),
			zap.String("assignment_id", a.ID),
			zap.String("role", string(a.Assignee)),
			zap.String("kind", string(ev.Kind)),
			zap.Int("iteration", a.Iterations))
	}
	o.emit(ev)
	return a.Result
}

func (o *Orchestrator) teamFor(w *models.Worker) []engine.Teammate {
	if !w.CanDelegate {
		return nil
	}
	return o.team
}

func (o *Orchestrator) record(a *models.Assignment) {
	if o.recorder == nil {
		return
	}
	if err := o.recorder.SaveAssignment(a); err != nil {
		o.logger.Warn("failed to record assignment",
			zap.String("assignment_id", a.ID),
			zap.Error(err))
	}
}

func (o *Orchestrator) setPhase(a *models.Assignment, p Phase) {
	if a == nil || !a.IsTopLevel() {
		return
	}
	o.logger.Debug("phase changed", zap.String("session_id", a.SessionID), zap.String("phase", string(p)))
	o.emit(Event{Type: EventPhaseChanged, SessionID: a.SessionID, AssignmentID: a.ID, Role: a.Assignee, Phase: p})
}

func (o *Orchestrator) emit(e Event) {
	if o.emitter != nil {
		o.emitter.Emit(e)
	}
}

func interrupted(cause error) *models.Failure {
	return models.WrapFailure(models.FailureInterrupted, cause, "interrupted")
}

// restore copies a recorded child's terminal state onto its replacement.
func restore(dst, src *models.Assignment) {
	dst.Iterations = src.Iterations
	if src.Result == nil {
		dst.Finish(models.Failed(src.Assignee,
			models.NewFailure(models.FailureInternal, "no recorded result for %s", src.ID)))
		return
	}
	r := *src.Result
	dst.Finish(&r)
}

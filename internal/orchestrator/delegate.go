package orchestrator

import (
	"context"
	"fmt"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/ShayCichocki/devcrew/internal/engine"
	"github.com/ShayCichocki/devcrew/pkg/models"
)

// delegate creates one child of parent per request, runs the accepted ones
// concurrently and blocks until every child is terminal. Outcomes are
// returned in request order.
func (o *Orchestrator) delegate(ctx context.Context, parent *models.Assignment, reqs []engine.Delegation) []engine.DelegationOutcome {
	outcomes := make([]engine.DelegationOutcome, len(reqs))

	var g errgroup.Group
	g.SetLimit(o.maxParallel)

	for i, d := range reqs {
		child := parent.NewChild(d.Goal, d.Role)
		outcomes[i] = engine.DelegationOutcome{
			DelegationID: d.ID,
			AssignmentID: child.ID,
			Role:         d.Role,
		}

		f := o.refuseDelegation(d.Role)
		if d.Malformed != nil {
			f = models.WrapFailure(models.FailureCapabilityViolation, d.Malformed, "malformed delegation")
		}
		if f != nil {
			o.emit(Event{Type: EventDelegationRefused, SessionID: child.SessionID, AssignmentID: child.ID, ParentID: parent.ID, Role: d.Role, Message: f.Message})
			outcomes[i].Result = o.finish(child, models.Failed(d.Role, f))
			continue
		}

		g.Go(func() error {
			defer func() {
				if r := recover(); r != nil {
					o.logger.Error("worker panicked",
						zap.String("assignment_id", child.ID),
						zap.String("role", string(child.Assignee)),
						zap.Any("panic", r))
					outcomes[i].Result = o.finish(child, models.Failed(child.Assignee,
						models.NewFailure(models.FailureInternal, "worker panic: %v", r)))
				}
			}()
			outcomes[i].Result = o.run(ctx, child, nil)
			return nil
		})
	}

	// Children report failures through their Results, never through Wait.
	_ = g.Wait()
	return outcomes
}

// refuseDelegation returns a capability violation when role cannot receive
// a delegated assignment.
func (o *Orchestrator) refuseDelegation(role models.Role) *models.Failure {
	switch {
	case role.IsManager():
		return models.NewFailure(models.FailureCapabilityViolation, "the manager cannot be delegated to")
	case !role.Valid():
		return models.NewFailure(models.FailureCapabilityViolation, "unknown role %q", role)
	}
	if _, err := o.workers.WorkerFor(role); err != nil {
		return models.WrapFailure(models.FailureCapabilityViolation, err, fmt.Sprintf("no worker for %s", role))
	}
	return nil
}

package orchestrator

import (
	"time"

	"github.com/ShayCichocki/devcrew/pkg/models"
)

// Phase is the orchestrator's state for the top-level assignment.
type Phase string

const (
	// PhaseIdle means nothing has been dispatched.
	PhaseIdle Phase = "idle"
	// PhaseDispatched means the manager holds the top-level assignment.
	PhaseDispatched Phase = "dispatched"
	// PhaseDelegating means the manager is waiting on child assignments.
	PhaseDelegating Phase = "delegating"
	// PhaseSynthesizing means the manager resumed with every child terminal.
	PhaseSynthesizing Phase = "synthesizing"
	// PhaseCompleted means the manager produced the final answer.
	PhaseCompleted Phase = "completed"
	// PhaseFailed means the session failed.
	PhaseFailed Phase = "failed"
)

// EventType represents the type of orchestrator event.
type EventType string

const (
	// EventPhaseChanged indicates the top-level phase moved.
	EventPhaseChanged EventType = "phase_changed"
	// EventAssignmentStarted indicates a worker picked up an assignment.
	EventAssignmentStarted EventType = "assignment_started"
	// EventAssignmentCompleted indicates an assignment produced a successful result.
	EventAssignmentCompleted EventType = "assignment_completed"
	// EventAssignmentFailed indicates an assignment ended with a failure.
	EventAssignmentFailed EventType = "assignment_failed"
	// EventToolCalled indicates a worker used a tool.
	EventToolCalled EventType = "tool_called"
	// EventDelegationRefused indicates a delegation target was rejected.
	EventDelegationRefused EventType = "delegation_refused"
)

// Event is published on the emitter as the session progresses.
type Event struct {
	// Type is the kind of event.
	Type EventType
	// SessionID is the owning session.
	SessionID string
	// AssignmentID is the related assignment, if applicable.
	AssignmentID string
	// ParentID is the delegating assignment, if applicable.
	ParentID string
	// Role is the worker role involved.
	Role models.Role
	// Phase is set on phase_changed events.
	Phase Phase
	// Iteration is the worker's current step.
	Iteration int
	// Kind classifies failure events.
	Kind models.FailureKind
	// Message provides additional context.
	Message string
	// Timestamp is when the event occurred.
	Timestamp time.Time
}

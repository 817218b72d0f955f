package models

import (
	"time"

	"github.com/google/uuid"
)

// Mode is the lifecycle operation a session was started with.
type Mode string

const (
	// ModeRun is a single fresh execution of an operator request.
	ModeRun Mode = "run"
	// ModeTrain repeats a canned request and checkpoints what it learns.
	ModeTrain Mode = "train"
	// ModeReplay re-executes from a persisted assignment.
	ModeReplay Mode = "replay"
	// ModeTest runs a canned request and scores each outcome.
	ModeTest Mode = "test"
)

// Valid returns true if the mode is a known value.
func (m Mode) Valid() bool {
	switch m {
	case ModeRun, ModeTrain, ModeReplay, ModeTest:
		return true
	default:
		return false
	}
}

// SessionStatus represents the current state of a session.
type SessionStatus string

const (
	// SessionRunning indicates the orchestrator is executing.
	SessionRunning SessionStatus = "running"
	// SessionCompleted indicates the manager produced a final answer.
	SessionCompleted SessionStatus = "completed"
	// SessionFailed indicates the session ended with a failure.
	SessionFailed SessionStatus = "failed"
	// SessionInterrupted indicates the operator cancelled the session.
	SessionInterrupted SessionStatus = "interrupted"
)

// Valid returns true if the status is a known value.
func (s SessionStatus) Valid() bool {
	switch s {
	case SessionRunning, SessionCompleted, SessionFailed, SessionInterrupted:
		return true
	default:
		return false
	}
}

// SessionParams holds the mode-specific inputs of a session.
type SessionParams struct {
	// Iterations is the repeat count for train and test.
	Iterations int `json:"iterations,omitempty"`
	// CheckpointFile is where train writes learned state.
	CheckpointFile string `json:"checkpoint_file,omitempty"`
	// TaskID is the assignment a replay resumes from.
	TaskID string `json:"task_id,omitempty"`
	// EvaluationModel is the model that scores test runs.
	EvaluationModel string `json:"evaluation_model,omitempty"`
	// Iteration is the 1-based index within a train or test operation.
	Iteration int `json:"iteration,omitempty"`
}

// Session is one end-to-end execution of a request.
type Session struct {
	// ID is the unique identifier for this session.
	ID string `json:"id"`
	// Mode is the lifecycle operation.
	Mode Mode `json:"mode"`
	// Params are the mode-specific inputs.
	Params SessionParams `json:"params"`
	// Request is the operator's natural-language request.
	Request string `json:"request"`
	// Root is the top-level assignment; nil until dispatch.
	Root *Assignment `json:"root,omitempty"`
	// Result is the manager's synthesized result on success.
	Result *Result `json:"result,omitempty"`
	// Failure is set when the session did not complete.
	Failure *Failure `json:"failure,omitempty"`
	// Status is the current state of the session.
	Status SessionStatus `json:"status"`
	// StartedAt is when the session was created.
	StartedAt time.Time `json:"started_at"`
	// EndedAt is when the session reached a terminal state.
	EndedAt *time.Time `json:"ended_at,omitempty"`
}

// NewSession creates a running session for request.
func NewSession(mode Mode, request string, params SessionParams) *Session {
	return &Session{
		ID:        uuid.NewString(),
		Mode:      mode,
		Params:    params,
		Request:   request,
		Status:    SessionRunning,
		StartedAt: time.Now(),
	}
}

// Complete marks the session successful with the manager's result.
func (s *Session) Complete(r *Result) {
	s.Result = r
	s.Status = SessionCompleted
	s.end()
}

// Fail marks the session failed. Interruptions get their own status.
func (s *Session) Fail(f *Failure) {
	s.Failure = f
	if f != nil && f.Kind == FailureInterrupted {
		s.Status = SessionInterrupted
	} else {
		s.Status = SessionFailed
	}
	s.end()
}

// Succeeded reports whether the session completed.
func (s *Session) Succeeded() bool {
	return s.Status == SessionCompleted
}

// Duration returns how long the session ran, or has run so far.
func (s *Session) Duration() time.Duration {
	if s.EndedAt == nil {
		return time.Since(s.StartedAt)
	}
	return s.EndedAt.Sub(s.StartedAt)
}

func (s *Session) end() {
	now := time.Now()
	s.EndedAt = &now
}

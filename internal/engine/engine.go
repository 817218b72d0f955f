// Package engine defines the reasoning-engine boundary. An Engine performs a
// single reasoning iteration for one worker; the orchestrator owns the loop,
// so budgets, capability checks and delegation rules are enforced outside
// any engine implementation.
package engine

import (
	"context"
	"encoding/json"

	"github.com/ShayCichocki/devcrew/pkg/models"
)

// Engine performs one reasoning iteration.
type Engine interface {
	Step(ctx context.Context, req Request) (*Decision, error)
}

// Evaluator scores a session outcome against the request that produced it.
type Evaluator interface {
	Score(ctx context.Context, request string, result *models.Result) (Score, error)
}

// Teammate describes a delegation target the manager may address.
type Teammate struct {
	Role        models.Role
	Title       string
	Description string
}

// Request is the input to one reasoning iteration.
type Request struct {
	SessionID    string
	AssignmentID string
	Role         models.Role
	Instructions string
	Goal         string
	Bundle       models.CapabilityBundle
	CanDelegate  bool
	Team         []Teammate
	// Budget is the worker's iteration cap; Iteration is 1-based.
	Budget     int
	Iteration  int
	Transcript []Turn
}

// Remaining returns the number of iterations left after this one.
func (r Request) Remaining() int {
	return r.Budget - r.Iteration
}

// ToolCall is a request to use one capability.
type ToolCall struct {
	ID    string
	Name  models.Capability
	Input json.RawMessage
}

// Delegation is a request to hand a sub-assignment to another role.
type Delegation struct {
	ID   string
	Role models.Role
	Goal string
	// Malformed is set when the request could not be decoded; the
	// delegation is refused with it as the cause.
	Malformed error
}

// Decision is the engine's output for one iteration. A decision with no tool
// calls and no delegations is final and Text is the answer.
type Decision struct {
	Text        string
	ToolCalls   []ToolCall
	Delegations []Delegation
}

// IsFinal reports whether the decision ends the assignment.
func (d *Decision) IsFinal() bool {
	return len(d.ToolCalls) == 0 && len(d.Delegations) == 0
}

// ToolOutcome is the result of one ToolCall, fed back on the next step.
type ToolOutcome struct {
	CallID  string
	Name    models.Capability
	Content string
	IsError bool
}

// DelegationOutcome is the terminal result of one Delegation.
type DelegationOutcome struct {
	DelegationID string
	AssignmentID string
	Role         models.Role
	Result       *models.Result
}

// Turn pairs a prior decision with what came back from acting on it.
type Turn struct {
	Decision    *Decision
	Tools       []ToolOutcome
	Delegations []DelegationOutcome
}

// Score is an evaluator's rating of one outcome.
type Score struct {
	// Value is 1-10.
	Value     int
	Rationale string
}

// Clamp returns the score with Value forced into 1-10.
func (s Score) Clamp() Score {
	switch {
	case s.Value < 1:
		s.Value = 1
	case s.Value > 10:
		s.Value = 10
	}
	return s
}

// Func adapts a function to the Engine interface.
type Func func(ctx context.Context, req Request) (*Decision, error)

// Step calls f.
func (f Func) Step(ctx context.Context, req Request) (*Decision, error) {
	return f(ctx, req)
}

// EvaluatorFunc adapts a function to the Evaluator interface.
type EvaluatorFunc func(ctx context.Context, request string, result *models.Result) (Score, error)

// Score calls f.
func (f EvaluatorFunc) Score(ctx context.Context, request string, result *models.Result) (Score, error) {
	return f(ctx, request, result)
}

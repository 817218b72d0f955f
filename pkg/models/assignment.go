package models

import (
	"time"

	"github.com/google/uuid"
)

// AssignmentStatus represents the current state of an assignment.
type AssignmentStatus string

const (
	// AssignmentPending indicates the assignment has not been picked up.
	AssignmentPending AssignmentStatus = "pending"
	// AssignmentRunning indicates a worker is reasoning on it.
	AssignmentRunning AssignmentStatus = "running"
	// AssignmentCompleted indicates the worker produced a successful result.
	AssignmentCompleted AssignmentStatus = "completed"
	// AssignmentFailed indicates the result carries a failure.
	AssignmentFailed AssignmentStatus = "failed"
)

// Valid returns true if the status is a known value.
func (s AssignmentStatus) Valid() bool {
	switch s {
	case AssignmentPending, AssignmentRunning, AssignmentCompleted, AssignmentFailed:
		return true
	default:
		return false
	}
}

// Terminal reports whether the status is final.
func (s AssignmentStatus) Terminal() bool {
	return s == AssignmentCompleted || s == AssignmentFailed
}

// Result is the terminal outcome of one assignment.
type Result struct {
	// Role is the role that produced the result.
	Role Role `json:"role"`
	// Success is true when the worker produced a final answer.
	Success bool `json:"success"`
	// Payload is the worker's final answer text.
	Payload string `json:"payload,omitempty"`
	// Failure explains an unsuccessful result.
	Failure *Failure `json:"failure,omitempty"`
}

// Succeeded returns a successful Result.
func Succeeded(role Role, payload string) *Result {
	return &Result{Role: role, Success: true, Payload: payload}
}

// Failed returns a failed Result carrying f.
func Failed(role Role, f *Failure) *Result {
	if f.Role == "" {
		f.Role = role
	}
	return &Result{Role: role, Failure: f}
}

// Assignment is a unit of work handed to exactly one worker.
type Assignment struct {
	// ID is the unique identifier for this assignment.
	ID string `json:"id"`
	// SessionID is the session that owns the assignment tree.
	SessionID string `json:"session_id"`
	// ParentID is the delegating assignment, empty for the top-level request.
	ParentID string `json:"parent_id,omitempty"`
	// Goal is the natural-language work description.
	Goal string `json:"goal"`
	// Origin is the delegating role, empty when the request came from the operator.
	Origin Role `json:"origin,omitempty"`
	// Assignee is the role that executes the assignment.
	Assignee Role `json:"assignee"`
	// Status is the current state of the assignment.
	Status AssignmentStatus `json:"status"`
	// Iterations counts the engine steps spent so far.
	Iterations int `json:"iterations"`
	// Result is set once the assignment is terminal.
	Result *Result `json:"result,omitempty"`
	// Index is the assignment's position among its parent's children.
	Index int `json:"index"`
	// Children are the sub-assignments delegated from this one, in request order.
	Children []*Assignment `json:"children,omitempty"`
	// CreatedAt is when the assignment was created.
	CreatedAt time.Time `json:"created_at"`
	// CompletedAt is when the assignment reached a terminal state.
	CompletedAt *time.Time `json:"completed_at,omitempty"`
}

// NewAssignment creates the top-level assignment of a session. It is always
// addressed to the manager.
func NewAssignment(sessionID, goal string) *Assignment {
	return &Assignment{
		ID:        uuid.NewString(),
		SessionID: sessionID,
		Goal:      goal,
		Assignee:  RoleManager,
		Status:    AssignmentPending,
		CreatedAt: time.Now(),
	}
}

// NewChild creates a sub-assignment delegated from a to assignee and appends
// it to a's children.
func (a *Assignment) NewChild(goal string, assignee Role) *Assignment {
	child := &Assignment{
		ID:        uuid.NewString(),
		SessionID: a.SessionID,
		ParentID:  a.ID,
		Goal:      goal,
		Origin:    a.Assignee,
		Assignee:  assignee,
		Status:    AssignmentPending,
		Index:     len(a.Children),
		CreatedAt: time.Now(),
	}
	a.Children = append(a.Children, child)
	return child
}

// IsTopLevel reports whether a is the operator's request.
func (a *Assignment) IsTopLevel() bool {
	return a.ParentID == ""
}

// Start marks the assignment running.
func (a *Assignment) Start() {
	a.Status = AssignmentRunning
}

// Finish records r as the assignment's single result. A second call is a no-op
// so the first terminal outcome wins.
func (a *Assignment) Finish(r *Result) {
	if a.Status.Terminal() {
		return
	}
	a.Result = r
	if r.Success {
		a.Status = AssignmentCompleted
	} else {
		a.Status = AssignmentFailed
	}
	now := time.Now()
	a.CompletedAt = &now
}

// Walk visits a and its descendants depth-first. Returning false from fn
// stops the walk.
func (a *Assignment) Walk(fn func(*Assignment) bool) bool {
	if !fn(a) {
		return false
	}
	for _, c := range a.Children {
		if !c.Walk(fn) {
			return false
		}
	}
	return true
}

// Find returns the assignment with the given id in a's subtree, or nil.
func (a *Assignment) Find(id string) *Assignment {
	var found *Assignment
	a.Walk(func(n *Assignment) bool {
		if n.ID == id {
			found = n
			return false
		}
		return true
	})
	return found
}

// RolesUsed returns the distinct roles that spent at least one iteration in
// the subtree, in first-seen order.
func (a *Assignment) RolesUsed() []Role {
	seen := make(map[Role]bool)
	var roles []Role
	a.Walk(func(n *Assignment) bool {
		if n.Iterations > 0 && !seen[n.Assignee] {
			seen[n.Assignee] = true
			roles = append(roles, n.Assignee)
		}
		return true
	})
	return roles
}

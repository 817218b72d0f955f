package models

import "time"

// IterationOutcome records one iteration of a train or test operation.
type IterationOutcome struct {
	// Iteration is the 1-based index.
	Iteration int `json:"iteration"`
	// SessionID is the session that executed the iteration.
	SessionID string `json:"session_id"`
	// Success is true when the session completed.
	Success bool `json:"success"`
	// Kind classifies a failed iteration.
	Kind FailureKind `json:"kind,omitempty"`
	// Message is the failure detail, if any.
	Message string `json:"message,omitempty"`
	// Payload is the manager's final answer.
	Payload string `json:"payload,omitempty"`
	// RolesUsed lists the roles that executed assignments.
	RolesUsed []Role `json:"roles_used,omitempty"`
	// Duration is the wall-clock time of the iteration.
	Duration time.Duration `json:"duration"`
	// Score is the evaluator's 1-10 rating (test only).
	Score int `json:"score,omitempty"`
	// Rationale is the evaluator's explanation (test only).
	Rationale string `json:"rationale,omitempty"`
}

// Checkpoint is the learned state a train operation writes after each
// successful iteration.
type Checkpoint struct {
	// OperationID groups the stored iteration records of this run.
	OperationID string `json:"operation_id,omitempty"`
	// Request is the canned training request.
	Request string `json:"request"`
	// Iterations are the successful iteration records so far.
	Iterations []IterationOutcome `json:"iterations"`
	// RoleUsage counts how often each role executed an assignment.
	RoleUsage map[Role]int `json:"role_usage"`
	// UpdatedAt is when the checkpoint was last written.
	UpdatedAt time.Time `json:"updated_at"`
}

// Record appends a successful iteration and updates role usage.
func (c *Checkpoint) Record(o IterationOutcome) {
	if c.RoleUsage == nil {
		c.RoleUsage = make(map[Role]int)
	}
	c.Iterations = append(c.Iterations, o)
	for _, r := range o.RolesUsed {
		c.RoleUsage[r]++
	}
	c.UpdatedAt = time.Now()
}

// EvaluationReport aggregates the outcomes of a test operation.
type EvaluationReport struct {
	// OperationID groups the stored iteration records of this run.
	OperationID string `json:"operation_id,omitempty"`
	// Model is the evaluation model that produced the scores.
	Model string `json:"model"`
	// Request is the canned test request.
	Request string `json:"request"`
	// Iterations are every iteration's outcome, failures included.
	Iterations []IterationOutcome `json:"iterations"`
}

// Passed returns the number of successful iterations.
func (r *EvaluationReport) Passed() int {
	n := 0
	for _, o := range r.Iterations {
		if o.Success {
			n++
		}
	}
	return n
}

// FailedCount returns the number of failed iterations.
func (r *EvaluationReport) FailedCount() int {
	return len(r.Iterations) - r.Passed()
}

// MeanScore averages the scores of scored iterations. Returns 0 when nothing
// was scored.
func (r *EvaluationReport) MeanScore() float64 {
	total, n := 0, 0
	for _, o := range r.Iterations {
		if o.Score > 0 {
			total += o.Score
			n++
		}
	}
	if n == 0 {
		return 0
	}
	return float64(total) / float64(n)
}

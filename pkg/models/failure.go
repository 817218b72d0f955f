package models

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// FailureKind classifies why an assignment or session did not succeed.
// Values are stable and safe to match on.
type FailureKind string

const (
	// FailureConfiguration is a fatal, pre-session configuration problem.
	FailureConfiguration FailureKind = "configuration_error"
	// FailureEmptyRequest means no request text was provided; nothing was dispatched.
	FailureEmptyRequest FailureKind = "empty_request"
	// FailureCapabilityViolation means a worker used a tool or delegation it was not granted.
	FailureCapabilityViolation FailureKind = "capability_violation"
	// FailureBoundedEffort means a worker exhausted its iteration budget.
	FailureBoundedEffort FailureKind = "bounded_effort_exceeded"
	// FailureEngine is an opaque error from the reasoning engine.
	FailureEngine FailureKind = "engine_error"
	// FailureInterrupted means the operator cancelled the session.
	FailureInterrupted FailureKind = "interrupted"
	// FailureUnknownTask means a replay target does not exist.
	FailureUnknownTask FailureKind = "unknown_task_identifier"
	// FailureInternal covers storage and I/O errors outside the taxonomy above.
	FailureInternal FailureKind = "internal_error"
)

// Valid returns true if the kind is a known value.
func (k FailureKind) Valid() bool {
	switch k {
	case FailureConfiguration, FailureEmptyRequest, FailureCapabilityViolation,
		FailureBoundedEffort, FailureEngine, FailureInterrupted, FailureUnknownTask, FailureInternal:
		return true
	default:
		return false
	}
}

// Failure is the structured error carried by failed Results and sessions.
type Failure struct {
	Kind         FailureKind `json:"kind"`
	Role         Role        `json:"role,omitempty"`
	AssignmentID string      `json:"assignment_id,omitempty"`
	Message      string      `json:"message"`
	Err          error       `json:"-"`
}

// NewFailure creates a Failure with a formatted message.
func NewFailure(kind FailureKind, format string, args ...any) *Failure {
	return &Failure{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// WrapFailure creates a Failure around cause.
func WrapFailure(kind FailureKind, cause error, msg string) *Failure {
	return &Failure{Kind: kind, Message: msg, Err: cause}
}

// WithRole sets the role that failed. Returns f for chaining.
func (f *Failure) WithRole(r Role) *Failure {
	f.Role = r
	return f
}

// WithAssignment sets the failing assignment id. Returns f for chaining.
func (f *Failure) WithAssignment(id string) *Failure {
	f.AssignmentID = id
	return f
}

// Error implements the error interface.
func (f *Failure) Error() string {
	var b strings.Builder
	b.WriteString(string(f.Kind))
	if f.Role != "" {
		b.WriteString(" [")
		b.WriteString(string(f.Role))
		b.WriteString("]")
	}
	if f.Message != "" {
		b.WriteString(": ")
		b.WriteString(f.Message)
	}
	if f.Err != nil {
		b.WriteString(": ")
		b.WriteString(f.Err.Error())
	}
	return b.String()
}

// Unwrap implements errors.Unwrap.
func (f *Failure) Unwrap() error {
	return f.Err
}

// Detail returns the message plus cause text, for persistence.
func (f *Failure) Detail() string {
	if f.Err == nil {
		return f.Message
	}
	if f.Message == "" {
		return f.Err.Error()
	}
	return f.Message + ": " + f.Err.Error()
}

// KindOf classifies err. Context cancellation counts as an interruption;
// any other unclassified error is internal. Returns "" for nil.
func KindOf(err error) FailureKind {
	if err == nil {
		return ""
	}
	var f *Failure
	if errors.As(err, &f) {
		return f.Kind
	}
	if errors.Is(err, context.Canceled) {
		return FailureInterrupted
	}
	return FailureInternal
}

// AsFailure returns err as a *Failure, classifying it with KindOf when it is
// not one already. Returns nil for nil.
func AsFailure(err error) *Failure {
	if err == nil {
		return nil
	}
	var f *Failure
	if errors.As(err, &f) {
		return f
	}
	return WrapFailure(KindOf(err), err, "")
}

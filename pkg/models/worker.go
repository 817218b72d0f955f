package models

// Worker is the read-only configuration for one role on the crew.
// Workers are built once per session config and shared by reference.
type Worker struct {
	// Role is the worker's role on the crew.
	Role Role `json:"role"`
	// Description is the one-line summary shown in the roster.
	Description string `json:"description"`
	// Instructions is the standing brief handed to the engine on every step.
	Instructions string `json:"instructions,omitempty"`
	// Bundle is the set of tools the worker may use.
	Bundle CapabilityBundle `json:"bundle"`
	// Budget is the maximum number of reasoning iterations per assignment.
	Budget int `json:"budget"`
	// CanDelegate is true only for the manager.
	CanDelegate bool `json:"can_delegate"`
}

// Can reports whether the worker holds capability c.
func (w *Worker) Can(c Capability) bool {
	return w.Bundle.Has(c)
}

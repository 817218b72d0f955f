package state

import (
	"io"

	"github.com/ShayCichocki/devcrew/pkg/models"
)

// SessionStore handles session persistence.
type SessionStore interface {
	SaveSession(s *models.Session) error
	GetSession(id string) (*models.Session, error)
	ListSessions(limit int) ([]models.Session, error)
}

// AssignmentStore handles assignment tree persistence.
type AssignmentStore interface {
	SaveAssignment(a *models.Assignment) error
	SaveTree(root *models.Assignment) error
	GetAssignment(id string) (*models.Assignment, error)
	LoadTree(id string) (*models.Assignment, error)
	ListAssignments(sessionID string) ([]*models.Assignment, error)
}

// IterationStore handles train and test iteration records.
type IterationStore interface {
	RecordIteration(r IterationRecord) error
	ListIterations(operationID string) ([]IterationRecord, error)
}

// Migrator handles database schema migrations.
type Migrator interface {
	// Migrate applies all pending schema migrations.
	Migrate() error
}

// Store is everything the session lifecycle needs from persistence.
type Store interface {
	SessionStore
	AssignmentStore
	IterationStore
}

// StateStore is a Store that owns its connection.
type StateStore interface {
	io.Closer
	Migrator
	Store
}

// Compile-time verification that DB implements all interfaces.
var (
	_ StateStore      = (*DB)(nil)
	_ SessionStore    = (*DB)(nil)
	_ AssignmentStore = (*DB)(nil)
	_ IterationStore  = (*DB)(nil)
)

package state

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/ShayCichocki/devcrew/pkg/models"
)

const upsertAssignment = `
	INSERT INTO assignments (id, session_id, parent_id, idx, goal, origin, assignee, status, iterations,
		success, payload, failure_kind, failure_role, failure_message, created_at, completed_at)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	ON CONFLICT(id) DO UPDATE SET
		status = excluded.status,
		iterations = excluded.iterations,
		success = excluded.success,
		payload = excluded.payload,
		failure_kind = excluded.failure_kind,
		failure_role = excluded.failure_role,
		failure_message = excluded.failure_message,
		completed_at = excluded.completed_at
`

func assignmentArgs(a *models.Assignment) []any {
	var (
		success                      sql.NullBool
		payload, kind, role, message sql.NullString
	)
	if r := a.Result; r != nil {
		success = sql.NullBool{Bool: r.Success, Valid: true}
		payload = nullString(r.Payload)
		if r.Failure != nil {
			kind = nullString(string(r.Failure.Kind))
			role = nullString(string(r.Failure.Role))
			message = nullString(r.Failure.Detail())
		}
	}
	return []any{
		a.ID, a.SessionID, nullString(a.ParentID), a.Index, a.Goal, nullString(string(a.Origin)),
		string(a.Assignee), string(a.Status), a.Iterations,
		success, payload, kind, role, message,
		formatTime(a.CreatedAt), formatNullableTime(a.CompletedAt),
	}
}

// SaveAssignment inserts or updates a single assignment row. Children are
// not written. Safe for concurrent use.
func (db *DB) SaveAssignment(a *models.Assignment) error {
	if _, err := db.Exec(upsertAssignment, assignmentArgs(a)...); err != nil {
		return fmt.Errorf("save assignment %s: %w", a.ID, err)
	}
	return nil
}

// SaveTree writes root and every descendant in one transaction.
func (db *DB) SaveTree(root *models.Assignment) error {
	return db.Transaction(func(tx *sql.Tx) error {
		var err error
		root.Walk(func(a *models.Assignment) bool {
			if _, err = tx.Exec(upsertAssignment, assignmentArgs(a)...); err != nil {
				err = fmt.Errorf("save assignment %s: %w", a.ID, err)
				return false
			}
			return true
		})
		return err
	})
}

const assignmentColumns = `id, session_id, parent_id, idx, goal, origin, assignee, status, iterations,
	success, payload, failure_kind, failure_role, failure_message, created_at, completed_at`

// GetAssignment retrieves one assignment by ID, without children.
// Returns ErrNotFound if it does not exist.
func (db *DB) GetAssignment(id string) (*models.Assignment, error) {
	row := db.QueryRow(`SELECT `+assignmentColumns+` FROM assignments WHERE id = ?`, id)
	a, err := scanAssignment(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get assignment: %w", err)
	}
	return a, nil
}

// ListAssignments returns every assignment of a session, parents before
// children and siblings in delegation order.
func (db *DB) ListAssignments(sessionID string) ([]*models.Assignment, error) {
	rows, err := db.Query(`
		SELECT `+assignmentColumns+` FROM assignments
		WHERE session_id = ?
		ORDER BY parent_id IS NOT NULL, idx, created_at
	`, sessionID)
	if err != nil {
		return nil, fmt.Errorf("list assignments: %w", err)
	}
	defer rows.Close()

	var out []*models.Assignment
	for rows.Next() {
		a, err := scanAssignment(rows)
		if err != nil {
			return nil, fmt.Errorf("scan assignment: %w", err)
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

// LoadTree rebuilds the assignment tree rooted at id.
// Returns ErrNotFound if the root does not exist.
func (db *DB) LoadTree(id string) (*models.Assignment, error) {
	root, err := db.GetAssignment(id)
	if err != nil {
		return nil, err
	}

	all, err := db.ListAssignments(root.SessionID)
	if err != nil {
		return nil, err
	}

	byID := make(map[string]*models.Assignment, len(all))
	for _, a := range all {
		byID[a.ID] = a
	}
	byID[root.ID] = root
	for _, a := range all {
		if a.ID == root.ID || a.ParentID == "" {
			continue
		}
		if parent, ok := byID[a.ParentID]; ok {
			parent.Children = append(parent.Children, a)
		}
	}
	return root, nil
}

func scanAssignment(row scanner) (*models.Assignment, error) {
	var (
		a                                models.Assignment
		parentID, origin                 sql.NullString
		assignee, status, created        string
		success                          sql.NullBool
		payload, kind, failRole, message sql.NullString
		completed                        sql.NullString
	)
	if err := row.Scan(&a.ID, &a.SessionID, &parentID, &a.Index, &a.Goal, &origin, &assignee, &status,
		&a.Iterations, &success, &payload, &kind, &failRole, &message, &created, &completed); err != nil {
		return nil, err
	}

	a.ParentID = parentID.String
	a.Origin = models.Role(origin.String)
	a.Assignee = models.Role(assignee)
	a.Status = models.AssignmentStatus(status)
	a.CreatedAt, _ = parseTime(created)
	a.CompletedAt = parseNullableTime(completed)

	if success.Valid {
		a.Result = &models.Result{Role: a.Assignee, Success: success.Bool, Payload: payload.String}
		if kind.Valid {
			a.Result.Failure = &models.Failure{
				Kind:         models.FailureKind(kind.String),
				Role:         models.Role(failRole.String),
				AssignmentID: a.ID,
				Message:      message.String,
			}
		}
	}
	return &a, nil
}

package state

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/ShayCichocki/devcrew/pkg/models"
)

// SaveSession inserts or updates a session row. The assignment tree is
// stored separately with SaveTree or SaveAssignment.
func (db *DB) SaveSession(s *models.Session) error {
	params, err := json.Marshal(s.Params)
	if err != nil {
		return fmt.Errorf("encode session params: %w", err)
	}

	var rootID, payload, kind, message sql.NullString
	if s.Root != nil {
		rootID = nullString(s.Root.ID)
	}
	if s.Result != nil {
		payload = nullString(s.Result.Payload)
	}
	if s.Failure != nil {
		kind = nullString(string(s.Failure.Kind))
		message = nullString(s.Failure.Detail())
	}

	_, err = db.Exec(`
		INSERT INTO sessions (id, mode, request, params, root_id, status, payload, failure_kind, failure_message, started_at, ended_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			request = excluded.request,
			params = excluded.params,
			root_id = excluded.root_id,
			status = excluded.status,
			payload = excluded.payload,
			failure_kind = excluded.failure_kind,
			failure_message = excluded.failure_message,
			ended_at = excluded.ended_at
	`, s.ID, string(s.Mode), s.Request, string(params), rootID, string(s.Status),
		payload, kind, message, formatTime(s.StartedAt), formatNullableTime(s.EndedAt))
	if err != nil {
		return fmt.Errorf("save session: %w", err)
	}
	return nil
}

const sessionColumns = `id, mode, request, params, root_id, status, payload, failure_kind, failure_message, started_at, ended_at`

// GetSession retrieves a session by ID, without its assignment tree.
// Returns ErrNotFound if the session does not exist.
func (db *DB) GetSession(id string) (*models.Session, error) {
	row := db.QueryRow(`SELECT `+sessionColumns+` FROM sessions WHERE id = ?`, id)
	s, err := scanSession(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get session: %w", err)
	}
	return s, nil
}

// ListSessions returns the most recent sessions first. A limit of 0 or less
// returns every session.
func (db *DB) ListSessions(limit int) ([]models.Session, error) {
	query := `SELECT ` + sessionColumns + ` FROM sessions ORDER BY started_at DESC`
	var args []any
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	defer rows.Close()

	var sessions []models.Session
	for rows.Next() {
		s, err := scanSession(rows)
		if err != nil {
			return nil, fmt.Errorf("scan session: %w", err)
		}
		sessions = append(sessions, *s)
	}
	return sessions, rows.Err()
}

// CountSessions returns the number of stored sessions.
func (db *DB) CountSessions() (int, error) {
	var n int
	if err := db.QueryRow(`SELECT COUNT(*) FROM sessions`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count sessions: %w", err)
	}
	return n, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanSession(row scanner) (*models.Session, error) {
	var (
		s                              models.Session
		mode, status, params, started  string
		rootID, payload, kind, message sql.NullString
		ended                          sql.NullString
	)
	if err := row.Scan(&s.ID, &mode, &s.Request, &params, &rootID, &status,
		&payload, &kind, &message, &started, &ended); err != nil {
		return nil, err
	}

	s.Mode = models.Mode(mode)
	s.Status = models.SessionStatus(status)
	if err := json.Unmarshal([]byte(params), &s.Params); err != nil {
		return nil, fmt.Errorf("decode session params: %w", err)
	}
	s.StartedAt, _ = parseTime(started)
	s.EndedAt = parseNullableTime(ended)

	if rootID.Valid {
		s.Root = &models.Assignment{ID: rootID.String, SessionID: s.ID}
	}
	if s.Status == models.SessionCompleted {
		s.Result = models.Succeeded(models.RoleManager, payload.String)
	}
	if kind.Valid {
		s.Failure = &models.Failure{Kind: models.FailureKind(kind.String), Message: message.String}
	}
	return &s, nil
}

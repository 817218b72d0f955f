package state

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/ShayCichocki/devcrew/pkg/models"
)

// IterationRecord is one stored train or test iteration.
type IterationRecord struct {
	// OperationID groups the iterations of one train or test invocation.
	OperationID string
	// Mode is train or test.
	Mode models.Mode
	// Model is the evaluation model (test only).
	Model string
	// CheckpointFile is where train wrote the checkpoint (train only).
	CheckpointFile string
	// Outcome is the iteration's result.
	Outcome models.IterationOutcome
}

// RecordIteration stores one iteration outcome.
func (db *DB) RecordIteration(r IterationRecord) error {
	roles, err := json.Marshal(r.Outcome.RolesUsed)
	if err != nil {
		return fmt.Errorf("encode roles: %w", err)
	}

	_, err = db.Exec(`
		INSERT INTO iterations (operation_id, mode, iteration, session_id, success, kind, message, payload,
			roles_used, duration_ns, score, rationale, model, checkpoint_file, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, r.OperationID, string(r.Mode), r.Outcome.Iteration, nullString(r.Outcome.SessionID), r.Outcome.Success,
		nullString(string(r.Outcome.Kind)), nullString(r.Outcome.Message), nullString(r.Outcome.Payload),
		string(roles), int64(r.Outcome.Duration), r.Outcome.Score, nullString(r.Outcome.Rationale),
		nullString(r.Model), nullString(r.CheckpointFile), formatTime(time.Now()))
	if err != nil {
		return fmt.Errorf("record iteration %d: %w", r.Outcome.Iteration, err)
	}
	return nil
}

// ListIterations returns an operation's iterations in order.
func (db *DB) ListIterations(operationID string) ([]IterationRecord, error) {
	rows, err := db.Query(`
		SELECT operation_id, mode, iteration, session_id, success, kind, message, payload,
			roles_used, duration_ns, score, rationale, model, checkpoint_file
		FROM iterations WHERE operation_id = ? ORDER BY iteration
	`, operationID)
	if err != nil {
		return nil, fmt.Errorf("list iterations: %w", err)
	}
	defer rows.Close()

	var out []IterationRecord
	for rows.Next() {
		var (
			r                                 IterationRecord
			mode, roles                       string
			sessionID, kind, message, payload sql.NullString
			rationale, model, checkpoint      sql.NullString
			durationNS                        int64
		)
		if err := rows.Scan(&r.OperationID, &mode, &r.Outcome.Iteration, &sessionID, &r.Outcome.Success,
			&kind, &message, &payload, &roles, &durationNS, &r.Outcome.Score, &rationale, &model, &checkpoint); err != nil {
			return nil, fmt.Errorf("scan iteration: %w", err)
		}
		r.Mode = models.Mode(mode)
		r.Model = model.String
		r.CheckpointFile = checkpoint.String
		r.Outcome.SessionID = sessionID.String
		r.Outcome.Kind = models.FailureKind(kind.String)
		r.Outcome.Message = message.String
		r.Outcome.Payload = payload.String
		r.Outcome.Rationale = rationale.String
		r.Outcome.Duration = time.Duration(durationNS)
		if err := json.Unmarshal([]byte(roles), &r.Outcome.RolesUsed); err != nil {
			return nil, fmt.Errorf("decode roles: %w", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

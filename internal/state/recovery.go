package state

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/ShayCichocki/devcrew/pkg/models"
)

// RecoverStale marks sessions and assignments left running by a process
// that exited without finishing them as interrupted. It returns the number
// of sessions recovered. Call it once at startup before any session runs.
func (db *DB) RecoverStale() (int64, error) {
	now := formatTime(time.Now())
	var recovered int64

	err := db.Transaction(func(tx *sql.Tx) error {
		res, err := tx.Exec(`
			UPDATE sessions
			SET status = ?, failure_kind = ?, failure_message = ?, ended_at = ?
			WHERE status = ?
		`, string(models.SessionInterrupted), string(models.FailureInterrupted),
			"process exited before the session finished", now, string(models.SessionRunning))
		if err != nil {
			return fmt.Errorf("recover sessions: %w", err)
		}
		recovered, _ = res.RowsAffected()

		_, err = tx.Exec(`
			UPDATE assignments
			SET status = ?, success = 0, failure_kind = ?, failure_message = ?, completed_at = ?
			WHERE status IN (?, ?)
		`, string(models.AssignmentFailed), string(models.FailureInterrupted),
			"process exited before the assignment finished", now,
			string(models.AssignmentPending), string(models.AssignmentRunning))
		if err != nil {
			return fmt.Errorf("recover assignments: %w", err)
		}
		return nil
	})
	return recovered, err
}

// PurgeOldSessions deletes sessions started more than olderThan ago, with
// their assignments. Iteration records keep their rows with the session
// reference cleared. Returns the number of sessions deleted.
func (db *DB) PurgeOldSessions(olderThan time.Duration) (int64, error) {
	res, err := db.Exec(`DELETE FROM sessions WHERE started_at < ?`, formatTime(time.Now().Add(-olderThan)))
	if err != nil {
		return 0, fmt.Errorf("purge old sessions: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("get rows affected: %w", err)
	}
	return n, nil
}

package lifecycle

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/ShayCichocki/devcrew/internal/state"
	"github.com/ShayCichocki/devcrew/pkg/models"
)

// TrainOptions configures a training operation.
type TrainOptions struct {
	// Iterations is the number of runs. Zero means one.
	Iterations int
	// CheckpointFile receives the learned state after every successful
	// iteration. Empty keeps the checkpoint in the state store only.
	CheckpointFile string
}

// Train runs TrainRequest opts.Iterations times. After each successful
// iteration the checkpoint is rewritten. The first failed iteration aborts
// the operation; the returned checkpoint still holds every earlier
// iteration.
func (m *Manager) Train(ctx context.Context, opts TrainOptions) (*models.Checkpoint, error) {
	n, err := iterations(opts.Iterations)
	if err != nil {
		return nil, err
	}

	opID := newOperationID()
	log := m.logger.With(zap.String("operation_id", opID), zap.String("mode", string(models.ModeTrain)))
	cp := &models.Checkpoint{OperationID: opID, Request: TrainRequest, RoleUsage: make(map[models.Role]int)}

	for i := 1; i <= n; i++ {
		if f := interruptedBy(ctx); f != nil {
			return cp, f
		}

		sess := models.NewSession(models.ModeTrain, TrainRequest, models.SessionParams{
			Iterations:     n,
			CheckpointFile: opts.CheckpointFile,
			Iteration:      i,
		})
		runErr := m.execute(ctx, sess, func(ctx context.Context) error {
			_, err := m.runner.Execute(ctx, sess)
			return err
		})

		outcome := outcomeOf(i, sess)
		m.recordIteration(state.IterationRecord{
			OperationID:    opID,
			Mode:           models.ModeTrain,
			CheckpointFile: opts.CheckpointFile,
			Outcome:        outcome,
		})

		if runErr != nil {
			log.Warn("training aborted", zap.Int("iteration", i), zap.Int("of", n), zap.Error(runErr))
			return cp, runErr
		}

		cp.Record(outcome)
		if opts.CheckpointFile != "" {
			if err := WriteCheckpoint(opts.CheckpointFile, cp); err != nil {
				return cp, models.WrapFailure(models.FailureInternal, err, "write checkpoint")
			}
		}
		log.Info("training iteration completed", zap.Int("iteration", i), zap.Int("of", n))
	}
	return cp, nil
}

// WriteCheckpoint writes cp to path as JSON. The file is replaced
// atomically so a crash never leaves a partial checkpoint.
func WriteCheckpoint(path string, cp *models.Checkpoint) error {
	data, err := json.MarshalIndent(cp, "", "  ")
	if err != nil {
		return fmt.Errorf("encode checkpoint: %w", err)
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("create checkpoint directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp checkpoint: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write temp checkpoint: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp checkpoint: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("rename checkpoint: %w", err)
	}
	return nil
}

// ReadCheckpoint loads a checkpoint written by WriteCheckpoint.
func ReadCheckpoint(path string) (*models.Checkpoint, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read checkpoint: %w", err)
	}
	var cp models.Checkpoint
	if err := json.Unmarshal(data, &cp); err != nil {
		return nil, fmt.Errorf("decode checkpoint: %w", err)
	}
	return &cp, nil
}

package lifecycle

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/ShayCichocki/devcrew/internal/state"
	"github.com/ShayCichocki/devcrew/pkg/models"
)

// TestOptions configures a test operation.
type TestOptions struct {
	// Iterations is the number of runs. Zero means one.
	Iterations int
	// EvaluationModel names the model that scores each run. Empty uses the
	// manager's default.
	EvaluationModel string
}

// Test runs TestRequest opts.Iterations times and scores every successful
// run. Failed iterations are recorded in the report and do not stop the
// operation; an interruption does, returning the partial report.
func (m *Manager) Test(ctx context.Context, opts TestOptions) (*models.EvaluationReport, error) {
	n, err := iterations(opts.Iterations)
	if err != nil {
		return nil, err
	}

	model := opts.EvaluationModel
	if model == "" {
		model = m.evaluationModel
	}
	if m.evaluators == nil {
		return nil, models.NewFailure(models.FailureConfiguration, "no evaluator configured")
	}
	evaluator, err := m.evaluators(model)
	if err != nil {
		return nil, models.WrapFailure(models.FailureConfiguration, err, "create evaluator for "+model)
	}

	opID := newOperationID()
	log := m.logger.With(zap.String("operation_id", opID), zap.String("mode", string(models.ModeTest)))
	report := &models.EvaluationReport{OperationID: opID, Model: model, Request: TestRequest}

	for i := 1; i <= n; i++ {
		if f := interruptedBy(ctx); f != nil {
			return report, f
		}

		sess := models.NewSession(models.ModeTest, TestRequest, models.SessionParams{
			Iterations:      n,
			EvaluationModel: model,
			Iteration:       i,
		})
		runErr := m.execute(ctx, sess, func(ctx context.Context) error {
			_, err := m.runner.Execute(ctx, sess)
			return err
		})

		outcome := outcomeOf(i, sess)
		if runErr == nil {
			score, err := evaluator.Score(ctx, TestRequest, sess.Result)
			switch {
			case err == nil:
				score = score.Clamp()
				outcome.Score = score.Value
				outcome.Rationale = score.Rationale
			case errors.Is(err, context.Canceled) || ctx.Err() != nil:
				runErr = models.WrapFailure(models.FailureInterrupted, err, "interrupted during evaluation")
			default:
				log.Warn("evaluation failed", zap.Int("iteration", i), zap.Error(err))
				outcome.Rationale = "evaluation failed: " + err.Error()
			}
		}

		report.Iterations = append(report.Iterations, outcome)
		m.recordIteration(state.IterationRecord{
			OperationID: opID,
			Mode:        models.ModeTest,
			Model:       model,
			Outcome:     outcome,
		})

		if models.KindOf(runErr) == models.FailureInterrupted {
			log.Info("test interrupted", zap.Int("iteration", i), zap.Int("of", n))
			return report, runErr
		}
		log.Info("test iteration finished",
			zap.Int("iteration", i),
			zap.Bool("success", outcome.Success),
			zap.Int("score", outcome.Score))
	}
	return report, nil
}

package lifecycle

import (
	"go.uber.org/zap"

	"github.com/ShayCichocki/devcrew/internal/engine"
)

// EvaluatorFactory returns an Evaluator bound to the named model.
type EvaluatorFactory func(model string) (engine.Evaluator, error)

// Option configures a Manager. Use With* functions to create Options.
type Option func(*Manager)

// WithLogger sets the structured logger.
func WithLogger(l *zap.Logger) Option {
	return func(m *Manager) {
		if l != nil {
			m.logger = l
		}
	}
}

// WithEvaluators sets how test operations obtain their evaluator.
func WithEvaluators(f EvaluatorFactory) Option {
	return func(m *Manager) { m.evaluators = f }
}

// WithEvaluationModel sets the model used when a test operation names none.
func WithEvaluationModel(model string) Option {
	return func(m *Manager) { m.evaluationModel = model }
}

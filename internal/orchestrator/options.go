package orchestrator

import (
	"go.uber.org/zap"

	"github.com/ShayCichocki/devcrew/pkg/models"
)

// DefaultMaxParallel bounds how many sibling delegations run at once.
const DefaultMaxParallel = 3

// Recorder persists assignment progress. SaveAssignment is called from the
// goroutine executing the assignment and must be safe for concurrent use.
type Recorder interface {
	SaveAssignment(a *models.Assignment) error
}

// Option configures an Orchestrator. Use With* functions to create Options.
type Option func(*orchestratorOptions)

type orchestratorOptions struct {
	maxParallel int
	logger      *zap.Logger
	recorder    Recorder
	emitter     *EventEmitter
}

// WithMaxParallel sets the maximum number of concurrently running sibling
// delegations. Values below 1 are ignored.
func WithMaxParallel(n int) Option {
	return func(o *orchestratorOptions) {
		if n > 0 {
			o.maxParallel = n
		}
	}
}

// WithLogger sets the structured logger.
func WithLogger(l *zap.Logger) Option {
	return func(o *orchestratorOptions) { o.logger = l }
}

// WithRecorder persists every assignment transition.
func WithRecorder(r Recorder) Option {
	return func(o *orchestratorOptions) { o.recorder = r }
}

// WithEmitter sets the event emitter progress is published on.
func WithEmitter(e *EventEmitter) Option {
	return func(o *orchestratorOptions) { o.emitter = e }
}

func defaultOptions() *orchestratorOptions {
	return &orchestratorOptions{
		maxParallel: DefaultMaxParallel,
		logger:      zap.NewNop(),
	}
}

package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/anthropics/anthropic-sdk-go"
	"go.uber.org/zap"

	"github.com/ShayCichocki/devcrew/internal/api"
	"github.com/ShayCichocki/devcrew/internal/config"
	"github.com/ShayCichocki/devcrew/internal/crew"
	"github.com/ShayCichocki/devcrew/internal/engine"
	"github.com/ShayCichocki/devcrew/internal/lifecycle"
	"github.com/ShayCichocki/devcrew/internal/logging"
	"github.com/ShayCichocki/devcrew/internal/orchestrator"
	"github.com/ShayCichocki/devcrew/internal/signals"
	"github.com/ShayCichocki/devcrew/internal/state"
	"github.com/ShayCichocki/devcrew/internal/tools"
	"github.com/ShayCichocki/devcrew/pkg/models"
)

// app holds everything a command needs, built once per invocation.
type app struct {
	cfg     *config.Config
	root    string
	logger  *zap.Logger
	db      *state.DB
	crew    *crew.Crew
	manager *lifecycle.Manager
	emitter *orchestrator.EventEmitter
	watcher *signals.Watcher

	progressDone chan struct{}
}

// openApp loads configuration, opens the session store and builds the
// crew. It does not touch credentials; see app.engage.
func openApp() (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, models.WrapFailure(models.FailureConfiguration, err, "load config")
	}
	root, err := cfg.ProjectRoot()
	if err != nil {
		return nil, models.WrapFailure(models.FailureConfiguration, err, "")
	}
	if info, err := os.Stat(root); err != nil || !info.IsDir() {
		return nil, models.NewFailure(models.FailureConfiguration, "project path %s is not a directory", root)
	}

	logger, err := logging.New(logging.Options{
		Level:   cfg.Log.Level,
		File:    cfg.LogPath(root),
		Verbose: verbose,
	})
	if err != nil {
		return nil, models.WrapFailure(models.FailureConfiguration, err, "set up logging")
	}

	roster := crew.DefaultRoster()
	if path := cfg.RosterPath(root); path != "" {
		if roster, err = crew.LoadRoster(path); err != nil {
			logger.Sync()
			return nil, models.WrapFailure(models.FailureConfiguration, err, "")
		}
	}
	c, err := crew.New(roster)
	if err != nil {
		logger.Sync()
		return nil, err
	}

	db, err := state.Open(cfg.StatePath(root))
	if err != nil {
		logger.Sync()
		return nil, models.WrapFailure(models.FailureInternal, err, "open session store")
	}
	if err := db.Migrate(); err != nil {
		db.Close()
		logger.Sync()
		return nil, models.WrapFailure(models.FailureInternal, err, "migrate session store")
	}
	if n, err := db.RecoverStale(); err != nil {
		logger.Warn("recover stale sessions", zap.Error(err))
	} else if n > 0 {
		logger.Info("marked stale sessions interrupted", zap.Int64("count", n))
	}

	logger.Debug("devcrew started",
		zap.String("project", root),
		zap.String("state", db.Path()),
		zap.String("model", cfg.Anthropic.Model))

	return &app{cfg: cfg, root: root, logger: logger, db: db, crew: c}, nil
}

// engage checks credentials and wires the engine, tool box, orchestrator
// and lifecycle manager.
func (a *app) engage() error {
	if err := config.RequireCredentials(a.cfg); err != nil {
		return models.WrapFailure(models.FailureConfiguration, err,
			"set ANTHROPIC_API_KEY or anthropic.api_key in "+config.GetUserConfigPath())
	}
	apiKey, err := config.GetAPIKey(a.cfg)
	if err != nil && !errors.Is(err, config.ErrNoAPIKey) {
		return models.WrapFailure(models.FailureConfiguration, err, "")
	}

	client, err := api.NewClient(api.ClientConfig{
		Model:         anthropic.Model(a.cfg.Anthropic.Model),
		APIKey:        apiKey,
		Temperature:   a.cfg.Anthropic.Temperature,
		MaxTokens:     a.cfg.Anthropic.MaxTokens,
		UseAWSBedrock: a.cfg.Anthropic.Bedrock,
		AWSRegion:     a.cfg.Anthropic.AWSRegion,
		AWSProfile:    a.cfg.Anthropic.AWSProfile,
	})
	if err != nil {
		return models.WrapFailure(models.FailureConfiguration, err, "create API client")
	}

	box, err := tools.NewLocal(a.root,
		tools.WithShell(a.cfg.Tools.Shell...),
		tools.WithTimeout(a.cfg.Tools.ExecTimeout))
	if err != nil {
		return models.WrapFailure(models.FailureConfiguration, err, "open project")
	}
	a.logger.Debug("tool box ready",
		zap.String("root", box.Root()),
		zap.Duration("exec_timeout", a.cfg.Tools.ExecTimeout))

	a.emitter = orchestrator.NewEventEmitter(256, a.logger)
	orch := orchestrator.New(a.crew, api.NewEngine(client, a.logger), box,
		orchestrator.WithMaxParallel(a.cfg.Orchestrator.MaxParallel),
		orchestrator.WithLogger(a.logger),
		orchestrator.WithRecorder(a.db),
		orchestrator.WithEmitter(a.emitter))

	a.manager = lifecycle.New(a.db, orch,
		lifecycle.WithLogger(a.logger),
		lifecycle.WithEvaluationModel(a.cfg.Evaluation.Model),
		lifecycle.WithEvaluators(func(model string) (engine.Evaluator, error) {
			return api.NewEvaluator(client, model), nil
		}))
	return nil
}

// interruptible returns a context cancelled by SIGINT, SIGTERM or a kill
// file in the project's signals directory. Call stop when the operation
// returns.
func (a *app) interruptible(parent context.Context) (ctx context.Context, stop func()) {
	ctx, stopNotify := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	ctx, cancel := context.WithCancel(ctx)

	watcher, err := signals.New(a.root, a.logger)
	if err != nil {
		a.logger.Warn("kill signal watcher unavailable", zap.Error(err))
	} else {
		watcher.Start(cancel)
		a.watcher = watcher
	}

	return ctx, func() {
		if watcher != nil {
			watcher.Close()
			if err := signals.Clear(a.root); err != nil {
				a.logger.Debug("clear kill signal", zap.Error(err))
			}
		}
		cancel()
		stopNotify()
	}
}

// killNotice tells the operator when the kill file, rather than a signal,
// stopped the operation.
func (a *app) killNotice(w io.Writer) {
	if a.watcher != nil && a.watcher.Killed() {
		fmt.Fprintln(w, "Stopped by kill signal (devcrew stop).")
	}
}

func (a *app) Close() error {
	var errs []error
	if a.emitter != nil {
		a.emitter.Close()
		if a.progressDone != nil {
			<-a.progressDone
		}
	}
	if err := a.db.Close(); err != nil {
		errs = append(errs, fmt.Errorf("close session store: %w", err))
	}
	_ = a.logger.Sync()
	return errors.Join(errs...)
}

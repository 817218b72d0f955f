// Package signals lets an operator stop a running session from outside the
// process by creating a kill file under .devcrew/signals.
package signals

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// KillFile is the name of the stop signal file.
const KillFile = "kill"

// pollInterval backs up the watcher in case an event is missed or no
// watcher could be created.
const pollInterval = time.Second

// Dir returns the signals directory of a project.
func Dir(projectRoot string) string {
	return filepath.Join(projectRoot, ".devcrew", "signals")
}

// Watcher cancels a context when the kill file appears.
type Watcher struct {
	dir    string
	logger *zap.Logger

	watcher *fsnotify.Watcher
	killed  atomic.Bool

	once sync.Once
	done chan struct{}
	wg   sync.WaitGroup
}

// New creates a Watcher for projectRoot. A kill file left over from an
// earlier session is removed so it does not stop this one.
func New(projectRoot string, logger *zap.Logger) (*Watcher, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	dir := Dir(projectRoot)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create signals directory: %w", err)
	}
	if err := os.Remove(filepath.Join(dir, KillFile)); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("clear stale kill signal: %w", err)
	}

	w := &Watcher{dir: dir, logger: logger, done: make(chan struct{})}

	fw, err := fsnotify.NewWatcher()
	if err != nil {
		logger.Debug("file watcher unavailable, polling for kill signal", zap.Error(err))
		return w, nil
	}
	if err := fw.Add(dir); err != nil {
		fw.Close()
		logger.Debug("cannot watch signals directory, polling", zap.Error(err))
		return w, nil
	}
	w.watcher = fw
	return w, nil
}

// Start watches for the kill file until Close, calling cancel once when it
// appears.
func (w *Watcher) Start(cancel context.CancelFunc) {
	w.wg.Add(1)
	go func() {
		defer w.wg.Done()
		w.watch(cancel)
	}()
}

func (w *Watcher) watch(cancel context.CancelFunc) {
	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()

	var (
		events <-chan fsnotify.Event
		errs   <-chan error
	)
	if w.watcher != nil {
		events = w.watcher.Events
		errs = w.watcher.Errors
	}

	for {
		select {
		case <-w.done:
			return
		case event, ok := <-events:
			if !ok {
				events = nil
				continue
			}
			if filepath.Base(event.Name) == KillFile && event.Op&(fsnotify.Create|fsnotify.Write) != 0 {
				w.fire(cancel)
				return
			}
		case err, ok := <-errs:
			if !ok {
				errs = nil
				continue
			}
			w.logger.Debug("signal watcher error", zap.Error(err))
		case <-ticker.C:
			if w.present() {
				w.fire(cancel)
				return
			}
		}
	}
}

func (w *Watcher) fire(cancel context.CancelFunc) {
	w.killed.Store(true)
	w.logger.Info("kill signal received", zap.String("path", filepath.Join(w.dir, KillFile)))
	cancel()
}

func (w *Watcher) present() bool {
	_, err := os.Stat(filepath.Join(w.dir, KillFile))
	return err == nil
}

// Killed reports whether the kill file stopped the session.
func (w *Watcher) Killed() bool {
	return w.killed.Load()
}

// Close stops watching and waits for the watch goroutine to exit.
func (w *Watcher) Close() error {
	var err error
	w.once.Do(func() {
		close(w.done)
		w.wg.Wait()
		if w.watcher != nil {
			err = w.watcher.Close()
		}
	})
	return err
}

// SendKill creates the kill file for projectRoot.
func SendKill(projectRoot string) error {
	dir := Dir(projectRoot)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("create signals directory: %w", err)
	}
	return os.WriteFile(filepath.Join(dir, KillFile), []byte(time.Now().Format(time.RFC3339)), 0644)
}

// Clear removes the kill file.
func Clear(projectRoot string) error {
	err := os.Remove(filepath.Join(Dir(projectRoot), KillFile))
	if err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

package tools

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"
)

const maxOutput = 30000

// ErrOutsideProject is returned for paths that resolve outside the project root.
var ErrOutsideProject = errors.New("path is outside the project")

// Local is a Box rooted at a project directory on the local filesystem.
type Local struct {
	root    string
	shell   []string
	timeout time.Duration
}

// LocalOption configures a Local box.
type LocalOption func(*Local)

// WithShell sets the interpreter used by ExecuteCode. The code is passed as
// the final argument. An empty argv keeps the default.
func WithShell(argv ...string) LocalOption {
	return func(l *Local) {
		if len(argv) > 0 {
			l.shell = argv
		}
	}
}

// WithTimeout bounds each ExecuteCode call. Zero keeps the default.
func WithTimeout(d time.Duration) LocalOption {
	return func(l *Local) {
		if d > 0 {
			l.timeout = d
		}
	}
}

// NewLocal creates a box rooted at root.
func NewLocal(root string, opts ...LocalOption) (*Local, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("resolve project path: %w", err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		return nil, fmt.Errorf("project path: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("project path %s is not a directory", abs)
	}

	l := &Local{
		root:    abs,
		shell:   []string{"bash", "-c"},
		timeout: 2 * time.Minute,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l, nil
}

// Root returns the project directory.
func (l *Local) Root() string {
	return l.root
}

// ReadFile returns the file's contents with cat -n style line numbers.
func (l *Local) ReadFile(ctx context.Context, path string) (string, error) {
	p, err := l.resolve(path)
	if err != nil {
		return "", err
	}
	content, err := os.ReadFile(p)
	if err != nil {
		return "", fmt.Errorf("read file: %w", err)
	}

	var b strings.Builder
	for i, line := range strings.Split(string(content), "\n") {
		fmt.Fprintf(&b, "%6d\t%s\n", i+1, line)
	}
	return truncate(b.String()), nil
}

// ListDirectory lists a directory's entries, directories suffixed with "/".
func (l *Local) ListDirectory(ctx context.Context, path string) (string, error) {
	p, err := l.resolve(path)
	if err != nil {
		return "", err
	}
	entries, err := os.ReadDir(p)
	if err != nil {
		return "", fmt.Errorf("read directory: %w", err)
	}

	var b strings.Builder
	for _, entry := range entries {
		info, _ := entry.Info()
		switch {
		case info == nil:
			fmt.Fprintf(&b, "? %s\n", entry.Name())
		case entry.IsDir():
			fmt.Fprintf(&b, "d %s/\n", entry.Name())
		default:
			fmt.Fprintf(&b, "- %s (%d bytes)\n", entry.Name(), info.Size())
		}
	}
	return b.String(), nil
}

// WriteFile creates or overwrites a file, creating parent directories.
func (l *Local) WriteFile(ctx context.Context, path, content string) (string, error) {
	p, err := l.resolve(path)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(filepath.Dir(p), 0755); err != nil {
		return "", fmt.Errorf("create directory: %w", err)
	}
	if err := os.WriteFile(p, []byte(content), 0644); err != nil {
		return "", fmt.Errorf("write file: %w", err)
	}
	return fmt.Sprintf("Successfully wrote %d bytes to %s", len(content), path), nil
}

// ExecuteCode runs code with the configured shell in the project directory
// and returns combined output.
func (l *Local) ExecuteCode(ctx context.Context, code string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, l.timeout)
	defer cancel()

	argv := append(append([]string(nil), l.shell...), code)
	cmd := exec.CommandContext(ctx, argv[0], argv[1:]...)
	cmd.Dir = l.root

	output, err := cmd.CombinedOutput()
	if err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return "", fmt.Errorf("execution timed out after %v:\n%s", l.timeout, truncate(string(output)))
		}
		return "", fmt.Errorf("%s\nerror: %w", truncate(string(output)), err)
	}
	return truncate(string(output)), nil
}

func (l *Local) resolve(path string) (string, error) {
	if path == "" {
		path = "."
	}
	p := path
	if !filepath.IsAbs(p) {
		p = filepath.Join(l.root, p)
	}
	p = filepath.Clean(p)

	rel, err := filepath.Rel(l.root, p)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("%s: %w", path, ErrOutsideProject)
	}
	return p, nil
}

func truncate(s string) string {
	if len(s) > maxOutput {
		return s[:maxOutput] + "\n... (output truncated)"
	}
	return s
}

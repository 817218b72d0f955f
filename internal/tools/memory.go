package tools

import (
	"context"
	"fmt"
	"path"
	"sort"
	"strings"
	"sync"
)

// Memory is an in-memory Box for tests and dry runs. Files live in a flat
// map keyed by slash-separated path; ExecuteCode echoes the code it was given.
type Memory struct {
	mu    sync.Mutex
	files map[string]string
	calls []string
}

// NewMemory creates a Memory box seeded with files.
func NewMemory(files map[string]string) *Memory {
	m := &Memory{files: make(map[string]string, len(files))}
	for k, v := range files {
		m.files[path.Clean(k)] = v
	}
	return m
}

// Calls returns the operations performed so far, e.g. "read_file:wallet.go".
func (m *Memory) Calls() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.calls...)
}

// File returns a file's content and whether it exists.
func (m *Memory) File(p string) (string, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.files[path.Clean(p)]
	return c, ok
}

func (m *Memory) ReadFile(ctx context.Context, p string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, "read_file:"+p)
	c, ok := m.files[path.Clean(p)]
	if !ok {
		return "", fmt.Errorf("read file: %s: no such file", p)
	}
	return c, nil
}

func (m *Memory) ListDirectory(ctx context.Context, p string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, "list_directory:"+p)

	dir := path.Clean(p)
	prefix := dir + "/"
	if dir == "." || dir == "/" {
		prefix = ""
	}
	var names []string
	for name := range m.files {
		if strings.HasPrefix(name, prefix) {
			names = append(names, strings.TrimPrefix(name, prefix))
		}
	}
	sort.Strings(names)
	return strings.Join(names, "\n"), nil
}

func (m *Memory) WriteFile(ctx context.Context, p, content string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, "write_file:"+p)
	m.files[path.Clean(p)] = content
	return fmt.Sprintf("Successfully wrote %d bytes to %s", len(content), p), nil
}

func (m *Memory) ExecuteCode(ctx context.Context, code string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, "execute_code")
	return "ran: " + code, nil
}

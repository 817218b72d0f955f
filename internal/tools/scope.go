package tools

import (
	"context"

	"github.com/ShayCichocki/devcrew/pkg/models"
)

// scoped wraps a Box and refuses every operation whose capability is not in
// the bundle. The inner box is never reached for a refused call.
type scoped struct {
	inner  Box
	bundle models.CapabilityBundle
}

// Scope returns a Box that only permits the operations in bundle.
func Scope(box Box, bundle models.CapabilityBundle) Box {
	return &scoped{inner: box, bundle: bundle}
}

func (s *scoped) check(c models.Capability) error {
	if s.bundle.Has(c) {
		return nil
	}
	return models.NewFailure(models.FailureCapabilityViolation,
		"tool %s is not in the granted bundle [%s]", c, s.bundle)
}

func (s *scoped) ReadFile(ctx context.Context, path string) (string, error) {
	if err := s.check(models.CapReadFile); err != nil {
		return "", err
	}
	return s.inner.ReadFile(ctx, path)
}

func (s *scoped) ListDirectory(ctx context.Context, path string) (string, error) {
	if err := s.check(models.CapListDirectory); err != nil {
		return "", err
	}
	return s.inner.ListDirectory(ctx, path)
}

func (s *scoped) WriteFile(ctx context.Context, path, content string) (string, error) {
	if err := s.check(models.CapWriteFile); err != nil {
		return "", err
	}
	return s.inner.WriteFile(ctx, path, content)
}

func (s *scoped) ExecuteCode(ctx context.Context, code string) (string, error) {
	if err := s.check(models.CapExecuteCode); err != nil {
		return "", err
	}
	return s.inner.ExecuteCode(ctx, code)
}

// Package tools implements the capability-scoped tool boundary workers act
// through: reading and listing the target project, writing files and
// executing code.
package tools

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/ShayCichocki/devcrew/pkg/models"
)

// Box is the set of tool operations available to workers.
type Box interface {
	ReadFile(ctx context.Context, path string) (string, error)
	ListDirectory(ctx context.Context, path string) (string, error)
	WriteFile(ctx context.Context, path, content string) (string, error)
	ExecuteCode(ctx context.Context, code string) (string, error)
}

// Result is the outcome of one tool call, as reported back to the engine.
type Result struct {
	Content string
	IsError bool
}

// Invoke decodes input for the named capability and runs it against box.
// Errors from the tool are reported in the Result so the worker can react;
// only refusals by a scoped box are returned as an error.
func Invoke(ctx context.Context, box Box, name models.Capability, input json.RawMessage) (Result, error) {
	var params struct {
		Path    string `json:"path"`
		Content string `json:"content"`
		Code    string `json:"code"`
	}
	if len(input) > 0 {
		if err := json.Unmarshal(input, &params); err != nil {
			return Result{Content: fmt.Sprintf("Invalid parameters: %v", err), IsError: true}, nil
		}
	}

	var (
		out string
		err error
	)
	switch name {
	case models.CapReadFile:
		out, err = box.ReadFile(ctx, params.Path)
	case models.CapListDirectory:
		out, err = box.ListDirectory(ctx, params.Path)
	case models.CapWriteFile:
		out, err = box.WriteFile(ctx, params.Path, params.Content)
	case models.CapExecuteCode:
		out, err = box.ExecuteCode(ctx, params.Code)
	default:
		return Result{}, models.NewFailure(models.FailureCapabilityViolation, "unknown tool %q", name)
	}

	if err != nil {
		if IsRefused(err) || ctx.Err() != nil {
			return Result{}, err
		}
		return Result{Content: err.Error(), IsError: true}, nil
	}
	return Result{Content: out}, nil
}

// IsRefused reports whether err is a capability refusal from a scoped box.
func IsRefused(err error) bool {
	return models.KindOf(err) == models.FailureCapabilityViolation
}

package tools

import (
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/ShayCichocki/devcrew/pkg/models"
)

func TestScope_RefusesOutOfBundle(t *testing.T) {
	inner := NewMemory(map[string]string{"a.go": "package a"})
	box := Scope(inner, models.NewBundle(models.CapReadFile, models.CapListDirectory))
	ctx := context.Background()

	if _, err := box.ReadFile(ctx, "a.go"); err != nil {
		t.Errorf("ReadFile() error = %v", err)
	}
	if _, err := box.ListDirectory(ctx, "."); err != nil {
		t.Errorf("ListDirectory() error = %v", err)
	}

	_, err := box.WriteFile(ctx, "b.go", "x")
	if !IsRefused(err) {
		t.Errorf("WriteFile() error = %v, want capability violation", err)
	}
	_, err = box.ExecuteCode(ctx, "rm -rf /")
	if !IsRefused(err) {
		t.Errorf("ExecuteCode() error = %v, want capability violation", err)
	}

	// Refused calls never reach the inner box.
	for _, call := range inner.Calls() {
		if call == "execute_code" || call == "write_file:b.go" {
			t.Errorf("inner box saw refused call %q", call)
		}
	}
	if _, ok := inner.File("b.go"); ok {
		t.Error("refused write reached the inner box")
	}
}

func TestScope_EmptyBundleRefusesEverything(t *testing.T) {
	box := Scope(NewMemory(nil), models.CapabilityBundle{})
	ctx := context.Background()

	for _, c := range models.AllCapabilities() {
		_, err := Invoke(ctx, box, c, json.RawMessage(`{"path":"x"}`))
		if !IsRefused(err) {
			t.Errorf("Invoke(%s) error = %v, want refusal", c, err)
		}
	}
}

func TestInvoke(t *testing.T) {
	mem := NewMemory(map[string]string{"src/auth.go": "func Login() {}"})
	box := Scope(mem, models.NewBundle(models.AllCapabilities()...))
	ctx := context.Background()

	tests := []struct {
		name    string
		cap     models.Capability
		input   string
		want    string
		isError bool
	}{
		{"read", models.CapReadFile, `{"path":"src/auth.go"}`, "func Login() {}", false},
		{"read missing", models.CapReadFile, `{"path":"nope.go"}`, "no such file", true},
		{"list", models.CapListDirectory, `{"path":"src"}`, "auth.go", false},
		{"write", models.CapWriteFile, `{"path":"out.txt","content":"hi"}`, "wrote 2 bytes", false},
		{"execute", models.CapExecuteCode, `{"code":"print(1)"}`, "ran: print(1)", false},
		{"bad json", models.CapReadFile, `{"path":`, "Invalid parameters", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := Invoke(ctx, box, tt.cap, json.RawMessage(tt.input))
			if err != nil {
				t.Fatalf("Invoke() error = %v", err)
			}
			if res.IsError != tt.isError {
				t.Errorf("IsError = %v, want %v (%s)", res.IsError, tt.isError, res.Content)
			}
			if !strings.Contains(res.Content, tt.want) {
				t.Errorf("Content = %q, want it to contain %q", res.Content, tt.want)
			}
		})
	}
}

func TestInvoke_UnknownTool(t *testing.T) {
	_, err := Invoke(context.Background(), NewMemory(nil), models.Capability("deploy"), nil)
	if !IsRefused(err) {
		t.Errorf("Invoke(deploy) error = %v, want capability violation", err)
	}
}

package api

import (
	"testing"

	"github.com/ShayCichocki/devcrew/internal/engine"
	"github.com/ShayCichocki/devcrew/pkg/models"
)

func toolNames(t *testing.T, bundle models.CapabilityBundle, canDelegate bool, team []engine.Teammate) []string {
	t.Helper()
	var names []string
	for _, tool := range ToolDefinitions(bundle, canDelegate, team) {
		if tool.OfTool == nil {
			t.Fatal("expected a custom tool definition")
		}
		names = append(names, tool.OfTool.Name)
	}
	return names
}

func TestToolDefinitions_FollowBundle(t *testing.T) {
	tests := []struct {
		name   string
		bundle models.CapabilityBundle
		want   []string
	}{
		{"analyzer", models.NewBundle(models.CapReadFile, models.CapListDirectory), []string{"read_file", "list_directory"}},
		{"implementer", models.NewBundle(models.CapExecuteCode, models.CapReadFile, models.CapWriteFile),
			[]string{"read_file", "write_file", "execute_code"}},
		{"empty", models.NewBundle(), nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := toolNames(t, tt.bundle, false, nil)
			if len(got) != len(tt.want) {
				t.Fatalf("tools = %v, want %v", got, tt.want)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("tools[%d] = %q, want %q", i, got[i], tt.want[i])
				}
			}
		})
	}
}

func TestToolDefinitions_DelegateToolListsTeam(t *testing.T) {
	team := []engine.Teammate{
		{Role: models.RoleAnalyzer, Title: "Code Analyzer"},
		{Role: models.RoleSecuritySpecialist, Title: "Security Specialist"},
	}
	tools := ToolDefinitions(models.NewBundle(models.CapReadFile), true, team)

	if len(tools) != 2 {
		t.Fatalf("expected read_file and %s, got %d tools", DelegateTool, len(tools))
	}
	delegate := tools[1].OfTool
	if delegate.Name != DelegateTool {
		t.Fatalf("last tool = %q, want %q", delegate.Name, DelegateTool)
	}

	role, ok := delegate.InputSchema.Properties.(map[string]any)["role"].(map[string]any)
	if !ok {
		t.Fatal("delegate tool has no role property")
	}
	enum, ok := role["enum"].([]string)
	if !ok || len(enum) != 2 || enum[0] != "analyzer" || enum[1] != "security_specialist" {
		t.Errorf("role enum = %v", role["enum"])
	}
	if len(delegate.InputSchema.Required) != 2 {
		t.Errorf("Required = %v, want role and goal", delegate.InputSchema.Required)
	}
}

func TestToolDefinitions_NoDelegateWithoutTeam(t *testing.T) {
	for _, name := range toolNames(t, models.NewBundle(models.CapReadFile), true, nil) {
		if name == DelegateTool {
			t.Error("delegate tool offered with an empty team")
		}
	}
	team := []engine.Teammate{{Role: models.RoleAnalyzer}}
	for _, name := range toolNames(t, models.NewBundle(models.CapReadFile), false, team) {
		if name == DelegateTool {
			t.Error("delegate tool offered to a worker that cannot delegate")
		}
	}
}

func TestToolDefinitions_HaveDescriptions(t *testing.T) {
	all := models.NewBundle(models.AllCapabilities()...)
	for _, tool := range ToolDefinitions(all, false, nil) {
		if tool.OfTool.Description.Value == "" {
			t.Errorf("tool %q has no description", tool.OfTool.Name)
		}
	}
}

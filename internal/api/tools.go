package api

import (
	"github.com/anthropics/anthropic-sdk-go"

	"github.com/ShayCichocki/devcrew/internal/engine"
	"github.com/ShayCichocki/devcrew/pkg/models"
)

// DelegateTool is the tool name the manager uses to hand work to a
// specialist.
const DelegateTool = "delegate_work"

func stringProp(description string) map[string]any {
	return map[string]any{"type": "string", "description": description}
}

var capabilityTools = map[models.Capability]anthropic.ToolParam{
	models.CapReadFile: {
		Name:        string(models.CapReadFile),
		Description: anthropic.String("Read a file from the project. Returns file contents with line numbers."),
		InputSchema: anthropic.ToolInputSchemaParam{
			Properties: map[string]any{
				"path": stringProp("Path to the file, relative to the project root"),
			},
			Required: []string{"path"},
		},
	},
	models.CapListDirectory: {
		Name:        string(models.CapListDirectory),
		Description: anthropic.String("List the contents of a project directory."),
		InputSchema: anthropic.ToolInputSchemaParam{
			Properties: map[string]any{
				"path": stringProp("Directory path relative to the project root; empty for the root"),
			},
		},
	},
	models.CapWriteFile: {
		Name:        string(models.CapWriteFile),
		Description: anthropic.String("Write content to a project file. Creates parent directories if needed."),
		InputSchema: anthropic.ToolInputSchemaParam{
			Properties: map[string]any{
				"path":    stringProp("Path to the file, relative to the project root"),
				"content": stringProp("Full content to write"),
			},
			Required: []string{"path", "content"},
		},
	},
	models.CapExecuteCode: {
		Name:        string(models.CapExecuteCode),
		Description: anthropic.String("Execute a shell command in the project root and return its combined output."),
		InputSchema: anthropic.ToolInputSchemaParam{
			Properties: map[string]any{
				"code": stringProp("The command to run"),
			},
			Required: []string{"code"},
		},
	},
}

// ToolDefinitions returns the tool schemas for one worker: one tool per
// capability in bundle, plus delegate_work when the worker may delegate.
// The delegate tool's role enum lists exactly the team.
func ToolDefinitions(bundle models.CapabilityBundle, canDelegate bool, team []engine.Teammate) []anthropic.ToolUnionParam {
	var tools []anthropic.ToolUnionParam
	for _, c := range models.AllCapabilities() {
		if !bundle.Has(c) {
			continue
		}
		t := capabilityTools[c]
		tools = append(tools, anthropic.ToolUnionParam{OfTool: &t})
	}

	if canDelegate && len(team) > 0 {
		roles := make([]string, len(team))
		for i, m := range team {
			roles[i] = string(m.Role)
		}
		tools = append(tools, anthropic.ToolUnionParam{
			OfTool: &anthropic.ToolParam{
				Name: DelegateTool,
				Description: anthropic.String("Hand a specific sub-task to one specialist on your team. " +
					"Call it several times in one turn to run specialists in parallel. " +
					"Each result comes back as the tool result."),
				InputSchema: anthropic.ToolInputSchemaParam{
					Properties: map[string]any{
						"role": map[string]any{
							"type":        "string",
							"enum":        roles,
							"description": "The specialist to delegate to",
						},
						"goal": stringProp("What the specialist must do, including WHAT and WHERE"),
					},
					Required: []string{"role", "goal"},
				},
			},
		})
	}
	return tools
}

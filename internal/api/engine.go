package api

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"go.uber.org/zap"

	"github.com/ShayCichocki/devcrew/internal/engine"
	"github.com/ShayCichocki/devcrew/pkg/models"
)

// Engine performs one reasoning iteration per Messages API call.
type Engine struct {
	client *Client
	logger *zap.Logger
}

// NewEngine creates an Engine backed by client.
func NewEngine(client *Client, logger *zap.Logger) *Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Engine{client: client, logger: logger}
}

// Step implements engine.Engine.
func (e *Engine) Step(ctx context.Context, req engine.Request) (*engine.Decision, error) {
	resp, err := e.client.send(ctx,
		SystemPrompt(req),
		Messages(req),
		ToolDefinitions(req.Bundle, req.CanDelegate, req.Team))
	if err != nil {
		return nil, fmt.Errorf("API call failed: %w", err)
	}

	e.logger.Debug("engine step",
		zap.String("assignment_id", req.AssignmentID),
		zap.String("role", string(req.Role)),
		zap.Int("iteration", req.Iteration),
		zap.String("stop_reason", string(resp.StopReason)),
		zap.Int64("input_tokens", resp.Usage.InputTokens),
		zap.Int64("output_tokens", resp.Usage.OutputTokens))

	dec := decode(resp)
	for _, d := range dec.Delegations {
		if d.Malformed != nil {
			e.logger.Warn("malformed delegation",
				zap.String("assignment_id", req.AssignmentID),
				zap.String("tool_use_id", d.ID),
				zap.Error(d.Malformed))
		}
	}
	return dec, nil
}

// decode converts a response into a Decision. A response with no tool use
// is final.
func decode(resp *anthropic.Message) *engine.Decision {
	dec := &engine.Decision{}
	var text strings.Builder
	for _, block := range resp.Content {
		switch variant := block.AsAny().(type) {
		case anthropic.TextBlock:
			text.WriteString(variant.Text)
		case anthropic.ToolUseBlock:
			if variant.Name == DelegateTool {
				var in struct {
					Role string `json:"role"`
					Goal string `json:"goal"`
				}
				d := engine.Delegation{ID: variant.ID}
				if err := json.Unmarshal(variant.Input, &in); err != nil {
					d.Malformed = fmt.Errorf("decode %s input: %w", DelegateTool, err)
				}
				d.Goal = in.Goal
				d.Role = models.Role(in.Role)
				// Unknown roles are kept as-is so the orchestrator refuses them.
				if role, err := models.ParseRole(in.Role); err == nil {
					d.Role = role
				}
				dec.Delegations = append(dec.Delegations, d)
				continue
			}
			dec.ToolCalls = append(dec.ToolCalls, engine.ToolCall{
				ID:    variant.ID,
				Name:  models.Capability(variant.Name),
				Input: json.RawMessage(variant.Input),
			})
		}
	}
	dec.Text = strings.TrimSpace(text.String())
	return dec
}

// SystemPrompt describes the worker's role, team and remaining effort.
func SystemPrompt(req engine.Request) string {
	var b strings.Builder
	fmt.Fprintf(&b, "You are the %s on a software development crew.\n", req.Role.Title())
	if req.Instructions != "" {
		b.WriteString("\n")
		b.WriteString(strings.TrimSpace(req.Instructions))
		b.WriteString("\n")
	}

	if req.CanDelegate && len(req.Team) > 0 {
		b.WriteString("\n## Your team\n")
		for _, m := range req.Team {
			fmt.Fprintf(&b, "- %s (%s): %s\n", m.Title, m.Role, m.Description)
		}
		fmt.Fprintf(&b, "\nDelegate focused sub-tasks with the %s tool. Specialists cannot delegate further. ", DelegateTool)
		b.WriteString("When every result you need is in, write the final report yourself.\n")
	} else {
		b.WriteString("\nYou work alone on this assignment and cannot delegate.\n")
	}

	if !req.Bundle.IsEmpty() {
		fmt.Fprintf(&b, "\nTools available: %s.\n", strings.ReplaceAll(req.Bundle.String(), ",", ", "))
	}
	fmt.Fprintf(&b, "\nThis is step %d of at most %d. ", req.Iteration, req.Budget)
	if req.Remaining() == 0 {
		b.WriteString("No steps remain after this one: answer now without using tools.\n")
	} else {
		b.WriteString("Reply with your final answer as plain text, without tool calls, once you have it.\n")
	}
	return b.String()
}

// Messages rebuilds the conversation for req: the assignment, then each
// prior decision followed by what came back from acting on it.
func Messages(req engine.Request) []anthropic.MessageParam {
	messages := []anthropic.MessageParam{
		anthropic.NewUserMessage(anthropic.NewTextBlock(req.Goal)),
	}

	for _, turn := range req.Transcript {
		if turn.Decision == nil {
			continue
		}
		var assistant []anthropic.ContentBlockParamUnion
		if turn.Decision.Text != "" {
			assistant = append(assistant, anthropic.NewTextBlock(turn.Decision.Text))
		}
		for _, call := range turn.Decision.ToolCalls {
			assistant = append(assistant, anthropic.NewToolUseBlock(call.ID, rawInput(call.Input), string(call.Name)))
		}
		for _, d := range turn.Decision.Delegations {
			assistant = append(assistant, anthropic.NewToolUseBlock(d.ID,
				map[string]string{"role": string(d.Role), "goal": d.Goal}, DelegateTool))
		}
		if len(assistant) == 0 {
			continue
		}
		messages = append(messages, anthropic.NewAssistantMessage(assistant...))

		results := toolResults(turn)
		if len(results) > 0 {
			messages = append(messages, anthropic.NewUserMessage(results...))
		}
	}
	return messages
}

// toolResults answers every tool use of turn in order. A call with no
// recorded outcome is reported as not executed.
func toolResults(turn engine.Turn) []anthropic.ContentBlockParamUnion {
	tools := make(map[string]engine.ToolOutcome, len(turn.Tools))
	for _, t := range turn.Tools {
		tools[t.CallID] = t
	}
	delegations := make(map[string]engine.DelegationOutcome, len(turn.Delegations))
	for _, d := range turn.Delegations {
		delegations[d.DelegationID] = d
	}

	var out []anthropic.ContentBlockParamUnion
	for _, call := range turn.Decision.ToolCalls {
		t, ok := tools[call.ID]
		if !ok {
			out = append(out, anthropic.NewToolResultBlock(call.ID, "not executed", true))
			continue
		}
		content := t.Content
		if content == "" {
			content = "(no output)"
		}
		out = append(out, anthropic.NewToolResultBlock(call.ID, content, t.IsError))
	}
	for _, d := range turn.Decision.Delegations {
		o, ok := delegations[d.ID]
		if !ok || o.Result == nil {
			out = append(out, anthropic.NewToolResultBlock(d.ID, "no result", true))
			continue
		}
		content, isErr := describeResult(o.Result)
		out = append(out, anthropic.NewToolResultBlock(d.ID, content, isErr))
	}
	return out
}

func describeResult(r *models.Result) (string, bool) {
	if r.Success {
		if r.Payload == "" {
			return "(empty answer)", false
		}
		return r.Payload, false
	}
	if r.Failure == nil {
		return "failed", true
	}
	return fmt.Sprintf("%s failed (%s): %s", r.Role.Title(), r.Failure.Kind, r.Failure.Detail()), true
}

func rawInput(in json.RawMessage) any {
	if len(in) == 0 {
		return map[string]any{}
	}
	return in
}

package api

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"

	"github.com/ShayCichocki/devcrew/internal/engine"
	"github.com/ShayCichocki/devcrew/pkg/models"
)

const evaluatorSystem = `You evaluate the output of a software development crew.
Rate how well the final report satisfies the request on a scale of 1 to 10,
where 10 is specific, correct and actionable and 1 is unrelated or empty.

Respond with ONLY a JSON object (no markdown, no explanation):
{"score": <1-10>, "rationale": "<one or two sentences>"}`

// Evaluator scores session results with a model.
type Evaluator struct {
	client *Client
}

// NewEvaluator creates an Evaluator that sends requests to model. An empty
// model uses the client's.
func NewEvaluator(client *Client, model string) *Evaluator {
	return &Evaluator{client: client.WithModel(model)}
}

// Model returns the evaluation model.
func (e *Evaluator) Model() string {
	return string(e.client.Model())
}

// Score implements engine.Evaluator.
func (e *Evaluator) Score(ctx context.Context, request string, result *models.Result) (engine.Score, error) {
	var payload string
	if result != nil {
		payload = result.Payload
	}
	prompt := fmt.Sprintf("## Request\n%s\n\n## Final report\n%s", request, payload)

	resp, err := e.client.send(ctx, evaluatorSystem,
		[]anthropic.MessageParam{anthropic.NewUserMessage(anthropic.NewTextBlock(prompt))}, nil)
	if err != nil {
		return engine.Score{}, fmt.Errorf("evaluation call failed: %w", err)
	}

	var text strings.Builder
	for _, block := range resp.Content {
		if variant, ok := block.AsAny().(anthropic.TextBlock); ok {
			text.WriteString(variant.Text)
		}
	}
	return ParseScore(text.String())
}

var scorePattern = regexp.MustCompile(`(?i)score"?\s*[:=]\s*(\d+)`)

// ParseScore reads an evaluator reply. It accepts the requested JSON object,
// optionally fenced in markdown, and falls back to a "score: N" phrase.
func ParseScore(output string) (engine.Score, error) {
	output = strings.TrimSpace(output)
	output = strings.TrimPrefix(output, "```json")
	output = strings.TrimPrefix(output, "```")
	output = strings.TrimSuffix(output, "```")
	output = strings.TrimSpace(output)

	var parsed struct {
		Score     int    `json:"score"`
		Rationale string `json:"rationale"`
	}
	if err := json.Unmarshal([]byte(output), &parsed); err == nil && parsed.Score != 0 {
		return engine.Score{Value: parsed.Score, Rationale: parsed.Rationale}.Clamp(), nil
	}

	m := scorePattern.FindStringSubmatch(output)
	if m == nil {
		return engine.Score{}, fmt.Errorf("no score in evaluator reply %q", truncate(output, 200))
	}
	n, _ := strconv.Atoi(m[1])
	return engine.Score{Value: n, Rationale: output}.Clamp(), nil
}

func truncate(s string, n int) string {
	if len(s) > n {
		return s[:n] + "..."
	}
	return s
}

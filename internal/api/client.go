// Package api adapts the Anthropic Messages API to devcrew's reasoning
// engine and evaluator boundaries.
package api

import (
	"context"
	"fmt"
	"os"
	"sync"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/bedrock"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/aws/aws-sdk-go-v2/config"
)

// DefaultModel is used when ClientConfig.Model is empty.
const DefaultModel = anthropic.ModelClaudeSonnet4_20250514

// DefaultMaxTokens caps each response when ClientConfig.MaxTokens is zero.
const DefaultMaxTokens = 4096

// Client wraps the Anthropic SDK client with token tracking.
type Client struct {
	inner       anthropic.Client
	model       anthropic.Model
	temperature float64
	maxTokens   int64
	bedrock     bool
	tracker     *TokenTracker
}

// ClientConfig contains configuration for creating a new Client.
type ClientConfig struct {
	// Model is the Claude model to use.
	Model anthropic.Model
	// APIKey is the Anthropic API key. If empty, uses ANTHROPIC_API_KEY env var.
	APIKey string
	// Temperature applies to every request.
	Temperature float64
	// MaxTokens caps each response.
	MaxTokens int
	// UseAWSBedrock indicates whether to use AWS Bedrock instead of direct API.
	UseAWSBedrock bool
	// AWSRegion is the AWS region for Bedrock (e.g., "us-west-2").
	AWSRegion string
	// AWSProfile is the optional AWS profile name to use.
	AWSProfile string
	// RequestOptions are appended to the SDK options (base URL, retries).
	RequestOptions []option.RequestOption
}

// NewClient creates a client for the Anthropic API, or for Bedrock when
// cfg.UseAWSBedrock is set. No request is sent until the first step.
func NewClient(cfg ClientConfig) (*Client, error) {
	opts, err := requestOptions(cfg)
	if err != nil {
		return nil, err
	}

	c := &Client{
		inner:       anthropic.NewClient(append(opts, cfg.RequestOptions...)...),
		model:       cfg.Model,
		temperature: cfg.Temperature,
		maxTokens:   int64(cfg.MaxTokens),
		bedrock:     cfg.UseAWSBedrock,
		tracker:     NewTokenTracker(),
	}
	if c.model == "" {
		c.model = DefaultModel
	}
	if c.bedrock {
		c.model = translateModelForBedrock(c.model)
	}
	if c.maxTokens <= 0 {
		c.maxTokens = DefaultMaxTokens
	}
	return c, nil
}

// requestOptions picks the credential source: AWS for Bedrock, otherwise
// the configured key or ANTHROPIC_API_KEY.
func requestOptions(cfg ClientConfig) ([]option.RequestOption, error) {
	if cfg.UseAWSBedrock {
		var load []func(*config.LoadOptions) error
		if cfg.AWSRegion != "" {
			load = append(load, config.WithRegion(cfg.AWSRegion))
		}
		if cfg.AWSProfile != "" {
			load = append(load, config.WithSharedConfigProfile(cfg.AWSProfile))
		}
		return []option.RequestOption{bedrock.WithLoadDefaultConfig(context.Background(), load...)}, nil
	}

	apiKey := cfg.APIKey
	if apiKey == "" {
		apiKey = os.Getenv("ANTHROPIC_API_KEY")
	}
	if apiKey == "" {
		return nil, fmt.Errorf("ANTHROPIC_API_KEY environment variable is not set")
	}
	return []option.RequestOption{option.WithAPIKey(apiKey)}, nil
}

// bedrockProfiles maps API model ids to Bedrock cross-region inference
// profiles.
var bedrockProfiles = map[anthropic.Model]anthropic.Model{
	anthropic.ModelClaudeSonnet4_20250514:   "us.anthropic.claude-sonnet-4-20250514-v1:0",
	anthropic.ModelClaudeSonnet4_5_20250929: "us.anthropic.claude-sonnet-4-5-20250929-v1:0",
	anthropic.ModelClaudeHaiku4_5_20251001:  "us.anthropic.claude-haiku-4-5-20251001-v1:0",
	anthropic.ModelClaudeOpus4_1_20250805:   "us.anthropic.claude-opus-4-1-20250805-v1:0",
	anthropic.ModelClaude3_7Sonnet20250219:  "us.anthropic.claude-3-7-sonnet-20250219-v1:0",
	anthropic.ModelClaude3_5Haiku20241022:   "us.anthropic.claude-3-5-haiku-20241022-v1:0",
}

// translateModelForBedrock returns the inference profile for model. Unknown
// names pass through: they may already be Bedrock ids.
func translateModelForBedrock(model anthropic.Model) anthropic.Model {
	if profile, ok := bedrockProfiles[model]; ok {
		return profile
	}
	return model
}

// Model returns the configured model name.
func (c *Client) Model() anthropic.Model {
	return c.model
}

// WithModel returns a copy of c that sends requests to model. The SDK
// client and token tracker are shared.
func (c *Client) WithModel(model string) *Client {
	cp := *c
	if model != "" {
		cp.model = anthropic.Model(model)
		if c.bedrock {
			cp.model = translateModelForBedrock(cp.model)
		}
	}
	return &cp
}

// Tracker returns the token tracker for this client.
func (c *Client) Tracker() *TokenTracker {
	return c.tracker
}

// send makes one Messages API call with the client's model and sampling
// settings and records token usage.
func (c *Client) send(ctx context.Context, system string, messages []anthropic.MessageParam, tools []anthropic.ToolUnionParam) (*anthropic.Message, error) {
	params := anthropic.MessageNewParams{
		Model:       c.model,
		MaxTokens:   c.maxTokens,
		Temperature: anthropic.Float(c.temperature),
		Messages:    messages,
		Tools:       tools,
	}
	if system != "" {
		params.System = []anthropic.TextBlockParam{{Text: system}}
	}

	resp, err := c.inner.Messages.New(ctx, params)
	if err != nil {
		return nil, err
	}
	c.tracker.Add(resp.Usage.InputTokens, resp.Usage.OutputTokens)
	return resp, nil
}

// TokenTracker tracks token usage across API calls. Safe for concurrent use.
type TokenTracker struct {
	mu        sync.Mutex
	inputTok  int64
	outputTok int64
	calls     int
}

// NewTokenTracker creates a new token tracker.
func NewTokenTracker() *TokenTracker {
	return &TokenTracker{}
}

// Add records token usage from an API call.
func (t *TokenTracker) Add(input, output int64) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.inputTok += input
	t.outputTok += output
	t.calls++
}

// Total returns the total input and output tokens tracked.
func (t *TokenTracker) Total() (input, output int64) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.inputTok, t.outputTok
}

// Calls returns the number of API calls made.
func (t *TokenTracker) Calls() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.calls
}

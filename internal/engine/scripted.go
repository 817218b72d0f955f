package engine

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/ShayCichocki/devcrew/pkg/models"
)

// Reply is one scripted engine response.
type Reply struct {
	Decision *Decision
	Err      error
	// Block makes the step wait for context cancellation.
	Block bool
}

// Answer replies with a final answer.
func Answer(text string) Reply {
	return Reply{Decision: &Decision{Text: text}}
}

// UseTool replies with a single tool call.
func UseTool(name models.Capability, input string) Reply {
	return Reply{Decision: &Decision{ToolCalls: []ToolCall{{
		ID:    "tool-" + string(name),
		Name:  name,
		Input: json.RawMessage(input),
	}}}}
}

// Delegate replies with the given delegations, numbering any without an ID.
func Delegate(targets ...Delegation) Reply {
	d := &Decision{}
	for i, t := range targets {
		if t.ID == "" {
			t.ID = fmt.Sprintf("delegation-%d", i+1)
		}
		d.Delegations = append(d.Delegations, t)
	}
	return Reply{Decision: d}
}

// To builds a Delegation for use with Delegate.
func To(role models.Role, goal string) Delegation {
	return Delegation{Role: role, Goal: goal}
}

// Fail replies with an engine error.
func Fail(err error) Reply {
	return Reply{Err: err}
}

// Hang replies only when the context is cancelled.
func Hang() Reply {
	return Reply{Block: true}
}

// Scripted is a deterministic Engine for tests. Replies are scripted per
// role and indexed by iteration, so the Nth step of any assignment for a
// role gets the Nth reply. Past the end of a script the last reply repeats.
type Scripted struct {
	mu      sync.Mutex
	scripts map[models.Role][]Reply
	calls   []Request
}

// NewScripted creates an empty scripted engine.
func NewScripted() *Scripted {
	return &Scripted{scripts: make(map[models.Role][]Reply)}
}

// On sets the script for role. Returns s for chaining.
func (s *Scripted) On(role models.Role, replies ...Reply) *Scripted {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.scripts[role] = replies
	return s
}

// Step implements Engine.
func (s *Scripted) Step(ctx context.Context, req Request) (*Decision, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	s.calls = append(s.calls, req)
	script := s.scripts[req.Role]
	s.mu.Unlock()

	if len(script) == 0 {
		return nil, fmt.Errorf("no script for role %s", req.Role)
	}
	idx := req.Iteration - 1
	if idx >= len(script) {
		idx = len(script) - 1
	}
	reply := script[idx]

	if reply.Block {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	if reply.Err != nil {
		return nil, reply.Err
	}
	return cloneDecision(reply.Decision), nil
}

// Calls returns every request seen so far.
func (s *Scripted) Calls() []Request {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Request(nil), s.calls...)
}

// CallsFor returns the number of steps taken for role.
func (s *Scripted) CallsFor(role models.Role) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, c := range s.calls {
		if c.Role == role {
			n++
		}
	}
	return n
}

func cloneDecision(d *Decision) *Decision {
	if d == nil {
		return &Decision{}
	}
	out := &Decision{Text: d.Text}
	out.ToolCalls = append(out.ToolCalls, d.ToolCalls...)
	out.Delegations = append(out.Delegations, d.Delegations...)
	return out
}

// FixedScore returns an Evaluator that always gives value.
func FixedScore(value int, rationale string) Evaluator {
	return EvaluatorFunc(func(ctx context.Context, request string, result *models.Result) (Score, error) {
		if err := ctx.Err(); err != nil {
			return Score{}, err
		}
		return Score{Value: value, Rationale: rationale}.Clamp(), nil
	})
}

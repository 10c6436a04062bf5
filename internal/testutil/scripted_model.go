package testutil

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/hupe1980/schoolmesh/core"
	"github.com/hupe1980/schoolmesh/model"
)

// ModelStep is one scripted model round.
type ModelStep struct {
	// Chunks are sent as partial responses when the request streams. The
	// final response text is their concatenation.
	Chunks []string
	// Calls are attached to the final response as function calls.
	Calls []core.FunctionCall
	// Err is reported after the partial responses.
	Err error
}

// TextStep builds a step answering text in word-sized chunks.
func TextStep(text string) ModelStep {
	return ModelStep{Chunks: strings.SplitAfter(text, " ")}
}

// CallStep builds a step requesting tool calls without text.
func CallStep(calls ...core.FunctionCall) ModelStep {
	return ModelStep{Calls: calls}
}

// ScriptedModel replays steps in order, one per Generate call, and records
// every request. Calls beyond the script fail.
type ScriptedModel struct {
	mu       sync.Mutex
	steps    []ModelStep
	requests []model.Request
}

var _ model.Model = (*ScriptedModel)(nil)

// NewScriptedModel creates a model replaying steps.
func NewScriptedModel(steps ...ModelStep) *ScriptedModel {
	return &ScriptedModel{steps: steps}
}

// Generate implements model.Model.
func (s *ScriptedModel) Generate(ctx context.Context, req model.Request) (<-chan model.Response, <-chan error) {
	out := make(chan model.Response)
	errCh := make(chan error, 1)

	s.mu.Lock()
	idx := len(s.requests)
	s.requests = append(s.requests, req)
	var (
		step ModelStep
		ok   bool
	)
	if idx < len(s.steps) {
		step, ok = s.steps[idx], true
	}
	s.mu.Unlock()

	go func() {
		defer close(out)
		defer close(errCh)
		if !ok {
			errCh <- fmt.Errorf("scripted model: no step for call %d", idx+1)
			return
		}

		send := func(r model.Response) bool {
			select {
			case out <- r:
				return true
			case <-ctx.Done():
				errCh <- ctx.Err()
				return false
			}
		}

		if req.Stream {
			for _, c := range step.Chunks {
				if c == "" {
					continue
				}
				if !send(model.Response{Partial: true, Message: core.NewMessage(core.RoleAgent, "", core.TextPart{Text: c})}) {
					return
				}
			}
		}
		if step.Err != nil {
			errCh <- step.Err
			return
		}

		var parts []core.Part
		if text := strings.Join(step.Chunks, ""); text != "" {
			parts = append(parts, core.TextPart{Text: text})
		}
		for _, c := range step.Calls {
			parts = append(parts, core.FunctionCallPart{FunctionCall: c})
		}
		reason := "stop"
		if len(step.Calls) > 0 {
			reason = "tool_calls"
		}
		send(model.Response{Message: core.NewMessage(core.RoleAgent, "", parts...), FinishReason: reason})
	}()
	return out, errCh
}

// Info implements model.Model.
func (s *ScriptedModel) Info() model.Info {
	return model.Info{Name: "scripted", Provider: "mock", SupportsTools: true}
}

// Requests returns the recorded requests.
func (s *ScriptedModel) Requests() []model.Request {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]model.Request(nil), s.requests...)
}

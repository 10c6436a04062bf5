package model

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/schoolmesh/core"
)

var _ Model = (*MockModel)(nil)

// drain takes Generate's results directly: drain(m.Generate(ctx, req)).
func drain(respCh <-chan Response, errCh <-chan error) ([]Response, error) {
	var out []Response
	for r := range respCh {
		out = append(out, r)
	}
	return out, <-errCh
}

func TestMockModel_StreamingConcatenatesToFinal(t *testing.T) {
	m := NewMockModel("mock", "mock")
	m.AddResponse("When is the concert?", "The spring concert is on May 3.")

	req := Request{
		Messages: []core.Message{core.NewUserMessage("  when is the concert? ")},
		Stream:   true,
	}
	responses, err := drain(m.Generate(context.Background(), req))
	require.NoError(t, err)
	require.Greater(t, len(responses), 2)

	var acc strings.Builder
	for _, r := range responses[:len(responses)-1] {
		assert.True(t, r.Partial)
		acc.WriteString(r.Message.Text())
	}
	final := responses[len(responses)-1]
	assert.False(t, final.Partial)
	assert.Equal(t, "stop", final.FinishReason)
	assert.Equal(t, final.Message.Text(), acc.String())
	assert.Equal(t, "The spring concert is on May 3.", acc.String())
}

func TestMockModel_NonStreaming(t *testing.T) {
	m := NewMockModel("mock", "mock")

	responses, err := drain(m.Generate(context.Background(), Request{
		Messages: []core.Message{core.NewUserMessage("hello"), core.NewAgentMessage("general", "hi")},
	}))
	require.NoError(t, err)
	require.Len(t, responses, 1)
	assert.Equal(t, "Mock response to: hello", responses[0].Message.Text())
	assert.Equal(t, core.RoleAgent, responses[0].Message.Role)
}

func TestMockModel_NoUserMessage(t *testing.T) {
	m := NewMockModel("mock", "mock")
	_, err := drain(m.Generate(context.Background(), Request{}))
	assert.Error(t, err)
}

func TestProviderRole(t *testing.T) {
	assert.Equal(t, "assistant", ProviderRole(core.RoleAgent))
	assert.Equal(t, "user", ProviderRole(core.RoleUser))
	assert.Equal(t, "tool", ProviderRole(core.RoleTool))
}

func TestResponseText(t *testing.T) {
	assert.Equal(t, "plain", ResponseText(core.FunctionResponse{Response: "plain"}))
	assert.Equal(t, `{"grade":4}`, ResponseText(core.FunctionResponse{Response: map[string]int{"grade": 4}}))
	assert.Equal(t, `{"error":"not found"}`, ResponseText(core.FunctionResponse{Error: errors.New("not found").Error()}))
	assert.Equal(t, "null", ResponseText(core.FunctionResponse{}))
}

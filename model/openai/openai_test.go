package openai

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/schoolmesh/core"
	"github.com/hupe1980/schoolmesh/model"
)

var _ model.Model = (*Model)(nil)

func TestBuildMessages(t *testing.T) {
	req := model.Request{
		Instructions: "You answer questions about school.",
		Messages: []core.Message{
			core.NewUserMessage("How is Maya doing?"),
			core.NewFunctionCallMessage("grades", core.FunctionCall{ID: "call-1", Name: "lookup_dependent", Arguments: `{"name":"Maya"}`}),
			core.NewFunctionResponseMessage("grades", "call-1", "lookup_dependent", map[string]any{"grade_level": 4}, nil),
			core.NewAgentMessage("grades", "Maya is in grade 4."),
		},
	}

	msgs := buildMessages(req)
	require.Len(t, msgs, 5)
	assert.NotNil(t, msgs[0].OfSystem)
	assert.NotNil(t, msgs[1].OfUser)
	require.NotNil(t, msgs[2].OfAssistant)
	require.Len(t, msgs[2].OfAssistant.ToolCalls, 1)
	assert.Equal(t, "call-1", msgs[2].OfAssistant.ToolCalls[0].ID)
	assert.Equal(t, "lookup_dependent", msgs[2].OfAssistant.ToolCalls[0].Function.Name)
	require.NotNil(t, msgs[3].OfTool)
	assert.Equal(t, "call-1", msgs[3].OfTool.ToolCallID)
	assert.Equal(t, `{"grade_level":4}`, msgs[3].OfTool.Content.OfString.Value)
	assert.NotNil(t, msgs[4].OfAssistant)
}

func TestBuildParams_Tools(t *testing.T) {
	m := NewModelFromClient(nil, func(o *Options) { o.Model = "gpt-test" })
	params := m.buildParams(model.Request{
		Tools: []model.ToolDefinition{{
			Type: "function",
			Function: model.FunctionDefinition{
				Name:        "search_events",
				Description: "Search upcoming events",
				Parameters:  map[string]any{"type": "object"},
			},
		}},
	}, nil)

	assert.Equal(t, "gpt-test", params.Model)
	require.Len(t, params.Tools, 1)
	assert.Equal(t, "search_events", params.Tools[0].Function.Name)
	assert.Equal(t, "openai", m.Info().Provider)
}

func TestFinalMessage_OrdersToolCalls(t *testing.T) {
	msg := finalMessage("", map[int64]*aggCall{
		1: {id: "b", name: "second"},
		0: {id: "a", name: "first", args: `{}`},
	})
	calls := msg.FunctionCalls()
	require.Len(t, calls, 2)
	assert.Equal(t, "first", calls[0].Name)
	assert.Equal(t, "second", calls[1].Name)
	_, hasText := msg.FirstText()
	assert.False(t, hasText)
}

package anthropic

import (
	"testing"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/schoolmesh/core"
	"github.com/hupe1980/schoolmesh/model"
)

var _ model.Model = (*Model)(nil)

func TestBuildMessages_ToolResultsInUserTurn(t *testing.T) {
	msgs := buildMessages([]core.Message{
		core.NewMessage(core.RoleSystem, "", core.TextPart{Text: "ignored here"}),
		core.NewUserMessage("Any events?"),
		core.NewFunctionCallMessage("events",
			core.FunctionCall{ID: "tu-1", Name: "search_events", Arguments: `{"query":"concert"}`},
			core.FunctionCall{ID: "tu-2", Name: "search_events", Arguments: `{"query":"game"}`},
		),
		core.NewFunctionResponseMessage("events", "tu-1", "search_events", "concert on May 3", nil),
		core.NewFunctionResponseMessage("events", "tu-2", "search_events", nil, assert.AnError),
		core.NewAgentMessage("events", "The concert is on May 3."),
	})

	require.Len(t, msgs, 4)
	assert.Equal(t, anthropic.MessageParamRoleUser, msgs[0].Role)
	assert.Equal(t, anthropic.MessageParamRoleAssistant, msgs[1].Role)
	require.Len(t, msgs[1].Content, 2)
	assert.NotNil(t, msgs[1].Content[0].OfToolUse)

	assert.Equal(t, anthropic.MessageParamRoleUser, msgs[2].Role)
	require.Len(t, msgs[2].Content, 2)
	require.NotNil(t, msgs[2].Content[0].OfToolResult)
	assert.Equal(t, "tu-1", msgs[2].Content[0].OfToolResult.ToolUseID)
	require.NotNil(t, msgs[2].Content[1].OfToolResult)
	assert.True(t, msgs[2].Content[1].OfToolResult.IsError.Value)

	assert.Equal(t, anthropic.MessageParamRoleAssistant, msgs[3].Role)
}

func TestExtractSystem(t *testing.T) {
	blocks := extractSystem(model.Request{
		Instructions: "Be brief.",
		Messages:     []core.Message{core.NewMessage(core.RoleSystem, "", core.TextPart{Text: "Household: Dana"})},
	})
	require.Len(t, blocks, 2)
	assert.Equal(t, "Be brief.", blocks[0].Text)
	assert.Equal(t, "Household: Dana", blocks[1].Text)
}

func TestBuildTools(t *testing.T) {
	tools := buildTools([]model.ToolDefinition{{
		Function: model.FunctionDefinition{
			Name:        "lookup_dependent",
			Description: "Look up a child",
			Parameters: map[string]any{
				"type":       "object",
				"properties": map[string]any{"name": map[string]any{"type": "string"}},
				"required":   []any{"name"},
			},
		},
	}})
	require.Len(t, tools, 1)
	require.NotNil(t, tools[0].OfTool)
	assert.Equal(t, "lookup_dependent", tools[0].OfTool.Name)
	assert.Equal(t, []string{"name"}, tools[0].OfTool.InputSchema.Required)
	assert.Equal(t, "Look up a child", tools[0].OfTool.Description.Value)
}

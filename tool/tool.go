// Package tool implements the function calling subsystem that lets
// model-backed capabilities look up household and school data with schema
// validated arguments and consistent error handling.
package tool

import (
	"fmt"

	"github.com/hupe1980/schoolmesh/core"
	"github.com/hupe1980/schoolmesh/internal/util"
	"github.com/hupe1980/schoolmesh/model"
)

// Tool defines the interface for functions a model may call while producing
// an answer.
//
// Tools receive a ToolContext exposing the read-only household and history
// of the current invocation. Implementations must be safe for concurrent use;
// the same tool instance serves every session.
type Tool interface {
	// Name returns the unique identifier for this tool (snake_case).
	Name() string

	// Description is provided to the model to help it decide when to call
	// the tool.
	Description() string

	// Parameters returns a JSON schema describing the expected arguments.
	Parameters() map[string]any

	// Call executes the tool with arguments decoded from the model's JSON.
	Call(toolCtx *core.ToolContext, args map[string]any) (any, error)
}

// Error codes carried by ToolError.
const (
	CodeValidation = "VALIDATION_ERROR"
	CodeExecution  = "EXECUTION_ERROR"
	CodeNotFound   = "NOT_FOUND"
)

// ValidationError represents parameter validation errors with detailed information.
type ValidationError = util.ValidationError

// ToolError represents errors that occur during tool execution.
type ToolError struct {
	Tool    string `json:"tool"`
	Message string `json:"message"`
	Code    string `json:"code"`
	Details any    `json:"details,omitempty"`
}

func (e *ToolError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("tool error [%s] in %s: %s", e.Code, e.Tool, e.Message)
	}
	return fmt.Sprintf("tool error in %s: %s", e.Tool, e.Message)
}

// NewToolError creates a new ToolError with the specified details.
func NewToolError(tool, message, code string) *ToolError {
	return &ToolError{
		Tool:    tool,
		Message: message,
		Code:    code,
	}
}

// Definitions converts tools into the declarations sent to a model.
func Definitions(tools ...Tool) []model.ToolDefinition {
	defs := make([]model.ToolDefinition, 0, len(tools))
	for _, t := range tools {
		defs = append(defs, model.ToolDefinition{
			Type: "function",
			Function: model.FunctionDefinition{
				Name:        t.Name(),
				Description: t.Description(),
				Parameters:  t.Parameters(),
			},
		})
	}
	return defs
}

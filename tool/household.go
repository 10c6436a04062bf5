package tool

import (
	"fmt"

	"github.com/hupe1980/schoolmesh/core"
)

// DependentLookupToolName is the name of the tool built by NewDependentLookupTool.
const DependentLookupToolName = "lookup_dependent"

// NewDependentLookupTool returns a tool that reads the children of the
// current household. Without a name it lists every child.
func NewDependentLookupTool() *FunctionTool {
	return NewFunctionTool(
		DependentLookupToolName,
		"Look up the guardian's children: name, grade level and activities. Pass a name to select one child, omit it to list all.",
		map[string]any{
			"type": "object",
			"properties": map[string]any{
				"name": map[string]any{
					"type":        "string",
					"description": "Child name or id; omit to list all children",
				},
			},
		},
		func(tc *core.ToolContext, args map[string]any) (any, error) {
			household := tc.Household()

			name, _ := args["name"].(string)
			if name == "" {
				deps := household.Dependents()
				out := make([]map[string]any, 0, len(deps))
				for _, d := range deps {
					out = append(out, dependentView(d))
				}
				return map[string]any{"guardian": household.SubjectName(), "children": out}, nil
			}

			d, ok := household.FindDependent(name)
			if !ok {
				return nil, NewToolError(DependentLookupToolName, fmt.Sprintf("no child named %q in this household", name), CodeNotFound)
			}
			return dependentView(d), nil
		},
	)
}

func dependentView(d core.Dependent) map[string]any {
	return map[string]any{
		"id":          d.ID,
		"name":        d.Name,
		"grade_level": d.GradeLevel,
		"activities":  append([]string(nil), d.Activities...),
	}
}

package tool

import (
	"fmt"

	"github.com/hupe1980/schoolmesh/core"
)

const defaultSearchLimit = 5

// BulletinSearchToolName returns the tool name used for a bulletin kind,
// e.g. search_events.
func BulletinSearchToolName(kind core.BulletinKind) string {
	return fmt.Sprintf("search_%ss", kind)
}

// NewBulletinSearchTool returns a tool searching bulletins of one kind. The
// optional child argument restricts results to bulletins addressed to that
// child's grade.
func NewBulletinSearchTool(store core.BulletinStore, kind core.BulletinKind) *FunctionTool {
	name := BulletinSearchToolName(kind)

	return NewFunctionTool(
		name,
		fmt.Sprintf("Search school %ss by keywords. Returns title, date and text ordered by date.", kind),
		map[string]any{
			"type": "object",
			"properties": map[string]any{
				"query": map[string]any{
					"type":        "string",
					"description": "Keywords to search for; empty lists everything",
				},
				"child": map[string]any{
					"type":        "string",
					"description": "Only return entries relevant to this child's grade",
				},
				"limit": map[string]any{
					"type":        "integer",
					"description": "Maximum number of results (default 5)",
				},
			},
			"required": []string{"query"},
		},
		func(tc *core.ToolContext, args map[string]any) (any, error) {
			query, _ := args["query"].(string)

			limit := defaultSearchLimit
			if l, ok := args["limit"].(float64); ok && l > 0 {
				limit = int(l)
			}

			grade := -1
			if child, _ := args["child"].(string); child != "" {
				d, ok := tc.Household().FindDependent(child)
				if !ok {
					return nil, NewToolError(name, fmt.Sprintf("no child named %q in this household", child), CodeNotFound)
				}
				grade = d.GradeLevel
			}

			hits, err := store.Search(kind, query, 0)
			if err != nil {
				return nil, err
			}

			results := make([]map[string]any, 0, limit)
			for _, h := range hits {
				if grade >= 0 && !forGrade(h, grade) {
					continue
				}
				results = append(results, map[string]any{
					"id":    h.ID,
					"title": h.Metadata["title"],
					"date":  h.Metadata["date"],
					"text":  h.Content,
				})
				if len(results) >= limit {
					break
				}
			}
			return map[string]any{"count": len(results), "results": results}, nil
		},
	)
}

func forGrade(r core.SearchResult, grade int) bool {
	levels, ok := r.Metadata["gradeLevels"].([]int)
	if !ok || len(levels) == 0 {
		return true
	}
	for _, g := range levels {
		if g == grade {
			return true
		}
	}
	return false
}

package capability

import (
	"context"
	"fmt"
	"strings"
	"unicode"

	"github.com/hupe1980/schoolmesh/core"
)

// RosterName is the name of the capability built by NewRoster.
const RosterName = "roster"

// NewRoster returns a model-free capability listing the household's children
// with grade level and activities. When the utterance names children only
// those are listed.
func NewRoster() *Func {
	return NewFunc(RosterName, "Lists the children in the household with grade levels and activities.",
		func(_ context.Context, inv *core.Invocation) (string, error) {
			return Roster(inv.Household, inv.Utterance), nil
		})
}

// Roster renders the household roster. The output depends only on the
// household and the utterance.
func Roster(h core.Household, utterance string) string {
	deps := h.Dependents()
	if len(deps) == 0 {
		return fmt.Sprintf("No children are registered for %s.", h.SubjectName())
	}

	if mentioned := mentionedDependents(deps, utterance); len(mentioned) > 0 {
		deps = mentioned
	}

	var b strings.Builder
	if len(deps) == len(h.Dependents()) {
		fmt.Fprintf(&b, "%s has %d %s:", h.SubjectName(), len(deps), plural(len(deps), "child", "children"))
	}
	for _, d := range deps {
		if b.Len() > 0 {
			b.WriteString("\n")
		}
		fmt.Fprintf(&b, "- %s, grade %d", d.Name, d.GradeLevel)
		if len(d.Activities) > 0 {
			fmt.Fprintf(&b, ", activities: %s", strings.Join(d.Activities, ", "))
		} else {
			b.WriteString(", no activities")
		}
	}
	return b.String()
}

func mentionedDependents(deps []core.Dependent, utterance string) []core.Dependent {
	words := map[string]struct{}{}
	for _, w := range strings.FieldsFunc(strings.ToLower(utterance), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '-'
	}) {
		words[w] = struct{}{}
	}
	var out []core.Dependent
	for _, d := range deps {
		if _, ok := words[strings.ToLower(d.Name)]; ok {
			out = append(out, d)
		}
	}
	return out
}

func plural(n int, one, many string) string {
	if n == 1 {
		return one
	}
	return many
}

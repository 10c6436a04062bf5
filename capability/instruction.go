package capability

import (
	"github.com/hupe1980/schoolmesh/core"
	"github.com/hupe1980/schoolmesh/internal/util"
)

// Provider supplies instruction text for one invocation.
type Provider interface {
	Instruction(*core.Invocation) (string, error)
}

// ProviderFunc is a functional adapter to allow ordinary functions to be used as Providers.
type ProviderFunc func(*core.Invocation) (string, error)

// Instruction implements Provider.
func (f ProviderFunc) Instruction(inv *core.Invocation) (string, error) { return f(inv) }

// Instruction is either a template rendered against the household or a
// dynamic provider.
type Instruction struct {
	text     string
	provider Provider
}

// NewInstructionFromText creates an Instruction from a template string. The
// template sees the household fields (SubjectName, Dependents, ...) and the
// current Utterance.
func NewInstructionFromText(text string) Instruction { return Instruction{text: text} }

// NewInstructionFromProvider creates an Instruction from a dynamic provider.
func NewInstructionFromProvider(p Provider) Instruction { return Instruction{provider: p} }

// NewInstructionFromFunc creates an Instruction from a function.
func NewInstructionFromFunc(f func(*core.Invocation) (string, error)) Instruction {
	return Instruction{provider: ProviderFunc(f)}
}

// IsStatic returns true if the instruction is backed by a template string.
func (i Instruction) IsStatic() bool { return i.provider == nil }

// Resolve returns the instruction text for inv.
func (i Instruction) Resolve(inv *core.Invocation) (string, error) {
	if i.provider != nil {
		return i.provider.Instruction(inv)
	}
	if i.text == "" {
		return "", nil
	}
	data := inv.Household.TemplateData()
	data["Utterance"] = inv.Utterance
	return util.RenderTemplate(i.text, data)
}

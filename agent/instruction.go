package agent

import (
	"github.com/howtimeschange/honolulu/core"
	"github.com/howtimeschange/honolulu/internal/util"
)

// InstructionProvider supplies dynamic instruction text at runtime.
// Implementations can derive instructions from conversation state,
// environment, time of day and so on.
type InstructionProvider interface {
	Instruction(*core.RunContext) (string, error)
}

// InstructionFunc adapts an ordinary function to an InstructionProvider.
type InstructionFunc func(*core.RunContext) (string, error)

// Instruction implements InstructionProvider.
func (f InstructionFunc) Instruction(rc *core.RunContext) (string, error) { return f(rc) }

// Instruction is either a static instruction string or a dynamic provider.
// Static text may use template markers ({{.agent_name}}, {{.conversation_id}})
// which are rendered against the run before each model call sequence.
type Instruction struct {
	text     string
	provider InstructionProvider
}

// NewInstructionFromText creates an Instruction from a static string.
func NewInstructionFromText(text string) Instruction { return Instruction{text: text} }

// NewInstructionFromProvider creates an Instruction from a dynamic provider.
func NewInstructionFromProvider(p InstructionProvider) Instruction {
	return Instruction{provider: p}
}

// NewInstructionFromFunc creates an Instruction from a function.
func NewInstructionFromFunc(f func(*core.RunContext) (string, error)) Instruction {
	return Instruction{provider: InstructionFunc(f)}
}

// IsStatic reports whether the instruction is backed by a static string.
func (i Instruction) IsStatic() bool { return i.provider == nil }

// IsZero reports whether no instruction text was configured at all.
func (i Instruction) IsZero() bool { return i.provider == nil && i.text == "" }

// Resolve returns the instruction text for this run, invoking the provider
// or rendering template markers as needed.
func (i Instruction) Resolve(rc *core.RunContext) (string, error) {
	if i.provider != nil {
		return i.provider.Instruction(rc)
	}
	return util.RenderTemplate(i.text, map[string]any{
		"agent_name":      rc.Agent.Name,
		"agent_type":      rc.Agent.Type,
		"conversation_id": rc.ConversationID,
		"run_id":          rc.RunID,
	})
}

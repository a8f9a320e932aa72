package agent

import (
	"fmt"
	"strings"

	"github.com/howtimeschange/honolulu/tool"
)

const orchestratorPreamble = `You are an orchestrator that coordinates specialized sub-agents to complete tasks.

You have access to the following sub-agents through delegation tools:
%s

When a user asks you to do something:
1. Analyze the task to understand what needs to be done
2. Break down complex tasks into smaller steps if needed
3. Delegate specific parts to the appropriate sub-agent
4. Coordinate the results and provide a unified response

Guidelines:
%s- You can combine multiple sub-agents for complex tasks
- Always explain your plan before delegating
- Summarize the results after sub-agents complete their work`

// OrchestratorInstruction builds the default coordination instruction for
// the given sub-agents, naming each delegation capability.
func OrchestratorInstruction(subAgents ...*SubAgent) string {
	var roster, usage strings.Builder
	for i, sa := range subAgents {
		if i > 0 {
			roster.WriteString("\n")
		}
		fmt.Fprintf(&roster, "- %s: %s", sa.DisplayName(), sa.Description())
		fmt.Fprintf(&usage, "- Use delegate_to_%s for tasks matching its specialization\n", sa.Name())
	}
	return fmt.Sprintf(orchestratorPreamble, roster.String(), usage.String())
}

// NewOrchestrator builds a primary agent whose registry carries one
// delegation tool per sub-agent. Additional tools and overrides (gate,
// instruction, ceiling) come through the options; a registry supplied there
// contributes its tools alongside the delegation tools.
func NewOrchestrator(name string, caller Caller, subAgents []*SubAgent, optFns ...func(o *Options)) (*Agent, error) {
	opts := Options{}
	for _, fn := range optFns {
		fn(&opts)
	}

	registry := tool.NewRegistry()
	for _, sa := range subAgents {
		if err := registry.Register(NewDelegationTool(sa)); err != nil {
			return nil, fmt.Errorf("register delegation tool: %w", err)
		}
	}
	if opts.Registry != nil {
		for _, t := range opts.Registry.Tools() {
			if err := registry.Register(t); err != nil {
				return nil, fmt.Errorf("register tool %q: %w", t.Name(), err)
			}
		}
	}

	instruction := opts.Instruction
	if instruction.IsZero() {
		instruction = NewInstructionFromText(OrchestratorInstruction(subAgents...))
	}

	agent := New(name, caller, append(optFns, func(o *Options) {
		o.Type = "orchestrator"
		o.Registry = registry
		o.Instruction = instruction
	})...)

	return agent, nil
}

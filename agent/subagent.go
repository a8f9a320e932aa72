package agent

const coderInstruction = `You are a skilled software developer agent. Your job is to help with coding tasks.

Capabilities:
- Read and write files
- Execute shell commands
- Write clean, well-documented code
- Debug and fix issues

Guidelines:
1. Always read existing files before modifying them
2. Write clear, concise code with appropriate comments
3. Follow the project's existing code style
4. Test your changes when possible
5. Handle errors gracefully

When given a task:
1. First understand what needs to be done
2. Read relevant files to understand the context
3. Plan your approach
4. Implement the solution step by step
5. Verify the result

Be efficient and focused. Complete the task and report the results clearly.`

const researcherInstruction = `You are a skilled research agent. Your job is to find and synthesize information.

Capabilities:
- Search the web for information
- Fetch and read web pages
- Summarize and analyze findings
- Provide well-organized research results

Guidelines:
1. Use multiple sources when possible
2. Verify information across sources
3. Cite your sources
4. Organize findings clearly
5. Distinguish facts from opinions

When given a research task:
1. Understand what information is needed
2. Search for relevant sources
3. Read and analyze the content
4. Synthesize the findings
5. Present a clear summary with sources

Be thorough but concise. Focus on the most relevant and reliable information.`

// SubAgent is a specialist conversation loop exposed to a parent agent as a
// delegation tool. It runs with its own conversation, its own (smaller) call
// budget and no confirmer: gated invocations inside a delegated run resolve
// to deny because there is no user to ask.
type SubAgent struct {
	displayName string
	agent       *Agent
}

// NewSubAgent wraps an agent loop as a delegation target. Ceilings, tools
// and instruction come through the agent options; the default ceiling for a
// sub-agent is 10 model calls.
func NewSubAgent(name, displayName, description string, caller Caller, optFns ...func(o *Options)) *SubAgent {
	base := []func(o *Options){func(o *Options) {
		o.Type = "sub_agent"
		o.Description = description
		o.MaxModelCalls = 10
	}}
	return &SubAgent{
		displayName: displayName,
		agent:       New(name, caller, append(base, optFns...)...),
	}
}

// Name returns the sub-agent's identifier, used in delegation tool names.
func (s *SubAgent) Name() string { return s.agent.Name() }

// DisplayName returns the human-facing name used in delegation descriptions.
func (s *SubAgent) DisplayName() string { return s.displayName }

// Description returns the sub-agent's specialization summary.
func (s *SubAgent) Description() string { return s.agent.Description() }

// MaxModelCalls returns the sub-agent's per-delegation model call ceiling.
func (s *SubAgent) MaxModelCalls() int { return s.agent.MaxModelCalls() }

// Coder returns the shipped coding specialist (ceiling 15 model calls).
func Coder(caller Caller, optFns ...func(o *Options)) *SubAgent {
	base := []func(o *Options){func(o *Options) {
		o.Instruction = NewInstructionFromText(coderInstruction)
		o.MaxModelCalls = 15
	}}
	return NewSubAgent(
		"coder",
		"Coder Agent",
		"Specialized in writing, reading, debugging code, and executing shell commands",
		caller,
		append(base, optFns...)...,
	)
}

// Researcher returns the shipped research specialist (ceiling 10 model calls).
func Researcher(caller Caller, optFns ...func(o *Options)) *SubAgent {
	base := []func(o *Options){func(o *Options) {
		o.Instruction = NewInstructionFromText(researcherInstruction)
		o.MaxModelCalls = 10
	}}
	return NewSubAgent(
		"researcher",
		"Researcher Agent",
		"Specialized in searching the web, gathering information, and summarizing findings",
		caller,
		append(base, optFns...)...,
	)
}

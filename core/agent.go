package core

// Agent defines the core interface that all agents in Honolulu must implement.
//
// Agents are the primary processing units of the runtime. They receive input
// through a RunContext, drive the model/tool conversation to completion, and
// emit lifecycle events to communicate progress back to the Runner.
//
// Implementations must:
//   - Respect context cancellation for graceful shutdown
//   - Emit events through the provided RunContext
//   - Emit exactly one terminal event (done or error) per run
type Agent interface {
	Name() string
	Description() string
	Run(runCtx *RunContext) error
}

// AgentInfo carries identifying details about an agent used in contexts & events.
// Name is the external identifier; Type categorizes implementation (e.g. "orchestrator", "worker").
type AgentInfo struct{ Name, Type string }

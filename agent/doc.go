// Package agent implements the model-driven conversation loop and the
// delegation layer built on top of it.
//
// Agent drives one run: it consults the model, executes requested tool
// invocations through the permission gate and confirmation protocol, feeds
// the results back, and repeats until the model finishes with plain text or
// the call budget runs out. Every step surfaces as a core.Event so external
// clients can render progress live.
//
// Sub-agents are full conversation loops wrapped behind delegation tools.
// NewOrchestrator assembles a primary agent whose registry carries one
// delegation tool per sub-agent, giving the model a capability-shaped way to
// hand work to specialists.
package agent

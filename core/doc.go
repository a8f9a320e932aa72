// Package core provides the foundational domain types, interfaces and execution
// contexts used by Honolulu. It defines the core abstractions for:
//
//   - Agents (bounded model/tool conversation loops)
//   - Conversations (append-only message history plus per-conversation approvals)
//   - Events (immutable lifecycle records streamed to clients)
//   - RunContext / ToolContext (scoped execution & capability sandboxing)
//   - Confirmer (human-in-the-loop decisions for gated capability calls)
//   - Pluggable stores for conversations, artifacts and memory recall/search
//
// The package intentionally keeps implementation concerns (persistence, runner
// orchestration, concrete agents, model providers) out of scope, exposing small
// interfaces to enable custom backends and extensions. All exported identifiers
// include concise documentation to aid discoverability and external consumption.
package core

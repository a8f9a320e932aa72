package core

import (
	"context"
	"fmt"

	"github.com/howtimeschange/honolulu/logging"
)

// ToolContext provides a constrained, auditable surface for capability
// implementations invoked by an agent. It scopes a single invocation and
// exposes only what a capability legitimately needs: identity, artifacts,
// memory and event emission. Capabilities never see the gate, the confirmer
// or the model call budget.
type ToolContext struct {
	runCtx       *RunContext
	invocationID string
	agentInfo    AgentInfo
	valid        bool

	*loggerAdapter
}

// NewToolContext constructs a tool context bound to a parent RunContext
// and unique invocationID.
func NewToolContext(runCtx *RunContext, invocationID string) *ToolContext {
	return &ToolContext{
		runCtx:        runCtx,
		invocationID:  invocationID,
		agentInfo:     runCtx.Agent,
		valid:         true,
		loggerAdapter: newLoggerAdapter(runCtx.Logger()),
	}
}

// Context returns the context associated with the invocation.
func (tc *ToolContext) Context() context.Context { return tc.runCtx.Context }

// ConversationID returns the conversation ID associated with the invocation.
func (tc *ToolContext) ConversationID() string { return tc.runCtx.ConversationID }

// RunID returns the run ID associated with the invocation.
func (tc *ToolContext) RunID() string { return tc.runCtx.RunID }

// Logger returns the logger associated with the invocation.
func (tc *ToolContext) Logger() logging.Logger { return tc.loggerAdapter.Logger() }

// InvocationID returns the unique id of this capability invocation.
func (tc *ToolContext) InvocationID() string { return tc.invocationID }

// AgentName returns the agent name associated with the invocation.
func (tc *ToolContext) AgentName() string { return tc.agentInfo.Name }

// AgentType returns the agent type associated with the invocation.
func (tc *ToolContext) AgentType() string { return tc.agentInfo.Type }

// SaveArtifact persists artifact bytes scoped to the conversation.
func (tc *ToolContext) SaveArtifact(id string, data []byte) error {
	if tc.runCtx.ArtifactStore == nil {
		return fmt.Errorf("artifact store not configured")
	}

	return tc.runCtx.ArtifactStore.Save(tc.ConversationID(), id, data)
}

// LoadArtifact retrieves a persisted artifact by id.
func (tc *ToolContext) LoadArtifact(id string) ([]byte, error) {
	if tc.runCtx.ArtifactStore == nil {
		return nil, fmt.Errorf("artifact store not configured")
	}

	return tc.runCtx.ArtifactStore.Get(tc.ConversationID(), id)
}

// ListArtifacts returns artifact IDs stored for the conversation.
func (tc *ToolContext) ListArtifacts() ([]string, error) {
	if tc.runCtx.ArtifactStore == nil {
		return nil, fmt.Errorf("artifact store not configured")
	}

	return tc.runCtx.ArtifactStore.List(tc.ConversationID())
}

// SearchMemory performs a recall query against the configured MemoryStore.
func (tc *ToolContext) SearchMemory(q string, limit int) ([]SearchResult, error) {
	if tc.runCtx.MemoryStore == nil {
		return nil, fmt.Errorf("memory store not configured")
	}

	return tc.runCtx.MemoryStore.Search(tc.ConversationID(), q, limit)
}

// StoreMemory appends new content to the conversation's memory store with metadata.
func (tc *ToolContext) StoreMemory(content string, md map[string]any) error {
	if tc.runCtx.MemoryStore == nil {
		return fmt.Errorf("memory store not configured")
	}

	return tc.runCtx.MemoryStore.Store(tc.ConversationID(), content, md)
}

// History returns a copy of the conversation transcript for context.
func (tc *ToolContext) History() []Content {
	return tc.runCtx.History()
}

// EmitEvent sends an event on the run's emission channel.
func (tc *ToolContext) EmitEvent(ev Event) error {
	return tc.runCtx.EmitEvent(ev)
}

// Validate performs a structural sanity check of the context.
func (tc *ToolContext) Validate() error {
	if !tc.valid || tc.runCtx == nil || tc.runCtx.ConversationID == "" || tc.invocationID == "" {
		return fmt.Errorf("invalid ToolContext")
	}

	return nil
}

// IsValid reports whether Validate would succeed (fast path).
func (tc *ToolContext) IsValid() bool {
	return tc.valid && tc.runCtx != nil && tc.runCtx.ConversationID != "" && tc.invocationID != ""
}

// InternalRunContext returns the internal run context.
func (tc *ToolContext) InternalRunContext() *RunContext { return tc.runCtx }

package core

import (
	"context"
	"fmt"

	"github.com/howtimeschange/honolulu/logging"
)

// RunContext carries execution state & helpers for an agent run.
// It encapsulates the per-run execution scope passed to an Agent's Run
// method. It aggregates:
//   - The ambient cancellation Context
//   - Identifiers (ConversationID, RunID, Agent info)
//   - Input user Content
//   - The event emission channel
//   - The live Conversation transcript plus backing stores
//   - The Confirmer used for gated capability invocations
//   - The model call budget for this run
//
// A RunContext is bound to exactly one run. Delegated (nested) runs derive
// their own context via NewChildContext with a fresh conversation and budget.
type RunContext struct {
	Context               context.Context
	ConversationID, RunID string
	Agent                 AgentInfo
	UserContent           Content
	Emit                  chan<- Event
	Conversation          *Conversation
	ConversationStore     ConversationStore
	ArtifactStore         ArtifactStore
	MemoryStore           MemoryStore
	Confirmer             Confirmer
	Budget                *CallBudget

	*loggerAdapter
}

// NewRunContext constructs a RunContext bound to a conversation and run.
func NewRunContext(
	ctx context.Context,
	conversationID, runID string,
	agent AgentInfo,
	userContent Content,
	emit chan<- Event,
	conv *Conversation,
	conversationStore ConversationStore,
	artifactStore ArtifactStore,
	memoryStore MemoryStore,
	confirmer Confirmer,
	budget *CallBudget,
	logger logging.Logger,
) *RunContext {
	if budget == nil {
		budget = NewCallBudget(0)
	}
	return &RunContext{
		Context:           ctx,
		ConversationID:    conversationID,
		RunID:             runID,
		Agent:             agent,
		UserContent:       userContent,
		Emit:              emit,
		Conversation:      conv,
		ConversationStore: conversationStore,
		ArtifactStore:     artifactStore,
		MemoryStore:       memoryStore,
		Confirmer:         confirmer,
		Budget:            budget,
		loggerAdapter:     newLoggerAdapter(logger),
	}
}

// Done returns a channel closed when the underlying context is cancelled.
func (rc *RunContext) Done() <-chan struct{} { return rc.Context.Done() }

// Err returns the cancellation error (if any) from the underlying context.
func (rc *RunContext) Err() error { return rc.Context.Err() }

// History returns a copy of the conversation transcript.
func (rc *RunContext) History() []Content {
	if rc.Conversation == nil {
		return []Content{}
	}
	return rc.Conversation.History()
}

// AppendContent appends an entry to the conversation transcript.
func (rc *RunContext) AppendContent(content Content) {
	if rc.Conversation != nil {
		rc.Conversation.Append(content)
	}
}

// AwaitConfirmation blocks until the user resolves the given invocation or
// the decision window times out. Without a configured Confirmer there is no
// one to ask, so the invocation is denied.
func (rc *RunContext) AwaitConfirmation(invocationID string) (ConfirmAction, error) {
	if rc.Confirmer == nil {
		return ConfirmDeny, nil
	}
	return rc.Confirmer.Await(rc.Context, invocationID)
}

// SaveArtifact stores bytes in the ArtifactStore scoped to this conversation.
func (rc *RunContext) SaveArtifact(id string, data []byte) error {
	if rc.ArtifactStore == nil {
		return fmt.Errorf("artifact store not configured")
	}

	return rc.ArtifactStore.Save(rc.ConversationID, id, data)
}

// GetArtifact retrieves previously saved artifact bytes.
func (rc *RunContext) GetArtifact(id string) ([]byte, error) {
	if rc.ArtifactStore == nil {
		return nil, fmt.Errorf("artifact store not configured")
	}

	return rc.ArtifactStore.Get(rc.ConversationID, id)
}

// ListArtifacts returns artifact IDs stored for the conversation.
func (rc *RunContext) ListArtifacts() ([]string, error) {
	if rc.ArtifactStore == nil {
		return []string{}, nil
	}

	return rc.ArtifactStore.List(rc.ConversationID)
}

// SearchMemory queries the MemoryStore for relevant content.
func (rc *RunContext) SearchMemory(q string, limit int) ([]SearchResult, error) {
	if rc.MemoryStore == nil {
		return []SearchResult{}, nil
	}

	return rc.MemoryStore.Search(rc.ConversationID, q, limit)
}

// StoreMemory appends content plus metadata to the MemoryStore.
func (rc *RunContext) StoreMemory(content string, md map[string]any) error {
	if rc.MemoryStore == nil {
		return fmt.Errorf("memory store not configured")
	}
	return rc.MemoryStore.Store(rc.ConversationID, content, md)
}

// GetAgentName returns the logical agent name for this run.
func (rc *RunContext) GetAgentName() string { return rc.Agent.Name }

// GetAgentType returns a categorization label for the agent.
func (rc *RunContext) GetAgentType() string { return rc.Agent.Type }

// NewChildContext derives a context for a delegated (nested) run. The child
// shares the ambient Context, stores and emit channel unless a dedicated emit
// channel is supplied, but always receives its own conversation, budget and
// agent identity. The child carries no Confirmer: a nested run has no user
// to ask, so gated invocations inside it resolve to deny.
func (rc *RunContext) NewChildContext(agent AgentInfo, runID string, userContent Content, conv *Conversation, budget *CallBudget, emit chan<- Event) *RunContext {
	if emit == nil {
		emit = rc.Emit
	}
	return &RunContext{
		Context:           rc.Context,
		ConversationID:    rc.ConversationID,
		RunID:             runID,
		Agent:             agent,
		UserContent:       userContent,
		Emit:              emit,
		Conversation:      conv,
		ConversationStore: rc.ConversationStore,
		ArtifactStore:     rc.ArtifactStore,
		MemoryStore:       rc.MemoryStore,
		Budget:            budget,
		loggerAdapter:     rc.loggerAdapter,
	}
}

// EmitEvent sends the event on the Emit channel, honoring cancellation. If
// the context is cancelled before emission it returns the cancellation error.
func (rc *RunContext) EmitEvent(ev Event) error {
	if rc.Emit == nil {
		return fmt.Errorf("emit channel not configured")
	}

	select {
	case <-rc.Context.Done():
		return rc.Context.Err()
	case rc.Emit <- ev:
	}

	return nil
}

// Package testutil provides small builders shared by package tests.
package testutil

import (
	"context"

	"github.com/howtimeschange/honolulu/core"
	"github.com/howtimeschange/honolulu/logging"
)

// Harness bundles a RunContext wired to an in-memory event sink. Events
// emitted during a run are collected on the Events channel; call Drain after
// the run to read them all.
type Harness struct {
	RunCtx *core.RunContext
	Events chan core.Event
}

// RunContextOptions tunes the built RunContext.
type RunContextOptions struct {
	Context           context.Context
	ConversationID    string
	RunID             string
	Agent             core.AgentInfo
	UserText          string
	Conversation      *core.Conversation
	ConversationStore core.ConversationStore
	ArtifactStore     core.ArtifactStore
	MemoryStore       core.MemoryStore
	Confirmer         core.Confirmer
	MaxModelCalls     int
	BufferSize        int
}

// NewRunContext builds a RunContext backed by a buffered event channel big
// enough that a test run never blocks on emission.
func NewRunContext(optFns ...func(o *RunContextOptions)) *Harness {
	opts := RunContextOptions{
		Context:        context.Background(),
		ConversationID: "conv-test",
		RunID:          "run-test",
		Agent:          core.AgentInfo{Name: "test-agent", Type: "worker"},
		UserText:       "hello",
		BufferSize:     256,
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	if opts.Conversation == nil {
		opts.Conversation = core.NewConversation(opts.ConversationID)
	}

	events := make(chan core.Event, opts.BufferSize)
	runCtx := core.NewRunContext(
		opts.Context,
		opts.ConversationID,
		opts.RunID,
		opts.Agent,
		core.NewUserContent(opts.UserText),
		events,
		opts.Conversation,
		opts.ConversationStore,
		opts.ArtifactStore,
		opts.MemoryStore,
		opts.Confirmer,
		core.NewCallBudget(opts.MaxModelCalls),
		logging.NoOpLogger{},
	)

	return &Harness{RunCtx: runCtx, Events: events}
}

// Drain closes nothing; it reads every buffered event currently available.
func (h *Harness) Drain() []core.Event {
	var out []core.Event
	for {
		select {
		case ev := <-h.Events:
			out = append(out, ev)
		default:
			return out
		}
	}
}

// Types returns the event type sequence of the given events.
func Types(events []core.Event) []core.EventType {
	out := make([]core.EventType, len(events))
	for i, ev := range events {
		out[i] = ev.Type
	}
	return out
}

// ByType filters events to one type.
func ByType(events []core.Event, typ core.EventType) []core.Event {
	var out []core.Event
	for _, ev := range events {
		if ev.Type == typ {
			out = append(out, ev)
		}
	}
	return out
}

// ScriptedConfirmer resolves every Await with a fixed action.
type ScriptedConfirmer struct {
	Action core.ConfirmAction
	Asked  []string
}

// Await implements core.Confirmer.
func (c *ScriptedConfirmer) Await(_ context.Context, invocationID string) (core.ConfirmAction, error) {
	c.Asked = append(c.Asked, invocationID)
	return c.Action, nil
}

// Resolve implements core.Confirmer.
func (c *ScriptedConfirmer) Resolve(core.ConfirmDecision) error { return nil }

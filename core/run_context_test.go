package core

import (
	"context"
	"testing"
)

func newTestRunContext(emit chan<- Event) *RunContext {
	conv := NewConversation("conv-1")
	return NewRunContext(
		context.Background(),
		"conv-1", "run-1",
		AgentInfo{Name: "assistant", Type: "worker"},
		NewUserContent("hi"),
		emit,
		conv,
		nil, nil, nil, nil,
		NewCallBudget(10),
		nil,
	)
}

func TestRunContext_EmitEvent(t *testing.T) {
	emit := make(chan Event, 1)
	rc := newTestRunContext(emit)

	if err := rc.EmitEvent(NewThinkingEvent(rc.RunID, rc.Agent.Name, "thinking")); err != nil {
		t.Fatalf("EmitEvent failed: %v", err)
	}

	ev := <-emit
	if ev.Type != EventThinking || ev.RunID != "run-1" {
		t.Fatalf("unexpected event: %+v", ev)
	}
}

func TestRunContext_EmitEventCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	emit := make(chan Event) // unbuffered so emission must block
	rc := newTestRunContext(emit)
	rc.Context = ctx

	if err := rc.EmitEvent(NewThinkingEvent("run-1", "assistant", "x")); err == nil {
		t.Fatal("expected cancellation error")
	}
}

func TestRunContext_AwaitConfirmationWithoutConfirmer(t *testing.T) {
	rc := newTestRunContext(make(chan Event, 1))

	action, err := rc.AwaitConfirmation("inv-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if action != ConfirmDeny {
		t.Fatalf("expected deny without a confirmer, got %v", action)
	}
}

func TestRunContext_HistoryAndAppend(t *testing.T) {
	rc := newTestRunContext(make(chan Event, 1))
	rc.AppendContent(Content{Role: "assistant", Parts: []Part{TextPart{Text: "hello"}}})

	h := rc.History()
	if len(h) != 1 || h[0].Text() != "hello" {
		t.Fatalf("unexpected history: %+v", h)
	}
}

func TestRunContext_NewChildContext(t *testing.T) {
	rc := newTestRunContext(make(chan Event, 1))
	rc.Confirmer = stubConfirmer{}

	childConv := NewConversation("conv-1/coder")
	childEmit := make(chan Event, 1)
	child := rc.NewChildContext(AgentInfo{Name: "coder", Type: "worker"}, "run-2", NewUserContent("task"), childConv, NewCallBudget(15), childEmit)

	if child.Conversation != childConv {
		t.Error("child should use its own conversation")
	}
	if child.Budget == rc.Budget {
		t.Error("child should use its own budget")
	}
	if child.Confirmer != nil {
		t.Error("child must not inherit the confirmer")
	}
	if child.RunID != "run-2" || child.Agent.Name != "coder" {
		t.Fatalf("child identity not applied: %+v", child.Agent)
	}

	// without an explicit emit channel the parent's channel is shared
	shared := rc.NewChildContext(AgentInfo{Name: "coder"}, "run-3", NewUserContent("t"), childConv, NewCallBudget(1), nil)
	if err := shared.EmitEvent(NewThinkingEvent("run-3", "coder", "x")); err != nil {
		t.Fatalf("emit via inherited channel failed: %v", err)
	}
}

type stubConfirmer struct{}

func (stubConfirmer) Await(ctx context.Context, invocationID string) (ConfirmAction, error) {
	return ConfirmAllow, nil
}

func (stubConfirmer) Resolve(decision ConfirmDecision) error { return nil }

package core

import (
	"fmt"
	"testing"
)

type mapArtifactStore struct{ data map[string][]byte }

func (m *mapArtifactStore) Save(conversationID, artifactID string, data []byte) error {
	m.data[conversationID+"/"+artifactID] = data
	return nil
}

func (m *mapArtifactStore) Get(conversationID, artifactID string) ([]byte, error) {
	d, ok := m.data[conversationID+"/"+artifactID]
	if !ok {
		return nil, fmt.Errorf("not found")
	}
	return d, nil
}

func (m *mapArtifactStore) List(conversationID string) ([]string, error) { return nil, nil }

func (m *mapArtifactStore) Delete(conversationID, artifactID string) error { return nil }

func TestToolContext_IdentityAndValidity(t *testing.T) {
	rc := newTestRunContext(make(chan Event, 1))
	tc := NewToolContext(rc, "inv-42")

	if tc.InvocationID() != "inv-42" || tc.ConversationID() != "conv-1" || tc.RunID() != "run-1" {
		t.Fatalf("identity accessors wrong: %s %s %s", tc.InvocationID(), tc.ConversationID(), tc.RunID())
	}
	if tc.AgentName() != "assistant" || tc.AgentType() != "worker" {
		t.Fatalf("agent info wrong: %s/%s", tc.AgentName(), tc.AgentType())
	}
	if !tc.IsValid() {
		t.Error("context should be valid")
	}
	if err := tc.Validate(); err != nil {
		t.Errorf("Validate failed: %v", err)
	}

	invalid := NewToolContext(rc, "")
	if invalid.IsValid() {
		t.Error("empty invocation id should be invalid")
	}
}

func TestToolContext_ArtifactRoundTrip(t *testing.T) {
	rc := newTestRunContext(make(chan Event, 1))
	rc.ArtifactStore = &mapArtifactStore{data: map[string][]byte{}}
	tc := NewToolContext(rc, "inv-1")

	if err := tc.SaveArtifact("report", []byte("data")); err != nil {
		t.Fatalf("SaveArtifact failed: %v", err)
	}
	got, err := tc.LoadArtifact("report")
	if err != nil || string(got) != "data" {
		t.Fatalf("LoadArtifact mismatch: %s %v", got, err)
	}
}

func TestToolContext_MissingStores(t *testing.T) {
	rc := newTestRunContext(make(chan Event, 1))
	tc := NewToolContext(rc, "inv-1")

	if err := tc.SaveArtifact("x", nil); err == nil {
		t.Error("expected error without artifact store")
	}
	if _, err := tc.SearchMemory("q", 1); err == nil {
		t.Error("expected error without memory store")
	}
	if err := tc.StoreMemory("c", nil); err == nil {
		t.Error("expected error without memory store")
	}
}

func TestToolContext_EmitEvent(t *testing.T) {
	emit := make(chan Event, 1)
	rc := newTestRunContext(emit)
	tc := NewToolContext(rc, "inv-1")

	if err := tc.EmitEvent(NewSubAgentProgressEvent(rc.RunID, "coder", "coder", "step")); err != nil {
		t.Fatalf("EmitEvent failed: %v", err)
	}
	ev := <-emit
	if ev.Type != EventSubAgentProgress {
		t.Fatalf("unexpected event: %+v", ev)
	}
}

package core

import "testing"

func TestConversation_AppendAndHistory(t *testing.T) {
	c := NewConversation("c1")
	c.Append(NewUserContent("hi"))
	c.Append(Content{Role: "assistant", Parts: []Part{TextPart{Text: "hello"}}})

	if c.Len() != 2 {
		t.Fatalf("expected 2 entries, got %d", c.Len())
	}

	h := c.History()
	h[0].Role = "changed"
	if c.History()[0].Role != "user" {
		t.Error("history slice should be copied on read")
	}
}

func TestConversation_AppendNeverReorders(t *testing.T) {
	c := NewConversation("c2")
	c.Append(NewUserContent("first"))
	c.Append(NewUserContent("second"))
	c.Append(NewUserContent("third"))

	h := c.History()
	if h[0].Text() != "first" || h[1].Text() != "second" || h[2].Text() != "third" {
		t.Fatalf("history order violated: %+v", h)
	}
}

func TestConversation_Approvals(t *testing.T) {
	c := NewConversation("c3")
	if c.IsApproved("shell_exec") {
		t.Error("capability should not be approved initially")
	}

	c.Approve("shell_exec")
	if !c.IsApproved("shell_exec") {
		t.Error("capability should be approved after Approve")
	}
	if c.IsApproved("file_write") {
		t.Error("approval must not leak to other capabilities")
	}

	names := c.Approved()
	if len(names) != 1 || names[0] != "shell_exec" {
		t.Fatalf("unexpected approved set: %v", names)
	}
}

func TestConversation_ClearResetsTranscriptAndApprovals(t *testing.T) {
	c := NewConversation("c4")
	c.Append(NewUserContent("hi"))
	c.Approve("shell_exec")

	c.Clear()
	if c.Len() != 0 {
		t.Error("transcript should be empty after Clear")
	}
	if c.IsApproved("shell_exec") {
		t.Error("approvals should be reset after Clear")
	}
}

func TestConversation_Clone(t *testing.T) {
	c := NewConversation("c5")
	c.Append(NewUserContent("hi"))
	c.Approve("file_write")

	clone := c.Clone()
	if clone == c {
		t.Error("Clone should be a different pointer")
	}

	clone.Append(NewUserContent("extra"))
	clone.Approve("shell_exec")
	if c.Len() != 1 {
		t.Error("original transcript should not grow with clone")
	}
	if c.IsApproved("shell_exec") {
		t.Error("original approvals should not gain clone's entries")
	}
}

package core

import (
	"sync"
	"time"
)

// Conversation is an append-only transcript of role-based contents plus the
// set of capability names the user approved for the rest of the conversation
// ("allow all"). It is safe for concurrent access.
//
// Contract:
//   - Append never replaces or reorders earlier contents
//   - History returns a defensive copy to avoid external mutation
//   - Clear resets both the transcript and the approved set
type Conversation struct {
	ID       string
	Created  time.Time
	Updated  time.Time
	contents []Content
	approved map[string]struct{}
	mu       sync.RWMutex
}

// NewConversation creates an empty conversation with the given ID.
func NewConversation(id string) *Conversation {
	now := time.Now()
	return &Conversation{ID: id, Created: now, Updated: now, contents: []Content{}, approved: map[string]struct{}{}}
}

// Append adds a content entry to the end of the transcript.
func (c *Conversation) Append(content Content) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.contents = append(c.contents, content)
	c.Updated = time.Now()
}

// History returns a defensive copy of the transcript in append order.
func (c *Conversation) History() []Content {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]Content, len(c.contents))
	copy(out, c.contents)
	return out
}

// Len returns the number of transcript entries.
func (c *Conversation) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.contents)
}

// Approve marks a capability as pre-approved for the remainder of the
// conversation so later invocations skip the confirmation prompt.
func (c *Conversation) Approve(capability string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.approved[capability] = struct{}{}
	c.Updated = time.Now()
}

// IsApproved reports whether the capability was previously approved for the
// whole conversation.
func (c *Conversation) IsApproved(capability string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	_, ok := c.approved[capability]
	return ok
}

// Approved returns the capability names approved for the conversation.
func (c *Conversation) Approved() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]string, 0, len(c.approved))
	for name := range c.approved {
		out = append(out, name)
	}
	return out
}

// Clear drops the transcript and all conversation-scoped approvals.
func (c *Conversation) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.contents = []Content{}
	c.approved = map[string]struct{}{}
	c.Updated = time.Now()
}

// Clone returns a deep copy of the conversation safe for independent mutation.
func (c *Conversation) Clone() *Conversation {
	c.mu.RLock()
	defer c.mu.RUnlock()
	clone := &Conversation{ID: c.ID, Created: c.Created, Updated: c.Updated, contents: make([]Content, len(c.contents)), approved: make(map[string]struct{}, len(c.approved))}
	copy(clone.contents, c.contents)
	for k := range c.approved {
		clone.approved[k] = struct{}{}
	}
	return clone
}

// ConversationStore persists conversations and hands out live references so
// concurrent runs observe the same transcript.
type ConversationStore interface {
	Create(id string) (*Conversation, error)
	Get(id string) (*Conversation, error)
	GetOrCreate(id string) (*Conversation, error)
	Delete(id string) error
	List() ([]string, error)
}

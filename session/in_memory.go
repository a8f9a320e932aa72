package session

import (
	"fmt"
	"sort"
	"sync"

	"github.com/howtimeschange/honolulu/core"
)

// ErrNotFound is returned when a conversation id is unknown to the store.
var ErrNotFound = fmt.Errorf("conversation not found")

// InMemoryStore is a volatile ConversationStore keeping conversations in a
// process-local map. It hands out live references, not clones: concurrent
// runs against the same conversation observe the same transcript, which the
// Conversation type itself makes safe. Suited for tests and single-process
// deployments.
type InMemoryStore struct {
	mu            sync.RWMutex
	conversations map[string]*core.Conversation
}

// NewInMemoryStore constructs an empty in-memory conversation store.
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{conversations: make(map[string]*core.Conversation)}
}

// Create allocates a fresh conversation under id, rejecting duplicates.
func (s *InMemoryStore) Create(id string) (*core.Conversation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.conversations[id]; exists {
		return nil, fmt.Errorf("conversation %q already exists", id)
	}
	conv := core.NewConversation(id)
	s.conversations[id] = conv
	return conv, nil
}

// Get returns the live conversation for id or ErrNotFound.
func (s *InMemoryStore) Get(id string) (*core.Conversation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	conv, ok := s.conversations[id]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrNotFound, id)
	}
	return conv, nil
}

// GetOrCreate returns the existing conversation or lazily creates one.
func (s *InMemoryStore) GetOrCreate(id string) (*core.Conversation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if conv, ok := s.conversations[id]; ok {
		return conv, nil
	}
	conv := core.NewConversation(id)
	s.conversations[id] = conv
	return conv, nil
}

// Delete removes the conversation or returns ErrNotFound.
func (s *InMemoryStore) Delete(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.conversations[id]; !ok {
		return fmt.Errorf("%w: %q", ErrNotFound, id)
	}
	delete(s.conversations, id)
	return nil
}

// List returns the stored conversation ids in lexical order.
func (s *InMemoryStore) List() ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ids := make([]string, 0, len(s.conversations))
	for id := range s.conversations {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids, nil
}

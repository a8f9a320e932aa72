package artifact

import (
	"sort"
	"sync"

	"github.com/howtimeschange/honolulu/core"
)

var _ core.ArtifactStore = (*InMemoryStore)(nil)

// InMemoryStore is a process-local ArtifactStore for tests, examples and
// single-process deployments. Artifacts live in a nested map guarded by an
// RWMutex; bytes are copied on save and retrieval so callers can never
// mutate stored buffers.
//
// Layout: conversationID -> artifactID -> raw bytes
type InMemoryStore struct {
	mu        sync.RWMutex
	artifacts map[string]map[string][]byte
}

// NewInMemoryStore returns an empty in-memory artifact store.
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{artifacts: make(map[string]map[string][]byte)}
}

// Save stores (or overwrites) the artifact bytes for the conversation and id.
func (s *InMemoryStore) Save(conversationID, artifactID string, data []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.artifacts[conversationID]; !ok {
		s.artifacts[conversationID] = make(map[string][]byte)
	}
	cp := make([]byte, len(data))
	copy(cp, data)
	s.artifacts[conversationID][artifactID] = cp
	return nil
}

// Get returns a copy of the stored artifact bytes or ErrNotFound.
func (s *InMemoryStore) Get(conversationID, artifactID string) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	data, ok := s.artifacts[conversationID][artifactID]
	if !ok {
		return nil, ErrNotFound
	}
	cp := make([]byte, len(data))
	copy(cp, data)
	return cp, nil
}

// List returns the artifact ids stored for the conversation in lexical order.
func (s *InMemoryStore) List(conversationID string) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	m := s.artifacts[conversationID]
	ids := make([]string, 0, len(m))
	for id := range m {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids, nil
}

// Delete removes the artifact if present or returns ErrNotFound.
func (s *InMemoryStore) Delete(conversationID, artifactID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.artifacts[conversationID]
	if !ok {
		return ErrNotFound
	}
	if _, ok := m[artifactID]; !ok {
		return ErrNotFound
	}
	delete(m, artifactID)
	return nil
}

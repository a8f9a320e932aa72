package memory

import (
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/howtimeschange/honolulu/core"
)

// Well-known values for the "type" metadata key.
const (
	TypeConversation   = "conversation"
	TypeTask           = "task"
	TypeKnowledge      = "knowledge"
	TypeToolResult     = "tool_result"
	TypeUserPreference = "user_preference"
)

// entry is one stored memory in insertion order.
type entry struct {
	id       string
	content  string
	metadata map[string]any
}

// InMemoryStore is a process-local MemoryStore with append-only entries per
// conversation and naive substring retrieval. Matching is case insensitive;
// hits are scored by how many query terms the content contains and returned
// best first, newest winning ties. Swap for a vector index when recall
// quality matters.
type InMemoryStore struct {
	mu      sync.RWMutex
	entries map[string][]entry // conversationID -> entries in insertion order
}

// NewInMemoryStore creates an empty in-memory memory store.
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{entries: make(map[string][]entry)}
}

// Store appends a new memory for the conversation.
func (m *InMemoryStore) Store(conversationID string, content string, metadata map[string]any) error {
	if strings.TrimSpace(content) == "" {
		return fmt.Errorf("memory content must not be empty")
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	md := make(map[string]any, len(metadata))
	for k, v := range metadata {
		md[k] = v
	}

	id := fmt.Sprintf("mem_%d", len(m.entries[conversationID]))
	m.entries[conversationID] = append(m.entries[conversationID], entry{
		id:       id,
		content:  content,
		metadata: md,
	})
	return nil
}

// Search returns up to limit entries relevant to the query, best first. An
// empty query matches everything with a zero score, newest first.
func (m *InMemoryStore) Search(conversationID string, query string, limit int) ([]core.SearchResult, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	stored := m.entries[conversationID]
	if len(stored) == 0 || limit <= 0 {
		return []core.SearchResult{}, nil
	}

	terms := queryTerms(query)

	type scored struct {
		result core.SearchResult
		order  int
	}
	var hits []scored
	for i, e := range stored {
		score, ok := scoreEntry(e.content, terms)
		if !ok {
			continue
		}
		md := make(map[string]any, len(e.metadata))
		for k, v := range e.metadata {
			md[k] = v
		}
		hits = append(hits, scored{
			result: core.SearchResult{ID: e.id, Content: e.content, Score: score, Metadata: md},
			order:  i,
		})
	}

	sort.SliceStable(hits, func(i, j int) bool {
		if hits[i].result.Score != hits[j].result.Score {
			return hits[i].result.Score > hits[j].result.Score
		}
		return hits[i].order > hits[j].order
	})

	if len(hits) > limit {
		hits = hits[:limit]
	}
	out := make([]core.SearchResult, len(hits))
	for i, h := range hits {
		out[i] = h.result
	}
	return out, nil
}

// Delete removes a stored memory by id.
func (m *InMemoryStore) Delete(conversationID, memoryID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	stored := m.entries[conversationID]
	for i, e := range stored {
		if e.id == memoryID {
			m.entries[conversationID] = append(stored[:i:i], stored[i+1:]...)
			return nil
		}
	}
	return fmt.Errorf("memory %q not found", memoryID)
}

// Len returns the number of memories stored for the conversation.
func (m *InMemoryStore) Len(conversationID string) int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.entries[conversationID])
}

func queryTerms(query string) []string {
	fields := strings.Fields(strings.ToLower(query))
	out := fields[:0]
	for _, f := range fields {
		if len(f) >= 2 {
			out = append(out, f)
		}
	}
	return out
}

// scoreEntry reports the fraction of query terms contained in the content.
// With no usable terms every entry matches at score zero.
func scoreEntry(content string, terms []string) (float64, bool) {
	if len(terms) == 0 {
		return 0, true
	}
	lower := strings.ToLower(content)
	matched := 0
	for _, t := range terms {
		if strings.Contains(lower, t) {
			matched++
		}
	}
	if matched == 0 {
		return 0, false
	}
	return float64(matched) / float64(len(terms)), true
}

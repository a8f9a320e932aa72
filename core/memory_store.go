package core

// MemoryStore defines persistence + retrieval (search) for conversational
// memory snippets. Implementations can back search with embeddings, keywords
// or any heuristic. Short method names align with other *Store interfaces.
type MemoryStore interface {
	Search(conversationID string, query string, limit int) ([]SearchResult, error)
	Store(conversationID string, content string, metadata map[string]any) error
	Delete(conversationID string, memoryID string) error
}

package core

// SearchResult is one scored hit returned by a MemoryStore search. Metadata
// carries implementation specific fields such as the entry type or timestamp.
type SearchResult struct {
	ID       string
	Content  string
	Score    float64
	Metadata map[string]any
}

package memory

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/howtimeschange/honolulu/core"
)

var _ core.MemoryStore = (*InMemoryStore)(nil)

func TestStoreAndSearch(t *testing.T) {
	m := NewInMemoryStore()

	require.NoError(t, m.Store("c1", "The deploy pipeline uses blue-green releases", map[string]any{"type": TypeKnowledge}))
	require.NoError(t, m.Store("c1", "User prefers short answers", map[string]any{"type": TypeUserPreference}))
	require.NoError(t, m.Store("c2", "Unrelated conversation", nil))

	results, err := m.Search("c1", "deploy pipeline", 5)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "The deploy pipeline uses blue-green releases", results[0].Content)
	assert.Equal(t, TypeKnowledge, results[0].Metadata["type"])
	assert.InDelta(t, 1.0, results[0].Score, 0.001)
}

func TestSearchRanksByTermOverlap(t *testing.T) {
	m := NewInMemoryStore()
	require.NoError(t, m.Store("c1", "release schedule for the api service", nil))
	require.NoError(t, m.Store("c1", "the api service listens on port 8080", nil))

	results, err := m.Search("c1", "api service port", 2)
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Contains(t, results[0].Content, "8080", "the entry matching more terms ranks first")
}

func TestSearchCaseInsensitive(t *testing.T) {
	m := NewInMemoryStore()
	require.NoError(t, m.Store("c1", "Prometheus scrapes every 15 seconds", nil))

	results, err := m.Search("c1", "PROMETHEUS", 1)
	require.NoError(t, err)
	require.Len(t, results, 1)
}

func TestSearchLimitAndEmptyQuery(t *testing.T) {
	m := NewInMemoryStore()
	for i := 0; i < 5; i++ {
		require.NoError(t, m.Store("c1", "note", nil))
	}

	results, err := m.Search("c1", "", 3)
	require.NoError(t, err)
	assert.Len(t, results, 3)

	results, err = m.Search("c1", "nothing-matches-this", 3)
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestStoreRejectsEmptyContent(t *testing.T) {
	m := NewInMemoryStore()
	assert.Error(t, m.Store("c1", "   ", nil))
}

func TestDelete(t *testing.T) {
	m := NewInMemoryStore()
	require.NoError(t, m.Store("c1", "keep", nil))
	require.NoError(t, m.Store("c1", "drop", nil))

	require.NoError(t, m.Delete("c1", "mem_1"))
	assert.Equal(t, 1, m.Len("c1"))
	assert.Error(t, m.Delete("c1", "mem_1"))
}

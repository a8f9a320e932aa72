package artifact

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSaveGetDelete(t *testing.T) {
	s := NewInMemoryStore()

	require.NoError(t, s.Save("c1", "out.txt", []byte("hello")))

	data, err := s.Get("c1", "out.txt")
	require.NoError(t, err)
	assert.Equal(t, "hello", string(data))

	// Mutating the returned slice must not affect the stored copy.
	data[0] = 'X'
	again, err := s.Get("c1", "out.txt")
	require.NoError(t, err)
	assert.Equal(t, "hello", string(again))

	require.NoError(t, s.Delete("c1", "out.txt"))
	_, err = s.Get("c1", "out.txt")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, s.Delete("c1", "out.txt"), ErrNotFound)
}

func TestListScopedByConversation(t *testing.T) {
	s := NewInMemoryStore()
	require.NoError(t, s.Save("c1", "b", nil))
	require.NoError(t, s.Save("c1", "a", nil))
	require.NoError(t, s.Save("c2", "other", nil))

	ids, err := s.List("c1")
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, ids)

	ids, err = s.List("unknown")
	require.NoError(t, err)
	assert.Empty(t, ids)
}

package gemini

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewToolCallID_Length(t *testing.T) {
	id, err := newToolCallID()
	require.NoError(t, err)
	assert.Len(t, id, 22)
}

func TestNewToolCallID_Unique(t *testing.T) {
	seen := map[string]bool{}
	for i := 0; i < 1000; i++ {
		id, err := newToolCallID()
		require.NoError(t, err)
		assert.False(t, seen[id])
		seen[id] = true
	}
}

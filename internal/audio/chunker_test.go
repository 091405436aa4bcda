package audio

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChunker_WindowsFixedSize(t *testing.T) {
	// 4 samples per chunk: 16 samples/sec at 250ms windows.
	c := NewChunker(16, 250)

	chunks := c.Append([]int16{1, 2, 3})
	assert.Empty(t, chunks)

	chunks = c.Append([]int16{4, 5})
	require.Len(t, chunks, 1)
	assert.Equal(t, []int16{1, 2, 3, 4}, chunks[0])

	chunks = c.Append([]int16{6, 7, 8, 9, 10, 11, 12})
	require.Len(t, chunks, 2)
	assert.Equal(t, []int16{5, 6, 7, 8}, chunks[0])
	assert.Equal(t, []int16{9, 10, 11, 12}, chunks[1])
}

func TestChunker_FlushReturnsTail(t *testing.T) {
	c := NewChunker(16, 250)
	c.Append([]int16{1, 2, 3, 4, 5, 6})

	tail := c.Flush()
	assert.Equal(t, []int16{5, 6}, tail)
	assert.Nil(t, c.Flush(), "second flush is empty")
}

func TestChunker_SessionBufferAccumulatesEverything(t *testing.T) {
	c := NewChunker(16, 250)
	c.Append([]int16{1, 2, 3, 4, 5})
	c.Append([]int16{6})
	c.Flush()

	assert.Equal(t, []int16{1, 2, 3, 4, 5, 6}, c.SessionSamples())
}

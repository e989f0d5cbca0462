package audio

import (
	"sync"
)

// ChunkBuffer accumulates recorded audio chunks in arrival order.
// Chunks are copied on append, so a crash or early stop still leaves
// every flushed slice intact.
type ChunkBuffer struct {
	mu     sync.RWMutex
	chunks [][]byte
	size   int
}

// NewChunkBuffer creates an empty chunk buffer
func NewChunkBuffer() *ChunkBuffer {
	return &ChunkBuffer{}
}

// Append copies chunk into the buffer. Empty chunks are ignored.
func (b *ChunkBuffer) Append(chunk []byte) {
	if len(chunk) == 0 {
		return
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	c := make([]byte, len(chunk))
	copy(c, chunk)
	b.chunks = append(b.chunks, c)
	b.size += len(c)
}

// Len returns the total number of buffered bytes
func (b *ChunkBuffer) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.size
}

// Chunks returns the number of buffered chunks
func (b *ChunkBuffer) Chunks() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.chunks)
}

// Bytes concatenates all chunks in arrival order into a fresh slice.
// The returned slice shares no memory with the buffer.
func (b *ChunkBuffer) Bytes() []byte {
	b.mu.RLock()
	defer b.mu.RUnlock()

	out := make([]byte, 0, b.size)
	for _, c := range b.chunks {
		out = append(out, c...)
	}
	return out
}

// Reset discards all buffered chunks
func (b *ChunkBuffer) Reset() {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.chunks = nil
	b.size = 0
}

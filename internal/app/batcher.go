package app

import (
	"fmt"

	"github.com/bft-labs/dropship/internal/domain"
)

// Batcher groups recipients into fixed-size chunks.
type Batcher struct {
	size int
}

// NewBatcher creates a batcher producing chunks of at most size recipients.
// Returns domain.ErrInvalidChunkSize if size is outside [1, domain.MaxChunkSize].
func NewBatcher(size int) (*Batcher, error) {
	if size < 1 || size > domain.MaxChunkSize {
		return nil, fmt.Errorf("%w: %d not in [1, %d]", domain.ErrInvalidChunkSize, size, domain.MaxChunkSize)
	}
	return &Batcher{size: size}, nil
}

// Size returns the configured chunk size.
func (b *Batcher) Size() int {
	return b.size
}

// Split partitions addrs into consecutive chunks in input order.
// Every chunk except possibly the last holds exactly Size recipients.
// Duplicates are kept. Chunks own their recipient slices.
func (b *Batcher) Split(addrs []domain.Address) []domain.Chunk {
	if len(addrs) == 0 {
		return nil
	}
	chunks := make([]domain.Chunk, 0, (len(addrs)+b.size-1)/b.size)
	for start := 0; start < len(addrs); start += b.size {
		end := min(start+b.size, len(addrs))
		recipients := make([]domain.Address, end-start)
		copy(recipients, addrs[start:end])
		chunks = append(chunks, domain.Chunk{
			Index:      len(chunks),
			Recipients: recipients,
		})
	}
	return chunks
}

package app

import (
	"fmt"

	"github.com/bft-labs/dropship/internal/domain"
	"github.com/bft-labs/dropship/internal/ports"
)

// OperationBuilder turns a chunk into an operation with one transfer
// instruction per recipient.
type OperationBuilder struct {
	source    domain.Address
	authority domain.Address
	amount    uint64
	resolve   ports.DestinationResolver
}

// NewOperationBuilder creates a builder transferring amount minor units from
// source, authorized by authority. A nil resolve sends to recipients directly.
func NewOperationBuilder(source, authority domain.Address, amount uint64, resolve ports.DestinationResolver) *OperationBuilder {
	if resolve == nil {
		resolve = func(a domain.Address) (domain.Address, error) { return a, nil }
	}
	return &OperationBuilder{
		source:    source,
		authority: authority,
		amount:    amount,
		resolve:   resolve,
	}
}

// Build assembles the operation for chunk bound to window.
// Instructions follow chunk order. Returns domain.ErrEmptyChunk for an empty chunk.
func (b *OperationBuilder) Build(chunk domain.Chunk, window domain.FreshnessWindow) (*domain.Operation, error) {
	if chunk.Empty() {
		return nil, domain.ErrEmptyChunk
	}

	instructions := make([]domain.TransferInstruction, 0, chunk.Size())
	for _, recipient := range chunk.Recipients {
		dest, err := b.resolve(recipient)
		if err != nil {
			return nil, &domain.SubmissionError{
				Reason: domain.RejectMalformedInstruction,
				Err:    fmt.Errorf("resolve destination for %s: %w", recipient, err),
			}
		}
		instructions = append(instructions, domain.TransferInstruction{
			Source:      b.source,
			Destination: dest,
			Authority:   b.authority,
			Amount:      b.amount,
		})
	}

	return &domain.Operation{
		Chunk:        chunk,
		Instructions: instructions,
		Window:       window,
	}, nil
}

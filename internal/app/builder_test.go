package app

import (
	"errors"
	"testing"

	"github.com/bft-labs/dropship/internal/domain"
)

func TestOperationBuilder_Build(t *testing.T) {
	addrs := testAddrs(5)
	source := testAddrs(7)[6]
	authority := testAddrs(8)[7]
	window := domain.FreshnessWindow{Reference: "ref", ExpiryHeight: 10}

	b := NewOperationBuilder(source, authority, 100_000_000, nil)
	op, err := b.Build(domain.Chunk{Index: 3, Recipients: addrs}, window)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	if len(op.Instructions) != len(addrs) {
		t.Fatalf("got %d instructions, want %d", len(op.Instructions), len(addrs))
	}
	for i, ix := range op.Instructions {
		if ix.Destination != addrs[i] {
			t.Errorf("instruction %d destination mismatch", i)
		}
		if ix.Source != source || ix.Authority != authority {
			t.Errorf("instruction %d source/authority mismatch", i)
		}
		if ix.Amount != 100_000_000 {
			t.Errorf("instruction %d amount = %d", i, ix.Amount)
		}
	}
	if op.Window != window {
		t.Errorf("Window = %+v, want %+v", op.Window, window)
	}
	if op.Chunk.Index != 3 {
		t.Errorf("Chunk.Index = %d, want 3", op.Chunk.Index)
	}
}

func TestOperationBuilder_EmptyChunk(t *testing.T) {
	b := NewOperationBuilder(domain.Address{}, domain.Address{}, 1, nil)
	_, err := b.Build(domain.Chunk{Index: 0}, domain.FreshnessWindow{Reference: "ref"})
	if !errors.Is(err, domain.ErrEmptyChunk) {
		t.Errorf("Build(empty) error = %v, want ErrEmptyChunk", err)
	}
}

func TestOperationBuilder_Resolver(t *testing.T) {
	addrs := testAddrs(3)
	marker := byte(0xaa)
	resolve := func(a domain.Address) (domain.Address, error) {
		if a == addrs[2] {
			return domain.Address{}, errors.New("no account")
		}
		a[30] = marker
		return a, nil
	}
	b := NewOperationBuilder(domain.Address{}, domain.Address{}, 1, resolve)

	op, err := b.Build(domain.Chunk{Recipients: addrs[:2]}, domain.FreshnessWindow{})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if op.Instructions[0].Destination[30] != marker {
		t.Error("resolver was not applied")
	}

	_, err = b.Build(domain.Chunk{Recipients: addrs}, domain.FreshnessWindow{})
	if domain.ReasonOf(err) != domain.RejectMalformedInstruction {
		t.Errorf("resolver failure reason = %q, want malformed_instruction", domain.ReasonOf(err))
	}
}

package ports

import (
	"context"

	"github.com/bft-labs/dropship/internal/domain"
)

// AddressSource produces the ordered recipient list for a run.
type AddressSource interface {
	// Load returns every valid address in source order, duplicates included,
	// along with the lines that failed to decode.
	// Returns an error wrapping domain.ErrSourceUnavailable if the source
	// cannot be read, and domain.ErrNoRecipients if nothing valid remains.
	Load(ctx context.Context) (domain.LoadResult, error)
}

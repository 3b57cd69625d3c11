package ports

import (
	"context"

	"github.com/bft-labs/dropship/internal/domain"
)

// Ledger is the network the run distributes tokens on.
type Ledger interface {
	// FetchWindow obtains a fresh freshness window.
	// Failures are returned as *domain.WindowFetchError.
	FetchWindow(ctx context.Context) (domain.FreshnessWindow, error)

	// Submit signs op and hands it to the network.
	// It returns once the network has accepted the operation for processing,
	// not once it is confirmed. Rejections are returned as *domain.SubmissionError.
	Submit(ctx context.Context, op *domain.Operation) (domain.Ticket, error)

	// AwaitConfirmation blocks until the operation behind ticket is
	// confirmed, rejected, or ctx ends. Rejections are *domain.SubmissionError.
	AwaitConfirmation(ctx context.Context, ticket domain.Ticket) error
}

// DestinationResolver maps a recipient to the account that receives the
// transfer. The identity resolver is used when recipients are already
// token accounts.
type DestinationResolver func(recipient domain.Address) (domain.Address, error)

package dropship

import (
	"github.com/bft-labs/dropship/internal/domain"
	"github.com/bft-labs/dropship/internal/ports"
	"github.com/bft-labs/dropship/pkg/log"
)

// Re-exported domain types.
type (
	Address         = domain.Address
	Chunk           = domain.Chunk
	FreshnessWindow = domain.FreshnessWindow
	Operation       = domain.Operation
	Ticket          = domain.Ticket
	LoadResult      = domain.LoadResult
	DecodeError     = domain.DecodeError
	OutcomeRecord   = domain.OutcomeRecord
	Summary         = domain.Summary
	RunInfo         = domain.RunInfo
	Report          = domain.Report
	RejectReason    = domain.RejectReason
)

// Collaborator interfaces.
type (
	AddressSource       = ports.AddressSource
	Ledger              = ports.Ledger
	Journal             = ports.Journal
	ReportSink          = ports.ReportSink
	DestinationResolver = ports.DestinationResolver
	Logger              = log.Logger
)

// ParseAddress decodes a base58 account address.
func ParseAddress(s string) (Address, error) {
	return domain.ParseAddress(s)
}

// Sentinel errors for errors.Is checks.
var (
	ErrSourceUnavailable  = domain.ErrSourceUnavailable
	ErrNoRecipients       = domain.ErrNoRecipients
	ErrInvalidConfig      = domain.ErrInvalidConfig
	ErrInvalidChunkSize   = domain.ErrInvalidChunkSize
	ErrNetworkUnavailable = domain.ErrNetworkUnavailable
)

package dropship

import (
	"fmt"
	"time"

	"github.com/bft-labs/dropship/internal/domain"
)

// Config controls a distribution run.
type Config struct {
	// SourceAccount is the token account funds are drawn from.
	SourceAccount Address

	// Authority owns SourceAccount and signs every operation.
	// When zero, it is taken from the ledger if the ledger exposes Authority().
	Authority Address

	// Amount is the number of minor units sent to each recipient.
	Amount uint64

	ChunkSize      int
	MaxDuration    time.Duration
	MinSubmitDelay time.Duration

	// MaxInFlight bounds the number of issued but unconfirmed operations.
	MaxInFlight    int
	ConfirmTimeout time.Duration

	// WindowMaxAge forces a freshness window refetch once exceeded. Zero disables it.
	WindowMaxAge time.Duration

	// Dedupe removes repeated recipients before chunking.
	Dedupe bool
}

// DefaultConfig returns a Config with default pacing. SourceAccount and
// Amount must still be set.
func DefaultConfig() Config {
	return Config{
		ChunkSize:      22,
		MaxDuration:    10 * time.Second,
		MinSubmitDelay: 100 * time.Millisecond,
		MaxInFlight:    64,
		ConfirmTimeout: 60 * time.Second,
		WindowMaxAge:   60 * time.Second,
	}
}

// Validate reports the first invalid setting.
func (c Config) Validate() error {
	if c.ChunkSize < 1 || c.ChunkSize > domain.MaxChunkSize {
		return fmt.Errorf("%w: %d not in [1, %d]", domain.ErrInvalidChunkSize, c.ChunkSize, domain.MaxChunkSize)
	}
	switch {
	case c.SourceAccount.IsZero():
		return fmt.Errorf("%w: source account is required", domain.ErrInvalidConfig)
	case c.Authority.IsZero():
		return fmt.Errorf("%w: authority is required", domain.ErrInvalidConfig)
	case c.Amount == 0:
		return fmt.Errorf("%w: amount must be positive", domain.ErrInvalidConfig)
	case c.MaxDuration < 0, c.MinSubmitDelay < 0, c.ConfirmTimeout < 0, c.WindowMaxAge < 0:
		return fmt.Errorf("%w: durations must not be negative", domain.ErrInvalidConfig)
	case c.MaxInFlight < 1:
		return fmt.Errorf("%w: max in-flight must be at least 1", domain.ErrInvalidConfig)
	}
	return nil
}

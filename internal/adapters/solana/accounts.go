package solana

import (
	"context"
	"fmt"
	"strconv"

	sollib "github.com/gagliardetto/solana-go"

	"github.com/bft-labs/dropship/internal/domain"
	"github.com/bft-labs/dropship/internal/ports"
)

// AssociatedTokenAccount derives the associated token account of owner for mint.
func AssociatedTokenAccount(owner, mint domain.Address) (domain.Address, error) {
	ata, _, err := sollib.FindAssociatedTokenAddress(sollib.PublicKey(owner), sollib.PublicKey(mint))
	if err != nil {
		return domain.Address{}, fmt.Errorf("derive token account of %s: %w", owner, err)
	}
	return domain.Address(ata), nil
}

// OwnerResolver treats recipients as wallet owners and sends to their
// associated token account for mint.
func OwnerResolver(mint domain.Address) ports.DestinationResolver {
	return func(owner domain.Address) (domain.Address, error) {
		return AssociatedTokenAccount(owner, mint)
	}
}

// Probe is a snapshot of cluster and source account state.
type Probe struct {
	Version        string
	BlockHeight    uint64
	Window         domain.FreshnessWindow
	SourceBalance  uint64
	SourceDecimals uint8
}

// Probe checks that the endpoint answers and reads the source token balance.
func (c *Client) Probe(ctx context.Context, source domain.Address) (Probe, error) {
	var p Probe

	if err := c.limiter.Wait(ctx); err != nil {
		return p, err
	}
	ver, err := c.rpc.GetVersion(ctx)
	if err != nil {
		return p, fmt.Errorf("%w: getVersion: %w", domain.ErrNetworkUnavailable, classify(err))
	}
	p.Version = ver.SolanaCore

	if p.Window, err = c.FetchWindow(ctx); err != nil {
		return p, err
	}

	if err := c.limiter.Wait(ctx); err != nil {
		return p, err
	}
	if p.BlockHeight, err = c.rpc.GetBlockHeight(ctx, c.cfg.Commitment); err != nil {
		return p, fmt.Errorf("getBlockHeight: %w", classify(err))
	}

	if err := c.limiter.Wait(ctx); err != nil {
		return p, err
	}
	bal, err := c.rpc.GetTokenAccountBalance(ctx, sollib.PublicKey(source), c.cfg.Commitment)
	if err != nil {
		return p, fmt.Errorf("source account %s: %w", source, classify(err))
	}
	if bal == nil || bal.Value == nil {
		return p, fmt.Errorf("source account %s: empty balance result", source)
	}
	if p.SourceBalance, err = strconv.ParseUint(bal.Value.Amount, 10, 64); err != nil {
		return p, fmt.Errorf("source account %s: parse balance %q: %w", source, bal.Value.Amount, err)
	}
	p.SourceDecimals = bal.Value.Decimals
	return p, nil
}

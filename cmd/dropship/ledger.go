package main

import (
	"fmt"

	solrpc "github.com/gagliardetto/solana-go/rpc"

	"github.com/bft-labs/dropship/internal/adapters/solana"
	"github.com/bft-labs/dropship/internal/cliconfig"
	"github.com/bft-labs/dropship/internal/domain"
	"github.com/bft-labs/dropship/internal/ports"
)

// ledgerSetup is the network side of a run: client, signer-derived
// authority and the token account transfers are drawn from.
type ledgerSetup struct {
	client *solana.Client
	source domain.Address
	mint   domain.Address
}

func newLedgerSetup(cfg cliconfig.Config, logger ports.Logger) (*ledgerSetup, error) {
	signer, err := solana.LoadSigner(cfg.Keypair, cfg.PrivateKey)
	if err != nil {
		return nil, err
	}
	endpoint, err := solana.ResolveEndpoint(cfg.Endpoint)
	if err != nil {
		return nil, err
	}

	scfg := solana.DefaultConfig(endpoint)
	scfg.Commitment = solrpc.CommitmentType(cfg.Commitment)
	scfg.RequestsPerSecond = cfg.RPCRate
	scfg.SkipPreflight = cfg.SkipPreflight
	client := solana.New(scfg, signer, logger)

	s := &ledgerSetup{client: client}
	if cfg.Mint != "" {
		if s.mint, err = domain.ParseAddress(cfg.Mint); err != nil {
			client.Close()
			return nil, fmt.Errorf("%w: mint: %w", domain.ErrInvalidConfig, err)
		}
	}
	if cfg.SourceAccount != "" {
		s.source, err = domain.ParseAddress(cfg.SourceAccount)
	} else {
		s.source, err = solana.AssociatedTokenAccount(client.Authority(), s.mint)
	}
	if err != nil {
		client.Close()
		return nil, fmt.Errorf("%w: source account: %w", domain.ErrInvalidConfig, err)
	}

	logger.Info("ledger configured",
		ports.String("endpoint", endpoint),
		ports.Stringer("authority", client.Authority()),
		ports.Stringer("source", s.source),
	)
	return s, nil
}

// resolver returns the destination mapping for owner mode, or nil when
// recipients are token accounts already.
func (s *ledgerSetup) resolver(cfg cliconfig.Config) ports.DestinationResolver {
	if !cfg.DeriveTokenAccounts {
		return nil
	}
	return solana.OwnerResolver(s.mint)
}

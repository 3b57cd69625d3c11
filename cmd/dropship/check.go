package main

import (
	"context"
	"fmt"
	"math/bits"
	"time"

	"github.com/spf13/cobra"

	"github.com/bft-labs/dropship/internal/adapters/fs"
	"github.com/bft-labs/dropship/internal/app"
	"github.com/bft-labs/dropship/internal/cliconfig"
	"github.com/bft-labs/dropship/internal/domain"
)

const probeTimeout = 30 * time.Second

func newCheckCommand(cfg *cliconfig.Config) *cobra.Command {
	var probe bool
	cmd := &cobra.Command{
		Use:   "check",
		Short: "Validate a recipient list without sending anything",
		Long: `Validate a recipient list without sending anything.

Prints how many lines decoded, which were rejected and how many chunks a
run would submit. With --probe it also queries the endpoint and checks that
the source account holds enough tokens for the whole list.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return check(cmd, *cfg, probe)
		},
	}
	cmd.Flags().BoolVar(&probe, "probe", false, "query the endpoint and source balance")
	return cmd
}

func check(cmd *cobra.Command, cfg cliconfig.Config, probe bool) error {
	if err := cfg.ValidateSource(); err != nil {
		return err
	}
	out := cmd.OutOrStdout()

	res, err := fs.NewAddressFile(cfg.Recipients).Load(cmd.Context())
	printRejected(out, res.Rejected)
	if err != nil {
		return err
	}

	addrs := res.Addresses
	unique, duplicates := domain.Dedupe(addrs)
	if cfg.Dedupe {
		addrs = unique
	}
	batcher, err := app.NewBatcher(cfg.ChunkSize)
	if err != nil {
		return err
	}
	chunks := batcher.Split(addrs)

	fmt.Fprintf(out, "valid: %d  rejected: %d  duplicates: %d\n", len(res.Addresses), len(res.Rejected), duplicates)
	fmt.Fprintf(out, "recipients to send: %d in %d chunks of up to %d\n", len(addrs), len(chunks), cfg.ChunkSize)

	if !probe {
		return nil
	}
	return probeLedger(cmd, cfg, len(addrs))
}

func probeLedger(cmd *cobra.Command, cfg cliconfig.Config, recipients int) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	amount, err := cfg.MinorUnits()
	if err != nil {
		return err
	}
	logger, err := newLogger(cfg)
	if err != nil {
		return err
	}
	setup, err := newLedgerSetup(cfg, logger)
	if err != nil {
		return err
	}
	defer setup.client.Close()

	ctx, cancel := context.WithTimeout(cmd.Context(), probeTimeout)
	defer cancel()
	p, err := setup.client.Probe(ctx, setup.source)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "node version: %s  block height: %d  blockhash valid until: %d\n",
		p.Version, p.BlockHeight, p.Window.ExpiryHeight)
	fmt.Fprintf(out, "source %s balance: %d (decimals %d)\n", setup.source, p.SourceBalance, p.SourceDecimals)
	if int(p.SourceDecimals) != cfg.Decimals {
		fmt.Fprintf(out, "warning: mint has %d decimals, configured %d\n", p.SourceDecimals, cfg.Decimals)
	}

	hi, required := bits.Mul64(amount, uint64(recipients))
	if hi != 0 {
		return fmt.Errorf("%w: total distribution overflows", domain.ErrInvalidConfig)
	}
	fmt.Fprintf(out, "required: %d\n", required)
	if p.SourceBalance < required {
		return fmt.Errorf("source balance %d is below the %d required", p.SourceBalance, required)
	}
	return nil
}

package main

import (
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/bft-labs/dropship/internal/adapters/fs"
	httpAdapter "github.com/bft-labs/dropship/internal/adapters/http"
	"github.com/bft-labs/dropship/internal/adapters/sqlite"
	"github.com/bft-labs/dropship/internal/cliconfig"
	"github.com/bft-labs/dropship/internal/ports"
	"github.com/bft-labs/dropship/pkg/dropship"
)

const reportPostTimeout = 30 * time.Second

func newRunCommand(cfg *cliconfig.Config) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Distribute tokens to every recipient in the list",
		Long: `Distribute tokens to every recipient in the list.

The run stops issuing new transactions once --max-duration elapses or on
SIGINT/SIGTERM; transactions already sent are still awaited. A second
signal exits immediately. The exit code is non-zero only when the run could
not start or its report could not be written.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDistribution(cmd, *cfg)
		},
	}

	f := cmd.Flags()
	f.DurationVar(&cfg.MaxDuration, "max-duration", cfg.MaxDuration, "stop issuing transactions after this long")
	f.DurationVar(&cfg.MinSubmitDelay, "min-submit-delay", cfg.MinSubmitDelay, "minimum delay between submissions")
	f.IntVar(&cfg.MaxInFlight, "max-in-flight", cfg.MaxInFlight, "maximum unconfirmed transactions")
	f.DurationVar(&cfg.ConfirmTimeout, "confirm-timeout", cfg.ConfirmTimeout, "how long to await each confirmation")
	f.DurationVar(&cfg.WindowMaxAge, "window-max-age", cfg.WindowMaxAge, "refetch the recent blockhash once it is this old (0 = never)")
	f.BoolVar(&cfg.SkipPreflight, "skip-preflight", cfg.SkipPreflight, "skip transaction simulation before broadcast")
	f.BoolVar(&cfg.DeriveTokenAccounts, "derive-token-accounts", cfg.DeriveTokenAccounts, "treat recipients as wallets and send to their associated token accounts")
	f.StringVar(&cfg.Report, "report", cfg.Report, "write the JSON run report to this path")
	f.StringVar(&cfg.RetryOut, "retry-out", cfg.RetryOut, "write failed and skipped recipients to this path")
	f.StringVar(&cfg.ReportURL, "report-url", cfg.ReportURL, "POST the JSON run report to this URL")
	f.StringVar(&cfg.ReportAuthKey, "report-auth-key", cfg.ReportAuthKey, "bearer token for --report-url")
	return cmd
}

func runDistribution(cmd *cobra.Command, cfg cliconfig.Config) error {
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

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	go func() {
		<-ctx.Done()
		// Restore default handling so a second signal terminates the process.
		stop()
	}()

	opts := []dropship.Option{
		dropship.WithLogger(logger),
		dropship.WithDestinationResolver(setup.resolver(cfg)),
	}
	if cfg.Journal != "" {
		journal, err := sqlite.Open(ctx, cfg.Journal)
		if err != nil {
			return err
		}
		defer journal.Close()
		opts = append(opts, dropship.WithJournal(journal))
	}
	if cfg.Report != "" {
		opts = append(opts, dropship.WithReportSink(fs.NewReportFile(cfg.Report)))
	}
	if cfg.RetryOut != "" {
		opts = append(opts, dropship.WithReportSink(fs.NewRetryList(cfg.RetryOut)))
	}
	if cfg.ReportURL != "" {
		client := &http.Client{Timeout: reportPostTimeout}
		opts = append(opts, dropship.WithReportSink(httpAdapter.NewReportPoster(client, cfg.ReportURL, cfg.ReportAuthKey, logger)))
	}

	libCfg := dropship.Config{
		SourceAccount:  setup.source,
		Authority:      setup.client.Authority(),
		Amount:         amount,
		ChunkSize:      cfg.ChunkSize,
		MaxDuration:    cfg.MaxDuration,
		MinSubmitDelay: cfg.MinSubmitDelay,
		MaxInFlight:    cfg.MaxInFlight,
		ConfirmTimeout: cfg.ConfirmTimeout,
		WindowMaxAge:   cfg.WindowMaxAge,
		Dedupe:         cfg.Dedupe,
	}
	d, err := dropship.New(libCfg, setup.client, opts...)
	if err != nil {
		return err
	}

	logger.Info("starting run",
		ports.String("recipients", cfg.Recipients),
		ports.Uint64("amount_minor_units", amount),
		ports.Int("chunk_size", cfg.ChunkSize),
		ports.Duration("max_duration", cfg.MaxDuration),
	)

	report, err := d.Run(ctx, fs.NewAddressFile(cfg.Recipients))
	if report.Run.ID == "" {
		// The source could not be used; nothing was dispatched.
		printRejected(cmd.OutOrStdout(), report.Rejected)
		return err
	}
	printReport(cmd.OutOrStdout(), report)
	return err
}

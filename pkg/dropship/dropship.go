package dropship

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/bft-labs/dropship/internal/app"
	"github.com/bft-labs/dropship/internal/domain"
	"github.com/bft-labs/dropship/internal/ports"
)

// ErrAlreadyRunning is returned by Run while another run is in progress.
var ErrAlreadyRunning = errors.New("dropship: a run is already in progress")

// Dropship dispatches token transfers to recipient lists.
// Use New() to create an instance, then Run() once per recipient list.
type Dropship struct {
	config     Config
	batcher    *app.Batcher
	dispatcher *app.Dispatcher
	logger     ports.Logger
	sinks      []ports.ReportSink

	mu sync.Mutex
}

// authorityProvider is implemented by ledgers that sign with a known key.
type authorityProvider interface {
	Authority() domain.Address
}

// New creates a Dropship that submits through ledger.
// Returns an error if configuration is invalid.
func New(cfg Config, ledger Ledger, opts ...Option) (*Dropship, error) {
	if ledger == nil {
		return nil, fmt.Errorf("%w: ledger is required", domain.ErrInvalidConfig)
	}
	if cfg.Authority.IsZero() {
		if p, ok := ledger.(authorityProvider); ok {
			cfg.Authority = p.Authority()
		}
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}

	batcher, err := app.NewBatcher(cfg.ChunkSize)
	if err != nil {
		return nil, err
	}

	emitter := &eventEmitterWrapper{handler: o.eventHandler}
	builder := app.NewOperationBuilder(cfg.SourceAccount, cfg.Authority, cfg.Amount, o.resolve)
	dispatcher := app.NewDispatcher(app.DispatcherConfig{
		ChunkSize:      cfg.ChunkSize,
		MaxDuration:    cfg.MaxDuration,
		MinSubmitDelay: cfg.MinSubmitDelay,
		MaxInFlight:    cfg.MaxInFlight,
		ConfirmTimeout: cfg.ConfirmTimeout,
		WindowMaxAge:   cfg.WindowMaxAge,
	}, ledger, builder, o.journal, o.logger, emitter, emitter)

	return &Dropship{
		config:     cfg,
		batcher:    batcher,
		dispatcher: dispatcher,
		logger:     o.logger,
		sinks:      o.sinks,
	}, nil
}

// Config returns the validated configuration, including a resolved Authority.
func (d *Dropship) Config() Config {
	return d.config
}

// Run loads recipients from source and distributes to them.
//
// The returned error is non-nil when the source cannot be used, when the
// initial freshness window is unavailable, or when a report sink fails.
// In the last case the report is complete and should still be inspected.
func (d *Dropship) Run(ctx context.Context, source AddressSource) (Report, error) {
	if !d.mu.TryLock() {
		return Report{}, ErrAlreadyRunning
	}
	defer d.mu.Unlock()

	loaded, err := source.Load(ctx)
	for _, rej := range loaded.Rejected {
		d.logger.Warn("recipient line rejected",
			ports.Int("line", rej.Line),
			ports.String("content", rej.Content),
			ports.Err(rej.Err),
		)
	}
	if err != nil {
		return Report{Rejected: loaded.Rejected}, err
	}

	addrs := loaded.Addresses
	duplicates := 0
	if d.config.Dedupe {
		addrs, duplicates = domain.Dedupe(addrs)
		if duplicates > 0 {
			d.logger.Info("duplicate recipients removed", ports.Int("duplicates", duplicates))
		}
	}

	chunks := d.batcher.Split(addrs)
	report, err := d.dispatcher.Run(ctx, chunks)
	report.Rejected = loaded.Rejected
	report.Duplicates = duplicates
	if err != nil {
		return report, err
	}

	var sinkErrs []error
	for _, sink := range d.sinks {
		if err := sink.Write(context.WithoutCancel(ctx), report); err != nil {
			d.logger.Error("report sink failed", ports.Err(err))
			sinkErrs = append(sinkErrs, err)
		}
	}
	return report, errors.Join(sinkErrs...)
}

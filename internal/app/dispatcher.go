package app

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/bft-labs/dropship/internal/domain"
	"github.com/bft-labs/dropship/internal/ports"
)

// DispatcherConfig contains the pacing and deadline settings of a run.
type DispatcherConfig struct {
	ChunkSize      int
	MaxDuration    time.Duration
	MinSubmitDelay time.Duration
	MaxInFlight    int
	ConfirmTimeout time.Duration
	WindowMaxAge   time.Duration
}

// RunEventEmitter is notified as chunks are issued and recorded.
type RunEventEmitter interface {
	OnChunkIssued(chunk domain.Chunk, ticket domain.Ticket)
	OnChunkRecorded(rec domain.OutcomeRecord)
}

// Dispatcher drives chunks through build, submit and confirmation.
// Issuance is serialized and throttled; confirmations run concurrently.
type Dispatcher struct {
	config       DispatcherConfig
	ledger       ports.Ledger
	builder      *OperationBuilder
	journal      ports.Journal
	logger       ports.Logger
	stateEmitter EventEmitter
	runEmitter   RunEventEmitter
}

// NewDispatcher creates a dispatcher. journal, stateEmitter and runEmitter may be nil.
func NewDispatcher(
	config DispatcherConfig,
	ledger ports.Ledger,
	builder *OperationBuilder,
	journal ports.Journal,
	logger ports.Logger,
	stateEmitter EventEmitter,
	runEmitter RunEventEmitter,
) *Dispatcher {
	if config.MaxInFlight < 1 {
		config.MaxInFlight = 1
	}
	return &Dispatcher{
		config:       config,
		ledger:       ledger,
		builder:      builder,
		journal:      journal,
		logger:       logger,
		stateEmitter: stateEmitter,
		runEmitter:   runEmitter,
	}
}

// run holds the per-run collaborators shared by the loop and confirmations.
type run struct {
	info     domain.RunInfo
	logger   ports.Logger
	life     *Lifecycle
	tracker  *OutcomeTracker
	keeper   *WindowKeeper
	throttle *Throttle
}

// Run dispatches chunks in index order and returns the run report.
//
// The only error returned is a failure to obtain the initial freshness
// window, in which case no chunk is attempted and the report has no records.
// Per-chunk failures and deadline skips are recorded in the report instead.
func (d *Dispatcher) Run(ctx context.Context, chunks []domain.Chunk) (domain.Report, error) {
	r := &run{
		info: domain.RunInfo{
			ID:              uuid.NewString(),
			StartedAt:       time.Now(),
			MaxDuration:     d.config.MaxDuration,
			ChunkSize:       d.config.ChunkSize,
			TotalChunks:     len(chunks),
			TotalRecipients: countRecipients(chunks),
		},
		tracker:  NewOutcomeTracker(),
		throttle: NewThrottle(d.config.MinSubmitDelay),
	}
	r.logger = d.logger.With(ports.String("run_id", r.info.ID))
	r.life = NewLifecycle(r.logger, d.stateEmitter)
	r.keeper = NewWindowKeeper(d.ledger, d.config.WindowMaxAge, r.logger)

	if _, err := r.keeper.Fetch(ctx); err != nil {
		var wfe *domain.WindowFetchError
		if !errors.As(err, &wfe) {
			err = &domain.WindowFetchError{Err: err}
		}
		r.logger.Error("initial freshness window unavailable, aborting run", ports.Err(err))
		_ = r.life.TransitionTo(StateTerminated, "initial window fetch failed")
		return d.report(r), err
	}

	r.info.Deadline = time.Now().Add(d.config.MaxDuration)
	_ = r.life.TransitionTo(StateRunning, "window acquired")
	d.beginJournal(ctx, r.info, r.logger)

	r.logger.Info("run started",
		ports.Int("chunks", r.info.TotalChunks),
		ports.Int("recipients", r.info.TotalRecipients),
		ports.Time("deadline", r.info.Deadline),
	)

	var g errgroup.Group
	g.SetLimit(d.config.MaxInFlight)

	next := 0
	var skipReason domain.SkipReason
	for ; next < len(chunks); next++ {
		chunk := chunks[next]

		if reason, stop := d.stopReason(ctx, r.info.Deadline, nil); stop {
			skipReason = reason
			break
		}
		if err := r.throttle.Wait(ctx, r.info.Deadline); err != nil {
			skipReason, _ = d.stopReason(ctx, r.info.Deadline, err)
			break
		}
		if reason, stop := d.stopReason(ctx, r.info.Deadline, nil); stop {
			skipReason = reason
			break
		}

		window, err := r.keeper.Current(ctx)
		if err != nil {
			if ctx.Err() != nil {
				skipReason = domain.SkipCanceled
				break
			}
			r.logger.Warn("freshness window refetch failed",
				ports.Int("chunk", chunk.Index), ports.Err(err))
			d.record(ctx, r, domain.Failed(chunk, err, "", time.Time{}, time.Now()))
			continue
		}

		op, err := d.builder.Build(chunk, window)
		if err != nil {
			d.record(ctx, r, domain.Failed(chunk, err, "", time.Time{}, time.Now()))
			continue
		}

		issuedAt := r.throttle.Mark()
		ticket, err := d.ledger.Submit(ctx, op)
		if err != nil {
			if domain.ReasonOf(err) == domain.RejectStaleWindow {
				r.keeper.Invalidate(window)
			}
			r.logger.Warn("chunk rejected at submission",
				ports.Int("chunk", chunk.Index), ports.Err(err))
			d.record(ctx, r, domain.Failed(chunk, err, "", issuedAt, time.Now()))
			continue
		}
		ticket.ChunkIndex = chunk.Index
		ticket.Window = window
		ticket.IssuedAt = issuedAt

		r.logger.Debug("chunk issued",
			ports.Int("chunk", chunk.Index),
			ports.String("signature", ticket.Signature),
		)
		if d.runEmitter != nil {
			d.runEmitter.OnChunkIssued(chunk, ticket)
		}

		g.Go(func() error {
			d.confirm(ctx, r, chunk, ticket)
			return nil
		})
	}

	if next < len(chunks) {
		_ = r.life.TransitionTo(StateDraining, string(skipReason))
		r.logger.Warn("stopping issuance",
			ports.String("reason", string(skipReason)),
			ports.Int("remaining_chunks", len(chunks)-next),
		)
		now := time.Now()
		for _, chunk := range chunks[next:] {
			d.record(ctx, r, domain.Skipped(chunk, skipReason, now))
		}
	} else {
		_ = r.life.TransitionTo(StateCompleted, "all chunks attempted")
	}

	_ = g.Wait()
	r.tracker.Seal()
	_ = r.life.TransitionTo(StateTerminated, "in-flight operations settled")

	report := d.report(r)
	d.finishJournal(ctx, report, r.logger)

	r.logger.Info("run finished",
		ports.String("end_state", report.EndState),
		ports.Int("succeeded", len(report.Summary.Succeeded)),
		ports.Int("failed", len(report.Summary.Failed)),
		ports.Int("skipped", len(report.Summary.Skipped)),
		ports.Int("window_fetches", r.keeper.Fetches()),
	)
	return report, nil
}

// stopReason reports whether issuance must stop before the next chunk.
// waitErr is the error from a throttle wait, if any.
func (d *Dispatcher) stopReason(ctx context.Context, deadline time.Time, waitErr error) (domain.SkipReason, bool) {
	if ctx.Err() != nil {
		return domain.SkipCanceled, true
	}
	if waitErr != nil || !time.Now().Before(deadline) {
		return domain.SkipDeadlineExceeded, true
	}
	return "", false
}

// confirm awaits the network verdict for an issued chunk.
// In-flight confirmations outlive cancellation of the run context,
// bounded by ConfirmTimeout.
func (d *Dispatcher) confirm(ctx context.Context, r *run, chunk domain.Chunk, ticket domain.Ticket) {
	cctx := context.WithoutCancel(ctx)
	if d.config.ConfirmTimeout > 0 {
		var cancel context.CancelFunc
		cctx, cancel = context.WithTimeout(cctx, d.config.ConfirmTimeout)
		defer cancel()
	}

	if err := d.ledger.AwaitConfirmation(cctx, ticket); err != nil {
		if domain.ReasonOf(err) == domain.RejectStaleWindow {
			r.keeper.Invalidate(ticket.Window)
		}
		r.logger.Warn("chunk failed",
			ports.Int("chunk", chunk.Index),
			ports.String("signature", ticket.Signature),
			ports.Err(err),
		)
		d.record(ctx, r, domain.Failed(chunk, err, ticket.Signature, ticket.IssuedAt, time.Now()))
		return
	}
	r.logger.Debug("chunk confirmed",
		ports.Int("chunk", chunk.Index),
		ports.String("signature", ticket.Signature),
	)
	d.record(ctx, r, domain.Succeeded(chunk, ticket, time.Now()))
}

func (d *Dispatcher) record(ctx context.Context, r *run, rec domain.OutcomeRecord) {
	if err := r.tracker.Record(rec); err != nil {
		r.logger.Error("outcome not recorded", ports.Int("chunk", rec.ChunkIndex), ports.Err(err))
		return
	}
	if d.journal != nil {
		if err := d.journal.Append(context.WithoutCancel(ctx), r.info.ID, rec); err != nil {
			r.logger.Warn("journal append failed", ports.Int("chunk", rec.ChunkIndex), ports.Err(err))
		}
	}
	if d.runEmitter != nil {
		d.runEmitter.OnChunkRecorded(rec)
	}
}

func (d *Dispatcher) beginJournal(ctx context.Context, info domain.RunInfo, logger ports.Logger) {
	if d.journal == nil {
		return
	}
	if err := d.journal.BeginRun(context.WithoutCancel(ctx), info); err != nil {
		logger.Warn("journal begin failed", ports.Err(err))
	}
}

func (d *Dispatcher) finishJournal(ctx context.Context, report domain.Report, logger ports.Logger) {
	if d.journal == nil {
		return
	}
	if err := d.journal.FinishRun(context.WithoutCancel(ctx), report.Run.ID, report.EndState, report.Summary); err != nil {
		logger.Warn("journal finish failed", ports.Err(err))
	}
}

func (d *Dispatcher) report(r *run) domain.Report {
	records := r.tracker.Records()
	history := r.life.History()
	// The state the run ended from: Completed, Draining, or Idle on abort.
	endState := history[len(history)-1]
	if endState == StateTerminated && len(history) > 1 {
		endState = history[len(history)-2]
	}
	return domain.Report{
		Run:        r.info,
		FinishedAt: time.Now(),
		EndState:   endState.String(),
		Records:    records,
		Summary:    domain.Summarize(records),
	}
}

func countRecipients(chunks []domain.Chunk) int {
	n := 0
	for _, c := range chunks {
		n += c.Size()
	}
	return n
}

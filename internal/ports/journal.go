package ports

import (
	"context"

	"github.com/bft-labs/dropship/internal/domain"
)

// Journal persists run progress as records are produced, so that an
// interrupted process still leaves a trace of what was attempted.
type Journal interface {
	BeginRun(ctx context.Context, run domain.RunInfo) error
	Append(ctx context.Context, runID string, rec domain.OutcomeRecord) error
	FinishRun(ctx context.Context, runID string, endState string, summary domain.Summary) error
	Close() error
}

// ReportSink receives the final report of a run.
type ReportSink interface {
	Write(ctx context.Context, report domain.Report) error
}

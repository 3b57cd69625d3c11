package dropship

import (
	"github.com/bft-labs/dropship/internal/ports"
	"github.com/bft-labs/dropship/pkg/log"
)

// Option configures optional behavior of Dropship.
type Option func(*options)

// options holds the optional configuration for a Dropship instance.
type options struct {
	logger       ports.Logger
	journal      ports.Journal
	eventHandler EventHandler
	sinks        []ports.ReportSink
	resolve      ports.DestinationResolver
}

func defaultOptions() options {
	return options{
		logger: log.NewNoopLogger(),
	}
}

// WithLogger sets a custom logger for structured logging.
// If not provided, a no-op logger is used (no output).
func WithLogger(logger Logger) Option {
	return func(o *options) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// WithJournal records every run and outcome in j.
// Journal failures are logged and never abort a run.
func WithJournal(j Journal) Option {
	return func(o *options) {
		o.journal = j
	}
}

// WithEventHandler sets a handler for run events.
func WithEventHandler(handler EventHandler) Option {
	return func(o *options) {
		o.eventHandler = handler
	}
}

// WithReportSink adds a destination for the final report.
// Sinks are written in registration order after every run that started.
func WithReportSink(sink ReportSink) Option {
	return func(o *options) {
		o.sinks = append(o.sinks, sink)
	}
}

// WithDestinationResolver maps each recipient to the account that receives
// the transfer, for example its associated token account.
func WithDestinationResolver(resolve DestinationResolver) Option {
	return func(o *options) {
		o.resolve = resolve
	}
}

// Package log provides the logging abstraction used across dropship.
//
// Components accept a Logger rather than a concrete library so that tests
// can pass a no-op logger and embedders can bridge to their own stack.
// The default implementation is backed by zerolog:
//
//	logger, err := log.New(log.Options{Level: "debug"})
//
// Child loggers carry fields on every entry:
//
//	runLog := logger.With(log.String("run_id", id))
package log

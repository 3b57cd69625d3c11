// Package dropship provides an embeddable SPL-token airdrop dispatcher.
//
// A run loads recipients from an [AddressSource], splits them into chunks,
// and submits one transfer operation per chunk through a [Ledger] while
// enforcing a wall-clock budget and a minimum delay between submissions.
// Per-chunk failures never abort a run; they are recorded in the returned
// [Report] so a retry pass can be built from its failed and skipped sets.
//
// # Basic Usage
//
//	cfg := dropship.DefaultConfig()
//	cfg.SourceAccount = source
//	cfg.Amount = 100_000_000
//
//	d, err := dropship.New(cfg, ledger,
//	    dropship.WithLogger(logger),
//	    dropship.WithReportSink(sink),
//	)
//	if err != nil {
//	    return err
//	}
//	report, err := d.Run(ctx, recipients)
//
// # Errors
//
// Run returns an error only when the run cannot make progress: the source
// is unreadable or empty, or the initial freshness window cannot be fetched.
// Report sink failures are returned after the run has completed and the
// report is still valid.
//
// # Event Handling
//
// Implement [EventHandler] and pass it via [WithEventHandler] to observe
// state changes, chunk issuance and chunk outcomes. OnChunkRecorded is
// called from confirmation goroutines and must be safe for concurrent use.
package dropship

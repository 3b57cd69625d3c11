// Package ports defines the interfaces (ports) that connect the application
// layer to infrastructure adapters.
//
// Ports are the boundaries between the distribution core and the outside
// world. They state what the application needs from external systems
// without saying how those needs are met.
//
// # Port Interfaces
//
//   - [AddressSource]: Loads the recipient list
//   - [Ledger]: Fetches freshness windows, submits and confirms operations
//   - [Journal]: Records run progress durably as it happens
//   - [ReportSink]: Receives the final run report
//   - [Logger]: Structured logging abstraction
//
// The application layer (internal/app) depends only on these interfaces.
// Adapters (internal/adapters) implement them against the filesystem,
// the Solana JSON-RPC API and SQLite.
package ports

// Package domain contains the core entities and value objects for dropship.
//
// This package is the innermost layer of the application. It knows nothing
// about RPC transports, files or logging; it only describes what a
// distribution run is made of and the rules those pieces obey.
//
// # Entities
//
//   - [Address]: a decoded ledger account identifier
//   - [Chunk]: an ordered, bounded group of recipients sent as one operation
//   - [Operation]: one outbound transaction holding a transfer per recipient
//   - [FreshnessWindow]: the network-issued validity token attached to operations
//   - [OutcomeRecord]: the append-only result of one chunk attempt
//   - [Report]: everything a finished run produced
//
// # Design Principles
//
// Domain values are:
//   - Immutable once handed to another component
//   - Free of infrastructure dependencies
//   - Testable without fakes or external systems
package domain

// Package solana implements ports.Ledger against the Solana JSON-RPC API.
//
// Each operation becomes one SPL Token transaction holding a transfer
// instruction per recipient. The freshness window is the cluster's latest
// blockhash together with the last block height at which it is accepted.
package solana

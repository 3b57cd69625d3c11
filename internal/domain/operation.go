package domain

import "time"

// TransferInstruction moves Amount minor units from Source to Destination,
// authorized by Authority.
type TransferInstruction struct {
	Source      Address
	Destination Address
	Authority   Address
	Amount      uint64
}

// Operation is one outbound transaction: a transfer per recipient of Chunk,
// in chunk order, bound to the freshness window it was built with.
type Operation struct {
	Chunk        Chunk
	Instructions []TransferInstruction
	Window       FreshnessWindow
}

// Ticket tracks an operation the network has accepted for processing but
// not yet confirmed.
type Ticket struct {
	Signature  string
	ChunkIndex int
	Window     FreshnessWindow
	IssuedAt   time.Time
}

package dropship

import (
	"time"

	"github.com/bft-labs/dropship/internal/app"
	"github.com/bft-labs/dropship/internal/domain"
)

// State is the lifecycle state of a run.
type State int

const (
	StateIdle State = iota
	StateRunning
	StateDraining
	StateCompleted
	StateTerminated
)

// String returns a human-readable representation of the state.
func (s State) String() string {
	return app.State(s).String()
}

// StateChangeEvent describes a lifecycle transition.
type StateChangeEvent struct {
	Previous State
	Current  State
	Reason   string
}

// ChunkIssuedEvent is emitted once the ledger accepts a chunk for processing.
type ChunkIssuedEvent struct {
	ChunkIndex   int
	Recipients   int
	Signature    string
	IssuedAt     time.Time
	ExpiryHeight uint64
}

// EventHandler receives run notifications.
type EventHandler interface {
	OnStateChange(StateChangeEvent)
	OnChunkIssued(ChunkIssuedEvent)
	OnChunkRecorded(OutcomeRecord)
}

// NoopEventHandler ignores all events. Embed it to implement a subset.
type NoopEventHandler struct{}

func (NoopEventHandler) OnStateChange(StateChangeEvent) {}
func (NoopEventHandler) OnChunkIssued(ChunkIssuedEvent) {}
func (NoopEventHandler) OnChunkRecorded(OutcomeRecord)  {}

// eventEmitterWrapper adapts EventHandler to the internal emitter interfaces.
type eventEmitterWrapper struct {
	handler EventHandler
}

func (e *eventEmitterWrapper) OnStateChange(previous, current app.State, reason string) {
	if e.handler == nil {
		return
	}
	e.handler.OnStateChange(StateChangeEvent{
		Previous: convertState(previous),
		Current:  convertState(current),
		Reason:   reason,
	})
}

func (e *eventEmitterWrapper) OnChunkIssued(chunk domain.Chunk, ticket domain.Ticket) {
	if e.handler == nil {
		return
	}
	e.handler.OnChunkIssued(ChunkIssuedEvent{
		ChunkIndex:   chunk.Index,
		Recipients:   chunk.Size(),
		Signature:    ticket.Signature,
		IssuedAt:     ticket.IssuedAt,
		ExpiryHeight: ticket.Window.ExpiryHeight,
	})
}

func (e *eventEmitterWrapper) OnChunkRecorded(rec domain.OutcomeRecord) {
	if e.handler == nil {
		return
	}
	e.handler.OnChunkRecorded(rec)
}

func convertState(s app.State) State {
	switch s {
	case app.StateRunning:
		return StateRunning
	case app.StateDraining:
		return StateDraining
	case app.StateCompleted:
		return StateCompleted
	case app.StateTerminated:
		return StateTerminated
	default:
		return StateIdle
	}
}

package app

import (
	"fmt"
	"sync"

	"github.com/bft-labs/dropship/internal/domain"
	"github.com/bft-labs/dropship/internal/ports"
)

// State represents the lifecycle state of a distribution run.
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
	switch s {
	case StateIdle:
		return "Idle"
	case StateRunning:
		return "Running"
	case StateDraining:
		return "Draining"
	case StateCompleted:
		return "Completed"
	case StateTerminated:
		return "Terminated"
	default:
		return "Unknown"
	}
}

// transitions lists the allowed successor states.
var transitions = map[State][]State{
	StateIdle:      {StateRunning, StateTerminated},
	StateRunning:   {StateDraining, StateCompleted},
	StateDraining:  {StateTerminated},
	StateCompleted: {StateTerminated},
}

// Lifecycle manages the state machine for one run.
type Lifecycle struct {
	mu           sync.RWMutex
	state        State
	history      []State
	logger       ports.Logger
	eventEmitter EventEmitter
}

// EventEmitter is called when lifecycle state changes.
type EventEmitter interface {
	OnStateChange(previous, current State, reason string)
}

// NewLifecycle creates a lifecycle in StateIdle.
func NewLifecycle(logger ports.Logger, emitter EventEmitter) *Lifecycle {
	return &Lifecycle{
		state:        StateIdle,
		history:      []State{StateIdle},
		logger:       logger,
		eventEmitter: emitter,
	}
}

// State returns the current lifecycle state.
func (l *Lifecycle) State() State {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.state
}

// History returns every state entered, in order.
func (l *Lifecycle) History() []State {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return append([]State(nil), l.history...)
}

// TransitionTo moves to newState.
// Returns an error wrapping domain.ErrInvalidTransition if it is not allowed.
func (l *Lifecycle) TransitionTo(newState State, reason string) error {
	l.mu.Lock()
	oldState := l.state
	allowed := false
	for _, s := range transitions[oldState] {
		if s == newState {
			allowed = true
			break
		}
	}
	if !allowed {
		l.mu.Unlock()
		return fmt.Errorf("%w: %s -> %s", domain.ErrInvalidTransition, oldState, newState)
	}
	l.state = newState
	l.history = append(l.history, newState)
	l.mu.Unlock()

	// Emit event outside of lock
	if l.eventEmitter != nil {
		l.eventEmitter.OnStateChange(oldState, newState, reason)
	}

	l.logger.Debug("state transition",
		ports.String("from", oldState.String()),
		ports.String("to", newState.String()),
		ports.String("reason", reason),
	)
	return nil
}

// Done reports whether the run has reached its final state.
func (l *Lifecycle) Done() bool {
	return l.State() == StateTerminated
}

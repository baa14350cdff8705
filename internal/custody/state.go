package custody

import (
	"errors"
	"fmt"
)

// State is the position of a wallet flow in the self-custody state machine
type State string

const (
	StateNotRequired         State = "not_required"
	StatePendingReveal       State = "pending_reveal"
	StateRevealedUnconfirmed State = "revealed_unconfirmed"
	StateConfirmed           State = "confirmed"
	StateAttached            State = "attached"
	StateUnrecoverable       State = "unrecoverable"
)

// transitions is the complete forward-only table. States without an entry are terminal.
var transitions = map[State][]State{
	StatePendingReveal:       {StateRevealedUnconfirmed, StateUnrecoverable},
	StateRevealedUnconfirmed: {StateConfirmed},
	StateConfirmed:           {StateAttached},
}

// ErrInvalidState is matched by every rejected transition or out-of-order call
var ErrInvalidState = errors.New("operation not allowed in current state")

// TransitionError reports a rejected state change
type TransitionError struct {
	From, To State
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("invalid transition %s -> %s", e.From, e.To)
}

func (e *TransitionError) Is(target error) bool {
	return target == ErrInvalidState
}

// CanTransition reports whether to directly follows s
func (s State) CanTransition(to State) bool {
	for _, next := range transitions[s] {
		if next == to {
			return true
		}
	}
	return false
}

// Terminal reports whether no transition leaves s
func (s State) Terminal() bool {
	return len(transitions[s]) == 0
}

// Valid reports whether s is a known state
func (s State) Valid() bool {
	switch s {
	case StateNotRequired, StatePendingReveal, StateRevealedUnconfirmed,
		StateConfirmed, StateAttached, StateUnrecoverable:
		return true
	}
	return false
}

func stateError(op string, s State) error {
	return fmt.Errorf("%w: cannot %s in state %s", ErrInvalidState, op, s)
}

package fsm

import (
	"errors"
	"fmt"

	"github.com/enetx/g"
)

var (
	// ErrDisposed is returned by Submit once the interpreter has been disposed.
	ErrDisposed = errors.New("fsm: interpreter disposed")
	// ErrEmptyAction is returned when an action spec has no text.
	ErrEmptyAction = errors.New("fsm: empty action spec")
)

// ErrMissingAction is returned when a Call action names a capability the host
// does not provide.
type ErrMissingAction struct {
	Method g.String
}

func (e *ErrMissingAction) Error() string {
	return fmt.Sprintf("fsm: host has no action %q", e.Method)
}

// ErrInvalidTimerSpec is returned when an "after" or "cancel" action spec cannot be parsed.
type ErrInvalidTimerSpec struct {
	Spec g.String
	Err  error
}

func (e *ErrInvalidTimerSpec) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("fsm: invalid timer spec %q: %v", e.Spec, e.Err)
	}

	return fmt.Sprintf("fsm: invalid timer spec %q", e.Spec)
}

func (e *ErrInvalidTimerSpec) Unwrap() error { return e.Err }

// ErrUnknownTargetState is returned when building a definition whose transition
// table points to a state that was never declared.
type ErrUnknownTargetState struct {
	From   State
	Event  Event
	Target State
}

func (e *ErrUnknownTargetState) Error() string {
	return fmt.Sprintf("fsm: transition from %q on event %q targets unknown state %q", e.From, e.Event, e.Target)
}

// ErrUnknownState is returned when a configuration refers to a state, such as
// the initial state, that it does not define.
type ErrUnknownState struct {
	State State
}

func (e *ErrUnknownState) Error() string {
	return fmt.Sprintf("fsm: unknown state %q", e.State)
}

// ErrAmbiguousTransition is returned when the same event is mapped to two
// different targets from the same state. Only one target per (state, event)
// pair is allowed, so the definition is rejected.
type ErrAmbiguousTransition struct {
	From  State
	Event Event
}

func (e *ErrAmbiguousTransition) Error() string {
	return fmt.Sprintf("fsm: ambiguous transition from state %q on event %q; more than one target declared",
		e.From, e.Event)
}

// ErrAction is returned when an entry or exit action, or a transition hook,
// fails or panics. It wraps the original error, allowing it to be inspected
// using errors.Is and errors.As.
type ErrAction struct {
	// Phase is where the failure occurred: "entry", "exit" or "transition".
	Phase string
	// State is the state whose action list was running.
	State State
	// Action is the failing action. It is the zero Action for transition hooks.
	Action Action
	// Err is the original error, or the error created after recovering from a panic.
	Err error
}

func (e *ErrAction) Error() string {
	if e.Phase == phaseTransition {
		return fmt.Sprintf("fsm: error in transition hook into %q: %v", e.State, e.Err)
	}

	return fmt.Sprintf("fsm: error in %s action %q of state %q: %v", e.Phase, e.Action, e.State, e.Err)
}

// Unwrap provides compatibility with errors.Is and errors.As.
func (e *ErrAction) Unwrap() error { return e.Err }

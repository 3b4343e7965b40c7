package fsm

import (
	"log/slog"

	"github.com/enetx/g"
	"go.uber.org/atomic"
)

type (
	// State names a state of a Definition.
	State g.String
	// Event names an input to the machine. Delayed events share this namespace.
	Event g.String

	// ActionFunc is a host capability bound to the name used by a Call action.
	ActionFunc func() error
	// TransitionHook is a global callback called during a transition between states.
	// It runs after the exit actions and before the entry actions.
	TransitionHook func(from, to State, event Event) error

	// StateDef is the immutable description of one state.
	StateDef struct {
		name        State
		transitions g.Map[Event, State]
		entry       g.Slice[Action]
		exit        g.Slice[Action]
	}

	// Definition is a built, read-only machine description. It is safe to share
	// one Definition between any number of interpreters.
	Definition struct {
		initial State
		order   g.Slice[State]
		states  g.Map[State, *StateDef]
	}

	// Interpreter runs a Definition against a Host.
	//
	// An Interpreter is not locked: all calls to Submit must come from a single
	// goroutine. Use Sync to obtain a wrapper that marshals calls, including
	// fired timers, onto one owner goroutine.
	Interpreter struct {
		id       g.String
		def      *Definition
		dispatch *dispatcher
		timers   *timers
		hooks    g.Slice[TransitionHook]
		log      *slog.Logger

		current State
		started bool
		running bool
		queue   g.Slice[Event]
		history g.Slice[State]

		// resubmit delivers fired timer events back to the machine.
		resubmit func(Event)
		// inline is set when the clock runs callbacks on the caller's goroutine.
		inline   bool
		disposed atomic.Bool
	}
)

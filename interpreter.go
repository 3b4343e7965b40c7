// Package fsm provides a finite state machine interpreter that runs a
// declarative transition table against a host object. States carry ordered
// entry and exit action lists; an action either calls a named host capability
// or schedules or cancels a delayed event, which is submitted back to the
// machine when it fires. It is built with types and utilities from the
// github.com/enetx/g library.
package fsm

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/enetx/g"
	"github.com/google/uuid"
)

// New creates an interpreter for def that calls actions on host. The
// interpreter starts unset: the first Submit enters the initial state.
//
// With the default RealClock, timers fire on their own goroutines and are
// only delivered once Sync is attached. Until then fired delayed events are
// logged and dropped.
func New(def *Definition, host Host, opts ...Option) (*Interpreter, error) {
	if def == nil {
		return nil, errors.New("fsm: nil definition")
	}

	if host == nil {
		return nil, errors.New("fsm: nil host")
	}

	o := options{clock: RealClock(), logger: slog.Default()}
	for _, opt := range opts {
		opt(&o)
	}

	bound, err := bind(def, host)
	if err != nil && o.strict {
		return nil, err
	}

	id := g.String(uuid.NewString())
	log := o.logger.With("machine", id)

	i := &Interpreter{
		id:    id,
		def:   def,
		hooks: o.hooks.Clone(),
		log:   log,
	}

	i.timers = newTimers(o.clock, log)
	i.dispatch = &dispatcher{bound: bound, timers: i.timers, resubmit: i.fireTimer}
	i.resubmit = i.submitDelayed
	_, i.inline = o.clock.(inlineClock)

	return i, nil
}

// ID returns the interpreter's unique identifier, also attached to its log records.
func (i *Interpreter) ID() g.String { return i.id }

// Definition returns the definition the interpreter runs.
func (i *Interpreter) Definition() *Definition { return i.def }

// Current returns the current state. It is empty until the first Submit.
func (i *Interpreter) Current() State { return i.current }

// Started reports whether the initial state has been entered.
func (i *Interpreter) Started() bool { return i.started }

// History returns a copy of the list of visited states, starting with the initial state.
func (i *Interpreter) History() g.Slice[State] { return i.history.Clone() }

// Pending returns the number of armed delayed events.
func (i *Interpreter) Pending() int { return i.timers.pending() }

// Disposed reports whether Dispose has been called.
func (i *Interpreter) Disposed() bool { return i.disposed.Load() }

// Submit feeds event to the machine.
//
// The first call on a fresh interpreter enters the initial state and runs its
// entry actions; the event itself is ignored. Later calls look up the
// transition for event from the current state. Without one, nothing happens
// and Submit returns nil. Otherwise the exit actions of the current state run,
// then the transition hooks, then the state changes and the entry actions of
// the target run. Within each list timer actions run before host calls.
//
// Action failures do not roll back the transition: the machine stays in the
// target state and the failures are returned joined.
//
// Submit calls made by an action while a transition is running are queued and
// processed, in order, before the outermost Submit returns. Their errors are
// part of its result.
func (i *Interpreter) Submit(event Event) error {
	if i.disposed.Load() {
		return ErrDisposed
	}

	if i.running {
		i.queue.Push(event)
		i.log.Debug("event queued", "event", event, "state", i.current)

		return nil
	}

	i.running = true
	defer func() { i.running = false }()

	errs := []error{i.step(event)}

	for len(i.queue) > 0 {
		if i.disposed.Load() {
			i.log.Debug("dropping queued events after dispose", "count", len(i.queue))
			i.queue = nil

			break
		}

		next := i.queue[0]
		i.queue = i.queue[1:]
		errs = append(errs, i.step(next))
	}

	return errors.Join(errs...)
}

func (i *Interpreter) step(event Event) error {
	if !i.started {
		i.started = true
		i.current = i.def.initial
		i.history.Push(i.current)

		transitionsTotal.WithLabelValues(stateLabel(""), string(i.current), string(event)).Inc()
		i.log.Debug("entered initial state", "state", i.current, "event", event)

		return i.dispatch.run(phaseEntry, i.current, i.def.states[i.current].entry)
	}

	target := i.def.Target(i.current, event)
	if target.IsNone() {
		ignoredEventsTotal.WithLabelValues(string(i.current)).Inc()
		i.log.Debug("event ignored", "state", i.current, "event", event)

		return nil
	}

	from, to := i.current, target.Some()

	var errs []error

	errs = append(errs, i.dispatch.run(phaseExit, from, i.def.states[from].exit))

	for _, hook := range i.hooks {
		errs = append(errs, i.runHook(hook, from, to, event))
	}

	i.current = to
	i.history.Push(to)

	errs = append(errs, i.dispatch.run(phaseEntry, to, i.def.states[to].entry))

	transitionsTotal.WithLabelValues(string(from), string(to), string(event)).Inc()
	i.log.Debug("transition", "from", from, "to", to, "event", event)

	return errors.Join(errs...)
}

// runHook safely executes a transition hook, recovering from panics.
func (i *Interpreter) runHook(hook TransitionHook, from, to State, event Event) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = &ErrAction{Phase: phaseTransition, State: to, Err: fmt.Errorf("panic: %v", r)}
		}

		if err != nil {
			actionErrorsTotal.WithLabelValues(phaseTransition, string(to)).Inc()
		}
	}()

	if hookErr := hook(from, to, event); hookErr != nil {
		err = &ErrAction{Phase: phaseTransition, State: to, Err: hookErr}
	}

	return err
}

// fireTimer is called by the timer registry, possibly from another goroutine.
func (i *Interpreter) fireTimer(event Event) {
	if i.disposed.Load() {
		return
	}

	i.resubmit(event)
}

// submitDelayed is the default delivery for fired timers: a direct Submit.
// Events fired on a foreign goroutine are dropped; Sync replaces this delivery.
func (i *Interpreter) submitDelayed(event Event) {
	if !i.inline {
		i.log.Error("delayed event dropped: timer fired off the owner goroutine, use Sync", "event", event)
		return
	}

	if err := i.Submit(event); err != nil && !errors.Is(err, ErrDisposed) {
		i.log.Error("delayed event failed", "event", event, "error", err)
	}
}

// Reset cancels every pending delayed event and returns the interpreter to
// its unset state. The next Submit enters the initial state again.
func (i *Interpreter) Reset() {
	n := i.timers.cancelAll()

	i.current = ""
	i.started = false
	i.queue = nil
	i.history = nil

	i.log.Debug("interpreter reset", "cancelled_timers", n)
}

// Dispose cancels every pending delayed event and makes further Submit calls
// fail with ErrDisposed. It is safe to call more than once and from any goroutine.
func (i *Interpreter) Dispose() {
	if !i.disposed.CompareAndSwap(false, true) {
		return
	}

	n := i.timers.close()
	i.log.Debug("interpreter disposed", "cancelled_timers", n)
}

// ToDOT renders the definition in DOT, highlighting the current state.
func (i *Interpreter) ToDOT() g.String { return i.def.toDOT(i.current) }

package fsm

import (
	"errors"
	"fmt"

	"github.com/enetx/g"
)

const (
	phaseEntry      = "entry"
	phaseExit       = "exit"
	phaseTransition = "transition"
)

// dispatcher executes actions against the bound host capabilities and the
// timer registry.
type dispatcher struct {
	bound    g.Map[g.String, ActionFunc]
	timers   *timers
	resubmit func(Event)
}

// bind resolves every Call name used by def against host.
func bind(def *Definition, host Host) (g.Map[g.String, ActionFunc], error) {
	bound := g.NewMap[g.String, ActionFunc]()

	var errs []error

	for _, method := range def.Methods() {
		if fn := host.Action(method); fn.IsSome() {
			bound[method] = fn.Some()
			continue
		}

		errs = append(errs, &ErrMissingAction{Method: method})
	}

	return bound, errors.Join(errs...)
}

// run executes actions in two passes: timer actions first, in their declared
// relative order, then host calls in declared order. A failing action does not
// stop the list; all failures are returned joined.
func (d *dispatcher) run(phase string, state State, actions g.Slice[Action]) error {
	var errs []error

	for _, pass := range []bool{true, false} {
		for _, action := range actions {
			if action.IsTimer() != pass {
				continue
			}

			if err := d.execute(action); err != nil {
				actionErrorsTotal.WithLabelValues(phase, string(state)).Inc()
				errs = append(errs, &ErrAction{Phase: phase, State: state, Action: action, Err: err})
			}
		}
	}

	return errors.Join(errs...)
}

// execute safely executes one action, recovering from panics.
func (d *dispatcher) execute(action Action) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()

	switch action.Kind {
	case KindScheduleAfter:
		return d.timers.schedule(action.Timer, action.Delay, d.resubmit)
	case KindCancelTimer:
		d.timers.cancel(action.Timer)
		return nil
	case KindCall:
		fn, ok := d.bound[action.Method]
		if !ok {
			return &ErrMissingAction{Method: action.Method}
		}

		return fn()
	default:
		return fmt.Errorf("unknown action kind %d", action.Kind)
	}
}

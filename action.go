package fsm

import (
	"errors"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/enetx/g"
)

// ActionKind tags the variant held by an Action.
type ActionKind uint8

const (
	// KindCall invokes a named host action.
	KindCall ActionKind = iota
	// KindScheduleAfter submits a delayed event unless it is cancelled first.
	KindScheduleAfter
	// KindCancelTimer cancels a pending delayed event.
	KindCancelTimer
)

func (k ActionKind) String() string {
	switch k {
	case KindCall:
		return "call"
	case KindScheduleAfter:
		return "after"
	case KindCancelTimer:
		return "cancel"
	default:
		return "unknown"
	}
}

const (
	prefixAfter  = "after "
	prefixCancel = "cancel "
)

// Action is one entry of a state's entry or exit list.
// Build values with Call, ScheduleAfter, CancelTimer or ParseAction.
type Action struct {
	Kind ActionKind
	// Method is the host action name for KindCall.
	Method g.String
	// Delay is how long a KindScheduleAfter action waits before firing.
	Delay time.Duration
	// Timer is the timer slot and the event submitted when it fires.
	Timer Event
}

// Call returns an action invoking the host action named method.
func Call(method g.String) Action {
	return Action{Kind: KindCall, Method: method}
}

// ScheduleAfter returns an action that submits the event timer after delay,
// unless a CancelTimer for the same name runs first.
func ScheduleAfter(delay time.Duration, timer Event) Action {
	return Action{Kind: KindScheduleAfter, Delay: delay, Timer: timer}
}

// CancelTimer returns an action that cancels the pending timer named timer.
func CancelTimer(timer Event) Action {
	return Action{Kind: KindCancelTimer, Timer: timer}
}

// IsTimer reports whether the action schedules or cancels a timer.
func (a Action) IsTimer() bool { return a.Kind == KindScheduleAfter || a.Kind == KindCancelTimer }

// String returns the text form accepted by ParseAction.
func (a Action) String() string {
	switch a.Kind {
	case KindScheduleAfter:
		return prefixAfter + strconv.FormatFloat(a.Delay.Seconds(), 'f', -1, 64) + " " + string(a.Timer)
	case KindCancelTimer:
		return prefixCancel + string(a.Timer)
	default:
		return string(a.Method)
	}
}

// ParseAction translates the text form of an action:
//
//	after <seconds> <timer>   ScheduleAfter, seconds may be fractional and end in "s"
//	cancel <timer>            CancelTimer
//	<name>                    Call
func ParseAction(spec g.String) (Action, error) {
	raw := strings.TrimSpace(string(spec))
	if raw == "" {
		return Action{}, ErrEmptyAction
	}

	switch {
	case strings.HasPrefix(raw, prefixAfter):
		fields := strings.Fields(raw)
		if len(fields) != 3 {
			return Action{}, &ErrInvalidTimerSpec{Spec: spec, Err: errors.New("want \"after <seconds> <timer>\"")}
		}

		seconds, err := strconv.ParseFloat(strings.TrimSuffix(fields[1], "s"), 64)
		if err != nil {
			return Action{}, &ErrInvalidTimerSpec{Spec: spec, Err: err}
		}

		if seconds < 0 || math.IsNaN(seconds) || math.IsInf(seconds, 0) {
			return Action{}, &ErrInvalidTimerSpec{Spec: spec, Err: errors.New("delay must be a finite, non-negative number")}
		}

		if seconds >= math.MaxInt64/float64(time.Second) {
			return Action{}, &ErrInvalidTimerSpec{Spec: spec, Err: errors.New("delay does not fit in a time.Duration")}
		}

		return ScheduleAfter(time.Duration(seconds*float64(time.Second)), Event(fields[2])), nil
	case strings.HasPrefix(raw, prefixCancel):
		fields := strings.Fields(raw)
		if len(fields) != 2 {
			return Action{}, &ErrInvalidTimerSpec{Spec: spec, Err: errors.New("want \"cancel <timer>\"")}
		}

		return CancelTimer(Event(fields[1])), nil
	default:
		return Call(g.String(raw)), nil
	}
}

// ParseActions parses every spec, stopping at the first error.
func ParseActions(specs ...g.String) (g.Slice[Action], error) {
	actions := make(g.Slice[Action], 0, len(specs))

	for _, spec := range specs {
		action, err := ParseAction(spec)
		if err != nil {
			return nil, err
		}

		actions.Push(action)
	}

	return actions, nil
}

package fsm_test

import (
	"errors"
	"testing"
	"time"

	. "github.com/enetx/timedfsm"

	"github.com/enetx/g"
)

func TestParseAction(t *testing.T) {
	tests := []struct {
		spec g.String
		want Action
	}{
		{"loadingMode", Call("loadingMode")},
		{"  startHttpRequest ", Call("startHttpRequest")},
		{"after 2 timeout", ScheduleAfter(2*time.Second, "timeout")},
		{"after 2.5 timeout1", ScheduleAfter(2500*time.Millisecond, "timeout1")},
		{"after 3.0s foo", ScheduleAfter(3*time.Second, "foo")},
		{"after   0  now", ScheduleAfter(0, "now")},
		{"cancel timeout1", CancelTimer("timeout1")},
		// Only the "after " and "cancel " prefixes select timer actions.
		{"afterglow", Call("afterglow")},
		{"cancelled", Call("cancelled")},
	}

	for _, tt := range tests {
		got, err := ParseAction(tt.spec)
		assertNoError(t, err)
		assertEqual(t, got, tt.want)
	}
}

func TestParseAction_InvalidTimerSpec(t *testing.T) {
	for _, spec := range []g.String{
		"after soon timeout",
		"after 2",
		"after 2 timeout extra",
		"after -1 timeout",
		"after NaN timeout",
		"after 1e10 t",
		"cancel a b",
	} {
		_, err := ParseAction(spec)

		var invalid *ErrInvalidTimerSpec
		if !errors.As(err, &invalid) {
			t.Fatalf("spec %q: expected ErrInvalidTimerSpec, got %v", spec, err)
		}

		assertEqual(t, invalid.Spec, spec)
	}
}

func TestParseAction_Empty(t *testing.T) {
	_, err := ParseAction("   ")
	assertTrue(t, errors.Is(err, ErrEmptyAction))
}

func TestAction_StringRoundTrip(t *testing.T) {
	for _, action := range []Action{
		Call("zoomedMode"),
		ScheduleAfter(1500*time.Millisecond, "slow"),
		ScheduleAfter(10*time.Second, "t"),
		CancelTimer("slow"),
	} {
		parsed, err := ParseAction(g.String(action.String()))
		assertNoError(t, err)
		assertEqual(t, parsed, action)
	}

	assertEqual(t, ScheduleAfter(2*time.Second, "timeout").String(), "after 2 timeout")
}

func TestParseActions_StopsAtFirstError(t *testing.T) {
	actions, err := ParseActions("a", "after 1 t", "cancel t")
	assertNoError(t, err)
	assertEqual(t, actions.Len(), 3)
	assertTrue(t, actions[1].IsTimer())
	assertFalse(t, actions[0].IsTimer())

	_, err = ParseActions("a", "after x t")
	assertError(t, err)
}

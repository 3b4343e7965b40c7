package fsm_test

import (
	"testing"
	"time"

	. "github.com/enetx/timedfsm"

	"github.com/enetx/g"
	"github.com/neilotoole/slogt"
)

func assertEqual[T comparable](t *testing.T, got, want T) {
	t.Helper()
	if got != want {
		t.Fatalf("expected %v, got %v", want, got)
	}
}

func assertNoError(t *testing.T, err error) {
	t.Helper()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func assertError(t *testing.T, err error) {
	t.Helper()
	if err == nil {
		t.Fatalf("expected error, got nil")
	}
}

func assertTrue(t *testing.T, cond bool) {
	t.Helper()
	if !cond {
		t.Fatalf("expected true, got false")
	}
}

func assertFalse(t *testing.T, cond bool) {
	t.Helper()
	if cond {
		t.Fatalf("expected false, got true")
	}
}

func assertCalls(t *testing.T, got g.Slice[g.String], want ...g.String) {
	t.Helper()
	if !got.Eq(g.SliceOf(want...)) {
		t.Fatalf("expected calls %v, got %v", want, got)
	}
}

// recorder is a host whose actions record their own names.
type recorder struct {
	calls g.Slice[g.String]
	host  *ActionMap
}

func newRecorder(names ...g.String) *recorder {
	r := &recorder{host: NewActionMap()}
	for _, name := range names {
		r.host.Do(name, func() { r.calls.Push(name) })
	}

	return r
}

func (r *recorder) reset() { r.calls = nil }

var epoch = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

func newInterpreter(t *testing.T, def *Definition, host Host, opts ...Option) *Interpreter {
	t.Helper()

	opts = append([]Option{WithLogger(slogt.New(t))}, opts...)

	in, err := New(def, host, opts...)
	assertNoError(t, err)
	t.Cleanup(in.Dispose)

	return in
}

// busyDefinition is idle --start--> busy --done--> idle, where busy arms a
// two second "timeout" that also leads back to idle.
func busyDefinition(t *testing.T) *Definition {
	t.Helper()

	def, err := NewDefinition("idle").
		Transition("idle", "start", "busy").
		Transition("busy", "done", "idle").
		Transition("busy", "timeout", "idle").
		OnEntry("idle", Call("enterIdle")).
		OnEntry("busy", ScheduleAfter(2*time.Second, "timeout"), Call("enterBusy")).
		OnExit("busy", CancelTimer("timeout"), Call("exitBusy")).
		Build()
	assertNoError(t, err)

	return def
}

package fsm_test

import (
	"bytes"
	"errors"
	"log/slog"
	"strings"
	"sync"
	"testing"
	"time"

	. "github.com/enetx/timedfsm"

	"github.com/enetx/g"
)

func TestSyncInterpreter_DelayedEvent(t *testing.T) {
	clock := NewFakeClock(epoch)
	rec := newRecorder("enterIdle", "enterBusy", "exitBusy")
	s := newInterpreter(t, busyDefinition(t), rec.host, WithClock(clock)).Sync()
	defer s.Dispose()

	assertNoError(t, s.Submit("bootstrap"))
	assertNoError(t, s.Submit("start"))
	assertEqual(t, s.Current(), State("busy"))

	// The fired timer is posted to the owner goroutine ahead of the query.
	clock.Advance(2 * time.Second)
	assertEqual(t, s.Current(), State("idle"))
	assertTrue(t, s.History().Eq(g.SliceOf[State]("idle", "busy", "idle")))
}

func TestSyncInterpreter_ConcurrentSubmit(t *testing.T) {
	var count int
	host := NewActionMap().Do("count", func() { count++ })

	def, err := NewDefinition("on").
		Transition("on", "flip", "on").
		OnEntry("on", Call("count")).
		Build()
	assertNoError(t, err)

	s := newInterpreter(t, def, host).Sync()
	defer s.Dispose()

	assertNoError(t, s.Submit("init"))

	var wg sync.WaitGroup
	for range 50 {
		wg.Add(1)

		go func() {
			defer wg.Done()
			assertNoError(t, s.Submit("flip"))
		}()
	}

	wg.Wait()

	assertNoError(t, s.Submit("flip"))
	assertEqual(t, count, 52)
}

func TestSyncInterpreter_PostFromAction(t *testing.T) {
	var s *SyncInterpreter

	host := NewActionMap().Do("bounce", func() { s.Post("back") })

	def, err := NewDefinition("a").
		Transition("a", "go", "b").
		Transition("b", "back", "a").
		OnEntry("b", Call("bounce")).
		Build()
	assertNoError(t, err)

	s = newInterpreter(t, def, host).Sync()
	defer s.Dispose()

	assertNoError(t, s.Submit("init"))
	assertNoError(t, s.Submit("go"))
	assertEqual(t, s.Current(), State("a"))
}

func TestSyncInterpreter_Dispose(t *testing.T) {
	clock := NewFakeClock(epoch)
	rec := newRecorder("enterIdle", "enterBusy", "exitBusy")
	s := newInterpreter(t, busyDefinition(t), rec.host, WithClock(clock)).Sync()

	assertNoError(t, s.Submit("bootstrap"))
	assertNoError(t, s.Submit("start"))
	assertEqual(t, s.Pending(), 1)

	s.Dispose()
	s.Dispose()

	<-s.Done()
	assertEqual(t, s.Pending(), 0)
	assertTrue(t, errors.Is(s.Submit("done"), ErrDisposed))

	clock.Advance(time.Minute)
	assertEqual(t, clock.Pending(), 0)
}

func TestSyncInterpreter_Reset(t *testing.T) {
	clock := NewFakeClock(epoch)
	rec := newRecorder("enterIdle", "enterBusy", "exitBusy")
	s := newInterpreter(t, busyDefinition(t), rec.host, WithClock(clock)).Sync()
	defer s.Dispose()

	assertNoError(t, s.Submit("bootstrap"))
	assertNoError(t, s.Submit("start"))

	s.Reset()
	assertEqual(t, s.Current(), State(""))
	assertEqual(t, s.Pending(), 0)

	clock.Advance(time.Minute)
	assertEqual(t, s.Current(), State(""))

	assertNoError(t, s.Submit("again"))
	assertEqual(t, s.Current(), State("idle"))
}

type lockedBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *lockedBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *lockedBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func quickTimeout(t *testing.T) *Definition {
	t.Helper()

	def, err := NewDefinition("waiting").
		Transition("waiting", "timeout", "expired").
		OnEntry("waiting", ScheduleAfter(time.Millisecond, "timeout")).
		State("expired").
		Build()
	assertNoError(t, err)

	return def
}

func TestInterpreter_RealClockWithoutSyncDropsFires(t *testing.T) {
	var out lockedBuffer

	in, err := New(quickTimeout(t), NewActionMap(), WithLogger(slog.New(slog.NewTextHandler(&out, nil))))
	assertNoError(t, err)
	defer in.Dispose()

	assertNoError(t, in.Submit("init"))

	deadline := time.Now().Add(2 * time.Second)
	for !strings.Contains(out.String(), "delayed event dropped") {
		if time.Now().After(deadline) {
			t.Fatal("fired timer was never reported")
		}

		// Reads on the owner goroutine while the timer goroutine fires.
		assertEqual(t, in.Current(), State("waiting"))
		time.Sleep(time.Millisecond)
	}

	assertEqual(t, in.Current(), State("waiting"))
	assertTrue(t, in.History().Eq(g.SliceOf[State]("waiting")))
	assertEqual(t, in.Pending(), 0)
}

func TestSyncInterpreter_RealClockDelivers(t *testing.T) {
	s := newInterpreter(t, quickTimeout(t), NewActionMap()).Sync()
	defer s.Dispose()

	assertNoError(t, s.Submit("init"))

	deadline := time.Now().Add(2 * time.Second)
	for s.Current() != "expired" {
		if time.Now().After(deadline) {
			t.Fatalf("still in %s", s.Current())
		}

		time.Sleep(time.Millisecond)
	}

	assertTrue(t, s.History().Eq(g.SliceOf[State]("waiting", "expired")))
}

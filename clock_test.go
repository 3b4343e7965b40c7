package fsm_test

import (
	"testing"
	"time"

	. "github.com/enetx/timedfsm"

	"github.com/enetx/g"
)

func TestFakeClock_FiresInDeadlineOrder(t *testing.T) {
	clock := NewFakeClock(epoch)

	var fired g.Slice[g.String]

	clock.AfterFunc(3*time.Second, func() { fired.Push("c") })
	clock.AfterFunc(time.Second, func() { fired.Push("a") })
	clock.AfterFunc(time.Second, func() { fired.Push("b") })

	clock.Advance(2 * time.Second)
	assertCalls(t, fired, "a", "b")
	assertEqual(t, clock.Now(), epoch.Add(2*time.Second))
	assertEqual(t, clock.Pending(), 1)

	clock.Advance(time.Second)
	assertCalls(t, fired, "a", "b", "c")
	assertEqual(t, clock.Pending(), 0)
}

func TestFakeClock_Stop(t *testing.T) {
	clock := NewFakeClock(epoch)

	called := false
	timer := clock.AfterFunc(time.Second, func() { called = true })

	assertTrue(t, timer.Stop())
	assertFalse(t, timer.Stop())

	clock.Advance(time.Hour)
	assertFalse(t, called)
}

func TestFakeClock_NestedSchedule(t *testing.T) {
	clock := NewFakeClock(epoch)

	var at []time.Time

	clock.AfterFunc(time.Second, func() {
		at = append(at, clock.Now())
		clock.AfterFunc(time.Second, func() { at = append(at, clock.Now()) })
	})

	clock.Advance(5 * time.Second)
	assertEqual(t, len(at), 2)
	assertEqual(t, at[1], epoch.Add(2*time.Second))
}

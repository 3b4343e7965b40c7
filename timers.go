package fsm

import (
	"log/slog"
	"sync"
	"time"

	"github.com/enetx/g"
	"go.uber.org/atomic"
)

// timerTask is one armed delayed event.
type timerTask struct {
	id    uint64
	name  Event
	timer Timer
}

// timers is the registry of pending delayed events. It keeps one slot per
// timer name; scheduling a name that is already pending moves the slot to the
// new task and leaves the older task armed.
type timers struct {
	clock Clock
	log   *slog.Logger
	seq   atomic.Uint64

	mu     sync.Mutex
	slots  g.Map[Event, *timerTask]
	armed  g.Map[uint64, *timerTask]
	closed bool
}

func newTimers(clock Clock, log *slog.Logger) *timers {
	return &timers{
		clock: clock,
		log:   log,
		slots: g.NewMap[Event, *timerTask](),
		armed: g.NewMap[uint64, *timerTask](),
	}
}

// schedule arms a task that calls onFire(name) after delay.
func (t *timers) schedule(name Event, delay time.Duration, onFire func(Event)) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.closed {
		return ErrDisposed
	}

	if prev, ok := t.slots[name]; ok {
		t.log.Warn("timer slot reused while pending; previous task stays armed",
			"timer", name, "previous", prev.id)
	}

	task := &timerTask{id: t.seq.Inc(), name: name}
	t.slots[name] = task
	t.armed[task.id] = task
	task.timer = t.clock.AfterFunc(delay, func() { t.fire(task, onFire) })

	timersTotal.WithLabelValues(outcomeScheduled).Inc()
	t.log.Debug("timer scheduled", "timer", name, "delay", delay, "task", task.id)

	return nil
}

func (t *timers) fire(task *timerTask, onFire func(Event)) {
	t.mu.Lock()

	if _, ok := t.armed[task.id]; !ok {
		t.mu.Unlock()
		return
	}

	delete(t.armed, task.id)

	if t.slots[task.name] == task {
		delete(t.slots, task.name)
	}

	t.mu.Unlock()

	timersTotal.WithLabelValues(outcomeFired).Inc()
	t.log.Debug("timer fired", "timer", task.name, "task", task.id)

	onFire(task.name)
}

// cancel stops the task currently holding the slot name. It reports whether a
// task was pending.
func (t *timers) cancel(name Event) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	task, ok := t.slots[name]
	if !ok {
		return false
	}

	delete(t.slots, name)
	delete(t.armed, task.id)
	task.timer.Stop()

	timersTotal.WithLabelValues(outcomeCancelled).Inc()
	t.log.Debug("timer cancelled", "timer", name, "task", task.id)

	return true
}

// cancelAll stops every armed task, including tasks whose slot was taken over.
func (t *timers) cancelAll() int {
	t.mu.Lock()
	defer t.mu.Unlock()

	return t.stopAll()
}

// close cancels everything and refuses further scheduling.
func (t *timers) close() int {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.closed = true

	return t.stopAll()
}

func (t *timers) stopAll() int {
	n := len(t.armed)

	for _, task := range t.armed {
		task.timer.Stop()
	}

	if n > 0 {
		timersTotal.WithLabelValues(outcomeCancelled).Add(float64(n))
	}

	t.armed = g.NewMap[uint64, *timerTask]()
	t.slots = g.NewMap[Event, *timerTask]()

	return n
}

func (t *timers) pending() int {
	t.mu.Lock()
	defer t.mu.Unlock()

	return len(t.armed)
}

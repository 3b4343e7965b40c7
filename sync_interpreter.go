package fsm

import (
	"errors"
	"sync"

	"github.com/enetx/g"
)

// SyncInterpreter runs an Interpreter on a dedicated owner goroutine.
// Submissions from any goroutine, including fired timers and background work,
// are marshalled onto that goroutine and processed one at a time.
//
// Host actions run on the owner goroutine. From inside an action, use Post or
// the wrapped Interpreter's Submit; the blocking methods of SyncInterpreter
// would wait on the goroutine that is running them.
type SyncInterpreter struct {
	in *Interpreter

	mu      sync.Mutex
	mailbox g.Slice[request]
	closed  bool
	wake    chan struct{}
	done    chan struct{}
}

type request struct {
	event Event
	query func()
	reply chan error
}

// Sync starts the owner goroutine and returns the wrapper. Fired timers are
// delivered through Post from then on. Call Sync once, before any Submit.
func (i *Interpreter) Sync() *SyncInterpreter {
	s := &SyncInterpreter{
		in:   i,
		wake: make(chan struct{}, 1),
		done: make(chan struct{}),
	}

	i.resubmit = s.Post

	go s.loop()

	return s
}

func (s *SyncInterpreter) loop() {
	for {
		select {
		case <-s.done:
			s.drain()
			return
		case <-s.wake:
		}

		s.mu.Lock()
		batch := s.mailbox
		s.mailbox = nil
		s.mu.Unlock()

		for _, r := range batch {
			s.handle(r)
		}
	}
}

func (s *SyncInterpreter) handle(r request) {
	if r.query != nil {
		r.query()
		close(r.reply)

		return
	}

	err := s.in.Submit(r.event)

	if r.reply != nil {
		r.reply <- err
		return
	}

	if err != nil && !errors.Is(err, ErrDisposed) {
		s.in.log.Error("posted event failed", "event", r.event, "error", err)
	}
}

// drain fails everything still queued after Dispose.
func (s *SyncInterpreter) drain() {
	s.mu.Lock()
	batch := s.mailbox
	s.mailbox = nil
	s.mu.Unlock()

	for _, r := range batch {
		if r.reply == nil {
			continue
		}

		if r.query != nil {
			close(r.reply)
			continue
		}

		r.reply <- ErrDisposed
	}
}

func (s *SyncInterpreter) enqueue(r request) bool {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return false
	}

	s.mailbox.Push(r)
	s.mu.Unlock()

	select {
	case s.wake <- struct{}{}:
	default:
	}

	return true
}

// Submit is the thread-safe version of Interpreter.Submit. It blocks until the
// event, and any event queued while processing it, has been handled.
func (s *SyncInterpreter) Submit(event Event) error {
	reply := make(chan error, 1)
	if !s.enqueue(request{event: event, reply: reply}) {
		return ErrDisposed
	}

	return <-reply
}

// Post enqueues event without waiting. Errors are logged. It is safe to call
// from host actions and from any goroutine.
func (s *SyncInterpreter) Post(event Event) {
	if !s.enqueue(request{event: event}) {
		s.in.log.Debug("event posted after dispose", "event", event)
	}
}

// do runs fn on the owner goroutine and waits for it. fn does not run if the
// interpreter is disposed first.
func (s *SyncInterpreter) do(fn func()) {
	reply := make(chan error)
	if s.enqueue(request{query: fn, reply: reply}) {
		<-reply
	}
}

// Current is the thread-safe version of Interpreter.Current.
// It returns the empty state once the interpreter is disposed.
func (s *SyncInterpreter) Current() State {
	var state State
	s.do(func() { state = s.in.Current() })

	return state
}

// History is the thread-safe version of Interpreter.History.
func (s *SyncInterpreter) History() g.Slice[State] {
	var history g.Slice[State]
	s.do(func() { history = s.in.History() })

	return history
}

// ToDOT is the thread-safe version of Interpreter.ToDOT.
func (s *SyncInterpreter) ToDOT() g.String {
	var dot g.String
	s.do(func() { dot = s.in.ToDOT() })

	return dot
}

// Reset is the thread-safe version of Interpreter.Reset.
func (s *SyncInterpreter) Reset() { s.do(s.in.Reset) }

// Pending returns the number of armed delayed events.
func (s *SyncInterpreter) Pending() int { return s.in.Pending() }

// Dispose cancels all pending delayed events and stops the owner goroutine.
// Submissions still queued fail with ErrDisposed.
func (s *SyncInterpreter) Dispose() {
	s.in.Dispose()

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return
	}

	s.closed = true
	close(s.done)
}

// Done is closed once Dispose has been called.
func (s *SyncInterpreter) Done() <-chan struct{} { return s.done }

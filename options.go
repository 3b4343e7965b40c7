package fsm

import (
	"log/slog"

	"github.com/enetx/g"
)

// Option configures an Interpreter.
type Option func(*options)

type options struct {
	clock  Clock
	logger *slog.Logger
	strict bool
	hooks  g.Slice[TransitionHook]
}

// WithClock sets the clock used for delayed events. The default is RealClock.
func WithClock(c Clock) Option {
	return func(o *options) { o.clock = c }
}

// WithLogger sets the logger. The default is slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(o *options) { o.logger = l }
}

// WithStrictBinding makes New fail with ErrMissingAction when the host lacks
// any action the definition calls. Without it the error is reported by the
// Submit call that first reaches the action.
func WithStrictBinding() Option {
	return func(o *options) { o.strict = true }
}

// WithTransitionHook registers a global transition hook.
func WithTransitionHook(hook TransitionHook) Option {
	return func(o *options) { o.hooks.Push(hook) }
}

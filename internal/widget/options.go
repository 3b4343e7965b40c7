package widget

import (
	"log/slog"

	fsm "github.com/enetx/timedfsm"
)

// Option configures a Widget.
type Option func(*config)

type config struct {
	def     *fsm.Definition
	machine []fsm.Option
	logger  *slog.Logger
	workers int
}

// WithDefinition replaces the embedded chart.
func WithDefinition(def *fsm.Definition) Option {
	return func(c *config) { c.def = def }
}

// WithMachineOptions passes options through to the interpreter.
func WithMachineOptions(opts ...fsm.Option) Option {
	return func(c *config) { c.machine = append(c.machine, opts...) }
}

// WithLogger sets the logger of the widget and its interpreter.
func WithLogger(logger *slog.Logger) Option {
	return func(c *config) { c.logger = logger }
}

// WithWorkers bounds the number of concurrent search requests.
func WithWorkers(n int) Option {
	return func(c *config) { c.workers = n }
}

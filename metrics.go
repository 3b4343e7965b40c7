package fsm

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Timer outcome label values.
const (
	outcomeScheduled = "scheduled"
	outcomeFired     = "fired"
	outcomeCancelled = "cancelled"
)

var (
	// transitionsTotal counts completed transitions, including the bootstrap into the initial state.
	transitionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "timedfsm_transitions_total",
		Help: "Total number of state transitions by from_state, to_state and event",
	}, []string{"from_state", "to_state", "event"})

	ignoredEventsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "timedfsm_ignored_events_total",
		Help: "Total number of events that had no transition from the current state",
	}, []string{"state"})

	timersTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "timedfsm_timers_total",
		Help: "Delayed events by outcome (scheduled, fired or cancelled)",
	}, []string{"outcome"})

	actionErrorsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "timedfsm_action_errors_total",
		Help: "Failed entry, exit and transition actions by phase and state",
	}, []string{"phase", "state"})
)

// stateLabel renders the bootstrap pseudo-state.
func stateLabel(s State) string {
	if s == "" {
		return "none"
	}

	return string(s)
}

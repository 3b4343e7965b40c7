package fsm

import "github.com/enetx/g"

// Machine is the surface shared by Interpreter and SyncInterpreter.
type Machine interface {
	Submit(Event) error
	Current() State
	History() g.Slice[State]
	Dispose()
	ToDOT() g.String
}

// Interface compliance checks.
var (
	_ Machine = (*Interpreter)(nil)
	_ Machine = (*SyncInterpreter)(nil)
)

package fsm

import (
	"errors"

	"github.com/enetx/g"
	"github.com/enetx/g/cmp"
)

// Builder assembles a Definition. Methods can be chained; errors are collected
// and reported by Build.
type Builder struct {
	initial State
	order   g.Slice[State]
	states  g.Map[State, *StateDef]
	errs    []error
}

// NewDefinition starts a Definition whose initial state is initial.
func NewDefinition(initial State) *Builder {
	b := &Builder{
		initial: initial,
		states:  g.NewMap[State, *StateDef](),
	}

	b.declare(initial)

	return b
}

func (b *Builder) declare(name State) *StateDef {
	if st, ok := b.states[name]; ok {
		return st
	}

	st := &StateDef{name: name, transitions: g.NewMap[Event, State]()}
	b.states[name] = st
	b.order.Push(name)

	return st
}

// State declares states that may have no transitions or actions of their own,
// such as final states.
func (b *Builder) State(names ...State) *Builder {
	for _, name := range names {
		b.declare(name)
	}

	return b
}

// Transition adds from -> event -> to. The target must be declared, at any point
// before Build, by State or by appearing as the source of a transition or the owner
// of actions.
func (b *Builder) Transition(from State, event Event, to State) *Builder {
	st := b.declare(from)

	if prev, ok := st.transitions[event]; ok && prev != to {
		b.errs = append(b.errs, &ErrAmbiguousTransition{From: from, Event: event})
		return b
	}

	st.transitions[event] = to

	return b
}

// OnEntry appends actions to the entry list of state.
func (b *Builder) OnEntry(state State, actions ...Action) *Builder {
	st := b.declare(state)
	st.entry = st.entry.Append(actions...)

	return b
}

// OnExit appends actions to the exit list of state.
func (b *Builder) OnExit(state State, actions ...Action) *Builder {
	st := b.declare(state)
	st.exit = st.exit.Append(actions...)

	return b
}

// OnEntryText parses specs with ParseAction and appends them to the entry list of state.
func (b *Builder) OnEntryText(state State, specs ...g.String) *Builder {
	actions, err := ParseActions(specs...)
	if err != nil {
		b.errs = append(b.errs, err)
		return b
	}

	return b.OnEntry(state, actions...)
}

// OnExitText parses specs with ParseAction and appends them to the exit list of state.
func (b *Builder) OnExitText(state State, specs ...g.String) *Builder {
	actions, err := ParseActions(specs...)
	if err != nil {
		b.errs = append(b.errs, err)
		return b
	}

	return b.OnExit(state, actions...)
}

// Build validates the collected states and returns an immutable Definition.
// Every transition target must be a declared state.
func (b *Builder) Build() (*Definition, error) {
	errs := append([]error(nil), b.errs...)

	for _, name := range b.order {
		st := b.states[name]

		events := st.events()
		for _, event := range events {
			to := st.transitions[event]
			if _, ok := b.states[to]; !ok {
				errs = append(errs, &ErrUnknownTargetState{From: name, Event: event, Target: to})
			}
		}
	}

	if err := errors.Join(errs...); err != nil {
		return nil, err
	}

	def := &Definition{
		initial: b.initial,
		order:   b.order.Clone(),
		states:  g.NewMap[State, *StateDef](),
	}

	for _, name := range b.order {
		st := b.states[name]
		transitions := g.NewMap[Event, State]()

		for event, to := range st.transitions {
			transitions[event] = to
		}

		def.states[name] = &StateDef{
			name:        name,
			transitions: transitions,
			entry:       st.entry.Clone(),
			exit:        st.exit.Clone(),
		}
	}

	return def, nil
}

// Name returns the state's name.
func (s *StateDef) Name() State { return s.name }

// Entry returns a copy of the entry actions in declared order.
func (s *StateDef) Entry() g.Slice[Action] { return s.entry.Clone() }

// Exit returns a copy of the exit actions in declared order.
func (s *StateDef) Exit() g.Slice[Action] { return s.exit.Clone() }

// Target returns the state reached on event, if any.
func (s *StateDef) Target(event Event) g.Option[State] { return s.transitions.Get(event) }

// Events returns the events this state reacts to, sorted.
func (s *StateDef) Events() g.Slice[Event] { return s.events() }

func (s *StateDef) events() g.Slice[Event] {
	events := make(g.Slice[Event], 0, len(s.transitions))
	for event := range s.transitions {
		events.Push(event)
	}

	events.SortBy(cmp.Cmp)

	return events
}

// Initial returns the name of the initial state.
func (d *Definition) Initial() State { return d.initial }

// States returns the state names in declaration order.
func (d *Definition) States() g.Slice[State] { return d.order.Clone() }

// Lookup returns the state named name, if it exists.
func (d *Definition) Lookup(name State) g.Option[*StateDef] { return d.states.Get(name) }

// Target returns the state reached from state on event. It is None when the
// state is unknown or does not react to event.
func (d *Definition) Target(state State, event Event) g.Option[State] {
	st, ok := d.states[state]
	if !ok {
		return g.None[State]()
	}

	return st.Target(event)
}

// Methods returns the distinct host action names used by Call actions, in
// first-use order.
func (d *Definition) Methods() g.Slice[g.String] {
	seen := g.NewSet[g.String]()

	var methods g.Slice[g.String]

	for _, name := range d.order {
		st := d.states[name]
		for _, list := range []g.Slice[Action]{st.entry, st.exit} {
			for _, action := range list {
				if action.Kind != KindCall || seen.Contains(action.Method) {
					continue
				}

				seen.Insert(action.Method)
				methods.Push(action.Method)
			}
		}
	}

	return methods
}

// Check verifies that host provides every action named by the definition.
// It reports one ErrMissingAction per missing name.
func (d *Definition) Check(host Host) error {
	var errs []error

	for _, method := range d.Methods() {
		if host.Action(method).IsNone() {
			errs = append(errs, &ErrMissingAction{Method: method})
		}
	}

	return errors.Join(errs...)
}

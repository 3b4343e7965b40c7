package fsm

import (
	"reflect"
	"unicode"
	"unicode/utf8"

	"github.com/enetx/g"
)

// Host resolves the names used by Call actions to bound callbacks.
// An interpreter resolves every name once, when it is created.
type Host interface {
	Action(name g.String) g.Option[ActionFunc]
}

// HostFunc adapts a function to the Host interface.
type HostFunc func(name g.String) g.Option[ActionFunc]

// Action calls f(name).
func (f HostFunc) Action(name g.String) g.Option[ActionFunc] { return f(name) }

// ActionMap is a Host built from explicitly registered callbacks.
type ActionMap struct {
	actions g.Map[g.String, ActionFunc]
}

// NewActionMap returns an empty ActionMap.
func NewActionMap() *ActionMap {
	return &ActionMap{actions: g.NewMap[g.String, ActionFunc]()}
}

// Register binds name to fn, replacing any earlier binding.
func (m *ActionMap) Register(name g.String, fn ActionFunc) *ActionMap {
	m.actions[name] = fn
	return m
}

// Do binds name to a callback that cannot fail.
func (m *ActionMap) Do(name g.String, fn func()) *ActionMap {
	return m.Register(name, func() error {
		fn()
		return nil
	})
}

// Action implements Host.
func (m *ActionMap) Action(name g.String) g.Option[ActionFunc] { return m.actions.Get(name) }

var errorType = reflect.TypeOf((*error)(nil)).Elem()

// Methods returns a Host that resolves names to exported methods of obj. A method
// qualifies when it takes no arguments and returns nothing or a single error.
// A name starting with a lower-case letter also matches its exported form, so
// "loadingMode" resolves to LoadingMode.
func Methods(obj any) Host {
	v := reflect.ValueOf(obj)

	return HostFunc(func(name g.String) g.Option[ActionFunc] {
		if !v.IsValid() {
			return g.None[ActionFunc]()
		}

		for _, candidate := range []string{string(name), exported(string(name))} {
			if fn, ok := bindMethod(v.MethodByName(candidate)); ok {
				return g.Some(fn)
			}
		}

		return g.None[ActionFunc]()
	})
}

func bindMethod(m reflect.Value) (ActionFunc, bool) {
	if !m.IsValid() {
		return nil, false
	}

	t := m.Type()
	if t.NumIn() != 0 || t.NumOut() > 1 || (t.NumOut() == 1 && t.Out(0) != errorType) {
		return nil, false
	}

	return func() error {
		out := m.Call(nil)
		if len(out) == 0 || out[0].IsNil() {
			return nil
		}

		return out[0].Interface().(error)
	}, true
}

func exported(name string) string {
	r, size := utf8.DecodeRuneInString(name)
	if r == utf8.RuneError || unicode.IsUpper(r) {
		return name
	}

	return string(unicode.ToUpper(r)) + name[size:]
}

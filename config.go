package fsm

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"sort"

	"github.com/enetx/g"
	"gopkg.in/yaml.v3"
)

// Config is the serializable form of a Definition. The shape follows the
// statechart convention:
//
//	initial: idle
//	states:
//	  idle:
//	    on: {start: busy}
//	  busy:
//	    on: {done: idle, timeout: idle}
//	    onEntry: after 2 timeout
//	    onExit: [cancel timeout]
type Config struct {
	Initial State                 `json:"initial" yaml:"initial"`
	States  map[State]StateConfig `json:"states"  yaml:"states"`
}

// StateConfig is the serializable form of one state. Actions use the text
// form accepted by ParseAction.
type StateConfig struct {
	On      map[Event]State `json:"on,omitempty"      yaml:"on,omitempty"`
	OnEntry ActionList      `json:"onEntry,omitempty" yaml:"onEntry,omitempty"`
	OnExit  ActionList      `json:"onExit,omitempty"  yaml:"onExit,omitempty"`
}

// ActionList is a list of action specs. When decoding, a single string is
// accepted in place of a list.
type ActionList []string

// UnmarshalYAML implements yaml.Unmarshaler.
func (l *ActionList) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind == yaml.ScalarNode {
		var one string
		if err := node.Decode(&one); err != nil {
			return err
		}

		*l = ActionList{one}

		return nil
	}

	var many []string
	if err := node.Decode(&many); err != nil {
		return err
	}

	*l = many

	return nil
}

// Build validates the configuration and returns the Definition it describes.
// States are declared in name order with the initial state first.
func (c Config) Build() (*Definition, error) {
	if _, ok := c.States[c.Initial]; !ok {
		return nil, &ErrUnknownState{State: c.Initial}
	}

	names := make([]State, 0, len(c.States))
	for name := range c.States {
		if name != c.Initial {
			names = append(names, name)
		}
	}

	sort.Slice(names, func(a, b int) bool { return names[a] < names[b] })

	b := NewDefinition(c.Initial).State(names...)

	for _, name := range append([]State{c.Initial}, names...) {
		st := c.States[name]

		b.OnEntryText(name, specs(st.OnEntry)...)
		b.OnExitText(name, specs(st.OnExit)...)

		for event, to := range st.On {
			b.Transition(name, event, to)
		}
	}

	def, err := b.Build()
	if err != nil {
		return nil, fmt.Errorf("fsm: invalid definition: %w", err)
	}

	return def, nil
}

func specs(list ActionList) []g.String {
	out := make([]g.String, len(list))
	for i, spec := range list {
		out[i] = g.String(spec)
	}

	return out
}

// Config returns the serializable form of the definition.
func (d *Definition) Config() Config {
	c := Config{Initial: d.initial, States: make(map[State]StateConfig, len(d.states))}

	for _, name := range d.order {
		st := d.states[name]

		var sc StateConfig

		if len(st.transitions) > 0 {
			sc.On = make(map[Event]State, len(st.transitions))
			for event, to := range st.transitions {
				sc.On[event] = to
			}
		}

		for _, action := range st.entry {
			sc.OnEntry = append(sc.OnEntry, action.String())
		}

		for _, action := range st.exit {
			sc.OnExit = append(sc.OnExit, action.String())
		}

		c.States[name] = sc
	}

	return c
}

// ParseDefinition decodes a YAML (or JSON, which is valid YAML) document into a Definition.
func ParseDefinition(data []byte) (*Definition, error) {
	var c Config

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	if err := dec.Decode(&c); err != nil {
		return nil, fmt.Errorf("fsm: failed to decode definition: %w", err)
	}

	return c.Build()
}

// LoadDefinition reads a YAML or JSON definition from r.
func LoadDefinition(r io.Reader) (*Definition, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("fsm: failed to read definition: %w", err)
	}

	return ParseDefinition(data)
}

// LoadDefinitionFile reads a YAML or JSON definition from path.
func LoadDefinitionFile(path string) (*Definition, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("fsm: failed to open definition: %w", err)
	}
	defer f.Close()

	return LoadDefinition(f)
}

// MarshalYAML implements yaml.Marshaler.
func (d *Definition) MarshalYAML() (any, error) { return d.Config(), nil }

package fsm

import (
	"strings"

	"github.com/enetx/g"
)

var dotQuoter = strings.NewReplacer(`\`, `\\`, `"`, `\"`)

// quote escapes s for use inside a double-quoted DOT string.
func quote[T ~string](s T) g.String { return g.String(dotQuoter.Replace(string(s))) }

// ToDOT generates a DOT language string representation of the definition for visualization.
func (d *Definition) ToDOT() g.String { return d.toDOT("") }

func (d *Definition) toDOT(current State) g.String {
	b := g.NewBuilder()

	b.WriteString("digraph FSM {\n")
	b.WriteString("  rankdir=LR;\n")
	b.WriteString(
		"  node [shape=circle, style=filled, fillcolor=\"#f8f8f8\", color=\"#444444\", fontname=\"Helvetica\"];\n",
	)
	b.WriteString("  edge [fontname=\"Helvetica\", fontsize=10];\n\n")

	b.WriteString("  __start [shape=point, style=invis];\n")
	b.WriteString(g.Format("  __start -> \"{}\" [label=\" initial\"];\n\n", quote(d.initial)))

	for _, name := range d.order {
		st := d.states[name]

		var attrs g.Slice[g.String]
		attrs.Push(g.Format("label=\"{}\"", quote(name)))

		switch {
		case name == current:
			attrs.Push("fillcolor=\"#90ee90\"", "shape=doublecircle")
		case len(st.transitions) == 0:
			attrs.Push("fillcolor=\"#d3d3d3\"", "shape=doublecircle")
		}

		var tooltips g.Slice[g.String]

		for _, action := range st.entry {
			tooltips.Push(g.Format("entry: {}", quote(action.String())))
		}

		for _, action := range st.exit {
			tooltips.Push(g.Format("exit: {}", quote(action.String())))
		}

		if tooltips.NotEmpty() {
			attrs.Push(g.Format("tooltip=\"{}\"", tooltips.Join("\\n")))
		}

		b.WriteString(g.Format("  \"{}\" [{}];\n", quote(name), attrs.Join(", ")))
	}

	b.WriteByte('\n')

	delayed := d.delayedEvents()

	for _, from := range d.order {
		st := d.states[from]

		grouped := g.NewMap[State, g.Slice[g.String]]()
		dashed := g.NewSet[State]()

		var targets g.Slice[State]

		for _, event := range st.events() {
			to := st.transitions[event]
			label := quote(event)

			if delayed.Contains(event) {
				label += " (delayed)"
				dashed.Insert(to)
			}

			if _, ok := grouped[to]; !ok {
				targets.Push(to)
			}

			grouped[to] = grouped[to].Append(label)
		}

		for _, to := range targets {
			var edge g.Slice[g.String]
			edge.Push(g.Format("label=\" {} \"", grouped[to].Join("\\n")))

			if dashed.Contains(to) {
				edge.Push("style=dashed", "color=blue")
			}

			b.WriteString(g.Format("  \"{}\" -> \"{}\" [{}];\n", quote(from), quote(to), edge.Join(", ")))
		}
	}

	b.WriteString("\n  subgraph cluster_legend {\n")
	b.WriteString("    label = \"Legend\";\n")
	b.WriteString("    style = dashed;\n")
	b.WriteString(`    key [label=<
      <table border="0" cellpadding="4" cellspacing="0" cellborder="0">
        <tr><td align="right">●</td><td>Regular state</td></tr>
        <tr><td align="right"><font color="green">◎</font></td><td>Current state</td></tr>
        <tr><td align="right"><font color="gray">◎</font></td><td>Final state</td></tr>
        <tr><td align="right"><font color="blue">→</font></td><td>Delayed event</td></tr>
      </table>
    >, shape=none];`)

	b.WriteString("  }\n")
	b.WriteString("}\n")

	return b.String()
}

// delayedEvents returns the timer names armed on entry to any state.
func (d *Definition) delayedEvents() g.Set[Event] {
	set := g.NewSet[Event]()

	for _, st := range d.states {
		for _, action := range st.entry {
			if action.Kind == KindScheduleAfter {
				set.Insert(action.Timer)
			}
		}
	}

	return set
}

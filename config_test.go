package fsm_test

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	. "github.com/enetx/timedfsm"

	"github.com/enetx/g"
	"gopkg.in/yaml.v3"
)

const searchChart = `
initial: initial
states:
  initial:
    on:
      search: searching
      change: initial
  searching:
    on:
      results: displaying_results
      cancel: initial
    onEntry:
      - startHttpRequest
      - loadingMode
    onExit: cancelHttpRequest
  displaying_results:
    on:
      zoom: zoomed_in
    onEntry: resultsMode
  zoomed_in:
    on:
      zoom_out: displaying_results
    onEntry: zoomedMode
`

func TestParseDefinition_YAML(t *testing.T) {
	def, err := ParseDefinition([]byte(searchChart))
	assertNoError(t, err)

	assertEqual(t, def.Initial(), State("initial"))
	assertEqual(t, def.States()[0], State("initial"))
	assertEqual(t, def.States().Len(), 4)

	assertEqual(t, def.Target("searching", "results").Some(), State("displaying_results"))
	assertEqual(t, def.Target("zoomed_in", "zoom_out").Some(), State("displaying_results"))

	searching := def.Lookup("searching").Some()
	assertTrue(t, searching.Entry().Eq(g.SliceOf(Call("startHttpRequest"), Call("loadingMode"))))
	assertTrue(t, searching.Exit().Eq(g.SliceOf(Call("cancelHttpRequest"))))
}

func TestParseDefinition_JSON(t *testing.T) {
	doc := `{
  "initial": "idle",
  "states": {
    "idle": {"on": {"start": "busy"}},
    "busy": {
      "on": {"done": "idle", "timeout": "idle"},
      "onEntry": "after 2 timeout",
      "onExit": ["cancel timeout"]
    }
  }
}`

	def, err := ParseDefinition([]byte(doc))
	assertNoError(t, err)
	assertEqual(t, def.Lookup("busy").Some().Entry()[0], ScheduleAfter(2*time.Second, "timeout"))

	var decoded Definition
	assertNoError(t, json.Unmarshal([]byte(doc), &decoded))
	assertEqual(t, decoded.Target("busy", "timeout").Some(), State("idle"))
}

func TestParseDefinition_Errors(t *testing.T) {
	_, err := ParseDefinition([]byte("initial: nowhere\nstates:\n  a: {}\n"))

	var unknown *ErrUnknownState
	assertTrue(t, errors.As(err, &unknown))
	assertEqual(t, unknown.State, State("nowhere"))

	_, err = ParseDefinition([]byte("initial: a\nstates:\n  a:\n    on: {go: b}\n"))

	var target *ErrUnknownTargetState
	assertTrue(t, errors.As(err, &target))

	_, err = ParseDefinition([]byte("initial: a\nstates:\n  a:\n    onEntry: after soon t\n"))

	var invalid *ErrInvalidTimerSpec
	assertTrue(t, errors.As(err, &invalid))

	_, err = ParseDefinition([]byte("initial: a\nstates:\n  a:\n    onEnter: x\n"))
	assertError(t, err)
}

func TestDefinition_ConfigRoundTrip(t *testing.T) {
	def := busyDefinition(t)

	data, err := json.Marshal(def)
	assertNoError(t, err)

	var decoded Definition
	assertNoError(t, json.Unmarshal(data, &decoded))
	assertTrue(t, decoded.Lookup("busy").Some().Entry().Eq(def.Lookup("busy").Some().Entry()))
	assertTrue(t, decoded.Lookup("busy").Some().Exit().Eq(def.Lookup("busy").Some().Exit()))

	out, err := yaml.Marshal(def)
	assertNoError(t, err)
	assertTrue(t, strings.Contains(string(out), "after 2 timeout"))

	again, err := ParseDefinition(out)
	assertNoError(t, err)
	assertEqual(t, again.Target("busy", "done").Some(), State("idle"))
}

func TestLoadDefinitionFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "chart.yaml")
	assertNoError(t, os.WriteFile(path, []byte(searchChart), 0o600))

	def, err := LoadDefinitionFile(path)
	assertNoError(t, err)
	assertEqual(t, def.Initial(), State("initial"))

	_, err = LoadDefinitionFile(filepath.Join(t.TempDir(), "missing.yaml"))
	assertError(t, err)
}

// Package widget implements an image search widget driven by a statechart.
// The widget is the host of the chart: its modes and its background search
// requests are entry and exit actions, and user input is submitted as events.
package widget

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/alitto/pond/v2"
	"github.com/enetx/g"
	fsm "github.com/enetx/timedfsm"
	"github.com/enetx/timedfsm/internal/flickr"
)

//go:embed chart.yaml
var chart []byte

// Mode is what the UI currently shows.
type Mode string

const (
	ModeIdle    Mode = "idle"
	ModeLoading Mode = "loading"
	ModeResults Mode = "results"
	ModeZoomed  Mode = "zoomed"
	ModeFailed  Mode = "failed"
)

// Events submitted by the widget.
const (
	EventChange  fsm.Event = "change"
	EventSearch  fsm.Event = "search"
	EventCancel  fsm.Event = "cancel"
	EventZoom    fsm.Event = "zoom"
	EventZoomOut fsm.Event = "zoom_out"
	EventResults fsm.Event = "results"
	EventError   fsm.Event = "error"
)

// ErrTimeout is reported in failed mode when no response arrived in time.
var ErrTimeout = errors.New("widget: search timed out")

// Searcher looks up images by tags.
type Searcher interface {
	Search(ctx context.Context, tags string) ([]flickr.Item, error)
}

// View is a snapshot of the widget for rendering.
type View struct {
	Mode     Mode
	Text     string
	Results  []flickr.Item
	Selected int
	Err      error
}

// SelectedItem returns the zoomed image, if any.
func (v View) SelectedItem() g.Option[flickr.Item] {
	if v.Selected < 0 || v.Selected >= len(v.Results) {
		return g.None[flickr.Item]()
	}

	return g.Some(v.Results[v.Selected])
}

// Widget holds the UI state and the machine that drives it.
type Widget struct {
	machine  *fsm.SyncInterpreter
	searcher Searcher
	pool     pond.Pool
	log      *slog.Logger
	changes  chan struct{}

	mu      sync.Mutex
	view    View
	request uint64
	abort   context.CancelFunc
}

// Chart returns the embedded chart.
func Chart() (*fsm.Definition, error) {
	return fsm.ParseDefinition(chart)
}

// New creates a widget searching with searcher and enters the initial state.
func New(searcher Searcher, opts ...Option) (*Widget, error) {
	c := config{logger: slog.Default(), workers: 4}
	for _, opt := range opts {
		opt(&c)
	}

	if c.def == nil {
		def, err := Chart()
		if err != nil {
			return nil, fmt.Errorf("widget: embedded chart: %w", err)
		}

		c.def = def
	}

	w := &Widget{
		searcher: searcher,
		pool:     pond.NewPool(c.workers),
		log:      c.logger.With("component", "widget"),
		changes:  make(chan struct{}, 1),
		view:     View{Mode: ModeIdle, Selected: -1},
	}

	host := fsm.NewActionMap().
		Do("idleMode", w.idleMode).
		Do("loadingMode", func() { w.setMode(ModeLoading) }).
		Do("resultsMode", w.resultsMode).
		Do("zoomedMode", func() { w.setMode(ModeZoomed) }).
		Do("failedMode", w.failedMode).
		Register("startHttpRequest", w.startHTTPRequest).
		Do("cancelHttpRequest", w.cancelHTTPRequest)

	mopts := append([]fsm.Option{fsm.WithLogger(c.logger), fsm.WithStrictBinding()}, c.machine...)

	in, err := fsm.New(c.def, host, mopts...)
	if err != nil {
		w.pool.StopAndWait()
		return nil, err
	}

	w.machine = in.Sync()

	if err := w.machine.Submit("init"); err != nil {
		w.Close()
		return nil, err
	}

	return w, nil
}

// View returns a snapshot of the widget.
func (w *Widget) View() View {
	w.mu.Lock()
	defer w.mu.Unlock()

	v := w.view
	v.Results = append([]flickr.Item(nil), w.view.Results...)

	return v
}

// State returns the current state of the chart.
func (w *Widget) State() fsm.State { return w.machine.Current() }

// Changes delivers a value after the view has changed. Notifications coalesce.
func (w *Widget) Changes() <-chan struct{} { return w.changes }

// DOT renders the chart with the current state highlighted.
func (w *Widget) DOT() g.String { return w.machine.ToDOT() }

// SetText updates the search text.
func (w *Widget) SetText(text string) error {
	w.update(func(v *View) { v.Text = text })
	return w.machine.Submit(EventChange)
}

// Search starts a search for the current text.
func (w *Widget) Search() error { return w.machine.Submit(EventSearch) }

// Cancel abandons a running search.
func (w *Widget) Cancel() error { return w.machine.Submit(EventCancel) }

// Zoom shows result i on its own.
func (w *Widget) Zoom(i int) error {
	w.mu.Lock()
	if i < 0 || i >= len(w.view.Results) {
		n := len(w.view.Results)
		w.mu.Unlock()

		return fmt.Errorf("widget: no result %d of %d", i, n)
	}

	w.view.Selected = i
	w.mu.Unlock()

	return w.machine.Submit(EventZoom)
}

// ZoomOut goes back to the result list.
func (w *Widget) ZoomOut() error { return w.machine.Submit(EventZoomOut) }

// Close disposes the machine and waits for running requests.
func (w *Widget) Close() {
	w.machine.Dispose()
	w.cancelHTTPRequest()
	w.pool.StopAndWait()
}

func (w *Widget) update(fn func(*View)) {
	w.mu.Lock()
	fn(&w.view)
	w.mu.Unlock()

	select {
	case w.changes <- struct{}{}:
	default:
	}
}

func (w *Widget) setMode(mode Mode) {
	w.update(func(v *View) { v.Mode = mode })
	w.log.Debug("mode", "mode", mode)
}

func (w *Widget) idleMode() {
	w.update(func(v *View) {
		v.Mode = ModeIdle
		v.Results = nil
		v.Selected = -1
		v.Err = nil
	})
}

func (w *Widget) resultsMode() {
	w.update(func(v *View) {
		v.Mode = ModeResults
		v.Selected = -1
	})
}

func (w *Widget) failedMode() {
	w.update(func(v *View) {
		v.Mode = ModeFailed
		v.Results = nil

		if v.Err == nil {
			v.Err = ErrTimeout
		}
	})
}

// startHTTPRequest runs the search for the current text on the pool. The
// outcome is posted back as a results or error event unless the request was
// cancelled in the meantime.
func (w *Widget) startHTTPRequest() error {
	ctx, cancel := context.WithCancel(context.Background())

	w.mu.Lock()
	if w.abort != nil {
		w.abort()
	}

	w.request++
	id := w.request
	w.abort = cancel
	w.view.Err = nil
	text := w.view.Text
	w.mu.Unlock()

	w.log.Debug("search started", "request", id, "text", text)

	return w.pool.Go(func() {
		items, err := w.searcher.Search(ctx, text)

		w.mu.Lock()
		if id != w.request || ctx.Err() != nil {
			w.mu.Unlock()
			w.log.Debug("stale search dropped", "request", id)

			return
		}

		if err != nil {
			w.view.Err = err
		} else {
			w.view.Results = items
		}
		w.mu.Unlock()

		if err != nil {
			w.log.Warn("search failed", "request", id, "error", err)
			w.machine.Post(EventError)

			return
		}

		w.log.Debug("search finished", "request", id, "results", len(items))
		w.machine.Post(EventResults)
	})
}

func (w *Widget) cancelHTTPRequest() {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.abort != nil {
		w.abort()
		w.abort = nil
	}

	w.request++
}

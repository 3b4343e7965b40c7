// Command imagesearch searches the public Flickr feed from the terminal. The
// UI is driven by a statechart with a search timeout built from delayed events.
package main

import (
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	fsm "github.com/enetx/timedfsm"
	"github.com/enetx/timedfsm/internal/flickr"
	"github.com/enetx/timedfsm/internal/widget"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type flags struct {
	ui       string
	endpoint string
	chart    string
	log      string
	metrics  string
	dot      bool
	debug    bool
}

func main() {
	var f flags

	flag.StringVar(&f.ui, "ui", "tui", "user interface: tui or prompt")
	flag.StringVar(&f.endpoint, "endpoint", flickr.DefaultEndpoint, "photo feed URL")
	flag.StringVar(&f.chart, "chart", "", "statechart file (YAML or JSON) replacing the embedded one")
	flag.StringVar(&f.log, "log", "imagesearch.log", "log file")
	flag.StringVar(&f.metrics, "metrics", "", "serve Prometheus metrics on this address, e.g. :9090")
	flag.BoolVar(&f.dot, "dot", false, "print the statechart in DOT format and exit")
	flag.BoolVar(&f.debug, "debug", false, "log at debug level")
	flag.Parse()

	if err := run(f); err != nil {
		fmt.Fprintln(os.Stderr, "imagesearch:", err)
		os.Exit(1)
	}
}

func run(f flags) error {
	def, err := loadChart(f.chart)
	if err != nil {
		return err
	}

	if f.dot {
		fmt.Print(def.ToDOT())
		return nil
	}

	logFile, err := os.OpenFile(f.log, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return err
	}
	defer logFile.Close()

	level := slog.LevelInfo
	if f.debug {
		level = slog.LevelDebug
	}

	logger := slog.New(slog.NewTextHandler(logFile, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	if f.metrics != "" {
		go serveMetrics(f.metrics)
	}

	client := flickr.New(flickr.WithEndpoint(f.endpoint))

	w, err := widget.New(client, widget.WithDefinition(def), widget.WithLogger(logger))
	if err != nil {
		return err
	}
	defer w.Close()

	switch f.ui {
	case "tui":
		return runTUI(w)
	case "prompt":
		return runPrompt(w)
	default:
		return fmt.Errorf("unknown ui %q", f.ui)
	}
}

func loadChart(path string) (*fsm.Definition, error) {
	if path == "" {
		return widget.Chart()
	}

	return fsm.LoadDefinitionFile(path)
}

func serveMetrics(addr string) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())

	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	slog.Info("serving metrics", "addr", addr)

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		slog.Error("metrics server failed", "error", err)
	}
}

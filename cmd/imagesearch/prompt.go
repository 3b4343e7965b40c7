package main

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/enetx/timedfsm/internal/widget"
	"github.com/manifoldco/promptui"
)

const (
	choiceSearch  = "Search"
	choiceZoom    = "Zoom in"
	choiceZoomOut = "Zoom out"
	choiceChart   = "Show chart"
	choiceQuit    = "Quit"
)

func runPrompt(w *widget.Widget) error {
	for {
		view := w.View()

		items := []string{choiceSearch}

		switch view.Mode {
		case widget.ModeResults:
			items = append(items, choiceZoom)
		case widget.ModeZoomed:
			items = []string{choiceZoomOut}
		}

		items = append(items, choiceChart, choiceQuit)

		sel := promptui.Select{
			Label:  fmt.Sprintf("%s (%s)", w.State(), view.Mode),
			Items:  items,
			Stdin:  os.Stdin,
			Stdout: os.Stdout,
		}

		_, choice, err := sel.Run()
		if err != nil {
			if errors.Is(err, promptui.ErrInterrupt) || errors.Is(err, promptui.ErrEOF) {
				return nil
			}

			return err
		}

		switch choice {
		case choiceSearch:
			err = promptSearch(w)
		case choiceZoom:
			err = promptZoom(w)
		case choiceZoomOut:
			err = w.ZoomOut()
		case choiceChart:
			fmt.Println(w.DOT())
		case choiceQuit:
			return nil
		}

		if err != nil {
			fmt.Println("error:", err)
		}
	}
}

func promptSearch(w *widget.Widget) error {
	prompt := promptui.Prompt{
		Label:   "Tags",
		Default: w.View().Text,
		Validate: func(s string) error {
			if len(s) == 0 {
				return errors.New("you must enter something")
			}

			return nil
		},
		Stdin:  os.Stdin,
		Stdout: os.Stdout,
	}

	text, err := prompt.Run()
	if err != nil {
		return err
	}

	if err := w.SetText(text); err != nil {
		return err
	}

	if err := w.Search(); err != nil {
		return err
	}

	fmt.Println("Loading, please wait")

	view := waitSettled(w)

	switch view.Mode {
	case widget.ModeFailed:
		return fmt.Errorf("search failed: %w", view.Err)
	case widget.ModeResults:
		for i, item := range view.Results {
			fmt.Printf("%2d  %s\n", i+1, title(item.Title))
		}

		fmt.Printf("%d images\n", len(view.Results))
	}

	return nil
}

// waitSettled blocks until the widget leaves loading mode.
func waitSettled(w *widget.Widget) widget.View {
	tick := time.NewTicker(250 * time.Millisecond)
	defer tick.Stop()

	for {
		view := w.View()
		if view.Mode != widget.ModeLoading {
			return view
		}

		select {
		case <-w.Changes():
		case <-tick.C:
		}
	}
}

func promptZoom(w *widget.Widget) error {
	view := w.View()

	titles := make([]string, len(view.Results))
	for i, item := range view.Results {
		titles[i] = fmt.Sprintf("%2d  %s", i+1, title(item.Title))
	}

	sel := promptui.Select{
		Label:  "Image",
		Items:  titles,
		Size:   10,
		Stdin:  os.Stdin,
		Stdout: os.Stdout,
	}

	i, _, err := sel.Run()
	if err != nil {
		return err
	}

	if err := w.Zoom(i); err != nil {
		return err
	}

	if item := w.View().SelectedItem(); item.IsSome() {
		it := item.Some()
		fmt.Printf("%s\n  image:  %s\n  page:   %s\n  author: %s\n  tags:   %s\n",
			title(it.Title), it.Media.M, it.Link, it.Author, it.Tags)
	}

	return nil
}

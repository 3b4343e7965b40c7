package main

import (
	"fmt"

	"github.com/enetx/timedfsm/internal/widget"
	"github.com/gdamore/tcell/v2"
)

const help = "type to edit  enter: search/zoom  up/down: select  esc: cancel/back  ctrl-c: quit"

type tui struct {
	screen tcell.Screen
	w      *widget.Widget
	cursor int
	status string
}

func runTUI(w *widget.Widget) error {
	screen, err := tcell.NewScreen()
	if err != nil {
		return err
	}

	if err := screen.Init(); err != nil {
		return err
	}
	defer screen.Fini()

	t := &tui{screen: screen, w: w}

	events := make(chan tcell.Event, 16)
	go func() {
		for {
			ev := screen.PollEvent()
			if ev == nil {
				return
			}
			events <- ev
		}
	}()

	t.draw()

	for {
		select {
		case ev := <-events:
			if !t.handle(ev) {
				return nil
			}
		case <-w.Changes():
		}

		t.draw()
	}
}

func (t *tui) handle(ev tcell.Event) bool {
	switch ev := ev.(type) {
	case *tcell.EventKey:
		return t.handleKey(ev)
	case *tcell.EventResize:
		t.screen.Sync()
	}

	return true
}

func (t *tui) handleKey(ev *tcell.EventKey) bool {
	view := t.w.View()

	var err error

	switch ev.Key() {
	case tcell.KeyCtrlC, tcell.KeyCtrlQ:
		return false
	case tcell.KeyEscape:
		switch view.Mode {
		case widget.ModeZoomed:
			err = t.w.ZoomOut()
		default:
			err = t.w.Cancel()
		}
	case tcell.KeyEnter:
		if view.Mode == widget.ModeResults && len(view.Results) > 0 {
			err = t.w.Zoom(t.cursor)
		} else {
			t.cursor = 0
			err = t.w.Search()
		}
	case tcell.KeyUp:
		if t.cursor > 0 {
			t.cursor--
		}
	case tcell.KeyDown:
		if t.cursor < len(view.Results)-1 {
			t.cursor++
		}
	case tcell.KeyBackspace, tcell.KeyBackspace2:
		if r := []rune(view.Text); len(r) > 0 {
			err = t.w.SetText(string(r[:len(r)-1]))
		}
	case tcell.KeyRune:
		err = t.w.SetText(view.Text + string(ev.Rune()))
	}

	t.status = ""
	if err != nil {
		t.status = err.Error()
	}

	return true
}

func (t *tui) draw() {
	view := t.w.View()

	t.screen.Clear()
	width, height := t.screen.Size()

	bold := tcell.StyleDefault.Bold(true)
	dim := tcell.StyleDefault.Foreground(tcell.ColorGray)

	t.print(0, 0, bold, "Search flickr for images: ")
	t.print(26, 0, tcell.StyleDefault.Reverse(true), view.Text+" ")
	t.print(0, 1, dim, fmt.Sprintf("[%s] %s", t.w.State(), view.Mode))

	switch view.Mode {
	case widget.ModeLoading:
		t.print(0, 3, tcell.StyleDefault.Foreground(tcell.ColorYellow), "Loading, please wait")
	case widget.ModeFailed:
		t.print(0, 3, tcell.StyleDefault.Foreground(tcell.ColorRed), fmt.Sprintf("Search failed: %v", view.Err))
	case widget.ModeResults:
		if len(view.Results) == 0 {
			t.print(0, 3, dim, "No images found")
		}

		for i, item := range view.Results {
			y := 3 + i
			if y >= height-1 {
				break
			}

			style := tcell.StyleDefault
			if i == t.cursor {
				style = style.Reverse(true)
			}

			t.print(0, y, style, fmt.Sprintf("%2d  %s", i+1, title(item.Title)))
		}
	case widget.ModeZoomed:
		if item := view.SelectedItem(); item.IsSome() {
			it := item.Some()
			t.print(0, 3, bold, title(it.Title))
			t.print(0, 4, tcell.StyleDefault, it.Media.M)
			t.print(0, 5, dim, it.Link)
			t.print(0, 6, dim, it.Author)
			t.print(0, 7, dim, it.Tags)
		}
	}

	footer := help
	if t.status != "" {
		footer = t.status
	}

	t.print(0, height-1, dim, truncate(footer, width))
	t.screen.Show()
}

func (t *tui) print(x, y int, style tcell.Style, text string) {
	for _, r := range text {
		t.screen.SetContent(x, y, r, nil, style)
		x++
	}
}

func title(s string) string {
	if s == "" || s == " " {
		return "(untitled)"
	}

	return s
}

// truncate cuts s to at most n runes.
func truncate(s string, n int) string {
	if n <= 0 {
		return ""
	}

	if r := []rune(s); len(r) > n {
		return string(r[:n])
	}

	return s
}

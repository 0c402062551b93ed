// Package tray puts a status icon with a "Take OCR screenshot" entry in the
// desktop panel.
package tray

import (
	"context"
	"log"
	"sync"

	"github.com/getlantern/systray"

	"screen-ocr-clip/src/trigger"
)

const (
	MenuCapture = "Take OCR screenshot"
	MenuQuit    = "Quit"

	busyTooltip = "Screen OCR: processing..."
)

// Tray is a trigger backed by the system tray menu.
type Tray struct {
	title    string
	handlers trigger.Handlers

	mu    sync.Mutex
	ready bool
	busy  bool
}

func New(title string) *Tray {
	return &Tray{title: title}
}

func (t *Tray) Name() string { return "tray" }

func (t *Tray) OnActivate(handler func()) { t.handlers.Add(handler) }

// SetBusy switches the tooltip while a run is in flight.
func (t *Tray) SetBusy(busy bool) {
	t.mu.Lock()
	t.busy = busy
	ready := t.ready
	t.mu.Unlock()
	if ready {
		systray.SetTooltip(t.Tooltip())
	}
}

// Tooltip is the text currently shown on hover.
func (t *Tray) Tooltip() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.busy {
		return busyTooltip
	}
	return t.title
}

// Run shows the icon and blocks until Quit is chosen or ctx ends. systray
// must own the main OS thread, so call Run from main.
func (t *Tray) Run(ctx context.Context, onQuit func()) {
	systray.Run(func() { t.onReady(ctx, onQuit) }, func() {
		log.Printf("tray: exited")
	})
}

func (t *Tray) onReady(ctx context.Context, onQuit func()) {
	systray.SetIcon(Icon())
	systray.SetTitle(t.title)
	systray.SetTooltip(t.Tooltip())

	mCapture := systray.AddMenuItem(MenuCapture, "Select a screen region and copy its text")
	systray.AddSeparator()
	mQuit := systray.AddMenuItem(MenuQuit, "Quit the application")

	t.mu.Lock()
	t.ready = true
	t.mu.Unlock()

	go func() {
		for {
			select {
			case <-mCapture.ClickedCh:
				log.Printf("tray: %s clicked", MenuCapture)
				t.handlers.Fire()
			case <-mQuit.ClickedCh:
				if onQuit != nil {
					onQuit()
				}
				systray.Quit()
				return
			case <-ctx.Done():
				systray.Quit()
				return
			}
		}
	}()
}

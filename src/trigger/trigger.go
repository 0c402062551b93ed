// Package trigger decouples the pipeline from whatever UI starts it: a hotkey,
// a tray menu item or a manual call all look the same to the event loop.
package trigger

import "sync"

// Trigger announces user activations to registered handlers.
type Trigger interface {
	Name() string
	OnActivate(handler func())
}

// Handlers is a concurrency-safe handler list for Trigger implementations.
type Handlers struct {
	mu  sync.Mutex
	fns []func()
}

func (h *Handlers) Add(fn func()) {
	if fn == nil {
		return
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	h.fns = append(h.fns, fn)
}

// Fire invokes every handler in registration order.
func (h *Handlers) Fire() {
	h.mu.Lock()
	fns := append([]func(){}, h.fns...)
	h.mu.Unlock()
	for _, fn := range fns {
		fn()
	}
}

// Manual is fired programmatically, e.g. by --run-once or tests.
type Manual struct {
	name     string
	handlers Handlers
}

func NewManual(name string) *Manual {
	return &Manual{name: name}
}

func (m *Manual) Name() string { return m.name }

func (m *Manual) OnActivate(handler func()) { m.handlers.Add(handler) }

func (m *Manual) Fire() { m.handlers.Fire() }

package clipboard

import (
	"context"
	"sync"
	"time"

	"golang.design/x/clipboard"
)

var (
	initOnce sync.Once
	initErr  error
)

func Init() error {
	initOnce.Do(func() { initErr = clipboard.Init() })
	return initErr
}

// System is the desktop clipboard.
type System struct {
	writeMu sync.Mutex
	changed <-chan struct{}
}

func NewSystem() (*System, error) {
	if err := Init(); err != nil {
		return nil, err
	}
	return &System{}, nil
}

// WriteText performs a mutex-guarded clipboard write to prevent corruption under parallel writes.
func (s *System) WriteText(text string) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	s.changed = clipboard.Write(clipboard.FmtText, []byte(text))
	return nil
}

func (s *System) ReadText() string {
	return string(clipboard.Read(clipboard.FmtText))
}

// Hold blocks until another application takes over the clipboard, max
// elapses or ctx ends. On X11 the selection is served by this process, so a
// short-lived process has to linger for the text to survive.
func (s *System) Hold(ctx context.Context, max time.Duration) {
	s.writeMu.Lock()
	changed := s.changed
	s.writeMu.Unlock()
	if changed == nil || max <= 0 {
		return
	}
	timer := time.NewTimer(max)
	defer timer.Stop()
	select {
	case <-changed:
	case <-timer.C:
	case <-ctx.Done():
	}
}

// Memory is an in-process clipboard used as a test double and for headless runs.
type Memory struct {
	mu     sync.Mutex
	text   string
	writes int
}

func (m *Memory) WriteText(text string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.text = text
	m.writes++
	return nil
}

func (m *Memory) ReadText() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.text
}

func (m *Memory) Writes() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.writes
}

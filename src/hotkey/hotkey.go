package hotkey

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"sync"

	gohook "github.com/robotn/gohook"

	"screen-ocr-clip/src/trigger"
)

// gohook keeps a single global hook session per process.
var sessionMu sync.Mutex

// Listener is a global-hotkey trigger.
type Listener struct {
	combo    string
	keys     []string
	handlers trigger.Handlers
}

// New parses combo ("Ctrl+Alt+Q") and returns an idle listener.
func New(combo string) (*Listener, error) {
	keys, err := ParseHotkey(combo)
	if err != nil {
		return nil, err
	}
	return &Listener{combo: combo, keys: keys}, nil
}

func (l *Listener) Name() string { return "hotkey " + l.combo }

func (l *Listener) Keys() []string { return append([]string(nil), l.keys...) }

func (l *Listener) OnActivate(handler func()) { l.handlers.Add(handler) }

// Start hooks the keyboard and blocks until ctx ends.
func (l *Listener) Start(ctx context.Context) error {
	if !sessionMu.TryLock() {
		return errors.New("hotkey: another listener is already running")
	}
	defer sessionMu.Unlock()

	defer func() {
		if r := recover(); r != nil {
			log.Printf("PANIC in hotkey listener: %v", r)
		}
	}()

	gohook.Register(gohook.KeyDown, l.keys, func(e gohook.Event) {
		log.Printf("Hotkey %s activated", l.combo)
		l.handlers.Fire()
	})

	evChan := gohook.Start()
	if evChan == nil {
		return errors.New("hotkey: gohook.Start() returned nil channel")
	}
	log.Printf("Hotkey listener configured for: %s (%v)", l.combo, l.keys)

	go func() {
		<-ctx.Done()
		gohook.End()
	}()
	<-gohook.Process(evChan)
	log.Printf("Hotkey listener stopped")
	return ctx.Err()
}

var keyAliases = map[string]string{
	"control": "ctrl",
	"option":  "alt",
	"win":     "cmd",
	"super":   "cmd",
	"meta":    "cmd",
	"return":  "enter",
	"escape":  "esc",
	"del":     "delete",
	"ins":     "insert",
	"pgup":    "pageup",
	"pgdn":    "pagedown",
}

var namedKeys = map[string]bool{
	"space": true, "enter": true, "esc": true, "tab": true, "backspace": true,
	"delete": true, "insert": true, "home": true, "end": true,
	"pageup": true, "pagedown": true,
	"left": true, "up": true, "right": true, "down": true,
	"printscreen": true,
}

func isModifier(key string) bool {
	switch key {
	case "ctrl", "alt", "shift", "cmd":
		return true
	}
	return false
}

func isKnownKey(key string) bool {
	if isModifier(key) || namedKeys[key] {
		return true
	}
	if len(key) == 1 && ((key[0] >= 'a' && key[0] <= 'z') || (key[0] >= '0' && key[0] <= '9')) {
		return true
	}
	var n int
	if _, err := fmt.Sscanf(key, "f%d", &n); err == nil && fmt.Sprintf("f%d", n) == key {
		return n >= 1 && n <= 24
	}
	return false
}

// ParseHotkey converts a hotkey string like "Ctrl+Alt+q" to gohook key
// names. It requires exactly one non-modifier key.
func ParseHotkey(combo string) ([]string, error) {
	if strings.TrimSpace(combo) == "" {
		return nil, errors.New("hotkey: empty combination")
	}
	var keys []string
	regular := 0
	for _, part := range strings.Split(strings.ToLower(combo), "+") {
		part = strings.TrimSpace(part)
		if alias, ok := keyAliases[part]; ok {
			part = alias
		}
		if !isKnownKey(part) {
			return nil, fmt.Errorf("hotkey: unknown key %q in %q", part, combo)
		}
		if !isModifier(part) {
			regular++
		}
		keys = append(keys, part)
	}
	if regular != 1 {
		return nil, fmt.Errorf("hotkey: %q needs exactly one non-modifier key", combo)
	}
	return keys, nil
}

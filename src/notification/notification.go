package notification

import (
	"fmt"
	"log"
	"sync"

	"github.com/godbus/dbus/v5"
)

const (
	busName    = "org.freedesktop.Notifications"
	objectPath = "/org/freedesktop/Notifications"
	notifyCall = busName + ".Notify"

	// Icon matches the screenshot symbolic icon used by the panel indicator.
	Icon = "applets-screenshooter-symbolic"

	defaultTimeoutMs = 5000
)

// Desktop sends freedesktop notifications over the session bus.
type Desktop struct {
	conn    *dbus.Conn
	appName string

	mu     sync.Mutex
	lastID uint32
}

func NewDesktop(appName string) (*Desktop, error) {
	conn, err := dbus.ConnectSessionBus()
	if err != nil {
		return nil, fmt.Errorf("connect session bus: %w", err)
	}
	return &Desktop{conn: conn, appName: appName}, nil
}

// Notify shows summary/body. Successive notifications replace the previous
// one so a burst of results does not stack up.
func (d *Desktop) Notify(summary, body string) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	obj := d.conn.Object(busName, dbus.ObjectPath(objectPath))
	call := obj.Call(notifyCall, 0,
		d.appName,
		d.lastID,
		Icon,
		summary,
		body,
		[]string{},
		map[string]dbus.Variant{},
		int32(defaultTimeoutMs),
	)
	if call.Err != nil {
		return fmt.Errorf("notify: %w", call.Err)
	}
	var id uint32
	if err := call.Store(&id); err == nil {
		d.lastID = id
	}
	return nil
}

func (d *Desktop) Close() error {
	return d.conn.Close()
}

// Log is the fallback when no notification service is reachable.
type Log struct{}

func (Log) Notify(summary, body string) error {
	log.Printf("Notification: %s: %s", summary, body)
	return nil
}

// Notifier is what Default returns.
type Notifier interface {
	Notify(summary, body string) error
}

// Default prefers the desktop notification service and falls back to Log.
func Default(appName string) Notifier {
	d, err := NewDesktop(appName)
	if err != nil {
		log.Printf("notification: %v; falling back to log", err)
		return Log{}
	}
	return d
}

// Truncate shortens text to max runes, appending "…". max <= 0 disables it.
func Truncate(text string, max int) string {
	if max <= 0 {
		return text
	}
	runes := []rune(text)
	if len(runes) <= max {
		return text
	}
	return string(runes[:max]) + "…"
}

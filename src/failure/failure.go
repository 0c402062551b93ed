// Package failure holds the error taxonomy shared by the capture, recognition
// and delivery stages.
package failure

import (
	"errors"
	"fmt"
)

var (
	ErrToolMissing       = errors.New("tool missing")
	ErrSpawn             = errors.New("process could not be started")
	ErrUserCancelled     = errors.New("capture cancelled by user")
	ErrEmptyResult       = errors.New("recognition produced no text")
	ErrRecognitionFailed = errors.New("recognition failed")
	ErrImageMissing      = errors.New("captured image missing or unreadable")
	ErrBusy              = errors.New("busy, please retry")
	ErrDelivery          = errors.New("delivery failed")
)

// ToolMissingError names the executable that could not be found.
type ToolMissingError struct {
	Tool string
}

func (e *ToolMissingError) Error() string {
	return fmt.Sprintf("%s: %s not found in PATH", ErrToolMissing, e.Tool)
}

func (e *ToolMissingError) Unwrap() error { return ErrToolMissing }

// MissingTool returns the tool name carried by err, if any.
func MissingTool(err error) (string, bool) {
	var tm *ToolMissingError
	if errors.As(err, &tm) {
		return tm.Tool, true
	}
	return "", false
}

package sink

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"time"

	"screen-ocr-clip/src/failure"
	"screen-ocr-clip/src/notification"
	"screen-ocr-clip/src/toolcheck"
)

const (
	SummarySuccess = "OCR result copied to clipboard"
	SummaryFailure = "Screen OCR"
)

// Target receives the outcome of a pipeline run.
type Target interface {
	OnSuccess(text string) error
	OnFailure(err error) error
}

type Clipboard interface {
	WriteText(text string) error
}

type Notifier interface {
	Notify(summary, body string) error
}

// Desktop puts the text on the clipboard and announces it with a notification.
// The clipboard always receives the full text; only the notification body is
// truncated to MaxNotifyChars runes (0 = no limit).
type Desktop struct {
	Clipboard      Clipboard
	Notifier       Notifier
	MaxNotifyChars int
}

// Deliver is OnSuccess under its pipeline name.
func (d Desktop) Deliver(text string) error { return d.OnSuccess(text) }

func (d Desktop) OnSuccess(text string) error {
	if d.Clipboard == nil {
		return fmt.Errorf("%w: no clipboard configured", failure.ErrDelivery)
	}
	if err := d.Clipboard.WriteText(text); err != nil {
		return fmt.Errorf("%w: clipboard: %v", failure.ErrDelivery, err)
	}
	log.Printf("sink: %d characters copied to clipboard", len(text))

	body := notification.Truncate(text, d.MaxNotifyChars)
	if body == "" {
		body = "(no text)"
	}
	d.notify(SummarySuccess, body)
	return nil
}

func (d Desktop) OnFailure(err error) error {
	msg := FailureMessage(err)
	if msg == "" {
		return nil
	}
	d.notify(SummaryFailure, msg)
	return nil
}

func (d Desktop) notify(summary, body string) {
	if d.Notifier == nil {
		return
	}
	if err := d.Notifier.Notify(summary, body); err != nil {
		log.Printf("sink: notification failed: %v", err)
	}
}

// FailureMessage is the user-facing text for err. A cancelled selection is
// deliberate and yields "".
func FailureMessage(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, failure.ErrUserCancelled):
		return ""
	case errors.Is(err, failure.ErrToolMissing):
		tool, _ := failure.MissingTool(err)
		if tool == "" || tool == "tesseract" {
			return toolcheck.InstallHint
		}
		return fmt.Sprintf("Please install %s for this tool to work.", tool)
	case errors.Is(err, failure.ErrBusy):
		return "Busy, please retry"
	case errors.Is(err, failure.ErrEmptyResult):
		return "No text recognized in the selected region"
	default:
		return fmt.Sprintf("OCR failed: %v", err)
	}
}

// Stdout writes the text as-is, without a trailing newline.
type Stdout struct {
	Writer io.Writer
}

func (t Stdout) OnSuccess(text string) error {
	w := t.Writer
	if w == nil {
		w = os.Stdout
	}
	_, err := fmt.Fprint(w, text)
	return err
}

func (t Stdout) OnFailure(err error) error { return nil }

// File writes the text to Path, replacing previous content.
type File struct {
	Path string
}

func (t File) OnSuccess(text string) error {
	if err := os.WriteFile(t.Path, []byte(text), 0o600); err != nil {
		return fmt.Errorf("%w: write %s: %v", failure.ErrDelivery, t.Path, err)
	}
	return nil
}

func (t File) OnFailure(err error) error { return nil }

// Result is the JSON document written by the JSON target.
type Result struct {
	Text      string  `json:"text"`
	Source    string  `json:"source"`
	Timestamp string  `json:"timestamp"`
	Duration  float64 `json:"duration_seconds"`
	CharCount int     `json:"character_count"`
}

// JSON writes a Result document; Started anchors the reported duration.
type JSON struct {
	Writer  io.Writer
	Source  string
	Started time.Time
}

func (t JSON) OnSuccess(text string) error {
	w := t.Writer
	if w == nil {
		w = os.Stdout
	}
	var elapsed time.Duration
	if !t.Started.IsZero() {
		elapsed = time.Since(t.Started)
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(Result{
		Text:      text,
		Source:    t.Source,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Duration:  elapsed.Seconds(),
		CharCount: len([]rune(text)),
	}); err != nil {
		return fmt.Errorf("failed to encode JSON output: %w", err)
	}
	return nil
}

func (t JSON) OnFailure(err error) error { return nil }

// Multi fans out to every target and joins their errors.
type Multi []Target

func (m Multi) OnSuccess(text string) error {
	var errs []error
	for _, t := range m {
		if err := t.OnSuccess(text); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (m Multi) OnFailure(err error) error {
	var errs []error
	for _, t := range m {
		if e := t.OnFailure(err); e != nil {
			errs = append(errs, e)
		}
	}
	return errors.Join(errs...)
}

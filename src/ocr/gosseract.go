//go:build gosseract

package ocr

import (
	"context"
	"fmt"
	"log"
	"strconv"
	"strings"
	"time"

	"github.com/otiai10/gosseract/v2"

	"screen-ocr-clip/src/failure"
)

// Gosseract recognizes in-process through libtesseract (cgo).
type Gosseract struct {
	opts Options
}

func newGosseract(opts Options) (Engine, error) {
	return &Gosseract{opts: opts}, nil
}

func (e *Gosseract) Name() string { return "gosseract" }

func (e *Gosseract) Recognize(ctx context.Context, imagePath string) (Result, error) {
	if err := CheckImage(imagePath); err != nil {
		return Result{}, err
	}

	start := time.Now()
	resCh := make(chan struct {
		text string
		err  error
	}, 1)
	go func() {
		text, err := e.text(imagePath)
		resCh <- struct {
			text string
			err  error
		}{text, err}
	}()

	select {
	case r := <-resCh:
		if r.err != nil {
			return Result{}, fmt.Errorf("%w: %v", failure.ErrRecognitionFailed, r.err)
		}
		text := strings.TrimSpace(r.text)
		if text == "" {
			return Result{}, failure.ErrEmptyResult
		}
		log.Printf("ocr: gosseract recognized %d characters", len(text))
		return Result{Text: text, Engine: e.Name(), Duration: time.Since(start)}, nil
	case <-ctx.Done():
		// libtesseract cannot be interrupted; the goroutine finishes in the background.
		return Result{}, ctx.Err()
	}
}

func (e *Gosseract) text(imagePath string) (string, error) {
	client := gosseract.NewClient()
	defer client.Close()

	if e.opts.Language != "" {
		if err := client.SetLanguage(e.opts.Language); err != nil {
			return "", fmt.Errorf("set language: %w", err)
		}
	}
	if e.opts.DPI > 0 {
		if err := client.SetVariable(gosseract.SettableVariable("user_defined_dpi"), strconv.Itoa(e.opts.DPI)); err != nil {
			return "", fmt.Errorf("set dpi: %w", err)
		}
	}
	if e.opts.PSM >= 0 {
		if err := client.SetPageSegMode(gosseract.PageSegMode(e.opts.PSM)); err != nil {
			return "", fmt.Errorf("set page segmentation mode: %w", err)
		}
	}
	if err := client.SetImage(imagePath); err != nil {
		return "", fmt.Errorf("set image: %w", err)
	}
	return client.Text()
}

package ocr

import (
	"context"
	"fmt"
	"os"
	"time"

	"screen-ocr-clip/src/config"
	"screen-ocr-clip/src/failure"
)

// Result is the text recognized from one image.
type Result struct {
	Text     string
	Engine   string
	Duration time.Duration
}

// Engine extracts text from an image file. Implementations never modify or
// delete the input.
type Engine interface {
	Name() string
	Recognize(ctx context.Context, imagePath string) (Result, error)
}

// Options tune recognition. PSM < 0 leaves page segmentation to the engine.
type Options struct {
	Tool     string
	DPI      int
	Language string
	PSM      int
}

// OptionsFromConfig maps configuration onto engine options.
func OptionsFromConfig(cfg *config.Config) Options {
	return Options{
		Tool:     cfg.OCRTool,
		DPI:      cfg.OCRDPI,
		Language: cfg.OCRLang,
		PSM:      cfg.OCRPSM,
	}
}

// New returns the engine selected by name (config.EngineTesseract or
// config.EngineGosseract).
func New(name string, opts Options) (Engine, error) {
	switch name {
	case "", config.EngineTesseract:
		return NewTesseract(opts), nil
	case config.EngineGosseract:
		return newGosseract(opts)
	default:
		return nil, fmt.Errorf("unknown OCR engine %q", name)
	}
}

// CheckImage enforces that the captured file exists, is a regular non-empty
// file and can be opened for reading.
func CheckImage(path string) error {
	st, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("%w: %v", failure.ErrImageMissing, err)
	}
	if !st.Mode().IsRegular() || st.Size() == 0 {
		return fmt.Errorf("%w: %s is empty or not a regular file", failure.ErrImageMissing, path)
	}
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("%w: %v", failure.ErrImageMissing, err)
	}
	return f.Close()
}

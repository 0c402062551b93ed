package ocr

import (
	"bytes"
	"context"
	"fmt"
	"log"
	"strconv"
	"strings"

	"screen-ocr-clip/src/config"
	"screen-ocr-clip/src/failure"
	"screen-ocr-clip/src/process"
)

// Tesseract runs the tesseract CLI: `tesseract <image> stdout --dpi <n>`,
// reading text from stdout and discarding stderr.
type Tesseract struct {
	opts Options
}

func NewTesseract(opts Options) *Tesseract {
	if opts.Tool == "" {
		opts.Tool = config.DefaultOCRTool
	}
	if opts.DPI <= 0 {
		opts.DPI = config.DefaultOCRDPI
	}
	return &Tesseract{opts: opts}
}

func (e *Tesseract) Name() string { return "tesseract" }

// Tool is the executable the engine invokes, used by the preflight check.
func (e *Tesseract) Tool() string { return e.opts.Tool }

// Args builds the command line for imagePath.
func (e *Tesseract) Args(imagePath string) []string {
	args := []string{imagePath, "stdout", "--dpi", strconv.Itoa(e.opts.DPI)}
	if e.opts.Language != "" {
		args = append(args, "-l", e.opts.Language)
	}
	if e.opts.PSM >= 0 {
		args = append(args, "--psm", strconv.Itoa(e.opts.PSM))
	}
	return args
}

func (e *Tesseract) Recognize(ctx context.Context, imagePath string) (Result, error) {
	if err := CheckImage(imagePath); err != nil {
		return Result{}, err
	}
	log.Printf("ocr: processing %s", imagePath)

	var stdout bytes.Buffer
	res, err := process.Run(ctx, process.Spec{Name: e.opts.Tool, Args: e.Args(imagePath), Stdout: &stdout})
	if err != nil {
		return Result{}, err
	}
	if res.ExitCode != 0 {
		return Result{}, fmt.Errorf("%w: %s exited with status %d", failure.ErrRecognitionFailed, e.opts.Tool, res.ExitCode)
	}

	text := strings.TrimSpace(stdout.String())
	if text == "" {
		return Result{}, failure.ErrEmptyResult
	}
	log.Printf("ocr: recognized %d characters in %v", len(text), res.Duration)
	return Result{Text: text, Engine: e.Name(), Duration: res.Duration}, nil
}

package capture

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"screen-ocr-clip/src/failure"
	"screen-ocr-clip/src/process"
)

// OutputPlaceholder in a tool's argument list is replaced by the output path.
const OutputPlaceholder = "{output}"

// Request is a single-use capture order.
type Request struct {
	OutputPath string
}

// Result describes a finished capture. The image is presumed present at Path;
// the pipeline verifies it before recognition.
type Result struct {
	Path     string
	ExitCode int
	Duration time.Duration
}

// Capturer produces a PNG at the requested path.
type Capturer interface {
	Name() string
	Capture(ctx context.Context, req Request) (Result, error)
}

// Tool runs an external interactive region-capture program, by default
// `gnome-screenshot -a -f <path>`.
type Tool struct {
	Executable string
	Args       []string
}

func NewTool(executable string, args []string) *Tool {
	return &Tool{Executable: executable, Args: args}
}

func (c *Tool) Name() string { return c.Executable }

// Capture blocks until the tool exits. A non-zero exit is reported as
// failure.ErrUserCancelled; it is never retried.
func (c *Tool) Capture(ctx context.Context, req Request) (Result, error) {
	if req.OutputPath == "" {
		return Result{}, errors.New("capture: output path is required")
	}
	// Drop any stale file so a cancelled selection cannot pass for a capture.
	if err := os.Remove(req.OutputPath); err != nil && !os.IsNotExist(err) {
		return Result{}, fmt.Errorf("capture: clear %s: %w", req.OutputPath, err)
	}

	args := ExpandArgs(c.Args, req.OutputPath)
	log.Printf("capture: running %s %s", c.Executable, strings.Join(args, " "))

	var stderr bytes.Buffer
	res, err := process.Run(ctx, process.Spec{Name: c.Executable, Args: args, Stderr: &stderr})
	if err != nil {
		return Result{}, err
	}

	out := Result{Path: req.OutputPath, ExitCode: res.ExitCode, Duration: res.Duration}
	if res.ExitCode != 0 {
		log.Printf("capture: %s exited with status %d: %s", c.Executable, res.ExitCode, strings.TrimSpace(stderr.String()))
		return out, fmt.Errorf("%w: %s exited with status %d", failure.ErrUserCancelled, c.Executable, res.ExitCode)
	}
	log.Printf("capture: finished in %v", res.Duration)
	return out, nil
}

// ExpandArgs substitutes OutputPlaceholder; when no argument carries the
// placeholder the path is appended.
func ExpandArgs(args []string, outputPath string) []string {
	expanded := make([]string, 0, len(args)+1)
	found := false
	for _, a := range args {
		if strings.Contains(a, OutputPlaceholder) {
			found = true
			a = strings.ReplaceAll(a, OutputPlaceholder, outputPath)
		}
		expanded = append(expanded, a)
	}
	if !found {
		expanded = append(expanded, outputPath)
	}
	return expanded
}

package capture

import (
	"context"
	"fmt"
	"image"
	"image/png"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/kbinani/screenshot"
)

// Display grabs the screen without user interaction: one display, the union
// of all active displays (Index < 0), or a fixed Region when set.
type Display struct {
	Index  int
	Region *image.Rectangle
}

func (d *Display) Name() string { return "display" }

func (d *Display) Capture(ctx context.Context, req Request) (Result, error) {
	if req.OutputPath == "" {
		return Result{}, fmt.Errorf("capture: output path is required")
	}
	if err := ctx.Err(); err != nil {
		return Result{}, err
	}

	start := time.Now()
	bounds, err := d.bounds()
	if err != nil {
		return Result{}, err
	}

	img, err := screenshot.CaptureRect(bounds)
	if err != nil {
		return Result{}, fmt.Errorf("failed to capture region: %v", err)
	}

	f, err := os.OpenFile(req.OutputPath, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o600)
	if err != nil {
		return Result{}, fmt.Errorf("capture: open %s: %w", req.OutputPath, err)
	}
	if err := png.Encode(f, img); err != nil {
		f.Close()
		return Result{}, fmt.Errorf("failed to encode image as PNG: %v", err)
	}
	if err := f.Close(); err != nil {
		return Result{}, fmt.Errorf("capture: close %s: %w", req.OutputPath, err)
	}

	log.Printf("capture: grabbed %v from display", bounds)
	return Result{Path: req.OutputPath, Duration: time.Since(start)}, nil
}

func (d *Display) bounds() (image.Rectangle, error) {
	if d.Region != nil {
		if d.Region.Dx() <= 0 || d.Region.Dy() <= 0 {
			return image.Rectangle{}, fmt.Errorf("invalid region dimensions: width=%d, height=%d", d.Region.Dx(), d.Region.Dy())
		}
		return *d.Region, nil
	}

	n := screenshot.NumActiveDisplays()
	if n == 0 {
		return image.Rectangle{}, fmt.Errorf("no active displays found")
	}
	if d.Index >= n {
		return image.Rectangle{}, fmt.Errorf("display %d not found (%d active)", d.Index, n)
	}
	if d.Index >= 0 {
		return screenshot.GetDisplayBounds(d.Index), nil
	}

	union := screenshot.GetDisplayBounds(0)
	for i := 1; i < n; i++ {
		union = union.Union(screenshot.GetDisplayBounds(i))
	}
	return union, nil
}

// ParseRegion parses "x,y,width,height". An empty string yields nil.
func ParseRegion(s string) (*image.Rectangle, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	parts := strings.Split(s, ",")
	if len(parts) != 4 {
		return nil, fmt.Errorf("region %q: want x,y,width,height", s)
	}
	var v [4]int
	for i, p := range parts {
		n, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil {
			return nil, fmt.Errorf("region %q: %w", s, err)
		}
		v[i] = n
	}
	if v[2] <= 0 || v[3] <= 0 {
		return nil, fmt.Errorf("invalid region dimensions: width=%d, height=%d", v[2], v[3])
	}
	r := image.Rect(v[0], v[1], v[0]+v[2], v[1]+v[3])
	return &r, nil
}

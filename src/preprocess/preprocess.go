// Package preprocess prepares a captured region for OCR: grayscale, upscaling
// of small captures, light sharpening and optional binarization.
package preprocess

import (
	"fmt"
	"image"
	"log"

	"github.com/anthonynsimon/bild/segment"
	"github.com/disintegration/imaging"
)

// DefaultMinHeight is the height small captures are scaled up to. A single
// line of screen text is ~15px, well below what tesseract reads reliably.
const DefaultMinHeight = 120

const maxScale = 4

type Options struct {
	MinHeight int
	// Threshold binarizes at this luminance level; 0 keeps grayscale.
	Threshold uint8
}

// Apply reads src, processes it and writes a PNG to dst. src is left untouched.
func Apply(src, dst string, opts Options) error {
	img, err := imaging.Open(src)
	if err != nil {
		return fmt.Errorf("preprocess: open %s: %w", src, err)
	}
	out := Process(img, opts)
	if err := imaging.Save(out, dst); err != nil {
		return fmt.Errorf("preprocess: save %s: %w", dst, err)
	}
	log.Printf("preprocess: %v -> %v", img.Bounds().Size(), out.Bounds().Size())
	return nil
}

// Process returns the OCR-ready version of img.
func Process(img image.Image, opts Options) image.Image {
	minHeight := opts.MinHeight
	if minHeight <= 0 {
		minHeight = DefaultMinHeight
	}

	var out image.Image = imaging.Grayscale(img)

	b := out.Bounds()
	if h := b.Dy(); h > 0 && h < minHeight {
		scale := (minHeight + h - 1) / h
		if scale > maxScale {
			scale = maxScale
		}
		if scale > 1 {
			out = imaging.Resize(out, b.Dx()*scale, 0, imaging.Lanczos)
			out = imaging.Sharpen(out, 0.5)
		}
	}

	if opts.Threshold > 0 {
		out = segment.Threshold(out, opts.Threshold)
	}
	return out
}

package preprocess

import (
	"image"
	"image/color"
	"path/filepath"
	"testing"

	"github.com/disintegration/imaging"
)

func checker(w, h int) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			c := color.NRGBA{R: 200, G: 30, B: 30, A: 255}
			if (x/4+y/4)%2 == 0 {
				c = color.NRGBA{R: 250, G: 250, B: 250, A: 255}
			}
			img.Set(x, y, c)
		}
	}
	return img
}

func TestProcessUpscalesSmallCaptures(t *testing.T) {
	tests := []struct {
		name  string
		w, h  int
		wantW int
		wantH int
	}{
		{"SingleLine", 100, 20, 400, 80},
		{"Tiny", 10, 5, 40, 20},
		{"LargeEnough", 300, 200, 300, 200},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := Process(checker(tt.w, tt.h), Options{})
			if got := out.Bounds().Size(); got.X != tt.wantW || got.Y != tt.wantH {
				t.Errorf("size = %v, want %dx%d", got, tt.wantW, tt.wantH)
			}
		})
	}
}

func TestProcessGrayscale(t *testing.T) {
	out := Process(checker(200, 200), Options{})
	r, g, b, _ := out.At(5, 1).RGBA()
	if r != g || g != b {
		t.Errorf("pixel not gray: %d %d %d", r, g, b)
	}
}

func TestProcessThreshold(t *testing.T) {
	out := Process(checker(200, 200), Options{Threshold: 128})
	gray, ok := out.(*image.Gray)
	if !ok {
		t.Fatalf("thresholded image is %T, want *image.Gray", out)
	}
	for _, p := range gray.Pix {
		if p != 0 && p != 255 {
			t.Fatalf("non-binary pixel value %d", p)
		}
	}
}

func TestApply(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "src.png")
	dst := filepath.Join(dir, "dst.png")
	if err := imaging.Save(checker(60, 30), src); err != nil {
		t.Fatal(err)
	}
	if err := Apply(src, dst, Options{MinHeight: 90}); err != nil {
		t.Fatalf("Apply: %v", err)
	}
	out, err := imaging.Open(dst)
	if err != nil {
		t.Fatalf("open result: %v", err)
	}
	if got := out.Bounds().Size(); got.X != 180 || got.Y != 90 {
		t.Errorf("size = %v, want 180x90", got)
	}
	if err := Apply(filepath.Join(dir, "missing.png"), dst, Options{}); err == nil {
		t.Error("expected error for missing source")
	}
}

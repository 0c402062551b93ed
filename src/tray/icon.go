package tray

import (
	"bytes"
	"image/color"

	"github.com/disintegration/imaging"
)

const iconSize = 16

var (
	selectionBlue = color.NRGBA{R: 0x00, G: 0x78, B: 0xd4, A: 0xff}
	glyphGray     = color.NRGBA{R: 0x33, G: 0x33, B: 0x33, A: 0xff}
)

// Icon renders the tray icon: a dashed selection rectangle around a "T".
func Icon() []byte {
	img := imaging.New(iconSize, iconSize, color.NRGBA{})

	// Dashed selection frame.
	for i := 1; i < iconSize-1; i++ {
		if i%3 == 2 {
			continue
		}
		img.SetNRGBA(i, 1, selectionBlue)
		img.SetNRGBA(i, iconSize-2, selectionBlue)
		img.SetNRGBA(1, i, selectionBlue)
		img.SetNRGBA(iconSize-2, i, selectionBlue)
	}

	// Glyph.
	for x := 5; x <= 10; x++ {
		img.SetNRGBA(x, 5, glyphGray)
		img.SetNRGBA(x, 6, glyphGray)
	}
	for y := 7; y <= 11; y++ {
		img.SetNRGBA(7, y, glyphGray)
		img.SetNRGBA(8, y, glyphGray)
	}

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.PNG); err != nil {
		return nil
	}
	return buf.Bytes()
}

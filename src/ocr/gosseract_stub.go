//go:build !gosseract

package ocr

import "errors"

func newGosseract(Options) (Engine, error) {
	return nil, errors.New("gosseract engine not compiled in (build with -tags gosseract)")
}

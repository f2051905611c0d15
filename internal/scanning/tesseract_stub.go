//go:build !tesseract

package scanning

import (
	"context"
	"errors"
)

// ErrTesseractUnavailable is returned when the binary was built without the
// tesseract build tag
var ErrTesseractUnavailable = errors.New("tesseract scanner unavailable: rebuild with -tags tesseract")

// Tesseract is a placeholder for builds without libtesseract
type Tesseract struct{}

// NewTesseract always fails in builds without the tesseract tag
func NewTesseract(languages ...string) (*Tesseract, error) {
	return nil, ErrTesseractUnavailable
}

// ScanDocument always fails in builds without the tesseract tag
func (t *Tesseract) ScanDocument(ctx context.Context, imageData []byte, contentType string) (*Document, error) {
	return nil, ErrTesseractUnavailable
}

// Close is a no-op
func (t *Tesseract) Close() error {
	return nil
}

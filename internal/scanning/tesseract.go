//go:build tesseract

package scanning

import (
	"context"
	"fmt"
	"strings"

	"github.com/otiai10/gosseract/v2"
)

// Tesseract implements the Scanner interface using a local Tesseract install
type Tesseract struct {
	languages []string
}

// NewTesseract creates a new Tesseract Scanner instance
func NewTesseract(languages ...string) (*Tesseract, error) {
	if len(languages) == 0 {
		languages = []string{"fra", "eng"}
	}
	return &Tesseract{languages: languages}, nil
}

// ScanDocument runs Tesseract on the image. A client is created per call
// since gosseract clients are not safe for concurrent use.
func (t *Tesseract) ScanDocument(ctx context.Context, imageData []byte, contentType string) (*Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	client := gosseract.NewClient()
	defer client.Close()

	if err := client.SetLanguage(t.languages...); err != nil {
		return nil, fmt.Errorf("setting tesseract languages: %w", err)
	}
	if err := client.SetImageFromBytes(imageData); err != nil {
		return nil, fmt.Errorf("loading image into tesseract: %w", err)
	}

	text, err := client.Text()
	if err != nil {
		return nil, fmt.Errorf("running tesseract: %w", err)
	}
	if strings.TrimSpace(text) == "" {
		return nil, ErrNoPages
	}

	return singlePage("tesseract:"+strings.Join(t.languages, "+"), text), nil
}

// Close is a no-op, clients are closed after each scan
func (t *Tesseract) Close() error {
	return nil
}

package scanning

import (
	"context"
	"errors"
	"strings"
)

// ErrNoPages is returned when the OCR engine answers without any page
var ErrNoPages = errors.New("no pages in OCR response")

// Page is the text recognized on one page, formatted as markdown
type Page struct {
	Index    int    `json:"index"`
	Markdown string `json:"markdown"`
}

// Document is the OCR result for one uploaded image
type Document struct {
	Model string `json:"model"`
	Pages []Page `json:"pages"`
}

// Text returns the markdown of the first page, or "" when there is none
func (d *Document) Text() string {
	if d == nil || len(d.Pages) == 0 {
		return ""
	}
	return d.Pages[0].Markdown
}

// Scanner defines the interface for OCR backends
type Scanner interface {
	// ScanDocument recognizes the text on a receipt image
	ScanDocument(ctx context.Context, imageData []byte, contentType string) (*Document, error)
	// Close closes the scanner and releases resources
	Close() error
}

// singlePage wraps free text returned by engines without page structure
func singlePage(model, text string) *Document {
	return &Document{
		Model: model,
		Pages: []Page{{Index: 0, Markdown: strings.TrimSpace(text)}},
	}
}

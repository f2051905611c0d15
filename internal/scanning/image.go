package scanning

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	_ "image/jpeg" // Register JPEG decoder
	_ "image/png"  // Register PNG decoder
)

// Image MIME types accepted by every scanner
const (
	MimeJPEG = "image/jpeg"
	MimePNG  = "image/png"
)

// MaxImagePixels caps the declared width*height of an upload so a small
// compressed file cannot force a huge pixel buffer
const MaxImagePixels = 89_478_485

// ErrImageTooLarge is returned when an image declares more than MaxImagePixels
var ErrImageTooLarge = errors.New("image dimensions too large")

// ValidateImage decodes imageData and returns the MIME type of its real
// format. Anything that is not a readable JPEG or PNG is rejected, and the
// header is checked against MaxImagePixels before any pixels are decoded.
func ValidateImage(imageData []byte) (string, error) {
	if len(imageData) == 0 {
		return "", fmt.Errorf("empty image")
	}

	cfg, _, err := image.DecodeConfig(bytes.NewReader(imageData))
	if err != nil {
		return "", fmt.Errorf("decoding image header: %w", err)
	}
	if pixels := int64(cfg.Width) * int64(cfg.Height); pixels > MaxImagePixels {
		return "", fmt.Errorf("%w: %dx%d", ErrImageTooLarge, cfg.Width, cfg.Height)
	}

	_, format, err := image.Decode(bytes.NewReader(imageData))
	if err != nil {
		return "", fmt.Errorf("decoding image: %w", err)
	}

	switch format {
	case "jpeg":
		return MimeJPEG, nil
	case "png":
		return MimePNG, nil
	default:
		return "", fmt.Errorf("unsupported image format %q", format)
	}
}

// imageFormat returns the genai format suffix for a MIME type ("png" for
// image/png). Unknown types fall back to jpeg.
func imageFormat(contentType string) string {
	if contentType == MimePNG {
		return "png"
	}
	return "jpeg"
}

package receipt

import (
	"errors"
	"fmt"
	"net/http"
)

// Upload and processing errors
var (
	// ErrNoFile is returned when the form has no file field
	ErrNoFile = errors.New("no file uploaded")

	// ErrFileTooLarge is returned when the upload exceeds the size limit
	ErrFileTooLarge = errors.New("file too large")

	// ErrUnsupportedType is returned when the filename is not a JPEG or PNG
	ErrUnsupportedType = errors.New("unsupported file type")

	// ErrInvalidImage is returned when the bytes cannot be decoded as an image
	ErrInvalidImage = errors.New("invalid image")

	// ErrProcessing is returned when the OCR backend fails or returns nothing
	ErrProcessing = errors.New("processing failed")
)

// ScanError wraps errors with the scan step that failed
type ScanError struct {
	// Op is the step that failed (e.g., "validate", "ocr")
	Op string

	// Err is the underlying error
	Err error

	// Details provides additional context about the failure
	Details string
}

// Error implements the error interface.
func (e *ScanError) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("scan: %s failed: %s: %v", e.Op, e.Details, e.Err)
	}
	return fmt.Sprintf("scan: %s failed: %v", e.Op, e.Err)
}

// Unwrap returns the underlying error for error unwrapping.
func (e *ScanError) Unwrap() error {
	return e.Err
}

// Is implements error matching for Go 1.13+ error handling.
func (e *ScanError) Is(target error) bool {
	return errors.Is(e.Err, target)
}

// userError maps an error to the status code and message shown to the user.
// Unknown errors become a generic processing error.
func userError(err error, maxUploadBytes int64) (int, string) {
	switch {
	case errors.Is(err, ErrNoFile):
		return http.StatusBadRequest, "No file was selected. Please choose an image to upload."
	case errors.Is(err, ErrFileTooLarge):
		return http.StatusRequestEntityTooLarge, fmt.Sprintf("File size exceeds %s limit", formatSize(maxUploadBytes))
	case errors.Is(err, ErrUnsupportedType):
		return http.StatusBadRequest, "Only JPG/PNG images allowed"
	case errors.Is(err, ErrInvalidImage):
		return http.StatusBadRequest, "Invalid image file"
	case errors.Is(err, ErrProcessing):
		return http.StatusBadGateway, "Processing error. Please try again."
	default:
		return http.StatusInternalServerError, "Processing error. Please try again."
	}
}

// formatSize renders a byte count in whole megabytes, or kilobytes below 1MB
func formatSize(n int64) string {
	if n >= 1<<20 {
		return fmt.Sprintf("%dMB", n>>20)
	}
	return fmt.Sprintf("%dKB", n>>10)
}

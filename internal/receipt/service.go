package receipt

import (
	"context"
	"errors"
	"fmt"
	"mime"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/zombor/receipt-ocr/internal/extraction"
	"github.com/zombor/receipt-ocr/internal/logger"
	"github.com/zombor/receipt-ocr/internal/scanning"
)

// DefaultMaxUploadBytes is the upload size limit when none is configured
const DefaultMaxUploadBytes = 10 << 20

// IDGenerator generates unique IDs for scans
type IDGenerator interface {
	Generate() string
}

// TimeSource provides the current time
type TimeSource interface {
	Now() time.Time
}

// uuidGenerator generates random UUIDs
type uuidGenerator struct{}

func (g *uuidGenerator) Generate() string {
	return uuid.NewString()
}

// defaultTimeSource provides the current time
type defaultTimeSource struct{}

func (t *defaultTimeSource) Now() time.Time {
	return time.Now().UTC()
}

// Service runs uploads through validation, OCR and extraction
type Service struct {
	scanner        scanning.Scanner
	maxUploadBytes int64
	idGenerator    IDGenerator
	timeSource     TimeSource
}

// NewService creates a new Service with default ID generator and time source
func NewService(scanner scanning.Scanner, maxUploadBytes int64) *Service {
	return NewServiceWithDeps(scanner, maxUploadBytes, &uuidGenerator{}, &defaultTimeSource{})
}

// NewServiceWithDeps creates a new Service with custom dependencies for testing
func NewServiceWithDeps(scanner scanning.Scanner, maxUploadBytes int64, idGen IDGenerator, timeSrc TimeSource) *Service {
	if maxUploadBytes <= 0 {
		maxUploadBytes = DefaultMaxUploadBytes
	}
	return &Service{
		scanner:        scanner,
		maxUploadBytes: maxUploadBytes,
		idGenerator:    idGen,
		timeSource:     timeSrc,
	}
}

// MaxUploadBytes returns the upload size limit
func (s *Service) MaxUploadBytes() int64 {
	return s.maxUploadBytes
}

// mimeTypeFromFilename guesses the MIME type from the file extension
func mimeTypeFromFilename(filename string) string {
	ext := strings.ToLower(filepath.Ext(filename))
	if ext == "" {
		return ""
	}
	mediaType, _, err := mime.ParseMediaType(mime.TypeByExtension(ext))
	if err != nil {
		return ""
	}
	return mediaType
}

// Scan validates an uploaded image, sends it to the OCR backend and
// extracts the total, currency and line items from the recognized text.
func (s *Service) Scan(ctx context.Context, filename string, data []byte) (*Scan, error) {
	id := s.idGenerator.Generate()
	log := logger.WithRequestID(id)

	if int64(len(data)) > s.maxUploadBytes {
		return nil, &ScanError{
			Op:      "check size",
			Err:     ErrFileTooLarge,
			Details: fmt.Sprintf("%d bytes", len(data)),
		}
	}

	if guessed := mimeTypeFromFilename(filename); guessed != scanning.MimeJPEG && guessed != scanning.MimePNG {
		return nil, &ScanError{
			Op:      "check type",
			Err:     ErrUnsupportedType,
			Details: fmt.Sprintf("filename %q", filename),
		}
	}

	// The decoded format wins over the extension for what the backend sees
	mimeType, err := scanning.ValidateImage(data)
	if err != nil {
		return nil, &ScanError{
			Op:  "validate",
			Err: fmt.Errorf("%w: %w", ErrInvalidImage, err),
		}
	}

	start := s.timeSource.Now()
	doc, err := s.scanner.ScanDocument(ctx, data, mimeType)
	if err != nil {
		log.Error().
			Err(err).
			Str("filename", filename).
			Str("content_type", mimeType).
			Int("file_size", len(data)).
			Msg("Failed to scan receipt")
		return nil, &ScanError{
			Op:  "ocr",
			Err: fmt.Errorf("%w: %w", ErrProcessing, err),
		}
	}
	if doc == nil || len(doc.Pages) == 0 {
		return nil, &ScanError{
			Op:  "ocr",
			Err: fmt.Errorf("%w: %w", ErrProcessing, scanning.ErrNoPages),
		}
	}

	result := extraction.Extract(doc.Text())
	log.Info().
		Str("filename", filename).
		Str("model", doc.Model).
		Int("pages", len(doc.Pages)).
		Str("total", result.TotalAmount).
		Int("items", len(result.ExtractedData)).
		Dur("elapsed", s.timeSource.Now().Sub(start)).
		Msg("Scanned receipt")

	return &Scan{
		ID:        id,
		Filename:  filename,
		ScannedAt: start,
		Model:     doc.Model,
		Result:    result,
	}, nil
}

// IsUserError reports whether err was caused by the upload rather than the
// OCR backend
func IsUserError(err error) bool {
	return errors.Is(err, ErrNoFile) ||
		errors.Is(err, ErrFileTooLarge) ||
		errors.Is(err, ErrUnsupportedType) ||
		errors.Is(err, ErrInvalidImage)
}

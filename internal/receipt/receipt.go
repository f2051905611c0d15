package receipt

import (
	"time"

	"github.com/zombor/receipt-ocr/internal/extraction"
)

// Scan is the outcome of one processed receipt upload
type Scan struct {
	ID        string    `json:"id"`
	Filename  string    `json:"filename"`
	ScannedAt time.Time `json:"scanned_at"`
	Model     string    `json:"model,omitempty"`
	extraction.Result
}

// Package extraction recovers a total, a currency and line items from the
// markdown text an OCR engine returns for a receipt.
//
// All functions are pure: they hold no state between calls and are safe for
// concurrent use.
package extraction

// Result holds every value derived from one page of OCR text.
type Result struct {
	ExtractedText string `json:"extracted_text"`
	TotalAmount   string `json:"total_amount"`
	Currency      string `json:"currency"`
	ExtractedData []Item `json:"extracted_data"`
}

// Extract normalizes raw OCR markdown and runs the total, currency and item
// extractors on it. The extractors are independent: a failed total still
// yields the item list.
func Extract(raw string) Result {
	text := Normalize(raw)
	return Result{
		ExtractedText: text,
		TotalAmount:   ExtractTotal(text),
		Currency:      ExtractCurrency(text),
		ExtractedData: ExtractItems(text),
	}
}

package extraction

import (
	"regexp"
	"strings"
)

var (
	markdownLinkPattern  = regexp.MustCompile(`!?\[.*?\]\(.*?\)`)
	emphasisPattern      = regexp.MustCompile(`[*#]`)
	spacedCapitalPattern = regexp.MustCompile(`\b([A-Z])\s+([A-Z])\b`)
	spacedWordPattern    = regexp.MustCompile(`([\p{L}\p{N}_])\s+([\p{L}\p{N}_])`)
	spacedDecimalPattern = regexp.MustCompile(`(\d)\s+([.,])\s+(\d)`)
	spacedDigitPattern   = regexp.MustCompile(`(\d)\s+(\d)`)
)

// Normalize cleans raw OCR markdown so the extractors can match against it.
//
// Each step is one global substitution over the whole text. The de-spacing
// steps run once, so a run like "T O T A L" is only partially rejoined.
// Extraction patterns are written against that output, so it must stay a
// single pass.
func Normalize(raw string) string {
	text := markdownLinkPattern.ReplaceAllString(raw, "")
	text = emphasisPattern.ReplaceAllString(text, "")

	// "T N D" -> "TND"
	text = spacedCapitalPattern.ReplaceAllString(text, "${1}${2}")
	text = spacedWordPattern.ReplaceAllString(text, "${1}${2}")

	// "1 4 . 699" -> "14.699"
	text = spacedDecimalPattern.ReplaceAllString(text, "${1}${2}${3}")
	text = spacedDigitPattern.ReplaceAllString(text, "${1}${2}")

	text = strings.ReplaceAll(text, "<br>", "\n")
	return strings.TrimSpace(text)
}

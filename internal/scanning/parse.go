package scanning

import "strings"

// transcriptionPrompt is the shared prompt used by the LLM backends. The
// extraction pipeline reads markdown tables, so the model is asked for one.
const transcriptionPrompt = `You are an OCR engine reading a photo of a store receipt. Transcribe every piece of text you can see, top to bottom, exactly as printed.

Rules:
- Keep the original language, spelling, numbers and currency codes. Do not translate or correct anything.
- Write the purchased items as a markdown table with one row per line of the receipt, for example:
| Item | Qty | Price |
|------|-----|-------|
| Bread | 1 | 1.200 |
- Put weights such as "0.500 kg" in their own cell.
- Write the totals, taxes and payment lines as plain text lines after the table.
- Do not add explanations, summaries or code fences.`

// stripCodeFence removes a surrounding markdown code block the model may add
// despite the prompt
func stripCodeFence(text string) string {
	text = strings.TrimSpace(text)
	if !strings.HasPrefix(text, "```") {
		return text
	}

	// Drop the opening fence and its language tag
	if idx := strings.Index(text, "\n"); idx != -1 {
		text = text[idx+1:]
	} else {
		text = strings.TrimPrefix(text, "```")
	}
	text = strings.TrimSuffix(strings.TrimSpace(text), "```")
	return strings.TrimSpace(text)
}

package extraction

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
)

// Currency is an ISO 4217 code recognised on receipts.
type Currency string

const (
	TND Currency = "TND"
	USD Currency = "USD"
	EUR Currency = "EUR"

	DefaultCurrency = TND
)

// Sentinel totals returned instead of an error.
const (
	NotFound = "Not found"
	Failed   = "Error"
)

// totalRule is one label-anchored total pattern. A zero currencyGroup means
// the pattern carries no currency and DefaultCurrency applies.
type totalRule struct {
	name          string
	pattern       *regexp.Regexp
	amountGroup   int
	currencyGroup int
}

// totalRules are evaluated in order; every match of every rule becomes a
// candidate.
var totalRules = []totalRule{
	{
		name:          "total achats",
		pattern:       regexp.MustCompile(`(?i)(total\s*achats|t\s*0\s*t\s*a\s*l|total\s+général)\s*[\s:]*([\d\s.,]+)\s*(TND|USD|EUR)?`),
		amountGroup:   2,
		currencyGroup: 3,
	},
	{
		name:          "montant a payer",
		pattern:       regexp.MustCompile(`(?i)montant\s*à\s*payer\s*[\s:]*([\d\s.,]+)\s*(TND|USD|EUR)?`),
		amountGroup:   1,
		currencyGroup: 2,
	},
	{
		name:        "grouped digits",
		pattern:     regexp.MustCompile(`\b(\d{1,3}(?:[\s.,]\d{3})+(?:[\s.,]\d{2,3})?)\b`),
		amountGroup: 1,
	},
	{
		name:          "total",
		pattern:       regexp.MustCompile(`(?i)total\b[^0-9]*([\d\s.,]+)\s*(TND|USD|EUR)?`),
		amountGroup:   1,
		currencyGroup: 2,
	},
}

var (
	anyNumberPattern = regexp.MustCompile(`\d+[\s.,]?\d+`)
	currencyPattern  = regexp.MustCompile(`(?i)(USD|EUR|TND)`)
)

var minimumTotal = decimal.NewFromInt(1)

type candidate struct {
	value    decimal.Decimal
	currency Currency
}

func (c candidate) String() string {
	return fmt.Sprintf("%s %s", c.value.StringFixed(3), c.currency)
}

// ExtractTotal finds the most likely total in normalized receipt text and
// formats it as "<value with 3 decimals> <currency>". It returns NotFound
// when the text holds no number and Failed when extraction faults; it never
// panics.
func ExtractTotal(text string) (total string) {
	defer func() {
		if r := recover(); r != nil {
			log.Error().Interface("panic", r).Msg("Total extraction panicked")
			total = Failed
		}
	}()

	total, err := extractTotal(text)
	if err != nil {
		log.Error().Err(err).Msg("Extraction error")
		return Failed
	}
	return total
}

func extractTotal(text string) (string, error) {
	var best *candidate
	for _, c := range collectCandidates(text) {
		if !c.value.GreaterThan(minimumTotal) {
			continue
		}
		if best == nil || c.value.GreaterThan(best.value) {
			best = &c
		}
	}
	if best != nil {
		return best.String(), nil
	}

	numbers := anyNumberPattern.FindAllString(text, -1)
	if len(numbers) == 0 {
		return NotFound, nil
	}

	var largest decimal.Decimal
	for i, n := range numbers {
		value, err := parseAmount(strings.ReplaceAll(strings.ReplaceAll(n, " ", ""), ",", "."))
		if err != nil {
			return "", fmt.Errorf("converting %q: %w", n, err)
		}
		if i == 0 || value.GreaterThan(largest) {
			largest = value
		}
	}
	return candidate{value: largest, currency: Currency(ExtractCurrency(text))}.String(), nil
}

// collectCandidates applies every rule in order and returns every amount that
// parses, in match order.
func collectCandidates(text string) []candidate {
	var candidates []candidate
	for _, rule := range totalRules {
		for _, match := range rule.pattern.FindAllStringSubmatch(text, -1) {
			value, err := parseAmount(cleanAmount(match[rule.amountGroup]))
			if err != nil {
				continue
			}

			currency := DefaultCurrency
			if rule.currencyGroup > 0 && match[rule.currencyGroup] != "" {
				currency = Currency(strings.ToUpper(match[rule.currencyGroup]))
			}
			log.Debug().
				Str("rule", rule.name).
				Str("amount", value.String()).
				Str("currency", string(currency)).
				Msg("Total candidate")
			candidates = append(candidates, candidate{value: value, currency: currency})
		}
	}
	return candidates
}

// cleanAmount turns an OCR amount into a parseable decimal string. "1.234.56"
// becomes "1234.56": with several dots and a trailing group of 2 or 3 digits
// the first dot is a thousands separator.
func cleanAmount(amount string) string {
	amount = strings.ReplaceAll(amount, " ", "")
	amount = strings.ReplaceAll(amount, ",", ".")
	if strings.Count(amount, ".") > 1 {
		last := amount[strings.LastIndex(amount, ".")+1:]
		if len(last) == 2 || len(last) == 3 {
			amount = strings.Replace(amount, ".", "", 1)
		}
	}
	return amount
}

var errEmptyAmount = errors.New("empty amount")

func parseAmount(amount string) (decimal.Decimal, error) {
	amount = strings.TrimSpace(amount)
	if amount == "" {
		return decimal.Zero, errEmptyAmount
	}
	return decimal.NewFromString(amount)
}

// ExtractCurrency returns the first currency code mentioned in text, or
// DefaultCurrency.
func ExtractCurrency(text string) string {
	if match := currencyPattern.FindString(text); match != "" {
		return strings.ToUpper(match)
	}
	return string(DefaultCurrency)
}

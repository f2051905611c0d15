package extraction

import (
	"fmt"
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/shopspring/decimal"
)

// Item is one purchased line recovered from a receipt table.
type Item struct {
	Name  string `json:"name"`
	Price string `json:"price"`
}

// Rows mentioning any of these are summary or footer rows.
var stopWords = []string{"order", "total", "grandtotal", "salestax", "credit", "page"}

var (
	separatorCellPattern = regexp.MustCompile(`^:?-+:?$`)
	weightPrefixPattern  = regexp.MustCompile(`(?i)^\d+\.\d+\s*kg`)
	weightPattern        = regexp.MustCompile(`(?i)\d+\.\d+\s*kg`)
	weightOnlyPattern    = regexp.MustCompile(`(?i)^\d+\.\d+\s*kg$`)
	nonPricePattern      = regexp.MustCompile(`[^0-9.]`)
)

// ExtractItems parses the markdown table rows of normalized receipt text into
// items, folding weight annotation rows into the item above them.
func ExtractItems(text string) []Item {
	var refined []refinedRow
	for _, cells := range parseTableRows(text) {
		if row, ok := refineRow(cells); ok {
			refined = append(refined, row)
		}
	}
	return mergeQuantities(refined)
}

// refinedRow is a table row reduced to a name and price. Annotations are
// weight-only rows with no price of their own.
type refinedRow struct {
	Item
	annotation bool
}

// parseTableRows returns the trimmed cells of every pipe-delimited line that
// is neither a separator row nor a summary row.
func parseTableRows(text string) [][]string {
	var rows [][]string
	lines := strings.FieldsFunc(text, func(r rune) bool { return r == '\n' || r == '\r' })
	for _, line := range lines {
		line = strings.TrimSpace(line)
		if !strings.HasPrefix(line, "|") || !strings.HasSuffix(line, "|") {
			continue
		}
		if isSummaryRow(line) {
			continue
		}

		cells := strings.Split(strings.Trim(line, "|"), "|")
		for i := range cells {
			cells[i] = strings.TrimSpace(cells[i])
		}
		if isSeparatorRow(cells) {
			continue
		}
		rows = append(rows, cells)
	}
	return rows
}

func isSummaryRow(line string) bool {
	lower := strings.ToLower(line)
	for _, word := range stopWords {
		if strings.Contains(lower, word) {
			return true
		}
	}
	return false
}

func isSeparatorRow(cells []string) bool {
	for _, cell := range cells {
		if !separatorCellPattern.MatchString(cell) {
			return false
		}
	}
	return true
}

// refineRow picks the name and price cells of a table row. A row whose only
// cell is a weight ("0.500 kg") is kept as an annotation for mergeQuantities.
func refineRow(cells []string) (refinedRow, bool) {
	var name, price string
	switch {
	case len(cells) == 1:
		if weightOnlyPattern.MatchString(cells[0]) {
			return refinedRow{Item: Item{Name: cells[0]}, annotation: true}, true
		}
		return refinedRow{}, false
	case len(cells) == 2:
		name, price = cells[0], cells[1]
	case weightPrefixPattern.MatchString(cells[0]):
		return refinedRow{Item: Item{Name: cells[0], Price: cells[1]}}, true
	case isRowIndex(cells[0]):
		name, price = cells[1], cells[2]
	default:
		name, price = cells[0], cells[2]
	}

	name = strings.TrimSpace(strings.ReplaceAll(name, "$x$", ""))
	price = nonPricePattern.ReplaceAllString(price, "")
	if name == "" || !isPositivePrice(price) {
		return refinedRow{}, false
	}
	return refinedRow{Item: Item{Name: name, Price: price}}, true
}

// isRowIndex reports whether a first cell looks like a line number column.
func isRowIndex(cell string) bool {
	cell = strings.TrimSpace(cell)
	if utf8.RuneCountInString(cell) < 3 {
		return true
	}
	for _, r := range cell {
		if !unicode.IsDigit(r) {
			return false
		}
	}
	return true
}

func isPositivePrice(price string) bool {
	value, err := decimal.NewFromString(price)
	if err != nil {
		return false
	}
	return value.IsPositive()
}

// mergeQuantities is a look-ahead-by-one reduction: when the next row's name
// carries a weight, the weight is appended to the current name and the next
// row is consumed. Annotations that no item consumed are dropped.
func mergeQuantities(rows []refinedRow) []Item {
	items := make([]Item, 0, len(rows))
	consumed := false
	for i, row := range rows {
		if consumed {
			consumed = false
			continue
		}
		if row.annotation {
			continue
		}

		current := row.Item
		if i+1 < len(rows) {
			if weight := weightPattern.FindString(rows[i+1].Name); weight != "" {
				current.Name = fmt.Sprintf("%s (%s)", current.Name, strings.TrimSpace(weight))
				consumed = true
			}
		}
		items = append(items, current)
	}
	return items
}

// Package receipt extracts expense data from OCR'd receipt text.
package receipt

import (
	"errors"
	"regexp"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// ErrNoTotal is returned when no total amount can be found in the text.
var ErrNoTotal = errors.New("no total amount found in receipt text")

// Receipt is the expense data extracted from one receipt.
type Receipt struct {
	// Merchant is the first non-empty line of the receipt.
	Merchant string

	// Total is the receipt's total amount, always positive.
	Total decimal.Decimal

	// Date is the purchase date, nil when none could be parsed.
	Date *time.Time
}

// Total amount patterns, tried in order. Labeled totals win over the
// trailing-amount fallback, the grand total label is checked before the
// bare one, and the word boundary keeps "SUBTOTAL" from matching.
var totalPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)\bGRAND TOTAL\s*\$?\s*(\d+\.\d{2})`),
	regexp.MustCompile(`(?i)\bTOTAL\s*\$?\s*(\d+\.\d{2})`),
	regexp.MustCompile(`(?i)\bAMOUNT\s*\$?\s*(\d+\.\d{2})`),
	regexp.MustCompile(`(?m)\$?\s*(\d+\.\d{2})\s*$`),
}

var datePatterns = []*regexp.Regexp{
	regexp.MustCompile(`\d{1,2}[/.-]\d{1,2}[/.-]\d{2,4}`),
	regexp.MustCompile(`\d{4}[/.-]\d{1,2}[/.-]\d{1,2}`),
}

// Date layouts tried in order; receipts in the wild use all of these.
var dateLayouts = []string{
	"01/02/2006",
	"1/2/2006",
	"01/02/06",
	"1/2/06",
	"2006/01/02",
	"01-02-2006",
	"1-2-2006",
	"2006-01-02",
}

// ParseText parses OCR output into a Receipt. The text is messy by
// nature, so everything except the total is best-effort.
func ParseText(text string) (*Receipt, error) {
	if strings.TrimSpace(text) == "" {
		return nil, ErrNoTotal
	}

	rec := &Receipt{}

	total, ok := findTotal(text)
	if !ok {
		return nil, ErrNoTotal
	}
	rec.Total = total

	if d, ok := findDate(text); ok {
		rec.Date = &d
	}

	for _, line := range strings.Split(text, "\n") {
		if trimmed := strings.TrimSpace(line); trimmed != "" {
			rec.Merchant = trimmed
			break
		}
	}

	return rec, nil
}

func findTotal(text string) (decimal.Decimal, bool) {
	for _, re := range totalPatterns {
		m := re.FindStringSubmatch(text)
		if m == nil {
			continue
		}
		total, err := decimal.NewFromString(m[1])
		if err != nil {
			continue
		}
		return total, true
	}
	return decimal.Decimal{}, false
}

func findDate(text string) (time.Time, bool) {
	for _, re := range datePatterns {
		token := re.FindString(text)
		if token == "" {
			continue
		}
		for _, layout := range dateLayouts {
			if d, err := time.Parse(layout, token); err == nil {
				return d, true
			}
		}
	}
	return time.Time{}, false
}

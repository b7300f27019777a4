package statement

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// NormalizeAmount converts a monetary token from a statement line into a
// signed decimal. It strips the currency symbol and thousands separators and
// accepts both negative spellings seen in the wild: a leading minus
// ("-$12.34") and a minus embedded after the symbol ("$-12.34"). Both
// resolve to the same negative value.
func NormalizeAmount(token string) (decimal.Decimal, error) {
	s := strings.TrimSpace(token)
	if s == "" {
		return decimal.Zero, fmt.Errorf("NormalizeAmount: empty token")
	}

	negative := false
	if strings.Contains(s, "-") {
		negative = true
		s = strings.ReplaceAll(s, "-", "")
	}

	s = strings.ReplaceAll(s, "$", "")
	s = strings.ReplaceAll(s, ",", "")

	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, fmt.Errorf("NormalizeAmount: parsing %q: %w", token, err)
	}

	if negative {
		d = d.Neg()
	}
	return d, nil
}

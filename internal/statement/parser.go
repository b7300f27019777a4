package statement

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/dvloznov/expense-tracker/internal/domain"
)

// ErrNoMatch reports that a line is not a transaction row. This is the
// expected outcome for most lines of a statement (headers, footers, totals,
// marketing text), not a failure.
var ErrNoMatch = errors.New("statement: line is not a transaction row")

const dateLayout = "01/02/2006"

var (
	dateRe = regexp.MustCompile(`\d{2}/\d{2}/\d{4}`)

	// Optional minus, optional currency symbol (with either minus spelling),
	// digits with optional thousands separators, exactly two decimals.
	amountRe = regexp.MustCompile(`-?\$?-?\d[\d,]*\.\d{2}`)

	headerTokens = map[string]bool{
		"Date":        true,
		"Description": true,
		"Amount":      true,
	}
)

// Candidate is a provisionally parsed transaction extracted from one line.
// Amount holds the absolute value of the trailing monetary token; the final
// sign is decided later from Section (see domain.NewTransaction).
type Candidate struct {
	Date        time.Time
	Description string
	Amount      decimal.Decimal
	Section     Section
}

// Kind maps the candidate's section onto a transaction kind. Lines under
// the payments section are credits; everything else is a purchase.
func (c Candidate) Kind() domain.Kind {
	if c.Section == SectionPayments {
		return domain.KindPayment
	}
	return domain.KindPurchase
}

// ParseLine attempts to extract a transaction candidate from one statement
// line. It returns ErrNoMatch for lines that are not transaction rows
// (blank lines, column headers, lines without a date or amount token, noise
// entries). Any other error means the line looked like a transaction but
// its amount token could not be normalized.
func ParseLine(line string, section Section) (Candidate, error) {
	if isHeaderLine(line) {
		return Candidate{}, ErrNoMatch
	}

	dateToken := dateRe.FindString(line)
	if dateToken == "" {
		return Candidate{}, ErrNoMatch
	}
	date, err := time.Parse(dateLayout, dateToken)
	if err != nil {
		// Matched the shape but not a real calendar date (e.g. 13/45/2023).
		return Candidate{}, ErrNoMatch
	}

	amountTokens := amountRe.FindAllString(line, -1)
	if len(amountTokens) == 0 {
		return Candidate{}, ErrNoMatch
	}

	// Some statement rows embed a percentage-based cashback amount before
	// the real one; the trailing token is the actual transaction amount.
	amount, err := NormalizeAmount(amountTokens[len(amountTokens)-1])
	if err != nil {
		return Candidate{}, fmt.Errorf("ParseLine: %w", err)
	}

	desc := CleanDescription(line, dateToken, amountTokens)
	if desc == "" {
		return Candidate{}, ErrNoMatch
	}

	// Cashback redemption entries are statement artifacts, never expenses.
	if strings.Contains(desc, "Daily Cash redemption") {
		return Candidate{}, ErrNoMatch
	}

	return Candidate{
		Date:        date,
		Description: desc,
		Amount:      amount.Abs(),
		Section:     section,
	}, nil
}

// isHeaderLine reports whether a line is blank or consists solely of the
// column-header words "Date", "Description" and "Amount".
func isHeaderLine(line string) bool {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return true
	}
	for _, f := range fields {
		if !headerTokens[f] {
			return false
		}
	}
	return true
}

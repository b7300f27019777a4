package statement

import "strings"

// Section identifies the logical grouping a statement line belongs to.
// Card statements split their activity into a "Payments" block and a
// "Transactions" block; the block decides the transaction kind.
type Section int

const (
	SectionUnknown Section = iota
	SectionPayments
	SectionTransactions
)

func (s Section) String() string {
	switch s {
	case SectionPayments:
		return "payments"
	case SectionTransactions:
		return "transactions"
	default:
		return "unknown"
	}
}

// SectionClassifier tracks which section subsequent lines belong to while
// scanning a document top to bottom. The state lives on the instance, so a
// fresh classifier must be created per document scan.
type SectionClassifier struct {
	current Section
}

// NewSectionClassifier returns a classifier starting in SectionUnknown.
func NewSectionClassifier() *SectionClassifier {
	return &SectionClassifier{current: SectionUnknown}
}

// Classify inspects one line. If the line is a section header ("Payments" or
// "Transactions") the classifier transitions and reports consumed=true: the
// header itself is not a transaction row. Any other line is passed through
// with the current section attached. Single pass, no lookahead.
func (c *SectionClassifier) Classify(line string) (section Section, consumed bool) {
	if strings.Contains(line, "Payments") {
		c.current = SectionPayments
		return c.current, true
	}
	if strings.Contains(line, "Transactions") {
		c.current = SectionTransactions
		return c.current, true
	}
	return c.current, false
}

// Current returns the section the classifier is in without consuming input.
func (c *SectionClassifier) Current() Section {
	return c.current
}

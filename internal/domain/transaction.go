package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Kind classifies a statement line by the section it was found under.
type Kind string

const (
	// KindPurchase is a regular expense; its amount stays positive.
	KindPurchase Kind = "purchase"

	// KindPayment is a credit against the account (e.g. "PAYMENT THANK YOU");
	// its amount is negated so it reduces the ledger total.
	KindPayment Kind = "payment"
)

// Transaction is one normalized statement line ready for categorization.
// Amount is always signed; the sign is derived from Kind, never from the
// sign spelled in the source line.
type Transaction struct {
	Date        time.Time
	Description string
	Amount      decimal.Decimal
	Kind        Kind
}

// NewTransaction builds a Transaction from an unsigned amount and a kind.
// This is the single place where polarity is decided: payments become
// negative, everything else stays positive. The sign embedded in the source
// line is deliberately ignored (statement formats are inconsistent about it).
func NewTransaction(date time.Time, description string, amount decimal.Decimal, kind Kind) Transaction {
	signed := amount.Abs()
	if kind == KindPayment {
		signed = signed.Neg()
	}
	return Transaction{
		Date:        date,
		Description: description,
		Amount:      signed,
		Kind:        kind,
	}
}

// CategorizedTransaction is a Transaction with its resolved category.
type CategorizedTransaction struct {
	Transaction
	CategoryID string
}

// Category is a user-owned spending category. The ingestion pipeline reads
// categories and creates the fallback one lazily; it never mutates keywords.
type Category struct {
	ID     string
	UserID string
	Name   string
	Budget decimal.Decimal
}

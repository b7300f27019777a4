package statement

import "testing"

func TestSectionClassifier(t *testing.T) {
	c := NewSectionClassifier()

	if c.Current() != SectionUnknown {
		t.Fatalf("initial section = %v, want %v", c.Current(), SectionUnknown)
	}

	// Header lines transition state and are consumed.
	section, consumed := c.Classify("Payments")
	if !consumed || section != SectionPayments {
		t.Errorf("Classify(Payments) = (%v, %v), want (Payments, true)", section, consumed)
	}

	// Subsequent lines inherit the current section.
	section, consumed = c.Classify("07/01/2023 PAYMENT THANK YOU $125.00")
	if consumed || section != SectionPayments {
		t.Errorf("data line = (%v, %v), want (Payments, false)", section, consumed)
	}

	section, consumed = c.Classify("Transactions")
	if !consumed || section != SectionTransactions {
		t.Errorf("Classify(Transactions) = (%v, %v), want (Transactions, true)", section, consumed)
	}

	section, consumed = c.Classify("04/12/2023 STARBUCKS #1234 $6.75")
	if consumed || section != SectionTransactions {
		t.Errorf("data line = (%v, %v), want (Transactions, false)", section, consumed)
	}
}

// Section state persists across page boundaries: the classifier only
// changes state when it sees another header.
func TestSectionClassifierStatePersists(t *testing.T) {
	c := NewSectionClassifier()
	c.Classify("Transactions")

	for _, line := range []string{"footer", "", "page 2 of 3", "04/12/2023 COFFEE $3.00"} {
		section, consumed := c.Classify(line)
		if consumed {
			t.Errorf("Classify(%q) consumed a non-header line", line)
		}
		if section != SectionTransactions {
			t.Errorf("Classify(%q) section = %v, want Transactions", line, section)
		}
	}
}

func TestSectionClassifierEmbeddedMarker(t *testing.T) {
	c := NewSectionClassifier()

	// Markers are recognized anywhere in the line, matching the statement
	// formats where headers carry decoration around the word.
	section, consumed := c.Classify("  Payments and Credits  ")
	if !consumed || section != SectionPayments {
		t.Errorf("embedded marker = (%v, %v), want (Payments, true)", section, consumed)
	}
}

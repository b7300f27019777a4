package receipt

import (
	"errors"
	"testing"
)

func TestParseTextLabeledTotal(t *testing.T) {
	text := `WHOLE FOODS MARKET
123 Main St

BANANAS        1.99
MILK           4.50
SUBTOTAL       6.49
TAX            0.52
TOTAL $7.01

07/15/2023
Thank you!`

	rec, err := ParseText(text)
	if err != nil {
		t.Fatalf("ParseText failed: %v", err)
	}

	if rec.Merchant != "WHOLE FOODS MARKET" {
		t.Errorf("merchant = %q, want WHOLE FOODS MARKET", rec.Merchant)
	}
	if rec.Total.String() != "7.01" {
		t.Errorf("total = %s, want 7.01", rec.Total)
	}
	if rec.Date == nil {
		t.Fatal("no date parsed")
	}
	if got := rec.Date.Format("2006-01-02"); got != "2023-07-15" {
		t.Errorf("date = %s, want 2023-07-15", got)
	}
}

func TestParseTextGrandTotalWinsOverTotal(t *testing.T) {
	text := `SOME STORE
TOTAL 10.00
GRAND TOTAL 25.00`

	rec, err := ParseText(text)
	if err != nil {
		t.Fatalf("ParseText failed: %v", err)
	}
	if rec.Total.String() != "25" {
		t.Errorf("total = %s, want 25", rec.Total)
	}
}

func TestParseTextTrailingAmountFallback(t *testing.T) {
	text := `CORNER DELI
sandwich and soda
$12.34`

	rec, err := ParseText(text)
	if err != nil {
		t.Fatalf("ParseText failed: %v", err)
	}
	if rec.Total.String() != "12.34" {
		t.Errorf("total = %s, want 12.34", rec.Total)
	}
	if rec.Date != nil {
		t.Errorf("date = %v, want nil", rec.Date)
	}
}

func TestParseTextDateFormats(t *testing.T) {
	tests := []struct {
		token string
		want  string
	}{
		{token: "07/15/2023", want: "2023-07-15"},
		{token: "7/5/2023", want: "2023-07-05"},
		{token: "07-15-2023", want: "2023-07-15"},
		{token: "2023-07-15", want: "2023-07-15"},
	}

	for _, tt := range tests {
		t.Run(tt.token, func(t *testing.T) {
			rec, err := ParseText("STORE\nTOTAL 5.00\n" + tt.token)
			if err != nil {
				t.Fatalf("ParseText failed: %v", err)
			}
			if rec.Date == nil {
				t.Fatal("no date parsed")
			}
			if got := rec.Date.Format("2006-01-02"); got != tt.want {
				t.Errorf("date = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestParseTextNoTotal(t *testing.T) {
	for _, text := range []string{"", "   \n  ", "STORE NAME\nno amounts here"} {
		if _, err := ParseText(text); !errors.Is(err, ErrNoTotal) {
			t.Errorf("ParseText(%q) error = %v, want ErrNoTotal", text, err)
		}
	}
}

package statement

import "testing"

func TestNormalizeAmount(t *testing.T) {
	tests := []struct {
		token   string
		want    string
		wantErr bool
	}{
		{token: "$12.34", want: "12.34"},
		{token: "-$12.34", want: "-12.34"},
		{token: "$-12.34", want: "-12.34"},
		{token: "12.34", want: "12.34"},
		{token: "$1,299.00", want: "1299.00"},
		{token: "-$1,299.00", want: "-1299.00"},
		{token: "$0.00", want: "0.00"},
		{token: "  $5.50 ", want: "5.50"},
		{token: "", wantErr: true},
		{token: "$", wantErr: true},
		{token: "$12.34.56", wantErr: true},
		{token: "abc", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.token, func(t *testing.T) {
			got, err := NormalizeAmount(tt.token)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("NormalizeAmount(%q) = %s, want error", tt.token, got)
				}
				return
			}
			if err != nil {
				t.Fatalf("NormalizeAmount(%q) unexpected error: %v", tt.token, err)
			}
			if got.StringFixed(2) != tt.want {
				t.Errorf("NormalizeAmount(%q) = %s, want %s", tt.token, got.StringFixed(2), tt.want)
			}
		})
	}
}

// Both negative spellings must resolve to the same signed value.
func TestNormalizeAmountNegativeSpellings(t *testing.T) {
	leading, err := NormalizeAmount("-$12.34")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	embedded, err := NormalizeAmount("$-12.34")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !leading.Equal(embedded) {
		t.Errorf("-$12.34 normalized to %s but $-12.34 to %s", leading, embedded)
	}
	if leading.StringFixed(2) != "-12.34" {
		t.Errorf("normalized value = %s, want -12.34", leading.StringFixed(2))
	}
}

package statement

import "testing"

func TestCleanDescription(t *testing.T) {
	tests := []struct {
		name   string
		line   string
		date   string
		tokens []string
		want   string
	}{
		{
			name:   "strips date amount and percentage",
			line:   "04/12/2023 STARBUCKS #1234 2% $0.13 $6.75",
			date:   "04/12/2023",
			tokens: []string{"$0.13", "$6.75"},
			want:   "STARBUCKS #1234",
		},
		{
			name:   "collapses whitespace runs",
			line:   "04/12/2023   COFFEE    SHOP   $3.00",
			date:   "04/12/2023",
			tokens: []string{"$3.00"},
			want:   "COFFEE SHOP",
		},
		{
			name:   "strips repeated date token",
			line:   "04/12/2023 04/12/2023 STARBUCKS #1234 $6.75",
			date:   "04/12/2023",
			tokens: []string{"$6.75"},
			want:   "STARBUCKS #1234",
		},
		{
			name:   "empty when nothing remains",
			line:   "04/12/2023 $6.75",
			date:   "04/12/2023",
			tokens: []string{"$6.75"},
			want:   "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CleanDescription(tt.line, tt.date, tt.tokens); got != tt.want {
				t.Errorf("CleanDescription = %q, want %q", got, tt.want)
			}
		})
	}
}

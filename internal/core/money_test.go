package core

import "testing"

func TestParseSignedDecimalToCents(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    int64
		wantErr bool
	}{
		{"plain dot", "12.34", 1234, false},
		{"plain comma", "12,34", 1234, false},
		{"integer only", "12", 1200, false},
		{"negative", "-12.34", -1234, false},
		{"explicit plus", "+0.50", 50, false},
		{"leading dot", ".50", 50, false},
		{"single fractional digit", "3.5", 350, false},
		{"third digit rounds down", "12.344", 1234, false},
		{"third digit rounds up", "12.346", 1235, false},
		{"negative rounds away from zero", "-12.346", -1235, false},
		{"whitespace trimmed", "  7.00 ", 700, false},
		{"empty", "", 0, true},
		{"sign only", "-", 0, true},
		{"zero", "0", 0, true},
		{"zero decimal", "0.00", 0, true},
		{"letters", "abc", 0, true},
		{"mixed digits", "12a.34", 0, true},
		{"two separators", "1.2.3", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseSignedDecimalToCents(tt.input)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseSignedDecimalToCents(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("ParseSignedDecimalToCents(%q) = %d, want %d", tt.input, got, tt.want)
			}
		})
	}
}

func TestMoneyString(t *testing.T) {
	tests := []struct {
		cents int64
		want  string
	}{
		{1234, "12.34"},
		{-1234, "-12.34"},
		{5, "0.05"},
		{0, "0.00"},
		{-50, "-0.50"},
	}

	for _, tt := range tests {
		if got := (Money{Cents: tt.cents}).String(); got != tt.want {
			t.Errorf("Money{%d}.String() = %q, want %q", tt.cents, got, tt.want)
		}
	}
}

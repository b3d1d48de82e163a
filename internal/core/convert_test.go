package core

import "testing"

func TestCleanCell(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"plain", "S100", "S100"},
		{"surrounding whitespace", "  S100\t", "S100"},
		{"excel text formula", `="00123"`, "00123"},
		{"excel formula with padding", ` =" S100 " `, "S100"},
		{"bare equals kept", "=", "="},
		{"empty", "", ""},
		{"whitespace only", "   ", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CleanCell(tt.input); got != tt.want {
				t.Errorf("CleanCell(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestToNumber(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  float64
	}{
		{"integer", "15", 15},
		{"decimal", "3.8", 3.8},
		{"padded", " 3.80 ", 3.8},
		{"negative", "-1.5", -1.5},
		{"exponent", "1e2", 100},
		{"excel formula", `="4"`, 4},
		{"empty", "", 0},
		{"text", "n/a", 0},
		{"nan", "NaN", 0},
		{"infinity", "Inf", 0},
		{"thousands separator", "1,000", 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ToNumber(tt.input); got != tt.want {
				t.Errorf("ToNumber(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestToSemesterNumber(t *testing.T) {
	tests := []struct {
		input string
		want  int
	}{
		{"3", 3},
		{"3.0", 3},
		{"3.9", 3},
		{"0.5", 0},
		{"-2", -2},
		{"", 0},
		{"third", 0},
		{"1e12", 0},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if got := ToSemesterNumber(tt.input); got != tt.want {
				t.Errorf("ToSemesterNumber(%q) = %d, want %d", tt.input, got, tt.want)
			}
		})
	}
}

func TestFormatNumber(t *testing.T) {
	tests := []struct {
		input float64
		want  string
	}{
		{3.8, "3.8"},
		{15, "15"},
		{0, "0"},
		{-0.25, "-0.25"},
	}

	for _, tt := range tests {
		if got := FormatNumber(tt.input); got != tt.want {
			t.Errorf("FormatNumber(%v) = %q, want %q", tt.input, got, tt.want)
		}
	}
}

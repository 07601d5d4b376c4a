package normalize

import (
	"testing"
)

func TestCoerceFloat(t *testing.T) {
	tests := []struct {
		name  string
		input string
		nf    NumberFormat
		want  float64
	}{
		{"plain", "120.5", NumberFormat{}, 120.5},
		{"padded", "  42 ", NumberFormat{}, 42},
		{"empty", "", NumberFormat{}, 0},
		{"text", "n/a", NumberFormat{}, 0},
		{"nan literal", "NaN", NumberFormat{}, 0},
		{"negative", "-3", NumberFormat{}, 0},
		{"decimal comma", "1.234,5", NumberFormat{DecimalComma: true}, 1234.5},
		{"comma without option", "1,5", NumberFormat{}, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CoerceFloat(tt.input, tt.nf, 0); got != tt.want {
				t.Errorf("CoerceFloat(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestParseInt(t *testing.T) {
	tests := []struct {
		input  string
		want   int
		wantOK bool
	}{
		{"10", 10, true},
		{"12.0", 12, true},
		{"12.9", 12, true},
		{"", 0, false},
		{"12A", 0, false},
		{"1e20", 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, ok := ParseInt(tt.input, NumberFormat{})
			if got != tt.want || ok != tt.wantOK {
				t.Errorf("ParseInt(%q) = (%d, %v), want (%d, %v)", tt.input, got, ok, tt.want, tt.wantOK)
			}
		})
	}
}

func TestCleanText(t *testing.T) {
	tests := map[string]string{
		"  apto 12 ": "APTO 12",
		"nan":        "",
		"None":       "",
		"":           "",
		"bloco b":    "BLOCO B",
	}
	for input, want := range tests {
		if got := CleanText(input); got != want {
			t.Errorf("CleanText(%q) = %q, want %q", input, got, want)
		}
	}
}

func TestFormatAddress(t *testing.T) {
	tests := []struct {
		street     string
		number     int
		complement string
		want       string
	}{
		{"RUA A", 10, "", "RUA A, 10"},
		{"RUA A", 10, "APTO 5", "RUA A, 10 APTO 5"},
		{"rua b", 0, "fundos", "RUA B, 0 FUNDOS"},
	}
	for _, tt := range tests {
		if got := FormatAddress(tt.street, tt.number, tt.complement); got != tt.want {
			t.Errorf("FormatAddress(%q, %d, %q) = %q, want %q", tt.street, tt.number, tt.complement, got, tt.want)
		}
	}
}

func TestParseDate(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"iso", "2023-07-14", "2023-07-14"},
		{"iso with time", "2023-07-14 00:00:00", "2023-07-14"},
		{"brazilian", "14/07/2023", "2023-07-14"},
		{"brazilian short day", "4/7/2023", "2023-07-04"},
		{"excel serial", "45121", "2023-07-14"},
		{"garbage", "ontem", ""},
		{"empty", "", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ParseDate(tt.input); got != tt.want {
				t.Errorf("ParseDate(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestDisplayDate(t *testing.T) {
	if got := DisplayDate("2023-07-14"); got != "14/07/2023" {
		t.Errorf("DisplayDate = %q", got)
	}
	if got := DisplayDate(""); got != "" {
		t.Errorf("DisplayDate(empty) = %q", got)
	}
}

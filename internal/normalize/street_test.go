package normalize

import (
	"testing"
)

func TestFoldAccents(t *testing.T) {
	if got := FoldAccents("PRAÇA DA SÉ"); got != "PRACA DA SE" {
		t.Errorf("FoldAccents = %q", got)
	}
}

func TestCanonicalStreet(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"  r. Augusta ", "R AUGUSTA"},
		{"Av. Brig. Faria Lima", "AV BRIG FARIA LIMA"},
		{"Rua São Bento,", "RUA SAO BENTO"},
	}
	for _, tt := range tests {
		if got := CanonicalStreet(tt.input); got != tt.want {
			t.Errorf("CanonicalStreet(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}

func TestSplitStreetType(t *testing.T) {
	tests := []struct {
		input    string
		wantType string
		wantName string
	}{
		{"R. Augusta", "RUA", "AUGUSTA"},
		{"Av Paulista", "AVENIDA", "PAULISTA"},
		{"Praça da Sé", "PRACA", "DA SÉ"},
		{"Pça. da Sé", "PRACA", "DA SÉ"},
		{"Rua São Bento,", "RUA", "SÃO BENTO"},
		{"Av. Brig. Faria Lima", "AVENIDA", "BRIG. FARIA LIMA"},
		{"Alameda Santos", "ALAMEDA", "SANTOS"},
		{"Augusta", "", "AUGUSTA"},
		{"Rua", "", "RUA"},
		{"Rafael de Barros", "", "RAFAEL DE BARROS"},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			gotType, gotName := SplitStreetType(tt.input)
			if gotType != tt.wantType || gotName != tt.wantName {
				t.Errorf("SplitStreetType(%q) = (%q, %q), want (%q, %q)",
					tt.input, gotType, gotName, tt.wantType, tt.wantName)
			}
		})
	}
}

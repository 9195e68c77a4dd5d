package domain

import "testing"

func TestStrongPassword(t *testing.T) {
	tests := []struct {
		password string
		want     bool
	}{
		{"Secret1!", true},
		{"Abcdef1?", true},
		{"Secret1", false},  // too short
		{"secret1!", false}, // no uppercase
		{"SECRET1!", false}, // no lowercase
		{"Secreta!", false}, // no digit
		{"Secret12", false}, // no symbol
		{"Secret1 ", false}, // space is not a symbol
		{"", false},
	}

	for _, tt := range tests {
		if got := StrongPassword(tt.password); got != tt.want {
			t.Errorf("StrongPassword(%q) = %v, want %v", tt.password, got, tt.want)
		}
	}
}

func TestNormalizeEmail(t *testing.T) {
	if got := NormalizeEmail("  Ada@X.com \n"); got != "ada@x.com" {
		t.Fatalf("unexpected normalized email: %q", got)
	}
}

func TestEmailLocalPart(t *testing.T) {
	if got := EmailLocalPart("ada.lovelace@x.com"); got != "ada.lovelace" {
		t.Fatalf("unexpected local part: %q", got)
	}
	if got := EmailLocalPart("nodomain"); got != "nodomain" {
		t.Fatalf("unexpected local part: %q", got)
	}
}

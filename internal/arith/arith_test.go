package arith

import (
	"errors"
	"testing"
)

func TestEvaluate(t *testing.T) {
	tests := []struct {
		expr string
		want float64
	}{
		{"2+3*4", 14},
		{"2**10", 1024},
		{"(2+3)*4", 20},
		{"10/4", 2.5},
		{"-2**2", -4},
		{"2**-1", 0.5},
		{"2**3**2", 512},
		{"-(3-5)", 2},
		{"+7", 7},
		{"1.5*2", 3},
		{".5+.5", 1},
		{"8-2-1", 5},
	}
	for _, tt := range tests {
		got, err := Evaluate(tt.expr)
		if err != nil {
			t.Errorf("Evaluate(%q) error: %v", tt.expr, err)
			continue
		}
		if got != tt.want {
			t.Errorf("Evaluate(%q) = %v, want %v", tt.expr, got, tt.want)
		}
	}
}

func TestEvaluateRejectsNonArithmetic(t *testing.T) {
	inputs := []string{
		"sin(2)",
		"x+1",
		"__import__('os')",
		"2 < 3",
		"1.2.3",
		"",
		"(2+3",
		"2+",
		"2 3",
	}
	for _, in := range inputs {
		_, err := Evaluate(in)
		if !errors.Is(err, ErrUnsupportedSyntax) {
			t.Errorf("Evaluate(%q) error = %v, want ErrUnsupportedSyntax", in, err)
		}
	}
}

func TestEvaluateDivisionByZero(t *testing.T) {
	_, err := Evaluate("1/(2-2)")
	if !errors.Is(err, ErrDivisionByZero) {
		t.Fatalf("expected ErrDivisionByZero, got %v", err)
	}
}

func TestEvaluateNotFinite(t *testing.T) {
	_, err := Evaluate("(-8)**0.5")
	if !errors.Is(err, ErrNotFinite) {
		t.Fatalf("expected ErrNotFinite, got %v", err)
	}
}

func TestExtractExpression(t *testing.T) {
	tests := []struct {
		text        string
		wantDisplay string
		wantNorm    string
		wantOK      bool
	}{
		{"2+2", "2+2", "2+2", true},
		{"cuanto es 3 × 4 - 1?", "3 × 4 - 1", "3*4-1", true},
		{"calcula 2^10", "2^10", "2**10", true},
		{"divide 9 : 3", "9 : 3", "9/3", true},
		{"1,5 + 2,5", "1.5 + 2.5", "1.5+2.5", true},
		{"12 ÷ 4", "12 ÷ 4", "12/4", true},
		{"que es la hiperbola", "", "", false},
		{"", "", "", false},
	}
	for _, tt := range tests {
		d, n, ok := ExtractExpression(tt.text)
		if ok != tt.wantOK || d != tt.wantDisplay || n != tt.wantNorm {
			t.Errorf("ExtractExpression(%q) = (%q, %q, %v), want (%q, %q, %v)",
				tt.text, d, n, ok, tt.wantDisplay, tt.wantNorm, tt.wantOK)
		}
	}
}

func TestIsLiteralExpression(t *testing.T) {
	tests := []struct {
		text string
		want bool
	}{
		{"2+2", true},
		{"  3 * 4  ", true},
		{"¿2 + 2?", true},
		{"7 - 3 =", true},
		{"1,5 + 2,5", true},
		{"resuelve 5x + 3 = 18", false},
		{"resuelve 3x - 7 = 2", false},
		{"calcula el area de un rectangulo de lados 12 * 7", false},
		{"cuanto es 3 × 4 - 1?", false},
		{"que es la hiperbola", false},
		{"", false},
	}
	for _, tt := range tests {
		if got := IsLiteralExpression(tt.text); got != tt.want {
			t.Errorf("IsLiteralExpression(%q) = %v, want %v", tt.text, got, tt.want)
		}
	}
}

func TestExtractThenEvaluate(t *testing.T) {
	_, norm, ok := ExtractExpression("2^10")
	if !ok {
		t.Fatal("expected an expression")
	}
	got, err := Evaluate(norm)
	if err != nil || got != 1024 {
		t.Fatalf("expected 1024, got %v (%v)", got, err)
	}
}

func TestFormatNumber(t *testing.T) {
	tests := []struct {
		in   float64
		want string
	}{
		{4, "4"},
		{14, "14"},
		{2.5, "2.5"},
		{1.0 / 3, "0.333333"},
		{-0.5, "-0.5"},
		{0, "0"},
		{1024, "1024"},
		{1.1000001, "1.1"},
	}
	for _, tt := range tests {
		if got := FormatNumber(tt.in); got != tt.want {
			t.Errorf("FormatNumber(%v) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

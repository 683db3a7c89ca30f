package variant

import (
	"math"
	"strconv"
	"testing"
)

func TestGenerate(t *testing.T) {
	g := New()
	tests := []struct {
		name    string
		in      string
		want    string
		mapping Mapping
	}{
		{
			name:    "linear equation",
			in:      "resuelve 5x + 3 = 18",
			want:    "resuelve 7x + 5 = 21",
			mapping: Mapping{{"5", "7"}, {"3", "5"}, {"18", "21"}},
		},
		{
			name:    "exponent preserved",
			in:      "x^2 + 15",
			want:    "x^2 + 17",
			mapping: Mapping{{"15", "17"}},
		},
		{
			name:    "subscript preserved",
			in:      "a_1 + 4",
			want:    "a_1 + 6",
			mapping: Mapping{{"4", "6"}},
		},
		{
			name:    "braced exponent preserved",
			in:      "2^{10} + 30",
			want:    "4^{10} + 35",
			mapping: Mapping{{"2", "4"}, {"30", "35"}},
		},
		{
			name:    "negative moves further from zero",
			in:      "calcula -12 + 1",
			want:    "calcula -14 + 3",
			mapping: Mapping{{"-12", "-14"}, {"1", "3"}},
		},
		{
			name:    "comma decimal kept",
			in:      "un lado mide 2,5 cm",
			want:    "un lado mide 3,5 cm",
			mapping: Mapping{{"2,5", "3,5"}},
		},
		{
			name:    "dot decimal",
			in:      "velocidad 10.5 m/s",
			want:    "velocidad 12.5 m/s",
			mapping: Mapping{{"10.5", "12.5"}},
		},
		{
			name:    "repeated token reuses replacement",
			in:      "3 + 3   =  6",
			want:    "5 + 5 = 8",
			mapping: Mapping{{"3", "5"}, {"6", "8"}},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, m := g.Generate(tt.in)
			if got != tt.want {
				t.Errorf("variant = %q, want %q", got, tt.want)
			}
			if len(m) != len(tt.mapping) {
				t.Fatalf("mapping = %v, want %v", m, tt.mapping)
			}
			for i := range m {
				if m[i] != tt.mapping[i] {
					t.Errorf("mapping[%d] = %v, want %v", i, m[i], tt.mapping[i])
				}
			}
		})
	}
}

func TestGenerateNoVariant(t *testing.T) {
	g := New()
	for _, in := range []string{"", "que es una hiperbola", "x2 + y3"} {
		got, m := g.Generate(in)
		if got != "" || m != nil {
			t.Errorf("Generate(%q) = (%q, %v), want no variant", in, got, m)
		}
	}
}

func TestGenerateShiftBounds(t *testing.T) {
	g := New()
	for n := 10; n <= 500; n++ {
		for _, sign := range []int{1, -1} {
			v := n * sign
			tok := strconv.Itoa(v)
			_, m := g.Generate("valor " + tok)
			repl, ok := m.Lookup(tok)
			if !ok {
				t.Fatalf("token %s was not shifted", tok)
			}
			got, err := strconv.Atoi(repl)
			if err != nil {
				t.Fatalf("replacement %q is not an integer", repl)
			}
			minDelta := math.Max(2, math.Round(0.15*float64(n)))
			diff := float64(got - v)
			if sign < 0 {
				diff = -diff
			}
			if diff < minDelta {
				t.Errorf("%d -> %d: shift %v below %v", v, got, diff, minDelta)
			}
		}
	}
}

func TestGenerateConfigurableRatio(t *testing.T) {
	g := &Generator{ShiftRatio: 0.5, MinShift: 2}
	got, _ := g.Generate("100")
	if got != "150" {
		t.Errorf("expected 150, got %q", got)
	}
}

func TestIsProtected(t *testing.T) {
	tests := []struct {
		text  string
		start int
		want  bool
	}{
		{"x^2", 2, true},
		{"x^ 2", 3, true},
		{"a_1", 2, true},
		{"x^{12}", 3, true},
		{"x^ { 12}", 5, true},
		{"cm2", 2, true},
		{"5x", 0, false},
		{"a + 2", 4, false},
		{"{3}", 1, false},
	}
	for _, tt := range tests {
		if got := IsProtected(tt.text, tt.start); got != tt.want {
			t.Errorf("IsProtected(%q, %d) = %v, want %v", tt.text, tt.start, got, tt.want)
		}
	}
}

func TestFallback(t *testing.T) {
	got, m := Fallback("  resuelve 5x  + 3 ")
	if got != "resuelve 7x + 5" {
		t.Errorf("got %q", got)
	}
	if len(m) != 2 || m[0] != (Pair{"5", "7"}) || m[1] != (Pair{"3", "5"}) {
		t.Errorf("mapping = %v", m)
	}

	got, m = Fallback("x^2")
	if got != "" || m != nil {
		t.Errorf("expected no fallback variant, got (%q, %v)", got, m)
	}
}

package lessons

import (
	"strings"
	"testing"
)

func TestSnippet(t *testing.T) {
	item := ContextItem{
		Unit:      intPtr(3),
		Lesson:    "2.1",
		Topic:     "Conicas",
		Title:     "La hiperbola",
		Objective: "Reconocer la hiperbola.",
		Theory:    "Lugar geometrico de puntos.",
	}

	got := Snippet(item, 0)
	want := "Unidad 3 - Leccion 2.1: La hiperbola (Tema: Conicas)\n" +
		"Objetivo principal: Reconocer la hiperbola.\n" +
		"Teoria base: Lugar geometrico de puntos."
	if got != want {
		t.Errorf("Snippet() =\n%s\nwant\n%s", got, want)
	}
}

func TestSnippet_UnknownFieldsAndTruncation(t *testing.T) {
	item := ContextItem{Theory: strings.Repeat("a", 100)}

	got := Snippet(item, 40)
	if !strings.HasPrefix(got, "Unidad ? - Leccion ?: Sin titulo") {
		t.Errorf("unexpected header: %q", got)
	}
	if len([]rune(got)) != 40 || !strings.HasSuffix(got, "...") {
		t.Errorf("expected 40 runes ending in ..., got %d: %q", len([]rune(got)), got)
	}
}

func TestContextBlock(t *testing.T) {
	got := ContextBlock([]ContextItem{{Title: "A"}, {Title: "B"}})
	if !strings.HasPrefix(got, "Usa el siguiente contexto de BD como base") {
		t.Errorf("missing preamble: %q", got)
	}
	if strings.Count(got, "\n\n---\n\n") != 1 {
		t.Errorf("expected one separator: %q", got)
	}
}

package lessons

import (
	"fmt"
	"strings"
)

// DefaultSnippetLimit caps the characters of one context block.
const DefaultSnippetLimit = 1500

// Snippet renders item as the plain-text context block passed to the
// generation call, cut to limit characters. A limit <= 0 uses
// DefaultSnippetLimit.
func Snippet(item ContextItem, limit int) string {
	if limit <= 0 {
		limit = DefaultSnippetLimit
	}

	title := strings.TrimSpace(item.Title)
	if title == "" {
		title = "Sin titulo"
	}
	header := fmt.Sprintf("Unidad %s - Leccion %s: %s", item.UnitLabel(), item.LessonLabel(), title)
	if topic := strings.TrimSpace(item.Topic); topic != "" {
		header += fmt.Sprintf(" (Tema: %s)", topic)
	}

	lines := []string{header}
	for _, f := range []struct{ label, value string }{
		{"Objetivo principal", item.Objective},
		{"Teoria base", item.Theory},
		{"Formulas clave", item.Formulas},
		{"Actividades sugeridas", item.Activities},
	} {
		if v := strings.TrimSpace(f.value); v != "" {
			lines = append(lines, f.label+": "+v)
		}
	}

	snippet := strings.TrimSpace(strings.Join(lines, "\n"))
	runes := []rune(snippet)
	if len(runes) > limit {
		snippet = string(runes[:max(0, limit-3)]) + "..."
	}
	return snippet
}

// ContextBlock joins the snippets of items into the lesson-context system
// turn.
func ContextBlock(items []ContextItem) string {
	parts := make([]string, len(items))
	for i, it := range items {
		parts[i] = Snippet(it, DefaultSnippetLimit)
	}
	return "Usa el siguiente contexto de BD como base y completa con explicaciones claras.\n\n" +
		strings.Join(parts, "\n\n---\n\n")
}

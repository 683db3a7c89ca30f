package chat

import (
	"fmt"
	"strings"

	"charm.land/lipgloss/v2"

	chatsvc "github.com/abhisek/mathibot/internal/chat"
	"github.com/abhisek/mathibot/internal/ui/theme"
)

func renderTranscript(entries []entry, width int) string {
	width = max(width, 20)
	blocks := make([]string, 0, len(entries))
	for _, e := range entries {
		blocks = append(blocks, renderEntry(e, width))
	}
	return strings.Join(blocks, "\n\n")
}

func renderEntry(e entry, width int) string {
	body := theme.Message.Width(width).Render(e.text)
	switch e.role {
	case student:
		return theme.StudentLabel.Render("Tu") + "\n" + body
	case tutor:
		var b strings.Builder
		b.WriteString(theme.TutorLabel.Render("MathiBot"))
		b.WriteString("\n")
		b.WriteString(body)
		if refs := renderRefs(e.refs); refs != "" {
			b.WriteString("\n")
			b.WriteString(theme.ContextRef.Width(width).Render(refs))
		}
		if e.fallback {
			b.WriteString("\n")
			b.WriteString(theme.FallbackTag.Render("(respuesta de respaldo sin conexion al modelo)"))
		}
		return b.String()
	default:
		return lipgloss.NewStyle().Foreground(theme.TextDim).Width(width).Render(e.text)
	}
}

func renderRefs(refs []chatsvc.ContextRef) string {
	if len(refs) == 0 {
		return ""
	}
	parts := make([]string, 0, len(refs))
	for _, r := range refs {
		unit := "?"
		if r.Unit != nil {
			unit = fmt.Sprintf("%d", *r.Unit)
		}
		label := fmt.Sprintf("Leccion %s.%s", unit, r.Lesson)
		if r.Title != "" {
			label += " - " + r.Title
		}
		parts = append(parts, label)
	}
	return "Contexto: " + strings.Join(parts, "; ")
}

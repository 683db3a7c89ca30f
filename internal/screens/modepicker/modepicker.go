// Package modepicker lets the student pin the conversation mode.
package modepicker

import (
	"strings"

	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"

	"github.com/abhisek/mathibot/internal/mode"
	"github.com/abhisek/mathibot/internal/router"
	"github.com/abhisek/mathibot/internal/screen"
	"github.com/abhisek/mathibot/internal/ui/components"
	"github.com/abhisek/mathibot/internal/ui/layout"
	"github.com/abhisek/mathibot/internal/ui/theme"
)

// SelectedMsg is delivered to the previous screen when a mode is chosen.
type SelectedMsg struct {
	Mode mode.Mode
}

var choices = []struct {
	mode mode.Mode
	desc string
}{
	{mode.Auto, "decide segun el mensaje y la conversacion"},
	{mode.General, "preguntas abiertas y ejercicios guiados"},
	{mode.Leccion, "responde con el material de las lecciones"},
}

// Picker is the mode selection screen.
type Picker struct {
	menu components.Menu
}

var _ screen.Screen = (*Picker)(nil)
var _ screen.KeyHintProvider = (*Picker)(nil)

// New creates a picker with current highlighted.
func New(current mode.Mode) *Picker {
	items := make([]components.MenuItem, len(choices))
	selected := 0
	for i, c := range choices {
		m := c.mode
		if m == current {
			selected = i
		}
		items[i] = components.MenuItem{
			Label:       string(m),
			Description: c.desc,
			Action: func() tea.Cmd {
				return func() tea.Msg {
					return router.PopScreenMsg{Result: SelectedMsg{Mode: m}}
				}
			},
		}
	}
	return &Picker{menu: components.NewMenu(items, selected)}
}

func (p *Picker) Init() tea.Cmd { return nil }

func (p *Picker) Title() string { return "Modo de conversacion" }

func (p *Picker) KeyHints() []layout.KeyHint {
	return []layout.KeyHint{
		{Key: "↑↓", Description: "Elegir"},
		{Key: "Enter", Description: "Aplicar"},
		{Key: "Esc", Description: "Volver"},
	}
}

func (p *Picker) Update(msg tea.Msg) (screen.Screen, tea.Cmd) {
	var cmd tea.Cmd
	p.menu, cmd = p.menu.Update(msg)
	return p, cmd
}

func (p *Picker) View(width, height int) string {
	content := strings.Join([]string{
		theme.Title.Render("¿Como quieres conversar?"),
		"",
		p.menu.View(),
	}, "\n")
	return lipgloss.Place(width, height, lipgloss.Center, lipgloss.Center, theme.Card.Render(content))
}

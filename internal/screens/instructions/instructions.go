// Package instructions shows the tutor persona sent with every turn.
package instructions

import (
	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"

	"github.com/abhisek/mathibot/internal/chat"
	"github.com/abhisek/mathibot/internal/screen"
	"github.com/abhisek/mathibot/internal/ui/layout"
	"github.com/abhisek/mathibot/internal/ui/theme"
)

// Screen renders chat.Instructions.
type Screen struct{}

var _ screen.Screen = (*Screen)(nil)
var _ screen.KeyHintProvider = (*Screen)(nil)

// New returns the instructions screen.
func New() *Screen { return &Screen{} }

func (s *Screen) Init() tea.Cmd { return nil }

func (s *Screen) Title() string { return "Instrucciones del tutor" }

func (s *Screen) KeyHints() []layout.KeyHint {
	return []layout.KeyHint{{Key: "Esc", Description: "Volver"}}
}

func (s *Screen) Update(tea.Msg) (screen.Screen, tea.Cmd) { return s, nil }

func (s *Screen) View(width, height int) string {
	body := theme.Body.Width(max(width-12, 20)).Render(chat.Instructions())
	return lipgloss.Place(width, height, lipgloss.Center, lipgloss.Center, theme.Card.Render(body))
}

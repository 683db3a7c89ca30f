package welcome

import (
	"strings"
	"time"

	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"

	"github.com/abhisek/mathibot/internal/router"
	"github.com/abhisek/mathibot/internal/screen"
	"github.com/abhisek/mathibot/internal/ui/theme"
)

const (
	tickInterval = 100 * time.Millisecond
	bannerAt     = 600 * time.Millisecond
	totalDur     = 2500 * time.Millisecond
)

const chalkboardArt = `  ╭─────────────────╮
  │  x² + y² = r²   │
  │   ∫ f(x) dx     │
  │  a/b ± c/d      │
  ╰────────┬────────╯
           ┴`

var sparkleFrames = []string{"✦", "·"}

type tickMsg time.Time

// WelcomeScreen shows a short splash and then hands over to the next
// screen, on any key or when the animation ends.
type WelcomeScreen struct {
	next         func() screen.Screen
	elapsed      time.Duration
	tickCount    int
	transitioned bool
}

var _ screen.Screen = (*WelcomeScreen)(nil)

// New creates a WelcomeScreen that replaces itself with next().
func New(next func() screen.Screen) *WelcomeScreen {
	return &WelcomeScreen{next: next}
}

func (w *WelcomeScreen) Title() string {
	return ""
}

func (w *WelcomeScreen) Init() tea.Cmd {
	return tick()
}

func tick() tea.Cmd {
	return tea.Tick(tickInterval, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func (w *WelcomeScreen) Update(msg tea.Msg) (screen.Screen, tea.Cmd) {
	switch msg.(type) {
	case tickMsg:
		if w.transitioned {
			return w, nil
		}
		w.elapsed += tickInterval
		w.tickCount++
		if w.elapsed >= totalDur {
			return w, w.transition()
		}
		return w, tick()

	case tea.KeyPressMsg:
		return w, w.transition()
	}
	return w, nil
}

func (w *WelcomeScreen) transition() tea.Cmd {
	if w.transitioned {
		return nil
	}
	w.transitioned = true
	next := w.next()
	return func() tea.Msg {
		return router.ReplaceScreenMsg{Screen: next}
	}
}

func (w *WelcomeScreen) View(width, height int) string {
	board := lipgloss.NewStyle().Foreground(theme.Secondary).Render(chalkboardArt)

	if w.tickCount > 0 {
		sparkle := lipgloss.NewStyle().Foreground(theme.Accent).
			Render(sparkleFrames[w.tickCount%len(sparkleFrames)])
		lines := strings.Split(board, "\n")
		lines[0] = sparkle + " " + lines[0] + " " + sparkle
		board = strings.Join(lines, "\n")
	}

	sections := []string{board}
	if w.elapsed >= bannerAt {
		sections = append(sections,
			"",
			RenderBanner(width),
			"",
			lipgloss.NewStyle().Foreground(theme.Text).Bold(true).
				Render("Tu tutor de matematicas, paso a paso."),
			"",
			theme.Hint.Render("pulsa cualquier tecla para empezar"),
		)
	}

	return lipgloss.Place(width, height, lipgloss.Center, lipgloss.Center, strings.Join(sections, "\n"))
}

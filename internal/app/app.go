package app

import (
	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"

	"github.com/abhisek/mathibot/internal/router"
	"github.com/abhisek/mathibot/internal/screen"
	chatscreen "github.com/abhisek/mathibot/internal/screens/chat"
	"github.com/abhisek/mathibot/internal/screens/welcome"
	"github.com/abhisek/mathibot/internal/ui/layout"
)

// Options configures the terminal client.
type Options struct {
	Chat chatscreen.Options
	// SkipWelcome opens the chat screen directly.
	SkipWelcome bool
}

// AppModel is the root Bubble Tea model.
type AppModel struct {
	router *router.Router
	width  int
	height int
}

func newAppModel(sender chatscreen.Sender, opts Options) AppModel {
	newChat := func() screen.Screen { return chatscreen.New(sender, opts.Chat) }

	var first screen.Screen
	if opts.SkipWelcome {
		first = newChat()
	} else {
		first = welcome.New(newChat)
	}
	return AppModel{router: router.New(first)}
}

func (m AppModel) Init() tea.Cmd {
	return m.router.Active().Init()
}

func (m AppModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case tea.KeyPressMsg:
		switch msg.String() {
		case "ctrl+c":
			return m, tea.Quit
		case "esc":
			if m.router.Depth() > 1 {
				return m, func() tea.Msg { return router.PopScreenMsg{} }
			}
			return m, nil
		}
	}

	return m, m.router.Update(msg)
}

func (m AppModel) View() tea.View {
	v := tea.NewView(m.render())
	v.AltScreen = true
	return v
}

func (m AppModel) render() string {
	if m.width == 0 || m.height == 0 {
		return ""
	}
	if layout.IsTooSmall(m.width, m.height) {
		return layout.RenderMinSizeMessage(m.width, m.height)
	}

	active := m.router.Active()
	var title, status string
	hints := []layout.KeyHint{{Key: "Ctrl+C", Description: "Salir"}}
	if active != nil {
		title = active.Title()
		if sp, ok := active.(screen.StatusProvider); ok {
			status = sp.Status()
		}
		if hp, ok := active.(screen.KeyHintProvider); ok {
			hints = hp.KeyHints()
		}
	}

	header := layout.RenderHeader(title, status, m.width)
	footer := layout.RenderFooter(hints, m.width)

	contentHeight := max(m.height-lipgloss.Height(header)-lipgloss.Height(footer), 0)
	content := m.router.View(m.width, contentHeight)

	return layout.RenderFrame(header, content, footer, m.width, m.height)
}

// Run starts the terminal client and blocks until the user quits.
func Run(sender chatscreen.Sender, opts Options) error {
	p := tea.NewProgram(newAppModel(sender, opts))
	_, err := p.Run()
	return err
}

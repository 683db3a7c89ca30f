package app

import (
	"context"
	"strings"
	"testing"

	tea "charm.land/bubbletea/v2"

	chatsvc "github.com/abhisek/mathibot/internal/chat"
	"github.com/abhisek/mathibot/internal/mode"
	"github.com/abhisek/mathibot/internal/router"
	chatscreen "github.com/abhisek/mathibot/internal/screens/chat"
	"github.com/abhisek/mathibot/internal/screens/instructions"
)

type nopSender struct{}

func (nopSender) Send(context.Context, chatsvc.Request) (*chatsvc.Response, error) {
	return &chatsvc.Response{Answer: "ok", Mode: mode.General}, nil
}

func sized(m AppModel) AppModel {
	next, _ := m.Update(tea.WindowSizeMsg{Width: 100, Height: 30})
	return next.(AppModel)
}

func TestViewShowsHeaderStatusAndHints(t *testing.T) {
	m := sized(newAppModel(nopSender{}, Options{SkipWelcome: true, Chat: chatscreen.Options{UserID: "ana", Mode: mode.General}}))

	view := m.render()
	for _, want := range []string{"MathiBot", "Chat", "modo general", "Enviar"} {
		if !strings.Contains(view, want) {
			t.Errorf("view missing %q", want)
		}
	}
}

func TestTooSmall(t *testing.T) {
	m := newAppModel(nopSender{}, Options{SkipWelcome: true})
	next, _ := m.Update(tea.WindowSizeMsg{Width: 30, Height: 10})
	if !strings.Contains(next.(AppModel).render(), "demasiado pequena") {
		t.Error("expected the minimum size message")
	}
}

func TestEscPopsOnlyAboveRoot(t *testing.T) {
	m := sized(newAppModel(nopSender{}, Options{SkipWelcome: true}))

	if _, cmd := m.Update(tea.KeyPressMsg{Code: tea.KeyEscape}); cmd != nil {
		t.Error("esc at the root should do nothing")
	}

	m.router.Push(instructions.New())
	_, cmd := m.Update(tea.KeyPressMsg{Code: tea.KeyEscape})
	if cmd == nil {
		t.Fatal("esc above the root should pop")
	}
	if _, ok := cmd().(router.PopScreenMsg); !ok {
		t.Errorf("expected PopScreenMsg, got %T", cmd())
	}
}

func TestWelcomeFirst(t *testing.T) {
	m := newAppModel(nopSender{}, Options{})
	if m.router.Active().Title() != "" {
		t.Errorf("first screen = %q, want the welcome splash", m.router.Active().Title())
	}
}

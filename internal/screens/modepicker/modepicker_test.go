package modepicker

import (
	"testing"

	tea "charm.land/bubbletea/v2"

	"github.com/abhisek/mathibot/internal/mode"
	"github.com/abhisek/mathibot/internal/router"
)

func TestPickerHighlightsCurrent(t *testing.T) {
	p := New(mode.Leccion)
	if p.menu.Selected != 2 {
		t.Errorf("Selected = %d, want 2", p.menu.Selected)
	}
}

func TestPickerPopsWithSelection(t *testing.T) {
	p := New(mode.Auto)

	p.Update(tea.KeyPressMsg{Code: tea.KeyDown})
	_, cmd := p.Update(tea.KeyPressMsg{Code: tea.KeyEnter})
	if cmd == nil {
		t.Fatal("expected a command on enter")
	}
	pop, ok := cmd().(router.PopScreenMsg)
	if !ok {
		t.Fatalf("expected PopScreenMsg, got %T", cmd())
	}
	if pop.Result != (SelectedMsg{Mode: mode.General}) {
		t.Errorf("Result = %#v", pop.Result)
	}
}

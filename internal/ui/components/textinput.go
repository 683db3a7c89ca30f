package components

import (
	"strings"

	"charm.land/bubbles/v2/textinput"
	tea "charm.land/bubbletea/v2"
)

// PromptInput wraps bubbles/textinput with a recall history of submitted
// messages, browsed with up and down.
type PromptInput struct {
	Model   textinput.Model
	history []string
	cursor  int
	draft   string
}

// NewPromptInput creates a focused input.
func NewPromptInput(placeholder string, charLimit int) PromptInput {
	ti := textinput.New()
	ti.Placeholder = placeholder
	ti.Prompt = "> "
	if charLimit > 0 {
		ti.CharLimit = charLimit
	}
	ti.Focus()
	return PromptInput{Model: ti}
}

// Init returns the initial command.
func (p PromptInput) Init() tea.Cmd {
	return p.Model.Focus()
}

// Update handles history keys and forwards the rest to the text input.
func (p PromptInput) Update(msg tea.Msg) (PromptInput, tea.Cmd) {
	if kmsg, ok := msg.(tea.KeyPressMsg); ok {
		switch kmsg.String() {
		case "up":
			p.recall(-1)
			return p, nil
		case "down":
			p.recall(1)
			return p, nil
		}
	}

	var cmd tea.Cmd
	p.Model, cmd = p.Model.Update(msg)
	return p, cmd
}

func (p *PromptInput) recall(step int) {
	if len(p.history) == 0 {
		return
	}
	if p.cursor == len(p.history) {
		p.draft = p.Model.Value()
	}
	p.cursor = min(max(p.cursor+step, 0), len(p.history))
	if p.cursor == len(p.history) {
		p.Model.SetValue(p.draft)
	} else {
		p.Model.SetValue(p.history[p.cursor])
	}
	p.Model.CursorEnd()
}

// Submit returns the trimmed value, records it in the history and clears
// the input. Blank input returns "" and is not recorded.
func (p *PromptInput) Submit() string {
	v := strings.TrimSpace(p.Model.Value())
	if v == "" {
		return ""
	}
	p.history = append(p.history, v)
	p.cursor = len(p.history)
	p.draft = ""
	p.Model.Reset()
	return v
}

// SetWidth sets the visible width of the input.
func (p *PromptInput) SetWidth(w int) {
	p.Model.SetWidth(w)
}

// View renders the input.
func (p PromptInput) View() string {
	return p.Model.View()
}

// Value returns the current input value.
func (p PromptInput) Value() string {
	return p.Model.Value()
}

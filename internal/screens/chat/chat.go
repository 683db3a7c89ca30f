// Package chat is the conversation screen of the terminal client.
package chat

import (
	"context"
	"fmt"
	"time"

	"charm.land/bubbles/v2/spinner"
	"charm.land/bubbles/v2/viewport"
	tea "charm.land/bubbletea/v2"
	"github.com/google/uuid"

	chatsvc "github.com/abhisek/mathibot/internal/chat"
	"github.com/abhisek/mathibot/internal/mode"
	"github.com/abhisek/mathibot/internal/router"
	"github.com/abhisek/mathibot/internal/screen"
	"github.com/abhisek/mathibot/internal/screens/instructions"
	"github.com/abhisek/mathibot/internal/screens/modepicker"
	"github.com/abhisek/mathibot/internal/ui/components"
	"github.com/abhisek/mathibot/internal/ui/layout"
	"github.com/abhisek/mathibot/internal/ui/theme"
)

// Sender runs one chat turn.
type Sender interface {
	Send(ctx context.Context, req chatsvc.Request) (*chatsvc.Response, error)
}

// Options configures a conversation.
type Options struct {
	UserID string
	// ChatID names the conversation. Empty starts a fresh one.
	ChatID     string
	Mode       mode.Mode
	LessonOnly bool
	MaxContext int
	// Timeout bounds one turn. Zero means two minutes.
	Timeout time.Duration
}

type role int

const (
	student role = iota
	tutor
	notice
)

type entry struct {
	role     role
	text     string
	refs     []chatsvc.ContextRef
	fallback bool
}

type replyMsg struct {
	resp *chatsvc.Response
	err  error
}

// Screen is the chat conversation screen.
type Screen struct {
	sender Sender
	opts   Options

	entries  []entry
	input    components.PromptInput
	viewport viewport.Model
	spinner  spinner.Model
	waiting  bool
	lastMode mode.Mode
	// scrolled is set while the student reads back through the transcript.
	scrolled bool
}

var _ screen.Screen = (*Screen)(nil)
var _ screen.KeyHintProvider = (*Screen)(nil)
var _ screen.StatusProvider = (*Screen)(nil)

// New creates a chat screen.
func New(sender Sender, opts Options) *Screen {
	if opts.ChatID == "" {
		opts.ChatID = uuid.NewString()
	}
	if opts.Mode == "" {
		opts.Mode = mode.Auto
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 2 * time.Minute
	}
	s := &Screen{
		sender:   sender,
		opts:     opts,
		input:    components.NewPromptInput("Escribe tu pregunta de matematicas...", 2000),
		viewport: viewport.New(),
		spinner:  spinner.New(spinner.WithSpinner(spinner.Dot)),
	}
	s.entries = append(s.entries, entry{role: notice, text: "¡Hola! Soy MathiBot. Preguntame lo que quieras o cita una leccion, por ejemplo \"unidad 2 leccion 3\"."})
	return s
}

func (s *Screen) Init() tea.Cmd {
	return s.input.Init()
}

func (s *Screen) Title() string {
	return "Chat"
}

// Status shows the requested mode, the mode of the last answer and the
// lesson-only flag.
func (s *Screen) Status() string {
	status := "modo " + string(s.opts.Mode)
	if s.lastMode != "" && s.lastMode != s.opts.Mode {
		status += " (" + string(s.lastMode) + ")"
	}
	if s.opts.LessonOnly {
		status += " · solo BD"
	}
	return status + "  "
}

func (s *Screen) KeyHints() []layout.KeyHint {
	if s.waiting {
		return []layout.KeyHint{
			{Key: "PgUp/PgDn", Description: "Desplazar"},
			{Key: "Ctrl+C", Description: "Salir"},
		}
	}
	return []layout.KeyHint{
		{Key: "Enter", Description: "Enviar"},
		{Key: "Tab", Description: "Modo"},
		{Key: "Ctrl+B", Description: "Solo BD"},
		{Key: "Ctrl+N", Description: "Nueva"},
		{Key: "F1", Description: "Tutor"},
		{Key: "Ctrl+C", Description: "Salir"},
	}
}

func (s *Screen) Update(msg tea.Msg) (screen.Screen, tea.Cmd) {
	switch msg := msg.(type) {
	case replyMsg:
		return s.handleReply(msg)

	case modepicker.SelectedMsg:
		s.opts.Mode = msg.Mode
		return s, nil

	case spinner.TickMsg:
		if !s.waiting {
			return s, nil
		}
		var cmd tea.Cmd
		s.spinner, cmd = s.spinner.Update(msg)
		return s, cmd

	case tea.KeyPressMsg:
		return s.handleKey(msg)
	}
	return s, nil
}

func (s *Screen) handleKey(msg tea.KeyPressMsg) (screen.Screen, tea.Cmd) {
	switch msg.String() {
	case "pgup", "pgdown":
		var cmd tea.Cmd
		s.viewport, cmd = s.viewport.Update(msg)
		s.scrolled = !s.viewport.AtBottom()
		return s, cmd
	}
	if s.waiting {
		return s, nil
	}

	switch msg.String() {
	case "enter":
		return s, s.submit()
	case "tab":
		return s, func() tea.Msg {
			return router.PushScreenMsg{Screen: modepicker.New(s.opts.Mode)}
		}
	case "f1":
		return s, func() tea.Msg {
			return router.PushScreenMsg{Screen: instructions.New()}
		}
	case "ctrl+b":
		s.opts.LessonOnly = !s.opts.LessonOnly
		return s, nil
	case "ctrl+n":
		s.opts.ChatID = uuid.NewString()
		s.lastMode = ""
		s.entries = []entry{{role: notice, text: "Nueva conversacion."}}
		return s, nil
	}

	var cmd tea.Cmd
	s.input, cmd = s.input.Update(msg)
	return s, cmd
}

func (s *Screen) submit() tea.Cmd {
	text := s.input.Submit()
	if text == "" {
		return nil
	}
	s.entries = append(s.entries, entry{role: student, text: text})
	s.waiting = true
	s.scrolled = false

	req := chatsvc.Request{
		UserID:     s.opts.UserID,
		ChatID:     s.opts.ChatID,
		Message:    text,
		LessonOnly: s.opts.LessonOnly,
		MaxContext: s.opts.MaxContext,
		Mode:       string(s.opts.Mode),
	}
	sender, timeout := s.sender, s.opts.Timeout
	send := func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		resp, err := sender.Send(ctx, req)
		return replyMsg{resp: resp, err: err}
	}
	return tea.Batch(send, s.spinner.Tick)
}

func (s *Screen) handleReply(msg replyMsg) (screen.Screen, tea.Cmd) {
	s.waiting = false
	s.scrolled = false
	if msg.err != nil {
		s.entries = append(s.entries, entry{role: notice, text: fmt.Sprintf("No pude responder: %v", msg.err)})
		return s, nil
	}
	s.lastMode = msg.resp.Mode
	s.entries = append(s.entries, entry{
		role:     tutor,
		text:     msg.resp.Answer,
		refs:     msg.resp.ContextItems,
		fallback: msg.resp.Fallback,
	})
	return s, nil
}

func (s *Screen) View(width, height int) string {
	inputHeight := 2
	s.viewport.SetWidth(width)
	s.viewport.SetHeight(max(height-inputHeight, 1))
	s.viewport.SetContent(renderTranscript(s.entries, width-2))
	if !s.scrolled {
		s.viewport.GotoBottom()
	}

	var prompt string
	if s.waiting {
		prompt = s.spinner.View() + " " + theme.Hint.Render("MathiBot esta pensando...")
	} else {
		s.input.SetWidth(max(width-6, 10))
		prompt = s.input.View()
	}
	return s.viewport.View() + "\n\n" + prompt
}

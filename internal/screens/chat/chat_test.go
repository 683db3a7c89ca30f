package chat

import (
	"context"
	"errors"
	"strings"
	"testing"

	tea "charm.land/bubbletea/v2"

	chatsvc "github.com/abhisek/mathibot/internal/chat"
	"github.com/abhisek/mathibot/internal/mode"
	"github.com/abhisek/mathibot/internal/router"
	"github.com/abhisek/mathibot/internal/screens/modepicker"
)

type fakeSender struct {
	got  []chatsvc.Request
	resp *chatsvc.Response
	err  error
}

func (f *fakeSender) Send(_ context.Context, req chatsvc.Request) (*chatsvc.Response, error) {
	f.got = append(f.got, req)
	return f.resp, f.err
}

func typeText(s *Screen, text string) {
	for _, r := range text {
		s.Update(tea.KeyPressMsg{Code: r, Text: string(r)})
	}
}

// runUntilReply executes cmd, expanding batches, and returns the reply.
func runUntilReply(t *testing.T, cmd tea.Cmd) replyMsg {
	t.Helper()
	if cmd == nil {
		t.Fatal("expected a command")
	}
	switch msg := cmd().(type) {
	case replyMsg:
		return msg
	case tea.BatchMsg:
		for _, c := range msg {
			if c == nil {
				continue
			}
			if r, ok := c().(replyMsg); ok {
				return r
			}
		}
	}
	t.Fatal("no reply produced")
	return replyMsg{}
}

func TestSubmitSendsRequest(t *testing.T) {
	unit := 2
	sender := &fakeSender{resp: &chatsvc.Response{
		Answer:       "La hiperbola tiene dos focos.",
		Mode:         mode.Leccion,
		ContextItems: []chatsvc.ContextRef{{Unit: &unit, Lesson: "3", Title: "La hiperbola"}},
	}}
	s := New(sender, Options{UserID: "ana", ChatID: "c1", MaxContext: 2})

	typeText(s, "unidad 2 leccion 3")
	_, cmd := s.Update(tea.KeyPressMsg{Code: tea.KeyEnter})
	if !s.waiting {
		t.Error("expected waiting state after submit")
	}

	reply := runUntilReply(t, cmd)
	if len(sender.got) != 1 {
		t.Fatalf("sent %d requests", len(sender.got))
	}
	req := sender.got[0]
	if req.UserID != "ana" || req.ChatID != "c1" || req.Message != "unidad 2 leccion 3" || req.Mode != "auto" || req.MaxContext != 2 {
		t.Errorf("request = %+v", req)
	}

	s.Update(reply)
	if s.waiting {
		t.Error("still waiting after reply")
	}
	view := s.View(100, 30)
	if !strings.Contains(view, "dos focos") || !strings.Contains(view, "Leccion 2.3 - La hiperbola") {
		t.Errorf("view missing reply or context:\n%s", view)
	}
	if !strings.Contains(s.Status(), "(leccion)") {
		t.Errorf("Status = %q", s.Status())
	}
}

func TestBlankSubmitIgnored(t *testing.T) {
	sender := &fakeSender{}
	s := New(sender, Options{UserID: "ana"})

	typeText(s, "   ")
	_, cmd := s.Update(tea.KeyPressMsg{Code: tea.KeyEnter})
	if cmd != nil || s.waiting {
		t.Error("blank input should not be sent")
	}
}

func TestSendErrorShownAsNotice(t *testing.T) {
	s := New(&fakeSender{err: errors.New("save session: boom")}, Options{UserID: "ana"})

	typeText(s, "hola")
	_, cmd := s.Update(tea.KeyPressMsg{Code: tea.KeyEnter})
	s.Update(runUntilReply(t, cmd))

	if !strings.Contains(s.View(100, 30), "No pude responder") {
		t.Error("error notice not rendered")
	}
}

func TestModeSelectionAndToggles(t *testing.T) {
	sender := &fakeSender{resp: &chatsvc.Response{Answer: "ok", Mode: mode.General}}
	s := New(sender, Options{UserID: "ana"})

	_, cmd := s.Update(tea.KeyPressMsg{Code: tea.KeyTab})
	if cmd == nil {
		t.Fatal("tab should open the mode picker")
	}
	if push, ok := cmd().(router.PushScreenMsg); !ok || push.Screen == nil {
		t.Fatalf("expected PushScreenMsg, got %T", cmd())
	}

	s.Update(modepicker.SelectedMsg{Mode: mode.Leccion})
	s.Update(tea.KeyPressMsg{Code: 'b', Mod: tea.ModCtrl})
	if !strings.Contains(s.Status(), "modo leccion") || !strings.Contains(s.Status(), "solo BD") {
		t.Errorf("Status = %q", s.Status())
	}

	typeText(s, "x")
	_, cmd = s.Update(tea.KeyPressMsg{Code: tea.KeyEnter})
	runUntilReply(t, cmd)
	if req := sender.got[0]; req.Mode != "leccion" || !req.LessonOnly {
		t.Errorf("request = %+v", req)
	}
}

func TestNewConversationRotatesChatID(t *testing.T) {
	s := New(&fakeSender{}, Options{UserID: "ana"})
	first := s.opts.ChatID
	if first == "" {
		t.Fatal("expected a generated chat id")
	}
	s.Update(tea.KeyPressMsg{Code: 'n', Mod: tea.ModCtrl})
	if s.opts.ChatID == first {
		t.Error("ctrl+n should start a new conversation id")
	}
	if len(s.entries) != 1 {
		t.Errorf("entries = %d, want the notice only", len(s.entries))
	}
}

func TestKeysIgnoredWhileWaiting(t *testing.T) {
	s := New(&fakeSender{}, Options{UserID: "ana"})
	s.waiting = true
	if _, cmd := s.Update(tea.KeyPressMsg{Code: tea.KeyTab}); cmd != nil {
		t.Error("tab should be ignored while waiting")
	}
}

// Package mode decides whether a chat turn is anchored to lesson material.
package mode

import (
	"strings"

	"github.com/abhisek/mathibot/internal/intent"
	"github.com/abhisek/mathibot/internal/textnorm"
)

// Mode is the conversation mode of a turn.
type Mode string

const (
	General Mode = "general"
	Leccion Mode = "leccion"
	// Auto is only a resolution input. It is never returned by Resolve.
	Auto Mode = "auto"
)

var aliases = map[string]Mode{
	"general":    General,
	"libre":      General,
	"abierto":    General,
	"preguntas":  General,
	"leccion":    Leccion,
	"lesson":     Leccion,
	"contexto":   Leccion,
	"auto":       Auto,
	"automatico": Auto,
}

// Parse maps a requested mode string, including its Spanish aliases, to a
// Mode. Unknown or empty values are Auto.
func Parse(s string) Mode {
	if m, ok := aliases[textnorm.Normalize(strings.TrimSpace(s))]; ok {
		return m
	}
	return Auto
}

// Input is everything Resolve looks at.
type Input struct {
	Requested   Mode
	LastMode    Mode
	LastContext bool
	Message     string
}

// Resolve picks the mode for the current turn. An explicit request wins.
// In auto mode a lesson conversation that used context stays in lesson mode
// until the student asks for a reset; otherwise the message decides.
func Resolve(in Input) Mode {
	switch in.Requested {
	case General, Leccion:
		return in.Requested
	}
	if in.LastMode == Leccion && in.LastContext && !intent.LooksLikeGeneralReset(in.Message) {
		return Leccion
	}
	if intent.LooksLikeLessonQuery(in.Message) {
		return Leccion
	}
	return General
}

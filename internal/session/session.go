// Package session keeps the per-conversation tutoring state: the last
// resolved mode, the active guided exercise and the message history.
package session

import (
	"errors"
	"slices"
	"strings"
	"time"

	"github.com/abhisek/mathibot/internal/guided"
	"github.com/abhisek/mathibot/internal/mode"
)

// Common errors for session store operations.
var (
	ErrInvalidConfig    = errors.New("invalid session store configuration")
	ErrInvalidStoreType = errors.New("invalid session store type")
	ErrVersionConflict  = errors.New("session version conflict")
	ErrNotFound         = errors.New("session not found")
	ErrExists           = errors.New("session already exists")
)

// Key builds the session key for a user and an optional conversation.
func Key(userID, chatID string) string {
	userID = strings.TrimSpace(userID)
	chatID = strings.TrimSpace(chatID)
	if chatID == "" {
		return userID
	}
	return userID + ":" + chatID
}

// Role is the author of a stored turn.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Turn is one stored history message.
type Turn struct {
	Role       Role      `json:"role"`
	Content    string    `json:"content"`
	TokenCount int       `json:"token_count"`
	Timestamp  time.Time `json:"timestamp"`
}

// State is everything remembered about one conversation.
type State struct {
	Key         string          `json:"key"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
	Version     int64           `json:"version"`
	LastMode    mode.Mode       `json:"last_mode"`
	LastContext bool            `json:"last_context"`
	Exercise    guided.Exercise `json:"exercise"`
	History     []Turn          `json:"history"`
}

// NewState returns a fresh state. LastMode is Auto until the first turn
// resolves a mode.
func NewState(key string) *State {
	return &State{Key: key, LastMode: mode.Auto}
}

// Append adds a turn with an estimated token count.
func (s *State) Append(role Role, content string, now time.Time) {
	s.History = append(s.History, Turn{
		Role:       role,
		Content:    content,
		TokenCount: EstimateTokens(content),
		Timestamp:  now,
	})
}

// ClearExercise drops the active guided exercise.
func (s *State) ClearExercise() {
	s.Exercise = guided.Exercise{}
}

// Clone returns a deep copy of s.
func (s *State) Clone() *State {
	if s == nil {
		return nil
	}
	c := *s
	c.History = slices.Clone(s.History)
	c.Exercise.Mapping = slices.Clone(s.Exercise.Mapping)
	return &c
}

// Package chat runs one tutoring turn: it resolves the conversation mode,
// tracks guided exercises, gathers lesson context, calls the generator and
// falls back to deterministic answers when generation fails.
package chat

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/abhisek/mathibot/internal/arith"
	"github.com/abhisek/mathibot/internal/fallback"
	"github.com/abhisek/mathibot/internal/guided"
	"github.com/abhisek/mathibot/internal/intent"
	"github.com/abhisek/mathibot/internal/lessons"
	"github.com/abhisek/mathibot/internal/llm"
	"github.com/abhisek/mathibot/internal/mode"
	"github.com/abhisek/mathibot/internal/session"
	"github.com/abhisek/mathibot/internal/variant"
)

// ErrInvalidInput is returned for a blank message or user id.
var ErrInvalidInput = errors.New("invalid chat input")

var errNoProvider = errors.New("no generation provider configured")

// Config tunes the chat service.
type Config struct {
	// GenerationTimeout bounds one generation call. Zero means 30s.
	GenerationTimeout time.Duration
	// HistoryTokens and HistoryMessages cap the history sent to the
	// model. Zero sends everything.
	HistoryTokens   int
	HistoryMessages int
	MaxTokens       int
	Temperature     float64
	// MaxContext is the lesson limit when the request sets none.
	MaxContext int

	ShiftRatio      float64
	MinShift        float64
	TruncateAt      int
	MaxMappingLines int
}

// DefaultConfig returns the standard tuning.
func DefaultConfig() Config {
	return Config{
		GenerationTimeout: 30 * time.Second,
		MaxContext:        1,
		Temperature:       0.4,
		ShiftRatio:        variant.DefaultShiftRatio,
		MinShift:          variant.DefaultMinShift,
		TruncateAt:        guided.DefaultTruncateAt,
		MaxMappingLines:   guided.DefaultMaxMappingLines,
	}
}

// Request is one inbound student message.
type Request struct {
	UserID  string
	ChatID  string
	Message string

	// Unit, Topic and Lesson pin lesson coordinates. Values parsed from
	// the message only fill the ones left nil.
	Unit   *int
	Topic  *int
	Lesson *int
	// Query overrides the message as lesson search text.
	Query string
	// LessonOnly answers lesson turns from stored lessons only.
	LessonOnly bool
	MaxContext int
	// Mode is the requested mode, including aliases. Empty means auto.
	Mode string
}

// ContextRef identifies a lesson used in a reply.
type ContextRef struct {
	Unit   *int
	Lesson string
	Title  string
}

// Response is the outcome of a turn.
type Response struct {
	Answer       string
	UsedContext  bool
	ContextItems []ContextRef
	Mode         mode.Mode
	// Fallback is set when the answer was composed locally.
	Fallback bool
}

// Service runs chat turns. Turns for the same session are serialized;
// different sessions run in parallel.
type Service struct {
	provider   llm.Provider
	sessions   session.Store
	locker     *session.Locker
	retriever  *lessons.Retriever
	anonymizer *guided.Anonymizer
	composer   *fallback.Composer
	cfg        Config
	logger     *zap.Logger
	now        func() time.Time
}

// NewService creates a chat service. A nil provider answers every turn
// with the fallback composer. A nil retriever disables lesson context.
func NewService(provider llm.Provider, sessions session.Store, locker *session.Locker, retriever *lessons.Retriever, cfg Config, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	if locker == nil {
		locker = session.NewLocker()
	}
	if cfg.GenerationTimeout <= 0 {
		cfg.GenerationTimeout = 30 * time.Second
	}
	if cfg.MaxContext <= 0 {
		cfg.MaxContext = 1
	}

	gen := &variant.Generator{ShiftRatio: cfg.ShiftRatio, MinShift: cfg.MinShift}
	if gen.ShiftRatio <= 0 && gen.MinShift <= 0 {
		gen = variant.New()
	}
	return &Service{
		provider:  provider,
		sessions:  sessions,
		locker:    locker,
		retriever: retriever,
		anonymizer: &guided.Anonymizer{
			Variants:        gen,
			TruncateAt:      cfg.TruncateAt,
			MaxMappingLines: cfg.MaxMappingLines,
		},
		composer: fallback.New(nil, gen),
		cfg:      cfg,
		logger:   logger,
		now:      time.Now,
	}
}

// turn is the per-message plan derived from the request and the state.
type turn struct {
	message     string
	mode        mode.Mode
	newExercise bool
	finalAnswer bool
	exercise    guided.Exercise
	items       []lessons.ContextItem
}

// Send runs one chat turn.
func (s *Service) Send(ctx context.Context, req Request) (*Response, error) {
	if strings.TrimSpace(req.Message) == "" {
		return nil, fmt.Errorf("%w: message is empty", ErrInvalidInput)
	}
	key := session.Key(req.UserID, req.ChatID)
	if strings.TrimSpace(req.UserID) == "" {
		return nil, fmt.Errorf("%w: user id is empty", ErrInvalidInput)
	}

	unlock, err := s.locker.Lock(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("lock session %q: %w", key, err)
	}
	defer unlock()

	st, err := s.sessions.Get(ctx, key)
	if err != nil {
		s.logger.Warn("session load failed, starting fresh", zap.String("session", key), zap.Error(err))
		st = nil
	}
	isNew := st == nil
	if isNew {
		st = session.NewState(key)
	}

	t := s.plan(st, req)
	if t.mode == mode.Leccion {
		limit := req.MaxContext
		if limit <= 0 {
			limit = s.cfg.MaxContext
		}
		t.items = s.retriever.Resolve(ctx, lessons.Request{
			Message: req.Message,
			Unit:    req.Unit,
			Topic:   req.Topic,
			Lesson:  req.Lesson,
			Query:   req.Query,
			Limit:   limit,
		})
	}

	answer, usedFallback := s.answer(ctx, st, t, req.LessonOnly)

	now := s.now()
	st.Append(session.RoleUser, req.Message, now)
	st.Append(session.RoleAssistant, answer, now)
	st.LastMode = t.mode
	st.LastContext = len(t.items) > 0
	s.save(ctx, st, isNew)

	resp := &Response{
		Answer:      answer,
		UsedContext: t.mode == mode.Leccion && len(t.items) > 0,
		Mode:        t.mode,
		Fallback:    usedFallback,
	}
	for _, it := range t.items {
		resp.ContextItems = append(resp.ContextItems, ContextRef{Unit: it.Unit, Lesson: it.Lesson, Title: it.Title})
	}
	return resp, nil
}

// save persists st. A state that expired mid-turn is created again. Other
// failures are logged and the turn's answer is still returned.
func (s *Service) save(ctx context.Context, st *session.State, isNew bool) {
	if !isNew {
		err := s.sessions.Update(ctx, st)
		if !errors.Is(err, session.ErrNotFound) {
			s.logSaveError(st.Key, err)
			return
		}
	}
	s.logSaveError(st.Key, s.sessions.Create(ctx, st))
}

func (s *Service) logSaveError(key string, err error) {
	if err != nil {
		s.logger.Error("session save failed", zap.String("session", key), zap.Error(err))
	}
}

// plan resolves the mode and updates the exercise state of st.
func (s *Service) plan(st *session.State, req Request) turn {
	t := turn{message: req.Message}
	t.mode = mode.Resolve(mode.Input{
		Requested:   mode.Parse(req.Mode),
		LastMode:    st.LastMode,
		LastContext: st.LastContext,
		Message:     req.Message,
	})

	if t.mode != mode.General {
		st.ClearExercise()
		return t
	}

	reset := intent.LooksLikeGeneralReset(req.Message)
	switch {
	case !reset && st.Exercise.Active() && !hasDigit(req.Message) && intent.LooksLikeFinalAnswerRequest(req.Message):
		t.finalAnswer = true
	case intent.LooksLikeExerciseRequest(req.Message):
		t.newExercise = true
		st.Exercise = s.anonymizer.Register(req.Message)
	case reset:
		st.ClearExercise()
	case st.Exercise.Active():
		t.finalAnswer = intent.LooksLikeFinalAnswerRequest(req.Message)
	}
	if reset {
		t.finalAnswer = false
	}
	t.exercise = st.Exercise
	return t
}

// answer produces the reply text and reports whether it came from the
// fallback composer.
func (s *Service) answer(ctx context.Context, st *session.State, t turn, lessonOnly bool) (string, bool) {
	if t.mode == mode.Leccion && lessonOnly {
		if len(t.items) == 0 {
			return s.composer.LessonOnlyMiss(), true
		}
		return s.composer.Context(t.items), true
	}

	text, err := s.generate(llm.WithSession(ctx, st.Key), s.messages(st, t))
	if err == nil {
		return text, false
	}

	s.logger.Warn("generation failed, composing fallback answer",
		zap.String("mode", string(t.mode)),
		zap.Bool("has_context", len(t.items) > 0),
		zap.Error(err))

	switch {
	case t.mode == mode.Leccion && len(t.items) > 0:
		return s.composer.Context(t.items), true
	case t.newExercise:
		if arith.IsLiteralExpression(t.message) {
			if text, ok := s.composer.BasicMath(t.message); ok {
				return text, true
			}
		}
		return s.composer.GuidedExample(t.message), true
	case t.finalAnswer:
		return s.composer.FinalAnswer(t.exercise.Prompt), true
	default:
		return s.composer.General(t.message), true
	}
}

// messages assembles the generation conversation: persona, exercise
// instructions, lesson context, history and the user turn.
func (s *Service) messages(st *session.State, t turn) []llm.Message {
	system := func(content string) llm.Message {
		return llm.Message{Role: llm.RoleSystem, Content: content}
	}

	msgs := []llm.Message{system(systemPrompt(t.mode))}
	ex := t.exercise
	if ex.Active() && !t.newExercise && !t.finalAnswer {
		msgs = append(msgs, system(s.anonymizer.FollowupInstruction(ex)))
	}
	switch {
	case t.newExercise:
		msgs = append(msgs, system(s.anonymizer.SystemInstruction(t.message)))
	case t.finalAnswer:
		msgs = append(msgs, system(s.anonymizer.FinalAnswerSystemInstruction(ex.Prompt)))
	}
	if t.mode == mode.Leccion && len(t.items) > 0 {
		msgs = append(msgs, system(lessons.ContextBlock(t.items)))
	}

	for _, h := range session.Window(st.History, s.cfg.HistoryTokens, s.cfg.HistoryMessages) {
		msgs = append(msgs, llm.Message{Role: llm.Role(h.Role), Content: h.Content})
	}

	var user string
	switch {
	case t.newExercise:
		user = s.anonymizer.UserPrompt(ex)
	case t.finalAnswer:
		user = s.anonymizer.FinalAnswerUserPrompt(ex.Prompt)
	case t.mode == mode.Leccion && len(t.items) > 0:
		user = "Pregunta: " + t.message
	case ex.Active():
		user = s.anonymizer.ExerciseContextPrompt(ex, t.message)
	default:
		user = t.message
	}
	return append(msgs, llm.Message{Role: llm.RoleUser, Content: user})
}

func (s *Service) generate(ctx context.Context, msgs []llm.Message) (string, error) {
	if s.provider == nil {
		return "", errNoProvider
	}

	ctx, cancel := context.WithTimeout(llm.WithPurpose(ctx, llm.PurposeChat), s.cfg.GenerationTimeout)
	defer cancel()

	resp, err := s.provider.Generate(ctx, llm.Request{
		Messages:    msgs,
		MaxTokens:   s.cfg.MaxTokens,
		Temperature: s.cfg.Temperature,
	})
	if err != nil {
		return "", err
	}
	text := strings.TrimSpace(resp.Text)
	if text == "" {
		return "", &llm.ErrInvalidResponse{Err: errors.New("empty reply")}
	}
	return text, nil
}

func hasDigit(text string) bool {
	return strings.ContainsAny(text, "0123456789")
}

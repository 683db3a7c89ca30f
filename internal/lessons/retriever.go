package lessons

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/abhisek/mathibot/internal/intent"
)

// Request carries the coordinates and text of a lesson-mode turn.
// Explicit Unit/Topic/Lesson always win over values parsed from Message.
type Request struct {
	Message string
	Unit    *int
	Topic   *int
	Lesson  *int
	Query   string
	Limit   int
}

// Retriever resolves the context items for a lesson-mode turn.
type Retriever struct {
	store  Store
	logger *zap.Logger
}

// NewRetriever creates a Retriever over store. A nil logger discards.
func NewRetriever(store Store, logger *zap.Logger) *Retriever {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Retriever{store: store, logger: logger}
}

// Resolve returns the exact lesson when the coordinates pin one down, and
// otherwise up to max(1, req.Limit) search results. Store failures are
// logged and treated as no context.
func (r *Retriever) Resolve(ctx context.Context, req Request) []ContextItem {
	if r == nil || r.store == nil {
		return nil
	}

	unit, topic, lesson := req.Unit, req.Topic, req.Lesson
	if strings.TrimSpace(req.Message) != "" {
		parsed := intent.ParseStructure(req.Message)
		if unit == nil {
			unit = parsed.Unit
		}
		if topic == nil {
			topic = parsed.Topic
		}
		if lesson == nil {
			lesson = parsed.Lesson
		}
	}

	exact := r.fetchExact(ctx, unit, topic, lesson)
	if exact == nil && unit != nil {
		if t, l, ok := intent.ParseLessonText(req.Message); ok {
			exact = r.fetchExact(ctx, unit, &t, &l)
		}
	}
	if exact != nil {
		return []ContextItem{*exact}
	}

	text := strings.TrimSpace(req.Query)
	if text == "" {
		text = strings.TrimSpace(req.Message)
	}
	if text == "" {
		return nil
	}

	limit := max(1, req.Limit)
	items, err := r.store.Search(ctx, SearchQuery{Text: text, Unit: unit, Lesson: lesson, Limit: limit})
	if err != nil {
		r.logger.Warn("lesson search failed", zap.String("query", text), zap.Error(err))
		return nil
	}
	items = Dedupe(items)
	if len(items) > limit {
		items = items[:limit]
	}
	return items
}

func (r *Retriever) fetchExact(ctx context.Context, unit, topic, lesson *int) *ContextItem {
	if unit == nil || lesson == nil {
		return nil
	}
	coords := Coordinates{Unit: *unit, Topic: topic, Lesson: *lesson}
	item, err := r.store.FetchExact(ctx, coords)
	if err != nil {
		r.logger.Warn("exact lesson lookup failed",
			zap.Int("unit", coords.Unit),
			zap.Int("lesson", coords.Lesson),
			zap.Error(err))
		return nil
	}
	return item
}

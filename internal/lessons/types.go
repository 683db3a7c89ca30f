// Package lessons resolves curriculum lesson material for lesson-mode
// turns: exact lookups by unit/topic/lesson coordinates with a fuzzy text
// search fallback, over SQLite, Supabase or a Qdrant-backed semantic index.
package lessons

import (
	"context"
	"fmt"
)

// ContextItem is one lesson record as handed to the generation call and
// the fallback composer.
type ContextItem struct {
	Unit       *int   `json:"unidad"`
	Lesson     string `json:"leccion"`
	Topic      string `json:"tema"`
	Title      string `json:"titulo"`
	Theory     string `json:"teoria"`
	Objective  string `json:"objetivo"`
	Formulas   string `json:"formulas"`
	Activities string `json:"actividades"`
}

// UnitLabel renders the unit number, or "?" when unknown.
func (c ContextItem) UnitLabel() string {
	if c.Unit == nil {
		return "?"
	}
	return fmt.Sprintf("%d", *c.Unit)
}

// LessonLabel renders the lesson number, or "?" when blank.
func (c ContextItem) LessonLabel() string {
	if c.Lesson == "" {
		return "?"
	}
	return c.Lesson
}

type dedupeKey struct {
	unit   string
	lesson string
	title  string
}

func (c ContextItem) key() dedupeKey {
	return dedupeKey{unit: c.UnitLabel(), lesson: c.Lesson, title: c.Title}
}

// Coordinates address a single lesson. Topic is optional; when set the
// lesson number is matched as topic.lesson.
type Coordinates struct {
	Unit   int
	Topic  *int
	Lesson int
}

// SearchQuery is a free-text lesson search with optional unit and lesson
// filters.
type SearchQuery struct {
	Text   string
	Unit   *int
	Lesson *int
	Limit  int
}

// Store is the external lesson store.
type Store interface {
	// FetchExact returns the lesson at the given coordinates, or nil when
	// there is none.
	FetchExact(ctx context.Context, coords Coordinates) (*ContextItem, error)

	// Search returns lessons matching q.Text, best first, at most q.Limit.
	Search(ctx context.Context, q SearchQuery) ([]ContextItem, error)
}

// Dedupe drops items that repeat an earlier (unit, lesson, title).
func Dedupe(items []ContextItem) []ContextItem {
	seen := make(map[dedupeKey]bool, len(items))
	out := items[:0:0]
	for _, it := range items {
		k := it.key()
		if seen[k] {
			continue
		}
		seen[k] = true
		out = append(out, it)
	}
	return out
}

func intPtr(v int) *int { return &v }

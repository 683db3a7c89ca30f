package lessons

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/supabase-community/postgrest-go"
	"github.com/supabase-community/supabase-go"
)

// SupabaseConfig holds Supabase connection configuration.
type SupabaseConfig struct {
	URL    string
	APIKey string
	Table  string // defaults to "lessons"
}

// tableSource is satisfied by both *supabase.Client and *postgrest.Client.
type tableSource interface {
	From(table string) *postgrest.QueryBuilder
}

// SupabaseStore implements Store over a Postgres lessons table exposed
// through PostgREST.
type SupabaseStore struct {
	client tableSource
	table  string
}

// NewSupabaseStore creates a Supabase-backed lesson store.
func NewSupabaseStore(cfg SupabaseConfig) (*SupabaseStore, error) {
	if cfg.URL == "" {
		return nil, fmt.Errorf("supabase URL is required")
	}
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("supabase API key is required")
	}

	client, err := supabase.NewClient(cfg.URL, cfg.APIKey, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create supabase client: %w", err)
	}
	return newSupabaseStore(client, cfg.Table), nil
}

func newSupabaseStore(client tableSource, table string) *SupabaseStore {
	if table == "" {
		table = "lessons"
	}
	return &SupabaseStore{client: client, table: table}
}

// supabaseLesson mirrors the Postgres lessons table.
type supabaseLesson struct {
	Unit       int     `json:"unit_number"`
	Number     string  `json:"lesson_number"`
	Title      *string `json:"lesson_title"`
	TopicTitle *string `json:"topic_title"`
	Objective  *string `json:"objective"`
	Theory     *string `json:"theory"`
	Formulas   *string `json:"key_formulas"`
	Activities *string `json:"suggested_activities"`
}

const supabaseColumns = "unit_number,lesson_number,lesson_title,topic_title,objective,theory,key_formulas,suggested_activities"

func (l supabaseLesson) item() ContextItem {
	deref := func(s *string) string {
		if s == nil {
			return ""
		}
		return *s
	}
	return ContextItem{
		Unit:       intPtr(l.Unit),
		Lesson:     l.Number,
		Topic:      deref(l.TopicTitle),
		Title:      deref(l.Title),
		Theory:     deref(l.Theory),
		Objective:  deref(l.Objective),
		Formulas:   deref(l.Formulas),
		Activities: deref(l.Activities),
	}
}

func (s *SupabaseStore) selectLessons() *postgrest.FilterBuilder {
	return s.client.From(s.table).Select(supabaseColumns, "", false)
}

// FetchExact matches lesson_number as topic.lesson when a topic is given,
// else as "*.lesson" or the bare lesson, then as unit.lesson.
func (s *SupabaseStore) FetchExact(ctx context.Context, c Coordinates) (*ContextItem, error) {
	unit := strconv.Itoa(c.Unit)
	lesson := strconv.Itoa(c.Lesson)

	var filters []func(*postgrest.FilterBuilder) *postgrest.FilterBuilder
	if c.Topic != nil {
		key := joinLesson(*c.Topic, c.Lesson)
		filters = append(filters, func(f *postgrest.FilterBuilder) *postgrest.FilterBuilder {
			return f.Eq("lesson_number", key)
		})
	} else {
		filters = append(filters, func(f *postgrest.FilterBuilder) *postgrest.FilterBuilder {
			return f.Or(fmt.Sprintf("lesson_number.like.*.%s,lesson_number.eq.%s", lesson, lesson), "")
		})
	}
	unitKey := joinLesson(c.Unit, c.Lesson)
	filters = append(filters, func(f *postgrest.FilterBuilder) *postgrest.FilterBuilder {
		return f.Eq("lesson_number", unitKey)
	})

	for _, filter := range filters {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		var rows []supabaseLesson
		q := filter(s.selectLessons().Eq("unit_number", unit)).
			Order("lesson_number", &postgrest.OrderOpts{Ascending: true}).
			Limit(1, "")
		if _, err := q.ExecuteTo(&rows); err != nil {
			return nil, fmt.Errorf("fetch lesson %d/%d: %w", c.Unit, c.Lesson, err)
		}
		if len(rows) > 0 {
			it := rows[0].item()
			return &it, nil
		}
	}
	return nil, nil
}

// Search runs a case-insensitive substring match over the text columns.
func (s *SupabaseStore) Search(ctx context.Context, q SearchQuery) ([]ContextItem, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	text := strings.TrimSpace(q.Text)
	if text == "" {
		return nil, nil
	}
	limit := max(1, q.Limit)

	pattern := "*" + sanitizeFilterValue(text) + "*"
	var clauses []string
	for _, col := range []string{"lesson_title", "objective", "theory", "key_formulas", "lesson_number", "topic_title"} {
		clauses = append(clauses, col+".ilike."+pattern)
	}

	f := s.selectLessons().Or(strings.Join(clauses, ","), "")
	if q.Unit != nil {
		f = f.Eq("unit_number", strconv.Itoa(*q.Unit))
	}
	var rows []supabaseLesson
	if _, err := f.Limit(limit, "").ExecuteTo(&rows); err != nil {
		return nil, fmt.Errorf("search lessons: %w", err)
	}

	items := make([]ContextItem, len(rows))
	for i, r := range rows {
		items[i] = r.item()
	}
	return Dedupe(items), nil
}

// sanitizeFilterValue removes characters that delimit PostgREST logical
// filter lists.
func sanitizeFilterValue(s string) string {
	return strings.Map(func(r rune) rune {
		switch r {
		case ',', '(', ')':
			return ' '
		}
		return r
	}, s)
}

package lessons

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"entgo.io/ent/dialect"
	entsql "entgo.io/ent/dialect/sql"

	"github.com/abhisek/mathibot/internal/candidates"
	"github.com/abhisek/mathibot/internal/store"
)

// lessonRow is one row of the lessons table.
type lessonRow struct {
	Unit       int           `sql:"unit_number"`
	Topic      sql.NullInt64 `sql:"topic_number"`
	Number     string        `sql:"lesson_number"`
	Title      string        `sql:"lesson_title"`
	TopicTitle string        `sql:"topic_title"`
	Objective  string        `sql:"objective"`
	Theory     string        `sql:"theory"`
	Formulas   string        `sql:"key_formulas"`
	Activities string        `sql:"suggested_activities"`
}

func (r lessonRow) item() ContextItem {
	return ContextItem{
		Unit:       intPtr(r.Unit),
		Lesson:     r.Number,
		Topic:      r.TopicTitle,
		Title:      r.Title,
		Theory:     r.Theory,
		Objective:  r.Objective,
		Formulas:   r.Formulas,
		Activities: r.Activities,
	}
}

var lessonColumns = []string{
	store.LessonColumnUnit,
	store.LessonColumnTopic,
	store.LessonColumnNumber,
	store.LessonColumnTitle,
	store.LessonColumnTopicTitle,
	store.LessonColumnObjective,
	store.LessonColumnTheory,
	store.LessonColumnFormulas,
	store.LessonColumnActivities,
}

// SQLStore implements Store over the SQLite lessons table.
type SQLStore struct {
	db *sql.DB
}

// NewSQLStore creates a lesson store on db. The lessons table is created
// by store.Open.
func NewSQLStore(db *sql.DB) *SQLStore {
	return &SQLStore{db: db}
}

// exactStrategy is one way of reading a lesson number.
type exactStrategy struct {
	name  string
	where *entsql.Predicate
}

// FetchExact tries, in order: topic.lesson when a topic is given, a
// lesson key ending in ".lesson" (or equal to it) when not, and finally
// unit.lesson.
func (s *SQLStore) FetchExact(ctx context.Context, c Coordinates) (*ContextItem, error) {
	lesson := strconv.Itoa(c.Lesson)

	var strategies []exactStrategy
	if c.Topic != nil {
		strategies = append(strategies, exactStrategy{
			name:  "topic.lesson",
			where: entsql.EQ(store.LessonColumnKey, joinLesson(*c.Topic, c.Lesson)),
		})
	} else {
		strategies = append(strategies, exactStrategy{
			name: "lesson-suffix",
			where: entsql.Or(
				entsql.HasSuffix(store.LessonColumnKey, "."+lesson),
				entsql.EQ(store.LessonColumnKey, lesson),
			),
		})
	}
	strategies = append(strategies, exactStrategy{
		name:  "unit.lesson",
		where: entsql.EQ(store.LessonColumnKey, joinLesson(c.Unit, c.Lesson)),
	})

	item, err := candidates.First(ctx, strategies, func(ctx context.Context, st exactStrategy) (*ContextItem, error) {
		sel := selectLessons().
			Where(entsql.And(entsql.EQ(store.LessonColumnUnit, c.Unit), st.where)).
			OrderBy(entsql.Asc(store.LessonColumnKey)).
			Limit(1)
		rows, err := s.query(ctx, sel)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", st.name, err)
		}
		if len(rows) == 0 {
			return nil, candidates.ErrSkip
		}
		it := rows[0].item()
		return &it, nil
	})
	if err != nil {
		var exhausted *candidates.ExhaustedError[exactStrategy]
		if errors.As(err, &exhausted) && len(exhausted.Failures) == 0 {
			return nil, nil
		}
		return nil, fmt.Errorf("fetch lesson %d/%d: %w", c.Unit, c.Lesson, err)
	}
	return item, nil
}

// Search returns the exact unit/lesson match first when both filters are
// set, then lessons whose title, objective, theory, formulas, number or
// topic title contain q.Text.
func (s *SQLStore) Search(ctx context.Context, q SearchQuery) ([]ContextItem, error) {
	limit := max(1, q.Limit)

	var results []ContextItem
	if q.Unit != nil && q.Lesson != nil {
		exact, err := s.FetchExact(ctx, Coordinates{Unit: *q.Unit, Lesson: *q.Lesson})
		if err != nil {
			return nil, err
		}
		if exact != nil {
			results = append(results, *exact)
			if len(results) >= limit {
				return results, nil
			}
		}
	}

	text := strings.TrimSpace(q.Text)
	if text == "" {
		return results, nil
	}

	match := entsql.Or(
		entsql.ContainsFold(store.LessonColumnTitle, text),
		entsql.ContainsFold(store.LessonColumnObjective, text),
		entsql.ContainsFold(store.LessonColumnTheory, text),
		entsql.ContainsFold(store.LessonColumnFormulas, text),
		entsql.ContainsFold(store.LessonColumnNumber, text),
		entsql.ContainsFold(store.LessonColumnTopicTitle, text),
	)
	if q.Unit != nil {
		match = entsql.And(entsql.EQ(store.LessonColumnUnit, *q.Unit), match)
	}

	sel := selectLessons().
		Where(match).
		OrderBy(entsql.Asc(store.LessonColumnUnit), entsql.Asc(store.LessonColumnKey)).
		Limit(limit)
	rows, err := s.query(ctx, sel)
	if err != nil {
		return nil, fmt.Errorf("search lessons: %w", err)
	}
	for _, r := range rows {
		results = append(results, r.item())
	}

	results = Dedupe(results)
	if len(results) > limit {
		results = results[:limit]
	}
	return results, nil
}

// Upsert inserts or replaces items keyed by (unit, normalized lesson
// number). Every item must carry a unit.
func (s *SQLStore) Upsert(ctx context.Context, items []ContextItem) (int, error) {
	if len(items) == 0 {
		return 0, nil
	}

	ins := entsql.Dialect(dialect.SQLite).
		Insert(store.TableLessons).
		Columns(
			store.LessonColumnUnit,
			store.LessonColumnTopic,
			store.LessonColumnNumber,
			store.LessonColumnKey,
			store.LessonColumnTitle,
			store.LessonColumnTopicTitle,
			store.LessonColumnObjective,
			store.LessonColumnTheory,
			store.LessonColumnFormulas,
			store.LessonColumnActivities,
			store.LessonColumnUpdatedAt,
		)

	now := time.Now().UTC()
	for i, it := range items {
		if it.Unit == nil {
			return 0, fmt.Errorf("lesson %d (%q): unit is required", i, it.Title)
		}
		key := NormalizeLessonNumber(it.Lesson)
		if key == "" {
			return 0, fmt.Errorf("lesson %d (%q): lesson number is required", i, it.Title)
		}
		var topic any
		if t := topicFromKey(key); t != nil {
			topic = *t
		}
		ins.Values(*it.Unit, topic, strings.TrimSpace(it.Lesson), key,
			strings.TrimSpace(it.Title), strings.TrimSpace(it.Topic),
			strings.TrimSpace(it.Objective), strings.TrimSpace(it.Theory),
			strings.TrimSpace(it.Formulas), strings.TrimSpace(it.Activities), now)
	}
	ins.OnConflict(
		entsql.ConflictColumns(store.LessonColumnUnit, store.LessonColumnKey),
		entsql.ResolveWithNewValues(),
	)

	query, args := ins.Query()
	if _, err := s.db.ExecContext(ctx, query, args...); err != nil {
		return 0, fmt.Errorf("upsert lessons: %w", err)
	}
	return len(items), nil
}

// Count returns the number of stored lessons.
func (s *SQLStore) Count(ctx context.Context) (int, error) {
	query, args := entsql.Dialect(dialect.SQLite).
		Select(entsql.Count("*")).
		From(entsql.Table(store.TableLessons)).
		Query()
	var n int
	if err := s.db.QueryRowContext(ctx, query, args...).Scan(&n); err != nil {
		return 0, fmt.Errorf("count lessons: %w", err)
	}
	return n, nil
}

func selectLessons() *entsql.Selector {
	return entsql.Dialect(dialect.SQLite).
		Select(lessonColumns...).
		From(entsql.Table(store.TableLessons))
}

func (s *SQLStore) query(ctx context.Context, sel *entsql.Selector) ([]lessonRow, error) {
	query, args := sel.Query()
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []lessonRow
	if err := entsql.ScanSlice(rows, &out); err != nil {
		return nil, err
	}
	return out, nil
}

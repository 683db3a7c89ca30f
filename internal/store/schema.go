package store

import (
	"context"
	"fmt"

	"entgo.io/ent/dialect"
	"entgo.io/ent/dialect/sql/schema"
	"entgo.io/ent/schema/field"
)

// Table names.
const (
	TableLessons          = "lessons"
	TableLLMRequestEvents = "llm_request_events"
)

// Lesson table columns.
const (
	LessonColumnID         = "id"
	LessonColumnUnit       = "unit_number"
	LessonColumnTopic      = "topic_number"
	LessonColumnNumber     = "lesson_number"
	LessonColumnKey        = "lesson_key"
	LessonColumnTitle      = "lesson_title"
	LessonColumnTopicTitle = "topic_title"
	LessonColumnObjective  = "objective"
	LessonColumnTheory     = "theory"
	LessonColumnFormulas   = "key_formulas"
	LessonColumnActivities = "suggested_activities"
	LessonColumnUpdatedAt  = "updated_at"
)

func textColumn(name string) *schema.Column {
	return &schema.Column{Name: name, Type: field.TypeString, Size: 2147483647, Default: ""}
}

func lessonsTable() *schema.Table {
	unit := &schema.Column{Name: LessonColumnUnit, Type: field.TypeInt}
	key := &schema.Column{Name: LessonColumnKey, Type: field.TypeString}
	return schema.NewTable(TableLessons).
		AddPrimary(&schema.Column{Name: LessonColumnID, Type: field.TypeInt, Increment: true}).
		AddColumn(unit).
		AddColumn(&schema.Column{Name: LessonColumnTopic, Type: field.TypeInt, Nullable: true}).
		AddColumn(&schema.Column{Name: LessonColumnNumber, Type: field.TypeString}).
		AddColumn(key).
		AddColumn(textColumn(LessonColumnTitle)).
		AddColumn(textColumn(LessonColumnTopicTitle)).
		AddColumn(textColumn(LessonColumnObjective)).
		AddColumn(textColumn(LessonColumnTheory)).
		AddColumn(textColumn(LessonColumnFormulas)).
		AddColumn(textColumn(LessonColumnActivities)).
		AddColumn(&schema.Column{Name: LessonColumnUpdatedAt, Type: field.TypeTime}).
		AddIndex("lesson_unit_key", true, []string{LessonColumnUnit, LessonColumnKey})
}

func llmRequestEventsTable() *schema.Table {
	return schema.NewTable(TableLLMRequestEvents).
		AddPrimary(&schema.Column{Name: "id", Type: field.TypeInt, Increment: true}).
		AddColumn(&schema.Column{Name: "sequence", Type: field.TypeInt64, Unique: true}).
		AddColumn(&schema.Column{Name: "timestamp", Type: field.TypeTime}).
		AddColumn(&schema.Column{Name: "provider", Type: field.TypeString}).
		AddColumn(&schema.Column{Name: "model", Type: field.TypeString}).
		AddColumn(&schema.Column{Name: "purpose", Type: field.TypeString}).
		AddColumn(&schema.Column{Name: "input_tokens", Type: field.TypeInt, Default: 0}).
		AddColumn(&schema.Column{Name: "output_tokens", Type: field.TypeInt, Default: 0}).
		AddColumn(&schema.Column{Name: "latency_ms", Type: field.TypeInt64, Default: 0}).
		AddColumn(&schema.Column{Name: "success", Type: field.TypeBool}).
		AddColumn(textColumn("error_message")).
		AddColumn(textColumn("request_body")).
		AddColumn(textColumn("response_body")).
		AddIndex("llm_event_purpose", false, []string{"purpose"})
}

// migrate creates or updates every table the store owns.
func migrate(ctx context.Context, drv dialect.Driver) error {
	m, err := schema.NewMigrate(drv)
	if err != nil {
		return fmt.Errorf("create migrator: %w", err)
	}
	return m.Create(ctx, lessonsTable(), llmRequestEventsTable())
}

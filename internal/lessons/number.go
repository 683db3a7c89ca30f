package lessons

import (
	"fmt"
	"strings"
)

var lessonSeparators = strings.NewReplacer(" ", "", "/", ".", "-", ".")

// NormalizeLessonNumber strips spaces and maps "/" and "-" to "." so that
// "2 / 3", "2-3" and "2.3" compare equal.
func NormalizeLessonNumber(s string) string {
	return lessonSeparators.Replace(strings.TrimSpace(s))
}

func joinLesson(a, b int) string {
	return fmt.Sprintf("%d.%d", a, b)
}

// topicFromKey returns the leading number of a dotted lesson key.
func topicFromKey(key string) *int {
	head, _, ok := strings.Cut(key, ".")
	if !ok {
		return nil
	}
	var n int
	if _, err := fmt.Sscanf(head, "%d", &n); err != nil {
		return nil
	}
	return &n
}

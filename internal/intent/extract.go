package intent

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/abhisek/mathibot/internal/textnorm"
)

var topicPatterns = []*regexp.Regexp{
	regexp.MustCompile(`que es (.+)`),
	regexp.MustCompile(`que significa (.+)`),
	regexp.MustCompile(`explica (.+)`),
	regexp.MustCompile(`definicion de (.+)`),
	regexp.MustCompile(`sobre (.+)`),
	regexp.MustCompile(`formula(?: general)?(?: para| del)? (.+)`),
}

var leadingArticles = map[string]bool{
	"la": true, "el": true, "los": true, "las": true, "un": true, "una": true,
}

const (
	maxTopicWords      = 6
	fallbackTopicWords = 3
)

// ExtractTopic guesses the subject of a question. It prefers an explicit
// "que es X" style phrase, then sequence "termino general" phrasing, then
// the last few words of the message.
func ExtractTopic(text string) (string, bool) {
	plain := textnorm.TopicKey(text)
	if plain == "" {
		return "", false
	}
	if strings.Contains(plain, "termino general") || strings.Contains(plain, "terminos generales") ||
		(strings.Contains(plain, "sucesion") && strings.Contains(plain, "termino")) {
		return "termino general", true
	}
	for _, re := range topicPatterns {
		m := re.FindStringSubmatch(plain)
		if m == nil {
			continue
		}
		words := strings.Fields(m[1])
		if len(words) > maxTopicWords {
			words = words[:maxTopicWords]
		}
		if len(words) > 0 && leadingArticles[words[0]] {
			words = words[1:]
		}
		if len(words) > 0 {
			return strings.Join(words, " "), true
		}
	}
	words := strings.Fields(plain)
	if len(words) > fallbackTopicWords {
		words = words[len(words)-fallbackTopicWords:]
	}
	return strings.Join(words, " "), true
}

var (
	structUnitRe   = regexp.MustCompile(`unidad\s+(\d{1,3})`)
	structPairRe   = regexp.MustCompile(`(\d{1,3})\s*[./-]\s*(\d{1,3})`)
	structLessonRe = regexp.MustCompile(`leccion\s+(\d{1,3})`)

	lessonTextRe = regexp.MustCompile(`leccion\s+(\d{1,3})[./-](\d{1,3})`)
	bareLessonRe = regexp.MustCompile(`(\d{1,3})[./-](\d{1,3})`)
)

// Structure holds lesson coordinates parsed from free text. Nil means the
// coordinate was not mentioned.
type Structure struct {
	Unit   *int
	Topic  *int
	Lesson *int
}

// ParseStructure pulls "unidad N", an "A.B" pair and "leccion N" out of
// text. The pair is read as topic.lesson when a unit was named and as
// unit.lesson otherwise; "leccion N" only fills a lesson still missing.
func ParseStructure(text string) Structure {
	var s Structure
	txt := textnorm.Normalize(text)
	if txt == "" {
		return s
	}
	if m := structUnitRe.FindStringSubmatch(txt); m != nil {
		s.Unit = atoiPtr(m[1])
	}
	if m := structPairRe.FindStringSubmatch(txt); m != nil {
		a, b := atoiPtr(m[1]), atoiPtr(m[2])
		if s.Unit != nil {
			s.Topic, s.Lesson = a, b
		} else {
			s.Unit, s.Lesson = a, b
		}
	}
	if s.Lesson == nil {
		if m := structLessonRe.FindStringSubmatch(txt); m != nil {
			s.Lesson = atoiPtr(m[1])
		}
	}
	return s
}

// ParseLessonText finds a dotted lesson number such as "leccion 2.3" or a
// bare "2-3" and returns its two halves.
func ParseLessonText(text string) (topic, lesson int, ok bool) {
	txt := textnorm.Normalize(text)
	m := lessonTextRe.FindStringSubmatch(txt)
	if m == nil {
		m = bareLessonRe.FindStringSubmatch(txt)
	}
	if m == nil {
		return 0, 0, false
	}
	topic, _ = strconv.Atoi(m[1])
	lesson, _ = strconv.Atoi(m[2])
	return topic, lesson, true
}

func atoiPtr(s string) *int {
	n, err := strconv.Atoi(s)
	if err != nil {
		return nil
	}
	return &n
}

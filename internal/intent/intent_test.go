package intent

import "testing"

func TestLessonQueryRules(t *testing.T) {
	tests := []struct {
		text string
		rule string
	}{
		{"unidad 2 leccion 3, explica el tema", "unit-reference"},
		{"Lección 4 por favor", "lesson-reference"},
		{"quiero ver el tema 1", "topic-reference"},
		{"repasemos la 2.3", "dotted-coordinates"},
		{"repasemos la 2 - 3", "dotted-coordinates"},
		{"Según la lección, ¿qué es un vector?", "lesson-marker"},
		{"que es la hiperbola", ""},
		{"", ""},
	}
	for _, tt := range tests {
		got, ok := LessonQueryRules.Evaluate(tt.text)
		if got != tt.rule || ok != (tt.rule != "") {
			t.Errorf("Evaluate(%q) = (%q, %v), want %q", tt.text, got, ok, tt.rule)
		}
		if LooksLikeLessonQuery(tt.text) != (tt.rule != "") {
			t.Errorf("LooksLikeLessonQuery(%q) disagrees with rule set", tt.text)
		}
	}
}

func TestLooksLikeGeneralReset(t *testing.T) {
	tests := []struct {
		text string
		want bool
	}{
		{"Cambia a modo general", true},
		{"ahora otro tema", true},
		{"una pregunta general: que es pi", true},
		{"sin usar la lección", true},
		{"sigamos con la leccion", false},
		{"", false},
	}
	for _, tt := range tests {
		if got := LooksLikeGeneralReset(tt.text); got != tt.want {
			t.Errorf("LooksLikeGeneralReset(%q) = %v, want %v", tt.text, got, tt.want)
		}
	}
}

func TestExerciseRules(t *testing.T) {
	tests := []struct {
		text string
		rule string
	}{
		{"explícame paso a paso", "step-by-step-phrase"},
		{"resuelve 5x + 3 = 18", "directive-with-digits-or-context"},
		{"simplifica la expresion", "directive-with-digits-or-context"},
		{"tengo un triangulo de lados 3 4 y 5", "digits-with-context-noun"},
		{"cuanto mide un lado de 5 cm", "digits-with-measurement"},
		{"x + y = 7 y x - y = 1", "equals-number"},
		{"2+2", "inline-binary-operation"},
		{"cual es el doble de 8", "interrogative-with-digits"},
		{"8 es un numero primo?", "copula-with-digits"},
		{"hola, como estas", ""},
		{"¿qué es la hipérbola?", ""},
		{"unidad 2 leccion 3, explica el tema", ""},
	}
	for _, tt := range tests {
		got, ok := ExerciseRules.Evaluate(tt.text)
		if got != tt.rule || ok != (tt.rule != "") {
			t.Errorf("Evaluate(%q) = (%q, %v), want %q", tt.text, got, ok, tt.rule)
		}
		if LooksLikeExerciseRequest(tt.text) != (tt.rule != "") {
			t.Errorf("LooksLikeExerciseRequest(%q) disagrees with rule set", tt.text)
		}
	}
}

func TestExerciseRules_VariableAssignment(t *testing.T) {
	rule := ExerciseRules[len(ExerciseRules)-1]
	if rule.Name != "variable-assignment" {
		t.Fatalf("last rule = %q, want variable-assignment", rule.Name)
	}
	if !rule.Match("si x = 4") {
		t.Error("expected match on x = 4")
	}
	if rule.Match("si a = 4") {
		t.Error("unexpected match on a = 4")
	}
}

func TestFinalAnswerRules(t *testing.T) {
	tests := []struct {
		text string
		rule string
	}{
		{"Dame la respuesta", "answer-marker"},
		{"¿Cuál es el resultado?", "answer-marker"},
		{"solo dime resultado", "only-give-result"},
		{"no sé cuál es respuesta", "dont-know-answer"},
		{"sin pasos, la respuesta", "without-steps"},
		{"solo quiero ver la respuesta", "only-answer"},
		{"explica el tema", ""},
		{"", ""},
	}
	for _, tt := range tests {
		got, ok := FinalAnswerRules.Evaluate(tt.text)
		if got != tt.rule || ok != (tt.rule != "") {
			t.Errorf("Evaluate(%q) = (%q, %v), want %q", tt.text, got, ok, tt.rule)
		}
		if LooksLikeFinalAnswerRequest(tt.text) != (tt.rule != "") {
			t.Errorf("LooksLikeFinalAnswerRequest(%q) disagrees with rule set", tt.text)
		}
	}
}

func TestExtractTopic(t *testing.T) {
	tests := []struct {
		text string
		want string
		ok   bool
	}{
		{"¿Qué es la hipérbola?", "hiperbola", true},
		{"Explica el teorema de pitagoras por favor ahora mismo ya", "teorema de pitagoras por favor", true},
		{"dame la formula general para la cuadratica", "cuadratica", true},
		{"en una sucesion como saco el termino n", "termino general", true},
		{"ayudame con fracciones equivalentes hoy", "fracciones equivalentes hoy", true},
		{"derivadas", "derivadas", true},
		{"", "", false},
		{"?!", "", false},
	}
	for _, tt := range tests {
		got, ok := ExtractTopic(tt.text)
		if got != tt.want || ok != tt.ok {
			t.Errorf("ExtractTopic(%q) = (%q, %v), want (%q, %v)", tt.text, got, ok, tt.want, tt.ok)
		}
	}
}

func intp(n int) *int { return &n }

func eqPtr(a, b *int) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

func TestParseStructure(t *testing.T) {
	tests := []struct {
		text                string
		unit, topic, lesson *int
	}{
		{"unidad 2 leccion 3, explica el tema", intp(2), nil, intp(3)},
		{"Unidad 1, lección 2.3", intp(1), intp(2), intp(3)},
		{"leccion 4.2", intp(4), nil, intp(2)},
		{"leccion 7", nil, nil, intp(7)},
		{"hola", nil, nil, nil},
	}
	for _, tt := range tests {
		got := ParseStructure(tt.text)
		if !eqPtr(got.Unit, tt.unit) || !eqPtr(got.Topic, tt.topic) || !eqPtr(got.Lesson, tt.lesson) {
			t.Errorf("ParseStructure(%q) = %+v", tt.text, got)
		}
	}
}

func TestParseLessonText(t *testing.T) {
	tests := []struct {
		text          string
		topic, lesson int
		ok            bool
	}{
		{"leccion 2.3", 2, 3, true},
		{"Lección 2/3", 2, 3, true},
		{"ver 4-1 ahora", 4, 1, true},
		{"nada por aqui", 0, 0, false},
	}
	for _, tt := range tests {
		topic, lesson, ok := ParseLessonText(tt.text)
		if topic != tt.topic || lesson != tt.lesson || ok != tt.ok {
			t.Errorf("ParseLessonText(%q) = (%d, %d, %v)", tt.text, topic, lesson, ok)
		}
	}
}

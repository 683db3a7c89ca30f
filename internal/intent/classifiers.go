package intent

import (
	"regexp"
	"strings"
)

var (
	unitRefRe    = regexp.MustCompile(`\bunidad\s*\d+`)
	lessonRefRe  = regexp.MustCompile(`\bleccion\s*\d+`)
	topicRefRe   = regexp.MustCompile(`\btema\s*\d+`)
	dottedPairRe = regexp.MustCompile(`\b\d+\s*[./-]\s*\d+\b`)
)

// LessonQueryRules detect a message anchored to curriculum material.
var LessonQueryRules = RuleSet{
	{Name: "unit-reference", Match: matches(unitRefRe)},
	{Name: "lesson-reference", Match: matches(lessonRefRe)},
	{Name: "topic-reference", Match: matches(topicRefRe)},
	{Name: "dotted-coordinates", Match: matches(dottedPairRe)},
	{Name: "lesson-marker", Match: containsAny(
		"segun la leccion",
		"segun la unidad",
		"contenido de la leccion",
		"teoria de la leccion",
		"resume la leccion",
		"apoyo en la unidad",
	)},
}

// GeneralResetRules detect a request to leave lesson-anchored mode.
var GeneralResetRules = RuleSet{
	{Name: "reset-marker", Match: containsAny(
		"cambia a modo general",
		"sin usar la leccion",
		"otro tema",
		"pregunta general",
		"modo libre",
		"sin contexto de lecciones",
	)},
}

var (
	directiveKeywords = []string{
		"resuelve", "resolver", "soluciona", "solucion", "solucionar", "calcula", "calcular",
		"hallar", "determina", "encuentra", "obtiene", "obten", "despeja", "simplifica",
		"factoriza", "evalua", "deriva", "derivar", "integra", "integral",
		"limite", "limites", "resultado", "resolucion",
	}
	contextKeywords = []string{
		"ejercicio", "problema", "ecuacion", "inecuacion", "sistema", "expresion",
		"fraccion", "polinomio", "funcion", "integral", "derivada", "limite",
		"triangulo", "rectangulo", "angulo", "perimetro", "area", "volumen",
		"hipotenusa", "cateto", "probabilidad", "porcentaje", "pendiente", "vector",
		"matriz", "distancia", "velocidad", "tiempo",
	}

	measurementRe   = regexp.MustCompile(`\d\s*(?:cm|mm|km|kg|m|g|l|litros?|grados?|segundos?|minutos?|horas?)\b`)
	equalsNumberRe  = regexp.MustCompile(`=\s*-?\d`)
	inlineOpRe      = regexp.MustCompile(`\b\d+\s*[+\-*/^]\s*\d+`)
	interrogativeRe = regexp.MustCompile(`\b(?:cual|que)\s+(?:es|sera)\b`)
	copulaRe        = regexp.MustCompile(`\b(?:es|son)\s+(?:un|una|el|la)\b`)
	assignmentRe    = regexp.MustCompile(`\b[xyznt]\s*=\s*-?\d`)
)

// ExerciseRules detect a request to solve a concrete exercise. The order
// goes from explicit phrasing to weaker numeric heuristics.
var ExerciseRules = RuleSet{
	{Name: "step-by-step-phrase", Match: containsAny(
		"paso a paso", "muestra la solucion", "dame la solucion", "dame el resultado",
	)},
	{Name: "directive-with-digits-or-context", Match: func(text string) bool {
		if !containsAny(directiveKeywords...)(text) {
			return false
		}
		return hasDigits(text) || containsAny(contextKeywords...)(text)
	}},
	{Name: "digits-with-context-noun", Match: func(text string) bool {
		return hasDigits(text) && containsAny(contextKeywords...)(text)
	}},
	{Name: "digits-with-measurement", Match: matches(measurementRe)},
	{Name: "equals-number", Match: func(text string) bool {
		return hasDigits(text) && equalsNumberRe.MatchString(text)
	}},
	{Name: "inline-binary-operation", Match: matches(inlineOpRe)},
	{Name: "interrogative-with-digits", Match: func(text string) bool {
		return hasDigits(text) && interrogativeRe.MatchString(text)
	}},
	{Name: "copula-with-digits", Match: func(text string) bool {
		return hasDigits(text) && copulaRe.MatchString(text)
	}},
	{Name: "variable-assignment", Match: matches(assignmentRe)},
}

var (
	onlyGiveResultRe = regexp.MustCompile(`\bsolo\s+(?:dame|dime)\s+(?:el\s+)?resultado`)
	dontKnowAnswerRe = regexp.MustCompile(`no\s+se\s+cual\s+es\s+(?:la\s+)?respuesta`)
	finalAnswerRe    = regexp.MustCompile(`\b(?:respuesta|resultado)\s+final\b`)
)

// FinalAnswerRules detect a demand for just the final answer.
var FinalAnswerRules = RuleSet{
	{Name: "answer-marker", Match: containsAny(
		"dame la respuesta", "dame la respuesta final", "cual es la respuesta", "cual es la respuesta final",
		"cual es el resultado", "resultado final", "solo el resultado", "solo la respuesta",
		"respuesta corta", "dime la respuesta", "dime el resultado", "quiero la respuesta",
		"necesito la respuesta", "resultado exacto", "respuesta exacta", "respuesta final por favor",
	)},
	{Name: "only-give-result", Match: matches(onlyGiveResultRe)},
	{Name: "dont-know-answer", Match: matches(dontKnowAnswerRe)},
	{Name: "final-answer", Match: matches(finalAnswerRe)},
	{Name: "without-steps", Match: func(text string) bool {
		return strings.Contains(text, "sin pasos") && mentionsAnswer(text)
	}},
	{Name: "only-answer", Match: func(text string) bool {
		return strings.Contains(text, "solo") && mentionsAnswer(text)
	}},
}

func mentionsAnswer(text string) bool {
	return strings.Contains(text, "respuesta") || strings.Contains(text, "resultado")
}

// LooksLikeLessonQuery reports whether text references a unit, lesson or
// topic, or explicitly asks about lesson material.
func LooksLikeLessonQuery(text string) bool {
	_, ok := LessonQueryRules.Evaluate(text)
	return ok
}

// LooksLikeGeneralReset reports whether text asks to leave lesson mode.
func LooksLikeGeneralReset(text string) bool {
	_, ok := GeneralResetRules.Evaluate(text)
	return ok
}

// LooksLikeExerciseRequest reports whether text asks to solve an exercise.
func LooksLikeExerciseRequest(text string) bool {
	_, ok := ExerciseRules.Evaluate(text)
	return ok
}

// LooksLikeFinalAnswerRequest reports whether text demands only the final
// answer or result.
func LooksLikeFinalAnswerRequest(text string) bool {
	_, ok := FinalAnswerRules.Evaluate(text)
	return ok
}

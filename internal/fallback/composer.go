// Package fallback composes deterministic answers for turns where text
// generation failed or was skipped.
package fallback

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/abhisek/mathibot/internal/arith"
	"github.com/abhisek/mathibot/internal/intent"
	"github.com/abhisek/mathibot/internal/lessons"
	"github.com/abhisek/mathibot/internal/textnorm"
	"github.com/abhisek/mathibot/internal/variant"
)

const (
	unknownTopic = "el tema consultado"

	maxKeyPoints    = 5
	maxRelated      = 4
	lessonOnlyMiss  = "No encontre contenido en la base de lecciones para tu consulta. Indica la unidad y la leccion (por ejemplo, \"unidad 2 leccion 3\") o desactiva la opcion de responder solo con la base de datos."
	genericExercise = "Plantea un ejercicio equivalente del mismo tipo (misma estructura y objetivo) modificando ligeramente los valores numericos del enunciado original para practicar el mismo procedimiento."
)

var sqrtRe = regexp.MustCompile(`raiz cuadrada de\s*([0-9]+(?:[.,][0-9]+)?)`)

// Composer renders fallback answers from a template catalog.
type Composer struct {
	catalog  *Catalog
	variants *variant.Generator
}

// New creates a Composer. A nil catalog uses the embedded one and a nil
// generator uses the default variant tuning.
func New(catalog *Catalog, variants *variant.Generator) *Composer {
	if catalog == nil {
		catalog = DefaultCatalog()
	}
	if variants == nil {
		variants = variant.New()
	}
	return &Composer{catalog: catalog, variants: variants}
}

// General answers a free question: literal arithmetic first, then the
// curated topic summaries, the topic families and finally the generic
// review template.
func (c *Composer) General(message string) string {
	if answer, ok := c.BasicMath(message); ok {
		return answer
	}

	topic, ok := intent.ExtractTopic(message)
	label := unknownTopic
	if ok {
		label = cases.Title(language.Spanish).String(topic)
	}
	tmpl := c.catalog.lookup(textnorm.TopicKey(topic))

	return strings.NewReplacer(
		"{topic_lower}", strings.ToLower(textnorm.StripAccents(label)),
		"{topic}", label,
	).Replace(tmpl)
}

// BasicMath answers "raiz cuadrada de N" questions and literal arithmetic.
// It reports false when the message holds neither or the expression cannot
// be evaluated.
func (c *Composer) BasicMath(message string) (string, bool) {
	if strings.TrimSpace(message) == "" {
		return "", false
	}

	if m := sqrtRe.FindStringSubmatch(textnorm.Normalize(message)); m != nil {
		if v, err := strconv.ParseFloat(strings.ReplaceAll(m[1], ",", "."), 64); err == nil {
			root := arith.FormatNumber(math.Sqrt(v))
			value := arith.FormatNumber(v)
			return fmt.Sprintf("La raiz cuadrada de %s es **%s**.\n\nComprobacion rapida: %s * %s = %s.",
				value, root, root, root, value), true
		}
	}

	display, expr, ok := arith.ExtractExpression(message)
	if !ok {
		return "", false
	}
	result, err := arith.Evaluate(expr)
	if err != nil {
		return "", false
	}
	return fmt.Sprintf("El resultado de la operacion `%s` es **%s**.\n\n"+
		"Recuerda respetar la jerarquia de operaciones: primero potencias y raices, "+
		"luego multiplicaciones y divisiones, y al final sumas y restas.",
		display, arith.FormatNumber(result)), true
}

// GuidedExample proposes a shifted copy of the exercise with a generic
// five-step resolution outline.
func (c *Composer) GuidedExample(message string) string {
	original := textnorm.CollapseWhitespace(message)
	ex, mapping := c.variants.Generate(original)
	if ex == "" {
		ex = genericExercise
	}

	lines := []string{
		"### Ejercicio similar propuesto",
		ex,
		"",
		"### Resolucion guiada",
		"1. Verifica que el ejercicio propuesto mantiene el mismo tipo de problema que el original (misma estructura y objetivo).",
		"2. Identifica los datos conocidos y lo que se pide.",
		"3. Determina la propiedad, formula o estrategia que resuelve el problema y justifica por que aplica.",
		"4. Sustituye los valores del ejercicio similar y desarrolla cada operacion paso a paso.",
		"5. Interpreta el resultado obtenido y verifica si responde a la pregunta planteada.",
	}
	if len(mapping) > 0 {
		lines = append(lines, "", "### Diferencias respecto al ejercicio original")
		for _, p := range mapping {
			lines = append(lines, fmt.Sprintf("- Donde el original usa %s, aqui se emplea %s.", p.Original, p.Replacement))
		}
	}
	lines = append(lines, "",
		"Ahora intenta repetir el procedimiento con tu enunciado original y contrasta tu respuesta usando los pasos anteriores.")
	return strings.Join(lines, "\n")
}

// FinalAnswer declines to reveal the result of the registered exercise.
func (c *Composer) FinalAnswer(prompt string) string {
	header := "No puedo proporcionar la respuesta final del ejercicio solicitado."
	if cleaned := textnorm.CollapseWhitespace(prompt); cleaned != "" {
		header = "No puedo proporcionar la respuesta final del ejercicio original \"" + cleaned + "\"."
	}
	return strings.Join([]string{
		header,
		"Mantengo la politica de trabajar solo con ejemplos similares para que completes tu propio proceso.",
		"Usa el ejemplo guiado como referencia, replica el metodo con tus datos y verifica tu resultado con las comprobaciones sugeridas.",
	}, "\n")
}

// LessonOnlyMiss is the answer for lesson-only turns with no matching
// lesson.
func (c *Composer) LessonOnlyMiss() string {
	return lessonOnlyMiss
}

// Context summarizes the first lesson as a study guide and lists up to
// four related lessons. It returns "" for no items.
func (c *Composer) Context(items []lessons.ContextItem) string {
	if len(items) == 0 {
		return ""
	}
	main := items[0]
	title := titleOf(main)
	topic := strings.TrimSpace(main.Topic)
	theory := strings.TrimSpace(main.Theory)
	objective := strings.TrimSpace(main.Objective)
	formulas := strings.TrimSpace(main.Formulas)
	activities := strings.TrimSpace(main.Activities)

	sentences := splitSentences(theory)
	overview := objective
	if len(sentences) > 0 {
		overview = sentences[0]
	}

	lines := []string{
		fmt.Sprintf("### Leccion %s - %s", main.LessonLabel(), title),
		"- Unidad: " + main.UnitLabel(),
	}
	if topic != "" {
		lines = append(lines, "- Tema: "+topic)
	}
	if objective != "" {
		lines = append(lines, "- Objetivo central: "+objective)
	}
	if overview != "" && overview != objective {
		lines = append(lines, "", "**Idea central resumida:** "+overview)
	}
	if theory != "" {
		lines = append(lines, "", "#### Desarrollo explicado", theory)
	}
	if len(sentences) > 0 {
		lines = append(lines, "", "#### Puntos clave")
		for _, s := range sentences[:min(maxKeyPoints, len(sentences))] {
			lines = append(lines, "- "+s)
		}
	}
	if formulas != "" {
		lines = append(lines, "", "#### Formulas o relaciones importantes", formulas)
	}

	lines = append(lines, "",
		"#### Ejemplo guiado",
		fmt.Sprintf("1. Identifica los datos conocidos relacionados con '%s'.", title),
		"2. Selecciona la formula o propiedad adecuada y reemplaza los valores.",
		"3. Realiza los calculos paso a paso explicando cada operacion.",
		"4. Verifica la respuesta analizando si el resultado tiene sentido con la situacion planteada.",
		"",
		"#### Practica adicional",
	)
	if activities != "" {
		lines = append(lines, "- Retoma una actividad sugerida: "+activities)
	}
	lines = append(lines,
		"- Plantea un ejercicio propio que use el concepto principal y resuelvelo paso a paso.",
		"- Contrasta tu solucion con otra estrategia o revisa el resultado con una estimacion rapida.",
	)

	if related := items[1:min(len(items), 1+maxRelated)]; len(related) > 0 {
		lines = append(lines, "", "#### Otras lecciones relacionadas")
		for _, it := range related {
			lines = append(lines, fmt.Sprintf("- Unidad %s - Leccion %s: %s", it.UnitLabel(), it.LessonLabel(), titleOf(it)))
		}
	}

	lines = append(lines, "", "Sigue preguntando si deseas profundizar en un subtema o ver otro ejemplo.")
	return strings.Join(lines, "\n")
}

func titleOf(it lessons.ContextItem) string {
	if t := strings.TrimSpace(it.Title); t != "" {
		return t
	}
	return "Sin titulo"
}

var sentenceEndRe = regexp.MustCompile(`[.!?]\s+`)

// splitSentences breaks text after every '.', '!' or '?' followed by
// whitespace. Line breaks count as spaces.
func splitSentences(text string) []string {
	text = strings.TrimSpace(strings.NewReplacer("\r", " ", "\n", " ").Replace(text))
	if text == "" {
		return nil
	}

	var out []string
	start := 0
	for _, loc := range sentenceEndRe.FindAllStringIndex(text, -1) {
		if s := strings.TrimSpace(text[start : loc[0]+1]); s != "" {
			out = append(out, s)
		}
		start = loc[1]
	}
	if s := strings.TrimSpace(text[start:]); s != "" {
		out = append(out, s)
	}
	return out
}

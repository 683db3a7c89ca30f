// Package guided builds the guided-example workflow: when a student asks to
// have an exercise solved, the tutor works a numerically different variant
// instead and never reveals the literal answer to the original.
package guided

import (
	"fmt"
	"strings"

	"github.com/abhisek/mathibot/internal/textnorm"
	"github.com/abhisek/mathibot/internal/variant"
)

const (
	// DefaultTruncateAt caps how much of the original statement is quoted.
	DefaultTruncateAt = 400
	// DefaultMaxMappingLines caps the "instead of X use Y" illustrations.
	DefaultMaxMappingLines = 5

	emptyStatement = "(sin enunciado)"
	genericPrefix  = "disena"
)

// GenericVariant is registered when no numeric token could be shifted.
const GenericVariant = "Disena un ejercicio equivalente del mismo tipo (misma estructura y objetivo) con valores distintos a los del enunciado original."

// Exercise is the guided-practice state carried by a session.
type Exercise struct {
	Prompt  string          `json:"prompt"`
	Variant string          `json:"variant"`
	Mapping variant.Mapping `json:"mapping,omitempty"`
}

// Active reports whether an exercise is registered.
func (e Exercise) Active() bool {
	return e.Prompt != ""
}

// HasWorkedVariant reports whether the variant is a concrete exercise
// rather than the generic instruction.
func (e Exercise) HasWorkedVariant() bool {
	v := textnorm.CollapseWhitespace(e.Variant)
	return v != "" && !strings.HasPrefix(strings.ToLower(v), genericPrefix)
}

// Anonymizer composes the guided-example instructions.
type Anonymizer struct {
	Variants        *variant.Generator
	TruncateAt      int
	MaxMappingLines int
}

// New returns an Anonymizer with the default tuning.
func New() *Anonymizer {
	return &Anonymizer{
		Variants:        variant.New(),
		TruncateAt:      DefaultTruncateAt,
		MaxMappingLines: DefaultMaxMappingLines,
	}
}

// Register records prompt as the active exercise and derives its variant.
// A variant always exists for a non-empty prompt.
func (a *Anonymizer) Register(prompt string) Exercise {
	ex := Exercise{Prompt: strings.TrimSpace(prompt)}
	if ex.Prompt == "" {
		return Exercise{}
	}
	ex.Variant, ex.Mapping = a.generator().Generate(prompt)
	if ex.Variant == "" {
		ex.Variant, ex.Mapping = variant.Fallback(prompt)
	}
	if ex.Variant == "" {
		ex.Variant, ex.Mapping = GenericVariant, nil
	}
	return ex
}

// SystemInstruction tells the generator it must not solve original.
func (a *Anonymizer) SystemInstruction(original string) string {
	return "Estas en modo libre y el estudiante pidio resolver un ejercicio.\n" +
		fmt.Sprintf("Enunciado original: \"%s\".\n", a.truncate(original)) +
		"No entregues la solucion literal del enunciado original. En su lugar, plantea un ejercicio del mismo tipo (misma estructura y objetivo) con datos distintos, resuelvelo paso a paso y explica cada fase. " +
		"Incluye recomendaciones concretas para que el estudiante aplique el metodo en su ejercicio original y deja claro que no proporcionas la respuesta exacta."
}

// UserPrompt asks the generator to work the variant as the example.
func (a *Anonymizer) UserPrompt(ex Exercise) string {
	lines := []string{
		fmt.Sprintf("Ejercicio original del estudiante: \"%s\".", orPlaceholder(ex.Prompt)),
	}
	if ex.HasWorkedVariant() {
		lines = append(lines,
			"Resuelve paso a paso el siguiente ejercicio similar (con numeros distintos al original) y explica cada operacion en lenguaje sencillo:",
			textnorm.CollapseWhitespace(ex.Variant),
		)
	} else {
		lines = append(lines, "Crea un ejercicio del mismo tipo con datos distintos al original y resuelvelo detalladamente como ejemplo guiado.")
	}
	if len(ex.Mapping) > 0 {
		lines = append(lines, "Senala las diferencias clave respecto al ejercicio original, por ejemplo:")
		for _, p := range a.limit(ex.Mapping) {
			lines = append(lines, fmt.Sprintf("- En lugar de %s usa %s en el ejemplo.", p.Original, p.Replacement))
		}
	}
	lines = append(lines,
		"Aclara que el ejemplo mantiene el mismo tipo de problema (por ejemplo, si el original es una ecuacion cuadratica, ofrece otra cuadratica con datos distintos).",
		"Aclara que el ejemplo es solo una guia y anima al estudiante a aplicar el mismo procedimiento en su enunciado.",
		"Termina con recomendaciones para que el estudiante resuelva su ejercicio original sin copiar la solucion literal.",
	)
	return strings.Join(lines, "\n")
}

// FollowupInstruction keeps later turns on the same exercise without
// revealing its solution.
func (a *Anonymizer) FollowupInstruction(ex Exercise) string {
	lines := []string{
		"El estudiante sigue practicando el mismo ejercicio original.",
		fmt.Sprintf("Ejercicio original: \"%s\".", orPlaceholder(ex.Prompt)),
	}
	if ex.HasWorkedVariant() {
		lines = append(lines, fmt.Sprintf("Manten el ejemplo similar de referencia: \"%s\".", textnorm.CollapseWhitespace(ex.Variant)))
	}
	lines = append(lines,
		"Recuerda mantener el mismo tipo de ejercicio (misma estructura y objetivo) cuando des pistas o ajustes.",
		"No reveles la solucion exacta del enunciado original. Ofrece recordatorios del procedimiento, pistas, comprobaciones y recomendaciones para que el estudiante lo resuelva por su cuenta.",
	)
	if len(ex.Mapping) > 0 {
		lines = append(lines, "Cuando des pistas, menciona diferencias como:")
		for _, p := range a.limit(ex.Mapping) {
			lines = append(lines, fmt.Sprintf("- Original: %s | Ejemplo: %s", p.Original, p.Replacement))
		}
	}
	lines = append(lines, "Si el estudiante comete un error, corrige el proceso en el ejemplo similar y sugiere como verificarlo en su ejercicio original.")
	return strings.Join(lines, "\n")
}

// FinalAnswerSystemInstruction restates the no-literal-answer policy when
// the student demands the final result.
func (a *Anonymizer) FinalAnswerSystemInstruction(original string) string {
	return "El estudiante pide la respuesta final del ejercicio original, pero debes mantener la politica de no resolverlo literalmente.\n" +
		fmt.Sprintf("Enunciado original: \"%s\".\n", a.truncate(original)) +
		"Reitera que no puedes proporcionar el resultado exacto. Refuerza el ejemplo similar o propone uno nuevo del mismo tipo, guiando como cerrar el ejercicio original sin revelar la solucion concreta."
}

// FinalAnswerUserPrompt is the user turn sent with a final-answer demand.
func (a *Anonymizer) FinalAnswerUserPrompt(original string) string {
	return strings.Join([]string{
		fmt.Sprintf("El estudiante solicita la respuesta final del ejercicio original: \"%s\".", orPlaceholder(original)),
		"Explica que la politica es no entregar la solucion exacta del enunciado original.",
		"Refuerza el procedimiento usando el ejercicio similar (o genera uno nuevo del mismo tipo) y describe como el estudiante puede obtener y verificar su propio resultado.",
	}, "\n")
}

// ExerciseContextPrompt is the user turn for an ordinary message sent while
// an exercise is active.
func (a *Anonymizer) ExerciseContextPrompt(ex Exercise, message string) string {
	lines := []string{
		fmt.Sprintf("Ejercicio original del estudiante: \"%s\".", ex.Prompt),
		fmt.Sprintf("Consulta actual: \"%s\".", strings.TrimSpace(message)),
		"Brinda orientaciones usando el ejemplo similar sin resolver el enunciado original.",
	}
	if ex.Variant != "" {
		lines = append(lines, fmt.Sprintf("Ejemplo similar de referencia: \"%s\".", ex.Variant))
	}
	return strings.Join(lines, "\n")
}

func (a *Anonymizer) generator() *variant.Generator {
	if a.Variants == nil {
		return variant.New()
	}
	return a.Variants
}

func (a *Anonymizer) truncate(s string) string {
	cleaned := textnorm.CollapseWhitespace(s)
	n := a.TruncateAt
	if n <= 0 {
		n = DefaultTruncateAt
	}
	r := []rune(cleaned)
	if len(r) <= n {
		return cleaned
	}
	return strings.TrimRight(string(r[:n]), " \t\n") + "..."
}

func (a *Anonymizer) limit(m variant.Mapping) variant.Mapping {
	n := a.MaxMappingLines
	if n <= 0 {
		n = DefaultMaxMappingLines
	}
	if len(m) > n {
		return m[:n]
	}
	return m
}

func orPlaceholder(s string) string {
	if c := textnorm.CollapseWhitespace(s); c != "" {
		return c
	}
	return emptyStatement
}

package guided

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abhisek/mathibot/internal/variant"
)

func TestRegister_NumericVariant(t *testing.T) {
	a := New()
	ex := a.Register("  resuelve 5x + 3 = 18 ")

	assert.Equal(t, "resuelve 5x + 3 = 18", ex.Prompt)
	assert.Equal(t, "resuelve 7x + 5 = 21", ex.Variant)
	assert.Equal(t, variant.Mapping{{Original: "5", Replacement: "7"}, {Original: "3", Replacement: "5"}, {Original: "18", Replacement: "21"}}, ex.Mapping)
	assert.True(t, ex.Active())
	assert.True(t, ex.HasWorkedVariant())
}

func TestRegister_GenericWhenNothingShifts(t *testing.T) {
	ex := New().Register("factoriza x^2 - y^2")

	assert.Equal(t, GenericVariant, ex.Variant)
	assert.Empty(t, ex.Mapping)
	assert.False(t, ex.HasWorkedVariant())
}

func TestRegister_Empty(t *testing.T) {
	ex := New().Register("   ")
	assert.False(t, ex.Active())
	assert.Empty(t, ex.Variant)
}

func TestSystemInstruction_Truncates(t *testing.T) {
	a := New()
	a.TruncateAt = 10
	got := a.SystemInstruction("resuelve   esta ecuacion larguisima")

	assert.Contains(t, got, `Enunciado original: "resuelve e...".`)
	assert.Contains(t, got, "No entregues la solucion literal del enunciado original.")
}

func TestSystemInstruction_DefaultLimit(t *testing.T) {
	long := strings.Repeat("a", 450)
	got := New().SystemInstruction(long)
	assert.Contains(t, got, strings.Repeat("a", 400)+"...")
	assert.NotContains(t, got, strings.Repeat("a", 401))
}

func TestUserPrompt(t *testing.T) {
	a := New()
	ex := a.Register("resuelve 5x + 3 = 18")
	got := a.UserPrompt(ex)

	lines := strings.Split(got, "\n")
	require.GreaterOrEqual(t, len(lines), 4)
	assert.Equal(t, `Ejercicio original del estudiante: "resuelve 5x + 3 = 18".`, lines[0])
	assert.Equal(t, "resuelve 7x + 5 = 21", lines[2])
	assert.Contains(t, got, "- En lugar de 5 usa 7 en el ejemplo.")
	assert.Contains(t, got, "- En lugar de 18 usa 21 en el ejemplo.")
	assert.True(t, strings.HasSuffix(got, "sin copiar la solucion literal."))
}

func TestUserPrompt_GenericVariant(t *testing.T) {
	a := New()
	got := a.UserPrompt(Exercise{Prompt: "factoriza x^2", Variant: GenericVariant})

	assert.Contains(t, got, "Crea un ejercicio del mismo tipo con datos distintos")
	assert.NotContains(t, got, GenericVariant)
}

func TestMappingLinesCapped(t *testing.T) {
	a := New()
	mapping := variant.Mapping{{Original: "1", Replacement: "3"}, {Original: "2", Replacement: "4"}, {Original: "3", Replacement: "5"}, {Original: "4", Replacement: "6"}, {Original: "5", Replacement: "7"}, {Original: "6", Replacement: "8"}, {Original: "7", Replacement: "9"}}
	ex := Exercise{Prompt: "suma 1 2 3 4 5 6 7", Variant: "suma 3 4 5 6 7 8 9", Mapping: mapping}

	assert.Equal(t, 5, strings.Count(a.UserPrompt(ex), "- En lugar de"))
	assert.Equal(t, 5, strings.Count(a.FollowupInstruction(ex), "- Original:"))
}

func TestFollowupInstruction(t *testing.T) {
	a := New()
	ex := a.Register("resuelve 5x + 3 = 18")
	got := a.FollowupInstruction(ex)

	assert.Contains(t, got, `Manten el ejemplo similar de referencia: "resuelve 7x + 5 = 21".`)
	assert.Contains(t, got, "No reveles la solucion exacta del enunciado original.")
	assert.Contains(t, got, "- Original: 3 | Ejemplo: 5")
}

func TestFinalAnswerTexts(t *testing.T) {
	a := New()
	sys := a.FinalAnswerSystemInstruction("resuelve 5x + 3 = 18")
	assert.Contains(t, sys, `Enunciado original: "resuelve 5x + 3 = 18".`)
	assert.Contains(t, sys, "no puedes proporcionar el resultado exacto")

	user := a.FinalAnswerUserPrompt("")
	assert.Contains(t, user, `ejercicio original: "(sin enunciado)".`)
}

func TestExerciseContextPrompt(t *testing.T) {
	a := New()
	ex := a.Register("resuelve 5x + 3 = 18")
	got := a.ExerciseContextPrompt(ex, " y ahora que hago? ")

	want := strings.Join([]string{
		`Ejercicio original del estudiante: "resuelve 5x + 3 = 18".`,
		`Consulta actual: "y ahora que hago?".`,
		"Brinda orientaciones usando el ejemplo similar sin resolver el enunciado original.",
		`Ejemplo similar de referencia: "resuelve 7x + 5 = 21".`,
	}, "\n")
	assert.Equal(t, want, got)
}

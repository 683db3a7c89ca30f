package llm

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestModelCandidates(t *testing.T) {
	cfg := Config{
		Provider:       "openai",
		Models:         []string{"gpt-4.1", " gpt-4o "},
		ModelFallbacks: []string{"gpt-4o", "custom-model"},
	}

	got := ModelCandidates(cfg, "gpt-4.1-mini")

	require.GreaterOrEqual(t, len(got), 4)
	assert.Equal(t, []string{"gpt-4.1", "gpt-4o", "gpt-4.1-mini", "custom-model"}, got[:4])

	seen := map[string]int{}
	for _, m := range got {
		seen[m]++
	}
	for m, n := range seen {
		assert.Equalf(t, 1, n, "model %q listed %d times", m, n)
	}
	assert.Contains(t, got, "gpt-3.5-turbo")
}

func TestModelCandidates_NonOpenAISkipsDefaults(t *testing.T) {
	got := ModelCandidates(Config{Provider: "anthropic"}, "claude-sonnet")
	assert.Equal(t, []string{"claude-sonnet"}, got)
}

func TestSplitModels(t *testing.T) {
	assert.Equal(t, []string{"a", "b"}, SplitModels(" a, ,b ,"))
	assert.Nil(t, SplitModels(""))
}

func TestCandidateProvider_FirstSuccessWins(t *testing.T) {
	mock := NewMockProvider(
		MockResponse{Err: &ErrProviderUnavailable{Err: errors.New("model not found")}},
		MockResponse{Text: "respuesta"},
	)
	p := WithCandidates(mock, []string{"m1", "m2", "m3"}, nil)

	resp, err := p.Generate(context.Background(), Request{Messages: []Message{{Role: RoleUser, Content: "hola"}}})
	require.NoError(t, err)
	assert.Equal(t, "respuesta", resp.Text)
	assert.Equal(t, "m2", resp.Model)
	require.Equal(t, 2, mock.CallCount())
	assert.Equal(t, "m1", mock.Calls[0].Model)
	assert.Equal(t, "m2", mock.Calls[1].Model)
}

func TestCandidateProvider_EmptyTextMovesOn(t *testing.T) {
	mock := NewMockProvider(
		MockResponse{Text: "   "},
		MockResponse{Text: "ok"},
	)
	p := WithCandidates(mock, []string{"m1", "m2"}, nil)

	resp, err := p.Generate(context.Background(), Request{})
	require.NoError(t, err)
	assert.Equal(t, "ok", resp.Text)
}

func TestCandidateProvider_AuthenticationStops(t *testing.T) {
	mock := NewMockProvider(
		MockResponse{Err: &ErrAuthentication{Err: errors.New("bad key")}},
		MockResponse{Text: "never"},
	)
	p := WithCandidates(mock, []string{"m1", "m2"}, nil)

	_, err := p.Generate(context.Background(), Request{})
	var auth *ErrAuthentication
	require.ErrorAs(t, err, &auth)
	assert.Equal(t, 1, mock.CallCount())
}

func TestCandidateProvider_AllFail(t *testing.T) {
	mock := NewMockProvider(
		MockResponse{Err: &ErrProviderUnavailable{Err: errors.New("down")}},
		MockResponse{Err: &ErrRateLimit{Err: errors.New("slow down")}},
	)
	p := WithCandidates(mock, []string{"m1", "m2"}, nil)

	_, err := p.Generate(context.Background(), Request{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "m1, m2")
	var rl *ErrRateLimit
	assert.ErrorAs(t, err, &rl)
}

func TestCandidateProvider_DefaultsToInnerModel(t *testing.T) {
	p := WithCandidates(NewMockProvider(), nil, nil)
	assert.Equal(t, "mock", p.ModelID())
	assert.Equal(t, []string{"mock"}, p.Models())
}

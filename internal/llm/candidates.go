package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/abhisek/mathibot/internal/candidates"
)

// DefaultModelFallbacks are tried after any configured models when the
// provider is OpenAI.
var DefaultModelFallbacks = []string{
	"gpt-4o-mini",
	"gpt-4o",
	"gpt-4o-mini-2024-07-18",
	"gpt-4o-mini-2024-04-09",
	"gpt-4.1-mini",
	"gpt-4.1",
	"gpt-4-turbo",
	"gpt-3.5-turbo",
}

// ModelCandidates returns the ordered, de-duplicated list of models to try:
// primary models, then the explicit model, then configured fallbacks, then
// the OpenAI defaults.
func ModelCandidates(cfg Config, explicit string) []string {
	var out []string
	seen := make(map[string]bool)
	add := func(name string) {
		name = strings.TrimSpace(name)
		if name == "" || seen[name] {
			return
		}
		seen[name] = true
		out = append(out, name)
	}
	for _, m := range cfg.Models {
		add(m)
	}
	add(explicit)
	for _, m := range cfg.ModelFallbacks {
		add(m)
	}
	if cfg.Provider == "openai" {
		for _, m := range DefaultModelFallbacks {
			add(m)
		}
	}
	return out
}

// SplitModels parses a comma separated model list.
func SplitModels(value string) []string {
	var out []string
	for _, part := range strings.Split(value, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// CandidateProvider tries each model in order until one returns text.
// An authentication rejection stops the walk immediately since every
// model shares the same key.
type CandidateProvider struct {
	inner  Provider
	models []string
	logger *zap.Logger
}

// WithCandidates wraps p so each Generate walks models in order. With an
// empty list it uses the inner provider's model only.
func WithCandidates(p Provider, models []string, logger *zap.Logger) *CandidateProvider {
	if logger == nil {
		logger = zap.NewNop()
	}
	if len(models) == 0 {
		models = []string{p.ModelID()}
	}
	return &CandidateProvider{inner: p, models: models, logger: logger}
}

func (c *CandidateProvider) Generate(ctx context.Context, req Request) (*Response, error) {
	resp, err := candidates.First(ctx, c.models, func(ctx context.Context, model string) (*Response, error) {
		attempt := req
		attempt.Model = model
		resp, err := c.inner.Generate(ctx, attempt)
		if err != nil {
			var auth *ErrAuthentication
			if errors.As(err, &auth) {
				return nil, candidates.Stop(err)
			}
			if ctxErr := ctx.Err(); ctxErr != nil {
				return nil, candidates.Stop(ctxErr)
			}
			c.logger.Warn("model failed", zap.String("model", model), zap.Error(err))
			return nil, err
		}
		if strings.TrimSpace(resp.Text) == "" {
			return nil, &ErrInvalidResponse{Err: fmt.Errorf("%s: empty response", model)}
		}
		return resp, nil
	})
	if err != nil {
		return nil, fmt.Errorf("no model produced a response (%s): %w", strings.Join(c.models, ", "), err)
	}
	return resp, nil
}

// ModelID returns the first candidate.
func (c *CandidateProvider) ModelID() string {
	return c.models[0]
}

// Models returns the candidate list in trial order.
func (c *CandidateProvider) Models() []string {
	return append([]string(nil), c.models...)
}

// Package candidates implements the "try each option in order until one
// succeeds" pattern used for model selection and lesson lookup strategies.
package candidates

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// ErrNoCandidates is returned by First when the candidate list is empty.
var ErrNoCandidates = errors.New("no candidates configured")

// ErrSkip may be returned by an attempt to move on to the next candidate
// without recording it as a failure, e.g. when a lookup found nothing.
var ErrSkip = errors.New("candidate skipped")

// Fatal marks an error that must stop iteration immediately.
type Fatal struct {
	Err error
}

func (e *Fatal) Error() string { return e.Err.Error() }

func (e *Fatal) Unwrap() error { return e.Err }

// Stop wraps err so that First returns it without trying further candidates.
func Stop(err error) error {
	if err == nil {
		return nil
	}
	return &Fatal{Err: err}
}

// Attempt tries a single candidate.
type Attempt[T, R any] func(ctx context.Context, candidate T) (R, error)

// Failure records why a candidate was passed over.
type Failure[T any] struct {
	Candidate T
	Err       error
}

// ExhaustedError is returned when every candidate failed.
type ExhaustedError[T any] struct {
	Failures []Failure[T]
}

func (e *ExhaustedError[T]) Error() string {
	if len(e.Failures) == 0 {
		return "all candidates exhausted"
	}
	parts := make([]string, len(e.Failures))
	for i, f := range e.Failures {
		parts[i] = fmt.Sprintf("%v: %v", f.Candidate, f.Err)
	}
	return "all candidates exhausted: " + strings.Join(parts, "; ")
}

// Unwrap exposes the last recorded failure.
func (e *ExhaustedError[T]) Unwrap() error {
	if len(e.Failures) == 0 {
		return nil
	}
	return e.Failures[len(e.Failures)-1].Err
}

// First calls try for each candidate in order and returns the first
// successful result.
//
// A recoverable error moves on to the next candidate. An error wrapped
// with Stop, or a cancelled context, ends the loop and is returned as-is
// (unwrapped from Fatal). If every candidate fails, an *ExhaustedError
// listing each failure is returned.
func First[T, R any](ctx context.Context, list []T, try Attempt[T, R]) (R, error) {
	var zero R
	if len(list) == 0 {
		return zero, ErrNoCandidates
	}

	exhausted := &ExhaustedError[T]{}
	for _, c := range list {
		if err := ctx.Err(); err != nil {
			return zero, err
		}

		res, err := try(ctx, c)
		if err == nil {
			return res, nil
		}

		var fatal *Fatal
		if errors.As(err, &fatal) {
			return zero, fatal.Err
		}
		if errors.Is(err, ErrSkip) {
			continue
		}
		exhausted.Failures = append(exhausted.Failures, Failure[T]{Candidate: c, Err: err})
	}
	return zero, exhausted
}

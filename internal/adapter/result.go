package adapter

import (
	"context"
	"speakexam/internal/logger"
	"speakexam/internal/schema"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v6"
	"github.com/sirupsen/logrus"
)

// Result is the outcome of a capability call. Value is always usable: on
// failure it holds the fallback supplied by the call site and Err says why.
type Result[T any] struct {
	Value T
	Err   error
}

// Fallback reports whether Value came from the fallback
func (r Result[T]) Fallback() bool {
	return r.Err != nil
}

// WithFallback runs fn once. On error the failure is logged and fallback is returned.
func WithFallback[T any](op string, fallback T, fn func() (T, error)) Result[T] {
	v, err := fn()
	if err != nil {
		logger.Log.WithFields(logrus.Fields{
			"op":    op,
			"error": err.Error(),
		}).Warn("adapter call failed, using fallback")
		return Result[T]{Value: fallback, Err: &Error{Op: op, Err: err}}
	}
	return Result[T]{Value: v}
}

// Text generates free-form text. Blank output counts as a failure.
func Text(ctx context.Context, g Generator, op string, req Request, fallback string) Result[string] {
	return WithFallback(op, fallback, func() (string, error) {
		out, err := g.Generate(ctx, req)
		if err != nil {
			return "", err
		}
		out = strings.TrimSpace(out)
		if out == "" {
			return "", ErrEmpty
		}
		return out, nil
	})
}

// JSON generates structured output, validates it against sch and decodes it
// into a T. Malformed or non-conforming output counts as a failure.
func JSON[T any](ctx context.Context, g Generator, op string, req Request, sch *jsonschema.Schema, fallback T) Result[T] {
	return WithFallback(op, fallback, func() (T, error) {
		var out T
		raw, err := g.GenerateJSON(ctx, req)
		if err != nil {
			return out, err
		}
		if err := schema.Decode(sch, raw, &out); err != nil {
			return out, err
		}
		return out, nil
	})
}

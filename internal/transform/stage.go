// Package transform provides a small, generic pipeline abstraction that runs
// independent steps in parallel within a stage, while enforcing sequential
// execution between stages. The batch engine uses it for the per-item
// transformation.
package transform

import (
	"context"
	"time"
)

// Step is a single operation that mutates the given item. Steps in the same
// stage run concurrently on the same item, so they must not write the same
// field. The context must be observed for cancellation and deadlines.
//
// Example:
//
//	func addTitle(ctx context.Context, m *MyType) error { m.Title = "..."; return nil }
type Step[T any] func(ctx context.Context, item *T) error

// Stage groups steps that are safe to execute in parallel for a single item.
type Stage[T any] struct {
	steps []Step[T]
}

// NewStage constructs a Stage from the provided steps.
func NewStage[T any](steps ...Step[T]) Stage[T] {
	return Stage[T]{steps: steps}
}

// Delay returns a step that waits for d. It returns the context error when the
// context ends first instead of finishing the wait.
func Delay[T any](d time.Duration) Step[T] {
	return func(ctx context.Context, _ *T) error {
		if d <= 0 {
			return ctx.Err()
		}
		timer := time.NewTimer(d)
		defer timer.Stop()
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-timer.C:
			return nil
		}
	}
}

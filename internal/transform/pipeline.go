package transform

import (
	"context"
	"errors"
	"fmt"
	"sync"
)

// Pipeline applies a sequence of stages to an item. Steps within a stage run
// in parallel; stages run one after another.
type Pipeline[T any] struct {
	stages []Stage[T]
}

// NewPipeline constructs a Pipeline from the provided stages. Stages will be
// applied to each item in order.
func NewPipeline[T any](stages ...Stage[T]) *Pipeline[T] {
	return &Pipeline[T]{stages: stages}
}

// Apply runs every stage against item. All steps in a stage are started
// concurrently and must complete before the next stage starts (a stage
// barrier). If any step of a stage fails, the remaining stages are not run and
// the joined step errors are returned.
func (p *Pipeline[T]) Apply(ctx context.Context, item *T) error {
	for i, stage := range p.stages {
		if err := ctx.Err(); err != nil {
			return err
		}

		var (
			wg   sync.WaitGroup
			mu   sync.Mutex
			errs []error
		)
		for _, step := range stage.steps {
			wg.Add(1)
			go func(step Step[T]) {
				defer wg.Done()
				if err := step(ctx, item); err != nil {
					mu.Lock()
					errs = append(errs, err)
					mu.Unlock()
				}
			}(step)
		}
		wg.Wait()

		if len(errs) > 0 {
			return fmt.Errorf("stage %d: %w", i, errors.Join(errs...))
		}
	}
	return nil
}

package batch

import (
	"context"
	"errors"
	"fmt"
	"time"

	"itemservice/internal/models"
	"itemservice/internal/storage"
	"itemservice/internal/transform"
)

// DefaultProcessDelay is the simulated per-item processing time.
const DefaultProcessDelay = 100 * time.Millisecond

// ItemReadWriter is the part of the record store a Processor uses.
type ItemReadWriter interface {
	Get(ctx context.Context, id int64) (models.Item, error)
	Save(ctx context.Context, item models.Item) (models.Item, error)
}

// Processor fetches one item, transforms it and stores it back. It touches no
// shared state besides the store; its result is only the returned Outcome.
type Processor struct {
	store    ItemReadWriter
	pipeline *transform.Pipeline[models.Item]
}

// NewProcessor returns a Processor that waits for delay and then marks the
// item as processed.
func NewProcessor(store ItemReadWriter, delay time.Duration) *Processor {
	return NewProcessorWithPipeline(store, transform.NewPipeline(
		transform.NewStage(transform.Delay[models.Item](delay)),
		transform.NewStage(SetStatus(models.StatusProcessed)),
	))
}

// NewProcessorWithPipeline returns a Processor applying a custom pipeline.
func NewProcessorWithPipeline(store ItemReadWriter, pipeline *transform.Pipeline[models.Item]) *Processor {
	return &Processor{store: store, pipeline: pipeline}
}

// SetStatus returns a transform step that sets the item status.
func SetStatus(status string) transform.Step[models.Item] {
	return func(_ context.Context, item *models.Item) error {
		item.Status = status
		return nil
	}
}

// Process runs the item with the given id through fetch, transform and store.
// It never returns an error; every failure is reported in the Outcome.
func (p *Processor) Process(ctx context.Context, id int64) Outcome {
	item, err := p.store.Get(ctx, id)
	if errors.Is(err, storage.ErrNotFound) {
		return Skipped(id, ReasonNotFound)
	}
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return Failed(id, fmt.Errorf("%w: %w", contextCause(ctxErr), err))
		}
		return Failed(id, fmt.Errorf("%w: fetch: %w", ErrPersistence, err))
	}

	if err := p.pipeline.Apply(ctx, &item); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return Failed(id, fmt.Errorf("%w: %w", contextCause(ctxErr), err))
		}
		return Failed(id, fmt.Errorf("%w: %w", ErrTransform, err))
	}

	stored, err := p.store.Save(ctx, item)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return Failed(id, fmt.Errorf("%w: %w", contextCause(ctxErr), err))
		}
		return Failed(id, fmt.Errorf("%w: store: %w", ErrPersistence, err))
	}
	return Processed(stored)
}

package batch

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"
)

// sinkTimeout bounds the hand-off of a finished Result to each Sink.
const sinkTimeout = 10 * time.Second

// IDLister lists the ids of every stored item.
type IDLister interface {
	ListIDs(ctx context.Context) ([]int64, error)
}

// Sink receives every completed Result, for example to publish or archive it.
type Sink interface {
	Report(ctx context.Context, result *Result) error
}

// Orchestrator processes every item in the store as one batch.
type Orchestrator struct {
	ids   IDLister
	coord *Coordinator
	sinks []Sink
	log   zerolog.Logger
}

// NewOrchestrator returns an Orchestrator reading ids from ids and reporting
// completed results to sinks.
func NewOrchestrator(ids IDLister, coord *Coordinator, log zerolog.Logger, sinks ...Sink) *Orchestrator {
	return &Orchestrator{
		ids:   ids,
		coord: coord,
		sinks: sinks,
		log:   log.With().Str("component", "orchestrator").Logger(),
	}
}

// ProcessBatch runs every stored item through the engine and returns once all
// of them have an Outcome. The returned error wraps ErrBatchInfrastructure when
// the batch could not run.
func (o *Orchestrator) ProcessBatch(ctx context.Context) (*Result, error) {
	ids, err := o.ids.ListIDs(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: list item ids: %w", ErrBatchInfrastructure, err)
	}

	result, err := o.coord.Run(ctx, ids)
	if err != nil {
		return nil, err
	}
	o.report(ctx, result)
	return result, nil
}

// report hands result to every sink. A sink failure does not change the result.
func (o *Orchestrator) report(ctx context.Context, result *Result) {
	ctx = context.WithoutCancel(ctx)
	for _, sink := range o.sinks {
		sinkCtx, cancel := context.WithTimeout(ctx, sinkTimeout)
		if err := sink.Report(sinkCtx, result); err != nil {
			o.log.Error().Err(err).Str("batch_id", result.BatchID).Msgf("Failed to report batch to %T", sink)
		}
		cancel()
	}
}

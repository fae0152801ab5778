// Package trigger runs item batches in response to request messages, for
// example from a Kafka topic consumed through pkg/kafkaclient.
package trigger

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/rs/zerolog"
	"github.com/segmentio/kafka-go"

	"itemservice/internal/batch"
)

// Runner consumes request messages one at a time. Each request runs a full
// batch, and the offset is committed only after the batch has completed.
//
// Runner does not manage the message source; callers start and stop their
// consumer and pass in a MessageIterator.
type Runner struct {
	msgs   MessageIterator
	runner BatchRunner
	log    zerolog.Logger
	err    error
}

func NewRunner(msgs MessageIterator, runner BatchRunner, log zerolog.Logger) *Runner {
	return &Runner{
		msgs:   msgs,
		runner: runner,
		log:    log.With().Str("component", "trigger").Logger(),
	}
}

// Batches starts a goroutine that handles every request message and emits
// the completed batches. Malformed requests are committed and dropped.
//
// Group offsets are cumulative, so a request is never skipped: when a batch
// could not run, or ctx ended while it ran, nothing more is committed and the
// loop stops. The request is delivered again after a restart. Err reports
// why the loop stopped once the returned channel is closed.
func (r *Runner) Batches(ctx context.Context) <-chan *Completed {
	out := make(chan *Completed)
	go func() {
		defer close(out)

		for msg := range r.msgs.Messages() {
			req, err := decodeRequest(msg)
			if err != nil {
				r.log.Error().Err(err).Int64("offset", msg.Offset).Msg("Dropping malformed batch request")
				r.commit(ctx, msg)
				continue
			}

			result, err := r.runner.ProcessBatch(ctx)
			if ctx.Err() != nil {
				r.log.Warn().Int64("offset", msg.Offset).Str("request_id", req.RequestID).
					Msg("Stopped during batch, request left uncommitted")
				return
			}
			if err != nil {
				r.log.Error().Err(err).Int64("offset", msg.Offset).Str("request_id", req.RequestID).
					Bool("infrastructure", errors.Is(err, batch.ErrBatchInfrastructure)).
					Msg("Batch could not run, request left uncommitted")
				r.err = fmt.Errorf("batch request at offset %d: %w", msg.Offset, err)
				return
			}

			r.commit(ctx, msg)

			select {
			case out <- &Completed{Request: req, Result: result, Offset: msg.Offset}:
			case <-ctx.Done():
				return
			}
		}
	}()
	return out
}

// Err returns the batch error that stopped Batches, or nil when it stopped
// because the messages ran out or ctx ended. It is only valid after the
// channel returned by Batches is closed.
func (r *Runner) Err() error {
	return r.err
}

func (r *Runner) commit(ctx context.Context, msg kafka.Message) {
	if err := r.msgs.CommitOffset(context.WithoutCancel(ctx), msg); err != nil {
		r.log.Error().Err(err).Int64("offset", msg.Offset).Msg("Failed to commit offset")
	}
}

func decodeRequest(msg kafka.Message) (Request, error) {
	var req Request
	if len(msg.Value) == 0 {
		return req, nil
	}
	err := json.Unmarshal(msg.Value, &req)
	return req, err
}

package batch

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// DefaultBatchTimeout bounds a whole batch.
const DefaultBatchTimeout = 30 * time.Second

// State is the lifecycle position of one batch.
type State int32

const (
	StateCreated State = iota
	StateDispatching
	StateAwaitingCompletion
	StateCompleted
)

func (s State) String() string {
	switch s {
	case StateCreated:
		return "created"
	case StateDispatching:
		return "dispatching"
	case StateAwaitingCompletion:
		return "awaiting_completion"
	case StateCompleted:
		return "completed"
	default:
		return fmt.Sprintf("state(%d)", int32(s))
	}
}

// ItemProcessor turns one id into its Outcome.
type ItemProcessor interface {
	Process(ctx context.Context, id int64) Outcome
}

// batchState is owned by a single Run call.
type batchState struct {
	id        string
	ids       []int64
	agg       *Aggregator
	remaining atomic.Int64
	done      chan struct{}
}

func newBatchState(ids []int64) *batchState {
	st := &batchState{
		id:   uuid.NewString(),
		ids:  ids,
		agg:  NewAggregator(ids),
		done: make(chan struct{}),
	}
	st.remaining.Store(int64(len(ids)))
	return st
}

// taskDone must be called exactly once per id. The last call releases the
// barrier.
func (st *batchState) taskDone() {
	if st.remaining.Add(-1) == 0 {
		close(st.done)
	}
}

// Coordinator runs a batch of ids on a Pool and returns only once every id has
// a terminal Outcome.
type Coordinator struct {
	pool      *Pool
	processor ItemProcessor
	timeout   time.Duration
	log       zerolog.Logger
	onState   func(batchID string, s State)
}

// CoordinatorOption configures a Coordinator.
type CoordinatorOption func(*Coordinator)

// WithTimeout bounds every batch by d. Zero disables the bound.
func WithTimeout(d time.Duration) CoordinatorOption {
	return func(c *Coordinator) { c.timeout = d }
}

// WithStateHook registers fn to observe batch state transitions. fn is called
// from the goroutine running the batch.
func WithStateHook(fn func(batchID string, s State)) CoordinatorOption {
	return func(c *Coordinator) { c.onState = fn }
}

// NewCoordinator returns a Coordinator dispatching to pool. Batches are bounded
// by DefaultBatchTimeout unless WithTimeout says otherwise.
func NewCoordinator(pool *Pool, processor ItemProcessor, log zerolog.Logger, opts ...CoordinatorOption) *Coordinator {
	c := &Coordinator{
		pool:      pool,
		processor: processor,
		timeout:   DefaultBatchTimeout,
		log:       log.With().Str("component", "coordinator").Logger(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Run processes ids and returns one Outcome per distinct id. Item failures are
// reported inside the Result; an error is returned only when the batch cannot
// be dispatched at all.
func (c *Coordinator) Run(ctx context.Context, ids []int64) (*Result, error) {
	st := newBatchState(dedupe(ids))
	log := c.log.With().Str("batch_id", st.id).Logger()
	c.transition(st, StateCreated)

	result := &Result{BatchID: st.id, StartedAt: time.Now().UTC()}
	if len(st.ids) == 0 {
		c.transition(st, StateCompleted)
		result.CompletedAt = time.Now().UTC()
		result.Outcomes = []Outcome{}
		return result, nil
	}
	if c.pool.Closed() {
		return nil, fmt.Errorf("%w: %w", ErrBatchInfrastructure, ErrPoolClosed)
	}

	var cancel context.CancelFunc
	if c.timeout > 0 {
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
	} else {
		ctx, cancel = context.WithCancel(ctx)
	}
	// Tasks still queued when Run returns observe the cancellation and exit early.
	defer cancel()

	c.transition(st, StateDispatching)
	log.Debug().Int("items", len(st.ids)).Msg("Dispatching batch")
	for i, id := range st.ids {
		if _, err := c.pool.Submit(ctx, c.task(ctx, st, id)); err != nil {
			cause := submitCause(err)
			log.Warn().Err(err).Int("undispatched", len(st.ids)-i).Msg("Dispatch stopped")
			for _, rest := range st.ids[i:] {
				st.agg.Record(rest, Failed(rest, cause))
				st.taskDone()
			}
			break
		}
	}

	c.transition(st, StateAwaitingCompletion)
	select {
	case <-st.done:
	case <-ctx.Done():
		cause := contextCause(ctx.Err())
		filled := st.agg.Seal(func(id int64) Outcome { return Failed(id, cause) })
		log.Warn().Err(ctx.Err()).Int("unfinished", filled).Msg("Batch ended before all items finished")
	}

	outcomes, err := st.agg.Snapshot()
	if err != nil {
		return nil, err
	}
	c.transition(st, StateCompleted)

	result.Outcomes = outcomes
	result.CompletedAt = time.Now().UTC()
	counts := result.Counts()
	log.Info().
		Int("processed", counts[StatusProcessed]).
		Int("skipped", counts[StatusSkipped]).
		Int("failed", counts[StatusFailed]).
		Dur("took", result.CompletedAt.Sub(result.StartedAt)).
		Msg("Batch completed")
	return result, nil
}

// task wraps the processor for one id. The outcome is recorded before the
// barrier counter is decremented.
func (c *Coordinator) task(batchCtx context.Context, st *batchState, id int64) Task {
	return func(poolCtx context.Context) {
		defer st.taskDone()

		ctx, cancel := context.WithCancel(batchCtx)
		defer cancel()
		stop := context.AfterFunc(poolCtx, cancel)
		defer stop()

		outcome := c.process(ctx, id)
		if !st.agg.Record(id, outcome) {
			c.log.Debug().Str("batch_id", st.id).Int64("item_id", id).Msg("Late outcome discarded")
		}
	}
}

func (c *Coordinator) process(ctx context.Context, id int64) (outcome Outcome) {
	defer func() {
		if r := recover(); r != nil {
			outcome = Failed(id, fmt.Errorf("processor panicked: %v", r))
		}
	}()
	return c.processor.Process(ctx, id)
}

func (c *Coordinator) transition(st *batchState, s State) {
	c.log.Trace().Str("batch_id", st.id).Stringer("state", s).Msg("Batch state")
	if c.onState != nil {
		c.onState(st.id, s)
	}
}

func submitCause(err error) error {
	if errors.Is(err, ErrPoolClosed) {
		return fmt.Errorf("%w: %w", ErrInterrupted, err)
	}
	return contextCause(err)
}

// dedupe drops repeated ids, keeping the first occurrence.
func dedupe(ids []int64) []int64 {
	seen := make(map[int64]struct{}, len(ids))
	out := make([]int64, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

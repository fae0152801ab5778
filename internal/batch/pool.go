package batch

import (
	"context"
	"fmt"
	"sync"

	"github.com/rs/zerolog"
)

// Default pool sizing.
const (
	DefaultPoolSize  = 10
	DefaultQueueSize = 1000
)

// Task is a unit of work run by the Pool. The context it receives is canceled
// when the pool is forced to stop during Shutdown.
type Task func(ctx context.Context)

// Handle tracks a submitted task.
type Handle struct {
	done chan struct{}
	err  error
}

// Done is closed once the task has returned.
func (h *Handle) Done() <-chan struct{} {
	return h.done
}

// Err reports a panic raised by the task. It is only meaningful after Done is
// closed.
func (h *Handle) Err() error {
	<-h.done
	return h.err
}

type job struct {
	task   Task
	handle *Handle
}

// Pool runs submitted tasks on a fixed number of worker goroutines. Work beyond
// the number of workers waits in a bounded FIFO queue; Submit blocks while the
// queue is full.
//
// A Pool is meant to live for the whole process: Start it once and Shutdown it
// on exit.
type Pool struct {
	size int
	log  zerolog.Logger

	queue   chan job
	closing chan struct{}

	// mu guards closed and serialises closing the queue against senders.
	mu     sync.RWMutex
	closed bool

	ctx    context.Context
	cancel context.CancelFunc

	startOnce sync.Once
	closeOnce sync.Once
	wg        sync.WaitGroup
}

// NewPool creates a pool with size workers and a queue of queueSize pending
// tasks. Non-positive values fall back to the defaults.
func NewPool(size, queueSize int, log zerolog.Logger) *Pool {
	if size <= 0 {
		size = DefaultPoolSize
	}
	if queueSize <= 0 {
		queueSize = DefaultQueueSize
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Pool{
		size:    size,
		log:     log.With().Str("component", "pool").Logger(),
		queue:   make(chan job, queueSize),
		closing: make(chan struct{}),
		ctx:     ctx,
		cancel:  cancel,
	}
}

// Size returns the number of workers.
func (p *Pool) Size() int {
	return p.size
}

// Pending returns the number of queued tasks not yet picked up by a worker.
func (p *Pool) Pending() int {
	return len(p.queue)
}

// Closed reports whether Shutdown has been called.
func (p *Pool) Closed() bool {
	select {
	case <-p.closing:
		return true
	default:
		return false
	}
}

// Start launches the workers. Calling it more than once has no effect.
func (p *Pool) Start() {
	p.startOnce.Do(func() {
		p.log.Info().Int("workers", p.size).Int("queue", cap(p.queue)).Msg("Starting worker pool")
		for i := 0; i < p.size; i++ {
			p.wg.Add(1)
			go p.worker()
		}
	})
}

// Submit queues task for execution. It blocks while the queue is full and
// returns ErrPoolClosed once Shutdown has begun, or the context error if ctx
// ends before the task could be queued.
func (p *Pool) Submit(ctx context.Context, task Task) (*Handle, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.closed {
		return nil, ErrPoolClosed
	}

	j := job{task: task, handle: &Handle{done: make(chan struct{})}}
	select {
	case p.queue <- j:
		return j.handle, nil
	case <-p.closing:
		return nil, ErrPoolClosed
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Shutdown stops accepting tasks and waits for the queued and running ones to
// finish. If ctx ends first, the context passed to every remaining task is
// canceled so they finish as interrupted, and Shutdown waits for them to
// return before reporting the context error.
func (p *Pool) Shutdown(ctx context.Context) error {
	p.closeOnce.Do(func() {
		p.log.Info().Int("pending", p.Pending()).Msg("Shutting down worker pool")
		close(p.closing)
		p.mu.Lock()
		p.closed = true
		close(p.queue)
		p.mu.Unlock()
	})
	// Queued work must still be drained if the pool was never started.
	p.Start()

	done := make(chan struct{})
	go func() {
		p.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		p.cancel()
		p.log.Info().Msg("Worker pool drained")
		return nil
	case <-ctx.Done():
		p.log.Warn().Int("pending", p.Pending()).Msg("Shutdown deadline reached, canceling remaining tasks")
		p.cancel()
		<-done
		return fmt.Errorf("worker pool shutdown: %w", ctx.Err())
	}
}

func (p *Pool) worker() {
	defer p.wg.Done()
	for j := range p.queue {
		p.run(j)
	}
}

func (p *Pool) run(j job) {
	defer close(j.handle.done)
	defer func() {
		if r := recover(); r != nil {
			j.handle.err = fmt.Errorf("task panicked: %v", r)
			p.log.Error().Interface("panic", r).Msg("Task panicked")
		}
	}()
	j.task(p.ctx)
}

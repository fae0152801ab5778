// Package app wires the store, the batch engine and its sinks from a Config.
package app

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"itemservice/internal/archive"
	"itemservice/internal/batch"
	"itemservice/internal/env"
	"itemservice/internal/events"
	"itemservice/internal/storage"
	"itemservice/pkg/kafkaclient"
)

// Engine is a started batch engine and everything it depends on.
type Engine struct {
	Store        storage.ItemStore
	Pool         *batch.Pool
	Orchestrator *batch.Orchestrator

	log     zerolog.Logger
	closers []func() error
}

// NewEngine builds the engine described by cfg. Postgres is used when
// DatabaseURL is set, otherwise an in-memory store. Kafka publishing and the
// MinIO archive are added when configured. The pool is started.
func NewEngine(ctx context.Context, cfg env.Config, log zerolog.Logger) (*Engine, error) {
	e := &Engine{log: log}

	if cfg.DatabaseURL != "" {
		pg, err := storage.NewPostgresStore(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, err
		}
		e.closers = append(e.closers, func() error { pg.Close(); return nil })
		if err := pg.EnsureSchema(ctx); err != nil {
			_ = e.close()
			return nil, err
		}
		log.Info().Msg("Using Postgres item store")
		e.Store = pg
	} else {
		log.Warn().Msg("DATABASE_URL not set, using in-memory item store")
		e.Store = storage.NewMemoryStore()
	}

	var sinks []batch.Sink
	if cfg.Kafka.PublishEnabled() {
		producer, err := kafkaclient.NewProducer(cfg.Kafka.Broker, cfg.Kafka.OutcomeTopic, log)
		if err != nil {
			_ = e.close()
			return nil, err
		}
		e.closers = append(e.closers, producer.Close)
		sinks = append(sinks, events.NewPublisher(producer, log))
	}
	if cfg.Minio.ArchiveEnabled() {
		reports, err := archive.NewReportArchive(cfg.Minio, log)
		if err != nil {
			_ = e.close()
			return nil, err
		}
		if err := reports.EnsureBucket(ctx, ""); err != nil {
			_ = e.close()
			return nil, fmt.Errorf("report bucket: %w", err)
		}
		sinks = append(sinks, reports)
	}

	e.Pool = batch.NewPool(cfg.PoolSize, cfg.PoolQueueSize, log)
	e.Pool.Start()
	processor := batch.NewProcessor(e.Store, cfg.ProcessDelay)
	coord := batch.NewCoordinator(e.Pool, processor, log, batch.WithTimeout(cfg.BatchTimeout))
	e.Orchestrator = batch.NewOrchestrator(e.Store, coord, log, sinks...)

	log.Info().
		Int("pool_size", cfg.PoolSize).
		Dur("process_delay", cfg.ProcessDelay).
		Dur("batch_timeout", cfg.BatchTimeout).
		Int("sinks", len(sinks)).
		Msg("Batch engine ready")
	return e, nil
}

// Shutdown drains the pool within ctx and then releases the store and sinks.
func (e *Engine) Shutdown(ctx context.Context) error {
	err := e.Pool.Shutdown(ctx)
	return errors.Join(err, e.close())
}

func (e *Engine) close() error {
	var errs []error
	for i := len(e.closers) - 1; i >= 0; i-- {
		if err := e.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	e.closers = nil
	return errors.Join(errs...)
}

package main

import (
	"context"
	"errors"
	"os"

	"golang.org/x/sync/errgroup"

	"itemservice/internal/app"
	"itemservice/internal/env"
	"itemservice/internal/logging"
	"itemservice/internal/trigger"
	"itemservice/pkg/graceful"
	"itemservice/pkg/kafkaclient"
)

func main() {
	found, envErr := env.LoadEnv()
	cfg, err := env.Load()
	log := logging.New(cfg.LogLevel, os.Stderr)
	if envErr != nil {
		log.Fatal().Err(envErr).Msg("Failed to read .env file")
	}
	if !found {
		log.Info().Msg("No .env file found, assuming environment variables are set directly")
	}
	if err != nil {
		log.Fatal().Err(err).Msg("Invalid configuration")
	}

	ctx, cancel := graceful.Context(context.Background(), log)
	defer cancel()

	log.Info().
		Str("broker", cfg.Kafka.Broker).
		Str("topic", cfg.Kafka.RequestTopic).
		Str("group_id", cfg.Kafka.GroupID).
		Msg("Connecting to Kafka")
	consumer, err := kafkaclient.NewKafkaConsumer(kafkaclient.ConsumerConfig{
		Broker:  cfg.Kafka.Broker,
		Topic:   cfg.Kafka.RequestTopic,
		GroupID: cfg.Kafka.GroupID,
	}, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create Kafka consumer")
	}

	engine, err := app.NewEngine(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to build batch engine")
	}

	g, gctx := errgroup.WithContext(ctx)
	consumer.StartConsuming(gctx)
	g.Go(func() error {
		runner := trigger.NewRunner(consumer, engine.Orchestrator, log)
		for done := range runner.Batches(gctx) {
			counts := done.Result.Counts()
			log.Info().
				Str("request_id", done.Request.RequestID).
				Str("batch_id", done.Result.BatchID).
				Int64("offset", done.Offset).
				Interface("counts", counts).
				Msg("Triggered batch completed")
		}
		return runner.Err()
	})

	err = g.Wait()
	consumer.Stop()

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancelShutdown()
	if err := errors.Join(err, engine.Shutdown(shutdownCtx)); err != nil {
		log.Error().Err(err).Msg("Batch worker stopped with error")
		os.Exit(1)
	}
	log.Info().Msg("Batch worker stopped")
}

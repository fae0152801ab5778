package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"time"

	"golang.org/x/sync/errgroup"

	"itemservice/internal/api"
	"itemservice/internal/app"
	"itemservice/internal/env"
	"itemservice/internal/logging"
	"itemservice/pkg/graceful"
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

	engine, err := app.NewEngine(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to build batch engine")
	}

	server := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           api.NewRouter(engine.Store, engine.Orchestrator, log),
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info().Str("addr", cfg.HTTPAddr).Msg("HTTP server listening")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()

		err := server.Shutdown(shutdownCtx)
		return errors.Join(err, engine.Shutdown(shutdownCtx))
	})

	if err := g.Wait(); err != nil {
		log.Error().Err(err).Msg("Item service stopped with error")
		os.Exit(1)
	}
	log.Info().Msg("Item service stopped")
}

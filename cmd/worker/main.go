package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/modelarena/arena/internal/consumer"
	"github.com/modelarena/arena/internal/models"
	"github.com/modelarena/arena/internal/setup"
	zlog "github.com/modelarena/arena/internal/setup/logger"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
)

func main() {
	// Structured JSON logging; workers run headless
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = zlog.New(os.Getenv("LOG_LEVEL"), "worker")
	logger := log.Logger

	// Load env
	if err := godotenv.Load(); err != nil {
		log.Warn().Msg("No .env file found")
	}

	// Graceful shutdown on SIGINT/SIGTERM
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Load config and wire dependencies
	cfg := setup.LoadConfig()
	deps, err := setup.Wire(ctx, cfg, &logger)
	if err != nil {
		log.Fatal().Err(err).Msg("Unable to load dependencies")
	}
	defer deps.Redis.Close()

	// One consumer per agent kind, each on its own stream
	group, groupCtx := errgroup.WithContext(ctx)
	for _, agent := range models.AllAgentKinds {
		c := consumer.NewConsumer(
			deps.Redis,
			agent,
			cfg.ConsumerGroup,
			cfg.ConsumerName+"-"+string(agent),
			deps.Handlers[agent],
			&logger,
		)
		if err := c.Setup(ctx); err != nil {
			log.Fatal().Err(err).Str("agent", string(agent)).Msg("Failed to create consumer group")
		}
		group.Go(func() error {
			return c.Start(groupCtx)
		})
	}

	log.Info().Int("consumers", len(models.AllAgentKinds)).Msg("Worker started")

	if err := group.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		log.Fatal().Err(err).Msg("Worker stopped with error")
	}
	log.Info().Msg("Worker stopped")
}

package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/modelarena/arena/internal/dispatch"
	"github.com/modelarena/arena/internal/models"
	red "github.com/modelarena/arena/internal/redis"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func main() {
	data := flag.String("d", "", "Inline JSON AgentEvent")
	flag.Parse()

	if *data == "" {
		fmt.Fprintln(os.Stderr, "Usage: producer -d '<json>'")
		flag.PrintDefaults()
		os.Exit(1)
	}

	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})

	if err := run(*data); err != nil {
		log.Error().Err(err).Msg("producer failed")
		os.Exit(1)
	}
}

func run(data string) error {
	_ = godotenv.Load()

	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		addr = "localhost:6379"
	}

	ctx := context.Background()
	logger := log.Logger
	client, err := red.Connect(ctx, red.Options{
		Addr:     addr,
		Password: os.Getenv("REDIS_PASSWORD"),
	}, &logger)
	if err != nil {
		return err
	}
	defer client.Close()

	var event models.AgentEvent
	if err := json.Unmarshal([]byte(data), &event); err != nil {
		return err
	}
	if !event.Agent.Valid() {
		return fmt.Errorf("unknown agent kind %q", event.Agent)
	}

	stream := dispatch.StreamFor(event.Agent)
	publisher := dispatch.NewRedisPublisher(client)
	if err := publisher.Publish(ctx, stream, event); err != nil {
		return err
	}

	log.Info().
		Str("stream", stream).
		Str("session_id", event.SessionID).
		Str("agent", string(event.Agent)).
		Msg("Published successfully!")
	return nil
}

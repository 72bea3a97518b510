// Package redis builds the shared go-redis client used by the stream
// publishers, the consumers, and the result store, and verifies the server
// answers before any of them start.
package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

const (
	defaultPingAttempts   = 3
	defaultPingBackoff    = time.Second
	defaultCommandRetries = 3
)

// Options carries the connection knobs the binaries source from their
// configuration. Zero values fall back to defaults suited to a local
// single-node Redis.
type Options struct {
	Addr     string
	Password string

	// PingAttempts bounds the startup connectivity probe.
	PingAttempts int
	// PingBackoff is the wait before the second attempt; it doubles on
	// every attempt after that.
	PingBackoff time.Duration
	// CommandRetries is passed through to go-redis per-command retries.
	CommandRetries int
}

func (o Options) withDefaults() Options {
	if o.PingAttempts <= 0 {
		o.PingAttempts = defaultPingAttempts
	}
	if o.PingBackoff <= 0 {
		o.PingBackoff = defaultPingBackoff
	}
	if o.CommandRetries <= 0 {
		o.CommandRetries = defaultCommandRetries
	}
	return o
}

func (o Options) backoffFor(attempt int) time.Duration {
	return o.PingBackoff << uint(attempt-1)
}

// Connect builds the client and pings it until the server answers or the
// attempt budget is spent.
func Connect(ctx context.Context, opts Options, logger *zerolog.Logger) (*redis.Client, error) {
	opts = opts.withDefaults()

	client := redis.NewClient(&redis.Options{
		Addr:            opts.Addr,
		Password:        opts.Password,
		DB:              0,
		MaxRetries:      opts.CommandRetries,
		MinRetryBackoff: 8 * time.Millisecond,
		MaxRetryBackoff: 512 * time.Millisecond,
		DialTimeout:     5 * time.Second,
		ReadTimeout:     3 * time.Second,
		WriteTimeout:    3 * time.Second,
	})

	var err error
	for i := range opts.PingAttempts {
		if i > 0 {
			backoff := opts.backoffFor(i)
			logger.Info().Dur("backoff", backoff).Msg("waiting before redis ping retry")
			time.Sleep(backoff)
		}

		logger.Info().
			Str("addr", opts.Addr).
			Int("attempt", i+1).
			Int("attempts", opts.PingAttempts).
			Msg("pinging redis")

		err = client.Ping(ctx).Err()
		if err == nil {
			logger.Info().Str("addr", opts.Addr).Msg("redis reachable")
			return client, nil
		}

		logger.Warn().Err(err).Int("attempt", i+1).Msg("redis ping failed")
	}

	return nil, fmt.Errorf("redis at %s unreachable after %d ping attempts: %w", opts.Addr, opts.PingAttempts, err)
}

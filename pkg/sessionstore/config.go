package sessionstore

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

// Config holds store connection and TTL settings. The connection URL carries
// the auth secret in its password component ("redis://:secret@host:6379/0").
type Config struct {
	ConnectionURL  string        `env:"REDIS_URL,required" envDefault:"redis://localhost:6379/0"`
	RetryAttempts  int           `env:"REDIS_RETRY_ATTEMPTS" envDefault:"3"`
	RetryInterval  time.Duration `env:"REDIS_RETRY_INTERVAL" envDefault:"5s"`
	ConnectTimeout time.Duration `env:"REDIS_CONNECT_TIMEOUT" envDefault:"30s"`

	// SessionTTL is the sliding expiry applied to session records on every
	// write.
	SessionTTL time.Duration `env:"SESSION_STORE_TTL" envDefault:"24h"`

	// LockTTL bounds how long a crashed switch attempt can keep a user's
	// switch lock.
	LockTTL time.Duration `env:"SWITCH_LOCK_TTL" envDefault:"30s"`

	// OpTimeout caps every individual store call; it must stay shorter
	// than the surrounding request deadline.
	OpTimeout time.Duration `env:"STORE_OP_TIMEOUT" envDefault:"2s"`
}

// DefaultConfig returns the default store configuration.
func DefaultConfig() Config {
	return Config{
		ConnectionURL:  "redis://localhost:6379/0",
		RetryAttempts:  3,
		RetryInterval:  5 * time.Second,
		ConnectTimeout: 30 * time.Second,
		SessionTTL:     24 * time.Hour,
		LockTTL:        30 * time.Second,
		OpTimeout:      2 * time.Second,
	}
}

// Connect establishes a connection to the store, retrying up to
// cfg.RetryAttempts times with cfg.RetryInterval between attempts.
func Connect(ctx context.Context, cfg Config) (*redis.Client, error) {
	ctx, cancel := context.WithTimeout(ctx, cfg.ConnectTimeout)
	defer cancel()

	opt, err := redis.ParseURL(cfg.ConnectionURL)
	if err != nil {
		return nil, errors.Join(ErrFailedToParseConnString, err)
	}

	for range cfg.RetryAttempts {
		client := redis.NewClient(opt)

		if err := client.Ping(ctx).Err(); err == nil {
			return client, nil
		}

		_ = client.Close()

		select {
		case <-ctx.Done():
			return nil, errors.Join(ErrStoreNotReady, ctx.Err())
		default:
			time.Sleep(cfg.RetryInterval)
		}
	}

	return nil, ErrStoreNotReady
}

// Healthcheck returns a readiness probe for the store connection.
func Healthcheck(client redis.UniversalClient) func(context.Context) error {
	return func(ctx context.Context) error {
		if _, err := client.Ping(ctx).Result(); err != nil {
			return errors.Join(ErrHealthcheckFailed, err)
		}
		return nil
	}
}

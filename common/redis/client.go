package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/raviakasapu/generative-planner-vision-sub000/common/config"

	"github.com/go-redis/redis/v8"
)

// Client is the go-redis client type used across the service.
type Client = redis.Client

// DefaultPingTimeout bounds the connectivity check in Connect.
const DefaultPingTimeout = 2 * time.Second

// Connect creates a client from cfg and pings it within pingTimeout
// (DefaultPingTimeout when zero). On failure the client is closed and nil is
// returned, so callers can fall back to in-process state.
func Connect(ctx context.Context, cfg *config.RedisConfig, pingTimeout time.Duration) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	if pingTimeout <= 0 {
		pingTimeout = DefaultPingTimeout
	}
	pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to ping redis %s: %w", cfg.Addr, err)
	}
	return client, nil
}

package database

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/redis/go-redis/v9"

	"github.com/FACorreiaa/go-todo-api/config"
)

// NewRedisClient returns a connected client or an error if the first ping fails.
func NewRedisClient(ctx context.Context, cfg config.RedisConfig, logger *slog.Logger) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	if !waitFor(ctx, "redis", func(ctx context.Context) error {
		return client.Ping(ctx).Err()
	}, logger) {
		_ = client.Close()
		return nil, fmt.Errorf("redis at %s is not reachable", cfg.Addr)
	}
	return client, nil
}

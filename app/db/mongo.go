package database

import (
	"context"
	"fmt"
	"log/slog"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"github.com/FACorreiaa/go-todo-api/config"
)

// NewMongoClient connects a client for cfg.URI. Connect is lazy; use
// WaitForMongo to confirm the server is reachable.
func NewMongoClient(ctx context.Context, cfg config.MongoConfig, logger *slog.Logger) (*mongo.Client, error) {
	opts := options.Client().
		ApplyURI(cfg.URI).
		SetAppName("go-todo-api")
	if cfg.Timeout > 0 {
		opts.SetConnectTimeout(cfg.Timeout).
			SetServerSelectionTimeout(cfg.Timeout).
			SetTimeout(cfg.Timeout)
	}

	client, err := mongo.Connect(ctx, opts)
	if err != nil {
		logger.Error("Failed to create mongo client", slog.Any("error", err))
		return nil, fmt.Errorf("failed creating mongo client: %w", err)
	}
	logger.Info("Mongo client initialized", slog.String("database", cfg.Database))
	return client, nil
}

// WaitForMongo waits for a primary to answer pings.
func WaitForMongo(ctx context.Context, client *mongo.Client, logger *slog.Logger) bool {
	return waitFor(ctx, "mongo", func(ctx context.Context) error {
		return client.Ping(ctx, readpref.Primary())
	}, logger)
}

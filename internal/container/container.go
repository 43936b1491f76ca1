package container

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"

	database "github.com/FACorreiaa/go-todo-api/app/db"
	"github.com/FACorreiaa/go-todo-api/config"
	"github.com/FACorreiaa/go-todo-api/internal/api/auth"
	"github.com/FACorreiaa/go-todo-api/internal/api/todo"
)

// Container holds all application dependencies and owns the store handles.
type Container struct {
	Config      *config.Config
	Logger      *slog.Logger
	Pool        *pgxpool.Pool
	MongoClient *mongo.Client
	Redis       *redis.Client

	AuthService auth.AuthService
	TodoService todo.TodoService
	AuthHandler *auth.HandlerImpl
	TodoHandler *todo.HandlerImpl
}

type repos struct {
	auth auth.AuthRepo
	todo todo.TodoRepo
}

// NewContainer connects the configured store and wires services and handlers.
func NewContainer(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Container, error) {
	c := &Container{Config: cfg, Logger: logger}

	r, err := c.initStore(ctx)
	if err != nil {
		c.Close(ctx)
		return nil, err
	}

	revocations, err := c.initRevocations(ctx)
	if err != nil {
		c.Close(ctx)
		return nil, err
	}

	tokens := auth.NewTokenManager(cfg.JWT)
	authService := auth.NewAuthService(r.auth, tokens, revocations, logger)
	todoService := todo.NewTodoService(r.todo, logger)

	c.AuthService = authService
	c.TodoService = todoService
	c.AuthHandler = auth.NewHandlerImpl(authService, logger)
	c.TodoHandler = todo.NewHandlerImpl(todoService, logger)

	logger.Info("Container initialized", slog.String("store", cfg.Store.Driver), slog.Bool("redis", cfg.Redis.Enabled))
	return c, nil
}

func (c *Container) initStore(ctx context.Context) (repos, error) {
	cfg, logger := c.Config, c.Logger

	switch cfg.Store.Driver {
	case config.StoreMongo:
		client, err := database.NewMongoClient(ctx, cfg.Repositories.Mongo, logger)
		if err != nil {
			return repos{}, err
		}
		c.MongoClient = client
		if !database.WaitForMongo(ctx, client, logger) {
			return repos{}, errors.New("mongo not ready after waiting")
		}

		db := client.Database(cfg.Repositories.Mongo.Database)
		authRepo := auth.NewMongoAuthRepo(db, logger)
		todoRepo := todo.NewMongoTodoRepo(db, logger)
		if err = authRepo.EnsureIndexes(ctx); err != nil {
			return repos{}, err
		}
		if err = todoRepo.EnsureIndexes(ctx); err != nil {
			return repos{}, err
		}
		return repos{auth: authRepo, todo: todoRepo}, nil

	case config.StorePostgres:
		dbConfig, err := database.NewDatabaseConfig(cfg, logger)
		if err != nil {
			return repos{}, err
		}
		if err = database.RunMigrations(dbConfig.ConnectionURL, logger); err != nil {
			return repos{}, err
		}
		pool, err := database.Init(ctx, dbConfig, logger)
		if err != nil {
			return repos{}, err
		}
		c.Pool = pool
		if !database.WaitForDB(ctx, pool, logger) {
			return repos{}, errors.New("postgres not ready after waiting")
		}
		return repos{
			auth: auth.NewPostgresAuthRepo(pool, logger),
			todo: todo.NewPostgresTodoRepo(pool, logger),
		}, nil

	case config.StoreMemory:
		logger.Warn("Using in-memory store, data is lost on restart")
		return repos{auth: auth.NewMemoryAuthRepo(), todo: todo.NewMemoryTodoRepo()}, nil

	default:
		return repos{}, fmt.Errorf("unknown store driver %q", cfg.Store.Driver)
	}
}

func (c *Container) initRevocations(ctx context.Context) (auth.RevocationStore, error) {
	if !c.Config.Redis.Enabled {
		return auth.NewCacheRevocationStore(), nil
	}
	client, err := database.NewRedisClient(ctx, c.Config.Redis, c.Logger)
	if err != nil {
		return nil, err
	}
	c.Redis = client
	return auth.NewRedisRevocationStore(client), nil
}

// Close releases all resources held by the container
func (c *Container) Close(ctx context.Context) {
	if c.Pool != nil {
		c.Pool.Close()
		c.Logger.Info("Postgres pool closed")
	}
	if c.MongoClient != nil {
		if err := c.MongoClient.Disconnect(ctx); err != nil {
			c.Logger.Error("Failed to disconnect mongo client", slog.Any("error", err))
		} else {
			c.Logger.Info("Mongo client disconnected")
		}
	}
	if c.Redis != nil {
		if err := c.Redis.Close(); err != nil {
			c.Logger.Error("Failed to close redis client", slog.Any("error", err))
		}
	}
}

package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.opentelemetry.io/otel/trace"

	database "github.com/FACorreiaa/go-todo-api/app/db"
	"github.com/FACorreiaa/go-todo-api/app/observability/metrics"
	"github.com/FACorreiaa/go-todo-api/internal/types"
)

// AuthRepo persists user records. Implementations return types.ErrNotFound
// for unknown users and types.ErrConflict for a duplicate email.
type AuthRepo interface {
	CreateUser(ctx context.Context, name, email, passwordHash string) (*types.User, error)
	GetUserByEmail(ctx context.Context, email string) (*types.User, error)
	GetUserByID(ctx context.Context, id string) (*types.User, error)
}

var _ AuthRepo = (*PostgresAuthRepo)(nil)

const pgUniqueViolation = "23505"

type PostgresAuthRepo struct {
	logger *slog.Logger
	pgpool database.Querier
}

func NewPostgresAuthRepo(pgpool database.Querier, logger *slog.Logger) *PostgresAuthRepo {
	return &PostgresAuthRepo{
		logger: logger,
		pgpool: pgpool,
	}
}

func (r *PostgresAuthRepo) CreateUser(ctx context.Context, name, email, passwordHash string) (*types.User, error) {
	ctx, span := otel.Tracer("AuthRepo").Start(ctx, "CreateUser", trace.WithAttributes(
		semconv.DBSystemPostgreSQL,
		attribute.String("db.operation", "INSERT"),
		attribute.String("db.sql.table", "users"),
	))
	defer span.End()
	l := r.logger.With(slog.String("method", "CreateUser"))

	id := uuid.New()
	user := &types.User{
		ID:           id.String(),
		Name:         name,
		Email:        email,
		PasswordHash: passwordHash,
		CreatedAt:    time.Now().UTC(),
	}

	start := time.Now()
	_, err := r.pgpool.Exec(ctx,
		"INSERT INTO users (id, name, email, password_hash, created_at) VALUES ($1, $2, $3, $4, $5)",
		id, user.Name, user.Email, user.PasswordHash, user.CreatedAt)
	metrics.RecordQuery(ctx, "postgresql", "insert_user", start, err)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "insert failed")
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
			l.WarnContext(ctx, "Email already registered")
			return nil, fmt.Errorf("%w: email already registered", types.ErrConflict)
		}
		l.ErrorContext(ctx, "Failed to insert user", slog.Any("error", err))
		return nil, fmt.Errorf("failed to insert user: %w", err)
	}

	span.SetAttributes(attribute.String("user.id", user.ID))
	return user, nil
}

func (r *PostgresAuthRepo) GetUserByEmail(ctx context.Context, email string) (*types.User, error) {
	ctx, span := otel.Tracer("AuthRepo").Start(ctx, "GetUserByEmail", trace.WithAttributes(
		semconv.DBSystemPostgreSQL,
		attribute.String("db.operation", "SELECT"),
		attribute.String("db.sql.table", "users"),
	))
	defer span.End()

	return r.getUser(ctx, span, "SELECT id::text, name, email, password_hash, created_at FROM users WHERE email = $1", email)
}

func (r *PostgresAuthRepo) GetUserByID(ctx context.Context, id string) (*types.User, error) {
	ctx, span := otel.Tracer("AuthRepo").Start(ctx, "GetUserByID", trace.WithAttributes(
		semconv.DBSystemPostgreSQL,
		attribute.String("db.operation", "SELECT"),
		attribute.String("db.sql.table", "users"),
		attribute.String("user.id", id),
	))
	defer span.End()

	userID, err := uuid.Parse(id)
	if err != nil {
		return nil, fmt.Errorf("%w: malformed user id", types.ErrNotFound)
	}
	return r.getUser(ctx, span, "SELECT id::text, name, email, password_hash, created_at FROM users WHERE id = $1", userID)
}

func (r *PostgresAuthRepo) getUser(ctx context.Context, span trace.Span, query string, arg any) (*types.User, error) {
	var user types.User
	start := time.Now()
	err := r.pgpool.QueryRow(ctx, query, arg).Scan(&user.ID, &user.Name, &user.Email, &user.PasswordHash, &user.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		metrics.RecordQuery(ctx, "postgresql", "select_user", start, nil)
		span.SetStatus(codes.Error, "user not found")
		return nil, types.ErrNotFound
	}
	metrics.RecordQuery(ctx, "postgresql", "select_user", start, err)
	if err != nil {
		r.logger.ErrorContext(ctx, "Failed to query user", slog.Any("error", err))
		span.RecordError(err)
		span.SetStatus(codes.Error, "query failed")
		return nil, fmt.Errorf("failed to query user: %w", err)
	}
	return &user, nil
}

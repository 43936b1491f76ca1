package todo

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.opentelemetry.io/otel/trace"

	database "github.com/FACorreiaa/go-todo-api/app/db"
	"github.com/FACorreiaa/go-todo-api/app/observability/metrics"
	"github.com/FACorreiaa/go-todo-api/internal/types"
)

// TodoRepo persists todos. Lookups by an id the store could never have
// issued report types.ErrNotFound.
type TodoRepo interface {
	ListByOwner(ctx context.Context, userID string) ([]types.Todo, error)
	Create(ctx context.Context, todo types.Todo) (*types.Todo, error)
	GetByID(ctx context.Context, id string) (*types.Todo, error)
	Update(ctx context.Context, params types.UpdateTodoParams) (*types.Todo, error)
	Delete(ctx context.Context, id string) error
}

var _ TodoRepo = (*PostgresTodoRepo)(nil)

const todoColumns = "id::text, text, completed, user_id::text, created_at"

type PostgresTodoRepo struct {
	logger *slog.Logger
	pgpool database.Querier
}

func NewPostgresTodoRepo(pgpool database.Querier, logger *slog.Logger) *PostgresTodoRepo {
	return &PostgresTodoRepo{
		logger: logger,
		pgpool: pgpool,
	}
}

func pgSpan(ctx context.Context, name, op string) (context.Context, trace.Span) {
	return otel.Tracer("TodoRepo").Start(ctx, name, trace.WithAttributes(
		semconv.DBSystemPostgreSQL,
		attribute.String("db.operation", op),
		attribute.String("db.sql.table", "todos"),
	))
}

func (r *PostgresTodoRepo) ListByOwner(ctx context.Context, userID string) ([]types.Todo, error) {
	ctx, span := pgSpan(ctx, "ListByOwner", "SELECT")
	defer span.End()

	owner, err := uuid.Parse(userID)
	if err != nil {
		return []types.Todo{}, nil
	}

	start := time.Now()
	rows, err := r.pgpool.Query(ctx,
		"SELECT "+todoColumns+" FROM todos WHERE user_id = $1 ORDER BY created_at, id", owner)
	if err != nil {
		metrics.RecordQuery(ctx, "postgresql", "list_todos", start, err)
		r.logger.ErrorContext(ctx, "Failed to query todos", slog.Any("error", err))
		span.RecordError(err)
		span.SetStatus(codes.Error, "query failed")
		return nil, fmt.Errorf("failed to query todos: %w", err)
	}
	defer rows.Close()

	todos := []types.Todo{}
	for rows.Next() {
		var t types.Todo
		if err = rows.Scan(&t.ID, &t.Text, &t.Completed, &t.UserID, &t.CreatedAt); err != nil {
			metrics.RecordQuery(ctx, "postgresql", "list_todos", start, err)
			span.RecordError(err)
			return nil, fmt.Errorf("failed to scan todo: %w", err)
		}
		todos = append(todos, t)
	}
	err = rows.Err()
	metrics.RecordQuery(ctx, "postgresql", "list_todos", start, err)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "rows failed")
		return nil, fmt.Errorf("error iterating todos: %w", err)
	}

	span.SetAttributes(attribute.Int("todos.count", len(todos)))
	return todos, nil
}

func (r *PostgresTodoRepo) Create(ctx context.Context, todo types.Todo) (*types.Todo, error) {
	ctx, span := pgSpan(ctx, "Create", "INSERT")
	defer span.End()

	owner, err := uuid.Parse(todo.UserID)
	if err != nil {
		return nil, fmt.Errorf("invalid owner id %q: %w", todo.UserID, err)
	}
	id := uuid.New()
	todo.ID = id.String()
	todo.CreatedAt = time.Now().UTC()

	start := time.Now()
	_, err = r.pgpool.Exec(ctx,
		"INSERT INTO todos (id, user_id, text, completed, created_at) VALUES ($1, $2, $3, $4, $5)",
		id, owner, todo.Text, todo.Completed, todo.CreatedAt)
	metrics.RecordQuery(ctx, "postgresql", "insert_todo", start, err)
	if err != nil {
		r.logger.ErrorContext(ctx, "Failed to insert todo", slog.Any("error", err))
		span.RecordError(err)
		span.SetStatus(codes.Error, "insert failed")
		return nil, fmt.Errorf("failed to insert todo: %w", err)
	}
	return &todo, nil
}

func (r *PostgresTodoRepo) GetByID(ctx context.Context, id string) (*types.Todo, error) {
	ctx, span := pgSpan(ctx, "GetByID", "SELECT")
	defer span.End()

	todoID, err := uuid.Parse(id)
	if err != nil {
		return nil, fmt.Errorf("%w: malformed todo id", types.ErrNotFound)
	}
	return r.scanOne(ctx, span, "get_todo",
		"SELECT "+todoColumns+" FROM todos WHERE id = $1", todoID)
}

func (r *PostgresTodoRepo) Update(ctx context.Context, params types.UpdateTodoParams) (*types.Todo, error) {
	ctx, span := pgSpan(ctx, "Update", "UPDATE")
	defer span.End()

	todoID, err := uuid.Parse(params.ID)
	if err != nil {
		return nil, fmt.Errorf("%w: malformed todo id", types.ErrNotFound)
	}
	return r.scanOne(ctx, span, "update_todo",
		"UPDATE todos SET text = COALESCE($2, text), completed = COALESCE($3, completed) WHERE id = $1 RETURNING "+todoColumns,
		todoID, params.Text, params.Completed)
}

func (r *PostgresTodoRepo) Delete(ctx context.Context, id string) error {
	ctx, span := pgSpan(ctx, "Delete", "DELETE")
	defer span.End()

	todoID, err := uuid.Parse(id)
	if err != nil {
		return fmt.Errorf("%w: malformed todo id", types.ErrNotFound)
	}

	start := time.Now()
	tag, err := r.pgpool.Exec(ctx, "DELETE FROM todos WHERE id = $1", todoID)
	metrics.RecordQuery(ctx, "postgresql", "delete_todo", start, err)
	if err != nil {
		r.logger.ErrorContext(ctx, "Failed to delete todo", slog.Any("error", err))
		span.RecordError(err)
		span.SetStatus(codes.Error, "delete failed")
		return fmt.Errorf("failed to delete todo: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return types.ErrNotFound
	}
	return nil
}

func (r *PostgresTodoRepo) scanOne(ctx context.Context, span trace.Span, op, query string, args ...any) (*types.Todo, error) {
	var t types.Todo
	start := time.Now()
	err := r.pgpool.QueryRow(ctx, query, args...).Scan(&t.ID, &t.Text, &t.Completed, &t.UserID, &t.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		metrics.RecordQuery(ctx, "postgresql", op, start, nil)
		return nil, types.ErrNotFound
	}
	metrics.RecordQuery(ctx, "postgresql", op, start, err)
	if err != nil {
		r.logger.ErrorContext(ctx, "Todo query failed", slog.String("op", op), slog.Any("error", err))
		span.RecordError(err)
		span.SetStatus(codes.Error, "query failed")
		return nil, fmt.Errorf("failed to %s: %w", op, err)
	}
	return &t, nil
}

package todo

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/FACorreiaa/go-todo-api/app/observability/metrics"
	"github.com/FACorreiaa/go-todo-api/internal/types"
)

var _ TodoService = (*TodoServiceImpl)(nil)

// TodoService is the owner-scoped todo contract. userID is always the
// verified caller, never a value taken from a request body.
type TodoService interface {
	List(ctx context.Context, userID string) ([]types.Todo, error)
	Create(ctx context.Context, userID, text string) (*types.Todo, error)
	Update(ctx context.Context, userID string, params types.UpdateTodoParams) (*types.Todo, error)
	Delete(ctx context.Context, userID, id string) error
}

type TodoServiceImpl struct {
	logger *slog.Logger
	repo   TodoRepo
}

func NewTodoService(repo TodoRepo, logger *slog.Logger) *TodoServiceImpl {
	return &TodoServiceImpl{
		logger: logger,
		repo:   repo,
	}
}

var (
	errTextRequired = types.NewClientError(types.ErrValidation, "Text is required")
	errIDRequired   = types.NewClientError(types.ErrValidation, "ID is required")
)

func (s *TodoServiceImpl) List(ctx context.Context, userID string) (todos []types.Todo, err error) {
	ctx, span := otel.Tracer("TodoService").Start(ctx, "List", trace.WithAttributes(
		attribute.String("user.id", userID),
	))
	defer span.End()
	defer func() { metrics.RecordTodoOperation(ctx, "list", err) }()

	l := s.logger.With(slog.String("method", "List"), slog.String("userID", userID))

	todos, err = s.repo.ListByOwner(ctx, userID)
	if err != nil {
		l.ErrorContext(ctx, "Failed to list todos", slog.Any("error", err))
		span.RecordError(err)
		span.SetStatus(codes.Error, "list failed")
		return nil, fmt.Errorf("error listing todos: %w", err)
	}
	if todos == nil {
		todos = []types.Todo{}
	}

	l.DebugContext(ctx, "Todos listed", slog.Int("count", len(todos)))
	span.SetStatus(codes.Ok, "listed")
	return todos, nil
}

func (s *TodoServiceImpl) Create(ctx context.Context, userID, text string) (todo *types.Todo, err error) {
	ctx, span := otel.Tracer("TodoService").Start(ctx, "Create", trace.WithAttributes(
		attribute.String("user.id", userID),
	))
	defer span.End()
	defer func() { metrics.RecordTodoOperation(ctx, "create", err) }()

	l := s.logger.With(slog.String("method", "Create"), slog.String("userID", userID))

	if strings.TrimSpace(text) == "" {
		span.SetStatus(codes.Error, "validation failed")
		return nil, errTextRequired
	}

	todo, err = s.repo.Create(ctx, types.Todo{
		Text:      text,
		Completed: false,
		UserID:    userID,
	})
	if err != nil {
		l.ErrorContext(ctx, "Failed to create todo", slog.Any("error", err))
		span.RecordError(err)
		span.SetStatus(codes.Error, "create failed")
		return nil, fmt.Errorf("error creating todo: %w", err)
	}

	l.InfoContext(ctx, "Todo created", slog.String("todoID", todo.ID))
	span.SetStatus(codes.Ok, "created")
	return todo, nil
}

func (s *TodoServiceImpl) Update(ctx context.Context, userID string, params types.UpdateTodoParams) (todo *types.Todo, err error) {
	ctx, span := otel.Tracer("TodoService").Start(ctx, "Update", trace.WithAttributes(
		attribute.String("user.id", userID),
		attribute.String("todo.id", params.ID),
	))
	defer span.End()
	defer func() { metrics.RecordTodoOperation(ctx, "update", err) }()

	l := s.logger.With(slog.String("method", "Update"), slog.String("userID", userID), slog.String("todoID", params.ID))

	existing, err := s.ownedTodo(ctx, userID, params.ID)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	if params.IsEmpty() {
		return existing, nil
	}

	todo, err = s.repo.Update(ctx, params)
	if err != nil {
		if errors.Is(err, types.ErrNotFound) {
			return nil, types.WrapClientError(types.ErrNotFound, "Todo not found", err)
		}
		l.ErrorContext(ctx, "Failed to update todo", slog.Any("error", err))
		span.RecordError(err)
		span.SetStatus(codes.Error, "update failed")
		return nil, fmt.Errorf("error updating todo: %w", err)
	}

	l.InfoContext(ctx, "Todo updated")
	span.SetStatus(codes.Ok, "updated")
	return todo, nil
}

func (s *TodoServiceImpl) Delete(ctx context.Context, userID, id string) (err error) {
	ctx, span := otel.Tracer("TodoService").Start(ctx, "Delete", trace.WithAttributes(
		attribute.String("user.id", userID),
		attribute.String("todo.id", id),
	))
	defer span.End()
	defer func() { metrics.RecordTodoOperation(ctx, "delete", err) }()

	l := s.logger.With(slog.String("method", "Delete"), slog.String("userID", userID), slog.String("todoID", id))

	if _, err = s.ownedTodo(ctx, userID, id); err != nil {
		span.SetStatus(codes.Error, err.Error())
		return err
	}

	if err = s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, types.ErrNotFound) {
			return types.WrapClientError(types.ErrNotFound, "Todo not found", err)
		}
		l.ErrorContext(ctx, "Failed to delete todo", slog.Any("error", err))
		span.RecordError(err)
		span.SetStatus(codes.Error, "delete failed")
		return fmt.Errorf("error deleting todo: %w", err)
	}

	l.InfoContext(ctx, "Todo deleted")
	span.SetStatus(codes.Ok, "deleted")
	return nil
}

// ownedTodo loads the todo and checks the caller owns it.
func (s *TodoServiceImpl) ownedTodo(ctx context.Context, userID, id string) (*types.Todo, error) {
	if strings.TrimSpace(id) == "" {
		return nil, errIDRequired
	}

	todo, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, types.ErrNotFound) {
			return nil, types.WrapClientError(types.ErrNotFound, "Todo not found", err)
		}
		s.logger.ErrorContext(ctx, "Failed to load todo", slog.String("todoID", id), slog.Any("error", err))
		return nil, fmt.Errorf("error loading todo: %w", err)
	}

	if todo.UserID != userID {
		s.logger.WarnContext(ctx, "Todo owned by another user",
			slog.String("todoID", id), slog.String("userID", userID))
		return nil, types.NewClientError(types.ErrForbidden, "Unauthorized")
	}
	return todo, nil
}

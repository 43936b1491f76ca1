package todo

import (
	"log/slog"
	"net/http"

	"github.com/FACorreiaa/go-todo-api/internal/api"
	"github.com/FACorreiaa/go-todo-api/internal/api/auth"
	"github.com/FACorreiaa/go-todo-api/internal/types"
)

var _ Handler = (*HandlerImpl)(nil)

type Handler interface {
	List(w http.ResponseWriter, r *http.Request)
	Create(w http.ResponseWriter, r *http.Request)
	Update(w http.ResponseWriter, r *http.Request)
	Delete(w http.ResponseWriter, r *http.Request)
}

type HandlerImpl struct {
	todoService TodoService
	logger      *slog.Logger
}

func NewHandlerImpl(todoService TodoService, logger *slog.Logger) *HandlerImpl {
	if logger == nil {
		panic("PANIC: Attempting to create todo HandlerImpl with nil logger!")
	}
	return &HandlerImpl{
		todoService: todoService,
		logger:      logger,
	}
}

const internalError = "Internal server error"

// List godoc
// @Summary      List todos
// @Description  Returns every todo owned by the caller.
// @Tags         Todos
// @Produce      json
// @Success      200 {array}  types.Todo
// @Failure      401 {object} types.Response
// @Failure      500 {object} types.Response
// @Security     BearerAuth
// @Router       /todos [get]
func (h *HandlerImpl) List(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID, ok := auth.GetUserIDFromContext(ctx)
	if !ok {
		api.ErrorResponse(w, r, http.StatusUnauthorized, "Login first")
		return
	}

	todos, err := h.todoService.List(ctx, userID)
	if err != nil {
		api.HandleServiceError(w, r, err, internalError)
		return
	}

	api.WriteJSONResponse(w, r, http.StatusOK, todos)
}

// Create godoc
// @Summary      Create todo
// @Description  Creates an incomplete todo owned by the caller. Owner and completion fields in the body are ignored.
// @Tags         Todos
// @Accept       json
// @Produce      json
// @Param        body body CreateTodoRequest true "Todo text"
// @Success      201 {object} types.Todo
// @Failure      400 {object} types.Response "Text is required"
// @Failure      401 {object} types.Response
// @Failure      500 {object} types.Response
// @Security     BearerAuth
// @Router       /todos [post]
func (h *HandlerImpl) Create(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	l := h.logger.With(slog.String("HandlerImpl", "Create"))

	userID, ok := auth.GetUserIDFromContext(ctx)
	if !ok {
		api.ErrorResponse(w, r, http.StatusUnauthorized, "Login first")
		return
	}

	var req CreateTodoRequest
	if err := api.DecodeJSONBody(w, r, &req); err != nil {
		l.WarnContext(ctx, "Failed to decode request", slog.Any("error", err))
		api.ErrorResponse(w, r, http.StatusBadRequest, "Text is required")
		return
	}

	todo, err := h.todoService.Create(ctx, userID, req.Text)
	if err != nil {
		api.HandleServiceError(w, r, err, internalError)
		return
	}

	api.WriteJSONResponse(w, r, http.StatusCreated, todo)
}

// Update godoc
// @Summary      Update todo
// @Description  Partially updates text and/or completed on a todo the caller owns.
// @Tags         Todos
// @Accept       json
// @Produce      json
// @Param        body body UpdateTodoRequest true "Fields to change"
// @Success      200 {object} types.Todo
// @Failure      400 {object} types.Response "ID is required"
// @Failure      401 {object} types.Response
// @Failure      403 {object} types.Response "Unauthorized"
// @Failure      404 {object} types.Response "Todo not found"
// @Failure      500 {object} types.Response
// @Security     BearerAuth
// @Router       /todos [put]
func (h *HandlerImpl) Update(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	l := h.logger.With(slog.String("HandlerImpl", "Update"))

	userID, ok := auth.GetUserIDFromContext(ctx)
	if !ok {
		api.ErrorResponse(w, r, http.StatusUnauthorized, "Login first")
		return
	}

	var req UpdateTodoRequest
	if err := api.DecodeJSONBody(w, r, &req); err != nil {
		l.WarnContext(ctx, "Failed to decode request", slog.Any("error", err))
		api.ErrorResponse(w, r, http.StatusBadRequest, "Invalid request body")
		return
	}

	todo, err := h.todoService.Update(ctx, userID, types.UpdateTodoParams{
		ID:        req.ID,
		Text:      req.Text,
		Completed: req.Completed,
	})
	if err != nil {
		api.HandleServiceError(w, r, err, internalError)
		return
	}

	api.WriteJSONResponse(w, r, http.StatusOK, todo)
}

// Delete godoc
// @Summary      Delete todo
// @Description  Permanently deletes a todo the caller owns.
// @Tags         Todos
// @Produce      json
// @Param        id query string true "Todo id"
// @Success      200 {object} types.Response
// @Failure      400 {object} types.Response "ID is required"
// @Failure      401 {object} types.Response
// @Failure      403 {object} types.Response "Unauthorized"
// @Failure      404 {object} types.Response "Todo not found"
// @Failure      500 {object} types.Response
// @Security     BearerAuth
// @Router       /todos [delete]
func (h *HandlerImpl) Delete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID, ok := auth.GetUserIDFromContext(ctx)
	if !ok {
		api.ErrorResponse(w, r, http.StatusUnauthorized, "Login first")
		return
	}

	if err := h.todoService.Delete(ctx, userID, r.URL.Query().Get("id")); err != nil {
		api.HandleServiceError(w, r, err, internalError)
		return
	}

	api.WriteJSONResponse(w, r, http.StatusOK, types.Response{Success: true, Message: "Todo deleted"})
}

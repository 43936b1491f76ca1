package auth

import (
	"log/slog"
	"net/http"

	"github.com/FACorreiaa/go-todo-api/internal/api"
	"github.com/FACorreiaa/go-todo-api/internal/types"
)

var _ Handler = (*HandlerImpl)(nil)

type Handler interface {
	Signup(w http.ResponseWriter, r *http.Request)
	Login(w http.ResponseWriter, r *http.Request)
	Logout(w http.ResponseWriter, r *http.Request)
	Me(w http.ResponseWriter, r *http.Request)
}

type HandlerImpl struct {
	authService AuthService
	logger      *slog.Logger
}

func NewHandlerImpl(authService AuthService, logger *slog.Logger) *HandlerImpl {
	if logger == nil {
		panic("PANIC: Attempting to create auth HandlerImpl with nil logger!")
	}
	return &HandlerImpl{
		authService: authService,
		logger:      logger,
	}
}

// Signup godoc
// @Summary      Sign up
// @Description  Creates a new account. The password is stored hashed and never returned.
// @Tags         Auth
// @Accept       json
// @Produce      json
// @Param        body body SignupRequest true "New account"
// @Success      201 {object} UserResponse
// @Failure      400 {object} types.Response "Missing fields or error creating user"
// @Router       /auth/signup [post]
func (h *HandlerImpl) Signup(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	l := h.logger.With(slog.String("HandlerImpl", "Signup"))

	var req SignupRequest
	if err := api.DecodeJSONBody(w, r, &req); err != nil {
		l.WarnContext(ctx, "Failed to decode request", slog.Any("error", err))
		api.ErrorResponse(w, r, http.StatusBadRequest, "Error creating user")
		return
	}

	user, err := h.authService.Signup(ctx, req.Name, req.Email, req.Password)
	if err != nil {
		api.HandleServiceError(w, r, err, "Error creating user")
		return
	}

	api.WriteJSONResponse(w, r, http.StatusCreated, UserResponse{User: *user})
}

// Login godoc
// @Summary      Log in
// @Description  Exchanges credentials for a bearer token valid for one hour.
// @Tags         Auth
// @Accept       json
// @Produce      json
// @Param        body body LoginRequest true "Credentials"
// @Success      200 {object} LoginResponse
// @Failure      400 {object} types.Response "Missing fields or error logging in"
// @Failure      401 {object} types.Response "Invalid email or password"
// @Router       /auth/login [post]
func (h *HandlerImpl) Login(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	l := h.logger.With(slog.String("HandlerImpl", "Login"))

	var req LoginRequest
	if err := api.DecodeJSONBody(w, r, &req); err != nil {
		l.WarnContext(ctx, "Failed to decode request", slog.Any("error", err))
		api.ErrorResponse(w, r, http.StatusBadRequest, "Error logging in")
		return
	}

	resp, err := h.authService.Login(ctx, req.Email, req.Password)
	if err != nil {
		api.HandleServiceError(w, r, err, "Error logging in")
		return
	}

	api.WriteJSONResponse(w, r, http.StatusOK, resp)
}

// Logout godoc
// @Summary      Log out
// @Description  Revokes the presented token.
// @Tags         Auth
// @Produce      json
// @Success      200 {object} types.Response
// @Failure      401 {object} types.Response
// @Security     BearerAuth
// @Router       /auth/logout [post]
func (h *HandlerImpl) Logout(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	claims, ok := GetClaimsFromContext(ctx)
	if !ok {
		api.ErrorResponse(w, r, http.StatusUnauthorized, "Login first")
		return
	}

	if err := h.authService.Logout(ctx, claims); err != nil {
		api.HandleServiceError(w, r, err, "Error logging out")
		return
	}

	api.WriteJSONResponse(w, r, http.StatusOK, types.Response{Success: true, Message: "Logged out"})
}

// Me godoc
// @Summary      Current user
// @Description  Returns the public profile of the token's owner.
// @Tags         Auth
// @Produce      json
// @Success      200 {object} UserResponse
// @Failure      401 {object} types.Response
// @Failure      404 {object} types.Response
// @Security     BearerAuth
// @Router       /auth/me [get]
func (h *HandlerImpl) Me(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	userID, ok := GetUserIDFromContext(ctx)
	if !ok {
		api.ErrorResponse(w, r, http.StatusUnauthorized, "Login first")
		return
	}

	user, err := h.authService.Me(ctx, userID)
	if err != nil {
		h.logger.ErrorContext(ctx, "Failed to load current user", slog.Any("error", err))
		api.HandleServiceError(w, r, err, "Internal server error")
		return
	}

	api.WriteJSONResponse(w, r, http.StatusOK, UserResponse{User: *user})
}

package auth

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/FACorreiaa/go-todo-api/internal/types"
)

type MockAuthService struct {
	mock.Mock
}

func (m *MockAuthService) Signup(ctx context.Context, name, email, password string) (*types.PublicUser, error) {
	args := m.Called(ctx, name, email, password)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*types.PublicUser), args.Error(1)
}

func (m *MockAuthService) Login(ctx context.Context, email, password string) (*LoginResponse, error) {
	args := m.Called(ctx, email, password)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*LoginResponse), args.Error(1)
}

func (m *MockAuthService) Logout(ctx context.Context, claims *types.Claims) error {
	return m.Called(ctx, claims).Error(0)
}

func (m *MockAuthService) Me(ctx context.Context, userID string) (*types.PublicUser, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*types.PublicUser), args.Error(1)
}

func (m *MockAuthService) VerifyToken(ctx context.Context, token string) (*types.Claims, error) {
	args := m.Called(ctx, token)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*types.Claims), args.Error(1)
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body
}

func TestHandler_Signup(t *testing.T) {
	t.Run("created without hash", func(t *testing.T) {
		svc := new(MockAuthService)
		h := NewHandlerImpl(svc, discardLogger())
		svc.On("Signup", mock.Anything, "Ada", "ada@example.com", "s3cret").
			Return(&types.PublicUser{ID: "u1", Name: "Ada", Email: "ada@example.com"}, nil)

		req := httptest.NewRequest(http.MethodPost, "/auth/signup",
			bytes.NewBufferString(`{"name":"Ada","email":"ada@example.com","password":"s3cret"}`))
		w := httptest.NewRecorder()
		h.Signup(w, req)

		assert.Equal(t, http.StatusCreated, w.Code)
		assert.NotContains(t, w.Body.String(), "password")
		user := decodeBody(t, w)["user"].(map[string]interface{})
		assert.Equal(t, "u1", user["id"])
	})

	t.Run("service rejects", func(t *testing.T) {
		svc := new(MockAuthService)
		h := NewHandlerImpl(svc, discardLogger())
		svc.On("Signup", mock.Anything, "Ada", "ada@example.com", "s3cret").
			Return(nil, types.WrapClientError(types.ErrValidation, "Error creating user", types.ErrConflict))

		req := httptest.NewRequest(http.MethodPost, "/auth/signup",
			bytes.NewBufferString(`{"name":"Ada","email":"ada@example.com","password":"s3cret"}`))
		w := httptest.NewRecorder()
		h.Signup(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, "Error creating user", decodeBody(t, w)["error"])
	})

	t.Run("malformed body", func(t *testing.T) {
		svc := new(MockAuthService)
		h := NewHandlerImpl(svc, discardLogger())

		w := httptest.NewRecorder()
		h.Signup(w, httptest.NewRequest(http.MethodPost, "/auth/signup", bytes.NewBufferString(`{`)))

		assert.Equal(t, http.StatusBadRequest, w.Code)
		svc.AssertNotCalled(t, "Signup", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})
}

func TestHandler_Login(t *testing.T) {
	t.Run("ok", func(t *testing.T) {
		svc := new(MockAuthService)
		h := NewHandlerImpl(svc, discardLogger())
		svc.On("Login", mock.Anything, "ada@example.com", "s3cret").Return(&LoginResponse{
			Token: "tok",
			User:  types.PublicUser{ID: "u1", Name: "Ada", Email: "ada@example.com"},
		}, nil)

		w := httptest.NewRecorder()
		h.Login(w, httptest.NewRequest(http.MethodPost, "/auth/login",
			bytes.NewBufferString(`{"email":"ada@example.com","password":"s3cret"}`)))

		assert.Equal(t, http.StatusOK, w.Code)
		body := decodeBody(t, w)
		assert.Equal(t, "tok", body["token"])
	})

	t.Run("invalid password", func(t *testing.T) {
		svc := new(MockAuthService)
		h := NewHandlerImpl(svc, discardLogger())
		svc.On("Login", mock.Anything, "ada@example.com", "nope").
			Return(nil, types.NewClientError(types.ErrUnauthenticated, "Invalid password"))

		w := httptest.NewRecorder()
		h.Login(w, httptest.NewRequest(http.MethodPost, "/auth/login",
			bytes.NewBufferString(`{"email":"ada@example.com","password":"nope"}`)))

		assert.Equal(t, http.StatusUnauthorized, w.Code)
		body := decodeBody(t, w)
		assert.Equal(t, "Invalid password", body["error"])
		assert.Equal(t, false, body["success"])
	})
}

func TestHandler_LogoutAndMe(t *testing.T) {
	svc := new(MockAuthService)
	h := NewHandlerImpl(svc, discardLogger())
	claims := &types.Claims{UserID: "u1", Email: "ada@example.com"}
	svc.On("Logout", mock.Anything, claims).Return(nil)
	svc.On("Me", mock.Anything, "u1").Return(&types.PublicUser{ID: "u1", Name: "Ada", Email: "ada@example.com"}, nil)

	req := httptest.NewRequest(http.MethodPost, "/auth/logout", nil)
	req = req.WithContext(WithClaims(req.Context(), claims))
	w := httptest.NewRecorder()
	h.Logout(w, req)
	assert.Equal(t, http.StatusOK, w.Code)

	req = httptest.NewRequest(http.MethodGet, "/auth/me", nil)
	req = req.WithContext(WithClaims(req.Context(), claims))
	w = httptest.NewRecorder()
	h.Me(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Ada", decodeBody(t, w)["user"].(map[string]interface{})["name"])

	w = httptest.NewRecorder()
	h.Me(w, httptest.NewRequest(http.MethodGet, "/auth/me", nil))
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	svc.AssertExpectations(t)
}

func TestNewHandlerImpl_NilLoggerPanics(t *testing.T) {
	assert.Panics(t, func() { NewHandlerImpl(new(MockAuthService), nil) })
}

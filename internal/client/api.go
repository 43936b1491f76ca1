package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/FACorreiaa/go-todo-api/internal/types"
)

var (
	// ErrSessionExpired is returned when the server rejects the stored token.
	// The session has already been cleared when it is returned.
	ErrSessionExpired = errors.New("session expired, please log in again")
	ErrNotLoggedIn    = errors.New("not logged in")
)

// APIError carries a non-2xx response from the server.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%d: %s", e.Status, e.Message)
}

// APIClient talks to the todo API and owns the current session.
type APIClient struct {
	baseURL string
	http    *http.Client
	store   SessionStore
	logger  *slog.Logger

	mu      sync.RWMutex
	session *Session
}

type Option func(*APIClient)

func WithHTTPClient(c *http.Client) Option {
	return func(a *APIClient) { a.http = c }
}

func WithLogger(l *slog.Logger) Option {
	return func(a *APIClient) { a.logger = l }
}

func NewAPIClient(baseURL string, store SessionStore, opts ...Option) *APIClient {
	c := &APIClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: 15 * time.Second},
		store:   store,
		logger:  slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Session returns a copy of the current session, or nil when logged out.
func (c *APIClient) Session() *Session {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.session == nil {
		return nil
	}
	s := *c.session
	return &s
}

// Restore loads a stored session and checks it against the server.
// It returns (nil, nil) when there is nothing to restore or the token is no
// longer accepted.
func (c *APIClient) Restore(ctx context.Context) (*Session, error) {
	sess, err := c.store.Load(ctx)
	if err != nil || sess == nil {
		return nil, err
	}

	c.setSession(sess)
	var resp struct {
		User types.PublicUser `json:"user"`
	}
	if err = c.do(ctx, http.MethodGet, "/auth/me", nil, &resp); err != nil {
		if errors.Is(err, ErrSessionExpired) {
			return nil, nil
		}
		return nil, err
	}
	c.setSession(&Session{Token: sess.Token, User: resp.User})
	return c.Session(), nil
}

func (c *APIClient) Signup(ctx context.Context, name, email, password string) (*types.PublicUser, error) {
	body := map[string]string{"name": name, "email": email, "password": password}
	var resp struct {
		User types.PublicUser `json:"user"`
	}
	if err := c.do(ctx, http.MethodPost, "/auth/signup", body, &resp); err != nil {
		return nil, err
	}
	return &resp.User, nil
}

// Login exchanges credentials for a token and persists the session.
func (c *APIClient) Login(ctx context.Context, email, password string) (*Session, error) {
	body := map[string]string{"email": email, "password": password}
	var resp struct {
		Token string           `json:"token"`
		User  types.PublicUser `json:"user"`
	}
	if err := c.do(ctx, http.MethodPost, "/auth/login", body, &resp); err != nil {
		return nil, err
	}

	sess := &Session{Token: resp.Token, User: resp.User}
	if err := c.store.Save(ctx, *sess); err != nil {
		return nil, err
	}
	c.setSession(sess)
	return c.Session(), nil
}

// Logout revokes the token server side and always drops the local session.
func (c *APIClient) Logout(ctx context.Context) error {
	if c.Session() == nil {
		return c.clearSession(ctx)
	}
	err := c.do(ctx, http.MethodPost, "/auth/logout", nil, nil)
	if clearErr := c.clearSession(ctx); clearErr != nil {
		return errors.Join(err, clearErr)
	}
	if errors.Is(err, ErrSessionExpired) {
		return nil
	}
	return err
}

func (c *APIClient) ListTodos(ctx context.Context) ([]types.Todo, error) {
	todos := []types.Todo{}
	if err := c.do(ctx, http.MethodGet, "/todos", nil, &todos); err != nil {
		return nil, err
	}
	return todos, nil
}

func (c *APIClient) CreateTodo(ctx context.Context, text string) (*types.Todo, error) {
	var todo types.Todo
	if err := c.do(ctx, http.MethodPost, "/todos", map[string]string{"text": text}, &todo); err != nil {
		return nil, err
	}
	return &todo, nil
}

// UpdateTodo sends only the non-nil fields.
func (c *APIClient) UpdateTodo(ctx context.Context, id string, text *string, completed *bool) (*types.Todo, error) {
	body := struct {
		ID        string  `json:"id"`
		Text      *string `json:"text,omitempty"`
		Completed *bool   `json:"completed,omitempty"`
	}{ID: id, Text: text, Completed: completed}

	var todo types.Todo
	if err := c.do(ctx, http.MethodPut, "/todos", body, &todo); err != nil {
		return nil, err
	}
	return &todo, nil
}

func (c *APIClient) DeleteTodo(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/todos?id="+url.QueryEscape(id), nil, nil)
}

func (c *APIClient) setSession(s *Session) {
	c.mu.Lock()
	c.session = s
	c.mu.Unlock()
}

func (c *APIClient) clearSession(ctx context.Context) error {
	c.setSession(nil)
	return c.store.Clear(ctx)
}

func (c *APIClient) do(ctx context.Context, method, path string, in, out interface{}) error {
	l := c.logger.With(slog.String("method", method), slog.String("path", path))

	var body io.Reader
	if in != nil {
		raw, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("failed to encode request: %w", err)
		}
		body = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	var sess *Session
	if !isPublicPath(path) {
		if sess = c.Session(); sess == nil {
			return ErrNotLoggedIn
		}
		req.Header.Set("Authorization", "Bearer "+sess.Token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}
	l.Debug("Response received", slog.Int("status", resp.StatusCode))

	if resp.StatusCode == http.StatusUnauthorized && sess != nil {
		if err = c.clearSession(ctx); err != nil {
			l.Warn("Failed to clear session", slog.Any("error", err))
		}
		return ErrSessionExpired
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &APIError{Status: resp.StatusCode, Message: errorMessage(resp.StatusCode, data)}
	}

	if out == nil || len(data) == 0 {
		return nil
	}
	if err = json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

// isPublicPath reports whether path is served without a bearer token. A 401
// on these means bad credentials, not an expired session.
func isPublicPath(path string) bool {
	return path == "/auth/login" || path == "/auth/signup"
}

func errorMessage(status int, data []byte) string {
	var body struct {
		Error string `json:"error"`
	}
	if err := json.Unmarshal(data, &body); err == nil && body.Error != "" {
		return body.Error
	}
	return http.StatusText(status)
}

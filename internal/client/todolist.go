package client

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/FACorreiaa/go-todo-api/internal/types"
)

var (
	ErrNothingToUndo = errors.New("nothing to undo")
	ErrEmptyText     = errors.New("text is empty")
)

// TodoList mirrors the caller's todos in memory. Deletes are applied locally
// before the server confirms them and rolled back if it refuses.
type TodoList struct {
	api *APIClient

	mu          sync.Mutex
	items       []types.Todo
	lastRemoved *types.Todo
}

func NewTodoList(api *APIClient) *TodoList {
	return &TodoList{api: api}
}

// Items returns a snapshot in display order.
func (l *TodoList) Items() []types.Todo {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]types.Todo, len(l.items))
	copy(out, l.items)
	return out
}

func (l *TodoList) Refresh(ctx context.Context) error {
	todos, err := l.api.ListTodos(ctx)
	if err != nil {
		return err
	}
	l.mu.Lock()
	l.items = todos
	l.mu.Unlock()
	return nil
}

// Add creates a todo. Blank text is rejected without a request.
func (l *TodoList) Add(ctx context.Context, text string) (*types.Todo, error) {
	if strings.TrimSpace(text) == "" {
		return nil, ErrEmptyText
	}
	todo, err := l.api.CreateTodo(ctx, text)
	if err != nil {
		return nil, err
	}
	l.mu.Lock()
	l.items = append(l.items, *todo)
	l.mu.Unlock()
	return todo, nil
}

func (l *TodoList) Toggle(ctx context.Context, id string) (*types.Todo, error) {
	current, err := l.find(id)
	if err != nil {
		return nil, err
	}
	completed := !current.Completed
	return l.update(ctx, id, nil, &completed)
}

func (l *TodoList) Edit(ctx context.Context, id, text string) (*types.Todo, error) {
	if strings.TrimSpace(text) == "" {
		return nil, ErrEmptyText
	}
	if _, err := l.find(id); err != nil {
		return nil, err
	}
	return l.update(ctx, id, &text, nil)
}

// Remove drops the todo locally, then deletes it on the server. On failure the
// todo is put back at its former position.
func (l *TodoList) Remove(ctx context.Context, id string) error {
	l.mu.Lock()
	idx := l.indexOf(id)
	if idx < 0 {
		l.mu.Unlock()
		return fmt.Errorf("todo %s: %w", id, types.ErrNotFound)
	}
	removed := l.items[idx]
	l.items = append(l.items[:idx:idx], l.items[idx+1:]...)
	l.mu.Unlock()

	if err := l.api.DeleteTodo(ctx, id); err != nil {
		l.mu.Lock()
		if idx > len(l.items) {
			idx = len(l.items)
		}
		l.items = append(l.items[:idx], append([]types.Todo{removed}, l.items[idx:]...)...)
		l.mu.Unlock()
		return err
	}

	l.mu.Lock()
	l.lastRemoved = &removed
	l.mu.Unlock()
	return nil
}

// Undo re-creates the last removed todo. The restored todo gets a new id; a
// completed flag is restored with a follow-up update.
func (l *TodoList) Undo(ctx context.Context) (*types.Todo, error) {
	l.mu.Lock()
	removed := l.lastRemoved
	l.mu.Unlock()
	if removed == nil {
		return nil, ErrNothingToUndo
	}

	todo, err := l.api.CreateTodo(ctx, removed.Text)
	if err != nil {
		return nil, err
	}
	l.mu.Lock()
	l.lastRemoved = nil
	l.items = append(l.items, *todo)
	l.mu.Unlock()

	if removed.Completed {
		return l.update(ctx, todo.ID, nil, &removed.Completed)
	}
	return todo, nil
}

func (l *TodoList) update(ctx context.Context, id string, text *string, completed *bool) (*types.Todo, error) {
	todo, err := l.api.UpdateTodo(ctx, id, text, completed)
	if err != nil {
		return nil, err
	}
	l.mu.Lock()
	if idx := l.indexOf(id); idx >= 0 {
		l.items[idx] = *todo
	}
	l.mu.Unlock()
	return todo, nil
}

func (l *TodoList) find(id string) (types.Todo, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	idx := l.indexOf(id)
	if idx < 0 {
		return types.Todo{}, fmt.Errorf("todo %s: %w", id, types.ErrNotFound)
	}
	return l.items[idx], nil
}

// indexOf must be called with mu held.
func (l *TodoList) indexOf(id string) int {
	for i, t := range l.items {
		if t.ID == id {
			return i
		}
	}
	return -1
}

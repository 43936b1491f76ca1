package todo

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/patrickmn/go-cache"

	"github.com/FACorreiaa/go-todo-api/internal/types"
)

var _ TodoRepo = (*MemoryTodoRepo)(nil)

type memoryTodo struct {
	todo types.Todo
	seq  uint64
}

// MemoryTodoRepo keeps todos in process memory in insertion order.
type MemoryTodoRepo struct {
	mu    sync.Mutex
	seq   uint64
	todos *cache.Cache
}

func NewMemoryTodoRepo() *MemoryTodoRepo {
	return &MemoryTodoRepo{todos: cache.New(cache.NoExpiration, 0)}
}

func (r *MemoryTodoRepo) ListByOwner(_ context.Context, userID string) ([]types.Todo, error) {
	items := r.todos.Items()
	owned := make([]memoryTodo, 0, len(items))
	for _, item := range items {
		mt := item.Object.(memoryTodo)
		if mt.todo.UserID == userID {
			owned = append(owned, mt)
		}
	}
	sort.Slice(owned, func(i, j int) bool { return owned[i].seq < owned[j].seq })

	todos := make([]types.Todo, 0, len(owned))
	for _, mt := range owned {
		todos = append(todos, mt.todo)
	}
	return todos, nil
}

func (r *MemoryTodoRepo) Create(_ context.Context, todo types.Todo) (*types.Todo, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.seq++
	todo.ID = uuid.NewString()
	todo.CreatedAt = time.Now().UTC()
	r.todos.Set(todo.ID, memoryTodo{todo: todo, seq: r.seq}, cache.NoExpiration)
	return &todo, nil
}

func (r *MemoryTodoRepo) GetByID(_ context.Context, id string) (*types.Todo, error) {
	v, found := r.todos.Get(id)
	if !found {
		return nil, types.ErrNotFound
	}
	t := v.(memoryTodo).todo
	return &t, nil
}

func (r *MemoryTodoRepo) Update(_ context.Context, params types.UpdateTodoParams) (*types.Todo, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	v, found := r.todos.Get(params.ID)
	if !found {
		return nil, types.ErrNotFound
	}
	mt := v.(memoryTodo)
	mt.todo = params.Apply(mt.todo)
	r.todos.Set(params.ID, mt, cache.NoExpiration)
	t := mt.todo
	return &t, nil
}

func (r *MemoryTodoRepo) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, found := r.todos.Get(id); !found {
		return types.ErrNotFound
	}
	r.todos.Delete(id)
	return nil
}

package auth

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/patrickmn/go-cache"

	"github.com/FACorreiaa/go-todo-api/internal/types"
)

var _ AuthRepo = (*MemoryAuthRepo)(nil)

// MemoryAuthRepo keeps users in process memory. Email uniqueness relies on
// cache.Add failing for an existing key.
type MemoryAuthRepo struct {
	byID    *cache.Cache
	byEmail *cache.Cache
}

func NewMemoryAuthRepo() *MemoryAuthRepo {
	return &MemoryAuthRepo{
		byID:    cache.New(cache.NoExpiration, 0),
		byEmail: cache.New(cache.NoExpiration, 0),
	}
}

func (r *MemoryAuthRepo) CreateUser(_ context.Context, name, email, passwordHash string) (*types.User, error) {
	user := types.User{
		ID:           uuid.NewString(),
		Name:         name,
		Email:        email,
		PasswordHash: passwordHash,
		CreatedAt:    time.Now().UTC(),
	}
	// the id entry exists before the email becomes visible to lookups
	r.byID.Set(user.ID, user, cache.NoExpiration)
	if err := r.byEmail.Add(email, user.ID, cache.NoExpiration); err != nil {
		r.byID.Delete(user.ID)
		return nil, fmt.Errorf("%w: email already registered", types.ErrConflict)
	}
	return &user, nil
}

func (r *MemoryAuthRepo) GetUserByEmail(ctx context.Context, email string) (*types.User, error) {
	id, found := r.byEmail.Get(email)
	if !found {
		return nil, types.ErrNotFound
	}
	return r.GetUserByID(ctx, id.(string))
}

func (r *MemoryAuthRepo) GetUserByID(_ context.Context, id string) (*types.User, error) {
	v, found := r.byID.Get(id)
	if !found {
		return nil, types.ErrNotFound
	}
	user := v.(types.User)
	return &user, nil
}

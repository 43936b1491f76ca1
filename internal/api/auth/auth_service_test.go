package auth

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/FACorreiaa/go-todo-api/internal/api"
	"github.com/FACorreiaa/go-todo-api/internal/types"
)

type MockAuthRepo struct {
	mock.Mock
}

func (m *MockAuthRepo) CreateUser(ctx context.Context, name, email, passwordHash string) (*types.User, error) {
	args := m.Called(ctx, name, email, passwordHash)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*types.User), args.Error(1)
}

func (m *MockAuthRepo) GetUserByEmail(ctx context.Context, email string) (*types.User, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*types.User), args.Error(1)
}

func (m *MockAuthRepo) GetUserByID(ctx context.Context, id string) (*types.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*types.User), args.Error(1)
}

func newTestService(repo AuthRepo) *AuthServiceImpl {
	return NewAuthService(repo, NewTokenManager(testJWTConfig()), NewCacheRevocationStore(), discardLogger())
}

func TestSignup_HashesPassword(t *testing.T) {
	repo := new(MockAuthRepo)
	svc := newTestService(repo)

	var storedHash string
	repo.On("CreateUser", mock.Anything, "Ada", "ada@example.com", mock.AnythingOfType("string")).
		Run(func(args mock.Arguments) { storedHash = args.String(3) }).
		Return(&types.User{ID: "u1", Name: "Ada", Email: "ada@example.com"}, nil)

	user, err := svc.Signup(context.Background(), " Ada ", " ada@example.com ", "s3cret")
	require.NoError(t, err)

	assert.Equal(t, types.PublicUser{ID: "u1", Name: "Ada", Email: "ada@example.com"}, *user)
	assert.NotEqual(t, "s3cret", storedHash)
	assert.NoError(t, checkPassword(storedHash, "s3cret"))
	cost, err := bcrypt.Cost([]byte(storedHash))
	require.NoError(t, err)
	assert.Equal(t, PasswordCost, cost)
	repo.AssertExpectations(t)
}

func TestSignup_LongPasswordRoundTrip(t *testing.T) {
	repo := new(MockAuthRepo)
	svc := newTestService(repo)

	password := strings.Repeat("p", 80)
	var stored types.User
	repo.On("CreateUser", mock.Anything, "Ada", "long@example.com", mock.AnythingOfType("string")).
		Run(func(args mock.Arguments) {
			stored = types.User{ID: "u1", Name: "Ada", Email: "long@example.com", PasswordHash: args.String(3)}
		}).
		Return(&types.User{ID: "u1", Name: "Ada", Email: "long@example.com"}, nil)

	_, err := svc.Signup(context.Background(), "Ada", "long@example.com", password)
	require.NoError(t, err)
	repo.On("GetUserByEmail", mock.Anything, "long@example.com").Return(&stored, nil)

	resp, err := svc.Login(context.Background(), "long@example.com", password)
	require.NoError(t, err)
	assert.NotEmpty(t, resp.Token)

	// bytes past 72 still count
	_, err = svc.Login(context.Background(), "long@example.com", strings.Repeat("p", 79)+"q")
	assert.ErrorIs(t, err, types.ErrUnauthenticated)
}

func TestSignup_Validation(t *testing.T) {
	cases := []struct {
		name, uname, email, password string
	}{
		{"missing name", "", "ada@example.com", "pw"},
		{"blank email", "Ada", "   ", "pw"},
		{"missing password", "Ada", "ada@example.com", ""},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			repo := new(MockAuthRepo)
			svc := newTestService(repo)

			_, err := svc.Signup(context.Background(), tc.uname, tc.email, tc.password)
			assert.ErrorIs(t, err, types.ErrValidation)
			repo.AssertNotCalled(t, "CreateUser", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
		})
	}
}

func TestSignup_DuplicateEmailIsBadRequest(t *testing.T) {
	repo := new(MockAuthRepo)
	svc := newTestService(repo)

	repo.On("CreateUser", mock.Anything, "Ada", "ada@example.com", mock.Anything).
		Return(nil, types.ErrConflict)

	_, err := svc.Signup(context.Background(), "Ada", "ada@example.com", "pw")
	require.Error(t, err)
	assert.ErrorIs(t, err, types.ErrValidation)
	assert.Equal(t, "Error creating user", api.MessageFor(err, ""))
}

func TestLogin_RoundTrip(t *testing.T) {
	repo := new(MockAuthRepo)
	svc := newTestService(repo)

	hash, err := hashPassword("s3cret", bcrypt.MinCost)
	require.NoError(t, err)
	stored := &types.User{ID: "u1", Name: "Ada", Email: "ada@example.com", PasswordHash: hash}
	repo.On("GetUserByEmail", mock.Anything, "ada@example.com").Return(stored, nil)

	resp, err := svc.Login(context.Background(), "ada@example.com", "s3cret")
	require.NoError(t, err)
	assert.Equal(t, stored.Public(), resp.User)

	claims, err := svc.VerifyToken(context.Background(), resp.Token)
	require.NoError(t, err)
	assert.Equal(t, "u1", claims.UserID)
	assert.Equal(t, "ada@example.com", claims.Email)
}

func TestLogin_Failures(t *testing.T) {
	hash, err := hashPassword("s3cret", bcrypt.MinCost)
	require.NoError(t, err)

	t.Run("unknown email", func(t *testing.T) {
		repo := new(MockAuthRepo)
		repo.On("GetUserByEmail", mock.Anything, "nobody@example.com").Return(nil, types.ErrNotFound)

		_, err := newTestService(repo).Login(context.Background(), "nobody@example.com", "s3cret")
		assert.ErrorIs(t, err, types.ErrUnauthenticated)
		assert.Equal(t, "Invalid email", api.MessageFor(err, ""))
	})

	t.Run("wrong password", func(t *testing.T) {
		repo := new(MockAuthRepo)
		repo.On("GetUserByEmail", mock.Anything, "ada@example.com").
			Return(&types.User{ID: "u1", Email: "ada@example.com", PasswordHash: hash}, nil)

		_, err := newTestService(repo).Login(context.Background(), "ada@example.com", "wrong")
		assert.ErrorIs(t, err, types.ErrUnauthenticated)
		assert.Equal(t, "Invalid password", api.MessageFor(err, ""))
	})

	t.Run("store failure", func(t *testing.T) {
		repo := new(MockAuthRepo)
		repo.On("GetUserByEmail", mock.Anything, "ada@example.com").Return(nil, errors.New("socket closed"))

		_, err := newTestService(repo).Login(context.Background(), "ada@example.com", "s3cret")
		assert.ErrorIs(t, err, types.ErrValidation)
		assert.Equal(t, "Error logging in", api.MessageFor(err, ""))
	})

	t.Run("missing fields", func(t *testing.T) {
		repo := new(MockAuthRepo)
		_, err := newTestService(repo).Login(context.Background(), "", "")
		assert.ErrorIs(t, err, types.ErrValidation)
		repo.AssertNotCalled(t, "GetUserByEmail", mock.Anything, mock.Anything)
	})
}

func TestLogout_RevokesToken(t *testing.T) {
	repo := new(MockAuthRepo)
	svc := newTestService(repo)

	token, _, err := svc.tokens.Issue(&types.User{ID: "u1", Email: "ada@example.com"})
	require.NoError(t, err)

	claims, err := svc.VerifyToken(context.Background(), token)
	require.NoError(t, err)

	require.NoError(t, svc.Logout(context.Background(), claims))

	_, err = svc.VerifyToken(context.Background(), token)
	assert.ErrorIs(t, err, ErrTokenRevoked)
}

func TestMe(t *testing.T) {
	repo := new(MockAuthRepo)
	svc := newTestService(repo)
	repo.On("GetUserByID", mock.Anything, "u1").Return(&types.User{ID: "u1", Name: "Ada", Email: "ada@example.com"}, nil)
	repo.On("GetUserByID", mock.Anything, "gone").Return(nil, types.ErrNotFound)

	user, err := svc.Me(context.Background(), "u1")
	require.NoError(t, err)
	assert.Equal(t, "Ada", user.Name)

	_, err = svc.Me(context.Background(), "gone")
	assert.ErrorIs(t, err, types.ErrNotFound)
}

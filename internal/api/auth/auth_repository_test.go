package auth

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"regexp"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/integration/mtest"

	"github.com/FACorreiaa/go-todo-api/internal/types"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestPostgresAuthRepo_CreateUser(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewPostgresAuthRepo(mock, discardLogger())

	mock.ExpectExec("INSERT INTO users").
		WithArgs(pgxmock.AnyArg(), "Ada", "ada@example.com", "hash", pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	user, err := repo.CreateUser(context.Background(), "Ada", "ada@example.com", "hash")
	require.NoError(t, err)
	_, err = uuid.Parse(user.ID)
	assert.NoError(t, err)
	assert.Equal(t, "ada@example.com", user.Email)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresAuthRepo_CreateUser_Duplicate(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewPostgresAuthRepo(mock, discardLogger())

	mock.ExpectExec("INSERT INTO users").
		WithArgs(pgxmock.AnyArg(), "Ada", "ada@example.com", "hash", pgxmock.AnyArg()).
		WillReturnError(&pgconn.PgError{Code: pgUniqueViolation})

	_, err = repo.CreateUser(context.Background(), "Ada", "ada@example.com", "hash")
	assert.ErrorIs(t, err, types.ErrConflict)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresAuthRepo_GetUserByEmail(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewPostgresAuthRepo(mock, discardLogger())
	query := regexp.QuoteMeta("SELECT id::text, name, email, password_hash, created_at FROM users WHERE email = $1")
	id := uuid.NewString()
	now := time.Now().UTC()

	mock.ExpectQuery(query).
		WithArgs("ada@example.com").
		WillReturnRows(pgxmock.NewRows([]string{"id", "name", "email", "password_hash", "created_at"}).
			AddRow(id, "Ada", "ada@example.com", "hash", now))

	user, err := repo.GetUserByEmail(context.Background(), "ada@example.com")
	require.NoError(t, err)
	assert.Equal(t, id, user.ID)
	assert.Equal(t, "hash", user.PasswordHash)

	mock.ExpectQuery(query).WithArgs("nobody@example.com").WillReturnError(pgx.ErrNoRows)
	_, err = repo.GetUserByEmail(context.Background(), "nobody@example.com")
	assert.ErrorIs(t, err, types.ErrNotFound)

	mock.ExpectQuery(query).WithArgs("boom@example.com").WillReturnError(errors.New("connection reset"))
	_, err = repo.GetUserByEmail(context.Background(), "boom@example.com")
	assert.Error(t, err)
	assert.NotErrorIs(t, err, types.ErrNotFound)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresAuthRepo_GetUserByID_Malformed(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewPostgresAuthRepo(mock, discardLogger())
	_, err = repo.GetUserByID(context.Background(), "not-a-uuid")
	assert.ErrorIs(t, err, types.ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMongoAuthRepo(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("create user", func(mt *mtest.T) {
		repo := NewMongoAuthRepo(mt.DB, discardLogger())
		mt.AddMockResponses(mtest.CreateSuccessResponse())

		user, err := repo.CreateUser(context.Background(), "Ada", "ada@example.com", "hash")
		require.NoError(mt, err)
		assert.True(mt, primitive.IsValidObjectID(user.ID))
	})

	mt.Run("duplicate email", func(mt *mtest.T) {
		repo := NewMongoAuthRepo(mt.DB, discardLogger())
		mt.AddMockResponses(mtest.CreateWriteErrorsResponse(mtest.WriteError{
			Index:   0,
			Code:    11000,
			Message: "E11000 duplicate key error",
		}))

		_, err := repo.CreateUser(context.Background(), "Ada", "ada@example.com", "hash")
		assert.ErrorIs(mt, err, types.ErrConflict)
	})

	mt.Run("find by email", func(mt *mtest.T) {
		repo := NewMongoAuthRepo(mt.DB, discardLogger())
		oid := primitive.NewObjectID()
		ns := mt.DB.Name() + "." + UsersCollection
		mt.AddMockResponses(mtest.CreateCursorResponse(1, ns, mtest.FirstBatch, bson.D{
			{Key: "_id", Value: oid},
			{Key: "name", Value: "Ada"},
			{Key: "email", Value: "ada@example.com"},
			{Key: "password", Value: "hash"},
			{Key: "createdAt", Value: time.Now()},
		}))

		user, err := repo.GetUserByEmail(context.Background(), "ada@example.com")
		require.NoError(mt, err)
		assert.Equal(mt, oid.Hex(), user.ID)
		assert.Equal(mt, "hash", user.PasswordHash)
	})

	mt.Run("not found", func(mt *mtest.T) {
		repo := NewMongoAuthRepo(mt.DB, discardLogger())
		ns := mt.DB.Name() + "." + UsersCollection
		mt.AddMockResponses(mtest.CreateCursorResponse(0, ns, mtest.FirstBatch))

		_, err := repo.GetUserByEmail(context.Background(), "nobody@example.com")
		assert.ErrorIs(mt, err, types.ErrNotFound)
	})

	mt.Run("malformed id", func(mt *mtest.T) {
		repo := NewMongoAuthRepo(mt.DB, discardLogger())
		_, err := repo.GetUserByID(context.Background(), "xyz")
		assert.ErrorIs(mt, err, types.ErrNotFound)
	})

	mt.Run("ensure indexes", func(mt *mtest.T) {
		repo := NewMongoAuthRepo(mt.DB, discardLogger())
		mt.AddMockResponses(mtest.CreateSuccessResponse())
		assert.NoError(mt, repo.EnsureIndexes(context.Background()))
	})
}

func TestMemoryAuthRepo(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryAuthRepo()

	created, err := repo.CreateUser(ctx, "Ada", "ada@example.com", "hash")
	require.NoError(t, err)

	_, err = repo.CreateUser(ctx, "Imposter", "ada@example.com", "other")
	assert.ErrorIs(t, err, types.ErrConflict)

	byEmail, err := repo.GetUserByEmail(ctx, "ada@example.com")
	require.NoError(t, err)
	assert.Equal(t, created.ID, byEmail.ID)
	assert.Equal(t, "Ada", byEmail.Name)

	_, err = repo.GetUserByEmail(ctx, "ADA@example.com")
	assert.ErrorIs(t, err, types.ErrNotFound)

	byID, err := repo.GetUserByID(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, created.Email, byID.Email)
}

func TestMemoryAuthRepo_ConflictLeavesNoOrphan(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryAuthRepo()

	created, err := repo.CreateUser(ctx, "Ada", "ada@example.com", "hash")
	require.NoError(t, err)

	for i := 0; i < 3; i++ {
		_, err = repo.CreateUser(ctx, "Imposter", "ada@example.com", "other")
		require.ErrorIs(t, err, types.ErrConflict)
	}
	assert.Equal(t, 1, repo.byID.ItemCount())
	assert.Equal(t, 1, repo.byEmail.ItemCount())

	byEmail, err := repo.GetUserByEmail(ctx, "ada@example.com")
	require.NoError(t, err)
	assert.Equal(t, created.ID, byEmail.ID)
	assert.Equal(t, "hash", byEmail.PasswordHash)
}

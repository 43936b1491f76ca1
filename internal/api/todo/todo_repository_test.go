package todo

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/integration/mtest"

	"github.com/FACorreiaa/go-todo-api/internal/types"
)

var todoCols = []string{"id", "text", "completed", "user_id", "created_at"}

func TestPostgresTodoRepo_ListByOwner(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewPostgresTodoRepo(mock, discardLogger())
	owner := uuid.New()
	now := time.Now().UTC()

	mock.ExpectQuery(regexp.QuoteMeta("SELECT " + todoColumns + " FROM todos WHERE user_id = $1")).
		WithArgs(owner).
		WillReturnRows(pgxmock.NewRows(todoCols).
			AddRow(uuid.NewString(), "one", false, owner.String(), now).
			AddRow(uuid.NewString(), "two", true, owner.String(), now))

	todos, err := repo.ListByOwner(context.Background(), owner.String())
	require.NoError(t, err)
	require.Len(t, todos, 2)
	assert.Equal(t, "two", todos[1].Text)
	assert.True(t, todos[1].Completed)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresTodoRepo_ListByOwner_Empty(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewPostgresTodoRepo(mock, discardLogger())
	owner := uuid.New()
	mock.ExpectQuery("SELECT").WithArgs(owner).WillReturnRows(pgxmock.NewRows(todoCols))

	todos, err := repo.ListByOwner(context.Background(), owner.String())
	require.NoError(t, err)
	assert.NotNil(t, todos)
	assert.Empty(t, todos)
}

func TestPostgresTodoRepo_Create(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewPostgresTodoRepo(mock, discardLogger())
	owner := uuid.New()

	mock.ExpectExec("INSERT INTO todos").
		WithArgs(pgxmock.AnyArg(), owner, "buy milk", false, pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	todo, err := repo.Create(context.Background(), types.Todo{Text: "buy milk", UserID: owner.String()})
	require.NoError(t, err)
	assert.NotEmpty(t, todo.ID)
	assert.False(t, todo.CreatedAt.IsZero())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresTodoRepo_GetUpdateDelete(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewPostgresTodoRepo(mock, discardLogger())
	id := uuid.New()
	owner := uuid.NewString()
	now := time.Now().UTC()

	mock.ExpectQuery(regexp.QuoteMeta("SELECT " + todoColumns + " FROM todos WHERE id = $1")).
		WithArgs(id).
		WillReturnError(pgx.ErrNoRows)
	_, err = repo.GetByID(context.Background(), id.String())
	assert.ErrorIs(t, err, types.ErrNotFound)

	text := "renamed"
	mock.ExpectQuery("UPDATE todos SET").
		WithArgs(id, &text, (*bool)(nil)).
		WillReturnRows(pgxmock.NewRows(todoCols).AddRow(id.String(), text, true, owner, now))
	updated, err := repo.Update(context.Background(), types.UpdateTodoParams{ID: id.String(), Text: &text})
	require.NoError(t, err)
	assert.Equal(t, "renamed", updated.Text)
	assert.True(t, updated.Completed)

	done := false
	mock.ExpectQuery("UPDATE todos SET").
		WithArgs(id, (*string)(nil), &done).
		WillReturnRows(pgxmock.NewRows(todoCols).AddRow(id.String(), text, false, owner, now))
	updated, err = repo.Update(context.Background(), types.UpdateTodoParams{ID: id.String(), Completed: &done})
	require.NoError(t, err)
	assert.Equal(t, "renamed", updated.Text)
	assert.False(t, updated.Completed)

	mock.ExpectExec("DELETE FROM todos").WithArgs(id).WillReturnResult(pgxmock.NewResult("DELETE", 0))
	assert.ErrorIs(t, repo.Delete(context.Background(), id.String()), types.ErrNotFound)

	mock.ExpectExec("DELETE FROM todos").WithArgs(id).WillReturnResult(pgxmock.NewResult("DELETE", 1))
	assert.NoError(t, repo.Delete(context.Background(), id.String()))

	_, err = repo.GetByID(context.Background(), "bogus")
	assert.ErrorIs(t, err, types.ErrNotFound)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func todoDoc(id, owner primitive.ObjectID, text string, completed bool) bson.D {
	return bson.D{
		{Key: "_id", Value: id},
		{Key: "text", Value: text},
		{Key: "completed", Value: completed},
		{Key: "userId", Value: owner},
		{Key: "createdAt", Value: time.Now()},
	}
}

func TestMongoTodoRepo(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("list by owner", func(mt *mtest.T) {
		repo := NewMongoTodoRepo(mt.DB, discardLogger())
		ns := mt.DB.Name() + "." + TodosCollection
		owner := primitive.NewObjectID()

		first := mtest.CreateCursorResponse(1, ns, mtest.FirstBatch,
			todoDoc(primitive.NewObjectID(), owner, "one", false),
			todoDoc(primitive.NewObjectID(), owner, "two", true))
		end := mtest.CreateCursorResponse(0, ns, mtest.NextBatch)
		mt.AddMockResponses(first, end)

		todos, err := repo.ListByOwner(context.Background(), owner.Hex())
		require.NoError(mt, err)
		require.Len(mt, todos, 2)
		assert.Equal(mt, owner.Hex(), todos[0].UserID)
		assert.Equal(mt, "two", todos[1].Text)
	})

	mt.Run("list with foreign id is empty", func(mt *mtest.T) {
		repo := NewMongoTodoRepo(mt.DB, discardLogger())
		todos, err := repo.ListByOwner(context.Background(), "not-an-object-id")
		require.NoError(mt, err)
		assert.Empty(mt, todos)
	})

	mt.Run("create", func(mt *mtest.T) {
		repo := NewMongoTodoRepo(mt.DB, discardLogger())
		mt.AddMockResponses(mtest.CreateSuccessResponse())
		owner := primitive.NewObjectID()

		todo, err := repo.Create(context.Background(), types.Todo{Text: "buy milk", UserID: owner.Hex()})
		require.NoError(mt, err)
		assert.True(mt, primitive.IsValidObjectID(todo.ID))
		assert.Equal(mt, owner.Hex(), todo.UserID)
	})

	mt.Run("get missing", func(mt *mtest.T) {
		repo := NewMongoTodoRepo(mt.DB, discardLogger())
		ns := mt.DB.Name() + "." + TodosCollection
		mt.AddMockResponses(mtest.CreateCursorResponse(0, ns, mtest.FirstBatch))

		_, err := repo.GetByID(context.Background(), primitive.NewObjectID().Hex())
		assert.ErrorIs(mt, err, types.ErrNotFound)
	})

	mt.Run("malformed id", func(mt *mtest.T) {
		repo := NewMongoTodoRepo(mt.DB, discardLogger())
		_, err := repo.GetByID(context.Background(), "123")
		assert.ErrorIs(mt, err, types.ErrNotFound)
		assert.ErrorIs(mt, repo.Delete(context.Background(), "123"), types.ErrNotFound)
	})

	mt.Run("update returns new document", func(mt *mtest.T) {
		repo := NewMongoTodoRepo(mt.DB, discardLogger())
		id := primitive.NewObjectID()
		owner := primitive.NewObjectID()
		mt.AddMockResponses(bson.D{
			{Key: "ok", Value: 1},
			{Key: "value", Value: todoDoc(id, owner, "one", true)},
		})

		done := true
		todo, err := repo.Update(context.Background(), types.UpdateTodoParams{ID: id.Hex(), Completed: &done})
		require.NoError(mt, err)
		assert.True(mt, todo.Completed)
		assert.Equal(mt, id.Hex(), todo.ID)

		started := mt.GetStartedEvent()
		require.NotNil(mt, started)
		set := started.Command.Lookup("update", "$set").Document()
		elems, err := set.Elements()
		require.NoError(mt, err)
		assert.Len(mt, elems, 1)
		assert.True(mt, set.Lookup("completed").Boolean())
		_, err = set.LookupErr("text")
		assert.Error(mt, err, "text must not be touched")
	})

	mt.Run("delete", func(mt *mtest.T) {
		repo := NewMongoTodoRepo(mt.DB, discardLogger())
		mt.AddMockResponses(bson.D{{Key: "ok", Value: 1}, {Key: "acknowledged", Value: true}, {Key: "n", Value: 1}})
		assert.NoError(mt, repo.Delete(context.Background(), primitive.NewObjectID().Hex()))

		mt.AddMockResponses(bson.D{{Key: "ok", Value: 1}, {Key: "acknowledged", Value: true}, {Key: "n", Value: 0}})
		assert.ErrorIs(mt, repo.Delete(context.Background(), primitive.NewObjectID().Hex()), types.ErrNotFound)
	})
}

func TestMemoryTodoRepo_KeepsInsertionOrder(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryTodoRepo()

	for _, text := range []string{"a", "b", "c", "d"} {
		_, err := repo.Create(ctx, types.Todo{Text: text, UserID: "alice"})
		require.NoError(t, err)
	}
	todos, err := repo.ListByOwner(ctx, "alice")
	require.NoError(t, err)
	require.Len(t, todos, 4)
	for i, text := range []string{"a", "b", "c", "d"} {
		assert.Equal(t, text, todos[i].Text)
	}

	none, err := repo.ListByOwner(ctx, "bob")
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestMemoryTodoRepo_PartialUpdate(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryTodoRepo()

	todo, err := repo.Create(ctx, types.Todo{Text: "draft", UserID: "alice"})
	require.NoError(t, err)

	done := true
	_, err = repo.Update(ctx, types.UpdateTodoParams{ID: todo.ID, Completed: &done})
	require.NoError(t, err)

	text := "final"
	updated, err := repo.Update(ctx, types.UpdateTodoParams{ID: todo.ID, Text: &text})
	require.NoError(t, err)
	assert.Equal(t, "final", updated.Text)
	assert.True(t, updated.Completed)

	stored, err := repo.GetByID(ctx, todo.ID)
	require.NoError(t, err)
	assert.Equal(t, *updated, *stored)
}

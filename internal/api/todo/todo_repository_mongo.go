package todo

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.opentelemetry.io/otel/trace"

	"github.com/FACorreiaa/go-todo-api/app/observability/metrics"
	"github.com/FACorreiaa/go-todo-api/internal/types"
)

const TodosCollection = "todos"

var _ TodoRepo = (*MongoTodoRepo)(nil)

type todoDocument struct {
	ID        primitive.ObjectID `bson:"_id"`
	Text      string             `bson:"text"`
	Completed bool               `bson:"completed"`
	UserID    primitive.ObjectID `bson:"userId"`
	CreatedAt time.Time          `bson:"createdAt"`
}

func (d todoDocument) toTodo() types.Todo {
	return types.Todo{
		ID:        d.ID.Hex(),
		Text:      d.Text,
		Completed: d.Completed,
		UserID:    d.UserID.Hex(),
		CreatedAt: d.CreatedAt,
	}
}

type MongoTodoRepo struct {
	logger *slog.Logger
	todos  *mongo.Collection
}

func NewMongoTodoRepo(db *mongo.Database, logger *slog.Logger) *MongoTodoRepo {
	return &MongoTodoRepo{
		logger: logger,
		todos:  db.Collection(TodosCollection),
	}
}

// EnsureIndexes creates the owner index used by ListByOwner.
func (r *MongoTodoRepo) EnsureIndexes(ctx context.Context) error {
	_, err := r.todos.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "userId", Value: 1}},
		Options: options.Index().SetName("todos_userId"),
	})
	if err != nil {
		return fmt.Errorf("failed to create todos userId index: %w", err)
	}
	return nil
}

func mongoSpan(ctx context.Context, name, op string) (context.Context, trace.Span) {
	return otel.Tracer("TodoRepo").Start(ctx, name, trace.WithAttributes(
		semconv.DBSystemMongoDB,
		attribute.String("db.operation", op),
		attribute.String("db.mongodb.collection", TodosCollection),
	))
}

func (r *MongoTodoRepo) ListByOwner(ctx context.Context, userID string) ([]types.Todo, error) {
	ctx, span := mongoSpan(ctx, "ListByOwner", "find")
	defer span.End()

	owner, err := primitive.ObjectIDFromHex(userID)
	if err != nil {
		return []types.Todo{}, nil
	}

	start := time.Now()
	cursor, err := r.todos.Find(ctx, bson.M{"userId": owner})
	if err != nil {
		metrics.RecordQuery(ctx, "mongodb", "list_todos", start, err)
		r.logger.ErrorContext(ctx, "Failed to find todos", slog.Any("error", err))
		span.RecordError(err)
		span.SetStatus(codes.Error, "find failed")
		return nil, fmt.Errorf("failed to find todos: %w", err)
	}
	defer cursor.Close(ctx)

	var docs []todoDocument
	err = cursor.All(ctx, &docs)
	metrics.RecordQuery(ctx, "mongodb", "list_todos", start, err)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "decode failed")
		return nil, fmt.Errorf("failed to decode todos: %w", err)
	}

	todos := make([]types.Todo, 0, len(docs))
	for _, d := range docs {
		todos = append(todos, d.toTodo())
	}
	span.SetAttributes(attribute.Int("todos.count", len(todos)))
	return todos, nil
}

func (r *MongoTodoRepo) Create(ctx context.Context, todo types.Todo) (*types.Todo, error) {
	ctx, span := mongoSpan(ctx, "Create", "insert")
	defer span.End()

	owner, err := primitive.ObjectIDFromHex(todo.UserID)
	if err != nil {
		return nil, fmt.Errorf("invalid owner id %q: %w", todo.UserID, err)
	}
	doc := todoDocument{
		ID:        primitive.NewObjectID(),
		Text:      todo.Text,
		Completed: todo.Completed,
		UserID:    owner,
		CreatedAt: time.Now().UTC().Truncate(time.Millisecond),
	}

	start := time.Now()
	_, err = r.todos.InsertOne(ctx, doc)
	metrics.RecordQuery(ctx, "mongodb", "insert_todo", start, err)
	if err != nil {
		r.logger.ErrorContext(ctx, "Failed to insert todo", slog.Any("error", err))
		span.RecordError(err)
		span.SetStatus(codes.Error, "insert failed")
		return nil, fmt.Errorf("failed to insert todo: %w", err)
	}

	created := doc.toTodo()
	return &created, nil
}

func (r *MongoTodoRepo) GetByID(ctx context.Context, id string) (*types.Todo, error) {
	ctx, span := mongoSpan(ctx, "GetByID", "find")
	defer span.End()

	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, fmt.Errorf("%w: malformed todo id", types.ErrNotFound)
	}

	var doc todoDocument
	start := time.Now()
	err = r.todos.FindOne(ctx, bson.M{"_id": oid}).Decode(&doc)
	return r.single(ctx, span, "get_todo", start, doc, err)
}

func (r *MongoTodoRepo) Update(ctx context.Context, params types.UpdateTodoParams) (*types.Todo, error) {
	ctx, span := mongoSpan(ctx, "Update", "findAndModify")
	defer span.End()

	oid, err := primitive.ObjectIDFromHex(params.ID)
	if err != nil {
		return nil, fmt.Errorf("%w: malformed todo id", types.ErrNotFound)
	}

	set := bson.M{}
	if params.Text != nil {
		set["text"] = *params.Text
	}
	if params.Completed != nil {
		set["completed"] = *params.Completed
	}
	if len(set) == 0 {
		return r.GetByID(ctx, params.ID)
	}

	var doc todoDocument
	start := time.Now()
	err = r.todos.FindOneAndUpdate(ctx,
		bson.M{"_id": oid},
		bson.M{"$set": set},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&doc)
	return r.single(ctx, span, "update_todo", start, doc, err)
}

func (r *MongoTodoRepo) Delete(ctx context.Context, id string) error {
	ctx, span := mongoSpan(ctx, "Delete", "delete")
	defer span.End()

	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return fmt.Errorf("%w: malformed todo id", types.ErrNotFound)
	}

	start := time.Now()
	res, err := r.todos.DeleteOne(ctx, bson.M{"_id": oid})
	metrics.RecordQuery(ctx, "mongodb", "delete_todo", start, err)
	if err != nil {
		r.logger.ErrorContext(ctx, "Failed to delete todo", slog.Any("error", err))
		span.RecordError(err)
		span.SetStatus(codes.Error, "delete failed")
		return fmt.Errorf("failed to delete todo: %w", err)
	}
	if res.DeletedCount == 0 {
		return types.ErrNotFound
	}
	return nil
}

func (r *MongoTodoRepo) single(ctx context.Context, span trace.Span, op string, start time.Time, doc todoDocument, err error) (*types.Todo, error) {
	if errors.Is(err, mongo.ErrNoDocuments) {
		metrics.RecordQuery(ctx, "mongodb", op, start, nil)
		return nil, types.ErrNotFound
	}
	metrics.RecordQuery(ctx, "mongodb", op, start, err)
	if err != nil {
		r.logger.ErrorContext(ctx, "Todo query failed", slog.String("op", op), slog.Any("error", err))
		span.RecordError(err)
		span.SetStatus(codes.Error, "query failed")
		return nil, fmt.Errorf("failed to %s: %w", op, err)
	}
	t := doc.toTodo()
	return &t, nil
}

package auth

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

const UsersCollection = "users"

var _ AuthRepo = (*MongoAuthRepo)(nil)

type userDocument struct {
	ID        primitive.ObjectID `bson:"_id"`
	Name      string             `bson:"name"`
	Email     string             `bson:"email"`
	Password  string             `bson:"password"`
	CreatedAt time.Time          `bson:"createdAt"`
}

func (d userDocument) toUser() *types.User {
	return &types.User{
		ID:           d.ID.Hex(),
		Name:         d.Name,
		Email:        d.Email,
		PasswordHash: d.Password,
		CreatedAt:    d.CreatedAt,
	}
}

type MongoAuthRepo struct {
	logger *slog.Logger
	users  *mongo.Collection
}

func NewMongoAuthRepo(db *mongo.Database, logger *slog.Logger) *MongoAuthRepo {
	return &MongoAuthRepo{
		logger: logger,
		users:  db.Collection(UsersCollection),
	}
}

// EnsureIndexes creates the unique email index.
func (r *MongoAuthRepo) EnsureIndexes(ctx context.Context) error {
	_, err := r.users.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "email", Value: 1}},
		Options: options.Index().SetUnique(true).SetName("users_email_unique"),
	})
	if err != nil {
		return fmt.Errorf("failed to create users email index: %w", err)
	}
	return nil
}

func (r *MongoAuthRepo) CreateUser(ctx context.Context, name, email, passwordHash string) (*types.User, error) {
	ctx, span := otel.Tracer("AuthRepo").Start(ctx, "CreateUser", trace.WithAttributes(
		semconv.DBSystemMongoDB,
		attribute.String("db.operation", "insert"),
		attribute.String("db.mongodb.collection", UsersCollection),
	))
	defer span.End()
	l := r.logger.With(slog.String("method", "CreateUser"))

	doc := userDocument{
		ID:        primitive.NewObjectID(),
		Name:      name,
		Email:     email,
		Password:  passwordHash,
		CreatedAt: time.Now().UTC().Truncate(time.Millisecond),
	}

	start := time.Now()
	_, err := r.users.InsertOne(ctx, doc)
	metrics.RecordQuery(ctx, "mongodb", "insert_user", start, err)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "insert failed")
		if mongo.IsDuplicateKeyError(err) {
			l.WarnContext(ctx, "Email already registered")
			return nil, fmt.Errorf("%w: email already registered", types.ErrConflict)
		}
		l.ErrorContext(ctx, "Failed to insert user", slog.Any("error", err))
		return nil, fmt.Errorf("failed to insert user: %w", err)
	}

	return doc.toUser(), nil
}

func (r *MongoAuthRepo) GetUserByEmail(ctx context.Context, email string) (*types.User, error) {
	ctx, span := otel.Tracer("AuthRepo").Start(ctx, "GetUserByEmail", trace.WithAttributes(
		semconv.DBSystemMongoDB,
		attribute.String("db.operation", "find"),
		attribute.String("db.mongodb.collection", UsersCollection),
	))
	defer span.End()

	return r.findOne(ctx, span, bson.M{"email": email})
}

func (r *MongoAuthRepo) GetUserByID(ctx context.Context, id string) (*types.User, error) {
	ctx, span := otel.Tracer("AuthRepo").Start(ctx, "GetUserByID", trace.WithAttributes(
		semconv.DBSystemMongoDB,
		attribute.String("db.operation", "find"),
		attribute.String("db.mongodb.collection", UsersCollection),
		attribute.String("user.id", id),
	))
	defer span.End()

	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, fmt.Errorf("%w: malformed user id", types.ErrNotFound)
	}
	return r.findOne(ctx, span, bson.M{"_id": oid})
}

func (r *MongoAuthRepo) findOne(ctx context.Context, span trace.Span, filter bson.M) (*types.User, error) {
	var doc userDocument
	start := time.Now()
	err := r.users.FindOne(ctx, filter).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		metrics.RecordQuery(ctx, "mongodb", "find_user", start, nil)
		span.SetStatus(codes.Error, "user not found")
		return nil, types.ErrNotFound
	}
	metrics.RecordQuery(ctx, "mongodb", "find_user", start, err)
	if err != nil {
		r.logger.ErrorContext(ctx, "Failed to find user", slog.Any("error", err))
		span.RecordError(err)
		span.SetStatus(codes.Error, "find failed")
		return nil, fmt.Errorf("failed to find user: %w", err)
	}
	return doc.toUser(), nil
}

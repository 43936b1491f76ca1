package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/FACorreiaa/go-todo-api/app/observability/metrics"
	"github.com/FACorreiaa/go-todo-api/internal/types"
)

// PasswordCost is the bcrypt work factor for new hashes.
const PasswordCost = 10

var ErrTokenRevoked = errors.New("token has been revoked")

// TokenVerifier is what the Authenticate middleware needs from the service.
type TokenVerifier interface {
	VerifyToken(ctx context.Context, token string) (*types.Claims, error)
}

var _ AuthService = (*AuthServiceImpl)(nil)

type AuthService interface {
	TokenVerifier
	Signup(ctx context.Context, name, email, password string) (*types.PublicUser, error)
	Login(ctx context.Context, email, password string) (*LoginResponse, error)
	Logout(ctx context.Context, claims *types.Claims) error
	Me(ctx context.Context, userID string) (*types.PublicUser, error)
}

type AuthServiceImpl struct {
	logger  *slog.Logger
	repo    AuthRepo
	tokens  *TokenManager
	revoked RevocationStore
}

func NewAuthService(repo AuthRepo, tokens *TokenManager, revoked RevocationStore, logger *slog.Logger) *AuthServiceImpl {
	return &AuthServiceImpl{
		logger:  logger,
		repo:    repo,
		tokens:  tokens,
		revoked: revoked,
	}
}

// Signup validates and stores a new user. Every persistence failure,
// a duplicate email included, is reported to the caller as the same 400.
func (s *AuthServiceImpl) Signup(ctx context.Context, name, email, password string) (pub *types.PublicUser, err error) {
	ctx, span := otel.Tracer("AuthService").Start(ctx, "Signup")
	defer span.End()
	defer func() { metrics.RecordSignup(ctx, err) }()

	l := s.logger.With(slog.String("method", "Signup"))

	name = strings.TrimSpace(name)
	email = strings.TrimSpace(email)
	if name == "" || email == "" || strings.TrimSpace(password) == "" {
		l.WarnContext(ctx, "Signup with missing fields")
		span.SetStatus(codes.Error, "validation failed")
		return nil, types.NewClientError(types.ErrValidation, "Name, email and password are required")
	}

	hash, err := hashPassword(password, PasswordCost)
	if err != nil {
		l.ErrorContext(ctx, "Failed to hash password", slog.Any("error", err))
		span.RecordError(err)
		span.SetStatus(codes.Error, "hash failed")
		return nil, types.WrapClientError(types.ErrValidation, "Error creating user", err)
	}

	user, err := s.repo.CreateUser(ctx, name, email, hash)
	if err != nil {
		l.ErrorContext(ctx, "Failed to create user", slog.Any("error", err))
		span.RecordError(err)
		span.SetStatus(codes.Error, "create failed")
		return nil, types.WrapClientError(types.ErrValidation, "Error creating user", err)
	}

	span.SetAttributes(attribute.String("user.id", user.ID))
	span.SetStatus(codes.Ok, "user created")
	l.InfoContext(ctx, "User created", slog.String("userID", user.ID))
	p := user.Public()
	return &p, nil
}

// Login checks the credentials and issues an access token.
func (s *AuthServiceImpl) Login(ctx context.Context, email, password string) (*LoginResponse, error) {
	ctx, span := otel.Tracer("AuthService").Start(ctx, "Login")
	defer span.End()

	l := s.logger.With(slog.String("method", "Login"))

	email = strings.TrimSpace(email)
	if email == "" || password == "" {
		metrics.RecordLogin(ctx, "invalid_request")
		span.SetStatus(codes.Error, "validation failed")
		return nil, types.NewClientError(types.ErrValidation, "Email and password are required")
	}

	user, err := s.repo.GetUserByEmail(ctx, email)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "lookup failed")
		if errors.Is(err, types.ErrNotFound) {
			l.WarnContext(ctx, "Login for unknown email")
			metrics.RecordLogin(ctx, "unknown_email")
			return nil, types.NewClientError(types.ErrUnauthenticated, "Invalid email")
		}
		l.ErrorContext(ctx, "Failed to look up user", slog.Any("error", err))
		metrics.RecordLogin(ctx, "error")
		return nil, types.WrapClientError(types.ErrValidation, "Error logging in", err)
	}

	if err = checkPassword(user.PasswordHash, password); err != nil {
		l.WarnContext(ctx, "Password mismatch", slog.String("userID", user.ID))
		metrics.RecordLogin(ctx, "bad_password")
		span.SetStatus(codes.Error, "password mismatch")
		return nil, types.NewClientError(types.ErrUnauthenticated, "Invalid password")
	}

	token, _, err := s.tokens.Issue(user)
	if err != nil {
		l.ErrorContext(ctx, "Failed to issue token", slog.Any("error", err))
		metrics.RecordLogin(ctx, "error")
		span.RecordError(err)
		span.SetStatus(codes.Error, "sign failed")
		return nil, types.WrapClientError(types.ErrValidation, "Error logging in", err)
	}

	metrics.RecordLogin(ctx, "ok")
	span.SetAttributes(attribute.String("user.id", user.ID))
	span.SetStatus(codes.Ok, "logged in")
	l.InfoContext(ctx, "User logged in", slog.String("userID", user.ID))
	return &LoginResponse{Token: token, User: user.Public()}, nil
}

// Logout revokes the presented token until it expires.
func (s *AuthServiceImpl) Logout(ctx context.Context, claims *types.Claims) error {
	ctx, span := otel.Tracer("AuthService").Start(ctx, "Logout", trace.WithAttributes(
		attribute.String("user.id", claims.UserID),
	))
	defer span.End()

	if claims.ID == "" || claims.ExpiresAt == nil {
		return nil
	}
	if err := s.revoked.Revoke(ctx, claims.ID, claims.ExpiresAt.Time); err != nil {
		s.logger.ErrorContext(ctx, "Failed to revoke token", slog.Any("error", err))
		span.RecordError(err)
		span.SetStatus(codes.Error, "revoke failed")
		return fmt.Errorf("error revoking token: %w", err)
	}
	span.SetStatus(codes.Ok, "logged out")
	return nil
}

func (s *AuthServiceImpl) Me(ctx context.Context, userID string) (*types.PublicUser, error) {
	ctx, span := otel.Tracer("AuthService").Start(ctx, "Me", trace.WithAttributes(
		attribute.String("user.id", userID),
	))
	defer span.End()

	user, err := s.repo.GetUserByID(ctx, userID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "lookup failed")
		if errors.Is(err, types.ErrNotFound) {
			return nil, types.WrapClientError(types.ErrNotFound, "User not found", err)
		}
		return nil, fmt.Errorf("error fetching user: %w", err)
	}
	p := user.Public()
	return &p, nil
}

// VerifyToken parses the token and rejects revoked ones. A revocation store
// failure is treated as revoked.
func (s *AuthServiceImpl) VerifyToken(ctx context.Context, token string) (*types.Claims, error) {
	claims, err := s.tokens.Parse(token)
	if err != nil {
		return nil, err
	}
	revoked, err := s.revoked.IsRevoked(ctx, claims.ID)
	if err != nil {
		return nil, fmt.Errorf("revocation check failed: %w", err)
	}
	if revoked {
		return nil, ErrTokenRevoked
	}
	return claims, nil
}

package auth

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"

	"github.com/FACorreiaa/go-todo-api/internal/api"
	"github.com/FACorreiaa/go-todo-api/internal/types"
)

type contextKey string

const (
	UserIDKey contextKey = "userID"
	ClaimsKey contextKey = "claims"
)

// Authenticate validates the bearer access token and puts the verified
// claims on the request context.
func Authenticate(logger *slog.Logger, verifier TokenVerifier) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			l := logger.With(slog.String("middleware", "Authenticate"))

			authHeader := strings.TrimSpace(r.Header.Get("Authorization"))
			if authHeader == "" {
				l.WarnContext(ctx, "Missing Authorization header")
				api.ErrorResponse(w, r, http.StatusUnauthorized, "Login first")
				return
			}

			scheme, tokenString, found := strings.Cut(authHeader, " ")
			tokenString = strings.TrimSpace(tokenString)
			if !found || !strings.EqualFold(scheme, "bearer") || tokenString == "" {
				l.WarnContext(ctx, "Invalid Authorization header format")
				api.ErrorResponse(w, r, http.StatusUnauthorized, "Invalid or expired token")
				return
			}

			claims, err := verifier.VerifyToken(ctx, tokenString)
			if err != nil {
				l.WarnContext(ctx, "Token validation failed", slog.Any("error", err))
				errMsg := "Invalid or expired token"
				if errors.Is(err, jwt.ErrTokenExpired) {
					errMsg = "Token has expired"
				}
				api.ErrorResponse(w, r, http.StatusUnauthorized, errMsg)
				return
			}

			ctx = WithClaims(ctx, claims)
			l.DebugContext(ctx, "Authentication successful", slog.String("userID", claims.UserID))
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// WithClaims stores verified claims on ctx.
func WithClaims(ctx context.Context, claims *types.Claims) context.Context {
	ctx = context.WithValue(ctx, ClaimsKey, claims)
	return context.WithValue(ctx, UserIDKey, claims.UserID)
}

func GetUserIDFromContext(ctx context.Context) (string, bool) {
	userID, ok := ctx.Value(UserIDKey).(string)
	return userID, ok && userID != ""
}

func GetClaimsFromContext(ctx context.Context) (*types.Claims, bool) {
	claims, ok := ctx.Value(ClaimsKey).(*types.Claims)
	return claims, ok && claims != nil
}

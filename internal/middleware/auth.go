package middleware

import (
	"context"
	"net/http"
	"strings"

	"connectrpc.com/connect"

	"github.com/mmynk/splitledger/internal/auth"
)

// contextKey is a custom type for context keys to avoid collisions.
type contextKey string

const (
	// UserIDKey is the context key for storing the authenticated user ID.
	UserIDKey contextKey = "user_id"
	// UsernameKey is the context key for storing the authenticated username.
	UsernameKey contextKey = "username"
)

// GetUserID extracts the user ID from the context.
// Returns empty string if not found.
func GetUserID(ctx context.Context) string {
	userID, _ := ctx.Value(UserIDKey).(string)
	return userID
}

// GetUsername extracts the username from the context.
// Returns empty string if not found.
func GetUsername(ctx context.Context) string {
	username, _ := ctx.Value(UsernameKey).(string)
	return username
}

// WithUser returns a context carrying the given claims.
func WithUser(ctx context.Context, claims *auth.Claims) context.Context {
	ctx = context.WithValue(ctx, UserIDKey, claims.UserID)
	return context.WithValue(ctx, UsernameKey, claims.Username)
}

// TokenFromHeader returns the session token from an "Authorization: Bearer"
// header, falling back to the session cookie. The header wins when both
// are present.
func TokenFromHeader(h http.Header, cookieName string) (string, error) {
	if authHeader := h.Get("Authorization"); authHeader != "" {
		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || parts[0] != "Bearer" || parts[1] == "" {
			return "", auth.ErrInvalidToken
		}
		return parts[1], nil
	}

	if cookieName != "" {
		if c, err := (&http.Request{Header: h}).Cookie(cookieName); err == nil && c.Value != "" {
			return c.Value, nil
		}
	}
	return "", auth.ErrMissingToken
}

// RequireAuth returns a middleware that validates JWT tokens and requires authentication.
// It takes the token from the Authorization header or the session cookie, validates it,
// and adds the user ID and username to the request context.
func RequireAuth(jwtManager *auth.JWTManager, cookieName string) connect.UnaryInterceptorFunc {
	return func(next connect.UnaryFunc) connect.UnaryFunc {
		return func(ctx context.Context, req connect.AnyRequest) (connect.AnyResponse, error) {
			tokenString, err := TokenFromHeader(req.Header(), cookieName)
			if err != nil {
				return nil, connect.NewError(connect.CodeUnauthenticated, err)
			}

			claims, err := jwtManager.Validate(tokenString)
			if err != nil {
				return nil, connect.NewError(connect.CodeUnauthenticated, err)
			}

			return next(WithUser(ctx, claims), req)
		}
	}
}

// OptionalAuth returns a middleware that validates JWT tokens if present, but allows
// requests without authentication. Used by endpoints such as Register and Login that
// must work for anonymous callers.
func OptionalAuth(jwtManager *auth.JWTManager, cookieName string) connect.UnaryInterceptorFunc {
	return func(next connect.UnaryFunc) connect.UnaryFunc {
		return func(ctx context.Context, req connect.AnyRequest) (connect.AnyResponse, error) {
			if tokenString, err := TokenFromHeader(req.Header(), cookieName); err == nil {
				// Invalid tokens are ignored here
				if claims, err := jwtManager.Validate(tokenString); err == nil {
					ctx = WithUser(ctx, claims)
				}
			}
			return next(ctx, req)
		}
	}
}

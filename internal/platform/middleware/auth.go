package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	dErrors "facebank/pkg/domain-errors"
	"facebank/pkg/platform/httputil"
)

// TokenValidator checks a bearer token and returns the account it was issued for.
type TokenValidator interface {
	ValidateToken(token string) (*TokenClaims, error)
}

// TokenClaims are the claims handlers need from a validated token.
type TokenClaims struct {
	AccountHandle string
	JTI           string
}

type accountHandleKey struct{}

// GetAccountHandle returns the account the request's bearer token was issued for.
func GetAccountHandle(ctx context.Context) string {
	if handle, ok := ctx.Value(accountHandleKey{}).(string); ok {
		return handle
	}
	return ""
}

// BearerToken extracts the token from an "Authorization: Bearer" header.
func BearerToken(r *http.Request) (string, bool) {
	token, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
	token = strings.TrimSpace(token)
	return token, ok && token != ""
}

// RequireBearer rejects requests without a valid bearer token and stores the token's
// account handle in the request context.
func RequireBearer(validator TokenValidator, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			token, ok := BearerToken(r)
			if !ok {
				logger.WarnContext(ctx, "unauthorized access - missing token",
					"request_id", GetRequestID(ctx),
				)
				httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "Missing or invalid Authorization header"))
				return
			}

			claims, err := validator.ValidateToken(token)
			if err != nil {
				logger.WarnContext(ctx, "unauthorized access - invalid token",
					"error", err,
					"request_id", GetRequestID(ctx),
				)
				httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "Invalid or expired token"))
				return
			}

			ctx = context.WithValue(ctx, accountHandleKey{}, claims.AccountHandle)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"customerd/internal/authz"
	"customerd/internal/transport/http/shared"
	dErrors "customerd/pkg/domain-errors"
)

// TokenValidator turns an opaque bearer credential into a verified Principal.
type TokenValidator interface {
	ValidateToken(tokenString string) (authz.Principal, error)
}

type contextKeyPrincipal struct{}

// ContextKeyPrincipal is exported for tests that need to preload a principal.
var ContextKeyPrincipal = contextKeyPrincipal{}

// GetPrincipal retrieves the authenticated principal from the context.
func GetPrincipal(ctx context.Context) (authz.Principal, bool) {
	principal, ok := ctx.Value(ContextKeyPrincipal).(authz.Principal)
	return principal, ok
}

// WithPrincipal stores a principal in the context; used by tests.
func WithPrincipal(ctx context.Context, principal authz.Principal) context.Context {
	return context.WithValue(ctx, ContextKeyPrincipal, principal)
}

// RequireAuth validates the bearer credential on every request and stores the
// resulting Principal in the request context. There is no bypass list: every
// route behind this middleware needs a verified identity.
func RequireAuth(validator TokenValidator, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			authHeader := r.Header.Get("Authorization")
			const bearerPrefix = "Bearer "

			credential, ok := strings.CutPrefix(authHeader, bearerPrefix)
			if !ok || credential == "" {
				logger.WarnContext(ctx, "unauthorized access - missing credential",
					"request_id", GetRequestID(ctx),
				)
				shared.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "missing or invalid Authorization header"))
				return
			}

			principal, err := validator.ValidateToken(credential)
			if err != nil {
				logger.WarnContext(ctx, "unauthorized access - invalid credential",
					"error", err,
					"request_id", GetRequestID(ctx),
				)
				shared.WriteError(w, err)
				return
			}

			next.ServeHTTP(w, r.WithContext(WithPrincipal(ctx, principal)))
		})
	}
}

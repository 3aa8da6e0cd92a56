package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"hrperf/internal/domain/auth"
	"hrperf/internal/requestctx"
	"hrperf/internal/transport/http/api"
)

type ctxKey string

const ctxKeyUser ctxKey = "user"

// EmployeeResolver maps a user account to its employee record for tokens
// that do not carry an employee id.
type EmployeeResolver interface {
	EmployeeIDByUserID(ctx context.Context, userID string) (string, error)
}

// Auth attaches the bearer token's user to the request context. Requests
// without a valid token pass through anonymous; RequirePermission rejects them.
func Auth(secret string, resolver EmployeeResolver) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				next.ServeHTTP(w, r)
				return
			}
			parts := strings.Split(authHeader, " ")
			if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
				next.ServeHTTP(w, r)
				return
			}

			claims, err := auth.ParseToken(secret, parts[1])
			if err != nil {
				next.ServeHTTP(w, r)
				return
			}

			user := auth.UserContext{
				UserID:     claims.UserID,
				EmployeeID: claims.EmployeeID,
				RoleName:   claims.RoleName,
			}
			if user.EmployeeID == "" && resolver != nil {
				if id, err := resolver.EmployeeIDByUserID(r.Context(), user.UserID); err == nil {
					user.EmployeeID = id
				} else {
					slog.Debug("employee lookup for token failed", "userId", user.UserID, "err", err)
				}
			}
			next.ServeHTTP(w, r.WithContext(WithUser(r.Context(), user)))
		})
	}
}

func WithUser(ctx context.Context, user auth.UserContext) context.Context {
	return context.WithValue(requestctx.WithActor(ctx, user.UserID), ctxKeyUser, user)
}

func GetUser(ctx context.Context) (auth.UserContext, bool) {
	user, ok := ctx.Value(ctxKeyUser).(auth.UserContext)
	return user, ok
}

// RequireUser writes a 401 and returns false when the request is anonymous.
func RequireUser(w http.ResponseWriter, r *http.Request) (auth.UserContext, bool) {
	user, ok := GetUser(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", GetRequestID(r.Context()))
	}
	return user, ok
}

package middleware

import (
	"context"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/xavierca1/raccordement-leads/internal/entity"
	"github.com/xavierca1/raccordement-leads/internal/infra/auth"
)

type contextKey string

const userKey contextKey = "user"

type TokenVerifier interface {
	Verify(token string) (*auth.Claims, error)
}

type UserLoader interface {
	Me(ctx context.Context, userID string) (*entity.User, error)
}

func WithUser(ctx context.Context, u *entity.User) context.Context {
	return context.WithValue(ctx, userKey, u)
}

func UserFromContext(ctx context.Context) (*entity.User, bool) {
	u, ok := ctx.Value(userKey).(*entity.User)
	return u, ok && u != nil
}

// Authenticate valida o bearer token e recarrega o usuário, para que
// permissões alteradas ou conta desativada valham na hora.
func Authenticate(tokens TokenVerifier, users UserLoader, logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			if !strings.HasPrefix(header, "Bearer ") {
				writeError(w, http.StatusUnauthorized, CodeUnauthorized, "Missing or invalid Authorization header")
				return
			}

			claims, err := tokens.Verify(strings.TrimPrefix(header, "Bearer "))
			if err != nil {
				writeError(w, http.StatusUnauthorized, CodeUnauthorized, "Invalid or expired token")
				return
			}

			u, err := users.Me(r.Context(), claims.UserID)
			if err != nil {
				logger.Warn("🔒 token rejected", zap.String("user_id", claims.UserID), zap.Error(err))
				writeError(w, http.StatusUnauthorized, CodeUnauthorized, "User not found or disabled")
				return
			}

			next.ServeHTTP(w, r.WithContext(WithUser(r.Context(), u)))
		})
	}
}

func RequirePermission(permission string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			u, ok := UserFromContext(r.Context())
			if !ok {
				writeError(w, http.StatusUnauthorized, CodeUnauthorized, "Authentication required")
				return
			}
			if !u.Can(permission) {
				writeError(w, http.StatusForbidden, CodeForbidden, "Missing permission "+permission)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

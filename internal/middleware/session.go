package middleware

import (
	"context"
	"errors"
	"net/http"

	"sessionauth/internal/logger"
	"sessionauth/internal/models"
	"sessionauth/internal/reqctx"
	"sessionauth/internal/services"

	"go.uber.org/zap"
)

const SessionCookie = "session_id"

type SessionResolver interface {
	ResolveUser(ctx context.Context, token string) (models.Identity, error)
}

// SessionToken: значение cookie session_id, "" если её нет.
func SessionToken(r *http.Request) string {
	c, err := r.Cookie(SessionCookie)
	if err != nil {
		return ""
	}
	return c.Value
}

// RequireSession пропускает дальше только запросы с активной сессией
// и кладёт identity в контекст. Без сессии отвечает 403.
func RequireSession(resolver SessionResolver) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method == http.MethodOptions {
				w.WriteHeader(http.StatusNoContent)
				return
			}

			identity, err := resolver.ResolveUser(r.Context(), SessionToken(r))
			if errors.Is(err, services.ErrUnauthenticated) {
				logger.WithCtx(r.Context()).Warn("RequireSession: нет активной сессии")
				http.Error(w, "Forbidden", http.StatusForbidden)
				return
			}
			if err != nil {
				logger.WithCtx(r.Context()).Error("RequireSession: ошибка чтения сессии", zap.Error(err))
				http.Error(w, "internal server error", http.StatusInternalServerError)
				return
			}

			ctx := reqctx.WithIdentity(r.Context(), identity.String())
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

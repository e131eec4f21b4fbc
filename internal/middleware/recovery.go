package middleware

import (
	"net/http"
	"runtime/debug"

	"sessionauth/internal/logger"
	helpers "sessionauth/internal/utils/helpres"

	"go.uber.org/zap"
)

// Recoverer превращает панику обработчика в 500. http.ErrAbortHandler
// пробрасывается дальше, его net/http обрабатывает сам.
func Recoverer(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			rec := recover()
			if rec == nil {
				return
			}
			if rec == http.ErrAbortHandler {
				panic(rec)
			}

			logger.WithCtx(r.Context()).Error("Паника в обработчике",
				zap.Any("panic", rec),
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.ByteString("stack", debug.Stack()),
			)
			helpers.Error(w, http.StatusInternalServerError, "internal server error")
		}()
		next.ServeHTTP(w, r)
	})
}

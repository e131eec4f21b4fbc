// internal/reqctx/reqctx.go
package reqctx

import "context"

type key int

const (
	keyRequestID key = iota
	keyIdentity
)

func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, keyRequestID, id)
}

func GetRequestID(ctx context.Context) (string, bool) {
	v, ok := ctx.Value(keyRequestID).(string)
	return v, ok
}

// WithIdentity хранит строковое представление identity, чтобы пакет
// не зависел от models.
func WithIdentity(ctx context.Context, identity string) context.Context {
	return context.WithValue(ctx, keyIdentity, identity)
}

func GetIdentity(ctx context.Context) (string, bool) {
	v, ok := ctx.Value(keyIdentity).(string)
	return v, ok
}

package session

import (
	"context"
	"time"

	"sessionauth/internal/logger"

	"go.uber.org/zap"
)

type Sweeper interface {
	Sweep() int
}

// RunSweeper периодически вычищает истёкшие сессии, пока жив ctx.
func RunSweeper(ctx context.Context, s Sweeper, interval time.Duration) {
	t := time.NewTicker(interval)
	defer t.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			if n := s.Sweep(); n > 0 {
				logger.Log.Debug("Удалены истёкшие сессии", zap.Int("count", n))
			}
		}
	}
}

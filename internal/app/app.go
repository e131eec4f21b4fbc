package app

import (
	"context"
	"fmt"

	"sessionauth/internal/config"
	"sessionauth/internal/db"
	"sessionauth/internal/handlers"
	"sessionauth/internal/logger"
	"sessionauth/internal/metrics"
	"sessionauth/internal/repository"
	"sessionauth/internal/routes"
	"sessionauth/internal/services"
	"sessionauth/internal/session"
	"sessionauth/internal/utils"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// App: собранный сервис. Close освобождает пул, Redis и останавливает чистку сессий.
type App struct {
	Router      *mux.Router
	AuthService *services.AuthService

	closers []func()
}

func (a *App) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
	a.closers = nil
}

func InitApp(ctx context.Context, cfg *config.Config) (*App, error) {
	a := &App{}

	store, err := a.credentialStore(ctx, cfg)
	if err != nil {
		a.Close()
		return nil, err
	}

	sessionStore, err := a.sessionStore(ctx, cfg)
	if err != nil {
		a.Close()
		return nil, err
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	// Сервисы
	hasher := utils.NewBcryptHasher(cfg.BcryptCost)
	registry := session.NewRegistry(sessionStore, cfg.SessionTTL)
	resets := services.NewResetTokenManager(store, hasher, cfg.PasswordResetTTL)
	a.AuthService = services.NewAuthService(store, hasher, registry, resets, metrics.New(reg))

	// Хендлеры
	authHandler := handlers.NewAuthHandler(a.AuthService, cfg.CookieSecure, cfg.SessionTTL)

	// Маршруты
	a.Router = mux.NewRouter()
	routes.InitRoutes(a.Router, authHandler, a.AuthService, promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))

	return a, nil
}

func (a *App) credentialStore(ctx context.Context, cfg *config.Config) (repository.CredentialStore, error) {
	switch cfg.CredentialStore {
	case config.StoreMemory:
		return repository.NewMemoryStore(), nil
	case config.StorePostgres:
		pool, err := db.NewPostgresConnection(ctx, cfg)
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, pool.Close)
		if err := db.Migrate(ctx, pool); err != nil {
			return nil, err
		}
		return repository.NewUserRepository(pool), nil
	default:
		return nil, fmt.Errorf("unknown credential store %q", cfg.CredentialStore)
	}
}

func (a *App) sessionStore(ctx context.Context, cfg *config.Config) (session.Store, error) {
	switch cfg.SessionStore {
	case config.StoreMemory:
		store := session.NewMemoryStore()
		if cfg.SessionTTL > 0 && cfg.SessionSweepInterval > 0 {
			sweepCtx, cancel := context.WithCancel(context.Background())
			done := make(chan struct{})
			go func() {
				defer close(done)
				session.RunSweeper(sweepCtx, store, cfg.SessionSweepInterval)
			}()
			a.closers = append(a.closers, func() {
				cancel()
				<-done
			})
		}
		return store, nil
	case config.StoreRedis:
		store, err := session.NewRedisStore(ctx, cfg.RedisURL)
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, func() {
			if err := store.Close(); err != nil {
				logger.Log.Warn("Ошибка закрытия Redis", zap.Error(err))
			}
		})
		return store, nil
	default:
		return nil, fmt.Errorf("unknown session store %q", cfg.SessionStore)
	}
}

package auth

import (
	"github.com/redis/go-redis/v9"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/ndexpress/nd-express/internal/config"
	"github.com/ndexpress/nd-express/internal/database"
)

// NewModule returns the auth module options
func NewModule() fx.Option {
	return fx.Options(
		fx.Provide(
			// Provide repository
			fx.Annotate(
				func(manager *database.Manager) Repository {
					return NewRepository(manager.DB())
				},
			),
			// Provide service
			fx.Annotate(
				func(config *config.AppConfig, log *zap.Logger, repo Repository) *Service {
					return NewService(&config.Auth, log, repo)
				},
			),
			// Provide handler
			fx.Annotate(
				func(svc *Service, log *zap.Logger) *Handler {
					return NewHandler(svc, log)
				},
			),
			// Provide middleware
			fx.Annotate(
				func(svc *Service, log *zap.Logger) *Middleware {
					return NewMiddleware(svc, log)
				},
			),
			// Provide rate limiter with the configured backing store
			fx.Annotate(
				func(config *config.AppConfig, log *zap.Logger) *RateLimiter {
					store := newStore(&config.RateLimit)
					return NewRateLimiter(store, log)
				},
			),
		),
	)
}

func newStore(cfg *config.RateLimitConfig) RateLimitStore {
	if cfg.Backend == "redis" {
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
		})
		return NewRedisStore(client)
	}
	return NewMemoryStore()
}

package storage

import (
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/ndexpress/nd-express/internal/config"
)

// NewModule returns the storage module options
func NewModule() fx.Option {
	return fx.Options(
		fx.Provide(
			fx.Annotate(
				func(cfg *config.AppConfig, log *zap.Logger) *Store {
					return NewStore(&cfg.Storage, log)
				},
			),
			fx.Annotate(
				func(store *Store, log *zap.Logger) *Handler {
					return NewHandler(store, log)
				},
			),
		),
	)
}

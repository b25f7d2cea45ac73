package app

import (
	"context"
	"os"

	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/ndexpress/nd-express/internal/auth"
	"github.com/ndexpress/nd-express/internal/database"
	"github.com/ndexpress/nd-express/internal/expense"
	"github.com/ndexpress/nd-express/internal/migration"
	"github.com/ndexpress/nd-express/internal/server"
	"github.com/ndexpress/nd-express/internal/storage"
	"github.com/ndexpress/nd-express/internal/vision"
)

// Module combines all application modules
func Module() fx.Option {
	return fx.Options(
		// Logger
		fx.Provide(newLogger),

		// Configuration
		fx.Provide(server.LoadConfig),

		// Database and migrations
		database.Module(),
		migration.Module(),

		// Domain modules
		auth.NewModule(),
		expense.NewModule(),
		storage.NewModule(),
		vision.NewModule(),

		// Server
		fx.Provide(server.NewServer),

		// Start the server
		fx.Invoke(registerHooks),
	)
}

func newLogger() (*zap.Logger, error) {
	env := os.Getenv("APP_ENV")
	return server.NewLogger(env)
}

func registerHooks(
	lifecycle fx.Lifecycle,
	srv *server.Server,
	log *zap.Logger,
) {
	lifecycle.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go func() {
				if err := srv.Start(); err != nil {
					log.Error("failed to start server", zap.Error(err))
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			log.Info("shutting down server...")
			srv.Stop()
			return nil
		},
	})
}

package server

import (
	"context"
	"fmt"
	"net/http"
	"os"

	"github.com/gin-gonic/gin"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/ndexpress/nd-express/internal/api"
	"github.com/ndexpress/nd-express/internal/auth"
	"github.com/ndexpress/nd-express/internal/config"
	"github.com/ndexpress/nd-express/internal/expense"
	"github.com/ndexpress/nd-express/internal/storage"
	"github.com/ndexpress/nd-express/internal/vision"
)

type Server struct {
	config     *config.AppConfig
	log        *zap.Logger
	httpServer *http.Server
}

type Params struct {
	fx.In

	Config         *config.AppConfig
	Logger         *zap.Logger
	AuthHandler    *auth.Handler
	AuthMiddleware *auth.Middleware
	RateLimiter    *auth.RateLimiter
	ExpenseHandler *expense.Handler
	StorageHandler *storage.Handler
	VisionHandler  *vision.Handler
}

func NewServer(p Params) *Server {
	if p.Config.HTTP.Mode != "" {
		gin.SetMode(p.Config.HTTP.Mode)
	}

	router := gin.New()
	router.Use(requestLogger(p.Logger), gin.Recovery(), corsMiddleware(p.Config.HTTP.AllowOrigin))

	registerRoutes(router, p)

	addr := fmt.Sprintf("%s:%s", p.Config.Server.Host, p.Config.Server.Port)
	httpServer := &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  p.Config.HTTP.ReadTimeout,
		WriteTimeout: p.Config.HTTP.WriteTimeout,
	}

	return &Server{
		config:     p.Config,
		log:        p.Logger,
		httpServer: httpServer,
	}
}

func registerRoutes(router *gin.Engine, p Params) {
	limits := p.Config.RateLimit
	window := limits.Window

	router.POST(api.AuthRegister, p.RateLimiter.Limit("register", limits.Register, window), p.AuthHandler.Register)
	router.POST(api.AuthLogin, p.RateLimiter.Limit("login", limits.Login, window), p.AuthHandler.Login)
	router.POST(api.AuthLogout, p.RateLimiter.Limit("logout", limits.Logout, window), p.AuthHandler.Logout)
	verifyLimit := p.RateLimiter.Limit("verify", limits.Verify, window)
	router.GET(api.AuthVerify, verifyLimit, p.AuthHandler.Verify)
	router.POST(api.AuthVerify, verifyLimit, p.AuthHandler.Verify)

	protected := router.Group("/", p.AuthMiddleware.RequireAuth())
	{
		protected.PUT(api.AuthProfile, p.AuthHandler.UpdateProfile)

		protected.GET(api.ReportOpen, p.ExpenseHandler.CurrentReport)
		protected.POST(api.Reports, p.ExpenseHandler.OpenReport)
		protected.POST(api.ReportClose, p.ExpenseHandler.CloseReport)
		protected.PUT(api.ReportAdvance, p.ExpenseHandler.SetAdvance)
		protected.POST(api.ReportExpenses, p.ExpenseHandler.AddLaunch)
		protected.GET(api.ReportExpenses, p.ExpenseHandler.ListLaunches)
		protected.GET(api.ReportSummary, p.ExpenseHandler.Summary)
		protected.DELETE(api.Expense, p.ExpenseHandler.DeleteLaunch)

		protected.POST(api.Receipts, p.StorageHandler.Upload)
		protected.POST(api.VisionAnalyze, p.VisionHandler.Analyze)
	}

	if p.Config.Storage.PublicPrefix != "" {
		router.Static(p.Config.Storage.PublicPrefix, p.Config.Storage.BaseDir)
	}

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
}

func (s *Server) Start() error {
	s.log.Info("Starting HTTP server",
		zap.String("address", s.httpServer.Addr),
		zap.Object("config", serverConfigToField(s.config)),
	)

	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("failed to serve: %w", err)
	}
	return nil
}

func (s *Server) Stop() {
	s.log.Info("shutting down HTTP server")

	ctx, cancel := context.WithTimeout(context.Background(), s.config.HTTP.ShutdownTimeout)
	defer cancel()

	if err := s.httpServer.Shutdown(ctx); err != nil {
		s.log.Warn("graceful shutdown failed", zap.Error(err))
	}
}

func serverConfigToField(config *config.AppConfig) zapcore.ObjectMarshaler {
	return zapcore.ObjectMarshalerFunc(func(enc zapcore.ObjectEncoder) error {
		enc.AddString("environment", os.Getenv("APP_ENV"))
		enc.AddString("mode", config.HTTP.Mode)
		enc.AddDuration("read_timeout", config.HTTP.ReadTimeout)
		enc.AddDuration("write_timeout", config.HTTP.WriteTimeout)
		enc.AddString("rate_limit_backend", config.RateLimit.Backend)
		return nil
	})
}

func requestLogger(log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		path := c.Request.URL.Path
		c.Next()

		log.Debug("request handled",
			zap.String("method", c.Request.Method),
			zap.String("path", path),
			zap.Int("status", c.Writer.Status()),
			zap.String("ip", c.ClientIP()))
	}
}

func corsMiddleware(allowOrigin string) gin.HandlerFunc {
	if allowOrigin == "" {
		allowOrigin = "*"
	}
	return func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", allowOrigin)
		c.Header("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Authorization, Content-Type")

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusOK)
			return
		}
		c.Next()
	}
}

package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"huddle/internal/core/ports"
	"huddle/internal/core/services"
	httphandlers "huddle/internal/handlers/http"
	"huddle/internal/infrastructure/email"
	"huddle/internal/infrastructure/gateway"
	"huddle/internal/infrastructure/middleware"
	"huddle/internal/infrastructure/monitoring"
	"huddle/internal/infrastructure/repositories/memory"
	"huddle/pkg/config"
	"huddle/pkg/logger"
	"huddle/pkg/snapshot"
	"huddle/pkg/tracing"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func main() {
	startTime := time.Now()

	// Try multiple config paths
	configPaths := []string{
		"configs/config.yaml",
		"./configs/config.yaml",
		"/etc/huddle/config.yaml",
		"config.yaml",
	}

	var cfg *config.Config
	var err error
	for _, path := range configPaths {
		cfg, err = config.Load(path)
		if err == nil {
			break
		}
	}
	if err != nil {
		cfg = config.DefaultConfig()
	}

	zapLogger := logger.New(cfg.Logging.Level, cfg.Logging.Format)
	defer zapLogger.Sync()
	log := zapLogger.Sugar()

	// Tracing
	tracerProvider, err := tracing.Init(tracing.Config{
		Enabled:     cfg.Tracing.Enabled,
		ServiceName: "huddle",
		JaegerURL:   cfg.Tracing.JaegerURL,
		Environment: "production",
		SampleRate:  cfg.Tracing.SampleRate,
	})
	if err != nil {
		log.Fatalw("failed to initialize tracing", "error", err)
	}

	// Repositories and id sequences
	userRepo := memory.NewMemoryUserRepository()
	channelRepo := memory.NewMemoryChannelRepository()
	userSeq := services.NewSequence(0)
	channelSeq := services.NewSequence(0)
	messageSeq := services.NewSequence(0)

	// Monitoring
	var metrics ports.Metrics
	var promCollector *monitoring.PrometheusCollector
	if cfg.Monitoring.PrometheusEnabled {
		promCollector = monitoring.NewPrometheusCollector()
		metrics = promCollector
	}
	healthChecker := monitoring.NewHealthChecker()

	// Websocket event gateway
	wsGateway := gateway.NewWebSocketGateway(channelRepo, userRepo, log)

	// Outbound email
	var emailSender ports.EmailSender
	if cfg.Email.Enabled {
		emailSender = email.NewSender(
			cfg.Email.SMTPHost,
			cfg.Email.SMTPPort,
			cfg.Email.Username,
			cfg.Email.Password,
			cfg.Email.From,
		)
	} else {
		emailSender = email.NewLogSender(log)
	}

	// Core services
	authService := services.NewAuthService(cfg.Auth.JWTSecret, cfg.Auth.AccessTokenTTL.Std(), cfg.Auth.RefreshTokenTTL.Std())
	userService := services.NewUserService(userRepo, userSeq, emailSender, log)
	channelService := services.NewChannelService(channelRepo, userRepo, channelSeq, metrics, log)
	messageService := services.NewMessageService(channelRepo, userRepo, messageSeq, wsGateway, metrics, log)
	standupService := services.NewStandupService(channelRepo, userRepo, messageSeq, wsGateway, metrics, log)

	// Snapshot persistence
	var snapService *services.SnapshotService
	if cfg.Snapshot.Enabled {
		storage, err := newSnapshotStorage(cfg)
		if err != nil {
			log.Fatalw("failed to initialize snapshot storage", "error", err)
		}
		snapService = services.NewSnapshotService(
			userRepo, channelRepo,
			userSeq, channelSeq, messageSeq,
			snapshot.NewService(storage, "1"),
			log,
		)
		if err := snapService.Restore(context.Background()); err != nil {
			log.Fatalw("failed to restore snapshot", "error", err)
		}
		// Standup windows restored from disk need their timers back.
		if err := standupService.RearmActive(context.Background()); err != nil {
			log.Errorw("failed to re-arm standup timers", "error", err)
		}
	}

	healthChecker.AddCheck("store", func(ctx context.Context) (bool, error) {
		_, err := channelRepo.List(ctx)
		return err == nil, err
	}, 2*time.Second)

	// HTTP handlers
	authHandler := httphandlers.NewAuthHandler(authService, userService, cfg.Auth.AccessTokenTTL.Std())
	userHandler := httphandlers.NewUserHandler(userService)
	channelHandler := httphandlers.NewChannelHandler(channelService)
	messageHandler := httphandlers.NewMessageHandler(messageService)
	standupHandler := httphandlers.NewStandupHandler(standupService)

	if cfg.Logging.Level != "debug" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(middleware.RequestIDMiddleware())
	router.Use(middleware.RecoveryMiddleware(log))
	router.Use(middleware.ErrorHandlerMiddleware(zapLogger))
	router.Use(middleware.NewHTTPRateLimitMiddleware(cfg))
	router.Use(middleware.MetricsMiddleware(promCollector))
	if cfg.Tracing.Enabled {
		router.Use(middleware.TracingMiddleware())
	}

	// Public routes
	authHandler.SetupRoutes(router)

	// Authenticated API
	api := router.Group("/api/v1")
	api.Use(middleware.AuthMiddleware(authService))
	{
		authHandler.SetupProtectedRoutes(api)
		userHandler.SetupRoutes(api)
		channelHandler.SetupRoutes(api)
		messageHandler.SetupRoutes(api)
		standupHandler.SetupRoutes(api)

		api.GET("/events", func(c *gin.Context) {
			userID, ok := middleware.ActorID(c)
			if !ok {
				c.JSON(http.StatusUnauthorized, gin.H{"error": "authentication required"})
				return
			}
			wsGateway.HandleConnection(c.Writer, c.Request, userID)
		})
	}

	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"status":    "healthy",
			"timestamp": time.Now(),
			"uptime":    time.Since(startTime).String(),
		})
	})

	router.GET("/ready", func(c *gin.Context) {
		status := healthChecker.CheckAll(c.Request.Context())
		if status.Status != "healthy" {
			c.JSON(503, status)
			return
		}
		c.JSON(200, status)
	})

	if cfg.Monitoring.PrometheusEnabled {
		router.GET("/metrics", gin.WrapH(promhttp.Handler()))
		log.Info("Prometheus metrics enabled")
	}

	srv := &http.Server{
		Addr:         cfg.Server.Address,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout.Std(),
		WriteTimeout: cfg.Server.WriteTimeout.Std(),
	}

	// Periodic snapshots stop, and make a final save, on shutdown.
	snapCtx, snapCancel := context.WithCancel(context.Background())
	snapDone := make(chan struct{})
	if snapService != nil {
		go func() {
			defer close(snapDone)
			snapService.Run(snapCtx, cfg.Snapshot.Interval.Std())
		}()
	} else {
		close(snapDone)
	}

	serverErr := make(chan error, 1)
	go func() {
		log.Infof("Starting huddle server on %s", cfg.Server.Address)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErr <- err
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-serverErr:
		log.Fatalw("Server failed", "error", err)
	case sig := <-sigChan:
		log.Infow("Received shutdown signal", "signal", sig)
	}

	log.Info("Shutting down huddle server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout.Std())
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Errorw("Error during server shutdown", "error", err)
		if closeErr := srv.Close(); closeErr != nil {
			log.Errorw("Error force closing server", "error", closeErr)
		}
	} else {
		log.Info("Server shutdown gracefully")
	}

	snapCancel()
	select {
	case <-snapDone:
	case <-time.After(cfg.Server.ShutdownTimeout.Std()):
		log.Error("Timed out waiting for final snapshot")
	}

	if err := tracerProvider.Shutdown(shutdownCtx); err != nil {
		log.Errorw("Error shutting down tracer", "error", err)
	}

	log.Info("huddle server stopped")
}

func newSnapshotStorage(cfg *config.Config) (snapshot.Storage, error) {
	switch cfg.Snapshot.Backend {
	case "redis":
		return snapshot.NewRedisStorage(cfg.Redis.Address, cfg.Redis.Password, cfg.Redis.DB, cfg.Redis.PoolSize)
	default:
		return snapshot.NewFileStorage(cfg.Snapshot.Path)
	}
}

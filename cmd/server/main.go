package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"nyumbakumi/internal/adapters/cache"
	"nyumbakumi/internal/adapters/http/middleware"
	"nyumbakumi/internal/adapters/http/routes"
	"nyumbakumi/internal/config"
	"nyumbakumi/internal/core/services"

	_ "nyumbakumi/docs" // Swagger docs
)

// @title Nyumba Kumi API
// @version 1.0
// @description Community management API: zones, households, alerts, ratings and tasks

// @contact.name API Support

// @BasePath /api/v1

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	logger, err := config.NewLogger(cfg.Log.Level, cfg.Log.Format, config.ServiceName)
	if err != nil {
		log.Fatalf("failed to build logger: %v", err)
	}
	defer logger.Sync() //nolint:errcheck

	if cfg.EnvFileMissing {
		logger.Info(".env not found, using environment variables only")
	}

	store, closeDB, pingDB, err := config.OpenStore(cfg, logger)
	if err != nil {
		logger.Fatal("failed to open store", zap.Error(err))
	}
	defer closeDB() //nolint:errcheck

	locker, closeLocker := newLocker(cfg, logger)
	defer closeLocker()

	notifier := services.NewAlertNotifier(cfg.Notify.WebhookURL, cfg.Notify.Timeout, logger)

	overdue := services.NewOverdueService(store.Tasks, logger)
	if err := overdue.Start(cfg.Tasks.OverdueSchedule); err != nil {
		logger.Fatal("failed to start overdue sweep", zap.Error(err))
	}

	app := fiber.New(fiber.Config{
		AppName:      "Nyumba Kumi API v1.0",
		ErrorHandler: middleware.ErrorHandler(logger),
	})

	middleware.Setup(app, cfg)
	routes.Setup(app, routes.Deps{
		Config:   cfg,
		Log:      logger,
		Store:    store,
		Locker:   locker,
		Notifier: notifier,
		PingDB:   pingDB,
	})

	go gracefulShutdown(app, logger)

	logger.Info("server starting", zap.String("port", cfg.Port), zap.String("mode", cfg.AppMode))
	if err := app.Listen(":" + cfg.Port); err != nil {
		logger.Fatal("failed to start server", zap.Error(err))
	}

	// Listen returns once Shutdown completes
	overdue.Stop()
	notifier.Wait()
	logger.Info("server stopped gracefully")
}

// newLocker picks the rating aggregation lock: redis when configured so
// several instances share it, otherwise an in-process mutex
func newLocker(cfg *config.Config, logger *zap.Logger) (services.KeyedLocker, func()) {
	if cfg.Redis.Addr == "" {
		return services.NewKeyedMutex(), func() {}
	}

	client := cache.NewRedisClient(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := cache.Ping(ctx, client); err != nil {
		logger.Fatal("failed to connect to redis", zap.String("addr", cfg.Redis.Addr), zap.Error(err))
	}
	logger.Info("using redis aggregation lock", zap.String("addr", cfg.Redis.Addr))

	return cache.NewRedisLocker(client, cfg.Redis.LockTTL, logger), func() {
		if err := client.Close(); err != nil {
			logger.Warn("failed to close redis client", zap.Error(err))
		}
	}
}

// gracefulShutdown handles graceful shutdown
func gracefulShutdown(app *fiber.App, logger *zap.Logger) {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server")
	if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
		logger.Error("error during shutdown", zap.Error(err))
	}
}

package main

import (
	"log"
	"os"
	"os/signal"
	"syscall"

	"chamanexus/internal/adapters/http/middleware"
	"chamanexus/internal/adapters/http/routes"
	"chamanexus/internal/adapters/persistence/models"
	"chamanexus/internal/adapters/persistence/repositories"
	"chamanexus/internal/config"
	"chamanexus/internal/core/services"
	"chamanexus/internal/pkg/logger"
	"chamanexus/internal/pkg/ratestore"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	_ "chamanexus/docs" // Swagger docs
)

// @title ChamaNexus API
// @version 1.0
// @description Savings group (chama) ledger: members, contributions, fines, payouts and expenses with treasurer verification.
// @termsOfService http://swagger.io/terms/

// @contact.name API Support
// @contact.email support@chamanexus.co.ke

// @license.name Apache 2.0
// @license.url http://www.apache.org/licenses/LICENSE-2.0.html

// @BasePath /api/v1
// @schemes http https

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	zlog, err := logger.New(cfg.AppMode)
	if err != nil {
		log.Fatalf("failed to build logger: %v", err)
	}
	defer func() { _ = zlog.Sync() }()

	// Connect to database
	db, err := config.ConnectDatabase(cfg)
	if err != nil {
		zlog.Fatal("failed to connect to database", zap.Error(err))
	}
	defer config.CloseDatabase()

	if err := models.AutoMigrate(db); err != nil {
		zlog.Fatal("failed to auto migrate", zap.Error(err))
	}
	zlog.Info("database migration completed", zap.String("driver", cfg.Database.Driver))

	config.NewSeeder(db, cfg, zlog).Run()

	// Shared limiter counters when redis is configured
	var storage fiber.Storage
	if cfg.RedisURL != "" {
		redisStorage, err := ratestore.New(cfg.RedisURL)
		if err != nil {
			zlog.Fatal("failed to connect to redis", zap.Error(err))
		}
		defer redisStorage.Close()
		storage = redisStorage
		zlog.Info("rate limiter backed by redis")
	}

	// Expired refresh token cleanup
	cronService := services.NewCronService(repositories.NewRefreshTokenRepository(db), zlog)
	if err := cronService.Start(cfg.Cron.TokenCleanup); err != nil {
		zlog.Fatal("failed to start cron", zap.String("spec", cfg.Cron.TokenCleanup), zap.Error(err))
	}
	defer cronService.Stop()

	// Create Fiber app
	app := fiber.New(fiber.Config{
		AppName:      "ChamaNexus API v1.0",
		ErrorHandler: middleware.CustomErrorHandler,
	})

	// Setup middlewares
	middleware.Setup(app, cfg, storage)

	// Setup routes (pass db and cfg for dependency injection)
	routes.Setup(app, db, cfg, zlog, storage)

	// Graceful shutdown
	go gracefulShutdown(app, zlog)

	// Start server
	zlog.Info("server starting", zap.String("port", cfg.Port), zap.String("mode", cfg.AppMode))
	if err := app.Listen(":" + cfg.Port); err != nil {
		zlog.Fatal("failed to start server", zap.Error(err))
	}
}

// gracefulShutdown handles graceful shutdown
func gracefulShutdown(app *fiber.App, zlog *zap.Logger) {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	zlog.Info("shutting down server")
	if err := app.Shutdown(); err != nil {
		zlog.Error("error during shutdown", zap.Error(err))
	}
	zlog.Info("server stopped gracefully")
}

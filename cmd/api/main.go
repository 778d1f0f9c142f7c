package main

import (
	"context"
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"go.uber.org/zap"

	"github.com/ujjwalcurry30/Task-Tracker/configs"
	v1 "github.com/ujjwalcurry30/Task-Tracker/internal/api/v1"
	"github.com/ujjwalcurry30/Task-Tracker/internal/api/v1/handlers"
	"github.com/ujjwalcurry30/Task-Tracker/internal/auth"
	"github.com/ujjwalcurry30/Task-Tracker/internal/middleware"
	"github.com/ujjwalcurry30/Task-Tracker/internal/repository"
	"github.com/ujjwalcurry30/Task-Tracker/internal/tasks"
	"github.com/ujjwalcurry30/Task-Tracker/internal/users"
	myws "github.com/ujjwalcurry30/Task-Tracker/internal/websocket"
	"github.com/ujjwalcurry30/Task-Tracker/pkg/database"
	"github.com/ujjwalcurry30/Task-Tracker/pkg/logger"
)

func main() {
	// Inisialisasi logger
	logger.InitLoggers()
	defer logger.SyncLoggers()
	logger.SystemLogger.Info("Starting application", zap.String("time", time.Now().Format(time.RFC3339)))

	// Load config
	cfg := configs.LoadConfig()
	if cfg.JWTSecret == configs.DevJWTSecret {
		logger.SecurityLogger.Warn("Running with the development JWT secret; set JWT_SECRET in production")
	}

	// Inisialisasi database
	db := database.ConnectDB(cfg)
	defer db.Close()
	logger.SystemLogger.Info("Database Connected")

	// Buat tabel jika belum ada
	repository.CreateTableIfNotExists(db)

	// Inisialisasi Redis untuk cache task
	redisClient := database.ConnectRedis(context.Background(), cfg)
	defer redisClient.Close()

	// Service dan store: secret JWT di-inject sekali di sini, tidak pernah
	// dibaca ulang dari environment di tempat lain
	tokenService := auth.NewTokenService(cfg.JWTSecret, cfg.TokenTTL)
	userStore := users.NewStore(db, cfg.BcryptCost)
	taskStore := tasks.NewStore(db, redisClient)

	// WebSocket hub untuk task events
	hub := myws.NewHub()
	go hub.Run()

	authHandler := handlers.NewAuthHandler(userStore, tokenService)
	taskHandler := handlers.NewTaskHandler(taskStore, hub)

	app := fiber.New()

	// Middleware
	app.Use(middleware.ErrorHandler())
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowHeaders: "Origin, Content-Type, Accept, Authorization",
	}))
	app.Use(limiter.New(limiter.Config{
		Max:        100,
		Expiration: 1 * time.Minute,
	}))

	app.Get("/", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"message": "Task Tracker API is running"})
	})

	// Daftarkan route API
	v1.RegisterRoutes(app, authHandler, taskHandler, tokenService, hub)

	addr := fmt.Sprintf(":%d", cfg.Port)
	logger.SystemLogger.Info("Application ready", zap.String("addr", addr))
	if err := app.Listen(addr); err != nil {
		logger.ErrorLogger.Error("Application failed to start", zap.Error(err))
	}
}

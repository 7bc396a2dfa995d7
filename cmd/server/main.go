// Package main is the entry point for the API server.
// It initializes all dependencies, sets up the HTTP server,
// and starts the application.
package main

import (
	"context"
	"log"
	"time"

	"amstapay/internal/config"
	applog "amstapay/internal/logger"
	"amstapay/internal/repositories"
	"amstapay/internal/routes"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
)

// main initializes and starts the HTTP server.
// It performs the following setup:
// - Loads configuration
// - Initializes database connections (PostgreSQL + Redis)
// - Configures routes and middleware
// - Starts the HTTP server
func main() {
	// Load environment variables
	config.LoadEnv()

	zlog, err := applog.NewLogger()
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer zlog.Sync() //nolint:errcheck

	// Initialize databases (PostgreSQL + Redis)
	if err := repositories.InitDB(); err != nil {
		zlog.Fatalw("Failed to initialize database", "error", err)
	}

	sqlDB, err := repositories.DB.DB()
	if err != nil {
		zlog.Fatalw("Failed to get database instance", "error", err)
	}

	// Periodic connection pool stats
	go func() {
		ticker := time.NewTicker(1 * time.Minute)
		defer ticker.Stop()
		for range ticker.C {
			stats := sqlDB.Stats()
			zlog.Infow("db pool stats",
				"open", stats.OpenConnections,
				"idle", stats.Idle,
				"in_use", stats.InUse,
				"wait_count", stats.WaitCount,
				"wait_duration", stats.WaitDuration,
			)
		}
	}()

	if err := sqlDB.Ping(); err != nil {
		zlog.Fatalw("Failed to ping database", "error", err)
	}
	zlog.Infow("connected to database")

	// Start from a clean cache so stale balances never survive a deploy
	if repositories.CacheService != nil {
		if err := repositories.CacheService.FlushAll(context.Background()); err != nil {
			zlog.Warnw("failed to flush redis cache", "error", err)
		}
	}

	defer func() {
		if err := sqlDB.Close(); err != nil {
			zlog.Warnw("failed to close database connection", "error", err)
		}
		if repositories.CacheService != nil {
			if err := repositories.CacheService.Close(); err != nil {
				zlog.Warnw("failed to close redis connection", "error", err)
			}
		}
	}()

	// Create Fiber app
	app := fiber.New()

	// CORS middleware
	app.Use(cors.New(cors.Config{
		AllowOrigins:     config.GetEnv("CORS_ORIGINS", "http://localhost:5173"),
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization",
		AllowMethods:     "GET,POST,HEAD,PUT,DELETE,PATCH",
		AllowCredentials: true,
	}))

	app.Use(fiberlogger.New(fiberlogger.Config{
		Format: "[${time}] ${status} - ${latency} ${method} ${path}\n",
	}))

	// Rate limit money movement endpoints per client IP
	moneyLimiter := limiter.New(limiter.Config{
		Max:        20,
		Expiration: 1 * time.Minute,
		KeyGenerator: func(c *fiber.Ctx) string {
			return c.IP()
		},
		LimitReached: func(c *fiber.Ctx) error {
			return c.Status(429).JSON(fiber.Map{
				"error": "Too many requests. Please try again later.",
			})
		},
	})
	app.Use("/api/wallet/transfer", moneyLimiter)
	app.Use("/api/transfer/bank", moneyLimiter)
	app.Use("/api/payment/qr", moneyLimiter)

	// Routes
	routes.SetupRoutes(app, repositories.DB, zlog)

	// Start server
	zlog.Fatal(app.Listen(":" + config.GetEnv("PORT", "3000")))
}

// Package main is the entry point for the escrow API server.
// It initializes all dependencies, sets up the HTTP server,
// and starts the application.
package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"crewpay/internal/config"
	"crewpay/internal/handlers"
	"crewpay/internal/metrics"
	"crewpay/internal/middleware"
	"crewpay/internal/repositories"
	"crewpay/internal/repositories/cache"
	"crewpay/internal/routes"
	"crewpay/internal/services/audit"
	"crewpay/internal/services/dispute"
	"crewpay/internal/services/payment"
	"crewpay/internal/services/payout"
	"crewpay/internal/services/pmrequest"
	"crewpay/internal/services/refund"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
)

func main() {
	config.LoadEnv()

	jwtSecret := config.GetEnv("JWT_SECRET", "")
	if jwtSecret == "" {
		log.Fatal("JWT_SECRET is required")
	}

	db, err := repositories.OpenDB(repositories.DSNFromEnv(), repositories.DBConfigFromEnv())
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer repositories.CloseDB(db)

	// Redis is optional: without it the audit cache and rate limiting are off.
	var cacheService *cache.CacheService
	var rateLimiter middleware.Limiter
	redisClient := cache.NewRedisClient(cache.NewRedisConfig())
	candidate := cache.NewCacheService(redisClient, config.GetDurationEnv("AUDIT_CACHE_TTL", time.Minute))
	pingCtx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	if err := candidate.HealthCheck(pingCtx); err != nil {
		log.Printf("⚠️ Redis unavailable, continuing without cache: %v", err)
		_ = redisClient.Close()
	} else {
		cacheService = candidate
		rateLimiter = cache.NewRateCounter(cacheService.Client(), "ratelimit",
			config.GetIntEnv("RATE_LIMIT_MAX", 30),
			config.GetDurationEnv("RATE_LIMIT_WINDOW", time.Minute))
		log.Println("✅ Redis connected")
		defer func() {
			if err := cacheService.Close(); err != nil {
				log.Printf("⚠️ Failed to close Redis connection: %v", err)
			}
		}()
	}
	cancel()

	fees, err := config.LoadFeeSchedule()
	if err != nil {
		log.Fatalf("Failed to load fee schedule: %v", err)
	}

	var processor payment.Processor
	if key := config.GetEnv("STRIPE_SECRET_KEY", ""); key != "" {
		processor = payment.NewStripeProcessor(key)
	} else {
		log.Println("⚠️ STRIPE_SECRET_KEY not set, using sandbox processor")
		processor = payment.NewSandboxProcessor()
	}

	collector := metrics.NewPrometheusCollector()
	store := repositories.NewStore(db)

	auditOpts := []audit.Option{}
	if cacheService != nil {
		auditOpts = append(auditOpts, audit.WithCache(cacheService))
	}

	deps := routes.Dependencies{
		Auth:        middleware.NewAuthMiddleware(jwtSecret),
		RateLimiter: rateLimiter,
		Registry:    collector.Registry(),
		PMRequests:  handlers.NewPMRequestHandler(pmrequest.NewService(store, processor, collector)),
		Disputes:    handlers.NewDisputeHandler(dispute.NewService(store, collector)),
		Jobs: handlers.NewJobHandler(
			refund.NewService(store, processor, collector),
			payout.NewService(store, processor, fees, collector),
		),
		Audit:  handlers.NewAuditHandler(audit.NewAuditor(store, fees, collector, auditOpts...)),
		Health: handlers.NewHealthHandler(db, cacheService),
	}
	app := fiber.New(fiber.Config{
		AppName:      "crewpay",
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
	})

	app.Use(recover.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: config.GetEnv("CORS_ORIGINS", "http://localhost:5173"),
		AllowHeaders: "Origin, Content-Type, Accept, Authorization",
		AllowMethods: "GET,POST,HEAD,PUT,DELETE,PATCH",
	}))
	app.Use(logger.New(logger.Config{
		Format: "[${time}] ${status} - ${latency} ${method} ${path}\n",
	}))

	routes.SetupRoutes(app, deps)

	go func() {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
		<-quit
		log.Println("Shutting down server...")
		if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
			log.Printf("⚠️ Shutdown error: %v", err)
		}
	}()

	if err := app.Listen(":" + config.GetEnv("PORT", "3000")); err != nil {
		log.Printf("Server stopped: %v", err)
	}
}

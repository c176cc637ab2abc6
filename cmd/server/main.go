// Package main is the entry point for the statistics API.
// It opens the configured stores, wires the services, starts the
// snapshot scheduler and serves the HTTP API until interrupted.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"donaid/internal/bootstrap"
	"donaid/internal/config"
	applogger "donaid/internal/logger"
	"donaid/internal/metrics"
	"donaid/internal/repositories/cache"
	"donaid/internal/routes"
	"donaid/internal/scheduler"
	"donaid/internal/services/auth"
	"donaid/internal/services/stats"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"go.uber.org/zap"
)

func main() {
	config.LoadEnv()

	log := applogger.NewForEnvironment(config.GetEnv("ENV", "development"), config.GetEnv("LOG_LEVEL", "info"))
	defer func() { _ = log.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	stores, err := bootstrap.OpenStores(ctx, config.StatsStore(), log)
	if err != nil {
		log.Fatal("failed to open stores", zap.String("backend", config.StatsStore()), zap.Error(err))
	}

	healthChecks := stores.Checks
	var snapshotCache stats.SnapshotCache
	cacheService := bootstrap.OpenCache(ctx, log)
	if cacheService != nil {
		snapshotCache = cache.NewSnapshotCache(cacheService)
		healthChecks["redis"] = cacheService.HealthCheck
	}

	collector := metrics.NewStatsCollector("donaid", true)
	statsService := stats.NewService(stores.Sources, stores.Snapshots, snapshotCache, bootstrap.StatsConfigFromEnv(), collector, log)
	authService := auth.NewService(stores.Users, log)

	job := scheduler.NewSnapshotJob(scheduler.ConfigFromEnv(), statsService, log)
	if err := job.Start(ctx); err != nil {
		log.Fatal("failed to start snapshot scheduler", zap.Error(err))
	}

	app := fiber.New(fiber.Config{
		AppName:      "donaid-stats",
		ReadTimeout:  config.GetDurationEnv("HTTP_READ_TIMEOUT", 15*time.Second),
		WriteTimeout: config.GetDurationEnv("HTTP_WRITE_TIMEOUT", 2*time.Minute),
	})

	app.Use(recover.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins:     config.GetEnv("CORS_ORIGINS", "http://localhost:5173"),
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization",
		AllowMethods:     "GET,POST,HEAD,PUT,DELETE,PATCH",
		AllowCredentials: true,
	}))
	app.Use(logger.New(logger.Config{
		Format: "[${time}] ${status} - ${latency} ${method} ${path}\n",
	}))
	app.Use("/api/login", limiter.New(limiter.Config{
		Max:        config.GetIntEnv("LOGIN_RATE_LIMIT", 5),
		Expiration: 1 * time.Minute,
		KeyGenerator: func(c *fiber.Ctx) string {
			return c.IP()
		},
		LimitReached: func(c *fiber.Ctx) error {
			return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{
				"error": "Too many requests. Please try again later.",
			})
		},
	}))

	routes.SetupRoutes(app, routes.Dependencies{
		StatsService:    statsService,
		AuthService:     authService,
		HealthChecks:    healthChecks,
		Metrics:         collector.Handler(),
		SnapshotTimeout: config.GetDurationEnv("STATS_REQUEST_TIMEOUT", 90*time.Second),
		Logger:          log,
	})

	addr := ":" + config.GetEnv("PORT", "3000")
	serveErr := make(chan error, 1)
	go func() {
		log.Info("server listening", zap.String("addr", addr), zap.String("store", stores.Backend))
		serveErr <- app.Listen(addr)
	}()

	select {
	case <-ctx.Done():
		log.Info("shutdown signal received")
	case err := <-serveErr:
		log.Error("server stopped", zap.Error(err))
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		log.Warn("http shutdown", zap.Error(err))
	}
	if err := job.Stop(shutdownCtx); err != nil {
		log.Warn("scheduler stop", zap.Error(err))
	}
	if cacheService != nil {
		if err := cacheService.Close(); err != nil {
			log.Warn("failed to close redis connection", zap.Error(err))
		}
	}
	if err := stores.Close(shutdownCtx); err != nil {
		log.Warn("failed to close stores", zap.Error(err))
	}
	log.Info("server exited")
}

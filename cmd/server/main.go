package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/go-redis/redis/v8"
	"github.com/qa-forum-api/internal/api"
	"github.com/qa-forum-api/internal/config"
	"github.com/qa-forum-api/internal/database"
	"github.com/qa-forum-api/internal/ratelimit"
	"github.com/qa-forum-api/internal/repository"
	"github.com/qa-forum-api/internal/service"
	"github.com/qa-forum-api/pkg/logger"
	"github.com/qa-forum-api/pkg/tracing"
	"github.com/rs/zerolog"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		bootLog := logger.New(logger.Options{})
		bootLog.Fatal().Err(err).Msg("Failed to load configuration")
	}

	// Initialize logger
	log := logger.New(logger.Options{Level: cfg.Log.Level, Format: cfg.Log.Format})
	log.Info().Msg("Starting Q&A API server...")

	shutdownTracing, err := tracing.Init(tracing.Options{
		Enabled:     cfg.Tracing.Enabled,
		ServiceName: cfg.Tracing.ServiceName,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize tracing")
	}

	// Initialize database
	db, err := database.New(&cfg.Database, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to database")
	}
	defer db.Close()

	// Run migrations
	if err := db.RunMigrations(cfg.Server.MigrationsPath); err != nil {
		log.Fatal().Err(err).Msg("Failed to run database migrations")
	}

	// Initialize repositories
	repos := repository.New(db)

	// Initialize services
	services := service.NewServices(repos, cfg, log)

	opts := []api.RouterOption{api.WithHealthCheck(db), api.WithPoolStats(db)}
	if cfg.RateLimit.Enabled {
		limiter, closeLimiter := newLimiter(cfg.RateLimit, log)
		defer closeLimiter()
		opts = append(opts, api.WithRateLimiter(limiter))
	}

	// Initialize router
	router := api.NewRouter(services, cfg, log, opts...)

	// Create HTTP server
	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.ReadTimeout,
	}

	// Start server in goroutine
	go func() {
		log.Info().Str("port", cfg.Server.Port).Msg("Server listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Server failed")
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info().Msg("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}
	if err := shutdownTracing(ctx); err != nil {
		log.Error().Err(err).Msg("Failed to flush traces")
	}

	log.Info().Msg("Server exited gracefully")
}

// newLimiter prefers a shared Redis window and falls back to an in-process
// limiter when Redis is not configured or unreachable
func newLimiter(cfg config.RateLimitConfig, log zerolog.Logger) (ratelimit.Limiter, func()) {
	local := ratelimit.NewLocalLimiter(cfg.MaxRequests, cfg.Window)
	if cfg.RedisAddr == "" {
		log.Info().Msg("Using in-process rate limiter")
		return local, func() {}
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	if err := client.Ping(context.Background()).Err(); err != nil {
		log.Warn().Err(err).Str("addr", cfg.RedisAddr).Msg("Redis unreachable, using in-process rate limiter")
		_ = client.Close()
		return local, func() {}
	}

	limiter, err := ratelimit.NewRedisLimiter(client, cfg.MaxRequests, cfg.Window, cfg.KeyPrefix)
	if err != nil {
		log.Warn().Err(err).Msg("Invalid Redis limiter settings, using in-process rate limiter")
		_ = client.Close()
		return local, func() {}
	}

	log.Info().Str("addr", cfg.RedisAddr).Msg("Using Redis rate limiter")
	return limiter, func() { _ = client.Close() }
}

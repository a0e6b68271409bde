package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/therealutkarshpriyadarshi/vidtube/internal/auth"
	"github.com/therealutkarshpriyadarshi/vidtube/internal/cache"
	"github.com/therealutkarshpriyadarshi/vidtube/internal/cleanup"
	"github.com/therealutkarshpriyadarshi/vidtube/internal/config"
	"github.com/therealutkarshpriyadarshi/vidtube/internal/database"
	"github.com/therealutkarshpriyadarshi/vidtube/internal/feed"
	"github.com/therealutkarshpriyadarshi/vidtube/internal/logging"
	"github.com/therealutkarshpriyadarshi/vidtube/internal/media"
	"github.com/therealutkarshpriyadarshi/vidtube/internal/metrics"
	"github.com/therealutkarshpriyadarshi/vidtube/internal/middleware"
	"github.com/therealutkarshpriyadarshi/vidtube/internal/queue"
	"github.com/therealutkarshpriyadarshi/vidtube/internal/storage"
	"github.com/therealutkarshpriyadarshi/vidtube/internal/tracing"
)

// LoginLimiter throttles login attempts per client and identifier
type LoginLimiter interface {
	CheckRateLimit(ctx context.Context, key string, limit int64, window time.Duration) (bool, error)
	ResetRateLimit(ctx context.Context, key string) error
}

// API bundles the collaborators every handler needs
type API struct {
	store    database.Store
	composer *feed.Composer
	auth     *auth.Service
	media    media.Service
	cleanup  cleanup.Publisher
	limiter  LoginLimiter
	cfg      *config.Config
	logger   *logging.Logger
}

func main() {
	// Missing .env is fine, the environment may already be populated
	_ = godotenv.Load()

	cfg, err := config.Load(os.Getenv("CONFIG_PATH"))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger, err := logging.NewLogger(logging.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Output: cfg.Logging.Output,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to create logger: %v\n", err)
		os.Exit(1)
	}

	if err := cfg.Validate(); err != nil {
		logger.Fatalf("Invalid configuration: %v", err)
	}

	closer, err := tracing.Init(cfg.Tracing)
	if err != nil {
		logger.Fatalf("Failed to initialize tracing: %v", err)
	}
	defer closer.Close()

	// Initialize database
	db, err := database.New(cfg.Database)
	if err != nil {
		logger.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	if cfg.Database.Migrate {
		applied, err := db.Migrate(context.Background())
		if err != nil {
			logger.Fatalf("Failed to apply migrations: %v", err)
		}
		for _, name := range applied {
			logger.WithField("migration", name).Info("Applied migration")
		}
	}
	repo := database.NewRepository(db)

	// Initialize object storage and the media delegate
	stor, err := storage.New(context.Background(), cfg.Storage, logger)
	if err != nil {
		logger.Fatalf("Failed to initialize storage: %v", err)
	}
	if err := os.MkdirAll(cfg.Media.TempDir, 0o755); err != nil {
		logger.Fatalf("Failed to create temp dir: %v", err)
	}
	delegate := media.NewDelegate(stor, media.NewFFmpeg(cfg.Media.FFmpegPath, cfg.Media.FFprobePath), cfg.Media.TempDir, logger)

	// Redis backs token revocation, login throttling and cached stats
	c, err := cache.NewCache(cfg.Redis.Host, cfg.Redis.Port, cfg.Redis.Password, cfg.Redis.DB)
	if err != nil {
		logger.Fatalf("Failed to connect to Redis: %v", err)
	}
	defer c.Close()

	api := &API{
		store:    repo,
		composer: feed.NewComposer(repo, c, cfg.Media.StatsTTL, logger),
		auth:     auth.NewService(repo, c, cfg.Auth),
		media:    delegate,
		limiter:  c,
		cfg:      cfg,
		logger:   logger,
	}

	// The API keeps serving without the queue; failed deletes are then only logged
	q, err := queue.New(cfg.Queue, logger)
	if err != nil {
		logger.WarnWithErr("Cleanup queue unavailable, orphaned media will not be retried", err)
	} else {
		defer q.Close()
		api.cleanup = q
	}

	var metricsServer *metrics.Server
	if cfg.Metrics.Enabled {
		metricsServer = metrics.NewServer(cfg.Metrics.Port, logger)
		go func() {
			if err := metricsServer.Start(); err != nil {
				logger.ErrorWithErr("Metrics server failed", err)
			}
		}()
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	limiter := middleware.NewRateLimiter(cfg.Server.RateLimitRPS, cfg.Server.RateLimitBurst)
	go limiter.Cleanup(ctx)

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      setupRouter(api, limiter),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	// Start server in goroutine
	go func() {
		logger.Infof("Starting API server on %s", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatalf("Failed to start server: %v", err)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.ErrorWithErr("Server forced to shutdown", err)
	}
	if metricsServer != nil {
		if err := metricsServer.Shutdown(shutdownCtx); err != nil {
			logger.ErrorWithErr("Metrics server forced to shutdown", err)
		}
	}

	logger.Info("Server stopped")
}

package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/therealutkarshpriyadarshi/vidtube/internal/cache"
	"github.com/therealutkarshpriyadarshi/vidtube/internal/cleanup"
	"github.com/therealutkarshpriyadarshi/vidtube/internal/config"
	"github.com/therealutkarshpriyadarshi/vidtube/internal/database"
	"github.com/therealutkarshpriyadarshi/vidtube/internal/logging"
	"github.com/therealutkarshpriyadarshi/vidtube/internal/media"
	"github.com/therealutkarshpriyadarshi/vidtube/internal/metrics"
	"github.com/therealutkarshpriyadarshi/vidtube/internal/queue"
	"github.com/therealutkarshpriyadarshi/vidtube/internal/storage"
	"github.com/therealutkarshpriyadarshi/vidtube/internal/tracing"
)

const depthInterval = 30 * time.Second

func main() {
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
	logger = logger.WithField("component", "worker")

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
	repo := database.NewRepository(db)

	// Initialize storage
	stor, err := storage.New(context.Background(), cfg.Storage, logger)
	if err != nil {
		logger.Fatalf("Failed to initialize storage: %v", err)
	}
	delegate := media.NewDelegate(stor, media.NewFFmpeg(cfg.Media.FFmpegPath, cfg.Media.FFprobePath), cfg.Media.TempDir, logger)

	// Redis locks keep two workers off the same video
	c, err := cache.NewCache(cfg.Redis.Host, cfg.Redis.Port, cfg.Redis.Password, cfg.Redis.DB)
	if err != nil {
		logger.Fatalf("Failed to connect to Redis: %v", err)
	}
	defer c.Close()

	// Initialize queue
	q, err := queue.New(cfg.Queue, logger)
	if err != nil {
		logger.Fatalf("Failed to connect to queue: %v", err)
	}
	defer q.Close()

	reconciler := cleanup.NewReconciler(repo, delegate, c, logger)

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

	// Handle shutdown gracefully
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigChan
		logger.Info("Shutting down worker gracefully...")
		cancel()
	}()

	if err := q.Consume(ctx, reconciler.Reconcile); err != nil {
		logger.Fatalf("Failed to consume cleanup tasks: %v", err)
	}
	logger.Info("Worker started, waiting for cleanup tasks...")

	reportDepth(ctx, q, logger)

	if metricsServer != nil {
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer shutdownCancel()
		if err := metricsServer.Shutdown(shutdownCtx); err != nil {
			logger.ErrorWithErr("Metrics server forced to shutdown", err)
		}
	}
	logger.Info("Worker stopped")
}

// reportDepth publishes the cleanup and dead letter backlog until ctx is done
func reportDepth(ctx context.Context, q *queue.Queue, logger *logging.Logger) {
	ticker := time.NewTicker(depthInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if depth, err := q.GetQueueDepth(); err != nil {
				logger.WarnWithErr("Failed to inspect cleanup queue", err)
			} else {
				metrics.SetQueueDepth(queue.CleanupQueueName, depth)
			}
			if depth, err := q.GetDLQDepth(); err != nil {
				logger.WarnWithErr("Failed to inspect dead letter queue", err)
			} else {
				metrics.SetQueueDepth(queue.DeadLetterQueueName, depth)
				if depth > 0 {
					logger.WithField("depth", depth).Warn("Cleanup tasks waiting in dead letter queue")
				}
			}
		}
	}
}

package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/therealutkarshpriyadarshi/coursehub/internal/config"
	"github.com/therealutkarshpriyadarshi/coursehub/internal/database"
	"github.com/therealutkarshpriyadarshi/coursehub/internal/logging"
	"github.com/therealutkarshpriyadarshi/coursehub/internal/metrics"
	"github.com/therealutkarshpriyadarshi/coursehub/internal/payment"
	"github.com/therealutkarshpriyadarshi/coursehub/internal/queue"
	"github.com/therealutkarshpriyadarshi/coursehub/internal/scheduler"
	"github.com/therealutkarshpriyadarshi/coursehub/internal/tracing"
)

func main() {
	// Load configuration
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "config.yaml"
	}

	cfg, err := config.Load(configPath)
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
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	logger = logger.WithField("component", "worker")

	// Create context with cancellation
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Initialize tracing
	cfg.Tracing.ServiceName = "coursehub-worker"
	_, tracerCloser, err := tracing.InitTracer(cfg.Tracing)
	if err != nil {
		logger.Fatalf("Failed to initialize tracer: %v", err)
	}
	defer tracerCloser.Close()

	// Initialize database
	db, err := database.New(ctx, cfg.Database)
	if err != nil {
		logger.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	reconciler := payment.NewReconciler(database.NewEnrollmentRepository(db), logger)

	// Initialize queue
	q, err := queue.New(cfg.Queue, logger)
	if err != nil {
		logger.Fatalf("Failed to connect to queue: %v", err)
	}
	defer q.Close()

	// Report queue depth
	sched := scheduler.New(logger)
	if err := sched.AddJob("queue_depth", cfg.Scheduler.QueueDepthSpec,
		scheduler.QueueDepthJob(q, queue.PaymentQueueName, queue.DeadLetterQueueName)); err != nil {
		logger.Fatalf("Failed to schedule queue depth job: %v", err)
	}
	sched.Start()
	defer sched.Stop()

	// Metrics server
	var metricsServer *metrics.Server
	if cfg.Metrics.Enabled {
		metricsServer = metrics.NewServer(cfg.Metrics.Port, logger)
		go func() {
			if err := metricsServer.Start(); err != nil {
				logger.ErrorWithErr("Metrics server failed", err)
			}
		}()
	}

	// Handle shutdown gracefully
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		<-sigChan
		logger.Info("Shutting down worker gracefully...")
		cancel()
	}()

	// Consume until the context is cancelled
	logger.Info("Worker started, waiting for payment events...")
	if err := q.ConsumePaymentEvents(ctx, cfg.Queue.Prefetch, reconciler.Apply); err != nil {
		logger.ErrorWithErr("Payment consumer stopped", err)
	}

	if metricsServer != nil {
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer shutdownCancel()
		if err := metricsServer.Shutdown(shutdownCtx); err != nil {
			logger.ErrorWithErr("Metrics server forced to shutdown", err)
		}
	}

	logger.Info("Worker stopped")
}

package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/therealutkarshpriyadarshi/coursehub/internal/auth"
	"github.com/therealutkarshpriyadarshi/coursehub/internal/cache"
	"github.com/therealutkarshpriyadarshi/coursehub/internal/config"
	"github.com/therealutkarshpriyadarshi/coursehub/internal/course"
	"github.com/therealutkarshpriyadarshi/coursehub/internal/database"
	"github.com/therealutkarshpriyadarshi/coursehub/internal/enrollment"
	"github.com/therealutkarshpriyadarshi/coursehub/internal/logging"
	"github.com/therealutkarshpriyadarshi/coursehub/internal/mailer"
	"github.com/therealutkarshpriyadarshi/coursehub/internal/metrics"
	"github.com/therealutkarshpriyadarshi/coursehub/internal/middleware"
	"github.com/therealutkarshpriyadarshi/coursehub/internal/payment"
	"github.com/therealutkarshpriyadarshi/coursehub/internal/queue"
	"github.com/therealutkarshpriyadarshi/coursehub/internal/scheduler"
	"github.com/therealutkarshpriyadarshi/coursehub/internal/storage"
	"github.com/therealutkarshpriyadarshi/coursehub/internal/token"
	"github.com/therealutkarshpriyadarshi/coursehub/internal/tracing"
	"github.com/therealutkarshpriyadarshi/coursehub/internal/upload"
	"github.com/therealutkarshpriyadarshi/coursehub/internal/webhook"
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

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Initialize tracing
	_, tracerCloser, err := tracing.InitTracer(cfg.Tracing)
	if err != nil {
		logger.Fatalf("Failed to initialize tracer: %v", err)
	}
	defer tracerCloser.Close()

	// Initialize database and apply migrations
	if err := database.Migrate(ctx, cfg.Database.DSN()); err != nil {
		logger.Fatalf("Failed to migrate database: %v", err)
	}

	db, err := database.New(ctx, cfg.Database)
	if err != nil {
		logger.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	users := database.NewUserRepository(db)
	courses := database.NewCourseRepository(db)
	enrollments := database.NewEnrollmentRepository(db)

	// Initialize cache
	redisCache, err := cache.NewCache(cfg.Redis)
	if err != nil {
		logger.Fatalf("Failed to connect to Redis: %v", err)
	}
	defer redisCache.Close()

	// Initialize storage
	stor, err := storage.New(ctx, cfg.Storage, logger)
	if err != nil {
		logger.Fatalf("Failed to initialize storage: %v", err)
	}

	// Initialize queue
	q, err := queue.New(cfg.Queue, logger)
	if err != nil {
		logger.Fatalf("Failed to connect to queue: %v", err)
	}
	defer q.Close()

	tokens := token.NewManager(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL)

	authService := auth.NewService(users, tokens, redisCache, mailer.New(cfg.Mail, logger), auth.Config{
		OTPTTL:         cfg.Auth.OTPTTL,
		OTPMaxRequests: int64(cfg.Auth.OTPMaxRequests),
		OTPWindow:      cfg.Auth.OTPWindow,
	}, logger)

	courseService := course.NewService(courses, users, redisCache, stor,
		upload.NewValidator(cfg.Upload.MaxSizeBytes), cfg.Cache.CourseTTL, logger)

	enrollmentService := enrollment.NewService(enrollments, courses, logger)

	paymentService := payment.NewService(courses, enrollments,
		payment.NewStripeClient(cfg.Payment), cfg.Payment.Currency, logger)

	// Periodic maintenance
	sched := scheduler.New(logger)
	if err := sched.AddJob("purge_expired_otps", cfg.Scheduler.OTPPurgeSpec, scheduler.PurgeExpiredOTPsJob(users, logger)); err != nil {
		logger.Fatalf("Failed to schedule OTP purge: %v", err)
	}
	sched.Start()
	defer sched.Stop()

	// Rate limiting
	rateLimiter := middleware.NewRateLimiter(cfg.RateLimit.RPS, cfg.RateLimit.Burst)
	go rateLimiter.Cleanup(ctx, time.Minute, 10*time.Minute)

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

	api := &API{
		auth:        authService,
		courses:     courseService,
		enrollments: enrollmentService,
		payments:    paymentService,
		verifier:    webhook.NewVerifier(cfg.Payment.WebhookSecret, cfg.Payment.SignatureTolerance),
		publisher:   q,
		tokens:      tokens,
		rateLimiter: rateLimiter,
		maxUpload:   cfg.Upload.MaxSizeBytes,
		health: map[string]HealthCheck{
			"database": db.Health,
			"redis":    redisCache.Ping,
		},
		logger: logger,
	}

	router := setupRouter(api)

	// Create HTTP server
	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	// Start server in goroutine
	go func() {
		logger.Infof("Starting API server on %s", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatalf("Failed to start server: %v", err)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")

	// Cancel context for background workers
	cancel()

	// Graceful shutdown
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

package main

import (
	"context"
	"evently-booking/api/routes"
	"evently-booking/internal/bookings"
	"evently-booking/internal/eventbus"
	"evently-booking/internal/notifications"
	"evently-booking/internal/shared/config"
	"evently-booking/internal/shared/database"
	"evently-booking/internal/shared/middleware"
	"evently-booking/internal/waitlist"
	"evently-booking/pkg/locker"
	"evently-booking/pkg/logger"
	"evently-booking/pkg/ratelimit"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
)

var (
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

func main() {
	// Load environment variables before the logger reads LOG_LEVEL
	if err := godotenv.Load(); err != nil {
		if os.Getenv("GIN_MODE") == "release" || os.Getenv("DOCKER_CONTAINER") == "true" {
			fmt.Println("Production environment: using container environment variables")
		} else {
			fmt.Println("No .env file found, using system environment variables")
		}
	}

	appLogger := logger.New()
	logger.SetDefault(appLogger)

	// Load config
	cfg := config.Load()

	// Set Gin mode (debug/release)
	gin.SetMode(cfg.GinMode)

	// Initialize DB, run migrations
	db, err := database.InitDB(cfg)
	if err != nil {
		appLogger.Error("failed to initialize storage", slog.Any("error", err))
		os.Exit(1)
	}
	defer db.Close()

	// Advisory locks serialize capacity changes per event
	locks := locker.New(db.Redis, locker.Options{
		KeyPrefix:     cfg.Redis.KeyPrefix,
		WaitBudget:    cfg.Locks.WaitBudget,
		HoldTTL:       cfg.Locks.HoldTTL,
		RetryInterval: cfg.Locks.RetryInterval,
	})
	{
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		if err := locks.PreloadScripts(ctx); err != nil {
			// Scripts load lazily on first use, so keep going
			appLogger.Warn("failed to preload lock scripts", slog.Any("error", err))
		}
		cancel()
	}

	// Initialize Rate Limiter
	var rateLimiter *ratelimit.RateLimiter
	if cfg.RateLimit.Enabled {
		rateLimiter = ratelimit.NewRateLimiter(db.Redis, &ratelimit.Config{
			Enabled:         cfg.RateLimit.Enabled,
			WindowDuration:  cfg.RateLimit.WindowDuration,
			DefaultRequests: cfg.RateLimit.DefaultRequests,
			BookingRequests: cfg.RateLimit.BookingRequests,
			AdminRequests:   cfg.RateLimit.AdminRequests,
			WhitelistedIPs:  cfg.RateLimit.WhitelistedIPs,
		})
		appLogger.Info("rate limiter initialized",
			slog.Duration("window", cfg.RateLimit.WindowDuration),
			slog.Int("default_requests", cfg.RateLimit.DefaultRequests),
		)
	} else {
		appLogger.Info("rate limiting disabled")
	}

	// Cross-service announcements ride Redis pub/sub
	publisher := eventbus.NewPublisher(db.Redis, appLogger)

	// Email jobs ride Kafka when enabled; otherwise a noop producer
	// drops them so services never hold a nil enqueuer
	emailProducer := notifications.NewNoopProducer(appLogger)
	if cfg.Kafka.Enabled {
		p, err := notifications.NewProducer(&notifications.ProducerConfig{
			Brokers: cfg.Kafka.Brokers,
			Topic:   cfg.Kafka.EmailTopic,
		}, appLogger)
		if err != nil {
			appLogger.Error("failed to initialize email producer", slog.Any("error", err))
			appLogger.Info("continuing without email notifications")
		} else {
			emailProducer = p
			defer emailProducer.Close()
		}
	}

	// Setup router with rate limiter
	appRouter := routes.NewRouter(cfg, db, locks, publisher, emailProducer, appLogger)
	engine := setupEngine(cfg, rateLimiter, appLogger)
	appRouter.SetupRoutes(engine)

	runCtx, stopBackground := context.WithCancel(context.Background())

	// Catalog announcements from the events service keep the ledger current
	subscriber := eventbus.NewSubscriber(db.Redis, appRouter.AvailabilityService(), appLogger)
	if err := subscriber.Start(runCtx); err != nil {
		appLogger.Error("failed to start catalog subscriber", slog.Any("error", err))
		os.Exit(1)
	}
	defer subscriber.Stop()

	// Background sweepers: expired holds release seats, stale
	// notifications free waitlist slots
	bookingSweeper := bookings.NewSweeper(appRouter.BookingService(), cfg.Bookings.SweepInterval, appLogger)
	bookingSweeper.Start(runCtx)
	defer bookingSweeper.Stop()

	waitlistSweeper := waitlist.NewSweeper(appRouter.WaitlistService(), cfg.Waitlist.SweepInterval, appLogger)
	waitlistSweeper.Start(runCtx)
	defer waitlistSweeper.Stop()

	// Email worker pool drains the Kafka topic
	if cfg.Kafka.Enabled {
		var mailer notifications.Mailer
		if cfg.Email.SMTPHost != "" {
			mailer, err = notifications.NewSMTPMailer(&cfg.Email, appLogger)
			if err != nil {
				appLogger.Error("failed to initialize smtp mailer", slog.Any("error", err))
				mailer = notifications.NewNoopMailer(appLogger)
			}
		} else {
			mailer = notifications.NewNoopMailer(appLogger)
		}

		consumer, err := notifications.NewConsumer(&notifications.ConsumerConfig{
			Brokers:      cfg.Kafka.Brokers,
			GroupID:      cfg.Kafka.ConsumerGroup,
			Topic:        cfg.Kafka.EmailTopic,
			Workers:      cfg.Kafka.Workers,
			MaxRetries:   3,
			RetryBackoff: time.Second,
		}, mailer, appLogger)
		if err != nil {
			appLogger.Error("failed to initialize email consumer", slog.Any("error", err))
			appLogger.Info("continuing without email delivery")
		} else {
			consumer.Start(runCtx)
			defer func() {
				if err := consumer.Stop(); err != nil {
					appLogger.Error("error stopping email consumer", slog.Any("error", err))
				}
			}()
		}
	}

	// Deferred last so it runs first on shutdown; the Stop calls above
	// wait on loops that only exit once runCtx is cancelled.
	defer stopBackground()

	// HTTP server
	srv := &http.Server{
		Addr:           cfg.GetServerAddress(),
		Handler:        engine,
		ReadTimeout:    cfg.ReadTimeout,
		WriteTimeout:   cfg.WriteTimeout,
		IdleTimeout:    cfg.IdleTimeout,
		MaxHeaderBytes: cfg.MaxHeaderBytes,
	}

	// Start server in goroutine
	go func() {
		appLogger.Info("server running",
			slog.String("address", cfg.GetServerAddress()),
			slog.String("health_check", fmt.Sprintf("http://localhost:%s/health", cfg.Port)),
			slog.String("version", cfg.APIVersion),
			slog.Bool("kafka", cfg.Kafka.Enabled),
			slog.Bool("rate_limiting", cfg.RateLimit.Enabled),
		)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			appLogger.Error("server failed", slog.Any("error", err))
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	appLogger.Info("shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		appLogger.Error("forced shutdown", slog.Any("error", err))
	}

	appLogger.Info("server exited gracefully")
}

func setupEngine(cfg *config.Config, rateLimiter *ratelimit.RateLimiter, appLogger *logger.Logger) *gin.Engine {
	engine := gin.New()

	engine.Use(
		middleware.RequestID(),
		middleware.RequestLogger(appLogger),
		gin.Recovery(),
		middleware.Metrics(),
	)

	// CORS configuration
	corsConfig := cors.Config{
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "HEAD", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Length", "Content-Type", "Authorization", "X-Request-ID"},
		ExposeHeaders:    []string{"Content-Length", "X-Request-ID", "X-RateLimit-Limit", "X-RateLimit-Remaining", "X-RateLimit-Reset"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	if len(cfg.CORS.AllowedOrigins) == 0 || cfg.CORS.AllowedOrigins[0] == "*" {
		corsConfig.AllowOriginFunc = func(origin string) bool { return true }
	} else {
		corsConfig.AllowOrigins = cfg.CORS.AllowedOrigins
	}
	engine.Use(cors.New(corsConfig))

	// Global rate limiting middleware (applied to all routes)
	if rateLimiter != nil {
		engine.Use(ratelimit.Middleware(rateLimiter))
	}

	return engine
}

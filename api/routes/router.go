// api/routes/router.go
package routes

import (
	"net/http"
	"time"

	"evently-booking/internal/availability"
	"evently-booking/internal/bookings"
	"evently-booking/internal/eventbus"
	"evently-booking/internal/notifications"
	"evently-booking/internal/shared/config"
	"evently-booking/internal/shared/database"
	"evently-booking/internal/shared/utils/response"
	"evently-booking/internal/waitlist"
	"evently-booking/pkg/cache"
	"evently-booking/pkg/clock"
	"evently-booking/pkg/locker"
	"evently-booking/pkg/logger"
	"evently-booking/pkg/metrics"

	"github.com/gin-gonic/gin"
)

// Router holds all route dependencies
type Router struct {
	config    *config.Config
	db        *database.DB
	locks     *locker.Locker
	publisher eventbus.Publisher
	emails    notifications.Producer
	log       *logger.Logger
	started   time.Time

	// Wired during SetupRoutes; the ledger repository and waitlist
	// service are injected into the booking service.
	ledger              availability.Repository
	availabilityService availability.Service
	waitlistService     waitlist.Service
	bookingService      bookings.Service
}

// NewRouter creates a new router instance. The locker, publisher and
// email producer may be nil; the services skip the related side
// effects.
func NewRouter(cfg *config.Config, db *database.DB, locks *locker.Locker, publisher eventbus.Publisher, emails notifications.Producer, log *logger.Logger) *Router {
	if log == nil {
		log = logger.GetDefault()
	}
	return &Router{
		config:    cfg,
		db:        db,
		locks:     locks,
		publisher: publisher,
		emails:    emails,
		log:       log,
		started:   time.Now(),
	}
}

// SetupRoutes configures all application routes
func (r *Router) SetupRoutes(engine *gin.Engine) {
	// Health check and basic info endpoints
	r.setupHealthRoutes(engine)

	// API routes
	api := engine.Group(r.config.GetAPIBasePath())
	{
		// Availability routes first: bookings and waitlist read its ledger
		r.setupAvailabilityRoutes(api)

		// Waitlist routes (must be before booking routes for dependency injection)
		r.setupWaitlistRoutes(api)

		// Booking routes
		r.setupBookingRoutes(api)
	}

	engine.NoRoute(func(c *gin.Context) {
		response.Error(c, http.StatusNotFound, "route not found")
	})
	engine.HandleMethodNotAllowed = true
	engine.NoMethod(func(c *gin.Context) {
		response.Error(c, http.StatusMethodNotAllowed, "method not allowed")
	})
}

// AvailabilityService returns the wired availability service. Valid
// after SetupRoutes; the event bus subscriber applies catalog changes
// through it.
func (r *Router) AvailabilityService() availability.Service {
	return r.availabilityService
}

// BookingService returns the wired booking service. Valid after
// SetupRoutes; the hold expiry sweeper runs against it.
func (r *Router) BookingService() bookings.Service {
	return r.bookingService
}

// WaitlistService returns the wired waitlist service. Valid after
// SetupRoutes; the notification expiry sweeper runs against it.
func (r *Router) WaitlistService() waitlist.Service {
	return r.waitlistService
}

// setupHealthRoutes sets up health check and system status routes
func (r *Router) setupHealthRoutes(engine *gin.Engine) {
	// Liveness: the process is up and serving
	engine.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":    "healthy",
			"timestamp": time.Now().UTC(),
			"service":   "evently-booking",
		})
	})

	// Readiness: both stores answer
	engine.GET("/ready", func(c *gin.Context) {
		if err := r.db.HealthCheck(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"status":    "not ready",
				"error":     err.Error(),
				"timestamp": time.Now().UTC(),
			})
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"status":    "ready",
			"timestamp": time.Now().UTC(),
		})
	})

	engine.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"message": "pong",
			"version": r.config.APIVersion,
		})
	})

	engine.GET("/status", func(c *gin.Context) {
		components := gin.H{"postgres": "ok", "redis": "ok"}
		status := "operational"
		if err := r.db.HealthCheck(c.Request.Context()); err != nil {
			components["degraded"] = err.Error()
			status = "degraded"
		}

		c.JSON(http.StatusOK, gin.H{
			"status":      status,
			"api_version": r.config.APIVersion,
			"uptime":      time.Since(r.started).Round(time.Second).String(),
			"components":  components,
			"timestamp":   time.Now().UTC(),
		})
	})

	engine.GET("/metrics", gin.WrapH(metrics.Handler()))
}

// setupAvailabilityRoutes configures capacity ledger routes
func (r *Router) setupAvailabilityRoutes(rg *gin.RouterGroup) {
	repo := availability.NewRepository(r.db.PostgreSQL)

	var cacheSvc cache.Service
	if r.db.Redis != nil && r.config.Redis.CacheEnabled {
		cacheSvc = cache.NewService(r.db.Redis)
	}

	service := availability.NewService(repo, cacheSvc, r.publisher, &availability.ServiceConfig{
		CacheEnabled: r.config.Redis.CacheEnabled,
		CacheTTL:     r.config.Redis.AvailabilityTTL,
		KeyPrefix:    r.config.Redis.KeyPrefix,
	}, r.log)
	controller := availability.NewController(service)

	// Store ledger repository and service for dependency injection
	r.ledger = repo
	r.availabilityService = service

	availability.SetupAvailabilityRoutes(rg, controller, r.config)
}

// setupWaitlistRoutes configures waiting queue routes
func (r *Router) setupWaitlistRoutes(rg *gin.RouterGroup) {
	repo := waitlist.NewRepository(r.db.PostgreSQL)
	service := waitlist.NewService(
		r.db.PostgreSQL,
		repo,
		r.ledger,
		r.locks,
		r.publisher,
		r.emails,
		clock.New(),
		&waitlist.ServiceConfig{
			NotificationWindow: r.config.Waitlist.NotificationWindow,
		},
		r.log,
	)
	controller := waitlist.NewController(service)

	// Store waitlist service for dependency injection
	r.waitlistService = service

	waitlist.SetupWaitlistRoutes(rg, controller, r.config)
}

// setupBookingRoutes configures booking lifecycle routes
func (r *Router) setupBookingRoutes(rg *gin.RouterGroup) {
	repo := bookings.NewRepository(r.db.PostgreSQL)
	service := bookings.NewService(
		r.db.PostgreSQL,
		repo,
		r.ledger,
		r.locks,
		r.publisher,
		r.waitlistService,
		r.emails,
		clock.New(),
		&bookings.ServiceConfig{
			HoldDuration:    r.config.Bookings.HoldDuration,
			DefaultCurrency: r.config.Bookings.DefaultCurrency,
			MaxPageSize:     r.config.Bookings.MaxPageSize,
		},
		r.log,
	)
	controller := bookings.NewController(service)

	r.bookingService = service

	bookings.SetupBookingRoutes(rg, controller, r.config)
}

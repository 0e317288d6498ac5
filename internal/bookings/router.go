package bookings

import (
	"github.com/gin-gonic/gin"

	"evently-booking/internal/shared/config"
	"evently-booking/internal/shared/middleware"
)

// SetupBookingRoutes registers the user-facing and admin booking routes.
func SetupBookingRoutes(router *gin.RouterGroup, controller Controller, cfg *config.Config) {
	bookings := router.Group("/bookings")
	bookings.Use(middleware.JWTAuth(cfg))
	{
		bookings.POST("", controller.CreateBooking)
		bookings.GET("", controller.ListMyBookings)
		bookings.GET("/reference/:reference", controller.GetBookingByReference)
		bookings.GET("/:id", controller.GetBooking)
		bookings.PUT("/:id/confirm", controller.ConfirmBooking)
		bookings.PUT("/:id/cancel", controller.CancelBooking)
		bookings.GET("/:id/audit", controller.GetBookingAudit)
	}

	admin := router.Group("/admin/bookings")
	admin.Use(middleware.JWTAuth(cfg), middleware.RequireAdmin())
	{
		admin.GET("", controller.ListAllBookings)
		admin.GET("/stats", controller.GetBookingStats)
		admin.POST("/expire", controller.TriggerExpiry)
		admin.PUT("/:id/status", controller.UpdateBookingStatus)
		admin.DELETE("/:id", controller.DeleteBooking)
	}
}

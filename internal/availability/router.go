package availability

import (
	"evently-booking/internal/shared/config"
	"evently-booking/internal/shared/middleware"

	"github.com/gin-gonic/gin"
)

func SetupAvailabilityRoutes(router *gin.RouterGroup, controller Controller, cfg *config.Config) {
	// Counter reads are public; a bearer token enriches logs when present.
	public := router.Group("/availability/events")
	public.Use(middleware.OptionalAuth(cfg))
	{
		public.GET("/:eventId", controller.GetAvailability)
		public.GET("/:eventId/check", controller.CheckAvailability)
	}

	// Capacity management is the operator escape hatch next to the
	// catalog-driven sync.
	admin := router.Group("/availability")
	admin.Use(middleware.JWTAuth(cfg), middleware.RequireAdmin())
	{
		admin.POST("/events/:eventId/capacity", controller.InitializeCapacity)
		admin.PUT("/events/:eventId/capacity", controller.UpdateTotalCapacity)
		admin.GET("/admin/stats", controller.GetStats)
	}
}

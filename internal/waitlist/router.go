package waitlist

import (
	"github.com/gin-gonic/gin"

	"evently-booking/internal/shared/config"
	"evently-booking/internal/shared/middleware"
)

// SetupWaitlistRoutes registers the user-facing and admin waitlist routes.
func SetupWaitlistRoutes(router *gin.RouterGroup, controller Controller, cfg *config.Config) {
	wl := router.Group("/waitlist")
	wl.Use(middleware.JWTAuth(cfg))
	{
		wl.GET("/check/:eventId", controller.CheckEligibility)
		wl.POST("/join", controller.JoinWaitlist)
		wl.GET("", controller.ListMyEntries)
		wl.GET("/:id", controller.GetEntry)
		wl.PUT("/:id/cancel", controller.CancelEntry)
		wl.GET("/:id/position", controller.GetPosition)
		wl.GET("/:id/audit", controller.GetEntryAudit)
	}

	admin := router.Group("/waitlist/admin")
	admin.Use(middleware.JWTAuth(cfg), middleware.RequireAdmin())
	{
		admin.GET("/event/:eventId", controller.ListEventEntries)
		admin.POST("/notify/:eventId", controller.TriggerNotify)
	}
}

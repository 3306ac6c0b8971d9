package http

import (
	"github.com/gin-gonic/gin"

	"github.com/glowbook/beauty-booking-backend/internal/auth"
)

func RegisterRoutes(g *gin.RouterGroup, h *Handler, authMiddleware gin.HandlerFunc) {
	group := g.Group("/stylists/:id")

	// Catalog and schedule are public reads; clients browse them before
	// booking.
	group.GET("/schedule", h.GetSchedule)
	group.GET("/services", h.ListServices)

	protected := group.Group("")
	protected.Use(authMiddleware, auth.RequireRole(auth.RoleStylist))
	{
		protected.PUT("/schedule", h.PutSchedule)
		protected.GET("/blocks", h.ListBlocks)
		protected.POST("/blocks", h.CreateBlock)
		protected.DELETE("/blocks/:blockID", h.DeleteBlock)
		protected.POST("/services", h.CreateService)
	}
}

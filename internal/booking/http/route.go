package http

import (
	"github.com/gin-gonic/gin"

	"github.com/glowbook/beauty-booking-backend/internal/auth"
)

func RegisterRoutes(g *gin.RouterGroup, h *Handler, authMiddleware gin.HandlerFunc) {
	group := g.Group("/bookings")

	group.Use(authMiddleware)
	{
		group.GET("", h.List)
		group.GET("/:id", h.Get)
		group.POST("", auth.RequireRole(auth.RoleClient), h.Create)

		group.POST("/:id/capture", auth.RequireRole(auth.RoleClient), h.Capture)
		group.POST("/:id/accept", auth.RequireRole(auth.RoleStylist), h.Accept)
		group.POST("/:id/decline", auth.RequireRole(auth.RoleStylist), h.Decline)
		group.POST("/:id/confirm", auth.RequireRole(auth.RoleClient), h.Confirm)
		group.POST("/:id/cancel", h.Cancel)
		group.POST("/:id/complete", auth.RequireRole(auth.RoleStylist), h.Complete)
		group.POST("/:id/no-show", h.NoShow)

		group.DELETE("/:id/hold", auth.RequireRole(auth.RoleAdmin), h.ReleaseHold)
	}
}

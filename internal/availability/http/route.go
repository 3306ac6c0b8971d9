package http

import (
	"github.com/gin-gonic/gin"
)

// RegisterRoutes mounts the availability views. Both are public reads: a
// client browses a stylist's calendar before authenticating.
func RegisterRoutes(g *gin.RouterGroup, h *Handler) {
	group := g.Group("/stylists/:id/availability")

	group.GET("/month", h.Month)
	group.GET("/slots", h.Slots)
}

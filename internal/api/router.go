package api

import (
	"net/http"
	"strings"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/glowbook/beauty-booking-backend/internal/auth"
	"github.com/glowbook/beauty-booking-backend/internal/availability"
	availHttp "github.com/glowbook/beauty-booking-backend/internal/availability/http"
	"github.com/glowbook/beauty-booking-backend/internal/booking"
	bookingHttp "github.com/glowbook/beauty-booking-backend/internal/booking/http"
	"github.com/glowbook/beauty-booking-backend/internal/metrics"
	"github.com/glowbook/beauty-booking-backend/internal/reservation"
	"github.com/glowbook/beauty-booking-backend/internal/stylist"
	stylistHttp "github.com/glowbook/beauty-booking-backend/internal/stylist/http"
)

// Config holds everything the router needs to assemble the HTTP surface.
type Config struct {
	IsProduction bool
	ProdOrigins  string

	BookingService booking.Service
	Coordinator    reservation.Coordinator
	StylistService stylist.ScheduleService
	Availability   availability.Engine
	JWTManager     *auth.JWTManager
}

// NewRouter assembles middleware (CORS, logger, metrics) and mounts every
// module's routes under /v1.
func NewRouter(cfg Config) *gin.Engine {
	if cfg.IsProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Logger(), gin.Recovery(), metrics.Middleware())

	corsConfig := cors.DefaultConfig()
	if cfg.IsProduction && cfg.ProdOrigins != "" {
		corsConfig.AllowOrigins = strings.Split(cfg.ProdOrigins, ",")
	} else {
		corsConfig.AllowAllOrigins = true
	}
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Type", "Authorization"}
	r.Use(cors.New(corsConfig))

	authMiddleware := auth.AuthRequired(cfg.JWTManager)

	bookingHandler := bookingHttp.NewHandler(cfg.BookingService, cfg.Coordinator)
	stylistHandler := stylistHttp.NewHandler(cfg.StylistService)
	availHandler := availHttp.NewHandler(cfg.Availability)

	v1 := r.Group("/v1")
	{
		bookingHttp.RegisterRoutes(v1, bookingHandler, authMiddleware)
		stylistHttp.RegisterRoutes(v1, stylistHandler, authMiddleware)
		availHttp.RegisterRoutes(v1, availHandler)
	}

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", metrics.Handler())

	return r
}

package app

import (
	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/glowbook/beauty-booking-backend/internal/api"
	"github.com/glowbook/beauty-booking-backend/internal/auth"
	"github.com/glowbook/beauty-booking-backend/internal/availability"
	"github.com/glowbook/beauty-booking-backend/internal/booking"
	"github.com/glowbook/beauty-booking-backend/internal/clock"
	"github.com/glowbook/beauty-booking-backend/internal/config"
	"github.com/glowbook/beauty-booking-backend/internal/notify"
	"github.com/glowbook/beauty-booking-backend/internal/payment"
	"github.com/glowbook/beauty-booking-backend/internal/reservation"
	"github.com/glowbook/beauty-booking-backend/internal/slot"
	"github.com/glowbook/beauty-booking-backend/internal/stylist"
	"github.com/glowbook/beauty-booking-backend/internal/timeout"
)

// Container holds the initialized components the entrypoint runs.
type Container struct {
	Router    *gin.Engine
	Scheduler *timeout.Scheduler
}

// NewContainer wires every module together.
func NewContainer(cfg *config.Config, pool *pgxpool.Pool) *Container {
	clk := clock.NewSystem()
	jwtManager := auth.NewJWTManager(cfg.JWTSecret, cfg.JWTAccessTokenTTL)

	// External collaborators.
	paymentClient := payment.NewClient(cfg.PaymentGatewayURL, cfg.PaymentGatewayTimeout)
	notifier := notify.NewClient(cfg.NotifyDispatcherURL, cfg.NotifyDispatchTimeout)

	// Stylist module: catalog, working-hours template, blocks.
	stylistRepo := stylist.NewPgxRepository(pool)
	stylistService := stylist.NewService(stylistRepo)

	// Slot holds and the timeout-job store.
	holdStore := slot.NewPgxStore(pool)
	timeoutRepo := timeout.NewPgxRepository(pool)

	// Availability views over schedule + holds, cached per stylist.
	bookingRepo := booking.NewPgxRepository(pool)
	engine := availability.NewEngine(stylistService, holdStore, bookingRepo, nil, clk, cfg.SlotGranularity)
	cachedEngine := availability.NewCachedEngine(engine, clk, cfg.AvailabilityCacheTTL)

	// Booking lifecycle.
	bookingService := booking.NewService(
		pool,
		bookingRepo,
		holdStore,
		timeoutRepo,
		paymentClient,
		notifier,
		cachedEngine,
		clk,
		booking.Windows{
			StylistRespond: cfg.StylistRespondWindow,
			ClientConfirm:  cfg.ClientConfirmWindow,
			NoShowGrace:    cfg.NoShowGrace,
			FreeCancel:     cfg.FreeCancelWindow,
		},
	)

	coordinator := reservation.NewCoordinator(
		pool,
		bookingRepo,
		bookingService,
		holdStore,
		stylistService,
		timeoutRepo,
		paymentClient,
		cachedEngine,
		clk,
		cfg.PaymentWindow,
	)

	scheduler := timeout.NewScheduler(timeoutRepo, bookingService, clk, cfg.TimeoutSchedulerPoll, cfg.TimeoutSchedulerBatch)

	router := api.NewRouter(api.Config{
		IsProduction:   cfg.IsProduction,
		ProdOrigins:    cfg.ProdOrigins,
		BookingService: bookingService,
		Coordinator:    coordinator,
		StylistService: stylistService,
		Availability:   cachedEngine,
		JWTManager:     jwtManager,
	})

	return &Container{
		Router:    router,
		Scheduler: scheduler,
	}
}

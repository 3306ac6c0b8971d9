package http

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/glowbook/beauty-booking-backend/internal/auth"
	"github.com/glowbook/beauty-booking-backend/internal/booking"
	"github.com/glowbook/beauty-booking-backend/internal/pkg/response"
	"github.com/glowbook/beauty-booking-backend/internal/reservation"
)

type Handler struct {
	lifecycle   booking.Service
	coordinator reservation.Coordinator
}

func NewHandler(lifecycle booking.Service, coordinator reservation.Coordinator) *Handler {
	return &Handler{
		lifecycle:   lifecycle,
		coordinator: coordinator,
	}
}

// actorFor maps the caller's role onto a state-machine actor. Admins act as
// the system and pass every actor gate.
func actorFor(c *gin.Context) booking.Actor {
	switch auth.GetRole(c) {
	case auth.RoleStylist:
		return booking.ActorStylist
	case auth.RoleAdmin:
		return booking.ActorSystem
	default:
		return booking.ActorClient
	}
}

func (h *Handler) Create(c *gin.Context) {
	var body CreateBookingRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body", "details": err.Error()})
		return
	}

	b, err := h.coordinator.Reserve(c.Request.Context(), reservation.ReserveRequest{
		ClientID:  auth.GetUserID(c),
		StylistID: body.StylistID,
		ServiceID: body.ServiceID,
		Start:     body.StartTime,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	c.JSON(http.StatusCreated, NewBookingResponse(b))
}

func (h *Handler) Capture(c *gin.Context) {
	id := c.Param("id")
	if _, err := uuid.Parse(id); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid UUID"})
		return
	}

	b, err := h.coordinator.CapturePayment(c.Request.Context(), auth.GetUserID(c), id)
	if err != nil {
		h.lifecycleError(c, id, err)
		return
	}

	c.JSON(http.StatusOK, NewBookingResponse(b))
}

func (h *Handler) Accept(c *gin.Context)   { h.apply(c, booking.ActionAccept) }
func (h *Handler) Decline(c *gin.Context)  { h.apply(c, booking.ActionDecline) }
func (h *Handler) Confirm(c *gin.Context)  { h.apply(c, booking.ActionConfirm) }
func (h *Handler) Cancel(c *gin.Context)   { h.apply(c, booking.ActionCancel) }
func (h *Handler) Complete(c *gin.Context) { h.apply(c, booking.ActionComplete) }

// NoShow reports the absent party. A stylist reports the client, a client
// reports the stylist; an admin names the party in the body.
func (h *Handler) NoShow(c *gin.Context) {
	// Body is optional; an unparsable one is treated as empty.
	var body NoShowRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		body = NoShowRequest{}
	}

	actor := actorFor(c)
	var action booking.Action
	switch {
	case actor == booking.ActorStylist:
		action = booking.ActionClientNoShow
	case actor == booking.ActorClient:
		action = booking.ActionStylistNoShow
	case body.Party == "client":
		action = booking.ActionClientNoShow
	case body.Party == "stylist":
		action = booking.ActionStylistNoShow
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": "party must be client or stylist"})
		return
	}

	h.apply(c, action)
}

func (h *Handler) apply(c *gin.Context, action booking.Action) {
	id := c.Param("id")
	if _, err := uuid.Parse(id); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid UUID"})
		return
	}

	b, err := h.lifecycle.Apply(c.Request.Context(), booking.ApplyRequest{
		BookingID: id,
		Action:    action,
		Actor:     actorFor(c),
		CallerID:  auth.GetUserID(c),
	})
	if err != nil {
		h.lifecycleError(c, id, err)
		return
	}

	c.JSON(http.StatusOK, NewBookingResponse(b))
}

// lifecycleError annotates conflict responses with the booking's current
// status so callers can re-render without another round trip. The re-fetch
// runs as the caller, so only participants and admins see the status.
func (h *Handler) lifecycleError(c *gin.Context, id string, err error) {
	if errors.Is(err, booking.ErrInvalidTransition) ||
		errors.Is(err, booking.ErrDeadlinePassed) ||
		errors.Is(err, booking.ErrStaleState) {
		if cur, getErr := h.lifecycle.Get(c.Request.Context(), auth.GetUserID(c), actorFor(c), id); getErr == nil {
			response.ErrorWithState(c, err, string(cur.Status))
			return
		}
	}
	response.Error(c, err)
}

// ReleaseHold drops a booking's slot hold without touching its status. Admin
// escape hatch for holds orphaned by manual intervention.
func (h *Handler) ReleaseHold(c *gin.Context) {
	id := c.Param("id")
	if _, err := uuid.Parse(id); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid UUID"})
		return
	}

	if err := h.coordinator.Release(c.Request.Context(), id); err != nil {
		response.Error(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

func (h *Handler) Get(c *gin.Context) {
	id := c.Param("id")
	if _, err := uuid.Parse(id); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid UUID"})
		return
	}

	b, err := h.lifecycle.Get(c.Request.Context(), auth.GetUserID(c), actorFor(c), id)
	if err != nil {
		response.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, NewBookingResponse(b))
}

func (h *Handler) List(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))

	filter := booking.Filter{
		Status:   c.Query("status"),
		Page:     page,
		PageSize: pageSize,
	}
	if v := c.Query("from"); v != "" {
		if t, err := time.Parse(time.RFC3339, v); err == nil {
			filter.From = &t
		}
	}
	if v := c.Query("to"); v != "" {
		if t, err := time.Parse(time.RFC3339, v); err == nil {
			filter.To = &t
		}
	}

	actor := actorFor(c)
	if actor == booking.ActorSystem {
		// Admins may scope to either side of the marketplace.
		filter.ClientID = c.Query("client_id")
		filter.StylistID = c.Query("stylist_id")
	}

	bookings, total, err := h.lifecycle.List(c.Request.Context(), auth.GetUserID(c), actor, filter)
	if err != nil {
		response.Error(c, err)
		return
	}

	items := make([]BookingResponse, len(bookings))
	for i, b := range bookings {
		items[i] = NewBookingResponse(b)
	}
	c.JSON(http.StatusOK, response.NewPageResponse(items, page, pageSize, total))
}

package http

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/glowbook/beauty-booking-backend/internal/auth"
	"github.com/glowbook/beauty-booking-backend/internal/pkg/response"
	"github.com/glowbook/beauty-booking-backend/internal/stylist"
)

type Handler struct {
	service stylist.ScheduleService
}

func NewHandler(service stylist.ScheduleService) *Handler {
	return &Handler{service: service}
}

// callerFor resolves the identity stylist-scoped writes are checked against.
// Admins act on behalf of the stylist in the path.
func callerFor(c *gin.Context, stylistID string) string {
	if auth.GetRole(c) == auth.RoleAdmin {
		return stylistID
	}
	return auth.GetUserID(c)
}

func stylistID(c *gin.Context) (string, bool) {
	id := c.Param("id")
	if _, err := uuid.Parse(id); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid UUID"})
		return "", false
	}
	return id, true
}

func (h *Handler) GetSchedule(c *gin.Context) {
	id, ok := stylistID(c)
	if !ok {
		return
	}

	schedule, err := h.service.GetSchedule(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, NewScheduleResponse(schedule))
}

func (h *Handler) PutSchedule(c *gin.Context) {
	id, ok := stylistID(c)
	if !ok {
		return
	}

	var body PutScheduleRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body", "details": err.Error()})
		return
	}
	schedule, ok := body.ToSchedule()
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "days must cover each weekday exactly once"})
		return
	}

	if err := h.service.PutSchedule(c.Request.Context(), callerFor(c, id), id, schedule); err != nil {
		response.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, NewScheduleResponse(schedule))
}

func (h *Handler) ListBlocks(c *gin.Context) {
	id, ok := stylistID(c)
	if !ok {
		return
	}

	from := time.Now().UTC()
	to := from.AddDate(0, 3, 0)
	if v := c.Query("from"); v != "" {
		if t, err := time.Parse(time.RFC3339, v); err == nil {
			from = t
		}
	}
	if v := c.Query("to"); v != "" {
		if t, err := time.Parse(time.RFC3339, v); err == nil {
			to = t
		}
	}

	blocks, err := h.service.ListBlocks(c.Request.Context(), id, from, to)
	if err != nil {
		response.Error(c, err)
		return
	}

	items := make([]BlockResponse, len(blocks))
	for i, b := range blocks {
		items[i] = NewBlockResponse(b)
	}
	c.JSON(http.StatusOK, gin.H{"items": items})
}

func (h *Handler) CreateBlock(c *gin.Context) {
	id, ok := stylistID(c)
	if !ok {
		return
	}

	var body CreateBlockRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body", "details": err.Error()})
		return
	}

	block, err := h.service.CreateBlock(c.Request.Context(), callerFor(c, id), stylist.CreateBlockRequest{
		StylistID: id,
		Start:     body.Start,
		End:       body.End,
		Reason:    body.Reason,
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	c.JSON(http.StatusCreated, NewBlockResponse(block))
}

func (h *Handler) DeleteBlock(c *gin.Context) {
	id, ok := stylistID(c)
	if !ok {
		return
	}
	blockID := c.Param("blockID")
	if _, err := uuid.Parse(blockID); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid UUID"})
		return
	}

	if err := h.service.DeleteBlock(c.Request.Context(), callerFor(c, id), id, blockID); err != nil {
		response.Error(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) ListServices(c *gin.Context) {
	id, ok := stylistID(c)
	if !ok {
		return
	}

	services, err := h.service.ListServices(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}

	items := make([]ServiceResponse, len(services))
	for i, s := range services {
		items[i] = NewServiceResponse(s)
	}
	c.JSON(http.StatusOK, gin.H{"items": items})
}

func (h *Handler) CreateService(c *gin.Context) {
	id, ok := stylistID(c)
	if !ok {
		return
	}

	var body CreateServiceRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body", "details": err.Error()})
		return
	}

	svc, err := h.service.CreateService(c.Request.Context(), callerFor(c, id), stylist.CreateServiceRequest{
		StylistID:       id,
		Name:            body.Name,
		DurationMinutes: body.DurationMinutes,
		PriceCents:      body.PriceCents,
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	c.JSON(http.StatusCreated, NewServiceResponse(svc))
}

package http

import (
	"errors"
	"net/http"
	"sort"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/glowbook/beauty-booking-backend/internal/availability"
	"github.com/glowbook/beauty-booking-backend/internal/pkg/response"
)

type Handler struct {
	engine availability.Engine
}

func NewHandler(engine availability.Engine) *Handler {
	return &Handler{engine: engine}
}

// Month returns a per-day heatmap for a calendar month, or an explicit
// from/to range.
//
//	GET /v1/stylists/:id/availability/month?service_id=...&month=2026-09
func (h *Handler) Month(c *gin.Context) {
	stylistID := c.Param("id")
	if _, err := uuid.Parse(stylistID); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid UUID"})
		return
	}
	serviceID := c.Query("service_id")
	if _, err := uuid.Parse(serviceID); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "service_id must be a UUID"})
		return
	}

	from, to, err := monthRange(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	month, err := h.engine.MonthAvailability(c.Request.Context(), stylistID, serviceID, from, to)
	if err != nil {
		response.Error(c, err)
		return
	}

	days := make([]DaySummaryDTO, 0, len(month))
	for date, summary := range month {
		days = append(days, DaySummaryDTO{
			Date:           date,
			AvailableSlots: summary.AvailableSlots,
			AvgPriceCents:  summary.AvgPriceCents,
		})
	}
	sort.Slice(days, func(i, j int) bool { return days[i].Date < days[j].Date })

	c.JSON(http.StatusOK, gin.H{"days": days})
}

// Slots returns the bookable buckets for one day.
//
//	GET /v1/stylists/:id/availability/slots?service_id=...&date=2026-09-14
func (h *Handler) Slots(c *gin.Context) {
	stylistID := c.Param("id")
	if _, err := uuid.Parse(stylistID); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid UUID"})
		return
	}
	serviceID := c.Query("service_id")
	if _, err := uuid.Parse(serviceID); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "service_id must be a UUID"})
		return
	}
	date, err := time.Parse("2006-01-02", c.Query("date"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "date must be YYYY-MM-DD"})
		return
	}

	var granularity time.Duration
	if v := c.Query("granularity"); v != "" {
		granularity, err = time.ParseDuration(v)
		if err != nil || granularity <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "granularity must be a positive duration"})
			return
		}
	}

	slots, err := h.engine.DaySlots(c.Request.Context(), stylistID, serviceID, date, granularity)
	if err != nil {
		response.Error(c, err)
		return
	}

	items := make([]TimeSlotDTO, len(slots))
	for i, s := range slots {
		items[i] = NewTimeSlotDTO(s)
	}
	c.JSON(http.StatusOK, gin.H{"date": date.Format("2006-01-02"), "slots": items})
}

// monthRange resolves either month=YYYY-MM or an explicit from/to date pair.
func monthRange(c *gin.Context) (time.Time, time.Time, error) {
	if m := c.Query("month"); m != "" {
		first, err := time.Parse("2006-01", m)
		if err != nil {
			return time.Time{}, time.Time{}, errInvalidMonth
		}
		return first, first.AddDate(0, 1, -1), nil
	}

	from, err := time.Parse("2006-01-02", c.Query("from"))
	if err != nil {
		return time.Time{}, time.Time{}, errInvalidMonth
	}
	to, err := time.Parse("2006-01-02", c.Query("to"))
	if err != nil {
		return time.Time{}, time.Time{}, errInvalidMonth
	}
	return from, to, nil
}

var errInvalidMonth = errors.New("pass month=YYYY-MM or from=YYYY-MM-DD&to=YYYY-MM-DD")

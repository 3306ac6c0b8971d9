package http

import (
	"time"

	"github.com/glowbook/beauty-booking-backend/internal/booking"
)

type CreateBookingRequest struct {
	StylistID string    `json:"stylist_id" binding:"required,uuid"`
	ServiceID string    `json:"service_id" binding:"required,uuid"`
	StartTime time.Time `json:"start_time" binding:"required"`
}

// NoShowRequest lets an admin name the absent party. Client and stylist
// callers report the other side implicitly and may send an empty body.
type NoShowRequest struct {
	Party string `json:"party" binding:"omitempty,oneof=client stylist"`
}

type BookingResponse struct {
	ID         string    `json:"id"`
	ClientID   string    `json:"client_id"`
	StylistID  string    `json:"stylist_id"`
	ServiceID  string    `json:"service_id"`
	StartTime  time.Time `json:"start_time"`
	EndTime    time.Time `json:"end_time"`
	PriceCents int64     `json:"price_cents"`
	Status     string    `json:"status"`

	ResponseDeadline *time.Time `json:"response_deadline,omitempty"`
	ConfirmDeadline  *time.Time `json:"confirm_deadline,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func NewBookingResponse(b *booking.Booking) BookingResponse {
	return BookingResponse{
		ID:               b.ID,
		ClientID:         b.ClientID,
		StylistID:        b.StylistID,
		ServiceID:        b.ServiceID,
		StartTime:        b.StartTime,
		EndTime:          b.EndTime,
		PriceCents:       b.PriceCents,
		Status:           string(b.Status),
		ResponseDeadline: b.ResponseDeadline,
		ConfirmDeadline:  b.ConfirmDeadline,
		CreatedAt:        b.CreatedAt,
		UpdatedAt:        b.UpdatedAt,
	}
}

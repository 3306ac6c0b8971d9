package http

import (
	"time"

	"github.com/glowbook/beauty-booking-backend/internal/availability"
)

type DaySummaryDTO struct {
	Date           string `json:"date"`
	AvailableSlots int    `json:"available_slots"`
	AvgPriceCents  int64  `json:"avg_price_cents"`
}

type TimeSlotDTO struct {
	Start       time.Time `json:"start"`
	End         time.Time `json:"end"`
	Available   bool      `json:"available"`
	PriceCents  int64     `json:"price_cents"`
	Popular     bool      `json:"popular,omitempty"`
	Recommended bool      `json:"recommended,omitempty"`
}

func NewTimeSlotDTO(s availability.TimeSlot) TimeSlotDTO {
	return TimeSlotDTO{
		Start:       s.Start,
		End:         s.End,
		Available:   s.Available,
		PriceCents:  s.PriceCents,
		Popular:     s.Popular,
		Recommended: s.Recommended,
	}
}

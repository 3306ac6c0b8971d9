package http

import (
	"time"

	"github.com/glowbook/beauty-booking-backend/internal/stylist"
)

type DayScheduleDTO struct {
	Weekday int    `json:"weekday" binding:"min=0,max=6"`
	IsOpen  bool   `json:"is_open"`
	Open    string `json:"open" binding:"omitempty,len=5"`
	Close   string `json:"close" binding:"omitempty,len=5"`
}

type PutScheduleRequest struct {
	Days []DayScheduleDTO `json:"days" binding:"required,len=7,dive"`
}

func (r *PutScheduleRequest) ToSchedule() (stylist.WeeklySchedule, bool) {
	var schedule stylist.WeeklySchedule
	seen := [7]bool{}
	for _, d := range r.Days {
		if d.Weekday < 0 || d.Weekday > 6 || seen[d.Weekday] {
			return schedule, false
		}
		seen[d.Weekday] = true
		schedule[d.Weekday] = stylist.DaySchedule{
			Weekday: time.Weekday(d.Weekday),
			IsOpen:  d.IsOpen,
			Open:    d.Open,
			Close:   d.Close,
		}
	}
	return schedule, true
}

func NewScheduleResponse(s stylist.WeeklySchedule) PutScheduleRequest {
	days := make([]DayScheduleDTO, len(s))
	for i, d := range s {
		days[i] = DayScheduleDTO{
			Weekday: int(d.Weekday),
			IsOpen:  d.IsOpen,
			Open:    d.Open,
			Close:   d.Close,
		}
	}
	return PutScheduleRequest{Days: days}
}

type CreateBlockRequest struct {
	Start  time.Time `json:"start" binding:"required"`
	End    time.Time `json:"end" binding:"required"`
	Reason string    `json:"reason" binding:"max=255"`
}

type BlockResponse struct {
	ID        string    `json:"id"`
	StylistID string    `json:"stylist_id"`
	Start     time.Time `json:"start"`
	End       time.Time `json:"end"`
	Reason    string    `json:"reason,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

func NewBlockResponse(b *stylist.Block) BlockResponse {
	return BlockResponse{
		ID:        b.ID,
		StylistID: b.StylistID,
		Start:     b.Start,
		End:       b.End,
		Reason:    b.Reason,
		CreatedAt: b.CreatedAt,
	}
}

type CreateServiceRequest struct {
	Name            string `json:"name" binding:"required,max=128"`
	DurationMinutes int    `json:"duration_minutes" binding:"required,min=1"`
	PriceCents      int64  `json:"price_cents" binding:"min=0"`
}

type ServiceResponse struct {
	ID              string `json:"id"`
	StylistID       string `json:"stylist_id"`
	Name            string `json:"name"`
	DurationMinutes int    `json:"duration_minutes"`
	PriceCents      int64  `json:"price_cents"`
	Active          bool   `json:"active"`
}

func NewServiceResponse(s *stylist.Service) ServiceResponse {
	return ServiceResponse{
		ID:              s.ID,
		StylistID:       s.StylistID,
		Name:            s.Name,
		DurationMinutes: s.DurationMinutes,
		PriceCents:      s.PriceCents,
		Active:          s.Active,
	}
}

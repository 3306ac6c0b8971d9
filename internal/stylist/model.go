package stylist

import (
	"fmt"
	"net/http"
	"time"

	"github.com/glowbook/beauty-booking-backend/internal/pkg/apperror"
)

var (
	ErrServiceNotFound  = apperror.New(http.StatusNotFound, "service not found")
	ErrBlockNotFound    = apperror.New(http.StatusNotFound, "block not found")
	ErrInvalidSchedule  = apperror.New(http.StatusBadRequest, "invalid working-hours template")
	ErrInvalidBlock     = apperror.New(http.StatusBadRequest, "block end must be after start")
	ErrDuplicateService = apperror.New(http.StatusConflict, "service with this name already exists")
	ErrInvalidService   = apperror.New(http.StatusBadRequest, "service needs a name, a positive duration and a non-negative price")
	ErrNotOwner         = apperror.New(http.StatusForbidden, "stylists may only manage their own schedule")
)

// DaySchedule is one weekday of a stylist's recurring working-hours template.
// Open and Close are clock times in "HH:MM" 24-hour form.
type DaySchedule struct {
	Weekday time.Weekday
	IsOpen  bool
	Open    string
	Close   string
}

// WeeklySchedule holds one DaySchedule per weekday, indexed by time.Weekday.
type WeeklySchedule [7]DaySchedule

// Window resolves the day's open/close clock times onto the given date.
// ok is false when the stylist is closed that weekday.
func (s WeeklySchedule) Window(date time.Time) (start, end time.Time, ok bool) {
	day := s[int(date.Weekday())]
	if !day.IsOpen {
		return time.Time{}, time.Time{}, false
	}
	start, err := atClock(date, day.Open)
	if err != nil {
		return time.Time{}, time.Time{}, false
	}
	end, err = atClock(date, day.Close)
	if err != nil || !start.Before(end) {
		return time.Time{}, time.Time{}, false
	}
	return start, end, true
}

// Validate checks every open day parses and closes after it opens.
func (s WeeklySchedule) Validate() error {
	ref := time.Date(2000, 1, 2, 0, 0, 0, 0, time.UTC)
	for _, day := range s {
		if !day.IsOpen {
			continue
		}
		open, err := atClock(ref, day.Open)
		if err != nil {
			return apperror.Wrap(err, http.StatusBadRequest, "invalid working-hours template")
		}
		close, err := atClock(ref, day.Close)
		if err != nil {
			return apperror.Wrap(err, http.StatusBadRequest, "invalid working-hours template")
		}
		if !open.Before(close) {
			return ErrInvalidSchedule
		}
	}
	return nil
}

func atClock(date time.Time, clock string) (time.Time, error) {
	t, err := time.Parse("15:04", clock)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse clock time %q: %w", clock, err)
	}
	return time.Date(date.Year(), date.Month(), date.Day(), t.Hour(), t.Minute(), 0, 0, date.Location()), nil
}

// Block is an ad-hoc unavailability window on top of the weekly template
// (vacation, walk-in, equipment downtime).
type Block struct {
	ID        string
	StylistID string
	Start     time.Time
	End       time.Time
	Reason    string
	CreatedAt time.Time
}

// Service is one offering from a stylist's catalog.
type Service struct {
	ID              string
	StylistID       string
	Name            string
	DurationMinutes int
	PriceCents      int64
	Active          bool
	CreatedAt       time.Time
}

func (s *Service) Duration() time.Duration {
	return time.Duration(s.DurationMinutes) * time.Minute
}

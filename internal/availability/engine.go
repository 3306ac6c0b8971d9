package availability

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/glowbook/beauty-booking-backend/internal/clock"
	"github.com/glowbook/beauty-booking-backend/internal/pkg/apperror"
	"github.com/glowbook/beauty-booking-backend/internal/slot"
	"github.com/glowbook/beauty-booking-backend/internal/stylist"
)

var (
	ErrRangeTooWide = apperror.New(http.StatusBadRequest, "date range must not exceed 62 days")
	ErrInvalidRange = apperror.New(http.StatusBadRequest, "end date must not be before start date")
)

const maxRangeDays = 62

// TimeSlot is one display bucket within a stylist's working hours.
type TimeSlot struct {
	Start       time.Time
	End         time.Time
	Available   bool
	PriceCents  int64
	Popular     bool
	Recommended bool
}

// DaySummary is one heatmap cell of the month view.
type DaySummary struct {
	AvailableSlots int
	AvgPriceCents  int64
}

// HistogramSource feeds the popularity scorer. Implemented by the booking
// repository.
type HistogramSource interface {
	CountCompletedByHour(ctx context.Context, stylistID string) ([24]int, error)
}

// Engine derives availability views on demand from the slot store, the
// working-hours template and ad-hoc blocks. Views are display-only: a
// reservation is only ever authorized by the hold constraint.
type Engine interface {
	MonthAvailability(ctx context.Context, stylistID, serviceID string, from, to time.Time) (map[string]DaySummary, error)
	DaySlots(ctx context.Context, stylistID, serviceID string, date time.Time, granularity time.Duration) ([]TimeSlot, error)
}

type engine struct {
	stylists    stylist.ScheduleService
	holds       slot.Store
	history     HistogramSource
	scorer      Scorer
	clock       clock.Clock
	granularity time.Duration
}

func NewEngine(
	stylists stylist.ScheduleService,
	holds slot.Store,
	history HistogramSource,
	scorer Scorer,
	clk clock.Clock,
	granularity time.Duration,
) Engine {
	if granularity <= 0 {
		granularity = 15 * time.Minute
	}
	if scorer == nil {
		scorer = NewDensityScorer()
	}
	return &engine{
		stylists:    stylists,
		holds:       holds,
		history:     history,
		scorer:      scorer,
		clock:       clk,
		granularity: granularity,
	}
}

func (e *engine) MonthAvailability(ctx context.Context, stylistID, serviceID string, from, to time.Time) (map[string]DaySummary, error) {
	from = truncateToDay(from)
	to = truncateToDay(to)
	if to.Before(from) {
		return nil, ErrInvalidRange
	}
	if int(to.Sub(from).Hours()/24) >= maxRangeDays {
		return nil, ErrRangeTooWide
	}

	svc, err := e.lookupService(ctx, stylistID, serviceID)
	if err != nil {
		return nil, err
	}

	out := make(map[string]DaySummary)
	for date := from; !date.After(to); date = date.AddDate(0, 0, 1) {
		slots, err := e.daySlots(ctx, stylistID, svc, date, e.granularity)
		if err != nil {
			return nil, err
		}
		summary := DaySummary{}
		for _, s := range slots {
			if s.Available {
				summary.AvailableSlots++
				summary.AvgPriceCents += s.PriceCents
			}
		}
		if summary.AvailableSlots > 0 {
			summary.AvgPriceCents /= int64(summary.AvailableSlots)
		}
		out[date.Format("2006-01-02")] = summary
	}
	return out, nil
}

func (e *engine) DaySlots(ctx context.Context, stylistID, serviceID string, date time.Time, granularity time.Duration) ([]TimeSlot, error) {
	if granularity <= 0 {
		granularity = e.granularity
	}

	svc, err := e.lookupService(ctx, stylistID, serviceID)
	if err != nil {
		return nil, err
	}

	slots, err := e.daySlots(ctx, stylistID, svc, truncateToDay(date), granularity)
	if err != nil {
		return nil, err
	}

	if e.history != nil && len(slots) > 0 {
		histogram, err := e.history.CountCompletedByHour(ctx, stylistID)
		if err != nil {
			// Annotation input only; a failure must not break availability.
			histogram = [24]int{}
		}
		e.scorer.Score(slots, histogram)
	}
	return slots, nil
}

func (e *engine) lookupService(ctx context.Context, stylistID, serviceID string) (*stylist.Service, error) {
	svc, err := e.stylists.GetService(ctx, serviceID)
	if err != nil {
		return nil, err
	}
	if svc.StylistID != stylistID {
		return nil, stylist.ErrServiceNotFound
	}
	return svc, nil
}

// daySlots generates service-duration windows at the given granularity across
// the stylist's working hours and flags each one against holds and blocks.
func (e *engine) daySlots(ctx context.Context, stylistID string, svc *stylist.Service, date time.Time, granularity time.Duration) ([]TimeSlot, error) {
	schedule, err := e.stylists.GetSchedule(ctx, stylistID)
	if err != nil {
		return nil, err
	}
	open, close, ok := schedule.Window(date)
	if !ok {
		return []TimeSlot{}, nil
	}

	dayEnd := date.AddDate(0, 0, 1)
	holds, err := e.holds.ListForStylist(ctx, stylistID, date, dayEnd)
	if err != nil {
		return nil, fmt.Errorf("list holds for availability: %w", err)
	}
	blocks, err := e.stylists.ListBlocks(ctx, stylistID, date, dayEnd)
	if err != nil {
		return nil, fmt.Errorf("list blocks for availability: %w", err)
	}

	now := e.clock.Now()
	duration := svc.Duration()

	var slots []TimeSlot
	for start := open; ; start = start.Add(granularity) {
		end := start.Add(duration)
		if end.After(close) {
			break
		}

		ts := TimeSlot{
			Start:      start,
			End:        end,
			Available:  !start.Before(now),
			PriceCents: svc.PriceCents,
		}
		if ts.Available {
			ts.Available = !overlapsHold(holds, start, end) && !overlapsBlock(blocks, start, end)
		}
		slots = append(slots, ts)
	}
	if slots == nil {
		slots = []TimeSlot{}
	}
	return slots, nil
}

// overlapsHold treats boundary-touching ranges as non-overlapping, matching
// the store's half-open hold ranges.
func overlapsHold(holds []*slot.Hold, start, end time.Time) bool {
	for _, h := range holds {
		if h.Overlaps(start, end) {
			return true
		}
	}
	return false
}

func overlapsBlock(blocks []*stylist.Block, start, end time.Time) bool {
	for _, b := range blocks {
		if b.Start.Before(end) && b.End.After(start) {
			return true
		}
	}
	return false
}

func truncateToDay(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

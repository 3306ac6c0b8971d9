package availability

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/glowbook/beauty-booking-backend/internal/clock"
	"github.com/glowbook/beauty-booking-backend/internal/slot"
	"github.com/glowbook/beauty-booking-backend/internal/stylist"
)

// Monday 2026-09-14; the fixture clock sits the evening before so no slot is
// filtered as past unless a test advances it.
var (
	testDay   = time.Date(2026, 9, 14, 0, 0, 0, 0, time.UTC)
	testClock = time.Date(2026, 9, 13, 20, 0, 0, 0, time.UTC)
)

type fakeStylists struct {
	schedule stylist.WeeklySchedule
	services map[string]*stylist.Service
	blocks   []*stylist.Block
}

func newFakeStylists() *fakeStylists {
	var schedule stylist.WeeklySchedule
	for i := range schedule {
		schedule[i] = stylist.DaySchedule{Weekday: time.Weekday(i), IsOpen: true, Open: "09:00", Close: "12:00"}
	}
	return &fakeStylists{
		schedule: schedule,
		services: map[string]*stylist.Service{
			"svc-1": {ID: "svc-1", StylistID: "stylist-1", Name: "Cut", DurationMinutes: 60, PriceCents: 5000, Active: true},
		},
	}
}

func (f *fakeStylists) GetSchedule(context.Context, string) (stylist.WeeklySchedule, error) {
	return f.schedule, nil
}

func (f *fakeStylists) PutSchedule(context.Context, string, string, stylist.WeeklySchedule) error {
	return nil
}

func (f *fakeStylists) ListBlocks(_ context.Context, _ string, from, to time.Time) ([]*stylist.Block, error) {
	var out []*stylist.Block
	for _, b := range f.blocks {
		if b.Start.Before(to) && b.End.After(from) {
			out = append(out, b)
		}
	}
	return out, nil
}

func (f *fakeStylists) CreateBlock(context.Context, string, stylist.CreateBlockRequest) (*stylist.Block, error) {
	return nil, nil
}

func (f *fakeStylists) DeleteBlock(context.Context, string, string, string) error { return nil }

func (f *fakeStylists) GetService(_ context.Context, serviceID string) (*stylist.Service, error) {
	svc, ok := f.services[serviceID]
	if !ok {
		return nil, stylist.ErrServiceNotFound
	}
	return svc, nil
}

func (f *fakeStylists) ListServices(context.Context, string) ([]*stylist.Service, error) {
	return nil, nil
}

func (f *fakeStylists) CreateService(context.Context, string, stylist.CreateServiceRequest) (*stylist.Service, error) {
	return nil, nil
}

type fakeHolds struct {
	holds []*slot.Hold
}

func (s *fakeHolds) CreateHold(_ context.Context, hold *slot.Hold) error {
	s.holds = append(s.holds, hold)
	return nil
}

func (s *fakeHolds) Confirm(context.Context, string) error { return nil }
func (s *fakeHolds) Release(context.Context, string) error { return nil }

func (s *fakeHolds) ListForStylist(_ context.Context, stylistID string, from, to time.Time) ([]*slot.Hold, error) {
	var out []*slot.Hold
	for _, h := range s.holds {
		if h.StylistID == stylistID && h.Overlaps(from, to) {
			out = append(out, h)
		}
	}
	return out, nil
}

type fakeHistory struct {
	histogram [24]int
}

func (f *fakeHistory) CountCompletedByHour(context.Context, string) ([24]int, error) {
	return f.histogram, nil
}

type engineFixture struct {
	engine   Engine
	stylists *fakeStylists
	holds    *fakeHolds
	history  *fakeHistory
	clock    *clock.Fixed
}

func newEngineFixture(t *testing.T) *engineFixture {
	t.Helper()
	f := &engineFixture{
		stylists: newFakeStylists(),
		holds:    &fakeHolds{},
		history:  &fakeHistory{},
		clock:    clock.NewFixed(testClock),
	}
	f.engine = NewEngine(f.stylists, f.holds, f.history, nil, f.clock, 15*time.Minute)
	return f
}

func availableCount(slots []TimeSlot) int {
	n := 0
	for _, s := range slots {
		if s.Available {
			n++
		}
	}
	return n
}

func TestDaySlotsGeneration(t *testing.T) {
	f := newEngineFixture(t)

	slots, err := f.engine.DaySlots(context.Background(), "stylist-1", "svc-1", testDay, 0)
	require.NoError(t, err)

	// 09:00-12:00 working window, 60-minute service at 15-minute steps:
	// starts 09:00 through 11:00.
	require.Len(t, slots, 9)
	assert.Equal(t, testDay.Add(9*time.Hour), slots[0].Start)
	assert.Equal(t, testDay.Add(11*time.Hour), slots[8].Start)
	assert.Equal(t, 9, availableCount(slots))
	for _, s := range slots {
		assert.Equal(t, s.Start.Add(time.Hour), s.End)
		assert.Equal(t, int64(5000), s.PriceCents)
	}
}

func TestDaySlotsHoldBlocksOverlappingBuckets(t *testing.T) {
	f := newEngineFixture(t)
	require.NoError(t, f.holds.CreateHold(context.Background(), &slot.Hold{
		BookingID: "b-1",
		StylistID: "stylist-1",
		Start:     testDay.Add(10 * time.Hour),
		End:       testDay.Add(11 * time.Hour),
		Kind:      slot.KindProvisional,
	}))

	slots, err := f.engine.DaySlots(context.Background(), "stylist-1", "svc-1", testDay, 0)
	require.NoError(t, err)

	// Only 09:00 (ends as the hold starts) and 11:00 (starts as it ends)
	// survive; provisional holds block exactly like confirmed ones.
	assert.Equal(t, 2, availableCount(slots))
	assert.True(t, slots[0].Available)
	assert.True(t, slots[8].Available)
	assert.False(t, slots[4].Available)
}

func TestDaySlotsBlockWindow(t *testing.T) {
	f := newEngineFixture(t)
	f.stylists.blocks = append(f.stylists.blocks, &stylist.Block{
		ID:        "blk-1",
		StylistID: "stylist-1",
		Start:     testDay.Add(9 * time.Hour),
		End:       testDay.Add(10 * time.Hour),
	})

	slots, err := f.engine.DaySlots(context.Background(), "stylist-1", "svc-1", testDay, 0)
	require.NoError(t, err)
	assert.Equal(t, 5, availableCount(slots), "starts 10:00 through 11:00 remain")
}

func TestDaySlotsClosedDay(t *testing.T) {
	f := newEngineFixture(t)
	f.stylists.schedule[int(time.Monday)].IsOpen = false

	slots, err := f.engine.DaySlots(context.Background(), "stylist-1", "svc-1", testDay, 0)
	require.NoError(t, err)
	assert.Empty(t, slots)
}

func TestDaySlotsPastStartsUnavailable(t *testing.T) {
	f := newEngineFixture(t)
	f.clock.Advance(14*time.Hour + 30*time.Minute) // 10:30 on the day itself

	slots, err := f.engine.DaySlots(context.Background(), "stylist-1", "svc-1", testDay, 0)
	require.NoError(t, err)
	assert.Equal(t, 3, availableCount(slots), "10:30, 10:45 and 11:00 remain")
}

func TestDaySlotsRejectsForeignService(t *testing.T) {
	f := newEngineFixture(t)
	f.stylists.services["svc-2"] = &stylist.Service{
		ID: "svc-2", StylistID: "stylist-2", Name: "Color", DurationMinutes: 90, PriceCents: 9000,
	}

	_, err := f.engine.DaySlots(context.Background(), "stylist-1", "svc-2", testDay, 0)
	assert.ErrorIs(t, err, stylist.ErrServiceNotFound)
}

func TestMonthAvailabilityMatchesDayViews(t *testing.T) {
	f := newEngineFixture(t)
	require.NoError(t, f.holds.CreateHold(context.Background(), &slot.Hold{
		BookingID: "b-1",
		StylistID: "stylist-1",
		Start:     testDay.Add(10 * time.Hour),
		End:       testDay.Add(11 * time.Hour),
		Kind:      slot.KindConfirmed,
	}))
	f.stylists.schedule[int(time.Tuesday)].IsOpen = false

	from := testDay
	to := testDay.AddDate(0, 0, 2)
	month, err := f.engine.MonthAvailability(context.Background(), "stylist-1", "svc-1", from, to)
	require.NoError(t, err)
	require.Len(t, month, 3)

	for date := from; !date.After(to); date = date.AddDate(0, 0, 1) {
		slots, err := f.engine.DaySlots(context.Background(), "stylist-1", "svc-1", date, 0)
		require.NoError(t, err)

		summary := month[date.Format("2006-01-02")]
		assert.Equal(t, availableCount(slots), summary.AvailableSlots, "day %s", date.Format("2006-01-02"))
	}

	assert.Equal(t, 2, month["2026-09-14"].AvailableSlots)
	assert.Equal(t, 0, month["2026-09-15"].AvailableSlots, "closed day")
	assert.Equal(t, 9, month["2026-09-16"].AvailableSlots)
	assert.Equal(t, int64(5000), month["2026-09-16"].AvgPriceCents)
}

func TestMonthAvailabilityRangeChecks(t *testing.T) {
	f := newEngineFixture(t)

	_, err := f.engine.MonthAvailability(context.Background(), "stylist-1", "svc-1", testDay, testDay.AddDate(0, 0, -1))
	assert.ErrorIs(t, err, ErrInvalidRange)

	_, err = f.engine.MonthAvailability(context.Background(), "stylist-1", "svc-1", testDay, testDay.AddDate(0, 0, 90))
	assert.ErrorIs(t, err, ErrRangeTooWide)
}

package reservation

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/glowbook/beauty-booking-backend/internal/booking"
	"github.com/glowbook/beauty-booking-backend/internal/clock"
	"github.com/glowbook/beauty-booking-backend/internal/payment"
	"github.com/glowbook/beauty-booking-backend/internal/slot"
	"github.com/glowbook/beauty-booking-backend/internal/stylist"
)

var testBase = time.Date(2026, 9, 14, 10, 0, 0, 0, time.UTC)

type memBookings struct {
	mu       sync.Mutex
	seq      int
	bookings map[string]*booking.Booking
}

func newMemBookings() *memBookings {
	return &memBookings{bookings: map[string]*booking.Booking{}}
}

func (r *memBookings) Create(_ context.Context, b *booking.Booking) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.seq++
	b.ID = fmt.Sprintf("b-%d", r.seq)
	copied := *b
	r.bookings[b.ID] = &copied
	return nil
}

func (r *memBookings) GetByID(_ context.Context, id string) (*booking.Booking, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	b, ok := r.bookings[id]
	if !ok {
		return nil, booking.ErrNotFound
	}
	copied := *b
	return &copied, nil
}

func (r *memBookings) List(_ context.Context, _ booking.Filter) ([]*booking.Booking, int, error) {
	return nil, 0, nil
}

func (r *memBookings) UpdateStatusCAS(_ context.Context, id string, from, to booking.Status, update booking.CASUpdate) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	b, ok := r.bookings[id]
	if !ok || b.Status != from {
		return false, nil
	}
	b.Status = to
	if update.CaptureID != nil {
		b.CaptureID = update.CaptureID
	}
	if update.ResponseDeadline != nil {
		b.ResponseDeadline = update.ResponseDeadline
	}
	return true, nil
}

func (r *memBookings) CountCompletedByHour(context.Context, string) ([24]int, error) {
	return [24]int{}, nil
}

type memHolds struct {
	mu    sync.Mutex
	holds map[string]*slot.Hold
}

func newMemHolds() *memHolds {
	return &memHolds{holds: map[string]*slot.Hold{}}
}

func (s *memHolds) CreateHold(_ context.Context, hold *slot.Hold) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, h := range s.holds {
		if h.StylistID == hold.StylistID && h.Overlaps(hold.Start, hold.End) {
			return slot.ErrConflict
		}
	}
	s.holds[hold.BookingID] = hold
	return nil
}

func (s *memHolds) Confirm(_ context.Context, bookingID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	h, ok := s.holds[bookingID]
	if !ok {
		return slot.ErrHoldNotFound
	}
	h.Kind = slot.KindConfirmed
	h.ExpiresAt = nil
	return nil
}

func (s *memHolds) Release(_ context.Context, bookingID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.holds, bookingID)
	return nil
}

func (s *memHolds) ListForStylist(_ context.Context, stylistID string, from, to time.Time) ([]*slot.Hold, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*slot.Hold
	for _, h := range s.holds {
		if h.StylistID == stylistID && h.Overlaps(from, to) {
			out = append(out, h)
		}
	}
	return out, nil
}

func (s *memHolds) get(bookingID string) *slot.Hold {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.holds[bookingID]
}

// fakeStylists serves a fixed catalog and an always-open 09:00-18:00 week.
type fakeStylists struct {
	services map[string]*stylist.Service
	blocks   []*stylist.Block
}

func newFakeStylists() *fakeStylists {
	return &fakeStylists{
		services: map[string]*stylist.Service{
			"svc-1": {ID: "svc-1", StylistID: "stylist-1", Name: "Cut", DurationMinutes: 60, PriceCents: 5000, Active: true},
		},
	}
}

func (f *fakeStylists) GetSchedule(context.Context, string) (stylist.WeeklySchedule, error) {
	var s stylist.WeeklySchedule
	for i := range s {
		s[i] = stylist.DaySchedule{Weekday: time.Weekday(i), IsOpen: true, Open: "09:00", Close: "18:00"}
	}
	return s, nil
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

func (f *fakeStylists) DeleteBlock(context.Context, string, string, string) error {
	return nil
}

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

type memSched struct {
	mu        sync.Mutex
	scheduled map[string]map[booking.DeadlineKind]time.Time
}

func newMemSched() *memSched {
	return &memSched{scheduled: map[string]map[booking.DeadlineKind]time.Time{}}
}

func (s *memSched) Schedule(_ context.Context, bookingID string, kind booking.DeadlineKind, fireAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.scheduled[bookingID] == nil {
		s.scheduled[bookingID] = map[booking.DeadlineKind]time.Time{}
	}
	s.scheduled[bookingID][kind] = fireAt
	return nil
}

func (s *memSched) Cancel(_ context.Context, bookingID string, kinds ...booking.DeadlineKind) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, kind := range kinds {
		delete(s.scheduled[bookingID], kind)
	}
	return nil
}

// fakeCapturer simulates the gateway per call.
type fakeCapturer struct {
	err   error
	calls int
}

func (c *fakeCapturer) Capture(_ context.Context, bookingID string, _ int64) (string, error) {
	c.calls++
	if c.err != nil {
		return "", c.err
	}
	return "cap-" + bookingID, nil
}

type nullGateway struct{}

func (nullGateway) Refund(context.Context, string, int64) error { return nil }
func (nullGateway) Payout(context.Context, string, int64) error { return nil }

type nullNotifier struct{}

func (nullNotifier) Notify(context.Context, string, string, map[string]any) {}

type nullInvalidator struct{}

func (nullInvalidator) Invalidate(string) {}

type coordinatorFixture struct {
	coordinator Coordinator
	bookings    *memBookings
	holds       *memHolds
	stylists    *fakeStylists
	sched       *memSched
	capturer    *fakeCapturer
	clock       *clock.Fixed
}

func newCoordinatorFixture(t *testing.T) *coordinatorFixture {
	t.Helper()
	f := &coordinatorFixture{
		bookings: newMemBookings(),
		holds:    newMemHolds(),
		stylists: newFakeStylists(),
		sched:    newMemSched(),
		capturer: &fakeCapturer{},
		clock:    clock.NewFixed(testBase),
	}

	lifecycle := booking.NewService(nil, f.bookings, f.holds, f.sched,
		nullGateway{}, nullNotifier{}, nullInvalidator{}, f.clock, booking.Windows{
			StylistRespond: 2 * time.Hour,
			ClientConfirm:  time.Hour,
			NoShowGrace:    15 * time.Minute,
			FreeCancel:     24 * time.Hour,
		})

	f.coordinator = NewCoordinator(nil, f.bookings, lifecycle, f.holds, f.stylists,
		f.sched, f.capturer, nullInvalidator{}, f.clock, 15*time.Minute)
	return f
}

func reserveReq(start time.Time) ReserveRequest {
	return ReserveRequest{
		ClientID:  "client-1",
		StylistID: "stylist-1",
		ServiceID: "svc-1",
		Start:     start,
	}
}

func TestReserveCreatesBookingAndProvisionalHold(t *testing.T) {
	f := newCoordinatorFixture(t)
	start := testBase.Add(24 * time.Hour) // 10:00 next day, inside working hours

	b, err := f.coordinator.Reserve(context.Background(), reserveReq(start))
	require.NoError(t, err)

	assert.Equal(t, booking.StatusPendingPayment, b.Status)
	assert.Equal(t, start, b.StartTime)
	assert.Equal(t, start.Add(time.Hour), b.EndTime, "end derives from the service duration")
	assert.Equal(t, int64(5000), b.PriceCents)

	hold := f.holds.get(b.ID)
	require.NotNil(t, hold)
	assert.Equal(t, slot.KindProvisional, hold.Kind)
	require.NotNil(t, hold.ExpiresAt)
	assert.Equal(t, testBase.Add(15*time.Minute), *hold.ExpiresAt)

	fireAt, ok := f.sched.scheduled[b.ID][booking.DeadlinePayment]
	require.True(t, ok, "reserve must arm the payment window")
	assert.Equal(t, testBase.Add(15*time.Minute), fireAt)
}

func TestReserveRejectsOverlap(t *testing.T) {
	f := newCoordinatorFixture(t)
	start := testBase.Add(24 * time.Hour)

	_, err := f.coordinator.Reserve(context.Background(), reserveReq(start))
	require.NoError(t, err)

	_, err = f.coordinator.Reserve(context.Background(), reserveReq(start.Add(30*time.Minute)))
	assert.ErrorIs(t, err, slot.ErrConflict)
}

func TestReserveBackToBackSlots(t *testing.T) {
	f := newCoordinatorFixture(t)
	start := testBase.Add(24 * time.Hour)

	_, err := f.coordinator.Reserve(context.Background(), reserveReq(start))
	require.NoError(t, err)

	// [10:00, 11:00) then [11:00, 12:00): touching ranges do not conflict.
	_, err = f.coordinator.Reserve(context.Background(), reserveReq(start.Add(time.Hour)))
	assert.NoError(t, err)
}

func TestReserveExactlyOneWinnerUnderContention(t *testing.T) {
	f := newCoordinatorFixture(t)
	start := testBase.Add(24 * time.Hour)

	const attempts = 8
	errs := make(chan error, attempts)
	var wg sync.WaitGroup
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.coordinator.Reserve(context.Background(), reserveReq(start))
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)

	won, lost := 0, 0
	for err := range errs {
		switch {
		case err == nil:
			won++
		case errors.Is(err, slot.ErrConflict):
			lost++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	assert.Equal(t, 1, won)
	assert.Equal(t, attempts-1, lost)
}

func TestReserveValidation(t *testing.T) {
	f := newCoordinatorFixture(t)

	t.Run("past start", func(t *testing.T) {
		_, err := f.coordinator.Reserve(context.Background(), reserveReq(testBase.Add(-time.Hour)))
		assert.ErrorIs(t, err, ErrStartTimePast)
	})

	t.Run("unknown service", func(t *testing.T) {
		req := reserveReq(testBase.Add(24 * time.Hour))
		req.ServiceID = "svc-missing"
		_, err := f.coordinator.Reserve(context.Background(), req)
		assert.ErrorIs(t, err, stylist.ErrServiceNotFound)
	})

	t.Run("service of another stylist", func(t *testing.T) {
		req := reserveReq(testBase.Add(24 * time.Hour))
		req.StylistID = "stylist-2"
		_, err := f.coordinator.Reserve(context.Background(), req)
		assert.ErrorIs(t, err, ErrServiceMismatch)
	})

	t.Run("outside working hours", func(t *testing.T) {
		// 17:30 start would end 18:30, past closing.
		late := testBase.Add(24*time.Hour + 7*time.Hour + 30*time.Minute)
		_, err := f.coordinator.Reserve(context.Background(), reserveReq(late))
		assert.ErrorIs(t, err, ErrOutsideWorkingHours)
	})

	t.Run("blocked window", func(t *testing.T) {
		start := testBase.Add(48 * time.Hour)
		f.stylists.blocks = append(f.stylists.blocks, &stylist.Block{
			ID:        "blk-1",
			StylistID: "stylist-1",
			Start:     start.Add(30 * time.Minute),
			End:       start.Add(2 * time.Hour),
		})
		_, err := f.coordinator.Reserve(context.Background(), reserveReq(start))
		assert.ErrorIs(t, err, ErrBlocked)
	})
}

func TestCapturePaymentSuccess(t *testing.T) {
	f := newCoordinatorFixture(t)
	b, err := f.coordinator.Reserve(context.Background(), reserveReq(testBase.Add(24*time.Hour)))
	require.NoError(t, err)

	captured, err := f.coordinator.CapturePayment(context.Background(), "client-1", b.ID)
	require.NoError(t, err)

	assert.Equal(t, booking.StatusPendingApproval, captured.Status)
	require.NotNil(t, captured.CaptureID)
	assert.Equal(t, "cap-"+b.ID, *captured.CaptureID)
	assert.NotNil(t, captured.ResponseDeadline)

	_, ok := f.sched.scheduled[b.ID][booking.DeadlinePayment]
	assert.False(t, ok, "payment window is disarmed once captured")
	_, ok = f.sched.scheduled[b.ID][booking.DeadlineRespond]
	assert.True(t, ok, "stylist response window armed")
}

func TestCapturePaymentDeclined(t *testing.T) {
	f := newCoordinatorFixture(t)
	b, err := f.coordinator.Reserve(context.Background(), reserveReq(testBase.Add(24*time.Hour)))
	require.NoError(t, err)

	f.capturer.err = payment.ErrDeclined
	_, err = f.coordinator.CapturePayment(context.Background(), "client-1", b.ID)
	assert.ErrorIs(t, err, booking.ErrPaymentRequired)

	cur, err := f.bookings.GetByID(context.Background(), b.ID)
	require.NoError(t, err)
	assert.Equal(t, booking.StatusExpired, cur.Status)
	assert.Nil(t, f.holds.get(b.ID), "declined capture frees the slot")
}

func TestCapturePaymentGatewayDownIsRetryable(t *testing.T) {
	f := newCoordinatorFixture(t)
	b, err := f.coordinator.Reserve(context.Background(), reserveReq(testBase.Add(24*time.Hour)))
	require.NoError(t, err)

	f.capturer.err = payment.ErrUnavailable
	_, err = f.coordinator.CapturePayment(context.Background(), "client-1", b.ID)
	assert.ErrorIs(t, err, payment.ErrUnavailable)

	cur, err := f.bookings.GetByID(context.Background(), b.ID)
	require.NoError(t, err)
	assert.Equal(t, booking.StatusPendingPayment, cur.Status, "booking stays pending for a retry")
	assert.NotNil(t, f.holds.get(b.ID))

	f.capturer.err = nil
	captured, err := f.coordinator.CapturePayment(context.Background(), "client-1", b.ID)
	require.NoError(t, err)
	assert.Equal(t, booking.StatusPendingApproval, captured.Status)
}

func TestCapturePaymentIsIdempotent(t *testing.T) {
	f := newCoordinatorFixture(t)
	b, err := f.coordinator.Reserve(context.Background(), reserveReq(testBase.Add(24*time.Hour)))
	require.NoError(t, err)

	_, err = f.coordinator.CapturePayment(context.Background(), "client-1", b.ID)
	require.NoError(t, err)

	again, err := f.coordinator.CapturePayment(context.Background(), "client-1", b.ID)
	require.NoError(t, err)
	assert.Equal(t, booking.StatusPendingApproval, again.Status)
	assert.Equal(t, 1, f.capturer.calls, "the gateway must not be charged twice")
}

func TestCapturePaymentForbiddenForStranger(t *testing.T) {
	f := newCoordinatorFixture(t)
	b, err := f.coordinator.Reserve(context.Background(), reserveReq(testBase.Add(24*time.Hour)))
	require.NoError(t, err)

	_, err = f.coordinator.CapturePayment(context.Background(), "client-2", b.ID)
	assert.ErrorIs(t, err, booking.ErrForbidden)
	assert.Equal(t, 0, f.capturer.calls)
}

func TestReleaseIsIdempotent(t *testing.T) {
	f := newCoordinatorFixture(t)
	b, err := f.coordinator.Reserve(context.Background(), reserveReq(testBase.Add(24*time.Hour)))
	require.NoError(t, err)

	require.NoError(t, f.coordinator.Release(context.Background(), b.ID))
	require.NoError(t, f.coordinator.Release(context.Background(), b.ID))
	assert.Nil(t, f.holds.get(b.ID))
}

package reservation

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/glowbook/beauty-booking-backend/internal/booking"
	"github.com/glowbook/beauty-booking-backend/internal/clock"
	"github.com/glowbook/beauty-booking-backend/internal/db"
	"github.com/glowbook/beauty-booking-backend/internal/payment"
	"github.com/glowbook/beauty-booking-backend/internal/pkg/apperror"
	"github.com/glowbook/beauty-booking-backend/internal/slot"
	"github.com/glowbook/beauty-booking-backend/internal/stylist"
)

var (
	ErrStartTimePast       = apperror.New(http.StatusBadRequest, "cannot book in the past")
	ErrServiceMismatch     = apperror.New(http.StatusBadRequest, "service does not belong to this stylist")
	ErrOutsideWorkingHours = apperror.New(http.StatusConflict, "requested time falls outside the stylist's working hours")
	ErrBlocked             = apperror.New(http.StatusConflict, "stylist is unavailable at the requested time")
)

// PaymentCapturer is the capture slice of the payment gateway.
type PaymentCapturer interface {
	Capture(ctx context.Context, bookingID string, amountCents int64) (string, error)
}

type ReserveRequest struct {
	ClientID  string
	StylistID string
	ServiceID string
	Start     time.Time
}

// Coordinator creates the booking and its provisional hold as one atomic unit
// and drives the payment capture step. The hold insert is the sole
// double-booking defense; everything before it is advisory validation.
type Coordinator interface {
	Reserve(ctx context.Context, req ReserveRequest) (*booking.Booking, error)
	CapturePayment(ctx context.Context, callerID, bookingID string) (*booking.Booking, error)
	// Release drops the hold for a booking without touching its status.
	// Idempotent; exposed to admins as an operational escape hatch.
	Release(ctx context.Context, bookingID string) error
}

type coordinator struct {
	pool      *pgxpool.Pool
	bookings  booking.Repository
	lifecycle booking.Service
	holds     slot.Store
	stylists  stylist.ScheduleService
	sched     booking.DeadlineScheduler
	capturer  PaymentCapturer
	avail     booking.AvailabilityInvalidator
	clock     clock.Clock

	paymentWindow time.Duration
}

func NewCoordinator(
	pool *pgxpool.Pool,
	bookings booking.Repository,
	lifecycle booking.Service,
	holds slot.Store,
	stylists stylist.ScheduleService,
	sched booking.DeadlineScheduler,
	capturer PaymentCapturer,
	avail booking.AvailabilityInvalidator,
	clk clock.Clock,
	paymentWindow time.Duration,
) Coordinator {
	return &coordinator{
		pool:          pool,
		bookings:      bookings,
		lifecycle:     lifecycle,
		holds:         holds,
		stylists:      stylists,
		sched:         sched,
		capturer:      capturer,
		avail:         avail,
		clock:         clk,
		paymentWindow: paymentWindow,
	}
}

func (c *coordinator) Reserve(ctx context.Context, req ReserveRequest) (*booking.Booking, error) {
	now := c.clock.Now()
	if req.Start.Before(now) {
		return nil, ErrStartTimePast
	}

	svc, err := c.stylists.GetService(ctx, req.ServiceID)
	if err != nil {
		return nil, err
	}
	if svc.StylistID != req.StylistID {
		return nil, ErrServiceMismatch
	}

	start := req.Start.UTC()
	end := start.Add(svc.Duration())

	if err := c.checkWorkingWindow(ctx, req.StylistID, start, end); err != nil {
		return nil, err
	}

	b := &booking.Booking{
		ClientID:   req.ClientID,
		StylistID:  req.StylistID,
		ServiceID:  req.ServiceID,
		StartTime:  start,
		EndTime:    end,
		PriceCents: svc.PriceCents,
		Status:     booking.StatusPendingPayment,
	}

	holdExpiry := now.Add(c.paymentWindow)

	// Booking row, provisional hold and payment-window job are one atomic
	// unit. A concurrent reservation for an overlapping range loses on the
	// hold insert and the whole unit rolls back.
	err = db.WithTx(ctx, c.pool, func(ctx context.Context) error {
		if err := c.bookings.Create(ctx, b); err != nil {
			return err
		}
		hold := &slot.Hold{
			BookingID: b.ID,
			StylistID: b.StylistID,
			Start:     start,
			End:       end,
			Kind:      slot.KindProvisional,
			ExpiresAt: &holdExpiry,
		}
		if err := c.holds.CreateHold(ctx, hold); err != nil {
			return err
		}
		return c.sched.Schedule(ctx, b.ID, booking.DeadlinePayment, holdExpiry)
	})
	if err != nil {
		return nil, err
	}

	if c.avail != nil {
		c.avail.Invalidate(b.StylistID)
	}
	return b, nil
}

// checkWorkingWindow rejects requests outside the stylist's template or
// overlapping an explicit block. Advisory only: the hold constraint still
// decides conflicts.
func (c *coordinator) checkWorkingWindow(ctx context.Context, stylistID string, start, end time.Time) error {
	schedule, err := c.stylists.GetSchedule(ctx, stylistID)
	if err != nil {
		return err
	}
	dayStart, dayEnd, open := schedule.Window(start)
	if !open || start.Before(dayStart) || end.After(dayEnd) {
		return ErrOutsideWorkingHours
	}

	blocks, err := c.stylists.ListBlocks(ctx, stylistID, start, end)
	if err != nil {
		return err
	}
	for _, block := range blocks {
		if block.Start.Before(end) && block.End.After(start) {
			return ErrBlocked
		}
	}
	return nil
}

func (c *coordinator) CapturePayment(ctx context.Context, callerID, bookingID string) (*booking.Booking, error) {
	b, err := c.lifecycle.Get(ctx, callerID, booking.ActorClient, bookingID)
	if err != nil {
		return nil, err
	}
	if b.Status != booking.StatusPendingPayment {
		// Let Apply produce the precise idempotent/invalid/deadline answer.
		return c.lifecycle.Apply(ctx, booking.ApplyRequest{
			BookingID: bookingID,
			Action:    booking.ActionCapture,
			Actor:     booking.ActorClient,
			CallerID:  callerID,
		})
	}

	captureID, err := c.capturer.Capture(ctx, b.ID, b.PriceCents)
	if err != nil {
		if errors.Is(err, payment.ErrDeclined) {
			// A declined capture terminates the booking and frees the slot.
			if _, applyErr := c.lifecycle.Apply(ctx, booking.ApplyRequest{
				BookingID: bookingID,
				Action:    booking.ActionPaymentFailed,
				Actor:     booking.ActorClient,
				CallerID:  callerID,
			}); applyErr != nil {
				return nil, applyErr
			}
			return nil, booking.ErrPaymentRequired
		}
		// Gateway unreachable: keep the booking pending so the client can
		// retry inside the payment window.
		return nil, err
	}

	return c.lifecycle.Apply(ctx, booking.ApplyRequest{
		BookingID: bookingID,
		Action:    booking.ActionCapture,
		Actor:     booking.ActorClient,
		CallerID:  callerID,
		CaptureID: captureID,
	})
}

func (c *coordinator) Release(ctx context.Context, bookingID string) error {
	b, err := c.bookings.GetByID(ctx, bookingID)
	if err != nil {
		return err
	}
	if err := c.holds.Release(ctx, bookingID); err != nil {
		return err
	}
	if c.avail != nil {
		c.avail.Invalidate(b.StylistID)
	}
	return nil
}

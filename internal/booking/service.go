package booking

import (
	"context"
	"log"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/glowbook/beauty-booking-backend/internal/clock"
	"github.com/glowbook/beauty-booking-backend/internal/db"
	"github.com/glowbook/beauty-booking-backend/internal/metrics"
	"github.com/glowbook/beauty-booking-backend/internal/slot"
)

// DeadlineScheduler persists and cancels timeout jobs. Implementations must
// honor a transaction carried by the context so job bookkeeping commits with
// the status change.
type DeadlineScheduler interface {
	Schedule(ctx context.Context, bookingID string, kind DeadlineKind, fireAt time.Time) error
	Cancel(ctx context.Context, bookingID string, kinds ...DeadlineKind) error
}

// PaymentGateway is the slice of the payment collaborator the lifecycle needs.
type PaymentGateway interface {
	Refund(ctx context.Context, captureID string, amountCents int64) error
	Payout(ctx context.Context, bookingID string, amountCents int64) error
}

// Notifier dispatches lifecycle events. Implementations are fire-and-forget
// and log their own failures; a notification can never block a transition.
type Notifier interface {
	Notify(ctx context.Context, userID, eventType string, payload map[string]any)
}

// AvailabilityInvalidator drops cached availability for a stylist after a hold
// mutation. The cache is an optimization, so invalidation has no error path.
type AvailabilityInvalidator interface {
	Invalidate(stylistID string)
}

// Windows groups the configured lifecycle durations.
type Windows struct {
	StylistRespond time.Duration
	ClientConfirm  time.Duration
	NoShowGrace    time.Duration
	FreeCancel     time.Duration
}

// ApplyRequest is one transition attempt against a booking.
type ApplyRequest struct {
	BookingID string
	Action    Action
	Actor     Actor
	CallerID  string
	// CaptureID accompanies ActionCapture.
	CaptureID string
}

type Service interface {
	Get(ctx context.Context, callerID string, actor Actor, id string) (*Booking, error)
	List(ctx context.Context, callerID string, actor Actor, filter Filter) ([]*Booking, int, error)
	Apply(ctx context.Context, req ApplyRequest) (*Booking, error)
}

type service struct {
	pool     *pgxpool.Pool
	repo     Repository
	holds    slot.Store
	sched    DeadlineScheduler
	payments PaymentGateway
	notifier Notifier
	avail    AvailabilityInvalidator
	clock    clock.Clock
	windows  Windows
}

func NewService(
	pool *pgxpool.Pool,
	repo Repository,
	holds slot.Store,
	sched DeadlineScheduler,
	payments PaymentGateway,
	notifier Notifier,
	avail AvailabilityInvalidator,
	clk clock.Clock,
	windows Windows,
) Service {
	return &service{
		pool:     pool,
		repo:     repo,
		holds:    holds,
		sched:    sched,
		payments: payments,
		notifier: notifier,
		avail:    avail,
		clock:    clk,
		windows:  windows,
	}
}

func (s *service) Get(ctx context.Context, callerID string, actor Actor, id string) (*Booking, error) {
	b, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if actor != ActorSystem && callerID != b.ClientID && callerID != b.StylistID {
		return nil, ErrForbidden
	}
	return b, nil
}

func (s *service) List(ctx context.Context, callerID string, actor Actor, filter Filter) ([]*Booking, int, error) {
	// Non-admin callers only ever see their own side of the marketplace.
	switch actor {
	case ActorClient:
		filter.ClientID = callerID
	case ActorStylist:
		filter.StylistID = callerID
	}
	return s.repo.List(ctx, filter)
}

// Apply attempts one state-machine transition. The status compare-and-set,
// the hold effect and the timeout-job bookkeeping share a transaction; refund,
// payout and notifications run after commit.
func (s *service) Apply(ctx context.Context, req ApplyRequest) (*Booking, error) {
	b, err := s.repo.GetByID(ctx, req.BookingID)
	if err != nil {
		return nil, err
	}

	r, ok := ruleFor(req.Action, b.Status)
	if !ok {
		// The action does not apply right now, but the answer (idempotent
		// success, deadline-passed, invalid) still reveals booking state, so
		// the actor and identity gates come first.
		if cr, found := actionRule(req.Action); found && !cr.allows(req.Actor) {
			return nil, ErrForbidden
		}
		if err := s.checkIdentity(b, req.Actor, req.CallerID); err != nil {
			return nil, err
		}
		return s.rejected(req.Action, b)
	}
	if !r.allows(req.Actor) {
		return nil, ErrForbidden
	}
	if err := s.checkIdentity(b, req.Actor, req.CallerID); err != nil {
		return nil, err
	}

	now := s.clock.Now()
	if err := s.checkPreconditions(req.Action, b, now); err != nil {
		return nil, err
	}

	update, fireAt := s.updateFor(req, b, r, now)

	applied := false
	err = db.WithTx(ctx, s.pool, func(ctx context.Context) error {
		ok, err := s.repo.UpdateStatusCAS(ctx, b.ID, b.Status, r.to, update)
		if err != nil {
			return err
		}
		if !ok {
			// Lost the race: someone else moved the booking first.
			cur, err := s.repo.GetByID(ctx, b.ID)
			if err != nil {
				return err
			}
			if cur.Status == r.to {
				b = cur // duplicate request, already applied
				return nil
			}
			if cur.Status.Terminal() && cur.Status.timeoutProduced() {
				return NewDeadlinePassed(cur.Status)
			}
			return ErrStaleState
		}
		applied = true

		switch r.effect {
		case HoldConfirm:
			if err := s.holds.Confirm(ctx, b.ID); err != nil {
				return err
			}
		case HoldRelease:
			if err := s.holds.Release(ctx, b.ID); err != nil {
				return err
			}
		}

		if len(r.cancel) > 0 {
			if err := s.sched.Cancel(ctx, b.ID, r.cancel...); err != nil {
				return err
			}
		}
		if r.schedule != "" {
			if err := s.sched.Schedule(ctx, b.ID, r.schedule, fireAt); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if !applied {
		return b, nil
	}

	prev := b.Status
	b.Status = r.to
	b.UpdatedAt = now
	if update.CaptureID != nil {
		b.CaptureID = update.CaptureID
	}
	if update.ResponseDeadline != nil {
		b.ResponseDeadline = update.ResponseDeadline
	}
	if update.ConfirmDeadline != nil {
		b.ConfirmDeadline = update.ConfirmDeadline
	}

	metrics.ObserveTransition(string(req.Action))

	if r.effect != HoldKeep && s.avail != nil {
		s.avail.Invalidate(b.StylistID)
	}

	s.settle(ctx, b, req.Actor, now)
	s.notifyBoth(ctx, b, prev)

	return b, nil
}

// rejected maps an action with no rule for the current status to the right
// error: idempotent success when already applied, deadline-passed when a
// timeout beat a human, invalid transition otherwise.
func (s *service) rejected(action Action, b *Booking) (*Booking, error) {
	target := Target(action)
	if b.Status == target {
		return b, nil
	}
	if b.Status.Terminal() && b.Status.timeoutProduced() {
		return nil, NewDeadlinePassed(b.Status)
	}
	return nil, NewInvalidTransition(b.Status, target)
}

func (s *service) checkIdentity(b *Booking, actor Actor, callerID string) error {
	switch actor {
	case ActorClient:
		if callerID != b.ClientID {
			return ErrForbidden
		}
	case ActorStylist:
		if callerID != b.StylistID {
			return ErrForbidden
		}
	}
	return nil
}

func (s *service) checkPreconditions(action Action, b *Booking, now time.Time) error {
	switch action {
	case ActionClientNoShow, ActionStylistNoShow:
		if now.Before(b.StartTime.Add(s.windows.NoShowGrace)) {
			return ErrGraceNotElapsed
		}
	case ActionStart:
		if now.Before(b.StartTime) {
			return ErrNotStarted
		}
	case ActionCancel:
		// Once the appointment has started, a confirmed booking is resolved
		// by completion or a no-show mark, never a cancel.
		if b.Status == StatusConfirmed && !now.Before(b.StartTime) {
			return ErrTooLateToCancel
		}
	}
	return nil
}

// updateFor computes the CAS column set and the fire-at instant for the
// deadline the target state owns.
func (s *service) updateFor(req ApplyRequest, b *Booking, r rule, now time.Time) (CASUpdate, time.Time) {
	var update CASUpdate
	var fireAt time.Time

	switch r.schedule {
	case DeadlineRespond:
		deadline := now.Add(s.windows.StylistRespond)
		update.ResponseDeadline = &deadline
		fireAt = deadline
	case DeadlineConfirm:
		deadline := now.Add(s.windows.ClientConfirm)
		update.ConfirmDeadline = &deadline
		fireAt = deadline
	case DeadlineStart:
		fireAt = b.StartTime
	}

	if req.Action == ActionCapture && req.CaptureID != "" {
		captureID := req.CaptureID
		update.CaptureID = &captureID
	}
	return update, fireAt
}

// settle runs the money side effects of a committed transition. Failures are
// logged, never propagated: the transition already happened.
func (s *service) settle(ctx context.Context, b *Booking, actor Actor, now time.Time) {
	switch b.Status {
	case StatusCompleted:
		if err := s.payments.Payout(ctx, b.ID, b.PriceCents); err != nil {
			log.Printf("payout for booking %s failed: %v", b.ID, err)
		}
		return
	}

	fraction := s.refundFraction(b, actor, now)
	if fraction <= 0 || b.CaptureID == nil {
		return
	}
	amount := int64(float64(b.PriceCents) * fraction)
	if err := s.payments.Refund(ctx, *b.CaptureID, amount); err != nil {
		log.Printf("refund for booking %s (capture %s) failed: %v", b.ID, *b.CaptureID, err)
	}
}

// refundFraction implements the cancellation/refund policy. Failure states the
// stylist caused refund in full; a client cancel close to the appointment only
// refunds half; a client no-show refunds nothing.
func (s *service) refundFraction(b *Booking, actor Actor, now time.Time) float64 {
	switch b.Status {
	case StatusDeclined, StatusNoResponse, StatusNoConfirm, StatusStylistNoShow, StatusExpired:
		return 1
	case StatusCancelled:
		if actor == ActorStylist {
			return 1
		}
		if now.Before(b.StartTime.Add(-s.windows.FreeCancel)) {
			return 1
		}
		return 0.5
	}
	return 0
}

func (s *service) notifyBoth(ctx context.Context, b *Booking, prev Status) {
	payload := map[string]any{
		"booking_id": b.ID,
		"from":       string(prev),
		"to":         string(b.Status),
		"start_time": b.StartTime,
	}
	event := "booking." + string(b.Status)
	s.notifier.Notify(ctx, b.ClientID, event, payload)
	s.notifier.Notify(ctx, b.StylistID, event, payload)
}

package timeout

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/glowbook/beauty-booking-backend/internal/booking"
	"github.com/glowbook/beauty-booking-backend/internal/clock"
)

// actionFor maps a fired deadline to the transition it enforces.
var actionFor = map[booking.DeadlineKind]booking.Action{
	booking.DeadlinePayment: booking.ActionExpirePayment,
	booking.DeadlineRespond: booking.ActionExpireRespond,
	booking.DeadlineConfirm: booking.ActionExpireConfirm,
	booking.DeadlineStart:   booking.ActionStart,
}

// Scheduler drives deferred transitions from the durable timeout_jobs table.
// Jobs survive process restarts; the worker merely wakes up and claims what is
// due. A fired job contends on the same compare-and-set as human actions, so a
// timeout racing a last-second click is settled by whichever write wins.
type Scheduler struct {
	repo      Repository
	lifecycle booking.Service
	clock     clock.Clock
	poll      time.Duration
	batch     int
}

func NewScheduler(repo Repository, lifecycle booking.Service, clk clock.Clock, poll time.Duration, batch int) *Scheduler {
	if poll <= 0 {
		poll = 30 * time.Second
	}
	if batch <= 0 {
		batch = 50
	}
	return &Scheduler{
		repo:      repo,
		lifecycle: lifecycle,
		clock:     clk,
		poll:      poll,
		batch:     batch,
	}
}

// Run loops until ctx is cancelled, sleeping until the nearest fire-at but at
// most the poll interval, so jobs scheduled by other replicas are noticed too.
func (s *Scheduler) Run(ctx context.Context) {
	for {
		wait := s.nextWait(ctx)

		select {
		case <-ctx.Done():
			return
		case <-time.After(wait):
		}

		s.Sweep(ctx)
	}
}

func (s *Scheduler) nextWait(ctx context.Context) time.Duration {
	wait := s.poll
	next, err := s.repo.NextFireAt(ctx)
	if err != nil {
		log.Printf("timeout scheduler: next fire-at lookup failed: %v", err)
		return wait
	}
	if next != nil {
		if until := next.Sub(s.clock.Now()); until < wait {
			wait = until
		}
	}
	if wait < 0 {
		wait = 0
	}
	return wait
}

// Sweep claims and fires every job due now.
func (s *Scheduler) Sweep(ctx context.Context) {
	for {
		jobs, err := s.repo.ClaimDue(ctx, s.clock.Now(), s.batch)
		if err != nil {
			log.Printf("timeout scheduler: claim failed: %v", err)
			return
		}
		if len(jobs) == 0 {
			return
		}
		for _, job := range jobs {
			s.fire(ctx, job)
		}
		if len(jobs) < s.batch {
			return
		}
	}
}

func (s *Scheduler) fire(ctx context.Context, job Job) {
	action, ok := actionFor[job.Kind]
	if !ok {
		log.Printf("timeout scheduler: unknown deadline kind %q for booking %s", job.Kind, job.BookingID)
		return
	}

	req := booking.ApplyRequest{
		BookingID: job.BookingID,
		Action:    action,
		Actor:     booking.ActorSystem,
	}

	_, err := s.lifecycle.Apply(ctx, req)
	if errors.Is(err, booking.ErrStaleState) {
		// One retry: a concurrent writer may have been an unrelated
		// transition that still leaves this deadline applicable.
		_, err = s.lifecycle.Apply(ctx, req)
	}
	switch {
	case err == nil:
		return
	case errors.Is(err, booking.ErrInvalidTransition),
		errors.Is(err, booking.ErrDeadlinePassed),
		errors.Is(err, booking.ErrStaleState):
		// The human action won the race; nothing to enforce.
		return
	default:
		// Transient failure. The claim already removed the row, so put the
		// job back with a pushed-out fire-at; dropping it would leave the
		// booking stuck past its deadline with the hold still blocking the
		// slot.
		log.Printf("timeout scheduler: firing %s for booking %s failed: %v", job.Kind, job.BookingID, err)
		if schedErr := s.repo.Schedule(ctx, job.BookingID, job.Kind, s.clock.Now().Add(s.poll)); schedErr != nil {
			log.Printf("timeout scheduler: requeue %s for booking %s failed: %v", job.Kind, job.BookingID, schedErr)
		}
	}
}

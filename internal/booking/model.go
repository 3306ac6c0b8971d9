package booking

import (
	"fmt"
	"net/http"
	"time"

	"github.com/glowbook/beauty-booking-backend/internal/pkg/apperror"
)

var (
	ErrNotFound = apperror.New(http.StatusNotFound, "booking not found")
	// ErrInvalidTransition is the sentinel for rejected lifecycle actions;
	// constructed errors wrap it and name both states.
	ErrInvalidTransition = apperror.New(http.StatusConflict, "transition not allowed")
	// ErrStaleState means the optimistic status check lost a race. The caller
	// should re-fetch and may retry once.
	ErrStaleState = apperror.New(http.StatusConflict, "booking changed concurrently, re-fetch and retry")
	// ErrDeadlinePassed means a timeout fired before the human action arrived;
	// the booking already sits in the deadline's terminal state.
	ErrDeadlinePassed  = apperror.New(http.StatusConflict, "deadline already passed")
	ErrForbidden       = apperror.New(http.StatusForbidden, "caller may not perform this action")
	ErrGraceNotElapsed = apperror.New(http.StatusConflict, "no-show can be marked only after the grace period")
	ErrNotStarted      = apperror.New(http.StatusConflict, "appointment has not started yet")
	ErrTooLateToCancel = apperror.New(http.StatusConflict, "appointment already started, mark a no-show or complete it")
	ErrPaymentRequired = apperror.New(http.StatusPaymentRequired, "payment capture failed")
	ErrInvalidInput    = apperror.New(http.StatusBadRequest, "invalid input parameters")
)

// NewInvalidTransition builds an ErrInvalidTransition naming the current state
// and the requested one.
func NewInvalidTransition(from, to Status) error {
	return apperror.Wrap(ErrInvalidTransition, http.StatusConflict,
		fmt.Sprintf("cannot move booking from %s to %s", from, to))
}

// NewDeadlinePassed builds an ErrDeadlinePassed naming the now-current state.
func NewDeadlinePassed(current Status) error {
	return apperror.Wrap(ErrDeadlinePassed, http.StatusConflict,
		fmt.Sprintf("deadline already passed, booking is now %s", current))
}

type Status string

const (
	StatusPendingPayment  Status = "pending_payment"
	StatusPendingApproval Status = "pending_stylist_approval"
	StatusAccepted        Status = "stylist_accepted"
	StatusConfirmed       Status = "client_confirmed"
	StatusInProgress      Status = "in_progress"
	StatusCompleted       Status = "completed"

	StatusDeclined      Status = "stylist_declined"
	StatusNoResponse    Status = "stylist_no_response"
	StatusNoConfirm     Status = "client_no_confirm"
	StatusClientNoShow  Status = "client_no_show"
	StatusStylistNoShow Status = "stylist_no_show"
	StatusCancelled     Status = "cancelled"
	StatusExpired       Status = "expired"
)

// Terminal reports whether no further transition can leave the status.
func (s Status) Terminal() bool {
	switch s {
	case StatusCompleted, StatusDeclined, StatusNoResponse, StatusNoConfirm,
		StatusClientNoShow, StatusStylistNoShow, StatusCancelled, StatusExpired:
		return true
	}
	return false
}

// timeoutProduced reports whether the status is one a deadline job writes, so
// a losing human action can be told "the deadline fired" instead of a bare
// conflict.
func (s Status) timeoutProduced() bool {
	switch s {
	case StatusExpired, StatusNoResponse, StatusNoConfirm:
		return true
	}
	return false
}

// Booking is the appointment entity. Rows are never deleted; terminal states
// are kept for history.
type Booking struct {
	ID         string
	ClientID   string
	StylistID  string
	ServiceID  string
	StartTime  time.Time
	EndTime    time.Time
	PriceCents int64
	Status     Status

	// CaptureID references the gateway capture once payment succeeded.
	CaptureID        *string
	ResponseDeadline *time.Time
	ConfirmDeadline  *time.Time

	CreatedAt time.Time
	UpdatedAt time.Time
}

type Filter struct {
	ClientID  string
	StylistID string
	Status    string
	From      *time.Time
	To        *time.Time
	Page      int
	PageSize  int
}

package slot

import (
	"net/http"
	"time"

	"github.com/glowbook/beauty-booking-backend/internal/pkg/apperror"
)

var (
	// ErrConflict means the requested range overlaps an existing hold. The
	// caller should re-query availability and pick another slot.
	ErrConflict     = apperror.New(http.StatusConflict, "time slot already held by another booking")
	ErrHoldNotFound = apperror.New(http.StatusNotFound, "no hold for this booking")
)

// Kind distinguishes a hold that still depends on pending human action from
// one backing a confirmed appointment.
type Kind string

const (
	KindProvisional Kind = "provisional"
	KindConfirmed   Kind = "confirmed"
)

// Hold reserves a stylist's time range for exactly one booking. Holds of
// either kind block competing reservations; the store's exclusion constraint
// makes an overlapping insert impossible.
type Hold struct {
	BookingID string
	StylistID string
	Start     time.Time
	End       time.Time
	Kind      Kind
	// ExpiresAt is set on provisional holds only; a due expiry is enforced by
	// the timeout job on the owning booking, never by silent deletion.
	ExpiresAt *time.Time
	CreatedAt time.Time
}

// Overlaps reports whether the hold intersects [start, end). Ranges that only
// touch at a boundary do not overlap.
func (h *Hold) Overlaps(start, end time.Time) bool {
	return h.Start.Before(end) && h.End.After(start)
}

package slot

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/glowbook/beauty-booking-backend/internal/db"
)

// Store is the single source of truth for slot conflicts. Availability views
// are derived from it but never authorize a reservation.
type Store interface {
	// CreateHold inserts a hold; an overlapping range for the same stylist
	// fails with ErrConflict, raced out by the exclusion constraint.
	CreateHold(ctx context.Context, hold *Hold) error
	// Confirm upgrades the booking's hold to confirmed and clears its expiry.
	Confirm(ctx context.Context, bookingID string) error
	// Release deletes the booking's hold. Releasing an already-released hold
	// is a no-op so failure-branch transitions stay idempotent.
	Release(ctx context.Context, bookingID string) error

	ListForStylist(ctx context.Context, stylistID string, from, to time.Time) ([]*Hold, error)
}

type pgxStore struct {
	pool *pgxpool.Pool
}

func NewPgxStore(pool *pgxpool.Pool) Store {
	return &pgxStore{pool: pool}
}

var psql = squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)

func (s *pgxStore) CreateHold(ctx context.Context, h *Hold) error {
	query, args, err := psql.Insert("slot_holds").
		Columns("booking_id", "stylist_id", "during", "kind", "expires_at").
		Values(h.BookingID, h.StylistID, squirrel.Expr("tstzrange(?, ?, '[)')", h.Start, h.End), h.Kind, h.ExpiresAt).
		Suffix("RETURNING created_at").
		ToSql()
	if err != nil {
		return fmt.Errorf("build create hold query failed: %w", err)
	}

	if err := db.Q(ctx, s.pool).QueryRow(ctx, query, args...).Scan(&h.CreatedAt); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.ExclusionViolation {
			return ErrConflict
		}
		return fmt.Errorf("create hold failed: %w", err)
	}
	return nil
}

func (s *pgxStore) Confirm(ctx context.Context, bookingID string) error {
	query, args, err := psql.Update("slot_holds").
		Set("kind", KindConfirmed).
		Set("expires_at", nil).
		Where(squirrel.Eq{"booking_id": bookingID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build confirm hold query failed: %w", err)
	}

	ct, err := db.Q(ctx, s.pool).Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("confirm hold failed: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return ErrHoldNotFound
	}
	return nil
}

func (s *pgxStore) Release(ctx context.Context, bookingID string) error {
	query, args, err := psql.Delete("slot_holds").
		Where(squirrel.Eq{"booking_id": bookingID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build release hold query failed: %w", err)
	}

	// Zero rows deleted means the hold was already released.
	if _, err := db.Q(ctx, s.pool).Exec(ctx, query, args...); err != nil {
		return fmt.Errorf("release hold failed: %w", err)
	}
	return nil
}

func (s *pgxStore) ListForStylist(ctx context.Context, stylistID string, from, to time.Time) ([]*Hold, error) {
	query, args, err := psql.Select("booking_id", "stylist_id", "lower(during)", "upper(during)", "kind", "expires_at", "created_at").
		From("slot_holds").
		Where(squirrel.Eq{"stylist_id": stylistID}).
		Where("during && tstzrange(?, ?, '[)')", from, to).
		OrderBy("lower(during)").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build list holds query failed: %w", err)
	}

	rows, err := db.Q(ctx, s.pool).Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list holds failed: %w", err)
	}
	defer rows.Close()

	var holds []*Hold
	for rows.Next() {
		var h Hold
		if err := rows.Scan(&h.BookingID, &h.StylistID, &h.Start, &h.End, &h.Kind, &h.ExpiresAt, &h.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan hold failed: %w", err)
		}
		holds = append(holds, &h)
	}
	return holds, rows.Err()
}

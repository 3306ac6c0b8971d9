package timeout

import (
	"context"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/glowbook/beauty-booking-backend/internal/booking"
	"github.com/glowbook/beauty-booking-backend/internal/db"
)

// Job is one pending deferred transition.
type Job struct {
	BookingID string
	Kind      booking.DeadlineKind
	FireAt    time.Time
}

// Repository persists timeout jobs. It satisfies booking.DeadlineScheduler,
// so lifecycle transitions write job bookkeeping through the same transaction
// as the status change.
type Repository interface {
	booking.DeadlineScheduler

	// ClaimDue atomically removes and returns jobs due at now. Concurrent
	// replicas skip rows another one already locked. A caller that cannot
	// resolve a claimed job must Schedule it again or the deadline is lost.
	ClaimDue(ctx context.Context, now time.Time, limit int) ([]Job, error)
	NextFireAt(ctx context.Context) (*time.Time, error)
}

type pgxRepository struct {
	pool *pgxpool.Pool
}

func NewPgxRepository(pool *pgxpool.Pool) Repository {
	return &pgxRepository{pool: pool}
}

var psql = squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)

func (r *pgxRepository) Schedule(ctx context.Context, bookingID string, kind booking.DeadlineKind, fireAt time.Time) error {
	query, args, err := psql.Insert("timeout_jobs").
		Columns("booking_id", "kind", "fire_at").
		Values(bookingID, kind, fireAt).
		Suffix("ON CONFLICT (booking_id, kind) DO UPDATE SET fire_at = EXCLUDED.fire_at").
		ToSql()
	if err != nil {
		return fmt.Errorf("build schedule job query failed: %w", err)
	}

	if _, err := db.Q(ctx, r.pool).Exec(ctx, query, args...); err != nil {
		return fmt.Errorf("schedule job failed: %w", err)
	}
	return nil
}

func (r *pgxRepository) Cancel(ctx context.Context, bookingID string, kinds ...booking.DeadlineKind) error {
	if len(kinds) == 0 {
		return nil
	}
	query, args, err := psql.Delete("timeout_jobs").
		Where(squirrel.Eq{"booking_id": bookingID, "kind": kinds}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build cancel jobs query failed: %w", err)
	}

	// Zero rows is fine: the job may have fired already.
	if _, err := db.Q(ctx, r.pool).Exec(ctx, query, args...); err != nil {
		return fmt.Errorf("cancel jobs failed: %w", err)
	}
	return nil
}

func (r *pgxRepository) ClaimDue(ctx context.Context, now time.Time, limit int) ([]Job, error) {
	const query = `
		DELETE FROM timeout_jobs
		WHERE (booking_id, kind) IN (
			SELECT booking_id, kind FROM timeout_jobs
			WHERE fire_at <= $1
			ORDER BY fire_at
			LIMIT $2
			FOR UPDATE SKIP LOCKED
		)
		RETURNING booking_id, kind, fire_at`

	rows, err := db.Q(ctx, r.pool).Query(ctx, query, now, limit)
	if err != nil {
		return nil, fmt.Errorf("claim due jobs failed: %w", err)
	}
	defer rows.Close()

	var jobs []Job
	for rows.Next() {
		var j Job
		if err := rows.Scan(&j.BookingID, &j.Kind, &j.FireAt); err != nil {
			return nil, fmt.Errorf("scan job failed: %w", err)
		}
		jobs = append(jobs, j)
	}
	return jobs, rows.Err()
}

func (r *pgxRepository) NextFireAt(ctx context.Context) (*time.Time, error) {
	query, args, err := psql.Select("min(fire_at)").From("timeout_jobs").ToSql()
	if err != nil {
		return nil, fmt.Errorf("build next fire-at query failed: %w", err)
	}

	var next *time.Time
	if err := db.Q(ctx, r.pool).QueryRow(ctx, query, args...).Scan(&next); err != nil && err != pgx.ErrNoRows {
		return nil, fmt.Errorf("next fire-at failed: %w", err)
	}
	return next, nil
}

package booking

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/glowbook/beauty-booking-backend/internal/db"
)

// CASUpdate carries the columns a transition sets alongside the status.
// Nil fields are left untouched.
type CASUpdate struct {
	CaptureID        *string
	ResponseDeadline *time.Time
	ConfirmDeadline  *time.Time
}

type Repository interface {
	Create(ctx context.Context, b *Booking) error
	GetByID(ctx context.Context, id string) (*Booking, error)
	List(ctx context.Context, filter Filter) ([]*Booking, int, error)

	// UpdateStatusCAS sets status only when the stored status still equals
	// from. Returns false when the compare-and-set matched no row; the caller
	// decides between idempotent success, stale state, and deadline passed.
	UpdateStatusCAS(ctx context.Context, id string, from, to Status, update CASUpdate) (bool, error)

	// CountCompletedByHour returns a 24-bucket histogram of completed
	// appointments per start hour for a stylist. Read-side input for the
	// popularity scorer only.
	CountCompletedByHour(ctx context.Context, stylistID string) ([24]int, error)
}

type pgxRepository struct {
	pool *pgxpool.Pool
}

func NewPgxRepository(pool *pgxpool.Pool) Repository {
	return &pgxRepository{pool: pool}
}

var psql = squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)

const bookingColumns = "id, client_id, stylist_id, service_id, start_time, end_time, price_cents, status, capture_id, response_deadline, confirm_deadline, created_at, updated_at"

func scanBooking(row pgx.Row) (*Booking, error) {
	var b Booking
	err := row.Scan(
		&b.ID, &b.ClientID, &b.StylistID, &b.ServiceID, &b.StartTime, &b.EndTime,
		&b.PriceCents, &b.Status, &b.CaptureID, &b.ResponseDeadline, &b.ConfirmDeadline,
		&b.CreatedAt, &b.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &b, nil
}

func (r *pgxRepository) Create(ctx context.Context, b *Booking) error {
	query, args, err := psql.Insert("bookings").
		Columns("client_id", "stylist_id", "service_id", "start_time", "end_time", "price_cents", "status").
		Values(b.ClientID, b.StylistID, b.ServiceID, b.StartTime, b.EndTime, b.PriceCents, b.Status).
		Suffix("RETURNING id, created_at, updated_at").
		ToSql()
	if err != nil {
		return fmt.Errorf("build create booking query failed: %w", err)
	}

	return db.Q(ctx, r.pool).QueryRow(ctx, query, args...).
		Scan(&b.ID, &b.CreatedAt, &b.UpdatedAt)
}

func (r *pgxRepository) GetByID(ctx context.Context, id string) (*Booking, error) {
	query, args, err := psql.Select(bookingColumns).
		From("bookings").
		Where(squirrel.Eq{"id": id}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build get booking query failed: %w", err)
	}

	b, err := scanBooking(db.Q(ctx, r.pool).QueryRow(ctx, query, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get booking failed: %w", err)
	}
	return b, nil
}

func (r *pgxRepository) List(ctx context.Context, filter Filter) ([]*Booking, int, error) {
	query := psql.Select(bookingColumns + ", count(*) OVER() AS total_count").
		From("bookings")

	if filter.ClientID != "" {
		query = query.Where(squirrel.Eq{"client_id": filter.ClientID})
	}
	if filter.StylistID != "" {
		query = query.Where(squirrel.Eq{"stylist_id": filter.StylistID})
	}
	if filter.Status != "" {
		query = query.Where(squirrel.Eq{"status": filter.Status})
	}
	// Date range filtering (intersection logic)
	if filter.From != nil {
		query = query.Where(squirrel.GtOrEq{"end_time": filter.From})
	}
	if filter.To != nil {
		query = query.Where(squirrel.LtOrEq{"start_time": filter.To})
	}

	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.PageSize < 1 {
		filter.PageSize = 20
	}
	offset := (filter.Page - 1) * filter.PageSize

	query = query.OrderBy("start_time DESC").
		Limit(uint64(filter.PageSize)).
		Offset(uint64(offset))

	sql, args, err := query.ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("build list bookings query failed: %w", err)
	}

	rows, err := db.Q(ctx, r.pool).Query(ctx, sql, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list bookings failed: %w", err)
	}
	defer rows.Close()

	var bookings []*Booking
	var total int

	for rows.Next() {
		var b Booking
		if err := rows.Scan(
			&b.ID, &b.ClientID, &b.StylistID, &b.ServiceID, &b.StartTime, &b.EndTime,
			&b.PriceCents, &b.Status, &b.CaptureID, &b.ResponseDeadline, &b.ConfirmDeadline,
			&b.CreatedAt, &b.UpdatedAt, &total,
		); err != nil {
			return nil, 0, fmt.Errorf("scan booking failed: %w", err)
		}
		bookings = append(bookings, &b)
	}

	return bookings, total, rows.Err()
}

func (r *pgxRepository) UpdateStatusCAS(ctx context.Context, id string, from, to Status, update CASUpdate) (bool, error) {
	q := psql.Update("bookings").
		Set("status", to).
		Set("updated_at", squirrel.Expr("now()")).
		Where(squirrel.Eq{"id": id, "status": from})

	if update.CaptureID != nil {
		q = q.Set("capture_id", *update.CaptureID)
	}
	if update.ResponseDeadline != nil {
		q = q.Set("response_deadline", *update.ResponseDeadline)
	}
	if update.ConfirmDeadline != nil {
		q = q.Set("confirm_deadline", *update.ConfirmDeadline)
	}

	query, args, err := q.ToSql()
	if err != nil {
		return false, fmt.Errorf("build status CAS query failed: %w", err)
	}

	ct, err := db.Q(ctx, r.pool).Exec(ctx, query, args...)
	if err != nil {
		return false, fmt.Errorf("status CAS failed: %w", err)
	}
	return ct.RowsAffected() == 1, nil
}

func (r *pgxRepository) CountCompletedByHour(ctx context.Context, stylistID string) ([24]int, error) {
	var histogram [24]int

	query, args, err := psql.Select("extract(hour FROM start_time)::int AS hour", "count(*)").
		From("bookings").
		Where(squirrel.Eq{"stylist_id": stylistID, "status": StatusCompleted}).
		GroupBy("hour").
		ToSql()
	if err != nil {
		return histogram, fmt.Errorf("build hour histogram query failed: %w", err)
	}

	rows, err := db.Q(ctx, r.pool).Query(ctx, query, args...)
	if err != nil {
		return histogram, fmt.Errorf("hour histogram failed: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var hour, count int
		if err := rows.Scan(&hour, &count); err != nil {
			return histogram, fmt.Errorf("scan histogram row failed: %w", err)
		}
		if hour >= 0 && hour < 24 {
			histogram[hour] = count
		}
	}
	return histogram, rows.Err()
}

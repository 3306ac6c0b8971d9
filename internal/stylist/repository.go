package stylist

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/glowbook/beauty-booking-backend/internal/db"
)

type Repository interface {
	GetSchedule(ctx context.Context, stylistID string) (WeeklySchedule, error)
	UpsertSchedule(ctx context.Context, stylistID string, schedule WeeklySchedule) error

	ListBlocks(ctx context.Context, stylistID string, from, to time.Time) ([]*Block, error)
	CreateBlock(ctx context.Context, block *Block) error
	DeleteBlock(ctx context.Context, stylistID, blockID string) error

	GetService(ctx context.Context, serviceID string) (*Service, error)
	ListServices(ctx context.Context, stylistID string) ([]*Service, error)
	CreateService(ctx context.Context, svc *Service) error
}

type pgxRepository struct {
	pool *pgxpool.Pool
}

func NewPgxRepository(pool *pgxpool.Pool) Repository {
	return &pgxRepository{pool: pool}
}

var psql = squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)

func (r *pgxRepository) GetSchedule(ctx context.Context, stylistID string) (WeeklySchedule, error) {
	var schedule WeeklySchedule
	for i := range schedule {
		schedule[i] = DaySchedule{Weekday: time.Weekday(i)}
	}

	query, args, err := psql.Select("weekday", "is_open", "open_time", "close_time").
		From("stylist_schedules").
		Where(squirrel.Eq{"stylist_id": stylistID}).
		ToSql()
	if err != nil {
		return schedule, fmt.Errorf("build get schedule query failed: %w", err)
	}

	rows, err := db.Q(ctx, r.pool).Query(ctx, query, args...)
	if err != nil {
		return schedule, fmt.Errorf("get schedule failed: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			weekday     int
			isOpen      bool
			open, close *string
		)
		if err := rows.Scan(&weekday, &isOpen, &open, &close); err != nil {
			return schedule, fmt.Errorf("scan schedule row failed: %w", err)
		}
		if weekday < 0 || weekday > 6 {
			continue
		}
		day := DaySchedule{Weekday: time.Weekday(weekday), IsOpen: isOpen}
		if open != nil {
			day.Open = *open
		}
		if close != nil {
			day.Close = *close
		}
		schedule[weekday] = day
	}
	return schedule, rows.Err()
}

func (r *pgxRepository) UpsertSchedule(ctx context.Context, stylistID string, schedule WeeklySchedule) error {
	return db.WithTx(ctx, r.pool, func(ctx context.Context) error {
		for i, day := range schedule {
			var open, close *string
			if day.IsOpen {
				o, c := day.Open, day.Close
				open, close = &o, &c
			}
			query, args, err := psql.Insert("stylist_schedules").
				Columns("stylist_id", "weekday", "is_open", "open_time", "close_time", "updated_at").
				Values(stylistID, i, day.IsOpen, open, close, squirrel.Expr("now()")).
				Suffix(`ON CONFLICT (stylist_id, weekday) DO UPDATE
					SET is_open = EXCLUDED.is_open,
					    open_time = EXCLUDED.open_time,
					    close_time = EXCLUDED.close_time,
					    updated_at = now()`).
				ToSql()
			if err != nil {
				return fmt.Errorf("build upsert schedule query failed: %w", err)
			}
			if _, err := db.Q(ctx, r.pool).Exec(ctx, query, args...); err != nil {
				return fmt.Errorf("upsert schedule day %d failed: %w", i, err)
			}
		}
		return nil
	})
}

func (r *pgxRepository) ListBlocks(ctx context.Context, stylistID string, from, to time.Time) ([]*Block, error) {
	query, args, err := psql.Select("id", "stylist_id", "lower(during)", "upper(during)", "reason", "created_at").
		From("stylist_blocks").
		Where(squirrel.Eq{"stylist_id": stylistID}).
		Where("during && tstzrange(?, ?, '[)')", from, to).
		OrderBy("lower(during)").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build list blocks query failed: %w", err)
	}

	rows, err := db.Q(ctx, r.pool).Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list blocks failed: %w", err)
	}
	defer rows.Close()

	var blocks []*Block
	for rows.Next() {
		var b Block
		if err := rows.Scan(&b.ID, &b.StylistID, &b.Start, &b.End, &b.Reason, &b.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan block failed: %w", err)
		}
		blocks = append(blocks, &b)
	}
	return blocks, rows.Err()
}

func (r *pgxRepository) CreateBlock(ctx context.Context, b *Block) error {
	query, args, err := psql.Insert("stylist_blocks").
		Columns("stylist_id", "during", "reason").
		Values(b.StylistID, squirrel.Expr("tstzrange(?, ?, '[)')", b.Start, b.End), b.Reason).
		Suffix("RETURNING id, created_at").
		ToSql()
	if err != nil {
		return fmt.Errorf("build create block query failed: %w", err)
	}

	return db.Q(ctx, r.pool).QueryRow(ctx, query, args...).Scan(&b.ID, &b.CreatedAt)
}

func (r *pgxRepository) DeleteBlock(ctx context.Context, stylistID, blockID string) error {
	query, args, err := psql.Delete("stylist_blocks").
		Where(squirrel.Eq{"id": blockID, "stylist_id": stylistID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build delete block query failed: %w", err)
	}

	ct, err := db.Q(ctx, r.pool).Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("delete block failed: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return ErrBlockNotFound
	}
	return nil
}

func (r *pgxRepository) GetService(ctx context.Context, serviceID string) (*Service, error) {
	query, args, err := psql.Select("id", "stylist_id", "name", "duration_minutes", "price_cents", "active", "created_at").
		From("services").
		Where(squirrel.Eq{"id": serviceID}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build get service query failed: %w", err)
	}

	var s Service
	row := db.Q(ctx, r.pool).QueryRow(ctx, query, args...)
	if err := row.Scan(&s.ID, &s.StylistID, &s.Name, &s.DurationMinutes, &s.PriceCents, &s.Active, &s.CreatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrServiceNotFound
		}
		return nil, fmt.Errorf("get service failed: %w", err)
	}
	return &s, nil
}

func (r *pgxRepository) ListServices(ctx context.Context, stylistID string) ([]*Service, error) {
	query, args, err := psql.Select("id", "stylist_id", "name", "duration_minutes", "price_cents", "active", "created_at").
		From("services").
		Where(squirrel.Eq{"stylist_id": stylistID, "active": true}).
		OrderBy("name").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build list services query failed: %w", err)
	}

	rows, err := db.Q(ctx, r.pool).Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list services failed: %w", err)
	}
	defer rows.Close()

	var services []*Service
	for rows.Next() {
		var s Service
		if err := rows.Scan(&s.ID, &s.StylistID, &s.Name, &s.DurationMinutes, &s.PriceCents, &s.Active, &s.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan service failed: %w", err)
		}
		services = append(services, &s)
	}
	return services, rows.Err()
}

func (r *pgxRepository) CreateService(ctx context.Context, s *Service) error {
	query, args, err := psql.Insert("services").
		Columns("stylist_id", "name", "duration_minutes", "price_cents", "active").
		Values(s.StylistID, s.Name, s.DurationMinutes, s.PriceCents, s.Active).
		Suffix("RETURNING id, created_at").
		ToSql()
	if err != nil {
		return fmt.Errorf("build create service query failed: %w", err)
	}

	if err := db.Q(ctx, r.pool).QueryRow(ctx, query, args...).Scan(&s.ID, &s.CreatedAt); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation {
			return ErrDuplicateService
		}
		return fmt.Errorf("create service failed: %w", err)
	}
	return nil
}

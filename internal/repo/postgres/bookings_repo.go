package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/vaxpoint/bookings/internal/domain"
	"github.com/vaxpoint/bookings/internal/slots"
)

type BookingRepository interface {
	Create(ctx context.Context, b *domain.Booking) (*domain.Booking, error)
	FindByOwner(ctx context.Context, phone int64) (*domain.Booking, error)
	ListByDate(ctx context.Context, date time.Time) ([]domain.Booking, error)
	UpdateSlot(ctx context.Context, phone int64, date time.Time, label string) (*domain.Booking, error)
	List(ctx context.Context, filter domain.BookingFilter, limit, offset int) ([]domain.Booking, error)
}

type bookingRepository struct {
	pool *pgxpool.Pool
}

func NewBookingRepository(pool *pgxpool.Pool) BookingRepository {
	return &bookingRepository{pool: pool}
}

const bookingCols = `id, owner_phone, slot_date, slot_time, dose_type, created_at, updated_at`

// Create inserts a booking while holding a per-(date, slot) advisory
// lock, so the capacity count and the insert are a single serialized
// step. The unique constraint on owner_phone closes the same race for
// the one-booking-per-user invariant.
func (r *bookingRepository) Create(ctx context.Context, b *domain.Booking) (*domain.Booking, error) {
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, domain.StoreError(err)
	}
	defer tx.Rollback(ctx)

	slotKey := fmt.Sprintf("%s|%s", b.SlotDate.Format("2006-01-02"), b.SlotTime)
	if _, err := tx.Exec(ctx, `SELECT pg_advisory_xact_lock(hashtext($1))`, slotKey); err != nil {
		return nil, domain.StoreError(err)
	}

	var count int
	err = tx.QueryRow(ctx,
		`SELECT COUNT(*) FROM bookings WHERE slot_date=$1 AND slot_time=$2`,
		b.SlotDate, b.SlotTime,
	).Scan(&count)
	if err != nil {
		return nil, domain.StoreError(err)
	}
	if count >= slots.Capacity {
		return nil, domain.ErrSlotFull
	}

	const q = `INSERT INTO bookings (owner_phone, slot_date, slot_time, dose_type)
	VALUES ($1,$2,$3,$4)
	RETURNING ` + bookingCols

	var created domain.Booking
	err = tx.QueryRow(ctx, q, b.OwnerPhone, b.SlotDate, b.SlotTime, b.DoseType).Scan(
		&created.ID, &created.OwnerPhone, &created.SlotDate, &created.SlotTime,
		&created.DoseType, &created.CreatedAt, &created.UpdatedAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return nil, domain.ErrAlreadyBooked
		}
		return nil, domain.StoreError(err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, domain.StoreError(err)
	}
	return &created, nil
}

func (r *bookingRepository) FindByOwner(ctx context.Context, phone int64) (*domain.Booking, error) {
	const q = `SELECT ` + bookingCols + ` FROM bookings WHERE owner_phone=$1`

	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	var b domain.Booking
	err := r.pool.QueryRow(ctx, q, phone).Scan(
		&b.ID, &b.OwnerPhone, &b.SlotDate, &b.SlotTime,
		&b.DoseType, &b.CreatedAt, &b.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, domain.StoreError(err)
	}
	return &b, nil
}

func (r *bookingRepository) ListByDate(ctx context.Context, date time.Time) ([]domain.Booking, error) {
	const q = `SELECT ` + bookingCols + ` FROM bookings WHERE slot_date=$1`

	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	rows, err := r.pool.Query(ctx, q, date)
	if err != nil {
		return nil, domain.StoreError(err)
	}
	defer rows.Close()

	return scanBookings(rows)
}

func (r *bookingRepository) UpdateSlot(ctx context.Context, phone int64, date time.Time, label string) (*domain.Booking, error) {
	const q = `UPDATE bookings
	SET slot_date=$2, slot_time=$3, updated_at=now()
	WHERE owner_phone=$1
	RETURNING ` + bookingCols

	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	var b domain.Booking
	err := r.pool.QueryRow(ctx, q, phone, date, label).Scan(
		&b.ID, &b.OwnerPhone, &b.SlotDate, &b.SlotTime,
		&b.DoseType, &b.CreatedAt, &b.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, domain.StoreError(err)
	}
	return &b, nil
}

func (r *bookingRepository) List(ctx context.Context, filter domain.BookingFilter, limit, offset int) ([]domain.Booking, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}

	q := `SELECT ` + bookingCols + ` FROM bookings WHERE 1=1`
	var args []any
	if filter.Date != nil {
		args = append(args, *filter.Date)
		q += fmt.Sprintf(` AND slot_date=$%d`, len(args))
	}
	if filter.Time != nil {
		args = append(args, *filter.Time)
		q += fmt.Sprintf(` AND slot_time=$%d`, len(args))
	}
	if filter.DoseType != nil {
		args = append(args, *filter.DoseType)
		q += fmt.Sprintf(` AND dose_type=$%d`, len(args))
	}
	if filter.OwnerPhone != nil {
		args = append(args, *filter.OwnerPhone)
		q += fmt.Sprintf(` AND owner_phone=$%d`, len(args))
	}
	args = append(args, limit, offset)
	q += fmt.Sprintf(` ORDER BY slot_date, slot_time LIMIT $%d OFFSET $%d`, len(args)-1, len(args))

	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	rows, err := r.pool.Query(ctx, q, args...)
	if err != nil {
		return nil, domain.StoreError(err)
	}
	defer rows.Close()

	return scanBookings(rows)
}

func scanBookings(rows pgx.Rows) ([]domain.Booking, error) {
	var bookings []domain.Booking
	for rows.Next() {
		var b domain.Booking
		if err := rows.Scan(
			&b.ID, &b.OwnerPhone, &b.SlotDate, &b.SlotTime,
			&b.DoseType, &b.CreatedAt, &b.UpdatedAt,
		); err != nil {
			return nil, domain.StoreError(err)
		}
		bookings = append(bookings, b)
	}
	if err := rows.Err(); err != nil {
		return nil, domain.StoreError(err)
	}
	return bookings, nil
}

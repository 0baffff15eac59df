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
)

type UserRepository interface {
	Create(ctx context.Context, u *domain.User) (*domain.User, error)
	FindByPhone(ctx context.Context, phone int64) (*domain.User, error)
	List(ctx context.Context, filter domain.UserFilter, limit, offset int) ([]domain.User, error)
}

type userRepository struct {
	pool *pgxpool.Pool
}

func NewUserRepository(pool *pgxpool.Pool) UserRepository {
	return &userRepository{pool: pool}
}

const userCols = `id, name, phone, age, pincode, aadhaar, email,
password_hash, vaccination_status, role, created_at, updated_at`

const uniqueViolation = "23505"

func (r *userRepository) Create(ctx context.Context, u *domain.User) (*domain.User, error) {
	const q = `INSERT INTO users (
		name, phone, age, pincode, aadhaar, email,
		password_hash, vaccination_status, role
	) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
	RETURNING ` + userCols

	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	var created domain.User
	err := r.pool.QueryRow(ctx, q,
		u.Name, u.Phone, u.Age, u.Pincode, u.Aadhaar, u.Email,
		u.PasswordHash, u.VaccinationStatus, u.Role,
	).Scan(
		&created.ID, &created.Name, &created.Phone, &created.Age,
		&created.Pincode, &created.Aadhaar, &created.Email,
		&created.PasswordHash, &created.VaccinationStatus, &created.Role,
		&created.CreatedAt, &created.UpdatedAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return nil, domain.ErrUserExists
		}
		return nil, domain.StoreError(err)
	}
	return &created, nil
}

func (r *userRepository) FindByPhone(ctx context.Context, phone int64) (*domain.User, error) {
	const q = `SELECT ` + userCols + ` FROM users WHERE phone=$1`

	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	var u domain.User
	err := r.pool.QueryRow(ctx, q, phone).Scan(
		&u.ID, &u.Name, &u.Phone, &u.Age,
		&u.Pincode, &u.Aadhaar, &u.Email,
		&u.PasswordHash, &u.VaccinationStatus, &u.Role,
		&u.CreatedAt, &u.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, domain.StoreError(err)
	}
	return &u, nil
}

func (r *userRepository) List(ctx context.Context, filter domain.UserFilter, limit, offset int) ([]domain.User, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}

	q := `SELECT ` + userCols + ` FROM users WHERE 1=1`
	var args []any
	if filter.Age != nil {
		args = append(args, *filter.Age)
		q += fmt.Sprintf(` AND age=$%d`, len(args))
	}
	if filter.Pincode != nil {
		args = append(args, *filter.Pincode)
		q += fmt.Sprintf(` AND pincode=$%d`, len(args))
	}
	if filter.VaccinationStatus != nil {
		args = append(args, *filter.VaccinationStatus)
		q += fmt.Sprintf(` AND vaccination_status=$%d`, len(args))
	}
	if filter.Role != nil {
		args = append(args, *filter.Role)
		q += fmt.Sprintf(` AND role=$%d`, len(args))
	}
	args = append(args, limit, offset)
	q += fmt.Sprintf(` ORDER BY created_at DESC LIMIT $%d OFFSET $%d`, len(args)-1, len(args))

	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	rows, err := r.pool.Query(ctx, q, args...)
	if err != nil {
		return nil, domain.StoreError(err)
	}
	defer rows.Close()

	var users []domain.User
	for rows.Next() {
		var u domain.User
		if err := rows.Scan(
			&u.ID, &u.Name, &u.Phone, &u.Age,
			&u.Pincode, &u.Aadhaar, &u.Email,
			&u.PasswordHash, &u.VaccinationStatus, &u.Role,
			&u.CreatedAt, &u.UpdatedAt,
		); err != nil {
			return nil, domain.StoreError(err)
		}
		users = append(users, u)
	}
	if err := rows.Err(); err != nil {
		return nil, domain.StoreError(err)
	}
	return users, nil
}

package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"authapi/internal/domain/entity"
	"authapi/internal/domain/repository"
)

const uniqueViolation = "23505"

type UserRepository struct {
	pool *pgxpool.Pool
}

func NewUserRepository(pool *pgxpool.Pool) *UserRepository {
	return &UserRepository{pool: pool}
}

func (r *UserRepository) Create(ctx context.Context, u *entity.User) error {
	row := r.pool.QueryRow(ctx, `
		INSERT INTO users (full_name, email, password_hash, gender, phone, birth_date, avatar_url)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, created_at, updated_at
	`, u.FullName, u.Email, u.PasswordHash, u.Gender, u.Phone, u.BirthDate, u.AvatarURL)

	if err := row.Scan(&u.ID, &u.CreatedAt, &u.UpdatedAt); err != nil {
		return mapErr(err)
	}
	return nil
}

func (r *UserRepository) GetByID(ctx context.Context, id string) (*entity.User, error) {
	u := &entity.User{}
	row := r.pool.QueryRow(ctx, `
		SELECT id, full_name, email, gender, phone, birth_date, avatar_url, created_at, updated_at
		FROM users
		WHERE id = $1
	`, id)
	if err := row.Scan(&u.ID, &u.FullName, &u.Email, &u.Gender, &u.Phone,
		&u.BirthDate, &u.AvatarURL, &u.CreatedAt, &u.UpdatedAt); err != nil {
		return nil, mapErr(err)
	}
	return u, nil
}

// GetByEmail looks a record up by its lowercased email. The password hash
// is only scanned when withPassword is set (login verification).
func (r *UserRepository) GetByEmail(ctx context.Context, email string, withPassword bool) (*entity.User, error) {
	u := &entity.User{}
	if withPassword {
		row := r.pool.QueryRow(ctx, `
			SELECT id, full_name, email, password_hash, gender, phone, birth_date, avatar_url, created_at, updated_at
			FROM users
			WHERE email = lower($1)
		`, email)
		if err := row.Scan(&u.ID, &u.FullName, &u.Email, &u.PasswordHash, &u.Gender, &u.Phone,
			&u.BirthDate, &u.AvatarURL, &u.CreatedAt, &u.UpdatedAt); err != nil {
			return nil, mapErr(err)
		}
		return u, nil
	}
	row := r.pool.QueryRow(ctx, `
		SELECT id, full_name, email, gender, phone, birth_date, avatar_url, created_at, updated_at
		FROM users
		WHERE email = lower($1)
	`, email)
	if err := row.Scan(&u.ID, &u.FullName, &u.Email, &u.Gender, &u.Phone,
		&u.BirthDate, &u.AvatarURL, &u.CreatedAt, &u.UpdatedAt); err != nil {
		return nil, mapErr(err)
	}
	return u, nil
}

// Update persists profile fields. password_hash is deliberately absent
// from the statement so a profile mutation can never corrupt the hash.
func (r *UserRepository) Update(ctx context.Context, u *entity.User) error {
	u.UpdatedAt = time.Now()

	res, err := r.pool.Exec(ctx, `
		UPDATE users
		SET full_name = $1, email = $2, gender = $3, phone = $4, birth_date = $5, avatar_url = $6, updated_at = $7
		WHERE id = $8
	`, u.FullName, u.Email, u.Gender, u.Phone, u.BirthDate, u.AvatarURL, u.UpdatedAt, u.ID)
	if err != nil {
		return mapErr(err)
	}
	if res.RowsAffected() == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func (r *UserRepository) UpdatePassword(ctx context.Context, id, hash string) error {
	res, err := r.pool.Exec(ctx, `
		UPDATE users SET password_hash = $1, updated_at = now() WHERE id = $2
	`, hash, id)
	if err != nil {
		return mapErr(err)
	}
	if res.RowsAffected() == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func (r *UserRepository) List(ctx context.Context) ([]*entity.User, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, full_name, email, gender, phone, birth_date, avatar_url, created_at, updated_at
		FROM users
		ORDER BY created_at
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*entity.User
	for rows.Next() {
		u := &entity.User{}
		if err := rows.Scan(&u.ID, &u.FullName, &u.Email, &u.Gender, &u.Phone,
			&u.BirthDate, &u.AvatarURL, &u.CreatedAt, &u.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, u)
	}
	return out, rows.Err()
}

func mapErr(err error) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return repository.ErrNotFound
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		return repository.ErrDuplicateEmail
	}
	return err
}

var _ repository.UserRepository = (*UserRepository)(nil)

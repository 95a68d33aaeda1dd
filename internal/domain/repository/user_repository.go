package repository

import (
	"context"
	"errors"

	"authapi/internal/domain/entity"
)

// Store outcomes the application layer cares about. ErrDuplicateEmail is
// also how a registration race lost at the store surfaces: the unique
// index, not the pre-check, is authoritative.
var (
	ErrNotFound       = errors.New("user not found")
	ErrDuplicateEmail = errors.New("email already registered")
)

// UserRepository defines the store contract for user credential records.
// The password hash is excluded from reads unless explicitly requested,
// and is written only through Create and UpdatePassword.
type UserRepository interface {
	Create(ctx context.Context, u *entity.User) error
	GetByID(ctx context.Context, id string) (*entity.User, error)
	GetByEmail(ctx context.Context, email string, withPassword bool) (*entity.User, error)
	// Update persists profile fields only; it never touches the hash.
	Update(ctx context.Context, u *entity.User) error
	UpdatePassword(ctx context.Context, id, hash string) error
	List(ctx context.Context) ([]*entity.User, error)
}

package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/tuanvumaihuynh/sweetshop/internal/apperr"
	"github.com/tuanvumaihuynh/sweetshop/internal/model"
	"github.com/tuanvumaihuynh/sweetshop/internal/storage/db"
)

// ErrUserNotFound is returned when no user matches the lookup.
var ErrUserNotFound = errors.New("user not found")

type UserRepository interface {
	WithDB(db db.DB) UserRepository
	CreateUser(ctx context.Context, user model.User) error
	// CreateUserIfAbsent inserts user unless the email is taken and reports
	// whether a row was written.
	CreateUserIfAbsent(ctx context.Context, user model.User) (bool, error)
	GetUserByEmail(ctx context.Context, email string) (model.User, error)
}

type userRepository struct {
	db db.DB
}

func NewUserRepository(db db.DB) UserRepository {
	return &userRepository{
		db: db,
	}
}

func (r userRepository) WithDB(db db.DB) UserRepository {
	return &userRepository{
		db: db,
	}
}

func (r userRepository) CreateUser(ctx context.Context, user model.User) error {
	_, err := r.db.Exec(ctx, `
		INSERT INTO users (id, email, password_hash, role, created_at)
		VALUES (@id, @email, @password_hash, @role, @created_at)
	`, userArgs(user))
	if err != nil {
		if _, ok := db.UniqueViolation(err); ok {
			return fmt.Errorf("create user: %w", apperr.EmailTakenErr.WrapParent(err))
		}
		return wrapErr("create user", err)
	}

	return nil
}

func (r userRepository) CreateUserIfAbsent(ctx context.Context, user model.User) (bool, error) {
	tag, err := r.db.Exec(ctx, `
		INSERT INTO users (id, email, password_hash, role, created_at)
		VALUES (@id, @email, @password_hash, @role, @created_at)
		ON CONFLICT (email) DO NOTHING
	`, userArgs(user))
	if err != nil {
		return false, wrapErr("create user if absent", err)
	}

	return tag.RowsAffected() == 1, nil
}

func (r userRepository) GetUserByEmail(ctx context.Context, email string) (model.User, error) {
	var user model.User
	err := r.db.QueryRow(ctx, `
		SELECT id, email, password_hash, role, created_at
		FROM users
		WHERE email = @email
	`, pgx.NamedArgs{"email": email}).Scan(
		&user.ID,
		&user.Email,
		&user.PasswordHash,
		&user.Role,
		&user.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.User{}, fmt.Errorf("get user by email: %w", ErrUserNotFound)
		}
		return model.User{}, wrapErr("get user by email", err)
	}

	return user, nil
}

func userArgs(user model.User) pgx.NamedArgs {
	return pgx.NamedArgs{
		"id":            user.ID,
		"email":         user.Email,
		"password_hash": user.PasswordHash,
		"role":          string(user.Role),
		"created_at":    user.CreatedAt,
	}
}

// internal/handlers/user-account/repository.go
package useraccount

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"shop-assistant/internal/models"
)

var (
	ErrUserExists   = errors.New("USER_EXISTS")
	ErrUserNotFound = errors.New("USER_NOT_FOUND")
)

const uniqueViolation = "23505"

const (
	insertUser        = `INSERT INTO users (id, first_name, last_name, email, password_hash, phone_number, role) VALUES ($1, $2, $3, $4, $5, $6, $7) RETURNING created_at`
	selectUserByEmail = `SELECT id, first_name, last_name, email, password_hash, role, created_at FROM users WHERE email = $1`
)

// Repository persists accounts in the users table.
type Repository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) Create(ctx context.Context, u *models.User) error {
	phone := sql.NullString{String: u.PhoneNumber, Valid: u.PhoneNumber != ""}
	err := r.db.QueryRowContext(ctx, insertUser,
		u.ID, u.FirstName, u.LastName, u.Email, u.PasswordHash, phone, u.Role,
	).Scan(&u.CreatedAt)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
			return ErrUserExists
		}
		return fmt.Errorf("insert user: %w", err)
	}
	return nil
}

func (r *Repository) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	var u models.User
	err := r.db.QueryRowContext(ctx, selectUserByEmail, email).Scan(
		&u.ID, &u.FirstName, &u.LastName, &u.Email, &u.PasswordHash, &u.Role, &u.CreatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find user: %w", err)
	}
	return &u, nil
}

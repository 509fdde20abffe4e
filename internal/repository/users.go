package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"todo-api/internal/apperror"
	"todo-api/internal/models"
	"todo-api/pkg/logger"
)

const uniqueViolation = "23505"

// Users is the Postgres account store.
type Users struct {
	db *sql.DB
}

func NewUsers(db *sql.DB) *Users {
	return &Users{db: db}
}

// Create inserts the user. Email uniqueness is left to the users_email_key
// constraint so concurrent registrations cannot both succeed.
func (r *Users) Create(ctx context.Context, user *models.User) error {
	user.ID = uuid.New().String()
	ts := now()
	user.CreatedAt = ts
	user.UpdatedAt = ts
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO users (id, email, name, password_hash, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		user.ID, user.Email, user.Name, user.PasswordHash, user.CreatedAt, user.UpdatedAt)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
			return apperror.DuplicateEmail()
		}
		logger.Error(ctx, "Repository CreateUser failed", "error", err)
		return apperror.Storage("users.create", err)
	}
	return nil
}

func (r *Users) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	var u models.User
	err := r.db.QueryRowContext(ctx,
		`SELECT id, email, name, password_hash, created_at, updated_at FROM users WHERE email = $1`, email,
	).Scan(&u.ID, &u.Email, &u.Name, &u.PasswordHash, &u.CreatedAt, &u.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperror.NotFound("user")
	}
	if err != nil {
		logger.Error(ctx, "Repository GetUserByEmail failed", "error", err)
		return nil, apperror.Storage("users.get_by_email", err)
	}
	return &u, nil
}

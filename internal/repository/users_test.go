package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"todo-api/internal/apperror"
	"todo-api/internal/models"
)

func TestUsers_Create(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewUsers(db)

	mock.ExpectExec(`INSERT INTO users`).
		WithArgs(sqlmock.AnyArg(), "a@x.com", "A", "$2a$hash", sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))

	u := &models.User{Email: "a@x.com", Name: "A", PasswordHash: "$2a$hash"}
	require.NoError(t, repo.Create(context.Background(), u))
	assert.NotEmpty(t, u.ID)
	assert.False(t, u.CreatedAt.IsZero())
}

func TestUsers_Create_UniqueViolation(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewUsers(db)

	mock.ExpectExec(`INSERT INTO users`).
		WillReturnError(&pq.Error{Code: "23505", Constraint: "users_email_key"})

	err := repo.Create(context.Background(), &models.User{Email: "a@x.com"})
	assert.ErrorIs(t, err, apperror.ErrDuplicateEmail)
}

func TestUsers_Create_OtherFailure(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewUsers(db)

	mock.ExpectExec(`INSERT INTO users`).WillReturnError(errors.New("connection reset"))

	err := repo.Create(context.Background(), &models.User{Email: "a@x.com"})
	assert.ErrorIs(t, err, apperror.ErrStorage)
	assert.NotErrorIs(t, err, apperror.ErrDuplicateEmail)
}

func TestUsers_GetByEmail(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewUsers(db)
	ts := time.Now()

	mock.ExpectQuery(`FROM users WHERE email = \$1`).
		WithArgs("a@x.com").
		WillReturnRows(sqlmock.NewRows([]string{"id", "email", "name", "password_hash", "created_at", "updated_at"}).
			AddRow("u-1", "a@x.com", "A", "$2a$hash", ts, ts))

	u, err := repo.GetByEmail(context.Background(), "a@x.com")
	require.NoError(t, err)
	assert.Equal(t, "u-1", u.ID)
	assert.Equal(t, "$2a$hash", u.PasswordHash)
}

func TestUsers_GetByEmail_NotFound(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewUsers(db)

	mock.ExpectQuery(`FROM users WHERE email = \$1`).
		WithArgs("ghost@x.com").
		WillReturnRows(sqlmock.NewRows([]string{"id", "email", "name", "password_hash", "created_at", "updated_at"}))

	_, err := repo.GetByEmail(context.Background(), "ghost@x.com")
	assert.ErrorIs(t, err, apperror.ErrNotFound)
}

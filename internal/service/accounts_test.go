package service

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"todo-api/internal/apperror"
	"todo-api/internal/auth"
	"todo-api/internal/models"
	"todo-api/internal/repository/memory"
)

func newTestAccounts() *AccountService {
	return NewAccountService(memory.NewUsers(), auth.NewPasswordHasher(4))
}

func TestRegisterThenLogin_SameUser(t *testing.T) {
	svc := newTestAccounts()
	ctx := context.Background()

	user, err := svc.Register(ctx, "a@x.com", "A", "pw123456")
	require.NoError(t, err)
	assert.NotEmpty(t, user.ID)
	assert.Equal(t, "a@x.com", user.Email)
	assert.NotEqual(t, "pw123456", user.PasswordHash)

	got, err := svc.Login(ctx, "a@x.com", "pw123456")
	require.NoError(t, err)
	assert.Equal(t, user.ID, got.ID)
}

func TestRegister_NormalizesEmail(t *testing.T) {
	svc := newTestAccounts()
	ctx := context.Background()

	user, err := svc.Register(ctx, "  Alice@Example.COM ", "Alice", "pw123456")
	require.NoError(t, err)
	assert.Equal(t, "alice@example.com", user.Email)

	_, err = svc.Register(ctx, "alice@example.com", "Other", "pw123456")
	assert.ErrorIs(t, err, apperror.ErrDuplicateEmail)

	got, err := svc.Login(ctx, "ALICE@example.com", "pw123456")
	require.NoError(t, err)
	assert.Equal(t, user.ID, got.ID)
}

func TestRegister_Validation(t *testing.T) {
	svc := newTestAccounts()
	ctx := context.Background()

	tests := []struct {
		name, email, user, password, field string
	}{
		{"empty email", "", "A", "pw123456", "email"},
		{"email without at", "ax.com", "A", "pw123456", "email"},
		{"blank name", "a@x.com", "  ", "pw123456", "name"},
		{"short password", "a@x.com", "A", "short", "password"},
		{"password over 72 bytes", "a@x.com", "A", strings.Repeat("p", 73), "password"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Register(ctx, tt.email, tt.user, tt.password)
			require.ErrorIs(t, err, apperror.ErrValidation)
			var appErr *apperror.AppError
			require.True(t, errors.As(err, &appErr))
			assert.Equal(t, tt.field, appErr.Field)
		})
	}
}

func TestLogin_FailuresAreIndistinguishable(t *testing.T) {
	svc := newTestAccounts()
	ctx := context.Background()
	_, err := svc.Register(ctx, "a@x.com", "A", "pw123456")
	require.NoError(t, err)

	_, wrongPassword := svc.Login(ctx, "a@x.com", "wrong-password")
	_, unknownEmail := svc.Login(ctx, "nobody@x.com", "pw123456")

	require.ErrorIs(t, wrongPassword, apperror.ErrUnauthenticated)
	require.ErrorIs(t, unknownEmail, apperror.ErrUnauthenticated)
	assert.Equal(t, wrongPassword.Error(), unknownEmail.Error())
}

func TestLogin_OverLongPasswordFailsLikeUnknownEmail(t *testing.T) {
	svc := newTestAccounts()
	ctx := context.Background()
	_, err := svc.Register(ctx, "a@x.com", "A", "pw123456")
	require.NoError(t, err)

	long := strings.Repeat("p", 73)
	_, known := svc.Login(ctx, "a@x.com", long)
	_, unknown := svc.Login(ctx, "nobody@x.com", long)

	require.ErrorIs(t, known, apperror.ErrUnauthenticated)
	require.ErrorIs(t, unknown, apperror.ErrUnauthenticated)
	assert.Equal(t, known.Error(), unknown.Error())
}

type failingUsers struct{ err error }

func (f failingUsers) Create(context.Context, *models.User) error { return f.err }

func (f failingUsers) GetByEmail(context.Context, string) (*models.User, error) {
	return nil, f.err
}

func TestAccounts_StorageErrorsPropagate(t *testing.T) {
	storageErr := apperror.Storage("users.get", errors.New("connection refused"))
	svc := NewAccountService(failingUsers{err: storageErr}, auth.NewPasswordHasher(4))
	ctx := context.Background()

	_, err := svc.Login(ctx, "a@x.com", "pw123456")
	assert.ErrorIs(t, err, apperror.ErrStorage)
	assert.NotErrorIs(t, err, apperror.ErrUnauthenticated)

	_, err = svc.Register(ctx, "a@x.com", "A", "pw123456")
	assert.ErrorIs(t, err, apperror.ErrStorage)
}

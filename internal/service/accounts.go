package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"todo-api/internal/apperror"
	"todo-api/internal/auth"
	"todo-api/internal/models"
	"todo-api/pkg/logger"
)

const MinPasswordBytes = 8

// UserRepository persists accounts. Create must return
// apperror.ErrDuplicateEmail when the email is taken and GetByEmail must
// return apperror.ErrNotFound for unknown emails.
type UserRepository interface {
	Create(ctx context.Context, user *models.User) error
	GetByEmail(ctx context.Context, email string) (*models.User, error)
}

type AccountService struct {
	users  UserRepository
	hasher *auth.PasswordHasher
}

func NewAccountService(users UserRepository, hasher *auth.PasswordHasher) *AccountService {
	return &AccountService{users: users, hasher: hasher}
}

// NormalizeEmail is applied before every uniqueness check, insert and lookup.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Register creates an account. Uniqueness is left to the store so two
// concurrent registrations for one email cannot both succeed.
func (s *AccountService) Register(ctx context.Context, email, name, password string) (*models.User, error) {
	email = NormalizeEmail(email)
	name = strings.TrimSpace(name)
	switch {
	case email == "" || !strings.Contains(email, "@"):
		return nil, apperror.Validation("email", "a valid email is required")
	case name == "":
		return nil, apperror.Validation("name", "name is required")
	case len(password) < MinPasswordBytes:
		return nil, apperror.Validation("password", fmt.Sprintf("password must be at least %d bytes", MinPasswordBytes))
	}

	digest, err := s.hasher.Hash(password)
	if err != nil {
		return nil, err
	}
	user := &models.User{Email: email, Name: name, PasswordHash: digest}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, err
	}
	logger.Info(ctx, "User registered", "user_id", user.ID)
	return user, nil
}

// Login returns the account for email when password matches. Every failure
// is the same Unauthenticated error, and an unknown email still pays for one
// bcrypt comparison.
func (s *AccountService) Login(ctx context.Context, email, password string) (*models.User, error) {
	user, err := s.users.GetByEmail(ctx, NormalizeEmail(email))
	if err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			s.hasher.VerifyDummy(password)
			return nil, apperror.Unauthenticated()
		}
		return nil, err
	}
	if !s.hasher.Verify(password, user.PasswordHash) {
		logger.Debug(ctx, "Login password mismatch", "user_id", user.ID)
		return nil, apperror.Unauthenticated()
	}
	return user, nil
}

package apperror

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSentinelsSurviveWrapping(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		target error
	}{
		{"validation", Validation("title", "title is required"), ErrValidation},
		{"unauthenticated", Unauthenticated(), ErrUnauthenticated},
		{"duplicate", DuplicateEmail(), ErrDuplicateEmail},
		{"not found", NotFound("todo"), ErrNotFound},
		{"storage", Storage("todos.get", errors.New("conn reset")), ErrStorage},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			wrapped := fmt.Errorf("service: %w", tc.err)
			assert.ErrorIs(t, wrapped, tc.target)
		})
	}
}

func TestValidation_CarriesField(t *testing.T) {
	var appErr *AppError
	err := fmt.Errorf("x: %w", Validation("limit", "limit must be between 1 and 100"))

	assert.True(t, errors.As(err, &appErr))
	assert.Equal(t, "limit", appErr.Field)
	assert.Equal(t, "limit must be between 1 and 100", appErr.Error())
}

func TestStorage_KeepsCause(t *testing.T) {
	cause := errors.New("db down")
	err := Storage("users.create", cause)

	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "users.create")
	assert.False(t, errors.Is(err, ErrNotFound))
}

func TestUnauthenticated_MessageIsConstant(t *testing.T) {
	assert.Equal(t, Unauthenticated().Error(), Unauthenticated().Error())
}

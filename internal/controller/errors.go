package controller

import (
	"context"
	"errors"
	"net/http"
	"reflect"
	"strings"
	"sync"

	"todo-api/internal/apperror"
	"todo-api/internal/middleware"
	"todo-api/pkg/logger"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/go-playground/validator/v10/non-standard/validators"
)

// FieldError is one entry of a 422 response.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

var registerOnce sync.Once

// RegisterValidators adds the custom binding rules and reports fields by
// their JSON (or form) name. Safe to call more than once.
func RegisterValidators() {
	registerOnce.Do(func() {
		v, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			return
		}
		_ = v.RegisterValidation("notblank", validators.NotBlank)
		// The account service trims emails, so surrounding spaces are not a format error.
		_ = v.RegisterValidation("email_trimmed", func(fl validator.FieldLevel) bool {
			return v.Var(strings.TrimSpace(fl.Field().String()), "email") == nil
		})
		v.RegisterTagNameFunc(func(f reflect.StructField) string {
			for _, tag := range []string{"json", "form"} {
				name, _, _ := strings.Cut(f.Tag.Get(tag), ",")
				if name != "" && name != "-" {
					return name
				}
			}
			return f.Name
		})
	})
}

// bindError answers a request whose body or query failed to bind.
func bindError(c *gin.Context, err error) {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		details := make([]FieldError, 0, len(verrs))
		for _, fe := range verrs {
			details = append(details, FieldError{Field: fe.Field(), Message: fieldMessage(fe)})
		}
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "validation failed", "details": details})
		return
	}
	c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "invalid request", "details": []FieldError{{Message: err.Error()}}})
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return fe.Field() + " is required"
	case "notblank":
		return fe.Field() + " must not be blank"
	case "email", "email_trimmed":
		return fe.Field() + " must be a valid email address"
	case "min":
		return fe.Field() + " must be at least " + fe.Param()
	case "max":
		return fe.Field() + " must be at most " + fe.Param()
	default:
		return fe.Field() + " is invalid"
	}
}

// writeError maps a service error to its status code. Unknown errors are
// logged and answered with a generic 500.
func writeError(c *gin.Context, err error) {
	ctx := c.Request.Context()
	var appErr *apperror.AppError
	switch {
	case errors.Is(err, apperror.ErrValidation):
		detail := FieldError{Message: err.Error()}
		if errors.As(err, &appErr) {
			detail.Field = appErr.Field
		}
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "validation failed", "details": []FieldError{detail}})
	case errors.Is(err, apperror.ErrUnauthenticated):
		middleware.Unauthorized(c)
	case errors.Is(err, apperror.ErrDuplicateEmail):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.Is(err, apperror.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case ctx.Err() != nil || isContextErr(err):
		c.Abort()
	default:
		logger.Error(ctx, "Request failed", "error", err, "path", c.FullPath())
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
	}
}

func isContextErr(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}

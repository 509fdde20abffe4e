package middleware

import (
	"net/http"
	"strings"

	"todo-api/internal/apperror"
	"todo-api/pkg/logger"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// userKey holds the authenticated user id in the gin context.
const userKey = "user"

// TokenVerifier resolves a bearer token to its subject.
type TokenVerifier interface {
	Verify(token string) (string, error)
}

// RequireAuth rejects requests without a valid bearer token. Every failure
// gets the same 401 so callers cannot tell a missing token from an expired
// or forged one.
func RequireAuth(tokens TokenVerifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()
		token, ok := bearerToken(c.GetHeader("Authorization"))
		if !ok {
			logger.Debug(ctx, "Missing or invalid Authorization header")
			Unauthorized(c)
			return
		}
		subject, err := tokens.Verify(token)
		if err != nil {
			logger.Debug(ctx, "JWT verification failed", "error", err)
			Unauthorized(c)
			return
		}
		if _, err := uuid.Parse(subject); err != nil {
			logger.Debug(ctx, "JWT subject is not a user id")
			Unauthorized(c)
			return
		}
		c.Set(userKey, subject)
		ctx = logger.WithContext(ctx, logger.FromContext(ctx).With("user_id", subject))
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}

// UserID returns the id set by RequireAuth.
func UserID(c *gin.Context) string {
	return c.GetString(userKey)
}

// Unauthorized aborts with the shared 401 response.
func Unauthorized(c *gin.Context) {
	c.Header("WWW-Authenticate", "Bearer")
	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": apperror.Unauthenticated().Message})
}

func bearerToken(header string) (string, bool) {
	scheme, token, found := strings.Cut(strings.TrimSpace(header), " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}

package controller

import (
	"context"
	"net/http"

	"todo-api/internal/models"

	"github.com/gin-gonic/gin"
)

type Accounts interface {
	Register(ctx context.Context, email, name, password string) (*models.User, error)
	Login(ctx context.Context, email, password string) (*models.User, error)
}

type TokenIssuer interface {
	Issue(subject string) (string, error)
}

type AuthController struct {
	accounts Accounts
	tokens   TokenIssuer
}

func NewAuthController(accounts Accounts, tokens TokenIssuer) *AuthController {
	return &AuthController{accounts: accounts, tokens: tokens}
}

type registerRequest struct {
	Email    string `json:"email" binding:"required,email_trimmed,max=255"`
	Name     string `json:"name" binding:"required,notblank,max=100"`
	Password string `json:"password" binding:"required,min=8,max=72"`
}

// tokenRequest accepts a JSON body or an OAuth2 password-grant form, where
// the email travels as "username".
type tokenRequest struct {
	Email    string `json:"email" form:"username" binding:"required"`
	Password string `json:"password" form:"password" binding:"required"`
}

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
}

// Register (public): creates an account and returns it without the password hash.
func (h *AuthController) Register(c *gin.Context) {
	var body registerRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		bindError(c, err)
		return
	}
	user, err := h.accounts.Register(c.Request.Context(), body.Email, body.Name, body.Password)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, user)
}

// Token (public): exchanges credentials for a bearer token.
func (h *AuthController) Token(c *gin.Context) {
	var body tokenRequest
	if err := c.ShouldBind(&body); err != nil {
		bindError(c, err)
		return
	}
	user, err := h.accounts.Login(c.Request.Context(), body.Email, body.Password)
	if err != nil {
		writeError(c, err)
		return
	}
	token, err := h.tokens.Issue(user.ID)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, tokenResponse{AccessToken: token, TokenType: "bearer"})
}

package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/emilythestrangee/postboard/backend/internal/models"
	"github.com/emilythestrangee/postboard/backend/internal/service"
)

type AuthHandler struct {
	accounts *service.AccountService
	logger   *logrus.Logger
}

func NewAuthHandler(accounts *service.AccountService, logger *logrus.Logger) *AuthHandler {
	return &AuthHandler{accounts: accounts, logger: logger}
}

// Register handles user registration
func (h *AuthHandler) Register(c *gin.Context) {
	var input models.RegisterRequest
	if err := c.ShouldBindJSON(&input); err != nil {
		writeBindError(c, err)
		return
	}

	user, err := h.accounts.Register(c.Request.Context(), service.RegisterInput{
		Username: input.Username,
		Email:    input.Email,
		Password: input.Password,
	})
	if err != nil {
		writeError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message": "User registered successfully",
		"user":    user,
	})
}

// Login handles user login
func (h *AuthHandler) Login(c *gin.Context) {
	var input models.LoginRequest
	if err := c.ShouldBindJSON(&input); err != nil {
		writeBindError(c, err)
		return
	}

	tok, err := h.accounts.Login(c.Request.Context(), input.Email, input.Password)
	if err != nil {
		writeError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, models.AuthResponse{Token: tok.Value, ExpiresAt: tok.ExpiresAt})
}

// GetMe returns the identity carried by the caller's token
func (h *AuthHandler) GetMe(c *gin.Context) {
	id, ok := currentIdentity(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, id)
}

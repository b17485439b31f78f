package controllers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"scci_dashboard/internal/auth"
)

// AuthService registers users and exchanges credentials for tokens.
type AuthService interface {
	Register(ctx context.Context, in auth.RegisterInput) (*auth.Principal, error)
	Login(ctx context.Context, email, password string) (*auth.LoginResult, error)
}

type AuthController struct {
	svc AuthService
}

func NewAuthController(svc AuthService) *AuthController {
	return &AuthController{svc: svc}
}

// Register creates a user. Only admins reach this handler.
func (ac *AuthController) Register(c *gin.Context) {
	var input struct {
		Email    string `json:"email"`
		Password string `json:"password"`
		Role     string `json:"role"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		logrus.WithError(err).Warn("Register: invalid input payload")
		c.JSON(http.StatusBadRequest, gin.H{"message": "Email and password are required"})
		return
	}

	user, err := ac.svc.Register(c.Request.Context(), auth.RegisterInput{
		Email:    input.Email,
		Password: input.Password,
		Role:     input.Role,
	})
	if err != nil {
		respondError(c, "Register", err)
		return
	}
	c.JSON(http.StatusCreated, user)
}

// Login authenticates a user and returns a bearer token.
func (ac *AuthController) Login(c *gin.Context) {
	var input struct {
		Email    string `json:"email" binding:"required"`
		Password string `json:"password" binding:"required"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"message": "Invalid credentials"})
		return
	}

	result, err := ac.svc.Login(c.Request.Context(), input.Email, input.Password)
	if err != nil {
		respondError(c, "Login", err)
		return
	}
	c.JSON(http.StatusOK, result)
}

package http

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/erdsync/erd-sync/internal/auth"
	"github.com/erdsync/erd-sync/internal/auth/domain"
)

// AuthService is what the handlers need from the service layer.
type AuthService interface {
	Signup(ctx context.Context, req domain.SignupRequest) (*domain.User, string, error)
	Login(ctx context.Context, req domain.LoginRequest) (*domain.User, string, error)
	GetUser(ctx context.Context, id string) (*domain.User, error)
}

type Handler struct {
	authService AuthService
}

func New(authService AuthService) *Handler {
	return &Handler{authService: authService}
}

func (h *Handler) Signup(c *gin.Context) {
	var req domain.SignupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "invalid request body"})
		return
	}

	user, token, err := h.authService.Signup(c.Request.Context(), req)
	switch {
	case err == nil:
		c.JSON(http.StatusCreated, gin.H{"user": user, "token": token})
	case errors.Is(err, domain.ErrInvalidSignup):
		c.JSON(http.StatusBadRequest, gin.H{"message": err.Error()})
	case errors.Is(err, domain.ErrEmailTaken):
		c.JSON(http.StatusConflict, gin.H{"message": err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"message": "failed to sign up"})
	}
}

func (h *Handler) Login(c *gin.Context) {
	var req domain.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "invalid request body"})
		return
	}

	user, token, err := h.authService.Login(c.Request.Context(), req)
	switch {
	case err == nil:
		c.JSON(http.StatusOK, gin.H{"user": user, "token": token})
	case errors.Is(err, domain.ErrInvalidCredentials):
		c.JSON(http.StatusBadRequest, gin.H{"message": err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"message": "failed to log in"})
	}
}

// Verify runs behind RequireAuth and returns the caller's first name.
func (h *Handler) Verify(c *gin.Context) {
	user, err := h.authService.GetUser(c.Request.Context(), auth.UserID(c))
	if errors.Is(err, domain.ErrUserNotFound) {
		c.JSON(http.StatusUnauthorized, gin.H{"message": "session expired, please login again"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": "failed to verify session"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"firstName": user.FirstName})
}

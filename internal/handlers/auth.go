package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/zfogg/brandcast/internal/auth"
	apierrors "github.com/zfogg/brandcast/internal/errors"
	"github.com/zfogg/brandcast/internal/logger"
	"github.com/zfogg/brandcast/internal/util"
	"go.uber.org/zap"
)

// AuthHandlers serves account registration and login
type AuthHandlers struct {
	authService auth.AuthServiceInterface
}

// NewAuthHandlers creates auth handlers
func NewAuthHandlers(authService auth.AuthServiceInterface) *AuthHandlers {
	return &AuthHandlers{authService: authService}
}

// Register creates a user with email and password
// POST /api/v1/auth/register
func (h *AuthHandlers) Register(c *gin.Context) {
	var req auth.RegisterRequest
	if !bindJSON(c, &req) {
		return
	}

	resp, err := h.authService.Register(req)
	if err != nil {
		if errors.Is(err, auth.ErrUserExists) {
			util.RespondWithAPIError(c, apierrors.AlreadyExists("user"))
			return
		}
		logger.Log.Error("Registration failed", zap.Error(err))
		util.RespondInternalError(c, "registration failed")
		return
	}

	c.JSON(http.StatusCreated, resp)
}

// Login exchanges email and password for a token
// POST /api/v1/auth/login
func (h *AuthHandlers) Login(c *gin.Context) {
	var req auth.LoginRequest
	if !bindJSON(c, &req) {
		return
	}

	resp, err := h.authService.Login(req)
	if err != nil {
		if errors.Is(err, auth.ErrInvalidCredentials) || errors.Is(err, auth.ErrUserNotFound) {
			util.RespondUnauthorized(c, "invalid email or password")
			return
		}
		logger.Log.Error("Login failed", zap.Error(err))
		util.RespondInternalError(c, "login failed")
		return
	}

	c.JSON(http.StatusOK, resp)
}

// Me returns the authenticated user
// GET /api/v1/auth/me
func (h *AuthHandlers) Me(c *gin.Context) {
	user, ok := util.GetUserFromContext(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, gin.H{"user": user})
}

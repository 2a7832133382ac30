package http

import (
	"net/http"
	"strings"
	"time"

	"huddle/internal/core/ports"
	"huddle/internal/core/services"
	"huddle/pkg/errors"

	"github.com/gin-gonic/gin"
)

type AuthHandler struct {
	authService services.AuthService
	userService ports.UserService
	accessTTL   time.Duration
}

func NewAuthHandler(authService services.AuthService, userService ports.UserService, accessTTL time.Duration) *AuthHandler {
	return &AuthHandler{
		authService: authService,
		userService: userService,
		accessTTL:   accessTTL,
	}
}

func (h *AuthHandler) SetupRoutes(router *gin.Engine) {
	api := router.Group("/api/v1/auth")
	{
		api.POST("/register", h.Register)
		api.POST("/login", h.Login)
		api.POST("/refresh", h.RefreshToken)
		api.POST("/reset/request", h.RequestPasswordReset)
		api.POST("/reset", h.ResetPassword)
	}
}

// SetupProtectedRoutes registers auth routes that require a valid token.
func (h *AuthHandler) SetupProtectedRoutes(protected *gin.RouterGroup) {
	protected.POST("/auth/logout", h.Logout)
}

type RegisterRequest struct {
	Email     string `json:"email" binding:"required,max=254"`
	Password  string `json:"password" binding:"required,max=128"`
	FirstName string `json:"first_name" binding:"required,max=50"`
	LastName  string `json:"last_name" binding:"required,max=50"`
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required,max=254"`
	Password string `json:"password" binding:"required,max=128"`
}

type RefreshTokenRequest struct {
	RefreshToken string `json:"refresh_token" binding:"required,max=2048"`
}

type ResetRequestRequest struct {
	Email string `json:"email" binding:"required,max=254"`
}

type ResetPasswordRequest struct {
	Code     string `json:"code" binding:"required,max=64"`
	Password string `json:"password" binding:"required,max=128"`
}

func (h *AuthHandler) Register(c *gin.Context) {
	var req RegisterRequest
	if err := c.BindJSON(&req); err != nil {
		c.Error(errors.NewInputError("invalid request format"))
		return
	}

	user, err := h.userService.Register(c.Request.Context(), req.Email, req.Password, req.FirstName, req.LastName)
	if err != nil {
		c.Error(err)
		return
	}

	accessToken, err := h.authService.GenerateToken(user.ID, user.Handle)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to generate token"})
		return
	}
	refreshToken, err := h.authService.GenerateRefreshToken(user.ID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to generate refresh token"})
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"user_id":       user.ID,
		"handle":        user.Handle,
		"access_token":  accessToken,
		"refresh_token": refreshToken,
		"expires_in":    int(h.accessTTL / time.Second),
	})
}

func (h *AuthHandler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.BindJSON(&req); err != nil {
		c.Error(errors.NewInputError("invalid request format"))
		return
	}

	user, err := h.userService.Login(c.Request.Context(), strings.TrimSpace(req.Email), req.Password)
	if err != nil {
		c.Error(err)
		return
	}

	accessToken, err := h.authService.GenerateToken(user.ID, user.Handle)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to generate token"})
		return
	}
	refreshToken, err := h.authService.GenerateRefreshToken(user.ID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to generate refresh token"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"user_id":       user.ID,
		"handle":        user.Handle,
		"access_token":  accessToken,
		"refresh_token": refreshToken,
		"expires_in":    int(h.accessTTL / time.Second),
	})
}

func (h *AuthHandler) RefreshToken(c *gin.Context) {
	var req RefreshTokenRequest
	if err := c.BindJSON(&req); err != nil {
		c.Error(errors.NewInputError("invalid request format"))
		return
	}

	claims, err := h.authService.ValidateRefreshToken(req.RefreshToken)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid refresh token"})
		return
	}

	profile, err := h.userService.Profile(c.Request.Context(), claims.UserID, claims.UserID)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unknown user"})
		return
	}

	accessToken, err := h.authService.GenerateToken(profile.ID, profile.Handle)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to generate token"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"access_token": accessToken,
		"expires_in":   int(h.accessTTL / time.Second),
	})
}

// Logout acknowledges the client discarding its tokens. Sessions are
// stateless; access tokens remain valid until expiry.
func (h *AuthHandler) Logout(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{})
}

func (h *AuthHandler) RequestPasswordReset(c *gin.Context) {
	var req ResetRequestRequest
	if err := c.BindJSON(&req); err != nil {
		c.Error(errors.NewInputError("invalid request format"))
		return
	}

	if err := h.userService.RequestPasswordReset(c.Request.Context(), req.Email); err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, gin.H{})
}

func (h *AuthHandler) ResetPassword(c *gin.Context) {
	var req ResetPasswordRequest
	if err := c.BindJSON(&req); err != nil {
		c.Error(errors.NewInputError("invalid request format"))
		return
	}

	if err := h.userService.ResetPassword(c.Request.Context(), req.Code, req.Password); err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, gin.H{})
}

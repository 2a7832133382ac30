package http

import (
	"net/http"

	"huddle/internal/core/domain"
	"huddle/internal/core/ports"
	"huddle/pkg/errors"

	"github.com/gin-gonic/gin"
)

type UserHandler struct {
	userService ports.UserService
}

func NewUserHandler(userService ports.UserService) *UserHandler {
	return &UserHandler{userService: userService}
}

func (h *UserHandler) SetupRoutes(protected *gin.RouterGroup) {
	users := protected.Group("/users")
	{
		users.GET("", h.List)
		users.GET("/me", h.Me)
		users.GET("/:id", h.Get)
		users.PUT("/me/name", h.SetName)
		users.PUT("/me/email", h.SetEmail)
		users.PUT("/me/handle", h.SetHandle)
		users.PUT("/:id/tier", h.SetTier)
	}
}

type SetNameRequest struct {
	FirstName string `json:"first_name" binding:"required,max=50"`
	LastName  string `json:"last_name" binding:"required,max=50"`
}

type SetEmailRequest struct {
	Email string `json:"email" binding:"required,max=254"`
}

type SetHandleRequest struct {
	Handle string `json:"handle" binding:"required,max=20"`
}

type SetTierRequest struct {
	Tier string `json:"tier" binding:"required,oneof=member owner"`
}

func (h *UserHandler) List(c *gin.Context) {
	actorID, ok := actor(c)
	if !ok {
		return
	}
	profiles, err := h.userService.ListAll(c.Request.Context(), actorID)
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"users": profiles})
}

func (h *UserHandler) Me(c *gin.Context) {
	actorID, ok := actor(c)
	if !ok {
		return
	}
	profile, err := h.userService.Profile(c.Request.Context(), actorID, actorID)
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, profile)
}

func (h *UserHandler) Get(c *gin.Context) {
	actorID, ok := actor(c)
	if !ok {
		return
	}
	target, ok := parseID(c, "id")
	if !ok {
		return
	}
	profile, err := h.userService.Profile(c.Request.Context(), actorID, domain.UserID(target))
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, profile)
}

func (h *UserHandler) SetName(c *gin.Context) {
	actorID, ok := actor(c)
	if !ok {
		return
	}
	var req SetNameRequest
	if err := c.BindJSON(&req); err != nil {
		c.Error(errors.NewInputError("invalid request format"))
		return
	}
	if err := h.userService.SetName(c.Request.Context(), actorID, req.FirstName, req.LastName); err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, gin.H{})
}

func (h *UserHandler) SetEmail(c *gin.Context) {
	actorID, ok := actor(c)
	if !ok {
		return
	}
	var req SetEmailRequest
	if err := c.BindJSON(&req); err != nil {
		c.Error(errors.NewInputError("invalid request format"))
		return
	}
	if err := h.userService.SetEmail(c.Request.Context(), actorID, req.Email); err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, gin.H{})
}

func (h *UserHandler) SetHandle(c *gin.Context) {
	actorID, ok := actor(c)
	if !ok {
		return
	}
	var req SetHandleRequest
	if err := c.BindJSON(&req); err != nil {
		c.Error(errors.NewInputError("invalid request format"))
		return
	}
	if err := h.userService.SetHandle(c.Request.Context(), actorID, req.Handle); err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, gin.H{})
}

func (h *UserHandler) SetTier(c *gin.Context) {
	actorID, ok := actor(c)
	if !ok {
		return
	}
	target, ok := parseID(c, "id")
	if !ok {
		return
	}
	var req SetTierRequest
	if err := c.BindJSON(&req); err != nil {
		c.Error(errors.NewInputError("invalid request format"))
		return
	}
	err := h.userService.SetTier(c.Request.Context(), actorID, domain.UserID(target), domain.PermissionTier(req.Tier))
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, gin.H{})
}

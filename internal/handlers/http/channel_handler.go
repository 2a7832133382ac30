package http

import (
	"net/http"

	"huddle/internal/core/domain"
	"huddle/internal/core/ports"
	"huddle/pkg/errors"

	"github.com/gin-gonic/gin"
)

type ChannelHandler struct {
	channelService ports.ChannelService
}

func NewChannelHandler(channelService ports.ChannelService) *ChannelHandler {
	return &ChannelHandler{channelService: channelService}
}

func (h *ChannelHandler) SetupRoutes(protected *gin.RouterGroup) {
	channels := protected.Group("/channels")
	{
		channels.POST("", h.Create)
		channels.GET("", h.List)
		channels.GET("/joined", h.ListJoined)
		channels.GET("/:id", h.Details)
		channels.POST("/:id/invite", h.Invite)
		channels.POST("/:id/join", h.Join)
		channels.POST("/:id/leave", h.Leave)
		channels.POST("/:id/owners", h.AddOwner)
		channels.DELETE("/:id/owners/:userId", h.RemoveOwner)
	}
}

type CreateChannelRequest struct {
	Name   string `json:"name" binding:"required,max=20"`
	Public *bool  `json:"public" binding:"required"`
}

type TargetUserRequest struct {
	UserID domain.UserID `json:"user_id" binding:"required"`
}

func (h *ChannelHandler) Create(c *gin.Context) {
	actorID, ok := actor(c)
	if !ok {
		return
	}
	var req CreateChannelRequest
	if err := c.BindJSON(&req); err != nil {
		c.Error(errors.NewInputError("invalid request format"))
		return
	}
	id, err := h.channelService.Create(c.Request.Context(), actorID, req.Name, *req.Public)
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"channel_id": id})
}

func (h *ChannelHandler) List(c *gin.Context) {
	actorID, ok := actor(c)
	if !ok {
		return
	}
	channels, err := h.channelService.List(c.Request.Context(), actorID)
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"channels": channels})
}

func (h *ChannelHandler) ListJoined(c *gin.Context) {
	actorID, ok := actor(c)
	if !ok {
		return
	}
	channels, err := h.channelService.ListJoined(c.Request.Context(), actorID)
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"channels": channels})
}

func (h *ChannelHandler) Details(c *gin.Context) {
	actorID, ok := actor(c)
	if !ok {
		return
	}
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	details, err := h.channelService.Details(c.Request.Context(), actorID, domain.ChannelID(id))
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, details)
}

func (h *ChannelHandler) Invite(c *gin.Context) {
	actorID, ok := actor(c)
	if !ok {
		return
	}
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	var req TargetUserRequest
	if err := c.BindJSON(&req); err != nil {
		c.Error(errors.NewInputError("invalid request format"))
		return
	}
	if err := h.channelService.Invite(c.Request.Context(), actorID, domain.ChannelID(id), req.UserID); err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, gin.H{})
}

func (h *ChannelHandler) Join(c *gin.Context) {
	actorID, ok := actor(c)
	if !ok {
		return
	}
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	if err := h.channelService.Join(c.Request.Context(), actorID, domain.ChannelID(id)); err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, gin.H{})
}

func (h *ChannelHandler) Leave(c *gin.Context) {
	actorID, ok := actor(c)
	if !ok {
		return
	}
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	if err := h.channelService.Leave(c.Request.Context(), actorID, domain.ChannelID(id)); err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, gin.H{})
}

func (h *ChannelHandler) AddOwner(c *gin.Context) {
	actorID, ok := actor(c)
	if !ok {
		return
	}
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	var req TargetUserRequest
	if err := c.BindJSON(&req); err != nil {
		c.Error(errors.NewInputError("invalid request format"))
		return
	}
	if err := h.channelService.AddOwner(c.Request.Context(), actorID, domain.ChannelID(id), req.UserID); err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, gin.H{})
}

func (h *ChannelHandler) RemoveOwner(c *gin.Context) {
	actorID, ok := actor(c)
	if !ok {
		return
	}
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	target, ok := parseID(c, "userId")
	if !ok {
		return
	}
	if err := h.channelService.RemoveOwner(c.Request.Context(), actorID, domain.ChannelID(id), domain.UserID(target)); err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, gin.H{})
}

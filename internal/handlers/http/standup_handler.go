package http

import (
	"net/http"
	"time"

	"huddle/internal/core/domain"
	"huddle/internal/core/ports"
	"huddle/pkg/errors"

	"github.com/gin-gonic/gin"
)

type StandupHandler struct {
	standupService ports.StandupService
}

func NewStandupHandler(standupService ports.StandupService) *StandupHandler {
	return &StandupHandler{standupService: standupService}
}

func (h *StandupHandler) SetupRoutes(protected *gin.RouterGroup) {
	channels := protected.Group("/channels")
	{
		channels.POST("/:id/standup/start", h.Start)
		channels.GET("/:id/standup", h.Active)
		channels.POST("/:id/standup/send", h.Send)
		channels.POST("/:id/messages/later", h.SendLater)
	}
}

type StandupStartRequest struct {
	DurationSeconds int64 `json:"duration_seconds" binding:"required"`
}

type StandupSendRequest struct {
	Text string `json:"text" binding:"required,max=1000"`
}

type SendLaterRequest struct {
	Body   string    `json:"body" binding:"required,max=1000"`
	FireAt time.Time `json:"fire_at" binding:"required"`
}

func (h *StandupHandler) Start(c *gin.Context) {
	actorID, ok := actor(c)
	if !ok {
		return
	}
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	var req StandupStartRequest
	if err := c.BindJSON(&req); err != nil {
		c.Error(errors.NewInputError("invalid request format"))
		return
	}
	deadline, err := h.standupService.Start(c.Request.Context(), actorID, domain.ChannelID(id),
		time.Duration(req.DurationSeconds)*time.Second)
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"deadline": deadline})
}

func (h *StandupHandler) Active(c *gin.Context) {
	actorID, ok := actor(c)
	if !ok {
		return
	}
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	status, err := h.standupService.Active(c.Request.Context(), actorID, domain.ChannelID(id))
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, status)
}

func (h *StandupHandler) Send(c *gin.Context) {
	actorID, ok := actor(c)
	if !ok {
		return
	}
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	var req StandupSendRequest
	if err := c.BindJSON(&req); err != nil {
		c.Error(errors.NewInputError("invalid request format"))
		return
	}
	if err := h.standupService.Send(c.Request.Context(), actorID, domain.ChannelID(id), req.Text); err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, gin.H{})
}

func (h *StandupHandler) SendLater(c *gin.Context) {
	actorID, ok := actor(c)
	if !ok {
		return
	}
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	var req SendLaterRequest
	if err := c.BindJSON(&req); err != nil {
		c.Error(errors.NewInputError("invalid request format"))
		return
	}
	messageID, err := h.standupService.SendLater(c.Request.Context(), actorID, domain.ChannelID(id), req.Body, req.FireAt)
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"message_id": messageID})
}

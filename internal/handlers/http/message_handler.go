package http

import (
	"net/http"
	"strconv"

	"huddle/internal/core/domain"
	"huddle/internal/core/ports"
	"huddle/pkg/errors"

	"github.com/gin-gonic/gin"
)

type MessageHandler struct {
	messageService ports.MessageService
}

func NewMessageHandler(messageService ports.MessageService) *MessageHandler {
	return &MessageHandler{messageService: messageService}
}

func (h *MessageHandler) SetupRoutes(protected *gin.RouterGroup) {
	channels := protected.Group("/channels")
	{
		channels.POST("/:id/messages", h.Send)
		channels.GET("/:id/messages", h.Query)
	}
	messages := protected.Group("/messages")
	{
		messages.PUT("/:id", h.Edit)
		messages.DELETE("/:id", h.Remove)
		messages.POST("/:id/reactions", h.React)
		messages.DELETE("/:id/reactions/:kind", h.Unreact)
		messages.POST("/:id/pin", h.Pin)
		messages.DELETE("/:id/pin", h.Unpin)
	}
}

type SendMessageRequest struct {
	Body string `json:"body" binding:"required,max=1000"`
}

type EditMessageRequest struct {
	Body string `json:"body" binding:"max=1000"`
}

type ReactRequest struct {
	Kind int `json:"kind" binding:"required"`
}

func (h *MessageHandler) Send(c *gin.Context) {
	actorID, ok := actor(c)
	if !ok {
		return
	}
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	var req SendMessageRequest
	if err := c.BindJSON(&req); err != nil {
		c.Error(errors.NewInputError("invalid request format"))
		return
	}
	messageID, err := h.messageService.Send(c.Request.Context(), actorID, domain.ChannelID(id), req.Body)
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"message_id": messageID})
}

func (h *MessageHandler) Query(c *gin.Context) {
	actorID, ok := actor(c)
	if !ok {
		return
	}
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	start, err := strconv.Atoi(c.DefaultQuery("start", "0"))
	if err != nil {
		c.Error(errors.NewInputError("start must be an integer"))
		return
	}
	page, err := h.messageService.Query(c.Request.Context(), actorID, domain.ChannelID(id), start)
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, page)
}

func (h *MessageHandler) Edit(c *gin.Context) {
	actorID, ok := actor(c)
	if !ok {
		return
	}
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	var req EditMessageRequest
	if err := c.BindJSON(&req); err != nil {
		c.Error(errors.NewInputError("invalid request format"))
		return
	}
	if err := h.messageService.Edit(c.Request.Context(), actorID, domain.MessageID(id), req.Body); err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, gin.H{})
}

func (h *MessageHandler) Remove(c *gin.Context) {
	actorID, ok := actor(c)
	if !ok {
		return
	}
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	if err := h.messageService.Remove(c.Request.Context(), actorID, domain.MessageID(id)); err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, gin.H{})
}

func (h *MessageHandler) React(c *gin.Context) {
	actorID, ok := actor(c)
	if !ok {
		return
	}
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	var req ReactRequest
	if err := c.BindJSON(&req); err != nil {
		c.Error(errors.NewInputError("invalid request format"))
		return
	}
	if err := h.messageService.React(c.Request.Context(), actorID, domain.MessageID(id), domain.ReactionKind(req.Kind)); err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, gin.H{})
}

func (h *MessageHandler) Unreact(c *gin.Context) {
	actorID, ok := actor(c)
	if !ok {
		return
	}
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	kind, ok := parseID(c, "kind")
	if !ok {
		return
	}
	if err := h.messageService.Unreact(c.Request.Context(), actorID, domain.MessageID(id), domain.ReactionKind(kind)); err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, gin.H{})
}

func (h *MessageHandler) Pin(c *gin.Context) {
	actorID, ok := actor(c)
	if !ok {
		return
	}
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	if err := h.messageService.Pin(c.Request.Context(), actorID, domain.MessageID(id)); err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, gin.H{})
}

func (h *MessageHandler) Unpin(c *gin.Context) {
	actorID, ok := actor(c)
	if !ok {
		return
	}
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	if err := h.messageService.Unpin(c.Request.Context(), actorID, domain.MessageID(id)); err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, gin.H{})
}

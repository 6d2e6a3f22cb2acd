package handler

import (
	"errors"
	"net/http"
	"strconv"

	"BatePapo/internal/model"
	"BatePapo/internal/service"

	"github.com/gin-gonic/gin"
)

// MessageHandler translates message requests into message service calls
// and maps the outcome to wire statuses.
type MessageHandler interface {
	PostMessage(c *gin.Context)
	GetMessages(c *gin.Context)
	UpdateMessage(c *gin.Context)
	DeleteMessage(c *gin.Context)
}

type messageHandler struct {
	messages service.MessageService
}

func NewMessageHandler(messages service.MessageService) MessageHandler {
	return &messageHandler{
		messages: messages,
	}
}

type messageRequest struct {
	To   string `json:"to"`
	Text string `json:"text"`
	Type string `json:"type"`
}

func (h *messageHandler) PostMessage(c *gin.Context) {
	from := c.GetHeader("User")

	var req messageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Status(http.StatusUnprocessableEntity)
		return
	}

	msg, err := h.messages.Post(c.Request.Context(), from, req.To, req.Text, req.Type)
	if err != nil {
		respondMessageError(c, err)
		return
	}

	c.JSON(http.StatusCreated, msg)
}

func (h *messageHandler) GetMessages(c *gin.Context) {
	caller := c.GetHeader("User")
	if caller == "" {
		c.Status(http.StatusUnprocessableEntity)
		return
	}

	limit := 0
	if raw, supplied := c.GetQuery("limit"); supplied {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 {
			c.Status(http.StatusUnprocessableEntity)
			return
		}
		limit = parsed
	}

	messages, err := h.messages.ListVisible(c.Request.Context(), caller, limit)
	if err != nil {
		respondMessageError(c, err)
		return
	}

	if messages == nil {
		messages = []model.Message{}
	}
	c.JSON(http.StatusOK, messages)
}

func (h *messageHandler) UpdateMessage(c *gin.Context) {
	id := c.Param("id")
	caller := c.GetHeader("User")

	var req messageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Status(http.StatusUnprocessableEntity)
		return
	}

	if err := h.messages.Edit(c.Request.Context(), id, caller, req.To, req.Text, req.Type); err != nil {
		respondMessageError(c, err)
		return
	}

	c.Status(http.StatusOK)
}

func (h *messageHandler) DeleteMessage(c *gin.Context) {
	id := c.Param("id")
	caller := c.GetHeader("User")

	if err := h.messages.Delete(c.Request.Context(), id, caller); err != nil {
		respondMessageError(c, err)
		return
	}

	c.Status(http.StatusOK)
}

func respondMessageError(c *gin.Context, err error) {
	switch {
	case model.IsValidation(err):
		c.Status(http.StatusUnprocessableEntity)
	case errors.Is(err, model.ErrNotFound):
		c.Status(http.StatusNotFound)
	case errors.Is(err, model.ErrForbidden):
		c.Status(http.StatusUnauthorized)
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	}
}

package handler

import (
	"errors"
	"net/http"

	"BatePapo/internal/model"
	"BatePapo/internal/service"

	"github.com/gin-gonic/gin"
)

// ParticipantHandler translates participant lifecycle requests into
// registry calls and maps the outcome to wire statuses.
type ParticipantHandler interface {
	CreateParticipant(c *gin.Context)
	GetParticipants(c *gin.Context)
	Heartbeat(c *gin.Context)
}

type participantHandler struct {
	registry service.RegistryService
}

func NewParticipantHandler(registry service.RegistryService) ParticipantHandler {
	return &participantHandler{
		registry: registry,
	}
}

type joinRequest struct {
	Name string `json:"name"`
}

func (h *participantHandler) CreateParticipant(c *gin.Context) {
	var req joinRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Name == "" {
		c.Status(http.StatusUnprocessableEntity)
		return
	}

	if err := h.registry.Join(c.Request.Context(), req.Name); err != nil {
		switch {
		case errors.Is(err, model.ErrAlreadyExists):
			c.Status(http.StatusConflict)
		case model.IsValidation(err):
			c.Status(http.StatusUnprocessableEntity)
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		}
		return
	}

	c.Status(http.StatusCreated)
}

func (h *participantHandler) GetParticipants(c *gin.Context) {
	participants, err := h.registry.List(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	if participants == nil {
		participants = []model.Participant{}
	}
	c.JSON(http.StatusOK, participants)
}

// Heartbeat handles POST /status. A missing User header answers 404,
// same as an unknown participant.
func (h *participantHandler) Heartbeat(c *gin.Context) {
	user := c.GetHeader("User")
	if user == "" {
		c.Status(http.StatusNotFound)
		return
	}

	if err := h.registry.Heartbeat(c.Request.Context(), user); err != nil {
		if errors.Is(err, model.ErrNotFound) {
			c.Status(http.StatusNotFound)
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.Status(http.StatusOK)
}

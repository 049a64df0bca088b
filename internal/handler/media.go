package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"seminar_live/internal/engine"
	"seminar_live/internal/service"
	"seminar_live/pkg/logger"
)

type MediaHandler struct {
	mediaService service.MediaService
	engine       *engine.Engine
	log          logger.Logger
}

func NewMediaHandler(mediaService service.MediaService, eng *engine.Engine, log logger.Logger) *MediaHandler {
	return &MediaHandler{
		mediaService: mediaService,
		engine:       eng,
		log:          log,
	}
}

// GetToken выдаёт SFU-токен вошедшему участнику комнаты
func (h *MediaHandler) GetToken(c *gin.Context) {
	userID, _ := c.Get("user_id")
	displayName, _ := c.Get("display_name")
	roomID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid room ID"})
		return
	}

	if _, err := h.engine.GetRoom(c.Request.Context(), roomID); err != nil {
		respondError(c, err)
		return
	}

	name, _ := displayName.(string)
	token, url, err := h.mediaService.JoinToken(c.Request.Context(), roomID, userID.(uuid.UUID), name)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"token": token,
		"url":   url,
	})
}

package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"seminar_live/internal/config"
)

type HealthHandler struct {
	environment string
	livekitURL  string
}

func NewHealthHandler(cfg *config.Config) *HealthHandler {
	return &HealthHandler{
		environment: cfg.Environment,
		livekitURL:  cfg.LiveKit.URL,
	}
}

func (h *HealthHandler) Check(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "ok",
		"service": "seminar-live",
	})
}

// ServerInfo возвращает настройки сервера для клиентов
func (h *HealthHandler) ServerInfo(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"environment": h.environment,
		"livekit_url": h.livekitURL,
		"api_base":    "/api/v1",
	})
}

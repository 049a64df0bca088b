package handler

import (
	"errors"
	"io"

	"github.com/gin-gonic/gin"
	"seminar_live/internal/broadcast"
	"seminar_live/internal/config"
	"seminar_live/internal/engine"
	"seminar_live/internal/service"
	apperr "seminar_live/pkg/errors"
	"seminar_live/pkg/logger"
)

type Handlers struct {
	Health      *HealthHandler
	Room        *RoomHandler
	Participant *ParticipantHandler
	Queue       *QueueHandler
	Breakout    *BreakoutHandler
	Chat        *ChatHandler
	Media       *MediaHandler
	WebSocket   *WebSocketHandler
}

func NewHandlers(eng *engine.Engine, services *service.Services, bcast *broadcast.Broadcaster, cfg *config.Config, log logger.Logger) *Handlers {
	return &Handlers{
		Health:      NewHealthHandler(cfg),
		Room:        NewRoomHandler(eng, log),
		Participant: NewParticipantHandler(eng, log),
		Queue:       NewQueueHandler(eng, log),
		Breakout:    NewBreakoutHandler(eng, log),
		Chat:        NewChatHandler(eng, log),
		Media:       NewMediaHandler(services.Media, eng, log),
		WebSocket:   NewWebSocketHandler(eng, bcast, log),
	}
}

// respondError отвечает статусом согласно таксономии ошибок движка
func respondError(c *gin.Context, err error) {
	c.JSON(apperr.HTTPStatusFromError(err), gin.H{"error": err.Error()})
}

// bindOptionalJSON разбирает тело запроса, допуская его отсутствие.
// Для запросов, где все поля необязательны, голый POST эквивалентен
// пустому объекту.
func bindOptionalJSON(c *gin.Context, obj interface{}) error {
	if c.Request.Body == nil || c.Request.ContentLength == 0 {
		return nil
	}
	if err := c.ShouldBindJSON(obj); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}

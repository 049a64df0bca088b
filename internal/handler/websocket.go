package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"seminar_live/internal/broadcast"
	"seminar_live/internal/engine"
	"seminar_live/pkg/logger"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 4096,
	CheckOrigin: func(r *http.Request) bool {
		return true // В продакшене нужно проверять origin
	},
}

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = 45 * time.Second
)

type WebSocketHandler struct {
	engine *engine.Engine
	bcast  *broadcast.Broadcaster
	log    logger.Logger
}

func NewWebSocketHandler(eng *engine.Engine, bcast *broadcast.Broadcaster, log logger.Logger) *WebSocketHandler {
	return &WebSocketHandler{
		engine: eng,
		bcast:  bcast,
		log:    log,
	}
}

// HandleEvents подключает клиента к потоку событий комнаты. Подписка живёт,
// пока открыто соединение; пропущенные события клиент добирает снапшотами.
func (h *WebSocketHandler) HandleEvents(c *gin.Context) {
	userID, _ := c.Get("user_id")
	roomID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid room ID"})
		return
	}

	if _, err := h.engine.GetRoom(c.Request.Context(), roomID); err != nil {
		respondError(c, err)
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.log.Error("Failed to upgrade connection", "error", err)
		return
	}

	sub := h.bcast.Subscribe(roomID, userID.(uuid.UUID))
	defer h.bcast.Unsubscribe(sub)
	defer conn.Close()

	go h.writePump(conn, sub)

	conn.SetReadLimit(4096)
	conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	// Входящие данные не обрабатываются: команды идут через REST API,
	// соединение читается только ради close и pong
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			break
		}
	}
}

func (h *WebSocketHandler) writePump(conn *websocket.Conn, sub *broadcast.Subscriber) {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case event, ok := <-sub.C:
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := conn.WriteJSON(event); err != nil {
				h.log.Debug("Failed to write event", "error", err)
				return
			}
		case <-ticker.C:
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

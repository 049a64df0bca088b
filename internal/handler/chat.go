package handler

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"seminar_live/internal/engine"
	"seminar_live/pkg/logger"
)

type ChatHandler struct {
	engine *engine.Engine
	log    logger.Logger
}

func NewChatHandler(eng *engine.Engine, log logger.Logger) *ChatHandler {
	return &ChatHandler{
		engine: eng,
		log:    log,
	}
}

type SendMessageRequest struct {
	Content  string `json:"content"`
	FileName string `json:"file_name,omitempty"`
	FileURL  string `json:"file_url,omitempty"`
	FileSize int64  `json:"file_size,omitempty"`
}

func (h *ChatHandler) SendMessage(c *gin.Context) {
	userID, _ := c.Get("user_id")
	roomID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid room ID"})
		return
	}

	var req SendMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var file *engine.FileAttachment
	if req.FileURL != "" {
		file = &engine.FileAttachment{
			Name: req.FileName,
			URL:  req.FileURL,
			Size: req.FileSize,
		}
	}

	message, err := h.engine.PostMessage(c.Request.Context(), roomID, userID.(uuid.UUID), req.Content, file)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, message)
}

// GetMessages отдаёт сообщения после отметки since (unix-секунды)
func (h *ChatHandler) GetMessages(c *gin.Context) {
	roomID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid room ID"})
		return
	}

	since := time.Time{}
	if raw := c.Query("since"); raw != "" {
		seconds, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid since parameter"})
			return
		}
		since = time.Unix(seconds, 0)
	}

	limit := 100
	if raw := c.Query("limit"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil {
			limit = parsed
		}
	}

	messages, err := h.engine.FetchSince(c.Request.Context(), roomID, since, limit)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, messages)
}

func (h *ChatHandler) DeleteMessage(c *gin.Context) {
	userID, _ := c.Get("user_id")
	roomID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid room ID"})
		return
	}
	messageID, err := uuid.Parse(c.Param("messageId"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid message ID"})
		return
	}

	if err := h.engine.DeleteMessage(c.Request.Context(), roomID, userID.(uuid.UUID), messageID); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Message deleted"})
}

type SendReactionRequest struct {
	ReactionType string `json:"reaction_type" binding:"required"`
}

func (h *ChatHandler) SendReaction(c *gin.Context) {
	userID, _ := c.Get("user_id")
	roomID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid room ID"})
		return
	}

	var req SendReactionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	reaction, err := h.engine.PostReaction(c.Request.Context(), roomID, userID.(uuid.UUID), req.ReactionType)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, reaction)
}

func (h *ChatHandler) GetReactions(c *gin.Context) {
	roomID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid room ID"})
		return
	}

	since := time.Time{}
	if raw := c.Query("since"); raw != "" {
		seconds, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid since parameter"})
			return
		}
		since = time.Unix(seconds, 0)
	}

	reactions, err := h.engine.RecentReactions(c.Request.Context(), roomID, since)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, reactions)
}

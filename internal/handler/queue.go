package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"seminar_live/internal/engine"
	"seminar_live/pkg/logger"
)

type QueueHandler struct {
	engine *engine.Engine
	log    logger.Logger
}

func NewQueueHandler(eng *engine.Engine, log logger.Logger) *QueueHandler {
	return &QueueHandler{
		engine: eng,
		log:    log,
	}
}

type JoinQueueRequest struct {
	Message string `json:"message,omitempty"`
}

func (h *QueueHandler) Join(c *gin.Context) {
	userID, _ := c.Get("user_id")
	roomID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid room ID"})
		return
	}

	var req JoinQueueRequest
	if err := bindOptionalJSON(c, &req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	slot, err := h.engine.JoinQueue(c.Request.Context(), roomID, userID.(uuid.UUID), req.Message)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, slot)
}

func (h *QueueHandler) Leave(c *gin.Context) {
	userID, _ := c.Get("user_id")
	roomID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid room ID"})
		return
	}

	if err := h.engine.LeaveQueue(c.Request.Context(), roomID, userID.(uuid.UUID)); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Left the queue"})
}

func (h *QueueHandler) GrantNext(c *gin.Context) {
	userID, _ := c.Get("user_id")
	roomID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid room ID"})
		return
	}

	slot, err := h.engine.GrantNext(c.Request.Context(), roomID, userID.(uuid.UUID))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, slot)
}

type FinishSpeakingRequest struct {
	UserID *uuid.UUID `json:"user_id,omitempty"` // модератор может завершить чужое выступление
}

func (h *QueueHandler) Finish(c *gin.Context) {
	callerID, _ := c.Get("user_id")
	roomID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid room ID"})
		return
	}

	var req FinishSpeakingRequest
	if err := bindOptionalJSON(c, &req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	speakerID := callerID.(uuid.UUID)
	if req.UserID != nil {
		speakerID = *req.UserID
	}

	slot, err := h.engine.FinishSpeaking(c.Request.Context(), roomID, callerID.(uuid.UUID), speakerID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, slot)
}

func (h *QueueHandler) Get(c *gin.Context) {
	roomID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid room ID"})
		return
	}

	queue, err := h.engine.Queue(c.Request.Context(), roomID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, queue)
}

func (h *QueueHandler) Stats(c *gin.Context) {
	roomID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid room ID"})
		return
	}

	stats, err := h.engine.ParticipationStats(c.Request.Context(), roomID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, stats)
}

package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"seminar_live/internal/domain"
	"seminar_live/internal/engine"
	"seminar_live/pkg/logger"
)

type BreakoutHandler struct {
	engine *engine.Engine
	log    logger.Logger
}

func NewBreakoutHandler(eng *engine.Engine, log logger.Logger) *BreakoutHandler {
	return &BreakoutHandler{
		engine: eng,
		log:    log,
	}
}

type CreateBreakoutRequest struct {
	Name             string `json:"name" binding:"required"`
	AssignmentMethod string `json:"assignment_method" binding:"required"`
	MaxParticipants  int    `json:"max_participants"`
	DurationMinutes  int    `json:"duration_minutes"`
}

func (h *BreakoutHandler) Create(c *gin.Context) {
	userID, _ := c.Get("user_id")
	roomID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid room ID"})
		return
	}

	var req CreateBreakoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	breakout, err := h.engine.CreateBreakout(c.Request.Context(), roomID, userID.(uuid.UUID), req.Name, req.AssignmentMethod, req.MaxParticipants, req.DurationMinutes)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, breakout)
}

type AssignParticipantsRequest struct {
	Method            string                    `json:"method" binding:"required"`
	BreakoutIDs       []uuid.UUID               `json:"breakout_ids,omitempty"`
	ParticipantIDs    []uuid.UUID               `json:"participant_ids,omitempty"`
	ClearExisting     bool                      `json:"clear_existing"`
	ManualAssignments map[uuid.UUID][]uuid.UUID `json:"manual_assignments,omitempty"`
}

func (h *BreakoutHandler) Assign(c *gin.Context) {
	userID, _ := c.Get("user_id")
	roomID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid room ID"})
		return
	}

	var req AssignParticipantsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	err = h.engine.AssignParticipants(c.Request.Context(), roomID, userID.(uuid.UUID), engine.AssignmentRequest{
		Method:            req.Method,
		BreakoutIDs:       req.BreakoutIDs,
		ParticipantIDs:    req.ParticipantIDs,
		ClearExisting:     req.ClearExisting,
		ManualAssignments: req.ManualAssignments,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Participants assigned"})
}

func (h *BreakoutHandler) Start(c *gin.Context) {
	h.lifecycleOp(c, h.engine.StartBreakout)
}

func (h *BreakoutHandler) End(c *gin.Context) {
	h.lifecycleOp(c, h.engine.EndBreakout)
}

type BroadcastMessageRequest struct {
	Content     string `json:"content" binding:"required"`
	MessageType string `json:"message_type,omitempty"`
}

func (h *BreakoutHandler) Broadcast(c *gin.Context) {
	userID, _ := c.Get("user_id")
	roomID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid room ID"})
		return
	}
	breakoutID, err := uuid.Parse(c.Param("breakoutId"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid breakout ID"})
		return
	}

	var req BroadcastMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.engine.BroadcastToBreakout(c.Request.Context(), roomID, breakoutID, userID.(uuid.UUID), req.Content, req.MessageType); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Message delivered"})
}

func (h *BreakoutHandler) Statuses(c *gin.Context) {
	roomID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid room ID"})
		return
	}

	statuses, err := h.engine.BreakoutStatuses(c.Request.Context(), roomID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, statuses)
}

func (h *BreakoutHandler) lifecycleOp(c *gin.Context, op func(ctx context.Context, roomID, breakoutID, callerID uuid.UUID) (*domain.BreakoutRoom, error)) {
	userID, _ := c.Get("user_id")
	roomID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid room ID"})
		return
	}
	breakoutID, err := uuid.Parse(c.Param("breakoutId"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid breakout ID"})
		return
	}

	breakout, err := op(c.Request.Context(), roomID, breakoutID, userID.(uuid.UUID))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, breakout)
}

package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"seminar_live/internal/engine"
	"seminar_live/pkg/logger"
)

type ParticipantHandler struct {
	engine *engine.Engine
	log    logger.Logger
}

func NewParticipantHandler(eng *engine.Engine, log logger.Logger) *ParticipantHandler {
	return &ParticipantHandler{
		engine: eng,
		log:    log,
	}
}

type JoinRoomRequest struct {
	Role         string `json:"role,omitempty"`
	AudioEnabled bool   `json:"audio_enabled"`
	VideoEnabled bool   `json:"video_enabled"`
}

func (h *ParticipantHandler) Join(c *gin.Context) {
	userID, _ := c.Get("user_id")
	roomID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid room ID"})
		return
	}

	var req JoinRoomRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	participant, err := h.engine.Join(c.Request.Context(), roomID, userID.(uuid.UUID), req.Role, req.AudioEnabled, req.VideoEnabled)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, participant)
}

func (h *ParticipantHandler) Leave(c *gin.Context) {
	userID, _ := c.Get("user_id")
	roomID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid room ID"})
		return
	}

	if err := h.engine.Leave(c.Request.Context(), roomID, userID.(uuid.UUID)); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Left the room"})
}

func (h *ParticipantHandler) Admit(c *gin.Context) {
	callerID, _ := c.Get("user_id")
	roomID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid room ID"})
		return
	}
	userID, err := uuid.Parse(c.Param("userId"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid user ID"})
		return
	}

	participant, err := h.engine.Admit(c.Request.Context(), roomID, callerID.(uuid.UUID), userID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, participant)
}

func (h *ParticipantHandler) Roster(c *gin.Context) {
	roomID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid room ID"})
		return
	}

	participants, err := h.engine.Roster(c.Request.Context(), roomID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, participants)
}

func (h *ParticipantHandler) RaisedHands(c *gin.Context) {
	roomID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid room ID"})
		return
	}

	participants, err := h.engine.RaisedHands(c.Request.Context(), roomID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, participants)
}

func (h *ParticipantHandler) RaiseHand(c *gin.Context) {
	h.flagOp(c, func(roomID, userID uuid.UUID) error {
		return h.engine.RaiseHand(c.Request.Context(), roomID, userID)
	})
}

func (h *ParticipantHandler) LowerHand(c *gin.Context) {
	h.flagOp(c, func(roomID, userID uuid.UUID) error {
		return h.engine.LowerHand(c.Request.Context(), roomID, userID)
	})
}

type ToggleRequest struct {
	Enabled bool `json:"enabled"`
}

func (h *ParticipantHandler) SetMute(c *gin.Context) {
	var req ToggleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	h.flagOp(c, func(roomID, userID uuid.UUID) error {
		return h.engine.SetMute(c.Request.Context(), roomID, userID, req.Enabled)
	})
}

func (h *ParticipantHandler) SetVideo(c *gin.Context) {
	var req ToggleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	h.flagOp(c, func(roomID, userID uuid.UUID) error {
		return h.engine.SetVideo(c.Request.Context(), roomID, userID, req.Enabled)
	})
}

func (h *ParticipantHandler) SetScreenShare(c *gin.Context) {
	var req ToggleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	h.flagOp(c, func(roomID, userID uuid.UUID) error {
		return h.engine.SetScreenShare(c.Request.Context(), roomID, userID, req.Enabled)
	})
}

func (h *ParticipantHandler) flagOp(c *gin.Context, op func(roomID, userID uuid.UUID) error) {
	userID, _ := c.Get("user_id")
	roomID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid room ID"})
		return
	}

	if err := op(roomID, userID.(uuid.UUID)); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "OK"})
}

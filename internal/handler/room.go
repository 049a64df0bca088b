package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"seminar_live/internal/domain"
	"seminar_live/internal/engine"
	"seminar_live/pkg/logger"
)

type RoomHandler struct {
	engine *engine.Engine
	log    logger.Logger
}

func NewRoomHandler(eng *engine.Engine, log logger.Logger) *RoomHandler {
	return &RoomHandler{
		engine: eng,
		log:    log,
	}
}

type CreateRoomRequest struct {
	SessionID       uuid.UUID            `json:"session_id" binding:"required"`
	MaxParticipants int                  `json:"max_participants"`
	Settings        *domain.RoomSettings `json:"settings,omitempty"`
}

func (h *RoomHandler) Create(c *gin.Context) {
	userID, _ := c.Get("user_id")
	var req CreateRoomRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	room, err := h.engine.CreateRoom(c.Request.Context(), req.SessionID, userID.(uuid.UUID), req.MaxParticipants, req.Settings)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, room)
}

func (h *RoomHandler) GetByID(c *gin.Context) {
	roomID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid room ID"})
		return
	}

	snap, err := h.engine.GetRoom(c.Request.Context(), roomID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, snap)
}

func (h *RoomHandler) GetBySession(c *gin.Context) {
	sessionID, err := uuid.Parse(c.Param("sessionId"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid session ID"})
		return
	}

	snap, err := h.engine.GetRoomBySession(c.Request.Context(), sessionID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, snap)
}

func (h *RoomHandler) List(c *gin.Context) {
	c.JSON(http.StatusOK, h.engine.ActiveRooms(c.Request.Context()))
}

func (h *RoomHandler) Start(c *gin.Context) {
	userID, _ := c.Get("user_id")
	roomID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid room ID"})
		return
	}

	room, err := h.engine.Start(c.Request.Context(), roomID, userID.(uuid.UUID))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, room)
}

func (h *RoomHandler) End(c *gin.Context) {
	userID, _ := c.Get("user_id")
	roomID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid room ID"})
		return
	}

	room, err := h.engine.End(c.Request.Context(), roomID, userID.(uuid.UUID))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, room)
}

type UpdateLayoutRequest struct {
	Layout string `json:"layout" binding:"required"`
}

func (h *RoomHandler) UpdateLayout(c *gin.Context) {
	userID, _ := c.Get("user_id")
	roomID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid room ID"})
		return
	}

	var req UpdateLayoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	room, err := h.engine.UpdateLayout(c.Request.Context(), roomID, userID.(uuid.UUID), req.Layout)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, room)
}

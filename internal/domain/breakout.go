package domain

import (
	"time"

	"github.com/google/uuid"
)

type BreakoutRoom struct {
	ID               uuid.UUID   `json:"id"`
	ParentRoomID     uuid.UUID   `json:"parent_room_id"`
	Name             string      `json:"name"`
	Status           string      `json:"status"`
	AssignmentMethod string      `json:"assignment_method"`
	MaxParticipants  int         `json:"max_participants"` // 0 — без ограничения
	DurationMinutes  int         `json:"duration_minutes"` // 0 — без таймера
	ParticipantIDs   []uuid.UUID `json:"participant_ids"`
	StartedAt        *time.Time  `json:"started_at,omitempty"`
	EndsAt           *time.Time  `json:"ends_at,omitempty"`
	EndedAt          *time.Time  `json:"ended_at,omitempty"`
	CreatedAt        time.Time   `json:"created_at"`
}

const (
	BreakoutStatusPending = "pending"
	BreakoutStatusActive  = "active"
	BreakoutStatusEnded   = "ended"
)

const (
	AssignmentManual = "manual"
	AssignmentRandom = "random"
	AssignmentEven   = "even"
)

func ValidAssignmentMethod(method string) bool {
	switch method {
	case AssignmentManual, AssignmentRandom, AssignmentEven:
		return true
	}
	return false
}

func (b *BreakoutRoom) IsActive() bool {
	return b.Status == BreakoutStatusActive
}

func (b *BreakoutRoom) HasEnded() bool {
	return b.Status == BreakoutStatusEnded
}

// BreakoutStatus — снимок состояния breakout-комнаты для опроса клиентами
type BreakoutStatus struct {
	ID               uuid.UUID  `json:"id"`
	Name             string     `json:"name"`
	Status           string     `json:"status"`
	ParticipantCount int        `json:"participant_count"`
	MaxParticipants  int        `json:"max_participants"`
	StartedAt        *time.Time `json:"started_at,omitempty"`
	EndsAt           *time.Time `json:"ends_at,omitempty"`
	RemainingMinutes int        `json:"remaining_minutes"`
}

package domain

import (
	"time"

	"github.com/google/uuid"
)

type SpeakingSlot struct {
	ID              uuid.UUID  `json:"id"`
	RoomID          uuid.UUID  `json:"room_id"`
	UserID          uuid.UUID  `json:"user_id"`
	Status          string     `json:"status"`
	QueuePosition   int        `json:"queue_position"`
	Message         string     `json:"message,omitempty"`
	GrantedAt       *time.Time `json:"granted_at,omitempty"`
	FinishedAt      *time.Time `json:"finished_at,omitempty"`
	DurationSeconds int        `json:"duration_seconds"`
	CreatedAt       time.Time  `json:"created_at"`
}

const (
	SpeakingStatusQueued   = "queued"
	SpeakingStatusGranted  = "granted"
	SpeakingStatusFinished = "finished"
)

func (s *SpeakingSlot) IsQueued() bool {
	return s.Status == SpeakingStatusQueued
}

func (s *SpeakingSlot) IsGranted() bool {
	return s.Status == SpeakingStatusGranted
}

// SpeakerStats — агрегированная статистика выступлений одного пользователя
type SpeakerStats struct {
	UserID              uuid.UUID `json:"user_id"`
	SpeakingCount       int       `json:"speaking_count"`
	TotalSeconds        int       `json:"total_seconds"`
	AverageSpeakingSecs float64   `json:"average_speaking_seconds"`
}

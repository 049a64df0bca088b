package domain

import (
	"time"

	"github.com/google/uuid"
)

type Participant struct {
	ID              uuid.UUID  `json:"id"`
	RoomID          uuid.UUID  `json:"room_id"`
	UserID          uuid.UUID  `json:"user_id"`
	Role            string     `json:"role"`
	Status          string     `json:"status"`
	IsHandRaised    bool       `json:"is_hand_raised"`
	IsMuted         bool       `json:"is_muted"`
	IsVideoOn       bool       `json:"is_video_on"`
	IsScreenSharing bool       `json:"is_screen_sharing"`
	JoinedAt        *time.Time `json:"joined_at,omitempty"`
	LeftAt          *time.Time `json:"left_at,omitempty"`
}

const (
	RoleHost        = "host"
	RoleCoHost      = "co_host"
	RoleParticipant = "participant"
)

const (
	ParticipantStatusWaiting = "waiting"
	ParticipantStatusJoined  = "joined"
	ParticipantStatusLeft    = "left"
)

// IsModerator сообщает, может ли участник выполнять привилегированные операции
func (p *Participant) IsModerator() bool {
	return p.Role == RoleHost || p.Role == RoleCoHost
}

func (p *Participant) IsJoined() bool {
	return p.Status == ParticipantStatusJoined
}

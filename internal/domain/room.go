package domain

import (
	"time"

	"github.com/google/uuid"
)

type Room struct {
	ID              uuid.UUID    `json:"id"`
	SessionID       uuid.UUID    `json:"session_id"`
	HostUserID      uuid.UUID    `json:"host_user_id"`
	Status          string       `json:"status"`
	Layout          string       `json:"layout"`
	MaxParticipants int          `json:"max_participants"`
	Settings        RoomSettings `json:"settings"`
	StartedAt       *time.Time   `json:"started_at,omitempty"`
	EndedAt         *time.Time   `json:"ended_at,omitempty"`
	CreatedAt       time.Time    `json:"created_at"`
	UpdatedAt       time.Time    `json:"updated_at"`
}

type RoomSettings struct {
	EnableWaitingRoom bool `json:"enable_waiting_room"`
	AutoRecord        bool `json:"auto_record"`
	AllowChat         bool `json:"allow_chat"`
	AllowReactions    bool `json:"allow_reactions"`
	AllowScreenShare  bool `json:"allow_screen_share"`
	MuteOnEntry       bool `json:"mute_on_entry"`
	VideoOnEntry      bool `json:"video_on_entry"`
}

func DefaultRoomSettings() RoomSettings {
	return RoomSettings{
		EnableWaitingRoom: true,
		AutoRecord:        true,
		AllowChat:         true,
		AllowReactions:    true,
		AllowScreenShare:  true,
		MuteOnEntry:       false,
		VideoOnEntry:      true,
	}
}

const (
	RoomStatusWaiting = "waiting"
	RoomStatusActive  = "active"
	RoomStatusEnded   = "ended"
)

const (
	LayoutGallery      = "gallery"
	LayoutSpeaker      = "speaker"
	LayoutSidebar      = "sidebar"
	LayoutPresentation = "presentation"
)

func ValidLayout(layout string) bool {
	switch layout {
	case LayoutGallery, LayoutSpeaker, LayoutSidebar, LayoutPresentation:
		return true
	}
	return false
}

func (r *Room) IsActive() bool {
	return r.Status == RoomStatusActive
}

func (r *Room) HasEnded() bool {
	return r.Status == RoomStatusEnded
}

func (r *Room) IsWaiting() bool {
	return r.Status == RoomStatusWaiting
}

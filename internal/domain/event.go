package domain

import (
	"time"

	"github.com/google/uuid"
)

// Event — типизированный конверт, доставляемый подписчикам комнаты
type Event struct {
	EventType string      `json:"event_type"`
	RoomID    uuid.UUID   `json:"room_id"`
	SenderID  *uuid.UUID  `json:"sender_id,omitempty"` // nil для системных событий
	Payload   interface{} `json:"payload"`
	Timestamp time.Time   `json:"timestamp"`
}

const (
	EventParticipantJoined  = "PARTICIPANT_JOINED"
	EventParticipantLeft    = "PARTICIPANT_LEFT"
	EventRoomStarted        = "ROOM_STARTED"
	EventRoomEnded          = "ROOM_ENDED"
	EventChatMessage        = "CHAT_MESSAGE"
	EventFileShared         = "FILE_SHARED"
	EventHandRaised         = "HAND_RAISED"
	EventHandLowered        = "HAND_LOWERED"
	EventReaction           = "REACTION"
	EventScreenShareStarted = "SCREEN_SHARE_STARTED"
	EventScreenShareStopped = "SCREEN_SHARE_STOPPED"
	EventMuteChanged        = "MUTE_CHANGED"
	EventVideoChanged       = "VIDEO_CHANGED"
	EventLayoutChanged      = "LAYOUT_CHANGED"
	EventFloorGranted       = "FLOOR_GRANTED"
	EventFloorReleased      = "FLOOR_RELEASED"
	EventRoomSnapshot       = "ROOM_SNAPSHOT"
)

package domain

import (
	"time"

	"github.com/google/uuid"
)

type ChatMessage struct {
	ID          uuid.UUID  `json:"id"`
	RoomID      uuid.UUID  `json:"room_id"`
	SenderID    *uuid.UUID `json:"sender_id,omitempty"` // nil для системных сообщений
	MessageType string     `json:"message_type"`
	Content     string     `json:"content"`
	FileName    string     `json:"file_name,omitempty"`
	FileURL     string     `json:"file_url,omitempty"`
	FileSize    int64      `json:"file_size,omitempty"`
	Sequence    int64      `json:"sequence"`
	CreatedAt   time.Time  `json:"created_at"`
	DeletedAt   *time.Time `json:"deleted_at,omitempty"`
}

const (
	MessageTypeText   = "text"
	MessageTypeFile   = "file"
	MessageTypeSystem = "system"
)

func (m *ChatMessage) IsSystemMessage() bool {
	return m.MessageType == MessageTypeSystem
}

func (m *ChatMessage) IsFileMessage() bool {
	return m.MessageType == MessageTypeFile
}

type Reaction struct {
	ID           uuid.UUID `json:"id"`
	RoomID       uuid.UUID `json:"room_id"`
	UserID       uuid.UUID `json:"user_id"`
	ReactionType string    `json:"reaction_type"`
	Emoji        string    `json:"emoji"`
	CreatedAt    time.Time `json:"created_at"`
}

const (
	ReactionThumbsUp  = "thumbs_up"
	ReactionClap      = "clap"
	ReactionHeart     = "heart"
	ReactionLaugh     = "laugh"
	ReactionSurprised = "surprised"
	ReactionThinking  = "thinking"
)

var reactionEmojis = map[string]string{
	ReactionThumbsUp:  "👍",
	ReactionClap:      "👏",
	ReactionHeart:     "❤️",
	ReactionLaugh:     "😂",
	ReactionSurprised: "😮",
	ReactionThinking:  "🤔",
}

// ReactionEmoji возвращает emoji для типа реакции
func ReactionEmoji(reactionType string) (string, bool) {
	emoji, ok := reactionEmojis[reactionType]
	return emoji, ok
}

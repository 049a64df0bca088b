package engine

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"seminar_live/internal/domain"
	apperr "seminar_live/pkg/errors"
)

// FileAttachment описывает файл, публикуемый в чат
type FileAttachment struct {
	Name string
	URL  string
	Size int64
}

// PostMessage публикует сообщение в чат комнаты. Сообщение получает
// сквозной номер в журнале комнаты и рассылается подписчикам в порядке
// мутаций комнаты.
func (e *Engine) PostMessage(ctx context.Context, roomID, senderID uuid.UUID, content string, file *FileAttachment) (*domain.ChatMessage, error) {
	if content == "" && file == nil {
		return nil, fmt.Errorf("message content is required: %w", apperr.ErrValidation)
	}

	var posted domain.ChatMessage

	err := e.do(roomID, func(st *roomState) error {
		if !st.room.IsActive() || !st.room.Settings.AllowChat {
			return fmt.Errorf("chat is closed in room %s: %w", roomID, apperr.ErrRoomClosed)
		}

		p := st.participant(senderID)
		if p == nil || !p.IsJoined() {
			return fmt.Errorf("user %s: %w", senderID, apperr.ErrNotJoined)
		}

		st.chatSeq++
		sender := senderID
		message := &domain.ChatMessage{
			ID:          uuid.New(),
			RoomID:      roomID,
			SenderID:    &sender,
			MessageType: domain.MessageTypeText,
			Content:     content,
			Sequence:    st.chatSeq,
			CreatedAt:   time.Now(),
		}

		eventType := domain.EventChatMessage
		if file != nil {
			message.MessageType = domain.MessageTypeFile
			message.FileName = file.Name
			message.FileURL = file.URL
			message.FileSize = file.Size
			eventType = domain.EventFileShared
		}

		st.messages = append(st.messages, message)

		e.persistMessage(*message)
		e.pub.BroadcastToRoom(roomID, eventType, &sender, *message)

		posted = *message
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &posted, nil
}

// postSystemMessage пишет служебное сообщение в журнал комнаты.
// Вызывается только из горутины актора и не проверяет настройки чата.
func (e *Engine) postSystemMessage(st *roomState, content string) {
	st.chatSeq++
	message := &domain.ChatMessage{
		ID:          uuid.New(),
		RoomID:      st.room.ID,
		MessageType: domain.MessageTypeSystem,
		Content:     content,
		Sequence:    st.chatSeq,
		CreatedAt:   time.Now(),
	}
	st.messages = append(st.messages, message)

	e.persistMessage(*message)
	e.pub.BroadcastToRoom(st.room.ID, domain.EventChatMessage, nil, *message)
}

// DeleteMessage помечает сообщение удалённым. Удалить может автор или
// модератор; из журнала сообщение не исчезает, но перестаёт отдаваться.
func (e *Engine) DeleteMessage(ctx context.Context, roomID, callerID, messageID uuid.UUID) error {
	return e.do(roomID, func(st *roomState) error {
		if st.room.HasEnded() {
			return fmt.Errorf("room %s: %w", roomID, apperr.ErrRoomClosed)
		}

		for _, m := range st.messages {
			if m.ID != messageID {
				continue
			}
			if m.DeletedAt != nil {
				return nil
			}
			owner := m.SenderID != nil && *m.SenderID == callerID
			if !owner && !st.isModerator(callerID) {
				return fmt.Errorf("user %s cannot delete this message: %w", callerID, apperr.ErrPermission)
			}

			now := time.Now()
			m.DeletedAt = &now
			e.writer.enqueue(func(ctx context.Context) error {
				return e.repos.Chat.SoftDeleteMessage(ctx, messageID, now)
			})
			return nil
		}
		return fmt.Errorf("message %s: %w", messageID, apperr.ErrNotFound)
	})
}

// FetchSince возвращает сообщения журнала комнаты после отметки времени,
// по возрастанию номера. Нужен переподключившимся клиентам для догонки.
// Для комнат без живого актора история читается из хранилища.
func (e *Engine) FetchSince(ctx context.Context, roomID uuid.UUID, since time.Time, limit int) ([]domain.ChatMessage, error) {
	if limit <= 0 || limit > 500 {
		limit = 100
	}

	var result []domain.ChatMessage
	err := e.do(roomID, func(st *roomState) error {
		result = make([]domain.ChatMessage, 0)
		for _, m := range st.messages {
			if m.DeletedAt != nil {
				continue
			}
			if !m.CreatedAt.After(since) {
				continue
			}
			result = append(result, *m)
			if len(result) >= limit {
				break
			}
		}
		return nil
	})
	if err == nil {
		return result, nil
	}
	if !errors.Is(err, apperr.ErrNotFound) {
		return nil, err
	}

	if _, err := e.repos.Room.GetByID(ctx, roomID); err != nil {
		return nil, err
	}
	stored, err := e.repos.Chat.GetMessagesSince(ctx, roomID, since, limit)
	if err != nil {
		return nil, err
	}
	result = make([]domain.ChatMessage, 0, len(stored))
	for _, m := range stored {
		result = append(result, *m)
	}
	return result, nil
}

// PostReaction публикует эфемерную реакцию. Реакции не попадают в журнал
// чата: последние хранятся в скользящем окне в Redis.
func (e *Engine) PostReaction(ctx context.Context, roomID, senderID uuid.UUID, reactionType string) (*domain.Reaction, error) {
	emoji, ok := domain.ReactionEmoji(reactionType)
	if !ok {
		return nil, fmt.Errorf("unknown reaction type %q: %w", reactionType, apperr.ErrValidation)
	}

	var posted domain.Reaction

	err := e.do(roomID, func(st *roomState) error {
		if !st.room.IsActive() {
			return fmt.Errorf("room %s: %w", roomID, apperr.ErrRoomClosed)
		}
		if !st.room.Settings.AllowReactions {
			return fmt.Errorf("reactions disabled in room %s: %w", roomID, apperr.ErrPermission)
		}

		p := st.participant(senderID)
		if p == nil || !p.IsJoined() {
			return fmt.Errorf("user %s: %w", senderID, apperr.ErrNotJoined)
		}

		reaction := domain.Reaction{
			ID:           uuid.New(),
			RoomID:       roomID,
			UserID:       senderID,
			ReactionType: reactionType,
			Emoji:        emoji,
			CreatedAt:    time.Now(),
		}

		e.writer.enqueue(func(ctx context.Context) error {
			return e.repos.Reaction.Push(ctx, &reaction)
		})
		e.pub.BroadcastToRoom(roomID, domain.EventReaction, &senderID, reaction)

		posted = reaction
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &posted, nil
}

// RecentReactions отдаёт реакции из скользящего окна
func (e *Engine) RecentReactions(ctx context.Context, roomID uuid.UUID, since time.Time) ([]*domain.Reaction, error) {
	if _, err := e.snapshotOrLoad(ctx, roomID); err != nil {
		return nil, err
	}
	return e.repos.Reaction.Recent(ctx, roomID, since)
}

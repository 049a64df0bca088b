package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"seminar_live/internal/domain"
	"seminar_live/pkg/logger"
)

type ChatRepository interface {
	CreateMessage(ctx context.Context, message *domain.ChatMessage) error
	SoftDeleteMessage(ctx context.Context, messageID uuid.UUID, deletedAt time.Time) error
	GetMessagesSince(ctx context.Context, roomID uuid.UUID, since time.Time, limit int) ([]*domain.ChatMessage, error)
}

type chatRepository struct {
	db  *pgxpool.Pool
	log logger.Logger
}

func NewChatRepository(db *pgxpool.Pool, log logger.Logger) ChatRepository {
	return &chatRepository{db: db, log: log}
}

func (r *chatRepository) CreateMessage(ctx context.Context, m *domain.ChatMessage) error {
	query := `
		INSERT INTO chat_messages (id, room_id, sender_id, message_type, content, file_name, file_url, file_size, sequence, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`

	_, err := r.db.Exec(ctx, query,
		m.ID, m.RoomID, m.SenderID, m.MessageType, m.Content,
		m.FileName, m.FileURL, m.FileSize, m.Sequence, m.CreatedAt,
	)
	if err != nil {
		r.log.Error("Failed to create message", "room_id", m.RoomID, "error", err)
		return err
	}

	return nil
}

func (r *chatRepository) SoftDeleteMessage(ctx context.Context, messageID uuid.UUID, deletedAt time.Time) error {
	_, err := r.db.Exec(ctx,
		`UPDATE chat_messages SET deleted_at = $2 WHERE id = $1`,
		messageID, deletedAt,
	)
	if err != nil {
		r.log.Error("Failed to delete message", "message_id", messageID, "error", err)
		return err
	}
	return nil
}

func (r *chatRepository) GetMessagesSince(ctx context.Context, roomID uuid.UUID, since time.Time, limit int) ([]*domain.ChatMessage, error) {
	if limit <= 0 || limit > 500 {
		limit = 200
	}

	query := `
		SELECT id, room_id, sender_id, message_type, content, file_name, file_url, file_size, sequence, created_at, deleted_at
		FROM chat_messages
		WHERE room_id = $1 AND created_at > $2 AND deleted_at IS NULL
		ORDER BY sequence ASC
		LIMIT $3
	`

	rows, err := r.db.Query(ctx, query, roomID, since, limit)
	if err != nil {
		r.log.Error("Failed to get messages", "room_id", roomID, "error", err)
		return nil, err
	}
	defer rows.Close()

	var messages []*domain.ChatMessage
	for rows.Next() {
		m := &domain.ChatMessage{}
		var deletedAt sql.NullTime
		err := rows.Scan(
			&m.ID, &m.RoomID, &m.SenderID, &m.MessageType, &m.Content,
			&m.FileName, &m.FileURL, &m.FileSize, &m.Sequence, &m.CreatedAt, &deletedAt,
		)
		if err != nil {
			r.log.Error("Failed to scan message", "error", err)
			return nil, err
		}
		if deletedAt.Valid {
			m.DeletedAt = &deletedAt.Time
		}
		messages = append(messages, m)
	}

	return messages, nil
}

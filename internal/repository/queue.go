package repository

import (
	"context"
	"database/sql"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"seminar_live/internal/domain"
	"seminar_live/pkg/logger"
)

type QueueRepository interface {
	Save(ctx context.Context, slot *domain.SpeakingSlot) error
	Delete(ctx context.Context, slotID uuid.UUID) error
	GetByRoom(ctx context.Context, roomID uuid.UUID) ([]*domain.SpeakingSlot, error)
}

type queueRepository struct {
	db  *pgxpool.Pool
	log logger.Logger
}

func NewQueueRepository(db *pgxpool.Pool, log logger.Logger) QueueRepository {
	return &queueRepository{db: db, log: log}
}

func (r *queueRepository) Save(ctx context.Context, slot *domain.SpeakingSlot) error {
	query := `
		INSERT INTO speaking_slots (id, room_id, user_id, status, queue_position, message, granted_at, finished_at, duration_seconds, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (id) DO UPDATE
		SET status = $4, queue_position = $5, granted_at = $7, finished_at = $8, duration_seconds = $9
	`

	_, err := r.db.Exec(ctx, query,
		slot.ID, slot.RoomID, slot.UserID, slot.Status, slot.QueuePosition,
		slot.Message, slot.GrantedAt, slot.FinishedAt, slot.DurationSeconds, slot.CreatedAt,
	)
	if err != nil {
		r.log.Error("Failed to save speaking slot", "slot_id", slot.ID, "error", err)
		return err
	}

	return nil
}

func (r *queueRepository) Delete(ctx context.Context, slotID uuid.UUID) error {
	_, err := r.db.Exec(ctx, `DELETE FROM speaking_slots WHERE id = $1`, slotID)
	if err != nil {
		r.log.Error("Failed to delete speaking slot", "slot_id", slotID, "error", err)
		return err
	}
	return nil
}

func (r *queueRepository) GetByRoom(ctx context.Context, roomID uuid.UUID) ([]*domain.SpeakingSlot, error) {
	query := `
		SELECT id, room_id, user_id, status, queue_position, message, granted_at, finished_at, duration_seconds, created_at
		FROM speaking_slots
		WHERE room_id = $1
		ORDER BY queue_position ASC
	`

	rows, err := r.db.Query(ctx, query, roomID)
	if err != nil {
		r.log.Error("Failed to get speaking slots", "room_id", roomID, "error", err)
		return nil, err
	}
	defer rows.Close()

	var slots []*domain.SpeakingSlot
	for rows.Next() {
		slot := &domain.SpeakingSlot{}
		var grantedAt, finishedAt sql.NullTime
		err := rows.Scan(
			&slot.ID, &slot.RoomID, &slot.UserID, &slot.Status, &slot.QueuePosition,
			&slot.Message, &grantedAt, &finishedAt, &slot.DurationSeconds, &slot.CreatedAt,
		)
		if err != nil {
			r.log.Error("Failed to scan speaking slot", "error", err)
			return nil, err
		}
		if grantedAt.Valid {
			slot.GrantedAt = &grantedAt.Time
		}
		if finishedAt.Valid {
			slot.FinishedAt = &finishedAt.Time
		}
		slots = append(slots, slot)
	}

	return slots, nil
}

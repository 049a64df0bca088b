package repository

import (
	"context"
	"database/sql"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"seminar_live/internal/domain"
	"seminar_live/pkg/logger"
)

type ParticipantRepository interface {
	Upsert(ctx context.Context, participant *domain.Participant) error
	GetByRoom(ctx context.Context, roomID uuid.UUID) ([]*domain.Participant, error)
}

type participantRepository struct {
	db  *pgxpool.Pool
	log logger.Logger
}

func NewParticipantRepository(db *pgxpool.Pool, log logger.Logger) ParticipantRepository {
	return &participantRepository{db: db, log: log}
}

func (r *participantRepository) Upsert(ctx context.Context, p *domain.Participant) error {
	query := `
		INSERT INTO room_participants (id, room_id, user_id, role, status, is_hand_raised, is_muted, is_video_on, is_screen_sharing, joined_at, left_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		ON CONFLICT (room_id, user_id) DO UPDATE
		SET role = $4, status = $5, is_hand_raised = $6, is_muted = $7,
		    is_video_on = $8, is_screen_sharing = $9, joined_at = $10, left_at = $11
	`

	_, err := r.db.Exec(ctx, query,
		p.ID, p.RoomID, p.UserID, p.Role, p.Status,
		p.IsHandRaised, p.IsMuted, p.IsVideoOn, p.IsScreenSharing,
		p.JoinedAt, p.LeftAt,
	)
	if err != nil {
		r.log.Error("Failed to upsert participant", "room_id", p.RoomID, "user_id", p.UserID, "error", err)
		return err
	}

	return nil
}

func (r *participantRepository) GetByRoom(ctx context.Context, roomID uuid.UUID) ([]*domain.Participant, error) {
	query := `
		SELECT id, room_id, user_id, role, status, is_hand_raised, is_muted, is_video_on, is_screen_sharing, joined_at, left_at
		FROM room_participants
		WHERE room_id = $1
		ORDER BY joined_at NULLS LAST
	`

	rows, err := r.db.Query(ctx, query, roomID)
	if err != nil {
		r.log.Error("Failed to get participants", "room_id", roomID, "error", err)
		return nil, err
	}
	defer rows.Close()

	var participants []*domain.Participant
	for rows.Next() {
		p := &domain.Participant{}
		var joinedAt, leftAt sql.NullTime
		err := rows.Scan(
			&p.ID, &p.RoomID, &p.UserID, &p.Role, &p.Status,
			&p.IsHandRaised, &p.IsMuted, &p.IsVideoOn, &p.IsScreenSharing,
			&joinedAt, &leftAt,
		)
		if err != nil {
			r.log.Error("Failed to scan participant", "error", err)
			return nil, err
		}
		if joinedAt.Valid {
			p.JoinedAt = &joinedAt.Time
		}
		if leftAt.Valid {
			p.LeftAt = &leftAt.Time
		}
		participants = append(participants, p)
	}

	return participants, nil
}

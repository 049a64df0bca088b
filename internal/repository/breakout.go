package repository

import (
	"context"
	"database/sql"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"seminar_live/internal/domain"
	"seminar_live/pkg/logger"
)

type BreakoutRepository interface {
	Save(ctx context.Context, breakout *domain.BreakoutRoom) error
	GetByParent(ctx context.Context, roomID uuid.UUID) ([]*domain.BreakoutRoom, error)
}

type breakoutRepository struct {
	db  *pgxpool.Pool
	log logger.Logger
}

func NewBreakoutRepository(db *pgxpool.Pool, log logger.Logger) BreakoutRepository {
	return &breakoutRepository{db: db, log: log}
}

// Save записывает breakout-комнату вместе с её составом одним батчем:
// состав перезаписывается целиком, чтобы строки всегда отражали
// актуальное назначение.
func (r *breakoutRepository) Save(ctx context.Context, b *domain.BreakoutRoom) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	query := `
		INSERT INTO breakout_rooms (id, parent_room_id, name, status, assignment_method, max_participants, duration_minutes, started_at, ends_at, ended_at, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		ON CONFLICT (id) DO UPDATE
		SET name = $3, status = $4, assignment_method = $5, max_participants = $6,
		    duration_minutes = $7, started_at = $8, ends_at = $9, ended_at = $10
	`

	_, err = tx.Exec(ctx, query,
		b.ID, b.ParentRoomID, b.Name, b.Status, b.AssignmentMethod,
		b.MaxParticipants, b.DurationMinutes, b.StartedAt, b.EndsAt, b.EndedAt, b.CreatedAt,
	)
	if err != nil {
		r.log.Error("Failed to save breakout room", "breakout_id", b.ID, "error", err)
		return err
	}

	if _, err := tx.Exec(ctx, `DELETE FROM breakout_participants WHERE breakout_room_id = $1`, b.ID); err != nil {
		return err
	}
	for _, userID := range b.ParticipantIDs {
		_, err := tx.Exec(ctx,
			`INSERT INTO breakout_participants (breakout_room_id, user_id) VALUES ($1, $2)`,
			b.ID, userID,
		)
		if err != nil {
			return err
		}
	}

	return tx.Commit(ctx)
}

func (r *breakoutRepository) GetByParent(ctx context.Context, roomID uuid.UUID) ([]*domain.BreakoutRoom, error) {
	query := `
		SELECT id, parent_room_id, name, status, assignment_method, max_participants, duration_minutes, started_at, ends_at, ended_at, created_at
		FROM breakout_rooms
		WHERE parent_room_id = $1
		ORDER BY created_at ASC
	`

	rows, err := r.db.Query(ctx, query, roomID)
	if err != nil {
		r.log.Error("Failed to get breakout rooms", "room_id", roomID, "error", err)
		return nil, err
	}
	defer rows.Close()

	var breakouts []*domain.BreakoutRoom
	for rows.Next() {
		b := &domain.BreakoutRoom{}
		var startedAt, endsAt, endedAt sql.NullTime
		err := rows.Scan(
			&b.ID, &b.ParentRoomID, &b.Name, &b.Status, &b.AssignmentMethod,
			&b.MaxParticipants, &b.DurationMinutes, &startedAt, &endsAt, &endedAt, &b.CreatedAt,
		)
		if err != nil {
			r.log.Error("Failed to scan breakout room", "error", err)
			return nil, err
		}
		if startedAt.Valid {
			b.StartedAt = &startedAt.Time
		}
		if endsAt.Valid {
			b.EndsAt = &endsAt.Time
		}
		if endedAt.Valid {
			b.EndedAt = &endedAt.Time
		}
		breakouts = append(breakouts, b)
	}

	for _, b := range breakouts {
		memberRows, err := r.db.Query(ctx,
			`SELECT user_id FROM breakout_participants WHERE breakout_room_id = $1`, b.ID)
		if err != nil {
			return nil, err
		}
		for memberRows.Next() {
			var userID uuid.UUID
			if err := memberRows.Scan(&userID); err != nil {
				memberRows.Close()
				return nil, err
			}
			b.ParticipantIDs = append(b.ParticipantIDs, userID)
		}
		memberRows.Close()
	}

	return breakouts, nil
}

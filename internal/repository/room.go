package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"seminar_live/internal/domain"
	apperr "seminar_live/pkg/errors"
	"seminar_live/pkg/logger"
)

type RoomRepository interface {
	Create(ctx context.Context, room *domain.Room) error
	Update(ctx context.Context, room *domain.Room) error
	GetByID(ctx context.Context, roomID uuid.UUID) (*domain.Room, error)
	GetBySessionID(ctx context.Context, sessionID uuid.UUID) (*domain.Room, error)
}

type roomRepository struct {
	db  *pgxpool.Pool
	log logger.Logger
}

func NewRoomRepository(db *pgxpool.Pool, log logger.Logger) RoomRepository {
	return &roomRepository{db: db, log: log}
}

func (r *roomRepository) Create(ctx context.Context, room *domain.Room) error {
	settings, err := json.Marshal(room.Settings)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO rooms (id, session_id, host_user_id, status, layout, max_participants, settings, started_at, ended_at, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`

	_, err = r.db.Exec(ctx, query,
		room.ID, room.SessionID, room.HostUserID, room.Status, room.Layout,
		room.MaxParticipants, settings, room.StartedAt, room.EndedAt,
		room.CreatedAt, room.UpdatedAt,
	)
	if err != nil {
		r.log.Error("Failed to create room", "room_id", room.ID, "error", err)
		return err
	}

	return nil
}

func (r *roomRepository) Update(ctx context.Context, room *domain.Room) error {
	settings, err := json.Marshal(room.Settings)
	if err != nil {
		return err
	}

	query := `
		UPDATE rooms
		SET status = $2, layout = $3, max_participants = $4, settings = $5,
		    started_at = $6, ended_at = $7, updated_at = $8
		WHERE id = $1
	`

	_, err = r.db.Exec(ctx, query,
		room.ID, room.Status, room.Layout, room.MaxParticipants, settings,
		room.StartedAt, room.EndedAt, room.UpdatedAt,
	)
	if err != nil {
		r.log.Error("Failed to update room", "room_id", room.ID, "error", err)
		return err
	}

	return nil
}

func (r *roomRepository) GetByID(ctx context.Context, roomID uuid.UUID) (*domain.Room, error) {
	query := `
		SELECT id, session_id, host_user_id, status, layout, max_participants, settings, started_at, ended_at, created_at, updated_at
		FROM rooms
		WHERE id = $1
	`
	return r.scanRoom(r.db.QueryRow(ctx, query, roomID))
}

func (r *roomRepository) GetBySessionID(ctx context.Context, sessionID uuid.UUID) (*domain.Room, error) {
	query := `
		SELECT id, session_id, host_user_id, status, layout, max_participants, settings, started_at, ended_at, created_at, updated_at
		FROM rooms
		WHERE session_id = $1 AND status != 'ended'
		ORDER BY created_at DESC
		LIMIT 1
	`
	return r.scanRoom(r.db.QueryRow(ctx, query, sessionID))
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func (r *roomRepository) scanRoom(row rowScanner) (*domain.Room, error) {
	room := &domain.Room{}
	var settings []byte
	var startedAt, endedAt sql.NullTime

	err := row.Scan(
		&room.ID, &room.SessionID, &room.HostUserID, &room.Status, &room.Layout,
		&room.MaxParticipants, &settings, &startedAt, &endedAt,
		&room.CreatedAt, &room.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("room: %w", apperr.ErrNotFound)
	}

	if err := json.Unmarshal(settings, &room.Settings); err != nil {
		r.log.Error("Failed to decode room settings", "room_id", room.ID, "error", err)
		room.Settings = domain.DefaultRoomSettings()
	}
	if startedAt.Valid {
		room.StartedAt = &startedAt.Time
	}
	if endedAt.Valid {
		room.EndedAt = &endedAt.Time
	}

	return room, nil
}

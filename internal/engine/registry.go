package engine

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"seminar_live/internal/domain"
	apperr "seminar_live/pkg/errors"
)

// CreateRoom создаёт комнату для учебной сессии. На одну сессию может
// существовать не более одной не завершённой комнаты.
func (e *Engine) CreateRoom(ctx context.Context, sessionID, hostUserID uuid.UUID, maxParticipants int, settings *domain.RoomSettings) (*domain.Room, error) {
	if maxParticipants <= 0 || maxParticipants > 500 {
		maxParticipants = 100
	}

	roomSettings := domain.DefaultRoomSettings()
	if settings != nil {
		roomSettings = *settings
	}

	now := time.Now()
	room := domain.Room{
		ID:              uuid.New(),
		SessionID:       sessionID,
		HostUserID:      hostUserID,
		Status:          domain.RoomStatusWaiting,
		Layout:          domain.LayoutGallery,
		MaxParticipants: maxParticipants,
		Settings:        roomSettings,
		CreatedAt:       now,
		UpdatedAt:       now,
	}

	// Ведущий сразу числится участником, но до входа остаётся waiting
	host := domain.Participant{
		ID:     uuid.New(),
		RoomID: room.ID,
		UserID: hostUserID,
		Role:   domain.RoleHost,
		Status: domain.ParticipantStatusWaiting,
	}

	e.mu.Lock()
	if existing, ok := e.bySession[sessionID]; ok {
		e.mu.Unlock()
		return nil, fmt.Errorf("session %s already has room %s: %w", sessionID, existing, apperr.ErrConflict)
	}

	actor := newRoomActor(room)
	actor.state.participants[hostUserID] = &host
	actor.state.order = append(actor.state.order, hostUserID)
	actor.snap.Store(actor.state.buildSnapshot())

	e.rooms[room.ID] = actor
	e.bySession[sessionID] = room.ID
	e.mu.Unlock()

	go actor.run()

	e.persistRoomCreate(room)
	e.persistParticipant(host)

	e.log.Info("Room created", "room_id", room.ID, "session_id", sessionID, "host_user_id", hostUserID)
	return &room, nil
}

// Start переводит комнату из ожидания в активное состояние
func (e *Engine) Start(ctx context.Context, roomID, callerID uuid.UUID) (*domain.Room, error) {
	var started domain.Room

	err := e.do(roomID, func(st *roomState) error {
		if !st.isModerator(callerID) {
			return fmt.Errorf("user %s cannot start room: %w", callerID, apperr.ErrPermission)
		}
		if st.room.HasEnded() {
			return fmt.Errorf("room %s: %w", roomID, apperr.ErrRoomClosed)
		}
		if !st.room.IsWaiting() {
			return fmt.Errorf("room %s is already %s: %w", roomID, st.room.Status, apperr.ErrInvalidState)
		}

		now := time.Now()
		st.room.Status = domain.RoomStatusActive
		st.room.StartedAt = &now
		st.room.UpdatedAt = now

		e.persistRoom(st.room)
		e.pub.BroadcastToRoom(roomID, domain.EventRoomStarted, nil, st.room)
		e.postSystemMessage(st, "Seminar started")

		started = st.room
		return nil
	})
	if err != nil {
		return nil, err
	}

	e.log.Info("Room started", "room_id", roomID)
	return &started, nil
}

// End завершает комнату: останавливает таймеры, закрывает breakout-комнаты,
// снимает текущего спикера, очищает очередь и помечает участников вышедшими.
func (e *Engine) End(ctx context.Context, roomID, callerID uuid.UUID) (*domain.Room, error) {
	var ended domain.Room
	var sessionID uuid.UUID

	err := e.do(roomID, func(st *roomState) error {
		if !st.isModerator(callerID) {
			return fmt.Errorf("user %s cannot end room: %w", callerID, apperr.ErrPermission)
		}
		if st.room.HasEnded() {
			return fmt.Errorf("room %s: %w", roomID, apperr.ErrRoomClosed)
		}

		now := time.Now()

		// Системное сообщение пишется до смены статуса
		e.postSystemMessage(st, "Seminar ended")

		st.stopSlotTimer()
		for id := range st.breakoutTimers {
			st.stopBreakoutTimer(id)
		}

		for _, b := range st.breakouts {
			if !b.HasEnded() {
				b.Status = domain.BreakoutStatusEnded
				b.EndedAt = &now
				e.persistBreakout(*b)
			}
		}
		st.assignment = make(map[uuid.UUID]uuid.UUID)

		if st.granted != nil {
			e.finishSlot(st, st.granted, now)
		}
		for _, slot := range st.queue {
			e.persistSlotDelete(slot.ID)
		}
		st.queue = nil

		for _, p := range st.participants {
			if p.IsJoined() {
				left := now
				p.Status = domain.ParticipantStatusLeft
				p.LeftAt = &left
				p.IsHandRaised = false
				p.IsScreenSharing = false
				e.persistParticipant(*p)
			}
		}

		st.room.Status = domain.RoomStatusEnded
		st.room.EndedAt = &now
		st.room.UpdatedAt = now
		e.persistRoom(st.room)

		e.pub.BroadcastToRoom(roomID, domain.EventRoomEnded, nil, st.room)

		ended = st.room
		sessionID = st.room.SessionID
		return nil
	})
	if err != nil {
		return nil, err
	}

	e.mu.Lock()
	if e.bySession[sessionID] == roomID {
		delete(e.bySession, sessionID)
	}
	e.mu.Unlock()

	e.log.Info("Room ended", "room_id", roomID)
	return &ended, nil
}

// UpdateLayout меняет раскладку видимой сетки комнаты
func (e *Engine) UpdateLayout(ctx context.Context, roomID, callerID uuid.UUID, layout string) (*domain.Room, error) {
	if !domain.ValidLayout(layout) {
		return nil, fmt.Errorf("unknown layout %q: %w", layout, apperr.ErrValidation)
	}

	var updated domain.Room
	err := e.do(roomID, func(st *roomState) error {
		if !st.isModerator(callerID) {
			return fmt.Errorf("user %s cannot change layout: %w", callerID, apperr.ErrPermission)
		}
		if st.room.HasEnded() {
			return fmt.Errorf("room %s: %w", roomID, apperr.ErrRoomClosed)
		}

		st.room.Layout = layout
		st.room.UpdatedAt = time.Now()

		e.persistRoom(st.room)
		e.pub.BroadcastToRoom(roomID, domain.EventLayoutChanged, &callerID, map[string]interface{}{"layout": layout})

		updated = st.room
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &updated, nil
}

// GetRoom возвращает снимок комнаты. Живые комнаты читаются из памяти,
// остальные восстанавливаются из хранилища.
func (e *Engine) GetRoom(ctx context.Context, roomID uuid.UUID) (*RoomSnapshot, error) {
	return e.snapshotOrLoad(ctx, roomID)
}

// GetRoomBySession возвращает снимок не завершённой комнаты сессии
func (e *Engine) GetRoomBySession(ctx context.Context, sessionID uuid.UUID) (*RoomSnapshot, error) {
	e.mu.RLock()
	roomID, ok := e.bySession[sessionID]
	e.mu.RUnlock()
	if ok {
		return e.snapshot(roomID)
	}

	// После рестарта индекс сессий пуст, не завершённая комната ищется
	// в хранилище
	room, err := e.repos.Room.GetBySessionID(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("session %s: %w", sessionID, apperr.ErrNotFound)
	}
	return e.loadSnapshot(ctx, room.ID)
}

// ActiveRooms перечисляет комнаты в статусах waiting и active
func (e *Engine) ActiveRooms(ctx context.Context) []*RoomSnapshot {
	e.mu.RLock()
	actors := make([]*roomActor, 0, len(e.rooms))
	for _, a := range e.rooms {
		actors = append(actors, a)
	}
	e.mu.RUnlock()

	snaps := make([]*RoomSnapshot, 0, len(actors))
	for _, a := range actors {
		snap := a.snap.Load()
		if !snap.Room.HasEnded() {
			snaps = append(snaps, snap)
		}
	}
	return snaps
}

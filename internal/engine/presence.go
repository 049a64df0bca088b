package engine

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"seminar_live/internal/domain"
	apperr "seminar_live/pkg/errors"
)

// Join добавляет пользователя в комнату. Повторный вход уже вошедшего
// идемпотентен, выход и повторный вход реактивируют того же участника.
// При включённой waiting room не-модераторы остаются в статусе waiting
// до допуска ведущим.
func (e *Engine) Join(ctx context.Context, roomID, userID uuid.UUID, role string, audioEnabled, videoEnabled bool) (*domain.Participant, error) {
	var joined domain.Participant

	err := e.do(roomID, func(st *roomState) error {
		if st.room.HasEnded() {
			return fmt.Errorf("room %s: %w", roomID, apperr.ErrRoomClosed)
		}

		p := st.participant(userID)
		if p != nil && p.IsJoined() {
			joined = *p
			return nil
		}

		// Роль: ведущий комнаты всегда host, co_host принимается как есть
		effectiveRole := domain.RoleParticipant
		if userID == st.room.HostUserID {
			effectiveRole = domain.RoleHost
		} else if role == domain.RoleCoHost {
			effectiveRole = domain.RoleCoHost
		}

		if p == nil {
			p = &domain.Participant{
				ID:     uuid.New(),
				RoomID: roomID,
				UserID: userID,
			}
			st.participants[userID] = p
			st.order = append(st.order, userID)
		}
		p.Role = effectiveRole
		p.LeftAt = nil

		moderator := p.IsModerator()
		if st.room.Settings.EnableWaitingRoom && !moderator {
			p.Status = domain.ParticipantStatusWaiting
			e.persistParticipant(*p)
			joined = *p
			return nil
		}

		if st.joinedCount() >= st.room.MaxParticipants {
			return fmt.Errorf("room %s is full: %w", roomID, apperr.ErrRoomFull)
		}

		now := time.Now()
		p.Status = domain.ParticipantStatusJoined
		p.JoinedAt = &now
		p.IsMuted = st.room.Settings.MuteOnEntry || !audioEnabled
		p.IsVideoOn = st.room.Settings.VideoOnEntry && videoEnabled

		e.persistParticipant(*p)
		e.pub.BroadcastToRoom(roomID, domain.EventParticipantJoined, &userID, *p)

		joined = *p
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &joined, nil
}

// Admit допускает ожидающего участника из waiting room
func (e *Engine) Admit(ctx context.Context, roomID, callerID, userID uuid.UUID) (*domain.Participant, error) {
	var admitted domain.Participant

	err := e.do(roomID, func(st *roomState) error {
		if !st.isModerator(callerID) {
			return fmt.Errorf("user %s cannot admit participants: %w", callerID, apperr.ErrPermission)
		}
		if st.room.HasEnded() {
			return fmt.Errorf("room %s: %w", roomID, apperr.ErrRoomClosed)
		}

		p := st.participant(userID)
		if p == nil {
			return fmt.Errorf("participant %s: %w", userID, apperr.ErrNotFound)
		}
		if p.IsJoined() {
			admitted = *p
			return nil
		}
		if p.Status != domain.ParticipantStatusWaiting {
			return fmt.Errorf("participant %s is %s: %w", userID, p.Status, apperr.ErrInvalidState)
		}
		if st.joinedCount() >= st.room.MaxParticipants {
			return fmt.Errorf("room %s is full: %w", roomID, apperr.ErrRoomFull)
		}

		now := time.Now()
		p.Status = domain.ParticipantStatusJoined
		p.JoinedAt = &now
		p.IsMuted = st.room.Settings.MuteOnEntry

		e.persistParticipant(*p)
		e.pub.BroadcastToRoom(roomID, domain.EventParticipantJoined, &userID, *p)

		admitted = *p
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &admitted, nil
}

// Leave выводит участника из комнаты. Если он держал слово, выступление
// завершается и слово освобождается.
func (e *Engine) Leave(ctx context.Context, roomID, userID uuid.UUID) error {
	return e.do(roomID, func(st *roomState) error {
		p := st.participant(userID)
		if p == nil {
			return fmt.Errorf("participant %s: %w", userID, apperr.ErrNotFound)
		}
		if p.Status == domain.ParticipantStatusLeft {
			return nil
		}

		now := time.Now()

		if st.granted != nil && st.granted.UserID == userID {
			e.finishSlot(st, st.granted, now)
		}
		if slot := st.removeFromQueue(userID); slot != nil {
			e.persistSlotDelete(slot.ID)
			for _, s := range st.queue {
				e.persistSlot(*s)
			}
		}

		if bid, ok := st.assignment[userID]; ok {
			if b := st.breakouts[bid]; b != nil {
				b.ParticipantIDs = removeUUID(b.ParticipantIDs, userID)
				e.persistBreakout(*b)
			}
			delete(st.assignment, userID)
		}

		p.Status = domain.ParticipantStatusLeft
		p.LeftAt = &now
		p.IsHandRaised = false
		p.IsScreenSharing = false

		e.persistParticipant(*p)
		e.pub.BroadcastToRoom(roomID, domain.EventParticipantLeft, &userID, *p)
		return nil
	})
}

// RaiseHand поднимает руку участника
func (e *Engine) RaiseHand(ctx context.Context, roomID, userID uuid.UUID) error {
	return e.toggleFlag(roomID, userID, func(st *roomState, p *domain.Participant) {
		if !p.IsHandRaised {
			p.IsHandRaised = true
			e.persistParticipant(*p)
			e.pub.BroadcastToRoom(roomID, domain.EventHandRaised, &userID, *p)
		}
	})
}

// LowerHand опускает руку участника
func (e *Engine) LowerHand(ctx context.Context, roomID, userID uuid.UUID) error {
	return e.toggleFlag(roomID, userID, func(st *roomState, p *domain.Participant) {
		if p.IsHandRaised {
			p.IsHandRaised = false
			e.persistParticipant(*p)
			e.pub.BroadcastToRoom(roomID, domain.EventHandLowered, &userID, *p)
		}
	})
}

// SetMute переключает состояние микрофона участника
func (e *Engine) SetMute(ctx context.Context, roomID, userID uuid.UUID, muted bool) error {
	return e.toggleFlag(roomID, userID, func(st *roomState, p *domain.Participant) {
		if p.IsMuted != muted {
			p.IsMuted = muted
			e.persistParticipant(*p)
			e.pub.BroadcastToRoom(roomID, domain.EventMuteChanged, &userID, *p)
		}
	})
}

// SetVideo переключает состояние камеры участника
func (e *Engine) SetVideo(ctx context.Context, roomID, userID uuid.UUID, videoOn bool) error {
	return e.toggleFlag(roomID, userID, func(st *roomState, p *domain.Participant) {
		if p.IsVideoOn != videoOn {
			p.IsVideoOn = videoOn
			e.persistParticipant(*p)
			e.pub.BroadcastToRoom(roomID, domain.EventVideoChanged, &userID, *p)
		}
	})
}

// SetScreenShare включает или выключает демонстрацию экрана. Демонстрация
// эксклюзивна: новый ведущий показа вытесняет предыдущего.
func (e *Engine) SetScreenShare(ctx context.Context, roomID, userID uuid.UUID, sharing bool) error {
	return e.do(roomID, func(st *roomState) error {
		if !st.room.IsActive() {
			return fmt.Errorf("room %s: %w", roomID, apperr.ErrRoomClosed)
		}

		p := st.participant(userID)
		if p == nil || !p.IsJoined() {
			return fmt.Errorf("user %s: %w", userID, apperr.ErrNotJoined)
		}

		if sharing && !st.room.Settings.AllowScreenShare && !p.IsModerator() {
			return fmt.Errorf("screen share disabled in room %s: %w", roomID, apperr.ErrPermission)
		}

		if sharing {
			for _, other := range st.participants {
				if other.IsScreenSharing && other.UserID != userID {
					other.IsScreenSharing = false
					e.persistParticipant(*other)
					e.pub.BroadcastToRoom(roomID, domain.EventScreenShareStopped, &other.UserID, *other)
				}
			}
			if !p.IsScreenSharing {
				p.IsScreenSharing = true
				e.persistParticipant(*p)
				e.pub.BroadcastToRoom(roomID, domain.EventScreenShareStarted, &userID, *p)
			}
			return nil
		}

		if p.IsScreenSharing {
			p.IsScreenSharing = false
			e.persistParticipant(*p)
			e.pub.BroadcastToRoom(roomID, domain.EventScreenShareStopped, &userID, *p)
		}
		return nil
	})
}

// Roster возвращает участников комнаты из снимка
func (e *Engine) Roster(ctx context.Context, roomID uuid.UUID) ([]domain.Participant, error) {
	snap, err := e.snapshotOrLoad(ctx, roomID)
	if err != nil {
		return nil, err
	}
	return snap.Participants, nil
}

// RaisedHands возвращает вошедших участников с поднятой рукой
func (e *Engine) RaisedHands(ctx context.Context, roomID uuid.UUID) ([]domain.Participant, error) {
	snap, err := e.snapshot(roomID)
	if err != nil {
		return nil, err
	}

	raised := make([]domain.Participant, 0)
	for _, p := range snap.Participants {
		if p.IsJoined() && p.IsHandRaised {
			raised = append(raised, p)
		}
	}
	return raised, nil
}

// toggleFlag выполняет мутацию флага вошедшего участника активной комнаты
func (e *Engine) toggleFlag(roomID, userID uuid.UUID, apply func(st *roomState, p *domain.Participant)) error {
	return e.do(roomID, func(st *roomState) error {
		if st.room.HasEnded() {
			return fmt.Errorf("room %s: %w", roomID, apperr.ErrRoomClosed)
		}

		p := st.participant(userID)
		if p == nil || !p.IsJoined() {
			return fmt.Errorf("user %s: %w", userID, apperr.ErrNotJoined)
		}

		apply(st, p)
		return nil
	})
}

func removeUUID(ids []uuid.UUID, id uuid.UUID) []uuid.UUID {
	for i, v := range ids {
		if v == id {
			return append(ids[:i], ids[i+1:]...)
		}
	}
	return ids
}

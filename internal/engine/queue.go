package engine

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"seminar_live/internal/domain"
	apperr "seminar_live/pkg/errors"
)

// JoinQueue ставит участника в очередь на выступление. Повторный вызов
// для уже стоящего в очереди или выступающего возвращает его текущий слот.
func (e *Engine) JoinQueue(ctx context.Context, roomID, userID uuid.UUID, message string) (*domain.SpeakingSlot, error) {
	var result domain.SpeakingSlot

	err := e.do(roomID, func(st *roomState) error {
		if !st.room.IsActive() {
			return fmt.Errorf("room %s: %w", roomID, apperr.ErrRoomClosed)
		}

		p := st.participant(userID)
		if p == nil || !p.IsJoined() {
			return fmt.Errorf("user %s: %w", userID, apperr.ErrNotJoined)
		}

		if st.granted != nil && st.granted.UserID == userID {
			result = *st.granted
			return nil
		}
		for _, slot := range st.queue {
			if slot.UserID == userID {
				result = *slot
				return nil
			}
		}

		slot := &domain.SpeakingSlot{
			ID:            uuid.New(),
			RoomID:        roomID,
			UserID:        userID,
			Status:        domain.SpeakingStatusQueued,
			QueuePosition: len(st.queue) + 1,
			Message:       message,
			CreatedAt:     time.Now(),
		}
		st.queue = append(st.queue, slot)

		e.persistSlot(*slot)
		e.postSystemMessage(st, fmt.Sprintf("User %s joined the speaking queue", userID))

		result = *slot
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &result, nil
}

// GrantNext передаёт слово первому в очереди. Строго FIFO: пока слово
// занято, следующий спикер не назначается.
func (e *Engine) GrantNext(ctx context.Context, roomID, callerID uuid.UUID) (*domain.SpeakingSlot, error) {
	var result domain.SpeakingSlot

	err := e.do(roomID, func(st *roomState) error {
		if !st.isModerator(callerID) {
			return fmt.Errorf("user %s cannot grant the floor: %w", callerID, apperr.ErrPermission)
		}
		if !st.room.IsActive() {
			return fmt.Errorf("room %s: %w", roomID, apperr.ErrRoomClosed)
		}
		if st.granted != nil {
			return fmt.Errorf("user %s is speaking: %w", st.granted.UserID, apperr.ErrFloorOccupied)
		}
		if len(st.queue) == 0 {
			return fmt.Errorf("room %s: %w", roomID, apperr.ErrQueueEmpty)
		}

		slot := st.queue[0]
		st.queue = st.queue[1:]
		st.compactQueue()

		now := time.Now()
		slot.Status = domain.SpeakingStatusGranted
		slot.QueuePosition = 0
		slot.GrantedAt = &now
		st.granted = slot

		e.persistSlot(*slot)
		for _, s := range st.queue {
			e.persistSlot(*s)
		}
		e.pub.BroadcastToRoom(roomID, domain.EventFloorGranted, nil, *slot)

		if e.cfg.MaxSpeakingDuration > 0 {
			slotID := slot.ID
			st.slotTimer = time.AfterFunc(e.cfg.MaxSpeakingDuration, func() {
				e.expireSlot(roomID, slotID)
			})
		}

		result = *slot
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &result, nil
}

// FinishSpeaking завершает текущее выступление. Завершить может сам спикер
// или модератор.
func (e *Engine) FinishSpeaking(ctx context.Context, roomID, callerID, userID uuid.UUID) (*domain.SpeakingSlot, error) {
	var result domain.SpeakingSlot

	err := e.do(roomID, func(st *roomState) error {
		if st.room.HasEnded() {
			return fmt.Errorf("room %s: %w", roomID, apperr.ErrRoomClosed)
		}
		if callerID != userID && !st.isModerator(callerID) {
			return fmt.Errorf("user %s cannot finish this slot: %w", callerID, apperr.ErrPermission)
		}
		if st.granted == nil || st.granted.UserID != userID {
			return fmt.Errorf("user %s is not speaking: %w", userID, apperr.ErrInvalidState)
		}

		slot := st.granted
		e.finishSlot(st, slot, time.Now())

		result = *slot
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &result, nil
}

// LeaveQueue убирает участника из очереди. Если участник держит слово,
// выступление завершается.
func (e *Engine) LeaveQueue(ctx context.Context, roomID, userID uuid.UUID) error {
	return e.do(roomID, func(st *roomState) error {
		if st.room.HasEnded() {
			return fmt.Errorf("room %s: %w", roomID, apperr.ErrRoomClosed)
		}
		if st.granted != nil && st.granted.UserID == userID {
			e.finishSlot(st, st.granted, time.Now())
			return nil
		}

		slot := st.removeFromQueue(userID)
		if slot == nil {
			return fmt.Errorf("user %s is not in the queue: %w", userID, apperr.ErrNotFound)
		}

		e.persistSlotDelete(slot.ID)
		for _, s := range st.queue {
			e.persistSlot(*s)
		}
		return nil
	})
}

// Queue возвращает текущего спикера и очередь ожидания из снимка
func (e *Engine) Queue(ctx context.Context, roomID uuid.UUID) ([]domain.SpeakingSlot, error) {
	snap, err := e.snapshotOrLoad(ctx, roomID)
	if err != nil {
		return nil, err
	}
	return snap.Queue, nil
}

// ParticipationStats агрегирует завершённые выступления по пользователям.
// Для комнат без живого актора слоты читаются из хранилища.
func (e *Engine) ParticipationStats(ctx context.Context, roomID uuid.UUID) ([]domain.SpeakerStats, error) {
	var stats []domain.SpeakerStats

	err := e.do(roomID, func(st *roomState) error {
		stats = aggregateSpeakerStats(st.finished)
		return nil
	})
	if err == nil {
		return stats, nil
	}
	if !errors.Is(err, apperr.ErrNotFound) {
		return nil, err
	}

	if _, err := e.repos.Room.GetByID(ctx, roomID); err != nil {
		return nil, err
	}
	slots, err := e.repos.Queue.GetByRoom(ctx, roomID)
	if err != nil {
		return nil, err
	}
	finished := make([]*domain.SpeakingSlot, 0, len(slots))
	for _, slot := range slots {
		if slot.Status == domain.SpeakingStatusFinished {
			finished = append(finished, slot)
		}
	}
	return aggregateSpeakerStats(finished), nil
}

// aggregateSpeakerStats сводит завершённые слоты в статистику по
// пользователям, отсортированную по суммарной длительности
func aggregateSpeakerStats(finished []*domain.SpeakingSlot) []domain.SpeakerStats {
	byUser := make(map[uuid.UUID]*domain.SpeakerStats)
	for _, slot := range finished {
		s, ok := byUser[slot.UserID]
		if !ok {
			s = &domain.SpeakerStats{UserID: slot.UserID}
			byUser[slot.UserID] = s
		}
		s.SpeakingCount++
		s.TotalSeconds += slot.DurationSeconds
	}

	stats := make([]domain.SpeakerStats, 0, len(byUser))
	for _, s := range byUser {
		if s.SpeakingCount > 0 {
			s.AverageSpeakingSecs = float64(s.TotalSeconds) / float64(s.SpeakingCount)
		}
		stats = append(stats, *s)
	}
	sort.Slice(stats, func(i, j int) bool {
		return stats[i].TotalSeconds > stats[j].TotalSeconds
	})
	return stats
}

// finishSlot завершает выступление и освобождает слово. Вызывается только
// из горутины актора.
func (e *Engine) finishSlot(st *roomState, slot *domain.SpeakingSlot, now time.Time) {
	st.stopSlotTimer()

	slot.Status = domain.SpeakingStatusFinished
	slot.FinishedAt = &now
	if slot.GrantedAt != nil {
		slot.DurationSeconds = int(now.Sub(*slot.GrantedAt).Seconds())
	}

	st.granted = nil
	st.finished = append(st.finished, slot)

	e.persistSlot(*slot)
	e.pub.BroadcastToRoom(st.room.ID, domain.EventFloorReleased, nil, *slot)
}

// expireSlot вызывается таймером максимальной длительности выступления
func (e *Engine) expireSlot(roomID, slotID uuid.UUID) {
	err := e.do(roomID, func(st *roomState) error {
		if st.granted == nil || st.granted.ID != slotID {
			return nil
		}
		e.finishSlot(st, st.granted, time.Now())
		return nil
	})
	if err != nil {
		e.log.Warn("Failed to expire speaking slot", "room_id", roomID, "slot_id", slotID, "error", err)
	}
}

package engine

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"github.com/google/uuid"
	"seminar_live/internal/domain"
	apperr "seminar_live/pkg/errors"
)

// breakoutMinute — единица длительности breakout-комнат; переменная,
// чтобы тесты могли ускорить срабатывание таймеров
var breakoutMinute = time.Minute

// AssignmentRequest описывает распределение участников по breakout-комнатам
type AssignmentRequest struct {
	Method            string
	BreakoutIDs       []uuid.UUID // целевые комнаты для random/even; пусто — все не завершённые
	ParticipantIDs    []uuid.UUID
	ClearExisting     bool
	ManualAssignments map[uuid.UUID][]uuid.UUID // breakoutID -> userIDs, только для manual
}

// CreateBreakout создаёт breakout-комнату внутри активной родительской
func (e *Engine) CreateBreakout(ctx context.Context, roomID, callerID uuid.UUID, name, method string, maxParticipants, durationMinutes int) (*domain.BreakoutRoom, error) {
	if name == "" {
		return nil, fmt.Errorf("breakout name is required: %w", apperr.ErrValidation)
	}
	if !domain.ValidAssignmentMethod(method) {
		return nil, fmt.Errorf("unknown assignment method %q: %w", method, apperr.ErrValidation)
	}

	var created domain.BreakoutRoom

	err := e.do(roomID, func(st *roomState) error {
		if !st.isModerator(callerID) {
			return fmt.Errorf("user %s cannot create breakout rooms: %w", callerID, apperr.ErrPermission)
		}
		if st.room.HasEnded() {
			return fmt.Errorf("room %s: %w", roomID, apperr.ErrRoomClosed)
		}
		if !st.room.IsActive() {
			return fmt.Errorf("room %s is not active: %w", roomID, apperr.ErrInvalidState)
		}

		b := &domain.BreakoutRoom{
			ID:               uuid.New(),
			ParentRoomID:     roomID,
			Name:             name,
			Status:           domain.BreakoutStatusPending,
			AssignmentMethod: method,
			MaxParticipants:  maxParticipants,
			DurationMinutes:  durationMinutes,
			CreatedAt:        time.Now(),
		}
		st.breakouts[b.ID] = b
		st.breakoutOrder = append(st.breakoutOrder, b.ID)

		e.persistBreakout(*b)

		created = *b
		return nil
	})
	if err != nil {
		return nil, err
	}

	e.log.Info("Breakout room created", "room_id", roomID, "breakout_id", created.ID, "name", name)
	return &created, nil
}

// AssignParticipants распределяет участников по breakout-комнатам.
// Распределение атомарно: сначала полностью валидируется, потом применяется.
// Любая ошибка оставляет прежние назначения без изменений.
func (e *Engine) AssignParticipants(ctx context.Context, roomID, callerID uuid.UUID, req AssignmentRequest) error {
	if !domain.ValidAssignmentMethod(req.Method) {
		return fmt.Errorf("unknown assignment method %q: %w", req.Method, apperr.ErrValidation)
	}

	return e.do(roomID, func(st *roomState) error {
		if !st.isModerator(callerID) {
			return fmt.Errorf("user %s cannot assign participants: %w", callerID, apperr.ErrPermission)
		}
		if st.room.HasEnded() {
			return fmt.Errorf("room %s: %w", roomID, apperr.ErrRoomClosed)
		}
		if !st.room.IsActive() {
			return fmt.Errorf("room %s is not active: %w", roomID, apperr.ErrInvalidState)
		}

		// Стадия валидации: строим новое назначение, ничего не мутируя
		staged, err := e.stageAssignment(st, req)
		if err != nil {
			return err
		}

		// Стадия применения
		if req.ClearExisting {
			st.assignment = make(map[uuid.UUID]uuid.UUID)
			for _, b := range st.breakouts {
				if len(b.ParticipantIDs) > 0 {
					b.ParticipantIDs = nil
				}
			}
		}

		changed := make(map[uuid.UUID]struct{})
		for userID, breakoutID := range staged {
			if prev, ok := st.assignment[userID]; ok && prev != breakoutID {
				if pb := st.breakouts[prev]; pb != nil {
					pb.ParticipantIDs = removeUUID(pb.ParticipantIDs, userID)
					changed[prev] = struct{}{}
				}
			}
			st.assignment[userID] = breakoutID
			b := st.breakouts[breakoutID]
			if !containsUUID(b.ParticipantIDs, userID) {
				b.ParticipantIDs = append(b.ParticipantIDs, userID)
			}
			changed[breakoutID] = struct{}{}
		}

		if req.ClearExisting {
			for id := range st.breakouts {
				changed[id] = struct{}{}
			}
		}
		for id := range changed {
			if b, ok := st.breakouts[id]; ok {
				e.persistBreakout(*b)
			}
		}

		return nil
	})
}

// stageAssignment валидирует запрос и возвращает карту userID -> breakoutID
func (e *Engine) stageAssignment(st *roomState, req AssignmentRequest) (map[uuid.UUID]uuid.UUID, error) {
	staged := make(map[uuid.UUID]uuid.UUID)

	// Занятость комнат с учётом clearExisting
	occupancy := make(map[uuid.UUID]int)
	if !req.ClearExisting {
		for _, b := range st.breakouts {
			occupancy[b.ID] = len(b.ParticipantIDs)
		}
	}

	validateUser := func(userID uuid.UUID) error {
		p := st.participant(userID)
		if p == nil || !p.IsJoined() {
			return fmt.Errorf("user %s is not a joined participant: %w", userID, apperr.ErrValidation)
		}
		if _, dup := staged[userID]; dup {
			return fmt.Errorf("user %s assigned to more than one breakout: %w", userID, apperr.ErrValidation)
		}
		if !req.ClearExisting {
			if _, busy := st.assignment[userID]; busy {
				return fmt.Errorf("user %s is already assigned: %w", userID, apperr.ErrConflict)
			}
		}
		return nil
	}

	place := func(userID, breakoutID uuid.UUID) error {
		b, ok := st.breakouts[breakoutID]
		if !ok {
			return fmt.Errorf("breakout %s: %w", breakoutID, apperr.ErrNotFound)
		}
		if b.HasEnded() {
			return fmt.Errorf("breakout %s has ended: %w", breakoutID, apperr.ErrInvalidState)
		}
		if b.MaxParticipants > 0 && occupancy[breakoutID] >= b.MaxParticipants {
			return fmt.Errorf("breakout %s is full: %w", breakoutID, apperr.ErrCapacity)
		}
		staged[userID] = breakoutID
		occupancy[breakoutID]++
		return nil
	}

	if req.Method == domain.AssignmentManual {
		for breakoutID, userIDs := range req.ManualAssignments {
			for _, userID := range userIDs {
				if err := validateUser(userID); err != nil {
					return nil, err
				}
				if err := place(userID, breakoutID); err != nil {
					return nil, err
				}
			}
		}
		return staged, nil
	}

	// random и even раскладывают по кругу; random предварительно
	// перемешивает, even сохраняет исходный порядок для воспроизводимости
	targets := req.BreakoutIDs
	if len(targets) == 0 {
		for _, id := range st.breakoutOrder {
			if b := st.breakouts[id]; b != nil && !b.HasEnded() {
				targets = append(targets, id)
			}
		}
	}
	if len(targets) == 0 {
		return nil, fmt.Errorf("no breakout rooms to assign into: %w", apperr.ErrValidation)
	}
	for _, id := range targets {
		b, ok := st.breakouts[id]
		if !ok {
			return nil, fmt.Errorf("breakout %s: %w", id, apperr.ErrNotFound)
		}
		if b.HasEnded() {
			return nil, fmt.Errorf("breakout %s has ended: %w", id, apperr.ErrInvalidState)
		}
	}

	users := append([]uuid.UUID(nil), req.ParticipantIDs...)
	if req.Method == domain.AssignmentRandom {
		rand.Shuffle(len(users), func(i, j int) {
			users[i], users[j] = users[j], users[i]
		})
	}

	next := 0
	for _, userID := range users {
		if err := validateUser(userID); err != nil {
			return nil, err
		}

		placed := false
		for tries := 0; tries < len(targets); tries++ {
			breakoutID := targets[next%len(targets)]
			next++
			b := st.breakouts[breakoutID]
			if b.MaxParticipants > 0 && occupancy[breakoutID] >= b.MaxParticipants {
				continue
			}
			staged[userID] = breakoutID
			occupancy[breakoutID]++
			placed = true
			break
		}
		if !placed {
			return nil, fmt.Errorf("all breakout rooms are full: %w", apperr.ErrCapacity)
		}
	}

	return staged, nil
}

// StartBreakout активирует breakout-комнату и взводит таймер длительности
func (e *Engine) StartBreakout(ctx context.Context, roomID, breakoutID, callerID uuid.UUID) (*domain.BreakoutRoom, error) {
	var started domain.BreakoutRoom

	err := e.do(roomID, func(st *roomState) error {
		if !st.isModerator(callerID) {
			return fmt.Errorf("user %s cannot start breakout rooms: %w", callerID, apperr.ErrPermission)
		}
		if st.room.HasEnded() {
			return fmt.Errorf("room %s: %w", roomID, apperr.ErrRoomClosed)
		}

		b, ok := st.breakouts[breakoutID]
		if !ok {
			return fmt.Errorf("breakout %s: %w", breakoutID, apperr.ErrNotFound)
		}
		if b.Status != domain.BreakoutStatusPending {
			return fmt.Errorf("breakout %s is %s: %w", breakoutID, b.Status, apperr.ErrInvalidState)
		}

		now := time.Now()
		b.Status = domain.BreakoutStatusActive
		b.StartedAt = &now
		if b.DurationMinutes > 0 {
			endsAt := now.Add(time.Duration(b.DurationMinutes) * breakoutMinute)
			b.EndsAt = &endsAt
			st.breakoutTimers[breakoutID] = time.AfterFunc(time.Until(endsAt), func() {
				e.expireBreakout(roomID, breakoutID)
			})
		}

		e.persistBreakout(*b)

		started = *b
		return nil
	})
	if err != nil {
		return nil, err
	}

	e.log.Info("Breakout room started", "room_id", roomID, "breakout_id", breakoutID)
	return &started, nil
}

// EndBreakout завершает одну breakout-комнату, не затрагивая остальные
func (e *Engine) EndBreakout(ctx context.Context, roomID, breakoutID, callerID uuid.UUID) (*domain.BreakoutRoom, error) {
	var ended domain.BreakoutRoom

	err := e.do(roomID, func(st *roomState) error {
		if !st.isModerator(callerID) {
			return fmt.Errorf("user %s cannot end breakout rooms: %w", callerID, apperr.ErrPermission)
		}
		if st.room.HasEnded() {
			return fmt.Errorf("room %s: %w", roomID, apperr.ErrRoomClosed)
		}

		b, ok := st.breakouts[breakoutID]
		if !ok {
			return fmt.Errorf("breakout %s: %w", breakoutID, apperr.ErrNotFound)
		}
		if b.HasEnded() {
			return fmt.Errorf("breakout %s has ended: %w", breakoutID, apperr.ErrInvalidState)
		}

		e.endBreakoutLocked(st, b, time.Now())

		ended = *b
		return nil
	})
	if err != nil {
		return nil, err
	}

	e.log.Info("Breakout room ended", "room_id", roomID, "breakout_id", breakoutID)
	return &ended, nil
}

// BroadcastToBreakout отправляет сообщение только участникам breakout-комнаты
func (e *Engine) BroadcastToBreakout(ctx context.Context, roomID, breakoutID, callerID uuid.UUID, content, messageType string) error {
	if messageType == "" {
		messageType = domain.MessageTypeText
	}
	if content == "" {
		return fmt.Errorf("message content is required: %w", apperr.ErrValidation)
	}

	return e.do(roomID, func(st *roomState) error {
		if !st.isModerator(callerID) {
			return fmt.Errorf("user %s cannot broadcast to breakout rooms: %w", callerID, apperr.ErrPermission)
		}
		if st.room.HasEnded() {
			return fmt.Errorf("room %s: %w", roomID, apperr.ErrRoomClosed)
		}

		b, ok := st.breakouts[breakoutID]
		if !ok {
			return fmt.Errorf("breakout %s: %w", breakoutID, apperr.ErrNotFound)
		}
		if !b.IsActive() {
			return fmt.Errorf("breakout %s is not active: %w", breakoutID, apperr.ErrInvalidState)
		}

		message := domain.ChatMessage{
			ID:          uuid.New(),
			RoomID:      breakoutID,
			SenderID:    &callerID,
			MessageType: messageType,
			Content:     content,
			CreatedAt:   time.Now(),
		}

		// Адресная доставка членам, мимо журнала родительской комнаты
		for _, userID := range b.ParticipantIDs {
			e.pub.SendToUser(userID, domain.EventChatMessage, roomID, message)
		}
		return nil
	})
}

// BreakoutStatuses возвращает сводку по breakout-комнатам из снимка
func (e *Engine) BreakoutStatuses(ctx context.Context, roomID uuid.UUID) ([]domain.BreakoutStatus, error) {
	snap, err := e.snapshotOrLoad(ctx, roomID)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	statuses := make([]domain.BreakoutStatus, 0, len(snap.Breakouts))
	for _, b := range snap.Breakouts {
		status := domain.BreakoutStatus{
			ID:               b.ID,
			Name:             b.Name,
			Status:           b.Status,
			ParticipantCount: len(b.ParticipantIDs),
			MaxParticipants:  b.MaxParticipants,
			StartedAt:        b.StartedAt,
			EndsAt:           b.EndsAt,
		}
		if b.IsActive() && b.EndsAt != nil && b.EndsAt.After(now) {
			status.RemainingMinutes = int(b.EndsAt.Sub(now).Minutes())
		}
		statuses = append(statuses, status)
	}
	return statuses, nil
}

// endBreakoutLocked завершает breakout-комнату из горутины актора
func (e *Engine) endBreakoutLocked(st *roomState, b *domain.BreakoutRoom, now time.Time) {
	st.stopBreakoutTimer(b.ID)

	b.Status = domain.BreakoutStatusEnded
	b.EndedAt = &now
	for _, userID := range b.ParticipantIDs {
		if st.assignment[userID] == b.ID {
			delete(st.assignment, userID)
		}
	}

	e.persistBreakout(*b)
}

// expireBreakout вызывается таймером длительности breakout-комнаты
func (e *Engine) expireBreakout(roomID, breakoutID uuid.UUID) {
	err := e.do(roomID, func(st *roomState) error {
		b, ok := st.breakouts[breakoutID]
		if !ok || b.HasEnded() {
			return nil
		}
		e.endBreakoutLocked(st, b, time.Now())
		return nil
	})
	if err != nil {
		e.log.Warn("Failed to expire breakout room", "room_id", roomID, "breakout_id", breakoutID, "error", err)
	}
}

func containsUUID(ids []uuid.UUID, id uuid.UUID) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}

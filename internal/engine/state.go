package engine

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"seminar_live/internal/domain"
)

// roomActor — секвенсор одной комнаты. Все мутации проходят через канал
// команд и выполняются одной горутиной, что даёт тотальный порядок
// мутаций и событий в пределах комнаты.
type roomActor struct {
	id       uuid.UUID
	cmds     chan func(st *roomState)
	done     chan struct{}
	stopOnce sync.Once
	state    *roomState
	snap     atomic.Pointer[RoomSnapshot]
}

// roomState — авторитетное состояние комнаты в памяти. Доступ только
// из горутины актора.
type roomState struct {
	room         domain.Room
	participants map[uuid.UUID]*domain.Participant
	order        []uuid.UUID // порядок появления участников

	queue    []*domain.SpeakingSlot // только queued, позиция = индекс + 1
	granted  *domain.SpeakingSlot
	finished []*domain.SpeakingSlot

	breakouts     map[uuid.UUID]*domain.BreakoutRoom
	breakoutOrder []uuid.UUID
	assignment    map[uuid.UUID]uuid.UUID // userID -> breakoutID

	messages []*domain.ChatMessage
	chatSeq  int64

	slotTimer      *time.Timer
	breakoutTimers map[uuid.UUID]*time.Timer
}

// RoomSnapshot — консистентный снимок комнаты для читающих операций.
// Публикуется актором после каждой команды и читается без секвенсора.
type RoomSnapshot struct {
	Room         domain.Room           `json:"room"`
	Participants []domain.Participant  `json:"participants"`
	Queue        []domain.SpeakingSlot `json:"queue"`
	Breakouts    []domain.BreakoutRoom `json:"breakouts"`
}

func newRoomActor(room domain.Room) *roomActor {
	st := &roomState{
		room:           room,
		participants:   make(map[uuid.UUID]*domain.Participant),
		breakouts:      make(map[uuid.UUID]*domain.BreakoutRoom),
		assignment:     make(map[uuid.UUID]uuid.UUID),
		breakoutTimers: make(map[uuid.UUID]*time.Timer),
	}
	a := &roomActor{
		id:    room.ID,
		cmds:  make(chan func(st *roomState), 32),
		done:  make(chan struct{}),
		state: st,
	}
	a.snap.Store(st.buildSnapshot())
	return a
}

func (a *roomActor) run() {
	for {
		select {
		case <-a.done:
			return
		case cmd := <-a.cmds:
			cmd(a.state)
			a.snap.Store(a.state.buildSnapshot())
		}
	}
}

// stop завершает горутину актора. Канал команд не закрывается: отправители,
// уже держащие ссылку на актора, уходят по done вместо паники на закрытом
// канале.
func (a *roomActor) stop() {
	a.stopOnce.Do(func() {
		close(a.done)
	})
}

func (st *roomState) buildSnapshot() *RoomSnapshot {
	snap := &RoomSnapshot{
		Room:         st.room,
		Participants: make([]domain.Participant, 0, len(st.order)),
		Queue:        make([]domain.SpeakingSlot, 0, len(st.queue)+1),
		Breakouts:    make([]domain.BreakoutRoom, 0, len(st.breakoutOrder)),
	}

	for _, userID := range st.order {
		if p, ok := st.participants[userID]; ok {
			snap.Participants = append(snap.Participants, *p)
		}
	}

	// Текущий спикер идёт первым, за ним очередь по позициям
	if st.granted != nil {
		snap.Queue = append(snap.Queue, *st.granted)
	}
	for _, slot := range st.queue {
		snap.Queue = append(snap.Queue, *slot)
	}

	for _, id := range st.breakoutOrder {
		if b, ok := st.breakouts[id]; ok {
			copied := *b
			copied.ParticipantIDs = append([]uuid.UUID(nil), b.ParticipantIDs...)
			snap.Breakouts = append(snap.Breakouts, copied)
		}
	}

	return snap
}

// participant возвращает участника комнаты или nil
func (st *roomState) participant(userID uuid.UUID) *domain.Participant {
	return st.participants[userID]
}

// joinedCount считает участников со статусом joined
func (st *roomState) joinedCount() int {
	n := 0
	for _, p := range st.participants {
		if p.IsJoined() {
			n++
		}
	}
	return n
}

// isModerator сообщает, является ли пользователь ведущим или со-ведущим
func (st *roomState) isModerator(userID uuid.UUID) bool {
	p := st.participants[userID]
	return p != nil && p.IsModerator()
}

// compactQueue перенумеровывает позиции очереди плотно с единицы
func (st *roomState) compactQueue() {
	for i, slot := range st.queue {
		slot.QueuePosition = i + 1
	}
}

// removeFromQueue убирает слот пользователя из очереди ожидания.
// Возвращает удалённый слот или nil.
func (st *roomState) removeFromQueue(userID uuid.UUID) *domain.SpeakingSlot {
	for i, slot := range st.queue {
		if slot.UserID == userID {
			st.queue = append(st.queue[:i], st.queue[i+1:]...)
			st.compactQueue()
			return slot
		}
	}
	return nil
}

func (st *roomState) stopSlotTimer() {
	if st.slotTimer != nil {
		st.slotTimer.Stop()
		st.slotTimer = nil
	}
}

func (st *roomState) stopBreakoutTimer(breakoutID uuid.UUID) {
	if t, ok := st.breakoutTimers[breakoutID]; ok {
		t.Stop()
		delete(st.breakoutTimers, breakoutID)
	}
}

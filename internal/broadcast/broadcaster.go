package broadcast

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"seminar_live/internal/domain"
	"seminar_live/pkg/logger"
)

// Broadcaster раздаёт события подписчикам: топик комнаты и персональная
// очередь пользователя. Доставка at-most-once: переполненный буфер
// подписчика означает потерю события, никакого replay.
type Broadcaster struct {
	log    logger.Logger
	buffer int

	mu    sync.RWMutex
	rooms map[uuid.UUID]map[*Subscriber]struct{}
	users map[uuid.UUID]map[*Subscriber]struct{}
}

type Subscriber struct {
	UserID uuid.UUID
	RoomID uuid.UUID
	C      chan domain.Event

	closeOnce sync.Once
}

func New(buffer int, log logger.Logger) *Broadcaster {
	return &Broadcaster{
		log:    log,
		buffer: buffer,
		rooms:  make(map[uuid.UUID]map[*Subscriber]struct{}),
		users:  make(map[uuid.UUID]map[*Subscriber]struct{}),
	}
}

// Subscribe регистрирует подписчика на топик комнаты и очередь пользователя
func (b *Broadcaster) Subscribe(roomID, userID uuid.UUID) *Subscriber {
	sub := &Subscriber{
		UserID: userID,
		RoomID: roomID,
		C:      make(chan domain.Event, b.buffer),
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if b.rooms[roomID] == nil {
		b.rooms[roomID] = make(map[*Subscriber]struct{})
	}
	b.rooms[roomID][sub] = struct{}{}

	if b.users[userID] == nil {
		b.users[userID] = make(map[*Subscriber]struct{})
	}
	b.users[userID][sub] = struct{}{}

	b.log.Debug("Subscriber attached", "room_id", roomID, "user_id", userID)
	return sub
}

func (b *Broadcaster) Unsubscribe(sub *Subscriber) {
	b.mu.Lock()
	if subs, ok := b.rooms[sub.RoomID]; ok {
		delete(subs, sub)
		if len(subs) == 0 {
			delete(b.rooms, sub.RoomID)
		}
	}
	if subs, ok := b.users[sub.UserID]; ok {
		delete(subs, sub)
		if len(subs) == 0 {
			delete(b.users, sub.UserID)
		}
	}
	b.mu.Unlock()

	sub.closeOnce.Do(func() { close(sub.C) })
	b.log.Debug("Subscriber detached", "room_id", sub.RoomID, "user_id", sub.UserID)
}

// BroadcastToRoom доставляет событие всем текущим подписчикам комнаты.
// Вызывается из секвенсора комнаты, поэтому порядок постановки в буферы
// совпадает с порядком мутаций комнаты.
func (b *Broadcaster) BroadcastToRoom(roomID uuid.UUID, eventType string, senderID *uuid.UUID, payload interface{}) {
	event := domain.Event{
		EventType: eventType,
		RoomID:    roomID,
		SenderID:  senderID,
		Payload:   payload,
		Timestamp: time.Now(),
	}

	b.mu.RLock()
	defer b.mu.RUnlock()

	dropped := 0
	for sub := range b.rooms[roomID] {
		select {
		case sub.C <- event:
		default:
			dropped++
		}
	}
	if dropped > 0 {
		b.log.Debug("Events dropped for slow subscribers", "room_id", roomID, "event_type", eventType, "dropped", dropped)
	}
}

// SendToUser доставляет событие в персональную очередь пользователя
func (b *Broadcaster) SendToUser(userID uuid.UUID, eventType string, roomID uuid.UUID, payload interface{}) {
	event := domain.Event{
		EventType: eventType,
		RoomID:    roomID,
		Payload:   payload,
		Timestamp: time.Now(),
	}

	b.mu.RLock()
	defer b.mu.RUnlock()

	for sub := range b.users[userID] {
		select {
		case sub.C <- event:
		default:
		}
	}
}

func (b *Broadcaster) SubscriberCount(roomID uuid.UUID) int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.rooms[roomID])
}

package engine_test

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"seminar_live/internal/config"
	"seminar_live/internal/domain"
	"seminar_live/internal/engine"
	"seminar_live/internal/repository"
	apperr "seminar_live/pkg/errors"
	"seminar_live/pkg/logger"
)

// recordingPublisher накапливает события вместо сетевой доставки
type recordingPublisher struct {
	mu     sync.Mutex
	events []recordedEvent
}

type recordedEvent struct {
	EventType string
	RoomID    uuid.UUID
	UserID    uuid.UUID // получатель для unicast, иначе zero
	Payload   interface{}
}

func (p *recordingPublisher) BroadcastToRoom(roomID uuid.UUID, eventType string, senderID *uuid.UUID, payload interface{}) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, recordedEvent{EventType: eventType, RoomID: roomID, Payload: payload})
}

func (p *recordingPublisher) SendToUser(userID uuid.UUID, eventType string, roomID uuid.UUID, payload interface{}) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, recordedEvent{EventType: eventType, RoomID: roomID, UserID: userID, Payload: payload})
}

func (p *recordingPublisher) byType(eventType string) []recordedEvent {
	p.mu.Lock()
	defer p.mu.Unlock()
	var out []recordedEvent
	for _, e := range p.events {
		if e.EventType == eventType {
			out = append(out, e)
		}
	}
	return out
}

func (p *recordingPublisher) types() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, 0, len(p.events))
	for _, e := range p.events {
		out = append(out, e.EventType)
	}
	return out
}

type memRoomRepo struct {
	mu    sync.Mutex
	rooms map[uuid.UUID]domain.Room
}

func (r *memRoomRepo) Create(ctx context.Context, room *domain.Room) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rooms[room.ID] = *room
	return nil
}

func (r *memRoomRepo) Update(ctx context.Context, room *domain.Room) error {
	return r.Create(ctx, room)
}

func (r *memRoomRepo) GetByID(ctx context.Context, roomID uuid.UUID) (*domain.Room, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	room, ok := r.rooms[roomID]
	if !ok {
		return nil, fmt.Errorf("room: %w", apperr.ErrNotFound)
	}
	return &room, nil
}

func (r *memRoomRepo) GetBySessionID(ctx context.Context, sessionID uuid.UUID) (*domain.Room, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, room := range r.rooms {
		if room.SessionID == sessionID && !room.HasEnded() {
			copied := room
			return &copied, nil
		}
	}
	return nil, fmt.Errorf("room: %w", apperr.ErrNotFound)
}

type memParticipantRepo struct {
	mu   sync.Mutex
	rows map[uuid.UUID]domain.Participant
}

func (r *memParticipantRepo) Upsert(ctx context.Context, p *domain.Participant) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rows[p.ID] = *p
	return nil
}

func (r *memParticipantRepo) GetByRoom(ctx context.Context, roomID uuid.UUID) ([]*domain.Participant, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*domain.Participant
	for _, p := range r.rows {
		if p.RoomID == roomID {
			copied := p
			out = append(out, &copied)
		}
	}
	return out, nil
}

type memQueueRepo struct {
	mu   sync.Mutex
	rows map[uuid.UUID]domain.SpeakingSlot
}

func (r *memQueueRepo) Save(ctx context.Context, slot *domain.SpeakingSlot) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rows[slot.ID] = *slot
	return nil
}

func (r *memQueueRepo) Delete(ctx context.Context, slotID uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.rows, slotID)
	return nil
}

func (r *memQueueRepo) GetByRoom(ctx context.Context, roomID uuid.UUID) ([]*domain.SpeakingSlot, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*domain.SpeakingSlot
	for _, slot := range r.rows {
		if slot.RoomID == roomID {
			copied := slot
			out = append(out, &copied)
		}
	}
	return out, nil
}

type memBreakoutRepo struct {
	mu   sync.Mutex
	rows map[uuid.UUID]domain.BreakoutRoom
}

func (r *memBreakoutRepo) Save(ctx context.Context, b *domain.BreakoutRoom) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rows[b.ID] = *b
	return nil
}

func (r *memBreakoutRepo) GetByParent(ctx context.Context, roomID uuid.UUID) ([]*domain.BreakoutRoom, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*domain.BreakoutRoom
	for _, b := range r.rows {
		if b.ParentRoomID == roomID {
			copied := b
			out = append(out, &copied)
		}
	}
	return out, nil
}

type memChatRepo struct {
	mu   sync.Mutex
	rows map[uuid.UUID]domain.ChatMessage
}

func (r *memChatRepo) CreateMessage(ctx context.Context, m *domain.ChatMessage) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rows[m.ID] = *m
	return nil
}

func (r *memChatRepo) SoftDeleteMessage(ctx context.Context, messageID uuid.UUID, deletedAt time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if m, ok := r.rows[messageID]; ok {
		m.DeletedAt = &deletedAt
		r.rows[messageID] = m
	}
	return nil
}

func (r *memChatRepo) GetMessagesSince(ctx context.Context, roomID uuid.UUID, since time.Time, limit int) ([]*domain.ChatMessage, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*domain.ChatMessage
	for _, m := range r.rows {
		if m.RoomID != roomID || m.DeletedAt != nil || !m.CreatedAt.After(since) {
			continue
		}
		copied := m
		out = append(out, &copied)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].Sequence < out[j].Sequence
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

type memReactionRepo struct {
	mu   sync.Mutex
	rows []domain.Reaction
}

func (r *memReactionRepo) Push(ctx context.Context, reaction *domain.Reaction) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rows = append(r.rows, *reaction)
	return nil
}

func (r *memReactionRepo) Recent(ctx context.Context, roomID uuid.UUID, since time.Time) ([]*domain.Reaction, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*domain.Reaction
	for i := range r.rows {
		if r.rows[i].RoomID == roomID && r.rows[i].CreatedAt.After(since) {
			copied := r.rows[i]
			out = append(out, &copied)
		}
	}
	return out, nil
}

type memRateLimitRepo struct{}

func (r *memRateLimitRepo) CheckLimit(ctx context.Context, key string, limit int, window time.Duration) (bool, error) {
	return true, nil
}

func (r *memRateLimitRepo) Increment(ctx context.Context, key string, window time.Duration) (int64, error) {
	return 1, nil
}

func testEngineConfig() config.EngineConfig {
	return config.EngineConfig{
		HeartbeatInterval:  0,
		SubscriberBuffer:   16,
		ReactionWindowSize: 50,
		ReactionWindowTTL:  time.Minute,
		PersistQueueSize:   256,
		PersistRetries:     1,
		PersistBackoff:     time.Millisecond,
	}
}

func newTestRepos() *repository.Repositories {
	return &repository.Repositories{
		Room:        &memRoomRepo{rooms: make(map[uuid.UUID]domain.Room)},
		Participant: &memParticipantRepo{rows: make(map[uuid.UUID]domain.Participant)},
		Queue:       &memQueueRepo{rows: make(map[uuid.UUID]domain.SpeakingSlot)},
		Breakout:    &memBreakoutRepo{rows: make(map[uuid.UUID]domain.BreakoutRoom)},
		Chat:        &memChatRepo{rows: make(map[uuid.UUID]domain.ChatMessage)},
		Reaction:    &memReactionRepo{},
		RateLimit:   &memRateLimitRepo{},
	}
}

func newTestEngine() (*engine.Engine, *recordingPublisher) {
	return newTestEngineWith(testEngineConfig(), newTestRepos())
}

func newTestEngineWith(cfg config.EngineConfig, repos *repository.Repositories) (*engine.Engine, *recordingPublisher) {
	pub := &recordingPublisher{}
	eng := engine.New(cfg, repos, pub, logger.Nop())
	return eng, pub
}

// startedRoom создаёт активную комнату с хостом и возвращает её id
func startedRoom(eng *engine.Engine, hostID uuid.UUID) (uuid.UUID, error) {
	ctx := context.Background()
	settings := domain.DefaultRoomSettings()
	settings.EnableWaitingRoom = false

	room, err := eng.CreateRoom(ctx, uuid.New(), hostID, 10, &settings)
	if err != nil {
		return uuid.Nil, err
	}
	if _, err := eng.Join(ctx, room.ID, hostID, "", true, true); err != nil {
		return uuid.Nil, err
	}
	if _, err := eng.Start(ctx, room.ID, hostID); err != nil {
		return uuid.Nil, err
	}
	return room.ID, nil
}

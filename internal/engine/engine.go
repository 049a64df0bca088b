package engine

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"seminar_live/internal/config"
	"seminar_live/internal/domain"
	"seminar_live/internal/repository"
	apperr "seminar_live/pkg/errors"
	"seminar_live/pkg/logger"
)

// Publisher доставляет события подписчикам комнаты и пользователям
type Publisher interface {
	BroadcastToRoom(roomID uuid.UUID, eventType string, senderID *uuid.UUID, payload interface{})
	SendToUser(userID uuid.UUID, eventType string, roomID uuid.UUID, payload interface{})
}

// Engine управляет живыми комнатами семинаров. Каждая комната — независимый
// актор со своим секвенсором; движок маршрутизирует операции в нужный актор
// и ведёт индексы комнат.
type Engine struct {
	cfg   config.EngineConfig
	log   logger.Logger
	pub   Publisher
	repos *repository.Repositories

	writer *persistWriter

	mu        sync.RWMutex
	rooms     map[uuid.UUID]*roomActor
	bySession map[uuid.UUID]uuid.UUID // sessionID -> roomID, только не завершённые

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func New(cfg config.EngineConfig, repos *repository.Repositories, pub Publisher, log logger.Logger) *Engine {
	ctx, cancel := context.WithCancel(context.Background())

	e := &Engine{
		cfg:       cfg,
		log:       log,
		pub:       pub,
		repos:     repos,
		writer:    newPersistWriter(cfg.PersistQueueSize, cfg.PersistRetries, cfg.PersistBackoff, log),
		rooms:     make(map[uuid.UUID]*roomActor),
		bySession: make(map[uuid.UUID]uuid.UUID),
		ctx:       ctx,
		cancel:    cancel,
	}

	e.writer.start(ctx)

	if cfg.HeartbeatInterval > 0 {
		e.wg.Add(1)
		go e.heartbeatLoop()
	}

	return e
}

// Close останавливает фоновые циклы и дожидается дренажа записей
func (e *Engine) Close() {
	e.cancel()
	e.wg.Wait()
	e.writer.wait()

	e.mu.Lock()
	for _, actor := range e.rooms {
		actor.stop()
	}
	e.rooms = make(map[uuid.UUID]*roomActor)
	e.bySession = make(map[uuid.UUID]uuid.UUID)
	e.mu.Unlock()
}

// do выполняет команду в секвенсоре комнаты и ждёт результата.
// Остановленный актор распознаётся по done: отставшие отправители и
// таймеры получают ошибку вместо отправки мёртвому секвенсору.
func (e *Engine) do(roomID uuid.UUID, fn func(st *roomState) error) error {
	e.mu.RLock()
	actor, ok := e.rooms[roomID]
	e.mu.RUnlock()
	if !ok {
		return fmt.Errorf("room %s: %w", roomID, apperr.ErrNotFound)
	}

	errc := make(chan error, 1)
	cmd := func(st *roomState) {
		errc <- fn(st)
	}

	select {
	case actor.cmds <- cmd:
	case <-actor.done:
		return fmt.Errorf("room %s: %w", roomID, apperr.ErrRoomClosed)
	}

	select {
	case err := <-errc:
		return err
	case <-actor.done:
		// Команда могла успеть выполниться до остановки
		select {
		case err := <-errc:
			return err
		default:
			return fmt.Errorf("room %s: %w", roomID, apperr.ErrRoomClosed)
		}
	}
}

// snapshot возвращает последний опубликованный снимок живой комнаты
func (e *Engine) snapshot(roomID uuid.UUID) (*RoomSnapshot, error) {
	e.mu.RLock()
	actor, ok := e.rooms[roomID]
	e.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("room %s: %w", roomID, apperr.ErrNotFound)
	}
	return actor.snap.Load(), nil
}

// snapshotOrLoad сначала пробует живой снимок, а для комнат без актора
// (завершённых до рестарта процесса) восстанавливает снимок из хранилища
func (e *Engine) snapshotOrLoad(ctx context.Context, roomID uuid.UUID) (*RoomSnapshot, error) {
	snap, err := e.snapshot(roomID)
	if err == nil {
		return snap, nil
	}
	return e.loadSnapshot(ctx, roomID)
}

// loadSnapshot собирает снимок комнаты из хранилища. Память остаётся
// авторитетной для живых комнат, хранилище отвечает за историю после
// рестарта.
func (e *Engine) loadSnapshot(ctx context.Context, roomID uuid.UUID) (*RoomSnapshot, error) {
	room, err := e.repos.Room.GetByID(ctx, roomID)
	if err != nil {
		return nil, err
	}

	snap := &RoomSnapshot{Room: *room}

	participants, err := e.repos.Participant.GetByRoom(ctx, roomID)
	if err != nil {
		return nil, err
	}
	for _, p := range participants {
		snap.Participants = append(snap.Participants, *p)
	}

	slots, err := e.repos.Queue.GetByRoom(ctx, roomID)
	if err != nil {
		return nil, err
	}
	for _, slot := range slots {
		if slot.Status == domain.SpeakingStatusFinished {
			continue
		}
		snap.Queue = append(snap.Queue, *slot)
	}
	sort.Slice(snap.Queue, func(i, j int) bool {
		return snap.Queue[i].QueuePosition < snap.Queue[j].QueuePosition
	})

	breakouts, err := e.repos.Breakout.GetByParent(ctx, roomID)
	if err != nil {
		return nil, err
	}
	for _, b := range breakouts {
		snap.Breakouts = append(snap.Breakouts, *b)
	}

	return snap, nil
}

func (e *Engine) heartbeatLoop() {
	defer e.wg.Done()

	ticker := time.NewTicker(e.cfg.HeartbeatInterval)
	defer ticker.Stop()

	for {
		select {
		case <-e.ctx.Done():
			return
		case <-ticker.C:
			e.mu.RLock()
			actors := make([]*roomActor, 0, len(e.rooms))
			for _, a := range e.rooms {
				actors = append(actors, a)
			}
			e.mu.RUnlock()

			for _, a := range actors {
				snap := a.snap.Load()
				if snap.Room.IsActive() {
					e.pub.BroadcastToRoom(snap.Room.ID, domain.EventRoomSnapshot, nil, snap)
				}
			}
		}
	}
}

// persistRoom ставит в очередь запись комнаты. Значение копируется на
// момент вызова, дальнейшие мутации состояния запись не затрагивают.
func (e *Engine) persistRoom(room domain.Room) {
	e.writer.enqueue(func(ctx context.Context) error {
		return e.repos.Room.Update(ctx, &room)
	})
}

func (e *Engine) persistRoomCreate(room domain.Room) {
	e.writer.enqueue(func(ctx context.Context) error {
		return e.repos.Room.Create(ctx, &room)
	})
}

func (e *Engine) persistParticipant(p domain.Participant) {
	e.writer.enqueue(func(ctx context.Context) error {
		return e.repos.Participant.Upsert(ctx, &p)
	})
}

func (e *Engine) persistSlot(slot domain.SpeakingSlot) {
	e.writer.enqueue(func(ctx context.Context) error {
		return e.repos.Queue.Save(ctx, &slot)
	})
}

func (e *Engine) persistSlotDelete(slotID uuid.UUID) {
	e.writer.enqueue(func(ctx context.Context) error {
		return e.repos.Queue.Delete(ctx, slotID)
	})
}

func (e *Engine) persistBreakout(b domain.BreakoutRoom) {
	b.ParticipantIDs = append([]uuid.UUID(nil), b.ParticipantIDs...)
	e.writer.enqueue(func(ctx context.Context) error {
		return e.repos.Breakout.Save(ctx, &b)
	})
}

func (e *Engine) persistMessage(m domain.ChatMessage) {
	e.writer.enqueue(func(ctx context.Context) error {
		return e.repos.Chat.CreateMessage(ctx, &m)
	})
}

package engine

import (
	"time"

	"github.com/google/uuid"
)

// SetBreakoutMinute подменяет единицу длительности breakout-комнат и
// возвращает прежнее значение для восстановления.
func SetBreakoutMinute(d time.Duration) time.Duration {
	prev := breakoutMinute
	breakoutMinute = d
	return prev
}

// StopActor останавливает секвенсор комнаты, оставляя её в индексе.
// Моделирует отправителя, догнавшего уже остановленный актор.
func (e *Engine) StopActor(roomID uuid.UUID) {
	e.mu.RLock()
	actor, ok := e.rooms[roomID]
	e.mu.RUnlock()
	if ok {
		actor.stop()
	}
}

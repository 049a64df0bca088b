package engine

import (
	"context"
	"sync"
	"time"

	"seminar_live/pkg/logger"
)

// persistWriter выполняет отложенные записи в хранилище. Состояние в памяти
// первично: ошибка записи не откатывает мутацию комнаты, запись повторяется
// с экспоненциальной задержкой и в худшем случае теряется с логом.
type persistWriter struct {
	log     logger.Logger
	retries int
	backoff time.Duration

	jobs chan func(context.Context) error
	wg   sync.WaitGroup
}

func newPersistWriter(queueSize, retries int, backoff time.Duration, log logger.Logger) *persistWriter {
	if queueSize <= 0 {
		queueSize = 256
	}
	if retries <= 0 {
		retries = 1
	}
	return &persistWriter{
		log:     log,
		retries: retries,
		backoff: backoff,
		jobs:    make(chan func(context.Context) error, queueSize),
	}
}

func (w *persistWriter) start(ctx context.Context) {
	w.wg.Add(1)
	go w.run(ctx)
}

// enqueue не блокирует вызывающего: при переполненной очереди запись
// отбрасывается, иначе секвенсор комнаты встал бы на диске
func (w *persistWriter) enqueue(job func(context.Context) error) {
	select {
	case w.jobs <- job:
	default:
		w.log.Warn("Persist queue full, write dropped")
	}
}

func (w *persistWriter) run(ctx context.Context) {
	defer w.wg.Done()

	for {
		select {
		case <-ctx.Done():
			// Дренаж оставшихся записей перед остановкой
			for {
				select {
				case job := <-w.jobs:
					w.execute(context.Background(), job)
				default:
					return
				}
			}
		case job := <-w.jobs:
			w.execute(ctx, job)
		}
	}
}

func (w *persistWriter) execute(ctx context.Context, job func(context.Context) error) {
	backoff := w.backoff
	var err error
	for attempt := 1; attempt <= w.retries; attempt++ {
		if err = job(ctx); err == nil {
			return
		}
		if attempt < w.retries {
			time.Sleep(backoff)
			backoff *= 2
		}
	}
	w.log.Error("Persist write failed after retries", "retries", w.retries, "error", err)
}

func (w *persistWriter) wait() {
	w.wg.Wait()
}

package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"seminar_live/internal/config"
	"seminar_live/internal/domain"
	"seminar_live/pkg/logger"
)

// ReactionRepository хранит реакции в ограниченном окне недавних событий.
// Старые реакции вытесняются: долговечность им не гарантируется.
type ReactionRepository interface {
	Push(ctx context.Context, reaction *domain.Reaction) error
	Recent(ctx context.Context, roomID uuid.UUID, since time.Time) ([]*domain.Reaction, error)
}

type reactionRepository struct {
	redis *redis.Client
	cfg   config.EngineConfig
	log   logger.Logger
}

func NewReactionRepository(rdb *redis.Client, cfg config.EngineConfig, log logger.Logger) ReactionRepository {
	return &reactionRepository{redis: rdb, cfg: cfg, log: log}
}

func reactionKey(roomID uuid.UUID) string {
	return fmt.Sprintf("room:%s:reactions", roomID)
}

func (r *reactionRepository) Push(ctx context.Context, reaction *domain.Reaction) error {
	data, err := json.Marshal(reaction)
	if err != nil {
		return err
	}

	key := reactionKey(reaction.RoomID)
	pipe := r.redis.Pipeline()
	pipe.LPush(ctx, key, data)
	pipe.LTrim(ctx, key, 0, int64(r.cfg.ReactionWindowSize-1))
	pipe.Expire(ctx, key, r.cfg.ReactionWindowTTL)

	if _, err := pipe.Exec(ctx); err != nil {
		r.log.Error("Failed to push reaction", "room_id", reaction.RoomID, "error", err)
		return err
	}

	return nil
}

func (r *reactionRepository) Recent(ctx context.Context, roomID uuid.UUID, since time.Time) ([]*domain.Reaction, error) {
	items, err := r.redis.LRange(ctx, reactionKey(roomID), 0, int64(r.cfg.ReactionWindowSize-1)).Result()
	if err != nil {
		r.log.Error("Failed to read reactions", "room_id", roomID, "error", err)
		return nil, err
	}

	// Список хранится от новых к старым; отдаём по возрастанию времени
	var reactions []*domain.Reaction
	for i := len(items) - 1; i >= 0; i-- {
		reaction := &domain.Reaction{}
		if err := json.Unmarshal([]byte(items[i]), reaction); err != nil {
			continue
		}
		if reaction.CreatedAt.After(since) {
			reactions = append(reactions, reaction)
		}
	}

	return reactions, nil
}

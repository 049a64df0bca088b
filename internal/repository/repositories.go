package repository

import (
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"seminar_live/internal/config"
	"seminar_live/pkg/logger"
)

type Repositories struct {
	Room        RoomRepository
	Participant ParticipantRepository
	Queue       QueueRepository
	Breakout    BreakoutRepository
	Chat        ChatRepository
	Reaction    ReactionRepository
	RateLimit   RateLimitRepository
}

func NewRepositories(db *pgxpool.Pool, rdb *redis.Client, cfg config.EngineConfig, log logger.Logger) *Repositories {
	return &Repositories{
		Room:        NewRoomRepository(db, log),
		Participant: NewParticipantRepository(db, log),
		Queue:       NewQueueRepository(db, log),
		Breakout:    NewBreakoutRepository(db, log),
		Chat:        NewChatRepository(db, log),
		Reaction:    NewReactionRepository(rdb, cfg, log),
		RateLimit:   NewRateLimitRepository(rdb, log),
	}
}

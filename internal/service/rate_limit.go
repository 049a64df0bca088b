package service

import (
	"context"
	"time"

	"seminar_live/internal/repository"
	"seminar_live/pkg/logger"
)

type RateLimitService interface {
	CheckLimit(ctx context.Context, key string, limit int, window time.Duration) (bool, error)
	Increment(ctx context.Context, key string, window time.Duration) (int64, error)
}

type rateLimitService struct {
	repo repository.RateLimitRepository
	log  logger.Logger
}

func NewRateLimitService(repo repository.RateLimitRepository, log logger.Logger) RateLimitService {
	return &rateLimitService{repo: repo, log: log}
}

func (s *rateLimitService) CheckLimit(ctx context.Context, key string, limit int, window time.Duration) (bool, error) {
	return s.repo.CheckLimit(ctx, key, limit, window)
}

func (s *rateLimitService) Increment(ctx context.Context, key string, window time.Duration) (int64, error) {
	return s.repo.Increment(ctx, key, window)
}

package service

import (
	"seminar_live/internal/config"
	"seminar_live/internal/repository"
	"seminar_live/pkg/logger"
)

type Services struct {
	Auth      AuthService
	Media     MediaService
	RateLimit RateLimitService
}

func NewServices(repos *repository.Repositories, cfg *config.Config, log logger.Logger) *Services {
	return &Services{
		Auth:      NewAuthService(cfg.JWT, log),
		Media:     NewMediaService(cfg.LiveKit, log),
		RateLimit: NewRateLimitService(repos.RateLimit, log),
	}
}

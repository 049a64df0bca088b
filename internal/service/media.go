package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/livekit/protocol/auth"
	"seminar_live/internal/config"
	"seminar_live/pkg/logger"
)

type MediaService interface {
	JoinToken(ctx context.Context, roomID, userID uuid.UUID, displayName string) (string, string, error)
}

type mediaService struct {
	cfg config.LiveKitConfig
	log logger.Logger
}

func NewMediaService(cfg config.LiveKitConfig, log logger.Logger) MediaService {
	return &mediaService{cfg: cfg, log: log}
}

// JoinToken выдаёт SFU-токен для подключения к медиа-комнате.
// Имя медиа-комнаты совпадает с id комнаты семинара.
func (s *mediaService) JoinToken(ctx context.Context, roomID, userID uuid.UUID, displayName string) (string, string, error) {
	at := auth.NewAccessToken(s.cfg.APIKey, s.cfg.APISecret)
	canPublish := true
	canSubscribe := true
	grant := &auth.VideoGrant{
		RoomJoin:     true,
		Room:         roomID.String(),
		CanPublish:   &canPublish,
		CanSubscribe: &canSubscribe,
	}

	at.AddGrant(grant).
		SetIdentity(userID.String()).
		SetName(displayName).
		SetValidFor(time.Hour)

	token, err := at.ToJWT()
	if err != nil {
		s.log.Error("Failed to generate LiveKit token", "error", err)
		return "", "", errors.New("failed to generate token")
	}

	return token, s.cfg.URL, nil
}

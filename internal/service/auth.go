package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"seminar_live/internal/config"
	apperr "seminar_live/pkg/errors"
	"seminar_live/pkg/logger"
)

// Identity — проверенная личность запроса. Выдача токенов лежит на общей
// платформе, движок семинаров их только валидирует.
type Identity struct {
	UserID      uuid.UUID `json:"user_id"`
	DisplayName string    `json:"display_name"`
	Role        string    `json:"role"`
}

type AuthService interface {
	ValidateToken(ctx context.Context, tokenString string) (*Identity, error)
}

type authService struct {
	cfg config.JWTConfig
	log logger.Logger
}

func NewAuthService(cfg config.JWTConfig, log logger.Logger) AuthService {
	return &authService{cfg: cfg, log: log}
}

func (s *authService) ValidateToken(ctx context.Context, tokenString string) (*Identity, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(s.cfg.AccessSecret), nil
	}, jwt.WithIssuer(s.cfg.Issuer))
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, fmt.Errorf("token expired: %w", apperr.ErrTokenExpired)
		}
		return nil, fmt.Errorf("token parse failed: %w", apperr.ErrInvalidToken)
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return nil, fmt.Errorf("invalid claims: %w", apperr.ErrInvalidToken)
	}

	sub, _ := claims["sub"].(string)
	userID, err := uuid.Parse(sub)
	if err != nil {
		return nil, fmt.Errorf("invalid subject: %w", apperr.ErrInvalidToken)
	}

	identity := &Identity{UserID: userID}
	if name, ok := claims["name"].(string); ok {
		identity.DisplayName = name
	}
	if role, ok := claims["role"].(string); ok {
		identity.Role = role
	}

	return identity, nil
}

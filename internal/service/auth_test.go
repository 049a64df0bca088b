package service_test

import (
	"context"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"seminar_live/internal/config"
	"seminar_live/internal/service"
	apperr "seminar_live/pkg/errors"
	"seminar_live/pkg/logger"
)

const testSecret = "test-secret"

func signToken(t *testing.T, claims jwt.MapClaims, secret string) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(secret))
	require.NoError(t, err)
	return signed
}

func newAuthService() service.AuthService {
	return service.NewAuthService(config.JWTConfig{
		AccessSecret: testSecret,
		Issuer:       "seminar-live",
	}, logger.Nop())
}

func TestValidateToken_AcceptsValidToken(t *testing.T) {
	svc := newAuthService()
	userID := uuid.New()

	tokenString := signToken(t, jwt.MapClaims{
		"sub":  userID.String(),
		"name": "Alice",
		"role": "teacher",
		"iss":  "seminar-live",
		"exp":  time.Now().Add(time.Hour).Unix(),
	}, testSecret)

	identity, err := svc.ValidateToken(context.Background(), tokenString)
	require.NoError(t, err)
	assert.Equal(t, userID, identity.UserID)
	assert.Equal(t, "Alice", identity.DisplayName)
	assert.Equal(t, "teacher", identity.Role)
}

func TestValidateToken_RejectsExpiredToken(t *testing.T) {
	svc := newAuthService()

	tokenString := signToken(t, jwt.MapClaims{
		"sub": uuid.New().String(),
		"iss": "seminar-live",
		"exp": time.Now().Add(-time.Hour).Unix(),
	}, testSecret)

	_, err := svc.ValidateToken(context.Background(), tokenString)
	assert.ErrorIs(t, err, apperr.ErrTokenExpired)
}

func TestValidateToken_RejectsWrongSecret(t *testing.T) {
	svc := newAuthService()

	tokenString := signToken(t, jwt.MapClaims{
		"sub": uuid.New().String(),
		"iss": "seminar-live",
		"exp": time.Now().Add(time.Hour).Unix(),
	}, "other-secret")

	_, err := svc.ValidateToken(context.Background(), tokenString)
	assert.ErrorIs(t, err, apperr.ErrInvalidToken)
}

func TestValidateToken_RejectsMalformedSubject(t *testing.T) {
	svc := newAuthService()

	tokenString := signToken(t, jwt.MapClaims{
		"sub": "not-a-uuid",
		"iss": "seminar-live",
		"exp": time.Now().Add(time.Hour).Unix(),
	}, testSecret)

	_, err := svc.ValidateToken(context.Background(), tokenString)
	assert.ErrorIs(t, err, apperr.ErrInvalidToken)
}

package errors

import (
	"errors"
	"net/http"
)

var (
	ErrValidation    = errors.New("validation failed")
	ErrNotFound      = errors.New("not found")
	ErrConflict      = errors.New("conflict")
	ErrInvalidState  = errors.New("invalid state for operation")
	ErrRoomClosed    = errors.New("room has ended")
	ErrPermission    = errors.New("host or co-host required")
	ErrRoomFull      = errors.New("room is full")
	ErrCapacity      = errors.New("capacity exceeded")
	ErrNotJoined     = errors.New("participant not joined")
	ErrFloorOccupied = errors.New("floor is occupied")
	ErrQueueEmpty    = errors.New("speaking queue is empty")
	ErrUnauthorized  = errors.New("unauthorized")
	ErrInvalidToken  = errors.New("invalid token")
	ErrTokenExpired  = errors.New("token expired")
)

type APIError struct {
	Message string `json:"error"`
	Code    int    `json:"code"`
}

func (e *APIError) Error() string {
	return e.Message
}

func NewAPIError(message string, code int) *APIError {
	return &APIError{
		Message: message,
		Code:    code,
	}
}

func HTTPStatusFromError(err error) int {
	switch {
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrUnauthorized), errors.Is(err, ErrInvalidToken), errors.Is(err, ErrTokenExpired):
		return http.StatusUnauthorized
	case errors.Is(err, ErrPermission):
		return http.StatusForbidden
	case errors.Is(err, ErrConflict), errors.Is(err, ErrInvalidState),
		errors.Is(err, ErrRoomClosed), errors.Is(err, ErrFloorOccupied),
		errors.Is(err, ErrQueueEmpty), errors.Is(err, ErrRoomFull),
		errors.Is(err, ErrCapacity), errors.Is(err, ErrNotJoined):
		return http.StatusConflict
	case errors.Is(err, ErrValidation):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

package engine_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"seminar_live/internal/domain"
	apperr "seminar_live/pkg/errors"
)

func TestCreateRoom_SecondRoomForSameSessionConflicts(t *testing.T) {
	eng, _ := newTestEngine()
	defer eng.Close()
	ctx := context.Background()

	sessionID := uuid.New()
	hostID := uuid.New()

	room, err := eng.CreateRoom(ctx, sessionID, hostID, 10, nil)
	require.NoError(t, err)
	assert.Equal(t, domain.RoomStatusWaiting, room.Status)

	_, err = eng.CreateRoom(ctx, sessionID, hostID, 10, nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, apperr.ErrConflict)
}

func TestCreateRoom_SessionReusableAfterEnd(t *testing.T) {
	eng, _ := newTestEngine()
	defer eng.Close()
	ctx := context.Background()

	sessionID := uuid.New()
	hostID := uuid.New()

	room, err := eng.CreateRoom(ctx, sessionID, hostID, 10, nil)
	require.NoError(t, err)

	_, err = eng.End(ctx, room.ID, hostID)
	require.NoError(t, err)

	_, err = eng.CreateRoom(ctx, sessionID, hostID, 10, nil)
	require.NoError(t, err)
}

func TestStart_BroadcastsRoomStartedOnce(t *testing.T) {
	eng, pub := newTestEngine()
	defer eng.Close()
	ctx := context.Background()

	hostID := uuid.New()
	room, err := eng.CreateRoom(ctx, uuid.New(), hostID, 10, nil)
	require.NoError(t, err)

	started, err := eng.Start(ctx, room.ID, hostID)
	require.NoError(t, err)
	assert.Equal(t, domain.RoomStatusActive, started.Status)
	require.NotNil(t, started.StartedAt)

	_, err = eng.Start(ctx, room.ID, hostID)
	assert.ErrorIs(t, err, apperr.ErrInvalidState)

	assert.Len(t, pub.byType(domain.EventRoomStarted), 1)
}

func TestStart_RequiresModerator(t *testing.T) {
	eng, _ := newTestEngine()
	defer eng.Close()
	ctx := context.Background()

	hostID := uuid.New()
	room, err := eng.CreateRoom(ctx, uuid.New(), hostID, 10, nil)
	require.NoError(t, err)

	_, err = eng.Start(ctx, room.ID, uuid.New())
	assert.ErrorIs(t, err, apperr.ErrPermission)
}

func TestEnd_CascadesAndSealsRoom(t *testing.T) {
	eng, pub := newTestEngine()
	defer eng.Close()
	ctx := context.Background()

	hostID := uuid.New()
	memberID := uuid.New()
	roomID, err := startedRoom(eng, hostID)
	require.NoError(t, err)

	_, err = eng.Join(ctx, roomID, memberID, "", true, true)
	require.NoError(t, err)

	// Спикер держит слово, breakout активен
	_, err = eng.JoinQueue(ctx, roomID, memberID, "")
	require.NoError(t, err)
	_, err = eng.GrantNext(ctx, roomID, hostID)
	require.NoError(t, err)

	breakout, err := eng.CreateBreakout(ctx, roomID, hostID, "Group A", domain.AssignmentManual, 0, 0)
	require.NoError(t, err)
	_, err = eng.StartBreakout(ctx, roomID, breakout.ID, hostID)
	require.NoError(t, err)

	ended, err := eng.End(ctx, roomID, hostID)
	require.NoError(t, err)
	assert.Equal(t, domain.RoomStatusEnded, ended.Status)

	snap, err := eng.GetRoom(ctx, roomID)
	require.NoError(t, err)
	assert.Empty(t, snap.Queue)
	for _, p := range snap.Participants {
		assert.Equal(t, domain.ParticipantStatusLeft, p.Status)
	}
	for _, b := range snap.Breakouts {
		assert.Equal(t, domain.BreakoutStatusEnded, b.Status)
	}

	assert.Len(t, pub.byType(domain.EventRoomEnded), 1)

	// После завершения любые мутации отклоняются
	_, err = eng.Join(ctx, roomID, uuid.New(), "", true, true)
	assert.ErrorIs(t, err, apperr.ErrRoomClosed)
	_, err = eng.PostMessage(ctx, roomID, memberID, "late", nil)
	assert.ErrorIs(t, err, apperr.ErrRoomClosed)
	_, err = eng.End(ctx, roomID, hostID)
	assert.ErrorIs(t, err, apperr.ErrRoomClosed)
}

func TestUpdateLayout_ValidatesLayout(t *testing.T) {
	eng, pub := newTestEngine()
	defer eng.Close()
	ctx := context.Background()

	hostID := uuid.New()
	roomID, err := startedRoom(eng, hostID)
	require.NoError(t, err)

	_, err = eng.UpdateLayout(ctx, roomID, hostID, "mosaic")
	assert.ErrorIs(t, err, apperr.ErrValidation)

	updated, err := eng.UpdateLayout(ctx, roomID, hostID, domain.LayoutSpeaker)
	require.NoError(t, err)
	assert.Equal(t, domain.LayoutSpeaker, updated.Layout)
	assert.Len(t, pub.byType(domain.EventLayoutChanged), 1)
}

func TestGetRoomBySession_FindsLiveRoom(t *testing.T) {
	eng, _ := newTestEngine()
	defer eng.Close()
	ctx := context.Background()

	sessionID := uuid.New()
	hostID := uuid.New()
	room, err := eng.CreateRoom(ctx, sessionID, hostID, 10, nil)
	require.NoError(t, err)

	snap, err := eng.GetRoomBySession(ctx, sessionID)
	require.NoError(t, err)
	assert.Equal(t, room.ID, snap.Room.ID)

	_, err = eng.End(ctx, room.ID, hostID)
	require.NoError(t, err)

	// Индекс сессий чистится сразу, запись о завершении комнаты доходит
	// до хранилища асинхронно
	require.Eventually(t, func() bool {
		_, err := eng.GetRoomBySession(ctx, sessionID)
		return errors.Is(err, apperr.ErrNotFound)
	}, time.Second, 5*time.Millisecond)
}

func TestEngine_StoppedActorRejectsLateCommands(t *testing.T) {
	eng, _ := newTestEngine()
	defer eng.Close()
	ctx := context.Background()

	hostID := uuid.New()
	roomID, err := startedRoom(eng, hostID)
	require.NoError(t, err)

	// Отправитель, переживший остановку секвенсора, получает ошибку,
	// а не панику на мёртвом канале
	eng.StopActor(roomID)

	_, err = eng.PostMessage(ctx, roomID, hostID, "late", nil)
	assert.ErrorIs(t, err, apperr.ErrRoomClosed)
	_, err = eng.Start(ctx, roomID, hostID)
	assert.ErrorIs(t, err, apperr.ErrRoomClosed)

	// Повторная остановка безопасна
	eng.StopActor(roomID)
}

func TestEngine_CloseThenCommandReturnsNotFound(t *testing.T) {
	eng, _ := newTestEngine()
	ctx := context.Background()

	hostID := uuid.New()
	roomID, err := startedRoom(eng, hostID)
	require.NoError(t, err)

	eng.Close()

	_, err = eng.JoinQueue(ctx, roomID, hostID, "")
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

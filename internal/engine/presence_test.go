package engine_test

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"seminar_live/internal/domain"
	apperr "seminar_live/pkg/errors"
)

func TestJoin_IsIdempotentForJoinedUser(t *testing.T) {
	eng, pub := newTestEngine()
	defer eng.Close()
	ctx := context.Background()

	hostID := uuid.New()
	roomID, err := startedRoom(eng, hostID)
	require.NoError(t, err)

	userID := uuid.New()
	first, err := eng.Join(ctx, roomID, userID, "", true, true)
	require.NoError(t, err)
	second, err := eng.Join(ctx, roomID, userID, "", true, true)
	require.NoError(t, err)

	assert.Equal(t, first.ID, second.ID)
	// host + участник, по одному событию на каждого
	assert.Len(t, pub.byType(domain.EventParticipantJoined), 2)
}

func TestJoin_RejoinReactivatesSameParticipant(t *testing.T) {
	eng, _ := newTestEngine()
	defer eng.Close()
	ctx := context.Background()

	hostID := uuid.New()
	roomID, err := startedRoom(eng, hostID)
	require.NoError(t, err)

	userID := uuid.New()
	first, err := eng.Join(ctx, roomID, userID, "", true, true)
	require.NoError(t, err)

	require.NoError(t, eng.Leave(ctx, roomID, userID))

	again, err := eng.Join(ctx, roomID, userID, "", true, true)
	require.NoError(t, err)
	assert.Equal(t, first.ID, again.ID)
	assert.Equal(t, domain.ParticipantStatusJoined, again.Status)
	assert.Nil(t, again.LeftAt)
}

func TestJoin_EnforcesCapacity(t *testing.T) {
	eng, _ := newTestEngine()
	defer eng.Close()
	ctx := context.Background()

	hostID := uuid.New()
	settings := domain.DefaultRoomSettings()
	settings.EnableWaitingRoom = false

	room, err := eng.CreateRoom(ctx, uuid.New(), hostID, 2, &settings)
	require.NoError(t, err)
	_, err = eng.Join(ctx, room.ID, hostID, "", true, true)
	require.NoError(t, err)
	_, err = eng.Start(ctx, room.ID, hostID)
	require.NoError(t, err)

	_, err = eng.Join(ctx, room.ID, uuid.New(), "", true, true)
	require.NoError(t, err)

	_, err = eng.Join(ctx, room.ID, uuid.New(), "", true, true)
	assert.ErrorIs(t, err, apperr.ErrRoomFull)
}

func TestJoin_WaitingRoomGateAndAdmit(t *testing.T) {
	eng, _ := newTestEngine()
	defer eng.Close()
	ctx := context.Background()

	hostID := uuid.New()
	room, err := eng.CreateRoom(ctx, uuid.New(), hostID, 10, nil) // waiting room включён по умолчанию
	require.NoError(t, err)
	_, err = eng.Join(ctx, room.ID, hostID, "", true, true)
	require.NoError(t, err)
	_, err = eng.Start(ctx, room.ID, hostID)
	require.NoError(t, err)

	userID := uuid.New()
	p, err := eng.Join(ctx, room.ID, userID, "", true, true)
	require.NoError(t, err)
	assert.Equal(t, domain.ParticipantStatusWaiting, p.Status)

	_, err = eng.Admit(ctx, room.ID, userID, userID)
	assert.ErrorIs(t, err, apperr.ErrPermission)

	admitted, err := eng.Admit(ctx, room.ID, hostID, userID)
	require.NoError(t, err)
	assert.Equal(t, domain.ParticipantStatusJoined, admitted.Status)
}

func TestJoin_MuteOnEntryOverridesClientAudio(t *testing.T) {
	eng, _ := newTestEngine()
	defer eng.Close()
	ctx := context.Background()

	hostID := uuid.New()
	settings := domain.DefaultRoomSettings()
	settings.EnableWaitingRoom = false
	settings.MuteOnEntry = true

	room, err := eng.CreateRoom(ctx, uuid.New(), hostID, 10, &settings)
	require.NoError(t, err)
	_, err = eng.Join(ctx, room.ID, hostID, "", true, true)
	require.NoError(t, err)
	_, err = eng.Start(ctx, room.ID, hostID)
	require.NoError(t, err)

	p, err := eng.Join(ctx, room.ID, uuid.New(), "", true, true)
	require.NoError(t, err)
	assert.True(t, p.IsMuted)
}

func TestLeave_ClearsFlagsAndReleasesFloor(t *testing.T) {
	eng, pub := newTestEngine()
	defer eng.Close()
	ctx := context.Background()

	hostID := uuid.New()
	roomID, err := startedRoom(eng, hostID)
	require.NoError(t, err)

	userID := uuid.New()
	_, err = eng.Join(ctx, roomID, userID, "", true, true)
	require.NoError(t, err)

	require.NoError(t, eng.RaiseHand(ctx, roomID, userID))
	_, err = eng.JoinQueue(ctx, roomID, userID, "")
	require.NoError(t, err)
	_, err = eng.GrantNext(ctx, roomID, hostID)
	require.NoError(t, err)

	require.NoError(t, eng.Leave(ctx, roomID, userID))

	snap, err := eng.GetRoom(ctx, roomID)
	require.NoError(t, err)
	assert.Empty(t, snap.Queue)
	for _, p := range snap.Participants {
		if p.UserID == userID {
			assert.Equal(t, domain.ParticipantStatusLeft, p.Status)
			assert.False(t, p.IsHandRaised)
		}
	}
	assert.Len(t, pub.byType(domain.EventParticipantLeft), 1)

	// Слово свободно: следующий в очереди может его получить
	_, err = eng.GrantNext(ctx, roomID, hostID)
	assert.ErrorIs(t, err, apperr.ErrQueueEmpty)
}

func TestHandAndMediaFlags_RequireJoinedParticipant(t *testing.T) {
	eng, _ := newTestEngine()
	defer eng.Close()
	ctx := context.Background()

	hostID := uuid.New()
	roomID, err := startedRoom(eng, hostID)
	require.NoError(t, err)

	stranger := uuid.New()
	assert.ErrorIs(t, eng.RaiseHand(ctx, roomID, stranger), apperr.ErrNotJoined)
	assert.ErrorIs(t, eng.SetMute(ctx, roomID, stranger, true), apperr.ErrNotJoined)
	assert.ErrorIs(t, eng.SetVideo(ctx, roomID, stranger, false), apperr.ErrNotJoined)
}

func TestRaisedHands_ListsOnlyRaised(t *testing.T) {
	eng, pub := newTestEngine()
	defer eng.Close()
	ctx := context.Background()

	hostID := uuid.New()
	roomID, err := startedRoom(eng, hostID)
	require.NoError(t, err)

	a := uuid.New()
	b := uuid.New()
	_, err = eng.Join(ctx, roomID, a, "", true, true)
	require.NoError(t, err)
	_, err = eng.Join(ctx, roomID, b, "", true, true)
	require.NoError(t, err)

	require.NoError(t, eng.RaiseHand(ctx, roomID, a))
	require.NoError(t, eng.RaiseHand(ctx, roomID, b))
	require.NoError(t, eng.LowerHand(ctx, roomID, b))

	raised, err := eng.RaisedHands(ctx, roomID)
	require.NoError(t, err)
	require.Len(t, raised, 1)
	assert.Equal(t, a, raised[0].UserID)

	assert.Len(t, pub.byType(domain.EventHandRaised), 2)
	assert.Len(t, pub.byType(domain.EventHandLowered), 1)
}

func TestSetScreenShare_IsExclusive(t *testing.T) {
	eng, pub := newTestEngine()
	defer eng.Close()
	ctx := context.Background()

	hostID := uuid.New()
	roomID, err := startedRoom(eng, hostID)
	require.NoError(t, err)

	a := uuid.New()
	b := uuid.New()
	_, err = eng.Join(ctx, roomID, a, "", true, true)
	require.NoError(t, err)
	_, err = eng.Join(ctx, roomID, b, "", true, true)
	require.NoError(t, err)

	require.NoError(t, eng.SetScreenShare(ctx, roomID, a, true))
	require.NoError(t, eng.SetScreenShare(ctx, roomID, b, true))

	snap, err := eng.GetRoom(ctx, roomID)
	require.NoError(t, err)
	sharing := 0
	for _, p := range snap.Participants {
		if p.IsScreenSharing {
			sharing++
			assert.Equal(t, b, p.UserID)
		}
	}
	assert.Equal(t, 1, sharing)

	assert.Len(t, pub.byType(domain.EventScreenShareStarted), 2)
	assert.Len(t, pub.byType(domain.EventScreenShareStopped), 1)
}

func TestSetScreenShare_DisabledSettingBlocksNonModerators(t *testing.T) {
	eng, _ := newTestEngine()
	defer eng.Close()
	ctx := context.Background()

	hostID := uuid.New()
	settings := domain.DefaultRoomSettings()
	settings.EnableWaitingRoom = false
	settings.AllowScreenShare = false

	room, err := eng.CreateRoom(ctx, uuid.New(), hostID, 10, &settings)
	require.NoError(t, err)
	_, err = eng.Join(ctx, room.ID, hostID, "", true, true)
	require.NoError(t, err)
	_, err = eng.Start(ctx, room.ID, hostID)
	require.NoError(t, err)

	userID := uuid.New()
	_, err = eng.Join(ctx, room.ID, userID, "", true, true)
	require.NoError(t, err)

	assert.ErrorIs(t, eng.SetScreenShare(ctx, room.ID, userID, true), apperr.ErrPermission)
	assert.NoError(t, eng.SetScreenShare(ctx, room.ID, hostID, true))
}

package engine_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"seminar_live/internal/domain"
	"seminar_live/internal/engine"
	apperr "seminar_live/pkg/errors"
)

func TestPostMessage_AssignsMonotonicSequence(t *testing.T) {
	eng, pub := newTestEngine()
	defer eng.Close()
	ctx := context.Background()

	hostID := uuid.New()
	roomID, err := startedRoom(eng, hostID)
	require.NoError(t, err)

	var last int64
	for i := 0; i < 3; i++ {
		m, err := eng.PostMessage(ctx, roomID, hostID, "hello", nil)
		require.NoError(t, err)
		assert.Greater(t, m.Sequence, last)
		last = m.Sequence
	}

	// Системное сообщение о старте + три пользовательских
	assert.Len(t, pub.byType(domain.EventChatMessage), 4)
}

func TestPostMessage_FileShareEmitsDedicatedEvent(t *testing.T) {
	eng, pub := newTestEngine()
	defer eng.Close()
	ctx := context.Background()

	hostID := uuid.New()
	roomID, err := startedRoom(eng, hostID)
	require.NoError(t, err)

	m, err := eng.PostMessage(ctx, roomID, hostID, "slides", &engine.FileAttachment{
		Name: "lecture.pdf",
		URL:  "https://files.local/lecture.pdf",
		Size: 1024,
	})
	require.NoError(t, err)
	assert.Equal(t, domain.MessageTypeFile, m.MessageType)
	assert.Equal(t, "lecture.pdf", m.FileName)

	assert.Len(t, pub.byType(domain.EventFileShared), 1)
}

func TestPostMessage_RejectedWhenChatDisabled(t *testing.T) {
	eng, _ := newTestEngine()
	defer eng.Close()
	ctx := context.Background()

	hostID := uuid.New()
	settings := domain.DefaultRoomSettings()
	settings.EnableWaitingRoom = false
	settings.AllowChat = false

	room, err := eng.CreateRoom(ctx, uuid.New(), hostID, 10, &settings)
	require.NoError(t, err)
	_, err = eng.Join(ctx, room.ID, hostID, "", true, true)
	require.NoError(t, err)
	_, err = eng.Start(ctx, room.ID, hostID)
	require.NoError(t, err)

	_, err = eng.PostMessage(ctx, room.ID, hostID, "hello", nil)
	assert.ErrorIs(t, err, apperr.ErrRoomClosed)
}

func TestPostMessage_RequiresJoinedSender(t *testing.T) {
	eng, _ := newTestEngine()
	defer eng.Close()
	ctx := context.Background()

	hostID := uuid.New()
	roomID, err := startedRoom(eng, hostID)
	require.NoError(t, err)

	_, err = eng.PostMessage(ctx, roomID, uuid.New(), "hello", nil)
	assert.ErrorIs(t, err, apperr.ErrNotJoined)
}

func TestFetchSince_SkipsDeletedMessages(t *testing.T) {
	eng, _ := newTestEngine()
	defer eng.Close()
	ctx := context.Background()

	hostID := uuid.New()
	roomID, err := startedRoom(eng, hostID)
	require.NoError(t, err)

	first, err := eng.PostMessage(ctx, roomID, hostID, "first", nil)
	require.NoError(t, err)
	_, err = eng.PostMessage(ctx, roomID, hostID, "second", nil)
	require.NoError(t, err)

	require.NoError(t, eng.DeleteMessage(ctx, roomID, hostID, first.ID))

	messages, err := eng.FetchSince(ctx, roomID, time.Time{}, 100)
	require.NoError(t, err)

	for _, m := range messages {
		assert.NotEqual(t, first.ID, m.ID)
	}
	// Порядок по возрастанию номера
	for i := 1; i < len(messages); i++ {
		assert.Greater(t, messages[i].Sequence, messages[i-1].Sequence)
	}
}

func TestDeleteMessage_OnlyOwnerOrModerator(t *testing.T) {
	eng, _ := newTestEngine()
	defer eng.Close()
	ctx := context.Background()

	hostID := uuid.New()
	roomID, err := startedRoom(eng, hostID)
	require.NoError(t, err)

	a := uuid.New()
	b := uuid.New()
	for _, userID := range []uuid.UUID{a, b} {
		_, err := eng.Join(ctx, roomID, userID, "", true, true)
		require.NoError(t, err)
	}

	m, err := eng.PostMessage(ctx, roomID, a, "mine", nil)
	require.NoError(t, err)

	assert.ErrorIs(t, eng.DeleteMessage(ctx, roomID, b, m.ID), apperr.ErrPermission)
	assert.NoError(t, eng.DeleteMessage(ctx, roomID, a, m.ID))
	assert.ErrorIs(t, eng.DeleteMessage(ctx, roomID, a, uuid.New()), apperr.ErrNotFound)
}

func TestPostReaction_ValidatesTypeAndSettings(t *testing.T) {
	eng, pub := newTestEngine()
	defer eng.Close()
	ctx := context.Background()

	hostID := uuid.New()
	roomID, err := startedRoom(eng, hostID)
	require.NoError(t, err)

	reaction, err := eng.PostReaction(ctx, roomID, hostID, domain.ReactionClap)
	require.NoError(t, err)
	assert.Equal(t, "👏", reaction.Emoji)
	assert.Len(t, pub.byType(domain.EventReaction), 1)

	_, err = eng.PostReaction(ctx, roomID, hostID, "fireworks")
	assert.ErrorIs(t, err, apperr.ErrValidation)
}

func TestPostReaction_DisabledByRoomSettings(t *testing.T) {
	eng, _ := newTestEngine()
	defer eng.Close()
	ctx := context.Background()

	hostID := uuid.New()
	settings := domain.DefaultRoomSettings()
	settings.EnableWaitingRoom = false
	settings.AllowReactions = false

	room, err := eng.CreateRoom(ctx, uuid.New(), hostID, 10, &settings)
	require.NoError(t, err)
	_, err = eng.Join(ctx, room.ID, hostID, "", true, true)
	require.NoError(t, err)
	_, err = eng.Start(ctx, room.ID, hostID)
	require.NoError(t, err)

	_, err = eng.PostReaction(ctx, room.ID, hostID, domain.ReactionHeart)
	assert.ErrorIs(t, err, apperr.ErrPermission)
}

func TestRecentReactions_ReturnsSlidingWindow(t *testing.T) {
	eng, _ := newTestEngine()
	defer eng.Close()
	ctx := context.Background()

	hostID := uuid.New()
	roomID, err := startedRoom(eng, hostID)
	require.NoError(t, err)

	_, err = eng.PostReaction(ctx, roomID, hostID, domain.ReactionThumbsUp)
	require.NoError(t, err)

	// Запись в окно идёт через асинхронный writer
	require.Eventually(t, func() bool {
		reactions, err := eng.RecentReactions(ctx, roomID, time.Time{})
		return err == nil && len(reactions) == 1
	}, time.Second, 10*time.Millisecond)
}

package redis

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cinesync/server/internal/repository/room"
)

func newTestRepo(t *testing.T) *repo {
	t.Helper()

	s := miniredis.RunT(t)
	rc := goredis.NewClient(&goredis.Options{Addr: s.Addr()})

	return NewRepo(rc, slog.Default(), time.Hour)
}

func TestMemberListKeepsJoinOrder(t *testing.T) {
	r := newTestRepo(t)
	ctx := context.Background()

	for _, connId := range []string{"c1", "c2", "c3"} {
		require.NoError(t, r.SetMember(ctx, &room.SetMemberParams{
			ConnId:   connId,
			RoomId:   "room-1",
			Username: "user-" + connId,
		}))
	}

	ids, err := r.GetMemberIds(ctx, "room-1")
	require.NoError(t, err)
	assert.Equal(t, []string{"c1", "c2", "c3"}, ids)

	require.NoError(t, r.RemoveMember(ctx, &room.RemoveMemberParams{ConnId: "c2", RoomId: "room-1"}))

	ids, err = r.GetMemberIds(ctx, "room-1")
	require.NoError(t, err)
	assert.Equal(t, []string{"c1", "c3"}, ids)

	// removal is not idempotent at this layer; the service maps this
	err = r.RemoveMember(ctx, &room.RemoveMemberParams{ConnId: "c2", RoomId: "room-1"})
	assert.ErrorIs(t, err, room.ErrMemberNotFound)
}

func TestMemberRoundtrip(t *testing.T) {
	r := newTestRepo(t)
	ctx := context.Background()

	require.NoError(t, r.SetMember(ctx, &room.SetMemberParams{
		ConnId:   "c1",
		RoomId:   "room-1",
		Username: "alice",
		IsHost:   true,
	}))

	member, err := r.GetMember(ctx, "c1")
	require.NoError(t, err)
	assert.Equal(t, "alice", member.Username)
	assert.Equal(t, "room-1", member.RoomId)
	assert.True(t, member.IsHost)

	_, err = r.GetMember(ctx, "ghost")
	assert.ErrorIs(t, err, room.ErrMemberNotFound)
}

func TestHostRoundtrip(t *testing.T) {
	r := newTestRepo(t)
	ctx := context.Background()

	_, err := r.GetHost(ctx, "room-1")
	assert.ErrorIs(t, err, room.ErrHostNotFound)

	require.NoError(t, r.SetHost(ctx, "room-1", "c1"))

	host, err := r.GetHost(ctx, "room-1")
	require.NoError(t, err)
	assert.Equal(t, "c1", host)

	require.NoError(t, r.RemoveHost(ctx, "room-1"))
	_, err = r.GetHost(ctx, "room-1")
	assert.ErrorIs(t, err, room.ErrHostNotFound)
}

func TestPlayerRoundtrip(t *testing.T) {
	r := newTestRepo(t)
	ctx := context.Background()

	_, err := r.GetPlayer(ctx, "room-1")
	assert.ErrorIs(t, err, room.ErrPlayerNotFound)

	err = r.UpdatePlayerState(ctx, &room.UpdatePlayerStateParams{IsPlaying: true, RoomId: "room-1"})
	assert.ErrorIs(t, err, room.ErrPlayerNotFound)

	require.NoError(t, r.SetPlayer(ctx, &room.SetPlayerParams{
		MovieURL:     "http://cdn/heat.mp4",
		IsPlaying:    false,
		CurrentTime:  0,
		PlaybackRate: 1,
		UpdatedAt:    42,
		RoomId:       "room-1",
	}))

	require.NoError(t, r.UpdatePlayerState(ctx, &room.UpdatePlayerStateParams{
		IsPlaying:   true,
		CurrentTime: 12.5,
		UpdatedAt:   43,
		RoomId:      "room-1",
	}))

	player, err := r.GetPlayer(ctx, "room-1")
	require.NoError(t, err)
	assert.True(t, player.IsPlaying)
	assert.Equal(t, 12.5, player.CurrentTime)
	assert.Equal(t, "http://cdn/heat.mp4", player.MovieURL)
	assert.Equal(t, float64(1), player.PlaybackRate)

	require.NoError(t, r.UpdatePlayerCurrentTime(ctx, "room-1", 99))
	require.NoError(t, r.UpdatePlayerPlaybackRate(ctx, "room-1", 1.5))

	player, err = r.GetPlayer(ctx, "room-1")
	require.NoError(t, err)
	assert.Equal(t, float64(99), player.CurrentTime)
	assert.Equal(t, 1.5, player.PlaybackRate)

	require.NoError(t, r.RemovePlayer(ctx, "room-1"))
	assert.ErrorIs(t, r.RemovePlayer(ctx, "room-1"), room.ErrPlayerNotFound)
	_, err = r.GetPlayer(ctx, "room-1")
	assert.ErrorIs(t, err, room.ErrPlayerNotFound)
}

func TestInteractionRoundtrip(t *testing.T) {
	r := newTestRepo(t)
	ctx := context.Background()

	_, err := r.GetInteractionKind(ctx, "room-1", 1)
	assert.ErrorIs(t, err, room.ErrInteractionNotFound)

	require.NoError(t, r.CreateInteraction(ctx, &room.CreateInteractionParams{
		RoomId:  "room-1",
		SceneId: 1,
		Kind:    "poll",
	}))

	kind, err := r.GetInteractionKind(ctx, "room-1", 1)
	require.NoError(t, err)
	assert.Equal(t, "poll", kind)

	require.NoError(t, r.SetInteractionAnswer(ctx, &room.SetInteractionAnswerParams{
		RoomId: "room-1", SceneId: 1, Username: "alice", Answer: "A",
	}))
	require.NoError(t, r.SetInteractionAnswer(ctx, &room.SetInteractionAnswerParams{
		RoomId: "room-1", SceneId: 1, Username: "alice", Answer: "B",
	}))

	answers, err := r.GetInteractionAnswers(ctx, "room-1", 1)
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"alice": "B"}, answers)

	// colliding scene ids in different rooms stay separate
	answers, err = r.GetInteractionAnswers(ctx, "room-2", 1)
	require.NoError(t, err)
	assert.Empty(t, answers)
}

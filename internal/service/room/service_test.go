package room

import (
	"context"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gorilla/websocket"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cinesync/server/internal/repository/connection/inmemory"
	roomrepo "github.com/cinesync/server/internal/repository/room"
	roomRedis "github.com/cinesync/server/internal/repository/room/redis"
	"github.com/cinesync/server/pkg/scenedata"
)

func newTestService(t *testing.T, scenes map[string][]scenedata.Scene) (*service, iRoomRepo) {
	t.Helper()

	s := miniredis.RunT(t)
	rc := redis.NewClient(&redis.Options{Addr: s.Addr()})

	repo := roomRedis.NewRepo(rc, slog.Default(), time.Hour)
	connRepo := inmemory.NewRepo(slog.Default())
	svc := NewService(repo, connRepo, scenedata.NewStore(scenes), slog.Default())

	return svc, repo
}

func testScenes(ends ...float64) []scenedata.Scene {
	scenes := make([]scenedata.Scene, 0, len(ends))
	for i, end := range ends {
		scenes = append(scenes, scenedata.Scene{
			Scene:        i + 1,
			Start:        0,
			End:          end,
			PollQuestion: "Who was right?",
			PollOptions:  []string{"A", "B"},
		})
	}

	return scenes
}

func TestJoinAndLeave(t *testing.T) {
	svc, _ := newTestService(t, nil)
	ctx := context.Background()

	joinResp, err := svc.JoinRoom(ctx, &JoinRoomParams{
		Conn:     &websocket.Conn{},
		ConnId:   "conn-1",
		RoomId:   "room-1",
		Username: "alice",
		IsHost:   true,
	})
	require.NoError(t, err)
	assert.Equal(t, "room-1", joinResp.RoomId)
	assert.Equal(t, []Member{{ConnId: "conn-1", Username: "alice", IsHost: true}}, joinResp.Members)
	assert.Equal(t, SystemUsername, joinResp.Message.Username)
	assert.Equal(t, "alice joined the room.", joinResp.Message.Message)

	joinResp2, err := svc.JoinRoom(ctx, &JoinRoomParams{
		Conn:     &websocket.Conn{},
		ConnId:   "conn-2",
		RoomId:   "room-1",
		Username: "bob",
	})
	require.NoError(t, err)
	require.Len(t, joinResp2.Members, 2)
	// join order is preserved
	assert.Equal(t, "conn-1", joinResp2.Members[0].ConnId)
	assert.Equal(t, "conn-2", joinResp2.Members[1].ConnId)

	leaveResp, err := svc.LeaveRoom(ctx, &LeaveRoomParams{ConnId: "conn-2"})
	require.NoError(t, err)
	assert.False(t, leaveResp.WasHost)
	assert.Equal(t, []Member{{ConnId: "conn-1", Username: "alice", IsHost: true}}, leaveResp.Members)
	assert.Equal(t, "bob left the room.", leaveResp.Message.Message)

	// second leave for the same connection is a no-op
	_, err = svc.LeaveRoom(ctx, &LeaveRoomParams{ConnId: "conn-2"})
	assert.ErrorIs(t, err, ErrMemberNotFound)
}

func TestJoinGeneratesRoomId(t *testing.T) {
	svc, _ := newTestService(t, nil)

	joinResp, err := svc.JoinRoom(context.Background(), &JoinRoomParams{
		Conn:     &websocket.Conn{},
		ConnId:   "conn-1",
		Username: "alice",
	})
	require.NoError(t, err)
	assert.Len(t, joinResp.RoomId, roomIdLength)
}

func TestHostLeaveTearsDownRoom(t *testing.T) {
	scenes := map[string][]scenedata.Scene{"heat": testScenes(30, 90, 200)}
	svc, _ := newTestService(t, scenes)
	ctx := context.Background()

	for i, user := range []string{"host", "bob", "carol"} {
		_, err := svc.JoinRoom(ctx, &JoinRoomParams{
			Conn:     &websocket.Conn{},
			ConnId:   "conn-" + user,
			RoomId:   "room-1",
			Username: user,
			IsHost:   i == 0,
		})
		require.NoError(t, err)
	}

	_, err := svc.SelectMovie(ctx, &SelectMovieParams{SenderId: "conn-host", RoomId: "room-1", MovieURL: "http://cdn/heat.mp4"})
	require.NoError(t, err)

	_, err = svc.Play(ctx, &PlayParams{SenderId: "conn-host", RoomId: "room-1", CurrentTime: 0})
	require.NoError(t, err)
	require.Equal(t, 3, svc.ArmedTimers("room-1"))

	leaveResp, err := svc.LeaveRoom(ctx, &LeaveRoomParams{ConnId: "conn-host"})
	require.NoError(t, err)
	assert.True(t, leaveResp.WasHost)
	assert.Len(t, leaveResp.Members, 2)
	assert.Len(t, leaveResp.Conns, 2)
	assert.Equal(t, 0, svc.ArmedTimers("room-1"), "host leave must cancel all timers")

	// the playback record goes with the host
	_, err = svc.Play(ctx, &PlayParams{SenderId: "conn-bob", RoomId: "room-1", CurrentTime: 0})
	assert.ErrorIs(t, err, ErrRoomNotFound)
}

func TestPlaySeekPauseScheduling(t *testing.T) {
	scenes := map[string][]scenedata.Scene{"heat": testScenes(30, 90, 200)}
	svc, _ := newTestService(t, scenes)
	ctx := context.Background()

	for _, user := range []string{"alice", "bob"} {
		_, err := svc.JoinRoom(ctx, &JoinRoomParams{
			Conn:     &websocket.Conn{},
			ConnId:   "conn-" + user,
			RoomId:   "room-1",
			Username: user,
		})
		require.NoError(t, err)
	}

	_, err := svc.SelectMovie(ctx, &SelectMovieParams{SenderId: "conn-alice", RoomId: "room-1", MovieURL: "http://cdn/heat.mp4"})
	require.NoError(t, err)

	playResp, err := svc.Play(ctx, &PlayParams{SenderId: "conn-alice", RoomId: "room-1", CurrentTime: 0})
	require.NoError(t, err)
	assert.Equal(t, 3, svc.ArmedTimers("room-1"))
	// echo suppression: the originator is not in the broadcast set
	assert.Len(t, playResp.Conns, 1)

	// seek past two scene offsets rebuilds the set with what remains
	_, err = svc.Seek(ctx, &SeekParams{SenderId: "conn-alice", RoomId: "room-1", CurrentTime: 100})
	require.NoError(t, err)
	assert.Equal(t, 1, svc.ArmedTimers("room-1"))

	_, err = svc.Pause(ctx, &PauseParams{SenderId: "conn-alice", RoomId: "room-1", CurrentTime: 120})
	require.NoError(t, err)
	assert.Equal(t, 0, svc.ArmedTimers("room-1"))

	// seek while paused must not arm anything
	_, err = svc.Seek(ctx, &SeekParams{SenderId: "conn-alice", RoomId: "room-1", CurrentTime: 10})
	require.NoError(t, err)
	assert.Equal(t, 0, svc.ArmedTimers("room-1"))
}

func TestScheduleConcurrentRebuildsOnce(t *testing.T) {
	scenes := map[string][]scenedata.Scene{"heat": testScenes(30, 90, 200)}
	svc, repo := newTestService(t, scenes)
	ctx := context.Background()

	require.NoError(t, repo.SetPlayer(ctx, &roomrepo.SetPlayerParams{
		MovieURL: "http://cdn/heat.mp4", IsPlaying: true, PlaybackRate: 1, RoomId: "room-1",
	}))

	// racing rebuilds must never leave the room double-armed
	for i := 0; i < 25; i++ {
		var wg sync.WaitGroup
		for j := 0; j < 2; j++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				svc.Schedule(ctx, "room-1", 0)
			}()
		}
		wg.Wait()

		require.Equal(t, 3, svc.ArmedTimers("room-1"), "iteration %d", i)
	}

	svc.CancelAll("room-1")
}

func TestJoinSwitchesRooms(t *testing.T) {
	svc, repo := newTestService(t, nil)
	ctx := context.Background()

	// bob has membership but no live conn, so teardown broadcasts go nowhere
	require.NoError(t, repo.SetMember(ctx, &roomrepo.SetMemberParams{
		ConnId: "conn-bob", RoomId: "room-1", Username: "bob",
	}))

	_, err := svc.JoinRoom(ctx, &JoinRoomParams{
		Conn:     &websocket.Conn{},
		ConnId:   "conn-1",
		RoomId:   "room-1",
		Username: "alice",
	})
	require.NoError(t, err)

	joinResp, err := svc.JoinRoom(ctx, &JoinRoomParams{
		Conn:     &websocket.Conn{},
		ConnId:   "conn-1",
		RoomId:   "room-2",
		Username: "alice",
	})
	require.NoError(t, err)
	assert.Equal(t, []Member{{ConnId: "conn-1", Username: "alice"}}, joinResp.Members)

	// the previous room's roster no longer carries the switched connection
	ids, err := repo.GetMemberIds(ctx, "room-1")
	require.NoError(t, err)
	assert.Equal(t, []string{"conn-bob"}, ids)
}

func TestSelectMovieResetsPlayback(t *testing.T) {
	scenes := map[string][]scenedata.Scene{"heat": testScenes(30)}
	svc, repo := newTestService(t, scenes)
	ctx := context.Background()

	_, err := svc.JoinRoom(ctx, &JoinRoomParams{
		Conn:     &websocket.Conn{},
		ConnId:   "conn-1",
		RoomId:   "room-1",
		Username: "alice",
	})
	require.NoError(t, err)

	_, err = svc.SelectMovie(ctx, &SelectMovieParams{SenderId: "conn-1", RoomId: "room-1", MovieURL: "http://cdn/heat.mp4"})
	require.NoError(t, err)

	_, err = svc.Play(ctx, &PlayParams{SenderId: "conn-1", RoomId: "room-1", CurrentTime: 10})
	require.NoError(t, err)
	require.Equal(t, 1, svc.ArmedTimers("room-1"))

	_, err = svc.SelectMovie(ctx, &SelectMovieParams{SenderId: "conn-1", RoomId: "room-1", MovieURL: "http://cdn/other.mp4"})
	require.NoError(t, err)

	player, err := repo.GetPlayer(ctx, "room-1")
	require.NoError(t, err)
	assert.False(t, player.IsPlaying)
	assert.Equal(t, float64(0), player.CurrentTime)
	assert.Equal(t, "http://cdn/other.mp4", player.MovieURL)
	assert.Equal(t, 0, svc.ArmedTimers("room-1"))
}

func TestPlaybackEventsForUnknownRoomFailClosed(t *testing.T) {
	svc, _ := newTestService(t, nil)
	ctx := context.Background()

	_, err := svc.Play(ctx, &PlayParams{SenderId: "conn-1", RoomId: "ghost", CurrentTime: 0})
	assert.ErrorIs(t, err, ErrRoomNotFound)

	_, err = svc.Pause(ctx, &PauseParams{SenderId: "conn-1", RoomId: "ghost", CurrentTime: 0})
	assert.ErrorIs(t, err, ErrRoomNotFound)

	_, err = svc.Seek(ctx, &SeekParams{SenderId: "conn-1", RoomId: "ghost", CurrentTime: 0})
	assert.ErrorIs(t, err, ErrRoomNotFound)

	_, err = svc.SelectMovie(ctx, &SelectMovieParams{SenderId: "conn-1", RoomId: "ghost", MovieURL: "x"})
	assert.ErrorIs(t, err, ErrRoomNotFound)
}

func TestFireSuppressedWhenPaused(t *testing.T) {
	scenes := map[string][]scenedata.Scene{"heat": testScenes(30)}
	svc, repo := newTestService(t, scenes)
	ctx := context.Background()

	// membership without live conns so a firing cannot write anywhere
	require.NoError(t, repo.SetMember(ctx, &roomrepo.SetMemberParams{
		ConnId: "conn-1", RoomId: "room-1", Username: "alice",
	}))
	require.NoError(t, repo.SetPlayer(ctx, &roomrepo.SetPlayerParams{
		MovieURL: "http://cdn/heat.mp4", IsPlaying: false, CurrentTime: 10, PlaybackRate: 1, RoomId: "room-1",
	}))

	svc.fireInteraction("room-1", scenes["heat"][0])

	// suppressed firing must not open a tally
	_, err := svc.SubmitAnswer(ctx, &SubmitAnswerParams{RoomId: "room-1", SceneId: 1, Username: "alice", Answer: "A"})
	assert.ErrorIs(t, err, ErrInteractionNotFound)
}

func TestFireOpensTallyAndAnswersAggregate(t *testing.T) {
	scenes := map[string][]scenedata.Scene{"heat": testScenes(30)}
	svc, repo := newTestService(t, scenes)
	ctx := context.Background()

	require.NoError(t, repo.SetMember(ctx, &roomrepo.SetMemberParams{
		ConnId: "conn-1", RoomId: "room-1", Username: "alice",
	}))
	require.NoError(t, repo.SetPlayer(ctx, &roomrepo.SetPlayerParams{
		MovieURL: "http://cdn/heat.mp4", IsPlaying: true, CurrentTime: 10, PlaybackRate: 1, RoomId: "room-1",
	}))

	svc.fireInteraction("room-1", scenes["heat"][0])

	submit := func(user, answer string) SubmitAnswerResponse {
		resp, err := svc.SubmitAnswer(ctx, &SubmitAnswerParams{
			RoomId: "room-1", SceneId: 1, Username: user, Answer: answer,
		})
		require.NoError(t, err)
		return resp
	}

	submit("alice", "A")
	submit("bob", "B")
	resp := submit("carol", "A")
	assert.Equal(t, map[string]int{"A": 2, "B": 1}, resp.Results.Counts)
	assert.Equal(t, 3, resp.Results.Total)
	assert.Equal(t, KindPoll, resp.Results.Kind)

	// re-submission overwrites without double-counting the user
	resp = submit("alice", "B")
	assert.Equal(t, map[string]int{"A": 1, "B": 2}, resp.Results.Counts)
	assert.Equal(t, 3, resp.Results.Total)

	// answers outside the declared option set are tallied as-is
	resp = submit("dave", "C")
	assert.Equal(t, map[string]int{"A": 1, "B": 2, "C": 1}, resp.Results.Counts)
	assert.Equal(t, 4, resp.Results.Total)
}

func TestFunFactOpensNoTally(t *testing.T) {
	scene := scenedata.Scene{Scene: 7, End: 30, FunFact: "Shot in one take."}
	svc, repo := newTestService(t, map[string][]scenedata.Scene{"heat": {scene}})
	ctx := context.Background()

	require.NoError(t, repo.SetPlayer(ctx, &roomrepo.SetPlayerParams{
		MovieURL: "http://cdn/heat.mp4", IsPlaying: true, PlaybackRate: 1, RoomId: "room-1",
	}))

	svc.fireInteraction("room-1", scene)

	_, err := svc.SubmitAnswer(ctx, &SubmitAnswerParams{RoomId: "room-1", SceneId: 7, Username: "alice", Answer: "A"})
	assert.ErrorIs(t, err, ErrInteractionNotFound)
}

func TestChatMessageTimestamped(t *testing.T) {
	svc, _ := newTestService(t, nil)
	ctx := context.Background()

	_, err := svc.JoinRoom(ctx, &JoinRoomParams{
		Conn:     &websocket.Conn{},
		ConnId:   "conn-1",
		RoomId:   "room-1",
		Username: "alice",
	})
	require.NoError(t, err)

	chatResp, err := svc.SendChatMessage(ctx, &SendChatMessageParams{
		RoomId: "room-1", Username: "alice", Message: "hello",
	})
	require.NoError(t, err)
	assert.Equal(t, "hello", chatResp.Message.Message)
	assert.NotZero(t, chatResp.Message.Timestamp)
	assert.Len(t, chatResp.Conns, 1, "chat goes to the whole room including the sender")
}

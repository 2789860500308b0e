package room

import (
	"context"
	"errors"
	"math/rand/v2"
	"time"

	"github.com/cinesync/server/internal/repository/room"
	"github.com/cinesync/server/pkg/scenedata"
)

// Schedule cancels the room's timer set and rebuilds it from fromPosition:
// one timer per scene whose end offset lies strictly ahead, firing after
// (end - fromPosition) seconds at unit playback rate. Nothing is armed
// unless the room is currently marked playing.
//
// Playback events from different connections can race through here. The
// playback read runs outside the lock, so the rebuild re-checks the room's
// timer generation and discards itself when another cancel or rebuild got
// in between; exactly one of the racers arms its set.
func (s *service) Schedule(ctx context.Context, roomId string, fromPosition float64) {
	s.timersMu.Lock()
	gen := s.cancelTimersLocked(roomId)
	s.timersMu.Unlock()

	player, err := s.roomRepo.GetPlayer(ctx, roomId)
	if err != nil {
		s.logger.DebugContext(ctx, "failed to get player for scheduling", "room_id", roomId, "error", err)
		return
	}

	if !player.IsPlaying {
		return
	}

	scenes, err := s.sceneStore.Get(scenedata.TitleKey(player.MovieURL))
	if err != nil {
		if !errors.Is(err, scenedata.ErrTitleNotFound) {
			s.logger.InfoContext(ctx, "failed to get scenes", "movie_url", player.MovieURL, "error", err)
		}
		return
	}

	s.timersMu.Lock()
	defer s.timersMu.Unlock()

	if s.timerGen[roomId] != gen {
		s.logger.DebugContext(ctx, "stale timer rebuild discarded", "room_id", roomId)
		return
	}

	for _, scene := range scenes {
		remaining := scene.End - fromPosition
		if remaining <= 0 {
			continue
		}

		scene := scene
		timer := time.AfterFunc(time.Duration(remaining*float64(time.Second)), func() {
			s.fireInteraction(roomId, scene)
		})
		s.timers[roomId] = append(s.timers[roomId], timer)
	}

	s.logger.DebugContext(ctx, "scene timers armed",
		"room_id", roomId,
		"from_position", fromPosition,
		"count", len(s.timers[roomId]),
	)
}

// CancelAll stops every outstanding timer for the room. Safe to call when
// none exist. A timer already in flight is not interrupted; fireInteraction
// re-checks room state before acting.
func (s *service) CancelAll(roomId string) {
	s.timersMu.Lock()
	defer s.timersMu.Unlock()

	s.cancelTimersLocked(roomId)
}

// cancelTimersLocked stops and drops the room's timers and advances its
// generation. Callers hold timersMu.
func (s *service) cancelTimersLocked(roomId string) uint64 {
	for _, timer := range s.timers[roomId] {
		timer.Stop()
	}
	delete(s.timers, roomId)

	s.timerGen[roomId]++

	return s.timerGen[roomId]
}

// ArmedTimers reports how many scene timers are currently armed for the room.
func (s *service) ArmedTimers(roomId string) int {
	s.timersMu.Lock()
	defer s.timersMu.Unlock()

	return len(s.timers[roomId])
}

// fireInteraction runs on the timer goroutine, asynchronously to the
// handlers that mutate room state. Captured state is stale by definition:
// playback is re-read and the firing suppressed unless the room is still
// playing.
func (s *service) fireInteraction(roomId string, scene scenedata.Scene) {
	ctx := context.Background()

	player, err := s.roomRepo.GetPlayer(ctx, roomId)
	if err != nil {
		s.logger.DebugContext(ctx, "interaction fire dropped", "room_id", roomId, "error", err)
		return
	}

	if !player.IsPlaying {
		s.logger.DebugContext(ctx, "interaction fire suppressed: not playing", "room_id", roomId, "scene_id", scene.Scene)
		return
	}

	interaction, ok := s.pickInteraction(scene)
	if !ok {
		return
	}

	if interaction.Kind != KindFunFact {
		if err := s.roomRepo.CreateInteraction(ctx, &room.CreateInteractionParams{
			RoomId:  roomId,
			SceneId: interaction.SceneId,
			Kind:    interaction.Kind,
		}); err != nil {
			s.logger.InfoContext(ctx, "failed to create interaction tally", "room_id", roomId, "error", err)
			return
		}
	}

	conns, err := s.getConnsByRoomId(ctx, roomId)
	if err != nil {
		s.logger.InfoContext(ctx, "failed to get conns by room id", "room_id", roomId, "error", err)
		return
	}

	s.sendToAll(ctx, conns, &output{
		Type:    "scene-interaction",
		Payload: interaction,
	})
}

// pickInteraction chooses uniformly among the kinds the scene carries
// content for.
func (s *service) pickInteraction(scene scenedata.Scene) (*Interaction, bool) {
	kinds := make([]string, 0, 3)
	if scene.TriviaQuestion != "" {
		kinds = append(kinds, KindTrivia)
	}
	if scene.FunFact != "" {
		kinds = append(kinds, KindFunFact)
	}
	if scene.PollQuestion != "" {
		kinds = append(kinds, KindPoll)
	}

	if len(kinds) == 0 {
		return nil, false
	}

	interaction := Interaction{
		SceneId: scene.Scene,
		Kind:    kinds[rand.IntN(len(kinds))],
	}

	switch interaction.Kind {
	case KindTrivia:
		interaction.Question = scene.TriviaQuestion
		interaction.Choices = scene.TriviaChoices
	case KindFunFact:
		interaction.Fact = scene.FunFact
	case KindPoll:
		interaction.Question = scene.PollQuestion
		interaction.Options = scene.PollOptions
	}

	return &interaction, true
}

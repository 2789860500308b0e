package room

import (
	"context"
	"errors"
	"fmt"

	"github.com/gorilla/websocket"

	"github.com/cinesync/server/internal/repository/room"
)

type SubmitAnswerParams struct {
	RoomId   string
	SceneId  int
	Username string
	Answer   string
}

type SubmitAnswerResponse struct {
	Results InteractionResults
	Conns   []*websocket.Conn
}

// SubmitAnswer records one participant's answer for a fired prompt. The
// last answer per user wins. Answers arriving for a prompt that never
// fired, or whose tally has expired, return ErrInteractionNotFound and are
// dropped by the caller. Answers are tallied as-is, with no validation
// against the declared option set.
func (s *service) SubmitAnswer(ctx context.Context, params *SubmitAnswerParams) (SubmitAnswerResponse, error) {
	kind, err := s.roomRepo.GetInteractionKind(ctx, params.RoomId, params.SceneId)
	if err != nil {
		if errors.Is(err, room.ErrInteractionNotFound) {
			return SubmitAnswerResponse{}, ErrInteractionNotFound
		}

		return SubmitAnswerResponse{}, fmt.Errorf("failed to get interaction kind: %w", err)
	}

	if err := s.roomRepo.SetInteractionAnswer(ctx, &room.SetInteractionAnswerParams{
		RoomId:   params.RoomId,
		SceneId:  params.SceneId,
		Username: params.Username,
		Answer:   params.Answer,
	}); err != nil {
		return SubmitAnswerResponse{}, fmt.Errorf("failed to set interaction answer: %w", err)
	}

	answers, err := s.roomRepo.GetInteractionAnswers(ctx, params.RoomId, params.SceneId)
	if err != nil {
		return SubmitAnswerResponse{}, fmt.Errorf("failed to get interaction answers: %w", err)
	}

	counts := make(map[string]int, len(answers))
	for _, answer := range answers {
		counts[answer]++
	}

	conns, err := s.getConnsByRoomId(ctx, params.RoomId)
	if err != nil {
		return SubmitAnswerResponse{}, fmt.Errorf("failed to get conns by room id: %w", err)
	}

	return SubmitAnswerResponse{
		Results: InteractionResults{
			SceneId: params.SceneId,
			Kind:    kind,
			Counts:  counts,
			Total:   len(answers),
		},
		Conns: conns,
	}, nil
}
